package persona

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// CampaignFile is the top-level structure of an Eidolon campaign YAML file.
//
// Example:
//
//	campaign:
//	  name: "The Ashen Vale"
//	  system: "custom"
//	npcs:
//	  - id: "npc-marta"
//	    name: "Marta the Fence"
//	    traits: {openness: 55, conscientiousness: 40, extraversion: 70, agreeableness: 25, neuroticism: 60}
//	    motivations: [wealth, survival]
//	    speech_style: "clipped, streetwise"
type CampaignFile struct {
	Campaign CampaignMeta `yaml:"campaign"`
	NPCs     []NPCProfile `yaml:"npcs"`
}

// CampaignMeta holds top-level metadata for a campaign.
type CampaignMeta struct {
	// Name is the campaign's display name.
	Name string `yaml:"name"`

	// Description is a free-text summary of the campaign.
	Description string `yaml:"description"`

	// System is the game system identifier (e.g., "dnd5e", "custom").
	System string `yaml:"system"`
}

// LoadCampaignFile reads and parses a campaign YAML file from disk.
// Every profile in the file is validated; the first invalid profile aborts
// the load.
func LoadCampaignFile(path string) (*CampaignFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("persona: open campaign file %q: %w", path, err)
	}
	defer f.Close()

	cf, err := LoadCampaignFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("persona: parse campaign file %q: %w", path, err)
	}
	return cf, nil
}

// LoadCampaignFromReader parses campaign YAML from an [io.Reader].
// The reader is consumed entirely; the caller is responsible for closing it.
func LoadCampaignFromReader(r io.Reader) (*CampaignFile, error) {
	var cf CampaignFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cf); err != nil {
		return nil, fmt.Errorf("persona: decode campaign yaml: %w", err)
	}

	for i, p := range cf.NPCs {
		if err := Validate(p); err != nil {
			return nil, fmt.Errorf("persona: npc[%d] (name %q): %w", i, p.Name, err)
		}
	}
	return &cf, nil
}
