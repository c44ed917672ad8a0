package relation

// BehaviorBias lists the action tags a relationship type pushes an NPC toward
// and away from. The decision engine folds these into its relationship and
// personality components; they bias scoring, they never hard-filter options.
type BehaviorBias struct {
	Favored []string
	Avoided []string
}

// Favors reports whether tag is on the favored list.
func (b BehaviorBias) Favors(tag string) bool { return contains(b.Favored, tag) }

// Avoids reports whether tag is on the avoided list.
func (b BehaviorBias) Avoids(tag string) bool { return contains(b.Avoided, tag) }

func contains(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// biasTable is the fixed mapping from relationship type to behavior bias.
// Neutral, economic, and political carry no bias.
var biasTable = map[Type]BehaviorBias{
	TypeAllied: {
		Favored: []string{"help", "defend", "share", "warn"},
		Avoided: []string{"attack", "betray", "deceive"},
	},
	TypeHostile: {
		Favored: []string{"attack", "hinder", "deceive", "flee"},
		Avoided: []string{"help", "share", "trust"},
	},
	TypeFears: {
		Favored: []string{"flee", "hide", "appease", "submit"},
		Avoided: []string{"confront", "attack", "challenge"},
	},
	TypeRespects: {
		Favored: []string{"listen", "defer", "assist", "learn"},
		Avoided: []string{"dismiss", "mock", "disobey"},
	},
	TypeDistrusts: {
		Favored: []string{"verify", "watch", "withhold", "test"},
		Avoided: []string{"share_secrets", "rely_on", "trust"},
	},
}

// BiasFor returns the behavior bias for a relationship type. Types without
// an entry (neutral, economic, political, unknown) yield an empty bias.
func BiasFor(t Type) BehaviorBias {
	return biasTable[t]
}
