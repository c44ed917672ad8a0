package memory

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// Relevance scores how topically related a memory description is to the
// current situational context, in [0.0, 1.0].
//
// The contract requires the measure to be monotonic in textual/topical
// overlap and deterministic for identical inputs; beyond that the technique
// is implementation-defined. Embedding-based scoring can be layered on via
// the Postgres backend's vector column; [TextRelevance] is the in-process
// default and needs no external service.
type Relevance interface {
	Score(description, context string) float64
}

// Compile-time interface check.
var _ Relevance = (*TextRelevance)(nil)

// TextRelevance measures relevance by token alignment: each context token is
// matched against the best Jaro-Winkler candidate among the description
// tokens, and the scores are averaged. Identical wording scores 1, disjoint
// vocabulary scores near 0, and partial overlap lands in between.
//
// Stateless and safe for concurrent use.
type TextRelevance struct{}

// Score implements [Relevance]. An empty context or description scores 0.
func (TextRelevance) Score(description, context string) float64 {
	descTokens := strings.Fields(strings.ToLower(description))
	ctxTokens := strings.Fields(strings.ToLower(context))
	if len(descTokens) == 0 || len(ctxTokens) == 0 {
		return 0
	}

	var total float64
	for _, ct := range ctxTokens {
		best := 0.0
		for _, dt := range descTokens {
			if s := matchr.JaroWinkler(ct, dt, false); s > best {
				best = s
			}
		}
		total += best
	}
	return total / float64(len(ctxTokens))
}
