// Package ranking filters and orders catalog simulations for a selection.
//
// Rank is pure: it never mutates its inputs, keeps no state between calls
// and returns the same output for the same input.
package ranking

import (
	"sort"

	"github.com/okian/simcat/internal/domain/model"
	"github.com/okian/simcat/internal/domain/scoring"
)

// Scored pairs a surviving simulation with its score and catalog position.
type Scored struct {
	Simulation model.Simulation
	Score      int
	Index      int
}

// Ranker binds a scoring policy to the ranking pipeline.
type Ranker struct {
	policy scoring.Policy
}

// New returns a Ranker using p, or the tiered policy when p is nil.
func New(p scoring.Policy) Ranker {
	if p == nil {
		p = scoring.NewTiered()
	}
	return Ranker{policy: p}
}

// Policy returns the bound scoring policy.
func (r Ranker) Policy() scoring.Policy { return r.policy }

// Rank returns the simulations of catalog that survive c, best first.
func (r Ranker) Rank(catalog []model.Simulation, c model.Criteria) []model.Simulation {
	return Rank(catalog, c, r.policy)
}

// Rank filters catalog by c and orders the survivors by descending score
// under p. Equal scores keep their catalog order. A nil policy means tiered.
func Rank(catalog []model.Simulation, c model.Criteria, p scoring.Policy) []model.Simulation {
	scored := RankScored(catalog, c, p)
	out := make([]model.Simulation, len(scored))
	for i, s := range scored {
		out[i] = s.Simulation
	}
	return out
}

// RankScored is Rank with scores and catalog positions kept.
func RankScored(catalog []model.Simulation, c model.Criteria, p scoring.Policy) []Scored {
	if p == nil {
		p = scoring.NewTiered()
	}
	out := make([]Scored, 0, len(catalog))
	for i, s := range catalog {
		if !c.Types.Has(s.Type) || !c.Difficulties.Has(s.Difficulty) {
			continue
		}
		score, ok := p.Score(s, c)
		if !ok {
			continue
		}
		out = append(out, Scored{Simulation: s, Score: score, Index: i})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Index < out[j].Index
	})
	return out
}
