// Package scoring defines the relevance policies used to rank simulations.
package scoring

import (
	"fmt"
	"strings"

	"github.com/okian/simcat/internal/domain/model"
)

// Policy names accepted by ByName.
const (
	PolicyTiered = "tiered"
	PolicyFlat   = "flat"
)

// Policy scores a simulation against a selection. A false ok means the
// simulation is excluded regardless of its score. Type and difficulty
// filtering happens before a policy is consulted.
type Policy interface {
	Name() string
	Score(s model.Simulation, c model.Criteria) (score int, ok bool)
}

// Weights configures the Tiered policy.
type Weights struct {
	PrimaryTopic   int `koanf:"primary_topic"`
	SecondaryTopic int `koanf:"secondary_topic"`
	PrimaryRole    int `koanf:"primary_role"`
	SecondaryRole  int `koanf:"secondary_role"`
	PrimaryWeek    int `koanf:"primary_week"`
	SecondaryWeek  int `koanf:"secondary_week"`
}

// DefaultWeights returns the standard tiered weights.
func DefaultWeights() Weights {
	return Weights{
		PrimaryTopic:   1000,
		SecondaryTopic: 50,
		PrimaryRole:    1000,
		SecondaryRole:  100,
		PrimaryWeek:    500,
		SecondaryWeek:  50,
	}
}

// Points configures the Flat policy.
type Points struct {
	Topic int `koanf:"topic"`
	Role  int `koanf:"role"`
	Week  int `koanf:"week"`
}

// DefaultPoints returns the standard flat points.
func DefaultPoints() Points {
	return Points{Topic: 1, Role: 2, Week: 2}
}

// Option applies a configuration option to a policy built by ByName.
type Option func(*options)

type options struct {
	weights Weights
	points  Points
	loose   bool
}

// WithPrimaryExclusion controls whether the tiered policy drops a simulation
// whose primary value is set but not selected. It is on by default; turned
// off, only type and difficulty ever exclude and primaries merely score.
func WithPrimaryExclusion(on bool) Option {
	return func(o *options) {
		o.loose = !on
	}
}

// WithWeights overrides the tiered weights. Non-positive fields keep their default.
func WithWeights(w Weights) Option {
	return func(o *options) {
		o.weights = mergeWeights(o.weights, w)
	}
}

// WithPoints overrides the flat points. Non-positive fields keep their default.
func WithPoints(p Points) Option {
	return func(o *options) {
		if p.Topic > 0 {
			o.points.Topic = p.Topic
		}
		if p.Role > 0 {
			o.points.Role = p.Role
		}
		if p.Week > 0 {
			o.points.Week = p.Week
		}
	}
}

func mergeWeights(base, w Weights) Weights {
	pick := func(def, v int) int {
		if v > 0 {
			return v
		}
		return def
	}
	return Weights{
		PrimaryTopic:   pick(base.PrimaryTopic, w.PrimaryTopic),
		SecondaryTopic: pick(base.SecondaryTopic, w.SecondaryTopic),
		PrimaryRole:    pick(base.PrimaryRole, w.PrimaryRole),
		SecondaryRole:  pick(base.SecondaryRole, w.SecondaryRole),
		PrimaryWeek:    pick(base.PrimaryWeek, w.PrimaryWeek),
		SecondaryWeek:  pick(base.SecondaryWeek, w.SecondaryWeek),
	}
}

// ByName resolves a policy by name. An empty name selects the tiered policy.
func ByName(name string, opts ...Option) (Policy, error) {
	o := options{weights: DefaultWeights(), points: DefaultPoints()}
	for _, opt := range opts {
		opt(&o)
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyTiered:
		return Tiered{Weights: o.weights, KeepUnselectedPrimary: o.loose}, nil
	case PolicyFlat:
		return Flat{Points: o.points}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}

// Tiered weighs primary tags far above secondary ones. A non-empty taxonomy
// selection excludes a simulation whose primary value for that taxonomy is
// set but not selected; a missing primary value is never penalized.
//
// With KeepUnselectedPrimary set that exclusion is skipped and an unselected
// primary only forgoes its weight.
type Tiered struct {
	Weights               Weights
	KeepUnselectedPrimary bool
}

// NewTiered returns a Tiered policy with the default weights.
func NewTiered() Tiered { return Tiered{Weights: DefaultWeights()} }

// Name implements Policy.
func (Tiered) Name() string { return PolicyTiered }

// Score implements Policy.
func (p Tiered) Score(s model.Simulation, c model.Criteria) (int, bool) {
	if !p.KeepUnselectedPrimary && (rejectPrimary(c.Topics, s.PrimaryTopic) ||
		rejectPrimary(c.Roles, s.PrimaryRole) ||
		rejectPrimary(c.Weeks, s.PrimaryWeek)) {
		return 0, false
	}

	w := p.Weights
	score := 0
	if c.Topics.Has(s.PrimaryTopic) {
		score += w.PrimaryTopic
	}
	score += c.Topics.CountIn(s.SecondaryTopics) * w.SecondaryTopic
	if c.Roles.Has(s.PrimaryRole) {
		score += w.PrimaryRole
	}
	score += c.Roles.CountIn(s.SecondaryRoles) * w.SecondaryRole
	if c.Weeks.Has(s.PrimaryWeek) {
		score += w.PrimaryWeek
	}
	score += c.Weeks.CountIn(s.SecondaryWeeks) * w.SecondaryWeek
	return score, true
}

func rejectPrimary(selected model.Set, primary string) bool {
	return !selected.Empty() && primary != "" && !selected.Has(primary)
}

// Flat gives every matching tag equal weight regardless of primary or
// secondary position. When any taxonomy is selected a simulation that
// matches nothing is excluded.
type Flat struct {
	Points Points
}

// NewFlat returns a Flat policy with the default points.
func NewFlat() Flat { return Flat{Points: DefaultPoints()} }

// Name implements Policy.
func (Flat) Name() string { return PolicyFlat }

// Score implements Policy.
func (p Flat) Score(s model.Simulation, c model.Criteria) (int, bool) {
	score := c.Topics.CountIn(s.Topics()) * p.Points.Topic
	if c.Weeks.CountIn(s.Weeks()) > 0 {
		score += p.Points.Week
	}
	if c.Roles.CountIn(s.Roles()) > 0 {
		score += p.Points.Role
	}
	if score == 0 && c.HasTaxonomySelection() {
		return 0, false
	}
	return score, true
}
