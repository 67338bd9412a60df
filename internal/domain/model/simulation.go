// Package model contains domain models passed between layers.
package model

import "time"

// Simulation is one catalog record. Taxonomy tags use the single-valued shape:
// one optional primary value per taxonomy plus a set of secondary values.
// Other payload shapes are normalized into this one by the source adapter.
type Simulation struct {
	ID         string
	Title      string
	Summary    string
	URL        string
	Type       string // closed set in practice, e.g. "formal"/"unannounced"
	Difficulty string // easy/medium/hard

	PrimaryTopic    string // "" when absent
	SecondaryTopics []string
	PrimaryRole     string
	SecondaryRoles  []string
	PrimaryWeek     string
	SecondaryWeeks  []string
}

// Topics returns the primary topic (if any) followed by the secondary topics.
func (s Simulation) Topics() []string { return withPrimary(s.PrimaryTopic, s.SecondaryTopics) }

// Roles returns the primary role (if any) followed by the secondary roles.
func (s Simulation) Roles() []string { return withPrimary(s.PrimaryRole, s.SecondaryRoles) }

// Weeks returns the primary week (if any) followed by the secondary weeks.
func (s Simulation) Weeks() []string { return withPrimary(s.PrimaryWeek, s.SecondaryWeeks) }

func withPrimary(primary string, rest []string) []string {
	out := make([]string, 0, len(rest)+1)
	if primary != "" {
		out = append(out, primary)
	}
	return append(out, rest...)
}

// Taxonomy is one labelled group of selectable values with a display color.
type Taxonomy struct {
	Category string
	Values   []string
	Color    string
}

// Catalog is the session-wide, read-only data set the browser works on.
type Catalog struct {
	Topics      []Taxonomy // one section per topic type
	Roles       Taxonomy
	Weeks       Taxonomy
	Simulations []Simulation
	FetchedAt   time.Time
}

// Lookup returns the simulation with the given id.
func (c Catalog) Lookup(id string) (Simulation, bool) {
	for _, s := range c.Simulations {
		if s.ID == id {
			return s, true
		}
	}
	return Simulation{}, false
}

// TopicValues flattens all topic sections in display order.
func (c Catalog) TopicValues() []string {
	var out []string
	for _, t := range c.Topics {
		out = append(out, t.Values...)
	}
	return out
}

// TypeValues returns every simulation type present, in first-seen order.
func (c Catalog) TypeValues() []string {
	return distinct(c.Simulations, func(s Simulation) string { return s.Type })
}

// DifficultyValues returns every difficulty present. Known levels come first
// in easy/medium/hard order, unknown ones follow in first-seen order.
func (c Catalog) DifficultyValues() []string {
	seen := NewSet(distinct(c.Simulations, func(s Simulation) string { return s.Difficulty })...)
	out := make([]string, 0, seen.Len())
	for _, d := range DifficultyOrder {
		if seen.Has(d) {
			out = append(out, d)
		}
	}
	known := NewSet(DifficultyOrder...)
	for _, d := range distinct(c.Simulations, func(s Simulation) string { return s.Difficulty }) {
		if !known.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

// DifficultyOrder is the canonical ordering of difficulty levels.
var DifficultyOrder = []string{"easy", "medium", "hard"}

func distinct(sims []Simulation, field func(Simulation) string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, s := range sims {
		v := field(s)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
