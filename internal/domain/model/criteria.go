package model

import (
	"strconv"
	"strings"
)

// Criteria is the user's current filter selection. It is a value: every
// With* method returns a new Criteria and leaves the receiver untouched.
//
// An empty Topics/Roles/Weeks set means "no constraint from that taxonomy".
// Types and Difficulties are checkbox groups: a record whose type or
// difficulty is not a member is always excluded, so an empty set excludes
// everything.
type Criteria struct {
	Topics       Set
	Roles        Set
	Weeks        Set
	Types        Set
	Difficulties Set
}

// DefaultCriteria returns the initial selection for a catalog: no taxonomy
// constraint and every type and difficulty the catalog offers enabled.
func DefaultCriteria(c Catalog) Criteria {
	return Criteria{
		Types:        NewSet(c.TypeValues()...),
		Difficulties: NewSet(c.DifficultyValues()...),
	}
}

// WithTopics replaces the topic selection.
func (c Criteria) WithTopics(values ...string) Criteria {
	c.Topics = NewSet(values...)
	return c
}

// WithRoles replaces the role selection.
func (c Criteria) WithRoles(values ...string) Criteria {
	c.Roles = NewSet(values...)
	return c
}

// WithWeeks replaces the week selection.
func (c Criteria) WithWeeks(values ...string) Criteria {
	c.Weeks = NewSet(values...)
	return c
}

// WithTypes replaces the allowed types.
func (c Criteria) WithTypes(values ...string) Criteria {
	c.Types = NewSet(values...)
	return c
}

// WithDifficulties replaces the allowed difficulties.
func (c Criteria) WithDifficulties(values ...string) Criteria {
	c.Difficulties = NewSet(values...)
	return c
}

// HasTaxonomySelection reports whether any of topics, roles or weeks is constrained.
func (c Criteria) HasTaxonomySelection() bool {
	return !c.Topics.Empty() || !c.Roles.Empty() || !c.Weeks.Empty()
}

// Key returns a canonical representation usable as a cache key.
// Two criteria with the same members produce the same key. Each value is
// length-prefixed so no value can impersonate a separator.
func (c Criteria) Key() string {
	var b strings.Builder
	for _, part := range []struct {
		name string
		set  Set
	}{
		{"t", c.Topics},
		{"r", c.Roles},
		{"w", c.Weeks},
		{"ty", c.Types},
		{"d", c.Difficulties},
	} {
		b.WriteString(part.name)
		b.WriteByte('=')
		for _, v := range part.set.Values() {
			b.WriteString(strconv.Itoa(len(v)))
			b.WriteByte(':')
			b.WriteString(v)
		}
		b.WriteByte(';')
	}
	return b.String()
}
