package model

import (
	"sort"
	"strings"
)

// Set is an immutable set of categorical tag values.
// The zero value is an empty set and is ready to use.
type Set struct {
	m map[string]struct{}
}

// NewSet builds a Set from values. Empty strings are ignored.
func NewSet(values ...string) Set {
	if len(values) == 0 {
		return Set{}
	}
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		m[v] = struct{}{}
	}
	return Set{m: m}
}

// Has reports whether v is a member.
func (s Set) Has(v string) bool {
	if v == "" || s.m == nil {
		return false
	}
	_, ok := s.m[v]
	return ok
}

// Len returns the number of members.
func (s Set) Len() int { return len(s.m) }

// Empty reports whether the set has no members.
func (s Set) Empty() bool { return len(s.m) == 0 }

// Values returns the members sorted ascending.
func (s Set) Values() []string {
	out := make([]string, 0, len(s.m))
	for v := range s.m {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// With returns a new set containing the members of s plus values.
func (s Set) With(values ...string) Set {
	return NewSet(append(s.Values(), values...)...)
}

// Without returns a new set with values removed.
func (s Set) Without(values ...string) Set {
	drop := NewSet(values...)
	keep := make([]string, 0, len(s.m))
	for v := range s.m {
		if !drop.Has(v) {
			keep = append(keep, v)
		}
	}
	return NewSet(keep...)
}

// Toggle adds v when absent and removes it when present.
func (s Set) Toggle(v string) Set {
	if s.Has(v) {
		return s.Without(v)
	}
	return s.With(v)
}

// CountIn returns how many of values are members, counting duplicates once.
func (s Set) CountIn(values []string) int {
	if s.Empty() {
		return 0
	}
	n := 0
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		if s.Has(v) {
			n++
		}
	}
	return n
}

// String renders the set as a comma separated sorted list.
func (s Set) String() string {
	return strings.Join(s.Values(), ",")
}
