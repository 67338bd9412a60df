package source

import (
	"sort"
	"strconv"
	"strings"

	"github.com/okian/simcat/internal/domain/model"
	"github.com/okian/simcat/internal/domain/types"
)

// Display colors.
const (
	TagColor = "#424242" // roles and weeks
)

// TopicPalette colors topic sections that arrive without a color.
var TopicPalette = []string{"#e53935", "#8e24aa", "#1e88e5", "#43a047"}

// Taxonomy labels used for roles and weeks.
const (
	RolesCategory = "Roles"
	WeeksCategory = "Weeks"
)

// Normalize converts a wire payload into the canonical catalog. Missing
// arrays become empty, missing scalars become absent, blank list entries are
// dropped and a record without an id gets its position as id. Flat-shape
// records are mapped onto the single-valued shape: topics become secondary
// topics, role and week become the primaries.
func Normalize(p types.Payload) model.Catalog {
	c := model.Catalog{
		Topics:      normalizeSections(p.SimulationTopics),
		Roles:       model.Taxonomy{Category: RolesCategory, Values: clean(p.RoleTags), Color: TagColor},
		Weeks:       model.Taxonomy{Category: WeeksCategory, Values: clean(p.WeekTopics), Color: TagColor},
		Simulations: make([]model.Simulation, 0, len(p.Simulations)),
	}
	for i, w := range p.Simulations {
		c.Simulations = append(c.Simulations, normalizeSimulation(i, w))
	}
	return c
}

func normalizeSections(in []types.TopicSection) []model.Taxonomy {
	sections := make([]types.TopicSection, len(in))
	copy(sections, in)
	sort.SliceStable(sections, func(i, j int) bool {
		return serialKey(sections[i]) < serialKey(sections[j])
	})
	out := make([]model.Taxonomy, 0, len(sections))
	for i, s := range sections {
		color := strings.TrimSpace(s.Color)
		if color == "" {
			color = TopicPalette[i%len(TopicPalette)]
		}
		out = append(out, model.Taxonomy{
			Category: strings.TrimSpace(s.TopicType),
			Values:   clean(s.Topics),
			Color:    color,
		})
	}
	return out
}

// serialKey sorts unnumbered sections after numbered ones.
func serialKey(s types.TopicSection) int {
	if s.Serial <= 0 {
		return int(^uint(0) >> 1)
	}
	return s.Serial
}

func normalizeSimulation(i int, w types.Simulation) model.Simulation {
	id := strings.TrimSpace(string(w.ID))
	if id == "" {
		id = strconv.Itoa(i)
	}
	s := model.Simulation{
		ID:         id,
		Title:      strings.TrimSpace(w.Title),
		Summary:    strings.TrimSpace(w.Summary),
		URL:        strings.TrimSpace(w.URL),
		Type:       strings.TrimSpace(w.Type),
		Difficulty: strings.TrimSpace(w.Difficulty),
	}
	if w.Flat() {
		s.SecondaryTopics = clean(w.Topics)
		s.PrimaryRole = strings.TrimSpace(w.Role)
		s.PrimaryWeek = strings.TrimSpace(w.Week)
		return s
	}
	s.PrimaryTopic = strings.TrimSpace(w.MainSimTopic)
	s.SecondaryTopics = clean(w.AdditionalSimTopics)
	s.PrimaryRole = strings.TrimSpace(w.MainRoleTag)
	s.SecondaryRoles = clean(w.AdditionalRoleTags)
	s.PrimaryWeek = strings.TrimSpace(w.MainWeek)
	s.SecondaryWeeks = clean(w.AdditionalWeeks)
	return s
}

// clean trims values and drops blanks and repeats, keeping the first
// occurrence. It never returns nil.
func clean(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Encode renders a catalog in the tiered wire shape served by /api/all.
func Encode(c model.Catalog) types.Payload {
	p := types.Payload{
		SimulationTopics: make([]types.TopicSection, 0, len(c.Topics)),
		RoleTags:         nonNil(c.Roles.Values),
		WeekTopics:       nonNil(c.Weeks.Values),
		Simulations:      make([]types.Simulation, 0, len(c.Simulations)),
	}
	for i, t := range c.Topics {
		p.SimulationTopics = append(p.SimulationTopics, types.TopicSection{
			TopicType: t.Category,
			Topics:    nonNil(t.Values),
			Color:     t.Color,
			Serial:    i + 1,
		})
	}
	for _, s := range c.Simulations {
		p.Simulations = append(p.Simulations, EncodeSimulation(s))
	}
	return p
}

// EncodeSimulation renders one record in the tiered wire shape.
func EncodeSimulation(s model.Simulation) types.Simulation {
	return types.Simulation{
		ID:                  types.FlexID(s.ID),
		URL:                 s.URL,
		Title:               s.Title,
		Summary:             s.Summary,
		Type:                s.Type,
		Difficulty:          s.Difficulty,
		MainSimTopic:        s.PrimaryTopic,
		MainRoleTag:         s.PrimaryRole,
		MainWeek:            s.PrimaryWeek,
		AdditionalSimTopics: s.SecondaryTopics,
		AdditionalRoleTags:  s.SecondaryRoles,
		AdditionalWeeks:     s.SecondaryWeeks,
	}
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
