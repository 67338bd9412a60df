// Package types contains the wire types shared by the catalog source and the HTTP API.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Payload is the /api/all document.
type Payload struct {
	SimulationTopics []TopicSection `json:"simulation_topics" yaml:"simulation_topics"`
	RoleTags         []string       `json:"role_tags" yaml:"role_tags"`
	WeekTopics       []string       `json:"week_topics" yaml:"week_topics"`
	Simulations      []Simulation   `json:"simulations" yaml:"simulations"`
}

// TopicSection is one topic type with its topics and display color.
type TopicSection struct {
	TopicType string   `json:"topicType" yaml:"topicType"`
	Topics    []string `json:"topics" yaml:"topics"`
	Color     string   `json:"color,omitempty" yaml:"color,omitempty"`
	Serial    int      `json:"serial,omitempty" yaml:"serial,omitempty"`
}

// Simulation is a catalog record as it travels over the wire. It carries both
// the tiered fields and the flat-shape fields (Topics, Role, Week).
type Simulation struct {
	ID         FlexID `json:"id,omitempty" yaml:"id,omitempty"`
	URL        string `json:"url,omitempty" yaml:"url,omitempty"`
	Title      string `json:"title,omitempty" yaml:"title,omitempty"`
	Summary    string `json:"summary,omitempty" yaml:"summary,omitempty"`
	Type       string `json:"type,omitempty" yaml:"type,omitempty"`
	Difficulty string `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`

	MainSimTopic        string   `json:"main_sim_topic,omitempty" yaml:"main_sim_topic,omitempty"`
	MainRoleTag         string   `json:"main_role_tag,omitempty" yaml:"main_role_tag,omitempty"`
	MainWeek            string   `json:"main_week,omitempty" yaml:"main_week,omitempty"`
	AdditionalSimTopics []string `json:"additional_sim_topics,omitempty" yaml:"additional_sim_topics,omitempty"`
	AdditionalRoleTags  []string `json:"additional_role_tags,omitempty" yaml:"additional_role_tags,omitempty"`
	AdditionalWeeks     []string `json:"additional_weeks,omitempty" yaml:"additional_weeks,omitempty"`

	Topics []string `json:"topics,omitempty" yaml:"topics,omitempty"`
	Role   string   `json:"role,omitempty" yaml:"role,omitempty"`
	Week   string   `json:"week,omitempty" yaml:"week,omitempty"`
}

// Flat reports whether the record uses the flat shape.
func (s Simulation) Flat() bool {
	tiered := s.MainSimTopic != "" || s.MainRoleTag != "" || s.MainWeek != "" ||
		len(s.AdditionalSimTopics) > 0 || len(s.AdditionalRoleTags) > 0 || len(s.AdditionalWeeks) > 0
	flat := len(s.Topics) > 0 || s.Role != "" || s.Week != ""
	return flat && !tiered
}

// FlexID is a record id that may be sent as a JSON/YAML number or string.
// The empty value means the id was absent.
type FlexID string

// MarshalJSON emits numeric ids as numbers and everything else as strings.
func (id FlexID) MarshalJSON() ([]byte, error) {
	if n, ok := id.Int(); ok {
		return []byte(strconv.FormatInt(n, 10)), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts a string, a number or null.
func (id *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = FlexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = FlexID(n.String())
	return nil
}

// UnmarshalYAML accepts any scalar.
func (id *FlexID) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("id: expected a scalar at line %d", node.Line)
	}
	if node.Tag == "!!null" {
		*id = ""
		return nil
	}
	*id = FlexID(strings.TrimSpace(node.Value))
	return nil
}

// MarshalYAML mirrors MarshalJSON.
func (id FlexID) MarshalYAML() (interface{}, error) {
	if n, ok := id.Int(); ok {
		return n, nil
	}
	return string(id), nil
}

// Int returns the id as an integer when it is written in canonical decimal form.
func (id FlexID) Int() (int64, bool) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil || strconv.FormatInt(n, 10) != string(id) {
		return 0, false
	}
	return n, true
}

// Entry is a ranked record as returned by the search endpoints.
type Entry struct {
	Rank       int        `json:"rank"`
	Simulation Simulation `json:"simulation"`
}

// SearchResult is the body of GET /api/simulations.
type SearchResult struct {
	Policy         string  `json:"policy"`
	CatalogVersion uint64  `json:"catalog_version"`
	Total          int     `json:"total"`
	Count          int     `json:"count"`
	Results        []Entry `json:"results"`
}
