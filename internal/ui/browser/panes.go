package browser

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/okian/simcat/internal/domain/model"
)

// field identifies which part of the selection a pane edits.
type field int

const (
	fieldTopics field = iota
	fieldRoles
	fieldWeeks
	fieldTypes
	fieldDifficulties
)

// option is one selectable value in a pane.
type option struct {
	value string
	group string // topic section, "" elsewhere
	color string
}

// pane is a filter list. Taxonomy panes render chips and can be narrowed by
// typing; the type and difficulty panes render checkboxes.
type pane struct {
	title    string
	field    field
	checkbox bool
	options  []option
	cursor   int // index into shown()

	filter textinput.Model
}

func newFilterInput() textinput.Model {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "type to filter"
	ti.CharLimit = 40
	return ti
}

func buildPanes(c model.Catalog) []pane {
	topics := pane{title: "Topics", field: fieldTopics, filter: newFilterInput()}
	for _, t := range c.Topics {
		for _, v := range t.Values {
			topics.options = append(topics.options, option{value: v, group: t.Category, color: t.Color})
		}
	}
	return []pane{
		topics,
		tagPane("Roles", fieldRoles, c.Roles),
		tagPane("Weeks", fieldWeeks, c.Weeks),
		checkboxPane("Type", fieldTypes, c.TypeValues()),
		checkboxPane("Difficulty", fieldDifficulties, c.DifficultyValues()),
	}
}

func tagPane(title string, f field, t model.Taxonomy) pane {
	p := pane{title: title, field: f, filter: newFilterInput()}
	for _, v := range t.Values {
		p.options = append(p.options, option{value: v, color: t.Color})
	}
	return p
}

func checkboxPane(title string, f field, values []string) pane {
	p := pane{title: title, field: f, checkbox: true}
	for _, v := range values {
		p.options = append(p.options, option{value: v})
	}
	return p
}

// filterable reports whether typing can narrow the pane.
func (p pane) filterable() bool { return !p.checkbox }

func (p pane) query() string {
	if !p.filterable() {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(p.filter.Value()))
}

// shown returns the options matching the filter text, in catalog order.
// A topic also matches through its section name.
func (p pane) shown() []option {
	q := p.query()
	if q == "" {
		return p.options
	}
	out := make([]option, 0, len(p.options))
	for _, o := range p.options {
		if strings.Contains(strings.ToLower(o.value), q) || strings.Contains(strings.ToLower(o.group), q) {
			out = append(out, o)
		}
	}
	return out
}

// setQuery replaces the filter text and keeps the cursor on a shown option.
func (p *pane) setQuery(q string) {
	p.filter.SetValue(q)
	p.move(0)
}

func (p *pane) move(delta int) {
	n := len(p.shown())
	if n == 0 {
		p.cursor = 0
		return
	}
	p.cursor += delta
	if p.cursor < 0 {
		p.cursor = 0
	}
	if p.cursor >= n {
		p.cursor = n - 1
	}
}

func (p pane) current() (option, bool) {
	shown := p.shown()
	if p.cursor < 0 || p.cursor >= len(shown) {
		return option{}, false
	}
	return shown[p.cursor], true
}

// selectionSet returns the part of c that f edits.
func selectionSet(c model.Criteria, f field) model.Set {
	switch f {
	case fieldTopics:
		return c.Topics
	case fieldRoles:
		return c.Roles
	case fieldWeeks:
		return c.Weeks
	case fieldTypes:
		return c.Types
	default:
		return c.Difficulties
	}
}

// toggle returns c with v flipped in the set f edits.
func toggle(c model.Criteria, f field, v string) model.Criteria {
	switch f {
	case fieldTopics:
		c.Topics = c.Topics.Toggle(v)
	case fieldRoles:
		c.Roles = c.Roles.Toggle(v)
	case fieldWeeks:
		c.Weeks = c.Weeks.Toggle(v)
	case fieldTypes:
		c.Types = c.Types.Toggle(v)
	case fieldDifficulties:
		c.Difficulties = c.Difficulties.Toggle(v)
	}
	return c
}

// reset returns c with the set f edits restored to its default.
func reset(c, defaults model.Criteria, f field) model.Criteria {
	switch f {
	case fieldTopics:
		c.Topics = defaults.Topics
	case fieldRoles:
		c.Roles = defaults.Roles
	case fieldWeeks:
		c.Weeks = defaults.Weeks
	case fieldTypes:
		c.Types = defaults.Types
	case fieldDifficulties:
		c.Difficulties = defaults.Difficulties
	}
	return c
}

// render draws the pane with at most rows option lines, scrolled so the
// cursor stays visible.
func (p pane) render(c model.Criteria, focused bool, width, rows int) string {
	selected := selectionSet(c, p.field)

	var b strings.Builder
	title := p.title
	if !p.checkbox && selected.Len() > 0 {
		title += " (" + strconv.Itoa(selected.Len()) + ")"
	}
	b.WriteString(paneTitleStyle.Render(title))
	if p.filterable() && (p.filter.Focused() || p.filter.Value() != "") {
		b.WriteString("\n" + p.filter.View())
	}

	options := p.shown()
	switch {
	case len(p.options) == 0:
		b.WriteString("\n" + helpStyle.Render("none"))
	case len(options) == 0:
		b.WriteString("\n" + helpStyle.Render("no match"))
	}

	start, end := window(p.cursor, len(options), rows)
	group := ""
	if start > 0 {
		group = options[start-1].group
	}
	for i := start; i < end; i++ {
		o := options[i]
		if o.group != "" && o.group != group {
			group = o.group
			b.WriteString("\n" + groupStyle.Render(group))
		}

		marker := "  "
		if focused && i == p.cursor {
			marker = "▶ "
		}
		b.WriteString("\n" + marker)
		if p.checkbox {
			box := "[ ]"
			if selected.Has(o.value) {
				box = checkedStyle.Render("[✓]")
			}
			b.WriteString(box + " " + o.value)
			continue
		}
		b.WriteString(chip(o.value, o.color, selected.Has(o.value)))
	}

	style := paneStyle
	if focused {
		style = focusedPaneStyle
	}
	return style.Width(width).Render(b.String())
}

// window returns the [start, end) range of n items that fits rows and
// contains cursor.
func window(cursor, n, rows int) (int, int) {
	if rows <= 0 || n <= rows {
		return 0, n
	}
	start := cursor - rows/2
	if start < 0 {
		start = 0
	}
	if start+rows > n {
		start = n - rows
	}
	return start, start + rows
}
