// Package browser provides the Bubble Tea terminal browser for the catalog.
package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/okian/simcat/internal/adapters/source"
	"github.com/okian/simcat/internal/domain/model"
	"github.com/okian/simcat/internal/domain/ranking"
	"github.com/okian/simcat/internal/domain/scoring"
)

// UntitledPlaceholder is shown for simulations without a title.
const UntitledPlaceholder = "Untitled simulation"

// LoadFunc loads the catalog. It must honour ctx cancellation.
type LoadFunc func(ctx context.Context) (model.Catalog, error)

type viewState int

const (
	stateLoading viewState = iota
	stateError
	stateReady
)

// the results pane follows the five filter panes in focus order
const resultsFocus = 5

// Model is the root Bubble Tea model of the browser. It owns no I/O beyond
// the load command; every selection change re-runs the ranker synchronously.
type Model struct {
	load   LoadFunc
	ranker ranking.Ranker

	parent  context.Context
	loadCtx context.Context
	cancel  context.CancelFunc
	seq     int

	spinner spinner.Model
	results list.Model

	state viewState
	err   error

	catalog  model.Catalog
	defaults model.Criteria
	criteria model.Criteria
	ranked   []model.Simulation
	panes    []pane
	focus    int
	detail   *model.Simulation

	width  int
	height int
}

// Option applies a configuration option to the Model.
type Option func(*Model)

// WithPolicy sets the scoring policy used for ranking.
func WithPolicy(p scoring.Policy) Option {
	return func(m *Model) {
		m.ranker = ranking.New(p)
	}
}

// WithContext sets the parent context of every catalog load.
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		if ctx != nil {
			m.parent = ctx
		}
	}
}

// New creates a browser that loads its catalog with load.
func New(load LoadFunc, opts ...Option) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorAccent)

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(colorAccent).
		BorderForeground(colorAccent)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(colorMuted)

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Results"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	m := Model{
		load:    load,
		ranker:  ranking.New(nil),
		parent:  context.Background(),
		spinner: s,
		results: l,
		state:   stateLoading,
		width:   100,
		height:  30,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.loadCtx, m.cancel = context.WithCancel(m.parent)
	m.seq = 1
	m.layout()
	return m
}

// Init starts the first catalog load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, loadCmd(m.loadCtx, m.load, m.seq))
}

func loadCmd(ctx context.Context, load LoadFunc, seq int) tea.Cmd {
	return func() tea.Msg {
		if load == nil {
			return catalogLoaded{seq: seq, err: source.ErrNoSource}
		}
		c, err := load(ctx)
		return catalogLoaded{seq: seq, catalog: c, err: err}
	}
}

// reload abandons any load in flight and starts a new one.
func (m *Model) reload() tea.Cmd {
	m.cancel()
	m.loadCtx, m.cancel = context.WithCancel(m.parent)
	m.seq++
	m.state = stateLoading
	m.err = nil
	return tea.Batch(m.spinner.Tick, loadCmd(m.loadCtx, m.load, m.seq))
}

// Update handles messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case catalogLoaded:
		return m.handleLoaded(msg), nil

	case spinner.TickMsg:
		if m.state != stateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}
	return m, nil
}

func (m Model) handleLoaded(msg catalogLoaded) Model {
	if msg.seq != m.seq {
		return m
	}
	if msg.err != nil {
		// an abandoned load is nobody's error
		if source.IsCancelled(msg.err) {
			return m
		}
		m.state = stateError
		m.err = msg.err
		return m
	}

	m.catalog = msg.catalog
	m.defaults = model.DefaultCriteria(msg.catalog)
	m.criteria = m.defaults
	m.panes = buildPanes(msg.catalog)
	m.focus = 0
	m.detail = nil
	m.state = stateReady
	m.err = nil
	m.rerank()
	return m
}

// rerank runs the ranker for the current criteria and refreshes the list.
func (m *Model) rerank() {
	m.ranked = m.ranker.Rank(m.catalog.Simulations, m.criteria)
	items := make([]list.Item, len(m.ranked))
	for i, s := range m.ranked {
		items[i] = resultItem{rank: i + 1, sim: s}
	}
	m.results.SetItems(items)
	m.results.ResetSelected()
}

func (m *Model) setCriteria(c model.Criteria) {
	m.criteria = c
	m.rerank()
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		m.cancel()
		return m, tea.Quit
	}

	if m.detail != nil {
		switch key {
		case "esc", "enter", "backspace":
			m.detail = nil
		case "q":
			m.cancel()
			return m, tea.Quit
		}
		return m, nil
	}

	if m.filtering() {
		return m.handleFilterKey(msg)
	}

	switch key {
	case "q":
		m.cancel()
		return m, tea.Quit
	case "r":
		if m.state != stateLoading {
			return m, m.reload()
		}
		return m, nil
	}

	if m.state != stateReady {
		return m, nil
	}

	switch key {
	case "tab":
		m.focus = (m.focus + 1) % (resultsFocus + 1)
		return m, nil
	case "shift+tab":
		m.focus = (m.focus + resultsFocus) % (resultsFocus + 1)
		return m, nil
	case "x":
		m.setCriteria(m.defaults)
		return m, nil
	}

	if m.focus == resultsFocus {
		return m.handleResultsKey(msg)
	}

	p := &m.panes[m.focus]
	switch key {
	case "up", "k":
		p.move(-1)
	case "down", "j":
		p.move(1)
	case "home", "g":
		p.move(-len(p.options))
	case "end", "G":
		p.move(len(p.options))
	case " ", "enter":
		if o, ok := p.current(); ok {
			m.setCriteria(toggle(m.criteria, p.field, o.value))
		}
	case "c":
		m.setCriteria(reset(m.criteria, m.defaults, p.field))
	case "/":
		if p.filterable() {
			return m, p.filter.Focus()
		}
	case "esc":
		p.setQuery("")
	}
	return m, nil
}

// filtering reports whether the focused pane is taking filter text.
func (m Model) filtering() bool {
	return m.state == stateReady && m.focus < resultsFocus && m.panes[m.focus].filter.Focused()
}

// handleFilterKey edits the focused pane's filter text. Arrows still move
// through the narrowed options. Enter keeps the text and esc drops it.
func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := &m.panes[m.focus]
	switch msg.String() {
	case "esc":
		p.filter.Blur()
		p.setQuery("")
		return m, nil
	case "enter":
		p.filter.Blur()
		return m, nil
	case "up":
		p.move(-1)
		return m, nil
	case "down":
		p.move(1)
		return m, nil
	case "tab", "shift+tab":
		p.filter.Blur()
		return m.handleKeyMsg(msg)
	}

	before := p.filter.Value()
	var cmd tea.Cmd
	p.filter, cmd = p.filter.Update(msg)
	if p.filter.Value() != before {
		p.cursor = 0
	}
	p.move(0)
	return m, cmd
}

func (m Model) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" {
		if it, ok := m.results.SelectedItem().(resultItem); ok {
			sim := it.sim
			m.detail = &sim
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

// layout sizes the results list for the current window.
func (m *Model) layout() {
	_, right := m.columns()
	h := m.height - 3
	if h < 5 {
		h = 5
	}
	m.results.SetSize(right-4, h)
}

func (m Model) columns() (int, int) {
	left := m.width * 2 / 5
	if left < 30 {
		left = 30
	}
	right := m.width - left
	if right < 30 {
		right = 30
	}
	return left, right
}

// View renders the UI.
func (m Model) View() string {
	switch m.state {
	case stateLoading:
		return fmt.Sprintf("\n  %s Loading catalog...\n\n%s", m.spinner.View(), helpStyle.Render("  [q] quit"))
	case stateError:
		body := lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.NewStyle().Bold(true).Foreground(colorError).Render("Could not load the catalog"),
			"",
			m.err.Error(),
			"",
			helpStyle.Render("[r] retry · [q] quit"),
		)
		return errorBoxStyle.Width(min(m.width-4, 80)).Render(body)
	}

	if m.detail != nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.renderDetail(*m.detail))
	}

	left, right := m.columns()
	rows := (m.height - 5*4) / 5
	if rows < 2 {
		rows = 2
	}
	filters := make([]string, len(m.panes))
	for i, p := range m.panes {
		filters[i] = p.render(m.criteria, m.focus == i, left-2, rows)
	}

	resultsBody := m.results.View()
	if len(m.ranked) == 0 {
		resultsBody = paneTitleStyle.Render("Results") + "\n\n" + helpStyle.Render("No simulations match the current filters.")
	}
	resultsStyle := paneStyle
	if m.focus == resultsFocus {
		resultsStyle = focusedPaneStyle
	}
	resultsPane := resultsStyle.Width(right - 2).Render(resultsBody)

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.JoinVertical(lipgloss.Left, filters...),
		resultsPane,
	)
	keys := "[tab] pane · [space] toggle · [/] filter · [c] clear pane · [x] clear all · [enter] details · [r] reload · [q] quit"
	if m.filtering() {
		keys = "type to filter · [↑↓] move · [enter] keep · [esc] clear"
	}
	status := helpStyle.Render(fmt.Sprintf(" %d of %d simulations · %s · %s",
		len(m.ranked), len(m.catalog.Simulations), m.ranker.Policy().Name(), keys))
	return lipgloss.JoinVertical(lipgloss.Left, body, status)
}

func (m Model) renderDetail(s model.Simulation) string {
	title := s.Title
	if strings.TrimSpace(title) == "" {
		title = UntitledPlaceholder
	}

	line := func(label, value string) string {
		if value == "" {
			value = helpStyle.Render("-")
		}
		return labelStyle.Render(label) + value
	}
	chips := func(values []string, color string) string {
		out := make([]string, len(values))
		for i, v := range values {
			out[i] = chip(v, color, true)
		}
		return strings.Join(out, " ")
	}

	parts := []string{
		paneTitleStyle.Render(title),
		"",
	}
	if s.Summary != "" {
		parts = append(parts, lipgloss.NewStyle().Width(min(m.width-12, 72)).Render(s.Summary), "")
	}
	parts = append(parts,
		line("Type", s.Type),
		line("Difficulty", s.Difficulty),
		line("Topics", m.topicChips(s.Topics())),
		line("Roles", chips(s.Roles(), m.catalog.Roles.Color)),
		line("Weeks", chips(s.Weeks(), m.catalog.Weeks.Color)),
		line("URL", s.URL),
		"",
		helpStyle.Render("[esc] close"),
	)
	return modalStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// topicChips colors each topic with its section color.
func (m Model) topicChips(values []string) string {
	colors := make(map[string]string)
	for _, t := range m.catalog.Topics {
		for _, v := range t.Values {
			if _, ok := colors[v]; !ok {
				colors[v] = t.Color
			}
		}
	}
	out := make([]string, len(values))
	for i, v := range values {
		color, ok := colors[v]
		if !ok {
			color = source.TagColor
		}
		out[i] = chip(v, color, true)
	}
	return strings.Join(out, " ")
}

// Criteria returns the current selection.
func (m Model) Criteria() model.Criteria { return m.criteria }

// Results returns the current ranked simulations.
func (m Model) Results() []model.Simulation { return m.ranked }

// resultItem implements list.Item for the results pane.
type resultItem struct {
	rank int
	sim  model.Simulation
}

func (r resultItem) Title() string {
	title := r.sim.Title
	if strings.TrimSpace(title) == "" {
		title = UntitledPlaceholder
	}
	return fmt.Sprintf("%d. %s", r.rank, title)
}

func (r resultItem) Description() string {
	parts := []string{r.sim.Type, r.sim.Difficulty}
	if r.sim.PrimaryTopic != "" {
		parts = append(parts, r.sim.PrimaryTopic)
	}
	return strings.Join(parts, " · ")
}

func (r resultItem) FilterValue() string { return r.sim.Title }
