package browser

import (
	"context"
	"errors"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
	"github.com/okian/simcat/internal/adapters/source"
	"github.com/okian/simcat/internal/domain/model"
	"github.com/okian/simcat/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func fixture() model.Catalog {
	return model.Catalog{
		Topics: []model.Taxonomy{{Category: "Situations", Values: []string{"x", "y"}, Color: "#8e24aa"}},
		Roles:  model.Taxonomy{Category: "Roles", Values: []string{"r1"}, Color: "#424242"},
		Weeks:  model.Taxonomy{Category: "Weeks", Values: []string{"w1"}, Color: "#424242"},
		Simulations: []model.Simulation{
			{ID: "1", Title: "A", Type: "formal", Difficulty: "easy", PrimaryTopic: "x", PrimaryRole: "r1"},
			{ID: "2", Title: "B", Type: "formal", Difficulty: "hard", SecondaryTopics: []string{"x"}},
			{ID: "3", Type: "unannounced", Difficulty: "medium", PrimaryTopic: "y", URL: "https://example.test/3"},
		},
	}
}

func staticLoad(c model.Catalog, err error) LoadFunc {
	return func(context.Context) (model.Catalog, error) { return c, err }
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "shift+tab":
			msg = tea.KeyMsg{Type: tea.KeyShiftTab}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "backspace":
			msg = tea.KeyMsg{Type: tea.KeyBackspace}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "space":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func loaded(m Model, c model.Catalog) Model {
	next, _ := m.Update(catalogLoaded{seq: m.seq, catalog: c})
	return next.(Model)
}

func ids(sims []model.Simulation) []string {
	out := make([]string, len(sims))
	for i, s := range sims {
		out[i] = s.ID
	}
	return out
}

func TestLoading(t *testing.T) {
	Convey("Given a new browser", t, func() {
		m := New(staticLoad(fixture(), nil))

		Convey("Then Init starts the load", func() {
			So(m.Init(), ShouldNotBeNil)
			So(m.View(), ShouldContainSubstring, "Loading catalog")
		})

		Convey("When the load succeeds", func() {
			m = loaded(m, fixture())

			Convey("Then every simulation is listed in catalog order", func() {
				So(cmp.Diff([]string{"1", "2", "3"}, ids(m.Results())), ShouldBeEmpty)
				So(m.Criteria().Types.Values(), ShouldResemble, []string{"formal", "unannounced"})
				So(m.View(), ShouldContainSubstring, "3 of 3 simulations")
			})
		})

		Convey("When the load fails", func() {
			next, _ := m.Update(catalogLoaded{seq: m.seq, err: fmt.Errorf("%w: status 502", source.ErrFetch)})
			m = next.(Model)

			Convey("Then the error box is shown with a retry hint", func() {
				So(m.state, ShouldEqual, stateError)
				So(m.View(), ShouldContainSubstring, "status 502")
				So(m.View(), ShouldContainSubstring, "[r] retry")
			})

			Convey("And r starts a fresh load", func() {
				seq := m.seq
				next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
				m = next.(Model)
				So(cmd, ShouldNotBeNil)
				So(m.state, ShouldEqual, stateLoading)
				So(m.seq, ShouldEqual, seq+1)
			})
		})

		Convey("When a cancelled load reports back", func() {
			next, _ := m.Update(catalogLoaded{seq: m.seq, err: source.ErrCancelled})
			m = next.(Model)

			Convey("Then it is discarded silently", func() {
				So(m.state, ShouldEqual, stateLoading)
				So(m.err, ShouldBeNil)
			})
		})

		Convey("When a superseded load reports back", func() {
			next, _ := m.Update(catalogLoaded{seq: m.seq - 1, err: errors.New("old")})
			m = next.(Model)

			Convey("Then it is ignored", func() {
				So(m.state, ShouldEqual, stateLoading)
			})
		})
	})
}

func TestLoadCommand(t *testing.T) {
	Convey("Given a load that honours cancellation", t, func() {
		load := func(ctx context.Context) (model.Catalog, error) {
			<-ctx.Done()
			return model.Catalog{}, fmt.Errorf("%w: %w", source.ErrCancelled, ctx.Err())
		}
		m := New(load)

		Convey("When the user quits during loading", func() {
			_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})

			Convey("Then the load context is cancelled and the program quits", func() {
				So(cmd, ShouldNotBeNil)
				So(m.loadCtx.Err(), ShouldNotBeNil)
				msg := loadCmd(m.loadCtx, load, m.seq)().(catalogLoaded)
				So(source.IsCancelled(msg.err), ShouldBeTrue)
			})
		})

		Convey("When no load function is set", func() {
			msg := loadCmd(context.Background(), nil, 1)().(catalogLoaded)

			Convey("Then the message carries ErrNoSource", func() {
				So(errors.Is(msg.err, source.ErrNoSource), ShouldBeTrue)
			})
		})
	})
}

func TestFilterPanes(t *testing.T) {
	Convey("Given a loaded browser", t, func() {
		m := loaded(New(staticLoad(fixture(), nil)), fixture())

		Convey("When a topic is toggled", func() {
			m = press(m, "space")

			Convey("Then results are re-ranked for it", func() {
				So(m.Criteria().Topics.Values(), ShouldResemble, []string{"x"})
				So(cmp.Diff([]string{"1", "2"}, ids(m.Results())), ShouldBeEmpty)
			})

			Convey("And toggling again restores the full list", func() {
				m = press(m, "space")
				So(m.Criteria().Topics.Empty(), ShouldBeTrue)
				So(len(m.Results()), ShouldEqual, 3)
			})

			Convey("And c clears the focused pane", func() {
				m = press(m, "j", "space", "c")
				So(m.Criteria().Topics.Empty(), ShouldBeTrue)
			})
		})

		Convey("When a type checkbox is unticked", func() {
			m = press(m, "tab", "tab", "tab", "space")

			Convey("Then that type is excluded", func() {
				So(m.Criteria().Types.Has("formal"), ShouldBeFalse)
				So(cmp.Diff([]string{"3"}, ids(m.Results())), ShouldBeEmpty)
			})

			Convey("And x restores every default", func() {
				m = press(m, "x")
				So(len(m.Results()), ShouldEqual, 3)
			})
		})

		Convey("When every difficulty is unticked", func() {
			m = press(m, "tab", "tab", "tab", "tab", "space", "j", "space", "j", "space")

			Convey("Then nothing matches", func() {
				So(m.Results(), ShouldBeEmpty)
				So(m.View(), ShouldContainSubstring, "No simulations match")
			})
		})

		Convey("When the flat policy is used", func() {
			flat := loaded(New(staticLoad(fixture(), nil), WithPolicy(scoring.NewFlat())), fixture())
			flat = press(flat, "tab", "space")

			Convey("Then records without the role are dropped", func() {
				So(cmp.Diff([]string{"1"}, ids(flat.Results())), ShouldBeEmpty)
				So(flat.View(), ShouldContainSubstring, "flat")
			})
		})
	})
}

func shownValues(p pane) []string {
	var out []string
	for _, o := range p.shown() {
		out = append(out, o.value)
	}
	return out
}

func TestChipFilter(t *testing.T) {
	Convey("Given a browser over several topic sections", t, func() {
		c := model.Catalog{
			Topics: []model.Taxonomy{
				{Category: "Situations", Values: []string{"interview", "drill"}, Color: "#8e24aa"},
				{Category: "Orders", Values: []string{"leave", "inspection"}, Color: "#1e88e5"},
			},
			Roles: model.Taxonomy{Category: "Roles", Values: []string{"r1", "medic"}, Color: "#424242"},
			Simulations: []model.Simulation{
				{ID: "1", Title: "A", Type: "formal", Difficulty: "easy", PrimaryTopic: "interview"},
				{ID: "2", Title: "B", Type: "formal", Difficulty: "easy", PrimaryTopic: "inspection"},
			},
		}
		m := loaded(New(staticLoad(c, nil)), c)

		Convey("When filter text is typed on the topic pane", func() {
			m = press(m, "/", "i", "n")

			Convey("Then only matching chips are offered", func() {
				So(m.filtering(), ShouldBeTrue)
				So(cmp.Diff([]string{"interview", "inspection"}, shownValues(m.panes[0])), ShouldBeEmpty)
				So(m.View(), ShouldContainSubstring, "[esc] clear")
			})

			Convey("And backspace widens the match again", func() {
				m = press(m, "backspace")
				So(cmp.Diff([]string{"interview", "drill", "inspection"}, shownValues(m.panes[0])), ShouldBeEmpty)
			})

			Convey("And enter keeps the text while space toggles the matched chip", func() {
				m = press(m, "down", "enter", "space")
				So(m.filtering(), ShouldBeFalse)
				So(m.Criteria().Topics.Values(), ShouldResemble, []string{"inspection"})
				So(cmp.Diff([]string{"2"}, ids(m.Results())), ShouldBeEmpty)
			})

			Convey("And esc drops the text", func() {
				m = press(m, "esc")
				So(m.filtering(), ShouldBeFalse)
				So(len(m.panes[0].shown()), ShouldEqual, 4)
			})
		})

		Convey("When a section name is typed", func() {
			m = press(m, "/", "o", "r", "d")

			Convey("Then every topic of that section matches", func() {
				So(cmp.Diff([]string{"leave", "inspection"}, shownValues(m.panes[0])), ShouldBeEmpty)
			})
		})

		Convey("When global keys are typed into the filter", func() {
			m = press(m, "space", "/", "q", "x", "r", "c")

			Convey("Then they become text and the selection survives", func() {
				So(m.state, ShouldEqual, stateReady)
				So(m.panes[0].filter.Value(), ShouldEqual, "qxrc")
				So(m.Criteria().Topics.Values(), ShouldResemble, []string{"interview"})
				So(m.panes[0].shown(), ShouldBeEmpty)
				So(m.View(), ShouldContainSubstring, "no match")
			})

			Convey("And space toggles nothing while nothing matches", func() {
				m = press(m, "enter", "space")
				So(m.Criteria().Topics.Values(), ShouldResemble, []string{"interview"})
			})
		})

		Convey("When the role pane is filtered and focus moves on", func() {
			m = press(m, "tab", "/", "m", "tab")

			Convey("Then the text stays and typing stops", func() {
				So(m.focus, ShouldEqual, 2)
				So(m.filtering(), ShouldBeFalse)
				So(cmp.Diff([]string{"medic"}, shownValues(m.panes[1])), ShouldBeEmpty)
			})
		})

		Convey("When / is pressed on a checkbox pane", func() {
			m = press(m, "tab", "tab", "tab", "/")

			Convey("Then no filter opens", func() {
				So(m.filtering(), ShouldBeFalse)
				So(len(m.panes[3].shown()), ShouldEqual, 1)
			})
		})
	})
}

func TestDetailModal(t *testing.T) {
	Convey("Given a loaded browser ranking an untitled record first", t, func() {
		m := loaded(New(staticLoad(fixture(), nil)), fixture())
		m = press(m, "j", "space")
		So(cmp.Diff([]string{"3", "2"}, ids(m.Results())), ShouldBeEmpty)

		Convey("When enter is pressed on the results pane", func() {
			m = press(m, "shift+tab", "enter")

			Convey("Then the detail modal shows a placeholder title", func() {
				So(m.detail, ShouldNotBeNil)
				So(m.detail.ID, ShouldEqual, "3")
				So(m.View(), ShouldContainSubstring, UntitledPlaceholder)
				So(m.View(), ShouldContainSubstring, "https://example.test/3")
			})

			Convey("And esc closes it without quitting", func() {
				next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
				m = next.(Model)
				So(m.detail, ShouldBeNil)
				So(cmd, ShouldBeNil)
			})
		})
	})
}

func TestPaneWindow(t *testing.T) {
	Convey("Given a list longer than the visible rows", t, func() {
		cases := []struct {
			cursor, n, rows int
			start, end      int
		}{
			{0, 10, 4, 0, 4},
			{5, 10, 4, 3, 7},
			{9, 10, 4, 6, 10},
			{2, 3, 4, 0, 3},
		}
		for _, tc := range cases {
			start, end := window(tc.cursor, tc.n, tc.rows)
			So(start, ShouldEqual, tc.start)
			So(end, ShouldEqual, tc.end)
		}
	})
}
