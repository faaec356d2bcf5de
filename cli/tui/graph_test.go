package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stratum-data/stratum/types"
)

func testGraph() *types.CompiledGraph {
	mk := func(name string, typ types.ActionType) types.Action {
		t := types.Target{Database: "db", Schema: "dataform", Name: name}
		return types.Action{
			Type:            typ,
			Target:          t,
			CanonicalTarget: t,
			Query:           "select 1 as " + name,
			FileName:        "definitions/" + name + ".sqlx",
		}
	}
	return &types.CompiledGraph{
		Actions: []types.Action{
			mk("alpha", types.ActionTable),
			mk("beta", types.ActionView),
		},
		DataformCoreVersion: "3.0.0",
	}
}

func TestGraphModel_View(t *testing.T) {
	m := NewGraphModel(testGraph())
	out := m.View()
	if !strings.Contains(out, "2 actions") {
		t.Errorf("view should show the action count:\n%s", out)
	}
	if !strings.Contains(out, "db.dataform.alpha") {
		t.Errorf("view should list targets:\n%s", out)
	}
	if !strings.Contains(out, "definitions/alpha.sqlx") {
		t.Errorf("view should show the selected file:\n%s", out)
	}
	if !strings.Contains(out, "no graph errors") {
		t.Errorf("clean graph should show an ok status:\n%s", out)
	}
}

func TestGraphModel_CursorMoves(t *testing.T) {
	m := NewGraphModel(testGraph())

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(GraphModel)
	if m.cursor != 1 {
		t.Errorf("cursor = %d after down", m.cursor)
	}

	// Does not run past the end.
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(GraphModel)
	if m.cursor != 1 {
		t.Errorf("cursor = %d, should clamp at last action", m.cursor)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(GraphModel)
	if m.cursor != 0 {
		t.Errorf("cursor = %d after up", m.cursor)
	}
}

func TestGraphModel_Quit(t *testing.T) {
	m := NewGraphModel(testGraph())
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	m = next.(GraphModel)
	if !m.quitting {
		t.Error("q should set quitting")
	}
	if cmd == nil {
		t.Error("q should return tea.Quit")
	}
	if m.View() != "" {
		t.Error("quitting view should be empty")
	}
}

func TestGraphModel_EmptyGraph(t *testing.T) {
	m := NewGraphModel(&types.CompiledGraph{})
	if !strings.Contains(m.View(), "no actions") {
		t.Error("empty graph should render a placeholder")
	}
}

func TestGraphModel_ShowsErrorCount(t *testing.T) {
	g := testGraph()
	g.GraphErrors = []types.GraphError{{Message: "boom", FileName: "definitions/bad.sqlx"}}
	m := NewGraphModel(g)
	if !strings.Contains(m.View(), "1 graph errors") {
		t.Errorf("view should surface the error count:\n%s", m.View())
	}
}
