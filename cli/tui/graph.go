package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/stratum-data/stratum/types"
)

// GraphModel is a Bubble Tea model inspecting a compiled graph: an action
// list on the left, the selected action's query on the right.
type GraphModel struct {
	graph    *types.CompiledGraph
	cursor   int
	query    viewport.Model
	width    int
	height   int
	ready    bool
	quitting bool
}

// NewGraphModel creates a graph inspector model.
func NewGraphModel(g *types.CompiledGraph) GraphModel {
	return GraphModel{graph: g}
}

// keyMap defines key bindings.
type keyMap struct {
	Up   key.Binding
	Down key.Binding
	Quit key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "previous action"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "next action"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// Init implements tea.Model.
func (m GraphModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m GraphModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.query = viewport.New(msg.Width/2, msg.Height-6)
			m.ready = true
		} else {
			m.query.Width = msg.Width / 2
			m.query.Height = msg.Height - 6
		}
		m.syncQuery()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.syncQuery()
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.graph.Actions)-1 {
				m.cursor++
				m.syncQuery()
			}
		}
	}

	var cmd tea.Cmd
	m.query, cmd = m.query.Update(msg)
	return m, cmd
}

func (m *GraphModel) syncQuery() {
	if !m.ready || len(m.graph.Actions) == 0 {
		return
	}
	m.query.SetContent(m.graph.Actions[m.cursor].Query)
	m.query.GotoTop()
}

// View implements tea.Model.
func (m GraphModel) View() string {
	if m.quitting {
		return ""
	}

	title := TitleStyle.Render(fmt.Sprintf("compiled graph — %d actions, %d errors",
		len(m.graph.Actions), len(m.graph.GraphErrors)))

	if len(m.graph.Actions) == 0 {
		body := BoxStyle.Render("no actions compiled")
		return title + "\n" + body + "\n" + m.help()
	}

	var list strings.Builder
	for i, a := range m.graph.Actions {
		line := fmt.Sprintf("%-11s %s", a.Type, a.Target.String())
		if a.Disabled {
			line += " (disabled)"
		}
		if i == m.cursor {
			list.WriteString(SelectedStyle.Render("> " + line))
		} else {
			list.WriteString("  " + line)
		}
		list.WriteString("\n")
	}

	selected := m.graph.Actions[m.cursor]
	var detail strings.Builder
	detail.WriteString(fmt.Sprintf("%s %s\n", LabelStyle.Render("file:"), ValueStyle.Render(selected.FileName)))
	detail.WriteString(fmt.Sprintf("%s %s\n", LabelStyle.Render("canonical:"), ValueStyle.Render(selected.CanonicalTarget.String())))
	if len(selected.Dependencies) > 0 {
		detail.WriteString(fmt.Sprintf("%s %s\n", LabelStyle.Render("depends on:"), ValueStyle.Render(strings.Join(selected.Dependencies, ", "))))
	}
	detail.WriteString("\n")
	if m.ready {
		detail.WriteString(m.query.View())
	} else {
		detail.WriteString(selected.Query)
	}

	status := OkStyle.Render("no graph errors")
	if n := len(m.graph.GraphErrors); n > 0 {
		status = ErrorStyle.Render(fmt.Sprintf("%d graph errors — see json output for details", n))
	}

	body := BoxStyle.Render(list.String()) + "\n" + BoxStyle.Render(detail.String())
	return title + "\n" + body + "\n" + status + "\n" + m.help()
}

func (m GraphModel) help() string {
	return HelpStyle.Render("↑/↓ select · q quit")
}

// RunGraph starts the graph inspector.
func RunGraph(g *types.CompiledGraph) error {
	p := tea.NewProgram(NewGraphModel(g), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
