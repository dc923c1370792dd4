package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/scenegraph/pkg/story"
	"github.com/matzehuels/scenegraph/pkg/story/check"
	"github.com/matzehuels/scenegraph/pkg/story/layout"
)

// =============================================================================
// SceneListModel - Interactive scene browser
// =============================================================================

// SceneRow is one scene as shown by the browser.
type SceneRow struct {
	ID      string
	Title   string
	Pos     story.Position
	Placed  bool
	Start   bool
	Orphan  bool
	Choices []ChoiceRow
}

// ChoiceRow is one outgoing choice of a scene.
type ChoiceRow struct {
	Text    string
	Target  string
	Missing bool // target scene does not exist
	Back    bool // choice closes a cycle
}

// SceneListModel is the bubbletea model for browsing the scenes of a scenario.
type SceneListModel struct {
	Title    string
	Rows     []SceneRow
	Warnings []string
	Cycle    string
	Cursor   int
	Height   int
	Offset   int
}

// NewSceneListModel builds the browser rows from a scenario, its layout and
// its check report. Rows follow scene order; a duplicated id is listed once
// with the data of its last occurrence.
func NewSceneListModel(sc *story.Scenario, l layout.Layout, r check.Report) SceneListModel {
	idx := story.NewIndex(sc.Scenes)
	positions := l.Positions()
	orphans := make(map[string]bool)
	for _, n := range l.Nodes {
		if n.Orphan {
			orphans[n.ID] = true
		}
	}
	back := make(map[[2]string]bool)
	for _, e := range l.Edges {
		if e.Back {
			back[[2]string{e.From, e.To}] = true
		}
	}

	m := SceneListModel{
		Title:    sc.Title,
		Warnings: r.Warnings(),
		Height:   15,
	}
	if !r.OK() {
		m.Cycle = r.CycleString()
	}
	if m.Title == "" {
		m.Title = sc.ID
	}

	seen := make(map[string]bool, len(sc.Scenes))
	for _, s := range sc.Scenes {
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		s, _ = idx.Scene(s.ID)

		pos, placed := positions[s.ID]
		row := SceneRow{
			ID:     s.ID,
			Title:  s.Title,
			Pos:    pos,
			Placed: placed,
			Start:  s.IsStartScene,
			Orphan: orphans[s.ID],
		}
		for _, c := range s.Choices {
			row.Choices = append(row.Choices, ChoiceRow{
				Text:    c.Text,
				Target:  c.TargetSceneID,
				Missing: !idx.Has(c.TargetSceneID),
				Back:    back[[2]string{s.ID, c.TargetSceneID}],
			})
		}
		m.Rows = append(m.Rows, row)
	}
	return m
}

func (m SceneListModel) Init() tea.Cmd {
	return nil
}

func (m SceneListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Rows)-1 {
				m.Cursor++
			}
		case "home", "g":
			m.Cursor = 0
		case "end", "G":
			if len(m.Rows) > 0 {
				m.Cursor = len(m.Rows) - 1
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 14
		if m.Height < 3 {
			m.Height = 3
		}
	}
	m.scroll()
	return m, nil
}

// scroll keeps the cursor inside the visible window.
func (m *SceneListModel) scroll() {
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m SceneListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("↑/↓ navigate  g/G first/last  q quit"))
	b.WriteString("\n\n")

	if len(m.Rows) == 0 {
		b.WriteString(StyleDim.Render("  no scenes"))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Rows))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		r := m.Rows[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		x, y := "—", "—"
		if r.Placed {
			x, y = fmtCoord(r.Pos.X), fmtCoord(r.Pos.Y)
		}
		rows = append(rows, []string{cursor, r.ID, r.Title, x, y, fmt.Sprintf("%d", len(r.Choices)), sceneFlags(r)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Scene", "Title", "X", "Y", "Choices", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			i := m.Offset + row
			if i >= len(m.Rows) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			switch {
			case i == m.Cursor:
				return base.Foreground(colorCyan).Bold(true)
			case m.Rows[i].Orphan || !m.Rows[i].Placed:
				return base.Foreground(colorDim)
			case m.Rows[i].Start:
				return styleStart
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Rows))))
	b.WriteString("\n\n")

	b.WriteString(m.detail())

	if m.Cycle != "" {
		b.WriteString("\n")
		b.WriteString(styleCycle.Render("cycle: " + m.Cycle))
		b.WriteString("\n")
	}
	for _, w := range m.Warnings {
		b.WriteString(StyleWarning.Render(iconWarning + " " + w))
		b.WriteString("\n")
	}

	return b.String()
}

// detail renders the choices of the selected scene.
func (m SceneListModel) detail() string {
	var b strings.Builder
	r := m.Rows[m.Cursor]
	b.WriteString(StyleHighlight.Render(r.ID))
	if len(r.Choices) == 0 {
		b.WriteString(StyleDim.Render("  (ending)"))
	}
	b.WriteString("\n")
	for _, c := range r.Choices {
		line := fmt.Sprintf("  %s %s", iconArrow, c.Target)
		if c.Text != "" {
			line += StyleDim.Render("  " + c.Text)
		}
		switch {
		case c.Missing:
			line += " " + StyleWarning.Render("(missing)")
		case c.Back:
			line += " " + styleCycle.Render("(cycle)")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

func sceneFlags(r SceneRow) string {
	var flags []string
	if r.Start {
		flags = append(flags, "start")
	}
	if r.Orphan {
		flags = append(flags, "unreachable")
	}
	if !r.Placed {
		flags = append(flags, "unplaced")
	}
	return strings.Join(flags, ",")
}

func fmtCoord(v float64) string {
	return fmt.Sprintf("%g", v)
}
