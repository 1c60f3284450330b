package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/orgtree/pkg/chart"
	"github.com/matzehuels/orgtree/pkg/forest"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listVacantStyle   = lipgloss.NewStyle().Foreground(colorYellow)
)

// browseCommand creates the browse command: an interactive terminal
// viewer over a chart file.
func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [chart.json]",
		Short: "Browse an org chart interactively in the terminal",
		Long: `Browse an org chart interactively in the terminal.

Navigate the hierarchy with the arrow keys, collapse and expand subtrees
with enter, and filter with / search. Changes to collapse state are
view-only and are not written back to the file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := chart.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("load chart %s: %w", args[0], err)
			}
			model := newBrowseModel(f)
			_, err = tea.NewProgram(model, tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
}

// browseRow is one rendered line of the tree: a node at a depth.
type browseRow struct {
	id    string
	depth int
}

// browseModel is the bubbletea model for the chart browser.
type browseModel struct {
	f         *forest.Forest
	rows      []browseRow
	cursor    int
	offset    int
	height    int
	searching bool
	query     string
}

func newBrowseModel(f *forest.Forest) *browseModel {
	m := &browseModel{f: f, height: 20}
	m.rebuild()
	return m
}

// rebuild flattens the visible hierarchy into display rows, in DFS order
// from the visible roots.
func (m *browseModel) rebuild() {
	flt := forest.Filter{Query: m.query}
	visible := m.f.VisibleIDs(flt)
	m.rows = m.rows[:0]

	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		m.rows = append(m.rows, browseRow{id: id, depth: depth})
		for _, c := range m.f.Children(id) {
			if visible[c] {
				walk(c, depth+1)
			}
		}
	}
	for _, n := range m.f.Nodes() {
		if !visible[n.ID] {
			continue
		}
		if p, ok := m.f.Parent(n.ID); !ok || !visible[p] {
			walk(n.ID, 0)
		}
	}

	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.offset > m.cursor {
		m.offset = m.cursor
	}
}

func (m *browseModel) Init() tea.Cmd {
	return nil
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter", " ":
			if len(m.rows) > 0 {
				m.f.ToggleCollapse(m.rows[m.cursor].id)
				m.rebuild()
			}
		case "/":
			m.searching = true
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 6
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m *browseModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.searching = false
		m.query = ""
		m.rebuild()
	case "enter":
		m.searching = false
	case "backspace":
		if len(m.query) > 0 {
			m.query = m.query[:len(m.query)-1]
			m.rebuild()
		}
	default:
		if msg.Type == tea.KeyRunes {
			m.query += string(msg.Runes)
			m.rebuild()
		}
	}
	return m, nil
}

func (m *browseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Org Chart"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ collapse/expand  / search  q quit"))
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString(listDimStyle.Render("  no matching nodes"))
		b.WriteString("\n")
	}

	end := m.offset + m.height
	if end > len(m.rows) {
		end = len(m.rows)
	}

	for i := m.offset; i < end; i++ {
		row := m.rows[i]
		n, ok := m.f.Node(row.id)
		if !ok {
			continue
		}

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}

		marker := "  "
		if len(m.f.Children(row.id)) > 0 {
			if m.f.IsCollapsed(row.id) {
				marker = "+ "
			} else {
				marker = "- "
			}
		}

		name := n.Employee.Name
		if n.Employee.IsVacant() {
			name = forest.VacantTitle
		}
		line := fmt.Sprintf("%s%s%s%s %s",
			cursor, strings.Repeat("  ", row.depth), marker, name,
			listDimStyle.Render(n.Employee.Title))

		switch {
		case i == m.cursor:
			b.WriteString(listSelectedStyle.Render(line))
		case n.Employee.IsVacant():
			b.WriteString(listVacantStyle.Render(line))
		default:
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.searching {
		b.WriteString(StyleHighlight.Render("/" + m.query + "▌"))
	} else if m.query != "" {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("filter: %q  [%d/%d]", m.query, m.cursor+1, len(m.rows))))
	} else {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.rows))))
	}

	return b.String()
}
