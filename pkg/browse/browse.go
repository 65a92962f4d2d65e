// Package browse is an interactive terminal browser over a scope tree.
// Each focus change re-slices the tree from the focused node, so the
// screen always shows the ancestors of the focus followed by its capped
// subtree.
package browse

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dkoosis/rollup/pkg/render"
	"github.com/dkoosis/rollup/pkg/rollup"
	"github.com/dkoosis/rollup/pkg/scopetree"
)

// MaxChildrenLimit bounds the +/- adjustment.
const MaxChildrenLimit = 1000

// Source slices a built tree; *rollup.Built implements it.
type Source interface {
	Document(v rollup.View) (render.Document, error)
}

// Options set the initial view.
type Options struct {
	MaxChildren int
	OrderBy     string
	TieBreak    string
	Theme       render.Theme
}

// Model is the bubbletea model of the browser.
type Model struct {
	src     Source
	view    rollup.View
	history []scopetree.NodeID

	doc      render.Document
	rows     []row
	selected int
	err      error

	term     *render.Terminal
	theme    render.Theme
	keys     keyMap
	help     help.Model
	viewport viewport.Model
	width    int
}

// row is one selectable node and the first content line it occupies.
type row struct {
	node render.Node
	line int
}

// New slices the whole tree and selects its root.
func New(src Source, opts Options) (Model, error) {
	m := Model{
		src: src,
		view: rollup.View{
			MaxChildren: opts.MaxChildren,
			OrderBy:     opts.OrderBy,
			TieBreak:    opts.TieBreak,
		},
		theme:    opts.Theme,
		term:     render.NewTerminal(opts.Theme, 80),
		keys:     defaultKeys(),
		help:     help.New(),
		viewport: viewport.New(80, 20),
		width:    80,
	}
	if err := m.reload(); err != nil {
		return Model{}, err
	}
	return m, nil
}

// Run shows the browser until the user quits or ctx is done.
func Run(ctx context.Context, src Source, opts Options) error {
	m, err := New(src, opts)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	return err
}

// Focus is the node the view is rooted at; NoNode for the tree root.
func (m Model) Focus() scopetree.NodeID { return m.view.Focus }

// MaxChildren is the current breadth cap.
func (m Model) MaxChildren() int { return m.view.MaxChildren }

// Selected is the node under the cursor.
func (m Model) Selected() (render.Node, bool) {
	if m.selected < 0 || m.selected >= len(m.rows) {
		return render.Node{}, false
	}
	return m.rows[m.selected].node, true
}

// Err is the last error from re-slicing, cleared by the next success.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.selected > 0 {
				m.selected--
			}
		case key.Matches(msg, m.keys.Down):
			if m.selected < len(m.rows)-1 {
				m.selected++
			}
		case key.Matches(msg, m.keys.Enter):
			m.focusSelected()
		case key.Matches(msg, m.keys.Back):
			m.back()
		case key.Matches(msg, m.keys.More):
			m.adjust(1)
		case key.Matches(msg, m.keys.Less):
			m.adjust(-1)
		}
		m.refresh()
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.term = render.NewTerminal(m.theme, msg.Width-2)
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-4, 1)
		m.help.Width = msg.Width
		m.refresh()
	}
	return m, nil
}

func (m *Model) focusSelected() {
	n, ok := m.Selected()
	if !ok || scopetree.NodeID(n.ID) == m.view.Focus {
		return
	}
	prev := m.view.Focus
	m.view.Focus = scopetree.NodeID(n.ID)
	if m.reload() != nil {
		m.view.Focus = prev
		return
	}
	m.history = append(m.history, prev)
}

func (m *Model) back() {
	if len(m.history) == 0 {
		return
	}
	m.view.Focus = m.history[len(m.history)-1]
	m.history = m.history[:len(m.history)-1]
	_ = m.reload()
}

func (m *Model) adjust(delta int) {
	next := min(max(m.view.MaxChildren+delta, 0), MaxChildrenLimit)
	if next == m.view.MaxChildren {
		return
	}
	m.view.MaxChildren = next
	_ = m.reload()
}

// reload re-slices and moves the cursor to the focused node.
func (m *Model) reload() error {
	doc, err := m.src.Document(m.view)
	if err != nil {
		m.err = err
		return err
	}
	m.err = nil
	m.doc = doc
	m.rows = nil
	doc.Walk(func(n render.Node) {
		m.rows = append(m.rows, row{node: n})
	})
	m.selected = 0
	for i, r := range m.rows {
		if scopetree.NodeID(r.node.ID) == m.view.Focus {
			m.selected = i
		}
	}
	m.refresh()
	return nil
}

// refresh rebuilds the viewport content and keeps the cursor visible.
func (m *Model) refresh() {
	var lines []string
	for i := range m.rows {
		r := &m.rows[i]
		r.line = len(lines)
		line := m.term.NodeLine(r.node, m.doc.Domain)
		if i == m.selected {
			line = m.theme.Cursor.Render("▸ " + line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
		if detail := strings.TrimSuffix(m.term.NodeDetail(r.node), "\n"); detail != "" {
			for _, d := range strings.Split(detail, "\n") {
				lines = append(lines, "  "+d)
			}
		}
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))

	if m.selected < len(m.rows) {
		cur := m.rows[m.selected].line
		switch {
		case cur < m.viewport.YOffset:
			m.viewport.SetYOffset(cur)
		case cur >= m.viewport.YOffset+m.viewport.Height:
			m.viewport.SetYOffset(cur - m.viewport.Height + 1)
		}
	}
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(m.header())
	sb.WriteString("\n")
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")
	if m.err != nil {
		sb.WriteString(m.theme.Failed.Render(m.err.Error()))
		sb.WriteString("\n")
	}
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

func (m Model) header() string {
	focus := "root"
	for _, r := range m.rows {
		if scopetree.NodeID(r.node.ID) == m.view.Focus {
			focus = r.node.Scope.Name
		}
	}
	return m.theme.Title.Render(m.doc.Title) +
		m.theme.Dim.Render(fmt.Sprintf("  %s · focus %s · max %d", m.doc.Domain, focus, m.view.MaxChildren))
}
