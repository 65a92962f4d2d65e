package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dkoosis/rollup/pkg/scope"
)

// Terminal renders a document as an indented, styled tree via lipgloss.
type Terminal struct {
	theme Theme
	width int
	title cases.Caser
}

// NewTerminal creates a terminal renderer with the given theme.
func NewTerminal(theme Theme, width int) *Terminal {
	if width <= 0 {
		width = 80
	}
	return &Terminal{theme: theme, width: width, title: cases.Title(language.English)}
}

// Render formats the document for terminal display.
func (t *Terminal) Render(doc Document) string {
	var sb strings.Builder
	if doc.Title != "" {
		sb.WriteString(t.theme.Title.Render(doc.Title))
		sb.WriteString("\n")
	}
	doc.Walk(func(node Node) {
		sb.WriteString(t.NodeLine(node, doc.Domain))
		sb.WriteString("\n")
		sb.WriteString(t.NodeDetail(node))
	})
	return sb.String()
}

// NodeLine renders the one-line heading of n, indented by depth, without
// a trailing newline.
func (t *Terminal) NodeLine(n Node, domain string) string {
	var sb strings.Builder
	indent := strings.Repeat("  ", n.Depth)

	icon, style := t.nodeIconStyle(n)
	label := t.typeLabel(n.Scope.Type)
	stats := summary(n.Counters, noun(domain))

	// Name gets whatever the fixed parts leave over.
	fixed := runewidth.StringWidth(indent+icon+" "+label+" ") + 2 + runewidth.StringWidth(stats)
	name := n.Scope.Name
	if room := t.width - fixed; room > 3 {
		name = runewidth.Truncate(name, room, "...")
	}

	sb.WriteString(indent)
	sb.WriteString(style.Render(icon))
	sb.WriteString(" ")
	sb.WriteString(t.theme.Dim.Render(label))
	sb.WriteString(" ")
	sb.WriteString(t.theme.Scope.Render(name))
	sb.WriteString("  ")
	sb.WriteString(t.theme.Dim.Render(stats))
	return sb.String()
}

// NodeDetail renders what follows the heading of n: the hidden-children
// note and any items.
func (t *Terminal) NodeDetail(n Node) string {
	var sb strings.Builder
	indent := strings.Repeat("  ", n.Depth)
	if n.HiddenChildren > 0 {
		sb.WriteString(indent + "  ")
		sb.WriteString(t.theme.Dim.Render(fmt.Sprintf("%s %d more", t.theme.Glyphs.More, n.HiddenChildren)))
		sb.WriteString("\n")
	}
	sb.WriteString(t.renderItems(n, indent+"  "))
	return sb.String()
}

func (t *Terminal) renderItems(n Node, indent string) string {
	if len(n.Items) == 0 {
		return ""
	}
	maxName := 0
	for _, it := range n.Items {
		maxName = max(maxName, runewidth.StringWidth(it.Name))
	}
	maxName = min(maxName, 60)

	var sb strings.Builder
	for _, it := range n.Items {
		icon, style := t.statusIconStyle(it.Status)
		sb.WriteString(indent)
		sb.WriteString(style.Render(icon + " "))
		name := runewidth.Truncate(it.Name, maxName, "...")
		sb.WriteString(runewidth.FillRight(name, maxName))
		if it.Duration != nil {
			sb.WriteString(t.theme.Dim.Render("  " + formatDuration(*it.Duration)))
		}
		if it.New {
			sb.WriteString(t.theme.Ignored.Render("  new"))
		}
		if it.Muted {
			sb.WriteString(t.theme.Dim.Render("  muted"))
		}
		if it.Details != "" {
			sb.WriteString("\n" + indent + "    ")
			sb.WriteString(t.theme.Dim.Render(firstLine(it.Details)))
		}
		sb.WriteString("\n")
	}
	if hidden := n.TotalItems - len(n.Items); hidden > 0 {
		sb.WriteString(indent)
		sb.WriteString(t.theme.Dim.Render(fmt.Sprintf("%s %d more", t.theme.Glyphs.More, hidden)))
		sb.WriteString("\n")
	}
	return sb.String()
}

// typeLabel turns "buildType" into "Build Type".
func (t *Terminal) typeLabel(typ scope.Type) string {
	var b strings.Builder
	for i, r := range string(typ) {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return t.title.String(b.String())
}

func (t *Terminal) nodeIconStyle(n Node) (string, lipgloss.Style) {
	switch {
	case n.Counters.HasFailures():
		return t.theme.Glyphs.Failed, t.theme.Failed
	case !n.Counters.Failed.IsKnown():
		return t.theme.Glyphs.Unknown, t.theme.Dim
	case n.Counters.Count == 0:
		return t.theme.Glyphs.Empty, t.theme.Dim
	default:
		return t.theme.Glyphs.Passed, t.theme.Passed
	}
}

func (t *Terminal) statusIconStyle(status string) (string, lipgloss.Style) {
	switch status {
	case StatusPassed:
		return t.theme.Glyphs.Passed, t.theme.Passed
	case StatusFailed, StatusProblem:
		return t.theme.Glyphs.Failed, t.theme.Failed
	case StatusIgnored:
		return t.theme.Glyphs.Ignored, t.theme.Ignored
	default:
		return t.theme.Glyphs.Unknown, t.theme.Dim
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
