package render

import (
	"fmt"
	"strings"
)

// LLM renders a document as terse plain text for AI consumption: zero ANSI
// codes, a SCOPE line, then one indented line per node.
type LLM struct{}

// NewLLM creates an LLM renderer.
func NewLLM() *LLM {
	return &LLM{}
}

// Render formats the document for LLM consumption.
func (l *LLM) Render(doc Document) string {
	var sb strings.Builder
	sb.WriteString("SCOPE: " + scopeLine(doc) + "\n")

	doc.Walk(func(n Node) {
		indent := strings.Repeat("  ", n.Depth)
		sb.WriteString(fmt.Sprintf("%s%s %q #%d %s\n", indent, n.Scope.Type, n.Scope.Name, n.ID, counterFields(n)))
		if n.HiddenChildren > 0 {
			sb.WriteString(fmt.Sprintf("%s  ... (%d more %s)\n", indent, n.HiddenChildren, childNoun(n.HiddenChildren)))
		}
		for _, it := range n.Items {
			sb.WriteString(indent + "  " + itemLine(it) + "\n")
		}
		if hidden := n.TotalItems - len(n.Items); hidden > 0 {
			sb.WriteString(fmt.Sprintf("%s  ... (%d more items)\n", indent, hidden))
		}
	})
	return sb.String()
}

func scopeLine(doc Document) string {
	root, ok := doc.Root()
	if !ok {
		return doc.Domain + " · empty"
	}
	s := fmt.Sprintf("%s · %s", doc.Domain, summary(root.Counters, noun(doc.Domain)))
	if doc.Title != "" {
		s = doc.Title + " · " + s
	}
	return s
}

// counterFields lists every counter as key=value; unknown values print "?".
func counterFields(n Node) string {
	c := n.Counters
	return fmt.Sprintf("count=%d passed=%s failed=%s muted=%s ignored=%s new=%s duration=%s",
		c.Count, c.Passed, c.Failed, c.Muted, c.Ignored, c.NewFailed, durationField(n))
}

func durationField(n Node) string {
	d, ok := n.Counters.Duration.Get()
	if !ok {
		return "?"
	}
	return formatDuration(d)
}

func itemLine(it Item) string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(it.Status))
	b.WriteString(" ")
	b.WriteString(it.Name)
	if it.Duration != nil {
		b.WriteString(" (" + formatDuration(*it.Duration) + ")")
	}
	if it.New {
		b.WriteString(" new")
	}
	if it.Muted {
		b.WriteString(" muted")
	}
	if it.Details != "" {
		b.WriteString(": " + firstLine(it.Details))
	}
	return b.String()
}

func childNoun(n int) string {
	if n == 1 {
		return "child"
	}
	return "children"
}
