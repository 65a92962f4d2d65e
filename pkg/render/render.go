// Package render turns a sliced scope tree into terminal, LLM or JSON
// output.
package render

// Renderer converts a document to formatted output.
type Renderer interface {
	Render(doc Document) string
}

// Formats accepted by ByFormat.
const (
	FormatTerminal = "terminal"
	FormatLLM      = "llm"
	FormatJSON     = "json"
)

// ByFormat returns the renderer for a format name, or nil.
func ByFormat(format string, theme Theme, width int) Renderer {
	switch format {
	case FormatTerminal:
		return NewTerminal(theme, width)
	case FormatLLM:
		return NewLLM()
	case FormatJSON:
		return NewJSON()
	}
	return nil
}
