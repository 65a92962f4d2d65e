package render

import "github.com/charmbracelet/lipgloss"

// Theme holds the styles and glyphs of the terminal renderer and the
// browser.
type Theme struct {
	Name    string
	Scope   lipgloss.Style
	Passed  lipgloss.Style
	Failed  lipgloss.Style
	Ignored lipgloss.Style
	Dim     lipgloss.Style
	Title   lipgloss.Style
	// Cursor marks the selected row in the browser.
	Cursor lipgloss.Style
	Glyphs Glyphs
}

// Glyphs are the status markers drawn before nodes and items.
type Glyphs struct {
	Passed  string
	Failed  string
	Ignored string
	// Unknown marks a node whose failure count is not known.
	Unknown string
	Empty   string
	More    string
}

type palette struct {
	scope, passed, failed, ignored, dim, cursor string
}

var (
	unicodeGlyphs = Glyphs{Passed: "✓", Failed: "✗", Ignored: "⚠", Unknown: "●", Empty: "○", More: "·"}
	asciiGlyphs   = Glyphs{Passed: "+", Failed: "x", Ignored: "!", Unknown: "*", Empty: "-", More: "-"}
)

var themes = map[string]func() Theme{
	"default": func() Theme {
		return colored("default", palette{scope: "39", passed: "34", failed: "196", ignored: "214", dim: "242", cursor: "236"}, unicodeGlyphs)
	},
	"orca": func() Theme {
		g := unicodeGlyphs
		g.Ignored, g.Unknown = "!", "·"
		return colored("orca", palette{scope: "75", passed: "108", failed: "167", ignored: "179", dim: "245", cursor: "238"}, g)
	},
	"mono": MonoTheme,
}

func colored(name string, p palette, g Glyphs) Theme {
	fg := func(c string) lipgloss.Style { return lipgloss.NewStyle().Foreground(lipgloss.Color(c)) }
	return Theme{
		Name:    name,
		Scope:   fg(p.scope),
		Passed:  fg(p.passed),
		Failed:  fg(p.failed),
		Ignored: fg(p.ignored),
		Dim:     fg(p.dim),
		Title:   lipgloss.NewStyle().Bold(true),
		Cursor:  lipgloss.NewStyle().Background(lipgloss.Color(p.cursor)).Bold(true),
		Glyphs:  g,
	}
}

// MonoTheme uses no colors and ASCII glyphs, for NO_COLOR and dumb
// terminals.
func MonoTheme() Theme {
	plain := lipgloss.NewStyle()
	return Theme{
		Name:    "mono",
		Scope:   plain,
		Passed:  plain,
		Failed:  plain,
		Ignored: plain,
		Dim:     plain,
		Title:   lipgloss.NewStyle().Bold(true),
		Cursor:  lipgloss.NewStyle().Reverse(true),
		Glyphs:  asciiGlyphs,
	}
}

// ThemeNames lists the built-in themes.
func ThemeNames() []string {
	return []string{"default", "orca", "mono"}
}

// ThemeByName returns a built-in theme, falling back to "default".
func ThemeByName(name string) Theme {
	if f, ok := themes[name]; ok {
		return f()
	}
	return themes["default"]()
}
