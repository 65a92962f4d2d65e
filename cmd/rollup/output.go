package main

import (
	"io"
	"os"

	"golang.org/x/term"

	"github.com/dkoosis/rollup/internal/config"
	"github.com/dkoosis/rollup/pkg/render"
)

// isTTYWriter reports whether w is a terminal.
func isTTYWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// termWidth returns the terminal width of w, defaulting to 80.
func termWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if tw, _, err := term.GetSize(int(f.Fd())); err == nil && tw > 0 {
			return tw
		}
	}
	return 80
}

// resolveFormat picks terminal for a TTY and llm when piped.
func resolveFormat(format string, w io.Writer) string {
	if format != config.FormatAuto {
		return format
	}
	if isTTYWriter(w) {
		return render.FormatTerminal
	}
	return render.FormatLLM
}

// theme honors NO_COLOR.
func theme(name string) render.Theme {
	if os.Getenv("NO_COLOR") != "" {
		return render.MonoTheme()
	}
	return render.ThemeByName(name)
}

func (a *app) renderer() render.Renderer {
	return render.ByFormat(resolveFormat(a.cfg.Format, a.stdout), theme(a.cfg.Theme), termWidth(a.stdout))
}
