package terminal

import (
	"os"

	"github.com/charmbracelet/glamour"
)

// RenderMarkdown styles md for the terminal. Output that is not going to a
// terminal is returned unchanged so it can be piped into files.
func RenderMarkdown(md string) string {
	if !IsTTY(os.Stdout) {
		return md
	}
	return renderMarkdown(md, Width())
}

func renderMarkdown(md string, width int) string {
	if width > 120 {
		width = 120
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
