package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Palette used for terminal output.
var (
	colorPrimary = lipgloss.Color("#7C3AED") // Purple
	colorMuted   = lipgloss.Color("#6C7086") // Medium gray
	colorSuccess = lipgloss.Color("#A6E3A1") // Green
	colorWarning = lipgloss.Color("#F9E2AF") // Yellow
	colorError   = lipgloss.Color("#F38BA8") // Red
	colorBorder  = lipgloss.Color("#45475A") // Border gray
)

// outputStyles holds the styles for one writer. Plain when the writer is
// not a terminal.
type outputStyles struct {
	styled  bool
	title   lipgloss.Style
	header  lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	err     lipgloss.Style
	border  lipgloss.Style
}

func stylesFor(w io.Writer) outputStyles {
	if !isTerminal(w) {
		plain := lipgloss.NewStyle()
		return outputStyles{
			title: plain, header: plain, muted: plain,
			success: plain, warning: plain, err: plain, border: plain,
		}
	}
	return outputStyles{
		styled:  true,
		title:   lipgloss.NewStyle().Bold(true).Foreground(colorPrimary),
		header:  lipgloss.NewStyle().Bold(true).Padding(0, 1),
		muted:   lipgloss.NewStyle().Foreground(colorMuted),
		success: lipgloss.NewStyle().Foreground(colorSuccess),
		warning: lipgloss.NewStyle().Foreground(colorWarning),
		err:     lipgloss.NewStyle().Foreground(colorError),
		border:  lipgloss.NewStyle().Foreground(colorBorder),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
