// Package terminal formats the command line subcommands' output: help
// rendered from markdown, session history tables and status lines.
// Nothing here touches the game screen.
package terminal

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Writer provides styled terminal output with markdown rendering.
type Writer struct {
	out      io.Writer
	in       io.Reader
	renderer *glamour.TermRenderer
	styles   *lipgloss.Renderer
	width    int
	mu       sync.Mutex

	errorStyle   lipgloss.Style
	warnStyle    lipgloss.Style
	successStyle lipgloss.Style
	infoStyle    lipgloss.Style
	dimStyle     lipgloss.Style
	headerStyle  lipgloss.Style
	keyStyle     lipgloss.Style
}

// New creates a Writer on stdout.
func New() *Writer {
	return NewWithOutput(os.Stdout)
}

// NewWithOutput creates a Writer on out. Colors are only emitted when out
// is a terminal.
func NewWithOutput(out io.Writer) *Writer {
	width := 80
	styles := lipgloss.NewRenderer(out)
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			width = w
		}
	} else {
		styles.SetColorProfile(termenv.Ascii)
	}

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(min(width, 100)),
	)

	adaptive := func(light, dark string) lipgloss.TerminalColor {
		return lipgloss.AdaptiveColor{Light: light, Dark: dark}
	}
	return &Writer{
		out:      out,
		in:       os.Stdin,
		renderer: renderer,
		styles:   styles,
		width:    width,

		errorStyle:   styles.NewStyle().Foreground(adaptive("#D00000", "#FF5555")).Bold(true),
		warnStyle:    styles.NewStyle().Foreground(adaptive("#B8860B", "#FFAA00")),
		successStyle: styles.NewStyle().Foreground(adaptive("#008000", "#55FF55")),
		infoStyle:    styles.NewStyle().Foreground(adaptive("#0066CC", "#5599FF")),
		dimStyle:     styles.NewStyle().Foreground(adaptive("#666666", "#888888")),
		keyStyle:     styles.NewStyle().Foreground(adaptive("#0066CC", "#5599FF")).Bold(true),
		headerStyle: styles.NewStyle().
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(adaptive("#CCCCCC", "#444444")),
	}
}

// SetInput replaces the reader Confirm reads from.
func (w *Writer) SetInput(in io.Reader) { w.in = in }

// Print writes text to the terminal.
func (w *Writer) Print(format string, args ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.out, format, args...)
}

// Println writes text with a newline.
func (w *Writer) Println(format string, args ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.out, format+"\n", args...)
}

// RenderMarkdown returns md rendered for the terminal, or md unchanged
// when rendering fails.
func (w *Writer) RenderMarkdown(md string) string {
	if w.renderer == nil {
		return md
	}
	rendered, err := w.renderer.Render(md)
	if err != nil {
		return md
	}
	return rendered
}

// Markdown renders md to the terminal.
func (w *Writer) Markdown(md string) {
	rendered := w.RenderMarkdown(md)
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprint(w.out, rendered)
}

// Error prints an error message in red.
func (w *Writer) Error(format string, args ...any) {
	w.styled(w.errorStyle, "error: "+format, args...)
}

// Warn prints a warning message in yellow.
func (w *Writer) Warn(format string, args ...any) {
	w.styled(w.warnStyle, "warning: "+format, args...)
}

// Success prints a success message in green.
func (w *Writer) Success(format string, args ...any) {
	w.styled(w.successStyle, "✓ "+format, args...)
}

// Info prints an info message in blue.
func (w *Writer) Info(format string, args ...any) {
	w.styled(w.infoStyle, format, args...)
}

// Dim prints secondary text.
func (w *Writer) Dim(format string, args ...any) {
	w.styled(w.dimStyle, format, args...)
}

// Header prints a section header.
func (w *Writer) Header(title string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintln(w.out, w.headerStyle.Render(title))
}

func (w *Writer) styled(style lipgloss.Style, format string, args ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintln(w.out, style.Render(fmt.Sprintf(format, args...)))
}

// KeyValue is one row of a KeyValues listing.
type KeyValue struct {
	Key   string
	Value string
}

// KeyValues prints aligned key/value rows.
func (w *Writer) KeyValues(rows []KeyValue) {
	w.mu.Lock()
	defer w.mu.Unlock()
	pad := 0
	for _, r := range rows {
		pad = max(pad, lipgloss.Width(r.Key))
	}
	for _, r := range rows {
		key := w.keyStyle.Render(r.Key + strings.Repeat(" ", pad-lipgloss.Width(r.Key)))
		fmt.Fprintf(w.out, "  %s  %s\n", key, r.Value)
	}
}

// Table prints rows under headers with a rounded border.
func (w *Writer) Table(headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(w.dimStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return w.styles.NewStyle().Bold(true).Padding(0, 1)
			}
			return w.styles.NewStyle().Padding(0, 1)
		})

	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintln(w.out, t.Render())
}

// Confirm asks a yes/no question.
func (w *Writer) Confirm(prompt string, defaultYes bool) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	hint := "y/N"
	if defaultYes {
		hint = "Y/n"
	}
	fmt.Fprintf(w.out, "%s [%s]: ", prompt, hint)

	line, _ := bufio.NewReader(w.in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return defaultYes
	case "y", "yes":
		return true
	default:
		return false
	}
}

// Ago formats t relative to now for listings.
func Ago(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("2006-01-02")
	}
}
