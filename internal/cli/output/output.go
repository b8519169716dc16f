// Package output renders command results as styled text or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Mode is an output format.
type Mode string

// Output modes.
const (
	ModeText Mode = "text"
	ModeJSON Mode = "json"
)

// Styles are the lipgloss styles used in text output.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) *Styles {
	return &Styles{
		Header1: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Header2: r.NewStyle().Bold(true).Underline(true),
		Bold:    r.NewStyle().Bold(true),
		Muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		Success: r.NewStyle().Foreground(lipgloss.Color("10")),
		Warning: r.NewStyle().Foreground(lipgloss.Color("11")),
		Error:   r.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

// Renderer writes command output. Color is only used when the writer is a
// terminal.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	styles *Styles
	title  cases.Caser
}

// NewRenderer creates a renderer. An unknown mode falls back to text.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	if mode != ModeJSON {
		mode = ModeText
	}
	return &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		styles: newStyles(lipgloss.NewRenderer(out)),
		title:  cases.Title(language.English),
	}
}

// Mode returns the output mode.
func (r *Renderer) Mode() Mode { return r.mode }

// Styles returns the text styles.
func (r *Renderer) Styles() *Styles { return r.styles }

// Writer returns the main output writer.
func (r *Renderer) Writer() io.Writer { return r.out }

// Println writes a line to the output.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted output.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Warnf writes a warning to the error writer.
func (r *Renderer) Warnf(format string, a ...any) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Warning.Render("warning: "+fmt.Sprintf(format, a...)))
}

// Header writes a level 1 or level 2 heading.
func (r *Renderer) Header(level int, text string) {
	style := r.styles.Header1
	if level > 1 {
		style = r.styles.Header2
	}
	r.Println(style.Render(text))
}

// Humanize turns an identifier such as star_schema into "Star Schema".
func (r *Renderer) Humanize(s string) string {
	return r.title.String(strings.ReplaceAll(s, "_", " "))
}

// Table renders rows as a table. Nothing is written for zero rows.
func (r *Renderer) Table(header []string, rows [][]any) {
	if len(rows) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)

	h := make(table.Row, len(header))
	for i, c := range header {
		h[i] = c
	}
	t.AppendHeader(h)
	for _, row := range rows {
		t.AppendRow(table.Row(row))
	}
	t.Render()
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
