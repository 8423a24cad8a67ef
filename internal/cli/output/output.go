// Package output renders CLI results as styled text, tables, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/muesli/termenv"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Mode selects how results are written.
type Mode string

// Output modes.
const (
	ModeTable Mode = "table"
	ModeJSON  Mode = "json"
	ModeYAML  Mode = "yaml"
)

// Modes lists the accepted --output values.
var Modes = []string{string(ModeTable), string(ModeJSON), string(ModeYAML)}

// ParseMode validates an --output value. Empty means table.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeTable:
		return ModeTable, nil
	case ModeJSON, ModeYAML:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown output format %q: use table, json or yaml", s)
}

// Styles are the lipgloss styles used for human-readable output.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Success lipgloss.Style
	Code    lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) *Styles {
	return &Styles{
		Header1: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Header2: r.NewStyle().Bold(true).Underline(true),
		Bold:    r.NewStyle().Bold(true),
		Muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		Error:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		Warning: r.NewStyle().Foreground(lipgloss.Color("11")),
		Info:    r.NewStyle().Foreground(lipgloss.Color("14")),
		Success: r.NewStyle().Foreground(lipgloss.Color("10")),
		Code:    r.NewStyle().Foreground(lipgloss.Color("13")),
	}
}

// Renderer writes command output. Colour is used only when the destination
// is a terminal and NO_COLOR is unset.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	styles *Styles
	errSty *Styles
}

// NewRenderer creates a renderer for out and errOut.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	return &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		styles: newStyles(lipglossRenderer(out, false)),
		errSty: newStyles(lipglossRenderer(errOut, false)),
	}
}

// DisableColor forces plain text output.
func (r *Renderer) DisableColor() {
	r.styles = newStyles(lipglossRenderer(r.out, true))
	r.errSty = newStyles(lipglossRenderer(r.errOut, true))
}

func lipglossRenderer(w io.Writer, noColor bool) *lipgloss.Renderer {
	lr := lipgloss.NewRenderer(w)
	switch {
	case noColor || !IsTerminal(w):
		lr.SetColorProfile(termenv.Ascii)
	default:
		lr.SetColorProfile(termenv.NewOutput(w).EnvColorProfile())
	}
	return lr
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Mode returns the output mode.
func (r *Renderer) Mode() Mode { return r.mode }

// Styles returns the styles for standard output.
func (r *Renderer) Styles() *Styles { return r.styles }

// ErrStyles returns the styles for standard error.
func (r *Renderer) ErrStyles() *Styles { return r.errSty }

// Writer returns standard output.
func (r *Renderer) Writer() io.Writer { return r.out }

// ErrWriter returns standard error.
func (r *Renderer) ErrWriter() io.Writer { return r.errOut }

// Println writes a line to standard output.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted text to standard output.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Errorln writes a line to standard error.
func (r *Renderer) Errorln(a ...any) {
	_, _ = fmt.Fprintln(r.errOut, a...)
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// YAML writes v as YAML.
func (r *Renderer) YAML(v any) error {
	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// Table writes rows under header as a box-drawn table.
func (r *Renderer) Table(header []string, rows [][]any) {
	if len(rows) == 0 {
		r.Println("(0 rows)")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)
	for _, row := range rows {
		t.AppendRow(table.Row(row))
	}
	t.Render()
}
