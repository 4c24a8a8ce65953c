// Package ui renders command line output.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	cyan    = lipgloss.Color("#00FFFF")
	magenta = lipgloss.Color("#FF00FF")
	green   = lipgloss.Color("#39FF14")
	yellow  = lipgloss.Color("#FFFF00")
	red     = lipgloss.Color("#FF3131")
	dim     = lipgloss.Color("#B0B0B0")
)

// Printer writes styled messages to a terminal
type Printer struct {
	out      io.Writer
	quiet    bool
	noColor  bool
	renderer *lipgloss.Renderer
}

// NewPrinter creates a printer on out; color is detected from out
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out, renderer: lipgloss.NewRenderer(out)}
}

var std = NewPrinter(os.Stdout)

// Default returns the stdout printer
func Default() *Printer {
	return std
}

// SetQuiet suppresses everything except errors
func (p *Printer) SetQuiet(quiet bool) {
	p.quiet = quiet
}

// SetNoColor disables styling
func (p *Printer) SetNoColor(noColor bool) {
	p.noColor = noColor
}

func (p *Printer) style(fg lipgloss.Color, bold bool) lipgloss.Style {
	return p.renderer.NewStyle().Foreground(fg).Bold(bold)
}

func (p *Printer) render(s lipgloss.Style, text string) string {
	if p.noColor {
		return text
	}
	return s.Render(text)
}

// Error prints an error message
func (p *Printer) Error(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	fmt.Fprintln(p.out, p.render(p.style(red, true), msg))
}

// Success prints a success message
func (p *Printer) Success(msg string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.out, p.render(p.style(green, true), msg))
}

// Warning prints a warning message
func (p *Printer) Warning(msg string, args ...interface{}) {
	if p.quiet {
		return
	}
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	fmt.Fprintln(p.out, p.render(p.style(yellow, false), msg))
}

// Info prints a label and its value
func (p *Printer) Info(label, value string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.out, "%s: %s\n", p.render(p.style(cyan, true), label), p.render(p.style(yellow, false), value))
}

// Highlight prints a heading
func (p *Printer) Highlight(msg string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.out, p.render(p.style(magenta, true), msg))
}

// Field is a row of a Fields table
type Field struct {
	Label string
	Value string
}

// Fields prints aligned label/value rows
func (p *Printer) Fields(rows []Field) {
	if p.quiet {
		return
	}
	width := 0
	for _, r := range rows {
		width = max(width, lipgloss.Width(r.Label))
	}
	label := p.style(cyan, true)
	for _, r := range rows {
		pad := strings.Repeat(" ", width-lipgloss.Width(r.Label))
		value := r.Value
		if value == "" {
			value = p.render(p.style(dim, false), "-")
		}
		fmt.Fprintf(p.out, "  %s%s  %s\n", p.render(label, r.Label), pad, value)
	}
}

// Raw writes text as is, unless quiet
func (p *Printer) Raw(text string) {
	if p.quiet {
		return
	}
	fmt.Fprint(p.out, text)
}
