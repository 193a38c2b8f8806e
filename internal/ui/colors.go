package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Default is the palette used by the CLI when writing to a terminal.
var Default = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// Plain renders every string unchanged. Used for non-terminal output and tests.
var Plain = &Palette{plain: true}

// interface Painter defines coloring text with [lipgloss] styles
type Painter interface {
	On(string, lipgloss.Color) string // Sets background color
	As(string, lipgloss.Color) string // Sets foreground color
}

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	plain bool
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

func (p *Palette) render(s lipgloss.Style, text string) string {
	if p == nil || p.plain {
		return text
	}
	return s.Render(text)
}

func (p *Palette) Title(text string) string { return p.render(p.title, text) }
func (p *Palette) OK(text string) string    { return p.render(p.ok, text) }
func (p *Palette) Err(text string) string   { return p.render(p.err, text) }
func (p *Palette) Warn(text string) string  { return p.render(p.warn, text) }
func (p *Palette) Help(text string) string  { return p.render(p.help, text) }

// On renders text on background c.
func (p *Palette) On(text string, c lipgloss.Color) string {
	return p.render(lipgloss.NewStyle().Background(c), text)
}

// As renders text in foreground color c.
func (p *Palette) As(text string, c lipgloss.Color) string {
	return p.render(lipgloss.NewStyle().Foreground(c), text)
}
