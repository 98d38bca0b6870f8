package view

import (
	"strings"

	"github.com/rivo/uniseg"

	"github.com/dshills/flowtree/internal/dom"
)

// Cell is one display column run: a grapheme cluster, its display
// width, and its style.
type Cell struct {
	Runes []rune
	Width int
	Style Style
}

// Line is a row of cells.
type Line struct {
	Cells []Cell
}

// Width returns the line's total display width.
func (l Line) Width() int {
	w := 0
	for _, c := range l.Cells {
		w += c.Width
	}
	return w
}

// String returns the line's text content without styling.
func (l Line) String() string {
	var b strings.Builder
	for _, c := range l.Cells {
		b.WriteString(string(c.Runes))
	}
	return b.String()
}

// Render flattens the tree under root into lines. Each container
// element directly under the root becomes one line (empty containers
// become blank lines); runs of top-level text nodes form lines of
// their own.
func Render(root *dom.Node, theme *Theme) []Line {
	if theme == nil {
		theme = &Theme{}
	}
	var lines []Line
	var run Line
	flush := func() {
		if len(run.Cells) > 0 {
			lines = append(lines, run)
			run = Line{}
		}
	}
	for c := root.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Kind() == dom.KindText {
			run.Cells = append(run.Cells, cells(c.Text(), theme.Text)...)
			continue
		}
		flush()
		var line Line
		collect(c, theme.styleFor(c.Tag(), theme.Text), &line, theme)
		lines = append(lines, line)
	}
	flush()
	return lines
}

// collect appends the text content under n to line, applying tag style
// overrides as containers nest.
func collect(n *dom.Node, style Style, line *Line, theme *Theme) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Kind() == dom.KindText {
			line.Cells = append(line.Cells, cells(c.Text(), style)...)
			continue
		}
		collect(c, theme.styleFor(c.Tag(), style), line, theme)
	}
}

// cells splits text into grapheme cluster cells.
func cells(text string, style Style) []Cell {
	var out []Cell
	state := -1
	for len(text) > 0 {
		var cluster string
		var width int
		cluster, text, width, state = uniseg.FirstGraphemeClusterInString(text, state)
		out = append(out, Cell{Runes: []rune(cluster), Width: width, Style: style})
	}
	return out
}
