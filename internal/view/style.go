package view

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Style describes how cells are drawn. The zero value uses the
// terminal's default colors with no attributes.
type Style struct {
	FG        tcell.Color
	BG        tcell.Color
	Bold      bool
	Italic    bool
	Underline bool
}

// Tcell converts the style for use with a tcell screen.
func (s Style) Tcell() tcell.Style {
	st := tcell.StyleDefault.Foreground(s.FG).Background(s.BG)
	if s.Bold {
		st = st.Bold(true)
	}
	if s.Italic {
		st = st.Italic(true)
	}
	if s.Underline {
		st = st.Underline(true)
	}
	return st
}

// ParseColor parses a "#rrggbb" or "#rgb" hex color.
func ParseColor(hex string) (tcell.Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return tcell.ColorDefault, fmt.Errorf("view: parse color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b)), nil
}

// Theme maps container tags to styles. Text under a container with no
// override inherits the enclosing style, or Text at the top level.
type Theme struct {
	Text Style
	Tags map[string]Style
}

// styleFor returns the style for tag, falling back to the inherited
// style.
func (t *Theme) styleFor(tag string, inherit Style) Style {
	if s, ok := t.Tags[tag]; ok {
		return s
	}
	return inherit
}
