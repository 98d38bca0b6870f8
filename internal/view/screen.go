package view

import "github.com/gdamore/tcell/v2"

// Screen paints rendered lines onto a tcell screen. tcell diffs cell
// content internally, so repainting an unchanged region costs nothing
// on the wire.
type Screen struct {
	ts tcell.Screen
}

// NewScreen wraps an initialized tcell screen.
func NewScreen(ts tcell.Screen) *Screen {
	return &Screen{ts: ts}
}

// Size returns the screen dimensions in cells.
func (s *Screen) Size() (width, height int) {
	return s.ts.Size()
}

// Paint draws lines from the top-left corner, blanks the remainder,
// and shows the result.
func (s *Screen) Paint(lines []Line) {
	w, h := s.ts.Size()
	y := 0
	for ; y < len(lines) && y < h; y++ {
		x := 0
		for _, cell := range lines[y].Cells {
			if x >= w {
				break
			}
			if cell.Width <= 0 || len(cell.Runes) == 0 {
				continue
			}
			// Wide clusters occupy the following column on their own;
			// only the head cell is set.
			s.ts.SetContent(x, y, cell.Runes[0], cell.Runes[1:], cell.Style.Tcell())
			x += cell.Width
		}
		for ; x < w; x++ {
			s.ts.SetContent(x, y, ' ', nil, tcell.StyleDefault)
		}
	}
	for ; y < h; y++ {
		for x := 0; x < w; x++ {
			s.ts.SetContent(x, y, ' ', nil, tcell.StyleDefault)
		}
	}
	s.ts.Show()
}
