// Package view presents a reconciled node tree on a terminal. Render
// flattens the tree into styled lines: each container element under
// the root becomes one line, text nodes contribute cells, and display
// widths follow grapheme cluster boundaries. Screen paints lines onto
// a tcell screen, which applies only the cells that changed.
package view
