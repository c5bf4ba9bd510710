package grid

import "math"

// Layout mirrors SPEC_FULL.md §3 GridLayout: cell counts, pixel cell size,
// padding, and the four content offsets/insets caused by tab bars, status
// bars, and side panels.
//
// Grounded on the original's par-term-render/src/cell_renderer/layout.rs
// GridLayout struct and CellRenderer.resize/update_scale_factor methods.
type Layout struct {
	Cols, Rows int

	CellWidth, CellHeight float32
	WindowPadding         float32

	ContentOffsetY     float32
	ContentOffsetX     float32
	ContentInsetBottom float32
	ContentInsetRight  float32

	// Additional insets claimed by UI panels before this renderer sees
	// pixel space; they shrink scrollbar/available bounds but never shift
	// content origin.
	ExtraBottomInset float32
	ExtraRightInset  float32
}

// Resize recomputes Cols/Rows for a window of width x height physical
// pixels. Per SPEC_FULL.md §8 boundary behavior, 0x0 is a no-op and returns
// the previous size unchanged.
func (l *Layout) Resize(width, height uint32) (cols, rows int, changed bool) {
	if width == 0 || height == 0 {
		return l.Cols, l.Rows, false
	}

	availW := float32(width) - l.WindowPadding*2 - l.ContentOffsetX - l.ContentInsetRight
	availH := float32(height) - l.WindowPadding*2 - l.ContentOffsetY - l.ContentInsetBottom - l.ExtraBottomInset
	availW = maxf(availW, 0)
	availH = maxf(availH, 0)

	newCols := int(maxf(availW/l.CellWidth, 1))
	newRows := int(maxf(availH/l.CellHeight, 1))

	changed = newCols != l.Cols || newRows != l.Rows
	l.Cols, l.Rows = newCols, newRows
	return l.Cols, l.Rows, changed
}

const epsilon = float32(1e-6)

// SetContentOffsetY sets the vertical content offset, returning true if it
// changed (the caller must then call Resize).
func (l *Layout) SetContentOffsetY(v float32) bool {
	if absf(l.ContentOffsetY-v) <= epsilon {
		return false
	}
	l.ContentOffsetY = v
	return true
}

// SetContentOffsetX sets the horizontal content offset.
func (l *Layout) SetContentOffsetX(v float32) bool {
	if absf(l.ContentOffsetX-v) <= epsilon {
		return false
	}
	l.ContentOffsetX = v
	return true
}

// SetContentInsetBottom sets the bottom content inset.
func (l *Layout) SetContentInsetBottom(v float32) bool {
	if absf(l.ContentInsetBottom-v) <= epsilon {
		return false
	}
	l.ContentInsetBottom = v
	return true
}

// SetContentInsetRight sets the right content inset.
func (l *Layout) SetContentInsetRight(v float32) bool {
	if absf(l.ContentInsetRight-v) <= epsilon {
		return false
	}
	l.ContentInsetRight = v
	return true
}

// SetWindowPadding sets the window padding.
func (l *Layout) SetWindowPadding(v float32) bool {
	if absf(l.WindowPadding-v) <= epsilon {
		return false
	}
	l.WindowPadding = v
	return true
}

func maxf(a, b float32) float32 {
	return float32(math.Max(float64(a), float64(b)))
}

func absf(a float32) float32 {
	return float32(math.Abs(float64(a)))
}
