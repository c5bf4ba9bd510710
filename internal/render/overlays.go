package render

import "github.com/paulrobello/par-term-sub012/internal/grid"

// CursorKind selects which of the 10 reserved cursor-overlay slots are
// populated. Unused slots keep Size (0,0).
type CursorKind int

const (
	CursorBlock CursorKind = iota
	CursorBeam
	CursorUnderline
	CursorHollow
)

// CursorState describes the cursor for overlay-slot generation.
type CursorState struct {
	Visible    bool
	Kind       CursorKind
	Col, Row   int
	Color      grid.Color
	Brightness float32 // 0..1, drives the boost-glow alpha
}

// BuildCursorOverlay fills the 10 reserved cursor-overlay slots: slot 0
// holds the primary block/beam/underline shape, slot 3 a brightness boost
// glow, and slots 6-9 the four hollow-outline sides (CursorHollow). Slots
// 1, 2, 4 and 5 are always left empty: no guide line or drop shadow is
// drawn. Populates out[0:10]; callers allocate it from
// separatorBase-CursorOverlaySlots onward.
func BuildCursorOverlay(cs CursorState, cellW, cellH float32, out []BackgroundInstance) {
	for i := range out[:CursorOverlaySlots] {
		out[i] = BackgroundInstance{}
	}
	if !cs.Visible {
		return
	}

	x, y := float32(cs.Col)*cellW, float32(cs.Row)*cellH
	color := colorToRGBA(cs.Color)

	switch cs.Kind {
	case CursorBlock:
		out[0] = BackgroundInstance{Position: [2]float32{x, y}, Size: [2]float32{cellW, cellH}, Color: color}
	case CursorBeam:
		out[0] = BackgroundInstance{Position: [2]float32{x, y}, Size: [2]float32{2, cellH}, Color: color}
	case CursorUnderline:
		uh := cellH * UnderlineHeightRatio
		out[0] = BackgroundInstance{Position: [2]float32{x, y + cellH - uh}, Size: [2]float32{cellW, uh}, Color: color}
	case CursorHollow:
		b := float32(HollowCursorBorderPx)
		out[6] = BackgroundInstance{Position: [2]float32{x, y}, Size: [2]float32{cellW, b}, Color: color}
		out[7] = BackgroundInstance{Position: [2]float32{x, y + cellH - b}, Size: [2]float32{cellW, b}, Color: color}
		out[8] = BackgroundInstance{Position: [2]float32{x, y}, Size: [2]float32{b, cellH}, Color: color}
		out[9] = BackgroundInstance{Position: [2]float32{x + cellW - b, y}, Size: [2]float32{b, cellH}, Color: color}
	}

	if cs.Brightness > CursorBrightnessThresh {
		glowAlpha := CursorBoostMaxAlpha * (cs.Brightness - CursorBrightnessThresh) / (1 - CursorBrightnessThresh)
		out[3] = BackgroundInstance{
			Position: [2]float32{x, y},
			Size:     [2]float32{cellW, cellH},
			Color:    [4]float32{color[0], color[1], color[2], glowAlpha},
		}
	}
}

// BuildSeparators fills one separator background instance per row at
// separatorBase(cols,rows)+row, used for split-pane dividers. visible[r]
// selects whether row r actually draws a separator.
func BuildSeparators(cols, rows int, cellW, cellH float32, visible []bool, color grid.Color, out []BackgroundInstance) {
	base := separatorBase(cols, rows)
	rgba := colorToRGBA(color)
	for r := 0; r < rows; r++ {
		idx := base + r
		if idx >= len(out) {
			break // capacity guard: silently drop excess per §7 ResourceExhaustion policy
		}
		if r < len(visible) && visible[r] {
			out[idx] = BackgroundInstance{
				Position: [2]float32{float32(cols) * cellW, float32(r) * cellH},
				Size:     [2]float32{1, cellH},
				Color:    rgba,
			}
		} else {
			out[idx] = BackgroundInstance{}
		}
	}
}

// BuildGutters fills one gutter-indicator background instance per row at
// gutterBase(cols,rows)+row (e.g. a modified-line marker column).
func BuildGutters(cols, rows int, cellH float32, marks []bool, color grid.Color, out []BackgroundInstance) {
	base := gutterBase(cols, rows)
	rgba := colorToRGBA(color)
	for r := 0; r < rows; r++ {
		idx := base + r
		if idx >= len(out) {
			break
		}
		if r < len(marks) && marks[r] {
			out[idx] = BackgroundInstance{
				Position: [2]float32{0, float32(r) * cellH},
				Size:     [2]float32{GutterWidthCells, cellH},
				Color:    rgba,
			}
		} else {
			out[idx] = BackgroundInstance{}
		}
	}
}
