// Package render implements SPEC_FULL.md §4.B Cell Grid Renderer and §4.D
// Presentation Pipeline: turning a grid.Cell matrix into per-frame GPU
// instance buffers and orchestrating the two-pass draw.
//
// Grounded on original_source/par-term-render/src/cell_renderer/
// instance_buffers.rs for the constants/capacity math and build ordering,
// and on the teacher's internal/vterm (dirty tracking idiom, now generalized
// into internal/grid) plus the gogpu/gg hal bindings for GPU buffer writes.
package render

import "github.com/paulrobello/par-term-sub012/internal/grid"

// Constants mirrored from instance_buffers.rs.
const (
	CursorOverlaySlots      = 10
	GutterWidthCells        = 2.0
	UnderlineHeightRatio    = 0.07
	GlyphSnapThresholdPx    = 3.0
	GlyphSnapExtensionPx    = 0.5
	ColorComponentEpsilon   = 0.001
	CursorBrightnessThresh  = 0.5
	CursorBoostMaxAlpha     = 0.3
	HollowCursorBorderPx    = 2.0
	StippleOnPx             = 2.0
	StippleOffPx            = 2.0
	TextInstancesPerCell    = 2
)

// BackgroundInstance is a solid-colored rectangle: cell backgrounds,
// underline/strikethrough bars, cursor overlays, separators, gutters.
type BackgroundInstance struct {
	Position [2]float32
	Size     [2]float32
	Color    [4]float32
}

// TextInstance is one glyph quad bound to an atlas region. An unused slot
// has Size == (0,0) so the vertex shader discards it (SPEC_FULL.md §3).
type TextInstance struct {
	Position  [2]float32
	Size      [2]float32
	TexOffset [2]float32
	TexSize   [2]float32
	Color     [4]float32
	IsColored uint32
}

// MaxBackgroundInstances is the capacity SPEC_FULL.md §8 bounds background
// instance counts against: cols*rows cell backgrounds + K overlay slots (10
// cursor + one separator per row + one gutter indicator per row).
func MaxBackgroundInstances(cols, rows int) int {
	return cols*rows + CursorOverlaySlots + rows + rows
}

// MaxTextInstances is the capacity bound for text instances: two per cell,
// to allow double-width glyphs to occupy a second slot.
func MaxTextInstances(cols, rows int) int {
	return cols * rows * TextInstancesPerCell
}

// separatorBase and gutterBase locate the fixed overlay regions within the
// background instance slice, after the cols*rows cell backgrounds.
func separatorBase(cols, rows int) int { return cols*rows + CursorOverlaySlots }
func gutterBase(cols, rows int) int    { return separatorBase(cols, rows) + rows }

// colorCloseTo reports whether a is within eps of b on every RGB channel.
// A cell's background is "effective default" (SPEC_FULL.md §4.B) when this
// holds against the terminal's configured background, and should be
// skipped rather than emitted as its own rectangle.
func colorCloseTo(a, b grid.Color, eps float32) bool {
	if a.Type != b.Type {
		return false
	}
	ar, ag, ab := unpackRGB(a.Value)
	br, bg, bb := unpackRGB(b.Value)
	return absf32(ar-br) <= eps && absf32(ag-bg) <= eps && absf32(ab-bb) <= eps
}

func unpackRGB(v uint32) (r, g, b float32) {
	return float32((v>>24)&0xff) / 255, float32((v>>16)&0xff) / 255, float32((v>>8)&0xff) / 255
}

func absf32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
