package render

import "github.com/paulrobello/par-term-sub012/internal/grid"

// GlyphQuad is the already-shaped, atlas-positioned glyph for one cell.
// Shaping/rasterization happens upstream (atlas package); this package only
// turns a row of cells plus their glyph quads into instances.
type GlyphQuad struct {
	AtlasX, AtlasY uint32
	Width, Height  uint32
	TexSize        [2]float32 // atlas-relative size in the [0,1] uv space
	IsColored      bool
}

// GlyphSource resolves a cell's grapheme to its shaped glyph, or false if
// the grapheme produced no glyph (drawn as background only, per §4.B
// failure semantics). SolidPixel locates the atlas's reserved opaque-white
// texel, sampled by the block-character geometric pass instead of shaping
// a glyph for box-drawing/block-element cells.
type GlyphSource interface {
	Glyph(cell grid.Cell) (GlyphQuad, bool)
	SolidPixel() (x, y uint32)
}

// RowStyleContext carries the interactive state needed to resolve a cell's
// effective colors beyond its own SGR attributes (SPEC_FULL.md §4.B
// "Reverse / selection / cursor coloring"). A zero-value context applies no
// overlays, so existing callers that don't use selection/cursor still work.
type RowStyleContext struct {
	// Selected reports whether column x of the row being built is covered
	// by the active selection. Nil means nothing is selected.
	Selected func(x int) bool
	// Cursor is the active cursor. Only a visible CursorBlock swaps the
	// covered cell's fg/bg; bar/underline/hollow cursors rely solely on
	// their own overlay rectangle (built by BuildCursorOverlay) for
	// contrast and leave cell colors untouched.
	Cursor CursorState
}

func (s RowStyleContext) selected(x int) bool {
	return s.Selected != nil && s.Selected(x)
}

func (s RowStyleContext) cursorCovers(x, y int) bool {
	return s.Cursor.Visible && s.Cursor.Kind == CursorBlock && s.Cursor.Row == y && s.Cursor.Col == x
}

// resolveCellColors applies SGR reverse, selection, and block-cursor
// overlays as independent swaps of fg/bg, composing naturally (an even
// number of swaps cancels out).
func resolveCellColors(cell grid.Cell, style RowStyleContext, x, y int) (fg, bg grid.Color) {
	fg, bg = cell.Fg, cell.Bg
	if cell.Flags&grid.FlagReverse != 0 {
		fg, bg = bg, fg
	}
	if style.selected(x) {
		fg, bg = bg, fg
	}
	if style.cursorCovers(x, y) {
		fg, bg = bg, fg
	}
	return fg, bg
}

// effectiveBackground resolves the background a cell should be painted
// with, after reverse/selection/cursor swaps, and whether it should be
// skipped as inherited (SPEC_FULL.md §4.B RLE background merging).
func effectiveBackground(cell grid.Cell, style RowStyleContext, x, y int) (bg grid.Color, inherits bool) {
	_, bg = resolveCellColors(cell, style, x, y)
	return bg, bg.Value&0xff == 0
}

// BuildRowBackgrounds performs the RLE background merge for one row: runs
// of adjacent cells sharing an effective background become one instance.
// termBg is the configured terminal background used to decide when a cell
// should be skipped entirely. Underline/strikethrough/hyperlink-underline
// decoration rectangles are appended after the merged run backgrounds
// (SPEC_FULL.md §4.B).
func BuildRowBackgrounds(row []grid.Cell, y int, cellW, cellH float32, termBg grid.Color, style RowStyleContext, out []BackgroundInstance) []BackgroundInstance {
	i := 0
	for i < len(row) {
		bg, inherits := effectiveBackground(row[i], style, i, y)
		if inherits || colorCloseTo(bg, termBg, ColorComponentEpsilon) {
			i++
			continue
		}
		start := i
		for i < len(row) {
			b, inh := effectiveBackground(row[i], style, i, y)
			if inh || b != bg {
				break
			}
			i++
		}
		run := i - start
		out = append(out, BackgroundInstance{
			Position: [2]float32{float32(start) * cellW, float32(y) * cellH},
			Size:     [2]float32{float32(run) * cellW, cellH},
			Color:    colorToRGBA(bg),
		})
	}
	return appendRowDecorations(row, y, cellW, cellH, out)
}

// appendRowDecorations emits underline, strikethrough, and hyperlink-
// underline rectangles at fractional row offsets. A hyperlink with no
// explicit underline attribute still draws one, dashed (2/2 px on/off) to
// distinguish it from an explicit SGR underline.
func appendRowDecorations(row []grid.Cell, y int, cellW, cellH float32, out []BackgroundInstance) []BackgroundInstance {
	height := cellH * UnderlineHeightRatio
	underlineY := float32(y)*cellH + cellH - height
	strikeY := float32(y)*cellH + cellH*0.5 - height*0.5

	out = appendDecorationRuns(row, cellW, underlineY, height, out, false, func(c grid.Cell) bool {
		return c.Flags&grid.FlagUnderline != 0
	})
	out = appendDecorationRuns(row, cellW, strikeY, height, out, false, func(c grid.Cell) bool {
		return c.Flags&grid.FlagStrikethrough != 0
	})
	out = appendDecorationRuns(row, cellW, underlineY, height, out, true, func(c grid.Cell) bool {
		return c.HyperlinkID != 0 && c.Flags&grid.FlagUnderline == 0
	})
	return out
}

// appendDecorationRuns merges adjacent cells matching pred into rectangles
// (or, when dashed, a sequence of stippled segments) at the given y offset.
func appendDecorationRuns(row []grid.Cell, cellW, yPos, height float32, out []BackgroundInstance, dashed bool, pred func(grid.Cell) bool) []BackgroundInstance {
	i := 0
	for i < len(row) {
		if !pred(row[i]) {
			i++
			continue
		}
		start := i
		for i < len(row) && pred(row[i]) {
			i++
		}
		run := i - start
		color := colorToRGBA(row[start].Fg)
		x0 := float32(start) * cellW
		width := float32(run) * cellW
		if dashed {
			out = appendDashedUnderline(out, x0, yPos, width, height, color)
		} else {
			out = append(out, BackgroundInstance{
				Position: [2]float32{x0, yPos},
				Size:     [2]float32{width, height},
				Color:    color,
			})
		}
	}
	return out
}

// appendDashedUnderline emits StippleOnPx-wide segments every
// StippleOnPx+StippleOffPx across [x, x+width), per SPEC_FULL.md §4.B.
func appendDashedUnderline(out []BackgroundInstance, x, y, width, height float32, color [4]float32) []BackgroundInstance {
	period := float32(StippleOnPx + StippleOffPx)
	for off := float32(0); off < width; off += period {
		seg := float32(StippleOnPx)
		if off+seg > width {
			seg = width - off
		}
		if seg <= 0 {
			break
		}
		out = append(out, BackgroundInstance{
			Position: [2]float32{x + off, y},
			Size:     [2]float32{seg, height},
			Color:    color,
		})
	}
	return out
}

// BuildRowText emits one TextInstance per cell whose grapheme shaped a
// glyph, or one solid-rectangle instance for a cell in the block-character
// geometric fast path (SPEC_FULL.md §4.B). Cells with no glyph (space, or a
// shaping miss) are skipped. style resolves per-cell fg/bg the same way
// BuildRowBackgrounds does, so reverse/selection/cursor coloring stays in
// sync between the two passes.
func BuildRowText(row []grid.Cell, y int, cellW, cellH float32, style RowStyleContext, src GlyphSource, out []TextInstance) []TextInstance {
	for x, cell := range row {
		if cell.Flags&grid.FlagWideSpacer != 0 {
			continue
		}
		fg, _ := resolveCellColors(cell, style, x, y)

		if rect, ok := blockRectFor(cell); ok {
			px, py := src.SolidPixel()
			out = append(out, TextInstance{
				Position:  [2]float32{(float32(x) + rect.X) * cellW, float32(y)*cellH + rect.Y*cellH},
				Size:      [2]float32{rect.W * cellW, rect.H * cellH},
				TexOffset: [2]float32{float32(px) / atlasDim, float32(py) / atlasDim},
				TexSize:   [2]float32{1.0 / atlasDim, 1.0 / atlasDim},
				Color:     colorToRGBA(fg),
			})
			continue
		}

		quad, ok := src.Glyph(cell)
		if !ok {
			continue
		}
		size := [2]float32{float32(quad.Width), float32(quad.Height)}
		if r, ok := firstRune(cell.Grapheme); ok && isBlockRange(r) {
			// Complex multi-segment box-drawing glyphs (crosses, tees,
			// shaded blocks) fall back to the atlas; still snap them to
			// the cell box to avoid hairline seams with neighboring
			// block cells.
			size = snapGlyphSize(size[0], size[1], cellW, cellH)
		}
		out = append(out, TextInstance{
			Position:  [2]float32{float32(x) * cellW, float32(y) * cellH},
			Size:      size,
			TexOffset: [2]float32{float32(quad.AtlasX) / atlasDim, float32(quad.AtlasY) / atlasDim},
			TexSize:   quad.TexSize,
			Color:     colorToRGBA(fg),
			IsColored: boolToU32(quad.IsColored),
		})
	}
	return out
}

const atlasDim = 2048.0

// blockRect is a cell-relative rectangle (fractions of the cell box, [0,1])
// used by the block-character geometric pass.
type blockRect struct {
	X, Y, W, H float32
}

// blockGeometry maps a single box-drawing/block-element/quadrant rune to
// the one axis-aligned rectangle that reproduces it exactly. Only runes
// representable as a single rectangle are listed: shaded blocks (░▒▓),
// diagonal quadrant pairs, three-quadrant shapes, and box-drawing
// corners/tees/crosses need multiple disjoint regions and are intentionally
// excluded, per SPEC_FULL.md §4.B ("quadrants not composed of multiple
// disjoint regions") — those fall back to normal glyph-atlas rendering.
var blockGeometry = map[rune]blockRect{
	0x2500: {0, 0.4375, 1, 0.125},  // light horizontal
	0x2501: {0, 0.375, 1, 0.25},    // heavy horizontal
	0x2502: {0.4375, 0, 0.125, 1},  // light vertical
	0x2503: {0.375, 0, 0.25, 1},    // heavy vertical
	0x2580: {0, 0, 1, 0.5},         // upper half block
	0x2581: {0, 0.875, 1, 0.125},   // lower one eighth block
	0x2582: {0, 0.75, 1, 0.25},     // lower one quarter block
	0x2583: {0, 0.625, 1, 0.375},   // lower three eighths block
	0x2584: {0, 0.5, 1, 0.5},       // lower half block
	0x2585: {0, 0.375, 1, 0.625},   // lower five eighths block
	0x2586: {0, 0.25, 1, 0.75},     // lower three quarters block
	0x2587: {0, 0.125, 1, 0.875},   // lower seven eighths block
	0x2588: {0, 0, 1, 1},           // full block
	0x2589: {0, 0, 0.875, 1},       // left seven eighths block
	0x258A: {0, 0, 0.75, 1},        // left three quarters block
	0x258B: {0, 0, 0.625, 1},       // left five eighths block
	0x258C: {0, 0, 0.5, 1},         // left half block
	0x258D: {0, 0, 0.375, 1},       // left three eighths block
	0x258E: {0, 0, 0.25, 1},        // left one quarter block
	0x258F: {0, 0, 0.125, 1},       // left one eighth block
	0x2590: {0.5, 0, 0.5, 1},       // right half block
	0x2596: {0, 0.5, 0.5, 0.5},     // quadrant lower left
	0x2597: {0.5, 0.5, 0.5, 0.5},   // quadrant lower right
	0x2598: {0, 0, 0.5, 0.5},       // quadrant upper left
	0x259D: {0.5, 0, 0.5, 0.5},     // quadrant upper right
}

// isBlockRange reports whether r falls in the box-drawing/block-element
// Unicode block (U+2500-U+259F) this pass covers.
func isBlockRange(r rune) bool {
	return r >= 0x2500 && r <= 0x259F
}

// blockRectFor reports the geometric rectangle for cell's grapheme, if any.
// Multi-rune graphemes and runes outside blockGeometry fall through to
// normal glyph rendering.
func blockRectFor(cell grid.Cell) (blockRect, bool) {
	r, ok := firstRune(cell.Grapheme)
	if !ok {
		return blockRect{}, false
	}
	rect, ok := blockGeometry[r]
	return rect, ok
}

// firstRune returns the sole rune of s and true, or ok=false if s is empty
// or holds more than one rune (combining sequences never qualify for the
// geometric fast path).
func firstRune(s string) (r rune, ok bool) {
	first := true
	for _, c := range s {
		if !first {
			return 0, false
		}
		r, first = c, false
	}
	return r, !first
}

// snapGlyphSize snaps a glyph's rendered size to the cell box when within
// GlyphSnapThresholdPx of it, extending by GlyphSnapExtensionPx to avoid
// hairline seams between adjacent block-character cells (SPEC_FULL.md
// §4.B). Applied only to complex block/box-drawing glyphs that still go
// through the atlas (simple ones are handled by the rectangle fast path
// above); ordinary text glyphs keep their natural size.
func snapGlyphSize(w, h, cellW, cellH float32) [2]float32 {
	snap := func(v, target float32) float32 {
		if absf32(v-target) <= GlyphSnapThresholdPx {
			return target + GlyphSnapExtensionPx
		}
		return v
	}
	return [2]float32{snap(w, cellW), snap(h, cellH)}
}

func colorToRGBA(c grid.Color) [4]float32 {
	r, g, b := unpackRGB(c.Value)
	a := float32(c.Value&0xff) / 255
	return [4]float32{r, g, b, a}
}

func boolToU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
