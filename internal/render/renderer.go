package render

import (
	"github.com/gogpu/wgpu/hal"

	"github.com/paulrobello/par-term-sub012/internal/grid"
)

// BufferWriter abstracts the GPU buffer write call (hal.Queue.WriteBuffer)
// so the row-rebuild loop is testable without a real device.
type BufferWriter interface {
	WriteBuffer(buf hal.Buffer, offset uint64, data []byte)
}

// CellRenderer owns the CPU-side instance arrays and GPU buffer handles for
// one terminal grid, and rebuilds only dirty rows per frame
// (SPEC_FULL.md §4.B, §8 dirty-row minimality).
type CellRenderer struct {
	Layout  grid.Layout
	Dirty   grid.DirtyTracker
	TermBg  grid.Color

	// Selected reports whether cell (x,y) is covered by the active
	// selection; nil means nothing is selected (SPEC_FULL.md §4.B).
	Selected func(x, y int) bool

	// SeparatorVisible/SeparatorColor and GutterMarks/GutterColor drive the
	// per-row separator and gutter overlay slots (BuildSeparators/
	// BuildGutters), rewritten every frame alongside the cursor overlay.
	SeparatorVisible []bool
	SeparatorColor   grid.Color
	GutterMarks      []bool
	GutterColor      grid.Color

	rowHasCache   []bool
	rowBgCounts   []int
	rowTextCounts []int

	bgInstances   []BackgroundInstance
	textInstances []TextInstance

	ActualBgInstances   int
	ActualTextInstances int

	BgBuffer, TextBuffer hal.Buffer
	writer               BufferWriter

	scratchBG   []BackgroundInstance
	scratchText []TextInstance
}

// Resize reallocates CPU instance arrays and the row cache for a new grid
// size, mirroring recreate_instance_buffers in the original.
func (r *CellRenderer) Resize(cols, rows int) {
	r.bgInstances = make([]BackgroundInstance, MaxBackgroundInstances(cols, rows))
	r.textInstances = make([]TextInstance, MaxTextInstances(cols, rows))
	r.rowHasCache = make([]bool, rows)
	r.rowBgCounts = make([]int, rows)
	r.rowTextCounts = make([]int, rows)
	r.Dirty.Resize(rows)
	r.ActualBgInstances = 0
	r.ActualTextInstances = 0
}

// BuildInstanceBuffers rebuilds dirty rows' instance segments, writes only
// those GPU buffer regions, clears dirty flags, then always rewrites the
// fixed overlay slots (cursor/separator/gutter). Returns the number of rows
// actually rebuilt (for metrics/tests).
func (r *CellRenderer) BuildInstanceBuffers(cells [][]grid.Cell, glyphs GlyphSource, cursor CursorState) int {
	cols, rows := r.Layout.Cols, r.Layout.Rows
	dirtyRows, all := r.Dirty.Snapshot()

	rebuilt := 0
	for y := 0; y < rows && y < len(cells); y++ {
		hasCache := y < len(r.rowHasCache) && r.rowHasCache[y]
		if !grid.Dirty(dirtyRows, all, y, hasCache) {
			continue
		}
		rebuilt++

		style := RowStyleContext{Cursor: cursor}
		if r.Selected != nil {
			row := y
			style.Selected = func(x int) bool { return r.Selected(x, row) }
		}

		r.scratchBG = BuildRowBackgrounds(cells[y], y, r.Layout.CellWidth, r.Layout.CellHeight, r.TermBg, style, r.scratchBG[:0])
		r.scratchText = BuildRowText(cells[y], y, r.Layout.CellWidth, r.Layout.CellHeight, style, glyphs, r.scratchText[:0])

		bgOffset := y * cols
		bgCount := 0
		for i, inst := range r.scratchBG {
			// Row-local guard (i >= cols) as well as the global one: a
			// row's decoration rectangles can push its emitted count
			// above cols, and without the row-local bound an overflowing
			// row would silently clobber the next row's background
			// slots.
			if i >= cols || bgOffset+i >= separatorBase(cols, rows) {
				break // capacity guard: silently drop excess per §7 ResourceExhaustion policy
			}
			r.bgInstances[bgOffset+i] = inst
			bgCount++
		}
		for i := bgCount; i < cols && bgOffset+i < separatorBase(cols, rows); i++ {
			r.bgInstances[bgOffset+i] = BackgroundInstance{}
		}
		if y < len(r.rowBgCounts) {
			r.rowBgCounts[y] = bgCount
		}

		textOffset := y * cols * TextInstancesPerCell
		textCount := 0
		for i, inst := range r.scratchText {
			if textOffset+i >= len(r.textInstances) {
				break
			}
			r.textInstances[textOffset+i] = inst
			textCount++
		}
		for i := textCount; i < cols*TextInstancesPerCell && textOffset+i < len(r.textInstances); i++ {
			r.textInstances[textOffset+i] = TextInstance{}
		}
		if y < len(r.rowTextCounts) {
			r.rowTextCounts[y] = textCount
		}

		if y < len(r.rowHasCache) {
			r.rowHasCache[y] = true
		}
		r.writeRow(y, cols)
	}

	BuildCursorOverlay(cursor, r.Layout.CellWidth, r.Layout.CellHeight, r.bgInstances[cols*rows:cols*rows+CursorOverlaySlots])
	BuildSeparators(cols, rows, r.Layout.CellWidth, r.Layout.CellHeight, r.SeparatorVisible, r.SeparatorColor, r.bgInstances)
	BuildGutters(cols, rows, r.Layout.CellHeight, r.GutterMarks, r.GutterColor, r.bgInstances)

	bgTotal := 0
	for _, c := range r.rowBgCounts {
		bgTotal += c
	}
	sepBase, gutBase := separatorBase(cols, rows), gutterBase(cols, rows)
	r.ActualBgInstances = bgTotal +
		countPaintedInstances(r.bgInstances[cols*rows:cols*rows+CursorOverlaySlots]) +
		countPaintedInstances(r.bgInstances[sepBase:sepBase+rows]) +
		countPaintedInstances(r.bgInstances[gutBase:gutBase+rows])

	textTotal := 0
	for _, c := range r.rowTextCounts {
		textTotal += c
	}
	r.ActualTextInstances = textTotal

	return rebuilt
}

// countPaintedInstances counts entries with a nonzero size, i.e. ones the
// vertex shader won't discard (SPEC_FULL.md §4.B, §8 bounds property).
func countPaintedInstances(instances []BackgroundInstance) int {
	n := 0
	for _, inst := range instances {
		if inst.Size[0] != 0 || inst.Size[1] != 0 {
			n++
		}
	}
	return n
}

func (r *CellRenderer) writeRow(y, cols int) {
	if r.writer == nil || r.BgBuffer == nil {
		return
	}
	bgOffset := uint64(y*cols) * bgInstanceByteSize
	r.writer.WriteBuffer(r.BgBuffer, bgOffset, encodeBackgrounds(r.bgInstances[y*cols:min((y+1)*cols, len(r.bgInstances))]))

	if r.TextBuffer == nil {
		return
	}
	textOffset := uint64(y*cols*TextInstancesPerCell) * textInstanceByteSize
	end := min((y+1)*cols*TextInstancesPerCell, len(r.textInstances))
	r.writer.WriteBuffer(r.TextBuffer, textOffset, encodeTexts(r.textInstances[y*cols*TextInstancesPerCell:end]))
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

const (
	bgInstanceByteSize   = 4 * (2 + 2 + 4) // position+size+color, f32
	textInstanceByteSize = 4 * (2 + 2 + 2 + 2 + 4 + 1)
)
