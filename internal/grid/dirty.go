package grid

import "sync"

// DirtyTracker tracks which rows need their instance-buffer segment rebuilt.
//
// Grounded on the teacher's internal/vterm/cache.go (markDirtyLine,
// DirtyLines, ClearDirty). SPEC_FULL.md §13 resolves the "dirty-row sampling
// race" open question by making Snapshot the single place a frame samples
// and clears dirty state under a short lock — callers must not re-check mid
// frame after calling it.
type DirtyTracker struct {
	mu    sync.Mutex
	rows  []bool
	all   bool
}

// Resize reallocates the dirty vector for a new row count, marking every row
// dirty (mirrors Layout.Resize reallocating row_cache/dirty_rows together).
func (d *DirtyTracker) Resize(rows int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rows = make([]bool, rows)
	for i := range d.rows {
		d.rows[i] = true
	}
	d.all = false
}

// MarkRow marks a single row dirty.
func (d *DirtyTracker) MarkRow(y int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if y < 0 || y >= len(d.rows) {
		return
	}
	d.rows[y] = true
}

// MarkRange marks rows [start, end] inclusive dirty.
func (d *DirtyTracker) MarkRange(start, end int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if start < 0 {
		start = 0
	}
	if end >= len(d.rows) {
		end = len(d.rows) - 1
	}
	for y := start; y <= end; y++ {
		d.rows[y] = true
	}
}

// MarkAll marks every row dirty (used after a scale-factor or glyph-cache
// change, per update_scale_factor in the original).
func (d *DirtyTracker) MarkAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.all = true
}

// Snapshot returns the current dirty state and clears it atomically: a copy
// of the per-row flags plus whether every row should be treated as dirty.
// This is the one place per frame dirty state may be read.
func (d *DirtyTracker) Snapshot() (rows []bool, all bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rows = make([]bool, len(d.rows))
	copy(rows, d.rows)
	all = d.all

	for i := range d.rows {
		d.rows[i] = false
	}
	d.all = false
	return rows, all
}

// Dirty reports whether a row should be rebuilt, given a prior Snapshot
// result: row r needs rebuilding if all is true, rows[r] is true, or no row
// cache entry exists for it (hasCache is false).
func Dirty(rows []bool, all bool, r int, hasCache bool) bool {
	if all || !hasCache {
		return true
	}
	return r < len(rows) && rows[r]
}
