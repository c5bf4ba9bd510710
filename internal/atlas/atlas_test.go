package atlas

import "testing"

// fakeRasterizer returns a fixed-size opaque raster for every key, so tests
// can drive packing/eviction deterministically without a real font stack.
type fakeRasterizer struct {
	w, h uint32
}

func (f fakeRasterizer) Rasterize(key Key) (Raster, error) {
	return Raster{
		Width:  f.w,
		Height: f.h,
		Pixels: make([]byte, f.w*f.h*4),
	}, nil
}

func newTestAtlas(t *testing.T, w, h uint32) *Atlas {
	t.Helper()
	a := &Atlas{raster: fakeRasterizer{w: w, h: h}, cache: make(map[Key]*Info)}
	a.Clear()
	return a
}

func TestGetOrInsertCachesAndPromotes(t *testing.T) {
	a := newTestAtlas(t, 10, 10)

	k1 := Key{FontIndex: 0, GlyphID: 1}
	k2 := Key{FontIndex: 0, GlyphID: 2}

	if _, err := a.GetOrInsert(k1); err != nil {
		t.Fatal(err)
	}
	if _, err := a.GetOrInsert(k2); err != nil {
		t.Fatal(err)
	}

	if *a.head != k2 {
		t.Fatalf("expected k2 at head after insert, got %v", *a.head)
	}

	// Re-fetching k1 should promote it back to head.
	if _, err := a.GetOrInsert(k1); err != nil {
		t.Fatal(err)
	}
	if *a.head != k1 {
		t.Fatalf("expected k1 promoted to head, got %v", *a.head)
	}
	if !a.LRUValid() {
		t.Fatalf("LRU list invalid after promotion")
	}
}

func TestAtlasLRUInvariantAfterManyInserts(t *testing.T) {
	a := newTestAtlas(t, 8, 8)
	for i := 0; i < 50; i++ {
		if _, err := a.GetOrInsert(Key{GlyphID: uint16(i)}); err != nil {
			t.Fatal(err)
		}
		if a.Len() != len(seenKeys(a)) {
			t.Fatalf("cache length diverged from LRU list length at i=%d", i)
		}
		if !a.LRUValid() {
			t.Fatalf("LRU invalid at i=%d", i)
		}
	}
}

func seenKeys(a *Atlas) map[Key]bool {
	seen := make(map[Key]bool)
	cur := a.head
	for cur != nil {
		seen[*cur] = true
		cur = a.cache[*cur].next
	}
	return seen
}

// TestAtlasOverflowClearsAndSucceeds is SPEC_FULL.md §8 scenario 1: insert
// 200x200 glyphs until next_y would exceed 2048 on both axes; the
// overflowing insert clears the cache and succeeds at (0,0).
func TestAtlasOverflowClearsAndSucceeds(t *testing.T) {
	a := newTestAtlas(t, 200, 200)

	glyphsPerRow := atlasSize / (200 + padding) // glyphs per row before wrap
	rowsPerAtlas := atlasSize / (200 + padding) // rows that fit vertically
	// Fill every row, then one more insert: that one overflows vertically.
	total := glyphsPerRow*rowsPerAtlas + 1
	var last Info
	var err error
	for i := 0; i < total; i++ {
		last, err = a.GetOrInsert(Key{GlyphID: uint16(i)})
		if err != nil {
			t.Fatal(err)
		}
	}

	if last.X != 0 {
		t.Fatalf("expected overflow insert to land at x=0, got x=%d y=%d", last.X, last.Y)
	}
	if a.Len() != 1 {
		t.Fatalf("expected cache to contain exactly the post-overflow insert, got %d entries", a.Len())
	}
}

func TestSubpixelMaskToRGBALuminance(t *testing.T) {
	data := []byte{100, 200, 50}
	out := SubpixelMaskToRGBA(data, 1, 1)
	if len(out) != 4 {
		t.Fatalf("expected 4 bytes, got %d", len(out))
	}
	if out[0] != 255 || out[1] != 255 || out[2] != 255 {
		t.Fatalf("expected opaque white RGB, got %v", out[:3])
	}
	wantAlpha := byte((100*299 + 200*587 + 50*114) / 1000)
	if out[3] != wantAlpha {
		t.Fatalf("expected alpha %d, got %d", wantAlpha, out[3])
	}
}

func TestMaskToRGBAThresholdsWhenNotAntialiased(t *testing.T) {
	out := MaskToRGBA([]byte{200, 50}, false)
	if out[3] != 255 {
		t.Fatalf("expected mask 200 thresholded to 255, got %d", out[3])
	}
	if out[7] != 0 {
		t.Fatalf("expected mask 50 thresholded to 0, got %d", out[7])
	}
}
