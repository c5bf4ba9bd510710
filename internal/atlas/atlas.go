// Package atlas implements SPEC_FULL.md §4.A: an on-demand glyph rasterizer
// packed into a single 2048x2048 RGBA texture with LRU eviction.
//
// Grounded on original_source/par-term-render/src/cell_renderer/atlas.rs for
// the packing/LRU algorithm, and on
// _examples/other_examples/38c10afb_gogpu-gg__internal-gpu-text_pipeline.go.go
// for the gogpu/gg hal texture-upload idiom.
package atlas

import (
	"errors"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

const (
	atlasSize = 2048
	padding   = 2
)

// ErrNoGlyph is returned by a Rasterizer when a (font, glyph) pair produces
// no image; callers fall back to a replacement glyph (out of scope here).
var ErrNoGlyph = errors.New("atlas: rasterizer produced no image")

// Key identifies one glyph at one rendered size.
type Key struct {
	FontIndex int
	GlyphID   uint16
	// SizeMilli is the pixel size in thousandths, so Key remains comparable
	// (float keys are not, and scale changes always clear the whole cache
	// anyway via Clear).
	SizeMilli int32
}

// Raster is a rasterized glyph ready for atlas upload.
type Raster struct {
	Width, Height     uint32
	BearingX, BearingY float32
	Pixels            []byte // RGBA8, len == Width*Height*4
	IsColored         bool
}

// Rasterizer produces a Raster for a glyph key. Implemented by the font
// stack; out of scope for this package per SPEC_FULL.md §1.
type Rasterizer interface {
	Rasterize(key Key) (Raster, error)
}

// Info is the cached, atlas-packed description of one glyph plus its
// position in the LRU list. prev/next are logical Key lookups into the same
// map, never owning references (SPEC_FULL.md §9 design note).
type Info struct {
	Key                Key
	X, Y               uint32
	Width, Height      uint32
	BearingX, BearingY float32
	IsColored          bool

	prev, next *Key
}

// Atlas owns the packed glyph cache, LRU list, and packing cursor for one
// 2048x2048 GPU texture.
type Atlas struct {
	device hal.Device
	queue  hal.Queue
	raster Rasterizer

	texture hal.Texture
	view    hal.TextureView

	cache map[Key]*Info
	head, tail *Key

	nextX, nextY, rowHeight uint32

	// solidPixelPos is where the single opaque white pixel lives, re-uploaded
	// on every Clear at the bottom-right texel, which packed glyphs never
	// reach (each keeps padding clear of the right and bottom edges);
	// geometric block rendering samples it.
	solidPixelPos [2]uint32
}

// New creates an atlas texture and uploads the initial solid white pixel.
func New(device hal.Device, queue hal.Queue, raster Rasterizer) (*Atlas, error) {
	a := &Atlas{
		device: device,
		queue:  queue,
		raster: raster,
		cache:  make(map[Key]*Info),
	}

	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "par-term_glyph_atlas",
		Size:          hal.Extent3D{Width: atlasSize, Height: atlasSize, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	a.texture = tex

	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "par-term_glyph_atlas_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		return nil, err
	}
	a.view = view

	a.Clear()
	return a, nil
}

// View returns the atlas texture view for binding into the text pipeline.
func (a *Atlas) View() hal.TextureView { return a.view }

// Len returns the number of cached glyphs (used by tests to assert the LRU
// invariant |cache| == |lru_list|).
func (a *Atlas) Len() int { return len(a.cache) }

// Clear drops every entry, resets the LRU list and packing cursors to (0,0),
// and re-uploads the solid white pixel at its fixed bottom-right texel.
func (a *Atlas) Clear() {
	a.cache = make(map[Key]*Info)
	a.head, a.tail = nil, nil
	a.nextX, a.nextY, a.rowHeight = 0, 0, 0
	a.uploadSolidPixel()
}

func (a *Atlas) uploadSolidPixel() {
	a.solidPixelPos = [2]uint32{atlasSize - 1, atlasSize - 1}
	pixel := []byte{255, 255, 255, 255}
	a.writeRegion(atlasSize-1, atlasSize-1, 1, 1, pixel)
}

// SolidPixel returns the atlas coordinates of the reserved opaque white
// pixel used for geometric block-character rendering.
func (a *Atlas) SolidPixel() (x, y uint32) {
	return a.solidPixelPos[0], a.solidPixelPos[1]
}

// GetOrInsert returns the cached entry for key, promoting it to the LRU
// head; or rasterizes, uploads, and inserts it. See SPEC_FULL.md §4.A.
func (a *Atlas) GetOrInsert(key Key) (Info, error) {
	if info, ok := a.cache[key]; ok {
		a.lruRemove(key)
		a.lruPushFront(key)
		return *info, nil
	}

	r, err := a.raster.Rasterize(key)
	if err != nil {
		return Info{}, err
	}

	info := a.upload(key, r)
	a.lruPushFront(key)
	return info, nil
}

func (a *Atlas) upload(key Key, r Raster) Info {
	if a.nextX+r.Width+padding > atlasSize {
		a.nextX = 0
		a.nextY += a.rowHeight + padding
		a.rowHeight = 0
	}
	if a.nextY+r.Height+padding > atlasSize {
		a.Clear()
	}

	info := &Info{
		Key:       key,
		X:         a.nextX,
		Y:         a.nextY,
		Width:     r.Width,
		Height:    r.Height,
		BearingX:  r.BearingX,
		BearingY:  r.BearingY,
		IsColored: r.IsColored,
	}

	a.writeRegion(info.X, info.Y, r.Width, r.Height, r.Pixels)

	a.nextX += r.Width + padding
	if r.Height > a.rowHeight {
		a.rowHeight = r.Height
	}

	a.cache[key] = info
	return *info
}

func (a *Atlas) writeRegion(x, y, w, h uint32, pixels []byte) {
	if a.queue == nil { // test doubles may not stub a queue
		return
	}
	a.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  a.texture,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: x, Y: y, Z: 0},
		},
		pixels,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  w * 4,
			RowsPerImage: h,
		},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
}

func (a *Atlas) lruRemove(key Key) {
	info := a.cache[key]
	prev, next := info.prev, info.next

	if prev != nil {
		a.cache[*prev].next = next
	} else {
		a.head = next
	}
	if next != nil {
		a.cache[*next].prev = prev
	} else {
		a.tail = prev
	}
	info.prev, info.next = nil, nil
}

func (a *Atlas) lruPushFront(key Key) {
	next := a.head
	if next != nil {
		a.cache[*next].prev = &key
	} else {
		a.tail = &key
	}
	info := a.cache[key]
	info.prev = nil
	info.next = next
	a.head = &key
}

// LRUValid walks the LRU list and reports whether it is a well-formed
// doubly-linked chain covering exactly the cached keys, head-to-tail. Used
// by tests to assert the atlas invariant in SPEC_FULL.md §8.
func (a *Atlas) LRUValid() bool {
	seen := make(map[Key]bool, len(a.cache))
	var prev *Key
	cur := a.head
	for cur != nil {
		if seen[*cur] {
			return false // cycle
		}
		seen[*cur] = true
		info := a.cache[*cur]
		if info == nil {
			return false
		}
		if !keyEqual(info.prev, prev) {
			return false
		}
		prev = cur
		cur = info.next
	}
	if !keyEqual(a.tail, prev) {
		return false
	}
	return len(seen) == len(a.cache)
}

func keyEqual(a, b *Key) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
