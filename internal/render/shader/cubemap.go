package shader

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// cubemapFaceSuffixes orders the six cube faces for upload. py/ny are
// deliberately swapped relative to the usual +Y/-Y order to match wgpu's
// Y-axis convention (SPEC_FULL.md §4.C), mirroring the original engine's
// FACE_SUFFIXES table.
var cubemapFaceSuffixes = [6]string{"px", "nx", "ny", "py", "pz", "nz"}

// cubemapExtensions lists the supported LDR face formats. HDR (.hdr) faces
// are out of scope: uploading them needs a half-float-capable decoder (the
// original engine uses Rust's `half` crate), and nothing in this module's
// dependency set provides one, so only PNG/JPG/JPEG faces are supported.
var cubemapExtensions = [3]string{"png", "jpg", "jpeg"}

// findCubemapFaces locates the six face files for prefix — each named
// "{prefix}-{suffix}.{ext}" — trying each supported extension in turn, and
// returns their paths in cubemapFaceSuffixes order.
func findCubemapFaces(prefix string) ([6]string, error) {
	var paths [6]string
	dir, stem := filepath.Split(prefix)
	for i, suffix := range cubemapFaceSuffixes {
		found := ""
		for _, ext := range cubemapExtensions {
			candidate := filepath.Join(dir, fmt.Sprintf("%s-%s.%s", stem, suffix, ext))
			if _, statErr := os.Stat(candidate); statErr == nil {
				found = candidate
				break
			}
		}
		if found == "" {
			return [6]string{}, fmt.Errorf("shader: missing cubemap face %s-%s.{png,jpg,jpeg}", prefix, suffix)
		}
		paths[i] = found
	}
	return paths, nil
}

// flipVerticalRGBA flips a tightly packed RGBA8 buffer top-to-bottom.
// Cubemap textures expect Y=0 at the bottom, but image files store Y=0 at
// the top, so every face is flipped before upload.
func flipVerticalRGBA(pixels []byte, width, height uint32) []byte {
	stride := int(width) * 4
	out := make([]byte, len(pixels))
	for y := uint32(0); y < height; y++ {
		src := pixels[int(y)*stride : int(y)*stride+stride]
		dst := out[int(height-1-y)*stride : int(height-1-y)*stride+stride]
		copy(dst, src)
	}
	return out
}

func cubemapSampler(device hal.Device) (hal.Sampler, error) {
	return clampingSampler(device, "par-term_cubemap_sampler")
}

// LoadCubemapPlaceholder binds a 1x1 transparent placeholder cubemap, used
// when no cubemap is configured (SPEC_FULL.md §4.C).
func (s *Stage) LoadCubemapPlaceholder() error {
	tex, err := s.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "par-term_cubemap_placeholder",
		Size:          hal.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 6},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("shader: create placeholder cubemap: %w", err)
	}
	for layer := uint32(0); layer < 6; layer++ {
		s.queue.WriteTexture(
			&hal.ImageCopyTexture{Texture: tex, MipLevel: 0, Origin: hal.Origin3D{Z: layer}},
			[]byte{0, 0, 0, 0},
			&hal.ImageDataLayout{Offset: 0, BytesPerRow: 4, RowsPerImage: 1},
			&hal.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
		)
	}

	view, err := s.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "par-term_cubemap_placeholder_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimensionCube,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		return fmt.Errorf("shader: create placeholder cubemap view: %w", err)
	}
	sampler, err := cubemapSampler(s.device)
	if err != nil {
		return err
	}

	s.cubemap = ChannelTexture{Texture: tex, View: view, Sampler: sampler, Width: 1, Height: 1, owned: true}
	return nil
}

// LoadCubemapFromPrefix loads a 6-face cubemap named
// "{prefix}-{px,nx,ny,py,pz,nz}.{png|jpg|jpeg}". All faces must be square
// and of identical size; each is flipped vertically on load (SPEC_FULL.md
// §4.C).
func (s *Stage) LoadCubemapFromPrefix(prefix string) error {
	facePaths, err := findCubemapFaces(prefix)
	if err != nil {
		return err
	}

	firstPixels, faceSize, firstH, err := decodeImageRGBA(facePaths[0])
	if err != nil {
		return err
	}
	if faceSize != firstH {
		return fmt.Errorf("shader: cubemap faces must be square, got %dx%d for %s", faceSize, firstH, facePaths[0])
	}

	tex, err := s.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "par-term_cubemap_" + prefix,
		Size:          hal.Extent3D{Width: faceSize, Height: faceSize, DepthOrArrayLayers: 6},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("shader: create cubemap texture: %w", err)
	}

	uploadCubemapFace(s.queue, tex, firstPixels, 0, faceSize)
	for layer := 1; layer < 6; layer++ {
		pixels, w, h, err := decodeImageRGBA(facePaths[layer])
		if err != nil {
			return err
		}
		if w != faceSize || h != faceSize {
			return fmt.Errorf("shader: cubemap face size mismatch: expected %dx%d, got %dx%d for %s",
				faceSize, faceSize, w, h, facePaths[layer])
		}
		uploadCubemapFace(s.queue, tex, pixels, uint32(layer), faceSize)
	}

	view, err := s.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "par-term_cubemap_" + prefix + "_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimensionCube,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		return fmt.Errorf("shader: create cubemap view: %w", err)
	}
	sampler, err := cubemapSampler(s.device)
	if err != nil {
		return err
	}

	s.cubemap = ChannelTexture{Texture: tex, View: view, Sampler: sampler, Width: faceSize, Height: faceSize, owned: true}
	return nil
}

func uploadCubemapFace(queue hal.Queue, tex hal.Texture, pixels []byte, layer, faceSize uint32) {
	flipped := flipVerticalRGBA(pixels, faceSize, faceSize)
	queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, MipLevel: 0, Origin: hal.Origin3D{Z: layer}},
		flipped,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: 4 * faceSize, RowsPerImage: faceSize},
		&hal.Extent3D{Width: faceSize, Height: faceSize, DepthOrArrayLayers: 1},
	)
}

// Cubemap returns the currently bound cubemap texture.
func (s *Stage) Cubemap() ChannelTexture { return s.cubemap }
