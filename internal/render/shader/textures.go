package shader

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// placeholderChannelTexture creates a 1x1 transparent RGBA texture, bound
// when no user texture is configured for a channel (SPEC_FULL.md §4.C).
func placeholderChannelTexture(device hal.Device, queue hal.Queue, label string) (ChannelTexture, error) {
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return ChannelTexture{}, fmt.Errorf("shader: create placeholder texture: %w", err)
	}
	queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, MipLevel: 0, Origin: hal.Origin3D{}},
		[]byte{0, 0, 0, 0},
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: 4, RowsPerImage: 1},
		&hal.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
	)

	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		return ChannelTexture{}, fmt.Errorf("shader: create placeholder view: %w", err)
	}

	sampler, err := clampingSampler(device, label+"_sampler")
	if err != nil {
		return ChannelTexture{}, err
	}

	return ChannelTexture{Texture: tex, View: view, Sampler: sampler, Width: 1, Height: 1, owned: true}, nil
}

// fromViewChannelTexture borrows an existing view/sampler (e.g. the
// background-image texture already loaded elsewhere) without copying. The
// caller pledges to keep the source texture alive for as long as this
// ChannelTexture is bound.
func fromViewChannelTexture(view hal.TextureView, sampler hal.Sampler, width, height uint32) ChannelTexture {
	return ChannelTexture{View: view, Sampler: sampler, Width: width, Height: height, owned: false}
}

// fromFileChannelTexture decodes path (PNG/JPEG) to RGBA8 and uploads it
// once, with repeat wrapping and linear filtering for tiled shader channels
// (SPEC_FULL.md §4.C).
func fromFileChannelTexture(device hal.Device, queue hal.Queue, path string) (ChannelTexture, error) {
	rgba, width, height, err := decodeImageRGBA(path)
	if err != nil {
		return ChannelTexture{}, err
	}

	label := "par-term_shader_channel_" + path
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return ChannelTexture{}, fmt.Errorf("shader: create channel texture %s: %w", path, err)
	}
	queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, MipLevel: 0, Origin: hal.Origin3D{}},
		rgba,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: 4 * width, RowsPerImage: height},
		&hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
	)

	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		return ChannelTexture{}, fmt.Errorf("shader: create channel view %s: %w", path, err)
	}

	sampler, err := device.CreateSampler(&hal.SamplerDescriptor{
		Label:        label + "_sampler",
		AddressModeU: gputypes.AddressModeRepeat,
		AddressModeV: gputypes.AddressModeRepeat,
		AddressModeW: gputypes.AddressModeRepeat,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		return ChannelTexture{}, fmt.Errorf("shader: create channel sampler %s: %w", path, err)
	}

	return ChannelTexture{Texture: tex, View: view, Sampler: sampler, Width: width, Height: height, owned: true}, nil
}

func clampingSampler(device hal.Device, label string) (hal.Sampler, error) {
	sampler, err := device.CreateSampler(&hal.SamplerDescriptor{
		Label:        label,
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		return nil, fmt.Errorf("shader: create sampler %s: %w", label, err)
	}
	return sampler, nil
}

// decodeImageRGBA decodes a PNG or JPEG file and flattens it into a tightly
// packed RGBA8 buffer (golang.org/x/image/draw normalizes whatever
// concrete image type the decoder returns into a *image.RGBA we can upload
// directly). HDR (.hdr) files are not supported: no half-float-capable
// decoder is available, so only the LDR formats SPEC_FULL.md §4.C lists
// (PNG/JPG/JPEG) are handled.
func decodeImageRGBA(path string) (pixels []byte, width, height uint32, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("shader: read %s: %w", path, err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("shader: decode %s: %w", path, err)
	}
	return flattenToRGBA(img)
}

func flattenToRGBA(img image.Image) (pixels []byte, width, height uint32, err error) {
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba.Pix, uint32(bounds.Dx()), uint32(bounds.Dy()), nil
}

// LoadChannel replaces the texture bound to slot idx (0-4). path=="" binds
// a placeholder.
func (s *Stage) LoadChannel(idx int, path string) error {
	if idx < 0 || idx >= len(s.channels) {
		return fmt.Errorf("shader: channel index %d out of range", idx)
	}
	var tex ChannelTexture
	var err error
	if path == "" {
		tex, err = placeholderChannelTexture(s.device, s.queue, fmt.Sprintf("par-term_shader_channel_%d_placeholder", idx))
	} else {
		tex, err = fromFileChannelTexture(s.device, s.queue, path)
	}
	if err != nil {
		return err
	}
	s.channels[idx] = tex
	return nil
}

// LoadChannelFromView binds slot idx (0-4) to a borrowed view/sampler (e.g.
// the background-image texture) instead of loading a new copy.
func (s *Stage) LoadChannelFromView(idx int, view hal.TextureView, sampler hal.Sampler, width, height uint32) error {
	if idx < 0 || idx >= len(s.channels) {
		return fmt.Errorf("shader: channel index %d out of range", idx)
	}
	s.channels[idx] = fromViewChannelTexture(view, sampler, width, height)
	return nil
}

// Channel returns the current texture bound to slot idx (0-4).
func (s *Stage) Channel(idx int) ChannelTexture { return s.channels[idx] }

// InitPlaceholders binds a 1x1 placeholder to every channel slot and the
// cubemap, so the Stage is immediately bindable before any LoadChannel or
// LoadCubemapFromPrefix call replaces a slot with real content
// (SPEC_FULL.md §4.C).
func (s *Stage) InitPlaceholders() error {
	for i := range s.channels {
		tex, err := placeholderChannelTexture(s.device, s.queue, fmt.Sprintf("par-term_shader_channel_%d_placeholder", i))
		if err != nil {
			return err
		}
		s.channels[i] = tex
	}
	return s.LoadCubemapPlaceholder()
}
