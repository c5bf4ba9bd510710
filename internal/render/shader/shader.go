// Package shader implements SPEC_FULL.md §4.C Custom Shader Stage: loading
// and compiling a Shadertoy-style fragment program, binding its eleven
// resources, and running one fullscreen pass.
//
// Grounded on original_source/par-term-render/src/custom_shader_renderer/
// (cubemap.rs, textures.rs) for the binding/texture-lifecycle design, and on
// _examples/other_examples/38c10afb_gogpu-gg__internal-gpu-text_pipeline.go.go
// for the gogpu/gg hal pipeline-creation idiom this engine reuses elsewhere.
package shader

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ErrCompilation is returned when a shader fails to compile; the caller
// keeps its previously active pipeline and surfaces Err's text to the UI
// (SPEC_FULL.md §7 CompilationFailure).
var ErrCompilation = errors.New("shader: compilation failed")

// Metadata is parsed from an optional header comment block
// `/*! par-term shader metadata ... */` at the top of a shader file.
type Metadata struct {
	Name, Author, Version, Description string
	Defaults                           map[string]float64

	// TerminalChannelSlot resolves SPEC_FULL.md §13's open-question: which
	// iChannel the intermediate terminal texture binds to. Defaults to 0.
	TerminalChannelSlot int
}

// DefaultMetadata returns metadata for a shader with no header block.
func DefaultMetadata() Metadata {
	return Metadata{TerminalChannelSlot: 0}
}

// Uniforms mirrors SPEC_FULL.md §3 Shader uniforms: time, resolution,
// mouse, frame index, per-channel + cubemap resolutions, cursor coordinate,
// and a user parameter pack. The layout is std140-equivalent and must stay
// stable across reloads so a running pipeline's bind group need not be
// recreated, only its backing buffer rewritten.
type Uniforms struct {
	Time            float32
	Resolution      [2]float32
	Mouse           [2]float32
	Frame           uint32
	ChannelRes      [4][2]float32
	CubemapRes      float32
	Cursor          [2]float32
	UserParams      [16]float32 // colors/intensities/trail durations pack
}

// Encode packs Uniforms into its GPU buffer byte layout.
func (u Uniforms) Encode() []byte {
	buf := make([]byte, uniformByteSize)
	off := 0
	putF32 := func(v float32) {
		putLE32(buf, off, math.Float32bits(v))
		off += 4
	}
	putF32(u.Time)
	off = 8 // vec2 aligns to 8
	putF32(u.Resolution[0])
	putF32(u.Resolution[1])
	putF32(u.Mouse[0])
	putF32(u.Mouse[1])
	putLE32(buf, off, u.Frame)
	off = 32 // arrays align to 16
	for _, r := range u.ChannelRes {
		putF32(r[0])
		putF32(r[1])
		off += 8 // array element stride is 16
	}
	putF32(u.CubemapRes)
	off = 104 // vec2 aligns to 8
	putF32(u.Cursor[0])
	putF32(u.Cursor[1])
	for _, p := range u.UserParams {
		putF32(p)
		off += 12 // array element stride is 16
	}
	return buf
}

// uniformByteSize is the std140 size of Uniforms: Time@0, Resolution@8,
// Mouse@16, Frame@24, ChannelRes@32 (4x16), CubemapRes@96, Cursor@104,
// UserParams@112 (16x16).
const uniformByteSize = 368

// ChannelSlot enumerates the eleven bind-group slots: 0 is the uniform
// buffer, 1-10 are five (view, sampler) texture pairs for iChannel0..4.
type ChannelSlot int

const (
	SlotUniform ChannelSlot = iota
	SlotChannel0View
	SlotChannel0Sampler
	SlotChannel1View
	SlotChannel1Sampler
	SlotChannel2View
	SlotChannel2Sampler
	SlotChannel3View
	SlotChannel3Sampler
	SlotChannel4View
	SlotChannel4Sampler
)

// ChannelTexture is one of the five iChannel slots' backing texture and its
// load mode (SPEC_FULL.md §4.C texture lifecycle).
type ChannelTexture struct {
	Texture hal.Texture // nil for a from_view texture: the caller owns it
	View    hal.TextureView
	Sampler hal.Sampler
	Width, Height uint32
	// fromView textures are borrowed (caller pledges to keep the source
	// alive); placeholder/fromFile textures are owned by the Stage.
	owned bool
}

// Resolution returns [width, height, 1, 0], matching Shadertoy's
// iChannelResolution uniform convention.
func (c ChannelTexture) Resolution() [4]float32 {
	return [4]float32{float32(c.Width), float32(c.Height), 1, 0}
}

// Stage owns the compiled shader pipeline and its bound channel textures.
type Stage struct {
	device hal.Device
	queue  hal.Queue

	Metadata Metadata
	source   string

	shader   hal.ShaderModule
	pipeline hal.RenderPipeline
	layout   hal.BindGroupLayout

	uniformBuf hal.Buffer
	channels   [5]ChannelTexture
	cubemap    ChannelTexture

	lastGoodShader string
	lastGoodMeta   Metadata
	lastErr        error
}

// New creates a Stage bound to a device/queue. No pipeline is compiled
// until Load succeeds.
func New(device hal.Device, queue hal.Queue) *Stage {
	return &Stage{device: device, queue: queue}
}

// Load parses the metadata header (if present), compiles the remaining
// body as WGSL source (GLSL is not translated), and replaces the active
// pipeline. On failure the previously
// active pipeline remains bound and Err() reports the failure
// (SPEC_FULL.md §4.C, §7).
func (s *Stage) Load(source string) error {
	meta, body := ParseMetadata(source)

	shader, err := s.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  fmt.Sprintf("par-term_custom_shader_%s", meta.Name),
		Source: hal.ShaderSource{WGSL: body},
	})
	if err != nil {
		s.lastErr = fmt.Errorf("%w: %s", ErrCompilation, err)
		return s.lastErr
	}

	layout, err := s.device.CreateBindGroupLayout(shaderBindGroupLayoutDescriptor())
	if err != nil {
		s.lastErr = fmt.Errorf("%w: %s", ErrCompilation, err)
		return s.lastErr
	}

	pipeLayout, err := s.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "par-term_custom_shader_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{layout},
	})
	if err != nil {
		s.lastErr = fmt.Errorf("%w: %s", ErrCompilation, err)
		return s.lastErr
	}

	premul := gputypes.BlendStatePremultiplied()
	pipeline, err := s.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "par-term_custom_shader_pipeline",
		Layout: pipeLayout,
		Vertex: hal.VertexState{Module: shader, EntryPoint: "vs_main"},
		Fragment: &hal.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{Format: gputypes.TextureFormatBGRA8Unorm, Blend: &premul, WriteMask: gputypes.ColorWriteMaskAll},
			},
		},
		Primitive: gputypes.PrimitiveState{Topology: gputypes.PrimitiveTopologyTriangleStrip},
	})
	if err != nil {
		s.lastErr = fmt.Errorf("%w: %s", ErrCompilation, err)
		return s.lastErr
	}

	s.shader, s.layout, s.pipeline = shader, layout, pipeline
	s.source, s.Metadata = source, meta
	s.lastGoodShader, s.lastGoodMeta = source, meta
	s.lastErr = nil
	return nil
}

// Err returns the last compilation error, if the active pipeline is in
// fact the previously-good one because Load most recently failed.
func (s *Stage) Err() error { return s.lastErr }

func shaderBindGroupLayoutDescriptor() *hal.BindGroupLayoutDescriptor {
	entries := []gputypes.BindGroupLayoutEntry{
		{Binding: 0, Visibility: gputypes.ShaderStageFragment, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
	}
	for i := 0; i < 5; i++ {
		base := uint32(1 + i*2)
		entries = append(entries,
			gputypes.BindGroupLayoutEntry{Binding: base, Visibility: gputypes.ShaderStageFragment, Texture: &gputypes.TextureBindingLayout{SampleType: gputypes.TextureSampleTypeFloat, ViewDimension: gputypes.TextureViewDimension2D}},
			gputypes.BindGroupLayoutEntry{Binding: base + 1, Visibility: gputypes.ShaderStageFragment, Sampler: &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering}},
		)
	}
	return &hal.BindGroupLayoutDescriptor{Label: "par-term_custom_shader_layout", Entries: entries}
}

// ParseMetadata extracts an optional `/*! par-term shader metadata ... */`
// header and returns it alongside the remaining shader body. Unrecognized
// or absent headers yield DefaultMetadata() and the source unchanged.
func ParseMetadata(source string) (Metadata, string) {
	const open = "/*! par-term shader metadata"
	const close = "*/"

	start := strings.Index(source, open)
	if start < 0 {
		return DefaultMetadata(), source
	}
	end := strings.Index(source[start:], close)
	if end < 0 {
		return DefaultMetadata(), source
	}
	end += start + len(close)

	meta := DefaultMetadata()
	body := source[start+len(open) : end-len(close)]
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "*"))
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		switch key {
		case "name":
			meta.Name = val
		case "author":
			meta.Author = val
		case "version":
			meta.Version = val
		case "description":
			meta.Description = val
		}
	}

	return meta, source[end:]
}

// IsCursorShader reports whether filename identifies a cursor-animation
// shader (the `cursor_` prefix convention, SPEC_FULL.md §6).
func IsCursorShader(filename string) bool {
	return strings.HasPrefix(filename, "cursor_")
}

func putLE32(b []byte, off int, v uint32) {
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
	b[off+2] = byte(v >> 16)
	b[off+3] = byte(v >> 24)
}
