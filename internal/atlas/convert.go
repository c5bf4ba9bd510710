package atlas

// MaskToRGBA widens a monochrome alpha mask to opaque-white RGBA8, per
// SPEC_FULL.md §4.A: "monochrome masks are widened to RGBA by writing
// opaque white with the mask as alpha". When antialias is false the alpha
// is thresholded at 127 for crisp edges.
func MaskToRGBA(mask []byte, antialias bool) []byte {
	out := make([]byte, 0, len(mask)*4)
	for _, m := range mask {
		a := m
		if !antialias {
			if m > 127 {
				a = 255
			} else {
				a = 0
			}
		}
		out = append(out, 255, 255, 255, a)
	}
	return out
}

// SubpixelMaskToRGBA converts a subpixel-rendered glyph image (3 or 4 bytes
// per pixel) into an RGBA8 alpha mask by luminance, ignoring any packed
// alpha channel since some rasterizer builds zero it out.
//
// Grounded on
// original_source/par-term-render/src/cell_renderer/atlas.rs::convert_subpixel_mask_to_rgba.
func SubpixelMaskToRGBA(data []byte, width, height int) []byte {
	out := make([]byte, 0, width*height*4)
	if width <= 0 || height <= 0 {
		return out
	}
	stride := len(data) / (width * height)

	luminance := func(r, g, b byte) byte {
		return byte((uint32(r)*299 + uint32(g)*587 + uint32(b)*114) / 1000)
	}

	switch stride {
	case 3:
		for i := 0; i+3 <= len(data); i += 3 {
			a := luminance(data[i], data[i+1], data[i+2])
			out = append(out, 255, 255, 255, a)
		}
	case 4:
		for i := 0; i+4 <= len(data); i += 4 {
			a := luminance(data[i], data[i+1], data[i+2])
			out = append(out, 255, 255, 255, a)
		}
	default:
		for i := 0; i < width*height; i++ {
			out = append(out, 255, 255, 255, 255)
		}
	}
	return out
}
