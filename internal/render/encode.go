package render

import (
	"encoding/binary"
	"math"
)

func putF32(b []byte, off int, v float32) {
	binary.LittleEndian.PutUint32(b[off:], math.Float32bits(v))
}

// encodeBackgrounds packs BackgroundInstance values into the std140-style
// byte layout the WGSL vertex shader expects (position, size, color).
func encodeBackgrounds(instances []BackgroundInstance) []byte {
	buf := make([]byte, len(instances)*bgInstanceByteSize)
	for i, inst := range instances {
		off := i * bgInstanceByteSize
		putF32(buf, off+0, inst.Position[0])
		putF32(buf, off+4, inst.Position[1])
		putF32(buf, off+8, inst.Size[0])
		putF32(buf, off+12, inst.Size[1])
		putF32(buf, off+16, inst.Color[0])
		putF32(buf, off+20, inst.Color[1])
		putF32(buf, off+24, inst.Color[2])
		putF32(buf, off+28, inst.Color[3])
	}
	return buf
}

// encodeTexts packs TextInstance values the same way.
func encodeTexts(instances []TextInstance) []byte {
	buf := make([]byte, len(instances)*textInstanceByteSize)
	for i, inst := range instances {
		off := i * textInstanceByteSize
		putF32(buf, off+0, inst.Position[0])
		putF32(buf, off+4, inst.Position[1])
		putF32(buf, off+8, inst.Size[0])
		putF32(buf, off+12, inst.Size[1])
		putF32(buf, off+16, inst.TexOffset[0])
		putF32(buf, off+20, inst.TexOffset[1])
		putF32(buf, off+24, inst.TexSize[0])
		putF32(buf, off+28, inst.TexSize[1])
		putF32(buf, off+32, inst.Color[0])
		putF32(buf, off+36, inst.Color[1])
		putF32(buf, off+40, inst.Color[2])
		putF32(buf, off+44, inst.Color[3])
		binary.LittleEndian.PutUint32(buf[off+48:], inst.IsColored)
	}
	return buf
}
