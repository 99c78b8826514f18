package texture

import "fmt"

// Format identifies the pixel layout of an image's byte payload.
//
// Uncompressed formats store one texel per BytesPerTexel bytes. Block
// formats store 4x4 texel blocks at a fixed byte size per block.
type Format uint8

const (
	FormatUnknown Format = iota

	// Uncompressed 8-bit-per-channel layouts.
	R8Unorm
	R8UnormSrgb
	RG8Unorm
	RG8UnormSrgb
	RGBA8Unorm
	RGBA8UnormSrgb

	// Block-compressed layouts (BCn, 4x4 texel blocks).
	BC4RUnorm
	BC5RGUnorm
	BC7RGBAUnorm
	BC7RGBAUnormSrgb
)

var formatNames = map[Format]string{
	FormatUnknown:    "unknown",
	R8Unorm:          "r8unorm",
	R8UnormSrgb:      "r8unorm-srgb",
	RG8Unorm:         "rg8unorm",
	RG8UnormSrgb:     "rg8unorm-srgb",
	RGBA8Unorm:       "rgba8unorm",
	RGBA8UnormSrgb:   "rgba8unorm-srgb",
	BC4RUnorm:        "bc4-r-unorm",
	BC5RGUnorm:       "bc5-rg-unorm",
	BC7RGBAUnorm:     "bc7-rgba-unorm",
	BC7RGBAUnormSrgb: "bc7-rgba-unorm-srgb",
}

func (f Format) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return fmt.Sprintf("format(%d)", uint8(f))
}

// ParseFormat maps a format name back to its Format value.
func ParseFormat(s string) (Format, error) {
	for f, name := range formatNames {
		if name == s {
			return f, nil
		}
	}
	return FormatUnknown, fmt.Errorf("unknown pixel format %q", s)
}

// IsCompressed reports whether f is a block-compressed format.
func (f Format) IsCompressed() bool {
	switch f {
	case BC4RUnorm, BC5RGUnorm, BC7RGBAUnorm, BC7RGBAUnormSrgb:
		return true
	}
	return false
}

// IsSRGB reports whether f carries the sRGB color-space tag.
func (f Format) IsSRGB() bool {
	switch f {
	case R8UnormSrgb, RG8UnormSrgb, RGBA8UnormSrgb, BC7RGBAUnormSrgb:
		return true
	}
	return false
}

// Channels returns the channel count for uncompressed formats, 0 otherwise.
func (f Format) Channels() int {
	switch f {
	case R8Unorm, R8UnormSrgb:
		return 1
	case RG8Unorm, RG8UnormSrgb:
		return 2
	case RGBA8Unorm, RGBA8UnormSrgb:
		return 4
	}
	return 0
}

// BlockDim returns the texel width/height of one block: 4 for block
// formats, 1 for uncompressed ones.
func (f Format) BlockDim() uint32 {
	if f.IsCompressed() {
		return 4
	}
	return 1
}

// BlockSize returns the byte size of one block. For uncompressed formats a
// block is a single texel.
func (f Format) BlockSize() uint32 {
	switch f {
	case R8Unorm, R8UnormSrgb:
		return 1
	case RG8Unorm, RG8UnormSrgb:
		return 2
	case RGBA8Unorm, RGBA8UnormSrgb:
		return 4
	case BC4RUnorm:
		return 8
	case BC5RGUnorm, BC7RGBAUnorm, BC7RGBAUnormSrgb:
		return 16
	}
	return 0
}

// LevelSize returns the byte size of a single mip level with the given
// texel dimensions. Block formats round each dimension up to whole blocks.
func (f Format) LevelSize(width, height uint32) int {
	d := f.BlockDim()
	bw := (width + d - 1) / d
	bh := (height + d - 1) / d
	return int(bw) * int(bh) * int(f.BlockSize())
}

// Dimension is the dimensionality of a texture.
type Dimension uint8

const (
	D1 Dimension = iota + 1
	D2
	D3
)

func (d Dimension) String() string {
	switch d {
	case D1:
		return "1d"
	case D2:
		return "2d"
	case D3:
		return "3d"
	}
	return fmt.Sprintf("dimension(%d)", uint8(d))
}
