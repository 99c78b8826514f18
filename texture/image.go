// Package texture models GPU-style 2-D texture images: pixel formats,
// compatibility validation, raster adaptation and mip level extraction.
package texture

import (
	"errors"
	"fmt"
)

var (
	// ErrIncompatibleImage marks images that cannot go through mipmap
	// generation at all: already compressed, not 2-D, or layered.
	ErrIncompatibleImage = errors.New("incompatible image")

	// ErrUnsupportedFormat marks pixel layouts with no raster adapter.
	ErrUnsupportedFormat = errors.New("unsupported pixel format")
)

// Sampler is the filtering descriptor attached to an image. mipgen only
// touches the anisotropy clamp; the rest rides along untouched.
type Sampler struct {
	AnisotropyClamp uint16
	MagLinear       bool
	MinLinear       bool
	MipLinear       bool
}

// Image is a texture owned by the host asset store. Data holds every mip
// level concatenated from largest to smallest; MipLevelCount records how
// many levels are present.
type Image struct {
	Width         uint32
	Height        uint32
	Layers        uint32
	Dimension     Dimension
	Format        Format
	MipLevelCount uint32
	Data          []byte

	// Sampler overrides the host's default sampler when non-nil.
	Sampler *Sampler
}

// New2D builds a single-level 2-D image around an existing pixel buffer.
func New2D(width, height uint32, format Format, data []byte) *Image {
	return &Image{
		Width:         width,
		Height:        height,
		Layers:        1,
		Dimension:     D2,
		Format:        format,
		MipLevelCount: 1,
		Data:          data,
	}
}

// Clone returns a deep copy sharing no mutable state with img.
func (img *Image) Clone() *Image {
	out := *img
	out.Data = append([]byte(nil), img.Data...)
	if img.Sampler != nil {
		s := *img.Sampler
		out.Sampler = &s
	}
	return &out
}

// CheckCompatible reports whether img can be mipmapped: it must be an
// uncompressed, single-layer, strictly 2-D texture. Pure; mutates nothing.
func CheckCompatible(img *Image) error {
	if img.Format.IsCompressed() {
		return fmt.Errorf("%w: %s is already block-compressed", ErrIncompatibleImage, img.Format)
	}
	if img.Dimension != D2 {
		return fmt.Errorf("%w: dimension is %s, only 2d is supported", ErrIncompatibleImage, img.Dimension)
	}
	if img.Layers != 1 {
		return fmt.Errorf("%w: image has %d layers, only a single layer is supported", ErrIncompatibleImage, img.Layers)
	}
	return nil
}
