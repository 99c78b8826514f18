package mipmap

import (
	"errors"
	"fmt"
	"image"

	"github.com/woozymasta/bcn"

	"github.com/texforge/mipgen/texture"
)

var (
	// ErrCompressionTooSmall marks sources below the 4x4 block minimum.
	ErrCompressionTooSmall = errors.New("image too small for block compression")

	// ErrCompressionUnavailable is returned by the disabled compressor.
	ErrCompressionUnavailable = errors.New("block compression unavailable")
)

// BlockCompressor re-encodes raster levels into a block-compressed format.
// Two implementations sit behind it: the real BCn encoder and a disabled
// passthrough, so callers never branch on compression support directly.
type BlockCompressor interface {
	// ResolveFormat picks the target block format for a source image. An
	// error means the level data must stay uncompressed and the image
	// descriptor must not claim a compressed format.
	ResolveFormat(src texture.Format, width, height uint32) (texture.Format, error)

	// Compress encodes one raster level. Every level of a pyramid is
	// encoded independently with the same target format and speed.
	Compress(level *image.NRGBA, target texture.Format, speed CompressionSpeed) ([]byte, error)
}

// bcnCompressor encodes through github.com/woozymasta/bcn.
type bcnCompressor struct{}

func (bcnCompressor) ResolveFormat(src texture.Format, width, height uint32) (texture.Format, error) {
	return ResolveBlockFormat(src, width, height)
}

// ResolveBlockFormat picks the BCn target for a source layout: one- and
// two-channel sources map to BC4/BC5, four-channel sources to BC7 with the
// sRGB tag preserved. Sources below the block minimum cannot be compressed.
func ResolveBlockFormat(src texture.Format, width, height uint32) (texture.Format, error) {
	if width < blockFloor || height < blockFloor {
		return texture.FormatUnknown, fmt.Errorf("%w: %dx%d", ErrCompressionTooSmall, width, height)
	}
	switch src {
	case texture.R8Unorm, texture.R8UnormSrgb:
		return texture.BC4RUnorm, nil
	case texture.RG8Unorm, texture.RG8UnormSrgb:
		return texture.BC5RGUnorm, nil
	case texture.RGBA8Unorm:
		return texture.BC7RGBAUnorm, nil
	case texture.RGBA8UnormSrgb:
		return texture.BC7RGBAUnormSrgb, nil
	}
	return texture.FormatUnknown, fmt.Errorf("%w: no block format mapping for %s", texture.ErrUnsupportedFormat, src)
}

func (bcnCompressor) Compress(level *image.NRGBA, target texture.Format, speed CompressionSpeed) ([]byte, error) {
	bf, err := blockFormat(target)
	if err != nil {
		return nil, err
	}
	data, _, _, err := bcn.EncodeImageWithOptions(level, bf, &bcn.EncodeOptions{
		QualityLevel: speed.qualityLevel(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", target, err)
	}
	return data, nil
}

// blockFormat maps the descriptor-side format onto the encoder's. The sRGB
// tag only affects sampling, so both BC7 variants share a payload encoding.
func blockFormat(target texture.Format) (bcn.Format, error) {
	switch target {
	case texture.BC4RUnorm:
		return bcn.FormatBC4, nil
	case texture.BC5RGUnorm:
		return bcn.FormatBC5, nil
	case texture.BC7RGBAUnorm, texture.BC7RGBAUnormSrgb:
		return bcn.FormatBC7, nil
	}
	return bcn.FormatUnknown, fmt.Errorf("%w: cannot encode %s", texture.ErrUnsupportedFormat, target)
}

// qualityLevel maps a speed preset onto the encoder's 1..10 quality scale.
func (s CompressionSpeed) qualityLevel() int {
	switch s {
	case UltraFast:
		return bcn.QualityLevelFast
	case VeryFast:
		return 2
	case Fast:
		return 4
	case Medium:
		return bcn.QualityLevelBalanced
	default: // Slow
		return bcn.QualityLevelBest
	}
}

// disabledCompressor is the no-op passthrough used when compression is off.
// It resolves nothing, so callers fall back to uncompressed bytes and never
// claim a compressed format.
type disabledCompressor struct{}

func (disabledCompressor) ResolveFormat(texture.Format, uint32, uint32) (texture.Format, error) {
	return texture.FormatUnknown, ErrCompressionUnavailable
}

func (disabledCompressor) Compress(*image.NRGBA, texture.Format, CompressionSpeed) ([]byte, error) {
	return nil, ErrCompressionUnavailable
}

// compressor picks the implementation for this call's settings.
func (s Settings) compressor() BlockCompressor {
	if s.Compression == nil {
		return disabledCompressor{}
	}
	return bcnCompressor{}
}
