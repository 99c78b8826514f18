// Package mipmap generates full mip pyramids for 2-D textures, optionally
// re-encoding each level into a BCn block format and caching compressed
// results on disk.
package mipmap

import (
	"fmt"

	"github.com/disintegration/imaging"
)

// FilterType selects the resampling kernel used when halving levels.
type FilterType uint8

const (
	FilterBox FilterType = iota
	FilterTriangle
	FilterCatmullRom
	FilterLanczos
)

func (f FilterType) String() string {
	switch f {
	case FilterBox:
		return "box"
	case FilterTriangle:
		return "triangle"
	case FilterCatmullRom:
		return "catmullrom"
	case FilterLanczos:
		return "lanczos"
	}
	return fmt.Sprintf("filter(%d)", uint8(f))
}

// ParseFilterType maps a filter name to its FilterType.
func ParseFilterType(s string) (FilterType, error) {
	switch s {
	case "box":
		return FilterBox, nil
	case "triangle":
		return FilterTriangle, nil
	case "catmullrom":
		return FilterCatmullRom, nil
	case "lanczos":
		return FilterLanczos, nil
	}
	return 0, fmt.Errorf("unknown filter type %q", s)
}

func (f FilterType) resampleFilter() imaging.ResampleFilter {
	switch f {
	case FilterBox:
		return imaging.Box
	case FilterCatmullRom:
		return imaging.CatmullRom
	case FilterLanczos:
		return imaging.Lanczos
	default:
		return imaging.Linear
	}
}

// CompressionSpeed trades encoder search effort for compressed quality.
type CompressionSpeed uint8

const (
	UltraFast CompressionSpeed = iota
	VeryFast
	Fast
	Medium
	Slow
)

func (s CompressionSpeed) String() string {
	switch s {
	case UltraFast:
		return "ultrafast"
	case VeryFast:
		return "veryfast"
	case Fast:
		return "fast"
	case Medium:
		return "medium"
	case Slow:
		return "slow"
	}
	return fmt.Sprintf("speed(%d)", uint8(s))
}

// ParseCompressionSpeed maps a preset name to its CompressionSpeed.
func ParseCompressionSpeed(s string) (CompressionSpeed, error) {
	switch s {
	case "ultrafast":
		return UltraFast, nil
	case "veryfast":
		return VeryFast, nil
	case "fast":
		return Fast, nil
	case "medium":
		return Medium, nil
	case "slow":
		return Slow, nil
	}
	return 0, fmt.Errorf("unknown compression speed %q", s)
}

// Settings configures one generation call. Values are immutable per call
// and cheap to copy.
type Settings struct {
	// AnisotropicFiltering is clamped onto the image sampler.
	// Valid values: 1, 2, 4, 8 and 16.
	AnisotropicFiltering uint16

	// FilterType is the resampling kernel for every halving step.
	FilterType FilterType

	// MinimumMipResolution is the floor, in texels, below which no further
	// levels are generated.
	MinimumMipResolution uint32

	// MaxMipLevels caps the pyramid size, counting the input level.
	// 0 means unbounded.
	MaxMipLevels uint32

	// Compression enables BCn re-encoding when non-nil. Compression can
	// take a long time; UltraFast is recommended.
	Compression *CompressionSpeed

	// CachePath, when set, is the directory where compressed level data is
	// cached across runs. Uncompressed output is never cached.
	CachePath string
}

// DefaultSettings returns the stock configuration: 8x anisotropy, triangle
// filtering, no floor, no compression, no cache.
func DefaultSettings() Settings {
	return Settings{
		AnisotropicFiltering: 8,
		FilterType:           FilterTriangle,
		MinimumMipResolution: 1,
	}
}

// Validate rejects option values outside their recognized sets.
func (s Settings) Validate() error {
	switch s.AnisotropicFiltering {
	case 1, 2, 4, 8, 16:
	default:
		return fmt.Errorf("anisotropic filtering must be 1, 2, 4, 8 or 16, got %d", s.AnisotropicFiltering)
	}
	return nil
}

// Clone returns a copy sharing no mutable state with s.
func (s Settings) Clone() Settings {
	out := s
	if s.Compression != nil {
		speed := *s.Compression
		out.Compression = &speed
	}
	return out
}
