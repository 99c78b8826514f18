package mipmap

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/texforge/mipgen/internal/texcache"
	"github.com/texforge/mipgen/texture"
)

// GenerateTexture runs the full pipeline on img in place: validate, adapt
// the pixel buffer, resolve the target block format, consult the disk cache,
// generate the pyramid, compress each level, store to the cache, and splice
// the result into img's Data/MipLevelCount/Format.
//
// The returned count is the number of bytes written to the disk cache by
// this call (zero on a cache hit or when caching is off). Cache read
// failures degrade to a miss; a cache write failure is fatal for this call.
func GenerateTexture(img *texture.Image, s Settings, logger zerolog.Logger) (int, error) {
	if err := texture.CheckCompatible(img); err != nil {
		return 0, err
	}
	raster, err := texture.ToNRGBA(img)
	if err != nil {
		return 0, err
	}

	comp := s.compressor()
	target := texture.FormatUnknown
	if s.Compression != nil {
		t, rerr := comp.ResolveFormat(img.Format, img.Width, img.Height)
		if rerr != nil {
			logger.Warn().
				Str("format", img.Format.String()).
				Err(rerr).
				Msg("compression requested but unavailable, generating uncompressed mips")
		} else {
			target = t
		}
	}
	compressing := target != texture.FormatUnknown

	mipCount := MipCount(img.Width, img.Height, s.MinimumMipResolution, s.MaxMipLevels, compressing)

	// The cache is consulted only for compressed output: uncompressed
	// chains are cheap to recompute relative to the disk I/O.
	var cache *texcache.Cache
	var hash uint64
	if compressing && s.CachePath != "" {
		cache = texcache.New(s.CachePath)
		hash = texcache.ImageHash(img)
		if data, ok := cache.Load(hash); ok {
			img.Data = data
			img.MipLevelCount = mipCount
			img.Format = target
			return 0, nil
		}
	}

	levels := GeneratePyramid(raster, mipCount, s.FilterType)

	data := make([]byte, 0, pyramidSize(img, target, levels[0].Rect.Dx(), levels[0].Rect.Dy(), mipCount))
	for i, level := range levels {
		if compressing {
			encoded, cerr := comp.Compress(level, target, speedOrDefault(s.Compression))
			if cerr == nil {
				data = append(data, encoded...)
				continue
			}
			logger.Warn().Int("level", i).Err(cerr).Msg("level compression failed, storing uncompressed bytes")
		}
		if i == 0 {
			// Level 0 is the source raster unchanged.
			data = append(data, img.Data...)
		} else {
			data = append(data, texture.PackNRGBA(level, img.Format)...)
		}
	}

	cached := 0
	if cache != nil {
		if serr := cache.Store(hash, data); serr != nil {
			return 0, fmt.Errorf("store compressed image data: %w", serr)
		}
		cached = len(data)
	}

	img.Data = data
	img.MipLevelCount = mipCount
	if compressing {
		img.Format = target
	}
	return cached, nil
}

func speedOrDefault(speed *CompressionSpeed) CompressionSpeed {
	if speed == nil {
		return UltraFast
	}
	return *speed
}

// pyramidSize estimates the concatenated byte size of the whole chain for
// buffer preallocation.
func pyramidSize(img *texture.Image, target texture.Format, w, h int, count uint32) int {
	f := img.Format
	if target != texture.FormatUnknown {
		f = target
	}
	total := 0
	for i := uint32(0); i < count; i++ {
		total += f.LevelSize(uint32(w), uint32(h))
		w /= 2
		h /= 2
	}
	return total
}
