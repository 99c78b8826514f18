package mipmap

import (
	"image"

	"github.com/disintegration/imaging"
)

// blockFloor is the smallest dimension a level may have when the pipeline
// will block-compress it; BCn blocks need 4-texel alignment headroom.
const blockFloor = 4

// MipCount returns the number of levels a pyramid will have, counting the
// input level. Halving stops once either dimension would drop below the
// floor or maxLevels (0 = unbounded) is reached.
func MipCount(width, height, minResolution, maxLevels uint32, blockCompressed bool) uint32 {
	floor := minResolution
	if blockCompressed && floor < blockFloor {
		floor = blockFloor
	}
	if floor < 1 {
		floor = 1
	}

	count := uint32(1)
	for width/2 >= floor && height/2 >= floor && (maxLevels == 0 || count < maxLevels) {
		width /= 2
		height /= 2
		count++
	}
	return count
}

// GeneratePyramid resamples level0 down to count levels, halving both
// dimensions at every step (integer division). The result is ordered
// largest to smallest and starts with level0 itself, unchanged. Each level
// is resampled from its predecessor, not from level 0.
func GeneratePyramid(level0 *image.NRGBA, count uint32, filter FilterType) []*image.NRGBA {
	levels := make([]*image.NRGBA, 0, count)
	levels = append(levels, level0)

	width := level0.Rect.Dx()
	height := level0.Rect.Dy()
	cur := level0
	kernel := filter.resampleFilter()
	for i := uint32(1); i < count; i++ {
		width /= 2
		height /= 2
		cur = imaging.Resize(cur, width, height, kernel)
		levels = append(levels, cur)
	}
	return levels
}
