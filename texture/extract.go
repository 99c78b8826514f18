package texture

import "fmt"

// ExtractMipLevel copies a single mip level out of img as a standalone
// image. Levels are numbered from 1: level 1 is the full-size raster. The
// returned image shares no mutable state with img.
func ExtractMipLevel(img *Image, level uint32) (*Image, error) {
	if img.Format.BlockSize() == 0 {
		return nil, fmt.Errorf("%w: cannot address levels of %s", ErrUnsupportedFormat, img.Format)
	}
	if level == 0 || level > img.MipLevelCount {
		return nil, fmt.Errorf("mip level %d requested, but only %d are available", level, img.MipLevelCount)
	}

	width := img.Width
	height := img.Height
	offset := 0
	for i := uint32(1); i < level; i++ {
		offset += img.Format.LevelSize(width, height)
		width /= 2
		height /= 2
	}
	size := img.Format.LevelSize(width, height)
	if offset+size > len(img.Data) {
		return nil, fmt.Errorf("mip level %d spans bytes [%d,%d) but image holds %d bytes",
			level, offset, offset+size, len(img.Data))
	}

	// Copy the descriptor and only the requested level's bytes; cloning the
	// whole chain just to throw most of it away gets expensive on large
	// pyramids.
	out := *img
	out.Width = width
	out.Height = height
	out.MipLevelCount = 1
	out.Data = append([]byte(nil), img.Data[offset:offset+size]...)
	if img.Sampler != nil {
		s := *img.Sampler
		out.Sampler = &s
	}
	return &out, nil
}
