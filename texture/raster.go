package texture

import (
	"fmt"
	"image"
)

// ToNRGBA expands the level-0 payload of img into an addressable NRGBA
// raster for resampling. Single- and dual-channel layouts widen losslessly:
// R8 replicates the value across RGB (so filters see a neutral gray), RG8
// lands in R and G. PackNRGBA is the exact inverse.
func ToNRGBA(img *Image) (*image.NRGBA, error) {
	w := int(img.Width)
	h := int(img.Height)
	need := img.Format.LevelSize(img.Width, img.Height)
	if len(img.Data) < need {
		return nil, fmt.Errorf("image buffer holds %d bytes, level 0 needs %d", len(img.Data), need)
	}
	src := img.Data[:need]
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))

	switch img.Format {
	case R8Unorm, R8UnormSrgb:
		for i := 0; i < w*h; i++ {
			v := src[i]
			dst.Pix[i*4+0] = v
			dst.Pix[i*4+1] = v
			dst.Pix[i*4+2] = v
			dst.Pix[i*4+3] = 0xff
		}
	case RG8Unorm, RG8UnormSrgb:
		for i := 0; i < w*h; i++ {
			dst.Pix[i*4+0] = src[i*2+0]
			dst.Pix[i*4+1] = src[i*2+1]
			dst.Pix[i*4+2] = 0
			dst.Pix[i*4+3] = 0xff
		}
	case RGBA8Unorm, RGBA8UnormSrgb:
		copy(dst.Pix, src)
	default:
		return nil, fmt.Errorf("%w: no raster adapter for %s", ErrUnsupportedFormat, img.Format)
	}
	return dst, nil
}

// PackNRGBA flattens a raster back into the native byte layout of an
// uncompressed format.
func PackNRGBA(src *image.NRGBA, format Format) []byte {
	w := src.Rect.Dx()
	h := src.Rect.Dy()
	switch format {
	case R8Unorm, R8UnormSrgb:
		out := make([]byte, w*h)
		for i := 0; i < w*h; i++ {
			out[i] = src.Pix[i*4]
		}
		return out
	case RG8Unorm, RG8UnormSrgb:
		out := make([]byte, w*h*2)
		for i := 0; i < w*h; i++ {
			out[i*2+0] = src.Pix[i*4+0]
			out[i*2+1] = src.Pix[i*4+1]
		}
		return out
	case RGBA8Unorm, RGBA8UnormSrgb:
		out := make([]byte, w*h*4)
		copy(out, src.Pix[:w*h*4])
		return out
	}
	return nil
}
