package texture

import (
	"bytes"
	"testing"
)

// buildChain concatenates hand-made levels for an 8x8 RG8 image with three
// mips and returns the image plus the per-level payloads.
func buildChain(t *testing.T) (*Image, [][]byte) {
	t.Helper()
	dims := [][2]uint32{{8, 8}, {4, 4}, {2, 2}}
	var all []byte
	var levels [][]byte
	for li, d := range dims {
		level := make([]byte, RG8Unorm.LevelSize(d[0], d[1]))
		for i := range level {
			level[i] = byte(li*100 + i)
		}
		levels = append(levels, level)
		all = append(all, level...)
	}
	img := New2D(8, 8, RG8Unorm, all)
	img.MipLevelCount = 3
	return img, levels
}

func TestExtractMipLevel(t *testing.T) {
	img, levels := buildChain(t)

	for i, want := range levels {
		level, err := ExtractMipLevel(img, uint32(i+1))
		if err != nil {
			t.Fatalf("extract level %d: %v", i+1, err)
		}
		if !bytes.Equal(level.Data, want) {
			t.Errorf("level %d payload mismatch", i+1)
		}
		wantDim := uint32(8 >> i)
		if level.Width != wantDim || level.Height != wantDim {
			t.Errorf("level %d: got %dx%d, want %dx%d", i+1, level.Width, level.Height, wantDim, wantDim)
		}
		if level.MipLevelCount != 1 {
			t.Errorf("level %d reports %d levels, want 1", i+1, level.MipLevelCount)
		}
	}
}

func TestExtractMipLevelSharesNothing(t *testing.T) {
	img, _ := buildChain(t)
	img.Sampler = &Sampler{AnisotropyClamp: 8}
	level, err := ExtractMipLevel(img, 1)
	if err != nil {
		t.Fatal(err)
	}
	level.Data[0] = 0xEE
	if img.Data[0] == 0xEE {
		t.Error("extracted level aliases the source buffer")
	}
	level.Sampler.AnisotropyClamp = 1
	if img.Sampler.AnisotropyClamp != 8 {
		t.Error("extracted level aliases the source sampler")
	}
}

func TestExtractMipLevelOutOfRange(t *testing.T) {
	img, _ := buildChain(t)
	before := append([]byte(nil), img.Data...)

	if _, err := ExtractMipLevel(img, 4); err == nil {
		t.Fatal("expected error for level beyond MipLevelCount")
	}
	if _, err := ExtractMipLevel(img, 0); err == nil {
		t.Fatal("expected error for level 0")
	}
	if !bytes.Equal(img.Data, before) || img.MipLevelCount != 3 {
		t.Error("failed extraction mutated the source image")
	}
}

func TestExtractMipLevelCompressed(t *testing.T) {
	// 8x8 BC7 with two levels: 4 blocks + 1 block.
	data := make([]byte, 4*16+16)
	for i := range data {
		data[i] = byte(i)
	}
	img := New2D(8, 8, BC7RGBAUnorm, data)
	img.MipLevelCount = 2

	level, err := ExtractMipLevel(img, 2)
	if err != nil {
		t.Fatal(err)
	}
	if level.Width != 4 || level.Height != 4 {
		t.Errorf("got %dx%d, want 4x4", level.Width, level.Height)
	}
	if !bytes.Equal(level.Data, data[64:]) {
		t.Error("compressed level offset wrong")
	}
}
