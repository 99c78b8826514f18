package scheduler

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/texforge/mipgen/mipmap"
	"github.com/texforge/mipgen/texture"
)

type testMaterial struct {
	images []ImageID
}

func (m testMaterial) Images() []ImageID { return m.images }

func testImage(w, h uint32) *texture.Image {
	data := make([]byte, w*h*4)
	for i := range data {
		data[i] = byte(i * 3)
	}
	return texture.New2D(w, h, texture.RGBA8UnormSrgb, data)
}

func newCoordinator(
	t *testing.T,
	images map[ImageID]*texture.Image,
	materials map[MaterialID]testMaterial,
	s mipmap.Settings,
	opts ...Option[testMaterial],
) *Coordinator[testMaterial] {
	t.Helper()
	c, err := New(images, materials, s, zerolog.Nop(), opts...)
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}
	return c
}

// settle ticks until no generation is in flight.
func settle(t *testing.T, c *Coordinator[testMaterial]) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for c.PendingCount() > 0 {
		if time.Now().After(deadline) {
			t.Fatal("coordinator did not settle in time")
		}
		time.Sleep(time.Millisecond)
		c.Tick()
	}
}

func TestNewRejectsInvalidSettings(t *testing.T) {
	s := mipmap.DefaultSettings()
	s.AnisotropicFiltering = 3
	if _, err := New[testMaterial](nil, nil, s, zerolog.Nop()); err == nil {
		t.Fatal("coordinator accepted an invalid anisotropy level")
	}
}

func TestConcurrentRequestsShareOneComputation(t *testing.T) {
	images := map[ImageID]*texture.Image{"tex": testImage(64, 64)}
	materials := map[MaterialID]testMaterial{
		"matA": {images: []ImageID{"tex"}},
		"matB": {images: []ImageID{"tex"}},
	}

	notified := map[MaterialID]int{}
	c := newCoordinator(t, images, materials, mipmap.DefaultSettings(),
		WithCompletionFunc[testMaterial](func(_ ImageID, mid MaterialID) {
			notified[mid]++
		}))

	// Both requests land before the task can finish: the second must join
	// the first task's waiting list instead of spawning its own.
	c.NotifyMaterialChanged("matA")
	c.NotifyMaterialChanged("matB")
	c.Tick()
	if got := c.PendingCount(); got != 1 {
		t.Fatalf("pending tasks: got %d, want 1", got)
	}

	settle(t, c)

	if images["tex"].MipLevelCount != 7 {
		t.Errorf("mip level count: got %d, want 7", images["tex"].MipLevelCount)
	}
	if notified["matA"] != 1 || notified["matB"] != 1 {
		t.Errorf("completion fan-out: got %v, want one notification each", notified)
	}
}

func TestRepeatRequestAfterCompletionIsNoop(t *testing.T) {
	images := map[ImageID]*texture.Image{"tex": testImage(16, 16)}
	materials := map[MaterialID]testMaterial{"mat": {images: []ImageID{"tex"}}}
	c := newCoordinator(t, images, materials, mipmap.DefaultSettings())

	c.NotifyMaterialChanged("mat")
	c.Tick()
	settle(t, c)
	generated := append([]byte(nil), images["tex"].Data...)

	// The image now has a full chain; a second pass must leave it alone.
	c.NotifyMaterialChanged("mat")
	c.Tick()
	if c.PendingCount() != 0 {
		t.Error("regeneration spawned for an already-mipmapped image")
	}
	if string(images["tex"].Data) != string(generated) {
		t.Error("second pass mutated the image")
	}
}

func TestExcludedMaterialNeverGenerates(t *testing.T) {
	images := map[ImageID]*texture.Image{"tex": testImage(32, 32)}
	materials := map[MaterialID]testMaterial{"mat": {images: []ImageID{"tex"}}}
	c := newCoordinator(t, images, materials, mipmap.DefaultSettings())
	c.Exclude("mat")

	c.NotifyMaterialChanged("mat")
	c.Tick()
	settle(t, c)

	if images["tex"].MipLevelCount != 1 {
		t.Errorf("excluded material's image gained %d levels", images["tex"].MipLevelCount)
	}
	if images["tex"].Sampler != nil {
		t.Error("excluded material's sampler was touched")
	}
}

func TestStaleResultDiscarded(t *testing.T) {
	images := map[ImageID]*texture.Image{"tex": testImage(64, 64)}
	materials := map[MaterialID]testMaterial{"mat": {images: []ImageID{"tex"}}}
	c := newCoordinator(t, images, materials, mipmap.DefaultSettings())

	c.NotifyMaterialChanged("mat")
	c.Tick()
	if c.PendingCount() != 1 {
		t.Fatal("no task spawned")
	}

	// The image disappears while the task is in flight; reconciliation must
	// drop the result without panicking.
	delete(images, "tex")
	settle(t, c)
}

func TestPerImageFailureIsolation(t *testing.T) {
	bad := testImage(32, 32)
	bad.Layers = 6 // incompatible
	images := map[ImageID]*texture.Image{
		"bad":  bad,
		"good": testImage(32, 32),
	}
	materials := map[MaterialID]testMaterial{
		"mat": {images: []ImageID{"bad", "good"}},
	}
	c := newCoordinator(t, images, materials, mipmap.DefaultSettings())

	c.NotifyMaterialChanged("mat")
	c.Tick()
	settle(t, c)

	if images["bad"].MipLevelCount != 1 {
		t.Error("incompatible image was mutated")
	}
	if images["good"].MipLevelCount != 6 {
		t.Errorf("sibling image: got %d levels, want 6", images["good"].MipLevelCount)
	}
}

func TestSamplerClampApplied(t *testing.T) {
	images := map[ImageID]*texture.Image{"tex": testImage(8, 8)}
	materials := map[MaterialID]testMaterial{"mat": {images: []ImageID{"tex"}}}
	s := mipmap.DefaultSettings()
	s.AnisotropicFiltering = 16
	c := newCoordinator(t, images, materials, s,
		WithDefaultSampler[testMaterial](texture.Sampler{MinLinear: true}))

	c.NotifyMaterialChanged("mat")
	c.Tick()
	settle(t, c)

	got := images["tex"].Sampler
	if got == nil {
		t.Fatal("no sampler attached")
	}
	if got.AnisotropyClamp != 16 {
		t.Errorf("anisotropy clamp: got %d, want 16", got.AnisotropyClamp)
	}
	if !got.MinLinear {
		t.Error("default sampler fields were not carried over")
	}
}

func TestCachedBytesAccumulate(t *testing.T) {
	dir := t.TempDir()
	s := mipmap.DefaultSettings()
	speed := mipmap.UltraFast
	s.Compression = &speed
	s.CachePath = dir

	images := map[ImageID]*texture.Image{"tex": testImage(16, 16)}
	materials := map[MaterialID]testMaterial{"mat": {images: []ImageID{"tex"}}}
	c := newCoordinator(t, images, materials, s)

	c.NotifyMaterialChanged("mat")
	c.Tick()
	settle(t, c)

	if c.CachedBytes() == 0 {
		t.Error("cached byte counter did not advance after a cache store")
	}
	if uint64(len(images["tex"].Data)) != c.CachedBytes() {
		t.Errorf("counter %d != stored payload %d", c.CachedBytes(), len(images["tex"].Data))
	}
}

func TestCachedBytesWarnsOnGiBBoundary(t *testing.T) {
	var buf bytes.Buffer
	c, err := New[testMaterial](nil, nil, mipmap.DefaultSettings(), zerolog.New(&buf))
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}

	const gib = uint64(1) << 30
	warnings := func() int { return strings.Count(buf.String(), "exceeds threshold") }

	c.addCachedBytes(gib - 1)
	if got := warnings(); got != 0 {
		t.Fatalf("below the first boundary: got %d warnings, want 0", got)
	}
	c.addCachedBytes(1)
	if got := warnings(); got != 1 {
		t.Fatalf("crossing 1 GiB: got %d warnings, want 1", got)
	}
	c.addCachedBytes(gib - 1)
	if got := warnings(); got != 1 {
		t.Fatalf("within the 1 GiB bucket: got %d warnings, want 1", got)
	}
	c.addCachedBytes(1)
	if got := warnings(); got != 2 {
		t.Fatalf("crossing 2 GiB: got %d warnings, want 2", got)
	}
	// A single store may skip several boundaries; that still warns once.
	c.addCachedBytes(3 * gib)
	if got := warnings(); got != 3 {
		t.Fatalf("crossing several boundaries at once: got %d warnings, want 3", got)
	}
}
