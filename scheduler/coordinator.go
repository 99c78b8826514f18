// Package scheduler coordinates concurrent mipmap generation. It
// deduplicates requests per image key, runs the generation pipeline on a
// bounded worker pool off the caller's critical path, and reconciles
// finished results back into the image store exactly once.
package scheduler

import (
	"fmt"
	"runtime"

	"github.com/rs/zerolog"

	"github.com/texforge/mipgen/mipmap"
	"github.com/texforge/mipgen/texture"
)

// ImageID identifies an image in the host asset store.
type ImageID string

// MaterialID identifies a material in the host asset store.
type MaterialID string

// Material exposes the images a material depends on. The coordinator is
// instantiated once per material type that needs generation.
type Material interface {
	Images() []ImageID
}

// taskResult is what a worker hands back for one image.
type taskResult struct {
	image       *texture.Image
	cachedBytes int
	err         error
}

// pendingTask tracks one in-flight generation and every material waiting
// on it. It is removed from the pending set exactly once, on completion.
type pendingTask struct {
	done      chan taskResult
	materials []MaterialID
}

// Coordinator owns the pending-task map for one material type. It runs on
// a single logical thread: Tick never blocks, and workers never touch the
// stores directly.
type Coordinator[M Material] struct {
	images    map[ImageID]*texture.Image
	materials map[MaterialID]M
	exclude   map[MaterialID]struct{}

	settings       mipmap.Settings
	defaultSampler texture.Sampler
	logger         zerolog.Logger

	events  []MaterialID
	pending map[ImageID]*pendingTask
	sem     chan struct{}

	// cachedBytes is the process-lifetime total of bytes written to the
	// disk cache. Mutated only from the reconciliation step.
	cachedBytes uint64

	// onComplete, when set, is invoked once per waiting material after a
	// finished image has been spliced into the store.
	onComplete func(ImageID, MaterialID)
}

// Option configures a Coordinator.
type Option[M Material] func(*Coordinator[M])

// WithWorkers bounds the number of concurrent generation workers.
func WithWorkers[M Material](n int) Option[M] {
	return func(c *Coordinator[M]) {
		if n > 0 {
			c.sem = make(chan struct{}, n)
		}
	}
}

// WithDefaultSampler sets the sampler used when an image has no override.
func WithDefaultSampler[M Material](s texture.Sampler) Option[M] {
	return func(c *Coordinator[M]) { c.defaultSampler = s }
}

// WithCompletionFunc registers the downstream notification hook.
func WithCompletionFunc[M Material](fn func(ImageID, MaterialID)) Option[M] {
	return func(c *Coordinator[M]) { c.onComplete = fn }
}

// New builds a coordinator over host-owned image and material stores. Both
// maps are held by reference; the coordinator mutates stored images in
// place when generation completes but never inserts or deletes entries.
// Settings are validated once here; every worker snapshot inherits them.
func New[M Material](
	images map[ImageID]*texture.Image,
	materials map[MaterialID]M,
	settings mipmap.Settings,
	logger zerolog.Logger,
	opts ...Option[M],
) (*Coordinator[M], error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("coordinator settings: %w", err)
	}
	c := &Coordinator[M]{
		images:    images,
		materials: materials,
		exclude:   make(map[MaterialID]struct{}),
		settings:  settings.Clone(),
		logger:    logger,
		pending:   make(map[ImageID]*pendingTask),
		sem:       make(chan struct{}, runtime.NumCPU()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Exclude marks a material as opted out: its images are never touched by a
// generation pass.
func (c *Coordinator[M]) Exclude(id MaterialID) {
	c.exclude[id] = struct{}{}
}

// NotifyMaterialChanged queues a material-changed event for the next tick.
func (c *Coordinator[M]) NotifyMaterialChanged(id MaterialID) {
	c.events = append(c.events, id)
}

// PendingCount reports how many images have generation in flight.
func (c *Coordinator[M]) PendingCount() int {
	return len(c.pending)
}

// CachedBytes reports the cumulative bytes written to the disk cache.
func (c *Coordinator[M]) CachedBytes() uint64 {
	return c.cachedBytes
}

// Tick drains queued events into workers and reconciles finished results.
// Invoked once per scheduling tick by the host; always non-blocking.
func (c *Coordinator[M]) Tick() {
	c.spawn()
	c.reconcile()
}

func (c *Coordinator[M]) spawn() {
	events := c.events
	c.events = nil

	for _, mid := range events {
		if _, skip := c.exclude[mid]; skip {
			continue
		}
		mat, ok := c.materials[mid]
		if !ok {
			continue
		}
		for _, iid := range mat.Images() {
			if task, inFlight := c.pending[iid]; inFlight {
				// At most one computation per image key: later requests
				// just join the waiting list.
				task.materials = append(task.materials, mid)
				continue
			}
			img, ok := c.images[iid]
			if !ok {
				continue
			}

			// Sampler filtering applies even when no mips get generated.
			c.applySampler(img)

			if img.MipLevelCount != 1 {
				continue
			}
			if err := texture.CheckCompatible(img); err != nil {
				c.logger.Warn().Str("image", string(iid)).Err(err).Msg("skipping mipmap generation")
				continue
			}

			snapshot := img.Clone()
			settings := c.settings.Clone()
			done := make(chan taskResult, 1)
			go func() {
				c.sem <- struct{}{}
				defer func() { <-c.sem }()
				n, err := mipmap.GenerateTexture(snapshot, settings, c.logger)
				done <- taskResult{image: snapshot, cachedBytes: n, err: err}
			}()
			c.pending[iid] = &pendingTask{done: done, materials: []MaterialID{mid}}
		}
	}
}

func (c *Coordinator[M]) reconcile() {
	for iid, task := range c.pending {
		select {
		case res := <-task.done:
			delete(c.pending, iid)
			if res.err != nil {
				c.logger.Warn().Str("image", string(iid)).Err(res.err).Msg("mipmap generation failed")
				continue
			}
			img, ok := c.images[iid]
			if !ok {
				// Image removed while the task was in flight; the stale
				// result is simply discarded.
				continue
			}
			*img = *res.image
			c.addCachedBytes(uint64(res.cachedBytes))
			if c.onComplete != nil {
				for _, mid := range task.materials {
					c.onComplete(iid, mid)
				}
			}
		default:
			// Still running; keep the entry.
		}
	}
}

func (c *Coordinator[M]) applySampler(img *texture.Image) {
	if img.Sampler == nil {
		s := c.defaultSampler
		img.Sampler = &s
	}
	img.Sampler.AnisotropyClamp = c.settings.AnisotropicFiltering
}

// addCachedBytes advances the cumulative counter and warns each time the
// running total crosses a new GiB boundary, to flag runaway caching of
// images that change every frame.
func (c *Coordinator[M]) addCachedBytes(n uint64) {
	prev := c.cachedBytes >> 30
	c.cachedBytes += n
	if cur := c.cachedBytes >> 30; cur > prev {
		c.logger.Warn().Uint64("gib", cur).Msg("cached texture data from this run exceeds threshold")
	}
}
