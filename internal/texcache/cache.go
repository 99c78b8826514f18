// Package texcache persists compressed texture data on disk, keyed by a
// hash of the source image's content. One file per source hash, named by
// the hash's hex form, holding the zstd-compressed concatenation of every
// compressed mip level.
package texcache

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/texforge/mipgen/texture"
)

// Stateless zstd coders reused across calls.
var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

// ImageHash computes the content identity of a source image: xxHash64 over
// its raw bytes followed by its descriptor (dimensions, layers,
// dimensionality, pixel format). Generation settings are deliberately not
// part of the key: identical sources share cache entries across settings.
func ImageHash(img *texture.Image) uint64 {
	h := xxhash.New()
	_, _ = h.Write(img.Data)
	var desc [16]byte
	binary.LittleEndian.PutUint32(desc[0:4], img.Width)
	binary.LittleEndian.PutUint32(desc[4:8], img.Height)
	binary.LittleEndian.PutUint32(desc[8:12], img.Layers)
	desc[12] = byte(img.Dimension)
	desc[13] = byte(img.Format)
	_, _ = h.Write(desc[:])
	return h.Sum64()
}

// Cache is a content-addressed directory of compressed mip chains.
type Cache struct {
	dir string
}

// New returns a cache rooted at dir. The directory is created lazily on
// the first store.
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// Path returns the cache file path for a source hash.
func (c *Cache) Path(hash uint64) string {
	return filepath.Join(c.dir, strconv.FormatUint(hash, 16))
}

// Load reads and decompresses the entry for hash. Any failure (missing
// file, read error, corrupt payload) degrades to a miss.
func (c *Cache) Load(hash uint64) ([]byte, bool) {
	raw, err := os.ReadFile(c.Path(hash))
	if err != nil {
		return nil, false
	}
	data, err := zstdDecoder.DecodeAll(raw, nil)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Store compresses and writes data under hash. Errors surface to the
// caller: a failed write means a misconfigured cache directory.
func (c *Cache) Store(hash uint64, data []byte) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir %s: %w", c.dir, err)
	}
	compressed := zstdEncoder.EncodeAll(data, nil)
	if err := os.WriteFile(c.Path(hash), compressed, 0o644); err != nil {
		return fmt.Errorf("write cache entry %x: %w", hash, err)
	}
	return nil
}
