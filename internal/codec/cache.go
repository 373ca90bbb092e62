package codec

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ironsheep/image-features-mcp/internal/compute"
	"github.com/ironsheep/image-features-mcp/internal/pixel"
	"github.com/ironsheep/image-features-mcp/internal/raster"
)

// Cache provides thread-safe caching of decoded rasters to avoid redundant
// disk reads and depth conversions.
//
// Entries are keyed by the exact path string and the requested depth, so the
// same file loaded at two depths occupies two entries. Cached rasters are
// shared between callers and must be treated as read-only; Clone before
// modifying one.
//
// # Memory Management
//
// Cached rasters remain in memory until explicitly removed via Evict() or
// Clear(). Float rasters take four bytes per channel value, so a cached
// 4000x3000 RGB float image holds about 144 MB.
//
// # Example Usage
//
//	cache := codec.NewCache()
//	img, err := cache.Load(q, "/path/to/image.png", pixel.F32)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cache.Evict("/path/to/image.png")
type Cache struct {
	mu     sync.RWMutex
	images map[cacheKey]*raster.Image
}

type cacheKey struct {
	path  string
	depth pixel.Depth
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{images: make(map[cacheKey]*raster.Image)}
}

// Load returns the image at path converted to depth, reading and converting
// it on the first request only.
func (c *Cache) Load(q compute.Backend, path string, depth pixel.Depth) (*raster.Image, error) {
	key := cacheKey{path, depth}
	c.mu.RLock()
	if img, ok := c.images[key]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := Load(path)
	if err != nil {
		return nil, err
	}
	if img.Depth != depth {
		img, err = raster.ConvertDepth(q, img, depth)
		if err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	c.images[key] = img
	c.mu.Unlock()
	return img, nil
}

// Evict removes every cached depth of path.
func (c *Cache) Evict(path string) {
	c.mu.Lock()
	for k := range c.images {
		if k.path == path {
			delete(c.images, k)
		}
	}
	c.mu.Unlock()
}

// Clear removes all cached images.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.images = make(map[cacheKey]*raster.Image)
	c.mu.Unlock()
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Info contains metadata about an image file as it decodes natively.
type Info struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Channels is the decoded channel count: 1 gray, 3 RGB or 4 RGBA.
	Channels int `json:"channels"`

	// Format is the format selected by the file extension.
	Format Format `json:"format"`

	// Depth is the native storage depth: "u8", "u16" or "f32".
	Depth string `json:"depth"`

	// HasAlpha indicates whether the decoded image keeps an alpha channel.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadInfo decodes path at its native depth through the cache and describes
// the result.
func LoadInfo(c *Cache, q compute.Backend, path string) (*Info, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	depth := nativeDepth(format, path)
	img, err := c.Load(q, path, depth)
	if err != nil {
		return nil, err
	}

	return &Info{
		Width:         img.Width,
		Height:        img.Height,
		Channels:      img.Channels,
		Format:        format,
		Depth:         img.Depth.String(),
		HasAlpha:      img.Channels == 2 || img.Channels == 4,
		FileSizeBytes: stat.Size(),
	}, nil
}

// nativeDepth is the depth a file decodes to. Only png can hold 16-bit data,
// which is detected from the header's bit depth byte.
func nativeDepth(format Format, path string) pixel.Depth {
	switch format {
	case HDR:
		return pixel.F32
	case PNG:
		if pngBitDepth(path) == 16 {
			return pixel.U16
		}
	}
	return pixel.U8
}

// pngBitDepth reads the bit depth field of the IHDR chunk, 0 on failure.
func pngBitDepth(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	// 8 byte signature, 4 byte length, "IHDR", width, height, bit depth.
	var hdr [25]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		return 0
	}
	if string(hdr[12:16]) != "IHDR" {
		return 0
	}
	return int(hdr[24])
}
