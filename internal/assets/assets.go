// Package assets provides the byte-loading capability the render core
// consumes. Loaders hand out raw bytes and may be shared; the decoded-image
// cache is confined to the render goroutine and must not be shared.
package assets

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
)

// ErrAssetMissing marks a key that could not be loaded. Render code
// substitutes a placeholder and logs once per key instead of failing the
// frame.
var ErrAssetMissing = errors.New("asset missing")

// Loader loads raw bytes by key. Implementations must be callable from the
// render goroutine.
type Loader interface {
	Load(key string) ([]byte, error)
	Resolve(key string) string
}

// FileLoader resolves keys relative to a root directory.
type FileLoader struct {
	Root string
}

func (l *FileLoader) Resolve(key string) string {
	if filepath.IsAbs(key) {
		return key
	}
	return filepath.Join(l.Root, key)
}

func (l *FileLoader) Load(key string) ([]byte, error) {
	data, err := os.ReadFile(l.Resolve(key))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrAssetMissing, key, err)
	}
	return data, nil
}

// MapLoader serves assets from memory. Used by tests and by embedded
// Lottie assets carrying inline data.
type MapLoader struct {
	Data map[string][]byte
}

func (l *MapLoader) Resolve(key string) string { return key }

func (l *MapLoader) Load(key string) ([]byte, error) {
	if d, ok := l.Data[key]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrAssetMissing, key)
}

// Cache decodes and memoises images on top of a Loader.
//
// The cache is goroutine-confined: the render path owns it exclusively and
// no locking is performed.
type Cache struct {
	Loader Loader
	Log    *slog.Logger

	images map[string]image.Image
	warned map[string]bool
}

func NewCache(loader Loader, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}
	return &Cache{
		Loader: loader,
		Log:    log,
		images: make(map[string]image.Image),
		warned: make(map[string]bool),
	}
}

// Image returns the decoded image for key. A missing or undecodable asset
// yields the magenta placeholder, logged once per key.
func (c *Cache) Image(key string) image.Image {
	if img, ok := c.images[key]; ok {
		return img
	}
	img := c.decode(key)
	c.images[key] = img
	return img
}

// Put registers an already-decoded image under key, bypassing the loader.
func (c *Cache) Put(key string, img image.Image) {
	c.images[key] = img
}

func (c *Cache) decode(key string) image.Image {
	data, err := c.Loader.Load(key)
	if err != nil {
		c.warnOnce(key, err)
		return Placeholder(64, 64)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		c.warnOnce(key, fmt.Errorf("decode %s: %w", key, err))
		return Placeholder(64, 64)
	}
	return img
}

func (c *Cache) warnOnce(key string, err error) {
	if c.warned[key] {
		return
	}
	c.warned[key] = true
	c.Log.Warn("asset unavailable, using placeholder", "key", key, "err", err)
}

// Placeholder is the magenta substitute raster for missing assets.
func Placeholder(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	magenta := color.RGBA{R: 255, G: 0, B: 255, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, magenta)
		}
	}
	return img
}
