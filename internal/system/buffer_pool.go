package system

import (
	"sync"

	"github.com/gogpu/gg"
)

// PixmapPool recycles full-frame raster buffers so the per-frame encode
// path does not hammer the garbage collector. Buffers are keyed by their
// dimensions; a recycled pixmap may carry stale pixels, so callers must
// overwrite the whole frame.
type PixmapPool struct {
	mu    sync.Mutex
	pools map[pixmapKey]*sync.Pool
}

type pixmapKey struct {
	w, h int
}

var framePool = &PixmapPool{
	pools: make(map[pixmapKey]*sync.Pool),
}

// GetPixmap returns a pixmap of the given size from the process-wide
// frame pool, allocating one when none of that size is cached.
func GetPixmap(w, h int) *gg.Pixmap {
	return framePool.Get(w, h)
}

// PutPixmap returns a pixmap to the frame pool for reuse.
func PutPixmap(pm *gg.Pixmap) {
	framePool.Put(pm)
}

func (p *PixmapPool) Get(w, h int) *gg.Pixmap {
	if w <= 0 || h <= 0 {
		return gg.NewPixmap(1, 1)
	}
	key := pixmapKey{w: w, h: h}

	p.mu.Lock()
	pool, ok := p.pools[key]
	if !ok {
		pool = &sync.Pool{
			New: func() interface{} {
				return gg.NewPixmap(key.w, key.h)
			},
		}
		p.pools[key] = pool
	}
	p.mu.Unlock()

	return pool.Get().(*gg.Pixmap)
}

func (p *PixmapPool) Put(pm *gg.Pixmap) {
	if pm == nil {
		return
	}
	key := pixmapKey{w: pm.Width(), h: pm.Height()}

	p.mu.Lock()
	pool, ok := p.pools[key]
	p.mu.Unlock()

	if ok {
		pool.Put(pm)
	}
}
