package engine

import (
	"bytes"
	"image"
	"testing"

	"github.com/vporoshin/scene2video/internal/assets"
	"github.com/vporoshin/scene2video/internal/config"
	"github.com/vporoshin/scene2video/internal/director"
	"github.com/vporoshin/scene2video/internal/scene"
)

func testExporter(t *testing.T) *Exporter {
	t.Helper()
	cache := assets.NewCache(&assets.MapLoader{}, nil)
	d := director.New(160, 90, 30, cache, nil)
	s := d.AddScene(2)
	s.AddBox(scene.None, map[string]string{
		"width": "50%", "height": "50%", "background": "#aa3366",
	})
	root, _ := d.Arena.Get(s.Root)
	root.Style.ApplyMap(map[string]string{"justify": "center", "align": "center", "background": "#1a1a2e"})
	return NewExporter(d, nil, &config.Config{}, nil)
}

// Rendering the same frame twice must be byte-for-byte identical.
func TestRenderFrameDeterministic(t *testing.T) {
	e := testExporter(t)
	a, err := e.RenderFrame(0.5)
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.RenderFrame(0.5)
	if err != nil {
		t.Fatal(err)
	}
	ra := a.(*image.RGBA)
	rb := b.(*image.RGBA)
	if !bytes.Equal(ra.Pix, rb.Pix) {
		t.Error("identical inputs must produce identical rasters")
	}
}

func TestRenderFrameSize(t *testing.T) {
	e := testExporter(t)
	img, err := e.RenderFrame(0)
	if err != nil {
		t.Fatal(err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 160 || bounds.Dy() != 90 {
		t.Errorf("frame size = %dx%d", bounds.Dx(), bounds.Dy())
	}
}

// The scene root carries the background color: a pixel near the top-left
// corner (5,5) must match it.
func TestBackgroundPixel(t *testing.T) {
	e := testExporter(t)
	img, err := e.RenderFrame(0)
	if err != nil {
		t.Fatal(err)
	}
	// Sample inside the root but away from anti-aliased edges and the
	// centered child box.
	r, g, b, _ := img.At(5, 5).RGBA()
	if abs(int(r>>8)-26) > 2 || abs(int(g>>8)-26) > 2 || abs(int(b>>8)-46) > 2 {
		t.Errorf("background pixel = (%d,%d,%d), want ≈(26,26,46)", r>>8, g>>8, b>>8)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func TestEmptyTimelineFails(t *testing.T) {
	cache := assets.NewCache(&assets.MapLoader{}, nil)
	d := director.New(160, 90, 30, cache, nil)
	e := NewExporter(d, nil, &config.Config{}, nil)
	if err := e.Run(t.Context()); err == nil {
		t.Error("empty timeline must fail")
	}
}
