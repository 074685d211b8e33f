package scene

import (
	"image"

	"github.com/gogpu/gg"
	xdraw "golang.org/x/image/draw"
)

// ObjectFit controls how an image fills its layout box.
type ObjectFit int

const (
	FitCover ObjectFit = iota
	FitContain
	FitFill
)

// ParseObjectFit maps the scripting-level name; unknown names are cover.
func ParseObjectFit(s string) ObjectFit {
	switch s {
	case "contain":
		return FitContain
	case "fill":
		return FitFill
	default:
		return FitCover
	}
}

// Image draws a raster asset with object-fit placement.
type Image struct {
	Key string
	Fit ObjectFit

	// scaled caches the last fitted raster keyed by target size.
	scaledW, scaledH int
	scaled           *gg.ImageBuf
}

func NewImage(key string, fit ObjectFit) *Image {
	return &Image{Key: key, Fit: fit}
}

func (im *Image) Update(t, duration float64) {}

// Measure returns the known size unchanged: the image reports no
// intrinsic size to layout.
func (im *Image) Measure(known Size) Size {
	// Without access to the cache here the image reports no intrinsic
	// size; the style aspect-ratio property covers the common case.
	return known
}

func (im *Image) Render(rc *RenderContext, rect Rect) {
	src := rc.Assets.Image(im.Key)
	im.draw(rc, src, rect)
}

func (im *Image) draw(rc *RenderContext, src image.Image, rect Rect) {
	if rect.W <= 0 || rect.H <= 0 {
		return
	}
	sb := src.Bounds()
	sw, sh := float64(sb.Dx()), float64(sb.Dy())
	if sw == 0 || sh == 0 {
		return
	}

	var dw, dh float64
	switch im.Fit {
	case FitFill:
		dw, dh = rect.W, rect.H
	case FitContain:
		s := min2(rect.W/sw, rect.H/sh)
		dw, dh = sw*s, sh*s
	default: // cover
		s := max2(rect.W/sw, rect.H/sh)
		dw, dh = sw*s, sh*s
	}

	tw, th := int(dw+0.5), int(dh+0.5)
	if tw <= 0 || th <= 0 {
		return
	}
	if im.scaled == nil || im.scaledW != tw || im.scaledH != th {
		dst := image.NewRGBA(image.Rect(0, 0, tw, th))
		xdraw.BiLinear.Scale(dst, dst.Bounds(), src, sb, xdraw.Over, nil)
		im.scaled = gg.ImageBufFromImage(dst)
		im.scaledW, im.scaledH = tw, th
	}

	gc := rc.GC
	x := rect.X + (rect.W-dw)/2
	y := rect.Y + (rect.H-dh)/2

	if im.Fit == FitCover {
		gc.Push()
		gc.ClipRect(rect.X, rect.Y, rect.W, rect.H)
		defer func() {
			gc.ResetClip()
			gc.Pop()
		}()
	}
	gc.DrawImageEx(im.scaled, gg.DrawImageOptions{
		X: x, Y: y,
		DstWidth:  dw,
		DstHeight: dh,
		Opacity:   rc.Opacity,
		BlendMode: gg.BlendNormal,
	})
}

func min2(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max2(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
