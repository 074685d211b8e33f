package scene

import (
	"github.com/gogpu/gg"

	"github.com/vporoshin/scene2video/internal/anim"
)

// Box draws its node's background, border and shadow. Colors and radius
// come from the node style; the box can also carry its own animated fill.
type Box struct {
	Fill    *anim.Animated[anim.Color]
	hasFill bool
}

// NewBox returns a box without an explicit fill; the style background is
// used instead.
func NewBox() *Box {
	return &Box{Fill: anim.NewAnimated(anim.Color{}, anim.LerpColor)}
}

// SetFill gives the box its own animated fill color, overriding the style
// background.
func (b *Box) SetFill(c anim.Color) {
	b.Fill.Set(c)
	b.hasFill = true
}

func (b *Box) Update(t, duration float64) {}

// SetFrameProps ticks the box's animators. Called from the update pass.
func (b *Box) SetFrameProps(frame float64) {
	b.Fill.SetFrame(frame)
}

func (b *Box) Render(rc *RenderContext, rect Rect) {
	gc := rc.GC
	style := rc.NodeStyle
	if style == nil {
		return
	}
	radius := style.BorderRadius

	// Shadow first, under the fill.
	if style.ShadowColor[3] > 0 {
		gc.SetColor(ggColor(style.ShadowColor, rc.Opacity).Color())
		drawRoundedRect(gc, rect.X+style.ShadowDX, rect.Y+style.ShadowDY, rect.W, rect.H, radius)
		_ = gc.Fill()
	}

	fill := style.Background
	hasFill := style.HasBackground
	if b.hasFill {
		fill = b.Fill.Current
		hasFill = true
	}
	if hasFill && fill[3] > 0 {
		gc.SetColor(ggColor(fill, rc.Opacity).Color())
		drawRoundedRect(gc, rect.X, rect.Y, rect.W, rect.H, radius)
		_ = gc.Fill()
	}

	if style.BorderWidth > 0 && style.BorderColor[3] > 0 {
		gc.SetColor(ggColor(style.BorderColor, rc.Opacity).Color())
		gc.SetLineWidth(style.BorderWidth)
		drawRoundedRect(gc, rect.X, rect.Y, rect.W, rect.H, radius)
		_ = gc.Stroke()
	}
}

func drawRoundedRect(gc *gg.Context, x, y, w, h, r float64) {
	if r > 0 {
		gc.DrawRoundedRectangle(x, y, w, h, r)
	} else {
		gc.DrawRectangle(x, y, w, h)
	}
}

// AnimateProperty exposes the box fill alpha to the scripting surface.
func (b *Box) AnimateProperty(name string, start, target, startFrame, durFrames float64, easing anim.Easing) bool {
	switch name {
	case "fill_alpha":
		from := b.Fill.Default
		from[3] = start
		to := b.Fill.Default
		to[3] = target
		b.Fill.AddSegment(from, to, startFrame, durFrames, easing)
		b.hasFill = true
		return true
	}
	return false
}
