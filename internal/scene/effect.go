package scene

import (
	"github.com/vporoshin/scene2video/internal/anim"
	"github.com/vporoshin/scene2video/internal/render"
)

// Effect wraps its single child in an offscreen layer with an image
// filter chain. It layout-steals its target: when applied, the target's
// style moves onto the effect node and the target is reparented as the
// effect's only child at 100%×100%.
//
// The filters themselves are applied by the render traversal, which reads
// Filters() after drawing the subtree.
type Effect struct {
	Kind   string
	Radius *anim.Animated[float64]
	Color  *anim.Animated[anim.Color]
	DX, DY *anim.Animated[float64]
}

func NewEffect(kind string) *Effect {
	f := func(v float64) *anim.Animated[float64] { return anim.NewAnimated(v, anim.LerpFloat) }
	return &Effect{
		Kind:   kind,
		Radius: f(8),
		Color:  anim.NewAnimated(anim.Color{0, 0, 0, 0.5}, anim.LerpColor),
		DX:     f(4),
		DY:     f(4),
	}
}

func (e *Effect) Update(t, duration float64) {}

// SetFrameProps ticks the effect parameters.
func (e *Effect) SetFrameProps(frame float64) {
	e.Radius.SetFrame(frame)
	e.Color.SetFrame(frame)
	e.DX.SetFrame(frame)
	e.DY.SetFrame(frame)
}

func (e *Effect) Render(rc *RenderContext, rect Rect) {}

// Filters materialises the current filter chain for the render traversal.
func (e *Effect) Filters() []render.Filter {
	switch e.Kind {
	case "blur":
		return []render.Filter{render.GaussianBlur{Radius: e.Radius.Current}}
	case "drop_shadow":
		c := e.Color.Current
		return []render.Filter{render.DropShadow{
			DX: e.DX.Current, DY: e.DY.Current,
			Radius:  e.Radius.Current,
			Color:   ggColor(c, 1),
			Opacity: 1,
		}}
	case "grayscale":
		// Luminance color matrix.
		return []render.Filter{render.ColorMatrix{M: [20]float64{
			0.2126, 0.7152, 0.0722, 0, 0,
			0.2126, 0.7152, 0.0722, 0, 0,
			0.2126, 0.7152, 0.0722, 0, 0,
			0, 0, 0, 1, 0,
		}}}
	case "invert":
		return []render.Filter{render.ColorMatrix{M: [20]float64{
			-1, 0, 0, 0, 1,
			0, -1, 0, 0, 1,
			0, 0, -1, 0, 1,
			0, 0, 0, 1, 0,
		}}}
	default:
		return nil
	}
}

func (e *Effect) AnimateProperty(name string, start, target, startFrame, durFrames float64, easing anim.Easing) bool {
	switch name {
	case "radius", "blur":
		e.Radius.AddSegment(start, target, startFrame, durFrames, easing)
		return true
	case "dx":
		e.DX.AddSegment(start, target, startFrame, durFrames, easing)
		return true
	case "dy":
		e.DY.AddSegment(start, target, startFrame, durFrames, easing)
		return true
	}
	return false
}
