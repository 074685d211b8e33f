package scene

import (
	"log/slog"

	"github.com/gogpu/gg"

	"github.com/vporoshin/scene2video/internal/anim"
	"github.com/vporoshin/scene2video/internal/assets"
)

// RenderContext is handed to elements during the render pass.
type RenderContext struct {
	GC     *gg.Context
	Assets *assets.Cache
	Log    *slog.Logger

	// Time is the scene-local time of the frame being rendered, FPS the
	// director frame rate. Preview relaxes frame-accuracy requirements for
	// video elements.
	Time    float64
	FPS     float64
	Preview bool

	// Opacity is the accumulated opacity of the ancestor chain.
	Opacity float64

	// NodeStyle points at the style of the node currently being rendered;
	// the traversal sets it before each element render.
	NodeStyle *Style

	// Err records the first fatal render error (export mode only); the
	// frame loop checks it after the traversal and fails the frame.
	Err error
}

// Fail records a fatal error for the current frame. Later errors are
// logged by the caller but only the first is kept.
func (rc *RenderContext) Fail(err error) {
	if rc.Err == nil {
		rc.Err = err
	}
}

// Element is a drawable node payload. Update runs in the update pass with
// the scene-local time; Render draws into the node's layout rectangle.
type Element interface {
	Update(t, duration float64)
	Render(rc *RenderContext, rect Rect)
}

// Measurer is implemented by elements with intrinsic size. Measure must be
// side-effect-free with respect to layout; it may fill private scratch
// (e.g. cache shaped text).
type Measurer interface {
	Measure(known Size) Size
}

// PostLayouter runs after layout with the node's final rectangle. It must
// not change the computed box, only adapt content within it.
type PostLayouter interface {
	PostLayout(rect Rect)
}

// FrameTicker is implemented by elements with their own animators; the
// update pass ticks them to the scene-local frame.
type FrameTicker interface {
	SetFrameProps(frame float64)
}

// PropertyAnimator lets elements expose extra animatable properties to the
// scripting surface beyond the node transform.
type PropertyAnimator interface {
	// AnimateProperty returns false when the element does not own the
	// property name.
	AnimateProperty(name string, start, target, startFrame, durFrames float64, easing anim.Easing) bool
}

func ggColor(c anim.Color, opacity float64) gg.RGBA {
	return gg.RGBA{R: c[0], G: c[1], B: c[2], A: c[3] * opacity}
}
