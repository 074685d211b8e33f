package director

import (
	"github.com/gogpu/gg"

	"github.com/vporoshin/scene2video/internal/scene"
)

// Composition nests a child director inside a node. Per frame it renders
// the child at time τ − start into the child's own viewport and maps the
// result into the node rectangle (scaled by parent_size/child_size).
// Audio recursion is wired at AddComposition time through the mixer.
type Composition struct {
	Child *Director
	Start float64
}

func NewComposition(child *Director, start float64) *Composition {
	return &Composition{Child: child, Start: start}
}

func (c *Composition) Update(t, duration float64) {}

// Measure reports the child viewport size.
func (c *Composition) Measure(known scene.Size) scene.Size {
	out := scene.Size{W: float64(c.Child.Width), H: float64(c.Child.Height)}
	if known.W > 0 {
		out.W = known.W
	}
	if known.H > 0 {
		out.H = known.H
	}
	return out
}

func (c *Composition) Render(rc *scene.RenderContext, rect scene.Rect) {
	tau := rc.Time - c.Start
	if tau < 0 || tau > c.Child.TotalDuration() {
		return
	}
	sub := gg.NewContext(c.Child.Width, c.Child.Height)
	if err := c.Child.RenderFrame(sub, tau, rc.Preview); err != nil {
		rc.Fail(err)
		return
	}
	buf := gg.ImageBufFromImage(sub.Image())
	rc.GC.DrawImageEx(buf, gg.DrawImageOptions{
		X: rect.X, Y: rect.Y,
		DstWidth:  rect.W,
		DstHeight: rect.H,
		Opacity:   rc.Opacity,
		BlendMode: gg.BlendNormal,
	})
}
