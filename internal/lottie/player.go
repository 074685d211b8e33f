package lottie

import (
	"log/slog"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"

	"github.com/vporoshin/scene2video/internal/anim"
	"github.com/vporoshin/scene2video/internal/assets"
)

// Player drives a composition from wall time. Its current frame is a pure
// function of composition time, speed and the in-point — it is recomputed
// on every render and deliberately not an animatable property: wrapping it
// in a single-keyframe track would freeze the animation.
type Player struct {
	Comp  *Composition
	Speed float64
	Loop  bool

	renderer *Renderer
	log      *slog.Logger
}

// NewPlayer parses the document and prepares a renderer.
func NewPlayer(data []byte, cache *assets.Cache, font *text.FontSource, log *slog.Logger) (*Player, error) {
	comp, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	warnExpressions(comp, log)
	return &Player{
		Comp:  comp,
		Speed: 1,
		Loop:  true,
		log:   log,
		renderer: &Renderer{
			Assets: cache,
			Font:   font,
			Log:    log,
		},
	}, nil
}

// warnExpressions logs once per document when layers carry time-remap
// expressions. Expressions are not evaluated and properties fall back to
// their keyframes; expressions on other properties are not counted and do
// not trigger the warning.
func warnExpressions(comp *Composition, log *slog.Logger) {
	count := 0
	for _, l := range comp.Layers {
		if l.TimeRemap != nil && l.TimeRemap.Expr != "" {
			count++
		}
	}
	if count > 0 {
		log.Warn("document uses expressions; falling back to keyframes", "properties", count)
	}
}

// FrameAt maps a scene-local time in seconds to the composition frame:
// raw = t·fr·speed + ip, looped over [ip, op) with Euclidean wrapping or
// clamped when looping is off.
func (p *Player) FrameAt(t float64) float64 {
	raw := t*p.Comp.FrameRate*p.Speed + p.Comp.InPoint
	ip, op := p.Comp.InPoint, p.Comp.OutPoint
	if op <= ip {
		return ip
	}
	if p.Loop {
		return anim.EuclidMod(raw-ip, op-ip) + ip
	}
	return anim.Clamp(raw, ip, op)
}

// Duration returns the length of one loop in seconds at the current speed.
func (p *Player) Duration() float64 {
	if p.Comp.FrameRate <= 0 || p.Speed == 0 {
		return 0
	}
	return (p.Comp.OutPoint - p.Comp.InPoint) / (p.Comp.FrameRate * p.Speed)
}

// Background returns the parsed `bg` color; the zero alpha default means
// the target is left transparent.
func (p *Player) Background() anim.Color {
	if p.Comp.BG == "" {
		return anim.Color{}
	}
	return parseHexColor(p.Comp.BG)
}

// Render draws the composition at scene time t into the rectangle
// (x, y, w, h) of the context, scaling the composition viewport to fit.
func (p *Player) Render(gc *gg.Context, t, x, y, w, h float64) {
	frame := p.FrameAt(t)
	tree := BuildTree(p.Comp, frame, p.log)

	gc.Push()
	gc.Translate(x, y)
	if p.Comp.Width > 0 && p.Comp.Height > 0 && w > 0 && h > 0 {
		gc.Scale(w/p.Comp.Width, h/p.Comp.Height)
	}
	if bg := p.Background(); bg[3] > 0 {
		gc.SetColor(gg.RGBA{R: bg[0], G: bg[1], B: bg[2], A: bg[3]}.Color())
		gc.DrawRectangle(0, 0, p.Comp.Width, p.Comp.Height)
		_ = gc.Fill()
	}
	p.renderer.Draw(gc, tree)
	gc.Pop()
}
