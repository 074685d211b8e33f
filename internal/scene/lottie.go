package scene

import (
	"github.com/vporoshin/scene2video/internal/anim"
	"github.com/vporoshin/scene2video/internal/lottie"
)

// Lottie embeds a vector animation player. The player's frame is derived
// from scene time on every render; only speed is an animatable property.
type Lottie struct {
	Player *lottie.Player
	Speed  *anim.Animated[float64]
}

func NewLottie(player *lottie.Player) *Lottie {
	return &Lottie{
		Player: player,
		Speed:  anim.NewAnimated(player.Speed, anim.LerpFloat),
	}
}

func (l *Lottie) Update(t, duration float64) {
	l.Player.Speed = l.Speed.Current
}

// SetFrameProps ticks the element's animators.
func (l *Lottie) SetFrameProps(frame float64) {
	l.Speed.SetFrame(frame)
}

// Measure reports the composition's native size.
func (l *Lottie) Measure(known Size) Size {
	out := Size{W: l.Player.Comp.Width, H: l.Player.Comp.Height}
	if known.W > 0 {
		out.W = known.W
	}
	if known.H > 0 {
		out.H = known.H
	}
	return out
}

func (l *Lottie) Render(rc *RenderContext, rect Rect) {
	l.Player.Render(rc.GC, rc.Time, rect.X, rect.Y, rect.W, rect.H)
}

func (l *Lottie) AnimateProperty(name string, start, target, startFrame, durFrames float64, easing anim.Easing) bool {
	switch name {
	case "speed":
		l.Speed.AddSegment(start, target, startFrame, durFrames, easing)
		return true
	}
	return false
}
