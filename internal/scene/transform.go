package scene

import (
	"math"

	"github.com/gogpu/gg"

	"github.com/vporoshin/scene2video/internal/anim"
)

// Transform is the animatable per-node transform. Rotation is
// clockwise-positive in degrees; in the Y-down canvas space of the
// rasteriser a positive angle already turns clockwise, so angles are
// passed through unnegated.
type Transform struct {
	X, Y     *anim.Animated[float64]
	RotateX  *anim.Animated[float64]
	RotateY  *anim.Animated[float64]
	RotateZ  *anim.Animated[float64]
	ScaleX   *anim.Animated[float64]
	ScaleY   *anim.Animated[float64]
	Skew     *anim.Animated[float64]
	SkewAxis *anim.Animated[float64]
	Opacity  *anim.Animated[float64]

	// Pivot is the fixed point of rotate/scale/skew, as a fraction of the
	// node's layout box.
	PivotX, PivotY float64
}

// NewTransform returns the identity transform with the default center pivot.
func NewTransform() *Transform {
	f := func(v float64) *anim.Animated[float64] {
		return anim.NewAnimated(v, anim.LerpFloat)
	}
	return &Transform{
		X: f(0), Y: f(0),
		RotateX: f(0), RotateY: f(0), RotateZ: f(0),
		ScaleX: f(1), ScaleY: f(1),
		Skew: f(0), SkewAxis: f(0),
		Opacity: f(1),
		PivotX:  0.5, PivotY: 0.5,
	}
}

// SetFrame ticks every animator to the given frame.
func (t *Transform) SetFrame(frame float64) {
	t.X.SetFrame(frame)
	t.Y.SetFrame(frame)
	t.RotateX.SetFrame(frame)
	t.RotateY.SetFrame(frame)
	t.RotateZ.SetFrame(frame)
	t.ScaleX.SetFrame(frame)
	t.ScaleY.SetFrame(frame)
	t.Skew.SetFrame(frame)
	t.SkewAxis.SetFrame(frame)
	t.Opacity.SetFrame(frame)
}

// Matrix builds the local transform for a node whose layout box is w×h:
// translate, then rotate/skew/scale about the pivot point.
// X/Y rotations are flattened to their cosine foreshortening.
func (t *Transform) Matrix(w, h float64) gg.Matrix {
	px := t.PivotX * w
	py := t.PivotY * h

	rz := t.RotateZ.Current * math.Pi / 180
	sx := t.ScaleX.Current * math.Cos(t.RotateY.Current*math.Pi/180)
	sy := t.ScaleY.Current * math.Cos(t.RotateX.Current*math.Pi/180)

	m := gg.Translate(t.X.Current, t.Y.Current)
	m = m.Multiply(gg.Translate(px, py))
	if rz != 0 {
		m = m.Multiply(gg.Rotate(rz))
	}
	if sk := t.Skew.Current; sk != 0 {
		m = m.Multiply(skewMatrix(sk, t.SkewAxis.Current))
	}
	if sx != 1 || sy != 1 {
		m = m.Multiply(gg.Scale(sx, sy))
	}
	m = m.Multiply(gg.Translate(-px, -py))
	return m
}

// skewMatrix shears by -amount degrees along an axis rotated by axis
// degrees, the After-Effects skew convention.
func skewMatrix(amount, axis float64) gg.Matrix {
	a := axis * math.Pi / 180
	m := gg.Rotate(-a)
	m = m.Multiply(gg.Shear(math.Tan(-amount*math.Pi/180), 0))
	m = m.Multiply(gg.Rotate(a))
	return m
}

// AnimateProperty routes a scripting-level property name to its animator,
// adding a segment over [startFrame, startFrame+durFrames]. It returns
// false for names the transform does not own.
func (t *Transform) AnimateProperty(name string, start, target, startFrame, durFrames float64, easing anim.Easing) bool {
	switch name {
	case "x":
		t.X.AddSegment(start, target, startFrame, durFrames, easing)
	case "y":
		t.Y.AddSegment(start, target, startFrame, durFrames, easing)
	case "rotation", "rotation_z":
		t.RotateZ.AddSegment(start, target, startFrame, durFrames, easing)
	case "rotation_x":
		t.RotateX.AddSegment(start, target, startFrame, durFrames, easing)
	case "rotation_y":
		t.RotateY.AddSegment(start, target, startFrame, durFrames, easing)
	case "scale":
		t.ScaleX.AddSegment(start, target, startFrame, durFrames, easing)
		t.ScaleY.AddSegment(start, target, startFrame, durFrames, easing)
	case "scale_x":
		t.ScaleX.AddSegment(start, target, startFrame, durFrames, easing)
	case "scale_y":
		t.ScaleY.AddSegment(start, target, startFrame, durFrames, easing)
	case "skew":
		t.Skew.AddSegment(start, target, startFrame, durFrames, easing)
	case "opacity":
		t.Opacity.AddSegment(start, target, startFrame, durFrames, easing)
	default:
		return false
	}
	return true
}

// SpringProperty is AnimateProperty's spring counterpart.
func (t *Transform) SpringProperty(name string, start, target, startFrame, fps float64, cfg anim.SpringConfig) bool {
	blend := func(s, e, v float64) float64 { return s + (e-s)*v }
	spring := func(a *anim.Animated[float64]) {
		a.AddSpring(start, target, startFrame, fps, cfg, blend)
	}
	switch name {
	case "x":
		spring(t.X)
	case "y":
		spring(t.Y)
	case "rotation", "rotation_z":
		spring(t.RotateZ)
	case "scale":
		spring(t.ScaleX)
		spring(t.ScaleY)
	case "scale_x":
		spring(t.ScaleX)
	case "scale_y":
		spring(t.ScaleY)
	case "opacity":
		spring(t.Opacity)
	default:
		return false
	}
	return true
}
