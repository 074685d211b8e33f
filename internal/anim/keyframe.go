package anim

import "sort"

// Vec2 is a 2D value interpolated componentwise or along a spatial bezier.
type Vec2 [2]float64

// Vec3 is a 3D value interpolated componentwise.
type Vec3 [3]float64

// Color is an RGBA value in unpremultiplied sRGB, channels in [0,1].
type Color [4]float64

// LerpFunc interpolates between two values of T at progress t in [0,1].
type LerpFunc[T any] func(a, b T, t float64) T

// Keyframe anchors a value at a frame. ValueEnd is optional legacy data:
// the segment end is taken from the next keyframe's ValueStart first and
// only falls back to ValueEnd when the next start is absent.
type Keyframe[T any] struct {
	Frame      float64
	ValueStart T
	HasStart   bool
	ValueEnd   T
	HasEnd     bool
	Easing     Easing

	// Spatial tangents for vector-valued properties: offsets relative to
	// the keyframe value. TanOut belongs to the segment start keyframe,
	// TanIn to the segment end keyframe.
	TanIn  []float64
	TanOut []float64
}

// Keyframed is an ordered keyframe sequence over T.
// The zero value is empty and evaluates to the provided default.
type Keyframed[T any] struct {
	Frames []Keyframe[T]
	Lerp   LerpFunc[T]

	// SpatialLerp, when set, is used instead of Lerp for segments that
	// carry spatial tangents.
	SpatialLerp func(a, b T, t float64, tanOut, tanIn []float64) T
}

// Add appends a keyframe keeping the sequence ordered by frame.
func (k *Keyframed[T]) Add(kf Keyframe[T]) {
	k.Frames = append(k.Frames, kf)
	n := len(k.Frames)
	if n > 1 && k.Frames[n-2].Frame > kf.Frame {
		sort.SliceStable(k.Frames, func(i, j int) bool {
			return k.Frames[i].Frame < k.Frames[j].Frame
		})
	}
}

// IsAnimated reports whether more than one keyframe is present.
func (k *Keyframed[T]) IsAnimated() bool { return len(k.Frames) > 1 }

// At evaluates the sequence at the given frame.
//
// Segment end values follow the next keyframe's ValueStart; only when the
// next keyframe has no start value does the current keyframe's ValueEnd
// apply. Swapping that order inverts every animation in the document.
func (k *Keyframed[T]) At(frame float64, def T) T {
	frames := k.Frames
	if len(frames) == 0 {
		return def
	}

	// Binary search for the first keyframe with Frame > frame.
	idx := sort.Search(len(frames), func(i int) bool {
		return frames[i].Frame > frame
	})

	if idx == 0 {
		if frames[0].HasStart {
			return frames[0].ValueStart
		}
		return def
	}
	if idx >= len(frames) {
		last := frames[len(frames)-1]
		if last.HasEnd {
			return last.ValueEnd
		}
		if last.HasStart {
			return last.ValueStart
		}
		return def
	}

	start := frames[idx-1]
	end := frames[idx]

	startVal := def
	if start.HasStart {
		startVal = start.ValueStart
	}

	endVal := startVal
	switch {
	case end.HasStart:
		endVal = end.ValueStart
	case start.HasEnd:
		endVal = start.ValueEnd
	}

	duration := end.Frame - start.Frame
	if duration <= 0 {
		return startVal
	}
	if start.Easing.Kind == EasingHold {
		return startVal
	}

	t := Clamp((frame-start.Frame)/duration, 0, 1)
	t = start.Easing.Apply(t)

	if k.SpatialLerp != nil && (len(start.TanOut) > 0 || len(end.TanIn) > 0) {
		return k.SpatialLerp(startVal, endVal, t, start.TanOut, end.TanIn)
	}
	if k.Lerp == nil {
		if t < 1 {
			return startVal
		}
		return endVal
	}
	return k.Lerp(startVal, endVal, t)
}

// Duration returns the frame of the last keyframe, or zero when empty.
func (k *Keyframed[T]) Duration() float64 {
	if len(k.Frames) == 0 {
		return 0
	}
	return k.Frames[len(k.Frames)-1].Frame
}

// LerpFloat interpolates scalars.
func LerpFloat(a, b, t float64) float64 { return a + (b-a)*t }

// LerpVec2 interpolates componentwise.
func LerpVec2(a, b Vec2, t float64) Vec2 {
	return Vec2{a[0] + (b[0]-a[0])*t, a[1] + (b[1]-a[1])*t}
}

// LerpVec3 interpolates componentwise.
func LerpVec3(a, b Vec3, t float64) Vec3 {
	return Vec3{a[0] + (b[0]-a[0])*t, a[1] + (b[1]-a[1])*t, a[2] + (b[2]-a[2])*t}
}

// LerpColor interpolates channels in unpremultiplied sRGB.
func LerpColor(a, b Color, t float64) Color {
	return Color{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
		a[3] + (b[3]-a[3])*t,
	}
}

// SpatialLerpVec2 interpolates along the cubic bezier defined by the
// segment endpoints and their relative tangents.
func SpatialLerpVec2(a, b Vec2, t float64, tanOut, tanIn []float64) Vec2 {
	var to, ti Vec2
	if len(tanOut) >= 2 {
		to = Vec2{tanOut[0], tanOut[1]}
	}
	if len(tanIn) >= 2 {
		ti = Vec2{tanIn[0], tanIn[1]}
	}

	p0 := a
	p1 := Vec2{a[0] + to[0], a[1] + to[1]}
	p2 := Vec2{b[0] + ti[0], b[1] + ti[1]}
	p3 := b

	omt := 1 - t
	c0 := omt * omt * omt
	c1 := 3 * omt * omt * t
	c2 := 3 * omt * t * t
	c3 := t * t * t

	return Vec2{
		c0*p0[0] + c1*p1[0] + c2*p2[0] + c3*p3[0],
		c0*p0[1] + c1*p1[1] + c2*p2[1] + c3*p3[1],
	}
}

// NewFloat returns a scalar keyframe sequence.
func NewFloat() *Keyframed[float64] { return &Keyframed[float64]{Lerp: LerpFloat} }

// NewVec2 returns a 2D keyframe sequence with spatial tangent support.
func NewVec2() *Keyframed[Vec2] {
	return &Keyframed[Vec2]{Lerp: LerpVec2, SpatialLerp: SpatialLerpVec2}
}

// NewColor returns an RGBA keyframe sequence.
func NewColor() *Keyframed[Color] { return &Keyframed[Color]{Lerp: LerpColor} }
