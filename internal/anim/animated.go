package anim

// Animated couples a keyframe sequence with per-frame scratch: the update
// pass sets the frame once per tick and render code reads Current.
type Animated[T any] struct {
	Keyframed[T]
	Default T
	Current T
}

// NewAnimated returns an animated value holding the given constant until
// segments are added.
func NewAnimated[T any](initial T, lerp LerpFunc[T]) *Animated[T] {
	return &Animated[T]{
		Keyframed: Keyframed[T]{Lerp: lerp},
		Default:   initial,
		Current:   initial,
	}
}

// SetFrame evaluates the sequence at the given frame into Current.
// Evaluation is pure; the only mutation is the scratch value itself.
func (a *Animated[T]) SetFrame(frame float64) T {
	a.Current = a.At(frame, a.Default)
	return a.Current
}

// Set replaces the resting value. Existing keyframes are kept.
func (a *Animated[T]) Set(v T) {
	a.Default = v
	if len(a.Frames) == 0 {
		a.Current = v
	}
}

// AddSegment appends a start→target segment covering
// [startFrame, startFrame+durFrames] with the given easing.
func (a *Animated[T]) AddSegment(start, target T, startFrame, durFrames float64, easing Easing) {
	a.Add(Keyframe[T]{Frame: startFrame, ValueStart: start, HasStart: true, Easing: easing})
	a.Add(Keyframe[T]{Frame: startFrame + durFrames, ValueStart: target, HasStart: true, Easing: Linear})
}
