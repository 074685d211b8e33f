package anim

import (
	"math"
	"testing"
)

func TestKeyframedBinarySearch(t *testing.T) {
	k := NewFloat()
	k.Add(Keyframe[float64]{Frame: 0, ValueStart: 0, HasStart: true, Easing: Linear})
	k.Add(Keyframe[float64]{Frame: 10, ValueStart: 10, HasStart: true, Easing: Linear})
	k.Add(Keyframe[float64]{Frame: 20, ValueStart: 20, HasStart: true, ValueEnd: 30, HasEnd: true, Easing: Linear})

	tests := []struct {
		frame float64
		want  float64
	}{
		{0, 0},   // exact start
		{5, 5},   // mid segment
		{10, 10}, // exact middle
		{15, 15}, // mid segment 2
		{20, 30}, // at end, end value applies
		{25, 30}, // after last
		{-5, 0},  // before first
	}

	for _, tt := range tests {
		got := k.At(tt.frame, -1)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("At(%v) = %v, want %v", tt.frame, got, tt.want)
		}
	}
}

// The segment end must come from the NEXT keyframe's start value. A
// sequence (a@0, b@30) with no explicit end values has to interpolate
// from a toward b, not sit on a.
func TestKeyframedEndValuePolicy(t *testing.T) {
	k := NewFloat()
	k.Add(Keyframe[float64]{Frame: 0, ValueStart: 1, HasStart: true, Easing: Linear})
	k.Add(Keyframe[float64]{Frame: 30, ValueStart: 5, HasStart: true, Easing: Linear})

	eps := 1e-3
	got := k.At(30-eps, 0)
	if math.Abs(got-5) > 0.01 {
		t.Errorf("value just before the second keyframe = %v, want ~5", got)
	}
	if mid := k.At(15, 0); math.Abs(mid-3) > 1e-9 {
		t.Errorf("midpoint = %v, want 3", mid)
	}
}

// Legacy end values only apply when the next keyframe carries no start.
func TestKeyframedLegacyEndFallback(t *testing.T) {
	k := NewFloat()
	k.Add(Keyframe[float64]{Frame: 0, ValueStart: 0, HasStart: true, ValueEnd: 8, HasEnd: true, Easing: Linear})
	k.Add(Keyframe[float64]{Frame: 10})

	if got := k.At(5, 0); math.Abs(got-4) > 1e-9 {
		t.Errorf("fallback midpoint = %v, want 4", got)
	}
}

func TestKeyframedHold(t *testing.T) {
	k := NewFloat()
	k.Add(Keyframe[float64]{Frame: 0, ValueStart: 2, HasStart: true, Easing: Hold})
	k.Add(Keyframe[float64]{Frame: 10, ValueStart: 7, HasStart: true, Easing: Linear})

	if got := k.At(9.99, 0); got != 2 {
		t.Errorf("hold segment = %v, want 2", got)
	}
	if got := k.At(10, 0); got != 7 {
		t.Errorf("after hold = %v, want 7", got)
	}
}

func TestSpatialLerpEndpoints(t *testing.T) {
	a := Vec2{0, 0}
	b := Vec2{10, 0}
	tanOut := []float64{0, -5}
	tanIn := []float64{0, -5}

	start := SpatialLerpVec2(a, b, 0, tanOut, tanIn)
	end := SpatialLerpVec2(a, b, 1, tanOut, tanIn)
	if start != a || end != b {
		t.Fatalf("spatial lerp endpoints: got %v, %v", start, end)
	}

	mid := SpatialLerpVec2(a, b, 0.5, tanOut, tanIn)
	if mid[1] >= 0 {
		t.Errorf("curved midpoint should dip with the tangents, got %v", mid)
	}
}

func TestEuclidMod(t *testing.T) {
	tests := []struct{ x, m, want float64 }{
		{5, 3, 2},
		{-1, 3, 2},
		{-4, 3, 2},
		{0, 3, 0},
		{3, 3, 0},
	}
	for _, tt := range tests {
		if got := EuclidMod(tt.x, tt.m); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("EuclidMod(%v, %v) = %v, want %v", tt.x, tt.m, got, tt.want)
		}
	}
}

func TestSolveCubicBezierMonotone(t *testing.T) {
	prev := 0.0
	for i := 0; i <= 20; i++ {
		x := float64(i) / 20
		y := SolveCubicBezier(0.42, 0, 0.58, 1, x)
		if y < prev-1e-6 {
			t.Fatalf("ease-in-out not monotone at x=%v", x)
		}
		prev = y
	}
	if SolveCubicBezier(0.42, 0, 0.58, 1, 0) != 0 || SolveCubicBezier(0.42, 0, 0.58, 1, 1) != 1 {
		t.Error("bezier easing endpoints must be exact")
	}
}
