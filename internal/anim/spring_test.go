package anim

import (
	"math"
	"testing"
)

func TestSpringStartsAtFromAndSettlesAtTo(t *testing.T) {
	samples := SolveSpring(0, 1, DefaultSpring())
	if len(samples) == 0 {
		t.Fatal("no samples")
	}

	// The first integration step must still be near the start value.
	if math.Abs(samples[0][0]) > 0.05 {
		t.Errorf("first sample %v too far from start", samples[0][0])
	}

	last := samples[len(samples)-1]
	if math.Abs(last[0]-1) > 1e-9 {
		t.Errorf("final sample %v, want exactly the target", last[0])
	}
}

func TestSpringDeterministic(t *testing.T) {
	cfg := SpringConfig{Stiffness: 180, Damping: 12, Mass: 1, Velocity: 3}
	a := SolveSpring(2, 9, cfg)
	b := SolveSpring(2, 9, cfg)
	if len(a) != len(b) {
		t.Fatalf("sample counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestAnimatedSpringSegment(t *testing.T) {
	a := NewAnimated(0.0, LerpFloat)
	a.AddSpring(0, 100, 0, 30, DefaultSpring(), func(s, e, v float64) float64 {
		return s + (e-s)*v
	})

	a.SetFrame(0)
	if math.Abs(a.Current) > 5 {
		t.Errorf("spring at frame 0 = %v, want ~0", a.Current)
	}

	a.SetFrame(30 * 9) // nine seconds in, should be settled
	if math.Abs(a.Current-100) > 0.5 {
		t.Errorf("settled spring = %v, want ~100", a.Current)
	}
}
