package lottie

import (
	"math"
	"testing"
)

func circlePath(r float64) *Path {
	return ellipsePath(Vec2{0, 0}, Vec2{r * 2, r * 2})
}

func pathLength(p *Path) float64 {
	total := 0.0
	for _, pl := range p.Flatten(FlattenTolerance) {
		total += pl.Length()
	}
	return total
}

func TestTrimFullWindowLeavesPathUntouched(t *testing.T) {
	tr := Trim{Start: 0, End: 1, Offset: 0}
	if !tr.IsFull() {
		t.Fatal("0..1 trim must be full")
	}
	p := circlePath(100)
	got := tr.Apply(p)
	if got != p {
		t.Error("full trim must return the original path")
	}
}

func TestTrimEmptyWindowRendersNothing(t *testing.T) {
	tr := Trim{Start: 0.4, End: 0.4}
	got := tr.Apply(circlePath(100))
	if len(got.Contours) != 0 {
		t.Errorf("start==end must yield an empty path, got %d contours", len(got.Contours))
	}
}

func TestTrimHalfCircleArcLength(t *testing.T) {
	p := circlePath(100)
	full := pathLength(p)

	tr := Trim{Start: 0, End: 0.5}
	half := pathLength(tr.Apply(p))

	if math.Abs(half-full/2) > 1.0 {
		t.Errorf("half trim length = %v, want %v ±1px", half, full/2)
	}
}

// Offset wrap: start=0.7, end=0.2 (via offset wrapping) renders two arcs
// whose lengths sum to 0.5 of the path.
func TestTrimOffsetWrapSplitsInTwoSpans(t *testing.T) {
	p := circlePath(100)
	full := pathLength(p)

	tr := Trim{Start: 0.7, End: 0.2} // runs forward past 1: [0.7,1)+[0,0.2)
	out := tr.Apply(p)
	if len(out.Contours) != 2 {
		t.Fatalf("wrapped trim spans = %d, want 2", len(out.Contours))
	}
	total := pathLength(out)
	if math.Abs(total-full*0.5) > 1.0 {
		t.Errorf("wrapped trim total = %v, want %v ±1px", total, full*0.5)
	}
}

func TestTrimWindowOffsetWraps(t *testing.T) {
	tr := Trim{Start: 0.4, End: 0.9, Offset: 0.5}
	s, e, wrapped := tr.Window()
	if !wrapped {
		t.Fatalf("window [%v,%v] should wrap", s, e)
	}
	if math.Abs(s-0.9) > 1e-9 || math.Abs(e-0.4) > 1e-9 {
		t.Errorf("window = [%v,%v], want [0.9,0.4]", s, e)
	}
}

// A trim sweep: animating end from 0 to 1 over two seconds covers half
// the circumference at the midpoint.
func TestTrimSweepMidpoint(t *testing.T) {
	p := circlePath(50)
	full := pathLength(p)

	endProp := &Prop{Animated: true, Keys: []Keyframe{
		{T: 0, S: []float64{0}},
		{T: 60, S: []float64{100}},
	}}
	// At frame 30 (t=1s @30fps) the window is [0, 0.5].
	end := endProp.Scalar(30, 0) / 100
	tr := Trim{Start: 0, End: end}
	got := pathLength(tr.Apply(p))
	if math.Abs(got-full/2) > 1.0 {
		t.Errorf("sweep midpoint length = %v, want %v", got, full/2)
	}
}

func TestSequentialWindows(t *testing.T) {
	tr := Trim{Start: 0, End: 0.5, Mode: TrimSequential}
	wins := tr.SequentialWindows(2)
	if len(wins) != 2 {
		t.Fatal("want two windows")
	}
	// First sibling owns [0,0.5] of the virtual path → fully inside the
	// window → [0,1] locally. Second sibling gets nothing.
	if !wins[0].IsFull() {
		t.Errorf("first window = %+v, want full", wins[0])
	}
	s, e, _ := wins[1].Window()
	if e-s > 1e-6 {
		t.Errorf("second window = [%v,%v], want empty", s, e)
	}
}
