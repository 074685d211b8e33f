package scene

import (
	"math"
	"testing"

	"github.com/gogpu/gg"

	"github.com/vporoshin/scene2video/internal/anim"
)

// A node rotated by +90° must move a point at (1,0) (relative to the
// pivot) to (0,1) in screen space: Y grows downward, so positive rotation
// is clockwise on screen.
func TestRotationIsClockwisePositive(t *testing.T) {
	tr := NewTransform()
	tr.PivotX, tr.PivotY = 0, 0
	tr.RotateZ.Set(90)
	tr.SetFrame(0)

	m := tr.Matrix(0, 0)
	p := m.TransformPoint(gg.Pt(1, 0))
	if math.Abs(p.X) > 1e-9 || math.Abs(p.Y-1) > 1e-9 {
		t.Errorf("rotate 90°: (1,0) → (%v,%v), want (0,1)", p.X, p.Y)
	}
}

func TestIdentityTransformIsIdentity(t *testing.T) {
	tr := NewTransform()
	tr.SetFrame(0)
	m := tr.Matrix(100, 50)
	if !m.IsIdentity() {
		t.Errorf("identity transform matrix = %+v", m)
	}
}

func TestScaleAboutCenterPivot(t *testing.T) {
	tr := NewTransform()
	tr.ScaleX.Set(2)
	tr.ScaleY.Set(2)
	tr.SetFrame(0)

	// A 100×100 box scaled 2x about its center keeps the center fixed.
	m := tr.Matrix(100, 100)
	center := m.TransformPoint(gg.Pt(50, 50))
	if math.Abs(center.X-50) > 1e-9 || math.Abs(center.Y-50) > 1e-9 {
		t.Errorf("center moved to (%v,%v)", center.X, center.Y)
	}
	corner := m.TransformPoint(gg.Pt(0, 0))
	if math.Abs(corner.X+50) > 1e-9 || math.Abs(corner.Y+50) > 1e-9 {
		t.Errorf("corner = (%v,%v), want (-50,-50)", corner.X, corner.Y)
	}
}

// Single-segment scale animation: 0.5 → 1.5 over one second at 30 fps.
func TestScaleAnimationEndpoints(t *testing.T) {
	tr := NewTransform()
	ok := tr.AnimateProperty("scale", 0.5, 1.5, 0, 30, anim.Linear)
	if !ok {
		t.Fatal("scale is not animatable")
	}

	tests := []struct {
		frame float64
		want  float64
	}{
		{0, 0.5},
		{15, 1.0},
		{30, 1.5},
	}
	for _, tt := range tests {
		tr.SetFrame(tt.frame)
		if math.Abs(tr.ScaleX.Current-tt.want) > 1e-3 {
			t.Errorf("scale at frame %v = %v, want %v", tt.frame, tr.ScaleX.Current, tt.want)
		}
	}
}
