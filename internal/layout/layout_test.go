package layout

import (
	"math"
	"testing"

	"github.com/vporoshin/scene2video/internal/scene"
)

func buildTree(t *testing.T) (*scene.Arena, scene.Handle) {
	t.Helper()
	a := scene.NewArena()
	root := a.Create(scene.NewBox())
	return a, root
}

func TestCenteredChild(t *testing.T) {
	a, root := buildTree(t)
	rn, _ := a.Get(root)
	rn.Style.Justify = scene.JustifyCenter
	rn.Style.AlignItems = scene.AlignCenter

	child := a.Create(scene.NewBox())
	cn, _ := a.Get(child)
	cn.Style.Width = scene.Px(100)
	cn.Style.Height = scene.Px(50)
	a.Attach(root, child)

	NewEngine(nil).Compute(a, root, 1920, 1080)

	if math.Abs(cn.Layout.X-910) > 0.5 || math.Abs(cn.Layout.Y-515) > 0.5 {
		t.Errorf("centered child at (%v,%v), want (910,515)", cn.Layout.X, cn.Layout.Y)
	}
	if cn.Layout.W != 100 || cn.Layout.H != 50 {
		t.Errorf("child size = %vx%v", cn.Layout.W, cn.Layout.H)
	}
}

func TestPercentSize(t *testing.T) {
	a, root := buildTree(t)
	child := a.Create(scene.NewBox())
	cn, _ := a.Get(child)
	cn.Style.Width = scene.Pct(50)
	cn.Style.Height = scene.Pct(25)
	a.Attach(root, child)

	NewEngine(nil).Compute(a, root, 800, 400)

	if math.Abs(cn.Layout.W-400) > 0.5 || math.Abs(cn.Layout.H-100) > 0.5 {
		t.Errorf("percent child = %vx%v, want 400x100", cn.Layout.W, cn.Layout.H)
	}
}

func TestAbsoluteInsets(t *testing.T) {
	a, root := buildTree(t)
	child := a.Create(scene.NewBox())
	cn, _ := a.Get(child)
	cn.Style.Position = scene.PositionAbsolute
	cn.Style.Inset.Left = scene.Px(10)
	cn.Style.Inset.Top = scene.Px(20)
	cn.Style.Width = scene.Px(30)
	cn.Style.Height = scene.Px(30)
	a.Attach(root, child)

	NewEngine(nil).Compute(a, root, 200, 200)

	if cn.Layout.X != 10 || cn.Layout.Y != 20 {
		t.Errorf("absolute child at (%v,%v), want (10,20)", cn.Layout.X, cn.Layout.Y)
	}
}

type fixedMeasure struct {
	scene.Box
	w, h float64
}

func (f *fixedMeasure) Measure(known scene.Size) scene.Size {
	return scene.Size{W: f.w, H: f.h}
}

func TestMeasureCallback(t *testing.T) {
	a, root := buildTree(t)
	child := a.Create(&fixedMeasure{w: 77, h: 33})
	a.Attach(root, child)

	NewEngine(nil).Compute(a, root, 500, 500)

	cn, _ := a.Get(child)
	if math.Abs(cn.Layout.W-77) > 0.5 || math.Abs(cn.Layout.H-33) > 0.5 {
		t.Errorf("measured child = %vx%v, want 77x33", cn.Layout.W, cn.Layout.H)
	}
}

func TestColumnGap(t *testing.T) {
	a, root := buildTree(t)
	rn, _ := a.Get(root)
	rn.Style.Direction = scene.DirectionColumn
	rn.Style.Gap = 10

	var handles []scene.Handle
	for i := 0; i < 2; i++ {
		c := a.Create(scene.NewBox())
		cn, _ := a.Get(c)
		cn.Style.Width = scene.Px(50)
		cn.Style.Height = scene.Px(40)
		a.Attach(root, c)
		handles = append(handles, c)
	}

	NewEngine(nil).Compute(a, root, 300, 300)

	n0, _ := a.Get(handles[0])
	n1, _ := a.Get(handles[1])
	if math.Abs((n1.Layout.Y-n0.Layout.Y)-50) > 0.5 {
		t.Errorf("gap spacing = %v, want 50", n1.Layout.Y-n0.Layout.Y)
	}
}
