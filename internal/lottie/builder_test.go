package lottie

import (
	"math"
	"testing"

	"github.com/gogpu/gg"
)

func TestBuildTreePaintsBottomLayerFirst(t *testing.T) {
	doc := `{
	  "ip": 0, "op": 60, "fr": 30, "w": 100, "h": 100,
	  "layers": [
	    {"ty": 1, "ind": 1, "ip": 0, "op": 60, "nm": "top", "sc": "#ff0000", "sw": 10, "sh": 10, "ks": {}},
	    {"ty": 1, "ind": 2, "ip": 0, "op": 60, "nm": "bottom", "sc": "#00ff00", "sw": 10, "sh": 10, "ks": {}}
	  ]
	}`
	comp, err := Parse([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	tree := BuildTree(comp, 0, nil)
	group := tree.Content.(Group)
	if len(group.Children) != 2 {
		t.Fatalf("children = %d, want 2", len(group.Children))
	}
	// Paint order: bottom (last array entry) first.
	first := group.Children[0].Content.(SolidContent)
	if first.Color[1] != 1 {
		t.Errorf("first painted layer should be the green bottom solid, got %v", first.Color)
	}
}

func TestLayerVisibilityWindow(t *testing.T) {
	doc := `{
	  "ip": 0, "op": 100, "fr": 30, "w": 100, "h": 100,
	  "layers": [
	    {"ty": 1, "ind": 1, "ip": 10, "op": 20, "sc": "#fff", "sw": 1, "sh": 1, "ks": {}}
	  ]
	}`
	comp, err := Parse([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	for _, tt := range []struct {
		frame float64
		want  int
	}{
		{5, 0}, {10, 1}, {19.9, 1}, {20, 0},
	} {
		tree := BuildTree(comp, tt.frame, nil)
		got := len(tree.Content.(Group).Children)
		if got != tt.want {
			t.Errorf("frame %v: %d layers, want %d", tt.frame, got, tt.want)
		}
	}
}

// Precomp placement: a precomp layer with anchor and position both at the
// composition center and 100% scale must be a pure identity placement.
func TestPrecompCenteredPlacementIsIdentity(t *testing.T) {
	doc := `{
	  "ip": 0, "op": 60, "fr": 30, "w": 800, "h": 800,
	  "assets": [
	    {"id": "pre_1", "layers": [
	      {"ty": 1, "ind": 1, "ip": 0, "op": 60, "sc": "#ff0000", "sw": 800, "sh": 800, "ks": {}}
	    ]}
	  ],
	  "layers": [
	    {"ty": 0, "ind": 1, "ip": 0, "op": 60, "refId": "pre_1", "w": 800, "h": 800,
	     "ks": {
	       "a": {"a": 0, "k": [400, 400]},
	       "p": {"a": 0, "k": [400, 400]},
	       "s": {"a": 0, "k": [100, 100]}
	     }}
	  ]
	}`
	comp, err := Parse([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	tree := BuildTree(comp, 0, nil)
	children := tree.Content.(Group).Children
	if len(children) != 1 {
		t.Fatalf("children = %d", len(children))
	}
	node := children[0]
	if _, ok := node.Content.(PrecompContent); !ok {
		t.Fatalf("content = %T, want PrecompContent", node.Content)
	}
	// Translate(400,400)·Translate(-400,-400) must collapse to identity:
	// a point at precomp-local (400,400) stays at absolute (400,400).
	p := node.Transform.TransformPoint(gg.Pt(400, 400))
	if math.Abs(p.X-400) > 1 || math.Abs(p.Y-400) > 1 {
		t.Errorf("precomp center maps to (%v,%v), want (400,400)", p.X, p.Y)
	}
}

func TestLayerParentingComposesTransforms(t *testing.T) {
	doc := `{
	  "ip": 0, "op": 60, "fr": 30, "w": 100, "h": 100,
	  "layers": [
	    {"ty": 1, "ind": 1, "parent": 2, "ip": 0, "op": 60, "sc": "#fff", "sw": 10, "sh": 10,
	     "ks": {"p": {"a": 0, "k": [5, 0]}}},
	    {"ty": 3, "ind": 2, "ip": 0, "op": 60,
	     "ks": {"p": {"a": 0, "k": [10, 20]}}}
	  ]
	}`
	comp, err := Parse([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	tree := BuildTree(comp, 0, nil)
	children := tree.Content.(Group).Children
	if len(children) != 1 {
		t.Fatalf("null layers must not draw; children = %d", len(children))
	}
	p := children[0].Transform.TransformPoint(gg.Pt(0, 0))
	if math.Abs(p.X-15) > 1e-9 || math.Abs(p.Y-20) > 1e-9 {
		t.Errorf("parented origin = (%v,%v), want (15,20)", p.X, p.Y)
	}
}

func TestShapeFoldAppliesFillToPriorGeometry(t *testing.T) {
	comp, err := Parse([]byte(minimalDoc))
	if err != nil {
		t.Fatal(err)
	}
	tree := BuildTree(comp, 30, nil)
	layer := tree.Content.(Group).Children[0]
	shapes := layer.Content.(Group).Children
	if len(shapes) != 1 {
		t.Fatalf("shape nodes = %d, want 1", len(shapes))
	}
	sc := shapes[0].Content.(*ShapeContent)
	if sc.Fill == nil || sc.Geometry == nil {
		t.Fatal("fill must bind to the preceding ellipse geometry")
	}
	if sc.Fill.Paint.Color[0] != 1 {
		t.Errorf("fill color = %v", sc.Fill.Paint.Color)
	}
}

func TestRepeaterEmitsCopies(t *testing.T) {
	rep := Repeater{
		Copies:       3,
		Position:     Vec2{10, 0},
		Scale:        Vec2{1, 1},
		StartOpacity: 1,
		EndOpacity:   0.5,
	}
	m0, o0 := rep.CopyTransform(0)
	m2, o2 := rep.CopyTransform(2)

	p0 := m0.TransformPoint(gg.Pt(0, 0))
	p2 := m2.TransformPoint(gg.Pt(0, 0))
	if p0.X != 0 || math.Abs(p2.X-20) > 1e-9 {
		t.Errorf("copy offsets = %v, %v", p0.X, p2.X)
	}
	if o0 != 1 || math.Abs(o2-0.5) > 1e-9 {
		t.Errorf("copy opacities = %v, %v", o0, o2)
	}
}
