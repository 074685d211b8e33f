package lottie

import (
	"encoding/json"
	"math"
	"testing"
)

func scalarKeys(pairs ...[2]float64) *Prop {
	p := &Prop{Animated: true}
	for _, kv := range pairs {
		p.Keys = append(p.Keys, Keyframe{T: kv[0], S: []float64{kv[1]}})
	}
	return p
}

func TestPropSegmentSearch(t *testing.T) {
	p := &Prop{Animated: true, Keys: []Keyframe{
		{T: 0, S: []float64{0}, E: []float64{10}},
		{T: 10, S: []float64{10}, E: []float64{20}},
		{T: 20, S: []float64{20}, E: []float64{30}},
	}}

	tests := []struct {
		frame float64
		want  float64
	}{
		{0, 0},
		{5, 5},
		{10, 10},
		{15, 15},
		{20, 30}, // past the last start, legacy end applies
		{25, 30},
		{-5, 0},
	}
	for _, tt := range tests {
		if got := p.Scalar(tt.frame, -1); math.Abs(got-tt.want) > 1e-6 {
			t.Errorf("Scalar(%v) = %v, want %v", tt.frame, got, tt.want)
		}
	}
}

// The next keyframe's start value wins over the legacy end value: a track
// (a@0 e=99, b@30) interpolates toward b, not toward 99.
func TestPropEndValuePolicy(t *testing.T) {
	p := &Prop{Animated: true, Keys: []Keyframe{
		{T: 0, S: []float64{1}, E: []float64{99}},
		{T: 30, S: []float64{5}},
	}}
	if got := p.Scalar(15, 0); math.Abs(got-3) > 1e-6 {
		t.Errorf("midpoint = %v, want 3", got)
	}
	if got := p.Scalar(29.999, 0); math.Abs(got-5) > 0.01 {
		t.Errorf("value just before second keyframe = %v, want ~5", got)
	}
}

func TestPropHoldKeyframe(t *testing.T) {
	p := &Prop{Animated: true, Keys: []Keyframe{
		{T: 0, S: []float64{2}, H: true},
		{T: 10, S: []float64{7}},
	}}
	if got := p.Scalar(9.9, 0); got != 2 {
		t.Errorf("hold value = %v, want 2", got)
	}
}

func TestPropStaticAndDefault(t *testing.T) {
	var nilProp *Prop
	if got := nilProp.Scalar(5, 42); got != 42 {
		t.Errorf("nil prop = %v, want default", got)
	}
	p := &Prop{Static: []float64{3}}
	if got := p.Scalar(100, 0); got != 3 {
		t.Errorf("static = %v, want 3", got)
	}
}

func TestPropJSONDecoding(t *testing.T) {
	tests := []struct {
		name string
		in   string
		at   float64
		want float64
	}{
		{"wrapped static scalar", `{"a":0,"k":5}`, 0, 5},
		{"bare scalar", `5`, 0, 5},
		{"static vector", `{"a":0,"k":[3,4]}`, 0, 3},
		{"keyframes", `{"a":1,"k":[{"t":0,"s":[0]},{"t":10,"s":[10]}]}`, 5, 5},
		{"numeric bool animated flag", `{"a":1,"k":[{"t":0,"s":[1]},{"t":2,"s":[2]}]}`, 0, 1},
	}
	for _, tt := range tests {
		var p Prop
		if err := json.Unmarshal([]byte(tt.in), &p); err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got := p.Scalar(tt.at, -1); math.Abs(got-tt.want) > 1e-6 {
			t.Errorf("%s: value = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFlagToleratesNumericBooleans(t *testing.T) {
	var v struct {
		A Flag `json:"a"`
		B Flag `json:"b"`
		C Flag `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":1,"b":true,"c":0}`), &v); err != nil {
		t.Fatal(err)
	}
	if !bool(v.A) || !bool(v.B) || bool(v.C) {
		t.Errorf("flags = %v %v %v", v.A, v.B, v.C)
	}
}

func TestSplitPosition(t *testing.T) {
	raw := `{"s":1,"x":{"a":0,"k":10},"y":{"a":0,"k":20}}`
	var p PosProp
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatal(err)
	}
	v := p.At(0, 0, 0)
	if v.X != 10 || v.Y != 20 {
		t.Errorf("split position = %v, want (10,20)", v)
	}
}

func TestGradientStopParsing(t *testing.T) {
	// Two color stops, two alpha stops.
	raw := []float64{
		0, 1, 0, 0, // red at 0
		1, 0, 0, 1, // blue at 1
		0, 1, // alpha 1 at 0
		1, 0, // alpha 0 at 1
	}
	stops := parseGradientStops(raw, 2)
	if len(stops) != 2 {
		t.Fatalf("stops = %d, want 2", len(stops))
	}
	if stops[0].Color[0] != 1 || stops[0].Color[3] != 1 {
		t.Errorf("first stop = %+v", stops[0])
	}
	if stops[1].Color[2] != 1 || stops[1].Color[3] != 0 {
		t.Errorf("second stop = %+v", stops[1])
	}
}

func TestPathMorphHoldsOnTopologyMismatch(t *testing.T) {
	a := &Contour{Verts: []Vertex{{P: Vec2{0, 0}}, {P: Vec2{10, 0}}}}
	b := &Contour{Verts: []Vertex{{P: Vec2{0, 0}}, {P: Vec2{10, 0}}, {P: Vec2{5, 5}}}}
	p := &PathProp{Animated: true, Keys: []PathKeyframe{
		{T: 0, S: a},
		{T: 10, S: b},
	}}
	got := p.ContourAt(5)
	if len(got.Verts) != 2 {
		t.Errorf("mismatched topologies must hold the start contour, got %d verts", len(got.Verts))
	}
}

func TestPathMorphLerpsMatchingTopology(t *testing.T) {
	a := &Contour{Verts: []Vertex{{P: Vec2{0, 0}}, {P: Vec2{10, 0}}}}
	b := &Contour{Verts: []Vertex{{P: Vec2{0, 10}}, {P: Vec2{10, 10}}}}
	p := &PathProp{Animated: true, Keys: []PathKeyframe{
		{T: 0, S: a},
		{T: 10, S: b},
	}}
	got := p.ContourAt(5)
	if math.Abs(got.Verts[0].P.Y-5) > 1e-9 {
		t.Errorf("morph midpoint Y = %v, want 5", got.Verts[0].P.Y)
	}
}

func TestScalarKeysHelperOrdering(t *testing.T) {
	p := scalarKeys([2]float64{0, 0}, [2]float64{10, 1})
	if got := p.Scalar(5, -1); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("midpoint = %v", got)
	}
}
