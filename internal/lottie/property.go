package lottie

import (
	"encoding/json"
	"sort"

	"github.com/vporoshin/scene2video/internal/anim"
)

// Tangent is a keyframe easing handle. The x/y components arrive either as
// scalars or as per-dimension arrays; only the first component drives the
// timing curve.
type Tangent struct {
	X, Y []float64
}

func (t *Tangent) UnmarshalJSON(data []byte) error {
	var obj struct {
		X json.RawMessage `json:"x"`
		Y json.RawMessage `json:"y"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil // tolerate malformed handles
	}
	t.X = floatList(obj.X)
	t.Y = floatList(obj.Y)
	return nil
}

func floatList(raw json.RawMessage) []float64 {
	if len(raw) == 0 {
		return nil
	}
	var arr []float64
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr
	}
	var one float64
	if err := json.Unmarshal(raw, &one); err == nil {
		return []float64{one}
	}
	return nil
}

// Keyframe is a time-anchored value of a numeric property.
type Keyframe struct {
	T  float64   `json:"t"`
	S  []float64 `json:"s"`
	E  []float64 `json:"e"`
	I  *Tangent  `json:"i"`
	O  *Tangent  `json:"o"`
	TI []float64 `json:"ti"`
	TO []float64 `json:"to"`
	H  Flag      `json:"h"`
}

// Prop is a numeric property: a static float vector or a keyframe track.
// Scalars are single-element vectors; colors are RGBA; gradients carry
// their packed stop arrays.
type Prop struct {
	Animated bool
	Static   []float64
	Keys     []Keyframe
	Expr     string
}

func (p *Prop) UnmarshalJSON(data []byte) error {
	var wrap struct {
		A Flag            `json:"a"`
		K json.RawMessage `json:"k"`
		X string          `json:"x"`
	}
	if err := json.Unmarshal(data, &wrap); err == nil && wrap.K != nil {
		p.Expr = wrap.X
		p.decodeK(wrap.K)
		return nil
	}
	// Bare value without the {a,k} wrapper.
	p.decodeK(data)
	return nil
}

func (p *Prop) decodeK(raw json.RawMessage) {
	raw = json.RawMessage(trimSpace(raw))
	if len(raw) == 0 || string(raw) == "null" {
		return
	}
	if raw[0] == '[' {
		// Array of numbers or array of keyframe objects.
		var keys []Keyframe
		if err := json.Unmarshal(raw, &keys); err == nil && len(keys) > 0 && (keys[0].S != nil || keys[0].E != nil || len(keys) > 1) {
			// Heuristic passed: looks like keyframes.
			if looksLikeKeyframes(raw) {
				p.Animated = true
				p.Keys = keys
				sort.SliceStable(p.Keys, func(i, j int) bool { return p.Keys[i].T < p.Keys[j].T })
				return
			}
		}
		var vec []float64
		if err := json.Unmarshal(raw, &vec); err == nil {
			p.Static = vec
			return
		}
		return
	}
	var one float64
	if err := json.Unmarshal(raw, &one); err == nil {
		p.Static = []float64{one}
	}
}

func looksLikeKeyframes(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case '[', ' ', '\n', '\t', '\r':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}

func trimSpace(b []byte) []byte {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\n' || b[i] == '\t' || b[i] == '\r') {
		i++
	}
	return b[i:]
}

// Value evaluates the property at a frame. The def vector is returned for
// absent data; results always have at least len(def) components.
//
// Segment ends prefer the next keyframe's start value and only fall back
// to this keyframe's legacy end value.
func (p *Prop) Value(frame float64, def []float64) []float64 {
	if p == nil {
		return def
	}
	if !p.Animated {
		if p.Static == nil {
			return def
		}
		return widen(p.Static, len(def))
	}
	keys := p.Keys
	if len(keys) == 0 {
		return def
	}

	idx := sort.Search(len(keys), func(i int) bool { return keys[i].T > frame })
	if idx == 0 {
		if keys[0].S != nil {
			return widen(keys[0].S, len(def))
		}
		return def
	}
	if idx >= len(keys) {
		// Past the end the settled value is the last keyframe's end when
		// one exists, else its start.
		last := keys[len(keys)-1]
		if last.E != nil {
			return widen(last.E, len(def))
		}
		if last.S != nil {
			return widen(last.S, len(def))
		}
		return def
	}

	start, end := keys[idx-1], keys[idx]
	startVal := def
	if start.S != nil {
		startVal = start.S
	}
	endVal := startVal
	switch {
	case end.S != nil:
		endVal = end.S
	case start.E != nil:
		endVal = start.E
	}

	if bool(start.H) {
		return widen(startVal, len(def))
	}
	duration := end.T - start.T
	if duration <= 0 {
		return widen(startVal, len(def))
	}
	t := anim.Clamp((frame-start.T)/duration, 0, 1)

	// Easing handles: out tangent of the start keyframe, in tangent of the
	// end keyframe, with the spec defaults when absent.
	p1x, p1y := 0.0, 0.0
	if start.O != nil {
		p1x, p1y = firstOr(start.O.X, 0), firstOr(start.O.Y, 0)
	}
	p2x, p2y := 1.0, 1.0
	if end.I != nil {
		p2x, p2y = firstOr(end.I.X, 1), firstOr(end.I.Y, 1)
	}
	t = anim.SolveCubicBezier(p1x, p1y, p2x, p2y, t)

	// Spatial interpolation for 2D segments with tangents.
	if len(startVal) >= 2 && len(endVal) >= 2 && (len(start.TO) >= 2 || len(end.TI) >= 2) {
		v := anim.SpatialLerpVec2(
			anim.Vec2{startVal[0], startVal[1]},
			anim.Vec2{endVal[0], endVal[1]},
			t, start.TO, end.TI,
		)
		out := lerpVec(startVal, endVal, t, len(def))
		out[0], out[1] = v[0], v[1]
		return out
	}
	return lerpVec(startVal, endVal, t, len(def))
}

// Scalar evaluates a one-component property.
func (p *Prop) Scalar(frame, def float64) float64 {
	v := p.Value(frame, []float64{def})
	return v[0]
}

// Vec2At evaluates a two-component property.
func (p *Prop) Vec2At(frame float64, defX, defY float64) Vec2 {
	v := p.Value(frame, []float64{defX, defY})
	return Vec2{v[0], v[1]}
}

// ColorAt evaluates an RGBA property.
func (p *Prop) ColorAt(frame float64, def anim.Color) anim.Color {
	v := p.Value(frame, def[:])
	out := def
	for i := 0; i < len(v) && i < 4; i++ {
		out[i] = v[i]
	}
	if len(v) == 3 {
		out[3] = 1
	}
	return out
}

func widen(v []float64, n int) []float64 {
	if len(v) >= n {
		return v
	}
	out := make([]float64, n)
	copy(out, v)
	return out
}

func lerpVec(a, b []float64, t float64, minLen int) []float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n < minLen {
		n = minLen
	}
	out := make([]float64, n)
	for i := range out {
		av, bv := 0.0, 0.0
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		out[i] = av + (bv-av)*t
	}
	return out
}

func firstOr(v []float64, def float64) float64 {
	if len(v) > 0 {
		return v[0]
	}
	return def
}

// PosProp is a position that may be unified (one vector track) or split
// into per-axis scalar tracks.
type PosProp struct {
	Unified *Prop
	X, Y    *Prop
}

func (p *PosProp) UnmarshalJSON(data []byte) error {
	var split struct {
		S Flag            `json:"s"`
		X json.RawMessage `json:"x"`
		Y json.RawMessage `json:"y"`
	}
	if err := json.Unmarshal(data, &split); err == nil && bool(split.S) {
		p.X = &Prop{}
		p.Y = &Prop{}
		// Per-axis payloads are full {a,k} properties. Expressions inside
		// split positions decode as properties too (x would collide with
		// the expression field otherwise).
		_ = json.Unmarshal(split.X, p.X)
		_ = json.Unmarshal(split.Y, p.Y)
		return nil
	}
	p.Unified = &Prop{}
	return json.Unmarshal(data, p.Unified)
}

// At evaluates the position at a frame.
func (p *PosProp) At(frame float64, defX, defY float64) Vec2 {
	if p == nil {
		return Vec2{defX, defY}
	}
	if p.Unified != nil {
		return p.Unified.Vec2At(frame, defX, defY)
	}
	return Vec2{p.X.Scalar(frame, defX), p.Y.Scalar(frame, defY)}
}
