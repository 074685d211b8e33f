package lottie

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/vporoshin/scene2video/internal/anim"

	"github.com/gogpu/gg"
)

// Vec2 is a 2D point or vector.
type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2    { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2    { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Mul(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Lerp(o Vec2, t float64) Vec2 {
	return Vec2{v.X + (o.X-v.X)*t, v.Y + (o.Y-v.Y)*t}
}
func (v Vec2) Length() float64 { return math.Hypot(v.X, v.Y) }

func (v Vec2) Normalize() Vec2 {
	l := v.Length()
	if l < 1e-10 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// Vertex is one control point of a cubic contour. In and Out are tangent
// handles relative to P.
type Vertex struct {
	P, In, Out Vec2
}

// Contour is a single open or closed run of cubic segments.
type Contour struct {
	Closed bool
	Verts  []Vertex
}

// Path is an ordered set of contours.
type Path struct {
	Contours []Contour
}

// FlattenTolerance is the maximum chord-to-curve distance used when a path
// is reduced to a polyline, in logical pixels.
const FlattenTolerance = 0.5

// segments yields the cubic segments (p0, c1, c2, p1) of a contour.
func (c *Contour) segments(visit func(p0, c1, c2, p1 Vec2)) {
	n := len(c.Verts)
	if n < 2 {
		return
	}
	count := n - 1
	if c.Closed {
		count = n
	}
	for i := 0; i < count; i++ {
		a := c.Verts[i]
		b := c.Verts[(i+1)%n]
		visit(a.P, a.P.Add(a.Out), b.P.Add(b.In), b.P)
	}
}

// ToGG converts the path into the rasteriser's retained path form.
func (p *Path) ToGG() *gg.Path {
	out := gg.NewPath()
	for i := range p.Contours {
		c := &p.Contours[i]
		if len(c.Verts) == 0 {
			continue
		}
		out.MoveTo(c.Verts[0].P.X, c.Verts[0].P.Y)
		c.segments(func(p0, c1, c2, p1 Vec2) {
			out.CubicTo(c1.X, c1.Y, c2.X, c2.Y, p1.X, p1.Y)
		})
		if c.Closed {
			out.Close()
		}
	}
	return out
}

// Transform maps every vertex and handle through the matrix.
func (p *Path) Transform(m gg.Matrix) *Path {
	out := &Path{Contours: make([]Contour, len(p.Contours))}
	for i, c := range p.Contours {
		nc := Contour{Closed: c.Closed, Verts: make([]Vertex, len(c.Verts))}
		for j, v := range c.Verts {
			pt := m.TransformPoint(gg.Pt(v.P.X, v.P.Y))
			in := m.TransformVector(gg.Pt(v.In.X, v.In.Y))
			outv := m.TransformVector(gg.Pt(v.Out.X, v.Out.Y))
			nc.Verts[j] = Vertex{
				P:   Vec2{pt.X, pt.Y},
				In:  Vec2{in.X, in.Y},
				Out: Vec2{outv.X, outv.Y},
			}
		}
		out.Contours[i] = nc
	}
	return out
}

// Clone deep-copies the path.
func (p *Path) Clone() *Path {
	return p.Transform(gg.Identity())
}

// flattenCubic subdivides with de Casteljau until the control polygon is
// within tol of the chord, appending interior+end points to pts.
func flattenCubic(p0, c1, c2, p1 Vec2, tol float64, pts *[]Vec2) {
	d1 := distToLine(c1, p0, p1)
	d2 := distToLine(c2, p0, p1)
	if math.Max(d1, d2) <= tol {
		*pts = append(*pts, p1)
		return
	}
	// Split at t=0.5.
	ab := p0.Lerp(c1, 0.5)
	bc := c1.Lerp(c2, 0.5)
	cd := c2.Lerp(p1, 0.5)
	abc := ab.Lerp(bc, 0.5)
	bcd := bc.Lerp(cd, 0.5)
	mid := abc.Lerp(bcd, 0.5)
	flattenCubic(p0, ab, abc, mid, tol, pts)
	flattenCubic(mid, bcd, cd, p1, tol, pts)
}

func distToLine(p, a, b Vec2) float64 {
	d := b.Sub(a)
	l := d.Length()
	if l < 1e-12 {
		return p.Sub(a).Length()
	}
	return math.Abs(d.X*(a.Y-p.Y)-d.Y*(a.X-p.X)) / l
}

// Polyline is a flattened contour.
type Polyline struct {
	Closed bool
	Pts    []Vec2
}

// Flatten reduces every contour to a polyline within the tolerance.
func (p *Path) Flatten(tol float64) []Polyline {
	out := make([]Polyline, 0, len(p.Contours))
	for i := range p.Contours {
		c := &p.Contours[i]
		if len(c.Verts) == 0 {
			continue
		}
		pts := []Vec2{c.Verts[0].P}
		c.segments(func(p0, c1, c2, p1 Vec2) {
			flattenCubic(p0, c1, c2, p1, tol, &pts)
		})
		out = append(out, Polyline{Closed: c.Closed, Pts: pts})
	}
	return out
}

// Length is the polyline length of the flattened contour, including the
// closing edge.
func (pl *Polyline) Length() float64 {
	total := 0.0
	for i := 1; i < len(pl.Pts); i++ {
		total += pl.Pts[i].Sub(pl.Pts[i-1]).Length()
	}
	if pl.Closed && len(pl.Pts) > 1 {
		total += pl.Pts[0].Sub(pl.Pts[len(pl.Pts)-1]).Length()
	}
	return total
}

// points returns the polyline vertices with the closing point appended for
// closed contours.
func (pl *Polyline) points() []Vec2 {
	if pl.Closed && len(pl.Pts) > 1 {
		return append(append([]Vec2{}, pl.Pts...), pl.Pts[0])
	}
	return pl.Pts
}

// Slice extracts the arc-length range [from, to] of the polyline as an
// open polyline.
func (pl *Polyline) Slice(from, to float64) Polyline {
	pts := pl.points()
	if len(pts) < 2 || to <= from {
		return Polyline{}
	}
	var out []Vec2
	walked := 0.0
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		segLen := b.Sub(a).Length()
		if segLen <= 0 {
			continue
		}
		segStart := walked
		segEnd := walked + segLen
		if segEnd < from {
			walked = segEnd
			continue
		}
		if segStart > to {
			break
		}
		t0 := math.Max(0, (from-segStart)/segLen)
		t1 := math.Min(1, (to-segStart)/segLen)
		p0 := a.Lerp(b, t0)
		p1 := a.Lerp(b, t1)
		if len(out) == 0 {
			out = append(out, p0)
		}
		out = append(out, p1)
		walked = segEnd
	}
	return Polyline{Pts: out}
}

// Sample returns the point and unit tangent at an arc-length distance.
func (pl *Polyline) Sample(dist float64) (Vec2, Vec2) {
	pts := pl.points()
	if len(pts) == 0 {
		return Vec2{}, Vec2{1, 0}
	}
	walked := 0.0
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		segLen := b.Sub(a).Length()
		if segLen <= 0 {
			continue
		}
		if walked+segLen >= dist {
			t := (dist - walked) / segLen
			return a.Lerp(b, t), b.Sub(a).Normalize()
		}
		walked += segLen
	}
	last := pts[len(pts)-1]
	var tan Vec2
	if len(pts) > 1 {
		tan = last.Sub(pts[len(pts)-2]).Normalize()
	}
	return last, tan
}

// polylinesToPath rebuilds a (polyline) Path from flattened contours.
func polylinesToPath(pls []Polyline) *Path {
	out := &Path{}
	for _, pl := range pls {
		if len(pl.Pts) == 0 {
			continue
		}
		c := Contour{Closed: pl.Closed, Verts: make([]Vertex, len(pl.Pts))}
		for i, pt := range pl.Pts {
			c.Verts[i] = Vertex{P: pt}
		}
		out.Contours = append(out.Contours, c)
	}
	return out
}

// bezierJSON mirrors the JSON path payload {c, v, i, o}.
type bezierJSON struct {
	Closed Flag        `json:"c"`
	V      [][]float64 `json:"v"`
	I      [][]float64 `json:"i"`
	O      [][]float64 `json:"o"`
}

func (b *bezierJSON) toContour() Contour {
	c := Contour{Closed: bool(b.Closed), Verts: make([]Vertex, len(b.V))}
	at := func(list [][]float64, i int) Vec2 {
		if i < len(list) && len(list[i]) >= 2 {
			return Vec2{list[i][0], list[i][1]}
		}
		return Vec2{}
	}
	for i := range b.V {
		c.Verts[i] = Vertex{P: at(b.V, i), In: at(b.I, i), Out: at(b.O, i)}
	}
	return c
}

// PathKeyframe anchors a contour at a frame.
type PathKeyframe struct {
	T float64
	S *Contour
	E *Contour
	I *Tangent
	O *Tangent
	H Flag
}

// PathProp is an animated bezier path property.
type PathProp struct {
	Animated bool
	Static   *Contour
	Keys     []PathKeyframe
	Expr     string
}

func (p *PathProp) UnmarshalJSON(data []byte) error {
	var wrap struct {
		A Flag            `json:"a"`
		K json.RawMessage `json:"k"`
		X string          `json:"x"`
	}
	if err := json.Unmarshal(data, &wrap); err != nil || wrap.K == nil {
		return nil
	}
	p.Expr = wrap.X

	var bj bezierJSON
	if err := json.Unmarshal(wrap.K, &bj); err == nil && len(bj.V) > 0 {
		c := bj.toContour()
		p.Static = &c
		return nil
	}

	var keys []struct {
		T float64         `json:"t"`
		S json.RawMessage `json:"s"`
		E json.RawMessage `json:"e"`
		I *Tangent        `json:"i"`
		O *Tangent        `json:"o"`
		H Flag            `json:"h"`
	}
	if err := json.Unmarshal(wrap.K, &keys); err != nil {
		return nil
	}
	for _, k := range keys {
		pk := PathKeyframe{T: k.T, I: k.I, O: k.O, H: k.H}
		pk.S = decodeContour(k.S)
		pk.E = decodeContour(k.E)
		p.Keys = append(p.Keys, pk)
	}
	p.Animated = len(p.Keys) > 0
	sort.SliceStable(p.Keys, func(i, j int) bool { return p.Keys[i].T < p.Keys[j].T })
	return nil
}

// decodeContour accepts a bare path object or the single-element array
// wrapping exporters emit.
func decodeContour(raw json.RawMessage) *Contour {
	if len(raw) == 0 {
		return nil
	}
	var bj bezierJSON
	if err := json.Unmarshal(raw, &bj); err == nil && len(bj.V) > 0 {
		c := bj.toContour()
		return &c
	}
	var arr []bezierJSON
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) > 0 && len(arr[0].V) > 0 {
		c := arr[0].toContour()
		return &c
	}
	return nil
}

// ContourAt evaluates the path at a frame. Morphing lerps vertices and
// tangents when vertex counts match and holds the start contour otherwise.
func (p *PathProp) ContourAt(frame float64) *Contour {
	if p == nil {
		return nil
	}
	if !p.Animated {
		return p.Static
	}
	keys := p.Keys
	if len(keys) == 0 {
		return nil
	}
	idx := sort.Search(len(keys), func(i int) bool { return keys[i].T > frame })
	if idx == 0 {
		return keys[0].S
	}
	if idx >= len(keys) {
		last := keys[len(keys)-1]
		if last.S != nil {
			return last.S
		}
		return last.E
	}
	start, end := keys[idx-1], keys[idx]
	sc := start.S
	ec := end.S
	if ec == nil {
		ec = start.E
	}
	if sc == nil {
		return ec
	}
	if ec == nil || bool(start.H) {
		return sc
	}

	duration := end.T - start.T
	if duration <= 0 {
		return sc
	}
	t := anim.Clamp((frame-start.T)/duration, 0, 1)
	p1x, p1y := 0.0, 0.0
	if start.O != nil {
		p1x, p1y = firstOr(start.O.X, 0), firstOr(start.O.Y, 0)
	}
	p2x, p2y := 1.0, 1.0
	if end.I != nil {
		p2x, p2y = firstOr(end.I.X, 1), firstOr(end.I.Y, 1)
	}
	t = anim.SolveCubicBezier(p1x, p1y, p2x, p2y, t)

	// Topology mismatch: hold.
	if len(sc.Verts) != len(ec.Verts) {
		return sc
	}
	out := Contour{Closed: sc.Closed, Verts: make([]Vertex, len(sc.Verts))}
	for i := range sc.Verts {
		a, b := sc.Verts[i], ec.Verts[i]
		out.Verts[i] = Vertex{
			P:   a.P.Lerp(b.P, t),
			In:  a.In.Lerp(b.In, t),
			Out: a.Out.Lerp(b.Out, t),
		}
	}
	return &out
}
