package lottie

import (
	"math"

	"github.com/gogpu/gg"
)

// Modifier deforms a path in place during the shape build.
type Modifier interface {
	Modify(p *Path) *Path
}

// ZigZag offsets sample points alternately along the path normal. Smooth
// mode rounds the ridges with quadratic joins; it is approximate.
type ZigZag struct {
	Ridges float64
	Size   float64
	Smooth bool
}

func (z ZigZag) Modify(p *Path) *Path {
	if z.Ridges <= 0 || z.Size == 0 {
		return p
	}
	var out []Polyline
	for _, pl := range p.Flatten(FlattenTolerance) {
		length := pl.Length()
		if length <= 0 {
			continue
		}
		// Two samples per ridge: peak and valley.
		n := int(z.Ridges) * 2
		if n < 2 {
			n = 2
		}
		step := length / float64(n)
		pts := make([]Vec2, 0, n+1)
		for i := 0; i <= n; i++ {
			d := minf(float64(i)*step, length)
			pos, tan := pl.Sample(d)
			normal := Vec2{-tan.Y, tan.X}
			dir := 1.0
			if i%2 == 1 {
				dir = -1
			}
			// Endpoints of open paths stay anchored.
			if !pl.Closed && (i == 0 || i == n) {
				dir = 0
			}
			pts = append(pts, pos.Add(normal.Mul(z.Size*dir)))
		}
		if z.Smooth {
			pts = smoothPolyline(pts)
		}
		out = append(out, Polyline{Closed: pl.Closed, Pts: pts})
	}
	return polylinesToPath(out)
}

// smoothPolyline inserts midpoints so the hard corners read rounded after
// rasterisation. Proper smooth mode would emit tangent handles; this is a
// known partial implementation.
func smoothPolyline(pts []Vec2) []Vec2 {
	if len(pts) < 3 {
		return pts
	}
	out := make([]Vec2, 0, len(pts)*2)
	out = append(out, pts[0])
	for i := 1; i < len(pts)-1; i++ {
		prev := pts[i-1].Lerp(pts[i], 0.75)
		next := pts[i].Lerp(pts[i+1], 0.25)
		out = append(out, prev, next)
	}
	out = append(out, pts[len(pts)-1])
	return out
}

// PuckerBloat pulls vertices toward (pucker) or away from (bloat) the
// geometry center while pushing tangent handles the opposite way.
type PuckerBloat struct {
	Amount float64 // -100..100
}

func (m PuckerBloat) Modify(p *Path) *Path {
	if m.Amount == 0 {
		return p
	}
	center := pathCenter(p)
	t := m.Amount / 100
	out := p.Clone()
	for ci := range out.Contours {
		c := &out.Contours[ci]
		for vi := range c.Verts {
			v := &c.Verts[vi]
			abs := v.P
			v.P = abs.Lerp(center, t)
			// Handles flare outward as the point puckers in, matching the
			// star-like look of the effect.
			v.In = v.In.Mul(1 + t)
			v.Out = v.Out.Mul(1 + t)
		}
	}
	return out
}

// Twist rotates vertices around a center by an angle proportional to their
// distance from it.
type Twist struct {
	Angle  float64 // degrees at the outer radius
	Center Vec2
}

func (m Twist) Modify(p *Path) *Path {
	if m.Angle == 0 {
		return p
	}
	// Normalise by the farthest vertex so the outermost points get the
	// full angle.
	maxDist := 0.0
	for _, c := range p.Contours {
		for _, v := range c.Verts {
			if d := v.P.Sub(m.Center).Length(); d > maxDist {
				maxDist = d
			}
		}
	}
	if maxDist <= 0 {
		return p
	}
	out := p.Clone()
	for ci := range out.Contours {
		c := &out.Contours[ci]
		for vi := range c.Verts {
			v := &c.Verts[vi]
			rel := v.P.Sub(m.Center)
			angle := m.Angle * math.Pi / 180 * (rel.Length() / maxDist)
			sin, cos := math.Sin(angle), math.Cos(angle)
			rot := func(p Vec2) Vec2 {
				return Vec2{p.X*cos - p.Y*sin, p.X*sin + p.Y*cos}
			}
			v.P = m.Center.Add(rot(rel))
			v.In = rot(v.In)
			v.Out = rot(v.Out)
		}
	}
	return out
}

// Wiggle displaces vertices with deterministic gradient noise seeded by
// (seed, time, vertex index): the same inputs always wiggle the same way.
type Wiggle struct {
	Seed   float64
	Time   float64
	Speed  float64
	Amount float64
}

func (m Wiggle) Modify(p *Path) *Path {
	if m.Amount == 0 {
		return p
	}
	out := p.Clone()
	t := m.Time * m.Speed
	idx := 0
	for ci := range out.Contours {
		c := &out.Contours[ci]
		for vi := range c.Verts {
			v := &c.Verts[vi]
			dx := perlin1D(t+float64(idx)*13.7, m.Seed) * m.Amount
			dy := perlin1D(t+float64(idx)*13.7+101.3, m.Seed+31) * m.Amount
			v.P = v.P.Add(Vec2{dx, dy})
			idx++
		}
	}
	return out
}

// perlin1D is a deterministic 1D gradient noise in [-1, 1].
func perlin1D(x, seed float64) float64 {
	x0 := math.Floor(x)
	x1 := x0 + 1
	t := x - x0
	// Quintic fade.
	f := t * t * t * (t*(t*6-15) + 10)
	g0 := hashGrad(x0, seed)
	g1 := hashGrad(x1, seed)
	return (g0*t + (g1*(t-1)-g0*t)*f) * 2
}

// hashGrad maps an integer lattice point and seed to a gradient in [-1,1].
func hashGrad(i, seed float64) float64 {
	h := math.Sin(i*127.1+seed*311.7) * 43758.5453
	return 2*(h-math.Floor(h)) - 1
}

// RoundCorners replaces polyline corners with cubic arcs whose radius is
// clamped to half the shortest adjacent edge.
type RoundCorners struct {
	Radius float64
}

func (m RoundCorners) Modify(p *Path) *Path {
	if m.Radius <= 0 {
		return p
	}
	out := &Path{}
	for _, c := range p.Contours {
		out.Contours = append(out.Contours, roundContour(c, m.Radius))
	}
	return out
}

func roundContour(c Contour, radius float64) Contour {
	n := len(c.Verts)
	if n < 3 {
		return c
	}
	// Only hard corners (no tangent handles) are rounded; curved vertices
	// pass through unchanged.
	outVerts := make([]Vertex, 0, n*2)
	// Magic kappa for circular-ish cubic arcs.
	const kappa = 0.5523
	for i := 0; i < n; i++ {
		v := c.Verts[i]
		if v.In.Length() > 1e-6 || v.Out.Length() > 1e-6 {
			outVerts = append(outVerts, v)
			continue
		}
		if !c.Closed && (i == 0 || i == n-1) {
			outVerts = append(outVerts, v)
			continue
		}
		prev := c.Verts[(i-1+n)%n].P
		next := c.Verts[(i+1)%n].P
		inDir := v.P.Sub(prev)
		outDir := next.Sub(v.P)
		r := radius
		if half := inDir.Length() / 2; r > half {
			r = half
		}
		if half := outDir.Length() / 2; r > half {
			r = half
		}
		if r <= 1e-6 {
			outVerts = append(outVerts, v)
			continue
		}
		inN := inDir.Normalize()
		outN := outDir.Normalize()
		a := v.P.Sub(inN.Mul(r))
		b := v.P.Add(outN.Mul(r))
		outVerts = append(outVerts,
			Vertex{P: a, Out: inN.Mul(r * kappa)},
			Vertex{P: b, In: outN.Mul(-r * kappa)},
		)
	}
	return Contour{Closed: c.Closed, Verts: outVerts}
}

// LineJoin mirrors the stroke join set used by OffsetPath.
type LineJoin int

const (
	JoinMiter LineJoin = 1
	JoinRound LineJoin = 2
	JoinBevel LineJoin = 3
)

// OffsetPath displaces a path along its normals. Self-intersections in
// the result are not merged away: the output is filled with the fill rule
// of the fill that paints it, nonzero unless the fill sets even-odd.
type OffsetPath struct {
	Amount     float64
	Join       LineJoin
	MiterLimit float64
}

func (m OffsetPath) Modify(p *Path) *Path {
	if m.Amount == 0 {
		return p
	}
	var out []Polyline
	for _, pl := range p.Flatten(FlattenTolerance) {
		pts := pl.points()
		if len(pts) < 2 {
			continue
		}
		off := offsetPolyline(pts, m.Amount, m.Join, m.MiterLimit)
		out = append(out, Polyline{Closed: pl.Closed, Pts: off})
	}
	return polylinesToPath(out)
}

func offsetPolyline(pts []Vec2, amount float64, join LineJoin, miterLimit float64) []Vec2 {
	if miterLimit <= 0 {
		miterLimit = 4
	}
	n := len(pts)
	out := make([]Vec2, 0, n)
	normalAt := func(i int) Vec2 {
		a := pts[clampIdx(i, n)]
		b := pts[clampIdx(i+1, n)]
		d := b.Sub(a).Normalize()
		return Vec2{-d.Y, d.X}
	}
	for i := 0; i < n; i++ {
		var nrm Vec2
		switch i {
		case 0:
			nrm = normalAt(0)
		case n - 1:
			nrm = normalAt(n - 2)
		default:
			n1 := normalAt(i - 1)
			n2 := normalAt(i)
			sum := n1.Add(n2)
			if sum.Length() < 1e-6 {
				nrm = n2
			} else {
				nrm = sum.Normalize()
				// Miter scale; clamp to the limit, falling back to a
				// bevel-like flat offset.
				dot := nrm.X*n2.X + nrm.Y*n2.Y
				if dot > 1e-6 {
					scale := 1 / dot
					if join == JoinMiter && scale <= miterLimit {
						nrm = nrm.Mul(scale)
					}
				}
			}
		}
		out = append(out, pts[i].Add(nrm.Mul(amount)))
	}
	return out
}

func clampIdx(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// MergeMode is the boolean operation of a merge-paths item.
type MergeMode int

const (
	MergeSimple    MergeMode = 1
	MergeAdd       MergeMode = 2
	MergeSubtract  MergeMode = 3
	MergeIntersect MergeMode = 4
	MergeExclude   MergeMode = 5
)

// Merged carries the operands of a merge-paths item to the renderer, which
// realises the boolean with fill rules and clips.
type Merged struct {
	Mode  MergeMode
	Paths []*Path
}

// Combined concatenates the operand contours. Subtract reverses the
// contours of every operand after the first so a non-zero fill carves
// them out.
func (m *Merged) Combined() *Path {
	out := &Path{}
	for pi, p := range m.Paths {
		for _, c := range p.Contours {
			if m.Mode == MergeSubtract && pi > 0 {
				c = reverseContour(c)
			}
			out.Contours = append(out.Contours, c)
		}
	}
	return out
}

func reverseContour(c Contour) Contour {
	n := len(c.Verts)
	out := Contour{Closed: c.Closed, Verts: make([]Vertex, n)}
	for i, v := range c.Verts {
		out.Verts[n-1-i] = Vertex{P: v.P, In: v.Out, Out: v.In}
	}
	return out
}

// pathCenter is the centroid of all vertices.
func pathCenter(p *Path) Vec2 {
	var sum Vec2
	count := 0
	for _, c := range p.Contours {
		for _, v := range c.Verts {
			sum = sum.Add(v.P)
			count++
		}
	}
	if count == 0 {
		return Vec2{}
	}
	return sum.Mul(1 / float64(count))
}

// Repeater emits n copies of its operand nodes with cumulative transforms
// and an opacity ramp from start to end copy.
type Repeater struct {
	Copies       float64
	Offset       float64
	Anchor       Vec2
	Position     Vec2
	Scale        Vec2 // fraction, 1 = 100%
	Rotation     float64
	StartOpacity float64
	EndOpacity   float64
}

// CopyTransform returns the transform and opacity of copy i.
func (r Repeater) CopyTransform(i int) (gg.Matrix, float64) {
	k := float64(i) + r.Offset
	m := gg.Translate(r.Position.X*k, r.Position.Y*k)
	m = m.Multiply(gg.Translate(r.Anchor.X, r.Anchor.Y))
	if r.Rotation != 0 {
		m = m.Multiply(gg.Rotate(r.Rotation * math.Pi / 180 * k))
	}
	sx := math.Pow(r.Scale.X, k)
	sy := math.Pow(r.Scale.Y, k)
	m = m.Multiply(gg.Scale(sx, sy))
	m = m.Multiply(gg.Translate(-r.Anchor.X, -r.Anchor.Y))

	opacity := r.StartOpacity
	if n := r.Copies - 1; n > 0 {
		opacity = r.StartOpacity + (r.EndOpacity-r.StartOpacity)*float64(i)/n
	}
	return m, opacity
}
