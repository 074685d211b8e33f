package lottie

import "github.com/vporoshin/scene2video/internal/anim"

// TrimMode distributes the trim window over sibling shapes.
type TrimMode int

const (
	// TrimSimultaneous applies the window to each shape individually.
	TrimSimultaneous TrimMode = iota + 1
	// TrimSequential spreads the window across siblings in draw order, as
	// if they formed one concatenated path.
	TrimSequential
)

// Trim is the resolved trim state threaded through group recursion: a trim
// set on a group applies to every descendant geometry.
type Trim struct {
	Start, End, Offset float64
	Mode               TrimMode
}

// Window returns the effective [s', e'] window after applying the offset,
// both wrapped into [0,1). The second span is non-empty only when the
// window wraps past 1.
func (t Trim) Window() (s, e float64, wrapped bool) {
	span := t.End - t.Start
	if span < 0 {
		span = -span
	}
	// Full or empty windows short-circuit before wrapping.
	if span >= 0.999 {
		return 0, 1, false
	}
	if span <= 1e-4 {
		return 0, 0, false
	}
	// start > end is not swapped: the window runs forward from s' and
	// wraps at 1, yielding two spans.
	s = anim.EuclidMod(t.Start+t.Offset, 1)
	e = anim.EuclidMod(t.End+t.Offset, 1)
	return s, e, s > e
}

// IsFull reports whether the trim leaves the path untouched.
func (t Trim) IsFull() bool {
	s, e, wrapped := t.Window()
	return !wrapped && s <= 0.0005 && e >= 0.9995
}

// Apply cuts the trim window out of the path, producing an open polyline
// path. A wrapped window emits two spans: [s',1] and [0,e'].
func (t Trim) Apply(p *Path) *Path {
	if t.IsFull() {
		return p
	}
	s, e, wrapped := t.Window()
	if !wrapped && e-s <= 1e-6 {
		return &Path{}
	}

	var out []Polyline
	for _, pl := range p.Flatten(FlattenTolerance) {
		length := pl.Length()
		if length <= 0 {
			continue
		}
		if !wrapped {
			seg := pl.Slice(s*length, e*length)
			if len(seg.Pts) > 1 {
				out = append(out, seg)
			}
			continue
		}
		head := pl.Slice(s*length, length)
		tail := pl.Slice(0, e*length)
		if len(head.Pts) > 1 {
			out = append(out, head)
		}
		if len(tail.Pts) > 1 {
			out = append(out, tail)
		}
	}
	return polylinesToPath(out)
}

// SequentialWindows splits the trim across n siblings: sibling i owns the
// fraction [i/n, (i+1)/n] of the virtual concatenated path, and receives
// the intersection of the global window with its share, rescaled to its
// own [0,1] range.
func (t Trim) SequentialWindows(n int) []Trim {
	out := make([]Trim, n)
	if n == 0 {
		return out
	}
	s, e, wrapped := t.Window()
	spans := [][2]float64{{s, e}}
	if wrapped {
		spans = [][2]float64{{s, 1}, {0, e}}
	}
	for i := 0; i < n; i++ {
		lo := float64(i) / float64(n)
		hi := float64(i+1) / float64(n)
		// Collect the intersection of the global spans with this share.
		var cs, ce float64
		found := false
		for _, sp := range spans {
			a := maxf(sp[0], lo)
			b := minf(sp[1], hi)
			if b > a {
				if !found {
					cs, ce = a, b
					found = true
				} else {
					// Merge disjoint pieces conservatively.
					cs = minf(cs, a)
					ce = maxf(ce, b)
				}
			}
		}
		if !found {
			out[i] = Trim{Start: 0, End: 0, Mode: TrimSimultaneous}
			continue
		}
		out[i] = Trim{
			Start: (cs - lo) / (hi - lo),
			End:   (ce - lo) / (hi - lo),
			Mode:  TrimSimultaneous,
		}
	}
	return out
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
