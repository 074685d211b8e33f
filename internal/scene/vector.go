package scene

import (
	"strconv"
	"strings"

	"github.com/gogpu/gg"

	"github.com/vporoshin/scene2video/internal/anim"
)

// Vector renders a static path, optionally filled and stroked; no trimming
// is applied. Path data
// uses the SVG subset M/L/H/V/C/Q/Z in absolute or relative form.
type Vector struct {
	Path *gg.Path

	FillColor   *anim.Animated[anim.Color]
	StrokeColor *anim.Animated[anim.Color]
	StrokeWidth *anim.Animated[float64]
	hasFill     bool
	hasStroke   bool

	intrinsic Size
}

// NewVector parses path data into a vector element. Invalid trailing data
// is ignored, matching lenient SVG consumers.
func NewVector(pathData string) *Vector {
	p := parsePathData(pathData)
	bb := p.BoundingBox()
	return &Vector{
		Path:        p,
		FillColor:   anim.NewAnimated(anim.Color{}, anim.LerpColor),
		StrokeColor: anim.NewAnimated(anim.Color{}, anim.LerpColor),
		StrokeWidth: anim.NewAnimated(0.0, anim.LerpFloat),
		intrinsic:   Size{W: bb.Width(), H: bb.Height()},
	}
}

func (v *Vector) SetFill(c anim.Color) {
	v.FillColor.Set(c)
	v.hasFill = true
}

func (v *Vector) SetStroke(c anim.Color, width float64) {
	v.StrokeColor.Set(c)
	v.StrokeWidth.Set(width)
	v.hasStroke = true
}

func (v *Vector) Update(t, duration float64) {}

// SetFrameProps ticks the vector's animators.
func (v *Vector) SetFrameProps(frame float64) {
	v.FillColor.SetFrame(frame)
	v.StrokeColor.SetFrame(frame)
	v.StrokeWidth.SetFrame(frame)
}

func (v *Vector) Measure(known Size) Size {
	out := v.intrinsic
	if known.W > 0 {
		out.W = known.W
	}
	if known.H > 0 {
		out.H = known.H
	}
	return out
}

func (v *Vector) Render(rc *RenderContext, rect Rect) {
	gc := rc.GC
	gc.Push()
	gc.Translate(rect.X, rect.Y)

	// Scale the path bounds into the layout box.
	bb := v.Path.BoundingBox()
	if bb.Width() > 0 && bb.Height() > 0 && rect.W > 0 && rect.H > 0 {
		gc.Scale(rect.W/bb.Width(), rect.H/bb.Height())
		gc.Translate(-bb.Min.X, -bb.Min.Y)
	}

	path := v.Path
	if v.hasFill && v.FillColor.Current[3] > 0 {
		drawPathInto(gc, path)
		gc.SetColor(ggColor(v.FillColor.Current, rc.Opacity).Color())
		_ = gc.Fill()
	}
	if v.hasStroke && v.StrokeWidth.Current > 0 {
		drawPathInto(gc, path)
		gc.SetColor(ggColor(v.StrokeColor.Current, rc.Opacity).Color())
		gc.SetLineWidth(v.StrokeWidth.Current)
		_ = gc.Stroke()
	}
	gc.Pop()
}

func (v *Vector) AnimateProperty(name string, start, target, startFrame, durFrames float64, easing anim.Easing) bool {
	switch name {
	case "stroke_width", "line_width":
		v.StrokeWidth.AddSegment(start, target, startFrame, durFrames, easing)
		v.hasStroke = true
		return true
	}
	return false
}

// drawPathInto replays a retained path onto the context's current path.
func drawPathInto(gc *gg.Context, p *gg.Path) {
	gc.ClearPath()
	for _, el := range p.Elements() {
		switch e := el.(type) {
		case gg.MoveTo:
			gc.MoveTo(e.Point.X, e.Point.Y)
		case gg.LineTo:
			gc.LineTo(e.Point.X, e.Point.Y)
		case gg.QuadTo:
			gc.QuadraticTo(e.Control.X, e.Control.Y, e.Point.X, e.Point.Y)
		case gg.CubicTo:
			gc.CubicTo(e.Control1.X, e.Control1.Y, e.Control2.X, e.Control2.Y, e.Point.X, e.Point.Y)
		case gg.Close:
			gc.ClosePath()
		}
	}
}

// parsePathData handles the M/L/H/V/C/Q/Z SVG subset.
func parsePathData(d string) *gg.Path {
	p := gg.NewPath()
	toks := tokenizePath(d)
	var cx, cy float64
	var startX, startY float64
	i := 0
	cmd := byte(0)

	read := func() float64 {
		if i >= len(toks) {
			return 0
		}
		v, _ := strconv.ParseFloat(toks[i], 64)
		i++
		return v
	}

	for i < len(toks) {
		tok := toks[i]
		if len(tok) == 1 && isPathCmd(tok[0]) {
			cmd = tok[0]
			i++
		}
		rel := cmd >= 'a'
		switch cmd {
		case 'M', 'm':
			x, y := read(), read()
			if rel {
				x, y = cx+x, cy+y
			}
			p.MoveTo(x, y)
			cx, cy, startX, startY = x, y, x, y
			// Subsequent pairs are implicit line-tos.
			if cmd == 'M' {
				cmd = 'L'
			} else {
				cmd = 'l'
			}
		case 'L', 'l':
			x, y := read(), read()
			if rel {
				x, y = cx+x, cy+y
			}
			p.LineTo(x, y)
			cx, cy = x, y
		case 'H', 'h':
			x := read()
			if rel {
				x = cx + x
			}
			p.LineTo(x, cy)
			cx = x
		case 'V', 'v':
			y := read()
			if rel {
				y = cy + y
			}
			p.LineTo(cx, y)
			cy = y
		case 'C', 'c':
			x1, y1, x2, y2, x, y := read(), read(), read(), read(), read(), read()
			if rel {
				x1, y1, x2, y2, x, y = cx+x1, cy+y1, cx+x2, cy+y2, cx+x, cy+y
			}
			p.CubicTo(x1, y1, x2, y2, x, y)
			cx, cy = x, y
		case 'Q', 'q':
			x1, y1, x, y := read(), read(), read(), read()
			if rel {
				x1, y1, x, y = cx+x1, cy+y1, cx+x, cy+y
			}
			p.QuadraticTo(x1, y1, x, y)
			cx, cy = x, y
		case 'Z', 'z':
			p.Close()
			cx, cy = startX, startY
		default:
			i++
		}
	}
	return p
}

func isPathCmd(b byte) bool {
	switch b {
	case 'M', 'm', 'L', 'l', 'H', 'h', 'V', 'v', 'C', 'c', 'Q', 'q', 'Z', 'z':
		return true
	}
	return false
}

func tokenizePath(d string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(d); i++ {
		c := d[i]
		switch {
		case isPathCmd(c):
			flush()
			out = append(out, string(c))
		case c == ',' || c == ' ' || c == '\n' || c == '\t' || c == '\r':
			flush()
		case c == '-':
			// A minus starts a new number unless it follows an exponent.
			if cur.Len() > 0 && !strings.HasSuffix(cur.String(), "e") {
				flush()
			}
			cur.WriteByte(c)
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return out
}
