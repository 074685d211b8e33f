package lottie

import (
	"math"

	"github.com/gogpu/gg"

	"github.com/vporoshin/scene2video/internal/anim"
)

// pendingGeometry is geometry awaiting a fill or stroke. Shape transforms
// that appear later in the stack still apply to it.
type pendingGeometry struct {
	path      *Path
	merged    *Merged
	transform gg.Matrix
}

func (g *pendingGeometry) resolved() (*Path, *Merged) {
	if g.merged != nil {
		if g.transform.IsIdentity() {
			return nil, g.merged
		}
		out := &Merged{Mode: g.merged.Mode}
		for _, p := range g.merged.Paths {
			out.Paths = append(out.Paths, p.Transform(g.transform))
		}
		return nil, out
	}
	if g.transform.IsIdentity() {
		return g.path, nil
	}
	return g.path.Transform(g.transform), nil
}

// processShapes walks a shape stack at one frame. Fills and strokes apply
// to the geometry accumulated before them in source order; the returned
// nodes are in paint order, the reverse of source order, so the first
// array item ends up topmost. Trim state threads through group recursion.
func (b *builder) processShapes(shapes []*Shape, frame float64, inherited *Trim) []*TreeNode {
	var nodes []*TreeNode
	var active []*pendingGeometry

	// Trim is resolved in a pre-pass over the sibling list so geometry
	// declared before the trim item is still affected.
	trim := inherited
	for _, item := range shapes {
		if item.Type == "tm" && !bool(item.Hidden) {
			mode := TrimSimultaneous
			if item.TrimMode == 2 {
				mode = TrimSequential
			}
			trim = &Trim{
				Start:  item.ShapeSize.Scalar(frame, 0) / 100,
				End:    item.End.Scalar(frame, 100) / 100,
				Offset: item.Opacity.Scalar(frame, 0) / 360,
				Mode:   mode,
			}
		}
	}

	emit := func(fill *FillSpec, stroke *StrokeSpec) {
		// Sequential trim distributes the window across the sibling
		// geometries in draw order instead of applying it to each one.
		var seqWindows []Trim
		if trim != nil && trim.Mode == TrimSequential && len(active) > 1 {
			seqWindows = trim.SequentialWindows(len(active))
		}
		for gi, g := range active {
			path, merged := g.resolved()
			sc := &ShapeContent{Geometry: path, Merged: merged, Fill: fill, Stroke: stroke}
			switch {
			case seqWindows != nil:
				tcopy := seqWindows[gi]
				sc.Trim = &tcopy
			case trim != nil:
				tcopy := *trim
				sc.Trim = &tcopy
			}
			nodes = append(nodes, &TreeNode{
				Transform: gg.Identity(),
				Alpha:     1,
				Content:   sc,
			})
		}
	}

	for _, item := range shapes {
		if bool(item.Hidden) {
			continue
		}
		switch item.Type {
		case "gr":
			children := b.processShapes(item.Items, frame, trim)
			nodes = append(nodes, &TreeNode{
				Transform: gg.Identity(),
				Alpha:     1,
				Content:   Group{Children: children},
			})

		case "sh":
			if c := item.PathData.ContourAt(frame); c != nil {
				active = append(active, &pendingGeometry{
					path:      &Path{Contours: []Contour{*c}},
					transform: gg.Identity(),
				})
			}

		case "rc":
			size := item.ShapeSize.Vec2At(frame, 0, 0)
			pos := item.Position.At(frame, 0, 0)
			r := 0.0
			if item.Roundness != nil {
				r = item.Roundness.Scalar(frame, 0)
			}
			active = append(active, &pendingGeometry{
				path:      rectPath(pos, size, r),
				transform: gg.Identity(),
			})

		case "el":
			size := item.ShapeSize.Vec2At(frame, 0, 0)
			pos := item.Position.At(frame, 0, 0)
			active = append(active, &pendingGeometry{
				path:      ellipsePath(pos, size),
				transform: gg.Identity(),
			})

		case "sr":
			active = append(active, &pendingGeometry{
				path:      b.polystarPath(item, frame),
				transform: gg.Identity(),
			})

		case "mm":
			if len(active) > 0 {
				merged := &Merged{Mode: MergeMode(item.MergeMode)}
				for _, g := range active {
					p, sub := g.resolved()
					if p != nil {
						merged.Paths = append(merged.Paths, p)
					} else if sub != nil {
						merged.Paths = append(merged.Paths, sub.Combined())
					}
				}
				active = active[:0]
				active = append(active, &pendingGeometry{merged: merged, transform: gg.Identity()})
			}

		case "tr":
			// A shape transform applies to pending geometry and to nodes
			// already materialised from earlier siblings.
			if item.Transform != nil {
				local := b.transformMatrix(item.Transform, frame)
				alpha := 1.0
				if item.Transform.Opacity != nil {
					alpha = anim.Clamp(item.Transform.Opacity.Scalar(frame, 100)/100, 0, 1)
				}
				for _, g := range active {
					g.transform = local.Multiply(g.transform)
				}
				for _, n := range nodes {
					n.Transform = local.Multiply(n.Transform)
					n.Alpha *= alpha
				}
			}

		case "rd":
			if r := item.Roundness.Scalar(frame, 0); r > 0 {
				b.applyModifier(active, RoundCorners{Radius: r})
			}

		case "zz":
			mod := ZigZag{
				Ridges: item.Roundness.Scalar(frame, 0),
				Size:   item.ShapeSize.Scalar(frame, 0),
				Smooth: item.Points.Scalar(frame, 1) > 1.5,
			}
			b.applyModifier(active, mod)

		case "pb":
			b.applyModifier(active, PuckerBloat{Amount: item.Amount.Scalar(frame, 0)})

		case "tw":
			center := Vec2{0, 0}
			if item.Color != nil {
				center = item.Color.Vec2At(frame, 0, 0)
			}
			b.applyModifier(active, Twist{
				Angle:  item.Amount.Scalar(frame, 0),
				Center: center,
			})

		case "op":
			b.applyModifier(active, OffsetPath{
				Amount:     item.Amount.Scalar(frame, 0),
				Join:       LineJoin(item.LineJoin),
				MiterLimit: item.MiterLimit,
			})

		case "wgl":
			speed := 0.0
			if item.ShapeSize != nil {
				speed = item.ShapeSize.Scalar(frame, 0)
			}
			size := 0.0
			if item.Width != nil {
				size = item.Width.Scalar(frame, 0)
			}
			seed := 0.0
			if item.WiggleSeed != nil {
				seed = item.WiggleSeed.Scalar(frame, 0)
			}
			b.applyModifier(active, Wiggle{
				Seed:   seed,
				Time:   frame,
				Speed:  speed / b.comp.FrameRate,
				Amount: size,
			})

		case "rp":
			b.applyRepeater(item, frame, &active, &nodes)

		case "fl":
			color := item.Color.ColorAt(frame, anim.Color{1, 1, 1, 1})
			opacity := anim.Clamp(item.Opacity.Scalar(frame, 100)/100, 0, 1)
			rule := gg.FillRuleNonZero
			if item.Roundness != nil && item.Roundness.Scalar(frame, 1) == 2 {
				rule = gg.FillRuleEvenOdd
			}
			emit(&FillSpec{
				Paint:   Paint{Kind: PaintSolid, Color: color},
				Opacity: opacity,
				Rule:    rule,
			}, nil)

		case "gf":
			paint := b.gradientPaint(item, frame)
			opacity := anim.Clamp(item.Opacity.Scalar(frame, 100)/100, 0, 1)
			emit(&FillSpec{Paint: paint, Opacity: opacity, Rule: gg.FillRuleNonZero}, nil)

		case "st":
			color := item.Color.ColorAt(frame, anim.Color{1, 1, 1, 1})
			emit(nil, b.strokeSpec(item, frame, Paint{Kind: PaintSolid, Color: color}))

		case "gs":
			emit(nil, b.strokeSpec(item, frame, b.gradientPaint(item, frame)))
		}
	}
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	return nodes
}

func (b *builder) applyModifier(active []*pendingGeometry, mod Modifier) {
	for _, g := range active {
		if g.merged != nil {
			for i, p := range g.merged.Paths {
				g.merged.Paths[i] = mod.Modify(p)
			}
			continue
		}
		g.path = mod.Modify(g.path)
	}
}

func (b *builder) applyRepeater(item *Shape, frame float64, active *[]*pendingGeometry, nodes *[]*TreeNode) {
	if item.Transform == nil {
		return
	}
	copies := item.Color.Scalar(frame, 0) // c
	offset := 0.0
	if item.Opacity != nil {
		offset = item.Opacity.Scalar(frame, 0) // o
	}
	tr := item.Transform
	anchor := tr.Anchor.At(frame, 0, 0)
	pos := tr.Position.At(frame, 0, 0)
	scale := Vec2{1, 1}
	if tr.Scale != nil {
		v := tr.Scale.Value(frame, []float64{100, 100})
		scale = Vec2{v[0] / 100, v[1] / 100}
	}
	rot := 0.0
	if tr.Rotation != nil {
		rot = tr.Rotation.Scalar(frame, 0)
	}
	so, eo := 1.0, 1.0
	if tr.StartOpacity != nil {
		so = tr.StartOpacity.Scalar(frame, 100) / 100
	}
	if tr.EndOpacity != nil {
		eo = tr.EndOpacity.Scalar(frame, 100) / 100
	}
	rep := Repeater{
		Copies: copies, Offset: offset,
		Anchor: Vec2{anchor.X, anchor.Y}, Position: Vec2{pos.X, pos.Y},
		Scale: scale, Rotation: rot,
		StartOpacity: so, EndOpacity: eo,
	}

	n := int(copies)
	if n <= 0 {
		return
	}

	// The repeater multiplies both pending geometry and already emitted
	// sibling nodes.
	var newActive []*pendingGeometry
	for i := 0; i < n; i++ {
		m, _ := rep.CopyTransform(i)
		for _, g := range *active {
			ng := &pendingGeometry{transform: m.Multiply(g.transform)}
			if g.merged != nil {
				ng.merged = g.merged
			} else if g.path != nil {
				ng.path = g.path
			}
			newActive = append(newActive, ng)
		}
	}
	*active = newActive

	if len(*nodes) > 0 {
		original := *nodes
		var newNodes []*TreeNode
		for i := 0; i < n; i++ {
			m, opacity := rep.CopyTransform(i)
			for _, src := range original {
				newNodes = append(newNodes, &TreeNode{
					Transform: m.Multiply(src.Transform),
					Alpha:     src.Alpha * opacity,
					Blend:     src.Blend,
					Content:   src.Content,
					Masks:     src.Masks,
					Matte:     src.Matte,
					Effects:   src.Effects,
				})
			}
		}
		*nodes = newNodes
	}
}

func (b *builder) strokeSpec(item *Shape, frame float64, paint Paint) *StrokeSpec {
	width := 1.0
	if item.Width != nil {
		width = item.Width.Scalar(frame, 1)
	}
	opacity := anim.Clamp(item.Opacity.Scalar(frame, 100)/100, 0, 1)

	spec := &StrokeSpec{
		Paint:      paint,
		Opacity:    opacity,
		Width:      width,
		MiterLimit: item.MiterLimit,
	}
	switch item.LineCap {
	case 1:
		spec.Cap = gg.LineCapButt
	case 3:
		spec.Cap = gg.LineCapSquare
	default:
		spec.Cap = gg.LineCapRound
	}
	switch item.LineJoin {
	case 1:
		spec.Join = gg.LineJoinMiter
	case 3:
		spec.Join = gg.LineJoinBevel
	default:
		spec.Join = gg.LineJoinRound
	}
	for _, d := range item.Dashes {
		if d.Value == nil {
			continue
		}
		v := d.Value.Scalar(frame, 0)
		if d.Name == "o" {
			spec.DashOffset = v
		} else {
			spec.Dashes = append(spec.Dashes, v)
		}
	}
	return spec
}

// gradientPaint resolves a gradient fill or stroke paint at a frame.
func (b *builder) gradientPaint(item *Shape, frame float64) Paint {
	kind := PaintLinearGradient
	if item.GradType == 2 {
		kind = PaintRadialGradient
	}
	paint := Paint{
		Kind:  kind,
		Start: item.ShapeSize.Vec2At(frame, 0, 0), // s
		End:   item.End.Vec2At(frame, 0, 0),       // e
	}
	if item.Gradient != nil && item.Gradient.Stops != nil {
		raw := item.Gradient.Stops.Value(frame, nil)
		paint.Stops = parseGradientStops(raw, item.Gradient.Count)
	}
	if len(paint.Stops) == 0 {
		paint.Stops = []GradientStop{
			{Offset: 0, Color: anim.Color{1, 1, 1, 1}},
			{Offset: 1, Color: anim.Color{1, 1, 1, 1}},
		}
	}
	return paint
}

// parseGradientStops unpacks the packed Lottie stop array: count color
// stops of (offset, r, g, b) followed by optional (offset, alpha) pairs.
// Alpha stops merge into the color ramp by linear interpolation, in
// unpremultiplied sRGB.
func parseGradientStops(raw []float64, count int) []GradientStop {
	if count <= 0 || len(raw) < count*4 {
		// Fall back to treating the whole array as color stops.
		count = len(raw) / 4
	}
	if count <= 0 {
		return nil
	}
	stops := make([]GradientStop, 0, count)
	for i := 0; i < count; i++ {
		o := raw[i*4]
		stops = append(stops, GradientStop{
			Offset: o,
			Color:  anim.Color{raw[i*4+1], raw[i*4+2], raw[i*4+3], 1},
		})
	}

	alphaRaw := raw[count*4:]
	if len(alphaRaw) >= 2 {
		type alphaStop struct{ off, a float64 }
		var alphas []alphaStop
		for i := 0; i+1 < len(alphaRaw); i += 2 {
			alphas = append(alphas, alphaStop{alphaRaw[i], alphaRaw[i+1]})
		}
		alphaAt := func(off float64) float64 {
			if len(alphas) == 0 {
				return 1
			}
			if off <= alphas[0].off {
				return alphas[0].a
			}
			for i := 1; i < len(alphas); i++ {
				if off <= alphas[i].off {
					span := alphas[i].off - alphas[i-1].off
					if span <= 0 {
						return alphas[i].a
					}
					t := (off - alphas[i-1].off) / span
					return alphas[i-1].a + (alphas[i].a-alphas[i-1].a)*t
				}
			}
			return alphas[len(alphas)-1].a
		}
		for i := range stops {
			stops[i].Color[3] = alphaAt(stops[i].Offset)
		}
	}
	return stops
}

// rectPath builds a rect centered at pos, with clockwise winding and the
// corner radius clamped to half the shorter side.
func rectPath(pos, size Vec2, radius float64) *Path {
	w, h := size.X, size.Y
	x0, y0 := pos.X-w/2, pos.Y-h/2
	if radius > 0 {
		if half := math.Min(w, h) / 2; radius > half {
			radius = half
		}
		const k = 0.5523
		r := radius
		c := Contour{Closed: true, Verts: []Vertex{
			{P: Vec2{x0 + r, y0}},
			{P: Vec2{x0 + w - r, y0}, Out: Vec2{r * k, 0}},
			{P: Vec2{x0 + w, y0 + r}, In: Vec2{0, -r * k}},
			{P: Vec2{x0 + w, y0 + h - r}, Out: Vec2{0, r * k}},
			{P: Vec2{x0 + w - r, y0 + h}, In: Vec2{r * k, 0}},
			{P: Vec2{x0 + r, y0 + h}, Out: Vec2{-r * k, 0}},
			{P: Vec2{x0, y0 + h - r}, In: Vec2{0, r * k}},
			{P: Vec2{x0, y0 + r}, Out: Vec2{0, -r * k}},
			{P: Vec2{x0 + r, y0}, In: Vec2{-r * k, 0}},
		}}
		return &Path{Contours: []Contour{c}}
	}
	c := Contour{Closed: true, Verts: []Vertex{
		{P: Vec2{x0, y0}},
		{P: Vec2{x0 + w, y0}},
		{P: Vec2{x0 + w, y0 + h}},
		{P: Vec2{x0, y0 + h}},
	}}
	return &Path{Contours: []Contour{c}}
}

// ellipsePath approximates an ellipse with four cubic arcs.
func ellipsePath(pos, size Vec2) *Path {
	rx, ry := size.X/2, size.Y/2
	const k = 0.5523
	cx, cy := pos.X, pos.Y
	c := Contour{Closed: true, Verts: []Vertex{
		{P: Vec2{cx, cy - ry}, In: Vec2{-rx * k, 0}, Out: Vec2{rx * k, 0}},
		{P: Vec2{cx + rx, cy}, In: Vec2{0, -ry * k}, Out: Vec2{0, ry * k}},
		{P: Vec2{cx, cy + ry}, In: Vec2{rx * k, 0}, Out: Vec2{-rx * k, 0}},
		{P: Vec2{cx - rx, cy}, In: Vec2{0, ry * k}, Out: Vec2{0, -ry * k}},
	}}
	return &Path{Contours: []Contour{c}}
}

// polystarPath builds a star (sy=1) or polygon (sy=2).
func (b *builder) polystarPath(item *Shape, frame float64) *Path {
	pos := item.Position.At(frame, 0, 0)
	points := item.Points.Scalar(frame, 5)
	rotation := 0.0
	if item.Roundness != nil {
		rotation = item.Roundness.Scalar(frame, 0)
	}
	outer := 0.0
	if item.OuterRadius != nil {
		outer = item.OuterRadius.Scalar(frame, 0)
	}
	inner := outer / 2
	if item.InnerRadius != nil {
		inner = item.InnerRadius.Scalar(frame, 0)
	}

	n := int(points)
	if n < 3 {
		n = 3
	}
	star := item.StarType != 2

	var verts []Vertex
	// Start pointing up; rotation is clockwise-positive degrees.
	base := -math.Pi/2 + rotation*math.Pi/180
	if star {
		step := math.Pi / float64(n)
		for i := 0; i < n*2; i++ {
			r := outer
			if i%2 == 1 {
				r = inner
			}
			a := base + float64(i)*step
			verts = append(verts, Vertex{P: Vec2{
				pos.X + r*math.Cos(a),
				pos.Y + r*math.Sin(a),
			}})
		}
	} else {
		step := 2 * math.Pi / float64(n)
		for i := 0; i < n; i++ {
			a := base + float64(i)*step
			verts = append(verts, Vertex{P: Vec2{
				pos.X + outer*math.Cos(a),
				pos.Y + outer*math.Sin(a),
			}})
		}
	}
	return &Path{Contours: []Contour{{Closed: true, Verts: verts}}}
}

// parseHexColor parses #RGB, #RRGGBB and #RRGGBBAA solid-layer colors.
func parseHexColor(s string) anim.Color {
	if s == "" {
		return anim.Color{0, 0, 0, 1}
	}
	if s[0] == '#' {
		s = s[1:]
	}
	hex := func(sub string) float64 {
		v := 0.0
		for i := 0; i < len(sub); i++ {
			c := sub[i]
			var d byte
			switch {
			case c >= '0' && c <= '9':
				d = c - '0'
			case c >= 'a' && c <= 'f':
				d = c - 'a' + 10
			case c >= 'A' && c <= 'F':
				d = c - 'A' + 10
			}
			v = v*16 + float64(d)
		}
		max := math.Pow(16, float64(len(sub))) - 1
		if max <= 0 {
			return 0
		}
		return v / max
	}
	switch len(s) {
	case 3:
		return anim.Color{hex(s[0:1]), hex(s[1:2]), hex(s[2:3]), 1}
	case 6:
		return anim.Color{hex(s[0:2]), hex(s[2:4]), hex(s[4:6]), 1}
	case 8:
		return anim.Color{hex(s[0:2]), hex(s[2:4]), hex(s[4:6]), hex(s[6:8])}
	}
	return anim.Color{0, 0, 0, 1}
}
