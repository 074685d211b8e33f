package lottie

import (
	"log/slog"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"

	"github.com/vporoshin/scene2video/internal/anim"
	"github.com/vporoshin/scene2video/internal/assets"
	"github.com/vporoshin/scene2video/internal/render"
)

// Renderer draws a built tree onto a gg context. All paints are
// anti-aliased (the rasteriser default); gradients interpolate in
// unpremultiplied sRGB.
type Renderer struct {
	Assets *assets.Cache
	Font   *text.FontSource
	Log    *slog.Logger
}

// Draw paints the tree into the context.
func (r *Renderer) Draw(gc *gg.Context, node *TreeNode) {
	if r.Log == nil {
		r.Log = slog.Default()
	}
	r.drawNode(gc, node, 1)
}

// needsLayer reports whether the node must render through an offscreen
// buffer: mattes, masks, image filters, or a non-normal blend mode.
func needsLayer(n *TreeNode) bool {
	return n.Matte != nil || len(n.Masks) > 0 || len(n.Effects) > 0 || n.Blend != render.BlendNormal
}

func (r *Renderer) drawNode(gc *gg.Context, n *TreeNode, alpha float64) {
	if n == nil {
		return
	}
	alpha *= n.Alpha
	if alpha <= 0 {
		return
	}

	if !needsLayer(n) {
		gc.Push()
		gc.Transform(n.Transform)
		r.drawContent(gc, n, alpha)
		gc.Pop()
		return
	}

	// Offscreen path: draw the subtree into its own buffer under the
	// accumulated transform, filter it, mask it, then composite. Buffers
	// match the target canvas so scaled placements do not clip.
	sub := gg.NewContext(gc.Width(), gc.Height())
	sub.SetTransform(gc.GetTransform().Multiply(n.Transform))
	r.drawContent(sub, n, 1)

	for _, f := range n.Effects {
		f.Apply(sub.ResizeTarget())
	}

	if len(n.Masks) > 0 {
		coverage := r.maskCoverage(gc.Width(), gc.Height(), gc.GetTransform().Multiply(n.Transform), n.Masks)
		render.ApplyAlphaMask(sub.ResizeTarget(), coverage, false, false)
	}

	if n.Matte != nil {
		matte := gg.NewContext(gc.Width(), gc.Height())
		matte.SetTransform(gc.GetTransform())
		r.drawNode(matte, n.Matte.Node, 1)
		luma := n.Matte.Mode == MatteLuma || n.Matte.Mode == MatteLumaInverted
		inverted := n.Matte.Mode == MatteAlphaInverted || n.Matte.Mode == MatteLumaInverted
		render.ApplyAlphaMask(sub.ResizeTarget(), matte.ResizeTarget(), luma, inverted)
	}

	render.Composite(gc.ResizeTarget(), sub.ResizeTarget(), n.Blend, alpha)
}

// maskCoverage rasterises the mask stack into a coverage buffer, folding
// each mask by its mode in stack order.
func (r *Renderer) maskCoverage(w, h int, transform gg.Matrix, masks []MaskSpec) *gg.Pixmap {
	acc := gg.NewPixmap(w, h)
	for mi, m := range masks {
		mc := gg.NewContext(w, h)
		mc.SetTransform(transform)
		path := m.Path
		if m.Expansion != 0 {
			path = OffsetPath{Amount: m.Expansion, Join: JoinRound}.Modify(path)
		}
		r.setPath(mc, path)
		mc.SetRGBA(1, 1, 1, m.Opacity)
		_ = mc.Fill()
		cov := mc.ResizeTarget()

		ad := acc.Data()
		cd := cov.Data()
		mode := m.Mode
		if m.Inverted {
			for i := 3; i < len(cd); i += 4 {
				cd[i] = 255 - cd[i]
			}
		}
		for i := 3; i < len(ad); i += 4 {
			a, c := float64(ad[i])/255, float64(cd[i])/255
			var out float64
			switch mode {
			case "s": // subtract
				out = a * (1 - c)
			case "i": // intersect
				out = a * c
			case "l": // lighten
				out = maxf(a, c)
			case "d": // darken
				if mi == 0 {
					out = c
				} else {
					out = minf(a, c)
				}
			case "f": // difference
				out = a + c - 2*a*c
			case "n": // none
				out = a
			default: // add
				out = minf(a+c, 1)
			}
			ad[i] = uint8(out*255 + 0.5)
		}
	}
	return acc
}

func (r *Renderer) drawContent(gc *gg.Context, n *TreeNode, alpha float64) {
	switch c := n.Content.(type) {
	case Group:
		for _, child := range c.Children {
			r.drawNode(gc, child, alpha)
		}
	case PrecompContent:
		gc.Push()
		if c.W > 0 && c.H > 0 {
			gc.ClipRect(0, 0, c.W, c.H)
		}
		for _, child := range c.Children {
			r.drawNode(gc, child, alpha)
		}
		if c.W > 0 && c.H > 0 {
			gc.ResetClip()
		}
		gc.Pop()
	case SolidContent:
		gc.SetColor(gg.RGBA{R: c.Color[0], G: c.Color[1], B: c.Color[2], A: c.Color[3] * alpha}.Color())
		gc.DrawRectangle(0, 0, c.W, c.H)
		_ = gc.Fill()
	case ImageContent:
		if r.Assets == nil {
			return
		}
		img := r.Assets.Image(c.Key)
		buf := gg.ImageBufFromImage(img)
		gc.DrawImageEx(buf, gg.DrawImageOptions{
			DstWidth:  c.W,
			DstHeight: c.H,
			Opacity:   alpha,
			BlendMode: gg.BlendNormal,
		})
	case TextContent:
		r.drawText(gc, c.Doc, alpha)
	case *ShapeContent:
		r.drawShape(gc, c, alpha)
	}
}

func (r *Renderer) drawText(gc *gg.Context, doc TextDocument, alpha float64) {
	if r.Font == nil || doc.Text == "" {
		return
	}
	face := r.Font.Face(doc.Size)
	gc.SetFont(face)
	col := anim.Color{0, 0, 0, 1}
	if len(doc.FillColor) >= 3 {
		col = anim.Color{doc.FillColor[0], doc.FillColor[1], doc.FillColor[2], 1}
	}
	gc.SetColor(gg.RGBA{R: col[0], G: col[1], B: col[2], A: col[3] * alpha}.Color())

	// Justification: 0 left, 1 right, 2 center, relative to the anchor.
	ax := 0.0
	switch doc.Justify {
	case 1:
		ax = 1
	case 2:
		ax = 0.5
	}
	w, _ := gc.MeasureString(doc.Text)
	gc.DrawString(doc.Text, -w*ax, 0)
}

func (r *Renderer) drawShape(gc *gg.Context, c *ShapeContent, alpha float64) {
	geom := c.Geometry
	rule := gg.FillRuleNonZero
	clip := false

	if c.Merged != nil {
		switch c.Merged.Mode {
		case MergeExclude:
			rule = gg.FillRuleEvenOdd
			geom = c.Merged.Combined()
		case MergeIntersect:
			// Intersection: clip to the first operand, fill the rest.
			clip = true
			geom = c.Merged.Combined()
		default:
			geom = c.Merged.Combined()
		}
	}
	if geom == nil {
		return
	}

	trimmed := geom
	if c.Trim != nil && !c.Trim.IsFull() {
		trimmed = c.Trim.Apply(geom)
	}
	if len(trimmed.Contours) == 0 {
		return
	}

	if clip && c.Merged != nil && len(c.Merged.Paths) > 1 {
		gc.Push()
		r.setPath(gc, c.Merged.Paths[0])
		gc.Clip()
		defer func() {
			gc.ResetClip()
			gc.Pop()
		}()
		rest := &Path{}
		for _, p := range c.Merged.Paths[1:] {
			rest.Contours = append(rest.Contours, p.Contours...)
		}
		trimmed = rest
		if c.Trim != nil && !c.Trim.IsFull() {
			trimmed = c.Trim.Apply(rest)
		}
	}

	if c.Fill != nil {
		r.setPath(gc, trimmed)
		if c.Fill.Rule == gg.FillRuleEvenOdd || rule == gg.FillRuleEvenOdd {
			gc.SetFillRule(gg.FillRuleEvenOdd)
		} else {
			gc.SetFillRule(gg.FillRuleNonZero)
		}
		r.applyPaint(gc, c.Fill.Paint, c.Fill.Opacity*alpha, false)
		_ = gc.Fill()
	}
	if c.Stroke != nil && c.Stroke.Width > 0 {
		r.setPath(gc, trimmed)
		stroke := gg.DefaultStroke().
			WithWidth(c.Stroke.Width).
			WithCap(c.Stroke.Cap).
			WithJoin(c.Stroke.Join)
		if c.Stroke.MiterLimit > 0 {
			stroke = stroke.WithMiterLimit(c.Stroke.MiterLimit)
		}
		if len(c.Stroke.Dashes) > 0 {
			stroke = stroke.WithDashPattern(c.Stroke.Dashes...).
				WithDashOffset(c.Stroke.DashOffset)
		}
		gc.SetStroke(stroke)
		r.applyPaint(gc, c.Stroke.Paint, c.Stroke.Opacity*alpha, true)
		_ = gc.Stroke()
	}
}

// setPath loads a lottie path into the context's current path.
func (r *Renderer) setPath(gc *gg.Context, p *Path) {
	gc.ClearPath()
	for i := range p.Contours {
		c := &p.Contours[i]
		if len(c.Verts) == 0 {
			continue
		}
		gc.MoveTo(c.Verts[0].P.X, c.Verts[0].P.Y)
		c.segments(func(p0, c1, c2, p1 Vec2) {
			gc.CubicTo(c1.X, c1.Y, c2.X, c2.Y, p1.X, p1.Y)
		})
		if c.Closed {
			gc.ClosePath()
		}
	}
}

func (r *Renderer) applyPaint(gc *gg.Context, p Paint, opacity float64, stroke bool) {
	var brush gg.Brush
	switch p.Kind {
	case PaintLinearGradient:
		g := gg.NewLinearGradientBrush(p.Start.X, p.Start.Y, p.End.X, p.End.Y)
		for _, s := range p.Stops {
			g.AddColorStop(s.Offset, gg.RGBA{R: s.Color[0], G: s.Color[1], B: s.Color[2], A: s.Color[3] * opacity})
		}
		brush = g
	case PaintRadialGradient:
		radius := p.End.Sub(p.Start).Length()
		g := gg.NewRadialGradientBrush(p.Start.X, p.Start.Y, 0, radius)
		for _, s := range p.Stops {
			g.AddColorStop(s.Offset, gg.RGBA{R: s.Color[0], G: s.Color[1], B: s.Color[2], A: s.Color[3] * opacity})
		}
		brush = g
	default:
		brush = gg.Solid(gg.RGBA{R: p.Color[0], G: p.Color[1], B: p.Color[2], A: p.Color[3] * opacity})
	}
	if stroke {
		gc.SetStrokeBrush(brush)
	} else {
		gc.SetFillBrush(brush)
	}
}
