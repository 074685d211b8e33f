package director

import (
	"github.com/gogpu/gg"

	"github.com/vporoshin/scene2video/internal/anim"
	"github.com/vporoshin/scene2video/internal/render"
	"github.com/vporoshin/scene2video/internal/scene"
)

// UpdateScene runs the update pass for one scene at scene-local time τ:
// every animator is ticked to frame τ·fps and each element gets its update
// callback, then audio bindings override their targets. Animation evaluation
// is pure — the only writes are the per-node scratch values.
func (d *Director) UpdateScene(s *Scene, tau float64) {
	frame := tau * d.FPS
	d.Arena.Descendants(s.Root, func(h scene.Handle, n *scene.Node) {
		n.Transform.SetFrame(frame)
		if ft, ok := n.Element.(scene.FrameTicker); ok {
			ft.SetFrameProps(frame)
		}
		n.Element.Update(tau, s.Duration)
	})
	d.applyAudioBindings(s, tau)
}

// applyAudioBindings overrides animator scratch with band energies after
// the regular tick, so bindings win over keyframes on the same property.
func (d *Director) applyAudioBindings(s *Scene, tau float64) {
	globalT := s.StartTime + tau
	for _, b := range d.Bindings {
		track := d.Track(b.Track)
		if track == nil || !d.Arena.Valid(b.Node) {
			continue
		}
		n, err := d.Arena.Get(b.Node)
		if err != nil {
			continue
		}
		energy := track.BandEnergy(b.Band, globalT)
		value := b.Min + (b.Max-b.Min)*energy
		if b.Smoothing > 0 {
			value = b.prev*b.Smoothing + value*(1-b.Smoothing)
		}
		b.prev = value

		switch b.Property {
		case "scale":
			n.Transform.ScaleX.Current = value
			n.Transform.ScaleY.Current = value
		case "opacity":
			n.Transform.Opacity.Current = anim.Clamp(value, 0, 1)
		case "x":
			n.Transform.X.Current = value
		case "y":
			n.Transform.Y.Current = value
		case "rotation":
			n.Transform.RotateZ.Current = value
		}
	}
}

// LayoutScene syncs styles into the flexbox solver and computes
// rectangles for the scene tree.
func (d *Director) LayoutScene(s *Scene) {
	d.layout.Compute(d.Arena, s.Root, float64(d.Width), float64(d.Height))
}

// RenderScene draws one scene tree into the context. The caller has
// already run Update and Layout for the same τ.
func (d *Director) RenderScene(gc *gg.Context, s *Scene, tau float64, preview bool) error {
	rc := &scene.RenderContext{
		GC:      gc,
		Assets:  d.Assets,
		Log:     d.Log,
		Time:    tau,
		FPS:     d.FPS,
		Preview: preview,
		Opacity: 1,
	}
	d.renderNode(rc, s.Root)
	return rc.Err
}

// renderNode draws one node: transform about its layout box, optional
// offscreen compositing for masks/effects/blends, then children in
// stable z order.
func (d *Director) renderNode(rc *scene.RenderContext, h scene.Handle) {
	n, err := d.Arena.Get(h)
	if err != nil {
		return
	}
	opacity := anim.Clamp(n.Transform.Opacity.Current, 0, 1)
	if opacity <= 0 {
		return
	}
	gc := rc.GC
	rect := n.Layout
	local := rect

	_, isEffect := n.Element.(*scene.Effect)
	needsLayer := n.Mask != scene.None || isEffect || n.BlendMode != int(render.BlendNormal)

	if !needsLayer {
		gc.Push()
		gc.Translate(rect.X, rect.Y)
		gc.Transform(n.Transform.Matrix(rect.W, rect.H))
		prevOpacity := rc.Opacity
		rc.Opacity *= opacity
		d.drawNodeContent(rc, h, n, local)
		rc.Opacity = prevOpacity
		gc.Pop()
		return
	}

	// Offscreen path: subtree renders into its own buffer under the
	// accumulated transform.
	sub := gg.NewContext(gc.Width(), gc.Height())
	base := gc.GetTransform().
		Multiply(gg.Translate(rect.X, rect.Y)).
		Multiply(n.Transform.Matrix(rect.W, rect.H))
	sub.SetTransform(base)

	subRC := *rc
	subRC.GC = sub
	subRC.Opacity = 1
	d.drawNodeContent(&subRC, h, n, local)
	if subRC.Err != nil {
		rc.Fail(subRC.Err)
	}

	if eff, ok := n.Element.(*scene.Effect); ok {
		for _, f := range eff.Filters() {
			f.Apply(sub.ResizeTarget())
		}
	}

	if n.Mask != scene.None && d.Arena.Valid(n.Mask) {
		maskCtx := gg.NewContext(gc.Width(), gc.Height())
		maskCtx.SetTransform(gc.GetTransform())
		maskRC := *rc
		maskRC.GC = maskCtx
		maskRC.Opacity = 1
		d.renderNode(&maskRC, n.Mask)
		render.ApplyAlphaMask(sub.ResizeTarget(), maskCtx.ResizeTarget(), false, false)
	}

	render.Composite(gc.ResizeTarget(), sub.ResizeTarget(), render.BlendMode(n.BlendMode), rc.Opacity*opacity)
}

func (d *Director) drawNodeContent(rc *scene.RenderContext, h scene.Handle, n *scene.Node, local scene.Rect) {
	gc := rc.GC
	clipped := n.Style.Overflow == scene.OverflowHidden
	if clipped {
		gc.Push()
		gc.ClipRect(0, 0, local.W, local.H)
	}

	rc.NodeStyle = &n.Style
	n.Element.Render(rc, scene.Rect{W: local.W, H: local.H})
	rc.NodeStyle = nil

	for _, child := range d.Arena.ChildrenByZ(h) {
		if child == n.Mask {
			continue // mask subtrees are consumed, not painted
		}
		d.renderNode(rc, child)
	}

	if clipped {
		gc.ResetClip()
		gc.Pop()
	}
}
