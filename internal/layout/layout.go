// Package layout wraps the flexbox solver: node styles are synced into a
// parallel flex tree, intrinsic-size elements are measured through a
// callback bridge, and computed rectangles are written back to the arena.
package layout

import (
	"log/slog"
	"math"

	"github.com/kjk/flex"

	"github.com/vporoshin/scene2video/internal/scene"
)

// OverconstraintHook receives nodes whose constraints could not all be
// satisfied; layout proceeds with the solver's best effort.
type OverconstraintHook func(h scene.Handle, reason string)

// Engine computes layout for one arena. The flex tree is rebuilt per pass:
// the scene graph is small relative to raster work and rebuilding avoids
// stale-style bookkeeping.
type Engine struct {
	Log  *slog.Logger
	Hook OverconstraintHook

	config *flex.Config
}

func NewEngine(log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{Log: log, config: flex.NewConfig()}
}

// Compute lays out the subtree under root inside a viewport of w×h and
// stores each node's rectangle (in parent coordinates) into the arena.
// Afterwards post-layout hooks run with final rectangles.
func (e *Engine) Compute(a *scene.Arena, root scene.Handle, w, h float64) {
	if !a.Valid(root) {
		return
	}
	flexRoot := e.buildFlexTree(a, root)
	flexRoot.StyleSetWidth(float32(w))
	flexRoot.StyleSetHeight(float32(h))

	flex.CalculateLayout(flexRoot, float32(w), float32(h), flex.DirectionLTR)

	e.applyLayout(a, root, flexRoot)
	e.runPostLayout(a, root)
}

func (e *Engine) buildFlexTree(a *scene.Arena, h scene.Handle) *flex.Node {
	n, err := a.Get(h)
	if err != nil {
		return flex.NewNodeWithConfig(e.config)
	}
	fn := flex.NewNodeWithConfig(e.config)
	e.syncStyle(fn, &n.Style, h)

	if m, ok := n.Element.(scene.Measurer); ok {
		fn.SetMeasureFunc(func(node *flex.Node, width float32, wm flex.MeasureMode, height float32, hm flex.MeasureMode) flex.Size {
			known := scene.Size{}
			if wm != flex.MeasureModeUndefined && !math.IsNaN(float64(width)) {
				known.W = float64(width)
			}
			if hm != flex.MeasureModeUndefined && !math.IsNaN(float64(height)) {
				known.H = float64(height)
			}
			size := m.Measure(known)
			return flex.Size{Width: float32(size.W), Height: float32(size.H)}
		})
	}

	idx := 0
	for _, child := range childrenOf(a, h) {
		cn := e.buildFlexTree(a, child)
		// Gap support: the solver predates the gap property, so gaps are
		// expressed as leading margins on all but the first child.
		if gap := n.Style.Gap; gap > 0 && idx > 0 {
			if n.Style.Direction == scene.DirectionColumn || n.Style.Direction == scene.DirectionColumnReverse {
				cn.StyleSetMargin(flex.EdgeTop, float32(gap))
			} else {
				cn.StyleSetMargin(flex.EdgeLeft, float32(gap))
			}
		}
		fn.InsertChild(cn, idx)
		idx++
	}
	fn.Context = h
	return fn
}

func childrenOf(a *scene.Arena, h scene.Handle) []scene.Handle {
	n, err := a.Get(h)
	if err != nil {
		return nil
	}
	return n.Children
}

func (e *Engine) applyLayout(a *scene.Arena, h scene.Handle, fn *flex.Node) {
	n, err := a.Get(h)
	if err != nil {
		return
	}
	n.Layout = scene.Rect{
		X: float64(fn.LayoutGetLeft()),
		Y: float64(fn.LayoutGetTop()),
		W: float64(fn.LayoutGetWidth()),
		H: float64(fn.LayoutGetHeight()),
	}
	if e.Hook != nil && (n.Layout.W < 0 || n.Layout.H < 0) {
		e.Hook(h, "negative computed size")
	}
	for i, child := range n.Children {
		if i < len(fn.Children) {
			e.applyLayout(a, child, fn.Children[i])
		}
	}
}

func (e *Engine) runPostLayout(a *scene.Arena, root scene.Handle) {
	a.Descendants(root, func(h scene.Handle, n *scene.Node) {
		if pl, ok := n.Element.(scene.PostLayouter); ok {
			pl.PostLayout(n.Layout)
		}
	})
}

// syncStyle maps a scene style onto a flex node.
func (e *Engine) syncStyle(fn *flex.Node, s *scene.Style, h scene.Handle) {
	switch s.Direction {
	case scene.DirectionColumn:
		fn.StyleSetFlexDirection(flex.FlexDirectionColumn)
	case scene.DirectionRowReverse:
		fn.StyleSetFlexDirection(flex.FlexDirectionRowReverse)
	case scene.DirectionColumnReverse:
		fn.StyleSetFlexDirection(flex.FlexDirectionColumnReverse)
	default:
		fn.StyleSetFlexDirection(flex.FlexDirectionRow)
	}

	switch s.Justify {
	case scene.JustifyCenter:
		fn.StyleSetJustifyContent(flex.JustifyCenter)
	case scene.JustifyEnd:
		fn.StyleSetJustifyContent(flex.JustifyFlexEnd)
	case scene.JustifySpaceBetween:
		fn.StyleSetJustifyContent(flex.JustifySpaceBetween)
	case scene.JustifySpaceAround:
		fn.StyleSetJustifyContent(flex.JustifySpaceAround)
	default:
		fn.StyleSetJustifyContent(flex.JustifyFlexStart)
	}

	fn.StyleSetAlignItems(alignOf(s.AlignItems, flex.AlignStretch))
	if s.AlignSelf != scene.AlignAuto {
		fn.StyleSetAlignSelf(alignOf(s.AlignSelf, flex.AlignAuto))
	}

	fn.StyleSetFlexGrow(float32(s.FlexGrow))
	fn.StyleSetFlexShrink(float32(s.FlexShrink))
	if !s.FlexBasis.IsAuto() {
		setDim(s.FlexBasis, fn.StyleSetFlexBasis, fn.StyleSetFlexBasisPercent)
	}

	setDim(s.Width, fn.StyleSetWidth, fn.StyleSetWidthPercent)
	setDim(s.Height, fn.StyleSetHeight, fn.StyleSetHeightPercent)
	setDim(s.MinWidth, fn.StyleSetMinWidth, fn.StyleSetMinWidthPercent)
	setDim(s.MinHeight, fn.StyleSetMinHeight, fn.StyleSetMinHeightPercent)
	setDim(s.MaxWidth, fn.StyleSetMaxWidth, fn.StyleSetMaxWidthPercent)
	setDim(s.MaxHeight, fn.StyleSetMaxHeight, fn.StyleSetMaxHeightPercent)

	if s.AspectRatio > 0 {
		fn.StyleSetAspectRatio(float32(s.AspectRatio))
	}

	setEdge := func(edge flex.Edge, d scene.Dimension, px func(flex.Edge, float32), pct func(flex.Edge, float32)) {
		switch d.Unit {
		case scene.UnitPx:
			px(edge, float32(d.Value))
		case scene.UnitPercent:
			pct(edge, float32(d.Value))
		}
	}
	setEdge(flex.EdgeLeft, s.Padding.Left, fn.StyleSetPadding, fn.StyleSetPaddingPercent)
	setEdge(flex.EdgeTop, s.Padding.Top, fn.StyleSetPadding, fn.StyleSetPaddingPercent)
	setEdge(flex.EdgeRight, s.Padding.Right, fn.StyleSetPadding, fn.StyleSetPaddingPercent)
	setEdge(flex.EdgeBottom, s.Padding.Bottom, fn.StyleSetPadding, fn.StyleSetPaddingPercent)

	setMargin := func(edge flex.Edge, d scene.Dimension) {
		switch d.Unit {
		case scene.UnitPx:
			fn.StyleSetMargin(edge, float32(d.Value))
		case scene.UnitPercent:
			fn.StyleSetMarginPercent(edge, float32(d.Value))
		}
	}
	setMargin(flex.EdgeLeft, s.Margin.Left)
	setMargin(flex.EdgeTop, s.Margin.Top)
	setMargin(flex.EdgeRight, s.Margin.Right)
	setMargin(flex.EdgeBottom, s.Margin.Bottom)

	if s.Position == scene.PositionAbsolute {
		fn.StyleSetPositionType(flex.PositionTypeAbsolute)
		setPos := func(edge flex.Edge, d scene.Dimension) {
			switch d.Unit {
			case scene.UnitPx:
				fn.StyleSetPosition(edge, float32(d.Value))
			case scene.UnitPercent:
				fn.StyleSetPositionPercent(edge, float32(d.Value))
			}
		}
		setPos(flex.EdgeLeft, s.Inset.Left)
		setPos(flex.EdgeTop, s.Inset.Top)
		setPos(flex.EdgeRight, s.Inset.Right)
		setPos(flex.EdgeBottom, s.Inset.Bottom)
	}

	if s.Overflow == scene.OverflowHidden {
		fn.StyleSetOverflow(flex.OverflowHidden)
	}
}

func alignOf(a scene.Align, def flex.Align) flex.Align {
	switch a {
	case scene.AlignStart:
		return flex.AlignFlexStart
	case scene.AlignCenter:
		return flex.AlignCenter
	case scene.AlignEnd:
		return flex.AlignFlexEnd
	case scene.AlignStretch:
		return flex.AlignStretch
	default:
		return def
	}
}

func setDim(d scene.Dimension, px func(float32), pct func(float32)) {
	switch d.Unit {
	case scene.UnitPx:
		px(float32(d.Value))
	case scene.UnitPercent:
		pct(float32(d.Value))
	}
}
