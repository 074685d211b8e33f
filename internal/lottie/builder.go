package lottie

import (
	"log/slog"
	"math"

	"github.com/gogpu/gg"

	"github.com/vporoshin/scene2video/internal/anim"
	"github.com/vporoshin/scene2video/internal/render"
)

// maxPrecompDepth bounds precomposition recursion so a self-referential
// document cannot hang the build.
const maxPrecompDepth = 16

// builder resolves a composition at one frame into a render tree.
type builder struct {
	comp  *Composition
	log   *slog.Logger
	depth int

	// worldCache memoises per-layer world transforms for parenting.
	// Reset per composition build.
	worldCache map[*Layer]gg.Matrix
	layerByIdx map[int]*Layer
}

// BuildTree resolves the composition at the given frame. The returned root
// group holds layer nodes in paint order (bottom layer first): the layer
// array stores the topmost layer first, so it is walked in reverse.
func BuildTree(comp *Composition, frame float64, log *slog.Logger) *TreeNode {
	if log == nil {
		log = slog.Default()
	}
	b := &builder{comp: comp, log: log}
	return b.buildComposition(comp.Layers, frame)
}

func (b *builder) buildComposition(layers []*Layer, frame float64) *TreeNode {
	b.worldCache = make(map[*Layer]gg.Matrix, len(layers))
	b.layerByIdx = make(map[int]*Layer, len(layers))
	for _, l := range layers {
		b.layerByIdx[l.Index] = l
	}

	root := &TreeNode{Transform: gg.Identity(), Alpha: 1, Content: nil}
	var children []*TreeNode

	// Track mattes: a matte source (td=1) is consumed by the layer below
	// it in the array (or the one referencing it via tp) and not painted
	// directly.
	matteSources := map[int]*Layer{}
	for i, l := range layers {
		if bool(l.MatteTarget) {
			matteSources[i] = l
		}
	}

	for i := len(layers) - 1; i >= 0; i-- {
		layer := layers[i]
		if bool(layer.MatteTarget) {
			continue // painted only through its consumer
		}
		node := b.processLayer(layer, frame)
		if node == nil {
			continue
		}
		if layer.MatteMode != nil && *layer.MatteMode != 0 {
			if src := b.findMatteSource(layers, i, matteSources); src != nil {
				if matteNode := b.processLayer(src, frame); matteNode != nil {
					node.Matte = &MatteSpec{Mode: *layer.MatteMode, Node: matteNode}
				}
			}
		}
		children = append(children, node)
	}
	root.Content = Group{Children: children}
	return root
}

// findMatteSource resolves the matte for the consumer at array index i:
// the explicit tp reference when present, otherwise the adjacent layer
// above.
func (b *builder) findMatteSource(layers []*Layer, i int, sources map[int]*Layer) *Layer {
	consumer := layers[i]
	if consumer.MatteParent != nil {
		if l, ok := b.layerByIdx[*consumer.MatteParent]; ok {
			return l
		}
	}
	if i > 0 {
		if _, ok := sources[i-1]; ok {
			return layers[i-1]
		}
	}
	return nil
}

// layerLocalTime maps composition time onto a layer's own timeline:
// start-time offset, stretch, and time-remap.
func (b *builder) layerLocalTime(layer *Layer, frame float64) float64 {
	sr := layer.Stretch
	if sr == 0 {
		sr = 1
	}
	t := (frame - layer.StartTime) / sr
	if layer.TimeRemap != nil {
		// Time remap yields seconds of the layer source.
		t = layer.TimeRemap.Scalar(frame, 0) * b.comp.FrameRate
	}
	return t
}

func (b *builder) processLayer(layer *Layer, frame float64) *TreeNode {
	if bool(layer.Hidden) || layer.Type == LayerCamera {
		return nil
	}
	// Visibility window is checked against composition time.
	if frame < layer.InPoint || frame >= layer.OutPoint {
		return nil
	}
	t := b.layerLocalTime(layer, frame)

	world := b.layerWorldTransform(layer, frame)
	alpha := 1.0
	if layer.Transform.Opacity != nil {
		alpha = anim.Clamp(layer.Transform.Opacity.Scalar(t, 100)/100, 0, 1)
	}

	node := &TreeNode{
		Transform: world,
		Alpha:     alpha,
		Blend:     render.LottieBlendMode(layer.BlendMode),
	}

	switch layer.Type {
	case LayerShape:
		nodes := b.processShapes(layer.Shapes, t, nil)
		node.Content = Group{Children: nodes}
	case LayerSolid:
		node.Content = SolidContent{
			Color: parseHexColor(layer.SolidColor),
			W:     layer.SolidWidth,
			H:     layer.SolidHeight,
		}
	case LayerImage:
		asset := b.comp.AssetByID(layer.RefID)
		if asset == nil {
			b.log.Warn("image layer references unknown asset", "refId", layer.RefID)
			return nil
		}
		node.Content = ImageContent{Key: asset.Path + asset.File, W: asset.Width, H: asset.Height}
	case LayerPrecomp:
		asset := b.comp.AssetByID(layer.RefID)
		if asset == nil || !asset.IsPrecomp() {
			return nil
		}
		if b.depth >= maxPrecompDepth {
			b.log.Warn("precomp recursion limit reached", "refId", layer.RefID)
			return nil
		}
		sub := &builder{comp: b.comp, log: b.log, depth: b.depth + 1}
		built := sub.buildComposition(asset.Layers, t)
		// The layer transform wraps the built sub-tree; internal
		// transforms are never replaced.
		node.Content = PrecompContent{
			Children: built.Content.(Group).Children,
			W:        layer.Width,
			H:        layer.Height,
		}
	case LayerText:
		if layer.Text != nil {
			if doc := layer.Text.Document.DocAt(t); doc != nil {
				node.Content = TextContent{Doc: *doc}
			}
		}
		if node.Content == nil {
			return nil
		}
	case LayerNull:
		// Nulls only contribute transforms to children; nothing to draw.
		return nil
	default:
		return nil
	}

	node.Masks = b.processMasks(layer, t)
	node.Effects = b.processEffects(layer, t)
	return node
}

// layerWorldTransform resolves the layer's transform pre-multiplied with
// its parent chain, memoised per frame.
func (b *builder) layerWorldTransform(layer *Layer, frame float64) gg.Matrix {
	if m, ok := b.worldCache[layer]; ok {
		return m
	}
	t := b.layerLocalTime(layer, frame)
	local := b.transformMatrix(&layer.Transform, t)

	if bool(layer.AutoOrient) {
		local = local.Multiply(gg.Rotate(b.autoOrientAngle(layer, t)))
	}

	world := local
	if layer.Parent != nil {
		if parent, ok := b.layerByIdx[*layer.Parent]; ok && parent != layer {
			world = b.layerWorldTransform(parent, frame).Multiply(local)
		}
	}
	b.worldCache[layer] = world
	return world
}

// autoOrientAngle samples the motion path just ahead of the current time
// and returns the tangent angle (clockwise-positive, radians).
func (b *builder) autoOrientAngle(layer *Layer, t float64) float64 {
	const eps = 0.1
	p0 := layer.Transform.Position.At(t, 0, 0)
	p1 := layer.Transform.Position.At(t+eps, 0, 0)
	dx, dy := p1.X-p0.X, p1.Y-p0.Y
	if dx == 0 && dy == 0 {
		return 0
	}
	return math.Atan2(dy, dx)
}

// transformMatrix composes an animated transform at a frame:
// translate to position, rotate, skew, scale, then offset by the anchor.
func (b *builder) transformMatrix(tr *LTransform, frame float64) gg.Matrix {
	anchor := tr.Anchor.At(frame, 0, 0)
	pos := tr.Position.At(frame, 0, 0)

	scale := Vec2{1, 1}
	if tr.Scale != nil {
		v := tr.Scale.Value(frame, []float64{100, 100})
		scale = Vec2{v[0] / 100, v[1] / 100}
	}
	rotProp := tr.Rotation
	if rotProp == nil {
		rotProp = tr.RotationZ
	}
	rot := 0.0
	if rotProp != nil {
		rot = rotProp.Scalar(frame, 0)
	}

	m := gg.Translate(pos.X, pos.Y)
	if rot != 0 {
		m = m.Multiply(gg.Rotate(rot * math.Pi / 180))
	}
	if tr.Skew != nil {
		if sk := tr.Skew.Scalar(frame, 0); sk != 0 {
			sa := 0.0
			if tr.SkewAxis != nil {
				sa = tr.SkewAxis.Scalar(frame, 0)
			}
			m = m.Multiply(skewMat(sk, sa))
		}
	}
	if scale.X != 1 || scale.Y != 1 {
		m = m.Multiply(gg.Scale(scale.X, scale.Y))
	}
	m = m.Multiply(gg.Translate(-anchor.X, -anchor.Y))
	return m
}

func skewMat(amount, axis float64) gg.Matrix {
	a := axis * math.Pi / 180
	m := gg.Rotate(-a)
	m = m.Multiply(gg.Shear(math.Tan(-amount*math.Pi/180), 0))
	m = m.Multiply(gg.Rotate(a))
	return m
}

func (b *builder) processMasks(layer *Layer, frame float64) []MaskSpec {
	if len(layer.Masks) == 0 {
		return nil
	}
	out := make([]MaskSpec, 0, len(layer.Masks))
	for _, mp := range layer.Masks {
		if mp.Path == nil {
			continue
		}
		c := mp.Path.ContourAt(frame)
		if c == nil {
			continue
		}
		mode := mp.Mode
		if mode == "" {
			mode = "a"
		}
		opacity := 1.0
		if mp.Opacity != nil {
			opacity = anim.Clamp(mp.Opacity.Scalar(frame, 100)/100, 0, 1)
		}
		expansion := 0.0
		if mp.Expansion != nil {
			expansion = mp.Expansion.Scalar(frame, 0)
		}
		out = append(out, MaskSpec{
			Path:      &Path{Contours: []Contour{*c}},
			Mode:      mode,
			Inverted:  bool(mp.Inverted),
			Opacity:   opacity,
			Expansion: expansion,
		})
	}
	return out
}
