package lottie

import (
	"github.com/gogpu/gg"

	"github.com/vporoshin/scene2video/internal/anim"
	"github.com/vporoshin/scene2video/internal/render"
)

// TreeNode is one node of the per-frame render intermediate: a transform,
// an opacity, a blend mode and a content variant, plus masks, an optional
// track matte and the layer effect chain.
type TreeNode struct {
	Transform gg.Matrix
	Alpha     float64
	Blend     render.BlendMode
	Content   Content
	Masks     []MaskSpec
	Matte     *MatteSpec
	Effects   []render.Filter
}

// Content is the tagged payload of a tree node; rendering dispatches on
// the concrete type in a single switch.
type Content interface{ isContent() }

// Group nests children in draw order (first child paints first).
type Group struct {
	Children []*TreeNode
}

// ShapeContent is resolved geometry with at most one fill and one stroke.
type ShapeContent struct {
	Geometry *Path
	Merged   *Merged
	Fill     *FillSpec
	Stroke   *StrokeSpec
	Trim     *Trim
}

// SolidContent is a colored rectangle layer.
type SolidContent struct {
	Color anim.Color
	W, H  float64
}

// ImageContent references a raster asset by key.
type ImageContent struct {
	Key  string
	W, H float64
}

// TextContent is a text layer's active document.
type TextContent struct {
	Doc TextDocument
}

// PrecompContent wraps a nested composition's built children, clipped to
// the precomp viewport.
type PrecompContent struct {
	Children []*TreeNode
	W, H     float64
}

func (Group) isContent()          {}
func (*ShapeContent) isContent()  {}
func (SolidContent) isContent()   {}
func (ImageContent) isContent()   {}
func (TextContent) isContent()    {}
func (PrecompContent) isContent() {}

// PaintKind discriminates solid and gradient paints.
type PaintKind int

const (
	PaintSolid PaintKind = iota
	PaintLinearGradient
	PaintRadialGradient
)

// Paint is a resolved fill or stroke paint. Gradient stops are in
// unpremultiplied sRGB; interpolation between stops is linear.
type Paint struct {
	Kind       PaintKind
	Color      anim.Color
	Stops      []GradientStop
	Start, End Vec2
}

// GradientStop pairs an offset with a color.
type GradientStop struct {
	Offset float64
	Color  anim.Color
}

// FillSpec styles a filled shape.
type FillSpec struct {
	Paint   Paint
	Opacity float64
	Rule    gg.FillRule
}

// StrokeSpec styles a stroked shape.
type StrokeSpec struct {
	Paint      Paint
	Opacity    float64
	Width      float64
	Cap        gg.LineCap
	Join       gg.LineJoin
	MiterLimit float64
	Dashes     []float64
	DashOffset float64
}

// MaskSpec is one resolved layer mask.
type MaskSpec struct {
	Path      *Path
	Mode      string // "a" add, "s" subtract, "i" intersect, "l" lighten, "d" darken, "f" difference, "n" none
	Inverted  bool
	Opacity   float64
	Expansion float64
}

// Matte modes (`tt`).
const (
	MatteAlpha         = 1
	MatteAlphaInverted = 2
	MatteLuma          = 3
	MatteLumaInverted  = 4
)

// MatteSpec pairs a consumer with its matte source subtree.
type MatteSpec struct {
	Mode int
	Node *TreeNode
}
