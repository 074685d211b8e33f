package scene

import (
	"strconv"
	"strings"

	"github.com/vporoshin/scene2video/internal/anim"
)

// Unit discriminates dimension values.
type Unit int

const (
	UnitAuto Unit = iota
	UnitPx
	UnitPercent
)

// Dimension is an auto, pixel, or percent size.
type Dimension struct {
	Unit  Unit
	Value float64
}

func Auto() Dimension            { return Dimension{Unit: UnitAuto} }
func Px(v float64) Dimension     { return Dimension{Unit: UnitPx, Value: v} }
func Pct(v float64) Dimension    { return Dimension{Unit: UnitPercent, Value: v} }
func (d Dimension) IsAuto() bool { return d.Unit == UnitAuto }

// Edges holds the four sides of padding, margin, or inset values.
type Edges struct {
	Left, Top, Right, Bottom Dimension
}

// UniformEdges fills every side with the same pixel value.
func UniformEdges(v float64) Edges {
	return Edges{Left: Px(v), Top: Px(v), Right: Px(v), Bottom: Px(v)}
}

// Flexbox enums. Values parse from the scripting-level style maps.

type FlexDirection int

const (
	DirectionRow FlexDirection = iota
	DirectionColumn
	DirectionRowReverse
	DirectionColumnReverse
)

type Justify int

const (
	JustifyStart Justify = iota
	JustifyCenter
	JustifyEnd
	JustifySpaceBetween
	JustifySpaceAround
	JustifySpaceEvenly
)

type Align int

const (
	AlignAuto Align = iota
	AlignStart
	AlignCenter
	AlignEnd
	AlignStretch
)

type PositionType int

const (
	PositionRelative PositionType = iota
	PositionAbsolute
)

type Overflow int

const (
	OverflowVisible Overflow = iota
	OverflowHidden
)

// Style carries the flexbox properties synced into the layout solver plus
// the decoration painted by the box element.
type Style struct {
	Direction  FlexDirection
	Justify    Justify
	AlignItems Align
	AlignSelf  Align

	FlexGrow   float64
	FlexShrink float64
	FlexBasis  Dimension
	Gap        float64

	Width, Height       Dimension
	MinWidth, MinHeight Dimension
	MaxWidth, MaxHeight Dimension
	AspectRatio         float64

	Padding Edges
	Margin  Edges

	Position PositionType
	Inset    Edges

	Overflow Overflow

	// Decoration.
	HasBackground bool
	Background    anim.Color
	BorderColor   anim.Color
	BorderWidth   float64
	BorderRadius  float64
	ShadowColor   anim.Color
	ShadowBlur    float64
	ShadowDX      float64
	ShadowDY      float64
}

// DefaultStyle mirrors the flexbox defaults the solver assumes.
func DefaultStyle() Style {
	return Style{
		Direction:  DirectionRow,
		FlexShrink: 1,
		FlexBasis:  Auto(),
		Width:      Auto(),
		Height:     Auto(),
		MinWidth:   Auto(),
		MinHeight:  Auto(),
		MaxWidth:   Auto(),
		MaxHeight:  Auto(),
	}
}

// ApplyMap applies scripting-level style keys onto the style. Unknown keys
// are ignored; values are strings as produced by the scripting host
// ("50%", "120", "column", "#ff8800").
func (s *Style) ApplyMap(m map[string]string) {
	for k, v := range m {
		s.applyOne(k, v)
	}
}

func (s *Style) applyOne(key, val string) {
	switch key {
	case "direction", "flex_direction":
		switch val {
		case "column":
			s.Direction = DirectionColumn
		case "row":
			s.Direction = DirectionRow
		case "row_reverse":
			s.Direction = DirectionRowReverse
		case "column_reverse":
			s.Direction = DirectionColumnReverse
		}
	case "justify", "justify_content":
		switch val {
		case "center":
			s.Justify = JustifyCenter
		case "end", "flex_end":
			s.Justify = JustifyEnd
		case "space_between":
			s.Justify = JustifySpaceBetween
		case "space_around":
			s.Justify = JustifySpaceAround
		case "space_evenly":
			s.Justify = JustifySpaceEvenly
		default:
			s.Justify = JustifyStart
		}
	case "align", "align_items":
		s.AlignItems = parseAlign(val)
	case "align_self":
		s.AlignSelf = parseAlign(val)
	case "width":
		s.Width = parseDimension(val)
	case "height":
		s.Height = parseDimension(val)
	case "min_width":
		s.MinWidth = parseDimension(val)
	case "min_height":
		s.MinHeight = parseDimension(val)
	case "max_width":
		s.MaxWidth = parseDimension(val)
	case "max_height":
		s.MaxHeight = parseDimension(val)
	case "aspect_ratio":
		s.AspectRatio, _ = strconv.ParseFloat(val, 64)
	case "gap":
		s.Gap, _ = strconv.ParseFloat(val, 64)
	case "grow", "flex_grow":
		s.FlexGrow, _ = strconv.ParseFloat(val, 64)
	case "shrink", "flex_shrink":
		s.FlexShrink, _ = strconv.ParseFloat(val, 64)
	case "basis", "flex_basis":
		s.FlexBasis = parseDimension(val)
	case "padding":
		if v, err := strconv.ParseFloat(val, 64); err == nil {
			s.Padding = UniformEdges(v)
		}
	case "margin":
		if v, err := strconv.ParseFloat(val, 64); err == nil {
			s.Margin = UniformEdges(v)
		}
	case "position":
		if val == "absolute" {
			s.Position = PositionAbsolute
		} else {
			s.Position = PositionRelative
		}
	case "left":
		s.Inset.Left = parseDimension(val)
	case "top":
		s.Inset.Top = parseDimension(val)
	case "right":
		s.Inset.Right = parseDimension(val)
	case "bottom":
		s.Inset.Bottom = parseDimension(val)
	case "overflow":
		if val == "hidden" {
			s.Overflow = OverflowHidden
		} else {
			s.Overflow = OverflowVisible
		}
	case "background", "background_color":
		s.Background = ParseColor(val)
		s.HasBackground = true
	case "border_color":
		s.BorderColor = ParseColor(val)
	case "border_width":
		s.BorderWidth, _ = strconv.ParseFloat(val, 64)
	case "border_radius":
		s.BorderRadius, _ = strconv.ParseFloat(val, 64)
	}
}

func parseAlign(val string) Align {
	switch val {
	case "center":
		return AlignCenter
	case "end", "flex_end":
		return AlignEnd
	case "stretch":
		return AlignStretch
	case "start", "flex_start":
		return AlignStart
	default:
		return AlignAuto
	}
}

func parseDimension(val string) Dimension {
	val = strings.TrimSpace(val)
	if val == "" || val == "auto" {
		return Auto()
	}
	if strings.HasSuffix(val, "%") {
		if v, err := strconv.ParseFloat(strings.TrimSuffix(val, "%"), 64); err == nil {
			return Pct(v)
		}
		return Auto()
	}
	if v, err := strconv.ParseFloat(strings.TrimSuffix(val, "px"), 64); err == nil {
		return Px(v)
	}
	return Auto()
}

// ParseColor accepts #RGB, #RRGGBB and #RRGGBBAA.
func ParseColor(s string) anim.Color {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	hex := func(sub string) float64 {
		v, err := strconv.ParseUint(sub, 16, 32)
		if err != nil {
			return 0
		}
		max := float64(uint64(1)<<(4*uint(len(sub))) - 1)
		return float64(v) / max
	}
	switch len(s) {
	case 3:
		return anim.Color{hex(s[0:1]), hex(s[1:2]), hex(s[2:3]), 1}
	case 6:
		return anim.Color{hex(s[0:2]), hex(s[2:4]), hex(s[4:6]), 1}
	case 8:
		return anim.Color{hex(s[0:2]), hex(s[2:4]), hex(s[4:6]), hex(s[6:8])}
	default:
		return anim.Color{0, 0, 0, 0}
	}
}
