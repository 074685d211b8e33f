// Package lottie implements the vector animation subsystem: a tolerant
// parser for the Lottie v1.0 JSON format, a per-frame scene builder that
// resolves layers into a renderable tree, and a player that drives it from
// composition time.
package lottie

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Flag is a boolean that tolerates numeric 0/1 in the JSON, as many
// exporters emit.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("1")):
		*f = true
	case bytes.Equal(data, []byte("false")), bytes.Equal(data, []byte("0")), bytes.Equal(data, []byte("null")):
		*f = false
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err == nil {
			*f = n != 0
			return nil
		}
		*f = false
	}
	return nil
}

// ParseError carries the byte offset of a malformed document, converted to
// line and column for the caller.
type ParseError struct {
	Line, Column int
	Err          error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("lottie parse error at %d:%d: %v", e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Composition is the top-level animation document.
type Composition struct {
	Version   string   `json:"v"`
	Name      string   `json:"nm"`
	InPoint   float64  `json:"ip"`
	OutPoint  float64  `json:"op"`
	FrameRate float64  `json:"fr"`
	Width     float64  `json:"w"`
	Height    float64  `json:"h"`
	BG        string   `json:"bg"`
	Layers    []*Layer `json:"layers"`
	Assets    []*Asset `json:"assets"`
	Markers   []Marker `json:"markers"`
}

// Layer types, the `ty` field.
const (
	LayerPrecomp = 0
	LayerSolid   = 1
	LayerImage   = 2
	LayerNull    = 3
	LayerShape   = 4
	LayerText    = 5
	LayerCamera  = 13
)

// Layer is one entry of a composition's layer stack. The first layer of
// the array draws topmost.
type Layer struct {
	Type   int    `json:"ty"`
	Index  int    `json:"ind"`
	Parent *int   `json:"parent"`
	Name   string `json:"nm"`
	Hidden Flag   `json:"hd"`

	InPoint    float64 `json:"ip"`
	OutPoint   float64 `json:"op"`
	StartTime  float64 `json:"st"`
	Stretch    float64 `json:"sr"`
	TimeRemap  *Prop   `json:"tm"`
	AutoOrient Flag    `json:"ao"`

	Transform LTransform `json:"ks"`

	MatteMode   *int         `json:"tt"`
	MatteParent *int         `json:"tp"`
	MatteTarget Flag         `json:"td"`
	HasMask     Flag         `json:"hasMask"`
	Masks       []*MaskProps `json:"masksProperties"`
	BlendMode   int          `json:"bm"`
	Collapse    Flag         `json:"ct"`

	Effects []*EffectDef `json:"ef"`

	// Precomp / image
	RefID  string  `json:"refId"`
	Width  float64 `json:"w"`
	Height float64 `json:"h"`

	// Solid
	SolidColor  string  `json:"sc"`
	SolidWidth  float64 `json:"sw"`
	SolidHeight float64 `json:"sh"`

	// Shape
	Shapes []*Shape `json:"shapes"`

	// Text
	Text *TextData `json:"t"`
}

// MaskProps is one entry of a layer's mask stack.
type MaskProps struct {
	Inverted  Flag      `json:"inv"`
	Mode      string    `json:"mode"`
	Path      *PathProp `json:"pt"`
	Opacity   *Prop     `json:"o"`
	Expansion *Prop     `json:"x"`
	Name      string    `json:"nm"`
}

// EffectDef is a parsed per-layer effect with its control values.
type EffectDef struct {
	Type      int            `json:"ty"`
	Name      string         `json:"nm"`
	MatchName string         `json:"mn"`
	Enabled   *Flag          `json:"en"`
	Values    []*EffectValue `json:"ef"`
}

// EffectValue is one control slot of an effect.
type EffectValue struct {
	Type      int    `json:"ty"`
	Name      string `json:"nm"`
	MatchName string `json:"mn"`
	Value     *Prop  `json:"v"`
}

// LTransform is a layer or group transform, all channels animatable.
type LTransform struct {
	Anchor    *PosProp `json:"a"`
	Position  *PosProp `json:"p"`
	Scale     *Prop    `json:"s"`
	Rotation  *Prop    `json:"r"`
	RotationZ *Prop    `json:"rz"`
	Opacity   *Prop    `json:"o"`
	Skew      *Prop    `json:"sk"`
	SkewAxis  *Prop    `json:"sa"`

	// Repeater transforms carry per-copy opacity ramps.
	StartOpacity *Prop `json:"so"`
	EndOpacity   *Prop `json:"eo"`
}

// Shape is a single shape-stack item. One struct covers every `ty`; only
// the fields of the active kind are populated by the JSON.
type Shape struct {
	Type   string `json:"ty"`
	Name   string `json:"nm"`
	Hidden Flag   `json:"hd"`

	// gr
	Items []*Shape `json:"it"`

	// Geometry: rc/el share s+p, sh carries ks, sr the polystar block.
	ShapeSize *Prop     `json:"s"` // also: trim start, gradient start, zigzag size, wiggle speed
	Position  *PosProp  `json:"p"`
	Roundness *Prop     `json:"r"` // also: fill rule, polystar rotation, round-corners radius, zigzag ridges
	PathData  *PathProp `json:"ks"`

	// Polystar
	OuterRadius    *Prop `json:"or"`
	OuterRoundness *Prop `json:"os"`
	InnerRadius    *Prop `json:"ir"`
	InnerRoundness *Prop `json:"is"`
	Points         *Prop `json:"pt"` // also: zigzag point type
	StarType       int   `json:"sy"`

	// Paint
	Color      *Prop           `json:"c"` // also: repeater copies, twist center
	Opacity    *Prop           `json:"o"` // also: trim offset, repeater offset
	Width      *Prop           `json:"w"` // also: wiggle size
	LineCap    int             `json:"lc"`
	LineJoin   int             `json:"lj"`
	MiterLimit float64         `json:"ml"`
	Dashes     []*DashElement  `json:"d"`
	GradType   int             `json:"t"`
	Gradient   *GradientColors `json:"g"`
	End        *Prop           `json:"e"` // trim end, gradient end

	// Modifiers
	TrimMode   int         `json:"m"` // also: repeater composite
	MergeMode  int         `json:"mm"`
	Amount     *Prop       `json:"a"` // offset-path / pucker-bloat / twist amount
	Transform  *LTransform `json:"tr"`
	WiggleSeed *Prop       `json:"sh"`
}

// DashElement is one entry of a stroke dash array: n is "d" (dash), "g"
// (gap) or "o" (offset).
type DashElement struct {
	Name  string `json:"n"`
	Value *Prop  `json:"v"`
}

// GradientColors wraps the packed stop array and its color count.
type GradientColors struct {
	Count int   `json:"p"`
	Stops *Prop `json:"k"`
}

// Asset is an image, precomposition, or sound referenced by id.
type Asset struct {
	ID        string   `json:"id"`
	Name      string   `json:"nm"`
	Layers    []*Layer `json:"layers"`
	Width     float64  `json:"w"`
	Height    float64  `json:"h"`
	Path      string   `json:"u"`
	File      string   `json:"p"`
	Embedded  Flag     `json:"e"`
	FrameRate float64  `json:"fr"`
}

// IsPrecomp reports whether the asset is a nested composition.
func (a *Asset) IsPrecomp() bool { return len(a.Layers) > 0 }

// Marker is a named point on the timeline.
type Marker struct {
	Comment  string  `json:"cm"`
	Time     float64 `json:"tm"`
	Duration float64 `json:"dr"`
}

// TextData carries a text layer's animated document.
type TextData struct {
	Document *TextDocProp `json:"d"`
}

// TextDocProp is the keyframed text document (hold interpolation only).
type TextDocProp struct {
	Keys []TextDocKeyframe
}

type TextDocKeyframe struct {
	Time float64
	Doc  TextDocument
}

// TextDocument is one state of a text layer.
type TextDocument struct {
	Text       string    `json:"t"`
	Font       string    `json:"f"`
	Size       float64   `json:"s"`
	Justify    int       `json:"j"`
	LineHeight float64   `json:"lh"`
	FillColor  []float64 `json:"fc"`
}

func (p *TextDocProp) UnmarshalJSON(data []byte) error {
	var wrap struct {
		K json.RawMessage `json:"k"`
	}
	if err := json.Unmarshal(data, &wrap); err != nil {
		return err
	}
	// Either a plain document or keyframes of {s: doc, t: time}.
	var doc TextDocument
	if err := json.Unmarshal(wrap.K, &doc); err == nil && doc.Text != "" {
		p.Keys = []TextDocKeyframe{{Doc: doc}}
		return nil
	}
	var keys []struct {
		S TextDocument `json:"s"`
		T float64      `json:"t"`
	}
	if err := json.Unmarshal(wrap.K, &keys); err == nil {
		for _, k := range keys {
			p.Keys = append(p.Keys, TextDocKeyframe{Time: k.T, Doc: k.S})
		}
	}
	return nil
}

// DocAt returns the active document at a frame (hold semantics).
func (p *TextDocProp) DocAt(frame float64) *TextDocument {
	if p == nil || len(p.Keys) == 0 {
		return nil
	}
	doc := &p.Keys[0].Doc
	for i := range p.Keys {
		if p.Keys[i].Time <= frame {
			doc = &p.Keys[i].Doc
		}
	}
	return doc
}

// Parse decodes a Lottie document. Unknown fields are ignored; malformed
// JSON yields a ParseError with line and column.
func Parse(data []byte) (*Composition, error) {
	comp := &Composition{}
	if err := json.Unmarshal(data, comp); err != nil {
		return nil, parseErrorAt(data, err)
	}
	for _, l := range comp.Layers {
		l.normalize()
	}
	for _, a := range comp.Assets {
		for _, l := range a.Layers {
			l.normalize()
		}
		if a.FrameRate == 0 {
			a.FrameRate = comp.FrameRate
		}
	}
	return comp, nil
}

func (l *Layer) normalize() {
	if l.Stretch == 0 {
		l.Stretch = 1
	}
}

func parseErrorAt(data []byte, err error) error {
	var offset int64 = -1
	if se, ok := err.(*json.SyntaxError); ok {
		offset = se.Offset
	} else if ute, ok := err.(*json.UnmarshalTypeError); ok {
		offset = ute.Offset
	}
	if offset < 0 {
		return &ParseError{Line: 0, Column: 0, Err: err}
	}
	line, col := 1, 1
	for i := int64(0); i < offset && i < int64(len(data)); i++ {
		if data[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return &ParseError{Line: line, Column: col, Err: err}
}

// AssetByID finds an asset by reference id.
func (c *Composition) AssetByID(id string) *Asset {
	for _, a := range c.Assets {
		if a.ID == id {
			return a
		}
	}
	return nil
}
