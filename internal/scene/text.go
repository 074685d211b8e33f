package scene

import (
	"strings"

	"github.com/gogpu/gg/text"

	"github.com/vporoshin/scene2video/internal/anim"
)

// GlyphAnimator animates a run of glyphs inside a text element: opacity,
// vertical offset, scale and rotation over the index range [From, To).
type GlyphAnimator struct {
	From, To int
	Opacity  *anim.Animated[float64]
	OffsetY  *anim.Animated[float64]
	Scale    *anim.Animated[float64]
	Rotation *anim.Animated[float64]
}

// NewGlyphAnimator covers the glyph index range with identity values.
func NewGlyphAnimator(from, to int) *GlyphAnimator {
	f := func(v float64) *anim.Animated[float64] { return anim.NewAnimated(v, anim.LerpFloat) }
	return &GlyphAnimator{From: from, To: to, Opacity: f(1), OffsetY: f(0), Scale: f(1), Rotation: f(0)}
}

func (g *GlyphAnimator) setFrame(frame float64) {
	g.Opacity.SetFrame(frame)
	g.OffsetY.SetFrame(frame)
	g.Scale.SetFrame(frame)
	g.Rotation.SetFrame(frame)
}

// Text shapes and draws rich text. Shaping runs through the raster
// library's text stack; the shaped size is cached in private scratch so
// Measure stays side-effect-free for layout.
type Text struct {
	Content string
	Source  *text.FontSource
	Size    float64
	Color   *anim.Animated[anim.Color]

	// AutoShrink reduces the effective size in post-layout until the text
	// fits its allocated rect, never below MinSize.
	AutoShrink bool
	MinSize    float64

	Glyphs []*GlyphAnimator

	// scratch
	face    text.Face
	fitSize float64
}

func NewText(content string, source *text.FontSource, size float64, color anim.Color) *Text {
	return &Text{
		Content: content,
		Source:  source,
		Size:    size,
		Color:   anim.NewAnimated(color, anim.LerpColor),
		MinSize: 8,
		fitSize: size,
	}
}

func (t *Text) Update(tt, duration float64) {}

// SetFrameProps ticks the text animators.
func (t *Text) SetFrameProps(frame float64) {
	t.Color.SetFrame(frame)
	for _, g := range t.Glyphs {
		g.setFrame(frame)
	}
}

func (t *Text) ensureFace(size float64) text.Face {
	if t.face == nil || t.fitSize != size {
		t.face = t.Source.Face(size)
		t.fitSize = size
	}
	return t.face
}

func (t *Text) lines() []string {
	return strings.Split(t.Content, "\n")
}

// Measure shapes at the requested size and reports the bounding advance.
func (t *Text) Measure(known Size) Size {
	if t.Source == nil {
		return Size{}
	}
	face := t.ensureFace(t.fitOrBase())
	var w float64
	for _, line := range t.lines() {
		if adv := face.Advance(line); adv > w {
			w = adv
		}
	}
	m := face.Metrics()
	h := (m.Ascent + m.Descent) * float64(len(t.lines()))
	return Size{W: w, H: h}
}

func (t *Text) fitOrBase() float64 {
	if t.AutoShrink && t.fitSize > 0 && t.fitSize < t.Size {
		return t.fitSize
	}
	return t.Size
}

// PostLayout re-shapes in place to fit the allocated rect; the computed
// box itself is left untouched.
func (t *Text) PostLayout(rect Rect) {
	if !t.AutoShrink || t.Source == nil || rect.W <= 0 {
		return
	}
	size := t.Size
	for size > t.MinSize {
		face := t.Source.Face(size)
		fits := true
		for _, line := range t.lines() {
			if face.Advance(line) > rect.W {
				fits = false
				break
			}
		}
		if fits {
			break
		}
		size -= 1
	}
	t.face = t.Source.Face(size)
	t.fitSize = size
}

func (t *Text) Render(rc *RenderContext, rect Rect) {
	if t.Source == nil {
		return
	}
	face := t.ensureFace(t.fitOrBase())
	gc := rc.GC
	gc.SetFont(face)

	col := t.Color.Current
	gc.SetColor(ggColor(col, rc.Opacity).Color())

	m := face.Metrics()
	lineH := m.Ascent + m.Descent
	lines := t.lines()
	totalH := lineH * float64(len(lines))
	y := rect.Y + (rect.H-totalH)/2 + m.Ascent

	glyphIndex := 0
	for _, line := range lines {
		w := face.Advance(line)
		x := rect.X + (rect.W-w)/2
		if len(t.Glyphs) == 0 {
			gc.DrawString(line, x, y)
			glyphIndex += len([]rune(line))
		} else {
			t.drawAnimated(rc, face, line, x, y, &glyphIndex)
		}
		y += lineH
	}
}

// drawAnimated draws rune by rune so per-glyph animators can offset,
// scale, rotate and fade individual characters.
func (t *Text) drawAnimated(rc *RenderContext, face text.Face, line string, x, y float64, glyphIndex *int) {
	gc := rc.GC
	col := t.Color.Current
	for _, r := range line {
		s := string(r)
		adv := face.Advance(s)
		ga := t.animatorFor(*glyphIndex)

		opacity := rc.Opacity
		offY, scale, rot := 0.0, 1.0, 0.0
		if ga != nil {
			opacity *= ga.Opacity.Current
			offY = ga.OffsetY.Current
			scale = ga.Scale.Current
			rot = ga.Rotation.Current
		}
		if opacity > 0 {
			gc.Push()
			cx := x + adv/2
			cy := y + offY
			gc.Translate(cx, cy)
			if rot != 0 {
				gc.Rotate(rot * 3.141592653589793 / 180)
			}
			if scale != 1 {
				gc.Scale(scale, scale)
			}
			gc.SetColor(ggColor(col, opacity).Color())
			gc.DrawString(s, -adv/2, 0)
			gc.Pop()
		}
		x += adv
		*glyphIndex++
	}
}

func (t *Text) animatorFor(idx int) *GlyphAnimator {
	for _, g := range t.Glyphs {
		if idx >= g.From && idx < g.To {
			return g
		}
	}
	return nil
}

// AnimateProperty exposes text properties to the scripting surface.
func (t *Text) AnimateProperty(name string, start, target, startFrame, durFrames float64, easing anim.Easing) bool {
	switch name {
	case "text_alpha":
		from := t.Color.Default
		from[3] = start
		to := t.Color.Default
		to[3] = target
		t.Color.AddSegment(from, to, startFrame, durFrames, easing)
		return true
	}
	return false
}
