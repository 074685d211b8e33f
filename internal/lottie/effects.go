package lottie

import (
	"math"

	"github.com/gogpu/gg"

	"github.com/vporoshin/scene2video/internal/anim"
	"github.com/vporoshin/scene2video/internal/render"
)

// Effect type codes (`ty` of an effect definition).
const (
	effectTint       = 20
	effectFill       = 21
	effectStroke     = 22
	effectTritone    = 23
	effectLevels     = 24
	effectDropShadow = 25
	effectBlur       = 29
)

// processEffects resolves the layer's ordered effect list into image
// filters. Unsupported effect types are skipped with a debug log so the
// rest of the chain still applies.
func (b *builder) processEffects(layer *Layer, frame float64) []render.Filter {
	if len(layer.Effects) == 0 {
		return nil
	}
	var out []render.Filter
	for _, ef := range layer.Effects {
		if ef.Enabled != nil && !bool(*ef.Enabled) {
			continue
		}
		switch ef.Type {
		case effectBlur:
			radius := effScalar(ef, 0, 0, frame)
			if radius > 0 {
				// Blurriness is in AE units, roughly 2x the gaussian sigma.
				out = append(out, render.GaussianBlur{Radius: radius / 2})
			}
		case effectDropShadow:
			color := effColor(ef, 0, anim.Color{0, 0, 0, 1}, frame)
			opacity := effScalar(ef, 1, 128, frame) / 255
			direction := effScalar(ef, 2, 135, frame) * math.Pi / 180
			distance := effScalar(ef, 3, 5, frame)
			softness := effScalar(ef, 4, 10, frame)
			out = append(out, render.DropShadow{
				DX:      math.Sin(direction) * distance,
				DY:      -math.Cos(direction) * distance,
				Radius:  softness / 2,
				Color:   gg.RGBA{R: color[0], G: color[1], B: color[2], A: color[3]},
				Opacity: opacity,
			})
		case effectTint:
			black := effColor(ef, 0, anim.Color{0, 0, 0, 1}, frame)
			white := effColor(ef, 1, anim.Color{1, 1, 1, 1}, frame)
			amount := effScalar(ef, 2, 100, frame) / 100
			out = append(out, render.Tint{
				Black:  gg.RGBA{R: black[0], G: black[1], B: black[2], A: 1},
				White:  gg.RGBA{R: white[0], G: white[1], B: white[2], A: 1},
				Amount: anim.Clamp(amount, 0, 1),
			})
		case effectFill:
			color := effColor(ef, 2, anim.Color{1, 0, 0, 1}, frame)
			opacity := effScalar(ef, 6, 1, frame)
			out = append(out, render.FillEffect{
				Color:   gg.RGBA{R: color[0], G: color[1], B: color[2], A: 1},
				Opacity: anim.Clamp(opacity, 0, 1),
			})
		case effectTritone:
			bright := effColor(ef, 0, anim.Color{1, 1, 1, 1}, frame)
			mid := effColor(ef, 1, anim.Color{0.5, 0.25, 0.25, 1}, frame)
			dark := effColor(ef, 2, anim.Color{0, 0, 0, 1}, frame)
			out = append(out, render.Tritone{
				Highlights: gg.RGBA{R: bright[0], G: bright[1], B: bright[2], A: 1},
				Midtones:   gg.RGBA{R: mid[0], G: mid[1], B: mid[2], A: 1},
				Shadows:    gg.RGBA{R: dark[0], G: dark[1], B: dark[2], A: 1},
			})
		case effectLevels:
			// Partial: channels are remapped together.
			out = append(out, render.Levels{
				InBlack:  effScalar(ef, 3, 0, frame),
				InWhite:  effScalar(ef, 4, 1, frame),
				Gamma:    effScalar(ef, 5, 1, frame),
				OutBlack: effScalar(ef, 6, 0, frame),
				OutWhite: effScalar(ef, 7, 1, frame),
			})
		default:
			b.log.Debug("unsupported effect skipped", "ty", ef.Type, "name", ef.Name)
		}
	}
	return out
}

func effScalar(ef *EffectDef, idx int, def, frame float64) float64 {
	if idx >= len(ef.Values) || ef.Values[idx] == nil || ef.Values[idx].Value == nil {
		return def
	}
	return ef.Values[idx].Value.Scalar(frame, def)
}

func effColor(ef *EffectDef, idx int, def anim.Color, frame float64) anim.Color {
	if idx >= len(ef.Values) || ef.Values[idx] == nil || ef.Values[idx].Value == nil {
		return def
	}
	return ef.Values[idx].Value.ColorAt(frame, def)
}
