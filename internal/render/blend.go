// Package render bridges the scene and Lottie subsystems to the gogpu/gg
// rasteriser: offscreen-layer compositing with the full blend-mode table,
// matte extraction, and the image filters used by effect nodes.
package render

import (
	"math"

	"github.com/gogpu/gg"
)

// BlendMode is the compositing operator applied when an offscreen layer is
// folded back onto its parent. Every mode is composited pixel by pixel in
// this package by Composite.
type BlendMode int

const (
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendScreen
	BlendOverlay
	BlendDarken
	BlendLighten
	BlendColorDodge
	BlendColorBurn
	BlendHardLight
	BlendSoftLight
	BlendDifference
	BlendExclusion
	BlendHue
	BlendSaturation
	BlendColor
	BlendLuminosity
)

var blendNames = map[string]BlendMode{
	"normal":      BlendNormal,
	"multiply":    BlendMultiply,
	"screen":      BlendScreen,
	"overlay":     BlendOverlay,
	"darken":      BlendDarken,
	"lighten":     BlendLighten,
	"color_dodge": BlendColorDodge,
	"color_burn":  BlendColorBurn,
	"hard_light":  BlendHardLight,
	"soft_light":  BlendSoftLight,
	"difference":  BlendDifference,
	"exclusion":   BlendExclusion,
	"hue":         BlendHue,
	"saturation":  BlendSaturation,
	"color":       BlendColor,
	"luminosity":  BlendLuminosity,
}

// ParseBlendMode maps a scripting-level name to a mode. Unknown names are
// normal.
func ParseBlendMode(name string) BlendMode {
	if m, ok := blendNames[name]; ok {
		return m
	}
	return BlendNormal
}

// LottieBlendMode maps the Lottie numeric `bm` field.
func LottieBlendMode(bm int) BlendMode {
	if bm >= 0 && bm <= int(BlendLuminosity) {
		return BlendMode(bm)
	}
	return BlendNormal
}

// Composite folds src onto dst with the given mode and opacity. Both
// pixmaps must be the same size. Pixels are straight (unpremultiplied)
// RGBA, the storage format of gg pixmaps; blending happens on
// premultiplied intermediates per the usual compositing algebra.
func Composite(dst, src *gg.Pixmap, mode BlendMode, opacity float64) {
	if dst.Width() != src.Width() || dst.Height() != src.Height() {
		return
	}
	d := dst.Data()
	s := src.Data()
	for i := 0; i < len(d); i += 4 {
		sa := float64(s[i+3]) / 255 * opacity
		if sa <= 0 {
			continue
		}
		da := float64(d[i+3]) / 255

		sr := float64(s[i]) / 255
		sg := float64(s[i+1]) / 255
		sb := float64(s[i+2]) / 255
		dr := float64(d[i]) / 255
		dg := float64(d[i+1]) / 255
		db := float64(d[i+2]) / 255

		br, bg, bb := blendPixel(mode, dr, dg, db, sr, sg, sb)

		// Source-over with the blended color as the effective source.
		oa := sa + da*(1-sa)
		if oa <= 0 {
			d[i], d[i+1], d[i+2], d[i+3] = 0, 0, 0, 0
			continue
		}
		cr := (1-da)*sa*sr + (1-sa)*da*dr + sa*da*br
		cg := (1-da)*sa*sg + (1-sa)*da*dg + sa*da*bg
		cb := (1-da)*sa*sb + (1-sa)*da*db + sa*da*bb

		d[i] = clampByte(cr / oa * 255)
		d[i+1] = clampByte(cg / oa * 255)
		d[i+2] = clampByte(cb / oa * 255)
		d[i+3] = clampByte(oa * 255)
	}
}

// ApplyAlphaMask multiplies dst's alpha by the mask coverage (DstIn).
// When luma is set, coverage is the mask's luminance times its alpha;
// invert flips the coverage.
func ApplyAlphaMask(dst, mask *gg.Pixmap, luma, invert bool) {
	if dst.Width() != mask.Width() || dst.Height() != mask.Height() {
		return
	}
	d := dst.Data()
	m := mask.Data()
	for i := 0; i < len(d); i += 4 {
		cov := float64(m[i+3]) / 255
		if luma {
			lum := (0.2126*float64(m[i]) + 0.7152*float64(m[i+1]) + 0.0722*float64(m[i+2])) / 255
			cov *= lum
		}
		if invert {
			cov = 1 - cov
		}
		d[i+3] = clampByte(float64(d[i+3]) * cov)
	}
}

func blendPixel(mode BlendMode, dr, dg, db, sr, sg, sb float64) (float64, float64, float64) {
	switch mode {
	case BlendMultiply:
		return dr * sr, dg * sg, db * sb
	case BlendScreen:
		return screen(dr, sr), screen(dg, sg), screen(db, sb)
	case BlendOverlay:
		return hardLight(sr, dr), hardLight(sg, dg), hardLight(sb, db)
	case BlendDarken:
		return math.Min(dr, sr), math.Min(dg, sg), math.Min(db, sb)
	case BlendLighten:
		return math.Max(dr, sr), math.Max(dg, sg), math.Max(db, sb)
	case BlendColorDodge:
		return dodge(dr, sr), dodge(dg, sg), dodge(db, sb)
	case BlendColorBurn:
		return burn(dr, sr), burn(dg, sg), burn(db, sb)
	case BlendHardLight:
		return hardLight(dr, sr), hardLight(dg, sg), hardLight(db, sb)
	case BlendSoftLight:
		return softLight(dr, sr), softLight(dg, sg), softLight(db, sb)
	case BlendDifference:
		return math.Abs(dr - sr), math.Abs(dg - sg), math.Abs(db - sb)
	case BlendExclusion:
		return dr + sr - 2*dr*sr, dg + sg - 2*dg*sg, db + sb - 2*db*sb
	case BlendHue:
		c := setLum(setSat(sr, sg, sb, sat(dr, dg, db)), lum(dr, dg, db))
		return c.r, c.g, c.b
	case BlendSaturation:
		c := setLum(setSat(dr, dg, db, sat(sr, sg, sb)), lum(dr, dg, db))
		return c.r, c.g, c.b
	case BlendColor:
		return setLumRGB(sr, sg, sb, lum(dr, dg, db))
	case BlendLuminosity:
		return setLumRGB(dr, dg, db, lum(sr, sg, sb))
	default:
		return sr, sg, sb
	}
}

func screen(d, s float64) float64 { return d + s - d*s }

func hardLight(d, s float64) float64 {
	if s <= 0.5 {
		return d * 2 * s
	}
	return screen(d, 2*s-1)
}

func dodge(d, s float64) float64 {
	if d == 0 {
		return 0
	}
	if s == 1 {
		return 1
	}
	return math.Min(1, d/(1-s))
}

func burn(d, s float64) float64 {
	if d == 1 {
		return 1
	}
	if s == 0 {
		return 0
	}
	return 1 - math.Min(1, (1-d)/s)
}

func softLight(d, s float64) float64 {
	if s <= 0.5 {
		return d - (1-2*s)*d*(1-d)
	}
	var g float64
	if d <= 0.25 {
		g = ((16*d-12)*d + 4) * d
	} else {
		g = math.Sqrt(d)
	}
	return d + (2*s-1)*(g-d)
}

// Non-separable blend helpers per the PDF compositing model.

func lum(r, g, b float64) float64 { return 0.3*r + 0.59*g + 0.11*b }

func sat(r, g, b float64) float64 {
	return math.Max(r, math.Max(g, b)) - math.Min(r, math.Min(g, b))
}

type rgb struct{ r, g, b float64 }

func setLum(c rgb, l float64) rgb {
	d := l - lum(c.r, c.g, c.b)
	return clipColor(rgb{c.r + d, c.g + d, c.b + d})
}

func setLumRGB(r, g, b, l float64) (float64, float64, float64) {
	c := setLum(rgb{r, g, b}, l)
	return c.r, c.g, c.b
}

func clipColor(c rgb) rgb {
	l := lum(c.r, c.g, c.b)
	n := math.Min(c.r, math.Min(c.g, c.b))
	x := math.Max(c.r, math.Max(c.g, c.b))
	if n < 0 {
		c.r = l + (c.r-l)*l/(l-n)
		c.g = l + (c.g-l)*l/(l-n)
		c.b = l + (c.b-l)*l/(l-n)
	}
	if x > 1 {
		c.r = l + (c.r-l)*(1-l)/(x-l)
		c.g = l + (c.g-l)*(1-l)/(x-l)
		c.b = l + (c.b-l)*(1-l)/(x-l)
	}
	return c
}

func setSat(r, g, b, s float64) rgb {
	c := rgb{r, g, b}
	mx := math.Max(r, math.Max(g, b))
	mn := math.Min(r, math.Min(g, b))
	if mx > mn {
		scale := func(v float64) float64 { return (v - mn) / (mx - mn) * s }
		return rgb{scale(r), scale(g), scale(b)}
	}
	return rgb{0, 0, 0}
}

func clampByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
