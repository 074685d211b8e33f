package render

import (
	"math"

	"github.com/gogpu/gg"
)

// Filter is an image filter applied to an offscreen layer before it is
// composited back. Filters mutate the pixmap in place.
type Filter interface {
	Apply(pm *gg.Pixmap)
}

// GaussianBlur approximates a gaussian with three box-blur passes, which
// converges on the true kernel closely enough for motion-graphics work and
// stays deterministic and allocation-friendly.
type GaussianBlur struct {
	Radius float64
}

func (f GaussianBlur) Apply(pm *gg.Pixmap) {
	if f.Radius <= 0 {
		return
	}
	boxes := boxesForGauss(f.Radius, 3)
	for _, r := range boxes {
		boxBlur(pm, r)
	}
}

// boxesForGauss picks box sizes whose repeated application approximates a
// gaussian of the given sigma.
func boxesForGauss(sigma float64, n int) []int {
	wIdeal := math.Sqrt(12*sigma*sigma/float64(n) + 1)
	wl := int(math.Floor(wIdeal))
	if wl%2 == 0 {
		wl--
	}
	wu := wl + 2
	mIdeal := (12*sigma*sigma - float64(n*wl*wl) - float64(4*n*wl) - float64(3*n)) /
		(-4*float64(wl) - 4)
	m := int(math.Round(mIdeal))

	out := make([]int, n)
	for i := 0; i < n; i++ {
		if i < m {
			out[i] = (wl - 1) / 2
		} else {
			out[i] = (wu - 1) / 2
		}
	}
	return out
}

func boxBlur(pm *gg.Pixmap, r int) {
	if r <= 0 {
		return
	}
	w, h := pm.Width(), pm.Height()
	src := pm.Data()
	tmp := make([]uint8, len(src))

	// Horizontal pass into tmp, then vertical back into src. Channels are
	// blurred premultiplied so transparent neighbours don't bleed color.
	blurAxis(src, tmp, w, h, r, true)
	blurAxis(tmp, src, w, h, r, false)
}

func blurAxis(src, dst []uint8, w, h, r int, horizontal bool) {
	outer, inner := h, w
	if !horizontal {
		outer, inner = w, h
	}
	idx := func(o, i int) int {
		if horizontal {
			return (o*w + i) * 4
		}
		return (i*w + o) * 4
	}

	norm := 1.0 / float64(2*r+1)
	for o := 0; o < outer; o++ {
		var sr, sg, sb, sa float64
		// Prime the window.
		for i := -r; i <= r; i++ {
			ci := clampInt(i, 0, inner-1)
			p := idx(o, ci)
			a := float64(src[p+3])
			sr += float64(src[p]) * a
			sg += float64(src[p+1]) * a
			sb += float64(src[p+2]) * a
			sa += a
		}
		for i := 0; i < inner; i++ {
			p := idx(o, i)
			a := sa * norm
			if a > 0 {
				dst[p] = clampByte(sr * norm / a)
				dst[p+1] = clampByte(sg * norm / a)
				dst[p+2] = clampByte(sb * norm / a)
			} else {
				dst[p], dst[p+1], dst[p+2] = 0, 0, 0
			}
			dst[p+3] = clampByte(a)

			// Slide the window.
			drop := idx(o, clampInt(i-r, 0, inner-1))
			add := idx(o, clampInt(i+r+1, 0, inner-1))
			da := float64(src[drop+3])
			aa := float64(src[add+3])
			sr += float64(src[add])*aa - float64(src[drop])*da
			sg += float64(src[add+1])*aa - float64(src[drop+1])*da
			sb += float64(src[add+2])*aa - float64(src[drop+2])*da
			sa += aa - da
		}
	}
}

// DropShadow renders a blurred, tinted copy of the layer's alpha under the
// layer itself.
type DropShadow struct {
	DX, DY  float64
	Radius  float64
	Color   gg.RGBA
	Opacity float64
}

func (f DropShadow) Apply(pm *gg.Pixmap) {
	w, h := pm.Width(), pm.Height()
	shadow := gg.NewPixmap(w, h)

	dx, dy := int(math.Round(f.DX)), int(math.Round(f.DY))
	sd := shadow.Data()
	src := pm.Data()
	op := f.Opacity
	if op <= 0 {
		op = 1
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx, sy := x-dx, y-dy
			if sx < 0 || sx >= w || sy < 0 || sy >= h {
				continue
			}
			a := float64(src[(sy*w+sx)*4+3]) / 255
			if a <= 0 {
				continue
			}
			i := (y*w + x) * 4
			sd[i] = clampByte(f.Color.R * 255)
			sd[i+1] = clampByte(f.Color.G * 255)
			sd[i+2] = clampByte(f.Color.B * 255)
			sd[i+3] = clampByte(a * f.Color.A * op * 255)
		}
	}
	GaussianBlur{Radius: f.Radius}.Apply(shadow)

	// Layer over shadow: composite the original on top, then copy back.
	Composite(shadow, pm, BlendNormal, 1)
	copy(pm.Data(), shadow.Data())
}

// ColorMatrix applies a 5x4 color matrix (rows r,g,b,a; last column is the
// additive offset in [0,1] units).
type ColorMatrix struct {
	M [20]float64
}

func (f ColorMatrix) Apply(pm *gg.Pixmap) {
	d := pm.Data()
	m := f.M
	for i := 0; i < len(d); i += 4 {
		r := float64(d[i]) / 255
		g := float64(d[i+1]) / 255
		b := float64(d[i+2]) / 255
		a := float64(d[i+3]) / 255

		nr := m[0]*r + m[1]*g + m[2]*b + m[3]*a + m[4]
		ng := m[5]*r + m[6]*g + m[7]*b + m[8]*a + m[9]
		nb := m[10]*r + m[11]*g + m[12]*b + m[13]*a + m[14]
		na := m[15]*r + m[16]*g + m[17]*b + m[18]*a + m[19]

		d[i] = clampByte(nr * 255)
		d[i+1] = clampByte(ng * 255)
		d[i+2] = clampByte(nb * 255)
		d[i+3] = clampByte(na * 255)
	}
}

// Tint maps luminance to a black→white color ramp.
type Tint struct {
	Black, White gg.RGBA
	Amount       float64
}

func (f Tint) Apply(pm *gg.Pixmap) {
	d := pm.Data()
	for i := 0; i < len(d); i += 4 {
		if d[i+3] == 0 {
			continue
		}
		l := lum(float64(d[i])/255, float64(d[i+1])/255, float64(d[i+2])/255)
		tr := f.Black.R + (f.White.R-f.Black.R)*l
		tg := f.Black.G + (f.White.G-f.Black.G)*l
		tb := f.Black.B + (f.White.B-f.Black.B)*l
		d[i] = clampByte((float64(d[i])/255*(1-f.Amount) + tr*f.Amount) * 255)
		d[i+1] = clampByte((float64(d[i+1])/255*(1-f.Amount) + tg*f.Amount) * 255)
		d[i+2] = clampByte((float64(d[i+2])/255*(1-f.Amount) + tb*f.Amount) * 255)
	}
}

// Tritone maps luminance through a shadow/midtone/highlight ramp.
type Tritone struct {
	Shadows, Midtones, Highlights gg.RGBA
}

func (f Tritone) Apply(pm *gg.Pixmap) {
	d := pm.Data()
	for i := 0; i < len(d); i += 4 {
		if d[i+3] == 0 {
			continue
		}
		l := lum(float64(d[i])/255, float64(d[i+1])/255, float64(d[i+2])/255)
		var r, g, b float64
		if l < 0.5 {
			t := l * 2
			r = f.Shadows.R + (f.Midtones.R-f.Shadows.R)*t
			g = f.Shadows.G + (f.Midtones.G-f.Shadows.G)*t
			b = f.Shadows.B + (f.Midtones.B-f.Shadows.B)*t
		} else {
			t := (l - 0.5) * 2
			r = f.Midtones.R + (f.Highlights.R-f.Midtones.R)*t
			g = f.Midtones.G + (f.Highlights.G-f.Midtones.G)*t
			b = f.Midtones.B + (f.Highlights.B-f.Midtones.B)*t
		}
		d[i] = clampByte(r * 255)
		d[i+1] = clampByte(g * 255)
		d[i+2] = clampByte(b * 255)
	}
}

// FillEffect replaces the layer color keeping its alpha.
type FillEffect struct {
	Color   gg.RGBA
	Opacity float64
}

func (f FillEffect) Apply(pm *gg.Pixmap) {
	d := pm.Data()
	for i := 0; i < len(d); i += 4 {
		if d[i+3] == 0 {
			continue
		}
		d[i] = clampByte(f.Color.R * 255)
		d[i+1] = clampByte(f.Color.G * 255)
		d[i+2] = clampByte(f.Color.B * 255)
		d[i+3] = clampByte(float64(d[i+3]) * f.Opacity)
	}
}

// Levels remaps input black/white points to output levels with a gamma.
// Rendering is partial: all channels are remapped together.
type Levels struct {
	InBlack, InWhite   float64
	Gamma              float64
	OutBlack, OutWhite float64
}

func (f Levels) Apply(pm *gg.Pixmap) {
	gamma := f.Gamma
	if gamma <= 0 {
		gamma = 1
	}
	span := f.InWhite - f.InBlack
	if span <= 0 {
		span = 1
	}
	d := pm.Data()
	for i := 0; i < len(d); i += 4 {
		for c := 0; c < 3; c++ {
			v := float64(d[i+c]) / 255
			v = math.Pow(clamp01((v-f.InBlack)/span), 1/gamma)
			v = f.OutBlack + v*(f.OutWhite-f.OutBlack)
			d[i+c] = clampByte(v * 255)
		}
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
