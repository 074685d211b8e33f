package render

import (
	"testing"

	"github.com/gogpu/gg"
)

func solidPixmap(w, h int, c gg.RGBA) *gg.Pixmap {
	pm := gg.NewPixmap(w, h)
	pm.Clear(c)
	return pm
}

func TestCompositeNormalOverOpaque(t *testing.T) {
	dst := solidPixmap(2, 2, gg.RGBA{R: 0, G: 0, B: 1, A: 1})
	src := solidPixmap(2, 2, gg.RGBA{R: 1, G: 0, B: 0, A: 1})
	Composite(dst, src, BlendNormal, 1)

	got := dst.GetPixel(0, 0)
	if got.R < 0.99 || got.B > 0.01 {
		t.Errorf("opaque source must replace destination, got %+v", got)
	}
}

func TestCompositeMultiplyDarkens(t *testing.T) {
	dst := solidPixmap(1, 1, gg.RGBA{R: 0.5, G: 0.5, B: 0.5, A: 1})
	src := solidPixmap(1, 1, gg.RGBA{R: 0.5, G: 0.5, B: 0.5, A: 1})
	Composite(dst, src, BlendMultiply, 1)

	got := dst.GetPixel(0, 0)
	if got.R > 0.3 {
		t.Errorf("multiply of 0.5 over 0.5 should be ~0.25, got %v", got.R)
	}
}

func TestCompositeOpacityScalesSource(t *testing.T) {
	dst := solidPixmap(1, 1, gg.RGBA{A: 0})
	src := solidPixmap(1, 1, gg.RGBA{R: 1, A: 1})
	Composite(dst, src, BlendNormal, 0.5)

	got := dst.GetPixel(0, 0)
	if got.A < 0.45 || got.A > 0.55 {
		t.Errorf("alpha = %v, want ~0.5", got.A)
	}
}

func TestCompositeTransparentSourceIsNoop(t *testing.T) {
	dst := solidPixmap(1, 1, gg.RGBA{R: 0.2, G: 0.4, B: 0.6, A: 1})
	src := solidPixmap(1, 1, gg.RGBA{})
	Composite(dst, src, BlendNormal, 1)

	got := dst.GetPixel(0, 0)
	if got.R < 0.19 || got.R > 0.21 {
		t.Errorf("transparent source changed destination: %+v", got)
	}
}

func TestApplyAlphaMask(t *testing.T) {
	dst := solidPixmap(2, 1, gg.RGBA{R: 1, A: 1})
	mask := gg.NewPixmap(2, 1)
	mask.SetPixel(0, 0, gg.RGBA{A: 1})
	// pixel (1,0) stays transparent in the mask

	ApplyAlphaMask(dst, mask, false, false)
	if dst.GetPixel(0, 0).A < 0.99 {
		t.Error("covered pixel must survive")
	}
	if dst.GetPixel(1, 0).A > 0.01 {
		t.Error("uncovered pixel must be erased")
	}
}

func TestApplyAlphaMaskInverted(t *testing.T) {
	dst := solidPixmap(1, 1, gg.RGBA{R: 1, A: 1})
	mask := solidPixmap(1, 1, gg.RGBA{A: 1})
	ApplyAlphaMask(dst, mask, false, true)
	if dst.GetPixel(0, 0).A > 0.01 {
		t.Error("inverted full mask must erase everything")
	}
}

func TestParseBlendMode(t *testing.T) {
	if ParseBlendMode("multiply") != BlendMultiply {
		t.Error("multiply")
	}
	if ParseBlendMode("nonsense") != BlendNormal {
		t.Error("unknown names fall back to normal")
	}
	if LottieBlendMode(5) != BlendLighten {
		t.Error("numeric mapping")
	}
}

func TestGaussianBlurSpreadsEnergy(t *testing.T) {
	pm := gg.NewPixmap(9, 9)
	pm.SetPixel(4, 4, gg.RGBA{R: 1, G: 1, B: 1, A: 1})
	GaussianBlur{Radius: 2}.Apply(pm)

	center := pm.GetPixel(4, 4)
	neighbor := pm.GetPixel(3, 4)
	if center.A >= 1 {
		t.Error("blur must reduce the center")
	}
	if neighbor.A <= 0 {
		t.Error("blur must spread into neighbors")
	}
}

func TestColorMatrixInvert(t *testing.T) {
	pm := solidPixmap(1, 1, gg.RGBA{R: 1, G: 0, B: 0, A: 1})
	ColorMatrix{M: [20]float64{
		-1, 0, 0, 0, 1,
		0, -1, 0, 0, 1,
		0, 0, -1, 0, 1,
		0, 0, 0, 1, 0,
	}}.Apply(pm)
	got := pm.GetPixel(0, 0)
	if got.R > 0.01 || got.G < 0.99 || got.B < 0.99 {
		t.Errorf("inverted red = %+v, want cyan", got)
	}
}
