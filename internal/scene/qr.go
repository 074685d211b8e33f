package scene

import (
	"image"

	qrcode "github.com/skip2/go-qrcode"
)

// QR renders a QR code for a payload string, sized to its layout box.
// Codes regenerate only when the target size changes.
type QR struct {
	Content string

	size  int
	cache image.Image
	img   *Image
}

func NewQR(content string) *QR {
	return &QR{Content: content, img: &Image{Fit: FitContain}}
}

func (q *QR) Update(t, duration float64) {}

func (q *QR) Measure(known Size) Size {
	// QR codes are square; prefer the constrained axis.
	side := known.W
	if known.H > 0 && (side == 0 || known.H < side) {
		side = known.H
	}
	if side == 0 {
		side = 256
	}
	return Size{W: side, H: side}
}

func (q *QR) Render(rc *RenderContext, rect Rect) {
	side := int(min2(rect.W, rect.H))
	if side <= 0 {
		return
	}
	if q.cache == nil || q.size != side {
		code, err := qrcode.New(q.Content, qrcode.Medium)
		if err != nil {
			rc.Log.Warn("qr generation failed", "err", err)
			return
		}
		code.DisableBorder = true
		q.cache = code.Image(side)
		q.size = side
		q.img.scaled = nil
	}
	q.img.draw(rc, q.cache, rect)
}
