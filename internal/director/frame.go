package director

import (
	"math"

	"github.com/gogpu/gg"

	"github.com/vporoshin/scene2video/internal/anim"
)

// RenderFrame produces the full frame at global time t into the context:
// the active scene, or during a transition both scenes rendered offscreen
// and composited by progress. Update strictly precedes Layout precedes
// Render for every scene involved.
func (d *Director) RenderFrame(gc *gg.Context, t float64, preview bool) error {
	if tr := d.transitionAt(t); tr != nil {
		return d.renderTransition(gc, tr, t, preview)
	}
	idx := d.sceneAt(t)
	if idx < 0 {
		return nil
	}
	s := d.Scenes[idx]
	tau := t - s.StartTime
	d.UpdateScene(s, tau)
	d.LayoutScene(s)
	return d.RenderScene(gc, s, tau, preview)
}

func (d *Director) renderSceneOffscreen(s *Scene, t float64, preview bool) (*gg.Context, error) {
	tau := t - s.StartTime
	d.UpdateScene(s, tau)
	d.LayoutScene(s)
	ctx := gg.NewContext(d.Width, d.Height)
	err := d.RenderScene(ctx, s, tau, preview)
	return ctx, err
}

func (d *Director) renderTransition(gc *gg.Context, tr *Transition, t float64, preview bool) error {
	from := d.Scenes[tr.From]
	to := d.Scenes[tr.To]

	progress := anim.Clamp((t-to.StartTime)/tr.Duration, 0, 1)
	progress = tr.Easing.Apply(progress)

	a, err := d.renderSceneOffscreen(from, t, preview)
	if err != nil {
		return err
	}
	b, err := d.renderSceneOffscreen(to, t, preview)
	if err != nil {
		return err
	}
	compositeTransition(gc.ResizeTarget(), a.ResizeTarget(), b.ResizeTarget(), tr.Kind, progress)
	return nil
}

// compositeTransition writes the blend of two full frames into dst.
func compositeTransition(dst, a, b *gg.Pixmap, kind TransitionKind, progress float64) {
	w, h := dst.Width(), dst.Height()
	dd, ad, bd := dst.Data(), a.Data(), b.Data()

	switch kind {
	case TransitionSlide:
		// Scene A slides out left while B slides in from the right.
		offset := int(progress * float64(w))
		for y := 0; y < h; y++ {
			row := y * w * 4
			for x := 0; x < w; x++ {
				di := row + x*4
				if x < w-offset {
					si := row + (x+offset)*4
					copy(dd[di:di+4], ad[si:si+4])
				} else {
					si := row + (x-(w-offset))*4
					copy(dd[di:di+4], bd[si:si+4])
				}
			}
		}
	case TransitionWipe:
		boundary := int((1 - progress) * float64(w))
		for y := 0; y < h; y++ {
			row := y * w * 4
			for x := 0; x < w; x++ {
				di := row + x*4
				if x < boundary {
					copy(dd[di:di+4], ad[di:di+4])
				} else {
					copy(dd[di:di+4], bd[di:di+4])
				}
			}
		}
	case TransitionCircleOpen:
		cx, cy := float64(w)/2, float64(h)/2
		maxR := math.Hypot(cx, cy)
		r := progress * maxR
		r2 := r * r
		for y := 0; y < h; y++ {
			dy := float64(y) - cy
			row := y * w * 4
			for x := 0; x < w; x++ {
				dx := float64(x) - cx
				di := row + x*4
				if dx*dx+dy*dy <= r2 {
					copy(dd[di:di+4], bd[di:di+4])
				} else {
					copy(dd[di:di+4], ad[di:di+4])
				}
			}
		}
	default: // fade
		for i := 0; i < len(dd); i++ {
			av := float64(ad[i])
			bv := float64(bd[i])
			dd[i] = uint8(av + (bv-av)*progress + 0.5)
		}
	}
}
