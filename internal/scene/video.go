package scene

import (
	"fmt"
	"image"
)

// FrameSource yields decoded video frames by media time. In exact mode the
// call blocks until the decoder reaches the requested frame; otherwise the
// nearest already-decoded frame is returned.
type FrameSource interface {
	FrameAt(t float64, exact bool) (image.Image, error)
	Duration() float64
	Close() error
}

// Video places decoded frames of a clip. For export the fetch is
// frame-accurate and a decoder failure is fatal for the frame; in preview
// the element falls back to the last good frame and logs.
type Video struct {
	Source FrameSource
	Fit    ObjectFit

	// Offset shifts media time relative to scene time.
	Offset float64

	img  *Image
	last image.Image
}

func NewVideo(src FrameSource, fit ObjectFit) *Video {
	return &Video{Source: src, Fit: fit, img: &Image{Fit: fit}}
}

func (v *Video) Update(t, duration float64) {}

func (v *Video) Render(rc *RenderContext, rect Rect) {
	if v.Source == nil {
		return
	}
	mediaT := rc.Time + v.Offset
	frame, err := v.Source.FrameAt(mediaT, !rc.Preview)
	if err != nil {
		if rc.Preview {
			rc.Log.Warn("video decoder lagging, reusing previous frame", "t", mediaT, "err", err)
			frame = v.last
		} else {
			rc.Fail(fmt.Errorf("video decode at %.3fs: %w", mediaT, err))
			return
		}
	}
	if frame == nil {
		return
	}
	v.last = frame
	v.img.Fit = v.Fit
	v.img.scaled = nil // frame content changes every tick
	v.img.draw(rc, frame, rect)
}
