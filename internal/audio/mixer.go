// Package audio mixes time-sliced PCM tracks into frame-sized buffers.
// All tracks are interleaved stereo f32 at a fixed internal rate.
package audio

import (
	"math"

	"github.com/vporoshin/scene2video/internal/anim"
)

// SampleRate is the internal mixing rate in Hz.
const SampleRate = 48000

// Track is one PCM source placed on the timeline.
type Track struct {
	// Samples are interleaved stereo frames (L,R,L,R,…) in [-1,1].
	Samples []float32
	// StartTime is the global start in seconds; TrimStart skips into the
	// source before playback.
	StartTime float64
	TrimStart float64
	// Volume is animated over seconds.
	Volume *anim.Animated[float64]
	Loop   bool
}

// NewTrack wraps samples with unit volume.
func NewTrack(samples []float32, startTime float64) *Track {
	return &Track{
		Samples:   samples,
		StartTime: startTime,
		Volume:    anim.NewAnimated(1.0, anim.LerpFloat),
	}
}

// FrameCount is the number of stereo frames in the source.
func (t *Track) FrameCount() int { return len(t.Samples) / 2 }

// Duration is the source length in seconds.
func (t *Track) Duration() float64 { return float64(t.FrameCount()) / SampleRate }

// ChildMixer lets nested compositions contribute audio: the mixer
// recurses with the time window translated into the child's local clock.
type ChildMixer interface {
	MixInto(out []float32, start float64)
}

// Mixer sums tracks (and nested mixers) into output buffers.
type Mixer struct {
	Tracks   []*Track
	Children []childRef
}

type childRef struct {
	mixer  ChildMixer
	offset float64
}

func NewMixer() *Mixer { return &Mixer{} }

// AddTrack registers a track and returns its index.
func (m *Mixer) AddTrack(t *Track) int {
	m.Tracks = append(m.Tracks, t)
	return len(m.Tracks) - 1
}

// AddChild registers a nested mixer whose local time is global minus
// offset.
func (m *Mixer) AddChild(c ChildMixer, offset float64) {
	m.Children = append(m.Children, childRef{mixer: c, offset: offset})
}

// SamplePosition maps a frame index to its absolute sample position:
// round(f·rate/fps). Computing positions (not per-frame counts) keeps the
// stream drift-free: rounding error never accumulates.
func SamplePosition(frame int64, fps float64) int64 {
	return int64(math.Round(float64(frame) * SampleRate / fps))
}

// FrameSampleCount is the exact number of stereo frames owed to video
// frame f at the given rate.
func FrameSampleCount(frame int64, fps float64) int {
	return int(SamplePosition(frame+1, fps) - SamplePosition(frame, fps))
}

// MixFrame renders the audio owed to video frame f as interleaved stereo.
func (m *Mixer) MixFrame(frame int64, fps float64) []float32 {
	count := FrameSampleCount(frame, fps)
	out := make([]float32, count*2)
	start := float64(SamplePosition(frame, fps)) / SampleRate
	m.MixInto(out, start)

	for i := range out {
		if out[i] > 1 {
			out[i] = 1
		} else if out[i] < -1 {
			out[i] = -1
		}
	}
	return out
}

// MixInto sums all tracks into out (stereo interleaved), where out spans
// [start, start+len/2/rate) seconds of global time.
func (m *Mixer) MixInto(out []float32, start float64) {
	frames := len(out) / 2
	dt := 1.0 / SampleRate

	for _, tr := range m.Tracks {
		srcFrames := tr.FrameCount()
		if srcFrames == 0 {
			continue
		}
		// The volume envelope is evaluated once per mix window; volume
		// changes are smooth at frame granularity.
		vol := float32(tr.Volume.SetFrame(start))
		if vol == 0 {
			continue
		}
		for i := 0; i < frames; i++ {
			t := start + float64(i)*dt
			rel := t - tr.StartTime
			if rel < 0 {
				continue
			}
			idx := int((rel + tr.TrimStart) * SampleRate)
			if tr.Loop {
				idx %= srcFrames
			} else if idx >= srcFrames {
				continue
			}
			out[i*2] += tr.Samples[idx*2] * vol
			out[i*2+1] += tr.Samples[idx*2+1] * vol
		}
	}

	for _, c := range m.Children {
		c.mixer.MixInto(out, start-c.offset)
	}
}
