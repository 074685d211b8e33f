package audio

import (
	"math"
	"testing"

	"github.com/vporoshin/scene2video/internal/anim"
)

// After N frames the emitted sample count must equal round(N·rate/fps)
// exactly — per-frame rounding error must not accumulate.
func TestSampleExactness(t *testing.T) {
	tests := []struct {
		fps     float64
		seconds int
	}{
		{30, 30},
		{24, 10},
		{29.97, 60},
		{60, 5},
	}
	for _, tt := range tests {
		frames := int64(math.Round(tt.fps * float64(tt.seconds)))
		var total int64
		for f := int64(0); f < frames; f++ {
			total += int64(FrameSampleCount(f, tt.fps))
		}
		want := int64(math.Round(float64(frames) * SampleRate / tt.fps))
		if total != want {
			t.Errorf("fps=%v: total samples = %d, want %d", tt.fps, total, want)
		}
	}
}

// The 30s @ 30fps export owes exactly 1,440,000 samples.
func TestThirtySecondExportSampleCount(t *testing.T) {
	var total int64
	for f := int64(0); f < 900; f++ {
		total += int64(FrameSampleCount(f, 30))
	}
	if total != 1440000 {
		t.Errorf("total = %d, want 1440000", total)
	}
}

func TestMixBasic(t *testing.T) {
	m := NewMixer()
	samples := make([]float32, SampleRate*2) // 1 second stereo
	for i := range samples {
		samples[i] = 0.5
	}
	m.AddTrack(NewTrack(samples, 0))

	out := m.MixFrame(0, 30)
	if len(out) != FrameSampleCount(0, 30)*2 {
		t.Fatalf("chunk length = %d", len(out))
	}
	if math.Abs(float64(out[0])-0.5) > 1e-5 {
		t.Errorf("first sample = %v, want 0.5", out[0])
	}
}

func TestMixRespectsStartTime(t *testing.T) {
	m := NewMixer()
	samples := make([]float32, SampleRate*2)
	for i := range samples {
		samples[i] = 0.5
	}
	tr := NewTrack(samples, 1.0) // starts at 1s
	m.AddTrack(tr)

	out := m.MixFrame(0, 30) // frame 0 covers [0, 1/30)
	for _, s := range out {
		if s != 0 {
			t.Fatalf("track audible before its start time: %v", s)
		}
	}
	out = m.MixFrame(31, 30)
	if out[0] == 0 {
		t.Error("track silent after its start time")
	}
}

func TestMixSumsAndClamps(t *testing.T) {
	m := NewMixer()
	loud := make([]float32, SampleRate*2)
	for i := range loud {
		loud[i] = 0.8
	}
	m.AddTrack(NewTrack(loud, 0))
	m.AddTrack(NewTrack(loud, 0))

	out := m.MixFrame(0, 30)
	if out[0] != 1 {
		t.Errorf("summed sample = %v, want clamped 1", out[0])
	}
}

func TestMixLoops(t *testing.T) {
	m := NewMixer()
	short := make([]float32, 200) // 100 frames
	for i := range short {
		short[i] = 0.25
	}
	tr := NewTrack(short, 0)
	tr.Loop = true
	m.AddTrack(tr)

	out := m.MixFrame(300, 30) // well past the source length
	if math.Abs(float64(out[0])-0.25) > 1e-6 {
		t.Errorf("looped sample = %v, want 0.25", out[0])
	}
}

func TestNestedMixerRecursion(t *testing.T) {
	child := NewMixer()
	samples := make([]float32, SampleRate*2)
	for i := range samples {
		samples[i] = 0.3
	}
	child.AddTrack(NewTrack(samples, 0))

	parent := NewMixer()
	parent.AddChild(child, 2.0) // child clock starts at global t=2

	out := parent.MixFrame(0, 30)
	for _, s := range out {
		if s != 0 {
			t.Fatal("child audible before its offset")
		}
	}
	out = parent.MixFrame(61, 30)
	if math.Abs(float64(out[0])-0.3) > 1e-6 {
		t.Errorf("nested sample = %v, want 0.3", out[0])
	}
}

func TestVolumeEnvelope(t *testing.T) {
	m := NewMixer()
	samples := make([]float32, SampleRate*4*2)
	for i := range samples {
		samples[i] = 1
	}
	tr := NewTrack(samples, 0)
	// Fade 1 → 0 over two seconds (the envelope axis is seconds).
	tr.Volume.AddSegment(1, 0, 0, 2, anim.Linear)
	m.AddTrack(tr)

	early := m.MixFrame(0, 30)
	late := m.MixFrame(90, 30) // t=3s, past the fade
	if early[0] <= late[0] {
		t.Errorf("volume envelope not applied: early=%v late=%v", early[0], late[0])
	}
	if late[0] != 0 {
		t.Errorf("faded-out sample = %v, want 0", late[0])
	}
}
