package lottie

import (
	"math"
	"testing"
)

const minimalDoc = `{
  "v": "5.7.0",
  "ip": 30, "op": 90, "fr": 30,
  "w": 200, "h": 200,
  "bg": "#1a1a2e",
  "layers": [
    {
      "ty": 4, "ind": 1, "ip": 0, "op": 900, "st": 0,
      "ks": {"p": {"a": 0, "k": [100, 100]}},
      "shapes": [
        {"ty": "el", "s": {"a": 0, "k": [50, 50]}, "p": {"a": 0, "k": [0, 0]}},
        {"ty": "fl", "c": {"a": 0, "k": [1, 0, 0, 1]}, "o": {"a": 0, "k": 100}}
      ]
    }
  ]
}`

func newTestPlayer(t *testing.T) *Player {
	t.Helper()
	p, err := NewPlayer([]byte(minimalDoc), nil, nil, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return p
}

// In-point offset: ip=30, op=90, fr=30 at speed 1. t=0 → frame 30,
// t=1s → 60, t=2s with loop → wraps back to 30.
func TestPlayerInPointOffset(t *testing.T) {
	p := newTestPlayer(t)
	p.Loop = true

	tests := []struct {
		t    float64
		want float64
	}{
		{0, 30},
		{1, 60},
		{2, 30},
	}
	for _, tt := range tests {
		if got := p.FrameAt(tt.t); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("FrameAt(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestPlayerClampWithoutLoop(t *testing.T) {
	p := newTestPlayer(t)
	p.Loop = false
	if got := p.FrameAt(10); got != 90 {
		t.Errorf("clamped frame = %v, want 90", got)
	}
	if got := p.FrameAt(-1); got != 30 {
		t.Errorf("clamped frame = %v, want 30", got)
	}
}

// Loop idempotence: the frame repeats with period (op−ip)/(fr·speed).
func TestPlayerLoopIdempotence(t *testing.T) {
	p := newTestPlayer(t)
	p.Loop = true
	p.Speed = 1.5

	period := (p.Comp.OutPoint - p.Comp.InPoint) / (p.Comp.FrameRate * p.Speed)
	for _, tt := range []float64{0, 0.37, 1.2} {
		a := p.FrameAt(tt)
		b := p.FrameAt(tt + period)
		if math.Abs(a-b) > 1e-6 {
			t.Errorf("frame at %v = %v, after one period = %v", tt, a, b)
		}
	}
}

func TestPlayerSpeedScalesFrame(t *testing.T) {
	p := newTestPlayer(t)
	p.Loop = false
	p.Speed = 2
	if got := p.FrameAt(0.5); math.Abs(got-60) > 1e-9 {
		t.Errorf("frame at 0.5s speed 2 = %v, want 60", got)
	}
}

func TestPlayerBackground(t *testing.T) {
	p := newTestPlayer(t)
	bg := p.Background()
	if math.Abs(bg[0]-26.0/255) > 1e-9 || bg[3] != 1 {
		t.Errorf("background = %v", bg)
	}
}

func TestParseErrorCarriesPosition(t *testing.T) {
	_, err := Parse([]byte("{\n  \"ip\": oops\n}"))
	if err == nil {
		t.Fatal("expected parse error")
	}
	pe, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Line < 2 {
		t.Errorf("error line = %d, want ≥2", pe.Line)
	}
}
