package audio

import "math"

// Band selects a frequency range for audio-reactive bindings.
type Band int

const (
	BandBass Band = iota
	BandMids
	BandHighs
)

// ParseBand maps a scripting-level band name; unknown names are bass.
func ParseBand(name string) Band {
	switch name {
	case "mids":
		return BandMids
	case "highs":
		return BandHighs
	default:
		return BandBass
	}
}

// Bass returns the low-band energy at a global time.
func (t *Track) Bass(time float64) float64 { return t.BandEnergy(BandBass, time) }

// Mids returns the mid-band energy at a global time.
func (t *Track) Mids(time float64) float64 { return t.BandEnergy(BandMids, time) }

// Highs returns the high-band energy at a global time.
func (t *Track) Highs(time float64) float64 { return t.BandEnergy(BandHighs, time) }

// band center frequencies probed by the Goertzel detectors, in Hz.
var bandFreqs = map[Band][]float64{
	BandBass:  {60, 120, 240},
	BandMids:  {500, 1000, 2000},
	BandHighs: {4000, 8000, 12000},
}

// analysisWindow is the slice analysed around each query, in seconds.
const analysisWindow = 1.0 / 30

// BandEnergy measures the normalised energy of a band around time t using
// Goertzel detectors at a few probe frequencies. The measure is
// deterministic: the same track and time always yield the same value.
func (t *Track) BandEnergy(band Band, time float64) float64 {
	frames := t.FrameCount()
	if frames == 0 {
		return 0
	}
	rel := time - t.StartTime + t.TrimStart
	start := int(rel * SampleRate)
	n := int(analysisWindow * SampleRate)
	if start < 0 {
		start = 0
	}
	if t.Loop && frames > 0 {
		start %= frames
	}
	if start >= frames {
		return 0
	}
	if start+n > frames {
		n = frames - start
	}
	if n < 16 {
		return 0
	}

	total := 0.0
	freqs := bandFreqs[band]
	for _, f := range freqs {
		total += goertzel(t.Samples, start, n, f)
	}
	// Soft normalisation into [0,1].
	e := total / float64(len(freqs))
	return e / (e + 0.01)
}

// goertzel computes the normalised power at frequency f over n mono-mixed
// frames starting at start.
func goertzel(samples []float32, start, n int, f float64) float64 {
	w := 2 * math.Pi * f / SampleRate
	coeff := 2 * math.Cos(w)
	var s0, s1, s2 float64
	for i := 0; i < n; i++ {
		mono := float64(samples[(start+i)*2]+samples[(start+i)*2+1]) / 2
		s0 = mono + coeff*s1 - s2
		s2 = s1
		s1 = s0
	}
	power := s1*s1 + s2*s2 - coeff*s1*s2
	return power / float64(n*n)
}
