package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Decode reads any audio file ffmpeg understands and returns interleaved
// stereo f32 frames at the internal rate. Decoding happens once at load
// time; the mixer never touches the decoder afterwards.
func Decode(path string) ([]float32, error) {
	cmd := exec.Command("ffmpeg",
		"-v", "error",
		"-i", path,
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"-ac", "2",
		"-ar", strconv.Itoa(SampleRate),
		"-",
	)
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("audio decode %s: %w: %s", path, err, errBuf.String())
	}

	raw := out.Bytes()
	samples := make([]float32, len(raw)/4)
	for i := range samples {
		bits := binary.LittleEndian.Uint32(raw[i*4:])
		samples[i] = math.Float32frombits(bits)
	}
	return samples, nil
}

// ProbeDuration returns the duration of a media file in seconds.
func ProbeDuration(path string) (float64, error) {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	var duration float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &duration); err != nil {
		return 0, fmt.Errorf("parse duration of %s: %w", path, err)
	}
	return duration, nil
}
