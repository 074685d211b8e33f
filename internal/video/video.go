// Package video is the frame/audio sink side of the pipeline: an ffmpeg
// muxer fed raw RGBA frames over stdin plus a raw f32le audio side file,
// and frame sources for video elements.
package video

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"image/draw"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/vporoshin/scene2video/internal/system"
)

// Encoder receives rendered frames and mixed audio in strict frame order
// and produces the final container on Finish.
type Encoder interface {
	Begin(ctx context.Context, width, height int, fps float64) error
	WriteFrame(img image.Image) error
	WriteAudio(samples []float32) error
	Finish(outputPath string) error
	Abort()
}

// FFmpegEncoder pipes raw RGBA video into one ffmpeg process and buffers
// audio to a raw side file; Finish muxes the two into the output.
type FFmpegEncoder struct {
	EncoderName string
	Quality     int
	SampleRate  int

	tmpDir    string
	videoPath string
	audioPath string
	audioFile *os.File
	audioBuf  *bufio.Writer
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stderr    bytes.Buffer
	ctx       context.Context
}

// Begin starts the video leg of the encode.
func (e *FFmpegEncoder) Begin(ctx context.Context, width, height int, fps float64) error {
	tmpDir, err := os.MkdirTemp("", "scene2video_")
	if err != nil {
		return err
	}
	e.tmpDir = tmpDir
	e.ctx = ctx
	e.videoPath = filepath.Join(tmpDir, "video.mp4")
	e.audioPath = filepath.Join(tmpDir, "audio.f32le")

	e.audioFile, err = os.Create(e.audioPath)
	if err != nil {
		return err
	}
	e.audioBuf = bufio.NewWriterSize(e.audioFile, 1<<20)

	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", width, height),
		"-framerate", formatFPS(fps),
		"-i", "-",
		"-r", formatFPS(fps),
		"-pix_fmt", "yuv420p",
		"-c:v", e.encoderName(),
	}
	args = append(args, e.qualityArgs()...)
	args = append(args, e.videoPath)

	e.cmd = exec.CommandContext(ctx, "ffmpeg", args...)
	e.cmd.Stderr = &e.stderr
	e.stdin, err = e.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	if err := e.cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start: %w", err)
	}
	return nil
}

func (e *FFmpegEncoder) encoderName() string {
	if e.EncoderName != "" {
		return e.EncoderName
	}
	return "libx264"
}

// qualityArgs picks encoder-specific rate control, as hardware encoders
// do not share libx264's CRF scale.
func (e *FFmpegEncoder) qualityArgs() []string {
	quality := e.Quality
	if quality <= 0 {
		quality = 18
	}
	switch e.encoderName() {
	case "h264_videotoolbox":
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return []string{"-cq", strconv.Itoa(quality)}
	default:
		return []string{"-crf", strconv.Itoa(quality), "-preset", "medium"}
	}
}

// WriteFrame streams one raw RGBA frame. Rendered frames already arrive
// as tightly-packed RGBA and go straight to the pipe; anything else is
// converted through a pooled pixmap.
func (e *FFmpegEncoder) WriteFrame(img image.Image) error {
	bounds := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok &&
		rgba.Stride == bounds.Dx()*4 && rgba.Rect.Min.X == 0 && rgba.Rect.Min.Y == 0 {
		if _, err := e.stdin.Write(rgba.Pix); err != nil {
			return fmt.Errorf("write frame: %w: %s", err, e.stderr.String())
		}
		return nil
	}

	pm := system.GetPixmap(bounds.Dx(), bounds.Dy())
	// The pixmap's byte layout matches image.RGBA, so a header over its
	// data lets the stdlib draw do the conversion in place.
	view := &image.RGBA{
		Pix:    pm.Data(),
		Stride: bounds.Dx() * 4,
		Rect:   image.Rect(0, 0, bounds.Dx(), bounds.Dy()),
	}
	draw.Draw(view, view.Rect, img, bounds.Min, draw.Src)
	_, err := e.stdin.Write(pm.Data())
	system.PutPixmap(pm)
	if err != nil {
		return fmt.Errorf("write frame: %w: %s", err, e.stderr.String())
	}
	return nil
}

// WriteAudio appends interleaved stereo f32 samples to the side file.
func (e *FFmpegEncoder) WriteAudio(samples []float32) error {
	var scratch [4]byte
	for _, s := range samples {
		binary.LittleEndian.PutUint32(scratch[:], math.Float32bits(s))
		if _, err := e.audioBuf.Write(scratch[:]); err != nil {
			return err
		}
	}
	return nil
}

// Finish closes both legs and muxes the final file.
func (e *FFmpegEncoder) Finish(outputPath string) error {
	defer os.RemoveAll(e.tmpDir)

	if err := e.stdin.Close(); err != nil {
		return err
	}
	if err := e.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg encode: %w: %s", err, e.stderr.String())
	}
	if err := e.audioBuf.Flush(); err != nil {
		return err
	}
	if err := e.audioFile.Close(); err != nil {
		return err
	}

	rate := e.SampleRate
	if rate == 0 {
		rate = 48000
	}
	cmd := exec.CommandContext(e.ctx, "ffmpeg", "-y",
		"-i", e.videoPath,
		"-f", "f32le",
		"-ar", strconv.Itoa(rate),
		"-ac", "2",
		"-i", e.audioPath,
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		outputPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg mux: %w: %s", err, string(out))
	}
	return nil
}

// Abort tears the encode down without producing output.
func (e *FFmpegEncoder) Abort() {
	if e.stdin != nil {
		e.stdin.Close()
	}
	if e.cmd != nil && e.cmd.Process != nil {
		e.cmd.Process.Kill()
		e.cmd.Wait()
	}
	if e.audioFile != nil {
		e.audioFile.Close()
	}
	if e.tmpDir != "" {
		os.RemoveAll(e.tmpDir)
	}
}

func formatFPS(fps float64) string {
	if fps == math.Trunc(fps) {
		return strconv.Itoa(int(fps))
	}
	return strconv.FormatFloat(fps, 'f', 3, 64)
}
