package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vporoshin/scene2video/internal/audio"
)

// ExportFrameSource decodes exactly the requested frame, blocking until
// ffmpeg yields it. Deterministic and frame-accurate; the cost is one
// seek-decode per distinct frame time, softened by a one-frame cache.
type ExportFrameSource struct {
	Path     string
	W, H     int
	duration float64

	lastT   float64
	lastImg *image.RGBA
}

// OpenExportSource probes the clip and prepares a blocking frame source.
func OpenExportSource(path string) (*ExportFrameSource, error) {
	dur, err := audio.ProbeDuration(path)
	if err != nil {
		return nil, err
	}
	w, h, err := probeDimensions(path)
	if err != nil {
		return nil, err
	}
	return &ExportFrameSource{Path: path, W: w, H: h, duration: dur}, nil
}

func (s *ExportFrameSource) Duration() float64 { return s.duration }

func (s *ExportFrameSource) FrameAt(t float64, exact bool) (image.Image, error) {
	if t < 0 {
		t = 0
	}
	if s.lastImg != nil && t == s.lastT {
		return s.lastImg, nil
	}
	img, err := decodeOneFrame(s.Path, t, s.W, s.H)
	if err != nil {
		return nil, err
	}
	s.lastT = t
	s.lastImg = img
	return img, nil
}

func (s *ExportFrameSource) Close() error { return nil }

// PreviewFrameSource decodes on a worker goroutine into a bounded queue
// and serves the nearest frame at or before the requested time; frames
// older than the request are dropped. Frames are decoded once, front to
// back: a request earlier than the current frame gets the current frame.
// Decode failures degrade to the last good frame.
type PreviewFrameSource struct {
	Path string
	FPS  float64
	Log  *slog.Logger

	w, h     int
	duration float64

	mu      sync.Mutex
	frames  chan timedFrame
	current *image.RGBA
	currT   float64

	cancel context.CancelFunc
	group  *errgroup.Group
}

type timedFrame struct {
	t   float64
	img *image.RGBA
}

// OpenPreviewSource starts the decode worker.
func OpenPreviewSource(path string, fps float64, log *slog.Logger) (*PreviewFrameSource, error) {
	dur, err := audio.ProbeDuration(path)
	if err != nil {
		return nil, err
	}
	w, h, err := probeDimensions(path)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	s := &PreviewFrameSource{
		Path: path, FPS: fps, Log: log,
		w: w, h: h, duration: dur,
		frames: make(chan timedFrame, 8),
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.group, ctx = errgroup.WithContext(ctx)
	s.group.Go(func() error { return s.decodeLoop(ctx) })
	return s, nil
}

func (s *PreviewFrameSource) decodeLoop(ctx context.Context) error {
	step := 1.0 / s.FPS
	for t := 0.0; t < s.duration; t += step {
		img, err := decodeOneFrame(s.Path, t, s.w, s.h)
		if err != nil {
			s.Log.Warn("preview decode failed", "t", t, "err", err)
			continue
		}
		select {
		case s.frames <- timedFrame{t: t, img: img}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	close(s.frames)
	return nil
}

func (s *PreviewFrameSource) Duration() float64 { return s.duration }

// FrameAt drains the queue up to t and returns the newest frame not past
// the requested time.
func (s *PreviewFrameSource) FrameAt(t float64, exact bool) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.currT+1.0/s.FPS > t {
		return s.current, nil
	}
	for {
		select {
		case f, ok := <-s.frames:
			if !ok {
				if s.current == nil {
					return nil, fmt.Errorf("decoder finished before %0.3fs", t)
				}
				return s.current, nil
			}
			s.current = f.img
			s.currT = f.t
			if f.t+1.0/s.FPS > t {
				return s.current, nil
			}
		default:
			if s.current == nil {
				return nil, fmt.Errorf("no frame decoded yet for %0.3fs", t)
			}
			return s.current, nil
		}
	}
}

func (s *PreviewFrameSource) Close() error {
	s.cancel()
	err := s.group.Wait()
	if err == context.Canceled {
		return nil
	}
	return err
}

// decodeOneFrame seeks and decodes a single RGBA frame.
func decodeOneFrame(path string, t float64, w, h int) (*image.RGBA, error) {
	cmd := exec.Command("ffmpeg",
		"-v", "error",
		"-ss", strconv.FormatFloat(t, 'f', 4, 64),
		"-i", path,
		"-frames:v", "1",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-",
	)
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("decode %s at %.3fs: %w: %s", path, t, err, errBuf.String())
	}
	raw := out.Bytes()
	if len(raw) < w*h*4 {
		return nil, fmt.Errorf("decode %s at %.3fs: short frame (%d bytes)", path, t, len(raw))
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	copy(img.Pix, raw[:w*h*4])
	return img, nil
}

// probeDimensions reads the clip's pixel dimensions.
func probeDimensions(path string) (int, int, error) {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=s=x:p=0",
		path,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	var w, h int
	if _, err := fmt.Sscanf(string(bytes.TrimSpace(out)), "%dx%d", &w, &h); err != nil {
		return 0, 0, fmt.Errorf("parse dimensions of %s: %w", path, err)
	}
	return w, h, nil
}
