// Package engine drives the frame pipeline: for every frame it runs the
// director's Update → Layout → Render passes, then encodes the raster and
// the exactly-matching audio slice. Frames are strictly sequential;
// cancellation lands on frame boundaries only.
package engine

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"time"

	"github.com/gogpu/gg"

	"github.com/vporoshin/scene2video/internal/config"
	"github.com/vporoshin/scene2video/internal/director"
	"github.com/vporoshin/scene2video/internal/system"
	"github.com/vporoshin/scene2video/internal/video"
)

// Exporter renders a director timeline into a video file.
type Exporter struct {
	Director *director.Director
	Encoder  video.Encoder
	Config   *config.Config
	Log      *slog.Logger
}

func NewExporter(d *director.Director, enc video.Encoder, cfg *config.Config, log *slog.Logger) *Exporter {
	if log == nil {
		log = slog.Default()
	}
	return &Exporter{Director: d, Encoder: enc, Config: cfg, Log: log}
}

// RenderFrame produces the raster for global time t. Given identical
// inputs the output is byte-for-byte reproducible: no wall clock, no
// goroutines, no map-order dependence in the render path.
func (e *Exporter) RenderFrame(t float64) (image.Image, error) {
	gc := gg.NewContext(e.Director.Width, e.Director.Height)
	if err := e.Director.RenderFrame(gc, t, false); err != nil {
		return nil, err
	}
	return gc.Image(), nil
}

// Run exports the full timeline. The context cancels between frames;
// partial frames are never emitted.
func (e *Exporter) Run(ctx context.Context) error {
	d := e.Director
	total := d.TotalDuration()
	if total <= 0 {
		return fmt.Errorf("timeline is empty")
	}
	frames := int64(math.Round(total * d.FPS))

	e.Log.Info("export starting",
		"size", fmt.Sprintf("%dx%d", d.Width, d.Height),
		"fps", d.FPS,
		"frames", frames,
		"duration", total,
		"pooledFrames", system.AdvisePoolBudget(d.Width*d.Height*4),
	)

	startTime := time.Now()
	if err := e.Encoder.Begin(ctx, d.Width, d.Height, d.FPS); err != nil {
		return err
	}

	var samplesWritten int64
	for f := int64(0); f < frames; f++ {
		select {
		case <-ctx.Done():
			e.Encoder.Abort()
			return ctx.Err()
		default:
		}

		t := float64(f) / d.FPS
		img, err := e.RenderFrame(t)
		if err != nil {
			e.Encoder.Abort()
			return fmt.Errorf("frame %d: %w", f, err)
		}
		if err := e.Encoder.WriteFrame(img); err != nil {
			e.Encoder.Abort()
			return fmt.Errorf("encode frame %d: %w", f, err)
		}

		// Audio for frame f spans sample positions [pos(f), pos(f+1)):
		// the drift-free accounting keeps Σ samples == round(N·rate/fps).
		chunk := d.Mixer.MixFrame(f, d.FPS)
		if err := e.Encoder.WriteAudio(chunk); err != nil {
			e.Encoder.Abort()
			return fmt.Errorf("audio frame %d: %w", f, err)
		}
		samplesWritten += int64(len(chunk) / 2)

		if f%int64(d.FPS*5) == 0 {
			fmt.Printf("[>] Frame %d/%d\n", f, frames)
		}
	}

	if err := e.Encoder.Finish(e.Config.OutputVideo); err != nil {
		return err
	}

	elapsed := time.Since(startTime)
	if e.Config.ShowStats {
		e.printStats(frames, samplesWritten, elapsed)
	}
	e.Log.Info("export finished", "output", e.Config.OutputVideo, "elapsed", elapsed)
	return nil
}

func (e *Exporter) printStats(frames, samples int64, elapsed time.Duration) {
	fps := float64(frames) / elapsed.Seconds()
	mem := system.MemorySummary()
	report := fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Frames: %d\n"+
			"Audio samples: %d\n"+
			"Total Time: %.2fs\n"+
			"Effective FPS: %.2f\n"+
			"%s"+
			"----------------------------\n",
		e.Config.BuildVersion, frames, samples, elapsed.Seconds(), fps, mem,
	)
	fmt.Print(report)
}
