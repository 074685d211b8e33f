package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/vporoshin/scene2video/internal/assets"
	"github.com/vporoshin/scene2video/internal/config"
	"github.com/vporoshin/scene2video/internal/director"
	"github.com/vporoshin/scene2video/internal/engine"
	"github.com/vporoshin/scene2video/internal/logging"
	"github.com/vporoshin/scene2video/internal/preview"
	"github.com/vporoshin/scene2video/internal/system"
	"github.com/vporoshin/scene2video/internal/video"
)

var buildVersion = "dev"

func main() {
	scenarioPtr := flag.String("scenario", "", "Path to the scenario YAML (default: latest file in scenarios/)")
	outputPtr := flag.String("output", "", "Output video path (default: output/<scenario>.mp4)")
	assetsPtr := flag.String("assets", ".", "Asset root directory")
	fontPtr := flag.String("font", "", "Font file for text elements")
	encoderPtr := flag.String("encoder", "", "Video encoder (default: best available H.264)")
	qualityPtr := flag.Int("quality", 0, "Encoder quality (x264: CRF, VideoToolbox: bitrate = Q*100kbit/s)")
	servePtr := flag.String("serve", "", "Run the preview HTTP server on this address instead of exporting")
	logFilePtr := flag.String("log-file", "", "Also write logs to this rotating file")
	debugPtr := flag.Bool("debug", false, "Verbose logging")
	statsPtr := flag.Bool("stats", false, "Print a performance report after export")
	flag.Parse()

	log := logging.Setup(logging.Options{File: *logFilePtr, Debug: *debugPtr})
	system.InitResourceLimits(log)

	cache := assets.NewCache(&assets.FileLoader{Root: *assetsPtr}, log)
	cfg := &config.Config{
		AssetRoot:    *assetsPtr,
		FontPath:     *fontPtr,
		VideoEncoder: *encoderPtr,
		Quality:      *qualityPtr,
		ShowStats:    *statsPtr,
		BuildVersion: buildVersion,
	}
	if cfg.VideoEncoder == "" {
		cfg.VideoEncoder = system.BestH264Encoder()
	}

	if *servePtr != "" {
		srv := preview.NewServer(cache, cfg, log)
		if err := srv.ListenAndServe(*servePtr); err != nil {
			log.Error("preview server failed", "err", err)
			os.Exit(1)
		}
		return
	}

	scenarioPath := *scenarioPtr
	if scenarioPath == "" {
		latest, err := director.FindLatestScenario("scenarios")
		if err != nil {
			log.Error("no scenario given and none found", "err", err)
			os.Exit(1)
		}
		scenarioPath = latest
		fmt.Printf("[*] Using scenario: %s\n", scenarioPath)
	}

	sc, err := director.ReadScenario(scenarioPath)
	if err != nil {
		log.Error("scenario load failed", "path", scenarioPath, "err", err)
		os.Exit(1)
	}

	if *fontPtr != "" {
		sc.Font = *fontPtr
	}
	d, err := sc.Build(cache, log)
	if err != nil {
		log.Error("scenario build failed", "err", err)
		os.Exit(1)
	}

	output := *outputPtr
	if output == "" {
		os.MkdirAll("output", 0755)
		base := filepath.Base(scenarioPath)
		output = filepath.Join("output", base[:len(base)-len(filepath.Ext(base))]+".mp4")
	}
	cfg.ScenarioPath = scenarioPath
	cfg.OutputVideo = output
	cfg.Width, cfg.Height, cfg.FPS = d.Width, d.Height, d.FPS

	fmt.Println("--- [SCENE2VIDEO ENGINE] ---")
	fmt.Printf("[*] Scenario: %s | Scenes: %d\n", scenarioPath, len(d.Scenes))
	fmt.Printf("[*] Resolution: %dx%d @ %.0f FPS | Duration: %.2fs\n", d.Width, d.Height, d.FPS, d.TotalDuration())
	fmt.Println("----------------------------")

	// Export is cancellable at frame boundaries only.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	enc := &video.FFmpegEncoder{EncoderName: cfg.VideoEncoder, Quality: cfg.Quality}
	exp := engine.NewExporter(d, enc, cfg, log)
	if err := exp.Run(ctx); err != nil {
		log.Error("export failed", "err", err)
		os.Exit(1)
	}
	fmt.Printf("[+++] Done: %s\n", output)
}
