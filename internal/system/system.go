// Package system holds process-level concerns: resource limits, memory
// advisories and encoder detection.
package system

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"syscall"

	"github.com/shirou/gopsutil/v3/mem"
)

// InitResourceLimits raises the open-file limit; long exports hold many
// asset and pipe handles at once.
func InitResourceLimits(log *slog.Logger) {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Warn("could not read file limit", "err", err)
		return
	}
	if rLimit.Cur >= 2048 {
		return
	}
	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}
	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Warn("could not raise file limit", "err", err)
	} else {
		log.Info("open file limit raised", "limit", rLimit.Cur)
	}
}

// MemorySummary returns a one-line memory report for the stats block.
func MemorySummary() string {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return ""
	}
	return fmt.Sprintf("Memory: %.1f%% used (%.1f GB free)\n",
		vm.UsedPercent, float64(vm.Available)/(1<<30))
}

// AdvisePoolBudget suggests how many full frames the pixmap pool may
// retain, based on available memory and the frame byte size. At least two
// frames are always allowed (front buffer + compositing scratch).
func AdvisePoolBudget(frameBytes int) int {
	vm, err := mem.VirtualMemory()
	if err != nil || frameBytes <= 0 {
		return 8
	}
	// Use at most a quarter of available memory for pooled frames.
	budget := int(vm.Available / 4 / uint64(frameBytes))
	if budget < 2 {
		budget = 2
	}
	if budget > 64 {
		budget = 64
	}
	return budget
}

// BestH264Encoder probes ffmpeg for hardware H.264 support and falls back
// to libx264.
func BestH264Encoder() string {
	out, err := exec.Command("ffmpeg", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	for _, enc := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(string(out), enc) {
			return enc
		}
	}
	return "libx264"
}
