// Package preview exposes the HTTP surface used by the frontend while
// authoring: load a scenario, render single frames, list scenes, trigger
// an export.
package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/gogpu/gg"

	"github.com/vporoshin/scene2video/internal/assets"
	"github.com/vporoshin/scene2video/internal/config"
	"github.com/vporoshin/scene2video/internal/director"
	"github.com/vporoshin/scene2video/internal/engine"
	"github.com/vporoshin/scene2video/internal/video"
)

// Server holds the currently loaded director behind a lock: the HTTP
// handlers are the external exclusive lock the render core assumes.
type Server struct {
	Cache *assets.Cache
	Cfg   *config.Config
	Log   *slog.Logger

	mu sync.Mutex
	d  *director.Director
}

func NewServer(cache *assets.Cache, cfg *config.Config, log *slog.Logger) *Server {
	return &Server{Cache: cache, Cfg: cfg, Log: log}
}

// Routes registers the preview endpoints.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/init", s.handleInit)
	mux.HandleFunc("/render", s.handleRender)
	mux.HandleFunc("/scenes", s.handleScenes)
	mux.HandleFunc("/export", s.handleExport)
}

// ListenAndServe blocks serving the preview API.
func (s *Server) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	s.Routes(mux)
	s.Log.Info("preview server listening", "addr", addr)
	return http.ListenAndServe(addr, mux)
}

type errorBody struct {
	Error  string `json:"error"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	var path string
	switch r.Method {
	case http.MethodGet:
		path = r.URL.Query().Get("scenario")
		if path == "" {
			path = r.URL.Query().Get("script_path")
		}
	case http.MethodPost:
		var body struct {
			Scenario string `json:"scenario"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
		path = body.Scenario
	default:
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "use GET or POST"})
		return
	}

	sc, err := director.ReadScenario(path)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	d, err := sc.Build(s.Cache, s.Log)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	s.mu.Lock()
	s.d = d
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"duration": d.TotalDuration(),
	})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	t, err := strconv.ParseFloat(r.URL.Query().Get("time"), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "time parameter required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.d == nil {
		writeJSON(w, http.StatusConflict, errorBody{Error: "no scenario loaded"})
		return
	}

	gc := gg.NewContext(s.d.Width, s.d.Height)
	if err := s.d.RenderFrame(gc, t, true); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, gc.Image()); err != nil {
		s.Log.Warn("preview encode failed", "err", err)
	}
}

func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.d == nil {
		writeJSON(w, http.StatusConflict, errorBody{Error: "no scenario loaded"})
		return
	}
	type sceneInfo struct {
		Index     int     `json:"index"`
		StartTime float64 `json:"startTime"`
		Duration  float64 `json:"duration"`
		Name      string  `json:"name,omitempty"`
	}
	out := make([]sceneInfo, 0, len(s.d.Scenes))
	for i, sc := range s.d.Scenes {
		out = append(out, sceneInfo{Index: i, StartTime: sc.StartTime, Duration: sc.Duration, Name: sc.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "use POST"})
		return
	}
	var body struct {
		Output string `json:"output"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	if body.Output == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "output path required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.d == nil {
		writeJSON(w, http.StatusConflict, errorBody{Error: "no scenario loaded"})
		return
	}

	cfg := *s.Cfg
	cfg.OutputVideo = body.Output
	enc := &video.FFmpegEncoder{EncoderName: cfg.VideoEncoder, Quality: cfg.Quality}
	exp := engine.NewExporter(s.d, enc, &cfg, s.Log)
	if err := exp.Run(context.Background()); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: fmt.Sprintf("export failed: %v", err)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "output": body.Output})
}
