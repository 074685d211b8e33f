package director

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/gg/text"

	"github.com/vporoshin/scene2video/internal/assets"
	"github.com/vporoshin/scene2video/internal/scene"
	"github.com/vporoshin/scene2video/internal/video"
)

// Scenario is the declarative YAML document the CLI consumes: a complete
// timeline of scenes, nodes, animations, transitions and audio tracks.
type Scenario struct {
	Version     string               `yaml:"version"`
	Width       int                  `yaml:"width"`
	Height      int                  `yaml:"height"`
	FPS         float64              `yaml:"fps"`
	Font        string               `yaml:"font,omitempty"`
	Scenes      []ScenarioScene      `yaml:"scenes"`
	Transitions []ScenarioTransition `yaml:"transitions,omitempty"`
	Audio       []ScenarioAudio      `yaml:"audio,omitempty"`
}

// ScenarioScene is one timeline segment.
type ScenarioScene struct {
	Name     string            `yaml:"name,omitempty"`
	Duration float64           `yaml:"duration"`
	Style    map[string]string `yaml:"style,omitempty"`
	Nodes    []ScenarioNode    `yaml:"nodes,omitempty"`
}

// ScenarioNode describes one node and its children.
type ScenarioNode struct {
	Type     string            `yaml:"type"` // box, text, image, video, vector, lottie, qr
	Name     string            `yaml:"name,omitempty"`
	Content  string            `yaml:"content,omitempty"` // text / qr payload / path data
	Key      string            `yaml:"key,omitempty"`     // asset key
	Size     float64           `yaml:"size,omitempty"`    // text size
	Color    string            `yaml:"color,omitempty"`
	Fit      string            `yaml:"fit,omitempty"`
	Loop     *bool             `yaml:"loop,omitempty"`
	Speed    float64           `yaml:"speed,omitempty"`
	ZIndex   int               `yaml:"z,omitempty"`
	Style    map[string]string `yaml:"style,omitempty"`
	Animate  []ScenarioAnim    `yaml:"animate,omitempty"`
	Effect   string            `yaml:"effect,omitempty"`
	Blend    string            `yaml:"blend,omitempty"`
	Children []ScenarioNode    `yaml:"children,omitempty"`
}

// ScenarioAnim is a single property segment.
type ScenarioAnim struct {
	Property  string  `yaml:"prop"`
	From      float64 `yaml:"from"`
	To        float64 `yaml:"to"`
	Duration  float64 `yaml:"duration"`
	Easing    string  `yaml:"easing,omitempty"`
	Delay     float64 `yaml:"delay,omitempty"`
	Spring    bool    `yaml:"spring,omitempty"`
	Stiffness float64 `yaml:"stiffness,omitempty"`
	Damping   float64 `yaml:"damping,omitempty"`
	Mass      float64 `yaml:"mass,omitempty"`
}

// ScenarioTransition spans two scenes by index.
type ScenarioTransition struct {
	From     int     `yaml:"from"`
	To       int     `yaml:"to"`
	Kind     string  `yaml:"kind"`
	Duration float64 `yaml:"duration"`
	Easing   string  `yaml:"easing,omitempty"`
}

// ScenarioAudio places an audio file on the global clock.
type ScenarioAudio struct {
	Path   string  `yaml:"path"`
	Start  float64 `yaml:"start,omitempty"`
	Volume float64 `yaml:"volume,omitempty"`
	Loop   bool    `yaml:"loop,omitempty"`
}

// Build constructs a director from the scenario.
func (sc *Scenario) Build(cache *assets.Cache, log *slog.Logger) (*Director, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	fps := sc.FPS
	if fps <= 0 {
		fps = 30
	}
	d := New(sc.Width, sc.Height, fps, cache, log)
	if sc.Font != "" {
		source, err := text.NewFontSourceFromFile(cache.Loader.Resolve(sc.Font))
		if err != nil {
			return nil, fmt.Errorf("font %s: %w", sc.Font, err)
		}
		d.SetFont(source)
	}

	for _, ss := range sc.Scenes {
		s := d.AddScene(ss.Duration)
		s.Name = ss.Name
		if ss.Style != nil {
			d.SetStyle(s.Root, ss.Style)
		}
		for _, n := range ss.Nodes {
			if err := s.buildNode(scene.None, &n); err != nil {
				return nil, err
			}
		}
	}
	for _, tr := range sc.Transitions {
		if err := d.AddTransition(tr.From, tr.To, TransitionKind(tr.Kind), tr.Duration, parseEasingName(tr.Easing)); err != nil {
			return nil, err
		}
	}
	for _, au := range sc.Audio {
		id, err := d.AddAudio(au.Path, au.Start)
		if err != nil {
			return nil, err
		}
		t := d.Track(id)
		if au.Volume > 0 {
			t.Volume.Set(au.Volume)
		}
		t.Loop = au.Loop
	}
	return d, nil
}

func (s *Scene) buildNode(parent scene.Handle, n *ScenarioNode) error {
	var h scene.Handle
	var err error
	switch n.Type {
	case "text":
		h = s.AddText(parent, n.Content, n.Size, n.Color, n.Style)
	case "image":
		h = s.AddImage(parent, n.Key, n.Fit, n.Style)
	case "vector":
		h = s.AddVector(parent, n.Content, n.Style)
	case "qr":
		h = s.AddQR(parent, n.Content, n.Style)
	case "video":
		src, serr := video.OpenExportSource(s.d.Assets.Loader.Resolve(n.Key))
		if serr != nil {
			return fmt.Errorf("video node %q: %w", n.Name, serr)
		}
		h = s.AddVideo(parent, src, n.Fit, n.Style)
	case "lottie":
		loop := true
		if n.Loop != nil {
			loop = *n.Loop
		}
		h, err = s.AddLottie(parent, n.Key, loop, n.Speed, n.Style)
		if err != nil {
			return fmt.Errorf("lottie node %q: %w", n.Name, err)
		}
	case "box", "":
		h = s.AddBox(parent, n.Style)
	default:
		return fmt.Errorf("unknown node type %q", n.Type)
	}

	if node, err := s.d.Arena.Get(h); err == nil {
		node.Name = n.Name
		node.ZIndex = n.ZIndex
	}
	if n.Blend != "" {
		s.d.SetBlendMode(h, n.Blend)
	}

	for _, a := range n.Animate {
		if a.Spring {
			cfg := anim0Spring(a)
			if err := s.d.Spring(h, a.Property, a.From, a.To, cfg, a.Delay); err != nil {
				s.d.Log.Warn("spring skipped", "prop", a.Property, "err", err)
			}
			continue
		}
		if err := s.d.Animate(h, a.Property, a.From, a.To, a.Duration, a.Easing, a.Delay); err != nil {
			s.d.Log.Warn("animation skipped", "prop", a.Property, "err", err)
		}
	}
	if n.Effect != "" {
		if _, err := s.d.ApplyEffect(h, n.Effect); err != nil {
			return err
		}
	}
	for i := range n.Children {
		if err := s.buildNode(h, &n.Children[i]); err != nil {
			return err
		}
	}
	return nil
}
