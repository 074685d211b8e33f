package director

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vporoshin/scene2video/internal/anim"
)

// scenarioVersion is stamped into documents written without one.
const scenarioVersion = "1.0"

// WriteScenario validates and persists a scenario document, creating the
// target directory when needed.
func WriteScenario(scenario *Scenario, path string) error {
	if scenario.Version == "" {
		scenario.Version = scenarioVersion
	}
	if err := scenario.Validate(); err != nil {
		return fmt.Errorf("scenario %s: %w", path, err)
	}
	data, err := yaml.Marshal(scenario)
	if err != nil {
		return fmt.Errorf("scenario %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadScenario loads a scenario document, applies defaults and validates
// it, so Build can assume a well-formed timeline.
func ReadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	scenario := &Scenario{}
	if err := yaml.Unmarshal(data, scenario); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	if scenario.FPS <= 0 {
		scenario.FPS = 30
	}
	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return scenario, nil
}

// Validate checks the structural invariants the builder relies on:
// positive viewport, at least one scene with a positive duration, known
// node types, and transitions that reference scenes by valid index.
func (sc *Scenario) Validate() error {
	if sc.Width <= 0 || sc.Height <= 0 {
		return fmt.Errorf("needs positive dimensions, got %dx%d", sc.Width, sc.Height)
	}
	if len(sc.Scenes) == 0 {
		return fmt.Errorf("needs at least one scene")
	}
	for i, ss := range sc.Scenes {
		if ss.Duration <= 0 {
			return fmt.Errorf("scene %d (%q) needs a positive duration", i, ss.Name)
		}
		for j := range ss.Nodes {
			if err := ss.Nodes[j].validate(); err != nil {
				return fmt.Errorf("scene %d (%q): %w", i, ss.Name, err)
			}
		}
	}
	for i, tr := range sc.Transitions {
		if tr.From < 0 || tr.From >= len(sc.Scenes) || tr.To < 0 || tr.To >= len(sc.Scenes) {
			return fmt.Errorf("transition %d references unknown scene %d→%d", i, tr.From, tr.To)
		}
		if tr.Duration <= 0 {
			return fmt.Errorf("transition %d needs a positive duration", i)
		}
	}
	return nil
}

func (n *ScenarioNode) validate() error {
	switch n.Type {
	case "", "box", "text", "image", "video", "vector", "lottie", "qr":
	default:
		return fmt.Errorf("node %q has unknown type %q", n.Name, n.Type)
	}
	switch n.Type {
	case "image", "video", "lottie":
		if n.Key == "" {
			return fmt.Errorf("node %q (%s) needs an asset key", n.Name, n.Type)
		}
	}
	for i := range n.Children {
		if err := n.Children[i].validate(); err != nil {
			return err
		}
	}
	return nil
}

func parseEasingName(name string) anim.Easing {
	return anim.ParseEasing(name)
}

func anim0Spring(a ScenarioAnim) anim.SpringConfig {
	cfg := anim.DefaultSpring()
	if a.Stiffness > 0 {
		cfg.Stiffness = a.Stiffness
	}
	if a.Damping > 0 {
		cfg.Damping = a.Damping
	}
	if a.Mass > 0 {
		cfg.Mass = a.Mass
	}
	return cfg
}
