package director

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/vporoshin/scene2video/internal/anim"
	"github.com/vporoshin/scene2video/internal/assets"
	"github.com/vporoshin/scene2video/internal/scene"
)

func testDirector() *Director {
	cache := assets.NewCache(&assets.MapLoader{Data: map[string][]byte{}}, nil)
	return New(320, 240, 30, cache, nil)
}

func TestScenesAreSequentialByDefault(t *testing.T) {
	d := testDirector()
	s1 := d.AddScene(3)
	s2 := d.AddScene(2)

	if s1.StartTime != 0 || s2.StartTime != 3 {
		t.Errorf("starts = %v, %v", s1.StartTime, s2.StartTime)
	}
	if d.TotalDuration() != 5 {
		t.Errorf("total = %v, want 5", d.TotalDuration())
	}
}

// Ripple: the second scene's start shifts to the first scene's end minus
// the transition duration.
func TestTransitionRipplesSceneStarts(t *testing.T) {
	d := testDirector()
	d.AddScene(3)
	s2 := d.AddScene(2)
	s3 := d.AddScene(1)

	if err := d.AddTransition(0, 1, TransitionFade, 0.5, anim.Linear); err != nil {
		t.Fatal(err)
	}
	if math.Abs(s2.StartTime-2.5) > 1e-9 {
		t.Errorf("rippled start = %v, want 2.5", s2.StartTime)
	}
	if math.Abs(s3.StartTime-4.5) > 1e-9 {
		t.Errorf("later scenes must shift too, start = %v, want 4.5", s3.StartTime)
	}

	tr := d.transitionAt(2.7)
	if tr == nil || tr.From != 0 || tr.To != 1 {
		t.Errorf("transitionAt(2.7) = %+v", tr)
	}
	if d.transitionAt(1.0) != nil {
		t.Error("no transition should be active at 1.0s")
	}
}

func TestAnimateRoutesToTransformAndElement(t *testing.T) {
	d := testDirector()
	s := d.AddScene(2)
	h := s.AddBox(scene.None, nil)

	if err := d.Animate(h, "scale", 0.5, 1.5, 1, "linear", 0); err != nil {
		t.Fatal(err)
	}
	if err := d.Animate(h, "no_such_prop", 0, 1, 1, "linear", 0); err == nil {
		t.Error("unknown properties must error")
	}

	n, _ := d.Arena.Get(h)
	n.Transform.SetFrame(15)
	if math.Abs(n.Transform.ScaleX.Current-1.0) > 1e-3 {
		t.Errorf("scale at frame 15 = %v, want 1.0", n.Transform.ScaleX.Current)
	}
}

func TestApplyEffectLayoutSteals(t *testing.T) {
	d := testDirector()
	s := d.AddScene(1)
	h := s.AddBox(scene.None, map[string]string{"width": "120", "height": "80"})

	eff, err := d.ApplyEffect(h, "blur")
	if err != nil {
		t.Fatal(err)
	}

	en, _ := d.Arena.Get(eff)
	hn, _ := d.Arena.Get(h)

	if en.Style.Width.Value != 120 {
		t.Errorf("effect must take the target's style, width = %+v", en.Style.Width)
	}
	if hn.Style.Width.Unit != scene.UnitPercent || hn.Style.Width.Value != 100 {
		t.Errorf("target must become 100%% of the effect, width = %+v", hn.Style.Width)
	}
	if hn.Parent != eff {
		t.Error("target must be reparented under the effect")
	}
	root, _ := d.Arena.Get(s.Root)
	found := false
	for _, c := range root.Children {
		if c == eff {
			found = true
		}
	}
	if !found {
		t.Error("effect must occupy the target's slot under the old parent")
	}
}

func TestScenarioWriteRead(t *testing.T) {
	sc := &Scenario{
		Version: "1.0",
		Width:   1920, Height: 1080, FPS: 30,
		Scenes: []ScenarioScene{
			{
				Name:     "intro",
				Duration: 3,
				Nodes: []ScenarioNode{
					{Type: "text", Content: "Hello", Size: 72, Color: "#ffffff",
						Style: map[string]string{"justify": "center", "align": "center"}},
				},
			},
		},
		Transitions: []ScenarioTransition{
			{From: 0, To: 0, Kind: "fade", Duration: 0.5},
		},
	}

	tmp := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := WriteScenario(sc, tmp); err != nil {
		t.Fatalf("WriteScenario: %v", err)
	}
	got, err := ReadScenario(tmp)
	if err != nil {
		t.Fatalf("ReadScenario: %v", err)
	}
	if got.Width != sc.Width || len(got.Scenes) != 1 {
		t.Errorf("roundtrip lost data: %+v", got)
	}
	if got.Scenes[0].Nodes[0].Content != "Hello" {
		t.Errorf("node content = %q", got.Scenes[0].Nodes[0].Content)
	}
}

func TestScenarioBuild(t *testing.T) {
	sc := &Scenario{
		Width: 640, Height: 360, FPS: 30,
		Scenes: []ScenarioScene{
			{Duration: 2, Nodes: []ScenarioNode{
				{Type: "box", Style: map[string]string{"width": "50%", "background": "#336699"},
					Animate: []ScenarioAnim{{Property: "opacity", From: 0, To: 1, Duration: 1}}},
			}},
			{Duration: 1},
		},
		Transitions: []ScenarioTransition{{From: 0, To: 1, Kind: "wipe", Duration: 0.25}},
	}
	cache := assets.NewCache(&assets.MapLoader{}, nil)
	d, err := sc.Build(cache, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Scenes) != 2 || len(d.Transitions) != 1 {
		t.Fatalf("built %d scenes, %d transitions", len(d.Scenes), len(d.Transitions))
	}
	if math.Abs(d.Scenes[1].StartTime-1.75) > 1e-9 {
		t.Errorf("rippled start = %v, want 1.75", d.Scenes[1].StartTime)
	}
}
