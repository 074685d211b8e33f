// Package director owns the timeline: scenes, transitions, audio tracks
// and the scene-builder API consumed by the scripting layer. It also runs
// the per-frame Update → Layout → Render passes over the scene arena; the
// engine package drives it frame by frame and encodes the results.
package director

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gogpu/gg/text"

	"github.com/vporoshin/scene2video/internal/anim"
	"github.com/vporoshin/scene2video/internal/assets"
	"github.com/vporoshin/scene2video/internal/audio"
	"github.com/vporoshin/scene2video/internal/layout"
	"github.com/vporoshin/scene2video/internal/lottie"
	"github.com/vporoshin/scene2video/internal/render"
	"github.com/vporoshin/scene2video/internal/scene"
)

// TransitionKind names the composite used between overlapping scenes.
type TransitionKind string

const (
	TransitionFade       TransitionKind = "fade"
	TransitionSlide      TransitionKind = "slide"
	TransitionWipe       TransitionKind = "wipe"
	TransitionCircleOpen TransitionKind = "circle_open"
)

// Transition spans two adjacent scenes.
type Transition struct {
	From, To int
	Kind     TransitionKind
	Duration float64
	Easing   anim.Easing
}

// Scene is one segment of the timeline with its own node tree.
type Scene struct {
	Root      scene.Handle
	StartTime float64
	Duration  float64
	Name      string

	d *Director
}

// End is the scene's end time on the global clock.
func (s *Scene) End() float64 { return s.StartTime + s.Duration }

// AudioBinding maps a frequency band's energy onto a node property.
type AudioBinding struct {
	Node      scene.Handle
	Track     int
	Band      audio.Band
	Property  string
	Min, Max  float64
	Smoothing float64

	prev float64
}

// Director is the root timeline object. It is owned by a single caller;
// concurrent access requires an external lock.
type Director struct {
	Width, Height int
	FPS           float64

	Arena       *scene.Arena
	Scenes      []*Scene
	Transitions []Transition
	Mixer       *audio.Mixer
	Assets      *assets.Cache
	Font        *text.FontSource
	Log         *slog.Logger
	Bindings    []*AudioBinding

	layout *layout.Engine
}

// New creates an empty director.
func New(width, height int, fps float64, cache *assets.Cache, log *slog.Logger) *Director {
	if log == nil {
		log = slog.Default()
	}
	d := &Director{
		Width:  width,
		Height: height,
		FPS:    fps,
		Arena:  scene.NewArena(),
		Mixer:  audio.NewMixer(),
		Assets: cache,
		Log:    log,
	}
	d.layout = layout.NewEngine(log)
	d.layout.Hook = func(h scene.Handle, reason string) {
		log.Warn("layout overconstrained", "node", h, "reason", reason)
	}
	return d
}

// SetFont registers the font source used by text elements.
func (d *Director) SetFont(font *text.FontSource) { d.Font = font }

// AddScene appends a scene after the current end of the timeline.
func (d *Director) AddScene(duration float64) *Scene {
	start := 0.0
	if n := len(d.Scenes); n > 0 {
		start = d.Scenes[n-1].End()
	}
	root := d.Arena.Create(scene.NewBox())
	s := &Scene{Root: root, StartTime: start, Duration: duration, d: d}
	d.Scenes = append(d.Scenes, s)
	return s
}

// AddTransition spans two scenes. Scene start times ripple: the `to`
// scene (and everything after it) shifts so that it starts exactly
// `duration` before the `from` scene ends.
func (d *Director) AddTransition(from, to int, kind TransitionKind, duration float64, easing anim.Easing) error {
	if from < 0 || from >= len(d.Scenes) || to < 0 || to >= len(d.Scenes) {
		return fmt.Errorf("transition references unknown scene %d→%d", from, to)
	}
	d.Transitions = append(d.Transitions, Transition{
		From: from, To: to, Kind: kind, Duration: duration, Easing: easing,
	})
	shift := d.Scenes[from].End() - duration - d.Scenes[to].StartTime
	for i := to; i < len(d.Scenes); i++ {
		d.Scenes[i].StartTime += shift
	}
	return nil
}

// TotalDuration is the end of the last scene.
func (d *Director) TotalDuration() float64 {
	if len(d.Scenes) == 0 {
		return 0
	}
	return d.Scenes[len(d.Scenes)-1].End()
}

// transitionAt returns the transition active at time t, if any.
func (d *Director) transitionAt(t float64) *Transition {
	for i := range d.Transitions {
		tr := &d.Transitions[i]
		start := d.Scenes[tr.To].StartTime
		if t >= start && t < start+tr.Duration {
			return tr
		}
	}
	return nil
}

// sceneAt returns the single scene covering t when no transition is
// active (the latest scene wins on boundaries).
func (d *Director) sceneAt(t float64) int {
	active := -1
	for i, s := range d.Scenes {
		if t >= s.StartTime && t < s.End() {
			active = i
		}
	}
	if active == -1 && len(d.Scenes) > 0 && t >= d.TotalDuration() {
		active = len(d.Scenes) - 1
	}
	return active
}

// attach places a child under parent, defaulting to the scene root.
func (s *Scene) attach(parent scene.Handle, child scene.Handle) scene.Handle {
	if parent == scene.None {
		parent = s.Root
	}
	if err := s.d.Arena.Attach(parent, child); err != nil {
		s.d.Log.Error("attach failed", "err", err)
	}
	return child
}

// AddBox creates a box node. Pass scene.None as parent for the root.
func (s *Scene) AddBox(parent scene.Handle, style map[string]string) scene.Handle {
	h := s.d.Arena.Create(scene.NewBox())
	s.applyStyle(h, style)
	return s.attach(parent, h)
}

// AddText creates a text node using the director font.
func (s *Scene) AddText(parent scene.Handle, content string, size float64, color string, style map[string]string) scene.Handle {
	el := scene.NewText(content, s.d.Font, size, scene.ParseColor(color))
	h := s.d.Arena.Create(el)
	s.applyStyle(h, style)
	return s.attach(parent, h)
}

// AddImage creates an image node drawing the given asset key.
func (s *Scene) AddImage(parent scene.Handle, key string, fit string, style map[string]string) scene.Handle {
	h := s.d.Arena.Create(scene.NewImage(key, scene.ParseObjectFit(fit)))
	s.applyStyle(h, style)
	return s.attach(parent, h)
}

// AddVideo places a decoded-video element.
func (s *Scene) AddVideo(parent scene.Handle, src scene.FrameSource, fit string, style map[string]string) scene.Handle {
	h := s.d.Arena.Create(scene.NewVideo(src, scene.ParseObjectFit(fit)))
	s.applyStyle(h, style)
	return s.attach(parent, h)
}

// AddVector places a static path element.
func (s *Scene) AddVector(parent scene.Handle, pathData string, style map[string]string) scene.Handle {
	h := s.d.Arena.Create(scene.NewVector(pathData))
	s.applyStyle(h, style)
	return s.attach(parent, h)
}

// AddQR places a QR-code element for a payload string.
func (s *Scene) AddQR(parent scene.Handle, content string, style map[string]string) scene.Handle {
	h := s.d.Arena.Create(scene.NewQR(content))
	s.applyStyle(h, style)
	return s.attach(parent, h)
}

// AddLottie loads a vector animation asset and places its player.
func (s *Scene) AddLottie(parent scene.Handle, key string, loop bool, speed float64, style map[string]string) (scene.Handle, error) {
	data, err := s.d.Assets.Loader.Load(key)
	if err != nil {
		return scene.None, err
	}
	player, err := lottie.NewPlayer(data, s.d.Assets, s.d.Font, s.d.Log)
	if err != nil {
		return scene.None, err
	}
	player.Loop = loop
	if speed != 0 {
		player.Speed = speed
	}
	h := s.d.Arena.Create(scene.NewLottie(player))
	s.applyStyle(h, style)
	return s.attach(parent, h), nil
}

// AddComposition nests a child director as an element. The child's audio
// mixer recurses into this director's mix with the node's start offset.
func (s *Scene) AddComposition(parent scene.Handle, child *Director, start float64, style map[string]string) scene.Handle {
	el := NewComposition(child, start)
	h := s.d.Arena.Create(el)
	s.applyStyle(h, style)
	s.d.Mixer.AddChild(child.Mixer, s.StartTime+start)
	return s.attach(parent, h)
}

func (s *Scene) applyStyle(h scene.Handle, style map[string]string) {
	if style == nil {
		return
	}
	n, err := s.d.Arena.Get(h)
	if err != nil {
		return
	}
	n.Style.ApplyMap(style)
}

// SetStyle applies scripting-level style keys to a node.
func (d *Director) SetStyle(h scene.Handle, style map[string]string) error {
	n, err := d.Arena.Get(h)
	if err != nil {
		return err
	}
	n.Style.ApplyMap(style)
	return nil
}

// SetMask points a node at another node used as its alpha mask. The mask
// node lives in the same arena; as a child of the masked node it is left
// out of the regular child pass, and attached anywhere else in the tree it
// is also drawn there.
func (d *Director) SetMask(h, mask scene.Handle) error {
	n, err := d.Arena.Get(h)
	if err != nil {
		return err
	}
	if _, err := d.Arena.Get(mask); err != nil {
		return err
	}
	n.Mask = mask
	return nil
}

// SetBlendMode sets the node's compositing mode by name.
func (d *Director) SetBlendMode(h scene.Handle, mode string) error {
	n, err := d.Arena.Get(h)
	if err != nil {
		return err
	}
	n.BlendMode = int(render.ParseBlendMode(mode))
	return nil
}

// SetZIndex orders a node among its siblings.
func (d *Director) SetZIndex(h scene.Handle, z int) error {
	n, err := d.Arena.Get(h)
	if err != nil {
		return err
	}
	n.ZIndex = z
	return nil
}

// Animate adds a keyframe segment to a node property. Transform
// properties are looked up first, then the element's own.
func (d *Director) Animate(h scene.Handle, prop string, start, end, durationSec float64, easingName string, delaySec float64) error {
	n, err := d.Arena.Get(h)
	if err != nil {
		return err
	}
	easing := anim.ParseEasing(easingName)
	startFrame := delaySec * d.FPS
	durFrames := durationSec * d.FPS
	if n.Transform.AnimateProperty(prop, start, end, startFrame, durFrames, easing) {
		return nil
	}
	if pa, ok := n.Element.(scene.PropertyAnimator); ok {
		if pa.AnimateProperty(prop, start, end, startFrame, durFrames, easing) {
			return nil
		}
	}
	return fmt.Errorf("node %d has no animatable property %q", h, prop)
}

// Spring adds a spring segment to a node transform property.
func (d *Director) Spring(h scene.Handle, prop string, start, end float64, cfg anim.SpringConfig, delaySec float64) error {
	n, err := d.Arena.Get(h)
	if err != nil {
		return err
	}
	if n.Transform.SpringProperty(prop, start, end, delaySec*d.FPS, d.FPS, cfg) {
		return nil
	}
	return fmt.Errorf("node %d has no springable property %q", h, prop)
}

// ApplyEffect wraps the node in an effect element. The effect steals the
// target's style and layout slot; the target becomes its only child at
// 100%×100%.
func (d *Director) ApplyEffect(h scene.Handle, kind string) (scene.Handle, error) {
	n, err := d.Arena.Get(h)
	if err != nil {
		return scene.None, err
	}
	parent := n.Parent

	eff := d.Arena.Create(scene.NewEffect(kind))
	en, _ := d.Arena.Get(eff)
	en.Style = n.Style
	en.ZIndex = n.ZIndex

	n.Style = scene.DefaultStyle()
	n.Style.Width = scene.Pct(100)
	n.Style.Height = scene.Pct(100)

	if parent != scene.None {
		if err := d.Arena.Attach(parent, eff); err != nil {
			return scene.None, err
		}
		// Swap the effect into the target's sibling slot; the target is
		// then detached from the end of the list.
		pn, _ := d.Arena.Get(parent)
		last := len(pn.Children) - 1
		for i, c := range pn.Children[:last] {
			if c == h {
				pn.Children[i], pn.Children[last] = eff, h
				break
			}
		}
	}
	if err := d.Arena.Attach(eff, h); err != nil {
		return scene.None, err
	}
	return eff, nil
}

// AddAudio decodes an audio file into a track starting at startTime. A
// file that does not exist becomes a silent track and a warning is logged.
func (d *Director) AddAudio(path string, startTime float64) (int, error) {
	resolved := d.Assets.Loader.Resolve(path)
	if _, err := os.Stat(resolved); err != nil {
		d.Log.Warn("audio asset missing, using silence", "key", path, "err", err)
		return d.Mixer.AddTrack(audio.NewTrack(nil, startTime)), nil
	}
	samples, err := audio.Decode(resolved)
	if err != nil {
		return -1, err
	}
	return d.Mixer.AddTrack(audio.NewTrack(samples, startTime)), nil
}

// Track returns a registered audio track.
func (d *Director) Track(id int) *audio.Track {
	if id < 0 || id >= len(d.Mixer.Tracks) {
		return nil
	}
	return d.Mixer.Tracks[id]
}

// BindAudio maps a band's energy onto a node property each frame.
func (d *Director) BindAudio(h scene.Handle, track int, band string, prop string, min, max, smoothing float64) error {
	if _, err := d.Arena.Get(h); err != nil {
		return err
	}
	if d.Track(track) == nil {
		return fmt.Errorf("unknown audio track %d", track)
	}
	d.Bindings = append(d.Bindings, &AudioBinding{
		Node: h, Track: track, Band: audio.ParseBand(band),
		Property: prop, Min: min, Max: max, Smoothing: smoothing,
	})
	return nil
}
