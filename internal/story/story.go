package story

import (
	"errors"
	"fmt"
)

// Option is a directed edge from one scene to another, with a
// localized label and an optional guard condition. Options must be
// created with NewOption so the guard is parsed exactly once;
// everything is read-only afterwards.
type Option struct {
	// Text is the localized label shown to the player.
	Text *LocalizedText

	// NextSceneID is the target scene within the same game.
	NextSceneID string

	// Guard is the raw condition expression, empty when the option is
	// always available.
	Guard string

	cond        Condition
	condSet     bool
	condInvalid bool
}

// NewOption creates an option, parsing the guard expression once. An
// empty guard means the option is always available. A malformed guard
// is kept (for reporting) but never satisfies: the option is filtered
// out at every scene visit.
func NewOption(text *LocalizedText, nextSceneID, guard string) Option {
	o := Option{Text: text, NextSceneID: nextSceneID, Guard: guard}
	if guard == "" {
		return o
	}
	cond, err := ParseCondition(guard)
	if err != nil {
		o.condInvalid = true
		return o
	}
	o.cond = cond
	o.condSet = true
	return o
}

// Available reports whether the option may be offered to a player
// whose attributes are read through lookup. Unguarded options are
// always available; malformed guards never are.
func (o Option) Available(lookup func(name string) int) bool {
	if o.condInvalid {
		return false
	}
	if !o.condSet {
		return true
	}
	return o.cond.Evaluate(lookup)
}

// Condition returns the parsed guard and whether one is set. A
// malformed guard reports false, same as no guard.
func (o Option) Condition() (Condition, bool) {
	return o.cond, o.condSet
}

// Scene is a node in the narrative graph. Option order is the display
// and selection order and is preserved from the source file.
type Scene struct {
	ID      string
	Text    *LocalizedText
	Options []Option

	// End marks a terminal scene. An end scene carries no options.
	End bool

	// Effects are the attribute mutations applied to the player on
	// entering this scene, in source order.
	Effects []Effect
}

// ParseEffects parses a raw attribute-effect map into effects. Keys
// with malformed payloads are collected as errors and skipped; the
// remaining effects are applied independently per key, so map
// iteration order does not matter.
func ParseEffects(raw map[string]string) ([]Effect, []error) {
	if len(raw) == 0 {
		return nil, nil
	}
	effects := make([]Effect, 0, len(raw))
	var errs []error
	for key, value := range raw {
		eff, err := ParseEffect(key, value)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		effects = append(effects, eff)
	}
	return effects, errs
}

// Game is a complete narrative graph: scenes keyed by id, an entry
// scene, localized metadata, and the initial attribute values granted
// to a player entering the game for the first time.
type Game struct {
	ID          string
	Title       *LocalizedText
	Description *LocalizedText

	StartSceneID string

	// InitialAttributes seed the player's attribute map on first entry.
	InitialAttributes map[string]int

	// Attributes is the free-form per-game metadata map.
	Attributes map[string]string

	scenes map[string]*Scene
}

// NewGame creates an empty game. Scenes are attached with AddScene
// during load; the graph is read-only afterwards.
func NewGame(id string, title, description *LocalizedText, startSceneID string) *Game {
	return &Game{
		ID:                id,
		Title:             title,
		Description:       description,
		StartSceneID:      startSceneID,
		InitialAttributes: make(map[string]int),
		Attributes:        make(map[string]string),
		scenes:            make(map[string]*Scene),
	}
}

// AddScene registers a scene. Load-time only; a duplicate id replaces
// the earlier scene.
func (g *Game) AddScene(s *Scene) {
	g.scenes[s.ID] = s
}

// Scene looks up a scene by id.
func (g *Game) Scene(id string) (*Scene, bool) {
	s, ok := g.scenes[id]
	return s, ok
}

// StartScene returns the entry scene, or nil when StartSceneID does
// not resolve (a data-integrity error Validate reports).
func (g *Game) StartScene() *Scene {
	return g.scenes[g.StartSceneID]
}

// SceneCount returns the number of scenes in the graph.
func (g *Game) SceneCount() int {
	return len(g.scenes)
}

// Validate checks graph integrity: the start scene must resolve, end
// scenes must carry no options, and every option target must resolve
// within the game. All failures are joined into one error.
func (g *Game) Validate() error {
	var errs []error
	if g.ID == "" {
		errs = append(errs, errors.New("game id is required"))
	}
	if _, ok := g.scenes[g.StartSceneID]; !ok {
		errs = append(errs, fmt.Errorf("game %q: start scene %q not found", g.ID, g.StartSceneID))
	}
	for id, scene := range g.scenes {
		if scene.End && len(scene.Options) > 0 {
			errs = append(errs, fmt.Errorf("game %q: end scene %q has %d options", g.ID, id, len(scene.Options)))
		}
		for i, opt := range scene.Options {
			if _, ok := g.scenes[opt.NextSceneID]; !ok {
				errs = append(errs, fmt.Errorf("game %q: scene %q option %d targets unknown scene %q", g.ID, id, i, opt.NextSceneID))
			}
		}
	}
	return errors.Join(errs...)
}
