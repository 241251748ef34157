// Package engine drives one narrative session: language and game
// selection, resume from saved progress, and the scene traversal loop.
// A session is strictly sequential; the only suspension point is the
// channel's option prompt.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rmuhamedgaliev/arcana/internal/player"
	"github.com/rmuhamedgaliev/arcana/internal/story"
)

// Reason describes why a session ended. Every exit path maps to
// exactly one reason and emits a final user-visible message.
type Reason string

const (
	// ReasonEndScene means the player reached a scene marked as an end.
	ReasonEndScene Reason = "end_scene"
	// ReasonNoOptions means every option of the scene was filtered out.
	ReasonNoOptions Reason = "no_options"
	// ReasonHealth means the health attribute dropped to zero or below.
	ReasonHealth Reason = "health"
	// ReasonChannelError means the channel could not supply a choice.
	ReasonChannelError Reason = "channel_error"
	// ReasonStopped means the session was cancelled from outside.
	ReasonStopped Reason = "stopped"
	// ReasonDataError means the story graph broke mid-session.
	ReasonDataError Reason = "data_error"
	// ReasonNoGames means the catalog was empty at game selection.
	ReasonNoGames Reason = "no_games"
)

func (r Reason) String() string { return string(r) }

// Recorder receives session telemetry. The engine calls it inline, so
// implementations must be cheap and must not block.
type Recorder interface {
	SceneShown(ctx context.Context, gameID string)
	ChoiceWait(ctx context.Context, d time.Duration)
	SessionEnded(ctx context.Context, reason Reason)
	PersistError(ctx context.Context)
}

type nopRecorder struct{}

func (nopRecorder) SceneShown(context.Context, string)        {}
func (nopRecorder) ChoiceWait(context.Context, time.Duration) {}
func (nopRecorder) SessionEnded(context.Context, Reason)      {}
func (nopRecorder) PersistError(context.Context)              {}

// Saver is the subset of the player store the engine needs. Saves are
// best-effort: a failing saver is logged and the in-memory session
// continues.
type Saver interface {
	Save(ctx context.Context, p *player.Player) error
}

// Option is a functional option for configuring an [Engine].
type Option func(*Engine)

// WithLogger sets the session logger. Default: slog.Default.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithRecorder sets the telemetry recorder. Default: no-op.
func WithRecorder(rec Recorder) Option {
	return func(e *Engine) { e.rec = rec }
}

// WithStatusDisplay toggles the attribute snapshot after scene
// transitions. Default: on.
func WithStatusDisplay(enabled bool) Option {
	return func(e *Engine) { e.showStatusMsg = enabled }
}

// Engine runs one session over one context and one channel.
type Engine struct {
	gctx          *GameContext
	ch            Channel
	store         Saver
	log           *slog.Logger
	rec           Recorder
	showStatusMsg bool
}

// New creates an engine for gctx speaking over ch and persisting
// through store. store may be nil for throwaway sessions.
func New(gctx *GameContext, ch Channel, store Saver, opts ...Option) *Engine {
	e := &Engine{
		gctx:          gctx,
		ch:            ch,
		store:         store,
		log:           slog.Default(),
		rec:           nopRecorder{},
		showStatusMsg: true,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Context returns the engine's session context.
func (e *Engine) Context() *GameContext { return e.gctx }

// Run drives the session to completion and returns the termination
// reason. A final progress flush runs on every exit path, including
// cancellation.
func (e *Engine) Run(ctx context.Context) Reason {
	reason := e.run(ctx)
	e.flush(context.WithoutCancel(ctx))
	e.rec.SessionEnded(context.WithoutCancel(ctx), reason)
	e.log.Info("session ended",
		"player", e.gctx.Player.ID,
		"reason", reason.String())
	return reason
}

func (e *Engine) run(ctx context.Context) Reason {
	e.selectLanguage(ctx)

	if !e.gctx.RestoreProgress() {
		if reason, ok := e.selectGame(ctx); !ok {
			return reason
		}
	}

	if e.gctx.Scene() == nil {
		e.say(ctx, msgBrokenStory)
		return ReasonDataError
	}

	e.showStatus(ctx)

	return e.gameLoop(ctx)
}

// selectLanguage presents the language menu once. Any failure falls
// back to EN instead of ending the session.
func (e *Engine) selectLanguage(ctx context.Context) {
	langs := story.Languages()
	options := make([]string, len(langs))
	for i, l := range langs {
		options[i] = l.DisplayName()
	}

	idx, err := e.ch.SendOptions(ctx, promptSelectLanguage, options)
	if err != nil || idx < 0 || idx >= len(langs) {
		e.log.Warn("language selection failed, defaulting to English",
			"player", e.gctx.Player.ID, "error", err)
		e.say(ctx, msgLanguageFallback)
		e.setLanguage(story.LangEN)
		return
	}
	e.setLanguage(langs[idx])
}

func (e *Engine) setLanguage(lang story.Language) {
	e.gctx.Language = lang
	e.ch.SetLanguage(lang)
}

// selectGame presents the catalog titles in load order. ok is false
// when the session must end instead of entering the game loop.
func (e *Engine) selectGame(ctx context.Context) (Reason, bool) {
	games := e.gctx.Catalog.Games()
	if len(games) == 0 {
		e.say(ctx, msgNoGames)
		return ReasonNoGames, false
	}

	titles := make([]string, len(games))
	for i, g := range games {
		titles[i] = g.Title.Get(e.gctx.Language)
	}

	idx, err := e.ch.SendOptions(ctx, promptSelectGame.get(e.gctx.Language), titles)
	if err != nil || idx < 0 || idx >= len(games) {
		return e.channelFailure(ctx, err), false
	}

	e.gctx.EnterGame(games[idx])
	return "", true
}

// gameLoop is the Playing state. One iteration per scene visit.
func (e *Engine) gameLoop(ctx context.Context) Reason {
	for {
		scene := e.gctx.Scene()
		if scene == nil {
			e.say(ctx, msgBrokenStory)
			return ReasonDataError
		}

		text := scene.Text.Get(e.gctx.Language)
		e.rec.SceneShown(ctx, e.gctx.Game().ID)

		if scene.End {
			e.sendText(ctx, text)
			e.say(ctx, msgGameOver)
			return ReasonEndScene
		}

		available := availableOptions(scene, e.gctx.Player.Attribute)
		if len(available) == 0 {
			e.sendText(ctx, text)
			e.say(ctx, msgNoOptions)
			return ReasonNoOptions
		}

		labels := make([]string, len(available))
		for i, opt := range available {
			labels[i] = opt.Text.Get(e.gctx.Language)
		}

		start := time.Now()
		idx, err := e.ch.SendOptions(ctx, text, labels)
		e.rec.ChoiceWait(ctx, time.Since(start))
		if err != nil || idx < 0 || idx >= len(available) {
			return e.channelFailure(ctx, err)
		}

		next, ok := e.gctx.Game().Scene(available[idx].NextSceneID)
		if !ok {
			e.log.Error("option points at a missing scene",
				"game", e.gctx.Game().ID,
				"scene", scene.ID,
				"next", available[idx].NextSceneID)
			e.say(ctx, msgBrokenStory)
			return ReasonDataError
		}
		e.gctx.SetScene(next)

		if e.applyEffects(next) {
			e.say(ctx, msgHealthDepleted)
			return ReasonHealth
		}

		e.showStatus(ctx)

		e.gctx.SaveProgress()
		e.persist(ctx)
	}
}

// availableOptions filters scene options by their guards, preserving
// declaration order. A malformed guard keeps its option out.
func availableOptions(scene *story.Scene, lookup func(string) int) []*story.Option {
	out := make([]*story.Option, 0, len(scene.Options))
	for i := range scene.Options {
		if scene.Options[i].Available(lookup) {
			out = append(out, &scene.Options[i])
		}
	}
	return out
}

// applyEffects applies the scene's effects to the player and reports
// whether the health attribute dropped to zero or below. Only an
// actual drop counts; an effect that leaves health where it was does
// not end the session.
func (e *Engine) applyEffects(scene *story.Scene) bool {
	p := e.gctx.Player
	before := p.Attribute("health")
	for _, eff := range scene.Effects {
		p.SetAttribute(eff.Key, eff.Apply(p.Attribute(eff.Key)))
	}
	after := p.Attribute("health")
	return after <= 0 && after < before
}

// showStatus emits the attribute snapshot when there is one. Display
// failures are not fatal.
func (e *Engine) showStatus(ctx context.Context) {
	if !e.showStatusMsg || len(e.gctx.Player.Attributes) == 0 {
		return
	}
	if err := e.ch.ShowStatus(ctx, e.gctx.Player.AttributeSnapshot()); err != nil {
		e.log.Warn("status display failed",
			"player", e.gctx.Player.ID, "error", err)
	}
}

// persist writes the player through the store, best-effort.
func (e *Engine) persist(ctx context.Context) {
	if e.store == nil {
		return
	}
	if err := e.store.Save(ctx, e.gctx.Player); err != nil {
		e.rec.PersistError(ctx)
		e.log.Error("progress save failed",
			"player", e.gctx.Player.ID, "error", err)
	}
}

// flush is the guaranteed final save on session exit.
func (e *Engine) flush(ctx context.Context) {
	e.persist(ctx)
}

// channelFailure classifies a failed choice: external cancellation is
// a stop, everything else is a channel error. Both get a farewell.
func (e *Engine) channelFailure(ctx context.Context, err error) Reason {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		e.say(context.WithoutCancel(ctx), msgStopped)
		return ReasonStopped
	}
	e.log.Warn("channel failed to supply a choice",
		"player", e.gctx.Player.ID, "error", err)
	e.say(ctx, msgInterrupted)
	return ReasonChannelError
}

// say sends a fixed engine message in the session language.
func (e *Engine) say(ctx context.Context, msg uiText) {
	e.sendText(ctx, msg.get(e.gctx.Language))
}

func (e *Engine) sendText(ctx context.Context, text string) {
	if err := e.ch.SendMessage(ctx, text); err != nil {
		e.log.Warn("message delivery failed",
			"player", e.gctx.Player.ID, "error", err)
	}
}
