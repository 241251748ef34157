package engine

import (
	"github.com/rmuhamedgaliev/arcana/internal/player"
	"github.com/rmuhamedgaliev/arcana/internal/story"
	"github.com/rmuhamedgaliev/arcana/internal/story/catalog"
)

// GameContext is the per-session mutable aggregate: the player, the
// active game and scene, and the session language. Exactly one engine
// drives one context at a time; contexts are never shared between
// sessions. The catalog is the only shared piece and is read-only.
type GameContext struct {
	Player   *player.Player
	Catalog  *catalog.Catalog
	Language story.Language

	game  *story.Game
	scene *story.Scene
}

// NewGameContext creates a context for p over the shared catalog. The
// language starts at EN until language selection runs.
func NewGameContext(p *player.Player, cat *catalog.Catalog) *GameContext {
	return &GameContext{
		Player:   p,
		Catalog:  cat,
		Language: story.LangEN,
	}
}

// Game returns the active game, or nil before game selection.
func (c *GameContext) Game() *story.Game { return c.game }

// Scene returns the active scene, or nil when no game is active.
func (c *GameContext) Scene() *story.Scene { return c.scene }

// SetScene replaces the active scene.
func (c *GameContext) SetScene(s *story.Scene) { c.scene = s }

// EnterGame makes g the active game and resets the active scene to the
// game's start. Initial attributes are applied for keys the player has
// never set, so re-entering a game does not clobber earned values.
func (c *GameContext) EnterGame(g *story.Game) {
	c.game = g
	c.scene = g.StartScene()
	for key, value := range g.InitialAttributes {
		if !c.Player.HasAttribute(key) {
			c.Player.SetAttribute(key, value)
		}
	}
}

// SaveProgress records the active game and scene ids in the player's
// progress map. Durable persistence is the store's job.
func (c *GameContext) SaveProgress() {
	if c.game == nil || c.scene == nil {
		return
	}
	c.Player.SetProgress(player.ProgressCurrentGame, c.game.ID)
	c.Player.SetProgress(player.ProgressCurrentScene, c.scene.ID)
}

// RestoreProgress attempts to resume from the ids in the player's
// progress map. It reports true only when both the game and scene still
// exist in the catalog; stale or partial data leaves the context
// untouched and is treated as no saved progress.
func (c *GameContext) RestoreProgress() bool {
	gameID, ok := c.Player.GetProgress(player.ProgressCurrentGame)
	if !ok || gameID == "" {
		return false
	}
	sceneID, ok := c.Player.GetProgress(player.ProgressCurrentScene)
	if !ok || sceneID == "" {
		return false
	}
	g, ok := c.Catalog.Get(gameID)
	if !ok {
		return false
	}
	s, ok := g.Scene(sceneID)
	if !ok {
		return false
	}
	c.game = g
	c.scene = s
	return true
}
