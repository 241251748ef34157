// Package catalog loads declarative story files into immutable
// [story.Game] graphs and serves them to concurrent player sessions.
// The catalog is populated once at startup and never mutated during
// play, so it needs no locking.
package catalog

import "github.com/rmuhamedgaliev/arcana/internal/story"

// Catalog is the set of loaded games, ordered by load. Read-only after
// construction; safe to share across sessions.
type Catalog struct {
	byID  map[string]*story.Game
	order []string
}

// New builds a catalog from fully-validated games. A duplicate game id
// keeps the first occurrence.
func New(games []*story.Game) *Catalog {
	c := &Catalog{byID: make(map[string]*story.Game, len(games))}
	for _, g := range games {
		if _, ok := c.byID[g.ID]; ok {
			continue
		}
		c.byID[g.ID] = g
		c.order = append(c.order, g.ID)
	}
	return c
}

// Get looks up a game by id.
func (c *Catalog) Get(id string) (*story.Game, bool) {
	g, ok := c.byID[id]
	return g, ok
}

// Games returns all games in load order.
func (c *Catalog) Games() []*story.Game {
	out := make([]*story.Game, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// Len returns the number of loaded games.
func (c *Catalog) Len() int {
	return len(c.order)
}
