// Package player holds the mutable per-player state — the integer
// attribute map driven by scene effects and the free-form progress map
// used for save/resume — together with the durable Store contract and
// its Postgres and in-memory implementations.
package player

import "time"

// Progress keys written by the engine on every scene transition.
const (
	ProgressCurrentGame  = "currentGameId"
	ProgressCurrentScene = "currentSceneId"
)

// Player is one player's session state. It is owned by a single
// traversal session at a time and is not safe for concurrent use.
type Player struct {
	// ID is the stable identity (chat id, console name). Never changes.
	ID string

	// Attributes maps attribute names to integer values. Unset keys
	// read as 0.
	Attributes map[string]int

	// Progress holds resumable session state keyed by name.
	Progress map[string]string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates a fresh player with empty state.
func New(id string) *Player {
	return &Player{
		ID:         id,
		Attributes: make(map[string]int),
		Progress:   make(map[string]string),
	}
}

// Attribute returns the value for key, or 0 when unset.
func (p *Player) Attribute(key string) int {
	return p.Attributes[key]
}

// HasAttribute reports whether key has ever been set.
func (p *Player) HasAttribute(key string) bool {
	_, ok := p.Attributes[key]
	return ok
}

// SetAttribute stores value under key, overwriting any previous value.
func (p *Player) SetAttribute(key string, value int) {
	if p.Attributes == nil {
		p.Attributes = make(map[string]int)
	}
	p.Attributes[key] = value
}

// SetProgress stores a progress value under key.
func (p *Player) SetProgress(key, value string) {
	if p.Progress == nil {
		p.Progress = make(map[string]string)
	}
	p.Progress[key] = value
}

// GetProgress returns the progress value for key and whether it is set.
func (p *Player) GetProgress(key string) (string, bool) {
	v, ok := p.Progress[key]
	return v, ok
}

// ClearProgress removes all attributes and progress but keeps the
// identity. Used by explicit reset.
func (p *Player) ClearProgress() {
	p.Attributes = make(map[string]int)
	p.Progress = make(map[string]string)
}

// AttributeSnapshot returns a copy of the attribute map for display.
func (p *Player) AttributeSnapshot() map[string]int {
	out := make(map[string]int, len(p.Attributes))
	for k, v := range p.Attributes {
		out[k] = v
	}
	return out
}
