package player

import "context"

// Store persists player state between sessions.
//
// Load returns (nil, nil) when no player with the given id exists, so
// callers can distinguish "new player" from an infrastructure failure.
type Store interface {
	// Load fetches the stored state for id, or (nil, nil) when absent.
	Load(ctx context.Context, id string) (*Player, error)

	// Save upserts the full player state.
	Save(ctx context.Context, p *Player) error

	// ResetProgress wipes attributes and progress for id but keeps the
	// row, so the identity survives. Resetting an unknown id is a no-op.
	ResetProgress(ctx context.Context, id string) error

	// Delete removes the player entirely. Deleting an unknown id is a
	// no-op.
	Delete(ctx context.Context, id string) error
}
