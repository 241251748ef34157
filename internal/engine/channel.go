package engine

import (
	"context"
	"errors"

	"github.com/rmuhamedgaliev/arcana/internal/story"
)

// Channel errors. A channel that can no longer supply a choice returns
// one of these (or wraps a context error); the engine ends the session
// gracefully with a final message.
var (
	// ErrChannelClosed signals that the underlying transport is gone
	// (console EOF, socket closed, chat session torn down).
	ErrChannelClosed = errors.New("engine: channel closed")

	// ErrChoiceTimeout signals that the bounded wait for a choice
	// elapsed without a reply.
	ErrChoiceTimeout = errors.New("engine: choice timed out")
)

// Channel is the player-facing transport driven by the engine. One
// channel serves one session; implementations decide how text, option
// lists, and attribute snapshots are rendered.
//
// SendOptions blocks until the player picks an option and must return
// an index in [0, len(options)). It is the engine's only suspension
// point; the wait must be bounded, and a timeout or disconnect is
// reported as an error rather than hanging forever.
type Channel interface {
	SendMessage(ctx context.Context, text string) error
	SendOptions(ctx context.Context, prompt string, options []string) (int, error)
	ShowStatus(ctx context.Context, attributes map[string]int) error

	// Language and SetLanguage track the channel's own notion of the
	// current language, kept separate from the session's so a channel
	// can localize its own chrome.
	Language() story.Language
	SetLanguage(lang story.Language)
}
