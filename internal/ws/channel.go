// Package ws serves game sessions over WebSocket connections. Each
// connection hosts exactly one session; the server sends JSON frames
// for narrative text, option prompts, and attribute snapshots, and the
// client answers prompts with choice frames.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/coder/websocket"

	"github.com/rmuhamedgaliev/arcana/internal/engine"
	"github.com/rmuhamedgaliev/arcana/internal/fuzzy"
	"github.com/rmuhamedgaliev/arcana/internal/story"
)

// Outgoing frame types.
const (
	frameMessage = "message"
	frameOptions = "options"
	frameStatus  = "status"
)

// frame is the wire format in both directions. Unused fields are
// omitted, so a message frame is just {"type":"message","text":"..."}.
type frame struct {
	Type    string   `json:"type"`
	Text    string   `json:"text,omitempty"`
	Prompt  string   `json:"prompt,omitempty"`
	Options []string `json:"options,omitempty"`

	// Status frames carry the attribute snapshot.
	Attributes map[string]int `json:"attributes,omitempty"`

	// Choice frames from the client carry either a zero-based Index
	// into the last options list or free Text matched against the
	// option labels.
	Index *int `json:"index,omitempty"`
}

// Channel adapts a WebSocket connection to the engine. Not safe for
// concurrent use; the engine drives it from a single goroutine.
type Channel struct {
	conn    *websocket.Conn
	matcher *fuzzy.Matcher
	timeout time.Duration
	lang    story.Language
}

var _ engine.Channel = (*Channel)(nil)

// NewChannel wraps an accepted connection. timeout bounds the wait for
// each choice; zero means no bound beyond the request context.
func NewChannel(conn *websocket.Conn, timeout time.Duration) *Channel {
	return &Channel{
		conn:    conn,
		matcher: fuzzy.New(),
		timeout: timeout,
		lang:    story.LangEN,
	}
}

// SendMessage delivers narrative text as a message frame.
func (c *Channel) SendMessage(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	return c.writeFrame(ctx, frame{Type: frameMessage, Text: text})
}

// SendOptions sends an options frame and blocks until the client
// answers with a choice frame that resolves to one of the options.
// Frames of other types are ignored while waiting.
func (c *Channel) SendOptions(ctx context.Context, prompt string, options []string) (int, error) {
	if err := c.writeFrame(ctx, frame{Type: frameOptions, Prompt: prompt, Options: options}); err != nil {
		return 0, err
	}

	waitCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	for {
		f, err := c.readFrame(waitCtx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				return 0, engine.ErrChoiceTimeout
			}
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			return 0, err
		}
		if f.Type != "choice" {
			continue
		}
		if f.Index != nil {
			if i := *f.Index; i >= 0 && i < len(options) {
				return i, nil
			}
			continue
		}
		if reply := strings.TrimSpace(f.Text); reply != "" {
			if idx, ok := c.matcher.Match(reply, options); ok {
				return idx, nil
			}
		}
	}
}

// ShowStatus delivers the attribute snapshot as a status frame.
func (c *Channel) ShowStatus(ctx context.Context, attributes map[string]int) error {
	if len(attributes) == 0 {
		return nil
	}
	return c.writeFrame(ctx, frame{Type: frameStatus, Attributes: attributes})
}

func (c *Channel) Language() story.Language        { return c.lang }
func (c *Channel) SetLanguage(lang story.Language) { c.lang = lang }

// writeFrame marshals f and writes it as a text WebSocket message.
func (c *Channel) writeFrame(ctx context.Context, f frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("ws: marshal: %w", err)
	}
	if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return c.asChannelErr(err)
	}
	return nil
}

// readFrame reads the next frame, skipping payloads that do not parse.
func (c *Channel) readFrame(ctx context.Context) (frame, error) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return frame{}, c.asChannelErr(err)
		}
		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			continue
		}
		return f, nil
	}
}

// asChannelErr maps a closed connection to ErrChannelClosed so the
// engine ends the session gracefully instead of reporting an I/O error.
// Context errors pass through for the caller to classify.
func (c *Channel) asChannelErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var closeErr websocket.CloseError
	if errors.As(err, &closeErr) || errors.Is(err, io.EOF) {
		return engine.ErrChannelClosed
	}
	return fmt.Errorf("ws: %w", err)
}
