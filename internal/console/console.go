// Package console implements the interactive terminal channel. Options
// are numbered; the player answers with a number or types (part of) an
// option label.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/rmuhamedgaliev/arcana/internal/engine"
	"github.com/rmuhamedgaliev/arcana/internal/fuzzy"
	"github.com/rmuhamedgaliev/arcana/internal/story"
)

// Channel is a single-session stdin/stdout channel. Not safe for
// concurrent use; one console serves one session.
type Channel struct {
	in      *bufio.Scanner
	out     io.Writer
	matcher *fuzzy.Matcher
	lang    story.Language
}

var _ engine.Channel = (*Channel)(nil)

// New creates a console channel reading choices from in and writing to
// out.
func New(in io.Reader, out io.Writer) *Channel {
	return &Channel{
		in:      bufio.NewScanner(in),
		out:     out,
		matcher: fuzzy.New(),
		lang:    story.LangEN,
	}
}

// SendMessage prints text followed by a blank line.
func (c *Channel) SendMessage(_ context.Context, text string) error {
	if text == "" {
		return nil
	}
	_, err := fmt.Fprintf(c.out, "%s\n\n", text)
	if err != nil {
		return fmt.Errorf("console: write: %w", err)
	}
	return nil
}

// SendOptions prints the prompt and numbered options, then reads lines
// until one resolves to an option. Syntactically invalid input is
// re-prompted; EOF means the terminal is gone and ends the session.
func (c *Channel) SendOptions(ctx context.Context, prompt string, options []string) (int, error) {
	if prompt != "" {
		fmt.Fprintf(c.out, "%s\n", prompt)
	}
	for i, opt := range options {
		fmt.Fprintf(c.out, "  %d. %s\n", i+1, opt)
	}

	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		fmt.Fprint(c.out, "> ")
		if !c.in.Scan() {
			if err := c.in.Err(); err != nil {
				return 0, fmt.Errorf("console: read: %w", err)
			}
			return 0, engine.ErrChannelClosed
		}
		reply := strings.TrimSpace(c.in.Text())
		if reply == "" {
			continue
		}
		if idx, ok := c.matcher.Match(reply, options); ok {
			return idx, nil
		}
		fmt.Fprintf(c.out, "%s\n", c.invalidNotice(len(options)))
	}
}

// ShowStatus prints the attribute snapshot in a stable order.
func (c *Channel) ShowStatus(_ context.Context, attributes map[string]int) error {
	if len(attributes) == 0 {
		return nil
	}
	fmt.Fprintf(c.out, "%s\n", c.statusHeader())
	for _, key := range sortedKeys(attributes) {
		fmt.Fprintf(c.out, "  %s: %d\n", key, attributes[key])
	}
	fmt.Fprintln(c.out)
	return nil
}

func (c *Channel) Language() story.Language        { return c.lang }
func (c *Channel) SetLanguage(lang story.Language) { c.lang = lang }

func (c *Channel) invalidNotice(n int) string {
	if c.lang == story.LangRU {
		return fmt.Sprintf("Введите число от 1 до %d или текст варианта.", n)
	}
	return fmt.Sprintf("Enter a number between 1 and %d, or type an option.", n)
}

func (c *Channel) statusHeader() string {
	if c.lang == story.LangRU {
		return "Ваши характеристики:"
	}
	return "Your attributes:"
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
