package discord

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/rmuhamedgaliev/arcana/internal/engine"
	"github.com/rmuhamedgaliev/arcana/internal/fuzzy"
	"github.com/rmuhamedgaliev/arcana/internal/story"
)

// Discord caps button labels at 80 characters and component grids at
// 5 buttons per row over 5 rows.
const (
	maxButtonLabel  = 80
	buttonsPerRow   = 5
	maxButtons      = 25
	maxMessageRunes = 2000
)

// ChoicePrefix is the custom_id prefix of choice buttons. The suffix
// is "<prompt>:<index>": the prompt sequence number followed by the
// zero-based option index, so a press on an old prompt's buttons can
// be told apart from the one currently waiting.
const ChoicePrefix = "choice:"

// Sender is the subset of discordgo.Session the channel writes through.
type Sender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Channel hosts one game session in one Discord text channel. Choices
// arrive as button presses (via Pick) or typed replies (via Reply);
// the engine blocks in SendOptions until one lands or the wait times
// out.
type Channel struct {
	sender    Sender
	channelID string
	timeout   time.Duration
	matcher   *fuzzy.Matcher
	lang      story.Language

	mu      sync.Mutex
	seq     uint64
	options []string
	picks   chan int
}

var _ engine.Channel = (*Channel)(nil)

// NewChannel creates a channel bound to a Discord text channel.
// timeout bounds each choice wait; zero means no bound beyond the
// session context.
func NewChannel(sender Sender, channelID string, timeout time.Duration) *Channel {
	return &Channel{
		sender:    sender,
		channelID: channelID,
		timeout:   timeout,
		matcher:   fuzzy.New(),
		lang:      story.LangEN,
	}
}

// ChannelID returns the bound Discord text channel id.
func (c *Channel) ChannelID() string { return c.channelID }

// SendMessage posts narrative text, split to fit Discord's message
// size limit.
func (c *Channel) SendMessage(_ context.Context, text string) error {
	if text == "" {
		return nil
	}
	for _, chunk := range splitMessage(text) {
		if _, err := c.sender.ChannelMessageSend(c.channelID, chunk); err != nil {
			return fmt.Errorf("discord: send message: %w", err)
		}
	}
	return nil
}

// SendOptions posts the prompt with one button per option and blocks
// until a press or typed reply resolves to an option.
func (c *Channel) SendOptions(ctx context.Context, prompt string, options []string) (int, error) {
	picks := make(chan int, 1)
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.options = slices.Clone(options)
	c.picks = picks
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.options = nil
		c.picks = nil
		c.mu.Unlock()
	}()

	msg := &discordgo.MessageSend{
		Content:    prompt,
		Components: buttonRows(options, seq),
	}
	if _, err := c.sender.ChannelMessageSendComplex(c.channelID, msg); err != nil {
		return 0, fmt.Errorf("discord: send options: %w", err)
	}

	var timeoutCh <-chan time.Time
	if c.timeout > 0 {
		timer := time.NewTimer(c.timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case idx := <-picks:
		return idx, nil
	case <-timeoutCh:
		return 0, engine.ErrChoiceTimeout
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// ShowStatus posts the attribute snapshot as an embed.
func (c *Channel) ShowStatus(_ context.Context, attributes map[string]int) error {
	if len(attributes) == 0 {
		return nil
	}

	keys := make([]string, 0, len(attributes))
	for k := range attributes {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	fields := make([]*discordgo.MessageEmbedField, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   k,
			Value:  fmt.Sprintf("%d", attributes[k]),
			Inline: true,
		})
	}

	embed := &discordgo.MessageEmbed{Title: c.statusTitle(), Fields: fields}
	if _, err := c.sender.ChannelMessageSendEmbed(c.channelID, embed); err != nil {
		return fmt.Errorf("discord: send status: %w", err)
	}
	return nil
}

func (c *Channel) Language() story.Language        { return c.lang }
func (c *Channel) SetLanguage(lang story.Language) { c.lang = lang }

// Pick delivers a button press. Reports whether the press belongs to
// the prompt currently waiting and the index was in range; presses on
// an earlier prompt's buttons are rejected.
func (c *Channel) Pick(seq uint64, index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.picks == nil || seq != c.seq || index < 0 || index >= len(c.options) {
		return false
	}
	select {
	case c.picks <- index:
		return true
	default:
		return false
	}
}

// Reply delivers a typed reply, matched against the waiting prompt's
// options. Reports whether the reply resolved to an option.
func (c *Channel) Reply(text string) bool {
	c.mu.Lock()
	options := c.options
	picks := c.picks
	c.mu.Unlock()

	if picks == nil {
		return false
	}
	idx, ok := c.matcher.Match(text, options)
	if !ok {
		return false
	}
	select {
	case picks <- idx:
		return true
	default:
		return false
	}
}

func (c *Channel) statusTitle() string {
	if c.lang == story.LangRU {
		return "Ваши характеристики"
	}
	return "Your attributes"
}

// buttonRows lays options out as button grids, 5 per row, capped at
// Discord's 25-component limit. Typed replies still reach options
// beyond the cap.
func buttonRows(options []string, seq uint64) []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent
	var row []discordgo.MessageComponent
	for i, opt := range options {
		if i >= maxButtons {
			break
		}
		label := opt
		if len([]rune(label)) > maxButtonLabel {
			label = string([]rune(label)[:maxButtonLabel-1]) + "…"
		}
		row = append(row, discordgo.Button{
			Label:    label,
			Style:    discordgo.PrimaryButton,
			CustomID: fmt.Sprintf("%s%d:%d", ChoicePrefix, seq, i),
		})
		if len(row) == buttonsPerRow {
			rows = append(rows, discordgo.ActionsRow{Components: row})
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, discordgo.ActionsRow{Components: row})
	}
	return rows
}

// splitMessage chunks text at the Discord message size limit,
// preferring newline boundaries.
func splitMessage(text string) []string {
	runes := []rune(text)
	if len(runes) <= maxMessageRunes {
		return []string{text}
	}

	var chunks []string
	for len(runes) > maxMessageRunes {
		cut := maxMessageRunes
		for i := maxMessageRunes - 1; i > maxMessageRunes/2; i-- {
			if runes[i] == '\n' {
				cut = i
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}
