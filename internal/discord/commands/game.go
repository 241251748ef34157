// Package commands implements the Arcana Discord slash commands. One
// story session runs per text channel; choices are answered with the
// buttons under each prompt or by typing an option.
package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/rmuhamedgaliev/arcana/internal/app"
	"github.com/rmuhamedgaliev/arcana/internal/discord"
	"github.com/rmuhamedgaliev/arcana/internal/engine"
)

// GameCommands holds the dependencies for the story slash commands.
type GameCommands struct {
	bot      *discord.Bot
	sessions *app.SessionManager
	perms    *discord.PermissionChecker
	timeout  time.Duration

	mu       sync.Mutex
	channels map[string]*discord.Channel // text channel ID → waiting game channel
}

// NewGameCommands creates the command set and registers its handlers
// with the bot's router and message stream.
func NewGameCommands(bot *discord.Bot, sessions *app.SessionManager, timeout time.Duration) *GameCommands {
	gc := &GameCommands{
		bot:      bot,
		sessions: sessions,
		perms:    bot.Permissions(),
		timeout:  timeout,
		channels: make(map[string]*discord.Channel),
	}
	gc.Register(bot.Router())
	bot.OnMessage(gc.handleMessage)
	return gc
}

// Register registers the story commands and the choice button handler.
func (gc *GameCommands) Register(router *discord.CommandRouter) {
	router.RegisterCommand("play", &discordgo.ApplicationCommand{
		Name:        "play",
		Description: "Start or resume your story in this channel",
	}, gc.handlePlay)
	router.RegisterCommand("stop", &discordgo.ApplicationCommand{
		Name:        "stop",
		Description: "Stop the story running in this channel",
	}, gc.handleStop)
	router.RegisterCommand("reset", &discordgo.ApplicationCommand{
		Name:        "reset",
		Description: "Erase your saved story progress",
	}, gc.handleReset)
	router.RegisterComponentPrefix(discord.ChoicePrefix, gc.handleChoice)
}

// handlePlay starts a session bound to the interaction's text channel.
// A session already running there is replaced.
func (gc *GameCommands) handlePlay(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !gc.perms.IsAllowed(i) {
		discord.RespondEphemeral(s, i, "You do not have permission to play here.")
		return
	}
	playerID := interactionUserID(i)
	if playerID == "" {
		discord.RespondEphemeral(s, i, "Could not determine your user id.")
		return
	}

	key := i.ChannelID
	ch := discord.NewChannel(s, key, gc.timeout)

	gc.mu.Lock()
	gc.channels[key] = ch
	gc.mu.Unlock()

	discord.RespondEphemeral(s, i, "The story begins.")

	gc.sessions.Start(context.Background(), key, playerID, ch, func(engine.Reason) {
		gc.mu.Lock()
		if gc.channels[key] == ch {
			delete(gc.channels, key)
		}
		gc.mu.Unlock()
	})
}

// handleStop stops the session in the interaction's text channel.
func (gc *GameCommands) handleStop(s *discordgo.Session, i *discordgo.InteractionCreate) {
	key := i.ChannelID
	if !gc.sessions.IsActive(key) {
		discord.RespondEphemeral(s, i, "No story is running in this channel.")
		return
	}
	gc.sessions.Stop(key)
	discord.RespondEphemeral(s, i, "Story stopped. Your progress has been saved.")
}

// handleReset stops any running session and wipes the caller's saved
// progress and attributes.
func (gc *GameCommands) handleReset(s *discordgo.Session, i *discordgo.InteractionCreate) {
	playerID := interactionUserID(i)
	if playerID == "" {
		discord.RespondEphemeral(s, i, "Could not determine your user id.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := gc.sessions.Reset(ctx, i.ChannelID, playerID); err != nil {
		discord.RespondError(s, i, fmt.Errorf("reset progress: %w", err))
		return
	}
	discord.RespondEphemeral(s, i, "Your progress has been erased. Use /play to start over.")
}

// handleChoice routes a choice button press to the prompt waiting in
// that channel.
func (gc *GameCommands) handleChoice(s *discordgo.Session, i *discordgo.InteractionCreate) {
	seq, idx, ok := parseChoiceID(i.MessageComponentData().CustomID)
	if !ok {
		discord.RespondEphemeral(s, i, "This prompt is no longer active.")
		return
	}

	gc.mu.Lock()
	ch := gc.channels[i.ChannelID]
	gc.mu.Unlock()

	if ch == nil || !ch.Pick(seq, idx) {
		discord.RespondEphemeral(s, i, "This prompt is no longer active.")
		return
	}
	discord.AckComponent(s, i)
}

// handleMessage routes typed replies to the prompt waiting in that
// channel. Messages outside active story channels are ignored.
func (gc *GameCommands) handleMessage(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	gc.mu.Lock()
	ch := gc.channels[m.ChannelID]
	gc.mu.Unlock()

	if ch != nil {
		ch.Reply(m.Content)
	}
}

// parseChoiceID extracts the prompt sequence number and option index
// from a choice button custom_id.
func parseChoiceID(customID string) (seq uint64, idx int, ok bool) {
	suffix, ok := strings.CutPrefix(customID, discord.ChoicePrefix)
	if !ok {
		return 0, 0, false
	}
	seqPart, idxPart, ok := strings.Cut(suffix, ":")
	if !ok {
		return 0, 0, false
	}
	seq, err := strconv.ParseUint(seqPart, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	idx, err = strconv.Atoi(idxPart)
	if err != nil || idx < 0 {
		return 0, 0, false
	}
	return seq, idx, true
}

// interactionUserID extracts the user ID from an interaction, handling
// both guild (Member) and DM (User) contexts.
func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
