package commands

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/rmuhamedgaliev/arcana/internal/discord"
)

// promptSender posts to a signal channel whenever an options prompt
// goes out, so tests can wait for it before answering.
type promptSender struct {
	posted chan struct{}
}

func newPromptSender() *promptSender {
	return &promptSender{posted: make(chan struct{}, 4)}
}

func (p *promptSender) ChannelMessageSend(string, string, ...discordgo.RequestOption) (*discordgo.Message, error) {
	return &discordgo.Message{}, nil
}

func (p *promptSender) ChannelMessageSendComplex(_ string, _ *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	p.posted <- struct{}{}
	return &discordgo.Message{}, nil
}

func (p *promptSender) ChannelMessageSendEmbed(string, *discordgo.MessageEmbed, ...discordgo.RequestOption) (*discordgo.Message, error) {
	return &discordgo.Message{}, nil
}

func TestGameCommands_RegisterDefinitions(t *testing.T) {
	t.Parallel()

	gc := &GameCommands{
		perms:    discord.NewPermissionChecker(""),
		channels: make(map[string]*discord.Channel),
	}
	router := discord.NewCommandRouter()
	gc.Register(router)

	cmds := router.ApplicationCommands()
	if len(cmds) != 3 {
		t.Fatalf("commands = %d, want 3", len(cmds))
	}
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name] = true
	}
	for _, want := range []string{"play", "stop", "reset"} {
		if !names[want] {
			t.Errorf("command %q not registered", want)
		}
	}
}

func TestParseChoiceID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		customID string
		wantSeq  uint64
		wantIdx  int
		ok       bool
	}{
		{"choice:1:0", 1, 0, true},
		{"choice:42:17", 42, 17, true},
		{"choice:1:-1", 0, 0, false},
		{"choice:-1:0", 0, 0, false},
		{"choice:1:abc", 0, 0, false},
		{"choice:3", 0, 0, false},
		{"choice:", 0, 0, false},
		{"other:1:3", 0, 0, false},
		{"", 0, 0, false},
	}

	for _, tt := range tests {
		seq, idx, ok := parseChoiceID(tt.customID)
		if seq != tt.wantSeq || idx != tt.wantIdx || ok != tt.ok {
			t.Errorf("parseChoiceID(%q) = %d,%d,%v, want %d,%d,%v",
				tt.customID, seq, idx, ok, tt.wantSeq, tt.wantIdx, tt.ok)
		}
	}
}

func TestInteractionUserID(t *testing.T) {
	t.Parallel()

	guild := &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Member: &discordgo.Member{User: &discordgo.User{ID: "member-1"}},
		},
	}
	if got := interactionUserID(guild); got != "member-1" {
		t.Errorf("guild user = %q, want member-1", got)
	}

	dm := &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			User: &discordgo.User{ID: "user-2"},
		},
	}
	if got := interactionUserID(dm); got != "user-2" {
		t.Errorf("dm user = %q, want user-2", got)
	}

	empty := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{}}
	if got := interactionUserID(empty); got != "" {
		t.Errorf("empty user = %q, want empty", got)
	}
}

func TestHandleMessage_RoutesTypedReply(t *testing.T) {
	t.Parallel()

	sender := newPromptSender()
	ch := discord.NewChannel(sender, "chan-1", 0)
	gc := &GameCommands{
		perms:    discord.NewPermissionChecker(""),
		channels: map[string]*discord.Channel{"chan-1": ch},
	}

	got := make(chan int, 1)
	go func() {
		idx, _ := ch.SendOptions(context.Background(), "", []string{"Fight", "Flee"})
		got <- idx
	}()

	select {
	case <-sender.posted:
	case <-time.After(5 * time.Second):
		t.Fatal("prompt never posted")
	}

	// Bot messages and messages in other channels are ignored.
	gc.handleMessage(nil, &discordgo.MessageCreate{Message: &discordgo.Message{
		ChannelID: "chan-1",
		Author:    &discordgo.User{ID: "bot", Bot: true},
		Content:   "flee",
	}})
	gc.handleMessage(nil, &discordgo.MessageCreate{Message: &discordgo.Message{
		ChannelID: "chan-other",
		Author:    &discordgo.User{ID: "user-1"},
		Content:   "flee",
	}})

	select {
	case <-got:
		t.Fatal("ignored message resolved the prompt")
	case <-time.After(50 * time.Millisecond):
	}

	gc.handleMessage(nil, &discordgo.MessageCreate{Message: &discordgo.Message{
		ChannelID: "chan-1",
		Author:    &discordgo.User{ID: "user-1"},
		Content:   "flee",
	}})

	select {
	case idx := <-got:
		if idx != 1 {
			t.Errorf("index = %d, want 1", idx)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("typed reply never resolved the prompt")
	}
}
