package discord

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/rmuhamedgaliev/arcana/internal/engine"
)

// mockSender records outgoing messages for test assertions.
type mockSender struct {
	mu       sync.Mutex
	messages []string
	complex  []*discordgo.MessageSend
	embeds   []*discordgo.MessageEmbed

	// posted receives a signal for every ChannelMessageSendComplex so
	// tests can wait for the prompt before answering it.
	posted chan struct{}

	err error
}

func newMockSender() *mockSender {
	return &mockSender{posted: make(chan struct{}, 8)}
}

func (m *mockSender) ChannelMessageSend(_ string, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.messages = append(m.messages, content)
	return &discordgo.Message{ID: "mock"}, nil
}

func (m *mockSender) ChannelMessageSendComplex(_ string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.complex = append(m.complex, data)
	m.posted <- struct{}{}
	return &discordgo.Message{ID: "mock"}, nil
}

func (m *mockSender) ChannelMessageSendEmbed(_ string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.embeds = append(m.embeds, embed)
	return &discordgo.Message{ID: "mock"}, nil
}

func TestChannel_SendMessage(t *testing.T) {
	t.Parallel()

	sender := newMockSender()
	ch := NewChannel(sender, "chan-1", 0)

	if err := ch.SendMessage(context.Background(), "You wake up in a cave."); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if len(sender.messages) != 1 || sender.messages[0] != "You wake up in a cave." {
		t.Errorf("messages = %q", sender.messages)
	}
}

func TestChannel_SendMessage_SplitsLongText(t *testing.T) {
	t.Parallel()

	sender := newMockSender()
	ch := NewChannel(sender, "chan-1", 0)

	long := strings.Repeat("a", 2500)
	if err := ch.SendMessage(context.Background(), long); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if len(sender.messages) != 2 {
		t.Fatalf("chunks = %d, want 2", len(sender.messages))
	}
	for _, chunk := range sender.messages {
		if len([]rune(chunk)) > maxMessageRunes {
			t.Errorf("chunk length %d exceeds limit", len([]rune(chunk)))
		}
	}
}

func TestChannel_SendOptions_PickResolves(t *testing.T) {
	t.Parallel()

	sender := newMockSender()
	ch := NewChannel(sender, "chan-1", 0)

	got := make(chan int, 1)
	go func() {
		idx, err := ch.SendOptions(context.Background(), "What now?", []string{"Fight", "Flee"})
		if err != nil {
			t.Errorf("SendOptions: %v", err)
		}
		got <- idx
	}()

	select {
	case <-sender.posted:
	case <-time.After(5 * time.Second):
		t.Fatal("prompt never posted")
	}

	if !ch.Pick(1, 1) {
		t.Fatal("Pick(1, 1) = false, want true")
	}

	select {
	case idx := <-got:
		if idx != 1 {
			t.Errorf("index = %d, want 1", idx)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("SendOptions never returned")
	}
}

func TestChannel_SendOptions_ReplyResolves(t *testing.T) {
	t.Parallel()

	sender := newMockSender()
	ch := NewChannel(sender, "chan-1", 0)

	got := make(chan int, 1)
	go func() {
		idx, _ := ch.SendOptions(context.Background(), "", []string{"Enter the cave", "Walk away"})
		got <- idx
	}()

	<-sender.posted

	if ch.Reply("zzz unrelated") {
		t.Error("unmatched reply accepted")
	}
	if !ch.Reply("walk away") {
		t.Fatal("Reply = false for matching text")
	}

	select {
	case idx := <-got:
		if idx != 1 {
			t.Errorf("index = %d, want 1", idx)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("SendOptions never returned")
	}
}

func TestChannel_Pick_NoPromptWaiting(t *testing.T) {
	t.Parallel()

	ch := NewChannel(newMockSender(), "chan-1", 0)
	if ch.Pick(1, 0) {
		t.Error("Pick = true with no prompt waiting")
	}
	if ch.Reply("anything") {
		t.Error("Reply = true with no prompt waiting")
	}
}

func TestChannel_Pick_OutOfRange(t *testing.T) {
	t.Parallel()

	sender := newMockSender()
	ch := NewChannel(sender, "chan-1", 0)

	done := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer close(done)
		_, _ = ch.SendOptions(ctx, "", []string{"A", "B"})
	}()
	<-sender.posted

	if ch.Pick(1, 5) {
		t.Error("Pick(1, 5) = true for two options")
	}
	if ch.Pick(1, -1) {
		t.Error("Pick(1, -1) = true")
	}

	cancel()
	<-done
}

func TestChannel_Pick_StalePromptRejected(t *testing.T) {
	t.Parallel()

	sender := newMockSender()
	ch := NewChannel(sender, "chan-1", 0)

	// First prompt, answered normally.
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = ch.SendOptions(context.Background(), "", []string{"Left", "Right"})
	}()
	<-sender.posted
	if !ch.Pick(1, 0) {
		t.Fatal("Pick on the live prompt rejected")
	}
	<-done

	// Second prompt. A press on the first prompt's buttons must not
	// answer it.
	got := make(chan int, 1)
	go func() {
		idx, _ := ch.SendOptions(context.Background(), "", []string{"Up", "Down"})
		got <- idx
	}()
	<-sender.posted

	if ch.Pick(1, 0) {
		t.Error("press on a stale prompt accepted")
	}
	if !ch.Pick(2, 1) {
		t.Fatal("press on the current prompt rejected")
	}
	select {
	case idx := <-got:
		if idx != 1 {
			t.Errorf("index = %d, want 1", idx)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("SendOptions never returned")
	}
}

func TestChannel_SendOptions_Timeout(t *testing.T) {
	t.Parallel()

	sender := newMockSender()
	ch := NewChannel(sender, "chan-1", 20*time.Millisecond)

	_, err := ch.SendOptions(context.Background(), "", []string{"A"})
	if !errors.Is(err, engine.ErrChoiceTimeout) {
		t.Errorf("err = %v, want ErrChoiceTimeout", err)
	}
}

func TestChannel_ShowStatus_EmbedFields(t *testing.T) {
	t.Parallel()

	sender := newMockSender()
	ch := NewChannel(sender, "chan-1", 0)

	err := ch.ShowStatus(context.Background(), map[string]int{"health": 10, "gold": 5})
	if err != nil {
		t.Fatalf("ShowStatus: %v", err)
	}
	if len(sender.embeds) != 1 {
		t.Fatalf("embeds = %d, want 1", len(sender.embeds))
	}

	fields := sender.embeds[0].Fields
	if len(fields) != 2 {
		t.Fatalf("fields = %d, want 2", len(fields))
	}
	// Sorted by attribute name.
	if fields[0].Name != "gold" || fields[0].Value != "5" {
		t.Errorf("field[0] = %s=%s", fields[0].Name, fields[0].Value)
	}
	if fields[1].Name != "health" || fields[1].Value != "10" {
		t.Errorf("field[1] = %s=%s", fields[1].Name, fields[1].Value)
	}
}

func TestButtonRows_Layout(t *testing.T) {
	t.Parallel()

	opts := make([]string, 7)
	for i := range opts {
		opts[i] = "option"
	}
	rows := buttonRows(opts, 1)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	first := rows[0].(discordgo.ActionsRow)
	second := rows[1].(discordgo.ActionsRow)
	if len(first.Components) != 5 || len(second.Components) != 2 {
		t.Errorf("row sizes = %d,%d, want 5,2", len(first.Components), len(second.Components))
	}

	btn := first.Components[2].(discordgo.Button)
	if btn.CustomID != "choice:1:2" {
		t.Errorf("custom_id = %q, want %q", btn.CustomID, "choice:1:2")
	}
}

func TestButtonRows_CapsAtComponentLimit(t *testing.T) {
	t.Parallel()

	opts := make([]string, 30)
	for i := range opts {
		opts[i] = "option"
	}
	total := 0
	for _, row := range buttonRows(opts, 1) {
		total += len(row.(discordgo.ActionsRow).Components)
	}
	if total != maxButtons {
		t.Errorf("buttons = %d, want %d", total, maxButtons)
	}
}

func TestButtonRows_TruncatesLongLabels(t *testing.T) {
	t.Parallel()

	rows := buttonRows([]string{strings.Repeat("x", 120)}, 1)
	btn := rows[0].(discordgo.ActionsRow).Components[0].(discordgo.Button)
	if len([]rune(btn.Label)) > maxButtonLabel {
		t.Errorf("label length = %d, want <= %d", len([]rune(btn.Label)), maxButtonLabel)
	}
}
