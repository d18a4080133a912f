package fairchat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fairlink/fairchat-sdk-go/fairchat/rest"
)

// fakeHistory is an in-memory HistoryAPI with optional per-counterpart
// fetch delays.
type fakeHistory struct {
	mu            sync.Mutex
	conversations []rest.Conversation
	messages      map[string][]rest.Message
	delay         map[string]time.Duration
}

func (f *fakeHistory) Conversations(context.Context) ([]rest.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]rest.Conversation(nil), f.conversations...), nil
}

func (f *fakeHistory) Messages(_ context.Context, counterpartID string) ([]rest.Message, error) {
	f.mu.Lock()
	d := f.delay[counterpartID]
	msgs := append([]rest.Message(nil), f.messages[counterpartID]...)
	f.mu.Unlock()
	if d > 0 {
		time.Sleep(d)
	}
	return msgs, nil
}

func twoConversations() *fakeHistory {
	return &fakeHistory{
		conversations: []rest.Conversation{
			{CounterpartID: "u2", DisplayName: "Recruiter"},
			{CounterpartID: "u3", DisplayName: "Alumni"},
		},
		messages: map[string][]rest.Message{
			"u2": {
				{SenderID: "u2", Message: "hello"},
				{SenderID: "u1", Message: "hi there"},
			},
			"u3": {
				{SenderID: "u3", Message: "welcome"},
			},
		},
	}
}

func TestLoadConversations(t *testing.T) {
	s := NewConversationStore(twoConversations(), "u1")
	if err := s.LoadConversations(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	convs := s.Conversations()
	if len(convs) != 2 || convs[0].CounterpartID != "u2" || convs[1].CounterpartID != "u3" {
		t.Fatalf("unexpected conversations: %+v", convs)
	}
}

func TestLoadConversationsEmpty(t *testing.T) {
	s := NewConversationStore(&fakeHistory{}, "u1")
	if err := s.LoadConversations(context.Background()); err != nil {
		t.Fatalf("empty list must be valid: %v", err)
	}
	if got := s.Conversations(); len(got) != 0 {
		t.Fatalf("want empty list, got %+v", got)
	}
}

func TestOptimisticAppend(t *testing.T) {
	s := NewConversationStore(twoConversations(), "u1")
	ctx := context.Background()
	if err := s.LoadConversations(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := s.Select(ctx, "u2"); err != nil {
		t.Fatalf("select: %v", err)
	}

	msg, ok := s.AppendLocal("hi")
	if !ok {
		t.Fatalf("append rejected with active conversation")
	}
	if msg.LocalID == "" || msg.SenderID != "u1" || msg.Message != "hi" {
		t.Fatalf("unexpected local message: %+v", msg)
	}

	// Appended synchronously at the tail, before any inbound echo.
	seq := s.ActiveMessages()
	if len(seq) != 3 {
		t.Fatalf("sequence length = %d, want 3", len(seq))
	}
	last := seq[len(seq)-1]
	if last.SenderID != "u1" || last.Message != "hi" || last.LocalID != msg.LocalID {
		t.Fatalf("tail is %+v, want the optimistic entry", last)
	}

	convs := s.Conversations()
	if convs[0].LastMessage != "hi" {
		t.Fatalf("preview not updated: %+v", convs[0])
	}
}

func TestAppendLocalWithoutSelection(t *testing.T) {
	s := NewConversationStore(twoConversations(), "u1")
	if _, ok := s.AppendLocal("hi"); ok {
		t.Fatalf("append must be rejected with no active conversation")
	}
}

func TestSelectReplacesHistory(t *testing.T) {
	s := NewConversationStore(twoConversations(), "u1")
	ctx := context.Background()
	if err := s.Select(ctx, "u2"); err != nil {
		t.Fatalf("select u2: %v", err)
	}
	s.AppendLocal("extra")

	if err := s.Select(ctx, "u3"); err != nil {
		t.Fatalf("select u3: %v", err)
	}
	seq := s.ActiveMessages()
	if len(seq) != 1 || seq[0].Message != "welcome" {
		t.Fatalf("u3 sequence = %+v, want exactly its fetched history", seq)
	}

	// Re-selecting u2 replaces wholesale with the fetched history; the
	// earlier optimistic entry is gone because the fetch result wins.
	if err := s.Select(ctx, "u2"); err != nil {
		t.Fatalf("reselect u2: %v", err)
	}
	seq = s.ActiveMessages()
	if len(seq) != 2 {
		t.Fatalf("u2 sequence = %+v, want the two fetched entries", seq)
	}
}

func TestLaterSelectionWins(t *testing.T) {
	h := twoConversations()
	h.delay = map[string]time.Duration{"u2": 100 * time.Millisecond}
	s := NewConversationStore(h, "u1")
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.Select(ctx, "u2") // slow fetch
	}()
	time.Sleep(10 * time.Millisecond)
	if err := s.Select(ctx, "u3"); err != nil {
		t.Fatalf("select u3: %v", err)
	}
	wg.Wait()

	if got := s.Active(); got != "u3" {
		t.Fatalf("active = %q, want u3", got)
	}
	seq := s.ActiveMessages()
	if len(seq) != 1 || seq[0].Message != "welcome" {
		t.Fatalf("active sequence = %+v, want u3 history", seq)
	}
	// The overtaken fetch was discarded, not applied late.
	if got := s.Messages("u2"); len(got) != 0 {
		t.Fatalf("stale fetch applied: %+v", got)
	}
}

func TestIncomingRoutedBySender(t *testing.T) {
	s := NewConversationStore(twoConversations(), "u1")
	ctx := context.Background()
	if err := s.LoadConversations(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := s.Select(ctx, "u2"); err != nil {
		t.Fatalf("select: %v", err)
	}

	// A message from u3 lands in u3's sequence even while u2 is open.
	s.AppendIncoming(MessageEvent{SenderID: "u3", Message: "ping", Timestamp: "2026-02-01T10:00:00Z"})

	if got := s.ActiveMessages(); len(got) != 2 {
		t.Fatalf("u2 sequence grew: %+v", got)
	}
	u3 := s.Messages("u3")
	if len(u3) != 1 || u3[0].Message != "ping" {
		t.Fatalf("u3 sequence = %+v, want the routed message", u3)
	}

	convs := s.Conversations()
	if convs[1].LastMessage != "ping" {
		t.Fatalf("u3 preview not updated: %+v", convs[1])
	}
}

func TestIncomingUnknownSenderCreatesConversation(t *testing.T) {
	s := NewConversationStore(twoConversations(), "u1")
	ctx := context.Background()
	if err := s.LoadConversations(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	s.AppendIncoming(MessageEvent{SenderID: "u9", Message: "hello?"})

	convs := s.Conversations()
	if len(convs) != 3 {
		t.Fatalf("conversation list = %+v, want placeholder appended", convs)
	}
	// Appended at the end; the list is never re-sorted client-side.
	if convs[2].CounterpartID != "u9" || convs[2].LastMessage != "hello?" {
		t.Fatalf("placeholder = %+v", convs[2])
	}
	if got := s.Messages("u9"); len(got) != 1 {
		t.Fatalf("u9 sequence = %+v", got)
	}
}

func TestIncomingOwnEchoGoesToActive(t *testing.T) {
	s := NewConversationStore(twoConversations(), "u1")
	ctx := context.Background()
	if err := s.Select(ctx, "u2"); err != nil {
		t.Fatalf("select: %v", err)
	}

	s.AppendLocal("hi")
	// The server echo of the same message is a second entry; entries are
	// never deduplicated.
	s.AppendIncoming(MessageEvent{SenderID: "u1", Message: "hi"})

	seq := s.ActiveMessages()
	if len(seq) != 4 {
		t.Fatalf("sequence length = %d, want local entry and echo kept", len(seq))
	}
}
