package fairchat

import (
	"context"
	"sync"
	"time"

	"github.com/fairlink/fairchat-sdk-go/fairchat/rest"

	"github.com/google/uuid"
)

// HistoryAPI is the REST surface the store consumes; *rest.Client
// satisfies it.
type HistoryAPI interface {
	Conversations(ctx context.Context) ([]rest.Conversation, error)
	Messages(ctx context.Context, counterpartID string) ([]rest.Message, error)
}

// ChatMessage is one entry in a conversation's message sequence. LocalID is
// a client-assigned id present only on optimistically appended entries; a
// local entry and a later server echo of the same message are distinct
// entries, never deduplicated.
type ChatMessage struct {
	LocalID   string
	SenderID  string
	Message   string
	Timestamp time.Time
}

// ConversationStore is the client-side view model for the chat page: the
// conversation list, the active selection, and per-conversation message
// sequences. Sequences are append-only in arrival/send order and are never
// re-sorted; the conversation list keeps server order.
type ConversationStore struct {
	api    HistoryAPI
	selfID string
	logger Logger

	mu            sync.Mutex
	conversations []rest.Conversation
	messages      map[string][]ChatMessage
	activeID      string
	selectGen     int
}

// NewConversationStore creates a store for the given user.
func NewConversationStore(api HistoryAPI, selfID string) *ConversationStore {
	return &ConversationStore{
		api:      api,
		selfID:   selfID,
		logger:   noopLogger{},
		messages: make(map[string][]ChatMessage),
	}
}

// SetLogger overrides logger (optional).
func (s *ConversationStore) SetLogger(l Logger) {
	if l == nil {
		return
	}
	s.logger = l
}

// LoadConversations fetches the conversation list and replaces the held
// list wholesale. An empty result is valid and leaves an empty list.
func (s *ConversationStore) LoadConversations(ctx context.Context) error {
	convs, err := s.api.Conversations(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.conversations = convs
	s.mu.Unlock()
	return nil
}

// Conversations returns a copy of the held conversation list.
func (s *ConversationStore) Conversations() []rest.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]rest.Conversation, len(s.conversations))
	copy(out, s.conversations)
	return out
}

// Select makes counterpartID the active conversation and fetches its
// history, replacing the held sequence wholesale. When a second Select
// overtakes a still-outstanding fetch, the later selection wins and the
// stale result is discarded.
func (s *ConversationStore) Select(ctx context.Context, counterpartID string) error {
	s.mu.Lock()
	s.activeID = counterpartID
	s.selectGen++
	gen := s.selectGen
	s.mu.Unlock()

	history, err := s.api.Messages(ctx, counterpartID)
	if err != nil {
		return err
	}

	msgs := make([]ChatMessage, len(history))
	for i, m := range history {
		msgs[i] = ChatMessage{
			SenderID:  m.SenderID,
			Message:   m.Message,
			Timestamp: m.Timestamp,
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.selectGen {
		s.logger.Debug("stale history fetch discarded", map[string]any{"counterpart": counterpartID})
		return nil
	}
	s.messages[counterpartID] = msgs
	return nil
}

// Active returns the active conversation's counterpart id, empty when none
// is selected.
func (s *ConversationStore) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Messages returns a copy of the message sequence for a counterpart.
func (s *ConversationStore) Messages(counterpartID string) []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ChatMessage, len(s.messages[counterpartID]))
	copy(out, s.messages[counterpartID])
	return out
}

// ActiveMessages returns a copy of the active conversation's sequence.
func (s *ConversationStore) ActiveMessages() []ChatMessage {
	return s.Messages(s.Active())
}

// AppendLocal appends a message the user just sent to the active
// conversation, synchronously and before any network round trip. Returns
// false when no conversation is selected.
func (s *ConversationStore) AppendLocal(body string) (ChatMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeID == "" {
		return ChatMessage{}, false
	}
	msg := ChatMessage{
		LocalID:   uuid.NewString(),
		SenderID:  s.selfID,
		Message:   body,
		Timestamp: time.Now(),
	}
	s.messages[s.activeID] = append(s.messages[s.activeID], msg)
	s.touchConversationLocked(s.activeID, body, msg.Timestamp)
	return msg, true
}

// AppendIncoming appends a message delivered over the real-time channel.
// Messages are routed by sender into that sender's conversation sequence,
// not into whichever conversation happens to be open; a sender with no
// conversation entry yet gets a placeholder appended to the list. An echo
// of the user's own message lands in the active conversation.
func (s *ConversationStore) AppendIncoming(ev MessageEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := ev.SenderID
	if target == "" || target == s.selfID {
		if s.activeID == "" {
			s.logger.Debug("incoming message dropped: no route", map[string]any{"sender": ev.SenderID})
			return
		}
		target = s.activeID
	}

	msg := ChatMessage{
		SenderID:  ev.SenderID,
		Message:   ev.Message,
		Timestamp: parseEventTime(ev.Timestamp),
	}
	s.messages[target] = append(s.messages[target], msg)

	if target != s.selfID && !s.hasConversationLocked(target) {
		s.conversations = append(s.conversations, rest.Conversation{
			CounterpartID: target,
			DisplayName:   target,
		})
	}
	s.touchConversationLocked(target, ev.Message, msg.Timestamp)
}

// Bind subscribes the store to a client's inbound messages and returns the
// unsubscribe func.
func (s *ConversationStore) Bind(c *Client) func() {
	return c.OnMessage(s.AppendIncoming)
}

func (s *ConversationStore) hasConversationLocked(counterpartID string) bool {
	for _, conv := range s.conversations {
		if conv.CounterpartID == counterpartID {
			return true
		}
	}
	return false
}

// touchConversationLocked updates the preview fields of one conversation.
// List order is left alone; ordering across conversations is the server's.
func (s *ConversationStore) touchConversationLocked(counterpartID, preview string, ts time.Time) {
	for i := range s.conversations {
		if s.conversations[i].CounterpartID == counterpartID {
			s.conversations[i].LastMessage = preview
			s.conversations[i].Timestamp = ts
			return
		}
	}
}

func parseEventTime(s string) time.Time {
	if s != "" {
		if ts, err := time.Parse(time.RFC3339, s); err == nil {
			return ts
		}
	}
	return time.Now()
}
