package fairchat

import (
	"context"
	"sync"
	"time"
)

// TypingNotifier is the emission surface the coordinator needs; *Client
// satisfies it.
type TypingNotifier interface {
	NotifyTyping(ctx context.Context, senderID, receiverID string) error
	NotifyStopTyping(ctx context.Context, senderID, receiverID string) error
}

// TypingCoordinator debounces typing notifications for one session. The
// first keystroke of an idle period emits user_typing and arms the quiet
// timer exactly once; further keystrokes neither re-emit nor reset it.
// user_stop_typing fires once per active period, either when the quiet
// timer expires or immediately on send.
type TypingCoordinator struct {
	notifier TypingNotifier
	selfID   string
	quiet    time.Duration

	mu     sync.Mutex
	active bool
	peerID string
	timer  *time.Timer
}

// NewTypingCoordinator creates a coordinator for the given user. A quiet
// period <= 0 falls back to the default.
func NewTypingCoordinator(n TypingNotifier, selfID string, quiet time.Duration) *TypingCoordinator {
	if quiet <= 0 {
		quiet = DefaultConfig().TypingQuietPeriod
	}
	return &TypingCoordinator{notifier: n, selfID: selfID, quiet: quiet}
}

// Keystroke records input activity toward peerID. Idle -> Active emits
// user_typing; already Active toward the same peer is a no-op. A keystroke
// toward a different peer ends the old pair's period and starts a new one.
func (t *TypingCoordinator) Keystroke(ctx context.Context, peerID string) {
	t.mu.Lock()
	if t.active && t.peerID == peerID {
		t.mu.Unlock()
		return
	}
	var stopPeer string
	if t.active {
		stopPeer = t.peerID
		t.cancelTimerLocked()
	}
	t.active = true
	t.peerID = peerID
	t.timer = time.AfterFunc(t.quiet, func() { t.expire(peerID) })
	t.mu.Unlock()

	if stopPeer != "" {
		_ = t.notifier.NotifyStopTyping(ctx, t.selfID, stopPeer)
	}
	_ = t.notifier.NotifyTyping(ctx, t.selfID, peerID)
}

// Send ends the active period immediately, cancelling the quiet timer.
// A no-op when idle.
func (t *TypingCoordinator) Send(ctx context.Context) {
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return
	}
	peer := t.peerID
	t.active = false
	t.cancelTimerLocked()
	t.mu.Unlock()

	_ = t.notifier.NotifyStopTyping(ctx, t.selfID, peer)
}

// Active reports whether a typing period is in progress.
func (t *TypingCoordinator) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// expire runs when the quiet timer fires. The state guard backs up the
// timer cancellation: a firing that raced with Send or a peer switch
// emits nothing.
func (t *TypingCoordinator) expire(peerID string) {
	t.mu.Lock()
	if !t.active || t.peerID != peerID {
		t.mu.Unlock()
		return
	}
	t.active = false
	t.timer = nil
	t.mu.Unlock()

	_ = t.notifier.NotifyStopTyping(context.Background(), t.selfID, peerID)
}

func (t *TypingCoordinator) cancelTimerLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
