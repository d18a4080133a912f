package fairchat

import "time"

// Config controls how the SDK connects.
type Config struct {
	URL              string // WebSocket endpoint, e.g. "ws://localhost:5000/ws"
	Token            string // session bearer credential sent with the handshake
	HandshakeTimeout time.Duration

	// ReadTimeout bounds each inbound read. Zero by default: an idle
	// conversation can sit quiet indefinitely without tearing the
	// connection down.
	ReadTimeout time.Duration

	WriteTimeout time.Duration

	// TypingQuietPeriod is how long after the first keystroke the typing
	// indicator is considered stopped when no send happens.
	TypingQuietPeriod time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout:  10 * time.Second,
		WriteTimeout:      10 * time.Second,
		TypingQuietPeriod: 3 * time.Second,
	}
}
