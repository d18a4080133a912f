package fairchat

// ConnectionState represents the current state of the WebSocket connection.
type ConnectionState int

const (
	// StateUnconnected means no connection has been requested yet.
	StateUnconnected ConnectionState = iota

	// StateConnecting means the client is establishing a connection.
	StateConnecting

	// StateConnected means the client is connected and the room is joined.
	StateConnected

	// StateDisconnected means the connection ended, either by transport
	// failure or an explicit Close. Terminal for that connection instance;
	// a later Connect starts a fresh one.
	StateDisconnected
)

// String returns the string representation of a ConnectionState.
func (s ConnectionState) String() string {
	switch s {
	case StateUnconnected:
		return "unconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}
