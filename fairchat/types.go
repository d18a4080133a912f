package fairchat

import "encoding/json"

const (
	eventJoinRoom   = "join_room"
	eventSend       = "send_message"
	eventReceive    = "receive_message"
	eventSent       = "message_sent"
	eventTyping     = "user_typing"
	eventStopTyping = "user_stop_typing"
	eventBoothVisit = "booth_visit"
	eventNewVisitor = "new_visitor"
	eventError      = "error"
)

// emitFrame is the envelope client -> server.
type emitFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// recvFrame is the envelope server -> client.
type recvFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *Error          `json:"error,omitempty"`
}

// MessagePayload carries an outgoing chat message.
type MessagePayload struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Message    string `json:"message"`
}

// TypingPayload signals typing start/stop between two users.
type TypingPayload struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
}

// BoothVisitPayload announces a student arriving at a company booth.
type BoothVisitPayload struct {
	CompanyID   string `json:"companyId"`
	StudentName string `json:"studentName"`
}

// Error describes a protocol error.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Code + ": " + e.Msg
}

// UnmarshalData decodes RawMessage into target.
func UnmarshalData(data json.RawMessage, v any) error {
	return json.Unmarshal(data, v)
}
