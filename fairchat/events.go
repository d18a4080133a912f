package fairchat

// MessageEvent is delivered for every inbound chat message.
type MessageEvent struct {
	SenderID  string `json:"senderId"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// TypingEvent notifies that the counterpart started or stopped typing.
type TypingEvent struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
}

// VisitorEvent notifies a company that a student arrived at its booth.
type VisitorEvent struct {
	CompanyID   string `json:"companyId"`
	StudentName string `json:"studentName"`
	Timestamp   string `json:"timestamp,omitempty"`
}
