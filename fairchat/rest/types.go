package rest

import "time"

// Chat types

// Conversation summarizes one chat counterpart. The server supplies the
// ordering of the conversation list; clients render it as returned.
type Conversation struct {
	CounterpartID string    `json:"userId"`
	DisplayName   string    `json:"userName"`
	LastMessage   string    `json:"lastMessage"`
	Timestamp     time.Time `json:"timestamp"`
}

// ConversationsResponse wraps the conversation list endpoint.
type ConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
}

// Message is a single message in a conversation's history.
type Message struct {
	SenderID  string    `json:"senderId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// MessagesResponse wraps the message history endpoint.
type MessagesResponse struct {
	Messages []Message `json:"messages"`
}

// SendMessageRequest is the request body for the REST send path.
type SendMessageRequest struct {
	ReceiverID string `json:"receiverId"`
	Message    string `json:"message"`
}

// Resume types

// Resume is the stored resume metadata for a student.
type Resume struct {
	ID        string    `json:"id"`
	StudentID string    `json:"studentId"`
	FileName  string    `json:"fileName"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Message string `json:"message"`
}
