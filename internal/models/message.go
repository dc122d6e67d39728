package models

import "time"

// Message is one append-only chat entry in a conversation. The same
// message can reach the client twice (bulk load plus the realtime
// channel), so ID is the identity callers dedupe on.
type Message struct {
	ID             string    `json:"_id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}
