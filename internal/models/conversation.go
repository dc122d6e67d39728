package models

import "time"

// MatchState is the negotiation state of a conversation. The server owns
// the source of truth; the client only renders it and requests transitions.
type MatchState string

const (
	MatchNone    MatchState = "no"
	MatchWaiting MatchState = "waiting"
	MatchConfirm MatchState = "confirm"
)

// Conversation scopes messaging and match negotiation to one post and one
// pair of participants.
type Conversation struct {
	ID           string     `json:"_id"`
	PostID       string     `json:"postId"`
	Participants []string   `json:"participants"`
	IsMatch      MatchState `json:"isMatch"`
	WaitingBy    string     `json:"waitingBy,omitempty"`
	ConfirmBy    string     `json:"confirmBy,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// OtherParticipant returns the counterpart's id, or "" when the record
// only lists the viewer (a conversation just created from the feed).
func (c *Conversation) OtherParticipant(selfID string) string {
	for _, p := range c.Participants {
		if p != selfID {
			return p
		}
	}
	return ""
}

// HasParticipant reports whether userID is one of the two participants.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// ConversationDetails is the enriched listing record returned by the
// conversations-with-details endpoint for the messages overview.
type ConversationDetails struct {
	Conversation
	LastMessage      *Message     `json:"lastMessage"`
	OtherParticipant *UserSummary `json:"otherParticipant"`
	PostTitle        string       `json:"postTitle"`
	PostSport        string       `json:"postSport"`
}
