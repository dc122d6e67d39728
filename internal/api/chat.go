package api

import (
	"context"
	"net/http"

	"github.com/timkeo/timkeo-client/internal/models"
)

// ConversationPatch is the partial update body for PATCH
// /chat/conversations/:id, the single operation the negotiation state
// machine uses to mutate server state. WaitingBy is a pointer and is
// always encoded: cancel and confirm must send an explicit null so a
// partial-update backend clears the stale proposer id.
type ConversationPatch struct {
	IsMatch   models.MatchState `json:"isMatch"`
	WaitingBy *string           `json:"waitingBy"`
}

type NewConversation struct {
	PostID       string            `json:"postId"`
	Participants []string          `json:"participants"`
	IsMatch      models.MatchState `json:"isMatch"`
}

func (c *Client) CreateConversation(ctx context.Context, nc NewConversation) (*models.Conversation, error) {
	var conv models.Conversation
	if err := c.do(ctx, http.MethodPost, "/chat/conversations", nc, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (c *Client) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	var conv models.Conversation
	if err := c.do(ctx, http.MethodGet, "/chat/conversations/"+id, nil, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (c *Client) ConversationsByPost(ctx context.Context, postID string) ([]models.Conversation, error) {
	var convs []models.Conversation
	if err := c.do(ctx, http.MethodGet, "/chat/conversations/post/"+postID, nil, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

func (c *Client) ConversationsByUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	var convs []models.Conversation
	if err := c.do(ctx, http.MethodGet, "/chat/conversations/user/"+userID, nil, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

func (c *Client) ConversationsWithDetails(ctx context.Context, userID string) ([]models.ConversationDetails, error) {
	var convs []models.ConversationDetails
	if err := c.do(ctx, http.MethodGet, "/chat/conversations/user/"+userID+"/details", nil, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

func (c *Client) UpdateConversation(ctx context.Context, id string, patch ConversationPatch) (*models.Conversation, error) {
	var conv models.Conversation
	if err := c.do(ctx, http.MethodPatch, "/chat/conversations/"+id, patch, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (c *Client) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	var msgs []models.Message
	if err := c.do(ctx, http.MethodGet, "/chat/messages/"+conversationID, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}
