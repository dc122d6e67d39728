package feed

import (
	"context"

	"go.uber.org/zap"

	"github.com/timkeo/timkeo-client/internal/models"
)

// UnreadBackend is the REST surface the indicator check needs.
type UnreadBackend interface {
	ConversationsByUser(ctx context.Context, userID string) ([]models.Conversation, error)
	ListMessages(ctx context.Context, conversationID string) ([]models.Message, error)
}

// HasNewMessages reports whether any of the viewer's conversations ends
// with a message from someone else. One extra call per conversation,
// best-effort: failures log and read as "nothing new".
func HasNewMessages(ctx context.Context, backend UnreadBackend, userID string, log *zap.SugaredLogger) bool {
	convs, err := backend.ConversationsByUser(ctx, userID)
	if err != nil {
		log.Warnw("unread check: conversations fetch failed", "err", err)
		return false
	}
	for _, conv := range convs {
		msgs, err := backend.ListMessages(ctx, conv.ID)
		if err != nil {
			log.Warnw("unread check: messages fetch failed", "conversation", conv.ID, "err", err)
			continue
		}
		if len(msgs) == 0 {
			continue
		}
		if msgs[len(msgs)-1].SenderID != userID {
			return true
		}
	}
	return false
}
