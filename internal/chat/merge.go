package chat

import "github.com/timkeo/timkeo-client/internal/models"

// Merge folds one incoming message into an ordered sequence. The same
// message may arrive once via the realtime channel and once via a list
// reload, so an already-present id is a no-op. New messages append at
// the tail: the transport delivers in creation order and no reordering
// is attempted.
func Merge(existing []models.Message, incoming models.Message) []models.Message {
	for _, m := range existing {
		if m.ID == incoming.ID {
			return existing
		}
	}
	return append(existing, incoming)
}
