package match

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/timkeo/timkeo-client/internal/api"
	"github.com/timkeo/timkeo-client/internal/apperrors"
	"github.com/timkeo/timkeo-client/internal/logger"
	"github.com/timkeo/timkeo-client/internal/models"
)

type fakeConversationAPI struct {
	updated    *models.Conversation
	updateErr  error
	fetched    *models.Conversation
	fetchCalls int
	lastPatch  api.ConversationPatch
}

func (f *fakeConversationAPI) UpdateConversation(_ context.Context, _ string, patch api.ConversationPatch) (*models.Conversation, error) {
	f.lastPatch = patch
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.updated, nil
}

func (f *fakeConversationAPI) GetConversation(_ context.Context, _ string) (*models.Conversation, error) {
	f.fetchCalls++
	if f.fetched == nil {
		return nil, apperrors.ErrNotFound
	}
	return f.fetched, nil
}

func conv(state models.MatchState, waitingBy string, updatedAt time.Time) models.Conversation {
	return models.Conversation{
		ID:           "conv-1",
		PostID:       "post-1",
		Participants: []string{"alice", "bob"},
		IsMatch:      state,
		WaitingBy:    waitingBy,
		UpdatedAt:    updatedAt,
	}
}

func TestDecideStateNo(t *testing.T) {
	c := Decide(conv(models.MatchNone, "", time.Now()), PostStatus{}, "alice")
	require.Equal(t, LabelPropose, c.Label)
	require.True(t, c.Enabled)
	require.False(t, c.CancelEnabled)
}

func TestDecideStateNoClosedPost(t *testing.T) {
	post := PostStatus{MatchID: "match-9"}
	c := Decide(conv(models.MatchNone, "", time.Now()), post, "alice")
	require.False(t, c.Enabled, "propose must be disabled once the post carries a match")
}

func TestDecideStateNoInactivePost(t *testing.T) {
	post := PostStatus{Inactive: true, OwnerID: "bob"}

	c := Decide(conv(models.MatchNone, "", time.Now()), post, "alice")
	require.False(t, c.Enabled, "non-owner cannot act on an inactive post")

	c = Decide(conv(models.MatchNone, "", time.Now()), post, "bob")
	require.True(t, c.Enabled, "the owner may still act on an inactive post")
}

func TestDecideWaitingProposerSide(t *testing.T) {
	c := Decide(conv(models.MatchWaiting, "alice", time.Now()), PostStatus{}, "alice")
	require.Equal(t, LabelAwaiting, c.Label)
	require.False(t, c.Enabled, "proposer cannot confirm own proposal")
	require.True(t, c.CancelEnabled)
}

func TestDecideWaitingCounterpartSide(t *testing.T) {
	c := Decide(conv(models.MatchWaiting, "alice", time.Now()), PostStatus{}, "bob")
	require.Equal(t, LabelConfirm, c.Label)
	require.True(t, c.Enabled)
	require.True(t, c.CancelEnabled)
}

func TestDecideConfirmTerminal(t *testing.T) {
	for _, viewer := range []string{"alice", "bob"} {
		c := Decide(conv(models.MatchConfirm, "", time.Now()), PostStatus{}, viewer)
		require.Equal(t, LabelMatched, c.Label)
		require.False(t, c.Enabled)
		require.False(t, c.CancelEnabled)
	}
}

func TestApplyDiscardsStaleRecord(t *testing.T) {
	m := NewMachine(&fakeConversationAPI{}, "alice", logger.Nop())
	t1 := time.Now()

	require.True(t, m.Apply(conv(models.MatchConfirm, "", t1)))
	require.False(t, m.Apply(conv(models.MatchWaiting, "alice", t1.Add(-time.Second))))

	held, ok := m.Current()
	require.True(t, ok)
	require.Equal(t, models.MatchConfirm, held.IsMatch)
}

func TestApplyAcceptsEqualTimestamp(t *testing.T) {
	m := NewMachine(&fakeConversationAPI{}, "alice", logger.Nop())
	t1 := time.Now()

	require.True(t, m.Apply(conv(models.MatchWaiting, "alice", t1)))
	require.True(t, m.Apply(conv(models.MatchConfirm, "", t1)))
}

func TestApplyRejectsForeignConversation(t *testing.T) {
	m := NewMachine(&fakeConversationAPI{}, "alice", logger.Nop())
	require.True(t, m.Apply(conv(models.MatchNone, "", time.Now())))

	other := conv(models.MatchConfirm, "", time.Now().Add(time.Hour))
	other.ID = "conv-2"
	require.False(t, m.Apply(other))
}

func TestProposeSetsWaitingBySelf(t *testing.T) {
	updated := conv(models.MatchWaiting, "alice", time.Now().Add(time.Second))
	backend := &fakeConversationAPI{updated: &updated}
	m := NewMachine(backend, "alice", logger.Nop())
	m.Apply(conv(models.MatchNone, "", time.Now()))

	got, err := m.Propose(context.Background(), PostStatus{})
	require.NoError(t, err)
	require.Equal(t, models.MatchWaiting, got.IsMatch)
	require.NotNil(t, backend.lastPatch.WaitingBy)
	require.Equal(t, "alice", *backend.lastPatch.WaitingBy)
}

func TestProposeRejectedWhenPostClosed(t *testing.T) {
	backend := &fakeConversationAPI{}
	m := NewMachine(backend, "alice", logger.Nop())
	m.Apply(conv(models.MatchNone, "", time.Now()))

	_, err := m.Propose(context.Background(), PostStatus{MatchID: "match-9"})
	require.ErrorIs(t, err, apperrors.ErrPostClosed)
	require.Zero(t, backend.lastPatch.IsMatch, "no transition request may be issued")
}

func TestConfirmByProposerRejected(t *testing.T) {
	m := NewMachine(&fakeConversationAPI{}, "alice", logger.Nop())
	m.Apply(conv(models.MatchWaiting, "alice", time.Now()))

	_, err := m.Confirm(context.Background(), PostStatus{})
	require.ErrorIs(t, err, apperrors.ErrBadTransition)
}

func TestConfirmByCounterpart(t *testing.T) {
	updated := conv(models.MatchConfirm, "", time.Now().Add(time.Second))
	backend := &fakeConversationAPI{updated: &updated}
	m := NewMachine(backend, "bob", logger.Nop())
	m.Apply(conv(models.MatchWaiting, "alice", time.Now()))

	got, err := m.Confirm(context.Background(), PostStatus{})
	require.NoError(t, err)
	require.Equal(t, models.MatchConfirm, got.IsMatch)
}

func TestCancelClearsWaitingBy(t *testing.T) {
	updated := conv(models.MatchNone, "", time.Now().Add(time.Second))
	backend := &fakeConversationAPI{updated: &updated}
	m := NewMachine(backend, "alice", logger.Nop())
	m.Apply(conv(models.MatchWaiting, "alice", time.Now()))

	got, err := m.Cancel(context.Background())
	require.NoError(t, err)
	require.Equal(t, models.MatchNone, got.IsMatch)
	require.Nil(t, backend.lastPatch.WaitingBy, "cancel sends an explicit null waitingBy")
}

func TestCancelFromConfirmRejected(t *testing.T) {
	m := NewMachine(&fakeConversationAPI{}, "alice", logger.Nop())
	m.Apply(conv(models.MatchConfirm, "", time.Now()))

	_, err := m.Cancel(context.Background())
	require.ErrorIs(t, err, apperrors.ErrBadTransition)
}

func TestRejectedTransitionRecoversAuthoritativeRecord(t *testing.T) {
	// the server rejects because the post was matched elsewhere in the
	// interim; the machine must re-fetch rather than assume success
	fresh := conv(models.MatchConfirm, "", time.Now().Add(time.Minute))
	backend := &fakeConversationAPI{updateErr: apperrors.ErrPostClosed, fetched: &fresh}
	m := NewMachine(backend, "bob", logger.Nop())
	m.Apply(conv(models.MatchWaiting, "alice", time.Now()))

	_, err := m.Confirm(context.Background(), PostStatus{})
	require.Error(t, err)
	require.True(t, errors.Is(err, apperrors.ErrPostClosed))
	require.Equal(t, 1, backend.fetchCalls)

	held, _ := m.Current()
	require.Equal(t, models.MatchConfirm, held.IsMatch, "UI must rebuild from the authoritative record")
}
