package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/timkeo/timkeo-client/internal/apperrors"
	"github.com/timkeo/timkeo-client/internal/logger"
)

type staticTokens string

func (s staticTokens) Token() string { return string(s) }

func testClient(t *testing.T, baseURL, token string) *Client {
	t.Helper()
	return NewClient(ClientConfig{
		BaseURL:            baseURL,
		Timeout:            2 * time.Second,
		RetryMaxElapsed:    2 * time.Second,
		BreakerOpen:        time.Minute,
		BreakerMaxFailures: 100,
	}, staticTokens(token), logger.Nop())
}

func TestBearerAttachedWhenSignedIn(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"_id":"p1"}`))
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL, "tok-123").GetPost(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, "Bearer tok-123", gotAuth)
}

func TestNoBearerWhenAnonymous(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	testClient(t, srv.URL, "").ListPosts(context.Background())
	require.Empty(t, gotAuth)
}

func TestMutationsCarryStableIdempotencyKey(t *testing.T) {
	var keys []string
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys = append(keys, r.Header.Get("X-Idempotency-Key"))
		// fail once so the retry re-sends
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"_id":"c1"}`))
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL, "tok").CreateConversation(context.Background(), NewConversation{PostID: "p1"})
	require.NoError(t, err)
	require.Len(t, keys, 2)
	require.NotEmpty(t, keys[0])
	require.Equal(t, keys[0], keys[1], "the retry must reuse the same key")
}

func TestGetCarriesNoIdempotencyKey(t *testing.T) {
	var key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key = r.Header.Get("X-Idempotency-Key")
		w.Write([]byte(`{"_id":"p1"}`))
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL, "tok").GetPost(context.Background(), "p1")
	require.NoError(t, err)
	require.Empty(t, key)
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, apperrors.ErrUnauthorized},
		{http.StatusForbidden, apperrors.ErrUnauthorized},
		{http.StatusNotFound, apperrors.ErrNotFound},
		{http.StatusConflict, apperrors.ErrPostClosed},
		{http.StatusTooManyRequests, apperrors.ErrRateLimited},
		{http.StatusUnprocessableEntity, apperrors.ErrBadRequest},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
		}))
		_, err := testClient(t, srv.URL, "tok").GetPost(context.Background(), "p1")
		require.ErrorIs(t, err, tc.want, "status %d", tc.status)
		srv.Close()
	}
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL, "tok").GetPost(context.Background(), "missing")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestServerErrorsRetryUntilSuccess(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"_id":"p1"}`))
	}))
	defer srv.Close()

	p, err := testClient(t, srv.URL, "tok").GetPost(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, "p1", p.ID)
	require.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(3))
}

func TestListPostsDegradesToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	posts := testClient(t, srv.URL, "tok").ListPosts(context.Background())
	require.Empty(t, posts)
}

func TestOpenBreakerFailsFast(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{
		BaseURL:            srv.URL,
		Timeout:            2 * time.Second,
		RetryMaxElapsed:    50 * time.Millisecond,
		BreakerOpen:        time.Minute,
		BreakerMaxFailures: 2,
	}, staticTokens("tok"), logger.Nop())

	// burn through the failure budget
	for i := 0; i < 3; i++ {
		_, _ = c.GetPost(context.Background(), "p1")
	}
	before := atomic.LoadInt32(&calls)

	_, err := c.GetPost(context.Background(), "p1")
	require.ErrorIs(t, err, apperrors.ErrServiceUnavailable)
	require.Equal(t, before, atomic.LoadInt32(&calls), "an open breaker must not reach the network")
}

func TestCancelledContextAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(time.Second)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := testClient(t, srv.URL, "tok").GetPost(ctx, "p1")
	require.Error(t, err)
}

func TestCancelPatchEncodesExplicitNull(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		body = buf
		w.Write([]byte(`{"_id":"c1","isMatch":"no"}`))
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL, "tok").UpdateConversation(context.Background(), "c1", ConversationPatch{IsMatch: "no"})
	require.NoError(t, err)
	require.JSONEq(t, `{"isMatch":"no","waitingBy":null}`, string(body),
		"clearing the proposer must reach a partial-update backend as an explicit null")
}

func TestProposePatchEncodesProposer(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		body = buf
		w.Write([]byte(`{"_id":"c1","isMatch":"waiting","waitingBy":"alice"}`))
	}))
	defer srv.Close()

	proposer := "alice"
	_, err := testClient(t, srv.URL, "tok").UpdateConversation(context.Background(), "c1", ConversationPatch{IsMatch: "waiting", WaitingBy: &proposer})
	require.NoError(t, err)
	require.JSONEq(t, `{"isMatch":"waiting","waitingBy":"alice"}`, string(body))
}
