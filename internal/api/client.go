// Package api is the REST boundary to the TimKeo backend. It owns no
// state beyond connection plumbing: bearer injection, retry with
// exponential backoff, and a circuit breaker shared by all endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/timkeo/timkeo-client/internal/apperrors"
)

// TokenSource yields the current bearer token, or "" when the user is
// signed out. The client attaches it to every request that has one.
type TokenSource interface {
	Token() string
}

type ClientConfig struct {
	BaseURL            string
	Timeout            time.Duration
	RetryMaxElapsed    time.Duration
	BreakerOpen        time.Duration
	BreakerMaxFailures int
	MaxIdleConns       int
	IdleConnTimeout    time.Duration
}

type Client struct {
	http   *http.Client
	conf   ClientConfig
	tokens TokenSource
	log    *zap.SugaredLogger
}

func NewClient(conf ClientConfig, tokens TokenSource, log *zap.SugaredLogger) *Client {
	tr := &http.Transport{
		DialContext:     (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		MaxIdleConns:    conf.MaxIdleConns,
		IdleConnTimeout: conf.IdleConnTimeout,
	}

	maxFailures := conf.BreakerMaxFailures
	if maxFailures <= 0 {
		maxFailures = 5
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "timkeo-api",
		MaxRequests: 1,
		Timeout:     conf.BreakerOpen,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(maxFailures)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Infow("circuit breaker state", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		http: &http.Client{
			Transport: breakerRoundTripper{next: tr, cb: cb},
			Timeout:   conf.Timeout,
		},
		conf:   conf,
		tokens: tokens,
		log:    log,
	}
}

type breakerRoundTripper struct {
	next http.RoundTripper
	cb   *gobreaker.CircuitBreaker
}

func (rt breakerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	res, err := rt.cb.Execute(func() (interface{}, error) {
		resp, err := rt.next.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			// count server errors against the breaker but hand the
			// response back for status mapping
			return resp, fmt.Errorf("upstream status %d", resp.StatusCode)
		}
		return resp, nil
	})
	if res != nil {
		return res.(*http.Response), nil
	}
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return nil, apperrors.ErrServiceUnavailable
	}
	return nil, err
}

// do issues one request with retry. Mutations carry a per-call
// idempotency key so a retried POST/PATCH cannot double-apply
// server-side. A 2xx body is decoded into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = b
	}

	idemKey := ""
	if method != http.MethodGet {
		idemKey = uuid.NewString()
	}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, method, c.conf.BaseURL+path, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
		if idemKey != "" {
			req.Header.Set("X-Idempotency-Key", idemKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if errors.Is(err, apperrors.ErrServiceUnavailable) {
				return backoff.Permanent(apperrors.ErrServiceUnavailable)
			}
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("%w: status %d", apperrors.ErrInternal, resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			io.Copy(io.Discard, resp.Body)
			return backoff.Permanent(statusError(resp.StatusCode))
		}
		if out == nil {
			io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.conf.RetryMaxElapsed
	return backoff.Retry(operation, backoff.WithContext(b, ctx))
}

func statusError(code int) error {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperrors.ErrUnauthorized
	case http.StatusNotFound:
		return apperrors.ErrNotFound
	case http.StatusConflict:
		return apperrors.ErrPostClosed
	case http.StatusTooManyRequests:
		return apperrors.ErrRateLimited
	default:
		return fmt.Errorf("%w: status %d", apperrors.ErrBadRequest, code)
	}
}
