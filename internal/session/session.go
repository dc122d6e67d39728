// Package session holds the two independently-lifecycled stores of
// client-global state: the authenticated identity and the onboarding
// flag. Both are mutated only through their explicit entry points.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/timkeo/timkeo-client/internal/apperrors"
	"github.com/timkeo/timkeo-client/internal/localstore"
	"github.com/timkeo/timkeo-client/internal/models"
)

// ProfileFetcher is the slice of the REST client the session needs.
type ProfileFetcher interface {
	Profile(ctx context.Context) (*models.User, error)
}

type Store struct {
	local *localstore.Store
	log   *zap.SugaredLogger

	mu   sync.RWMutex
	user *models.User
}

func NewStore(local *localstore.Store, log *zap.SugaredLogger) *Store {
	return &Store{local: local, log: log}
}

// Token implements api.TokenSource. An expired token reads as absent so
// requests fall back to the anonymous state instead of bouncing off 401s.
func (s *Store) Token() string {
	tok := s.local.Get(localstore.KeyAccessToken)
	if tok == "" {
		return ""
	}
	if expired(tok) {
		return ""
	}
	return tok
}

// expired decodes the JWT exp claim without verifying the signature; the
// backend is the verifier, the client only wants to know whether sending
// the token is pointless.
func expired(tok string) bool {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tok, claims); err != nil {
		// not a JWT: let the server judge it
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}

// SetToken persists a freshly issued token (login callback).
func (s *Store) SetToken(tok string) error {
	return s.local.Set(localstore.KeyAccessToken, tok)
}

// User returns the current identity, nil when anonymous.
func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Refresh exchanges the stored token for a profile record. No token
// means anonymous, not an error. An unauthorized response clears the
// stored token so the client returns to the anonymous state.
func (s *Store) Refresh(ctx context.Context, fetcher ProfileFetcher) error {
	if s.Token() == "" {
		s.setUser(nil)
		return nil
	}
	u, err := fetcher.Profile(ctx)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnauthorized) {
			s.log.Infow("stored token rejected, clearing session")
			_ = s.local.Delete(localstore.KeyAccessToken)
			s.setUser(nil)
			return nil
		}
		return err
	}
	s.setUser(u)
	return nil
}

// Update replaces the cached identity after a profile mutation.
func (s *Store) Update(u *models.User) {
	s.setUser(u)
}

// Logout clears both the durable token and the in-memory identity.
func (s *Store) Logout() {
	_ = s.local.Delete(localstore.KeyAccessToken)
	s.setUser(nil)
}

func (s *Store) setUser(u *models.User) {
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
}
