package apperrors

import "errors"

var (
	ErrBadRequest         = errors.New("bad request")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrInternal           = errors.New("internal error")
	ErrRateLimited        = errors.New("rate limited")
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrPostClosed means the hosting post already carries a match from
	// another conversation, or is inactive for a non-owner. No transition
	// request may be issued while it holds.
	ErrPostClosed = errors.New("post closed for matching")

	// ErrBadTransition means the requested negotiation step is not legal
	// from the locally known state for the current user.
	ErrBadTransition = errors.New("illegal match transition")
)
