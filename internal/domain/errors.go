package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrRateLimited    = errors.New("rate limited")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrUnknownSite    = errors.New("unknown site")
	ErrNotImplemented = errors.New("not implemented for this platform family")
	ErrRoundTerminal  = errors.New("round is terminal")
	ErrNotRecoverable = errors.New("error kind is not recoverable")
	ErrLockHeld       = errors.New("lock already held")
	ErrContextDone    = errors.New("context cancelled")
)
