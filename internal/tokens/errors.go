package tokens

import "errors"

var (
	ErrMalformed     = errors.New("tokens: malformed credential")
	ErrMissingExpiry = errors.New("tokens: credential has no exp claim")
	ErrInvalidToken  = errors.New("tokens: invalid credential")
	ErrExpired       = errors.New("tokens: credential expired")
	ErrNoSecret      = errors.New("tokens: signing secret is empty")
)
