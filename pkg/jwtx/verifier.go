package jwtx

import (
	"errors"
	"time"
)

// Verifier validates a token and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// Signer turns claims into a signed token valid for ttl.
type Signer interface {
	Sign(claims Claims, ttl time.Duration) (string, error)
}

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")

	ErrEmptySecret = errors.New("jwtx: empty secret")
	ErrInvalidTTL  = errors.New("jwtx: ttl must be at least one second")
)
