package auth

import (
	"context"
	"errors"
)

var (
	// ErrInvalidToken is returned when a credential cannot be parsed or fails verification.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when a credential was valid but has expired.
	ErrExpiredToken = errors.New("token has expired")
	// ErrVerifierUnavailable is returned when verification material could not be obtained.
	ErrVerifierUnavailable = errors.New("token verifier unavailable")
)

// Verifier resolves an opaque credential into an Identity. Its result is
// authoritative; callers never re-check identity claims.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// ChainVerifier accepts a credential if any of its verifiers does.
type ChainVerifier []Verifier

// Verify tries each verifier in order. When all of them reject the token the
// most informative failure is reported: expired, then unavailable, then invalid.
func (c ChainVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	var expired, unavailable error
	for _, v := range c {
		id, err := v.Verify(ctx, token)
		if err == nil {
			return id, nil
		}
		switch {
		case errors.Is(err, ErrExpiredToken):
			expired = err
		case errors.Is(err, ErrVerifierUnavailable):
			unavailable = err
		}
	}

	if expired != nil {
		return nil, expired
	}
	if unavailable != nil {
		return nil, unavailable
	}
	return nil, ErrInvalidToken
}
