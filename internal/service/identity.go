package service

import (
	"context"
	"strings"

	"github.com/Rrens/collab-gateway/internal/domain"
	"github.com/rs/zerolog/log"
)

// Verifier resolves a bearer credential to a user identity
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// IdentityGate converts credentials into user identities.
// Every failure collapses into domain.ErrUnauthorized.
type IdentityGate struct {
	verifier Verifier
}

// NewIdentityGate creates a new identity gate
func NewIdentityGate(verifier Verifier) *IdentityGate {
	return &IdentityGate{verifier: verifier}
}

// Authenticate returns the user id behind a credential
func (g *IdentityGate) Authenticate(ctx context.Context, credential string) (string, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return "", domain.ErrUnauthorized
	}

	userID, err := g.verifier.Verify(ctx, credential)
	if err != nil {
		log.Debug().Err(err).Msg("credential rejected")
		return "", domain.ErrUnauthorized
	}
	if userID == "" {
		return "", domain.ErrUnauthorized
	}

	return userID, nil
}
