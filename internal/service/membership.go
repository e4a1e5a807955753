package service

import (
	"context"
	"fmt"

	"github.com/Rrens/collab-gateway/internal/domain"
)

// MembershipOracle answers workspace membership questions. Results are never
// cached so revocation applies to the very next check.
type MembershipOracle struct {
	repo domain.MembershipRepository
}

// NewMembershipOracle creates a new membership oracle
func NewMembershipOracle(repo domain.MembershipRepository) *MembershipOracle {
	return &MembershipOracle{repo: repo}
}

// IsMember reports whether userID belongs to workspaceID
func (o *MembershipOracle) IsMember(ctx context.Context, userID, workspaceID string) (bool, error) {
	if userID == "" || workspaceID == "" {
		return false, nil
	}

	ok, err := o.repo.IsMember(ctx, workspaceID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return ok, nil
}

// Authorize returns domain.ErrForbidden when the user is not a member
func (o *MembershipOracle) Authorize(ctx context.Context, userID, workspaceID string) error {
	ok, err := o.IsMember(ctx, userID, workspaceID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrForbidden
	}
	return nil
}
