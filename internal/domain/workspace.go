package domain

import "context"

// MembershipRepository answers membership lookups against storage.
type MembershipRepository interface {
	IsMember(ctx context.Context, workspaceID, userID string) (bool, error)
}
