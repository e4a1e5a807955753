package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Rrens/collab-gateway/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityGate_Authenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		verifier := new(MockVerifier)
		verifier.On("Verify", ctx, "good").Return("u1", nil)

		userID, err := NewIdentityGate(verifier).Authenticate(ctx, " good ")
		require.NoError(t, err)
		assert.Equal(t, "u1", userID)
	})

	t.Run("every failure is unauthorized", func(t *testing.T) {
		verifier := new(MockVerifier)
		verifier.On("Verify", ctx, "expired").Return("", errors.New("token is expired"))
		verifier.On("Verify", ctx, "blank").Return("", nil)
		gate := NewIdentityGate(verifier)

		for _, token := range []string{"", "expired", "blank"} {
			_, err := gate.Authenticate(ctx, token)
			assert.Equal(t, domain.ErrUnauthorized, err, token)
		}
		verifier.AssertNotCalled(t, "Verify", ctx, "")
	})
}

func TestMembershipOracle(t *testing.T) {
	ctx := context.Background()

	repo := new(MockMembershipRepository)
	repo.On("IsMember", ctx, "ws-1", "u1").Return(true, nil).Once()
	repo.On("IsMember", ctx, "ws-1", "u1").Return(false, nil).Once()
	repo.On("IsMember", ctx, "ws-2", "u1").Return(false, errors.New("db down"))
	oracle := NewMembershipOracle(repo)

	assert.NoError(t, oracle.Authorize(ctx, "u1", "ws-1"))
	assert.ErrorIs(t, oracle.Authorize(ctx, "u1", "ws-1"), domain.ErrForbidden, "revocation applies to the next check")

	err := oracle.Authorize(ctx, "u1", "ws-2")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrForbidden)

	ok, err := oracle.IsMember(ctx, "", "ws-1")
	assert.NoError(t, err)
	assert.False(t, ok)
	repo.AssertExpectations(t)
}

func TestProfileService_List(t *testing.T) {
	ctx := context.Background()
	repo := new(MockProfileRepository)
	repo.On("ListByIDs", ctx, []string{"a", "b"}).Return([]domain.Profile{{ID: "a"}, {ID: "b"}}, nil)
	svc := NewProfileService(repo)

	profiles, err := svc.List(ctx, []string{"a", "b", "a", ""})
	require.NoError(t, err)
	assert.Len(t, profiles, 2)

	_, err = svc.List(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	many := make([]string, domain.MaxProfileIDs+1)
	for i := range many {
		many[i] = string(rune('A'+i%26)) + string(rune('a'+i/26))
	}
	_, err = svc.List(ctx, many)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
