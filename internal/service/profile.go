package service

import (
	"context"
	"fmt"

	"github.com/Rrens/collab-gateway/internal/domain"
)

// ProfileService resolves public user profiles
type ProfileService struct {
	profileRepo domain.ProfileRepository
}

// NewProfileService creates a new profile service
func NewProfileService(profileRepo domain.ProfileRepository) *ProfileService {
	return &ProfileService{profileRepo: profileRepo}
}

// List returns the profiles of 1 to 100 distinct user ids
func (s *ProfileService) List(ctx context.Context, ids []string) ([]domain.Profile, error) {
	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	if len(unique) == 0 || len(unique) > domain.MaxProfileIDs {
		return nil, domain.ErrValidation
	}

	profiles, err := s.profileRepo.ListByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}
