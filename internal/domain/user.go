package domain

import "context"

// Profile represents the public profile of a platform user
type Profile struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	ImageURL *string `json:"imageUrl"`
}

// ProfileRepository defines the interface for profile lookups
type ProfileRepository interface {
	ListByIDs(ctx context.Context, ids []string) ([]Profile, error)
}
