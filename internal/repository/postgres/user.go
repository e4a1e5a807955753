package postgres

import (
	"context"
	"fmt"

	"github.com/Rrens/collab-gateway/internal/domain"
)

// ProfileRepository handles user profile lookups
type ProfileRepository struct {
	db *DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// ListByIDs returns the profiles of the given users; unknown IDs are skipped
func (r *ProfileRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.Profile, error) {
	query := `
		SELECT id, COALESCE(name, ''), email, image_url
		FROM users
		WHERE id = ANY($1)
		ORDER BY id
	`

	rows, err := r.db.Pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	profiles := []domain.Profile{}
	for rows.Next() {
		var p domain.Profile
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.ImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	return profiles, nil
}
