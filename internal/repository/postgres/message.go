package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Rrens/collab-gateway/internal/domain"
	"github.com/jackc/pgx/v5"
)

// MessageRepository implements domain.MessageRepository
type MessageRepository struct {
	db *DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a new message and fills in the author profile
func (r *MessageRepository) Create(ctx context.Context, message *domain.Message) error {
	query := `
		WITH inserted AS (
			INSERT INTO messages (id, workspace_id, user_id, content, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING user_id
		)
		SELECT u.id, u.name, u.email
		FROM inserted i
		LEFT JOIN users u ON u.id = i.user_id
	`

	var authorID, name, email *string
	err := r.db.Pool.QueryRow(ctx, query,
		message.ID,
		message.WorkspaceID,
		message.UserID,
		message.Content,
		message.CreatedAt,
	).Scan(&authorID, &name, &email)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	message.User = author(authorID, name, email)
	return nil
}

// ListBefore retrieves messages older than cursor, newest first
func (r *MessageRepository) ListBefore(ctx context.Context, workspaceID string, cursor *time.Time, limit int) ([]domain.Message, error) {
	query := `
		SELECT m.id, m.workspace_id, m.user_id, m.content, m.created_at, u.id, u.name, u.email
		FROM messages m
		LEFT JOIN users u ON u.id = m.user_id
		WHERE m.workspace_id = $1
		  AND ($2::timestamptz IS NULL OR m.created_at < $2)
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $3
	`

	rows, err := r.db.Pool.Query(ctx, query, workspaceID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	messages, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Message, error) {
		var m domain.Message
		var authorID, name, email *string
		err := row.Scan(
			&m.ID,
			&m.WorkspaceID,
			&m.UserID,
			&m.Content,
			&m.CreatedAt,
			&authorID,
			&name,
			&email,
		)
		m.User = author(authorID, name, email)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan message: %w", err)
	}

	return messages, nil
}

func author(id, name, email *string) *domain.MessageAuthor {
	if id == nil {
		return nil
	}
	a := &domain.MessageAuthor{ID: *id}
	if name != nil {
		a.Name = *name
	}
	if email != nil {
		a.Email = *email
	}
	return a
}
