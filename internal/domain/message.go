package domain

import (
	"context"
	"time"
)

// MessageAuthor is the public projection of a message sender
type MessageAuthor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Message represents a chat message in a workspace
type Message struct {
	ID          string         `json:"id"`
	WorkspaceID string         `json:"workspaceId"`
	UserID      string         `json:"userId"`
	Content     string         `json:"content"`
	CreatedAt   time.Time      `json:"createdAt"`
	User        *MessageAuthor `json:"user,omitempty"`
}

// MessagePage is one page of chat history in ascending order.
// NextCursor is the creation time of the oldest message in the page when older
// messages remain.
type MessagePage struct {
	Data       []Message  `json:"data"`
	NextCursor *time.Time `json:"nextCursor"`
}

// MessageRepository defines the interface for message storage
type MessageRepository interface {
	Create(ctx context.Context, message *Message) error
	// ListBefore returns up to limit messages of a workspace created strictly before
	// the cursor (or the newest when cursor is nil), newest first.
	ListBefore(ctx context.Context, workspaceID string, cursor *time.Time, limit int) ([]Message, error)
}
