package service

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/Rrens/collab-gateway/internal/domain"
	"github.com/google/uuid"
)

// ChatService handles workspace chat
type ChatService struct {
	messageRepo domain.MessageRepository
	limiter     *ChatRateLimiter
	pageDefault int
	pageMax     int
	now         func() time.Time
}

// NewChatService creates a new chat service
func NewChatService(messageRepo domain.MessageRepository, limiter *ChatRateLimiter, pageDefault, pageMax int) *ChatService {
	if pageDefault <= 0 {
		pageDefault = domain.DefaultMessagePage
	}
	if pageMax <= 0 {
		pageMax = domain.DefaultMessagePageMax
	}
	return &ChatService{
		messageRepo: messageRepo,
		limiter:     limiter,
		pageDefault: pageDefault,
		pageMax:     pageMax,
		now:         time.Now,
	}
}

// Send rate limits and persists a chat message
func (s *ChatService) Send(ctx context.Context, workspaceID, userID, content string) (*domain.Message, error) {
	n := utf8.RuneCountInString(content)
	if n == 0 || n > domain.MaxChatContent {
		return nil, domain.ErrValidation
	}

	// Postgres keeps microseconds; the broadcast timestamp must match the stored cursor value
	now := s.now().UTC().Truncate(time.Microsecond)
	if s.limiter != nil && !s.limiter.TryAdmit(ctx, userID, now) {
		return nil, domain.ErrRateLimited
	}

	message := &domain.Message{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		UserID:      userID,
		Content:     content,
		CreatedAt:   now,
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	return message, nil
}

// History returns one page of messages older than cursor in ascending order
func (s *ChatService) History(ctx context.Context, workspaceID string, limit int, cursor *time.Time) (*domain.MessagePage, error) {
	if limit <= 0 {
		limit = s.pageDefault
	}
	if limit > s.pageMax {
		limit = s.pageMax
	}

	rows, err := s.messageRepo.ListBefore(ctx, workspaceID, cursor, limit+1)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	page := &domain.MessagePage{}
	if len(rows) > limit {
		rows = rows[:limit]
		oldest := rows[len(rows)-1].CreatedAt
		page.NextCursor = &oldest
	}

	data := make([]domain.Message, len(rows))
	for i, m := range rows {
		data[len(rows)-1-i] = m
	}
	page.Data = data

	return page, nil
}
