package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dkeye/roomchat/internal/domain"
)

// CreateMessage persists msg. A zero CreatedAt is stamped with now.
func (s *Store) CreateMessage(ctx context.Context, msg *domain.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(newMessageModel(msg)).Error; err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// DeleteMessagesForRoom removes the whole history of a room. Idempotent.
func (s *Store) DeleteMessagesForRoom(ctx context.Context, code domain.RoomCode) error {
	if err := s.db.WithContext(ctx).Where("room_code = ?", string(code)).Delete(&messageModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	return nil
}

// FindMessagesForRoom returns the history in insertion order.
func (s *Store) FindMessagesForRoom(ctx context.Context, code domain.RoomCode) ([]domain.Message, error) {
	var rows []messageModel
	if err := s.db.WithContext(ctx).
		Where("room_code = ?", string(code)).
		Order("seq asc").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find messages: %w", err)
	}
	out := make([]domain.Message, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}
