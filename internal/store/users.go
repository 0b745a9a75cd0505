package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/roomchat/internal/core"
	"github.com/dkeye/roomchat/internal/domain"
	"gorm.io/gorm"
)

// CreateUser inserts a user record. Registration proper lives outside this
// service; this is used for seeding.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	row := userModel{
		ID:       string(user.ID),
		Username: user.Username,
		Avatar:   user.Avatar,
		Online:   user.Online,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *Store) FindUser(ctx context.Context, id domain.UserID) (*domain.User, error) {
	var row userModel
	if err := s.db.WithContext(ctx).First(&row, "id = ?", string(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, core.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return row.toDomain(), nil
}

// FindUsers loads the given users keyed by id; unknown ids are omitted.
func (s *Store) FindUsers(ctx context.Context, ids []domain.UserID) (map[domain.UserID]*domain.User, error) {
	out := make(map[domain.UserID]*domain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, string(id))
	}
	var rows []userModel
	if err := s.db.WithContext(ctx).Where("id IN ?", raw).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	for i := range rows {
		u := rows[i].toDomain()
		out[u.ID] = u
	}
	return out, nil
}

func (s *Store) SetOnline(ctx context.Context, id domain.UserID, online bool) error {
	result := s.db.WithContext(ctx).Model(&userModel{}).Where("id = ?", string(id)).Update("online", online)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.RowsAffected == 0 {
		return core.ErrUserNotFound
	}
	return nil
}
