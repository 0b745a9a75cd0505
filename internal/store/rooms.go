package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/roomchat/internal/core"
	"github.com/dkeye/roomchat/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FindRoom loads a room with its member-of-record list in join order.
func (s *Store) FindRoom(ctx context.Context, code domain.RoomCode) (*domain.Room, error) {
	var room roomModel
	if err := s.db.WithContext(ctx).First(&room, "code = ?", string(code)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, core.ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}

	var members []roomMemberModel
	if err := s.db.WithContext(ctx).
		Where("room_code = ?", room.Code).
		Order("joined_at asc").
		Find(&members).Error; err != nil {
		return nil, fmt.Errorf("failed to find room members: %w", err)
	}

	out := &domain.Room{
		Code:      domain.RoomCode(room.Code),
		CreatedBy: domain.UserID(room.CreatedBy),
		Members:   make([]domain.UserID, 0, len(members)),
		CreatedAt: room.CreatedAt,
	}
	for _, m := range members {
		out.Members = append(out.Members, domain.UserID(m.UserID))
	}
	return out, nil
}

// CreateRoom inserts the room and its initial members in one transaction.
func (s *Store) CreateRoom(ctx context.Context, room *domain.Room) error {
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&roomModel{}).Where("code = ?", string(room.Code)).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check room code: %w", err)
		}
		if count > 0 {
			return core.ErrRoomCodeTaken
		}
		if err := tx.Create(&roomModel{
			Code:      string(room.Code),
			CreatedBy: string(room.CreatedBy),
			CreatedAt: room.CreatedAt,
		}).Error; err != nil {
			return fmt.Errorf("failed to create room: %w", err)
		}
		for _, uid := range room.Members {
			if err := addMember(tx, room.Code, uid, room.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

// AddRoomMember appends uid to the member-of-record list. Joining twice
// leaves a single row.
func (s *Store) AddRoomMember(ctx context.Context, code domain.RoomCode, uid domain.UserID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&roomModel{}).Where("code = ?", string(code)).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to find room: %w", err)
		}
		if count == 0 {
			return core.ErrRoomNotFound
		}
		return addMember(tx, code, uid, time.Now().UTC())
	})
}

func addMember(tx *gorm.DB, code domain.RoomCode, uid domain.UserID, at time.Time) error {
	row := roomMemberModel{RoomCode: string(code), UserID: string(uid), JoinedAt: at}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to add room member: %w", err)
	}
	return nil
}

// DeleteRoom removes the room record and its member-of-record rows.
// Deleting a missing room is not an error.
func (s *Store) DeleteRoom(ctx context.Context, code domain.RoomCode) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_code = ?", string(code)).Delete(&roomMemberModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete room members: %w", err)
		}
		if err := tx.Where("code = ?", string(code)).Delete(&roomModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete room: %w", err)
		}
		return nil
	})
}
