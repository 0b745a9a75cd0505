package store

import (
	"time"

	"github.com/dkeye/roomchat/internal/domain"
)

type userModel struct {
	ID        string `gorm:"primarykey;size:36"`
	Username  string `gorm:"size:64;not null;uniqueIndex"`
	Avatar    string `gorm:"size:512"`
	Online    bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (userModel) TableName() string { return "users" }

func (m *userModel) toDomain() *domain.User {
	return &domain.User{
		ID:       domain.UserID(m.ID),
		Username: m.Username,
		Avatar:   m.Avatar,
		Online:   m.Online,
	}
}

type roomModel struct {
	Code      string `gorm:"primarykey;size:16"`
	CreatedBy string `gorm:"size:36;not null"`
	CreatedAt time.Time
}

func (roomModel) TableName() string { return "rooms" }

// roomMemberModel is one row of the member-of-record list.
type roomMemberModel struct {
	RoomCode string    `gorm:"primarykey;size:16"`
	UserID   string    `gorm:"primarykey;size:36"`
	JoinedAt time.Time `gorm:"not null"`
}

func (roomMemberModel) TableName() string { return "room_members" }

// messageModel orders a room's history by the autoincrement Seq, never by
// CreatedAt, so wall-clock steps cannot reorder it.
type messageModel struct {
	Seq         uint64    `gorm:"primarykey;autoIncrement"`
	ID          string    `gorm:"size:36;not null;uniqueIndex"`
	RoomCode    string    `gorm:"size:16;not null;index"`
	SenderID    string    `gorm:"size:36;not null"`
	Content     string    `gorm:"type:text"`
	FileURL     string    `gorm:"size:1024"`
	FileName    string    `gorm:"size:255"`
	FileType    string    `gorm:"size:16"`
	MessageType string    `gorm:"size:8;not null;default:text"`
	CreatedAt   time.Time `gorm:"index"`
}

func (messageModel) TableName() string { return "messages" }

func newMessageModel(msg *domain.Message) *messageModel {
	return &messageModel{
		ID:          msg.ID,
		RoomCode:    string(msg.RoomCode),
		SenderID:    string(msg.Sender),
		Content:     msg.Content,
		FileURL:     msg.Attachment.URL,
		FileName:    msg.Attachment.Name,
		FileType:    string(msg.Attachment.Kind),
		MessageType: string(msg.Type),
		CreatedAt:   msg.CreatedAt,
	}
}

func (m *messageModel) toDomain() domain.Message {
	return domain.Message{
		ID:       m.ID,
		RoomCode: domain.RoomCode(m.RoomCode),
		Sender:   domain.UserID(m.SenderID),
		Content:  m.Content,
		Attachment: domain.Attachment{
			URL:  m.FileURL,
			Name: m.FileName,
			Kind: domain.FileType(m.FileType),
		},
		Type:      domain.MessageType(m.MessageType),
		CreatedAt: m.CreatedAt,
	}
}
