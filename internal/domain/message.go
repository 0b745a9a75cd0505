package domain

import (
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageFile  MessageType = "file"
)

type FileType string

const (
	FileNone     FileType = ""
	FileImage    FileType = "image"
	FilePDF      FileType = "pdf"
	FileDoc      FileType = "doc"
	FileDocument FileType = "document"
)

// Attachment references an already uploaded object. Zero value means none.
type Attachment struct {
	URL  string
	Name string
	Kind FileType
}

func (a Attachment) IsZero() bool { return a.URL == "" }

// Message is one persisted chat event. Immutable once created.
type Message struct {
	ID         string
	RoomCode   RoomCode
	Sender     UserID
	Content    string
	Attachment Attachment
	Type       MessageType
	CreatedAt  time.Time
}

func NewTextMessage(code RoomCode, sender UserID, content string, now time.Time) *Message {
	return &Message{
		ID:        uuid.NewString(),
		RoomCode:  code,
		Sender:    sender,
		Content:   content,
		Type:      MessageText,
		CreatedAt: now,
	}
}

// NewFileMessage builds an attachment message; content stays empty.
func NewFileMessage(code RoomCode, sender UserID, att Attachment, kind MessageType, now time.Time) *Message {
	return &Message{
		ID:         uuid.NewString(),
		RoomCode:   code,
		Sender:     sender,
		Attachment: att,
		Type:       kind,
		CreatedAt:  now,
	}
}
