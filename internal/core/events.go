package core

import (
	"fmt"
	"time"

	"github.com/dkeye/roomchat/internal/domain"
)

// Outbound event types.
const (
	EventUserJoined     = "user_joined"
	EventUserLeft       = "user_left"
	EventReceiveMessage = "receive_message"
	EventUserTyping     = "user_typing"
	EventUserStopTyping = "user_stop_typing"
	EventRoomDeleted    = "room_deleted"
	EventRoomState      = "room_state"
	EventLeft           = "left"
	EventError          = "error"
)

// RoomDeletedMessage is the text carried by room_deleted.
const RoomDeletedMessage = "Room was deleted due to inactivity"

// MessageRecord is a persisted message with its sender populated.
type MessageRecord struct {
	ID          string             `json:"_id"`
	RoomCode    domain.RoomCode    `json:"roomCode"`
	Sender      MemberDTO          `json:"sender"`
	Content     string             `json:"content"`
	FileURL     string             `json:"fileUrl"`
	FileName    string             `json:"fileName"`
	FileType    domain.FileType    `json:"fileType"`
	MessageType domain.MessageType `json:"messageType"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// NewMessageRecord populates msg with its sender. A nil sender (deleted
// user) keeps only the id.
func NewMessageRecord(msg *domain.Message, sender *domain.User) MessageRecord {
	rec := MessageRecord{
		ID:          msg.ID,
		RoomCode:    msg.RoomCode,
		Sender:      MemberDTO{ID: msg.Sender},
		Content:     msg.Content,
		FileURL:     msg.Attachment.URL,
		FileName:    msg.Attachment.Name,
		FileType:    msg.Attachment.Kind,
		MessageType: msg.Type,
		CreatedAt:   msg.CreatedAt,
	}
	if sender != nil {
		rec.Sender.Username = sender.Username
		rec.Sender.Avatar = sender.Avatar
	}
	return rec
}

type PresenceEvent struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

func UserJoined(username string) PresenceEvent {
	return PresenceEvent{Type: EventUserJoined, Username: username, Message: fmt.Sprintf("%s joined the room", username)}
}

func UserLeft(username string) PresenceEvent {
	return PresenceEvent{Type: EventUserLeft, Username: username, Message: fmt.Sprintf("%s left the room", username)}
}

type ReceiveMessageEvent struct {
	Type    string        `json:"type"`
	Message MessageRecord `json:"message"`
}

func ReceiveMessage(rec MessageRecord) ReceiveMessageEvent {
	return ReceiveMessageEvent{Type: EventReceiveMessage, Message: rec}
}

type TypingEvent struct {
	Type     string `json:"type"`
	Username string `json:"username,omitempty"`
}

type RoomDeletedEvent struct {
	Type     string          `json:"type"`
	RoomCode domain.RoomCode `json:"roomCode"`
	Message  string          `json:"message"`
}

func RoomDeleted(code domain.RoomCode) RoomDeletedEvent {
	return RoomDeletedEvent{Type: EventRoomDeleted, RoomCode: code, Message: RoomDeletedMessage}
}

// RoomState is sent to a session right after it joins.
type RoomState struct {
	Type     string          `json:"type"`
	RoomCode domain.RoomCode `json:"roomCode"`
	Members  []MemberDTO     `json:"members"`
	Count    int             `json:"count"`
}
