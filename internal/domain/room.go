package domain

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"
)

// RoomCodeLength is the length of generated room codes.
const RoomCodeLength = 6

// MaxRoomCodeLen bounds codes accepted from clients.
const MaxRoomCodeLen = 16

const roomCodeChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

var (
	ErrRoomCodeEmpty   = errors.New("room code empty")
	ErrRoomCodeInvalid = errors.New("room code invalid")
)

// RoomCode is the short human-typeable key of a room.
type RoomCode string

// Room is the durable record of a joinable channel.
// Members is the member-of-record list: everyone who has ever joined,
// not who is connected right now.
type Room struct {
	Code      RoomCode  `json:"roomCode"`
	CreatedBy UserID    `json:"createdBy"`
	Members   []UserID  `json:"members"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasMember reports whether uid is in the member-of-record list.
func (r *Room) HasMember(uid UserID) bool {
	for _, m := range r.Members {
		if m == uid {
			return true
		}
	}
	return false
}

// GenerateRoomCode returns a random uppercase base-36 code of RoomCodeLength.
func GenerateRoomCode() (RoomCode, error) {
	code := make([]byte, RoomCodeLength)
	max := big.NewInt(int64(len(roomCodeChars)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = roomCodeChars[n.Int64()]
	}
	return RoomCode(code), nil
}

// ParseRoomCode normalizes client input (trim, upper-case) and validates it.
func ParseRoomCode(raw string) (RoomCode, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" {
		return "", ErrRoomCodeEmpty
	}
	if len(code) > MaxRoomCodeLen {
		return "", ErrRoomCodeInvalid
	}
	for _, c := range code {
		if !strings.ContainsRune(roomCodeChars, c) {
			return "", ErrRoomCodeInvalid
		}
	}
	return RoomCode(code), nil
}
