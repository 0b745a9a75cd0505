package signal

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/dkeye/roomchat/internal/attachment"
	"github.com/dkeye/roomchat/internal/core"
	"github.com/dkeye/roomchat/internal/domain"
	"github.com/go-playground/validator/v10"
)

type roomPayload struct {
	Room string `json:"room" validate:"required,max=16"`
}

// leave_room may omit the room to mean the current one.
type leavePayload struct {
	Room string `json:"room" validate:"omitempty,max=16"`
}

type messagePayload struct {
	Room    string `json:"room" validate:"required,max=16"`
	Content string `json:"content" validate:"required,max=4000"`
}

type filePayload struct {
	Room string          `json:"room" validate:"required,max=16"`
	File attachment.Meta `json:"file"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode unmarshals and validates an event payload. Every failure is a
// *core.ValidationError naming the offending field.
func (ctl *SignalWSController) decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return core.NewValidationError("", "malformed payload")
	}
	if err := ctl.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return core.NewValidationError(fieldPath(fe.Namespace()), "failed "+fe.Tag())
		}
		return core.NewValidationError("", err.Error())
	}
	return nil
}

// fieldPath drops the struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func parseRoom(raw string) (domain.RoomCode, error) {
	code, err := domain.ParseRoomCode(raw)
	if err != nil {
		return "", core.NewValidationError("room", err.Error())
	}
	return code, nil
}

// ErrorEvent is the explicit error channel back to one connection.
type ErrorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func errorEvent(err error) ErrorEvent {
	ev := ErrorEvent{Type: core.EventError}
	var verr *core.ValidationError
	var perr *core.PersistenceError
	switch {
	case errors.As(err, &verr):
		ev.Error = "invalid_payload"
		ev.Field = verr.Field
	case errors.Is(err, core.ErrNotJoined):
		ev.Error = "not_joined"
	case errors.Is(err, core.ErrRateLimited):
		ev.Error = "rate_limited"
	case errors.Is(err, core.ErrRoomNotFound):
		ev.Error = "room_not_found"
	case errors.Is(err, core.ErrNoSession):
		ev.Error = "no_session"
	case errors.As(err, &perr):
		ev.Error = "unavailable"
	default:
		ev.Error = "internal"
	}
	return ev
}

func (ctl *SignalWSController) sendError(c *WsSignalConn, err error) {
	ctl.sendJSON(c, errorEvent(err))
}
