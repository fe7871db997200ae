package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeUnauthorized      = "unauthorized"
	ErrCodeForbidden         = "forbidden"
	ErrCodeRoomNotFound      = "room_not_found"
	ErrCodeRoomExists        = "room_exists"
	ErrCodeUserNotFound      = "user_not_found"
	ErrCodeNotInRoom         = "not_in_room"
	ErrCodeCodec             = "codec_error"
	ErrCodePersistenceFailed = "persistence_failed"
	ErrCodeBadRequest        = "bad_request"
	ErrCodeRateLimited       = "rate_limited"
	ErrCodeInternal          = "internal"
)

// Client-facing messages.
const (
	MsgJoinDenied   = "You are not allowed to join this room."
	MsgRoomExists   = "Room already exists."
	MsgRoomNotFound = "Room does not exist."
	MsgUserNotFound = "User does not exist."
	MsgNotInRoom    = "User not in the room."
	MsgUnauthorized = "You are not authorized to send messages."
	MsgPostDenied   = "You are not allowed to post in this room."
	MsgCodec        = "Could not decode your message."
	MsgPersistence  = "Could not persist your message."
	MsgInternal     = "Internal error."
)

var (
	// ErrRoomExists is returned by Registry.Create for a taken name.
	ErrRoomExists = errors.New("room already exists")
	// ErrRoomNotFound is returned when a room has no registry entry.
	ErrRoomNotFound = errors.New("room not found")
	// ErrNotPresent is returned by Registry.RemoveMember when there is nothing to remove.
	ErrNotPresent = errors.New("user not present in room")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
	Err     error
}

func (e *CoreError) Error() string {
	return e.Message
}

func (e *CoreError) Unwrap() error {
	return e.Err
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

func wrapCoreError(code, msg string, err error) *CoreError {
	return &CoreError{Code: code, Message: msg, Err: err}
}

// ErrUnauthorized is returned for sessions without an authenticated identity.
var ErrUnauthorized = coreError(ErrCodeUnauthorized, MsgUnauthorized)

// CodeOf returns the CoreError code carried by err, or ErrCodeInternal.
func CodeOf(err error) string {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ErrCodeInternal
}
