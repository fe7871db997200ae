package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeSendMessage        = "send_message"
	InboundTypeCreateRoom         = "create_room"
	InboundTypeGetEligibleUsers   = "get_eligible_users"
	InboundTypeAddUserToRoom      = "add_user_to_room"
	InboundTypeRemoveUserFromRoom = "remove_user_from_room"
	InboundTypeSearchRooms        = "search_rooms"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// SendMessageData carries an encoded chat message. User is informational;
// the server always attributes the message to the authenticated identity.
type SendMessageData struct {
	Room string `json:"room"`
	User string `json:"user"`
	Text string `json:"text"`
}

// RoomData names a room.
type RoomData struct {
	Room string `json:"room"`
}

// MembershipData names a user and a room.
type MembershipData struct {
	Room string `json:"room"`
	User string `json:"user"`
}

// UserData names a user.
type UserData struct {
	User string `json:"user"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventMessage is a chat message, live or from history. Text is encoded.
type EventMessage struct {
	Room string `json:"room"`
	User string `json:"user"`
	Text string `json:"text"`
}

// EventRoom carries the name of a room, e.g. RoomCreated.
type EventRoom struct {
	Room string `json:"room"`
}

// EventMembership notifies about a membership change in a room.
type EventMembership struct {
	Room string `json:"room"`
	User string `json:"user"`
}

// EventRooms lists room names available to a user.
type EventRooms struct {
	User  string   `json:"user"`
	Rooms []string `json:"rooms"`
}

// EventUsers lists the eligible users of a room.
type EventUsers struct {
	Room  string   `json:"room"`
	Users []string `json:"users"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
