package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventReceiveMessage delivers a chat message (history or live).
	EventReceiveMessage EventKind = iota
	// EventError notifies the caller about a soft domain error.
	EventError
	// EventRoomCreated confirms CreateRoom to the caller.
	EventRoomCreated
	// EventUserAdded notifies a room group about a new eligible member.
	EventUserAdded
	// EventUserRemoved notifies a room group about a removed member.
	EventUserRemoved
	// EventRemovedFromRoom tells every connection that a user lost access to a room.
	EventRemovedFromRoom
	// EventRoomsAvailable answers SearchRooms.
	EventRoomsAvailable
	// EventEligibleUsers answers GetEligibleUsers.
	EventEligibleUsers
)

var eventNames = [...]string{
	EventReceiveMessage:  "ReceiveMessage",
	EventError:           "Error",
	EventRoomCreated:     "RoomCreated",
	EventUserAdded:       "UserAdded",
	EventUserRemoved:     "UserRemoved",
	EventRemovedFromRoom: "RemovedFromRoom",
	EventRoomsAvailable:  "RoomsAvailable",
	EventEligibleUsers:   "EligibleUsers",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return "Unknown"
}

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind  EventKind
	Room  string
	User  string
	Text  string   // encoded body for EventReceiveMessage
	Names []string // rooms or users for list replies
	Error *CoreError
}

func errorEvent(err *CoreError) *Event {
	return &Event{Kind: EventError, Error: err}
}
