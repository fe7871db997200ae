package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandSendMessage persists and broadcasts a chat message.
	CommandSendMessage CommandKind = iota
	// CommandCreateRoom creates the caller's private room.
	CommandCreateRoom
	// CommandGetEligibleUsers lists the members of a private room.
	CommandGetEligibleUsers
	// CommandAddUserToRoom adds a registered user to a private room.
	CommandAddUserToRoom
	// CommandRemoveUserFromRoom removes a user from a private room.
	CommandRemoveUserFromRoom
	// CommandSearchRooms lists private rooms a user belongs to.
	CommandSearchRooms
)

// Command represents an action requested by a client.
type Command struct {
	Kind CommandKind
	Room string
	User string
	Text string
}
