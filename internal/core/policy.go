package core

// MainRoom is the public room every authenticated user may join.
const MainRoom = "main"

// CanJoin decides whether user may enter room. The main room and the user's
// own self-room are always allowed; any other room must exist in reg and
// list user as a member.
func CanJoin(room, user string, reg *Registry) bool {
	if room == MainRoom || room == user {
		return true
	}
	if reg == nil {
		return false
	}
	return reg.IsMember(room, user)
}
