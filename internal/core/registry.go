package core

import (
	"iter"
	"slices"
	"sync"

	"github.com/samber/lo"
)

// Registry maps private room names to their ordered list of eligible users.
// Only explicitly created rooms have entries; "main" and self-rooms are
// implicit. It is safe for concurrent use and lives only in memory.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string][]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string][]string)}
}

// Create registers room with initialMember as its only member.
func (r *Registry) Create(room, initialMember string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[room]; ok {
		return ErrRoomExists
	}
	r.rooms[room] = []string{initialMember}
	return nil
}

// EligibleUsers returns a copy of the member list of room.
func (r *Registry) EligibleUsers(room string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[room]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return slices.Clone(members), nil
}

// AddMember appends user to room's member list.
func (r *Registry) AddMember(room, user string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[room]
	if !ok {
		return ErrRoomNotFound
	}
	r.rooms[room] = append(members, user)
	return nil
}

// RemoveMember removes the first occurrence of user from room.
func (r *Registry) RemoveMember(room, user string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[room]
	if !ok {
		return ErrNotPresent
	}
	idx := lo.IndexOf(members, user)
	if idx < 0 {
		return ErrNotPresent
	}
	r.rooms[room] = slices.Delete(members, idx, idx+1)
	return nil
}

// IsMember reports whether user is listed in room.
func (r *Registry) IsMember(room, user string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Contains(r.rooms[room], user)
}

// Exists reports whether room has been created.
func (r *Registry) Exists(room string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.rooms[room]
	return ok
}

// RoomsContaining yields, in name order, the rooms listing user at the time
// of the call. Later mutations do not affect an iteration in progress.
func (r *Registry) RoomsContaining(user string) iter.Seq[string] {
	r.mu.RLock()
	names := lo.Filter(lo.Keys(r.rooms), func(room string, _ int) bool {
		return lo.Contains(r.rooms[room], user)
	})
	r.mu.RUnlock()

	slices.Sort(names)
	return slices.Values(names)
}

// Len returns the number of created rooms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
