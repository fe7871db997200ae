package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanJoinImplicitRooms(t *testing.T) {
	empty := NewRegistry()
	populated := NewRegistry()
	require.NoError(t, populated.Create("bob", "bob"))
	require.NoError(t, populated.Create("main", "bob"))

	for _, reg := range []*Registry{nil, empty, populated} {
		for _, user := range []string{"alice", "bob", "main"} {
			require.True(t, CanJoin(MainRoom, user, reg), "main must be open to %s", user)
			require.True(t, CanJoin(user, user, reg), "self-room must be open to %s", user)
		}
	}
}

func TestCanJoinPrivateRooms(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Create("bob", "bob"))
	require.NoError(t, reg.AddMember("bob", "carol"))

	tests := []struct {
		name string
		room string
		user string
		want bool
	}{
		{"member of private room", "bob", "carol", true},
		{"owner of private room", "bob", "bob", true},
		{"non member", "bob", "alice", false},
		{"unknown room", "secret", "alice", false},
		{"room names are case sensitive", "Bob", "carol", false},
		{"main is case sensitive", "Main", "alice", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, CanJoin(tt.room, tt.user, reg))
		})
	}

	require.NoError(t, reg.RemoveMember("bob", "carol"))
	require.False(t, CanJoin("bob", "carol", reg))
}
