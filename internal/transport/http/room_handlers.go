package http

import (
	"errors"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomhub/internal/core"
)

// RoomHandlers exposes read-only views of the hub's rooms.
type RoomHandlers struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(hub *core.Hub, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		hub: hub,
		log: logger,
	}
}

// RoomExistsResponse answers RoomExists.
type RoomExistsResponse struct {
	Room   string `json:"room"`
	Exists bool   `json:"exists"`
}

// RoomListResponse lists room names.
type RoomListResponse struct {
	Rooms []string `json:"rooms"`
}

// MemberListResponse lists the eligible users of a room.
type MemberListResponse struct {
	Room  string   `json:"room"`
	Users []string `json:"users"`
}

// RoomExists reports whether a private room has been created.
// GET /api/rooms/exists/:name
func (h *RoomHandlers) RoomExists(c *gin.Context) {
	name := c.Param("name")
	c.JSON(http.StatusOK, RoomExistsResponse{Room: name, Exists: h.hub.DoesRoomExist(name)})
}

// ListRooms lists the private rooms the authenticated user may join.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	username := c.GetString(ContextKeyUsername)
	if username == "" {
		h.log.Error().Msg("username not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	rooms := slices.Collect(h.hub.Registry().RoomsContaining(username))
	if rooms == nil {
		rooms = []string{}
	}

	h.log.Debug().Str("user", username).Int("room_count", len(rooms)).Msg("rooms listed")
	c.JSON(http.StatusOK, RoomListResponse{Rooms: rooms})
}

// ListMembers lists the eligible users of a room.
// GET /api/rooms/members/:name
func (h *RoomHandlers) ListMembers(c *gin.Context) {
	name := c.Param("name")
	users, err := h.hub.Registry().EligibleUsers(name)
	if err != nil {
		if errors.Is(err, core.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: core.MsgRoomNotFound})
			return
		}
		h.log.Error().Err(err).Str("room", name).Msg("failed to list members")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, MemberListResponse{Room: name, Users: users})
}
