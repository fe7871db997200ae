package core

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomhub/internal/codec"
	"github.com/vovakirdan/roomhub/internal/metrics"
	"github.com/vovakirdan/roomhub/internal/sanitize"
	"github.com/vovakirdan/roomhub/internal/store"
)

// Broadcast scopes for live messages.
const (
	// ScopeRoom delivers live messages to the group of the target room.
	ScopeRoom = "room"
	// ScopeAll delivers live messages to every connection regardless of room.
	ScopeAll = "all"
)

// DefaultHistoryLimit is how many messages a client receives on join.
const DefaultHistoryLimit = 50

// Options carries the hub's collaborators.
type Options struct {
	Store     store.MessageStore
	Users     store.UserDirectory
	Codec     codec.Codec
	Sanitizer sanitize.Sanitizer
	Registry  *Registry
	Metrics   metrics.Recorder
	Logger    *zerolog.Logger

	HistoryLimit   int
	BroadcastScope string
}

// Hub coordinates sessions, room authorization, message intake and fan-out.
type Hub struct {
	store     store.MessageStore
	users     store.UserDirectory
	codec     codec.Codec
	sanitizer sanitize.Sanitizer
	registry  *Registry
	metrics   metrics.Recorder
	log       *zerolog.Logger

	conns *connections
	out   Broadcaster
	locks *roomLocks

	historyLimit int
	scope        string
	now          func() time.Time
}

// NewHub creates a hub. A nil Registry gets a fresh one; nil Metrics and
// Logger are replaced with no-ops.
func NewHub(opts Options) *Hub {
	h := &Hub{
		store:        opts.Store,
		users:        opts.Users,
		codec:        opts.Codec,
		sanitizer:    opts.Sanitizer,
		registry:     opts.Registry,
		metrics:      opts.Metrics,
		log:          opts.Logger,
		locks:        newRoomLocks(),
		historyLimit: opts.HistoryLimit,
		scope:        opts.BroadcastScope,
		now:          time.Now,
	}
	if h.registry == nil {
		h.registry = NewRegistry()
	}
	if h.metrics == nil {
		h.metrics = metrics.Nop{}
	}
	if h.log == nil {
		nop := zerolog.Nop()
		h.log = &nop
	}
	if h.historyLimit <= 0 {
		h.historyLimit = DefaultHistoryLimit
	}
	if h.historyLimit > MaxHistoryLimit {
		h.log.Warn().Int("requested", h.historyLimit).Int("max", MaxHistoryLimit).Msg("history limit clamped")
		h.historyLimit = MaxHistoryLimit
	}
	if h.scope != ScopeAll {
		h.scope = ScopeRoom
	}

	h.conns = newConnections(func(c *Client) {
		h.metrics.RecordSlowConsumer()
		h.log.Warn().Str("client_id", c.ID).Str("user", c.Name).Msg("slow consumer terminated")
	})
	h.out = h.conns
	return h
}

// Registry returns the hub's room registry.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Run blocks until ctx is cancelled and then terminates every live session.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	clients := h.conns.snapshot()
	for _, c := range clients {
		c.Terminate()
	}
	h.log.Info().Int("sessions", len(clients)).Msg("hub stopped")
}

// Serve runs one connection's session: it connects the client to roomParam,
// then handles its commands until the context ends, the command channel is
// closed, or the session is terminated.
func (h *Hub) Serve(ctx context.Context, c *Client, roomParam string) error {
	if err := h.Connect(ctx, c, roomParam); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return err
		}
		if c.State() != StateJoined {
			h.Disconnect(c)
			return err
		}
	}
	defer h.Disconnect(c)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.Done():
			return nil
		case cmd, ok := <-c.Commands:
			if !ok {
				return nil
			}
			if cmd == nil {
				continue
			}
			if err := h.Handle(ctx, c, cmd); err != nil {
				h.log.Debug().Err(err).Str("client_id", c.ID).Str("code", CodeOf(err)).Msg("command failed")
			}
		}
	}
}

// Handle dispatches a single command. Failures have already been reported
// to the caller when Handle returns them.
func (h *Hub) Handle(ctx context.Context, c *Client, cmd *Command) error {
	switch cmd.Kind {
	case CommandSendMessage:
		return h.SendMessage(ctx, c, cmd.Room, cmd.User, cmd.Text)
	case CommandCreateRoom:
		return h.CreateRoom(c)
	case CommandGetEligibleUsers:
		_, err := h.GetEligibleUsers(c, cmd.Room)
		return err
	case CommandAddUserToRoom:
		return h.AddUserToRoom(ctx, c, cmd.Room, cmd.User)
	case CommandRemoveUserFromRoom:
		return h.RemoveUserFromRoom(c, cmd.Room, cmd.User)
	case CommandSearchRooms:
		h.SearchRooms(c, cmd.User)
		return nil
	default:
		return h.fail(c, coreError(ErrCodeBadRequest, "unknown command"))
	}
}

// Connect authorizes c for roomParam ("main" when empty). On success the
// client joins the room group and receives the room's recent history. On
// denial the client gets a single Error event and is terminated.
func (h *Hub) Connect(ctx context.Context, c *Client, roomParam string) error {
	if c.Name == "" {
		return ErrUnauthorized
	}

	c.setState(StateConnecting)
	h.log.Info().Str("client_id", c.ID).Str("user", c.Name).Msg("user connected")

	room := roomParam
	if room == "" {
		room = MainRoom
	}
	c.setRoom(room)
	c.setState(StateAuthorizing)

	// Held until history is queued so a concurrent send to this room is
	// delivered either in history or live, never both.
	unlock := h.locks.lock(room)
	defer unlock()

	if !CanJoin(room, c.Name, h.registry) {
		c.setState(StateRejected)
		if err := h.registry.RemoveMember(room, c.Name); err != nil && !errors.Is(err, ErrNotPresent) {
			h.log.Warn().Err(err).Str("room", room).Str("user", c.Name).Msg("membership cleanup failed")
		}
		// Never registered, so no broadcast can reach it before the close.
		denied := coreError(ErrCodeForbidden, MsgJoinDenied)
		c.send(errorEvent(denied))
		c.Terminate()

		h.metrics.RecordJoin(metrics.JoinRejected)
		h.log.Warn().Str("client_id", c.ID).Str("user", c.Name).Str("room", room).Msg("join rejected")
		return denied
	}

	h.conns.add(c)
	h.metrics.ConnectionOpened()
	h.out.AddToGroup(room, c.ID)
	c.setState(StateJoined)
	h.metrics.RecordJoin(metrics.JoinAccepted)

	history, err := h.store.RecentMessages(ctx, room, h.historyLimit)
	if err != nil {
		h.log.Error().Err(err).Str("room", room).Msg("load history")
		return h.fail(c, wrapCoreError(ErrCodePersistenceFailed, "Could not load room history.", err))
	}

	for _, msg := range history {
		encoded, err := h.codec.Encode(msg.Body)
		if err != nil {
			h.log.Error().Err(err).Int64("message_id", msg.ID).Msg("encode history message")
			return h.fail(c, wrapCoreError(ErrCodeInternal, MsgInternal, err))
		}
		h.out.ToCaller(c.ID, &Event{
			Kind: EventReceiveMessage,
			Room: room,
			User: msg.Username,
			Text: encoded,
		})
	}

	h.log.Debug().Str("client_id", c.ID).Str("room", room).Int("history", len(history)).Msg("history delivered")
	return nil
}

// Disconnect removes c from every group. Registry membership is untouched.
func (h *Hub) Disconnect(c *Client) {
	if h.conns.remove(c) {
		h.metrics.ConnectionClosed()
	}
	c.setState(StateDisconnected)
	h.log.Info().Str("client_id", c.ID).Str("user", c.Name).Msg("user disconnected")
}

// SendMessage decodes, sanitizes, persists, re-encodes and broadcasts a
// message. The authenticated identity of c is the author; a differing
// username argument is ignored.
func (h *Hub) SendMessage(ctx context.Context, c *Client, room, username, encoded string) error {
	if c == nil || c.Name == "" {
		return ErrUnauthorized
	}
	if username != "" && username != c.Name {
		h.log.Warn().Str("client_id", c.ID).Str("user", c.Name).Str("claimed", username).Msg("sender name mismatch, using authenticated identity")
	}
	username = c.Name

	if room == "" {
		room = c.Room()
	}
	if !CanJoin(room, username, h.registry) {
		return h.fail(c, coreError(ErrCodeForbidden, MsgPostDenied))
	}

	plaintext, err := h.codec.Decode(encoded)
	if err != nil {
		h.metrics.RecordMessage(metrics.MessageCodecError)
		h.log.Warn().Err(err).Str("user", username).Msg("decode message")
		return h.fail(c, wrapCoreError(ErrCodeCodec, MsgCodec, err))
	}

	clean := h.sanitizer.Sanitize(plaintext)
	if clean != plaintext {
		h.metrics.RecordSanitized()
		h.log.Warn().Str("user", username).Str("room", room).Msg("message was sanitized, potential XSS")
	}

	unlock := h.locks.lock(room)
	defer unlock()

	msg := &store.Message{
		Room:      room,
		Username:  username,
		Body:      clean,
		CreatedAt: h.now().UTC(),
	}
	start := time.Now()
	err = h.store.SaveMessage(ctx, msg)
	h.metrics.RecordPersistLatency(time.Since(start))
	if err != nil {
		h.metrics.RecordMessage(metrics.MessagePersistenceFailed)
		h.log.Error().Err(err).Str("user", username).Str("room", room).Msg("failed to save message")
		return h.fail(c, wrapCoreError(ErrCodePersistenceFailed, MsgPersistence, err))
	}
	h.metrics.RecordMessage(metrics.MessagePersisted)
	h.log.Info().Int64("message_id", msg.ID).Str("user", username).Str("room", room).Msg("message saved")

	out, err := h.codec.Encode(clean)
	if err != nil {
		h.log.Error().Err(err).Int64("message_id", msg.ID).Msg("encode message")
		return h.fail(c, wrapCoreError(ErrCodeInternal, MsgInternal, err))
	}

	ev := &Event{Kind: EventReceiveMessage, Room: room, User: username, Text: out}
	if h.scope == ScopeAll {
		h.out.ToAll(ev)
	} else {
		h.out.ToGroup(room, ev)
	}
	return nil
}

// CreateRoom creates the caller's private room, named after the caller.
func (h *Hub) CreateRoom(c *Client) error {
	if c.Name == "" {
		return ErrUnauthorized
	}

	room := c.Name
	if err := h.registry.Create(room, c.Name); err != nil {
		return h.fail(c, wrapCoreError(ErrCodeRoomExists, MsgRoomExists, err))
	}
	h.out.AddToGroup(room, c.ID)
	h.out.ToCaller(c.ID, &Event{Kind: EventRoomCreated, Room: room})

	h.log.Info().Str("user", c.Name).Str("room", room).Msg("room created")
	return nil
}

// GetEligibleUsers sends the member list of room to the caller and returns it.
func (h *Hub) GetEligibleUsers(c *Client, room string) ([]string, error) {
	users, err := h.registry.EligibleUsers(room)
	if err != nil {
		return nil, h.fail(c, wrapCoreError(ErrCodeRoomNotFound, MsgRoomNotFound, err))
	}
	h.out.ToCaller(c.ID, &Event{Kind: EventEligibleUsers, Room: room, Names: users})
	return users, nil
}

// AddUserToRoom adds a registered user to an existing private room and
// notifies the room group.
func (h *Hub) AddUserToRoom(ctx context.Context, c *Client, room, username string) error {
	if !h.registry.Exists(room) {
		return h.fail(c, wrapCoreError(ErrCodeRoomNotFound, MsgRoomNotFound, ErrRoomNotFound))
	}

	ok, err := h.users.UserExists(ctx, username)
	if err != nil {
		h.log.Error().Err(err).Str("user", username).Msg("look up user")
		return h.fail(c, wrapCoreError(ErrCodeInternal, MsgInternal, err))
	}
	if !ok {
		h.log.Warn().Str("user", username).Str("room", room).Msg("attempted to add non-existent user to room")
		return h.fail(c, coreError(ErrCodeUserNotFound, MsgUserNotFound))
	}

	if err := h.registry.AddMember(room, username); err != nil {
		return h.fail(c, wrapCoreError(ErrCodeRoomNotFound, MsgRoomNotFound, err))
	}
	h.out.ToGroup(room, &Event{Kind: EventUserAdded, Room: room, User: username})

	h.log.Info().Str("user", username).Str("room", room).Str("by", c.Name).Msg("user added to room")
	return nil
}

// RemoveUserFromRoom removes a member from a private room. Every connection
// learns the user lost access; the room group gets UserRemoved.
func (h *Hub) RemoveUserFromRoom(c *Client, room, username string) error {
	if err := h.registry.RemoveMember(room, username); err != nil {
		return h.fail(c, wrapCoreError(ErrCodeNotInRoom, MsgNotInRoom, err))
	}

	h.out.ToAll(&Event{Kind: EventRemovedFromRoom, Room: room, User: username})
	h.out.ToGroup(room, &Event{Kind: EventUserRemoved, Room: room, User: username})

	h.log.Info().Str("user", username).Str("room", room).Str("by", c.Name).Msg("user removed from room")
	return nil
}

// SearchRooms sends the caller the rooms listing username.
func (h *Hub) SearchRooms(c *Client, username string) []string {
	rooms := slices.Collect(h.registry.RoomsContaining(username))
	h.out.ToCaller(c.ID, &Event{Kind: EventRoomsAvailable, User: username, Names: rooms})
	return rooms
}

// DoesRoomExist reports whether a private room has been created.
func (h *Hub) DoesRoomExist(room string) bool {
	return h.registry.Exists(room)
}

// ConnectionCount returns the number of live sessions.
func (h *Hub) ConnectionCount() int {
	return h.conns.count()
}

// fail reports err to the caller only and returns it.
func (h *Hub) fail(c *Client, err *CoreError) error {
	h.out.ToCaller(c.ID, errorEvent(err))
	return err
}
