package http

import (
	"encoding/json"

	"github.com/samber/lo"

	"github.com/vovakirdan/roomhub/internal/core"
	"github.com/vovakirdan/roomhub/internal/proto"
)

var errRoomRequired = &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room is required"}

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeSendMessage:
		var msg proto.SendMessageData
		if err := decodeData(inbound.Data, &msg); err != nil {
			return nil, badData()
		}
		if msg.Text == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "text is required"}
		}
		return &core.Command{Kind: core.CommandSendMessage, Room: msg.Room, User: msg.User, Text: msg.Text}, nil
	case proto.InboundTypeCreateRoom:
		return &core.Command{Kind: core.CommandCreateRoom}, nil
	case proto.InboundTypeGetEligibleUsers:
		var req proto.RoomData
		if err := decodeData(inbound.Data, &req); err != nil {
			return nil, badData()
		}
		if req.Room == "" {
			return nil, errRoomRequired
		}
		return &core.Command{Kind: core.CommandGetEligibleUsers, Room: req.Room}, nil
	case proto.InboundTypeAddUserToRoom, proto.InboundTypeRemoveUserFromRoom:
		var req proto.MembershipData
		if err := decodeData(inbound.Data, &req); err != nil {
			return nil, badData()
		}
		if req.Room == "" {
			return nil, errRoomRequired
		}
		if req.User == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "user is required"}
		}
		kind := core.CommandAddUserToRoom
		if inbound.Type == proto.InboundTypeRemoveUserFromRoom {
			kind = core.CommandRemoveUserFromRoom
		}
		return &core.Command{Kind: kind, Room: req.Room, User: req.User}, nil
	case proto.InboundTypeSearchRooms:
		var req proto.UserData
		if err := decodeData(inbound.Data, &req); err != nil {
			return nil, badData()
		}
		if req.User == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "user is required"}
		}
		return &core.Command{Kind: core.CommandSearchRooms, User: req.User}, nil
	default:
		return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "unknown message type"}
	}
}

// decodeData treats a missing data object as empty.
func decodeData(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func badData() *proto.Error {
	return &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed data"}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	ev := func(data any) proto.Outbound {
		return proto.Outbound{Type: proto.OutboundTypeEvent, Event: event.Kind.String(), Data: data}
	}

	switch event.Kind {
	case core.EventReceiveMessage:
		return ev(proto.EventMessage{Room: event.Room, User: event.User, Text: event.Text})
	case core.EventRoomCreated:
		return ev(proto.EventRoom{Room: event.Room})
	case core.EventUserAdded, core.EventUserRemoved, core.EventRemovedFromRoom:
		return ev(proto.EventMembership{Room: event.Room, User: event.User})
	case core.EventRoomsAvailable:
		return ev(proto.EventRooms{User: event.User, Rooms: nonNil(event.Names)})
	case core.EventEligibleUsers:
		return ev(proto.EventUsers{Room: event.Room, Users: nonNil(event.Names)})
	case core.EventError:
		if event.Error == nil {
			return errorOutbound(&proto.Error{Code: core.ErrCodeInternal, Msg: core.MsgInternal})
		}
		return errorOutbound(&proto.Error{Code: event.Error.Code, Msg: event.Error.Message})
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent, Event: event.Kind.String()}
	}
}

func errorOutbound(err *proto.Error) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeError, Error: err}
}

// nonNil keeps empty lists serialized as [] rather than null.
func nonNil(names []string) []string {
	return lo.Ternary(names == nil, []string{}, names)
}
