package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/vovakirdan/roomhub/internal/codec"
	"github.com/vovakirdan/roomhub/internal/proto"
	"github.com/vovakirdan/roomhub/internal/wsclient"
)

const usage = `Commands:
  /create                 create your private room
  /add <user> [room]      allow user into a room (default: yours)
  /remove <user> [room]   revoke access
  /members <room>         list eligible users
  /rooms <user>           list rooms a user may join
Anything else is sent as a message.`

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	server := flag.String("server", "http://localhost:8080", "server base URL")
	user := flag.String("user", "cli-user", "username")
	password := flag.String("password", "", "password")
	register := flag.Bool("register", false, "register the user before logging in")
	room := flag.String("room", "", "room to join (default main)")
	key := flag.String("key", "", "base64 message key of the server")
	mode := flag.String("codec", codec.ModeSealed, "codec mode of the server (legacy or sealed)")
	flag.Parse()

	rawKey, err := codec.ParseKey(*key)
	if err != nil {
		return err
	}
	c, err := codec.New(*mode, rawKey)
	if err != nil {
		return err
	}

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	token, err := wsclient.Login(ctx, *server, *user, *password, *register)
	if err != nil {
		return err
	}
	conn, err := wsclient.Dial(ctx, *server, token, *room)
	if err != nil {
		return err
	}
	defer conn.Close()

	joined := *room
	if joined == "" {
		joined = "main"
	}
	fmt.Printf("Connected to %s as %s in room %s\n", *server, *user, joined)
	fmt.Println(usage)

	go func() {
		defer cancel()
		readLoop(ctx, conn, c)
	}()

	writeLoop(ctx, conn, c, *user, joined)
	return nil
}

func readLoop(ctx context.Context, conn *wsclient.Conn, c codec.Codec) {
	for {
		frame, err := conn.Read(ctx)
		if err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) || wsclient.IsNormalClose(err) {
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		if frame.Error != nil {
			fmt.Printf("! %s\n", frame.Error.Msg)
			continue
		}

		switch frame.Event {
		case "ReceiveMessage":
			var evt proto.EventMessage
			if err := json.Unmarshal(frame.Data, &evt); err != nil {
				log.Printf("unmarshal message: %v", err)
				continue
			}
			text, err := c.Decode(evt.Text)
			if err != nil {
				text = "<undecodable>"
			}
			fmt.Printf("[%s] %s: %s\n", evt.Room, evt.User, text)
		case "UserAdded", "UserRemoved", "RemovedFromRoom":
			var evt proto.EventMembership
			if err := json.Unmarshal(frame.Data, &evt); err == nil {
				fmt.Printf("[room %s] %s: %s\n", evt.Room, frame.Event, evt.User)
			}
		default:
			fmt.Printf("event=%s data=%s\n", frame.Event, frame.Data)
		}
	}
}

func writeLoop(ctx context.Context, conn *wsclient.Conn, c codec.Codec, user, room string) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			typ, data, err := parseLine(text, c, user, room)
			if err != nil {
				fmt.Printf("! %v\n", err)
				continue
			}
			if err := conn.Send(ctx, typ, data); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}

func parseLine(text string, c codec.Codec, user, room string) (string, any, error) {
	if !strings.HasPrefix(text, "/") {
		encoded, err := c.Encode(text)
		if err != nil {
			return "", nil, err
		}
		return proto.InboundTypeSendMessage, proto.SendMessageData{Room: room, User: user, Text: encoded}, nil
	}

	fields := strings.Fields(text)
	target := user
	if len(fields) > 2 {
		target = fields[2]
	}

	switch fields[0] {
	case "/create":
		return proto.InboundTypeCreateRoom, struct{}{}, nil
	case "/add", "/remove":
		if len(fields) < 2 {
			return "", nil, fmt.Errorf("usage: %s <user> [room]", fields[0])
		}
		typ := proto.InboundTypeAddUserToRoom
		if fields[0] == "/remove" {
			typ = proto.InboundTypeRemoveUserFromRoom
		}
		return typ, proto.MembershipData{Room: target, User: fields[1]}, nil
	case "/members":
		if len(fields) < 2 {
			return "", nil, errors.New("usage: /members <room>")
		}
		return proto.InboundTypeGetEligibleUsers, proto.RoomData{Room: fields[1]}, nil
	case "/rooms":
		if len(fields) < 2 {
			return "", nil, errors.New("usage: /rooms <user>")
		}
		return proto.InboundTypeSearchRooms, proto.UserData{User: fields[1]}, nil
	default:
		return "", nil, errors.New(usage)
	}
}
