package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/vovakirdan/roomhub/internal/codec"
	"github.com/vovakirdan/roomhub/internal/proto"
	"github.com/vovakirdan/roomhub/internal/wsclient"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	server := flag.String("server", "http://localhost:8080", "server base URL")
	user := flag.String("user", "tester", "username")
	password := flag.String("password", "smoke-test-pass", "password")
	register := flag.Bool("register", false, "register the user before logging in")
	key := flag.String("key", "", "base64 message key of the server")
	mode := flag.String("codec", codec.ModeSealed, "codec mode of the server (legacy or sealed)")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	rawKey, err := codec.ParseKey(*key)
	if err != nil {
		return err
	}
	c, err := codec.New(*mode, rawKey)
	if err != nil {
		return err
	}

	token, err := wsclient.Login(ctx, *server, *user, *password, *register)
	if err != nil {
		return err
	}
	conn, err := wsclient.Dial(ctx, *server, token, "")
	if err != nil {
		return err
	}
	defer conn.Close()

	encoded, err := c.Encode(*text)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := conn.Send(ctx, proto.InboundTypeSendMessage, proto.SendMessageData{User: *user, Text: encoded}); err != nil {
		return err
	}

	// History arrives first; wait for our own message to come back.
	for {
		frame, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if frame.Error != nil {
			return fmt.Errorf("server error %s: %s", frame.Error.Code, frame.Error.Msg)
		}
		if frame.Event != "ReceiveMessage" {
			continue
		}

		var evt proto.EventMessage
		if err := json.Unmarshal(frame.Data, &evt); err != nil {
			return fmt.Errorf("unmarshal message: %w", err)
		}
		plain, err := c.Decode(evt.Text)
		if err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		fmt.Printf("ReceiveMessage: room=%s user=%s text=%q\n", evt.Room, evt.User, plain)
		if evt.User == *user && plain == *text {
			return nil
		}
	}
}
