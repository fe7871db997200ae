// Package wsclient is a small client for the roomhub HTTP and websocket API,
// used by the command line tools under scripts/.
package wsclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/roomhub/internal/proto"
)

// Frame is an outbound server frame with its data left raw.
type Frame struct {
	Type  string          `json:"type"`
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *proto.Error    `json:"error,omitempty"`
}

// Login obtains an access token from baseURL (e.g. http://localhost:8080).
// With register set, the account is created first.
func Login(ctx context.Context, baseURL, username, password string, register bool) (string, error) {
	path, body := "/api/login", map[string]string{"username": username, "password": password}
	if register {
		path = "/api/register"
		body["confirm_password"] = password
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(baseURL, "/")+path, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	var out struct {
		Token string `json:"token"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode %s response: %w", path, err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("%s: status %d: %s", path, resp.StatusCode, out.Error)
	}
	return out.Token, nil
}

// Conn is an authenticated websocket session.
type Conn struct {
	ws *websocket.Conn
}

// Dial opens a session in room ("" means main).
func Dial(ctx context.Context, baseURL, token, room string) (*Conn, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/ws")
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	q := u.Query()
	q.Set("access_token", token)
	if room != "" {
		q.Set("room", room)
	}
	u.RawQuery = q.Encode()

	ws, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	return &Conn{ws: ws}, nil
}

// Send writes an inbound frame.
func (c *Conn) Send(ctx context.Context, typ string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", typ, err)
	}
	return wsjson.Write(ctx, c.ws, proto.Inbound{Type: typ, Data: payload})
}

// Read returns the next outbound frame.
func (c *Conn) Read(ctx context.Context) (Frame, error) {
	var f Frame
	err := wsjson.Read(ctx, c.ws, &f)
	return f, err
}

// Close closes the session normally.
func (c *Conn) Close() error {
	return c.ws.Close(websocket.StatusNormalClosure, "bye")
}

// IsNormalClose reports whether err is an orderly close by either side.
func IsNormalClose(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return false
}
