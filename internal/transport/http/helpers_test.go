package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomhub/internal/auth"
	"github.com/vovakirdan/roomhub/internal/codec"
	"github.com/vovakirdan/roomhub/internal/config"
	"github.com/vovakirdan/roomhub/internal/core"
	"github.com/vovakirdan/roomhub/internal/metrics"
	"github.com/vovakirdan/roomhub/internal/proto"
	"github.com/vovakirdan/roomhub/internal/sanitize"
	"github.com/vovakirdan/roomhub/internal/store/sqlite"
)

type testServer struct {
	ts    *httptest.Server
	hub   *core.Hub
	auth  *auth.Service
	store *sqlite.SQLiteStore
	codec codec.Codec
}

func startTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	c, err := codec.NewLegacy(make([]byte, 32))
	if err != nil {
		t.Fatalf("failed to create codec: %v", err)
	}

	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}

	logger := zerolog.Nop()
	reg := prometheus.NewRegistry()

	hub := core.NewHub(core.Options{
		Store:     st,
		Users:     st,
		Codec:     c,
		Sanitizer: sanitize.New(),
		Metrics:   metrics.NewCollector(reg),
		Logger:    &logger,
	})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	})

	server := NewServer(hub, authService, &cfg, &logger, reg)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testServer{ts: ts, hub: hub, auth: authService, store: st, codec: c}
}

func (s *testServer) register(t *testing.T, username string) string {
	t.Helper()
	token, err := s.auth.Register(context.Background(), username, "password123", "password123")
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return token
}

func (s *testServer) encode(t *testing.T, text string) string {
	t.Helper()
	out, err := s.codec.Encode(text)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return out
}

func (s *testServer) wsURL(token, room string) string {
	q := url.Values{}
	if token != "" {
		q.Set("access_token", token)
	}
	if room != "" {
		q.Set("room", room)
	}
	return strings.Replace(s.ts.URL, "http", "ws", 1) + "/ws?" + q.Encode()
}

// dial connects as the owner of token to room.
func (s *testServer) dial(ctx context.Context, t *testing.T, token, room string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, s.wsURL(token, room), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

// roundTrip sends a marker search_rooms request and returns the frames received
// before its reply. The hub handles commands only after the join completed,
// so a reply means the join and everything queued before it was sent.
func roundTrip(ctx context.Context, t *testing.T, conn *websocket.Conn) []outboundFrame {
	t.Helper()

	send(ctx, t, conn, proto.InboundTypeSearchRooms, proto.UserData{User: "__sync__"})

	var before []outboundFrame
	for {
		frame := read(ctx, t, conn)
		if frame.Event == core.EventRoomsAvailable.String() {
			var rooms proto.EventRooms
			if err := json.Unmarshal(frame.Data, &rooms); err == nil && rooms.User == "__sync__" {
				return before
			}
		}
		before = append(before, frame)
	}
}

type outboundFrame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func send(ctx context.Context, t *testing.T, conn *websocket.Conn, typ string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		t.Fatalf("send %s: %v", typ, err)
	}
}

func read(ctx context.Context, t *testing.T, conn *websocket.Conn) outboundFrame {
	t.Helper()

	var frame outboundFrame
	if err := wsjson.Read(ctx, conn, &frame); err != nil {
		t.Fatalf("read outbound: %v", err)
	}
	return frame
}

func decode[T any](t *testing.T, frame outboundFrame) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(frame.Data, &out); err != nil {
		t.Fatalf("unmarshal %s data: %v", frame.Event, err)
	}
	return out
}
