package core

import (
	"context"
	"testing"
	"time"

	"github.com/vovakirdan/roomhub/internal/codec"
	"github.com/vovakirdan/roomhub/internal/sanitize"
	"github.com/vovakirdan/roomhub/internal/store"
	"github.com/vovakirdan/roomhub/internal/store/sqlite"
)

// testKey is the all-zero 256-bit key; with the legacy codec it makes
// encoded bodies deterministic so tests can compare them directly.
var testKey = make([]byte, 32)

type testEnv struct {
	hub   *Hub
	store *sqlite.SQLiteStore
	codec codec.Codec
}

func newTestEnv(t *testing.T, scope string) *testEnv {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	c, err := codec.NewLegacy(testKey)
	if err != nil {
		t.Fatalf("failed to create codec: %v", err)
	}

	hub := NewHub(Options{
		Store:          st,
		Users:          st,
		Codec:          c,
		Sanitizer:      sanitize.New(),
		BroadcastScope: scope,
	})
	return &testEnv{hub: hub, store: st, codec: c}
}

func (e *testEnv) encode(t *testing.T, text string) string {
	t.Helper()
	out, err := e.codec.Encode(text)
	if err != nil {
		t.Fatalf("encode %q: %v", text, err)
	}
	return out
}

func (e *testEnv) seed(t *testing.T, msgs ...*store.Message) {
	t.Helper()
	for _, m := range msgs {
		if err := e.store.SaveMessage(context.Background(), m); err != nil {
			t.Fatalf("seed message: %v", err)
		}
	}
}

// connect builds a client for user and connects it to room, failing the
// test on error.
func (e *testEnv) connect(t *testing.T, id, user, room string) *Client {
	t.Helper()
	c := NewClient(id, user)
	if err := e.hub.Connect(context.Background(), c, room); err != nil {
		t.Fatalf("connect %s to %q: %v", user, room, err)
	}
	return c
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// drain returns every event already queued on ch.
func drain(ch <-chan *Event) []*Event {
	var out []*Event
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}
