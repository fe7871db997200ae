package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomhub/internal/config"
	"github.com/vovakirdan/roomhub/internal/core"
	"github.com/vovakirdan/roomhub/internal/proto"
	"github.com/vovakirdan/roomhub/internal/utils"
)

const writeTimeout = 5 * time.Second

var errSessionTerminated = errors.New("session terminated")

// WSHandler authenticates and upgrades HTTP connections and bridges them to
// a core.Client served by the hub.
type WSHandler struct {
	hub    *core.Hub
	tokens TokenValidator
	log    *zerolog.Logger

	maxMessageBytes int64
	originPatterns  []string
	ratePerSecond   float64
	rateBurst       int
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, tokens TokenValidator, cfg *config.Config, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:             hub,
		tokens:          tokens,
		log:             logger,
		maxMessageBytes: cfg.MaxMessageBytes,
		originPatterns:  cfg.AllowedOrigins,
		ratePerSecond:   cfg.RateLimitPerSecond,
		rateBurst:       cfg.RateLimitBurst,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	token := r.URL.Query().Get("access_token")
	if token == "" {
		token, _ = bearerToken(r.Header.Get("Authorization"))
	}
	if token == "" {
		h.log.Debug().Str("remote", r.RemoteAddr).Msg("ws connection without token")
		stdhttp.Error(w, "missing access token", stdhttp.StatusUnauthorized)
		return
	}
	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("ws connection with invalid token")
		stdhttp.Error(w, "invalid access token", stdhttp.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.CloseNow()
	if h.maxMessageBytes > 0 {
		conn.SetReadLimit(h.maxMessageBytes)
	}

	client := core.NewClient(utils.NewID(), claims.Username)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	serveDone := make(chan struct{})
	go func() {
		defer close(serveDone)
		if err := h.hub.Serve(ctx, client, r.URL.Query().Get("room")); err != nil && !errors.Is(err, context.Canceled) {
			h.log.Debug().Err(err).Str("client_id", client.ID).Str("code", core.CodeOf(err)).Msg("session ended")
		}
	}()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	status, reason := closeStatus(err)
	if status == websocket.StatusInternalError {
		h.log.Warn().Err(err).Str("client_id", client.ID).Msg("ws connection closed with error")
	}
	_ = conn.Close(status, reason)

	cancel() // stop the other goroutine and the session
	<-errCh
	<-serveDone
}

func closeStatus(err error) (websocket.StatusCode, string) {
	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.Is(err, io.EOF):
		return websocket.StatusNormalClosure, "closing"
	case errors.Is(err, errSessionTerminated):
		return websocket.StatusPolicyViolation, errSessionTerminated.Error()
	}
	switch s := websocket.CloseStatus(err); s {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return s, "closing"
	case -1:
		return websocket.StatusInternalError, "internal error"
	default:
		return s, "closing"
	}
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	limiter := newRateLimiter(h.ratePerSecond, h.rateBurst)

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		if !limiter.allow() {
			h.log.Debug().Str("client_id", client.ID).Msg("inbound rate limited")
			if err := h.writeError(ctx, conn, &proto.Error{Code: core.ErrCodeRateLimited, Msg: "Too many messages."}); err != nil {
				return err
			}
			continue
		}

		var inbound proto.Inbound
		if typ != websocket.MessageText || json.Unmarshal(data, &inbound) != nil {
			if err := h.writeError(ctx, conn, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed frame"}); err != nil {
				return err
			}
			continue
		}

		cmd, protoErr := inboundToCommand(inbound)
		if protoErr != nil {
			if err := h.writeError(ctx, conn, protoErr); err != nil {
				return err
			}
			continue
		}

		select {
		case client.Commands <- cmd:
		case <-client.Done():
			return errSessionTerminated
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event := <-client.Events:
			if err := h.writeEvent(ctx, conn, client, event); err != nil {
				return err
			}
		case <-client.Done():
			// Flush what was queued before termination, e.g. a join denial.
			for {
				select {
				case event := <-client.Events:
					if err := h.writeEvent(ctx, conn, client, event); err != nil {
						return err
					}
				default:
					return errSessionTerminated
				}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeEvent(ctx context.Context, conn *websocket.Conn, client *core.Client, event *core.Event) error {
	if event == nil {
		return nil
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := wsjson.Write(wctx, conn, outboundFromEvent(event)); err != nil {
		h.log.Error().Err(err).Str("client_id", client.ID).Msg("write ws event")
		return err
	}
	return nil
}

func (h *WSHandler) writeError(ctx context.Context, conn *websocket.Conn, protoErr *proto.Error) error {
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(wctx, conn, errorOutbound(protoErr))
}
