package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomhub/internal/auth"
	"github.com/vovakirdan/roomhub/internal/codec"
	"github.com/vovakirdan/roomhub/internal/config"
	"github.com/vovakirdan/roomhub/internal/core"
	"github.com/vovakirdan/roomhub/internal/metrics"
	"github.com/vovakirdan/roomhub/internal/sanitize"
	"github.com/vovakirdan/roomhub/internal/store"
	"github.com/vovakirdan/roomhub/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/roomhub/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == config.DefaultJWTSecret {
		logger.Warn().Msg("using the default jwt secret, set ROOMHUB_JWT_SECRET")
	}

	key, err := messageKey(cfg.MessageKey, logger)
	if err != nil {
		return nil, err
	}
	msgCodec, err := codec.New(cfg.CodecMode, key)
	if err != nil {
		return nil, fmt.Errorf("init codec: %w", err)
	}

	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	hub := core.NewHub(core.Options{
		Store:          st,
		Users:          st,
		Codec:          msgCodec,
		Sanitizer:      sanitize.New(),
		Metrics:        metrics.NewCollector(reg),
		Logger:         logger,
		HistoryLimit:   cfg.HistoryLimit,
		BroadcastScope: cfg.BroadcastScope,
	})

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	})

	server := transporthttp.NewServer(hub, authService, cfg, logger, reg)

	logger.Info().
		Str("codec", cfg.CodecMode).
		Str("broadcast_scope", cfg.BroadcastScope).
		Int("history_limit", cfg.HistoryLimit).
		Msg("hub configured")

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		store:           st,
		log:             logger,
	}, nil
}

// messageKey decodes the configured key. Without one, a random key is
// generated and logged so clients of this process can be configured.
func messageKey(encoded string, logger *zerolog.Logger) ([]byte, error) {
	if encoded != "" {
		key, err := codec.ParseKey(encoded)
		if err != nil {
			return nil, fmt.Errorf("message key: %w", err)
		}
		return key, nil
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate message key: %w", err)
	}
	logger.Warn().Str("message_key", base64.StdEncoding.EncodeToString(key)).Msg("no message key configured, generated an ephemeral one")
	return key, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		a.hub.Run(hubCtx)
	}()

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		stopHub()
		<-hubDone
		a.cleanup()
		return err
	case <-ctx.Done():
		// Terminate sessions first so hijacked websocket connections close.
		<-hubDone

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
