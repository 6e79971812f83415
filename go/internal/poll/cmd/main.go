package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Prabhsingh0401/Polling-System/go/internal/poll/admin"
	"github.com/Prabhsingh0401/Polling-System/go/internal/poll/config"
	"github.com/Prabhsingh0401/Polling-System/go/internal/poll/coordinator"
	"github.com/Prabhsingh0401/Polling-System/go/internal/poll/gateway"
	"github.com/Prabhsingh0401/Polling-System/go/internal/poll/publisher"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cfg, err := config.Load(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	setupLogging(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional event mirror
	var (
		sink   coordinator.EventSink
		mirror admin.MirrorStatus
	)
	if cfg.NATS.URL != "" {
		jsConfig := publisher.DefaultJetStreamConfig()
		jsConfig.URL = cfg.NATS.URL
		jsConfig.StreamName = cfg.NATS.Stream
		jsConfig.SubjectPrefix = cfg.NATS.SubjectPrefix

		pub, err := publisher.NewJetStreamPublisher(jsConfig)
		if err != nil {
			log.Fatal().Err(err).Str("nats_url", cfg.NATS.URL).Msg("failed to create event mirror")
		}
		defer pub.Close()

		sink, mirror = pub, pub
		go pub.Run(ctx)
	} else {
		log.Info().Msg("nats.url not set, event mirror disabled")
	}

	connections := gateway.NewConnectionManager(gateway.ConnectionConfig{
		WriteTimeout:    cfg.WebSocket.WriteTimeout,
		ReadTimeout:     cfg.WebSocket.ReadTimeout,
		PingInterval:    cfg.WebSocket.PingInterval,
		MaxMessageSize:  cfg.WebSocket.MaxMessageSize,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBuffer:      cfg.WebSocket.SendBuffer,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
	})

	opts := coordinator.DefaultOptions()
	opts.Sink = sink
	opts.MaxDuration = cfg.Poll.MaxDuration()
	opts.TickInterval = cfg.Poll.TickInterval
	opts.QueueSize = cfg.Poll.QueueSize
	coord := coordinator.New(connections, opts)

	coordDone := make(chan struct{})
	go func() {
		defer close(coordDone)
		if err := coord.Run(ctx); err != nil {
			log.Error().Err(err).Msg("session coordinator failed")
		}
	}()

	server := setupServer(cfg, connections, coord, mirror)

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Bool("event_mirror", sink != nil).
			Int("max_duration_sec", cfg.Poll.MaxDurationSec).
			Msg("poll server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	// Websocket connections are hijacked and outlive Shutdown
	connections.CloseAll()
	cancel()

	select {
	case <-coordDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("session coordinator did not stop in time")
	}

	log.Info().Msg("poll server shutdown complete")
}

func setupLogging(cfg config.LogConfig) {
	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		log.Warn().Str("level", cfg.Level).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
