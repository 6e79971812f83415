package publisher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/Prabhsingh0401/Polling-System/go/internal/poll/events"
)

type JetStreamConfig struct {
	URL             string
	StreamName      string
	SubjectPrefix   string
	MaxReconnects   int
	ReconnectWait   time.Duration
	MaxAge          time.Duration // How long to keep messages
	MaxMsgs         int64         // Max number of messages to keep
	Replicas        int
	DuplicateWindow time.Duration
	QueueSize       int
	PublishTimeout  time.Duration
}

func DefaultJetStreamConfig() JetStreamConfig {
	return JetStreamConfig{
		URL:             nats.DefaultURL,
		StreamName:      "POLL_EVENTS",
		SubjectPrefix:   "poll.events",
		MaxReconnects:   -1, // Infinite
		ReconnectWait:   2 * time.Second,
		MaxAge:          24 * time.Hour,
		MaxMsgs:         -1, // No limit
		Replicas:        1,
		DuplicateWindow: 2 * time.Minute,
		QueueSize:       1024,
		PublishTimeout:  5 * time.Second,
	}
}

// msgPublisher is the slice of jetstream.JetStream the publisher needs
type msgPublisher interface {
	PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// JetStreamPublisher mirrors public session events to a JetStream stream.
// Publish never blocks the caller; events are queued and sent by Run.
type JetStreamPublisher struct {
	nc     *nats.Conn
	js     msgPublisher
	config JetStreamConfig
	queue  chan *events.Envelope

	published atomic.Uint64
	dropped   atomic.Uint64
	mu        sync.Mutex
	lastSent  time.Time
}

func NewJetStreamPublisher(cfg JetStreamConfig) (*JetStreamPublisher, error) {
	opts := []nats.Option{
		nats.Name("poll-server"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ensureStream(ctx, js, cfg); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}

	p := newPublisher(js, cfg)
	p.nc = nc
	return p, nil
}

func newPublisher(js msgPublisher, cfg JetStreamConfig) *JetStreamPublisher {
	defaults := DefaultJetStreamConfig()
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaults.QueueSize
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = defaults.PublishTimeout
	}
	return &JetStreamPublisher{
		js:     js,
		config: cfg,
		queue:  make(chan *events.Envelope, cfg.QueueSize),
	}
}

func ensureStream(ctx context.Context, js jetstream.JetStream, cfg JetStreamConfig) error {
	sc := jetstream.StreamConfig{
		Name:        cfg.StreamName,
		Description: "Live poll session events",
		Subjects:    []string{fmt.Sprintf("%s.>", cfg.SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      cfg.MaxAge,
		MaxMsgs:     cfg.MaxMsgs,
		Storage:     jetstream.FileStorage,
		Replicas:    cfg.Replicas,
		Duplicates:  cfg.DuplicateWindow,
	}

	stream, err := js.Stream(ctx, cfg.StreamName)
	if err != nil {
		if _, err = js.CreateStream(ctx, sc); err != nil {
			return fmt.Errorf("create stream: %w", err)
		}
		log.Info().Str("stream", cfg.StreamName).Msg("created JetStream stream")
		return nil
	}

	info, err := stream.Info(ctx)
	if err != nil {
		return fmt.Errorf("get stream info: %w", err)
	}
	if !isStreamConfigEqual(info.Config, sc) {
		if _, err = js.UpdateStream(ctx, sc); err != nil {
			return fmt.Errorf("update stream: %w", err)
		}
		log.Info().Str("stream", cfg.StreamName).Msg("updated JetStream stream")
	}
	return nil
}

// Subject is the stream subject an event is published on
func Subject(prefix string, name events.Name) string {
	return fmt.Sprintf("%s.%s", prefix, name)
}

// Publish queues env for the stream. When the queue is full the event is
// dropped; the mirror never slows the session down.
func (p *JetStreamPublisher) Publish(env *events.Envelope) {
	select {
	case p.queue <- env:
	default:
		p.dropped.Add(1)
		log.Warn().
			Str("event", string(env.Event)).
			Str("event_id", env.ID).
			Msg("event mirror queue full, dropping event")
	}
}

// Run sends queued events until ctx is cancelled
func (p *JetStreamPublisher) Run(ctx context.Context) {
	log.Info().
		Str("stream", p.config.StreamName).
		Str("subject_prefix", p.config.SubjectPrefix).
		Msg("event mirror started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Int("pending", len(p.queue)).Msg("event mirror shutting down")
			return
		case env := <-p.queue:
			if err := p.publish(ctx, env); err != nil {
				log.Error().
					Err(err).
					Str("event", string(env.Event)).
					Str("event_id", env.ID).
					Msg("failed to mirror event")
			}
		}
	}
}

func (p *JetStreamPublisher) publish(ctx context.Context, env *events.Envelope) error {
	data, err := env.Encode()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.PublishTimeout)
	defer cancel()

	subject := Subject(p.config.SubjectPrefix, env.Event)
	ack, err := p.js.PublishMsg(ctx, &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"Event-Type": []string{string(env.Event)},
			"Event-ID":   []string{env.ID},
		},
	},
		jetstream.WithMsgID(env.ID),
		jetstream.WithExpectStream(p.config.StreamName),
	)
	if err != nil {
		return fmt.Errorf("publish to JetStream: %w", err)
	}

	p.published.Add(1)
	p.mu.Lock()
	p.lastSent = time.Now()
	p.mu.Unlock()

	log.Debug().
		Str("subject", subject).
		Str("event_id", env.ID).
		Uint64("sequence", ack.Sequence).
		Str("stream", ack.Stream).
		Msg("published to JetStream")

	return nil
}

// Connected reports whether the NATS connection is up
func (p *JetStreamPublisher) Connected() bool {
	return p.nc != nil && p.nc.IsConnected()
}

// Stats returns delivery counters and the time of the last successful publish
func (p *JetStreamPublisher) Stats() (published, dropped uint64, last time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.published.Load(), p.dropped.Load(), p.lastSent
}

func (p *JetStreamPublisher) Close() error {
	if p.nc != nil {
		p.nc.Close()
	}
	return nil
}

func isStreamConfigEqual(a, b jetstream.StreamConfig) bool {
	return a.Name == b.Name &&
		a.MaxAge == b.MaxAge &&
		a.MaxMsgs == b.MaxMsgs &&
		a.Replicas == b.Replicas &&
		a.Duplicates == b.Duplicates
}
