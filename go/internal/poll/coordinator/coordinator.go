package coordinator

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/Prabhsingh0401/Polling-System/go/internal/poll/events"
	"github.com/Prabhsingh0401/Polling-System/go/internal/poll/session"
)

// Options configures a Coordinator
type Options struct {
	// Clock drives deadlines and countdown ticks.
	// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
	Clock        clockwork.Clock
	Sink         EventSink
	MaxDuration  time.Duration
	TickInterval time.Duration
	QueueSize    int
}

// DefaultOptions returns production defaults
func DefaultOptions() Options {
	return Options{
		Clock:        clockwork.NewRealClock(),
		MaxDuration:  300 * time.Second,
		TickInterval: time.Second,
		QueueSize:    1024,
	}
}

// Coordinator runs every state transition on a single goroutine. Transport
// callbacks and timer ticks are queued as steps and executed one at a time,
// each to completion, so no transition ever observes another half done.
type Coordinator struct {
	state       *State
	broadcaster *Broadcaster
	timers      *expiryTimers
	steps       chan func()
	done        chan struct{}
}

// New creates a coordinator writing to transport. Call Run to start it.
func New(transport Transport, opts Options) *Coordinator {
	defaults := DefaultOptions()
	if opts.Clock == nil {
		opts.Clock = defaults.Clock
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = defaults.TickInterval
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaults.QueueSize
	}

	c := &Coordinator{
		steps: make(chan func(), opts.QueueSize),
		done:  make(chan struct{}),
	}
	c.timers = newExpiryTimers(opts.Clock, opts.TickInterval, c.enqueueTick)
	c.state = NewState(opts.Clock, c.timers, opts.MaxDuration)
	c.broadcaster = NewBroadcaster(transport, c.state.Registry(), opts.Sink, opts.Clock)
	return c
}

// Run processes queued steps until ctx is cancelled
func (c *Coordinator) Run(ctx context.Context) error {
	log.Info().Msg("session coordinator started")
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			c.timers.CancelAll()
			log.Info().Msg("session coordinator shutting down")
			return nil
		case step := <-c.steps:
			step()
		}
	}
}

// Connect registers a new transport connection
func (c *Coordinator) Connect(connectionID string) {
	c.enqueue(func() {
		c.apply(connectionID, c.state.Connect(connectionID), nil)
	})
}

// Disconnect reports a transport connection that went away
func (c *Coordinator) Disconnect(connectionID string) {
	c.enqueue(func() {
		c.apply(connectionID, c.state.Disconnect(connectionID), nil)
	})
}

// Receive decodes a client frame and queues the command it carries
func (c *Coordinator) Receive(connectionID string, raw []byte) {
	name, cmd, err := events.ParseCommand(raw)
	if err != nil {
		rejected := session.Validation("%v", err)
		c.enqueue(func() {
			c.apply(connectionID, nil, rejected)
		})
		return
	}

	c.enqueue(func() {
		out, err := c.state.Handle(connectionID, name, cmd)
		c.apply(connectionID, out, err)
	})
}

// Snapshot reads the live state from inside the loop
func (c *Coordinator) Snapshot(ctx context.Context) (events.StateSnapshot, error) {
	result := make(chan events.StateSnapshot, 1)
	if !c.enqueue(func() { result <- c.state.Snapshot() }) {
		return events.StateSnapshot{}, context.Canceled
	}

	select {
	case snap := <-result:
		return snap, nil
	case <-ctx.Done():
		return events.StateSnapshot{}, ctx.Err()
	case <-c.done:
		return events.StateSnapshot{}, context.Canceled
	}
}

func (c *Coordinator) enqueueTick(sessionID uint64) bool {
	return c.enqueue(func() {
		c.apply("", c.state.Tick(sessionID), nil)
	})
}

func (c *Coordinator) enqueue(step func()) bool {
	select {
	case c.steps <- step:
		return true
	case <-c.done:
		return false
	}
}

// apply hands the outcome of one transition to the broadcaster. Rejections
// go back to the originating connection only.
func (c *Coordinator) apply(origin string, out []Instruction, err error) {
	if err != nil {
		log.Debug().
			Err(err).
			Str("connection_id", origin).
			Str("code", session.Code(err)).
			Msg("command rejected")
		if origin != "" {
			c.broadcaster.ToConnection(origin, events.EventError, events.ErrorPayload{
				Message: err.Error(),
				Code:    session.Code(err),
			})
		}
		return
	}

	for _, in := range out {
		c.broadcaster.Deliver(in)
	}
}
