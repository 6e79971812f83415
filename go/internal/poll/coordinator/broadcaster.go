package coordinator

import (
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/Prabhsingh0401/Polling-System/go/internal/poll/events"
	"github.com/Prabhsingh0401/Polling-System/go/internal/poll/roster"
)

// Transport delivers encoded frames to a single connection. Implementations
// must keep frames for one connection in the order Send was called.
type Transport interface {
	Send(connectionID string, message []byte) error
	Close(connectionID string)
}

// EventSink receives a copy of public session events. Publish must not block.
type EventSink interface {
	Publish(env *events.Envelope)
}

// Broadcaster fans events out to connections. It is the only writer to the
// transport and resolves audiences against the registry as it stands after
// the transition that produced the event.
type Broadcaster struct {
	transport Transport
	registry  *roster.Registry
	sink      EventSink
	clock     clockwork.Clock
}

// NewBroadcaster creates a broadcaster. sink may be nil.
func NewBroadcaster(transport Transport, registry *roster.Registry, sink EventSink, clock clockwork.Clock) *Broadcaster {
	return &Broadcaster{
		transport: transport,
		registry:  registry,
		sink:      sink,
		clock:     clock,
	}
}

// ToAll sends an event to every live connection
func (b *Broadcaster) ToAll(name events.Name, payload interface{}) {
	b.Deliver(toAll(name, payload))
}

// ToConnection sends an event to one connection
func (b *Broadcaster) ToConnection(connectionID string, name events.Name, payload interface{}) {
	b.Deliver(toConnection(connectionID, name, payload))
}

// ToRole sends an event to every connection that declared role
func (b *Broadcaster) ToRole(role roster.Role, name events.Name, payload interface{}) {
	b.Deliver(toRole(role, name, payload))
}

// Deliver encodes the instruction once and queues it on every target connection
func (b *Broadcaster) Deliver(in Instruction) {
	env, err := events.NewEnvelope(in.Event, in.Payload, b.clock.Now())
	if err != nil {
		log.Error().Err(err).Str("event", string(in.Event)).Msg("failed to build event envelope")
		return
	}
	frame, err := env.Encode()
	if err != nil {
		log.Error().Err(err).Str("event", string(in.Event)).Msg("failed to marshal event for broadcast")
		return
	}

	var targets []string
	switch in.Audience {
	case AudienceAll:
		targets = b.registry.IDs()
	case AudienceRole:
		targets = b.registry.WithRole(in.Role)
	case AudienceConnection:
		targets = []string{in.ConnectionID}
	}

	for _, id := range targets {
		if err := b.transport.Send(id, frame); err != nil {
			log.Debug().
				Err(err).
				Str("connection_id", id).
				Str("event", string(in.Event)).
				Msg("dropped event for connection")
		}
	}
	if in.Terminate && in.Audience == AudienceConnection {
		b.transport.Close(in.ConnectionID)
	}

	if b.sink != nil && in.Audience == AudienceAll && events.Mirrored(in.Event) {
		b.sink.Publish(env)
	}

	log.Debug().
		Str("event", string(in.Event)).
		Str("audience", in.Audience.String()).
		Int("connections", len(targets)).
		Msg("event broadcasted")
}
