package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Envelope is the outbound frame written to clients and mirrored to the bus
type Envelope struct {
	ID        string          `json:"id"`        // Event UUID
	Event     Name            `json:"event"`     // Event name
	Timestamp time.Time       `json:"timestamp"` // Event creation time
	Data      json.RawMessage `json:"data"`      // Event-specific payload
}

// InboundEnvelope is the frame a client sends
type InboundEnvelope struct {
	Event Name            `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ErrUnknownCommand is returned for an inbound frame with an unrecognised event name
var ErrUnknownCommand = errors.New("unknown command")

// NewEnvelope marshals payload into a fresh envelope stamped with at
func NewEnvelope(name Name, payload interface{}, at time.Time) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", name, err)
	}
	return &Envelope{
		ID:        uuid.New().String(),
		Event:     name,
		Timestamp: at.UTC(),
		Data:      data,
	}, nil
}

// Encode returns the wire form of the envelope
func (e *Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// ParseCommand decodes an inbound frame into its typed command
func ParseCommand(raw []byte) (Name, interface{}, error) {
	var env InboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", nil, fmt.Errorf("malformed message: %w", err)
	}

	switch env.Event {
	case CommandJoin:
		var cmd JoinCommand
		err := decodeData(env.Data, &cmd)
		return env.Event, cmd, err
	case CommandCreatePoll:
		var cmd CreatePollCommand
		err := decodeData(env.Data, &cmd)
		return env.Event, cmd, err
	case CommandSubmitAnswer:
		var cmd SubmitAnswerCommand
		err := decodeData(env.Data, &cmd)
		return env.Event, cmd, err
	case CommandEndPoll:
		return env.Event, EndPollCommand{}, nil
	case CommandForceBroadcast:
		return env.Event, ForceBroadcastCommand{}, nil
	case CommandKickStudent:
		var cmd KickStudentCommand
		err := decodeData(env.Data, &cmd)
		return env.Event, cmd, err
	case CommandRequestRoster:
		return env.Event, RequestRosterCommand{}, nil
	case "":
		return "", nil, fmt.Errorf("%w: missing event name", ErrUnknownCommand)
	default:
		return env.Event, nil, fmt.Errorf("%w: %q", ErrUnknownCommand, env.Event)
	}
}

func decodeData(data json.RawMessage, into interface{}) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, into); err != nil {
		return fmt.Errorf("malformed payload: %w", err)
	}
	return nil
}
