package coordinator

import (
	"github.com/Prabhsingh0401/Polling-System/go/internal/poll/events"
	"github.com/Prabhsingh0401/Polling-System/go/internal/poll/roster"
)

// Audience selects which connections receive an instruction
type Audience int

const (
	AudienceAll Audience = iota
	AudienceConnection
	AudienceRole
)

func (a Audience) String() string {
	switch a {
	case AudienceAll:
		return "all"
	case AudienceConnection:
		return "connection"
	case AudienceRole:
		return "role"
	default:
		return "unknown"
	}
}

// Instruction is one outbound event produced by a committed transition
type Instruction struct {
	Audience     Audience
	ConnectionID string      // AudienceConnection only
	Role         roster.Role // AudienceRole only
	Event        events.Name
	Payload      interface{}
	Terminate    bool // close the connection once the event is queued
}

func toAll(name events.Name, payload interface{}) Instruction {
	return Instruction{Audience: AudienceAll, Event: name, Payload: payload}
}

func toConnection(connectionID string, name events.Name, payload interface{}) Instruction {
	return Instruction{Audience: AudienceConnection, ConnectionID: connectionID, Event: name, Payload: payload}
}

func toRole(role roster.Role, name events.Name, payload interface{}) Instruction {
	return Instruction{Audience: AudienceRole, Role: role, Event: name, Payload: payload}
}
