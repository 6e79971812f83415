package events

import (
	"encoding/json"
	"fmt"
)

// JoinCommand declares the role of a connection and, for students, its display name
type JoinCommand struct {
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
}

// CreatePollCommand opens a new poll. Empty Options means free-text answers,
// a nil Duration means no auto-expiry.
type CreatePollCommand struct {
	Question string   `json:"question"`
	Options  []string `json:"options,omitempty"`
	Duration *int     `json:"duration,omitempty"`
}

// SubmitAnswerCommand records one answer for a participant
type SubmitAnswerCommand struct {
	StudentID string `json:"studentId"`
	Answer    string `json:"answer"`
}

// EndPollCommand closes the active poll
type EndPollCommand struct{}

// ForceBroadcastCommand re-sends the active poll to every connection
type ForceBroadcastCommand struct{}

// RequestRosterCommand asks for the current roster
type RequestRosterCommand struct{}

// KickStudentCommand removes a student by display name
type KickStudentCommand struct {
	Name string `json:"name"`
}

// UnmarshalJSON accepts both {"name": "bob"} and a bare "bob"
func (k *KickStudentCommand) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		k.Name = name
		return nil
	}

	type plain KickStudentCommand
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("kickStudent payload must be a name or {\"name\": ...}: %w", err)
	}
	*k = KickStudentCommand(p)
	return nil
}
