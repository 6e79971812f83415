package events

// Outbound payload types shared by the coordinator, the gateway and the admin surface

// PollPayload describes the active poll. It is the body of pollCreated,
// pollUpdated and pollResults.
type PollPayload struct {
	Question         string         `json:"question"`
	Options          []string       `json:"options"`
	Duration         *int           `json:"duration,omitempty"`
	Responses        map[string]int `json:"responses"`
	SecondsRemaining *int           `json:"secondsRemaining,omitempty"`
}

// TimeUpdatePayload is a countdown tick
type TimeUpdatePayload struct {
	SecondsRemaining int `json:"secondsRemaining"`
}

// RosterPayload lists the joined students in join order
type RosterPayload struct {
	Names []string `json:"names"`
}

// StudentPayload names a single student
type StudentPayload struct {
	Name string `json:"name"`
}

// KickedPayload is sent to a connection right before it is terminated
type KickedPayload struct{}

// ErrorPayload reports a rejected command to the connection that sent it
type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// StateSnapshot is a settled, read-only view of the live session state
type StateSnapshot struct {
	Active      bool         `json:"active"`
	SessionID   uint64       `json:"session_id,omitempty"`
	Poll        *PollPayload `json:"poll,omitempty"`
	Roster      []string     `json:"roster"`
	Teachers    int          `json:"teachers"`
	Students    int          `json:"students"`
	Connections int          `json:"connections"`
}
