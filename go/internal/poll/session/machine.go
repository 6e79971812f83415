package session

import (
	"strings"
	"time"
)

// Spec holds the validated inputs for a new poll
type Spec struct {
	Question string
	Options  []string
	Duration time.Duration
}

// Machine is the Idle/Active state machine for the single active poll.
// It is not safe for concurrent use; the coordinator serialises access.
type Machine struct {
	current *Poll
	lastID  uint64
}

// NewMachine returns a machine in the Idle state
func NewMachine() *Machine {
	return &Machine{}
}

// Current returns the active poll or nil when Idle
func (m *Machine) Current() *Poll {
	return m.current
}

// Active reports whether a poll is open
func (m *Machine) Active() bool {
	return m.current != nil
}

// IsCurrent reports whether id names the poll that is open right now
func (m *Machine) IsCurrent(id uint64) bool {
	return m.current != nil && m.current.ID == id
}

// Create opens a poll. Legal only while Idle.
func (m *Machine) Create(spec Spec, now time.Time) (*Poll, error) {
	if m.current != nil {
		return nil, Conflict("poll already active")
	}

	question := strings.TrimSpace(spec.Question)
	if question == "" {
		return nil, Validation("question is required")
	}
	if spec.Duration < 0 {
		return nil, Validation("duration must be positive")
	}

	options := make([]string, 0, len(spec.Options))
	seen := make(map[string]struct{}, len(spec.Options))
	for _, opt := range spec.Options {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}
		if _, dup := seen[opt]; dup {
			return nil, Validation("duplicate option %q", opt)
		}
		seen[opt] = struct{}{}
		options = append(options, opt)
	}

	m.lastID++
	m.current = &Poll{
		ID:         m.lastID,
		Question:   question,
		Options:    options,
		Duration:   spec.Duration,
		Tally:      make(map[string]int),
		AnsweredBy: make(map[string]struct{}),
		CreatedAt:  now,
	}
	return m.current, nil
}

// Submit records participantID's answer. Each participant is counted once per poll.
func (m *Machine) Submit(participantID, answer string) (*Poll, error) {
	if m.current == nil {
		return nil, InvalidState("no active poll")
	}

	participantID = strings.TrimSpace(participantID)
	answer = strings.TrimSpace(answer)
	if participantID == "" {
		return nil, Validation("studentId is required")
	}
	if answer == "" {
		return nil, Validation("answer is required")
	}

	p := m.current
	if p.HasAnswered(participantID) {
		return nil, Duplicate("%s has already answered", participantID)
	}
	if !p.acceptsAnswer(answer) {
		return nil, Validation("%q is not one of the options", answer)
	}

	if _, ok := p.Tally[answer]; !ok {
		p.Tally[answer] = 0
	}
	p.Tally[answer]++
	p.AnsweredBy[participantID] = struct{}{}
	return p, nil
}

// Close ends the active poll and returns it with its final tally.
// The machine is Idle afterwards.
func (m *Machine) Close() (*Poll, error) {
	if m.current == nil {
		return nil, InvalidState("no active poll")
	}
	closed := m.current
	m.current = nil
	return closed, nil
}
