package coordinator

import (
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/Prabhsingh0401/Polling-System/go/internal/poll/events"
	"github.com/Prabhsingh0401/Polling-System/go/internal/poll/roster"
	"github.com/Prabhsingh0401/Polling-System/go/internal/poll/session"
)

// State is the single owned aggregate of live session state: the connection
// registry, the roster and the poll state machine. Every method is one atomic
// transition; none of them may be called concurrently.
type State struct {
	registry    *roster.Registry
	roster      *roster.Roster
	polls       *session.Machine
	timers      Timers
	clock       clockwork.Clock
	maxDuration time.Duration
}

// NewState creates an Idle state with nobody connected. maxDuration of zero
// means poll durations are unbounded.
func NewState(clock clockwork.Clock, timers Timers, maxDuration time.Duration) *State {
	return &State{
		registry:    roster.NewRegistry(),
		roster:      roster.New(),
		polls:       session.NewMachine(),
		timers:      timers,
		clock:       clock,
		maxDuration: maxDuration,
	}
}

// Registry exposes the connection registry for audience resolution
func (s *State) Registry() *roster.Registry {
	return s.registry
}

// Handle routes a decoded command to its handler
func (s *State) Handle(connectionID string, name events.Name, cmd interface{}) ([]Instruction, error) {
	// A kicked connection may still have frames in flight.
	if _, ok := s.registry.Get(connectionID); !ok {
		return nil, session.InvalidState("connection is not registered")
	}

	switch c := cmd.(type) {
	case events.JoinCommand:
		return s.Join(connectionID, c)
	case events.CreatePollCommand:
		return s.CreatePoll(connectionID, c)
	case events.SubmitAnswerCommand:
		return s.SubmitAnswer(connectionID, c)
	case events.EndPollCommand:
		return s.ClosePoll(connectionID)
	case events.ForceBroadcastCommand:
		return s.ResendCurrent(connectionID), nil
	case events.KickStudentCommand:
		return s.Kick(connectionID, c)
	case events.RequestRosterCommand:
		return s.RequestRoster(connectionID), nil
	default:
		return nil, session.Validation("unsupported command %q", name)
	}
}

// Connect registers a new connection and replays the active poll to it
func (s *State) Connect(connectionID string) []Instruction {
	s.registry.Register(connectionID, s.clock.Now())

	teachers, students := s.registry.Counts()
	log.Info().
		Str("connection_id", connectionID).
		Int("connections", s.registry.Len()).
		Int("teachers", teachers).
		Int("students", students).
		Msg("client connected")

	if p := s.polls.Current(); p != nil {
		return []Instruction{toConnection(connectionID, events.EventPollCreated, s.replayPayload(p))}
	}
	return nil
}

// Disconnect forgets a connection. A student's name leaves the roster once
// no other live connection holds it.
func (s *State) Disconnect(connectionID string) []Instruction {
	entry, ok := s.registry.Unregister(connectionID)
	if !ok {
		return nil
	}

	var out []Instruction
	if entry.IsStudent() && s.roster.Remove(entry.DisplayName) {
		out = append(out, toRole(roster.RoleTeacher, events.EventStudentLeft, events.StudentPayload{Name: entry.DisplayName}))
	}

	teachers, students := s.registry.Counts()
	log.Info().
		Str("connection_id", connectionID).
		Str("role", string(entry.Role)).
		Str("name", entry.DisplayName).
		Int("teachers", teachers).
		Int("students", students).
		Msg("client disconnected")

	return out
}

// Join declares the role of a connection. Repeating a join overwrites the
// role; a student keeping the same name does not re-notify anyone.
func (s *State) Join(connectionID string, cmd events.JoinCommand) ([]Instruction, error) {
	role, err := roster.ParseRole(cmd.Role)
	if err != nil {
		return nil, session.Validation("%v", err)
	}
	name := strings.TrimSpace(cmd.Name)
	if role == roster.RoleStudent && name == "" {
		return nil, session.Validation("name is required")
	}

	prev := s.registry.SetRole(connectionID, role, name, s.clock.Now())
	sameStudent := prev.IsStudent() && role == roster.RoleStudent && prev.DisplayName == name

	var out []Instruction
	if prev.IsStudent() && !sameStudent && s.roster.Remove(prev.DisplayName) {
		out = append(out, toRole(roster.RoleTeacher, events.EventStudentLeft, events.StudentPayload{Name: prev.DisplayName}))
	}

	switch role {
	case roster.RoleStudent:
		if !sameStudent && s.roster.Add(name) {
			out = append(out, toRole(roster.RoleTeacher, events.EventStudentJoined, events.StudentPayload{Name: name}))
			log.Info().Str("connection_id", connectionID).Str("name", name).Msg("student joined")
		}
		if p := s.polls.Current(); p != nil {
			out = append(out, toConnection(connectionID, events.EventPollCreated, s.replayPayload(p)))
		}
	case roster.RoleTeacher:
		out = append(out, toConnection(connectionID, events.EventRosterList, s.rosterPayload()))
		log.Info().Str("connection_id", connectionID).Msg("teacher joined")
	}

	return out, nil
}

// RequestRoster sends the current roster to the caller
func (s *State) RequestRoster(connectionID string) []Instruction {
	return []Instruction{toConnection(connectionID, events.EventRosterList, s.rosterPayload())}
}

// CreatePoll opens a poll and starts its countdown when a duration is given
func (s *State) CreatePoll(connectionID string, cmd events.CreatePollCommand) ([]Instruction, error) {
	if s.polls.Active() {
		return nil, session.Conflict("poll already active")
	}

	spec := session.Spec{Question: cmd.Question, Options: cmd.Options}
	if cmd.Duration != nil {
		if *cmd.Duration <= 0 {
			return nil, session.Validation("duration must be a positive number of seconds")
		}
		spec.Duration = time.Duration(*cmd.Duration) * time.Second
		if s.maxDuration > 0 && spec.Duration > s.maxDuration {
			return nil, session.Validation("duration must not exceed %d seconds", int(s.maxDuration/time.Second))
		}
	}

	p, err := s.polls.Create(spec, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if p.Expires() {
		s.timers.Start(p.ID, p.Duration)
	}

	log.Info().
		Str("connection_id", connectionID).
		Uint64("session_id", p.ID).
		Str("question", p.Question).
		Int("options", len(p.Options)).
		Dur("duration", p.Duration).
		Msg("poll created")

	return []Instruction{toAll(events.EventPollCreated, s.createdPayload(p))}, nil
}

// SubmitAnswer counts one answer and broadcasts the new tally
func (s *State) SubmitAnswer(connectionID string, cmd events.SubmitAnswerCommand) ([]Instruction, error) {
	p, err := s.polls.Submit(cmd.StudentID, cmd.Answer)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("connection_id", connectionID).
		Uint64("session_id", p.ID).
		Int("answers", len(p.AnsweredBy)).
		Msg("answer recorded")

	return []Instruction{toAll(events.EventPollUpdated, s.updatedPayload(p))}, nil
}

// ClosePoll is the explicit close command. Closing while Idle is reported to the caller.
func (s *State) ClosePoll(connectionID string) ([]Instruction, error) {
	out, err := s.closeActive()
	if err != nil {
		return nil, err
	}
	log.Info().Str("connection_id", connectionID).Msg("poll closed by request")
	return out, nil
}

// Expire is the timer-triggered close. It is a no-op unless sessionID is
// still the open poll, so a countdown that lost the race against an explicit
// close can never end the next poll.
func (s *State) Expire(sessionID uint64) []Instruction {
	if !s.polls.IsCurrent(sessionID) {
		s.timers.Cancel(sessionID)
		return nil
	}
	out, err := s.closeActive()
	if err != nil {
		return nil
	}
	log.Info().Uint64("session_id", sessionID).Msg("poll expired")
	return out
}

// Tick broadcasts the remaining seconds, or expires the poll at zero
func (s *State) Tick(sessionID uint64) []Instruction {
	if !s.polls.IsCurrent(sessionID) {
		s.timers.Cancel(sessionID)
		return nil
	}

	p := s.polls.Current()
	if !p.Expires() {
		return nil
	}
	remaining := p.Remaining(s.clock.Now())
	if remaining <= 0 {
		return s.Expire(sessionID)
	}
	return []Instruction{toAll(events.EventTimeUpdate, events.TimeUpdatePayload{SecondsRemaining: remaining})}
}

// ResendCurrent re-broadcasts the open poll. It never changes state.
func (s *State) ResendCurrent(connectionID string) []Instruction {
	p := s.polls.Current()
	if p == nil {
		return nil
	}
	log.Debug().Str("connection_id", connectionID).Uint64("session_id", p.ID).Msg("poll re-broadcast")
	return []Instruction{toAll(events.EventPollCreated, s.replayPayload(p))}
}

// Kick terminates every connection holding a student name and drops the
// name from the roster. Only teachers may kick.
func (s *State) Kick(connectionID string, cmd events.KickStudentCommand) ([]Instruction, error) {
	caller, ok := s.registry.Get(connectionID)
	if !ok || caller.Role != roster.RoleTeacher {
		return nil, session.Permission("only teachers can kick students")
	}

	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return nil, session.Validation("name is required")
	}

	targets := s.registry.StudentConnections(name)
	if len(targets) == 0 && !s.roster.Contains(name) {
		return nil, session.Validation("%s is not connected", name)
	}

	out := make([]Instruction, 0, len(targets)+1)
	for _, id := range targets {
		s.registry.Unregister(id)
		kicked := toConnection(id, events.EventKicked, events.KickedPayload{})
		kicked.Terminate = true
		out = append(out, kicked)
	}
	s.roster.Evict(name)
	out = append(out, toRole(roster.RoleTeacher, events.EventRosterList, s.rosterPayload()))

	log.Info().
		Str("connection_id", connectionID).
		Str("name", name).
		Int("connections", len(targets)).
		Msg("student kicked")

	return out, nil
}

// Snapshot returns a copy of the settled state
func (s *State) Snapshot() events.StateSnapshot {
	teachers, students := s.registry.Counts()
	snap := events.StateSnapshot{
		Roster:      s.roster.List(),
		Teachers:    teachers,
		Students:    students,
		Connections: s.registry.Len(),
	}
	if p := s.polls.Current(); p != nil {
		payload := s.replayPayload(p)
		snap.Active = true
		snap.SessionID = p.ID
		snap.Poll = &payload
	}
	return snap
}

func (s *State) closeActive() ([]Instruction, error) {
	p, err := s.polls.Close()
	if err != nil {
		return nil, err
	}
	s.timers.Cancel(p.ID)

	log.Info().
		Uint64("session_id", p.ID).
		Int("answers", p.Total()).
		Msg("poll results published")

	return []Instruction{toAll(events.EventPollResults, s.updatedPayload(p))}, nil
}

func (s *State) createdPayload(p *session.Poll) events.PollPayload {
	payload := events.PollPayload{
		Question:  p.Question,
		Options:   copyOptions(p.Options),
		Responses: map[string]int{},
	}
	if p.Expires() {
		secs := int(p.Duration / time.Second)
		payload.Duration = &secs
	}
	return payload
}

func (s *State) replayPayload(p *session.Poll) events.PollPayload {
	payload := s.createdPayload(p)
	payload.Responses = p.TallySnapshot()
	if p.Expires() {
		remaining := p.Remaining(s.clock.Now())
		payload.SecondsRemaining = &remaining
	}
	return payload
}

func (s *State) updatedPayload(p *session.Poll) events.PollPayload {
	return events.PollPayload{
		Question:  p.Question,
		Options:   copyOptions(p.Options),
		Responses: p.TallySnapshot(),
	}
}

func (s *State) rosterPayload() events.RosterPayload {
	return events.RosterPayload{Names: s.roster.List()}
}

func copyOptions(options []string) []string {
	out := make([]string, len(options))
	copy(out, options)
	return out
}
