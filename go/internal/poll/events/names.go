package events

// Name identifies a named message exchanged with a client
type Name string

// Inbound command names
const (
	CommandJoin           Name = "join"
	CommandCreatePoll     Name = "createPoll"
	CommandSubmitAnswer   Name = "submitAnswer"
	CommandEndPoll        Name = "endPoll"
	CommandForceBroadcast Name = "forceBroadcast"
	CommandKickStudent    Name = "kickStudent"
	CommandRequestRoster  Name = "requestRoster"
)

// Outbound event names
const (
	EventPollCreated   Name = "pollCreated"
	EventPollUpdated   Name = "pollUpdated"
	EventPollResults   Name = "pollResults"
	EventTimeUpdate    Name = "timeUpdate"
	EventRosterList    Name = "rosterList"
	EventStudentJoined Name = "studentJoined"
	EventStudentLeft   Name = "studentLeft"
	EventKicked        Name = "kicked"
	EventError         Name = "error"
)

// Mirrored reports whether an event is part of the public session history
// that gets mirrored to the message bus. Countdown ticks are excluded.
func Mirrored(name Name) bool {
	switch name {
	case EventPollCreated, EventPollUpdated, EventPollResults,
		EventStudentJoined, EventStudentLeft, EventRosterList:
		return true
	default:
		return false
	}
}
