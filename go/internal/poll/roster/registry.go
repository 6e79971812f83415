package roster

import (
	"fmt"
	"strings"
	"time"
)

// Role is the declared role of a connection
type Role string

const (
	RoleNone    Role = ""
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// ParseRole validates a role sent by a client
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleTeacher:
		return RoleTeacher, nil
	case RoleStudent:
		return RoleStudent, nil
	default:
		return RoleNone, fmt.Errorf("unknown role %q", s)
	}
}

// Entry is one live connection
type Entry struct {
	ConnectionID string
	Role         Role
	DisplayName  string // students only
	ConnectedAt  time.Time
}

// IsStudent reports whether the entry is a named student
func (e Entry) IsStudent() bool {
	return e.Role == RoleStudent && e.DisplayName != ""
}

// Registry tracks every live connection in registration order
type Registry struct {
	entries map[string]*Entry
	order   []string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
	}
}

// Register adds a connection with no role. Registering twice is a no-op.
func (r *Registry) Register(connectionID string, at time.Time) {
	if _, exists := r.entries[connectionID]; exists {
		return
	}
	r.entries[connectionID] = &Entry{ConnectionID: connectionID, ConnectedAt: at}
	r.order = append(r.order, connectionID)
}

// SetRole overwrites the role of a connection, registering it if needed,
// and returns the entry as it was before the call.
func (r *Registry) SetRole(connectionID string, role Role, displayName string, at time.Time) Entry {
	r.Register(connectionID, at)
	entry := r.entries[connectionID]
	prev := *entry

	entry.Role = role
	if role == RoleStudent {
		entry.DisplayName = displayName
	} else {
		entry.DisplayName = ""
	}
	return prev
}

// Unregister removes a connection and returns its last entry
func (r *Registry) Unregister(connectionID string) (Entry, bool) {
	entry, exists := r.entries[connectionID]
	if !exists {
		return Entry{}, false
	}
	delete(r.entries, connectionID)
	for i, id := range r.order {
		if id == connectionID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return *entry, true
}

// Get returns the entry for a connection
func (r *Registry) Get(connectionID string) (Entry, bool) {
	entry, exists := r.entries[connectionID]
	if !exists {
		return Entry{}, false
	}
	return *entry, true
}

// IDs returns every live connection id
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// WithRole returns the ids of connections that declared role
func (r *Registry) WithRole(role Role) []string {
	var out []string
	for _, id := range r.order {
		if r.entries[id].Role == role {
			out = append(out, id)
		}
	}
	return out
}

// StudentConnections returns the ids of student connections using name
func (r *Registry) StudentConnections(name string) []string {
	var out []string
	for _, id := range r.order {
		entry := r.entries[id]
		if entry.Role == RoleStudent && entry.DisplayName == name {
			out = append(out, id)
		}
	}
	return out
}

// Counts returns the number of teacher and student connections
func (r *Registry) Counts() (teachers, students int) {
	for _, entry := range r.entries {
		switch entry.Role {
		case RoleTeacher:
			teachers++
		case RoleStudent:
			students++
		}
	}
	return teachers, students
}

// Len is the number of live connections
func (r *Registry) Len() int {
	return len(r.entries)
}
