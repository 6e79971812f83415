package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Prabhsingh0401/Polling-System/go/internal/poll/events"
)

// ErrQuestionRequired is returned by CreatePoll when no question is given
var ErrQuestionRequired = errors.New("Question is required")

const (
	statusMessage  = "Poll status fetched successfully!"
	createdMessage = "Poll created successfully!"
)

// StateProvider reads the live session state
type StateProvider interface {
	Snapshot(ctx context.Context) (events.StateSnapshot, error)
}

// StatusResult is returned by Status
type StatusResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CreateResult is returned by CreatePoll
type CreateResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Question string `json:"question"`
}

// App answers the request/response surface. It never mutates live state;
// polls are only opened over the websocket.
type App struct {
	state StateProvider
}

// NewApp creates a new admin App
func NewApp(state StateProvider) *App {
	return &App{
		state: state,
	}
}

// Status acknowledges the server is reachable
func (a *App) Status(ctx context.Context) StatusResult {
	return StatusResult{Success: true, Message: statusMessage}
}

// CreatePoll validates a question and echoes it back
func (a *App) CreatePoll(ctx context.Context, question string) (CreateResult, error) {
	if strings.TrimSpace(question) == "" {
		return CreateResult{}, ErrQuestionRequired
	}

	log.Info().Str("question", question).Msg("poll create request acknowledged")
	return CreateResult{Success: true, Message: createdMessage, Question: question}, nil
}

// State returns a consistent snapshot of the live session
func (a *App) State(ctx context.Context) (events.StateSnapshot, error) {
	snap, err := a.state.Snapshot(ctx)
	if err != nil {
		return events.StateSnapshot{}, fmt.Errorf("read session state: %w", err)
	}
	return snap, nil
}
