package coordinator

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Timers starts and cancels the countdown bound to a poll
type Timers interface {
	Start(sessionID uint64, d time.Duration)
	Cancel(sessionID uint64)
}

// expiryTimers runs one ticker per poll. Each tick is handed back to the
// coordinator loop, which decides whether the poll is still current; the
// ticker goroutine itself never touches session state. Start and Cancel are
// only called from the loop goroutine.
type expiryTimers struct {
	clock    clockwork.Clock
	interval time.Duration
	tick     func(sessionID uint64) bool
	active   map[uint64]chan struct{}
}

func newExpiryTimers(clock clockwork.Clock, interval time.Duration, tick func(sessionID uint64) bool) *expiryTimers {
	return &expiryTimers{
		clock:    clock,
		interval: interval,
		tick:     tick,
		active:   make(map[uint64]chan struct{}),
	}
}

func (t *expiryTimers) Start(sessionID uint64, d time.Duration) {
	t.Cancel(sessionID)

	stop := make(chan struct{})
	t.active[sessionID] = stop
	ticker := t.clock.NewTicker(t.interval)

	go func(id uint64) {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				if !t.tick(id) {
					return
				}
			case <-stop:
				return
			}
		}
	}(sessionID)

	log.Debug().
		Uint64("session_id", sessionID).
		Dur("duration", d).
		Dur("interval", t.interval).
		Msg("expiry timer started")
}

func (t *expiryTimers) Cancel(sessionID uint64) {
	stop, exists := t.active[sessionID]
	if !exists {
		return
	}
	close(stop)
	delete(t.active, sessionID)
	log.Debug().Uint64("session_id", sessionID).Msg("expiry timer cancelled")
}

func (t *expiryTimers) CancelAll() {
	for id := range t.active {
		t.Cancel(id)
	}
}

// Running is the number of live timers
func (t *expiryTimers) Running() int {
	return len(t.active)
}
