package session

import (
	"math"
	"slices"
	"time"
)

// Poll is one active question. It only exists between create and close.
type Poll struct {
	ID         uint64
	Question   string
	Options    []string
	Duration   time.Duration // zero means no auto-expiry
	Tally      map[string]int
	AnsweredBy map[string]struct{}
	CreatedAt  time.Time
}

// FreeText reports whether any answer text is accepted
func (p *Poll) FreeText() bool {
	return len(p.Options) == 0
}

// Expires reports whether the poll has a deadline
func (p *Poll) Expires() bool {
	return p.Duration > 0
}

// Deadline returns the instant the poll auto-closes, zero if it never does
func (p *Poll) Deadline() time.Time {
	if !p.Expires() {
		return time.Time{}
	}
	return p.CreatedAt.Add(p.Duration)
}

// Remaining returns whole seconds left before expiry, rounded up, never negative
func (p *Poll) Remaining(now time.Time) int {
	if !p.Expires() {
		return 0
	}
	left := p.Deadline().Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Seconds()))
}

// HasAnswered reports whether participantID already submitted
func (p *Poll) HasAnswered(participantID string) bool {
	_, ok := p.AnsweredBy[participantID]
	return ok
}

// TallySnapshot returns a copy of the tally safe to hand to encoders
func (p *Poll) TallySnapshot() map[string]int {
	out := make(map[string]int, len(p.Tally))
	for answer, count := range p.Tally {
		out[answer] = count
	}
	return out
}

// Total is the number of answers counted
func (p *Poll) Total() int {
	total := 0
	for _, count := range p.Tally {
		total += count
	}
	return total
}

func (p *Poll) acceptsAnswer(answer string) bool {
	return p.FreeText() || slices.Contains(p.Options, answer)
}
