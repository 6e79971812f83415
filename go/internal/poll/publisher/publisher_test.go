package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/Prabhsingh0401/Polling-System/go/internal/poll/events"
)

type fakeJetStream struct {
	mu   sync.Mutex
	msgs []*nats.Msg
	fail bool
}

func (f *fakeJetStream) PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("no responders")
	}
	f.msgs = append(f.msgs, msg)
	return &jetstream.PubAck{Stream: "POLL_EVENTS", Sequence: uint64(len(f.msgs))}, nil
}

func (f *fakeJetStream) subjects() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.msgs))
	for _, m := range f.msgs {
		out = append(out, m.Subject)
	}
	return out
}

func mustEnvelope(t *testing.T, name events.Name) *events.Envelope {
	t.Helper()
	env, err := events.NewEnvelope(name, events.StudentPayload{Name: "bob"}, time.Now())
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	return env
}

func TestSubject(t *testing.T) {
	if got := Subject("poll.events", events.EventPollResults); got != "poll.events.pollResults" {
		t.Fatalf("subject=%q", got)
	}
}

func TestPublish_DropsWhenQueueFull(t *testing.T) {
	cfg := DefaultJetStreamConfig()
	cfg.QueueSize = 1
	p := newPublisher(&fakeJetStream{}, cfg)

	p.Publish(mustEnvelope(t, events.EventPollCreated))
	p.Publish(mustEnvelope(t, events.EventPollUpdated))
	p.Publish(mustEnvelope(t, events.EventPollResults))

	published, dropped, _ := p.Stats()
	if published != 0 || dropped != 2 {
		t.Fatalf("published=%d dropped=%d", published, dropped)
	}
}

func TestRun_PublishesInOrder(t *testing.T) {
	js := &fakeJetStream{}
	p := newPublisher(js, DefaultJetStreamConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()

	first := mustEnvelope(t, events.EventStudentJoined)
	p.Publish(first)
	p.Publish(mustEnvelope(t, events.EventPollCreated))

	deadline := time.Now().Add(2 * time.Second)
	for len(js.subjects()) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	want := []string{"poll.events.studentJoined", "poll.events.pollCreated"}
	got := js.subjects()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("subjects=%v want %v", got, want)
	}

	js.mu.Lock()
	header := js.msgs[0].Header.Get("Event-ID")
	js.mu.Unlock()
	if header != first.ID {
		t.Fatalf("Event-ID header=%q want %q", header, first.ID)
	}

	published, _, last := p.Stats()
	if published != 2 || last.IsZero() {
		t.Fatalf("published=%d last=%v", published, last)
	}
	if p.Connected() {
		t.Fatalf("publisher without a NATS connection must not report connected")
	}
}

func TestRun_FailedPublishIsNotCounted(t *testing.T) {
	js := &fakeJetStream{fail: true}
	p := newPublisher(js, DefaultJetStreamConfig())

	if err := p.publish(context.Background(), mustEnvelope(t, events.EventPollResults)); err == nil {
		t.Fatalf("expected an error")
	}
	if published, _, _ := p.Stats(); published != 0 {
		t.Fatalf("published=%d", published)
	}
}
