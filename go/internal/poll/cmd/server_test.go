package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/Prabhsingh0401/Polling-System/go/internal/poll/config"
	"github.com/Prabhsingh0401/Polling-System/go/internal/poll/coordinator"
	"github.com/Prabhsingh0401/Polling-System/go/internal/poll/events"
	"github.com/Prabhsingh0401/Polling-System/go/internal/poll/gateway"
)

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.DefaultConfig()

	connections := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	opts := coordinator.DefaultOptions()
	opts.Clock = clockwork.NewFakeClock()
	coord := coordinator.New(connections, opts)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = coord.Run(ctx)
	}()

	srv := httptest.NewServer(setupServer(&cfg, connections, coord, nil).Handler)
	t.Cleanup(func() {
		connections.CloseAll()
		srv.Close()
		cancel()
		<-done
	})
	return srv
}

func readUntil(t *testing.T, conn *websocket.Conn, name events.Name) events.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s: %v", name, err)
		}
		var env events.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		if env.Event == name {
			return env
		}
	}
}

func TestServer_TestAndHealthRoutes(t *testing.T) {
	srv := startServer(t)

	resp, err := http.Get(srv.URL + "/test")
	if err != nil {
		t.Fatalf("GET /test: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "Server is working!" {
		t.Fatalf("body=%q", body)
	}

	resp, err = http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status=%d", resp.StatusCode)
	}
}

func TestServer_WebSocketSession(t *testing.T) {
	srv := startServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	teacher, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial teacher: %v", err)
	}
	defer teacher.Close()
	student, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial student: %v", err)
	}
	defer student.Close()

	teacher.WriteMessage(websocket.TextMessage, []byte(`{"event":"join","data":{"role":"teacher"}}`))
	readUntil(t, teacher, events.EventRosterList)

	student.WriteMessage(websocket.TextMessage, []byte(`{"event":"join","data":{"role":"student","name":"alice"}}`))
	joined := readUntil(t, teacher, events.EventStudentJoined)
	if !strings.Contains(string(joined.Data), `"alice"`) {
		t.Fatalf("studentJoined=%s", joined.Data)
	}

	teacher.WriteMessage(websocket.TextMessage, []byte(`{"event":"createPoll","data":{"question":"Capital of France?","duration":30}}`))
	created := readUntil(t, student, events.EventPollCreated)
	var poll events.PollPayload
	if err := json.Unmarshal(created.Data, &poll); err != nil {
		t.Fatalf("decode pollCreated: %v", err)
	}
	if poll.Question != "Capital of France?" || poll.Duration == nil || *poll.Duration != 30 {
		t.Fatalf("pollCreated=%+v", poll)
	}

	student.WriteMessage(websocket.TextMessage, []byte(`{"event":"submitAnswer","data":{"studentId":"alice","answer":"Paris"}}`))
	updated := readUntil(t, teacher, events.EventPollUpdated)
	if !strings.Contains(string(updated.Data), `"Paris":1`) {
		t.Fatalf("pollUpdated=%s", updated.Data)
	}

	resp, err := http.Get(srv.URL + "/api/poll/state")
	if err != nil {
		t.Fatalf("GET state: %v", err)
	}
	defer resp.Body.Close()
	var snap events.StateSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if !snap.Active || snap.Poll.Responses["Paris"] != 1 || snap.Teachers != 1 || snap.Students != 1 {
		t.Fatalf("state=%+v", snap)
	}

	teacher.WriteMessage(websocket.TextMessage, []byte(`{"event":"kickStudent","data":"alice"}`))
	readUntil(t, student, events.EventKicked)
	student.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := student.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("expected the kicked connection to close, got %v", err)
	}
}
