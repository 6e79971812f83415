package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Prabhsingh0401/Polling-System/go/internal/poll/events"
)

type fakeState struct {
	snap events.StateSnapshot
	err  error
}

func (f *fakeState) Snapshot(ctx context.Context) (events.StateSnapshot, error) {
	return f.snap, f.err
}

type fakeMirror struct {
	connected bool
}

func (f *fakeMirror) Connected() bool { return f.connected }
func (f *fakeMirror) Stats() (uint64, uint64, time.Time) {
	return 3, 1, time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
}

func activeSnapshot() events.StateSnapshot {
	remaining := 7
	return events.StateSnapshot{
		Active:    true,
		SessionID: 2,
		Poll: &events.PollPayload{
			Question:         "Capital of France?",
			Options:          []string{},
			Responses:        map[string]int{"Paris": 1},
			SecondsRemaining: &remaining,
		},
		Roster:      []string{"alice", "bob"},
		Teachers:    1,
		Students:    2,
		Connections: 3,
	}
}

func newTestServer(t *testing.T, state StateProvider) *httptest.Server {
	t.Helper()
	app := NewApp(state)

	r := chi.NewRouter()
	NewHandlers(app).RegisterRoutes(r)
	path, handler := NewAdminServiceHandler(NewService(app))
	r.Mount(path, handler)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func TestHandlers_Status(t *testing.T) {
	srv := newTestServer(t, &fakeState{})

	resp, err := http.Get(srv.URL + "/api/poll/status")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	want := map[string]interface{}{"success": true, "message": "Poll status fetched successfully!"}
	if diff := cmp.Diff(want, decodeBody(t, resp)); diff != "" {
		t.Fatalf("body (-want +got):\n%s", diff)
	}
}

func TestHandlers_Create(t *testing.T) {
	srv := newTestServer(t, &fakeState{})

	tests := []struct {
		name       string
		body       string
		wantStatus int
		want       map[string]interface{}
	}{
		{
			name:       "ok",
			body:       `{"question":"Capital of France?"}`,
			wantStatus: http.StatusOK,
			want:       map[string]interface{}{"success": true, "message": "Poll created successfully!", "question": "Capital of France?"},
		},
		{
			name:       "missing_question",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			want:       map[string]interface{}{"success": false, "error": "Question is required"},
		},
		{
			name:       "not_json",
			body:       `question=hi`,
			wantStatus: http.StatusBadRequest,
			want:       map[string]interface{}{"success": false, "error": "invalid request"},
		},
	}

	for _, tt := range tests {
		resp, err := http.Post(srv.URL+"/api/poll/create", "application/json", strings.NewReader(tt.body))
		if err != nil {
			t.Fatalf("%s: POST: %v", tt.name, err)
		}
		if resp.StatusCode != tt.wantStatus {
			t.Fatalf("%s: status=%d want %d", tt.name, resp.StatusCode, tt.wantStatus)
		}
		if diff := cmp.Diff(tt.want, decodeBody(t, resp)); diff != "" {
			t.Fatalf("%s: body (-want +got):\n%s", tt.name, diff)
		}
	}
}

func TestHandlers_State(t *testing.T) {
	srv := newTestServer(t, &fakeState{snap: activeSnapshot()})

	resp, err := http.Get(srv.URL + "/api/poll/state")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var got events.StateSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(activeSnapshot(), got); diff != "" {
		t.Fatalf("snapshot (-want +got):\n%s", diff)
	}
}

func TestHandlers_StateUnavailable(t *testing.T) {
	srv := newTestServer(t, &fakeState{err: context.Canceled})

	resp, err := http.Get(srv.URL + "/api/poll/state")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", resp.StatusCode)
	}
}

func TestService_RPC(t *testing.T) {
	srv := newTestServer(t, &fakeState{snap: activeSnapshot()})
	ctx := context.Background()

	status := connect.NewClient[emptypb.Empty, structpb.Struct](srv.Client(), srv.URL+AdminServiceGetStatusProcedure)
	res, err := status.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if got := res.Msg.GetFields()["message"].GetStringValue(); got != "Poll status fetched successfully!" {
		t.Fatalf("message=%q", got)
	}

	create := connect.NewClient[structpb.Struct, structpb.Struct](srv.Client(), srv.URL+AdminServiceCreatePollProcedure)
	in, err := structpb.NewStruct(map[string]interface{}{"question": "Q?"})
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	created, err := create.CallUnary(ctx, connect.NewRequest(in))
	if err != nil {
		t.Fatalf("CreatePoll: %v", err)
	}
	if got := created.Msg.GetFields()["question"].GetStringValue(); got != "Q?" {
		t.Fatalf("question=%q", got)
	}

	_, err = create.CallUnary(ctx, connect.NewRequest(&structpb.Struct{}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Fatalf("missing question: expected invalid_argument, got %v", err)
	}

	state := connect.NewClient[emptypb.Empty, structpb.Struct](srv.Client(), srv.URL+AdminServiceGetStateProcedure)
	snap, err := state.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	fields := snap.Msg.GetFields()
	if !fields["active"].GetBoolValue() || fields["students"].GetNumberValue() != 2 {
		t.Fatalf("unexpected snapshot: %v", snap.Msg)
	}
	if n := len(fields["roster"].GetListValue().GetValues()); n != 2 {
		t.Fatalf("roster size=%d", n)
	}
}

func TestService_UnknownProcedure(t *testing.T) {
	srv := newTestServer(t, &fakeState{})

	resp, err := http.Post(srv.URL+"/"+AdminServiceName+"/DropTables", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status=%d", resp.StatusCode)
	}
}

func TestHealthChecker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		state       *fakeState
		mirror      MirrorStatus
		wantHealthy bool
		wantStatus  int
	}{
		{"no_mirror", &fakeState{snap: activeSnapshot()}, nil, true, http.StatusOK},
		{"mirror_up", &fakeState{snap: activeSnapshot()}, &fakeMirror{connected: true}, true, http.StatusOK},
		{"mirror_down", &fakeState{snap: activeSnapshot()}, &fakeMirror{connected: false}, false, http.StatusServiceUnavailable},
		{"loop_stopped", &fakeState{err: errors.New("stopped")}, nil, false, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		checker := NewHealthChecker(tt.state, tt.mirror)
		rec := httptest.NewRecorder()
		checker.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		if rec.Code != tt.wantStatus {
			t.Fatalf("%s: status=%d want %d", tt.name, rec.Code, tt.wantStatus)
		}
		var status HealthStatus
		if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
			t.Fatalf("%s: decode: %v", tt.name, err)
		}
		if status.Healthy != tt.wantHealthy {
			t.Fatalf("%s: healthy=%v errors=%v", tt.name, status.Healthy, status.Errors)
		}
		if tt.mirror != nil && status.EventsMirrored != 3 {
			t.Fatalf("%s: events_mirrored=%d", tt.name, status.EventsMirrored)
		}
	}
}
