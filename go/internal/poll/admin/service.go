package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// AdminServiceName is the fully-qualified name of the admin service
	AdminServiceName = "livepoll.admin.v1.AdminService"

	AdminServiceGetStatusProcedure  = "/" + AdminServiceName + "/GetStatus"
	AdminServiceCreatePollProcedure = "/" + AdminServiceName + "/CreatePoll"
	AdminServiceGetStateProcedure   = "/" + AdminServiceName + "/GetState"
)

// Service implements the admin RPC service on top of the App
type Service struct {
	app *App
}

// NewService creates a new admin RPC service
func NewService(app *App) *Service {
	return &Service{
		app: app,
	}
}

// GetStatus acknowledges the server is reachable
func (s *Service) GetStatus(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[structpb.Struct], error) {
	status := s.app.Status(ctx)
	out, err := structpb.NewStruct(map[string]interface{}{
		"success": status.Success,
		"message": status.Message,
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(out), nil
}

// CreatePoll validates a question and echoes it back
func (s *Service) CreatePoll(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	question := req.Msg.GetFields()["question"].GetStringValue()

	res, err := s.app.CreatePoll(ctx, question)
	if errors.Is(err, ErrQuestionRequired) {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	out, err := structpb.NewStruct(map[string]interface{}{
		"success":  res.Success,
		"message":  res.Message,
		"question": res.Question,
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(out), nil
}

// GetState returns the live session snapshot
func (s *Service) GetState(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[structpb.Struct], error) {
	snap, err := s.app.State(ctx)
	if err != nil {
		return nil, connect.NewError(connect.CodeUnavailable, err)
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("convert snapshot: %w", err))
	}
	return connect.NewResponse(out), nil
}

// NewAdminServiceHandler builds an HTTP handler serving every admin
// procedure. It returns the path prefix to mount it on.
func NewAdminServiceHandler(svc *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	getStatus := connect.NewUnaryHandler(AdminServiceGetStatusProcedure, svc.GetStatus, opts...)
	createPoll := connect.NewUnaryHandler(AdminServiceCreatePollProcedure, svc.CreatePoll, opts...)
	getState := connect.NewUnaryHandler(AdminServiceGetStateProcedure, svc.GetState, opts...)

	return "/" + AdminServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case AdminServiceGetStatusProcedure:
			getStatus.ServeHTTP(w, r)
		case AdminServiceCreatePollProcedure:
			createPoll.ServeHTTP(w, r)
		case AdminServiceGetStateProcedure:
			getState.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
