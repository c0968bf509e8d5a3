package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"scriptsmith/internal/service/generate"
)

const (
	ScriptServiceName         = "scriptsmith.v1.ScriptService"
	ScriptServiceGenerateProc = "/" + ScriptServiceName + "/Generate"
)

// NewScriptServiceHandler serves ScriptService/Generate over Connect, gRPC and
// gRPC-Web. Messages are google.protobuf.Struct carrying the same fields as
// the JSON API.
func NewScriptServiceHandler(h *ScriptHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	return ScriptServiceGenerateProc, connect.NewUnaryHandler(ScriptServiceGenerateProc, h.generateRPC, opts...)
}

func (h *ScriptHandler) generateRPC(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	fields := req.Msg.GetFields()
	in := generate.Request{
		Title:    fields["title"].GetStringValue(),
		Data:     fields["data"].GetStringValue(),
		Duration: fields["duration"].GetStringValue(),
	}
	out, err := h.svc.Generate(ctx, in)
	if err != nil {
		return nil, toRPCError(err)
	}
	msg, err := toStruct(out)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return structpb.NewStruct(m)
}

func toRPCError(err error) error {
	switch {
	case errors.Is(err, generate.ErrInvalidRequest):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	default:
		return connect.NewError(connect.CodeInternal, fmt.Errorf("script service failed: %w", err))
	}
}
