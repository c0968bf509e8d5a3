package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/gorilla/websocket"
	"google.golang.org/protobuf/types/known/structpb"

	"scriptsmith/internal/agents"
	"scriptsmith/internal/handler"
	"scriptsmith/internal/llm"
	"scriptsmith/internal/orchestrator"
	"scriptsmith/internal/repository/archive"
	"scriptsmith/internal/repository/scripts"
	"scriptsmith/internal/script"
	"scriptsmith/internal/service/generate"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	usage := llm.NewUsage()
	cli := llm.Wrap(llm.NewFakeClient(), llm.WithHook(usage))
	orch, err := orchestrator.New(
		agents.NewWriter(cli, agents.DefaultWriterConfig, script.MinScore),
		agents.NewValidator(cli, agents.DefaultValidatorConfig),
		agents.NewSummarizer(cli, agents.DefaultSummarizerConfig),
		orchestrator.WithLogger(nil),
	)
	if err != nil {
		t.Fatalf("orchestrator: %v", err)
	}
	svc, err := generate.New(generate.Deps{
		Classifier: agents.NewGenreClassifier(cli, agents.DefaultClassifierConfig),
		Runner:     orch,
		Scripts:    scripts.NewMemoryStore(),
		Archive:    archive.NewMemoryStore(),
	})
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	mux := NewMux(handler.NewScriptHandler(svc, usage), log.New(io.Discard, "", 0))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return resp, out
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return resp, out
}

func TestGenerateAndHistory(t *testing.T) {
	srv := newTestServer(t)

	resp, out := postJSON(t, srv.URL+"/api/generate", `{"title":"Why the sky is blue","duration":"short"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d body=%v", resp.StatusCode, out)
	}
	if out["success"] != true || out["attempts"] != float64(2) || out["outcome"] != "passed" {
		t.Fatalf("unexpected result %v", out)
	}
	runID, _ := out["runId"].(string)
	if runID == "" {
		t.Fatalf("missing runId in %v", out)
	}
	validation := out["validation"].(map[string]any)
	if _, ok := validation["scores"].(map[string]any)["cta"]; !ok {
		t.Fatalf("validation scores missing cta: %v", validation)
	}
	interactions := out["interactions"].([]any)
	first := interactions[0].(map[string]any)
	if first["actor"] != generate.ActorClassifier {
		t.Fatalf("first interaction = %v", first)
	}

	resp, list := getJSON(t, srv.URL+"/api/scripts?limit=5")
	if resp.StatusCode != http.StatusOK || len(list["scripts"].([]any)) != 1 {
		t.Fatalf("unexpected list %d %v", resp.StatusCode, list)
	}
	resp, rec := getJSON(t, srv.URL+"/api/scripts/"+runID)
	if resp.StatusCode != http.StatusOK || rec["title"] != "Why the sky is blue" {
		t.Fatalf("unexpected record %d %v", resp.StatusCode, rec)
	}
	resp, _ = getJSON(t, srv.URL+"/api/scripts/nope")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	resp, archived := getJSON(t, srv.URL+"/api/runs/"+runID)
	if resp.StatusCode != http.StatusOK || archived["runId"] != runID {
		t.Fatalf("unexpected archive %d %v", resp.StatusCode, archived)
	}

	resp, usage := getJSON(t, srv.URL+"/debug/llm-usage")
	if resp.StatusCode != http.StatusOK || len(usage["roles"].([]any)) != 4 {
		t.Fatalf("expected four roles in usage, got %v", usage)
	}
}

func TestGenerateValidation(t *testing.T) {
	srv := newTestServer(t)

	resp, out := postJSON(t, srv.URL+"/api/generate", `{"data":"no title"}`)
	if resp.StatusCode != http.StatusBadRequest || out["success"] != false {
		t.Fatalf("expected 400, got %d %v", resp.StatusCode, out)
	}
	resp, _ = postJSON(t, srv.URL+"/api/generate", `{"title":`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad json, got %d", resp.StatusCode)
	}
	resp, _ = getJSON(t, srv.URL+"/api/scripts?limit=x")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", resp.StatusCode)
	}
	get, err := http.Get(srv.URL + "/api/generate")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	get.Body.Close()
	if get.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", get.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)
	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/generate", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("allow origin = %q", got)
	}
}

func TestConnectGenerate(t *testing.T) {
	srv := newTestServer(t)
	client := connect.NewClient[structpb.Struct, structpb.Struct](srv.Client(), srv.URL+handler.ScriptServiceGenerateProc)

	msg, _ := structpb.NewStruct(map[string]any{"title": "Budgeting for students", "duration": "long"})
	resp, err := client.CallUnary(context.Background(), connect.NewRequest(msg))
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	fields := resp.Msg.GetFields()
	if !fields["success"].GetBoolValue() || fields["runId"].GetStringValue() == "" {
		t.Fatalf("unexpected response %v", resp.Msg)
	}

	empty, _ := structpb.NewStruct(map[string]any{})
	_, err = client.CallUnary(context.Background(), connect.NewRequest(empty))
	var cerr *connect.Error
	if !errors.As(err, &cerr) || cerr.Code() != connect.CodeInvalidArgument {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestGenerateWebsocketStreamsProgress(t *testing.T) {
	srv := newTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/generate"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"type": "generate", "title": "Five-minute pasta"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))

	var statuses, interactions int
	for {
		var frame struct {
			Type   string          `json:"type"`
			Result json.RawMessage `json:"result"`
		}
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("read: %v", err)
		}
		switch frame.Type {
		case "status":
			statuses++
		case "interaction":
			interactions++
		case "result":
			var res generate.Response
			if err := json.Unmarshal(frame.Result, &res); err != nil {
				t.Fatalf("decode result: %v", err)
			}
			if len(res.StatusUpdates) != statuses || len(res.Interactions) != interactions {
				t.Fatalf("streamed %d/%d frames, result has %d/%d", statuses, interactions, len(res.StatusUpdates), len(res.Interactions))
			}
			if !res.Success {
				t.Fatalf("expected success")
			}
			return
		default:
			t.Fatalf("unexpected frame %q", frame.Type)
		}
	}
}

func TestGenerateWebsocketRejectsUnknownMessage(t *testing.T) {
	srv := newTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/generate"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if err := conn.WriteJSON(map[string]string{"type": "hello"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var frame map[string]any
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read: %v", err)
	}
	if frame["type"] != "error" || frame["code"] != "invalid_argument" {
		t.Fatalf("unexpected frame %v", frame)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, out := getJSON(t, srv.URL+"/healthz")
	if resp.StatusCode != http.StatusOK || out["ok"] != true {
		t.Fatalf("unexpected health %d %v", resp.StatusCode, out)
	}
}
