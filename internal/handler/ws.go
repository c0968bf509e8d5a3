package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"scriptsmith/internal/orchestrator"
	"scriptsmith/internal/script"
	"scriptsmith/internal/service/generate"
)

const (
	generateWSWriteWait = 10 * time.Second
	generateWSPongWait  = 60 * time.Second
	generateWSPingEvery = (generateWSPongWait * 9) / 10
)

var generateWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type generateWSInbound struct {
	Type     string `json:"type"`
	Title    string `json:"title,omitempty"`
	Data     string `json:"data,omitempty"`
	Duration string `json:"duration,omitempty"`
}

type generateWSOutbound struct {
	Type        string               `json:"type"`
	Status      *script.StatusUpdate `json:"status,omitempty"`
	Interaction *script.Interaction  `json:"interaction,omitempty"`
	Result      *generate.Response   `json:"result,omitempty"`
	Code        string               `json:"code,omitempty"`
	Message     string               `json:"message,omitempty"`
}

// HandleGenerateWS runs one generation per connection. The client sends
// {"type":"generate", ...}; the server streams "status" and "interaction"
// frames as the run progresses, then one "result" or "error" frame.
func (h *ScriptHandler) HandleGenerateWS(w http.ResponseWriter, r *http.Request) {
	conn, err := generateWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(generateWSPongWait)); err != nil {
		log.Printf("generate ws set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(generateWSPongWait))
	})

	writeCh := make(chan generateWSOutbound, 64)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(generateWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(generateWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
				if out.Type == "result" || out.Type == "error" {
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
						time.Now().Add(generateWSWriteWait))
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(generateWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	push := func(out generateWSOutbound) {
		select {
		case writeCh <- out:
		case <-ctx.Done():
		case <-writerDone:
		}
	}
	finish := func(out generateWSOutbound) {
		push(out)
		<-writerDone
	}

	var in generateWSInbound
	if err := conn.ReadJSON(&in); err != nil {
		cancel()
		<-writerDone
		return
	}
	if strings.ToLower(strings.TrimSpace(in.Type)) != "generate" {
		finish(generateWSOutbound{Type: "error", Code: "invalid_argument", Message: "first message must have type \"generate\""})
		return
	}

	// Drain control frames; a closed socket abandons the run.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	runCtx := orchestrator.WithObserver(ctx, orchestrator.ObserverFuncs{
		Status: func(s script.StatusUpdate) {
			push(generateWSOutbound{Type: "status", Status: &s})
		},
		Interaction: func(i script.Interaction) {
			push(generateWSOutbound{Type: "interaction", Interaction: &i})
		},
	})
	out, err := h.svc.Generate(runCtx, generate.Request{Title: in.Title, Data: in.Data, Duration: in.Duration})
	if err != nil {
		code := "internal"
		if statusFor(err) == http.StatusBadRequest {
			code = "invalid_argument"
		}
		finish(generateWSOutbound{Type: "error", Code: code, Message: err.Error()})
		return
	}
	finish(generateWSOutbound{Type: "result", Result: out})
}
