package server

import (
	"log"
	"net/http"

	"scriptsmith/internal/handler"
	"scriptsmith/internal/middleware"
)

func NewMux(scriptHandler *handler.ScriptHandler, logger *log.Logger) http.Handler {
	mux := http.NewServeMux()

	// JSON API
	mux.HandleFunc("/api/generate", scriptHandler.HandleGenerate)
	mux.HandleFunc("/api/scripts", scriptHandler.HandleListScripts)
	mux.HandleFunc("/api/scripts/{id}", scriptHandler.HandleGetScript)
	mux.HandleFunc("/api/runs/{id}", scriptHandler.HandleRunArchive)

	// RPC Handlers
	mux.Handle(handler.NewScriptServiceHandler(scriptHandler))

	// Live progress
	mux.HandleFunc("/ws/generate", scriptHandler.HandleGenerateWS)

	// Debug Handlers
	mux.HandleFunc("/debug/llm-usage", scriptHandler.HandleUsage)
	mux.HandleFunc("/healthz", handler.HandleHealth)

	// Middleware
	return middleware.CORS(middleware.AccessLog(logger)(mux))
}
