package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/openkanban/kanband/internal/config"
	"github.com/openkanban/kanband/internal/service"
)

// HealthChecker reports whether the storage backend is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	auth   service.AuthService
	board  service.BoardService
	cards  service.CardService
	health HealthChecker
	cfg    *config.Config
}

func New(auth service.AuthService, board service.BoardService, cards service.CardService, health HealthChecker, cfg *config.Config) *Handler {
	return &Handler{auth, board, cards, health, cfg}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		log.Print(err.Error())
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
}

func writeJSONStatus(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Print(err.Error())
	}
}
