package leaderboard

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/GundamTCG/EloBot/config"
	"github.com/GundamTCG/EloBot/db"
	"github.com/GundamTCG/EloBot/internal/auth"
	"github.com/GundamTCG/EloBot/internal/match"
)

type Handler struct {
	service *Service
	matches *match.Service
	auth    *auth.Service
	cfg     config.Config
}

func NewHandler(service *Service, matches *match.Service, authSvc *auth.Service, cfg config.Config) *Handler {
	return &Handler{service: service, matches: matches, auth: authSvc, cfg: cfg}
}

// GET /api/v1/leaderboard?mode=1v1&limit=10
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.service.Top(r.Context(), r.URL.Query().Get("mode"), limit)
	if errors.Is(err, db.ErrUnknownMode) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Printf("Leaderboard query failed: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{"mode": r.URL.Query().Get("mode"), "entries": entries})
}

// GET /api/v1/stats?player_id=...&mode=1v1 — player_id defaults to the
// caller when a token is present.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	playerID := r.URL.Query().Get("player_id")
	if playerID == "" {
		id, err := h.callerID(r)
		if err != nil {
			http.Error(w, "player_id or a token is required", http.StatusBadRequest)
			return
		}
		playerID = id
	}

	entry, err := h.service.Stats(r.Context(), playerID, r.URL.Query().Get("mode"))
	if errors.Is(err, db.ErrUnknownMode) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Printf("Stats query failed for %s: %v", playerID, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, entry)
}

type resetRequest struct {
	PlayerID string `json:"player_id"`
	Mode     string `json:"mode"`
}

// POST /api/v1/admin/reset
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
		http.Error(w, "player_id and mode are required", http.StatusBadRequest)
		return
	}

	if err := h.service.Reset(r.Context(), req.PlayerID, req.Mode); err != nil {
		if errors.Is(err, db.ErrUnknownMode) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("Reset failed for %s: %v", req.PlayerID, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"status": "reset", "player_id": req.PlayerID})
}

type reportRequest struct {
	Mode    string   `json:"mode"`
	Winners []string `json:"winners"`
	Losers  []string `json:"losers"`
}

// POST /api/v1/admin/report — records an outcome for a match that never
// went through a lobby.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	mode, err := match.ParseMode(req.Mode)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.matches.ReportManual(r.Context(), mode, req.Winners, req.Losers); err != nil {
		if match.IsValidationError(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("Manual report failed: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"status": "recorded"})
}

func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	id, err := h.callerID(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	if !h.cfg.IsAdmin(id) {
		http.Error(w, "admin access required", http.StatusForbidden)
		return false
	}
	return true
}

func (h *Handler) callerID(r *http.Request) (string, error) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	return h.auth.ParseToken(token)
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}
