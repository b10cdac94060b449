package game

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/calibration-game/backend/internal/auth"
	"github.com/calibration-game/backend/internal/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the player routes on r. Every route expects the identity
// middleware to have run.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/question", h.FetchQuestion).Methods("GET")
	r.HandleFunc("/question/abandon", h.AbandonQuestion).Methods("POST")
	r.HandleFunc("/answer", h.SubmitAnswer).Methods("POST")
	r.HandleFunc("/game/new", h.StartNewGame).Methods("POST")
	r.HandleFunc("/stats", h.Stats).Methods("GET")
	r.HandleFunc("/calibration", h.Calibration).Methods("GET")
	r.HandleFunc("/leaderboard", h.Leaderboard).Methods("GET")
}

func (h *Handler) FetchQuestion(w http.ResponseWriter, r *http.Request) {
	playerID, ok := requirePlayer(w, r)
	if !ok {
		return
	}

	q, err := h.service.FetchQuestion(r.Context(), playerID, r.URL.Query().Get("theme"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewQuestionResponse(q))
}

func (h *Handler) AbandonQuestion(w http.ResponseWriter, r *http.Request) {
	playerID, ok := requirePlayer(w, r)
	if !ok {
		return
	}

	if err := h.service.AbandonQuestion(r.Context(), playerID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "abandoned"})
}

func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	playerID, ok := requirePlayer(w, r)
	if !ok {
		return
	}

	var req models.SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.Answer == nil || strings.TrimSpace(*req.Answer) == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Missing answer or confidence."})
		return
	}
	confidence, err := ParseConfidence(req.Confidence)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.service.SubmitAnswer(r.Context(), playerID, *req.Answer, confidence)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) StartNewGame(w http.ResponseWriter, r *http.Request) {
	playerID, ok := requirePlayer(w, r)
	if !ok {
		return
	}

	var req models.NewGameRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
			return
		}
	}

	stats, err := h.service.StartNewGame(r.Context(), playerID, req.Theme)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	playerID, ok := requirePlayer(w, r)
	if !ok {
		return
	}

	stats, err := h.service.Stats(r.Context(), playerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) Calibration(w http.ResponseWriter, r *http.Request) {
	playerID, ok := requirePlayer(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	scope := query.Get("scope")
	if scope != "" && scope != ScopeSession && scope != ScopeGame {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "scope must be 'session' or 'game'"})
		return
	}

	view, err := h.service.Calibration(r.Context(), playerID, scope, intQueryParam(query, "bins", 0))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := intQueryParam(query, "limit", 20)
	if limit == 0 || limit > 100 {
		limit = 20
	}

	resp, err := h.service.Leaderboard(r.Context(), query.Get("theme"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ParseConfidence accepts an integer 0..100 given as a JSON number or a
// numeric string. 75.0 is accepted; 75.5 is not.
func ParseConfidence(raw json.RawMessage) (int, error) {
	invalid := &ValidationError{Field: "confidence", Message: "must be an integer between 0 and 100"}

	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, &ValidationError{Field: "confidence", Message: "is required"}
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, invalid
		}
		s = strings.TrimSpace(str)
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
			return 0, invalid
		}
		n = int(f)
	}
	if n < 0 || n > 100 {
		return 0, invalid
	}
	return n, nil
}

func requirePlayer(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := auth.PlayerID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "No player session"})
		return "", false
	}
	return id, true
}

// writeError maps service errors to status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *ValidationError
	var unavailable *ContentUnavailableError

	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: validation.Error()})
	case errors.Is(err, ErrQuestionPending), errors.Is(err, ErrNoPendingQuestion):
		writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: err.Error()})
	case errors.As(err, &unavailable):
		slog.Warn("content unavailable", "path", r.URL.Path, "theme", unavailable.Theme, "error", unavailable.Err)
		w.Header().Set("Retry-After", "2")
		writeJSON(w, http.StatusServiceUnavailable, models.ErrorResponse{Error: unavailable.Error()})
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to send.
		slog.Info("request cancelled", "path", r.URL.Path)
	default:
		slog.Error("request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func intQueryParam(query url.Values, key string, defaultVal int) int {
	s := query.Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	return v
}
