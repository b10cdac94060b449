package settings

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/calibration-game/backend/internal/models"
)

// Handler serves the admin settings endpoints.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.All(r.Context())
	if err != nil {
		slog.Error("list settings", "error", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load settings"})
		return
	}
	if rows == nil {
		rows = []models.Setting{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	var req models.UpdateSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	value := strings.TrimSpace(req.Value)

	if err := Validate(key, value); err != nil {
		if errors.Is(err, ErrUnknownKey) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Unknown setting: " + key})
			return
		}
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.store.Set(r.Context(), key, value); err != nil {
		if errors.Is(err, ErrUnknownKey) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Unknown setting: " + key})
			return
		}
		slog.Error("update setting", "key", key, "error", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to update setting"})
		return
	}

	slog.Info("setting updated", "key", key, "value", value)
	writeJSON(w, http.StatusOK, models.Setting{Key: key, Value: value})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
