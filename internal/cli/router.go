package cli

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/calibration-game/backend/internal/auth"
	"github.com/calibration-game/backend/internal/game"
	"github.com/calibration-game/backend/internal/logging"
	"github.com/calibration-game/backend/internal/settings"
)

type routerDeps struct {
	logger         *slog.Logger
	service        *game.Service
	settings       settings.Store
	identity       *auth.Identity
	adminUser      string
	adminHash      string
	allowedOrigins []string
}

func newRouter(d routerDeps) http.Handler {
	r := mux.NewRouter()
	r.Use(logging.Middleware(d.logger))

	api := r.PathPrefix("/api/v1").Subrouter()

	// Admin routes
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(auth.AdminOnly(d.adminUser, d.adminHash))
	settingsHandler := settings.NewHandler(d.settings)
	admin.HandleFunc("/settings", settingsHandler.List).Methods("GET")
	admin.HandleFunc("/settings/{key}", settingsHandler.Update).Methods("PUT")

	// Player routes
	player := api.PathPrefix("").Subrouter()
	player.Use(d.identity.Middleware)
	game.NewHandler(d.service).Register(player)

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins:   d.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}
