package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/calibration-game/backend/internal/auth"
	"github.com/calibration-game/backend/internal/config"
	"github.com/calibration-game/backend/internal/database"
	"github.com/calibration-game/backend/internal/game"
	"github.com/calibration-game/backend/internal/generator"
	"github.com/calibration-game/backend/internal/logging"
	"github.com/calibration-game/backend/internal/session"
	"github.com/calibration-game/backend/internal/settings"
	"github.com/calibration-game/backend/internal/wiki"
)

// NewServeCmd builds the CLI subcommand that starts the HTTP server.
func NewServeCmd(configPath *string) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the trivia API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, *configPath, port)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "port to listen on (overrides config)")
	return cmd
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.Setup(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	port := cfg.Server.Port
	if portFlag != "" {
		port = portFlag
	}

	// Persistence: Postgres when configured, in-process otherwise.
	var (
		db            *sql.DB
		settingsStore settings.Store = settings.NewMemoryStore()
		events        game.EventLog  = game.NewMemoryEventLog()
	)
	if dsn := cfg.DatabaseDSN(); dsn != "" {
		db, err = database.Connect(ctx, dsn)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		settingsStore = settings.NewPostgresStore(db)
		events = game.NewStore(db)
	} else {
		logger.Warn("no database configured, settings and event log are in memory")
	}
	if err := settingsStore.Seed(ctx, settings.Defaults); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}

	sessionTTL := config.Duration(cfg.Redis.TTL, 7*24*time.Hour)
	var sessions session.Store = session.NewMemoryStore()
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		sessions = session.NewRedisStore(client, sessionTTL)
	} else {
		logger.Warn("no redis configured, sessions are in memory")
	}

	wikiClient := wiki.NewClient(wiki.ClientConfig{
		BaseURL:           cfg.Wiki.BaseURL,
		UserAgent:         cfg.Wiki.UserAgent,
		Timeout:           config.Duration(cfg.Wiki.Timeout, 10*time.Second),
		RequestsPerSecond: cfg.Wiki.RequestsPerSecond,
		Burst:             cfg.Wiki.Burst,
	})

	llm, err := generator.NewClient(ctx, generator.Config{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Command:     cfg.LLM.Command,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})
	if err != nil {
		return err
	}
	synth := generator.NewSynthesizer(llm, config.Duration(cfg.LLM.Timeout, generator.DefaultTimeout))

	service := game.NewService(
		sessions,
		settings.NewProvider(settingsStore),
		game.NewPipeline(wiki.NewSource(wikiClient), synth),
		events,
	)

	if cfg.Auth.JWTSecret == "" {
		logger.Warn("no jwt secret configured, bearer tokens are rejected")
	}
	handler := newRouter(routerDeps{
		logger:         logger,
		service:        service,
		settings:       settingsStore,
		identity:       auth.NewIdentity(cfg.Auth.JWTSecret, cfg.Auth.SecureCookie, config.Duration(cfg.Auth.CookieTTL, sessionTTL)),
		adminUser:      cfg.Auth.AdminUser,
		adminHash:      cfg.Auth.AdminPasswordHash,
		allowedOrigins: cfg.Server.AllowedOrigins,
	})

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// Question generation makes several outbound calls.
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}
	shutdownTimeout := config.Duration(cfg.Server.ShutdownTimeout, 15*time.Second)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
