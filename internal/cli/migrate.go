package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/calibration-game/backend/internal/config"
	"github.com/calibration-game/backend/internal/database"
	"github.com/calibration-game/backend/internal/logging"
)

// NewMigrateCmd applies or reverts database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	var down int
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath, down)
		},
	}
	cmd.Flags().IntVar(&down, "down", 0, "revert this many migrations instead of applying")
	return cmd
}

func runMigrations(ctx context.Context, configPath string, down int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logging.Setup(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	dsn := cfg.DatabaseDSN()
	if dsn == "" {
		return fmt.Errorf("database not configured")
	}

	db, err := database.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if down > 0 {
		return database.Rollback(ctx, db, down)
	}
	return database.Migrate(ctx, db)
}
