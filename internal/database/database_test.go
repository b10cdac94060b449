package database

import (
	"context"
	"io"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	src, err := iofs.New(migrationsFS, "migrations")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	up, _, err := src.ReadUp(first)
	require.NoError(t, err)
	body, err := io.ReadAll(up)
	require.NoError(t, err)
	up.Close()

	for _, table := range []string{"app_settings", "responses", "game_summaries"} {
		assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS "+table)
	}
	assert.Contains(t, string(body), "CHECK (user_confidence BETWEEN 0 AND 100)")

	down, _, err := src.ReadDown(first)
	require.NoError(t, err)
	down.Close()
}

func TestRollbackNeedsSteps(t *testing.T) {
	err := Rollback(context.Background(), nil, 0)
	assert.Error(t, err)
}
