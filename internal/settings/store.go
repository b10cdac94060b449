package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/calibration-game/backend/internal/models"
)

// ErrUnknownKey is returned when updating a key that was never seeded.
var ErrUnknownKey = errors.New("unknown setting key")

// Store is the key-value settings table.
type Store interface {
	All(ctx context.Context) ([]models.Setting, error)
	Set(ctx context.Context, key, value string) error
	// Seed inserts the given rows, leaving existing keys alone.
	Seed(ctx context.Context, defaults []models.Setting) error
}

// ── Postgres ────────────────────────────────────────────

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) All(ctx context.Context) ([]models.Setting, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT setting_key, setting_value, COALESCE(description, '')
		 FROM app_settings ORDER BY setting_key`)
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	var out []models.Setting
	for rows.Next() {
		var st models.Setting
		if err := rows.Scan(&st.Key, &st.Value, &st.Description); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE app_settings SET setting_value = $1, updated_at = NOW() WHERE setting_key = $2`,
		value, key,
	)
	if err != nil {
		return fmt.Errorf("update setting %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update setting %s: %w", key, err)
	}
	if n == 0 {
		return ErrUnknownKey
	}
	return nil
}

func (s *PostgresStore) Seed(ctx context.Context, defaults []models.Setting) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	for _, d := range defaults {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO app_settings (setting_key, setting_value, description)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (setting_key) DO NOTHING`,
			d.Key, d.Value, d.Description,
		); err != nil {
			return fmt.Errorf("seed setting %s: %w", d.Key, err)
		}
	}
	return tx.Commit()
}

// ── In-memory ───────────────────────────────────────────

// MemoryStore keeps settings in process. Used when no database is configured
// and in tests.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]models.Setting
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]models.Setting)}
}

func (s *MemoryStore) All(_ context.Context) ([]models.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Setting, 0, len(s.rows))
	for _, st := range s.rows {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.rows[key]
	if !ok {
		return ErrUnknownKey
	}
	st.Value = value
	s.rows[key] = st
	return nil
}

func (s *MemoryStore) Seed(_ context.Context, defaults []models.Setting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range defaults {
		if _, ok := s.rows[d.Key]; !ok {
			s.rows[d.Key] = d
		}
	}
	return nil
}
