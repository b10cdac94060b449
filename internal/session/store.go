package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/calibration-game/backend/internal/models"
)

// Store persists one GameState per player session.
type Store interface {
	// Load returns the stored state, or a fresh one when the session is new.
	Load(ctx context.Context, id string) (*models.GameState, error)
	Save(ctx context.Context, id string, state *models.GameState) error
}

// decode turns a stored blob into a state, upgrading older shapes. A blob that
// cannot be decoded starts the session over.
func decode(id string, data []byte) *models.GameState {
	state := models.NewGameState()
	if err := json.Unmarshal(data, state); err != nil {
		slog.Warn("discarding unreadable session state", "session", id, "error", err)
		return models.NewGameState()
	}
	state.Normalize()
	return state
}

// MemoryStore keeps serialized states in process. States are copied on the
// way in and out so callers never share a pointer.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Load(_ context.Context, id string) (*models.GameState, error) {
	s.mu.RLock()
	raw, ok := s.data[id]
	s.mu.RUnlock()
	if !ok {
		return models.NewGameState(), nil
	}
	return decode(id, raw), nil
}

func (s *MemoryStore) Save(_ context.Context, id string, state *models.GameState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[id] = raw
	s.mu.Unlock()
	return nil
}
