package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calibration-game/backend/internal/models"
)

type failingStore struct{}

func (failingStore) All(context.Context) ([]models.Setting, error) {
	return nil, errors.New("connection refused")
}
func (failingStore) Set(context.Context, string, string) error      { return errors.New("nope") }
func (failingStore) Seed(context.Context, []models.Setting) error { return errors.New("nope") }

func TestDefaultGameSettings(t *testing.T) {
	gs := DefaultGameSettings()

	assert.Equal(t, 50, gs.MinSummaryWords)
	assert.Equal(t, 3000, gs.ContextLength)
	assert.Equal(t, StrategyRandom, gs.Strategy)
	assert.Len(t, gs.SearchKeywords, 8)
	assert.Equal(t, "History", gs.SearchKeywords[0])
	assert.Equal(t, []string{"Physics", "World_War_II", "Cities_in_France", "Mammals", "Programming_languages"}, gs.TargetCategories)
	assert.Equal(t, 20, gs.ResultLimit)
	assert.Equal(t, 10.0, gs.Coefficients.BaseCorrect)
	assert.Equal(t, 0.9, gs.Coefficients.MultCorrect)
	assert.Equal(t, -100.0, gs.Coefficients.BaseIncorrect)
	assert.Equal(t, 0.9, gs.Coefficients.MultIncorrect)
	assert.Equal(t, 10, gs.GameLength)
	assert.Equal(t, 10, gs.CalibrationBins)
	assert.True(t, gs.NormalizeTheme)
}

func TestLoadFallsBackOnBadValues(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Seed(ctx, Defaults))

	require.NoError(t, store.Set(ctx, KeyGameLength, "0"))
	require.NoError(t, store.Set(ctx, KeyMinSummaryWords, "fifty"))
	require.NoError(t, store.Set(ctx, KeyCalibrationBins, "99"))
	require.NoError(t, store.Set(ctx, KeyScoreMultCorrect, "x"))
	require.NoError(t, store.Set(ctx, KeyPageSelectionStrategy, "sideways"))
	require.NoError(t, store.Set(ctx, KeyNormalizeTheme, "maybe"))

	gs := NewProvider(store).Load(ctx)
	assert.Equal(t, 10, gs.GameLength)
	assert.Equal(t, 50, gs.MinSummaryWords)
	assert.Equal(t, 10, gs.CalibrationBins)
	assert.Equal(t, 0.9, gs.Coefficients.MultCorrect)
	assert.Equal(t, StrategyRandom, gs.Strategy)
	assert.True(t, gs.NormalizeTheme)
}

func TestLoadReadsOverrides(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Seed(ctx, Defaults))

	require.NoError(t, store.Set(ctx, KeyGameLength, " 3 "))
	require.NoError(t, store.Set(ctx, KeyPageSelectionStrategy, "Category"))
	require.NoError(t, store.Set(ctx, KeyNormalizeTheme, " FALSE "))
	require.NoError(t, store.Set(ctx, KeyScoreBaseIncorrect, "-50.5"))
	require.NoError(t, store.Set(ctx, KeyTargetCategories, "Birds, ,Rivers"))

	gs := NewProvider(store).Load(ctx)
	assert.Equal(t, 3, gs.GameLength)
	assert.Equal(t, StrategyCategory, gs.Strategy)
	assert.False(t, gs.NormalizeTheme)
	assert.Equal(t, -50.5, gs.Coefficients.BaseIncorrect)
	assert.Equal(t, []string{"Birds", "Rivers"}, gs.TargetCategories)
}

func TestNonFiniteCoefficientsUseDefaults(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Seed(ctx, Defaults))

	require.NoError(t, store.Set(ctx, KeyScoreMultCorrect, "NaN"))
	require.NoError(t, store.Set(ctx, KeyScoreBaseCorrect, "Inf"))
	require.NoError(t, store.Set(ctx, KeyScoreBaseIncorrect, "-Inf"))
	require.NoError(t, store.Set(ctx, KeyScoreMultIncorrect, " nan "))

	gs := NewProvider(store).Load(ctx)
	assert.Equal(t, DefaultGameSettings().Coefficients, gs.Coefficients)
}

func TestFloatDecoding(t *testing.T) {
	v := Values{"a": "2.5", "b": "NaN", "c": "-Inf", "d": "1e400"}
	assert.Equal(t, 2.5, v.Float("a", 0))
	assert.Equal(t, 7.0, v.Float("b", 7))
	assert.Equal(t, 7.0, v.Float("c", 7))
	assert.Equal(t, 7.0, v.Float("d", 7))
	assert.Equal(t, 7.0, v.Float("missing", 7))
}

func TestLoadStoreErrorUsesDefaults(t *testing.T) {
	gs := NewProvider(failingStore{}).Load(context.Background())
	assert.Equal(t, DefaultGameSettings(), gs)
}

func TestBoolDecoding(t *testing.T) {
	v := Values{"a": "1", "b": "0", "c": "True", "d": "no", "e": ""}
	assert.True(t, v.Bool("a", false))
	assert.False(t, v.Bool("b", true))
	assert.True(t, v.Bool("c", false))
	assert.True(t, v.Bool("d", true))
	assert.False(t, v.Bool("e", false))
	assert.True(t, v.Bool("missing", true))
}

func TestSeedKeepsExistingValues(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Seed(ctx, Defaults))
	require.NoError(t, store.Set(ctx, KeyGameLength, "5"))
	require.NoError(t, store.Seed(ctx, Defaults))

	rows, err := store.All(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, len(Defaults))
	for _, r := range rows {
		if r.Key == KeyGameLength {
			assert.Equal(t, "5", r.Value)
		}
	}
}

func TestMemoryStoreUnknownKey(t *testing.T) {
	err := NewMemoryStore().Set(context.Background(), "nope", "1")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		wantErr bool
	}{
		{KeyGameLength, "10", false},
		{KeyGameLength, "0", true},
		{KeyGameLength, "-1", true},
		{KeyGameLength, "ten", true},
		{KeyCalibrationBins, "2", false},
		{KeyCalibrationBins, "51", true},
		{KeyPageSelectionStrategy, "search", false},
		{KeyPageSelectionStrategy, "sideways", true},
		{KeyNormalizeTheme, "0", false},
		{KeyNormalizeTheme, "yes", true},
		{KeyScoreMultCorrect, "1.25", false},
		{KeyScoreMultCorrect, "abc", true},
		{KeyScoreMultCorrect, "NaN", true},
		{KeyScoreBaseCorrect, "Inf", true},
		{KeyScoreBaseIncorrect, "-Inf", true},
		{KeyScoreMultIncorrect, "+infinity", true},
		{KeySearchKeywords, " , ", true},
		{KeySearchKeywords, "Rivers", false},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			err := Validate(tt.key, tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	assert.ErrorIs(t, Validate("does_not_exist", "1"), ErrUnknownKey)
}
