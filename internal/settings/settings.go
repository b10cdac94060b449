package settings

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/calibration-game/backend/internal/calibration"
	"github.com/calibration-game/backend/internal/scoring"
)

// GameSettings is the typed view of the settings table used by one request.
type GameSettings struct {
	MinSummaryWords  int
	ContextLength    int
	Strategy         string
	SearchKeywords   []string
	TargetCategories []string
	ResultLimit      int
	Coefficients     scoring.Coefficients
	GameLength       int
	CalibrationBins  int
	NormalizeTheme   bool
}

// DefaultGameSettings decodes the seed table.
func DefaultGameSettings() GameSettings {
	return decode(Values{})
}

// Provider reads settings from a Store. Reads never fail: a store error or a
// bad value yields the default for that key.
type Provider struct {
	store Store
}

func NewProvider(store Store) *Provider {
	return &Provider{store: store}
}

func (p *Provider) Store() Store {
	return p.store
}

// Load reads the whole table once and decodes every field.
func (p *Provider) Load(ctx context.Context) GameSettings {
	rows, err := p.store.All(ctx)
	if err != nil {
		slog.Warn("settings read failed, using defaults", "error", err)
		return DefaultGameSettings()
	}
	vals := make(Values, len(rows))
	for _, r := range rows {
		vals[r.Key] = r.Value
	}
	return decode(vals)
}

// Values is a raw key to value snapshot of the settings table.
type Values map[string]string

func (v Values) String(key, def string) string {
	s, ok := v[key]
	if !ok {
		return def
	}
	return s
}

func (v Values) Int(key string, def int) int {
	s, ok := v[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		slog.Warn("setting is not an integer", "key", key, "value", s)
		return def
	}
	return n
}

func (v Values) Float(key string, def float64) float64 {
	s, ok := v[key]
	if !ok {
		return def
	}
	f, err := parseFinite(s)
	if err != nil {
		slog.Warn("setting is not a number", "key", key, "value", s)
		return def
	}
	return f
}

// parseFinite parses a float and rejects NaN and the infinities.
func parseFinite(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return f, nil
}

// Bool accepts true/1 and false/0, case-insensitive. Anything else is the default.
func (v Values) Bool(key string, def bool) bool {
	s, ok := v[key]
	if !ok {
		return def
	}
	b, ok := parseBool(s)
	if !ok {
		slog.Warn("setting is not a boolean", "key", key, "value", s)
		return def
	}
	return b
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	}
	return false, false
}

// SplitList splits a comma separated value, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func mustDefaultInt(key string) int {
	s, _ := defaultValue(key)
	n, _ := strconv.Atoi(s)
	return n
}

func mustDefaultFloat(key string) float64 {
	s, _ := defaultValue(key)
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func mustDefaultString(key string) string {
	s, _ := defaultValue(key)
	return s
}

func positive(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}

func decode(v Values) GameSettings {
	gs := GameSettings{
		MinSummaryWords:  v.Int(KeyMinSummaryWords, mustDefaultInt(KeyMinSummaryWords)),
		ContextLength:    positive(v.Int(KeyGenerationContextLength, 0), mustDefaultInt(KeyGenerationContextLength)),
		Strategy:         strings.ToLower(strings.TrimSpace(v.String(KeyPageSelectionStrategy, StrategyRandom))),
		SearchKeywords:   SplitList(v.String(KeySearchKeywords, mustDefaultString(KeySearchKeywords))),
		TargetCategories: SplitList(v.String(KeyTargetCategories, mustDefaultString(KeyTargetCategories))),
		ResultLimit:      positive(v.Int(KeyAPIResultLimit, 0), mustDefaultInt(KeyAPIResultLimit)),
		Coefficients: scoring.Coefficients{
			BaseCorrect:   v.Float(KeyScoreBaseCorrect, mustDefaultFloat(KeyScoreBaseCorrect)),
			MultCorrect:   v.Float(KeyScoreMultCorrect, mustDefaultFloat(KeyScoreMultCorrect)),
			BaseIncorrect: v.Float(KeyScoreBaseIncorrect, mustDefaultFloat(KeyScoreBaseIncorrect)),
			MultIncorrect: v.Float(KeyScoreMultIncorrect, mustDefaultFloat(KeyScoreMultIncorrect)),
		},
		GameLength:      positive(v.Int(KeyGameLength, 0), mustDefaultInt(KeyGameLength)),
		CalibrationBins: calibration.NormalizeBins(v.Int(KeyCalibrationBins, calibration.DefaultBins)),
		NormalizeTheme:  v.Bool(KeyNormalizeTheme, true),
	}
	if gs.MinSummaryWords < 0 {
		gs.MinSummaryWords = mustDefaultInt(KeyMinSummaryWords)
	}
	switch gs.Strategy {
	case StrategyRandom, StrategySearch, StrategyCategory:
	default:
		slog.Warn("unknown page selection strategy, using random", "value", gs.Strategy)
		gs.Strategy = StrategyRandom
	}
	return gs
}

// Validate checks a value before the admin surface writes it.
func Validate(key, value string) error {
	if _, ok := defaultValue(key); !ok {
		return ErrUnknownKey
	}
	value = strings.TrimSpace(value)

	switch key {
	case KeyMinSummaryWords:
		return checkInt(key, value, 0, 10000)
	case KeyGenerationContextLength:
		return checkInt(key, value, 1, 100000)
	case KeyAPIResultLimit:
		return checkInt(key, value, 1, 500)
	case KeyGameLength:
		return checkInt(key, value, 1, 1000)
	case KeyCalibrationBins:
		return checkInt(key, value, 2, 50)
	case KeyScoreBaseCorrect, KeyScoreMultCorrect, KeyScoreBaseIncorrect, KeyScoreMultIncorrect:
		if _, err := parseFinite(value); err != nil {
			return fmt.Errorf("%s must be a finite number", key)
		}
	case KeyNormalizeTheme:
		if _, ok := parseBool(value); !ok {
			return fmt.Errorf("%s must be true, false, 1 or 0", key)
		}
	case KeyPageSelectionStrategy:
		switch strings.ToLower(value) {
		case StrategyRandom, StrategySearch, StrategyCategory:
		default:
			return fmt.Errorf("%s must be one of random, search, category", key)
		}
	case KeySearchKeywords, KeyTargetCategories:
		if len(SplitList(value)) == 0 {
			return fmt.Errorf("%s must list at least one entry", key)
		}
	}
	return nil
}

func checkInt(key, value string, lo, hi int) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s must be an integer", key)
	}
	if n < lo || n > hi {
		return fmt.Errorf("%s must be between %d and %d", key, lo, hi)
	}
	return nil
}
