package settings

import "github.com/calibration-game/backend/internal/models"

const (
	KeyMinSummaryWords         = "min_summary_words"
	KeyGenerationContextLength = "generation_context_length"
	KeyPageSelectionStrategy   = "page_selection_strategy"
	KeySearchKeywords          = "search_keywords"
	KeyTargetCategories        = "target_categories"
	KeyAPIResultLimit          = "api_result_limit"
	KeyScoreBaseCorrect        = "score_base_correct"
	KeyScoreMultCorrect        = "score_mult_correct"
	KeyScoreBaseIncorrect      = "score_base_incorrect"
	KeyScoreMultIncorrect      = "score_mult_incorrect"
	KeyGameLength              = "game_length"
	KeyCalibrationBins         = "calibration_bins"
	KeyNormalizeTheme          = "normalize_theme"
)

// Page selection strategies understood by the content source.
const (
	StrategyRandom   = "random"
	StrategySearch   = "search"
	StrategyCategory = "category"
)

// Defaults is the table written to an empty store at startup. Existing rows
// are never overwritten.
var Defaults = []models.Setting{
	{Key: KeyMinSummaryWords, Value: "50", Description: "Minimum number of words an encyclopedia summary needs before it is used for a question."},
	{Key: KeyGenerationContextLength, Value: "3000", Description: "Maximum number of summary characters sent to the language model."},
	{Key: KeyPageSelectionStrategy, Value: StrategyRandom, Description: "How pages are picked when the player gives no theme: random, search or category."},
	{Key: KeySearchKeywords, Value: "History, Science, Technology, Art, Geography, Culture, Philosophy, Sports", Description: "Comma separated keywords used by the search strategy."},
	{Key: KeyTargetCategories, Value: "Physics, World_War_II, Cities_in_France, Mammals, Programming_languages", Description: "Comma separated categories used by the category strategy."},
	{Key: KeyAPIResultLimit, Value: "20", Description: "Number of results requested from search and category listings."},
	{Key: KeyScoreBaseCorrect, Value: "10", Description: "Points for a correct answer at 0% confidence."},
	{Key: KeyScoreMultCorrect, Value: "0.9", Description: "Extra points per confidence percent on a correct answer."},
	{Key: KeyScoreBaseIncorrect, Value: "-100", Description: "Points for an incorrect answer at 100% confidence."},
	{Key: KeyScoreMultIncorrect, Value: "0.9", Description: "Points given back per percent of doubt on an incorrect answer."},
	{Key: KeyGameLength, Value: "10", Description: "Number of questions in one game."},
	{Key: KeyCalibrationBins, Value: "10", Description: "Number of buckets in the calibration chart (2-50)."},
	{Key: KeyNormalizeTheme, Value: "true", Description: "Rewrite free-text themes into a search term with the language model before searching."},
}

// defaultValue returns the seeded value for key.
func defaultValue(key string) (string, bool) {
	for _, s := range Defaults {
		if s.Key == key {
			return s.Value, true
		}
	}
	return "", false
}
