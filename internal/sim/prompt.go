package sim

import (
	"encoding/json"
	"fmt"

	"github.com/fablestreet/marketsim/internal/domain"
)

// SimulationPrompt builds the day-advance prompt. The rule text here is
// load-bearing: the validator expects exactly the shape and day range the
// prompt demands.
func SimulationPrompt(stocks []domain.Stock, predictions []domain.Prediction, effects []domain.EconEvent, currentDay, days int) string {
	return fmt.Sprintf(`You simulate a fictional stock market for a trading game. Advance the market and respond with ONLY valid JSON, no markdown fencing, no commentary.

Current day: %d. Simulate days %d through %d inclusive, one entry per stock per day.

Stocks:
%s

Pending news predictions (bias the named stock in the given direction on the given day):
%s

Active economic effects (bias every stock in the named sector in the given direction while daysLeft > 0):
%s

Rules:
- previousDayPrice of day N+1 must equal price of day N for the same ticker (prices chain).
- Daily moves scale with each stock's volatility percent; higher volatility means larger swings.
- Every day whose number is a multiple of 10 is an earnings day: move the price about 20%% up or down and use the headline "<company name> Q<quarter> Earnings Call" where quarter = floor(day/10).
- priceChange is the percent change from previousDayPrice to price.
- No price may fall below 0.1.
- Every entry needs a short headline and a one-sentence description tied to that stock's day.

Required JSON format:
[
  {
    "ticker": "ABCD",
    "day": %d,
    "price": 104.2,
    "previousDayPrice": 100.0,
    "priceChange": 4.2,
    "volatility": 5,
    "headline": "...",
    "description": "..."
  }
]

Return the bare JSON array only.`,
		currentDay, currentDay+1, currentDay+days,
		mustJSON(stocks), mustJSON(predictions), mustJSON(effects),
		currentDay+1)
}

// CatalogPrompt builds the initial stock generation prompt for a profile.
func CatalogPrompt(profile domain.EngineProfile) string {
	extra := ""
	shape := `{
    "ticker": "ABCD",
    "name": "...",
    "price": 100.0,
    "previousDayPrice": 97.5,
    "priceChange": 2.56,
    "volatility": 5
  }`
	if profile.IncludeSectorAndTidbit {
		extra = fmt.Sprintf(`
- Each stock carries a "sector" chosen from exactly this list: %s.
- Each stock carries a "tidbit": one playful sentence of company lore.`, mustJSON(domain.Sectors()))
		shape = `{
    "ticker": "ABCD",
    "name": "...",
    "price": 100.0,
    "previousDayPrice": 97.5,
    "priceChange": 2.56,
    "volatility": 5,
    "sector": "Technology",
    "tidbit": "..."
  }`
	}

	return fmt.Sprintf(`Invent %d fictional stocks for a trading game. Respond with ONLY valid JSON, no markdown fencing, no commentary.

Rules:
- Tickers are 3 or 4 uppercase letters and unique.
- Company names are invented; do not use real companies.
- price is a positive number; previousDayPrice stays within 10%% of price.
- priceChange = (price - previousDayPrice) / previousDayPrice * 100.
- volatility is a percent between %v and %v.%s

Required JSON format:
[
  %s
]

Return the bare JSON array only.`,
		profile.StockCount, profile.VolatilityMin, profile.VolatilityMax, extra, shape)
}

// PredictionPrompt builds the single news-prediction prompt.
func PredictionPrompt(stocks []domain.Stock, currentDay int) string {
	return fmt.Sprintf(`Predict one upcoming news event for a fictional stock market game. Respond with ONLY valid JSON, no markdown fencing, no commentary.

Stocks:
%s

Rules:
- ticker must be one of the stocks above.
- day is an integer greater than %d and at most %d.
- direction is "rise" or "fall".

Required JSON format:
{"ticker": "ABCD", "day": %d, "direction": "rise"}

Return the bare JSON object only.`,
		mustJSON(stocks), currentDay, currentDay+domain.PredictionHorizon, currentDay+1)
}

// AnalysisPrompt builds the free-text performance review prompt. The reply
// is prose, not JSON.
func AnalysisPrompt(log domain.GameLog, portfolio map[string]any, budget float64) string {
	return fmt.Sprintf(`You are a friendly trading coach reviewing a player's run in a fictional stock market game. Write two short paragraphs: what went well, then one concrete improvement. Reference their actual trades. Plain text only, no JSON, no markdown.

Trade log:
%s

Final portfolio:
%s

Remaining budget: %.2f`,
		mustJSON(log), mustJSON(portfolio), budget)
}

func mustJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(raw)
}
