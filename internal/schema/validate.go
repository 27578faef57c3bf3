// Package schema validates and repairs untrusted JSON produced by the LLM
// collaborator. Sequence validators drop elements that fail any check and
// only fail outright when nothing survives, so partial output still reaches
// the game. Derived fields are recomputed rather than trusted.
package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"

	"github.com/fablestreet/marketsim/internal/domain"
)

var (
	tickerRE = regexp.MustCompile(`^[A-Z]{3,4}$`)
	fenceRE  = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
)

// stripFences unwraps a ```json ... ``` code fence if the reply carries
// one. Replies without a fence pass through unchanged.
func stripFences(raw []byte) []byte {
	if m := fenceRE.FindSubmatch(raw); m != nil {
		return m[1]
	}
	return raw
}

// ValidateStocks checks an untrusted JSON value against the stock catalog
// schema. Malformed elements and duplicate tickers are dropped; an empty
// survivor set fails with domain.ErrValidation.
func ValidateStocks(raw []byte) ([]domain.Stock, error) {
	elements, err := decodeArray(raw)
	if err != nil {
		return nil, err
	}

	stocks := make([]domain.Stock, 0, len(elements))
	seen := make(map[string]bool, len(elements))
	for _, el := range elements {
		stock, ok := parseStock(el)
		if !ok || seen[stock.Ticker] {
			continue
		}
		seen[stock.Ticker] = true
		stocks = append(stocks, stock)
	}

	if len(stocks) == 0 {
		return nil, fmt.Errorf("schema: no valid stocks among %d elements: %w", len(elements), domain.ErrValidation)
	}
	return stocks, nil
}

// ValidateTicks checks an untrusted JSON value against the simulation tick
// schema. Every tick's day must fall within [dayLow, dayHigh]. Malformed
// elements are dropped; an empty survivor set fails.
func ValidateTicks(raw []byte, dayLow, dayHigh int) ([]domain.SimulationTick, error) {
	elements, err := decodeArray(raw)
	if err != nil {
		return nil, err
	}

	ticks := make([]domain.SimulationTick, 0, len(elements))
	for _, el := range elements {
		tick, ok := parseTick(el, dayLow, dayHigh)
		if !ok {
			continue
		}
		ticks = append(ticks, tick)
	}

	if len(ticks) == 0 {
		return nil, fmt.Errorf("schema: no valid ticks among %d elements: %w", len(elements), domain.ErrValidation)
	}
	return ticks, nil
}

// ValidatePrediction checks a single untrusted prediction object. The day
// must fall within [dayLow, dayHigh] and the ticker must belong to the
// supplied catalog. Predictions have no drop semantics: any failure is a
// validation error.
func ValidatePrediction(raw []byte, dayLow, dayHigh int, known []domain.Stock) (domain.Prediction, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(stripFences(raw), &obj); err != nil {
		return domain.Prediction{}, fmt.Errorf("schema: prediction is not an object: %w", domain.ErrValidation)
	}

	ticker, ok := stringField(obj, "ticker")
	if !ok || !tickerRE.MatchString(ticker) {
		return domain.Prediction{}, fmt.Errorf("schema: prediction ticker invalid: %w", domain.ErrValidation)
	}
	if !knownTicker(known, ticker) {
		return domain.Prediction{}, fmt.Errorf("schema: prediction ticker %q not in catalog: %w", ticker, domain.ErrValidation)
	}

	day, ok := intField(obj, "day")
	if !ok || day < dayLow || day > dayHigh {
		return domain.Prediction{}, fmt.Errorf("schema: prediction day out of [%d,%d]: %w", dayLow, dayHigh, domain.ErrValidation)
	}

	dir, ok := stringField(obj, "direction")
	if !ok || (dir != string(domain.PredictionRise) && dir != string(domain.PredictionFall)) {
		return domain.Prediction{}, fmt.Errorf("schema: prediction direction invalid: %w", domain.ErrValidation)
	}

	return domain.Prediction{
		Ticker:    ticker,
		Day:       day,
		Direction: domain.PredictionDirection(dir),
	}, nil
}

func decodeArray(raw []byte) ([]map[string]json.RawMessage, error) {
	var elements []map[string]json.RawMessage
	if err := json.Unmarshal(stripFences(raw), &elements); err != nil {
		return nil, fmt.Errorf("schema: not a JSON array of objects: %w", domain.ErrValidation)
	}
	return elements, nil
}

func parseStock(obj map[string]json.RawMessage) (domain.Stock, bool) {
	ticker, ok := stringField(obj, "ticker")
	if !ok || !tickerRE.MatchString(ticker) {
		return domain.Stock{}, false
	}
	name, ok := stringField(obj, "name")
	if !ok || name == "" {
		return domain.Stock{}, false
	}
	price, ok := numberField(obj, "price")
	if !ok || price <= 0 {
		return domain.Stock{}, false
	}
	prev, ok := numberField(obj, "previousDayPrice")
	if !ok || prev <= 0 {
		return domain.Stock{}, false
	}
	// PreviousDayPrice must stay within ±10% of the creation price.
	if math.Abs(price-prev) > 0.10*price+1e-9 {
		return domain.Stock{}, false
	}
	vol, ok := numberField(obj, "volatility")
	if !ok || vol <= 0 {
		return domain.Stock{}, false
	}

	stock := domain.Stock{
		Ticker:           ticker,
		Name:             name,
		Price:            price,
		PreviousDayPrice: prev,
		PriceChange:      changePercent(price, prev),
		Volatility:       vol,
	}

	if rawSector, present := obj["sector"]; present {
		var sector string
		if err := json.Unmarshal(rawSector, &sector); err != nil {
			return domain.Stock{}, false
		}
		if !domain.ValidSector(domain.Sector(sector)) {
			return domain.Stock{}, false
		}
		stock.Sector = domain.Sector(sector)
	}
	if rawTidbit, present := obj["tidbit"]; present {
		var tidbit string
		if err := json.Unmarshal(rawTidbit, &tidbit); err != nil {
			return domain.Stock{}, false
		}
		stock.Tidbit = tidbit
	}
	return stock, true
}

func parseTick(obj map[string]json.RawMessage, dayLow, dayHigh int) (domain.SimulationTick, bool) {
	ticker, ok := stringField(obj, "ticker")
	if !ok || !tickerRE.MatchString(ticker) {
		return domain.SimulationTick{}, false
	}
	day, ok := intField(obj, "day")
	if !ok || day < dayLow || day > dayHigh {
		return domain.SimulationTick{}, false
	}
	price, ok := numberField(obj, "price")
	if !ok || price < domain.PriceFloor {
		return domain.SimulationTick{}, false
	}
	prev, ok := numberField(obj, "previousDayPrice")
	if !ok || prev <= 0 {
		return domain.SimulationTick{}, false
	}
	vol, ok := numberField(obj, "volatility")
	if !ok || vol <= 0 {
		return domain.SimulationTick{}, false
	}
	headline, ok := stringField(obj, "headline")
	if !ok {
		return domain.SimulationTick{}, false
	}
	description, ok := stringField(obj, "description")
	if !ok {
		return domain.SimulationTick{}, false
	}

	return domain.SimulationTick{
		Ticker:           ticker,
		Day:              day,
		Price:            price,
		PreviousDayPrice: prev,
		PriceChange:      changePercent(price, prev),
		Volatility:       vol,
		Headline:         headline,
		Description:      description,
	}, true
}

func stringField(obj map[string]json.RawMessage, key string) (string, bool) {
	raw, present := obj[key]
	if !present {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func numberField(obj map[string]json.RawMessage, key string) (float64, bool) {
	raw, present := obj[key]
	if !present {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func intField(obj map[string]json.RawMessage, key string) (int, bool) {
	f, ok := numberField(obj, key)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func changePercent(price, prev float64) float64 {
	return (price - prev) / prev * 100
}

func knownTicker(stocks []domain.Stock, ticker string) bool {
	for _, s := range stocks {
		if s.Ticker == ticker {
			return true
		}
	}
	return false
}
