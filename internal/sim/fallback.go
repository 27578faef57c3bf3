// Package sim holds the local simulation engine: the random-walk fallback
// that stands in when the LLM output fails validation, the economic event
// scheduler, and the prompt builders for the LLM collaborator.
//
// The fallback deliberately ignores pending predictions and active econ
// effects; it trades fidelity for a guaranteed schema-valid result.
package sim

import (
	"fmt"
	"math"

	"github.com/fablestreet/marketsim/internal/domain"
)

// earningsMove is the fixed fractional price move applied on earnings
// days, sign chosen by the drawn performance.
const earningsMove = 0.20

// FallbackSimulator produces schema-valid simulation ticks without the
// LLM. Output is deterministic for a given Source.
type FallbackSimulator struct {
	src Source

	// scaledVolatility applies a random [0.5,1.5) multiplier to each
	// stock's base volatility per day.
	scaledVolatility bool
}

// NewFallbackSimulator builds a simulator drawing from src.
func NewFallbackSimulator(src Source, scaledVolatility bool) *FallbackSimulator {
	return &FallbackSimulator{src: src, scaledVolatility: scaledVolatility}
}

// Simulate walks every stock forward through days currentDay+1 through
// currentDay+days. Prices chain per stock and never drop below the floor.
// The result is always non-empty for a non-empty catalog.
func (f *FallbackSimulator) Simulate(stocks []domain.Stock, currentDay, days int) []domain.SimulationTick {
	ticks := make([]domain.SimulationTick, 0, len(stocks)*days)

	for _, stock := range stocks {
		prevPrice := stock.Price
		for day := currentDay + 1; day <= currentDay+days; day++ {
			dailyVolatility := stock.Volatility
			if f.scaledVolatility {
				dailyVolatility = stock.Volatility * (0.5 + f.src.Float64())
			}

			var (
				move        float64
				headline    string
				description string
			)
			if day%10 == 0 {
				quarter := day / 10
				if f.src.Float64() < 0.5 {
					move = earningsMove
					headline = fmt.Sprintf("%s Q%d Earnings Call", stock.Name, quarter)
					description = fmt.Sprintf("%s beat expectations this quarter and shares jumped.", stock.Name)
				} else {
					move = -earningsMove
					headline = fmt.Sprintf("%s Q%d Earnings Call", stock.Name, quarter)
					description = fmt.Sprintf("%s missed expectations this quarter and shares slid.", stock.Name)
				}
			} else {
				move = (f.src.Float64() - 0.5) * (dailyVolatility / 100)
				headline = fmt.Sprintf("Routine Session for %s", stock.Name)
				description = fmt.Sprintf("%s traded on ordinary volume with no major news.", stock.Name)
			}

			price := math.Max(domain.PriceFloor, prevPrice*(1+move))
			ticks = append(ticks, domain.SimulationTick{
				Ticker:           stock.Ticker,
				Day:              day,
				Price:            price,
				PreviousDayPrice: prevPrice,
				PriceChange:      (price - prevPrice) / prevPrice * 100,
				Volatility:       dailyVolatility,
				Headline:         headline,
				Description:      description,
			})
			prevPrice = price
		}
	}
	return ticks
}
