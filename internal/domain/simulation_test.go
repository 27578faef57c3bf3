package domain

import "testing"

func TestCacheKeyStructuralEquality(t *testing.T) {
	base := SimulationRequest{
		Stocks:     []Stock{{Ticker: "ABC", Price: 100, Volatility: 5}},
		Days:       3,
		CurrentDay: 7,
		Predictions: []Prediction{
			{Ticker: "ABC", Day: 9, Direction: PredictionRise},
		},
	}

	same := base
	same.Stocks = []Stock{{Ticker: "XYZ", Price: 50, Volatility: 2}}
	if base.CacheKey() != same.CacheKey() {
		t.Error("stocks must not participate in the cache key")
	}

	diffDay := base
	diffDay.CurrentDay = 8
	if base.CacheKey() == diffDay.CacheKey() {
		t.Error("currentDay must change the cache key")
	}

	diffPred := base
	diffPred.Predictions = []Prediction{
		{Ticker: "ABC", Day: 9, Direction: PredictionFall},
	}
	if base.CacheKey() == diffPred.CacheKey() {
		t.Error("prediction contents must change the cache key")
	}
}

func TestCacheKeyNilAndEmptySlicesAgree(t *testing.T) {
	withNil := SimulationRequest{Days: 1, CurrentDay: 0}
	withEmpty := SimulationRequest{
		Days:              1,
		CurrentDay:        0,
		Predictions:       []Prediction{},
		ActiveEconEffects: []EconEvent{},
	}
	if withNil.CacheKey() != withEmpty.CacheKey() {
		t.Error("omitted and empty collections should produce the same key")
	}
}

func TestLastEventDay(t *testing.T) {
	if got := LastEventDay(nil); got != 0 {
		t.Fatalf("no events: expected 0, got %d", got)
	}
	active := []EconEvent{
		{Sector: SectorEnergy, StartDay: 4},
		{Sector: SectorFinance, StartDay: 11},
		{Sector: SectorUtilities, StartDay: 8},
	}
	if got := LastEventDay(active); got != 11 {
		t.Fatalf("expected 11, got %d", got)
	}
}

func TestPredictedEventActivate(t *testing.T) {
	p := PredictedEconEvent{
		Sector:    SectorTechnology,
		Headline:  "Positive Market Shift in Technology",
		DaysLeft:  3,
		StartDay:  12,
		Direction: EventPositive,
		Day:       12,
	}
	ev := p.Activate()
	if ev.Sector != p.Sector || ev.Headline != p.Headline ||
		ev.DaysLeft != p.DaysLeft || ev.StartDay != p.StartDay ||
		ev.Direction != p.Direction {
		t.Fatalf("activation must carry all fields: %+v", ev)
	}
}
