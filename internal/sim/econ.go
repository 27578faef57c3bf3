package sim

import (
	"fmt"
	"sync"

	"github.com/fablestreet/marketsim/internal/domain"
)

// Event cadence: no event within minEventGap days of the last one, a coin
// flip between minEventGap and forceEventGap, guaranteed emission past
// forceEventGap.
const (
	minEventGap   = 6
	forceEventGap = 10
)

// Scheduler decides when sector-wide economic events fire and owns the
// single predicted-event slot. All methods are safe for concurrent use;
// the slot is the only server-side game state in the process.
type Scheduler struct {
	mu        sync.Mutex
	predicted *domain.PredictedEconEvent
	src       Source
}

// NewScheduler builds a scheduler with an empty predicted-event slot.
func NewScheduler(src Source) *Scheduler {
	return &Scheduler{src: src}
}

// MaybeSchedule rolls for a fresh econ event given the caller's active
// set. Returns nil when the cadence gate or the coin flip says no.
func (s *Scheduler) MaybeSchedule(active []domain.EconEvent, currentDay int) *domain.EconEvent {
	daysSince := currentDay - domain.LastEventDay(active)
	if daysSince < minEventGap {
		return nil
	}
	if daysSince < forceEventGap && s.src.Float64() >= 0.5 {
		return nil
	}
	ev := s.newEvent(currentDay + 1)
	return &ev
}

// PromotePredicted converts the predicted event into an active one when
// the simulated range (currentDay, currentDay+days] reaches its trigger
// day, clearing the slot. A slot already behind currentDay is stale and is
// cleared without promotion.
func (s *Scheduler) PromotePredicted(currentDay, days int) *domain.EconEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.predicted == nil {
		return nil
	}
	if s.predicted.Day <= currentDay {
		s.predicted = nil
		return nil
	}
	if s.predicted.Day > currentDay+days {
		return nil
	}
	ev := s.predicted.Activate()
	s.predicted = nil
	return &ev
}

// PredictEconEvent returns the upcoming economic event, creating one if
// the slot is empty or expired. Repeated calls with the same currentDay
// return the identical event.
func (s *Scheduler) PredictEconEvent(active []domain.EconEvent, currentDay int) domain.PredictedEconEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.predicted != nil && currentDay < s.predicted.Day {
		return *s.predicted
	}

	daysUntil := minEventGap + s.src.Intn(forceEventGap-minEventGap+1)
	daysSince := currentDay - domain.LastEventDay(active)
	if daysSince >= minEventGap {
		if clamp := forceEventGap - daysSince; clamp < daysUntil {
			daysUntil = clamp
		}
		if daysUntil < 1 {
			daysUntil = 1
		}
	}

	ev := s.newEvent(currentDay + daysUntil)
	predicted := domain.PredictedEconEvent{
		Sector:    ev.Sector,
		Headline:  ev.Headline,
		DaysLeft:  ev.DaysLeft,
		StartDay:  ev.StartDay,
		Direction: ev.Direction,
		Day:       currentDay + daysUntil,
	}
	s.predicted = &predicted
	return predicted
}

// Predicted returns a copy of the current slot, or nil when empty.
func (s *Scheduler) Predicted() *domain.PredictedEconEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.predicted == nil {
		return nil
	}
	p := *s.predicted
	return &p
}

func (s *Scheduler) newEvent(startDay int) domain.EconEvent {
	sectors := domain.Sectors()
	sector := sectors[s.src.Intn(len(sectors))]
	duration := 3 + s.src.Intn(2)

	direction := domain.EventPositive
	label := "Positive"
	if s.src.Float64() >= 0.5 {
		direction = domain.EventNegative
		label = "Negative"
	}

	return domain.EconEvent{
		Sector:    sector,
		Headline:  fmt.Sprintf("%s Market Shift in %s", label, sector),
		DaysLeft:  duration,
		StartDay:  startDay,
		Direction: direction,
	}
}
