package domain

// EventDirection is the sign of an economic event's price bias.
type EventDirection string

const (
	EventPositive EventDirection = "positive"
	EventNegative EventDirection = "negative"
)

// EconEvent is a sector-wide, multi-day price-bias effect. The caller owns
// the active set and supplies it back on every simulation request; the
// engine only decides whether to add a new one.
type EconEvent struct {
	Sector    Sector         `json:"sector"`
	Headline  string         `json:"headline"`
	DaysLeft  int            `json:"daysLeft"`
	StartDay  int            `json:"startDay"`
	Direction EventDirection `json:"direction"`
}

// PredictedEconEvent is a not-yet-active econ event scheduled to trigger on
// a future day. At most one exists per scheduler instance.
type PredictedEconEvent struct {
	Sector    Sector         `json:"sector"`
	Headline  string         `json:"headline"`
	DaysLeft  int            `json:"daysLeft"`
	StartDay  int            `json:"startDay"`
	Direction EventDirection `json:"direction"`
	Day       int            `json:"day"`
}

// Activate converts the predicted event into an active one. DaysLeft and
// StartDay carry over unchanged; Day is dropped.
func (p PredictedEconEvent) Activate() EconEvent {
	return EconEvent{
		Sector:    p.Sector,
		Headline:  p.Headline,
		DaysLeft:  p.DaysLeft,
		StartDay:  p.StartDay,
		Direction: p.Direction,
	}
}

// LastEventDay returns the greatest start day across the active events,
// or 0 when none are active.
func LastEventDay(active []EconEvent) int {
	last := 0
	for _, ev := range active {
		if ev.StartDay > last {
			last = ev.StartDay
		}
	}
	return last
}
