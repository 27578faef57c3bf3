package domain

// PredictionDirection says which way a predicted news item should move a
// stock.
type PredictionDirection string

const (
	PredictionRise PredictionDirection = "rise"
	PredictionFall PredictionDirection = "fall"
)

// PredictionHorizon bounds how far ahead a news prediction may land:
// day must fall in (currentDay, currentDay+PredictionHorizon].
const PredictionHorizon = 7

// Prediction is a per-stock news bias for an upcoming day. Predictions for
// days at or before the current day are ignored by the simulation.
type Prediction struct {
	Ticker    string              `json:"ticker"`
	Day       int                 `json:"day"`
	Direction PredictionDirection `json:"direction"`
}
