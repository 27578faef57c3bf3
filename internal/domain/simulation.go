package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// SimulationRequest carries everything the engine needs to advance the
// market by a batch of days. The caller owns all game state; the engine is
// stateless apart from the predicted-event slot.
type SimulationRequest struct {
	Stocks            []Stock      `json:"stocks"`
	Days              int          `json:"days"`
	Predictions       []Prediction `json:"predictions,omitempty"`
	CurrentDay        int          `json:"currentDay"`
	ActiveEconEffects []EconEvent  `json:"activeEconEffects,omitempty"`
}

// CacheKey hashes the semantically relevant request fields. Identical
// requests map to the same key; stocks are deliberately not part of the
// tuple.
func (r SimulationRequest) CacheKey() string {
	preds := r.Predictions
	if preds == nil {
		preds = []Prediction{}
	}
	effects := r.ActiveEconEffects
	if effects == nil {
		effects = []EconEvent{}
	}
	canonical := struct {
		CurrentDay  int          `json:"currentDay"`
		Days        int          `json:"days"`
		Predictions []Prediction `json:"predictions"`
		Effects     []EconEvent  `json:"activeEconEffects"`
	}{r.CurrentDay, r.Days, preds, effects}

	raw, _ := json.Marshal(canonical)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// SimulationResult is the authoritative outcome of one simulation batch.
type SimulationResult struct {
	Simulated     []SimulationTick `json:"simulated"`
	NewEconEvents []EconEvent      `json:"newEconEvents"`
}

// BatchSource records which path produced a batch of ticks.
type BatchSource string

const (
	SourceLLM      BatchSource = "llm"
	SourceFallback BatchSource = "fallback"
)

// SimulationBatch is the history record of one completed simulation batch.
type SimulationBatch struct {
	ID         string      `json:"id"`
	Profile    string      `json:"profile"`
	CurrentDay int         `json:"currentDay"`
	Days       int         `json:"days"`
	Source     BatchSource `json:"source"`
	TickCount  int         `json:"tickCount"`
	EventCount int         `json:"eventCount"`
	ElapsedMS  int64       `json:"elapsedMs"`
	CreatedAt  time.Time   `json:"createdAt"`
}
