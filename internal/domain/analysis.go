package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// GameLog is the player's action history as passed to performance analysis.
// Clients send it either as a JSON array or as a JSON-encoded string
// containing an array; both decode to the same value.
type GameLog []json.RawMessage

func (l *GameLog) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("game log: empty value")
	}

	if data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return fmt.Errorf("game log: decode string: %w", err)
		}
		data = bytes.TrimSpace([]byte(encoded))
	}

	if len(data) == 0 || data[0] != '[' {
		return fmt.Errorf("game log: expected an array")
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("game log: decode array: %w", err)
	}
	*l = entries
	return nil
}
