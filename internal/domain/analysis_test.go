package domain

import (
	"encoding/json"
	"testing"
)

func TestGameLogDecodeForms(t *testing.T) {
	arrayForm := `{"log":[{"action":"buy","ticker":"ABC"},{"action":"sell","ticker":"XYZ"}]}`
	stringForm := `{"log":"[{\"action\":\"buy\",\"ticker\":\"ABC\"},{\"action\":\"sell\",\"ticker\":\"XYZ\"}]"}`

	type payload struct {
		Log GameLog `json:"log"`
	}

	var fromArray, fromString payload
	if err := json.Unmarshal([]byte(arrayForm), &fromArray); err != nil {
		t.Fatalf("array form: %v", err)
	}
	if err := json.Unmarshal([]byte(stringForm), &fromString); err != nil {
		t.Fatalf("string form: %v", err)
	}

	if len(fromArray.Log) != 2 || len(fromString.Log) != 2 {
		t.Fatalf("expected 2 entries, got %d and %d", len(fromArray.Log), len(fromString.Log))
	}
	for i := range fromArray.Log {
		if string(fromArray.Log[i]) != string(fromString.Log[i]) {
			t.Errorf("entry %d differs: %s vs %s", i, fromArray.Log[i], fromString.Log[i])
		}
	}
}

func TestGameLogRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"object", `{"log":{"action":"buy"}}`},
		{"number", `{"log":42}`},
		{"malformed string", `{"log":"not json at all"}`},
		{"string with object", `{"log":"{\"action\":\"buy\"}"}`},
		{"truncated array string", `{"log":"[{\"action\":"}`},
	}

	type payload struct {
		Log GameLog `json:"log"`
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var p payload
			if err := json.Unmarshal([]byte(tc.in), &p); err == nil {
				t.Fatalf("expected decode error for %s", tc.in)
			}
		})
	}
}

func TestGameLogEmptyArray(t *testing.T) {
	var l GameLog
	if err := json.Unmarshal([]byte(`[]`), &l); err != nil {
		t.Fatalf("empty array should decode: %v", err)
	}
	if len(l) != 0 {
		t.Fatalf("expected empty log, got %d entries", len(l))
	}
}
