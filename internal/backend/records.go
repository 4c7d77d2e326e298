package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// decodeRecords decodes a JSON array into records. Elements that are not
// objects become nil records so the loader can count them as dropped.
func decodeRecords(raw json.RawMessage) ([]Record, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("decoding record list: %w", err)
	}

	out := make([]Record, 0, len(elems))
	for _, e := range elems {
		dec := json.NewDecoder(bytes.NewReader(e))
		dec.UseNumber()
		var rec map[string]any
		if err := dec.Decode(&rec); err != nil {
			out = append(out, nil)
			continue
		}
		out = append(out, Record(rec))
	}
	return out, nil
}

// decodeEpoch reads an optional epoch-seconds value such as lastSync.
func decodeEpoch(raw json.RawMessage) time.Time {
	if len(raw) == 0 {
		return time.Time{}
	}
	var secs float64
	if err := json.Unmarshal(raw, &secs); err != nil || math.IsNaN(secs) || secs <= 0 {
		return time.Time{}
	}
	whole := math.Floor(secs)
	return time.Unix(int64(whole), int64((secs-whole)*float64(time.Second))).UTC()
}
