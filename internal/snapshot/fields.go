package snapshot

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/tripwidget/internal/backend"
	"github.com/theirongolddev/tripwidget/internal/model"
	"github.com/theirongolddev/tripwidget/internal/pipeline"
)

// DefaultCategory is used when a record carries no category.
const DefaultCategory = "Leisure"

// Wire keys. Aliases follow the primary key in each list.
var (
	keysID            = []string{"id"}
	keysName          = []string{"name"}
	keysStart         = []string{"startEpoch", "startDate"}
	keysEnd           = []string{"endEpoch", "endDate"}
	keysDestination   = []string{"destination"}
	keysBudget        = []string{"budget"}
	keysTotalExpenses = []string{"totalExpenses"}
	keysCategory      = []string{"category"}
	keysDuration      = []string{"durationDays", "duration"}
)

// lookup returns the first present, non-null value among keys.
func lookup(rec backend.Record, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := rec[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// parseRecord applies the field policy to one raw record. expenses maps trip
// id to the total from the channel's expense side table.
func parseRecord(idx int, rec backend.Record, expenses map[string]float64) (model.TripSnapshot, error) {
	if rec == nil {
		return model.TripSnapshot{}, &RecordError{Index: idx, Field: "record", Err: errNotObj}
	}

	id, err := requiredString(rec, keysID)
	if err != nil {
		return model.TripSnapshot{}, &RecordError{Index: idx, Field: "id", Err: err}
	}
	id = canonicalID(id)

	fail := func(field string, err error) (model.TripSnapshot, error) {
		return model.TripSnapshot{}, &RecordError{Index: idx, ID: id, Field: field, Err: err}
	}

	name, err := requiredString(rec, keysName)
	if err != nil {
		return fail("name", err)
	}
	start, err := requiredTime(rec, keysStart)
	if err != nil {
		return fail("startEpoch", err)
	}
	end, err := requiredTime(rec, keysEnd)
	if err != nil {
		return fail("endEpoch", err)
	}
	if end.Before(start) {
		return fail("endEpoch", errOrder)
	}

	s := model.TripSnapshot{
		ID:          id,
		Name:        name,
		Start:       start,
		End:         end,
		Destination: optionalString(rec, keysDestination, ""),
		Category:    optionalString(rec, keysCategory, DefaultCategory),
	}

	if b, ok := optionalFloat(rec, keysBudget); ok && b >= 0 {
		s.Budget = &b
	}

	if t, ok := optionalFloat(rec, keysTotalExpenses); ok {
		s.TotalExpenses = t
	} else if t, ok := expenses[id]; ok {
		s.TotalExpenses = t
	}
	s.TotalExpenses = max(s.TotalExpenses, 0)

	if d, ok := optionalFloat(rec, keysDuration); ok && d >= 0 && d <= math.MaxInt32 {
		s.DurationDays = int(d)
	} else {
		s.DurationDays = int(end.Sub(start) / pipeline.Day)
	}

	return s, nil
}

// canonicalID lowercases valid UUIDs so producers that differ in case still
// agree. Other ids are only trimmed.
func canonicalID(id string) string {
	if u, err := uuid.Parse(id); err == nil {
		return u.String()
	}
	return id
}

func requiredString(rec backend.Record, keys []string) (string, error) {
	v, ok := lookup(rec, keys)
	if !ok {
		return "", errMissing
	}
	s, ok := v.(string)
	if !ok {
		return "", errType
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errEmpty
	}
	return s, nil
}

func optionalString(rec backend.Record, keys []string, def string) string {
	v, ok := lookup(rec, keys)
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return def
	}
	return strings.TrimSpace(s)
}

func optionalFloat(rec backend.Record, keys []string) (float64, bool) {
	v, ok := lookup(rec, keys)
	if !ok {
		return 0, false
	}
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func requiredTime(rec backend.Record, keys []string) (time.Time, error) {
	v, ok := lookup(rec, keys)
	if !ok {
		return time.Time{}, errMissing
	}
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t.UTC(), nil
		}
	}
	secs, ok := toFloat(v)
	if !ok || math.IsNaN(secs) || math.IsInf(secs, 0) {
		return time.Time{}, errNotEpoch
	}
	return epochTime(secs), nil
}

// toFloat accepts the numeric shapes the channels produce: JSON numbers,
// SQLite REAL/INTEGER columns, and numeric strings.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(n)), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func epochTime(secs float64) time.Time {
	whole := math.Floor(secs)
	return time.Unix(int64(whole), int64((secs-whole)*float64(time.Second))).UTC()
}
