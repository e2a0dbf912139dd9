package utils

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Accepted string layouts for schedule start times, in the order they
// are tried.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// NormalizeTimestamp converts the several shapes a schedule start time
// can arrive in into a single UTC instant.  Historical documents carry
// native dates, {seconds,nanos} maps (with or without a leading
// underscore), epoch numbers and plain strings; all shape detection
// lives here so callers never branch on the raw value themselves.
// An unrecognized or unparseable value yields an error; bulk filtering
// treats that as "exclude the schedule", never as a fatal condition.
func NormalizeTimestamp(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, fmt.Errorf("timestamp is nil")
	case time.Time:
		return t.UTC(), nil
	case *time.Time:
		if t == nil {
			return time.Time{}, fmt.Errorf("timestamp is nil")
		}
		return t.UTC(), nil
	case primitive.DateTime:
		return t.Time().UTC(), nil
	case primitive.Timestamp:
		return time.Unix(int64(t.T), 0).UTC(), nil
	case string:
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unparseable timestamp string %q", t)
	case int64:
		return fromEpoch(t), nil
	case int32:
		return fromEpoch(int64(t)), nil
	case int:
		return fromEpoch(int64(t)), nil
	case float64:
		return fromEpoch(int64(t)), nil
	case map[string]interface{}:
		return fromSecondsMap(t)
	case primitive.M:
		return fromSecondsMap(map[string]interface{}(t))
	case primitive.D:
		m := make(map[string]interface{}, len(t))
		for _, e := range t {
			m[e.Key] = e.Value
		}
		return fromSecondsMap(m)
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
	}
}

// fromEpoch interprets an integer as epoch seconds, or epoch
// milliseconds when the magnitude makes seconds implausible.
func fromEpoch(n int64) time.Time {
	if n > 1e12 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}

// fromSecondsMap handles the embedded-seconds object shape, e.g.
// {"seconds": 1700000000, "nanos": 0} or {"_seconds": ...}.
func fromSecondsMap(m map[string]interface{}) (time.Time, error) {
	for _, key := range []string{"seconds", "_seconds"} {
		raw, ok := m[key]
		if !ok {
			continue
		}
		sec, err := toInt64(raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("timestamp map %s: %w", key, err)
		}
		var nanos int64
		for _, nk := range []string{"nanos", "nanoseconds", "_nanoseconds"} {
			if nraw, ok := m[nk]; ok {
				if n, err := toInt64(nraw); err == nil {
					nanos = n
				}
				break
			}
		}
		return time.Unix(sec, nanos).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("timestamp map has no seconds field")
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}
