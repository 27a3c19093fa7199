package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Document field names stamped by the data layer.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
	FieldVersion   = "version"
)

// TimeLayout is the canonical wire format for every stored timestamp.
// Fixed width, so lexicographic order equals chronological order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// Meta is embedded by every stored record.
type Meta struct {
	ID        string    `json:"id"`
	CreatedAt Timestamp `json:"createdAt"`
	UpdatedAt Timestamp `json:"updatedAt"`
	Version   int       `json:"version"`
}

// Timestamp is a UTC instant that always serializes in TimeLayout and decodes
// every representation found in older documents.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t, normalized to UTC.
func NewTimestamp(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{Time: t.UTC()}
}

// FormatTime renders t in the canonical layout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(FormatTime(t.Time))), nil
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	v, err := DecodeTime(raw)
	if err != nil {
		return err
	}
	t.Time = v
	return nil
}

// DecodeTime is the single decoder for stored timestamps. Accepted shapes:
//   - nil or "" (zero time)
//   - time.Time / Timestamp
//   - RFC 3339 strings of any precision
//   - provider timestamp objects {seconds, nanoseconds} or {_seconds, _nanoseconds}
//   - extended JSON dates {"$date": ...}
//   - raw epoch numbers (seconds, or milliseconds when above 1e11)
func DecodeTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return NewTimestamp(x).Time, nil
	case Timestamp:
		return NewTimestamp(x.Time).Time, nil
	case *Timestamp:
		if x == nil {
			return time.Time{}, nil
		}
		return NewTimestamp(x.Time).Time, nil
	case string:
		if x == "" {
			return time.Time{}, nil
		}
		t, err := time.Parse(time.RFC3339Nano, x)
		if err != nil {
			return time.Time{}, fmt.Errorf("decode time %q: %w", x, err)
		}
		return t.UTC(), nil
	case map[string]any:
		if d, ok := x["$date"]; ok {
			return DecodeTime(d)
		}
		secs, ok := numberField(x, "seconds", "_seconds")
		if !ok {
			return time.Time{}, fmt.Errorf("decode time: object without seconds")
		}
		nanos, _ := numberField(x, "nanoseconds", "_nanoseconds")
		return time.Unix(int64(secs), int64(nanos)).UTC(), nil
	}
	if n, ok := toFloat(v); ok {
		return fromEpoch(n), nil
	}
	return time.Time{}, fmt.Errorf("decode time: unsupported type %T", v)
}

func fromEpoch(n float64) time.Time {
	if math.Abs(n) > 1e11 {
		ms := int64(n)
		return time.UnixMilli(ms).UTC()
	}
	sec, frac := math.Modf(n)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

func numberField(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if n, ok := toFloat(v); ok {
				return n, true
			}
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
