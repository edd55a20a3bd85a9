package gateway

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/ad-astra-video/flow"
)

// wireRecord is the JSON shape of one event-log message. Every field is
// optional; the whole payload is retained as the record's raw form.
type wireRecord struct {
	Timestamp json.RawMessage   `json:"timestamp"`
	Type      string            `json:"type"`
	Topic     string            `json:"topic"`
	Partition int               `json:"partition"`
	Offset    int64             `json:"offset"`
	Key       string            `json:"key"`
	Headers   map[string]string `json:"headers"`
}

// DecodeRecord parses one event-log payload into a [flow.Record]. Payloads
// that are not JSON objects still produce a record carrying the raw bytes.
// fallback supplies the arrival time used when the payload declares no
// usable timestamp.
func DecodeRecord(payload []byte, fallback time.Time) flow.Record {
	rec := flow.Record{
		Timestamp: fallback,
		Raw:       append(json.RawMessage(nil), payload...),
	}

	var w wireRecord
	if err := json.Unmarshal(payload, &w); err != nil {
		rec.Type = "raw"
		return rec
	}

	rec.Type = w.Type
	rec.Topic = w.Topic
	rec.Partition = w.Partition
	rec.Offset = w.Offset
	rec.Key = w.Key
	rec.Headers = w.Headers
	if ts, ok := parseTimestamp(w.Timestamp); ok {
		rec.Timestamp = ts
	}
	return rec
}

// parseTimestamp accepts the timestamp shapes seen on the wire: RFC 3339
// strings and numeric epochs (milliseconds or seconds).
func parseTimestamp(raw json.RawMessage) (time.Time, bool) {
	if len(raw) == 0 {
		return time.Time{}, false
	}

	var s string
	if json.Unmarshal(raw, &s) == nil {
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, true
			}
		}
		return time.Time{}, false
	}

	n, err := strconv.ParseFloat(string(raw), 64)
	if err != nil || n <= 0 {
		return time.Time{}, false
	}
	// Epochs past the year 33658 in seconds are millisecond epochs.
	if n > 1e12 {
		return time.UnixMilli(int64(n)), true
	}
	return time.Unix(int64(n), 0), true
}
