package flow

import (
	"encoding/json"
	"time"
)

// Record is one entry from the event-log feed. Sequence is assigned at
// arrival time by the owning log and is never reused within a session,
// even after filtering or clearing evicts the record.
type Record struct {
	Sequence  uint64
	Timestamp time.Time
	Type      string
	Topic     string
	Partition int
	Offset    int64
	Key       string
	Headers   map[string]string
	Raw       json.RawMessage

	// Display state, toggled by the caller through the owning log.
	Expanded bool
	Pinned   bool
}
