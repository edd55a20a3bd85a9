package sse

import (
	"encoding/json"
	"strings"
)

// Kind classifies one decoded frame.
type Kind int

const (
	KindIgnorable   Kind = iota // framing lines, heartbeat/billing info
	KindDelta                   // incremental content fragment
	KindDone                    // explicit stream terminator
	KindUnparseable             // malformed payload surfaced as literal text
)

// Frame is one unit of meaning extracted from a wire line.
type Frame struct {
	Kind  Kind
	Delta string // content for KindDelta and KindUnparseable
	Done  bool   // payload-level completion flag riding on a delta
}

const (
	dataPrefix    = "data: "
	doneSentinel  = "[DONE]"
	heartbeatMark = "balance"
)

// chunk is the JSON shape of a data-bearing frame.
type chunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Done bool `json:"done"`
}

// Interpret classifies one decoded line. It never fails: payloads that do
// not parse degrade to literal text so partially malformed upstream output
// stays visible instead of being dropped.
func Interpret(line string) Frame {
	if !strings.HasPrefix(line, dataPrefix) {
		// Blank lines and non-data framing lines carry no meaning here.
		return Frame{Kind: KindIgnorable}
	}
	payload := strings.TrimSpace(strings.TrimPrefix(line, dataPrefix))
	if payload == "" {
		return Frame{Kind: KindIgnorable}
	}
	if payload == doneSentinel {
		return Frame{Kind: KindDone}
	}
	if strings.Contains(payload, heartbeatMark) {
		// Periodic balance/keepalive frames never contribute content.
		return Frame{Kind: KindIgnorable}
	}

	var c chunk
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		text := strings.TrimSpace(strings.ReplaceAll(payload, doneSentinel, ""))
		return Frame{Kind: KindUnparseable, Delta: text}
	}

	f := Frame{Kind: KindDelta, Done: c.Done}
	if len(c.Choices) > 0 {
		f.Delta = c.Choices[0].Delta.Content
	}
	return f
}
