package eventlog_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ad-astra-video/flow"
	"github.com/ad-astra-video/flow/eventlog"
)

func record(topic, key string, payload string) flow.Record {
	return flow.Record{
		Type:  "message",
		Topic: topic,
		Key:   key,
		Raw:   json.RawMessage(payload),
	}
}

func TestLog_AppendAssignsSequence(t *testing.T) {
	t.Parallel()

	log := eventlog.New()
	first := log.Append(record("jobs.created", "a", `{}`))
	second := log.Append(record("jobs.created", "b", `{}`))

	assert.Equal(t, uint64(1), first.Sequence)
	assert.Equal(t, uint64(2), second.Sequence)
	assert.Equal(t, 2, log.Len())
}

func TestLog_EvictsOldestBeyondCap(t *testing.T) {
	t.Parallel()

	log := eventlog.New(eventlog.WithCap(1000))
	for i := 0; i < 1001; i++ {
		log.Append(record("jobs.created", fmt.Sprintf("k%d", i), `{}`))
	}

	records := log.Records()
	require.Len(t, records, 1000)

	// The first record was evicted; the survivors keep their original,
	// strictly increasing sequence numbers with no gaps.
	assert.Equal(t, uint64(2), records[0].Sequence)
	for i, rec := range records {
		assert.Equal(t, uint64(i+2), rec.Sequence)
	}
	assert.Equal(t, uint64(1001), records[len(records)-1].Sequence)
}

func TestLog_EvictionSkipsPinned(t *testing.T) {
	t.Parallel()

	log := eventlog.New(eventlog.WithCap(3))
	first := log.Append(record("jobs.created", "keep", `{}`))
	log.Pin(first.Sequence, true)
	for i := 0; i < 5; i++ {
		log.Append(record("jobs.created", fmt.Sprintf("k%d", i), `{}`))
	}

	records := log.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "keep", records[0].Key)
	assert.True(t, records[0].Pinned)
}

func TestLog_ClearResetsSequence(t *testing.T) {
	t.Parallel()

	log := eventlog.New()
	log.Append(record("jobs.created", "a", `{}`))
	log.Append(record("jobs.created", "b", `{}`))
	log.Clear()

	assert.Equal(t, 0, log.Len())
	rec := log.Append(record("jobs.created", "c", `{}`))
	assert.Equal(t, uint64(1), rec.Sequence)
}

func TestLog_FilterMatchesAnyField(t *testing.T) {
	t.Parallel()

	log := eventlog.New()
	log.Append(record("jobs.created", "order-7", `{"status":"queued"}`))
	log.Append(record("payments.settled", "invoice-3", `{"status":"paid"}`))

	log.SetFilter("PAID")
	filtered := log.Filtered()
	require.Len(t, filtered, 1)
	assert.Equal(t, "payments.settled", filtered[0].Topic)

	log.SetFilter("order")
	filtered = log.Filtered()
	require.Len(t, filtered, 1)
	assert.Equal(t, "order-7", filtered[0].Key)

	log.SetFilter("")
	assert.Len(t, log.Filtered(), 2)
}

func TestLog_TopicPattern(t *testing.T) {
	t.Parallel()

	log := eventlog.New()
	log.Append(record("jobs.created", "a", `{}`))
	log.Append(record("jobs.finished", "b", `{}`))
	log.Append(record("payments.settled", "c", `{}`))

	log.SetTopicPattern("jobs.*")
	filtered := log.Filtered()
	require.Len(t, filtered, 2)
	assert.Equal(t, "jobs.created", filtered[0].Topic)
	assert.Equal(t, "jobs.finished", filtered[1].Topic)
}

func TestLog_ExpandCollapseToggle(t *testing.T) {
	t.Parallel()

	log := eventlog.New()
	first := log.Append(record("jobs.created", "a", `{}`))
	log.Append(record("jobs.created", "b", `{}`))

	log.ExpandAll()
	for _, rec := range log.Records() {
		assert.True(t, rec.Expanded)
	}

	log.Toggle(first.Sequence)
	records := log.Records()
	assert.False(t, records[0].Expanded)
	assert.True(t, records[1].Expanded)

	log.CollapseAll()
	for _, rec := range log.Records() {
		assert.False(t, rec.Expanded)
	}
}

func TestLog_SubscribeNotifiesOnMutation(t *testing.T) {
	t.Parallel()

	log := eventlog.New()
	var calls int
	cancel := log.Subscribe(func() { calls++ })

	log.Append(record("jobs.created", "a", `{}`))
	log.Clear()
	assert.Equal(t, 2, calls)

	cancel()
	log.Append(record("jobs.created", "b", `{}`))
	assert.Equal(t, 2, calls)
}
