package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainAnalysis "github.com/aflahkuncoro/deforestation-monitoring/internal/domain/analysis"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/monitoring/logging"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
)

type writerMock struct {
	mu       sync.Mutex
	messages []kafkago.Message
	err      error
	closed   bool
}

func (w *writerMock) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *writerMock) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func completedRun(t *testing.T) *domainAnalysis.Run {
	t.Helper()
	run, err := domainAnalysis.NewRun(domainAnalysis.Request{
		AOIAssetID: "projects/test/aoi",
		StartYear:  2020,
		EndYear:    2024,
	})
	require.NoError(t, err)
	run.AOIName = "Riau Block A"
	require.NoError(t, run.Start())
	require.NoError(t, run.Complete([]domainAnalysis.AreaEstimate{
		{Dataset: "hansen", Hectares: 152.3, ScaleMeters: 30},
		{Dataset: "radd", Hectares: 98.1, ScaleMeters: 10},
		{Dataset: "merged", Hectares: 201.7, ScaleMeters: 10},
	}))
	return run
}

func TestProducerRunCompleted(t *testing.T) {
	w := &writerMock{}
	p := NewProducerWithWriter(w, logging.NewNopLogger())
	run := completedRun(t)

	require.NoError(t, p.RunCompleted(context.Background(), run))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, TopicRunCompleted, msg.Topic)
	assert.Equal(t, string(run.ID), string(msg.Key))

	var envelope EventEnvelope
	require.NoError(t, json.Unmarshal(msg.Value, &envelope))
	assert.Equal(t, TopicRunCompleted, envelope.EventType)
	assert.NotEmpty(t, envelope.EventID)

	var payload RunCompletedPayload
	require.NoError(t, envelope.Decode(&payload))
	assert.Equal(t, string(run.ID), payload.RunID)
	assert.Equal(t, "completed", payload.Status)
	assert.Len(t, payload.Estimates, 3)
}

func TestProducerAlertIntegrated(t *testing.T) {
	w := &writerMock{}
	p := NewProducerWithWriter(w, logging.NewNopLogger())
	run := completedRun(t)

	require.NoError(t, p.AlertIntegrated(context.Background(), run,
		domainAnalysis.AreaEstimate{Dataset: "merged", Hectares: 201.7, ScaleMeters: 10}))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, TopicAlertIntegrated, msg.Topic)
	// Alert events key on the AOI so all alerts for one area stay ordered.
	assert.Equal(t, run.Request.AOIAssetID, string(msg.Key))

	var envelope EventEnvelope
	require.NoError(t, json.Unmarshal(msg.Value, &envelope))
	var payload AlertIntegratedPayload
	require.NoError(t, envelope.Decode(&payload))
	assert.InDelta(t, 201.7, payload.Hectares, 1e-9)
}

func TestProducerClosed(t *testing.T) {
	w := &writerMock{}
	p := NewProducerWithWriter(w, logging.NewNopLogger())
	require.NoError(t, p.Close())
	assert.True(t, w.closed)

	err := p.RunCompleted(context.Background(), completedRun(t))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeMessageQueueError))
}

type readerMock struct {
	mu        sync.Mutex
	queue     []kafkago.Message
	committed []kafkago.Message
}

func (r *readerMock) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		<-ctx.Done()
		return kafkago.Message{}, ctx.Err()
	}
	msg := r.queue[0]
	r.queue = r.queue[1:]
	return msg, nil
}

func (r *readerMock) CommitMessages(ctx context.Context, msgs ...kafkago.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *readerMock) Close() error { return nil }

func envelopeMessage(t *testing.T, topic string, payload any) kafkago.Message {
	t.Helper()
	envelope, err := NewEnvelope(topic, "test", payload)
	require.NoError(t, err)
	body, err := json.Marshal(envelope)
	require.NoError(t, err)
	return kafkago.Message{Topic: topic, Value: body}
}

func TestConsumerHandlesAndCommits(t *testing.T) {
	reader := &readerMock{queue: []kafkago.Message{
		envelopeMessage(t, TopicRunSubmitted, RunSubmittedPayload{RunID: "r1", AOIAssetID: "a", StartYear: 2020, EndYear: 2024}),
		envelopeMessage(t, TopicRunSubmitted, RunSubmittedPayload{RunID: "r2", AOIAssetID: "b", StartYear: 2020, EndYear: 2024}),
	}}

	var mu sync.Mutex
	var handled []string
	handler := func(ctx context.Context, envelope *EventEnvelope) error {
		var payload RunSubmittedPayload
		if err := envelope.Decode(&payload); err != nil {
			return err
		}
		mu.Lock()
		handled = append(handled, payload.RunID)
		mu.Unlock()
		return nil
	}

	c := newConsumer(reader, TopicRunSubmitted, 2, handler, logging.NewNopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	require.NoError(t, c.Run(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"r1", "r2"}, handled)
	assert.Len(t, reader.committed, 2)
}

func TestConsumerLeavesFailedMessagesUncommitted(t *testing.T) {
	reader := &readerMock{queue: []kafkago.Message{
		envelopeMessage(t, TopicRunSubmitted, RunSubmittedPayload{RunID: "r1"}),
	}}

	handler := func(ctx context.Context, envelope *EventEnvelope) error {
		return errors.New(errors.CodeInternal, "boom")
	}
	c := newConsumer(reader, TopicRunSubmitted, 1, handler, logging.NewNopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	require.NoError(t, c.Run(ctx))

	assert.Empty(t, reader.committed)
}

func TestConsumerDropsMalformedMessages(t *testing.T) {
	reader := &readerMock{queue: []kafkago.Message{
		{Topic: TopicRunSubmitted, Value: []byte("{not an envelope")},
	}}

	handler := func(ctx context.Context, envelope *EventEnvelope) error {
		t.Fatal("handler must not run for malformed messages")
		return nil
	}
	c := newConsumer(reader, TopicRunSubmitted, 1, handler, logging.NewNopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	require.NoError(t, c.Run(ctx))

	assert.Len(t, reader.committed, 1, "malformed messages are committed away")
}
