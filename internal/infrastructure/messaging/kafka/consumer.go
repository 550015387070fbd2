package kafka

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/aflahkuncoro/deforestation-monitoring/internal/config"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/monitoring/logging"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/monitoring/metrics"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
)

// Handler processes one decoded event.  Returning an error leaves the
// message uncommitted so it is redelivered.
type Handler func(ctx context.Context, envelope *EventEnvelope) error

// readerInterface abstracts kafka.Reader for testing.
type readerInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer runs a handler pool over one topic within a consumer group.
type Consumer struct {
	reader      readerInterface
	topic       string
	handler     Handler
	concurrency int
	logger      logging.Logger
}

// NewConsumer subscribes to topic within the configured group.
func NewConsumer(cfg config.KafkaConfig, topic string, concurrency int, handler Handler, log logging.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.CodeInvalidParam, "at least one kafka broker is required")
	}
	if handler == nil {
		return nil, errors.New(errors.CodeInvalidParam, "handler must not be nil")
	}

	startOffset := kafka.LastOffset
	if cfg.AutoOffsetReset == "earliest" {
		startOffset = kafka.FirstOffset
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       topic,
		StartOffset: startOffset,
	})
	return newConsumer(reader, topic, concurrency, handler, log), nil
}

func newConsumer(reader readerInterface, topic string, concurrency int, handler Handler, log logging.Logger) *Consumer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Consumer{
		reader:      reader,
		topic:       topic,
		handler:     handler,
		concurrency: concurrency,
		logger:      log.Named("kafka_consumer"),
	}
}

// Run fetches and handles messages until ctx is canceled.  Messages are
// committed only after the handler succeeds; handler failures are logged
// and the message stays in the group's backlog.
func (c *Consumer) Run(ctx context.Context) error {
	sem := make(chan struct{}, c.concurrency)
	var wg sync.WaitGroup

	c.logger.Info("consumer started",
		logging.String("topic", c.topic),
		logging.Int("concurrency", c.concurrency))

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			wg.Wait()
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, errors.CodeMessageQueueError, "fetch failed").WithDetail(c.topic)
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(msg kafka.Message) {
			defer wg.Done()
			defer func() { <-sem }()
			c.handle(ctx, msg)
		}(msg)
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	var envelope EventEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		// A malformed message can never succeed; commit it away.
		c.logger.Error("malformed event dropped",
			logging.String("topic", c.topic),
			logging.Int64("offset", msg.Offset),
			logging.Err(err))
		metrics.IncConsumedMessage(c.topic, "malformed")
		_ = c.reader.CommitMessages(ctx, msg)
		return
	}

	if err := c.handler(ctx, &envelope); err != nil {
		c.logger.Error("event handling failed",
			logging.String("topic", c.topic),
			logging.String("event_id", envelope.EventID),
			logging.Err(err))
		metrics.IncConsumedMessage(c.topic, "failed")
		return
	}

	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Warn("commit failed",
			logging.String("topic", c.topic),
			logging.Int64("offset", msg.Offset),
			logging.Err(err))
		return
	}
	metrics.IncConsumedMessage(c.topic, "ok")
}

// Close stops the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
