package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/aflahkuncoro/deforestation-monitoring/internal/application/analysis"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/config"
	domainAnalysis "github.com/aflahkuncoro/deforestation-monitoring/internal/domain/analysis"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/monitoring/logging"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
)

const producerSource = "forestwatch"

// writerInterface abstracts kafka.Writer for testing.
type writerInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes run lifecycle events.
type Producer struct {
	writer writerInterface
	logger logging.Logger
	closed atomic.Bool
}

// NewProducer creates a producer over the configured brokers.
func NewProducer(cfg config.KafkaConfig, log logging.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.CodeInvalidParam, "at least one kafka broker is required")
	}

	batchTimeout := cfg.BatchTimeout
	if batchTimeout == 0 {
		batchTimeout = time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 10 * time.Second
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  cfg.ProducerRetries + 1,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: batchTimeout,
		WriteTimeout: writeTimeout,
		RequiredAcks: kafka.RequireAll,
	}
	return &Producer{writer: writer, logger: log.Named("kafka_producer")}, nil
}

// NewProducerWithWriter wraps an existing writer, for tests.
func NewProducerWithWriter(w writerInterface, log logging.Logger) *Producer {
	return &Producer{writer: w, logger: log.Named("kafka_producer")}
}

var _ analysis.EventPublisher = (*Producer)(nil)

// RunSubmitted publishes a queued run for workers to pick up.
func (p *Producer) RunSubmitted(ctx context.Context, run *domainAnalysis.Run) error {
	return p.publish(ctx, TopicRunSubmitted, string(run.ID), RunSubmittedPayload{
		RunID:      string(run.ID),
		AOIAssetID: run.Request.AOIAssetID,
		StartYear:  run.Request.StartYear,
		EndYear:    run.Request.EndYear,
	})
}

// RunCompleted implements analysis.EventPublisher.
func (p *Producer) RunCompleted(ctx context.Context, run *domainAnalysis.Run) error {
	estimates := make([]EstimateBody, 0, len(run.Estimates))
	for _, e := range run.Estimates {
		estimates = append(estimates, EstimateBody{
			Dataset:     e.Dataset,
			Hectares:    e.Hectares,
			ScaleMeters: e.ScaleMeters,
		})
	}
	return p.publish(ctx, TopicRunCompleted, string(run.ID), RunCompletedPayload{
		RunID:      string(run.ID),
		AOIAssetID: run.Request.AOIAssetID,
		AOIName:    run.AOIName,
		Status:     string(run.Status),
		Estimates:  estimates,
	})
}

// AlertIntegrated implements analysis.EventPublisher.
func (p *Producer) AlertIntegrated(ctx context.Context, run *domainAnalysis.Run, merged domainAnalysis.AreaEstimate) error {
	return p.publish(ctx, TopicAlertIntegrated, run.Request.AOIAssetID, AlertIntegratedPayload{
		RunID:      string(run.ID),
		AOIAssetID: run.Request.AOIAssetID,
		AOIName:    run.AOIName,
		Hectares:   merged.Hectares,
		StartYear:  run.Request.StartYear,
		EndYear:    run.Request.EndYear,
	})
}

func (p *Producer) publish(ctx context.Context, topic, key string, payload any) error {
	if p.closed.Load() {
		return errors.New(errors.CodeMessageQueueError, "producer is closed")
	}

	envelope, err := NewEnvelope(topic, producerSource, payload)
	if err != nil {
		return err
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return errors.Wrap(err, errors.CodeSerialization, "failed to encode event envelope")
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: body,
		Time:  envelope.Timestamp,
	})
	if err != nil {
		return errors.Wrap(err, errors.CodeMessageQueueError, "failed to publish event").WithDetail(topic)
	}

	p.logger.Debug("event published",
		logging.String("topic", topic),
		logging.String("event_id", envelope.EventID))
	return nil
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return p.writer.Close()
}
