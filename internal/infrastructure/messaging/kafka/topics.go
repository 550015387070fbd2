// Package kafka implements the event bus: topic definitions, the producer
// used by the run service and the consumer loop driving the analysis
// workers.
package kafka

import (
	"encoding/json"
	"time"

	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/types/common"
)

// Topic constants.
const (
	// TopicRunSubmitted carries queued runs to the analysis workers.
	TopicRunSubmitted = "deforestation.run.submitted"
	// TopicRunCompleted announces terminal runs with their estimates.
	TopicRunCompleted = "deforestation.run.completed"
	// TopicAlertIntegrated fires when a completed run measured a positive
	// merged disturbance area.
	TopicAlertIntegrated = "deforestation.alert.integrated"
)

const schemaVersion = "1.0"

// EventEnvelope standardizes event messages across topics.
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	SchemaVersion string          `json:"schema_version"`
	Payload       json.RawMessage `json:"payload"`
}

// RunSubmittedPayload is the body of TopicRunSubmitted events.
type RunSubmittedPayload struct {
	RunID      string `json:"run_id"`
	AOIAssetID string `json:"aoi_asset_id"`
	StartYear  int    `json:"start_year"`
	EndYear    int    `json:"end_year"`
}

// RunCompletedPayload is the body of TopicRunCompleted events.
type RunCompletedPayload struct {
	RunID      string         `json:"run_id"`
	AOIAssetID string         `json:"aoi_asset_id"`
	AOIName    string         `json:"aoi_name,omitempty"`
	Status     string         `json:"status"`
	Estimates  []EstimateBody `json:"estimates,omitempty"`
}

// EstimateBody mirrors one hectare estimate on the wire.
type EstimateBody struct {
	Dataset     string  `json:"dataset"`
	Hectares    float64 `json:"hectares"`
	ScaleMeters float64 `json:"scale_meters"`
}

// AlertIntegratedPayload is the body of TopicAlertIntegrated events.
type AlertIntegratedPayload struct {
	RunID      string  `json:"run_id"`
	AOIAssetID string  `json:"aoi_asset_id"`
	AOIName    string  `json:"aoi_name,omitempty"`
	Hectares   float64 `json:"hectares"`
	StartYear  int     `json:"start_year"`
	EndYear    int     `json:"end_year"`
}

// NewEnvelope wraps a payload in a versioned envelope.
func NewEnvelope(eventType, source string, payload any) (*EventEnvelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSerialization, "failed to encode event payload")
	}
	return &EventEnvelope{
		EventID:       string(common.NewID()),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: schemaVersion,
		Payload:       body,
	}, nil
}

// Decode unmarshals the envelope payload into dest.
func (e *EventEnvelope) Decode(dest any) error {
	if err := json.Unmarshal(e.Payload, dest); err != nil {
		return errors.Wrap(err, errors.CodeSerialization, "failed to decode event payload")
	}
	return nil
}
