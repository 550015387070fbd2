package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/aflahkuncoro/deforestation-monitoring/internal/application/analysis"
	domainAnalysis "github.com/aflahkuncoro/deforestation-monitoring/internal/domain/analysis"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/monitoring/logging"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
)

// RunDocument is the indexed shape of a finished run.
type RunDocument struct {
	RunID       string     `json:"run_id"`
	AOIAssetID  string     `json:"aoi_asset_id"`
	AOIName     string     `json:"aoi_name,omitempty"`
	StartYear   int        `json:"start_year"`
	EndYear     int        `json:"end_year"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	Estimates   []Estimate `json:"estimates,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Estimate mirrors one hectare figure in the index.
type Estimate struct {
	Dataset     string  `json:"dataset"`
	Hectares    float64 `json:"hectares"`
	ScaleMeters float64 `json:"scale_meters"`
}

// runIndexMapping types the fields queries filter and sort on.
const runIndexMapping = `{
  "mappings": {
    "properties": {
      "run_id":       {"type": "keyword"},
      "aoi_asset_id": {"type": "keyword"},
      "aoi_name":     {"type": "text"},
      "start_year":   {"type": "integer"},
      "end_year":     {"type": "integer"},
      "status":       {"type": "keyword"},
      "estimates": {
        "type": "nested",
        "properties": {
          "dataset":      {"type": "keyword"},
          "hectares":     {"type": "double"},
          "scale_meters": {"type": "double"}
        }
      },
      "completed_at": {"type": "date"},
      "created_at":   {"type": "date"}
    }
  }
}`

// Indexer writes run documents.
type Indexer struct {
	client *Client
	logger logging.Logger
}

// NewIndexer constructs an indexer over client.
func NewIndexer(client *Client, log logging.Logger) *Indexer {
	return &Indexer{client: client, logger: log.Named("run_indexer")}
}

var _ analysis.ReportIndexer = (*Indexer)(nil)

// EnsureIndex creates the run index with its mapping if missing.
func (i *Indexer) EnsureIndex(ctx context.Context) error {
	exists := opensearchapi.IndicesExistsRequest{Index: []string{i.client.RunIndex()}}
	resp, err := exists.Do(ctx, i.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.CodeSearchError, "failed to check run index")
	}
	resp.Body.Close()
	if resp.StatusCode == 200 {
		return nil
	}

	create := opensearchapi.IndicesCreateRequest{
		Index: i.client.RunIndex(),
		Body:  bytes.NewReader([]byte(runIndexMapping)),
	}
	resp, err = create.Do(ctx, i.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.CodeSearchError, "failed to create run index")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return errorFromResponse(resp, "run index creation failed")
	}

	i.logger.Info("run index created", logging.String("index", i.client.RunIndex()))
	return nil
}

// IndexRun implements analysis.ReportIndexer.
func (i *Indexer) IndexRun(ctx context.Context, run *domainAnalysis.Run) error {
	if run == nil {
		return errors.New(errors.CodeInvalidParam, "run must not be nil")
	}

	doc := RunDocument{
		RunID:       string(run.ID),
		AOIAssetID:  run.Request.AOIAssetID,
		AOIName:     run.AOIName,
		StartYear:   run.Request.StartYear,
		EndYear:     run.Request.EndYear,
		Status:      string(run.Status),
		Error:       run.Error,
		CompletedAt: run.CompletedAt,
		CreatedAt:   run.CreatedAt,
	}
	for _, e := range run.Estimates {
		doc.Estimates = append(doc.Estimates, Estimate{
			Dataset:     e.Dataset,
			Hectares:    e.Hectares,
			ScaleMeters: e.ScaleMeters,
		})
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, errors.CodeSerialization, "failed to encode run document")
	}

	req := opensearchapi.IndexRequest{
		Index:      i.client.RunIndex(),
		DocumentID: string(run.ID),
		Body:       bytes.NewReader(body),
	}
	resp, err := req.Do(ctx, i.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.CodeSearchError, "failed to index run")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return errorFromResponse(resp, "run indexing failed")
	}
	return nil
}

func errorFromResponse(resp *opensearchapi.Response, msg string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return errors.New(errors.CodeSearchError, msg).
		WithDetail(resp.Status() + ": " + string(body))
}
