package opensearch

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/monitoring/logging"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
)

// SearchRequest narrows a run search.
type SearchRequest struct {
	// Text matches against the AOI name.
	Text string
	// AOIAssetID and Status filter exactly when non-empty.
	AOIAssetID string
	Status     string
	// MinMergedHectares keeps runs whose merged estimate reaches the
	// threshold.
	MinMergedHectares float64
	From              int
	Size              int
}

// SearchResult carries matched run documents.
type SearchResult struct {
	Total int64
	Runs  []RunDocument
}

// Searcher queries the run index.
type Searcher struct {
	client *Client
	logger logging.Logger
}

// NewSearcher constructs a searcher over client.
func NewSearcher(client *Client, log logging.Logger) *Searcher {
	return &Searcher{client: client, logger: log.Named("run_searcher")}
}

// Search runs a filtered query, newest first.
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	if req.Size <= 0 {
		req.Size = 20
	}

	body, err := json.Marshal(buildQuery(req))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSerialization, "failed to encode search query")
	}

	osReq := opensearchapi.SearchRequest{
		Index: []string{s.client.RunIndex()},
		Body:  bytes.NewReader(body),
	}
	resp, err := osReq.Do(ctx, s.client.GetClient())
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSearchError, "run search failed")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return nil, errorFromResponse(resp, "run search failed")
	}

	var raw struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source RunDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, errors.CodeSerialization, "failed to decode search response")
	}

	result := &SearchResult{Total: raw.Hits.Total.Value}
	for _, h := range raw.Hits.Hits {
		result.Runs = append(result.Runs, h.Source)
	}
	return result, nil
}

func buildQuery(req SearchRequest) map[string]any {
	var must []map[string]any
	if req.Text != "" {
		must = append(must, map[string]any{
			"match": map[string]any{"aoi_name": req.Text},
		})
	}

	var filter []map[string]any
	if req.AOIAssetID != "" {
		filter = append(filter, map[string]any{
			"term": map[string]any{"aoi_asset_id": req.AOIAssetID},
		})
	}
	if req.Status != "" {
		filter = append(filter, map[string]any{
			"term": map[string]any{"status": req.Status},
		})
	}
	if req.MinMergedHectares > 0 {
		filter = append(filter, map[string]any{
			"nested": map[string]any{
				"path": "estimates",
				"query": map[string]any{
					"bool": map[string]any{
						"filter": []map[string]any{
							{"term": map[string]any{"estimates.dataset": "merged"}},
							{"range": map[string]any{"estimates.hectares": map[string]any{"gte": req.MinMergedHectares}}},
						},
					},
				},
			},
		})
	}

	boolQuery := map[string]any{}
	if len(must) > 0 {
		boolQuery["must"] = must
	}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}
	if len(boolQuery) == 0 {
		boolQuery["must"] = []map[string]any{{"match_all": map[string]any{}}}
	}

	return map[string]any{
		"query": map[string]any{"bool": boolQuery},
		"sort":  []map[string]any{{"created_at": map[string]any{"order": "desc"}}},
		"from":  req.From,
		"size":  req.Size,
	}
}
