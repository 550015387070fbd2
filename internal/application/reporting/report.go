// Package reporting renders the outputs of a finished analysis: the hectare
// summary written to an output sink and the styled map layers pushed to a
// map registry.
package reporting

import (
	"fmt"
	"io"

	"github.com/aflahkuncoro/deforestation-monitoring/internal/domain/analysis"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
)

// Dataset names used across estimates, reports and map layers.
const (
	DatasetHansen = "hansen"
	DatasetRADD   = "radd"
	DatasetMerged = "merged"
)

var datasetLabels = map[string]string{
	DatasetHansen: "Hansen forest loss",
	DatasetRADD:   "RADD radar alerts",
	DatasetMerged: "Integrated alerts",
}

// Reporter writes human-readable run summaries.  The sink is an explicit
// dependency so callers decide where the report lands (stdout, a buffer, a
// stored artifact).
type Reporter struct {
	sink io.Writer
}

// NewReporter constructs a reporter writing to sink.
func NewReporter(sink io.Writer) *Reporter {
	return &Reporter{sink: sink}
}

// WriteSummary prints the three hectare figures of a completed run, one
// line per dataset, in the fixed order Hansen, RADD, merged.
func (r *Reporter) WriteSummary(run *analysis.Run) error {
	if run == nil {
		return errors.New(errors.CodeInvalidParam, "run must not be nil")
	}
	if run.Status != analysis.StatusCompleted {
		return errors.Newf(errors.CodeRunInvalidState,
			"run %s is %s; only completed runs have a summary", run.ID, run.Status)
	}

	header := fmt.Sprintf("Deforestation analysis %s\nAOI: %s (%s)\nWindow: %d-%d\n\n",
		run.ID, run.AOIName, run.Request.AOIAssetID, run.Request.StartYear, run.Request.EndYear)
	if _, err := io.WriteString(r.sink, header); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to write report header")
	}

	for _, dataset := range []string{DatasetHansen, DatasetRADD, DatasetMerged} {
		est, ok := run.Estimate(dataset)
		if !ok {
			return errors.Newf(errors.CodeValidation,
				"run %s carries no %s estimate", run.ID, dataset)
		}
		line := fmt.Sprintf("%-22s %12.2f ha  (at %.0f m)\n",
			datasetLabels[dataset]+":", est.Hectares, est.ScaleMeters)
		if _, err := io.WriteString(r.sink, line); err != nil {
			return errors.Wrap(err, errors.CodeInternal, "failed to write report line")
		}
	}
	return nil
}
