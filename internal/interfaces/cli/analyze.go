package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aflahkuncoro/deforestation-monitoring/internal/application/analysis"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/application/reporting"
	domainAnalysis "github.com/aflahkuncoro/deforestation-monitoring/internal/domain/analysis"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/catalog/rest"
)

// analyzeOptions holds the analyze command flags.
type analyzeOptions struct {
	AOIAssetID string
	StartYear  int
	EndYear    int
	MapOut     string
}

// NewAnalyzeCmd builds the analyze command.  It runs the full pipeline
// against the catalog directly, without the API server, and prints the
// hectare summary.
func NewAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the deforestation pipeline for one area of interest",
		Example: `  forestwatch analyze --aoi projects/forestwatch/assets/aoi_boundaries/riau
  forestwatch analyze --aoi <asset> --start-year 2021 --end-year 2024 --map-out map.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.AOIAssetID, "aoi", "", "boundary feature-collection asset path (required)")
	f.IntVar(&opts.StartYear, "start-year", 0, "first year of the analysis window")
	f.IntVar(&opts.EndYear, "end-year", 0, "last year of the analysis window")
	f.StringVar(&opts.MapOut, "map-out", "", "write the composed map document to this file")
	_ = cmd.MarkFlagRequired("aoi")

	return cmd
}

func runAnalyze(cmd *cobra.Command, opts *analyzeOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	cfg := cliCtx.Config

	req := domainAnalysis.Request{
		AOIAssetID: opts.AOIAssetID,
		StartYear:  opts.StartYear,
		EndYear:    opts.EndYear,
	}
	if req.StartYear == 0 {
		req.StartYear = cfg.Pipeline.DefaultStartYear
	}
	if req.EndYear == 0 {
		req.EndYear = cfg.Pipeline.DefaultEndYear
	}

	cat, err := rest.NewClient(cfg.Catalog, cliCtx.Logger)
	if err != nil {
		return err
	}
	pipeline := analysis.NewPipeline(cat, cfg.Pipeline, cliCtx.Logger)

	result, err := pipeline.Execute(cmd.Context(), req)
	if err != nil {
		return err
	}

	if opts.MapOut != "" {
		if err := writeMapDocument(opts.MapOut, result, cfg.Pipeline.MapZoom); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "map document written to %s\n", opts.MapOut)
	}

	if cliCtx.Opts.Output == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result.Estimates)
	}

	// The reporter formats from a completed run snapshot.
	run, err := domainAnalysis.NewRun(req)
	if err != nil {
		return err
	}
	run.AOIName = result.AOI.Name
	if err := run.Start(); err != nil {
		return err
	}
	if err := run.Complete(result.Estimates); err != nil {
		return err
	}
	return reporting.NewReporter(cmd.OutOrStdout()).WriteSummary(run)
}

func writeMapDocument(path string, result *analysis.Result, zoom int) error {
	registry := reporting.NewDocumentRegistry()
	err := reporting.ComposeMap(registry, reporting.MapInputs{
		AOI:    result.AOI,
		Hansen: result.HansenLoss,
		RADD:   result.RADDMask,
		Merged: result.Merged,
	}, zoom)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := registry.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
