package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aflahkuncoro/deforestation-monitoring/pkg/client"
)

// NewRunsCmd builds the runs command group, which talks to the API server.
func NewRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Manage analysis runs on the API server",
	}
	cmd.AddCommand(
		newRunsSubmitCmd(),
		newRunsGetCmd(),
		newRunsListCmd(),
	)
	return cmd
}

func apiClient(cmd *cobra.Command) (*client.Client, error) {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return nil, err
	}
	return client.NewClient(cliCtx.serverAddr())
}

func newRunsSubmitCmd() *cobra.Command {
	var (
		aoi       string
		startYear int
		endYear   int
		sync      bool
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a run; with --wait it executes synchronously",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			req := client.RunRequest{AOIAssetID: aoi, StartYear: startYear, EndYear: endYear}

			var run *client.Run
			if sync {
				run, err = c.AnalyzeRun(cmd.Context(), req)
			} else {
				run, err = c.SubmitRun(cmd.Context(), req)
			}
			if err != nil {
				return err
			}
			return printRun(cmd, run)
		},
	}

	f := cmd.Flags()
	f.StringVar(&aoi, "aoi", "", "boundary feature-collection asset path (required)")
	f.IntVar(&startYear, "start-year", 0, "first year of the analysis window")
	f.IntVar(&endYear, "end-year", 0, "last year of the analysis window")
	f.BoolVar(&sync, "wait", false, "execute synchronously and print the finished run")
	_ = cmd.MarkFlagRequired("aoi")
	return cmd
}

func newRunsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <run-id>",
		Short: "Fetch one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			run, err := c.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printRun(cmd, run)
		},
	}
}

func newRunsListCmd() *cobra.Command {
	var (
		status string
		aoi    string
		page   int
		size   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			list, err := c.ListRuns(cmd.Context(), client.ListRunsOptions{
				Status:     status,
				AOIAssetID: aoi,
				Page:       page,
				PageSize:   size,
			})
			if err != nil {
				return err
			}

			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if cliCtx.Opts.Output == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(list.Runs)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tAOI\tWINDOW\tMERGED (ha)")
			for _, run := range list.Runs {
				merged := "-"
				for _, e := range run.Estimates {
					if e.Dataset == "merged" {
						merged = fmt.Sprintf("%.2f", e.Hectares)
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d-%d\t%s\n",
					run.ID, run.Status, run.Request.AOIAssetID,
					run.Request.StartYear, run.Request.EndYear, merged)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "total: %d\n", list.Pagination.Total)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&status, "status", "", "filter by status (queued, running, completed, failed)")
	f.StringVar(&aoi, "aoi", "", "filter by boundary asset path")
	f.IntVar(&page, "page", 0, "page number")
	f.IntVar(&size, "page-size", 0, "page size")
	return cmd
}

func printRun(cmd *cobra.Command, run *client.Run) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	if cliCtx.Opts.Output == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run:     %s\n", run.ID)
	fmt.Fprintf(out, "Status:  %s\n", run.Status)
	fmt.Fprintf(out, "AOI:     %s\n", run.Request.AOIAssetID)
	fmt.Fprintf(out, "Window:  %d-%d\n", run.Request.StartYear, run.Request.EndYear)
	if run.Error != "" {
		fmt.Fprintf(out, "Error:   %s\n", run.Error)
	}
	for _, e := range run.Estimates {
		fmt.Fprintf(out, "  %-10s %12.2f ha  (at %.0f m)\n", e.Dataset, e.Hectares, e.ScaleMeters)
	}
	return nil
}
