package main

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/mimir-aip/bigmart-predictor/pkg/mlmodel"
	"github.com/mimir-aip/bigmart-predictor/pkg/mlmodel/artifact"
	"github.com/mimir-aip/bigmart-predictor/pkg/models"
)

var runsChart bool

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "list recorded training runs",
	Long: `List every recorded training run, newest first, with the best model and
its held-out R² and RMSE. --chart also plots the best R² of the successful runs
over time.`,
	Args: cobra.NoArgs,
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().BoolVar(&runsChart, "chart", false, "plot the best R² of successful runs, oldest first")
}

var aboutCmd = &cobra.Command{
	Use:   "about",
	Short: "describe the model and show its version",
	Args:  cobra.NoArgs,
	RunE:  runAbout,
}

func runRuns(cmd *cobra.Command, args []string) error {
	svc, closeStore, err := openService()
	if err != nil {
		return err
	}
	defer closeStore()

	runs, err := svc.ListRuns()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No training runs recorded.")
		return nil
	}

	out := cmd.OutOrStdout()
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"ID", "Status", "Started", "Rows", "Best model", "R²", "RMSE"})
	table.SetAutoWrapText(false)
	for _, run := range runs {
		r2, rmse := "-", "-"
		if run.BestMetrics != nil {
			r2 = fmt.Sprintf("%.4f", run.BestMetrics.R2Score)
			rmse = fmt.Sprintf("%.2f", run.BestMetrics.RMSE)
		}
		best := string(run.BestModel)
		if run.Status == models.RunStatusFailed {
			best = run.FailReason
		}
		table.Append([]string{
			run.ID, string(run.Status), humanize.Time(run.StartedAt),
			humanize.Comma(int64(run.RowCount)), best, r2, rmse,
		})
	}
	table.Render()

	if runsChart {
		fmt.Fprintln(out)
		fmt.Fprintln(out, r2Chart(runs))
	}
	return nil
}

// r2Chart plots the best R² of trained runs in chronological order
func r2Chart(runs []*models.TrainingRun) string {
	var series []float64
	for i := len(runs) - 1; i >= 0; i-- {
		if runs[i].Status == models.RunStatusTrained && runs[i].BestMetrics != nil {
			series = append(series, runs[i].BestMetrics.R2Score)
		}
	}
	if len(series) < 2 {
		return "Not enough successful runs to chart."
	}
	latest := series[len(series)-1]
	return asciigraph.Plot(series,
		asciigraph.Height(8),
		asciigraph.Caption(fmt.Sprintf("best R² per training run (latest %.3f)", latest)),
	)
}

func runAbout(cmd *cobra.Command, args []string) error {
	version := "no trained model"
	predictor, err := mlmodel.NewPredictor(cfg.ArtifactPath)
	switch {
	case err == nil:
		version = "gonum " + predictor.Version()
	case !errors.Is(err, artifact.ErrArtifactNotFound):
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), `BigMart Sales Predictor

Forecasts item sales per outlet to help plan inventory and marketing.

The estimate comes from a pre-trained regression model that considers:
  Product features: item weight, fat content, visibility, type and MRP.
  Store features:   outlet size, location type, store type and age.

Model version: %s
`, version)
	return nil
}
