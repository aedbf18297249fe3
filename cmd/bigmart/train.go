package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mimir-aip/bigmart-predictor/pkg/logging"
	"github.com/mimir-aip/bigmart-predictor/pkg/models"
	"github.com/mimir-aip/bigmart-predictor/pkg/scheduler"
)

const scheduledJob = "retrain"

var (
	trainSchedule   string
	trainNow        bool
	trainSkipFailed bool
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "train the candidates and save the best pipeline",
	Long: `Load and merge the three tables, engineer features, split 80/20 and fit
gradient boosting, random forest and linear regression. The candidate with the
highest R² on the test split is saved to the artifact path and the run is
recorded in the registry.

With --schedule the command keeps running and retrains on the given cron spec
until interrupted. A tick is skipped while the previous run is still going.`,
	Args: cobra.NoArgs,
	RunE: runTrain,
}

func init() {
	trainCmd.Flags().StringVarP(&trainSchedule, "schedule", "s", "", `cron spec for repeated training, e.g. "0 2 * * *"`)
	trainCmd.Flags().BoolVar(&trainNow, "now", false, "with --schedule, also train immediately")
	trainCmd.Flags().BoolVar(&trainSkipFailed, "skip-failed", false, "record failing candidates and keep going")
}

func runTrain(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("skip-failed") {
		cfg.Training.SkipFailedCandidates = trainSkipFailed
	}
	schedule := cfg.Training.Schedule
	if trainSchedule != "" {
		schedule = trainSchedule
	}

	svc, closeStore, err := openService()
	if err != nil {
		return err
	}
	defer closeStore()

	if schedule == "" {
		run, err := svc.RunTraining(cmd.Context())
		if err != nil {
			return err
		}
		printRun(cmd.OutOrStdout(), run)
		return nil
	}

	sched := scheduler.NewService(svc)
	if err := sched.Schedule(scheduledJob, schedule); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if next, err := sched.NextRun(scheduledJob); err == nil {
		logging.GetLogger().Info("waiting for next training run", logging.String("next", next.Format("2006-01-02 15:04:05")))
	}
	if trainNow {
		sched.TriggerAsync(scheduledJob)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logging.GetLogger().Info("shutting down training scheduler")
	return nil
}

func printRun(w io.Writer, run *models.TrainingRun) {
	fmt.Fprintf(w, "Run %s trained on %d rows (%d train / %d test)\n", run.ID, run.RowCount, run.TrainRows, run.TestRows)
	for _, c := range run.Candidates {
		if c.Metrics == nil {
			fmt.Fprintf(w, "  %-18s failed: %s\n", c.Model, c.Error)
			continue
		}
		fmt.Fprintf(w, "  %-18s R²=%.4f  RMSE=%.2f\n", c.Model, c.Metrics.R2Score, c.Metrics.RMSE)
	}
	fmt.Fprintf(w, "Best model: %s, saved to %s\n", run.BestModel, run.ArtifactPath)
}
