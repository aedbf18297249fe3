package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mimir-aip/bigmart-predictor/pkg/models"
)

func TestCheckOptions(t *testing.T) {
	assert.NoError(t, checkOptions(models.DefaultSalesRecord()))

	r := models.DefaultSalesRecord()
	r.OutletSize = nil
	assert.NoError(t, checkOptions(r))

	r = models.DefaultSalesRecord()
	r.ItemFatContent = "low fat"
	assert.ErrorContains(t, checkOptions(r), models.ColumnItemFatContent)

	r = models.DefaultSalesRecord()
	r.OutletIdentifier = "OUT999"
	assert.ErrorContains(t, checkOptions(r), models.ColumnOutletIdentifier)

	// Free text
	r = models.DefaultSalesRecord()
	r.ItemIdentifier = "anything"
	assert.NoError(t, checkOptions(r))
}

func TestPrintRun(t *testing.T) {
	var buf bytes.Buffer
	printRun(&buf, &models.TrainingRun{
		ID:        "abc",
		RowCount:  100,
		TrainRows: 80,
		TestRows:  20,
		Candidates: []models.CandidateResult{
			{Model: models.ModelTypeGradientBoosting, Metrics: &models.PerformanceMetrics{R2Score: 0.61, RMSE: 1010.5}},
			{Model: models.ModelTypeRandomForest, Error: "boom"},
		},
		BestModel:    models.ModelTypeGradientBoosting,
		ArtifactPath: "model.json.zst",
	})

	out := buf.String()
	assert.Contains(t, out, "Run abc trained on 100 rows (80 train / 20 test)")
	assert.Contains(t, out, "R²=0.6100  RMSE=1010.50")
	assert.Contains(t, out, "failed: boom")
	assert.Contains(t, out, "Best model: gradient_boosting, saved to model.json.zst")
}

func TestCommandsRegistered(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"seed", "train", "predict", "runs", "about"})
}

func TestServiceName(t *testing.T) {
	assert.Equal(t, "bigmart-train", serviceName(trainCmd))
	assert.Equal(t, "bigmart-predict", serviceName(predictCmd))
	assert.Equal(t, "bigmart", serviceName(rootCmd))
}

func TestR2Chart(t *testing.T) {
	trained := func(r2 float64) *models.TrainingRun {
		return &models.TrainingRun{Status: models.RunStatusTrained, BestMetrics: &models.PerformanceMetrics{R2Score: r2}}
	}

	assert.Equal(t, "Not enough successful runs to chart.", r2Chart([]*models.TrainingRun{
		trained(0.5),
		{Status: models.RunStatusFailed},
	}))

	// newest first, plotted oldest first
	chart := r2Chart([]*models.TrainingRun{trained(0.612), trained(0.58), trained(0.55)})
	assert.Contains(t, chart, "best R² per training run (latest 0.612)")
	assert.Contains(t, chart, "0.61")
	assert.Contains(t, chart, "0.55")
}
