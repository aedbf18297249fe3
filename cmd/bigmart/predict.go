package main

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/mimir-aip/bigmart-predictor/pkg/mlmodel"
	"github.com/mimir-aip/bigmart-predictor/pkg/mlmodel/artifact"
	"github.com/mimir-aip/bigmart-predictor/pkg/models"
)

const estimateNote = "Note: This is an estimate based on historical data. Actual sales can vary due to promotions, seasonality, etc."

var (
	record        = models.DefaultSalesRecord()
	weight        float64
	weightMissing bool
	outletSize    string
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "estimate the sales of one item at one outlet",
	Long: `Score a single record with the saved pipeline. Every field starts at the
form default; override the ones you know.

Item visibility must lie in [0, 0.35] and outlet age in [0, 40]. Weight and
MRP must be non-negative. Pass an empty --outlet-size to leave it unknown.

The prediction is a data-driven estimate. Real-world sales can be influenced
by factors the model never saw, like holidays or special promotions.`,
	Example: `  $ bigmart predict
  $ bigmart predict --item-type "Snack Foods" --mrp 99.9 --outlet OUT013 --age 38`,
	Args: cobra.NoArgs,
	RunE: runPredict,
}

func init() {
	f := predictCmd.Flags()
	f.StringVar(&record.ItemIdentifier, "item", record.ItemIdentifier, "item identifier")
	f.Float64Var(&weight, "weight", *record.ItemWeight, "item weight (kg)")
	f.BoolVar(&weightMissing, "weight-unknown", false, "treat the item weight as missing")
	f.StringVar(&record.ItemFatContent, "fat", record.ItemFatContent, "fat content")
	f.Float64Var(&record.ItemVisibility, "visibility", record.ItemVisibility, "item visibility (0-0.35)")
	f.StringVar(&record.ItemType, "item-type", record.ItemType, "item type")
	f.Float64Var(&record.ItemMRP, "mrp", record.ItemMRP, "item MRP (₹)")
	f.StringVar(&record.OutletIdentifier, "outlet", record.OutletIdentifier, "outlet identifier")
	f.StringVar(&outletSize, "outlet-size", *record.OutletSize, "outlet size")
	f.StringVar(&record.OutletLocationType, "location", record.OutletLocationType, "outlet location type")
	f.StringVar(&record.OutletType, "outlet-type", record.OutletType, "outlet type")
	f.Int64Var(&record.OutletAge, "age", record.OutletAge, "outlet age in years (0-40)")
}

func runPredict(cmd *cobra.Command, args []string) error {
	record.ItemWeight = &weight
	if weightMissing {
		record.ItemWeight = nil
	}
	record.OutletSize = nil
	if outletSize != "" {
		record.OutletSize = &outletSize
	}

	if err := checkOptions(record); err != nil {
		return err
	}
	if err := record.ValidateForm(); err != nil {
		return err
	}

	predictor, err := mlmodel.NewPredictor(cfg.ArtifactPath)
	if errors.Is(err, artifact.ErrArtifactNotFound) {
		return fmt.Errorf("model file not found at %s, run 'bigmart train' first: %w", cfg.ArtifactPath, err)
	}
	if err != nil {
		return err
	}

	sales, err := predictor.Predict(record)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Predicted Sales: %s\n", mlmodel.FormatSales(sales))
	fmt.Fprintln(out, estimateNote)
	return nil
}

// checkOptions rejects choices the prediction form does not offer
func checkOptions(r models.SalesRecord) error {
	choices := map[string]string{
		models.ColumnItemFatContent:     r.ItemFatContent,
		models.ColumnItemType:           r.ItemType,
		models.ColumnOutletIdentifier:   r.OutletIdentifier,
		models.ColumnOutletLocationType: r.OutletLocationType,
		models.ColumnOutletType:         r.OutletType,
	}
	if r.OutletSize != nil {
		choices[models.ColumnOutletSize] = *r.OutletSize
	}
	for column, value := range choices {
		if !slices.Contains(models.FormOptions[column], value) {
			return fmt.Errorf("invalid %s %q, expected one of %q", column, value, models.FormOptions[column])
		}
	}
	return nil
}
