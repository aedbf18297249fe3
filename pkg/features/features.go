// Package features turns the merged BigMart frame into model-ready columns.
package features

import (
	"fmt"
	"math"

	dataframe "github.com/rocketlaunchr/dataframe-go"

	"github.com/mimir-aip/bigmart-predictor/pkg/dataset"
	"github.com/mimir-aip/bigmart-predictor/pkg/models"
)

const (
	// ReferenceYear is the year outlet ages are measured against
	ReferenceYear = 2025
	// VisibilityUpperBound caps Item_Visibility
	VisibilityUpperBound = 0.3
)

// fatContentLabels maps the noisy spellings found in the item table.
// Anything else passes through unchanged.
var fatContentLabels = map[string]string{
	"low fat": models.FatContentLow,
	"LF":      models.FatContentLow,
	"reg":     models.FatContentRegular,
}

// NormalizeFatContent returns the canonical fat content label
func NormalizeFatContent(label string) string {
	if canonical, ok := fatContentLabels[label]; ok {
		return canonical
	}
	return label
}

// ClipVisibility caps visibility at VisibilityUpperBound
func ClipVisibility(v float64) float64 {
	if v > VisibilityUpperBound {
		return VisibilityUpperBound
	}
	return v
}

// OutletAge returns the age of an outlet established in year
func OutletAge(year int64) int64 {
	return ReferenceYear - year
}

// Transform derives Outlet_Age from the establishment year, normalizes fat
// content labels and clips visibility. The year column is dropped and
// Outlet_Age is appended last. Missing values are left as they are.
func Transform(df *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	yearSeries, err := dataset.Column(df, models.ColumnOutletEstablishmentYear)
	if err != nil {
		return nil, err
	}
	years, err := dataset.FloatValues(yearSeries)
	if err != nil {
		return nil, err
	}
	ages := make([]*int64, len(years))
	for i, y := range years {
		if math.IsNaN(y) {
			continue
		}
		if y != math.Trunc(y) {
			return nil, fmt.Errorf("row %d: establishment year %v is not a whole year", i, y)
		}
		age := OutletAge(int64(y))
		ages[i] = &age
	}

	for _, name := range []string{models.ColumnItemFatContent, models.ColumnItemVisibility} {
		if !dataset.HasColumn(df, name) {
			return nil, fmt.Errorf("column %q not found", name)
		}
	}

	out := make([]dataframe.Series, 0, len(df.Series))
	for _, s := range df.Series {
		switch s.Name() {
		case models.ColumnOutletEstablishmentYear:
			continue
		case models.ColumnItemFatContent:
			labels, err := dataset.StringValues(s)
			if err != nil {
				return nil, err
			}
			normalized := make([]*string, len(labels))
			for i, l := range labels {
				if l != nil {
					v := NormalizeFatContent(*l)
					normalized[i] = &v
				}
			}
			out = append(out, dataset.NewStringSeries(s.Name(), normalized))
		case models.ColumnItemVisibility:
			vis, err := dataset.FloatValues(s)
			if err != nil {
				return nil, err
			}
			for i := range vis {
				// NaN compares false and is kept
				vis[i] = ClipVisibility(vis[i])
			}
			out = append(out, dataset.NewFloatSeries(s.Name(), vis))
		default:
			out = append(out, s)
		}
	}
	out = append(out, dataset.NewIntSeries(models.ColumnOutletAge, ages))

	return dataframe.NewDataFrame(out...), nil
}

// SplitTarget separates the target column from the features
func SplitTarget(df *dataframe.DataFrame, target string) (*dataframe.DataFrame, []float64, error) {
	s, err := dataset.Column(df, target)
	if err != nil {
		return nil, nil, err
	}
	y, err := dataset.FloatValues(s)
	if err != nil {
		return nil, nil, err
	}
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, nil, fmt.Errorf("row %d: target %s is missing", i, target)
		}
	}
	return dataset.DropColumns(df, target), y, nil
}

// CategoricalColumns lists the string-typed columns in frame order
func CategoricalColumns(df *dataframe.DataFrame) []string {
	var cols []string
	for _, s := range df.Series {
		if dataset.IsCategorical(s) {
			cols = append(cols, s.Name())
		}
	}
	return cols
}
