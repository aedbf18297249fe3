package features

import (
	"math"
	"testing"

	dataframe "github.com/rocketlaunchr/dataframe-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimir-aip/bigmart-predictor/pkg/dataset"
	"github.com/mimir-aip/bigmart-predictor/pkg/dataset/datasettest"
	"github.com/mimir-aip/bigmart-predictor/pkg/models"
)

func TestNormalizeFatContent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"low fat", "Low Fat"},
		{"LF", "Low Fat"},
		{"reg", "Regular"},
		{"Low Fat", "Low Fat"},
		{"Regular", "Regular"},
		{"LOW FAT", "LOW FAT"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeFatContent(tt.in))
		})
	}
}

func TestClipVisibility(t *testing.T) {
	assert.Equal(t, 0.3, ClipVisibility(0.31))
	assert.Equal(t, 0.3, ClipVisibility(0.3))
	assert.Equal(t, 0.12, ClipVisibility(0.12))
	assert.Equal(t, 0.0, ClipVisibility(0))
	assert.True(t, math.IsNaN(ClipVisibility(math.NaN())))
}

func TestOutletAge(t *testing.T) {
	assert.Equal(t, int64(26), OutletAge(1999))
	assert.Equal(t, int64(0), OutletAge(2025))
	assert.Equal(t, OutletAge(1985), OutletAge(1985))
}

func rawFrame() *dataframe.DataFrame {
	s := func(v string) *string { return &v }
	y := func(v int64) *int64 { return &v }
	return dataframe.NewDataFrame(
		dataset.NewStringSeries(models.ColumnItemIdentifier, []*string{s("FDA15"), s("DRC01"), s("FDN15")}),
		dataset.NewFloatSeries(models.ColumnItemWeight, []float64{9.3, math.NaN(), 17.5}),
		dataset.NewStringSeries(models.ColumnItemFatContent, []*string{s("low fat"), s("reg"), nil}),
		dataset.NewFloatSeries(models.ColumnItemVisibility, []float64{0.016, 0.33, 0.3}),
		dataset.NewIntSeries(models.ColumnOutletEstablishmentYear, []*int64{y(1999), nil, y(1985)}),
		dataset.NewStringSeries(models.ColumnOutletSize, []*string{s("Medium"), nil, s("High")}),
		dataset.NewFloatSeries(models.ColumnItemOutletSales, []float64{3735.14, 443.42, 2097.27}),
	)
}

func TestTransform(t *testing.T) {
	out, err := Transform(rawFrame())
	require.NoError(t, err)

	assert.Equal(t, []string{
		models.ColumnItemIdentifier,
		models.ColumnItemWeight,
		models.ColumnItemFatContent,
		models.ColumnItemVisibility,
		models.ColumnOutletSize,
		models.ColumnItemOutletSales,
		models.ColumnOutletAge,
	}, out.Names())

	fat, err := dataset.Column(out, models.ColumnItemFatContent)
	require.NoError(t, err)
	labels, err := dataset.StringValues(fat)
	require.NoError(t, err)
	assert.Equal(t, "Low Fat", *labels[0])
	assert.Equal(t, "Regular", *labels[1])
	assert.Nil(t, labels[2])

	vis, err := dataset.Column(out, models.ColumnItemVisibility)
	require.NoError(t, err)
	visibility, err := dataset.FloatValues(vis)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.016, 0.3, 0.3}, visibility)

	ageSeries, err := dataset.Column(out, models.ColumnOutletAge)
	require.NoError(t, err)
	require.IsType(t, &dataframe.SeriesInt64{}, ageSeries)
	ages, err := dataset.IntValues(ageSeries)
	require.NoError(t, err)
	assert.Equal(t, int64(26), *ages[0])
	assert.Nil(t, ages[1])
	assert.Equal(t, int64(40), *ages[2])

	// no imputation
	w, err := dataset.Column(out, models.ColumnItemWeight)
	require.NoError(t, err)
	weights, err := dataset.FloatValues(w)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(weights[1]))
}

func TestTransformIsDeterministic(t *testing.T) {
	tables := datasettest.Tables(datasettest.Options{Rows: 50, Seed: 11})
	merged, err := dataset.MergeTables(tables)
	require.NoError(t, err)

	a, err := Transform(merged)
	require.NoError(t, err)
	again, err := dataset.MergeTables(datasettest.Tables(datasettest.Options{Rows: 50, Seed: 11}))
	require.NoError(t, err)
	b, err := Transform(again)
	require.NoError(t, err)

	require.Equal(t, a.Names(), b.Names())
	for i, s := range a.Series {
		if dataset.IsCategorical(s) {
			want, err := dataset.StringValues(s)
			require.NoError(t, err)
			got, err := dataset.StringValues(b.Series[i])
			require.NoError(t, err)
			assert.Equal(t, want, got, s.Name())
			continue
		}
		want, err := dataset.FloatValues(s)
		require.NoError(t, err)
		got, err := dataset.FloatValues(b.Series[i])
		require.NoError(t, err)
		require.Len(t, got, len(want), s.Name())
		for j := range want {
			if math.IsNaN(want[j]) {
				assert.True(t, math.IsNaN(got[j]), "%s row %d", s.Name(), j)
				continue
			}
			assert.Equal(t, want[j], got[j], "%s row %d", s.Name(), j)
		}
	}

	ages, err := dataset.Column(b, models.ColumnOutletAge)
	require.NoError(t, err)
	values, err := dataset.IntValues(ages)
	require.NoError(t, err)
	for _, v := range values {
		require.NotNil(t, v)
		assert.GreaterOrEqual(t, *v, int64(0))
	}
}

func TestTransformMissingColumns(t *testing.T) {
	df := dataset.DropColumns(rawFrame(), models.ColumnOutletEstablishmentYear)
	_, err := Transform(df)
	assert.Error(t, err)

	df = dataset.DropColumns(rawFrame(), models.ColumnItemVisibility)
	_, err = Transform(df)
	assert.Error(t, err)
}

func TestSplitTarget(t *testing.T) {
	X, y, err := SplitTarget(rawFrame(), models.ColumnItemOutletSales)
	require.NoError(t, err)
	assert.Equal(t, []float64{3735.14, 443.42, 2097.27}, y)
	assert.False(t, dataset.HasColumn(X, models.ColumnItemOutletSales))

	bad := dataframe.NewDataFrame(
		dataset.NewFloatSeries(models.ColumnItemOutletSales, []float64{1, math.NaN()}),
	)
	_, _, err = SplitTarget(bad, models.ColumnItemOutletSales)
	assert.Error(t, err)
}

func TestCategoricalColumns(t *testing.T) {
	out, err := Transform(rawFrame())
	require.NoError(t, err)
	assert.Equal(t, []string{
		models.ColumnItemIdentifier,
		models.ColumnItemFatContent,
		models.ColumnOutletSize,
	}, CategoricalColumns(out))
}
