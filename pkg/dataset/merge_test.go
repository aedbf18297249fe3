package dataset

import (
	"math"
	"testing"

	dataframe "github.com/rocketlaunchr/dataframe-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimir-aip/bigmart-predictor/pkg/models"
)

func ints(vals ...int64) []*int64 {
	out := make([]*int64, len(vals))
	for i := range vals {
		v := vals[i]
		out[i] = &v
	}
	return out
}

func strs(vals ...string) []*string {
	out := make([]*string, len(vals))
	for i := range vals {
		v := vals[i]
		out[i] = &v
	}
	return out
}

func TestInnerJoinDropsUnmatchedKeys(t *testing.T) {
	left := dataframe.NewDataFrame(
		NewIntSeries("ID", ints(1, 2, 3, 4)),
		NewStringSeries("a", strs("w", "x", "y", "z")),
	)
	right := dataframe.NewDataFrame(
		NewIntSeries("ID", ints(4, 2, 9)),
		NewFloatSeries("b", []float64{40, 20, 90}),
	)

	joined, err := InnerJoin(left, right, "ID")
	require.NoError(t, err)

	assert.Equal(t, []string{"ID", "a", "b"}, joined.Names())
	require.Equal(t, 2, joined.NRows())

	ids, err := FloatValues(joined.Series[0])
	require.NoError(t, err)
	// left order is preserved
	assert.Equal(t, []float64{2, 4}, ids)

	b, err := FloatValues(joined.Series[2])
	require.NoError(t, err)
	assert.Equal(t, []float64{20, 40}, b)
}

func TestInnerJoinDuplicateKeysPairEveryMatch(t *testing.T) {
	left := dataframe.NewDataFrame(
		NewIntSeries("ID", ints(1, 1)),
		NewStringSeries("a", strs("p", "q")),
	)
	right := dataframe.NewDataFrame(
		NewIntSeries("ID", ints(1, 1, 1)),
		NewStringSeries("b", strs("r", "s", "t")),
	)

	joined, err := InnerJoin(left, right, "ID")
	require.NoError(t, err)
	assert.Equal(t, 6, joined.NRows())
}

func TestInnerJoinMissingKeysNeverMatch(t *testing.T) {
	left := dataframe.NewDataFrame(
		NewIntSeries("ID", []*int64{nil, ints(7)[0]}),
	)
	right := dataframe.NewDataFrame(
		NewIntSeries("ID", []*int64{nil, ints(7)[0]}),
		NewFloatSeries("b", []float64{1, math.NaN()}),
	)

	joined, err := InnerJoin(left, right, "ID")
	require.NoError(t, err)
	require.Equal(t, 1, joined.NRows())

	b, err := FloatValues(joined.Series[1])
	require.NoError(t, err)
	assert.True(t, math.IsNaN(b[0]))
}

func TestInnerJoinRejectsCollidingColumns(t *testing.T) {
	left := dataframe.NewDataFrame(NewIntSeries("ID", ints(1)), NewStringSeries("a", strs("x")))
	right := dataframe.NewDataFrame(NewIntSeries("ID", ints(1)), NewStringSeries("a", strs("y")))

	_, err := InnerJoin(left, right, "ID")
	assert.Error(t, err)
}

func TestInnerJoinMissingKeyColumn(t *testing.T) {
	left := dataframe.NewDataFrame(NewIntSeries("ID", ints(1)))
	right := dataframe.NewDataFrame(NewIntSeries("KEY", ints(1)))

	_, err := InnerJoin(left, right, "ID")
	assert.Error(t, err)
}

func TestMergeTablesKeepsOnlyIDsPresentInAllTables(t *testing.T) {
	tables := &Tables{
		Item: dataframe.NewDataFrame(
			NewIntSeries(models.ColumnID, ints(1, 2, 3, 5)),
			NewStringSeries(models.ColumnItemIdentifier, strs("FDA15", "DRC01", "FDN15", "FDX07")),
		),
		Outlet: dataframe.NewDataFrame(
			NewIntSeries(models.ColumnID, ints(1, 2, 3, 4)),
			NewStringSeries(models.ColumnOutletIdentifier, strs("OUT049", "OUT018", "OUT049", "OUT010")),
		),
		Sales: dataframe.NewDataFrame(
			NewIntSeries(models.ColumnID, ints(2, 3, 4, 5)),
			NewFloatSeries(models.ColumnItemOutletSales, []float64{443.42, 2097.27, 732.38, 994.7}),
		),
	}

	merged, err := MergeTables(tables)
	require.NoError(t, err)

	// IDs 2 and 3 are the only ones present in all three tables
	assert.Equal(t, 2, merged.NRows())
	assert.False(t, HasColumn(merged, models.ColumnID))
	assert.Equal(t, []string{
		models.ColumnItemIdentifier,
		models.ColumnOutletIdentifier,
		models.ColumnItemOutletSales,
	}, merged.Names())

	items, err := StringValues(merged.Series[0])
	require.NoError(t, err)
	assert.Equal(t, "DRC01", *items[0])
	assert.Equal(t, "FDN15", *items[1])
}

func TestFloatValuesConvertsInts(t *testing.T) {
	s := NewIntSeries("year", []*int64{ints(1985)[0], nil})
	vals, err := FloatValues(s)
	require.NoError(t, err)
	assert.Equal(t, 1985.0, vals[0])
	assert.True(t, math.IsNaN(vals[1]))

	_, err = FloatValues(NewStringSeries("s", strs("x")))
	assert.Error(t, err)
}

func TestIntAndStringValuesKeepMissing(t *testing.T) {
	years, err := IntValues(NewIntSeries("year", []*int64{ints(1985)[0], nil, ints(2009)[0]}))
	require.NoError(t, err)
	require.Len(t, years, 3)
	assert.Equal(t, int64(1985), *years[0])
	assert.Nil(t, years[1])
	assert.Equal(t, int64(2009), *years[2])

	sizes, err := StringValues(NewStringSeries("size", []*string{nil, strs("Small")[0]}))
	require.NoError(t, err)
	assert.Nil(t, sizes[0])
	assert.Equal(t, "Small", *sizes[1])

	_, err = IntValues(NewFloatSeries("w", []float64{1}))
	assert.Error(t, err)
	_, err = StringValues(NewIntSeries("year", ints(1)))
	assert.Error(t, err)
}

func TestSelectRowsCopiesEveryColumnType(t *testing.T) {
	df := dataframe.NewDataFrame(
		NewIntSeries("ID", []*int64{ints(1)[0], nil, ints(3)[0]}),
		NewStringSeries("Item", []*string{strs("a")[0], strs("b")[0], nil}),
		NewFloatSeries("MRP", []float64{1.5, math.NaN(), 3.5}),
	)

	out, err := SelectRows(df, []int{2, 1, 2})
	require.NoError(t, err)
	require.Equal(t, 3, out.NRows())

	ids, err := IntValues(out.Series[0])
	require.NoError(t, err)
	assert.Equal(t, int64(3), *ids[0])
	assert.Nil(t, ids[1])

	items, err := StringValues(out.Series[1])
	require.NoError(t, err)
	assert.Nil(t, items[0])
	assert.Equal(t, "b", *items[1])

	mrp, err := FloatValues(out.Series[2])
	require.NoError(t, err)
	assert.Equal(t, 3.5, mrp[0])
	assert.True(t, math.IsNaN(mrp[1]))

	_, err = SelectRows(df, []int{3})
	assert.Error(t, err)
}
