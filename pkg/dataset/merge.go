package dataset

import (
	"fmt"
	"math"
	"strconv"

	dataframe "github.com/rocketlaunchr/dataframe-go"

	"github.com/mimir-aip/bigmart-predictor/pkg/models"
)

// keyStrings renders join keys so int, float and string keys compare by
// value. Missing keys are returned as ok=false and never match.
func keyStrings(s dataframe.Series) ([]string, []bool, error) {
	keys := make([]string, s.NRows())
	ok := make([]bool, s.NRows())
	switch v := s.(type) {
	case *dataframe.SeriesInt64:
		vals, err := IntValues(v)
		if err != nil {
			return nil, nil, err
		}
		for i, p := range vals {
			if p != nil {
				keys[i], ok[i] = strconv.FormatInt(*p, 10), true
			}
		}
	case *dataframe.SeriesFloat64:
		for i, f := range v.Values {
			if !math.IsNaN(f) {
				keys[i], ok[i] = strconv.FormatFloat(f, 'g', -1, 64), true
			}
		}
	case *dataframe.SeriesString:
		vals, err := StringValues(v)
		if err != nil {
			return nil, nil, err
		}
		for i, p := range vals {
			if p != nil {
				keys[i], ok[i] = *p, true
			}
		}
	default:
		return nil, nil, fmt.Errorf("column %q cannot be used as a join key", s.Name())
	}
	return keys, ok, nil
}

// InnerJoin merges two frames on a shared key column. Left row order is
// kept; a key repeated on both sides yields every pairing; rows whose key is
// missing from either side are dropped. The key appears once in the output.
func InnerJoin(left, right *dataframe.DataFrame, key string) (*dataframe.DataFrame, error) {
	leftKey, err := Column(left, key)
	if err != nil {
		return nil, fmt.Errorf("left frame: %w", err)
	}
	rightKey, err := Column(right, key)
	if err != nil {
		return nil, fmt.Errorf("right frame: %w", err)
	}

	for _, name := range right.Names() {
		if name != key && HasColumn(left, name) {
			return nil, fmt.Errorf("column %q exists on both sides of the join", name)
		}
	}

	lk, lok, err := keyStrings(leftKey)
	if err != nil {
		return nil, err
	}
	rk, rok, err := keyStrings(rightKey)
	if err != nil {
		return nil, err
	}

	index := make(map[string][]int, len(rk))
	for i, k := range rk {
		if rok[i] {
			index[k] = append(index[k], i)
		}
	}

	var leftRows, rightRows []int
	for i, k := range lk {
		if !lok[i] {
			continue
		}
		for _, j := range index[k] {
			leftRows = append(leftRows, i)
			rightRows = append(rightRows, j)
		}
	}

	series := make([]dataframe.Series, 0, len(left.Series)+len(right.Series)-1)
	for _, s := range left.Series {
		taken, err := takeRows(s, s.Name(), leftRows)
		if err != nil {
			return nil, err
		}
		series = append(series, taken)
	}
	for _, s := range right.Series {
		if s.Name() == key {
			continue
		}
		taken, err := takeRows(s, s.Name(), rightRows)
		if err != nil {
			return nil, err
		}
		series = append(series, taken)
	}
	return dataframe.NewDataFrame(series...), nil
}

// MergeTables joins item, outlet and sales on ID and drops the ID column,
// which is not a predictive feature
func MergeTables(t *Tables) (*dataframe.DataFrame, error) {
	merged, err := InnerJoin(t.Item, t.Outlet, models.ColumnID)
	if err != nil {
		return nil, fmt.Errorf("failed to merge item and outlet tables: %w", err)
	}
	merged, err = InnerJoin(merged, t.Sales, models.ColumnID)
	if err != nil {
		return nil, fmt.Errorf("failed to merge sales table: %w", err)
	}
	return DropColumns(merged, models.ColumnID), nil
}
