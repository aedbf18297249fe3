package dataset

import (
	"fmt"
	"math"

	dataframe "github.com/rocketlaunchr/dataframe-go"
)

// Column returns the series with the given name
func Column(df *dataframe.DataFrame, name string) (dataframe.Series, error) {
	idx, err := df.NameToColumn(name)
	if err != nil {
		return nil, fmt.Errorf("column %q not found", name)
	}
	return df.Series[idx], nil
}

// HasColumn reports whether the frame has a column with the given name
func HasColumn(df *dataframe.DataFrame, name string) bool {
	_, err := df.NameToColumn(name)
	return err == nil
}

// IsCategorical reports whether a series holds string values
func IsCategorical(s dataframe.Series) bool {
	_, ok := s.(*dataframe.SeriesString)
	return ok
}

// FloatValues returns a numeric series as float64, with NaN for missing values
func FloatValues(s dataframe.Series) ([]float64, error) {
	switch v := s.(type) {
	case *dataframe.SeriesFloat64:
		out := make([]float64, len(v.Values))
		copy(out, v.Values)
		return out, nil
	case *dataframe.SeriesInt64:
		ints, err := IntValues(v)
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(ints))
		for i, p := range ints {
			if p == nil {
				out[i] = math.NaN()
			} else {
				out[i] = float64(*p)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("column %q is not numeric", s.Name())
	}
}

// IntValues returns the values of an int series; nil marks a missing value
func IntValues(s dataframe.Series) ([]*int64, error) {
	v, ok := s.(*dataframe.SeriesInt64)
	if !ok {
		return nil, fmt.Errorf("column %q is not an integer column", s.Name())
	}
	n := v.NRows()
	out := make([]*int64, n)
	for i := 0; i < n; i++ {
		if x, ok := v.Value(i).(int64); ok {
			out[i] = &x
		}
	}
	return out, nil
}

// StringValues returns the values of a string series; nil marks a missing value
func StringValues(s dataframe.Series) ([]*string, error) {
	v, ok := s.(*dataframe.SeriesString)
	if !ok {
		return nil, fmt.Errorf("column %q is not categorical", s.Name())
	}
	n := v.NRows()
	out := make([]*string, n)
	for i := 0; i < n; i++ {
		if x, ok := v.Value(i).(string); ok {
			out[i] = &x
		}
	}
	return out, nil
}

// NewFloatSeries builds a float series; NaN is stored as missing
func NewFloatSeries(name string, values []float64) *dataframe.SeriesFloat64 {
	vals := make([]interface{}, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			vals[i] = nil
		} else {
			vals[i] = v
		}
	}
	return dataframe.NewSeriesFloat64(name, nil, vals...)
}

// NewIntSeries builds an int series; nil entries are missing
func NewIntSeries(name string, values []*int64) *dataframe.SeriesInt64 {
	vals := make([]interface{}, len(values))
	for i, v := range values {
		if v == nil {
			vals[i] = nil
		} else {
			vals[i] = *v
		}
	}
	return dataframe.NewSeriesInt64(name, nil, vals...)
}

// NewStringSeries builds a string series; nil entries are missing
func NewStringSeries(name string, values []*string) *dataframe.SeriesString {
	vals := make([]interface{}, len(values))
	for i, v := range values {
		if v == nil {
			vals[i] = nil
		} else {
			vals[i] = *v
		}
	}
	return dataframe.NewSeriesString(name, nil, vals...)
}

// takeRows builds a renamed copy of s holding the rows at idx, in order
func takeRows(s dataframe.Series, name string, idx []int) (dataframe.Series, error) {
	switch v := s.(type) {
	case *dataframe.SeriesFloat64:
		out := make([]float64, len(idx))
		for i, r := range idx {
			out[i] = v.Values[r]
		}
		return NewFloatSeries(name, out), nil
	case *dataframe.SeriesInt64:
		vals, err := IntValues(v)
		if err != nil {
			return nil, err
		}
		out := make([]*int64, len(idx))
		for i, r := range idx {
			out[i] = vals[r]
		}
		return NewIntSeries(name, out), nil
	case *dataframe.SeriesString:
		vals, err := StringValues(v)
		if err != nil {
			return nil, err
		}
		out := make([]*string, len(idx))
		for i, r := range idx {
			out[i] = vals[r]
		}
		return NewStringSeries(name, out), nil
	default:
		return nil, fmt.Errorf("column %q has unsupported type %s", s.Name(), s.Type())
	}
}

// DropColumns returns a frame without the named columns. The remaining
// series are shared with df.
func DropColumns(df *dataframe.DataFrame, names ...string) *dataframe.DataFrame {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	kept := make([]dataframe.Series, 0, len(df.Series))
	for _, s := range df.Series {
		if !drop[s.Name()] {
			kept = append(kept, s)
		}
	}
	return dataframe.NewDataFrame(kept...)
}

// SelectRows returns a frame holding the rows at idx, in order
func SelectRows(df *dataframe.DataFrame, idx []int) (*dataframe.DataFrame, error) {
	n := df.NRows()
	for _, r := range idx {
		if r < 0 || r >= n {
			return nil, fmt.Errorf("row %d out of range [0,%d)", r, n)
		}
	}
	series := make([]dataframe.Series, len(df.Series))
	for i, s := range df.Series {
		taken, err := takeRows(s, s.Name(), idx)
		if err != nil {
			return nil, err
		}
		series[i] = taken
	}
	return dataframe.NewDataFrame(series...), nil
}
