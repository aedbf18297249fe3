// Package encoding one-hot encodes categorical columns and passes numeric
// columns through, producing the regressors' input matrix.
package encoding

import (
	"errors"
	"fmt"
	"sort"

	dataframe "github.com/rocketlaunchr/dataframe-go"

	"github.com/mimir-aip/bigmart-predictor/pkg/dataset"
)

// ErrNotFitted is returned when Transform is called before Fit
var ErrNotFitted = errors.New("encoder is not fitted")

// CategoryGroup holds the categories learned for one column
type CategoryGroup struct {
	Column     string   `json:"column"`
	Values     []string `json:"values"`
	HasMissing bool     `json:"has_missing"`
}

func (g *CategoryGroup) width() int {
	if g.HasMissing {
		return len(g.Values) + 1
	}
	return len(g.Values)
}

// OneHotEncoder expands each categorical column into one indicator column per
// category seen during Fit and appends the remaining columns unchanged.
// Categories not seen during Fit encode as an all-zero group.
type OneHotEncoder struct {
	Categorical []string        `json:"categorical"`
	Groups      []CategoryGroup `json:"groups"`
	Passthrough []string        `json:"passthrough"`
	Fitted      bool            `json:"fitted"`
}

// NewOneHotEncoder creates an encoder for the named categorical columns
func NewOneHotEncoder(categorical []string) *OneHotEncoder {
	cols := make([]string, len(categorical))
	copy(cols, categorical)
	return &OneHotEncoder{Categorical: cols}
}

// Fit learns the categories of every categorical column and records the
// remaining columns, in frame order, as numeric passthrough
func (e *OneHotEncoder) Fit(df *dataframe.DataFrame) error {
	declared := make(map[string]bool, len(e.Categorical))
	groups := make([]CategoryGroup, 0, len(e.Categorical))

	for _, name := range e.Categorical {
		if declared[name] {
			return fmt.Errorf("categorical column %q listed twice", name)
		}
		declared[name] = true

		values, err := e.stringColumn(df, name)
		if err != nil {
			return err
		}

		group := CategoryGroup{Column: name}
		seen := map[string]bool{}
		for _, v := range values {
			if v == nil {
				group.HasMissing = true
				continue
			}
			if !seen[*v] {
				seen[*v] = true
				group.Values = append(group.Values, *v)
			}
		}
		sort.Strings(group.Values)
		groups = append(groups, group)
	}

	var passthrough []string
	for _, s := range df.Series {
		if declared[s.Name()] {
			continue
		}
		if dataset.IsCategorical(s) {
			return fmt.Errorf("column %q is categorical but not declared for encoding", s.Name())
		}
		if _, err := dataset.FloatValues(s); err != nil {
			return err
		}
		passthrough = append(passthrough, s.Name())
	}

	e.Groups = groups
	e.Passthrough = passthrough
	e.Fitted = true
	return nil
}

func (e *OneHotEncoder) stringColumn(df *dataframe.DataFrame, name string) ([]*string, error) {
	s, err := dataset.Column(df, name)
	if err != nil {
		return nil, err
	}
	return dataset.StringValues(s)
}

// Width returns the number of output columns
func (e *OneHotEncoder) Width() int {
	w := len(e.Passthrough)
	for i := range e.Groups {
		w += e.Groups[i].width()
	}
	return w
}

// FeatureNames names each output column in order
func (e *OneHotEncoder) FeatureNames() []string {
	names := make([]string, 0, e.Width())
	for _, g := range e.Groups {
		for _, v := range g.Values {
			names = append(names, g.Column+"_"+v)
		}
		if g.HasMissing {
			names = append(names, g.Column+"_None")
		}
	}
	return append(names, e.Passthrough...)
}

// Transform encodes df. Columns are located by name; extra columns are
// ignored and a missing fitted column is an error.
func (e *OneHotEncoder) Transform(df *dataframe.DataFrame) (*Matrix, error) {
	if !e.Fitted {
		return nil, ErrNotFitted
	}

	n := df.NRows()

	type lookup struct {
		offset  int
		index   map[string]int
		missing int // -1 when no missing category was seen
		values  []*string
	}
	lookups := make([]lookup, len(e.Groups))
	offset := 0
	for gi, g := range e.Groups {
		values, err := e.stringColumn(df, g.Column)
		if err != nil {
			return nil, err
		}
		index := make(map[string]int, len(g.Values))
		for i, v := range g.Values {
			index[v] = i
		}
		missing := -1
		if g.HasMissing {
			missing = len(g.Values)
		}
		lookups[gi] = lookup{offset: offset, index: index, missing: missing, values: values}
		offset += g.width()
	}

	numeric := make([][]float64, len(e.Passthrough))
	for i, name := range e.Passthrough {
		s, err := dataset.Column(df, name)
		if err != nil {
			return nil, err
		}
		if numeric[i], err = dataset.FloatValues(s); err != nil {
			return nil, err
		}
	}

	b := NewMatrixBuilder(e.Width())
	for r := 0; r < n; r++ {
		for _, l := range lookups {
			v := l.values[r]
			switch {
			case v == nil:
				if l.missing >= 0 {
					b.Set(l.offset+l.missing, 1)
				}
			default:
				if k, ok := l.index[*v]; ok {
					b.Set(l.offset+k, 1)
				}
			}
		}
		for i := range numeric {
			b.Set(offset+i, numeric[i][r])
		}
		b.EndRow()
	}
	return b.Matrix(), nil
}

// FitTransform fits the encoder on df and encodes it
func (e *OneHotEncoder) FitTransform(df *dataframe.DataFrame) (*Matrix, error) {
	if err := e.Fit(df); err != nil {
		return nil, err
	}
	return e.Transform(df)
}
