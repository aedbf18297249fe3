package seed

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	dataframe "github.com/rocketlaunchr/dataframe-go"

	"github.com/mimir-aip/bigmart-predictor/pkg/dataset"
)

// ErrEmptyDocument is returned when an XML document holds no row elements
var ErrEmptyDocument = errors.New("xml document has no rows")

// ReadXMLFile reads a row-oriented XML file into a frame
func ReadXMLFile(path string) (*dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	df, err := ReadXML(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return df, nil
}

// ReadXML parses a document whose root holds one element per row and where
// each row holds one element (or attribute) per column:
//
//	<data>
//	  <row><ID>1</ID><Item_Weight>9.3</Item_Weight></row>
//	</data>
//
// Columns appear in first-seen order. Absent or empty values are missing.
// Column types are inferred from the values: integers, then floats, then
// strings. An integer column with missing values becomes a float column.
func ReadXML(r io.Reader) (*dataframe.DataFrame, error) {
	dec := xml.NewDecoder(r)

	var (
		names  []string
		index  = map[string]int{}
		rows   []map[int]string
		depth  int
		row    map[int]string
		column string
		text   strings.Builder
	)

	columnIndex := func(name string) int {
		if i, ok := index[name]; ok {
			return i
		}
		index[name] = len(names)
		names = append(names, name)
		return index[name]
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch depth {
			case 2:
				row = map[int]string{}
				for _, attr := range t.Attr {
					row[columnIndex(attr.Name.Local)] = attr.Value
				}
			case 3:
				column = t.Name.Local
				text.Reset()
			}
		case xml.CharData:
			if depth == 3 {
				text.Write(t)
			}
		case xml.EndElement:
			switch depth {
			case 2:
				rows = append(rows, row)
			case 3:
				row[columnIndex(column)] = text.String()
			}
			depth--
		}
	}

	if len(rows) == 0 {
		return nil, ErrEmptyDocument
	}

	series := make([]dataframe.Series, len(names))
	for c, name := range names {
		values := make([]*string, len(rows))
		for r, rw := range rows {
			if v, ok := rw[c]; ok {
				v = strings.TrimSpace(v)
				if v != "" {
					values[r] = &v
				}
			}
		}
		series[c] = inferSeries(name, values)
	}
	return dataframe.NewDataFrame(series...), nil
}

// inferSeries picks the narrowest series type that holds every value
func inferSeries(name string, values []*string) dataframe.Series {
	allInt, allFloat, missing := true, true, false
	for _, v := range values {
		if v == nil {
			missing = true
			continue
		}
		if _, err := strconv.ParseInt(*v, 10, 64); err != nil {
			allInt = false
		}
		if _, err := strconv.ParseFloat(*v, 64); err != nil {
			allFloat = false
		}
	}

	switch {
	case allInt && !missing:
		out := make([]*int64, len(values))
		for i, v := range values {
			n, _ := strconv.ParseInt(*v, 10, 64)
			out[i] = &n
		}
		return dataset.NewIntSeries(name, out)
	case allFloat:
		out := make([]float64, len(values))
		for i, v := range values {
			if v == nil {
				out[i] = math.NaN()
				continue
			}
			out[i], _ = strconv.ParseFloat(*v, 64)
		}
		return dataset.NewFloatSeries(name, out)
	default:
		return dataset.NewStringSeries(name, values)
	}
}
