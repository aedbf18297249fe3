package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	dataframe "github.com/rocketlaunchr/dataframe-go"

	"github.com/mimir-aip/bigmart-predictor/pkg/config"
	"github.com/mimir-aip/bigmart-predictor/pkg/logging"
)

var (
	// ErrConnection is returned when the store cannot be reached
	ErrConnection = errors.New("database unreachable")
	// ErrTableNotFound is returned when a named table does not exist
	ErrTableNotFound = errors.New("table not found")
)

// Tables holds the three raw training tables
type Tables struct {
	Item   *dataframe.DataFrame
	Outlet *dataframe.DataFrame
	Sales  *dataframe.DataFrame
}

// Loader reads whole tables from a relational store into frames
type Loader struct {
	db      *sql.DB
	dialect *Dialect
	logger  *logging.FieldLogger
}

// NewLoader opens and pings the configured store
func NewLoader(ctx context.Context, cfg config.DatabaseConfig) (*Loader, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.DriverName, dialect.DSN(cfg, true))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %v", ErrConnection, dialect.Name, err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to ping %s: %v", ErrConnection, dialect.Name, err)
	}

	return &Loader{
		db:      db,
		dialect: dialect,
		logger:  logging.GetLogger().WithFields(logging.Component("loader")),
	}, nil
}

// Close closes the database connection
func (l *Loader) Close() error {
	return l.db.Close()
}

// Load reads the item, outlet and sales tables. No transformation is applied.
func (l *Loader) Load(ctx context.Context, names config.TableConfig) (*Tables, error) {
	item, err := l.ReadTable(ctx, names.Item)
	if err != nil {
		return nil, err
	}
	outlet, err := l.ReadTable(ctx, names.Outlet)
	if err != nil {
		return nil, err
	}
	sales, err := l.ReadTable(ctx, names.Sales)
	if err != nil {
		return nil, err
	}
	return &Tables{Item: item, Outlet: outlet, Sales: sales}, nil
}

// ReadTable reads every row of a table into a frame, one series per column
func (l *Loader) ReadTable(ctx context.Context, table string) (*dataframe.DataFrame, error) {
	quoted, err := l.dialect.Quote(table)
	if err != nil {
		return nil, err
	}

	var count int
	if err := l.db.QueryRowContext(ctx, l.dialect.TableExistsQuery(), table).Scan(&count); err != nil {
		return nil, fmt.Errorf("%w: failed to look up table %s: %v", ErrConnection, table, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}

	rows, err := l.db.QueryContext(ctx, "SELECT * FROM "+quoted)
	if err != nil {
		return nil, fmt.Errorf("failed to query table %s: %w", table, err)
	}
	defer rows.Close()

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}

	raw := make([][]any, len(columnTypes))
	scanArgs := make([]any, len(columnTypes))
	for rows.Next() {
		values := make([]any, len(columnTypes))
		for i := range values {
			scanArgs[i] = &values[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed to scan row of %s: %w", table, err)
		}
		for i, v := range values {
			raw[i] = append(raw[i], v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows of %s: %w", table, err)
	}

	series := make([]dataframe.Series, len(columnTypes))
	for i, ct := range columnTypes {
		s, err := buildSeries(ct.Name(), ct.DatabaseTypeName(), raw[i])
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", table, err)
		}
		series[i] = s
	}

	df := dataframe.NewDataFrame(series...)
	l.logger.Info("loaded table",
		logging.String("table", table),
		logging.Int("rows", df.NRows()),
		logging.Int("columns", len(series)),
	)
	return df, nil
}

type columnKind int

const (
	kindString columnKind = iota
	kindInt
	kindFloat
)

// kindFromTypeName classifies a SQL column type name; ok is false when the
// name says nothing useful
func kindFromTypeName(typeName string) (columnKind, bool) {
	base := strings.ToUpper(strings.TrimSpace(typeName))
	if i := strings.IndexByte(base, '('); i >= 0 {
		base = base[:i]
	}
	base = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(base), "UNSIGNED"))

	switch base {
	case "INT", "INTEGER", "TINYINT", "SMALLINT", "MEDIUMINT", "BIGINT",
		"INT2", "INT4", "INT8", "SERIAL", "BIGSERIAL", "YEAR":
		return kindInt, true
	case "FLOAT", "FLOAT4", "FLOAT8", "DOUBLE", "DOUBLE PRECISION", "REAL", "DECIMAL", "NUMERIC":
		return kindFloat, true
	case "CHAR", "VARCHAR", "TEXT", "TINYTEXT", "MEDIUMTEXT", "LONGTEXT", "BPCHAR", "NVARCHAR", "CLOB":
		return kindString, true
	}
	return kindString, false
}

// kindFromValues infers a column kind from its scanned values
func kindFromValues(values []any) columnKind {
	kind := kindInt
	seen := false
	for _, v := range values {
		if v == nil {
			continue
		}
		seen = true
		if _, err := toInt(v); err == nil {
			continue
		}
		if _, err := toFloat(v); err == nil {
			kind = kindFloat
			continue
		}
		return kindString
	}
	if !seen {
		return kindString
	}
	return kind
}

func buildSeries(name, typeName string, values []any) (dataframe.Series, error) {
	kind, ok := kindFromTypeName(typeName)
	if !ok {
		kind = kindFromValues(values)
	}

	switch kind {
	case kindInt:
		out := make([]*int64, len(values))
		for i, v := range values {
			if v == nil {
				continue
			}
			n, err := toInt(v)
			if err != nil {
				return nil, fmt.Errorf("column %q row %d: %w", name, i, err)
			}
			out[i] = &n
		}
		return NewIntSeries(name, out), nil
	case kindFloat:
		out := make([]float64, len(values))
		for i, v := range values {
			if v == nil {
				out[i] = math.NaN()
				continue
			}
			f, err := toFloat(v)
			if err != nil {
				return nil, fmt.Errorf("column %q row %d: %w", name, i, err)
			}
			out[i] = f
		}
		return NewFloatSeries(name, out), nil
	default:
		out := make([]*string, len(values))
		for i, v := range values {
			if v == nil {
				continue
			}
			s := toString(v)
			out[i] = &s
		}
		return NewStringSeries(name, out), nil
	}
}

func toInt(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return int64(n), nil
		}
		return 0, fmt.Errorf("%v is not an integer", n)
	case []byte:
		return strconv.ParseInt(strings.TrimSpace(string(n)), 10, 64)
	case string:
		return strconv.ParseInt(strings.TrimSpace(n), 10, 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to an integer", v)
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case []byte:
		return strconv.ParseFloat(strings.TrimSpace(string(n)), 64)
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	default:
		i, err := toInt(v)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %T to a float", v)
		}
		return float64(i), nil
	}
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case time.Time:
		return s.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}
