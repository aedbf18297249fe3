// Package seed bootstraps the relational store from the BigMart XML exports.
package seed

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	dataframe "github.com/rocketlaunchr/dataframe-go"

	"github.com/mimir-aip/bigmart-predictor/pkg/config"
	"github.com/mimir-aip/bigmart-predictor/pkg/dataset"
	"github.com/mimir-aip/bigmart-predictor/pkg/logging"
)

// Default export file names, keyed by the table they populate
const (
	ItemFile   = "df_item.xml"
	OutletFile = "df_outlet.xml"
	SalesFile  = "df_sales.xml"
)

// Seeder creates and fills the training tables
type Seeder struct {
	db      *sql.DB
	dialect *dataset.Dialect
	logger  *logging.FieldLogger
}

// CreateDatabase creates the configured schema when the store supports it.
// Only MySQL needs this step; SQLite creates the file on open and Postgres
// databases are provisioned out of band.
func CreateDatabase(ctx context.Context, cfg config.DatabaseConfig) error {
	dialect, err := dataset.DialectFor(cfg.Driver)
	if err != nil {
		return err
	}
	if dialect.Name != "mysql" || cfg.DSN != "" {
		return nil
	}

	name, err := dialect.Quote(cfg.Name)
	if err != nil {
		return err
	}

	db, err := sql.Open(dialect.DriverName, dialect.DSN(cfg, false))
	if err != nil {
		return fmt.Errorf("%w: %v", dataset.ErrConnection, err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, "CREATE DATABASE IF NOT EXISTS "+name); err != nil {
		return fmt.Errorf("%w: failed to create database %s: %v", dataset.ErrConnection, cfg.Name, err)
	}
	return nil
}

// NewSeeder opens and pings the configured store
func NewSeeder(ctx context.Context, cfg config.DatabaseConfig) (*Seeder, error) {
	dialect, err := dataset.DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.DriverName, dialect.DSN(cfg, true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dataset.ErrConnection, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to ping %s: %v", dataset.ErrConnection, dialect.Name, err)
	}

	return &Seeder{
		db:      db,
		dialect: dialect,
		logger:  logging.GetLogger().WithFields(logging.Component("seed")),
	}, nil
}

// Close closes the database connection
func (s *Seeder) Close() error {
	return s.db.Close()
}

// SQLType maps a series to the column type used when creating its table
func SQLType(series dataframe.Series) string {
	switch series.(type) {
	case *dataframe.SeriesInt64:
		return "INT"
	case *dataframe.SeriesFloat64:
		return "FLOAT"
	default:
		return "VARCHAR(255)"
	}
}

// CreateTable creates a table with one column per series if it does not exist
func (s *Seeder) CreateTable(ctx context.Context, table string, df *dataframe.DataFrame) error {
	quoted, err := s.dialect.Quote(table)
	if err != nil {
		return err
	}

	cols := make([]string, len(df.Series))
	for i, series := range df.Series {
		col, err := s.dialect.Quote(series.Name())
		if err != nil {
			return err
		}
		cols[i] = col + " " + SQLType(series)
	}

	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoted, strings.Join(cols, ", "))
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}
	return nil
}

// Insert appends every row of df to table in one transaction. Missing values
// are written as NULL.
func (s *Seeder) Insert(ctx context.Context, table string, df *dataframe.DataFrame) (int, error) {
	quoted, err := s.dialect.Quote(table)
	if err != nil {
		return 0, err
	}

	cols := make([]string, len(df.Series))
	marks := make([]string, len(df.Series))
	for i, series := range df.Series {
		if cols[i], err = s.dialect.Quote(series.Name()); err != nil {
			return 0, err
		}
		marks[i] = s.dialect.Placeholder(i + 1)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoted, strings.Join(cols, ","), strings.Join(marks, ",")))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert into %s: %w", table, err)
	}
	defer stmt.Close()

	n := df.NRows()
	args := make([]any, len(df.Series))
	for row := 0; row < n; row++ {
		for c, series := range df.Series {
			args[c] = series.Value(row) // nil when missing
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("failed to insert row %d into %s: %w", row, table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit %s: %w", table, err)
	}
	return n, nil
}

// SeedTable creates table from the frame's columns and loads its rows
func (s *Seeder) SeedTable(ctx context.Context, table string, df *dataframe.DataFrame) error {
	if err := s.CreateTable(ctx, table, df); err != nil {
		return err
	}
	n, err := s.Insert(ctx, table, df)
	if err != nil {
		return err
	}
	s.logger.Info("seeded table", logging.String("table", table), logging.Int("rows", n))
	return nil
}

// SeedTables loads the item, outlet and sales frames into their tables
func (s *Seeder) SeedTables(ctx context.Context, names config.TableConfig, tables *dataset.Tables) error {
	for _, t := range []struct {
		name string
		df   *dataframe.DataFrame
	}{
		{names.Item, tables.Item},
		{names.Outlet, tables.Outlet},
		{names.Sales, tables.Sales},
	} {
		if err := s.SeedTable(ctx, t.name, t.df); err != nil {
			return err
		}
	}
	return nil
}

// ReadExports reads df_item.xml, df_outlet.xml and df_sales.xml from dir
func ReadExports(dir string) (*dataset.Tables, error) {
	item, err := ReadXMLFile(filepath.Join(dir, ItemFile))
	if err != nil {
		return nil, err
	}
	outlet, err := ReadXMLFile(filepath.Join(dir, OutletFile))
	if err != nil {
		return nil, err
	}
	sales, err := ReadXMLFile(filepath.Join(dir, SalesFile))
	if err != nil {
		return nil, err
	}
	return &dataset.Tables{Item: item, Outlet: outlet, Sales: sales}, nil
}
