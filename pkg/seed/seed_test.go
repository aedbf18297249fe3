package seed

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	dataframe "github.com/rocketlaunchr/dataframe-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimir-aip/bigmart-predictor/pkg/config"
	"github.com/mimir-aip/bigmart-predictor/pkg/dataset"
	"github.com/mimir-aip/bigmart-predictor/pkg/dataset/datasettest"
	"github.com/mimir-aip/bigmart-predictor/pkg/models"
)

const itemXML = `<?xml version="1.0" encoding="utf-8"?>
<data>
  <row>
    <ID>1</ID>
    <Item_Identifier>FDA15</Item_Identifier>
    <Item_Weight>9.3</Item_Weight>
    <Item_Fat_Content>Low Fat</Item_Fat_Content>
  </row>
  <row>
    <ID>2</ID>
    <Item_Identifier>DRC01</Item_Identifier>
    <Item_Weight/>
    <Item_Fat_Content>Regular</Item_Fat_Content>
  </row>
  <row>
    <ID>3</ID>
    <Item_Identifier>FDN15</Item_Identifier>
    <Item_Weight>17</Item_Weight>
  </row>
</data>`

func TestReadXMLInfersColumnTypes(t *testing.T) {
	df, err := ReadXML(strings.NewReader(itemXML))
	require.NoError(t, err)

	assert.Equal(t, []string{"ID", "Item_Identifier", "Item_Weight", "Item_Fat_Content"}, df.Names())
	assert.Equal(t, 3, df.NRows())

	assert.IsType(t, &dataframe.SeriesInt64{}, df.Series[0])
	assert.IsType(t, &dataframe.SeriesString{}, df.Series[1])
	assert.IsType(t, &dataframe.SeriesFloat64{}, df.Series[2])

	weights, err := dataset.FloatValues(df.Series[2])
	require.NoError(t, err)
	assert.Equal(t, 9.3, weights[0])
	assert.True(t, math.IsNaN(weights[1]))
	assert.Equal(t, 17.0, weights[2])

	fat, err := dataset.StringValues(df.Series[3])
	require.NoError(t, err)
	assert.Nil(t, fat[2])
}

func TestReadXMLAttributesAreColumns(t *testing.T) {
	df, err := ReadXML(strings.NewReader(`<data><row ID="7"><Item_MRP>48.27</Item_MRP></row></data>`))
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", "Item_MRP"}, df.Names())
	assert.IsType(t, &dataframe.SeriesInt64{}, df.Series[0])
}

func TestReadXMLIntegerColumnWithGapsBecomesFloat(t *testing.T) {
	df, err := ReadXML(strings.NewReader(`<data><row><Y>1985</Y></row><row><Y></Y></row></data>`))
	require.NoError(t, err)
	assert.IsType(t, &dataframe.SeriesFloat64{}, df.Series[0])
}

func TestReadXMLErrors(t *testing.T) {
	_, err := ReadXML(strings.NewReader(`<data></data>`))
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = ReadXML(strings.NewReader(`<data><row><ID>1</row></data>`))
	assert.Error(t, err)
}

func TestSQLType(t *testing.T) {
	df, err := ReadXML(strings.NewReader(itemXML))
	require.NoError(t, err)

	assert.Equal(t, "INT", SQLType(df.Series[0]))
	assert.Equal(t, "VARCHAR(255)", SQLType(df.Series[1]))
	assert.Equal(t, "FLOAT", SQLType(df.Series[2]))
}

func TestSeedExportsRoundTripThroughLoader(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, ItemFile), []byte(itemXML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, OutletFile), []byte(`<data>
<row><ID>1</ID><Outlet_Identifier>OUT049</Outlet_Identifier><Outlet_Size>Medium</Outlet_Size></row>
<row><ID>2</ID><Outlet_Identifier>OUT018</Outlet_Identifier><Outlet_Size/></row>
<row><ID>3</ID><Outlet_Identifier>OUT049</Outlet_Identifier><Outlet_Size>Medium</Outlet_Size></row>
</data>`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, SalesFile), []byte(`<data>
<row><ID>1</ID><Item_Outlet_Sales>3735.138</Item_Outlet_Sales></row>
<row><ID>3</ID><Item_Outlet_Sales>2097.27</Item_Outlet_Sales></row>
</data>`), 0o644))

	tables, err := ReadExports(dir)
	require.NoError(t, err)

	cfg := config.DatabaseConfig{Driver: "sqlite", Name: filepath.Join(dir, "bigmart.db")}
	require.NoError(t, CreateDatabase(ctx, cfg))

	seeder, err := NewSeeder(ctx, cfg)
	require.NoError(t, err)
	defer seeder.Close()

	names := config.Default().Tables
	require.NoError(t, seeder.SeedTables(ctx, names, tables))

	loader, err := dataset.NewLoader(ctx, cfg)
	require.NoError(t, err)
	defer loader.Close()

	loaded, err := loader.Load(ctx, names)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Item.NRows())
	assert.Equal(t, 2, loaded.Sales.NRows())

	size, err := dataset.Column(loaded.Outlet, models.ColumnOutletSize)
	require.NoError(t, err)
	sizes, err := dataset.StringValues(size)
	require.NoError(t, err)
	assert.Nil(t, sizes[1])

	merged, err := dataset.MergeTables(loaded)
	require.NoError(t, err)
	assert.Equal(t, 2, merged.NRows())
}

func TestSeedTablesIsRepeatableForSchema(t *testing.T) {
	ctx := context.Background()
	cfg := config.DatabaseConfig{Driver: "sqlite", Name: filepath.Join(t.TempDir(), "bigmart.db")}

	seeder, err := NewSeeder(ctx, cfg)
	require.NoError(t, err)
	defer seeder.Close()

	tables := datasettest.Tables(datasettest.Options{Rows: 25, Seed: 3})
	names := config.Default().Tables

	// CREATE TABLE IF NOT EXISTS lets a second run append rather than fail
	require.NoError(t, seeder.SeedTables(ctx, names, tables))
	require.NoError(t, seeder.SeedTables(ctx, names, tables))

	loader, err := dataset.NewLoader(ctx, cfg)
	require.NoError(t, err)
	defer loader.Close()

	sales, err := loader.ReadTable(ctx, names.Sales)
	require.NoError(t, err)
	assert.Equal(t, 50, sales.NRows())
}

func TestCreateTableRejectsBadIdentifiers(t *testing.T) {
	ctx := context.Background()
	cfg := config.DatabaseConfig{Driver: "sqlite", Name: filepath.Join(t.TempDir(), "bigmart.db")}

	seeder, err := NewSeeder(ctx, cfg)
	require.NoError(t, err)
	defer seeder.Close()

	df := dataframe.NewDataFrame(dataset.NewFloatSeries("bad column", []float64{1}))
	assert.Error(t, seeder.CreateTable(ctx, "sales_info", df))
	assert.Error(t, seeder.CreateTable(ctx, "sales info", df))
}
