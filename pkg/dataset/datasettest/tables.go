// Package datasettest builds small deterministic BigMart-shaped tables for tests.
package datasettest

import (
	"math"
	"math/rand"
	"strconv"

	dataframe "github.com/rocketlaunchr/dataframe-go"

	"github.com/mimir-aip/bigmart-predictor/pkg/dataset"
	"github.com/mimir-aip/bigmart-predictor/pkg/models"
)

// Options controls the generated tables
type Options struct {
	Rows           int
	Seed           int64
	MissingWeights bool // leave some Item_Weight values NULL
}

type outlet struct {
	id       string
	year     int64
	size     *string
	location string
	kind     string
	uplift   float64
}

func strPtr(s string) *string { return &s }

var outlets = []outlet{
	{"OUT010", 1998, nil, "Tier 3", "Grocery Store", 0.2},
	{"OUT013", 1987, strPtr("High"), "Tier 3", "Supermarket Type1", 1.0},
	{"OUT017", 2007, nil, "Tier 2", "Supermarket Type1", 1.0},
	{"OUT018", 2009, strPtr("Medium"), "Tier 3", "Supermarket Type2", 0.9},
	{"OUT019", 1985, strPtr("Small"), "Tier 1", "Grocery Store", 0.2},
	{"OUT027", 1985, strPtr("Medium"), "Tier 3", "Supermarket Type3", 1.8},
	{"OUT035", 2004, strPtr("Small"), "Tier 2", "Supermarket Type1", 1.0},
	{"OUT045", 2002, nil, "Tier 2", "Supermarket Type1", 1.0},
	{"OUT046", 1997, strPtr("Small"), "Tier 1", "Supermarket Type1", 1.0},
	{"OUT049", 1999, strPtr("Medium"), "Tier 1", "Supermarket Type1", 1.0},
}

var (
	itemTypes   = []string{"Dairy", "Soft Drinks", "Meat", "Household", "Snack Foods", "Frozen Foods"}
	fatSpelling = []string{"Low Fat", "LF", "low fat", "Regular", "reg"}
)

// Tables generates item, outlet and sales tables sharing an integer ID column.
// Sales depend on MRP and outlet type so the regressors have signal to learn.
func Tables(opts Options) *dataset.Tables {
	rng := rand.New(rand.NewSource(opts.Seed))
	n := opts.Rows

	ids := make([]*int64, n)
	itemIDs := make([]*string, n)
	weights := make([]float64, n)
	fats := make([]*string, n)
	visibility := make([]float64, n)
	types := make([]*string, n)
	mrp := make([]float64, n)

	outletIDs := make([]*string, n)
	years := make([]*int64, n)
	sizes := make([]*string, n)
	locations := make([]*string, n)
	kinds := make([]*string, n)

	sales := make([]float64, n)

	for i := 0; i < n; i++ {
		id := int64(i + 1)
		ids[i] = &id

		itemNo := rng.Intn(40)
		itemIDs[i] = strPtr("FD" + strconv.Itoa(100+itemNo))
		weights[i] = 5 + float64(itemNo%15)
		if opts.MissingWeights && rng.Float64() < 0.1 {
			weights[i] = math.NaN()
		}
		fats[i] = strPtr(fatSpelling[rng.Intn(len(fatSpelling))])
		visibility[i] = math.Round(rng.Float64()*0.35*1000) / 1000
		types[i] = strPtr(itemTypes[itemNo%len(itemTypes)])
		mrp[i] = math.Round((30+rng.Float64()*240)*100) / 100

		o := outlets[rng.Intn(len(outlets))]
		year := o.year
		outletIDs[i] = strPtr(o.id)
		years[i] = &year
		sizes[i] = o.size
		locations[i] = strPtr(o.location)
		kinds[i] = strPtr(o.kind)

		noise := rng.NormFloat64() * 50
		sales[i] = math.Max(0, math.Round((mrp[i]*12*o.uplift+noise)*100)/100)
	}

	item := dataframe.NewDataFrame(
		dataset.NewIntSeries(models.ColumnID, ids),
		dataset.NewStringSeries(models.ColumnItemIdentifier, itemIDs),
		dataset.NewFloatSeries(models.ColumnItemWeight, weights),
		dataset.NewStringSeries(models.ColumnItemFatContent, fats),
		dataset.NewFloatSeries(models.ColumnItemVisibility, visibility),
		dataset.NewStringSeries(models.ColumnItemType, types),
		dataset.NewFloatSeries(models.ColumnItemMRP, mrp),
	)
	outletFrame := dataframe.NewDataFrame(
		dataset.NewIntSeries(models.ColumnID, ids),
		dataset.NewStringSeries(models.ColumnOutletIdentifier, outletIDs),
		dataset.NewIntSeries(models.ColumnOutletEstablishmentYear, years),
		dataset.NewStringSeries(models.ColumnOutletSize, sizes),
		dataset.NewStringSeries(models.ColumnOutletLocationType, locations),
		dataset.NewStringSeries(models.ColumnOutletType, kinds),
	)
	salesFrame := dataframe.NewDataFrame(
		dataset.NewIntSeries(models.ColumnID, ids),
		dataset.NewFloatSeries(models.ColumnItemOutletSales, sales),
	)

	return &dataset.Tables{Item: item, Outlet: outletFrame, Sales: salesFrame}
}
