package models

import (
	"fmt"
	"math"
)

// Column names of the persisted schema
const (
	ColumnID = "ID"

	ColumnItemIdentifier = "Item_Identifier"
	ColumnItemWeight     = "Item_Weight"
	ColumnItemFatContent = "Item_Fat_Content"
	ColumnItemVisibility = "Item_Visibility"
	ColumnItemType       = "Item_Type"
	ColumnItemMRP        = "Item_MRP"

	ColumnOutletIdentifier        = "Outlet_Identifier"
	ColumnOutletEstablishmentYear = "Outlet_Establishment_Year"
	ColumnOutletSize              = "Outlet_Size"
	ColumnOutletLocationType      = "Outlet_Location_Type"
	ColumnOutletType              = "Outlet_Type"
	ColumnOutletAge               = "Outlet_Age"

	ColumnItemOutletSales = "Item_Outlet_Sales"
)

// Canonical fat-content labels
const (
	FatContentLow     = "Low Fat"
	FatContentRegular = "Regular"
)

// SalesRecord is one raw inference input. Outlet_Age is supplied directly
// rather than derived from an establishment year.
type SalesRecord struct {
	ItemIdentifier     string   `json:"Item_Identifier"`
	ItemWeight         *float64 `json:"Item_Weight"`
	ItemFatContent     string   `json:"Item_Fat_Content"`
	ItemVisibility     float64  `json:"Item_Visibility"`
	ItemType           string   `json:"Item_Type"`
	ItemMRP            float64  `json:"Item_MRP"`
	OutletIdentifier   string   `json:"Outlet_Identifier"`
	OutletSize         *string  `json:"Outlet_Size"`
	OutletLocationType string   `json:"Outlet_Location_Type"`
	OutletType         string   `json:"Outlet_Type"`
	OutletAge          int64    `json:"Outlet_Age"`
}

// DefaultSalesRecord returns the record pre-filled on the prediction form
func DefaultSalesRecord() SalesRecord {
	weight := 12.5
	size := "Small"
	return SalesRecord{
		ItemIdentifier:     "FAD123",
		ItemWeight:         &weight,
		ItemFatContent:     FatContentLow,
		ItemVisibility:     0.05,
		ItemType:           "Dairy",
		ItemMRP:            150.0,
		OutletIdentifier:   "OUT027",
		OutletSize:         &size,
		OutletLocationType: "Tier 1",
		OutletType:         "Supermarket Type1",
		OutletAge:          15,
	}
}

// Form bounds of the prediction inputs
const (
	MaxFormVisibility = 0.35
	MaxFormOutletAge  = 40
)

// FormOptions lists the choices offered by the prediction form
var FormOptions = map[string][]string{
	ColumnItemFatContent: {FatContentLow, FatContentRegular},
	ColumnItemType: {
		"Dairy", "Soft Drinks", "Meat", "Fruits and Vegetables", "Household",
		"Baking Goods", "Snack Foods", "Frozen Foods", "Breakfast",
		"Health and Hygiene", "Hard Drinks", "Canned", "Breads", "Starchy Foods",
		"Others", "Seafood",
	},
	ColumnOutletIdentifier: {
		"OUT027", "OUT013", "OUT049", "OUT035", "OUT046",
		"OUT017", "OUT045", "OUT018", "OUT019", "OUT010",
	},
	ColumnOutletSize:         {"Small", "Medium", "High"},
	ColumnOutletLocationType: {"Tier 1", "Tier 2", "Tier 3"},
	ColumnOutletType: {
		"Supermarket Type1", "Supermarket Type2", "Supermarket Type3", "Grocery Store",
	},
}

// ValidateForm applies the prediction form's input bounds. The predictor
// itself does not require them.
func (r *SalesRecord) ValidateForm() error {
	if r.ItemWeight != nil && (*r.ItemWeight < 0 || math.IsNaN(*r.ItemWeight)) {
		return fmt.Errorf("%s must be non-negative", ColumnItemWeight)
	}
	if r.ItemMRP < 0 || math.IsNaN(r.ItemMRP) {
		return fmt.Errorf("%s must be non-negative", ColumnItemMRP)
	}
	if r.ItemVisibility < 0 || r.ItemVisibility > MaxFormVisibility || math.IsNaN(r.ItemVisibility) {
		return fmt.Errorf("%s must be between 0 and %v", ColumnItemVisibility, MaxFormVisibility)
	}
	if r.OutletAge < 0 || r.OutletAge > MaxFormOutletAge {
		return fmt.Errorf("%s must be between 0 and %d", ColumnOutletAge, MaxFormOutletAge)
	}
	return nil
}
