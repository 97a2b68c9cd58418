package erp

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mikelcalvo/wms/internal/listcore"
)

// InventoryItem is an ERPNext Item. Quantity and stock status come from bins.
type InventoryItem struct {
	Name          string          `json:"name,omitempty"`
	ItemCode      string          `json:"item_code" validate:"required"`
	ItemName      string          `json:"item_name" validate:"required"`
	ItemGroup     string          `json:"item_group" validate:"required"`
	StockUOM      string          `json:"stock_uom,omitempty"`
	SafetyStock   float64         `json:"safety_stock" validate:"gte=0"`
	ValuationRate decimal.Decimal `json:"valuation_rate"`
	Owner         string          `json:"owner,omitempty"`
	Archived      Flag            `json:"archived"`
}

func (i InventoryItem) RecordID() string { return i.Name }
func (i InventoryItem) IsArchived() bool { return bool(i.Archived) }

func (i InventoryItem) WithArchived(a bool) InventoryItem {
	i.Archived = Flag(a)
	return i
}

func (i InventoryItem) stamped(_, owner string) InventoryItem {
	// Items are named by item code.
	i.Name = i.ItemCode
	if i.Owner == "" {
		i.Owner = owner
	}
	if i.StockUOM == "" {
		i.StockUOM = "Nos"
	}
	return i
}

// Stock statuses derived from bin quantities.
const (
	StockUnknown = "Unknown"
	StockOut     = "Out of Stock"
	StockLow     = "Low Stock"
	StockIn      = "In Stock"
)

func stockStatus(qty, safety float64) string {
	switch {
	case qty <= 0:
		return StockOut
	case qty <= safety:
		return StockLow
	}
	return StockIn
}

func inventoryEntity(stock *stockIndex) Entity[InventoryItem] {
	qty := func(i InventoryItem) (float64, bool) {
		l, ok := stock.level(i.ItemCode)
		return l.Qty, ok
	}
	status := func(i InventoryItem) string {
		q, ok := qty(i)
		if !ok {
			return StockUnknown
		}
		return stockStatus(q, i.SafetyStock)
	}
	qtyText := func(i InventoryItem) string {
		q, ok := qty(i)
		if !ok {
			return "?"
		}
		return strconv.FormatFloat(q, 'f', -1, 64)
	}
	return Entity[InventoryItem]{
		Key:      "inventory",
		Title:    "Inventory",
		Doctype:  "Item",
		Singular: "item",
		Plural:   "items",
		Prefix:   "ITEM",
		Fields: []string{"name", "item_code", "item_name", "item_group", "stock_uom", "safety_stock",
			"valuation_rate", "owner", "archived"},
		Matcher: listcore.Matcher[InventoryItem]{
			Search: func(i InventoryItem) []string {
				l, _ := stock.level(i.ItemCode)
				return append([]string{i.ItemCode, i.ItemName, i.ItemGroup}, l.Warehouses...)
			},
			Status: status,
			Owner:  func(i InventoryItem) string { return i.Owner },
		},
		Columns: listcore.Columns[InventoryItem]{
			"code":  func(i InventoryItem) any { return i.ItemCode },
			"name":  func(i InventoryItem) any { return textValue(i.ItemName) },
			"group": func(i InventoryItem) any { return textValue(i.ItemGroup) },
			"qty": func(i InventoryItem) any {
				q, ok := qty(i)
				if !ok {
					return nil
				}
				return q
			},
			"rate":   func(i InventoryItem) any { return i.ValuationRate },
			"status": func(i InventoryItem) any { return status(i) },
		},
		Table: []TableColumn[InventoryItem]{
			{Title: "Code", Key: "code", Width: 16, Value: func(i InventoryItem) string { return i.ItemCode }},
			{Title: "Name", Key: "name", Width: 28, Value: func(i InventoryItem) string { return i.ItemName }},
			{Title: "Group", Key: "group", Width: 16, Value: func(i InventoryItem) string { return i.ItemGroup }},
			{Title: "Qty", Key: "qty", Width: 8, Value: qtyText},
			{Title: "UoM", Width: 6, Value: func(i InventoryItem) string { return i.StockUOM }},
			{Title: "Rate", Key: "rate", Width: 12, Value: func(i InventoryItem) string { return FormatCurrency(i.ValuationRate) }},
			{Title: "Status", Key: "status", Width: 13, Value: status},
		},
		Statuses: []string{StockIn, StockLow, StockOut},
		Form: []FormField{
			{Key: "item_code", Label: "Code", Placeholder: "CPU-I7"},
			{Key: "item_name", Label: "Name", Placeholder: "Intel Core i7"},
			{Key: "item_group", Label: "Group", Placeholder: "Products"},
			{Key: "stock_uom", Label: "UoM", Placeholder: "Nos"},
			{Key: "safety_stock", Label: "Safety stock", Placeholder: "5"},
			{Key: "valuation_rate", Label: "Valuation rate", Placeholder: "380.00"},
		},
		ToForm: func(i InventoryItem) map[string]string {
			return map[string]string{
				"item_code":      i.ItemCode,
				"item_name":      i.ItemName,
				"item_group":     i.ItemGroup,
				"stock_uom":      i.StockUOM,
				"safety_stock":   strconv.FormatFloat(i.SafetyStock, 'f', -1, 64),
				"valuation_rate": i.ValuationRate.String(),
			}
		},
		FromForm: func(i InventoryItem, v map[string]string) (InventoryItem, error) {
			if i.Name == "" {
				i.ItemCode = strings.TrimSpace(v["item_code"])
			}
			i.ItemName = strings.TrimSpace(v["item_name"])
			i.ItemGroup = strings.TrimSpace(v["item_group"])
			i.StockUOM = strings.TrimSpace(v["stock_uom"])
			if s := strings.TrimSpace(v["safety_stock"]); s != "" {
				n, err := strconv.ParseFloat(s, 64)
				if err != nil {
					return i, &listcore.ValidationError{Field: "safety_stock", Message: "must be a number"}
				}
				i.SafetyStock = n
			}
			if s := strings.TrimSpace(v["valuation_rate"]); s != "" {
				d, err := decimal.NewFromString(s)
				if err != nil {
					return i, &listcore.ValidationError{Field: "valuation_rate", Message: "must be a number"}
				}
				i.ValuationRate = d
			}
			return i, nil
		},
		CSVHeader: []string{"item_code", "item_name", "item_group", "stock_uom", "safety_stock", "valuation_rate", "qty", "status"},
		CSVRow: func(i InventoryItem) []string {
			return []string{i.ItemCode, i.ItemName, i.ItemGroup, i.StockUOM,
				strconv.FormatFloat(i.SafetyStock, 'f', -1, 64), i.ValuationRate.StringFixed(2), qtyText(i), status(i)}
		},
	}
}
