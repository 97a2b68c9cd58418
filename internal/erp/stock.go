package erp

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Bin is the stock of one item in one warehouse.
type Bin struct {
	Name       string          `json:"name,omitempty"`
	ItemCode   string          `json:"item_code"`
	Warehouse  string          `json:"warehouse"`
	ActualQty  float64         `json:"actual_qty"`
	StockValue decimal.Decimal `json:"stock_value"`
}

func (b Bin) RecordID() string         { return b.Name }
func (b Bin) IsArchived() bool         { return false }
func (b Bin) WithArchived(bool) Bin    { return b }
func (b Bin) stamped(name, _ string) Bin {
	b.Name = name
	return b
}

var binFields = []string{"name", "item_code", "warehouse", "actual_qty", "stock_value"}

// stockLevel aggregates the bins of one item.
type stockLevel struct {
	Qty        float64
	Value      decimal.Decimal
	Warehouses []string
}

// stockIndex holds bin totals per item code. Until a load succeeds every
// item reads as unknown.
type stockIndex struct {
	mu     sync.RWMutex
	levels map[string]stockLevel
	loaded bool
}

func (s *stockIndex) set(bins []Bin) {
	levels := make(map[string]stockLevel)
	for _, b := range bins {
		l := levels[b.ItemCode]
		l.Qty += b.ActualQty
		l.Value = l.Value.Add(b.StockValue)
		if b.ActualQty != 0 {
			l.Warehouses = append(l.Warehouses, b.Warehouse)
		}
		levels[b.ItemCode] = l
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels = levels
	s.loaded = true
}

func (s *stockIndex) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels = nil
	s.loaded = false
}

func (s *stockIndex) level(code string) (stockLevel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return stockLevel{}, false
	}
	return s.levels[code], true
}
