package erp

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// StatusCount is how many active records carry one status.
type StatusCount struct {
	Status string
	Count  int
}

// SectionStats summarizes one order-like view.
type SectionStats struct {
	Total    int
	Archived int
	ByStatus []StatusCount
	Value    decimal.Decimal // sum of grand totals of active, non-cancelled records
	Open     int             // active records not Completed or Cancelled
}

// SupplierStat holds supplier statistics
type SupplierStat struct {
	Name    string
	POCount int
	Value   decimal.Decimal
}

// ReportData holds all dashboard metrics
type ReportData struct {
	Sales     SectionStats
	Purchases SectionStats
	Shipments SectionStats

	// Stock
	TotalItems      int
	LowStockItems   int
	ZeroStockItems  int
	TotalStockValue decimal.Decimal
	StockKnown      bool

	TotalSuppliers int
	TopSuppliers   []SupplierStat

	// Errors (for partial data display)
	Errors      []string
	GeneratedAt time.Time
}

type statusRecord interface {
	IsArchived() bool
}

func summarize[T statusRecord](records []T, status func(T) string, value func(T) decimal.Decimal) SectionStats {
	var s SectionStats
	counts := map[string]int{}
	for _, r := range records {
		s.Total++
		if r.IsArchived() {
			s.Archived++
			continue
		}
		st := status(r)
		counts[st]++
		if st != "Cancelled" && value != nil {
			s.Value = s.Value.Add(value(r))
		}
		if st != "Completed" && st != "Cancelled" {
			s.Open++
		}
	}
	for st, n := range counts {
		s.ByStatus = append(s.ByStatus, StatusCount{Status: st, Count: n})
	}
	sort.Slice(s.ByStatus, func(i, j int) bool {
		if s.ByStatus[i].Count != s.ByStatus[j].Count {
			return s.ByStatus[i].Count > s.ByStatus[j].Count
		}
		return s.ByStatus[i].Status < s.ByStatus[j].Status
	})
	return s
}

// Summarize computes dashboard metrics from the workspace cache.
func (w *Workspace) Summarize() *ReportData {
	data := &ReportData{GeneratedAt: time.Now()}

	data.Sales = summarize(w.Sales.List.Scoped(),
		func(o SalesOrder) string { return o.Status },
		func(o SalesOrder) decimal.Decimal { return o.GrandTotal })
	data.Purchases = summarize(w.Purchases.List.Scoped(),
		func(o PurchaseOrder) string { return o.Status },
		func(o PurchaseOrder) decimal.Decimal { return o.GrandTotal })
	data.Shipments = summarize(w.Shipments.List.Scoped(),
		func(s Shipment) string { return s.Status }, nil)

	status := w.Inventory.Entity.Matcher.Status
	for _, it := range w.Inventory.List.Scoped() {
		if it.IsArchived() {
			continue
		}
		data.TotalItems++
		switch status(it) {
		case StockLow:
			data.LowStockItems++
		case StockOut:
			data.ZeroStockItems++
		}
		if l, ok := w.Stock.level(it.ItemCode); ok {
			data.StockKnown = true
			data.TotalStockValue = data.TotalStockValue.Add(l.Value)
		}
	}

	bySupplier := map[string]*SupplierStat{}
	for _, po := range w.Purchases.List.Scoped() {
		if po.IsArchived() || po.Status == "Cancelled" {
			continue
		}
		s := bySupplier[po.Supplier]
		if s == nil {
			s = &SupplierStat{Name: po.Supplier}
			bySupplier[po.Supplier] = s
		}
		s.POCount++
		s.Value = s.Value.Add(po.GrandTotal)
	}
	for _, s := range bySupplier {
		data.TopSuppliers = append(data.TopSuppliers, *s)
	}
	sort.Slice(data.TopSuppliers, func(i, j int) bool {
		a, b := data.TopSuppliers[i], data.TopSuppliers[j]
		if a.POCount != b.POCount {
			return a.POCount > b.POCount
		}
		return a.Name < b.Name
	})
	// Keep top 5
	if len(data.TopSuppliers) > 5 {
		data.TopSuppliers = data.TopSuppliers[:5]
	}

	for _, s := range w.Suppliers.List.Scoped() {
		if !s.IsArchived() {
			data.TotalSuppliers++
		}
	}
	return data
}

// Report loads every view and summarizes it. Views that fail to load are
// listed in Errors and count as empty.
func (w *Workspace) Report(ctx context.Context) *ReportData {
	report := w.LoadAll(ctx)
	data := w.Summarize()
	for name, err := range report.Errors {
		if err != nil {
			data.Errors = append(data.Errors, fmt.Sprintf("%s: %v", name, err))
		}
	}
	sort.Strings(data.Errors)
	return data
}

// RenderDashboard writes the dashboard as colored text.
func RenderDashboard(w io.Writer, brand string, data *ReportData) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s══════════════════════════════════════════════════════════════%s\n", Cyan, Reset)
	fmt.Fprintf(w, "%s  %-58s  %s\n", Cyan, brand+" dashboard", Reset)
	fmt.Fprintf(w, "%s══════════════════════════════════════════════════════════════%s\n", Cyan, Reset)
	fmt.Fprintln(w)

	section(w, "SALES", data.Sales, true)
	section(w, "PURCHASING", data.Purchases, true)
	section(w, "SHIPMENTS", data.Shipments, false)

	fmt.Fprintf(w, "%s── STOCK %s\n", Yellow, Reset)
	fmt.Fprintf(w, "  Items:          %d\n", data.TotalItems)
	if data.StockKnown {
		fmt.Fprintf(w, "  Stock value:    %s\n", FormatCurrency(data.TotalStockValue))
		if data.LowStockItems > 0 {
			fmt.Fprintf(w, "  Low stock:      %s%d%s\n", Yellow, data.LowStockItems, Reset)
		}
		if data.ZeroStockItems > 0 {
			fmt.Fprintf(w, "  Out of stock:   %s%d ⚠%s\n", Red, data.ZeroStockItems, Reset)
		}
	} else {
		fmt.Fprintf(w, "  Stock levels:   %sunavailable%s\n", Yellow, Reset)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s── SUPPLIERS %s\n", Yellow, Reset)
	fmt.Fprintf(w, "  Active:         %d\n", data.TotalSuppliers)
	for i, s := range data.TopSuppliers {
		name := s.Name
		if len(name) > 25 {
			name = name[:22] + "..."
		}
		fmt.Fprintf(w, "    %d. %-25s %3d POs  %s\n", i+1, name, s.POCount, FormatCurrency(s.Value))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Generated: %s\n", data.GeneratedAt.Format("2006-01-02 15:04:05"))
	if len(data.Errors) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%sWarnings:%s\n", Yellow, Reset)
		for _, e := range data.Errors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
	}
}

func section(w io.Writer, title string, s SectionStats, money bool) {
	fmt.Fprintf(w, "%s── %s %s\n", Yellow, title, Reset)
	fmt.Fprintf(w, "  Active:         %d (%d open, %d archived)\n", s.Total-s.Archived, s.Open, s.Archived)
	if money {
		fmt.Fprintf(w, "  Value:          %s\n", FormatCurrency(s.Value))
	}
	for _, c := range s.ByStatus {
		fmt.Fprintf(w, "    %-22s %d\n", c.Status, c.Count)
	}
	fmt.Fprintln(w)
}
