package erp

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mikelcalvo/wms/internal/listcore"
)

// PurchaseOrder represents an ERPNext Purchase Order
type PurchaseOrder struct {
	Name            string          `json:"name,omitempty"`
	Supplier        string          `json:"supplier" validate:"required"`
	TransactionDate string          `json:"transaction_date,omitempty"`
	ScheduleDate    string          `json:"schedule_date" validate:"required"`
	Status          string          `json:"status,omitempty"`
	GrandTotal      decimal.Decimal `json:"grand_total"`
	Items           []Line          `json:"items,omitempty" validate:"dive"`
	Owner           string          `json:"owner,omitempty"`
	Archived        Flag            `json:"archived"`
}

func (o PurchaseOrder) RecordID() string { return o.Name }
func (o PurchaseOrder) IsArchived() bool { return bool(o.Archived) }

func (o PurchaseOrder) WithArchived(a bool) PurchaseOrder {
	o.Archived = Flag(a)
	return o
}

func (o PurchaseOrder) stamped(name, owner string) PurchaseOrder {
	o.Name = name
	if o.Owner == "" {
		o.Owner = owner
	}
	if o.Status == "" {
		o.Status = "Draft"
	}
	if o.TransactionDate == "" {
		o.TransactionDate = today()
	}
	if o.GrandTotal.IsZero() {
		o.GrandTotal = linesTotal(o.Items)
	}
	return o
}

func (o PurchaseOrder) Validate() error {
	if o.Name == "" && len(o.Items) == 0 {
		return &listcore.ValidationError{Field: "items", Message: "at least one item is required"}
	}
	if o.TransactionDate != "" && o.ScheduleDate < o.TransactionDate {
		return &listcore.ValidationError{Field: "schedule_date", Message: "cannot be before the order date"}
	}
	return nil
}

var purchaseStatuses = []string{"Draft", "To Receive and Bill", "To Bill", "To Receive", "Completed", "Cancelled"}

func purchaseOrderEntity() Entity[PurchaseOrder] {
	return Entity[PurchaseOrder]{
		Key:      "purchases",
		Title:    "Purchase Orders",
		Doctype:  "Purchase Order",
		Singular: "purchase order",
		Plural:   "purchase orders",
		Prefix:   "PO",
		Fields: []string{"name", "supplier", "transaction_date", "schedule_date", "status",
			"grand_total", "owner", "archived"},
		LineDoctype: "Purchase Order Item",
		AttachLines: func(o PurchaseOrder, lines []Line) PurchaseOrder {
			o.Items = lines
			return o
		},
		Matcher: listcore.Matcher[PurchaseOrder]{
			Search: func(o PurchaseOrder) []string {
				return append([]string{o.Supplier}, lineSearch(o.Items)...)
			},
			Status: func(o PurchaseOrder) string { return o.Status },
			Owner:  func(o PurchaseOrder) string { return o.Owner },
		},
		Columns: listcore.Columns[PurchaseOrder]{
			"name":     func(o PurchaseOrder) any { return o.Name },
			"supplier": func(o PurchaseOrder) any { return textValue(o.Supplier) },
			"date":     func(o PurchaseOrder) any { return dateValue(o.TransactionDate) },
			"required": func(o PurchaseOrder) any { return dateValue(o.ScheduleDate) },
			"status":   func(o PurchaseOrder) any { return textValue(o.Status) },
			"total":    func(o PurchaseOrder) any { return o.GrandTotal },
		},
		Table: []TableColumn[PurchaseOrder]{
			{Title: "Order", Key: "name", Width: 22, Value: func(o PurchaseOrder) string { return o.Name }},
			{Title: "Supplier", Key: "supplier", Width: 24, Value: func(o PurchaseOrder) string { return o.Supplier }},
			{Title: "Date", Key: "date", Width: 11, Value: func(o PurchaseOrder) string { return o.TransactionDate }},
			{Title: "Required", Key: "required", Width: 11, Value: func(o PurchaseOrder) string { return o.ScheduleDate }},
			{Title: "Status", Key: "status", Width: 20, Value: func(o PurchaseOrder) string { return o.Status }},
			{Title: "Total", Key: "total", Width: 14, Value: func(o PurchaseOrder) string { return FormatCurrency(o.GrandTotal) }},
		},
		Statuses: purchaseStatuses,
		Form: []FormField{
			{Key: "supplier", Label: "Supplier", Placeholder: "Intel Corporation"},
			{Key: "schedule_date", Label: "Required by", Placeholder: "2026-01-31"},
			{Key: "items", Label: "Items", Placeholder: "CPU-I7:10:380"},
			{Key: "status", Label: "Status", Placeholder: "Draft"},
		},
		ToForm: func(o PurchaseOrder) map[string]string {
			return map[string]string{
				"supplier":      o.Supplier,
				"schedule_date": o.ScheduleDate,
				"items":         FormatLines(o.Items),
				"status":        o.Status,
			}
		},
		FromForm: func(o PurchaseOrder, v map[string]string) (PurchaseOrder, error) {
			o.Supplier = strings.TrimSpace(v["supplier"])
			o.ScheduleDate = strings.TrimSpace(v["schedule_date"])
			if s := strings.TrimSpace(v["status"]); s != "" {
				o.Status = s
			}
			if raw := strings.TrimSpace(v["items"]); raw != "" {
				lines, err := ParseLines(raw)
				if err != nil {
					return o, err
				}
				o.Items = lines
			}
			return o, nil
		},
		CSVHeader: []string{"name", "supplier", "transaction_date", "schedule_date", "status", "grand_total", "items", "owner"},
		CSVRow: func(o PurchaseOrder) []string {
			return []string{o.Name, o.Supplier, o.TransactionDate, o.ScheduleDate, o.Status,
				o.GrandTotal.StringFixed(2), FormatLines(o.Items), o.Owner}
		},
	}
}
