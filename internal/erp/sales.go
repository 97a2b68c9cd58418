package erp

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mikelcalvo/wms/internal/listcore"
)

// SalesOrder represents an ERPNext Sales Order
type SalesOrder struct {
	Name            string          `json:"name,omitempty"`
	Customer        string          `json:"customer" validate:"required"`
	TransactionDate string          `json:"transaction_date,omitempty"`
	DeliveryDate    string          `json:"delivery_date" validate:"required"`
	Status          string          `json:"status,omitempty"`
	GrandTotal      decimal.Decimal `json:"grand_total"`
	Items           []Line          `json:"items,omitempty" validate:"dive"`
	Owner           string          `json:"owner,omitempty"`
	Archived        Flag            `json:"archived"`
}

func (o SalesOrder) RecordID() string { return o.Name }
func (o SalesOrder) IsArchived() bool { return bool(o.Archived) }

func (o SalesOrder) WithArchived(a bool) SalesOrder {
	o.Archived = Flag(a)
	return o
}

func (o SalesOrder) stamped(name, owner string) SalesOrder {
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

// Validate checks what struct tags cannot.
func (o SalesOrder) Validate() error {
	if o.Name == "" && len(o.Items) == 0 {
		return &listcore.ValidationError{Field: "items", Message: "at least one item is required"}
	}
	if o.TransactionDate != "" && o.DeliveryDate != "" && o.DeliveryDate < o.TransactionDate {
		return &listcore.ValidationError{Field: "delivery_date", Message: "cannot be before the order date"}
	}
	return nil
}

var salesStatuses = []string{"Draft", "To Deliver and Bill", "To Bill", "To Deliver", "Completed", "Cancelled"}

func salesOrderEntity() Entity[SalesOrder] {
	return Entity[SalesOrder]{
		Key:      "sales",
		Title:    "Sales Orders",
		Doctype:  "Sales Order",
		Singular: "sales order",
		Plural:   "sales orders",
		Prefix:   "SO",
		Fields: []string{"name", "customer", "transaction_date", "delivery_date", "status",
			"grand_total", "owner", "archived"},
		LineDoctype: "Sales Order Item",
		AttachLines: func(o SalesOrder, lines []Line) SalesOrder {
			o.Items = lines
			return o
		},
		Matcher: listcore.Matcher[SalesOrder]{
			Search: func(o SalesOrder) []string {
				return append([]string{o.Customer}, lineSearch(o.Items)...)
			},
			Status: func(o SalesOrder) string { return o.Status },
			Owner:  func(o SalesOrder) string { return o.Owner },
		},
		Columns: listcore.Columns[SalesOrder]{
			"name":     func(o SalesOrder) any { return o.Name },
			"customer": func(o SalesOrder) any { return textValue(o.Customer) },
			"date":     func(o SalesOrder) any { return dateValue(o.TransactionDate) },
			"delivery": func(o SalesOrder) any { return dateValue(o.DeliveryDate) },
			"status":   func(o SalesOrder) any { return textValue(o.Status) },
			"total":    func(o SalesOrder) any { return o.GrandTotal },
		},
		Table: []TableColumn[SalesOrder]{
			{Title: "Order", Key: "name", Width: 22, Value: func(o SalesOrder) string { return o.Name }},
			{Title: "Customer", Key: "customer", Width: 24, Value: func(o SalesOrder) string { return o.Customer }},
			{Title: "Date", Key: "date", Width: 11, Value: func(o SalesOrder) string { return o.TransactionDate }},
			{Title: "Delivery", Key: "delivery", Width: 11, Value: func(o SalesOrder) string { return o.DeliveryDate }},
			{Title: "Status", Key: "status", Width: 20, Value: func(o SalesOrder) string { return o.Status }},
			{Title: "Total", Key: "total", Width: 14, Value: func(o SalesOrder) string { return FormatCurrency(o.GrandTotal) }},
		},
		Statuses: salesStatuses,
		Form: []FormField{
			{Key: "customer", Label: "Customer", Placeholder: "Acme Corp"},
			{Key: "delivery_date", Label: "Delivery date", Placeholder: "2026-01-31"},
			{Key: "items", Label: "Items", Placeholder: "CPU-I7:2:450, RAM-16:4"},
			{Key: "status", Label: "Status", Placeholder: "Draft"},
		},
		ToForm: func(o SalesOrder) map[string]string {
			return map[string]string{
				"customer":      o.Customer,
				"delivery_date": o.DeliveryDate,
				"items":         FormatLines(o.Items),
				"status":        o.Status,
			}
		},
		FromForm: func(o SalesOrder, v map[string]string) (SalesOrder, error) {
			o.Customer = strings.TrimSpace(v["customer"])
			o.DeliveryDate = strings.TrimSpace(v["delivery_date"])
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
		CSVHeader: []string{"name", "customer", "transaction_date", "delivery_date", "status", "grand_total", "items", "owner"},
		CSVRow: func(o SalesOrder) []string {
			return []string{o.Name, o.Customer, o.TransactionDate, o.DeliveryDate, o.Status,
				o.GrandTotal.StringFixed(2), FormatLines(o.Items), o.Owner}
		},
	}
}

// ParseLines reads "CODE:QTY[:RATE]" entries separated by commas or
// semicolons.
func ParseLines(raw string) ([]Line, error) {
	var lines []Line
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' }) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Split(part, ":")
		if len(fields) < 2 || len(fields) > 3 {
			return nil, &listcore.ValidationError{Field: "items", Message: fmt.Sprintf("%q must be CODE:QTY[:RATE]", part)}
		}
		qty, err := decimal.NewFromString(strings.TrimSpace(fields[1]))
		if err != nil {
			return nil, &listcore.ValidationError{Field: "items", Message: fmt.Sprintf("invalid quantity in %q", part)}
		}
		line := Line{ItemCode: strings.TrimSpace(fields[0]), Qty: qty.InexactFloat64()}
		if len(fields) == 3 {
			rate, err := decimal.NewFromString(strings.TrimSpace(fields[2]))
			if err != nil {
				return nil, &listcore.ValidationError{Field: "items", Message: fmt.Sprintf("invalid rate in %q", part)}
			}
			line.Rate = rate
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return nil, &listcore.ValidationError{Field: "items", Message: "at least one item is required"}
	}
	return lines, nil
}

// FormatLines is the inverse of ParseLines.
func FormatLines(lines []Line) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		qty := decimal.NewFromFloat(l.Qty).String()
		if l.Rate.IsZero() {
			parts[i] = l.ItemCode + ":" + qty
		} else {
			parts[i] = l.ItemCode + ":" + qty + ":" + l.Rate.String()
		}
	}
	return strings.Join(parts, ", ")
}
