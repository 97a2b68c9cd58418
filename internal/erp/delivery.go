package erp

import (
	"strings"

	"github.com/mikelcalvo/wms/internal/listcore"
)

// Shipment is a Delivery Note with its carrier details.
type Shipment struct {
	Name        string `json:"name,omitempty"`
	Customer    string `json:"customer" validate:"required"`
	SalesOrder  string `json:"sales_order,omitempty"`
	PostingDate string `json:"posting_date,omitempty"`
	Carrier     string `json:"transporter_name,omitempty"`
	TrackingNo  string `json:"lr_no,omitempty"`
	Status      string `json:"status,omitempty"`
	Items       []Line `json:"items,omitempty" validate:"dive"`
	Owner       string `json:"owner,omitempty"`
	Archived    Flag   `json:"archived"`
}

func (s Shipment) RecordID() string { return s.Name }
func (s Shipment) IsArchived() bool { return bool(s.Archived) }

func (s Shipment) WithArchived(a bool) Shipment {
	s.Archived = Flag(a)
	return s
}

func (s Shipment) stamped(name, owner string) Shipment {
	s.Name = name
	if s.Owner == "" {
		s.Owner = owner
	}
	if s.Status == "" {
		s.Status = "Draft"
	}
	if s.PostingDate == "" {
		s.PostingDate = today()
	}
	return s
}

func (s Shipment) Validate() error {
	if s.Name == "" && len(s.Items) == 0 && s.SalesOrder == "" {
		return &listcore.ValidationError{Field: "items", Message: "add items or a sales order"}
	}
	if s.TrackingNo != "" && s.Carrier == "" {
		return &listcore.ValidationError{Field: "transporter_name", Message: "is required with a tracking number"}
	}
	return nil
}

var shipmentStatuses = []string{"Draft", "To Bill", "Completed", "Return Issued", "Cancelled", "Closed"}

func shipmentEntity() Entity[Shipment] {
	return Entity[Shipment]{
		Key:      "shipments",
		Title:    "Shipments",
		Doctype:  "Delivery Note",
		Singular: "shipment",
		Plural:   "shipments",
		Prefix:   "DN",
		Fields: []string{"name", "customer", "sales_order", "posting_date", "transporter_name", "lr_no",
			"status", "owner", "archived"},
		LineDoctype: "Delivery Note Item",
		AttachLines: func(s Shipment, lines []Line) Shipment {
			s.Items = lines
			return s
		},
		Matcher: listcore.Matcher[Shipment]{
			Search: func(s Shipment) []string {
				return append([]string{s.Customer, s.SalesOrder, s.Carrier, s.TrackingNo}, lineSearch(s.Items)...)
			},
			Status: func(s Shipment) string { return s.Status },
			Owner:  func(s Shipment) string { return s.Owner },
		},
		Columns: listcore.Columns[Shipment]{
			"name":     func(s Shipment) any { return s.Name },
			"customer": func(s Shipment) any { return textValue(s.Customer) },
			"order":    func(s Shipment) any { return textValue(s.SalesOrder) },
			"date":     func(s Shipment) any { return dateValue(s.PostingDate) },
			"carrier":  func(s Shipment) any { return textValue(s.Carrier) },
			"status":   func(s Shipment) any { return textValue(s.Status) },
		},
		Table: []TableColumn[Shipment]{
			{Title: "Shipment", Key: "name", Width: 22, Value: func(s Shipment) string { return s.Name }},
			{Title: "Customer", Key: "customer", Width: 22, Value: func(s Shipment) string { return s.Customer }},
			{Title: "Order", Key: "order", Width: 20, Value: func(s Shipment) string { return s.SalesOrder }},
			{Title: "Date", Key: "date", Width: 11, Value: func(s Shipment) string { return s.PostingDate }},
			{Title: "Carrier", Key: "carrier", Width: 14, Value: func(s Shipment) string { return s.Carrier }},
			{Title: "Tracking", Width: 16, Value: func(s Shipment) string { return s.TrackingNo }},
			{Title: "Status", Key: "status", Width: 14, Value: func(s Shipment) string { return s.Status }},
		},
		Statuses: shipmentStatuses,
		Form: []FormField{
			{Key: "customer", Label: "Customer", Placeholder: "Acme Corp"},
			{Key: "sales_order", Label: "Sales order", Placeholder: "SAL-ORD-2026-00001"},
			{Key: "transporter_name", Label: "Carrier", Placeholder: "DHL"},
			{Key: "lr_no", Label: "Tracking no.", Placeholder: "JD0146000033"},
			{Key: "items", Label: "Items", Placeholder: "CPU-I7:2"},
			{Key: "status", Label: "Status", Placeholder: "Draft"},
		},
		ToForm: func(s Shipment) map[string]string {
			return map[string]string{
				"customer":         s.Customer,
				"sales_order":      s.SalesOrder,
				"transporter_name": s.Carrier,
				"lr_no":            s.TrackingNo,
				"items":            FormatLines(s.Items),
				"status":           s.Status,
			}
		},
		FromForm: func(s Shipment, v map[string]string) (Shipment, error) {
			s.Customer = strings.TrimSpace(v["customer"])
			s.SalesOrder = strings.TrimSpace(v["sales_order"])
			s.Carrier = strings.TrimSpace(v["transporter_name"])
			s.TrackingNo = strings.TrimSpace(v["lr_no"])
			if st := strings.TrimSpace(v["status"]); st != "" {
				s.Status = st
			}
			if raw := strings.TrimSpace(v["items"]); raw != "" {
				lines, err := ParseLines(raw)
				if err != nil {
					return s, err
				}
				s.Items = lines
			}
			return s, nil
		},
		CSVHeader: []string{"name", "customer", "sales_order", "posting_date", "transporter_name", "lr_no", "status", "items", "owner"},
		CSVRow: func(s Shipment) []string {
			return []string{s.Name, s.Customer, s.SalesOrder, s.PostingDate, s.Carrier, s.TrackingNo,
				s.Status, FormatLines(s.Items), s.Owner}
		},
	}
}
