package erp

import (
	"strings"

	"github.com/mikelcalvo/wms/internal/listcore"
)

// Supplier represents an ERPNext Supplier
type Supplier struct {
	Name          string `json:"name,omitempty"`
	SupplierName  string `json:"supplier_name" validate:"required"`
	SupplierGroup string `json:"supplier_group,omitempty"`
	Country       string `json:"country,omitempty"`
	Disabled      Flag   `json:"disabled"`
	Owner         string `json:"owner,omitempty"`
	Archived      Flag   `json:"archived"`
}

func (s Supplier) RecordID() string { return s.Name }
func (s Supplier) IsArchived() bool { return bool(s.Archived) }

func (s Supplier) WithArchived(a bool) Supplier {
	s.Archived = Flag(a)
	return s
}

func (s Supplier) stamped(name, owner string) Supplier {
	// Suppliers are named by supplier_name.
	if s.SupplierName != "" {
		name = s.SupplierName
	}
	s.Name = name
	if s.Owner == "" {
		s.Owner = owner
	}
	return s
}

// Status is Active or Disabled.
func (s Supplier) Status() string {
	if s.Disabled {
		return "Disabled"
	}
	return "Active"
}

func supplierEntity() Entity[Supplier] {
	return Entity[Supplier]{
		Key:      "suppliers",
		Title:    "Suppliers",
		Doctype:  "Supplier",
		Singular: "supplier",
		Plural:   "suppliers",
		Prefix:   "SUP",
		Fields:   []string{"name", "supplier_name", "supplier_group", "country", "disabled", "owner", "archived"},
		Matcher: listcore.Matcher[Supplier]{
			Search: func(s Supplier) []string { return []string{s.SupplierName, s.SupplierGroup, s.Country} },
			Status: Supplier.Status,
			Owner:  func(s Supplier) string { return s.Owner },
		},
		Columns: listcore.Columns[Supplier]{
			"name":    func(s Supplier) any { return s.Name },
			"group":   func(s Supplier) any { return textValue(s.SupplierGroup) },
			"country": func(s Supplier) any { return textValue(s.Country) },
			"status":  func(s Supplier) any { return s.Status() },
		},
		Table: []TableColumn[Supplier]{
			{Title: "Supplier", Key: "name", Width: 30, Value: func(s Supplier) string { return s.Name }},
			{Title: "Group", Key: "group", Width: 20, Value: func(s Supplier) string { return s.SupplierGroup }},
			{Title: "Country", Key: "country", Width: 16, Value: func(s Supplier) string { return s.Country }},
			{Title: "Status", Key: "status", Width: 10, Value: Supplier.Status},
		},
		Statuses: []string{"Active", "Disabled"},
		Form: []FormField{
			{Key: "supplier_name", Label: "Name", Placeholder: "Intel Corporation"},
			{Key: "supplier_group", Label: "Group", Placeholder: "Hardware"},
			{Key: "country", Label: "Country", Placeholder: "Spain"},
			{Key: "disabled", Label: "Disabled (y/n)", Placeholder: "n"},
		},
		ToForm: func(s Supplier) map[string]string {
			disabled := "n"
			if s.Disabled {
				disabled = "y"
			}
			return map[string]string{
				"supplier_name":  s.SupplierName,
				"supplier_group": s.SupplierGroup,
				"country":        s.Country,
				"disabled":       disabled,
			}
		},
		FromForm: func(s Supplier, v map[string]string) (Supplier, error) {
			s.SupplierName = strings.TrimSpace(v["supplier_name"])
			s.SupplierGroup = strings.TrimSpace(v["supplier_group"])
			s.Country = strings.TrimSpace(v["country"])
			s.Disabled = Flag(parseYes(v["disabled"]))
			return s, nil
		},
		CSVHeader: []string{"name", "supplier_name", "supplier_group", "country", "disabled", "owner"},
		CSVRow: func(s Supplier) []string {
			disabled := "0"
			if s.Disabled {
				disabled = "1"
			}
			return []string{s.Name, s.SupplierName, s.SupplierGroup, s.Country, disabled, s.Owner}
		},
	}
}

func parseYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "1", "true", "on":
		return true
	}
	return false
}
