package erp

// Customer represents an ERPNext Customer. Only names are used, to suggest
// customers on sales order and shipment forms.
type Customer struct {
	Name          string `json:"name,omitempty"`
	CustomerName  string `json:"customer_name"`
	CustomerGroup string `json:"customer_group,omitempty"`
	Disabled      Flag   `json:"disabled"`
}

func (c Customer) RecordID() string           { return c.Name }
func (c Customer) IsArchived() bool           { return false }
func (c Customer) WithArchived(bool) Customer { return c }
func (c Customer) stamped(name, _ string) Customer {
	c.Name = name
	return c
}

var customerFields = []string{"name", "customer_name", "customer_group", "disabled"}

func customerNames(customers []Customer) []string {
	names := make([]string, 0, len(customers))
	for _, c := range customers {
		if !c.Disabled {
			names = append(names, c.Name)
		}
	}
	return names
}
