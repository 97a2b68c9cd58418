package erp

import (
	"github.com/shopspring/decimal"
)

// DemoUsers are the sessions offered by demo mode.
var DemoUsers = map[Role]string{
	RoleAdmin:    "admin@example.com",
	RoleManager:  "manager@example.com",
	RoleStaff:    "staff@example.com",
	RoleCustomer: "orders@acme.example",
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// DemoServices returns in-memory services seeded with sample data. Records
// created in the session are owned by s.User.
func DemoServices(s Session) Services {
	sales := NewMemStore("SO", demoSalesOrders()...)
	inventory := NewMemStore("ITEM", demoItems()...)
	purchases := NewMemStore("PO", demoPurchaseOrders()...)
	shipments := NewMemStore("DN", demoShipments()...)
	suppliers := NewMemStore("SUP", demoSuppliers()...)
	for _, st := range []interface{ ActAs(string) }{sales, inventory, purchases, shipments, suppliers} {
		st.ActAs(s.User)
	}
	return Services{
		Sales:     sales,
		Inventory: inventory,
		Purchases: purchases,
		Shipments: shipments,
		Suppliers: suppliers,
		Customers: NewMemStore("CUST", demoCustomers()...),
		Bins:      NewMemStore("BIN", demoBins()...),
	}
}

func demoCustomers() []Customer {
	return []Customer{
		{Name: "Acme Corp", CustomerName: "Acme Corp", CustomerGroup: "Commercial"},
		{Name: "Globex", CustomerName: "Globex", CustomerGroup: "Commercial"},
		{Name: "Initech", CustomerName: "Initech", CustomerGroup: "Commercial"},
		{Name: "Umbrella", CustomerName: "Umbrella", CustomerGroup: "Government", Disabled: true},
	}
}

func demoItems() []InventoryItem {
	return []InventoryItem{
		{Name: "CPU-I7", ItemCode: "CPU-I7", ItemName: "Intel Core i7", ItemGroup: "Components", StockUOM: "Nos", SafetyStock: 5, ValuationRate: dec("380")},
		{Name: "RAM-16", ItemCode: "RAM-16", ItemName: "16GB DDR5", ItemGroup: "Components", StockUOM: "Nos", SafetyStock: 10, ValuationRate: dec("62.5")},
		{Name: "SSD-1T", ItemCode: "SSD-1T", ItemName: "1TB NVMe SSD", ItemGroup: "Storage", StockUOM: "Nos", SafetyStock: 8, ValuationRate: dec("89.9")},
		{Name: "PSU-750", ItemCode: "PSU-750", ItemName: "750W Power Supply", ItemGroup: "Components", StockUOM: "Nos", SafetyStock: 4, ValuationRate: dec("110")},
		{Name: "CASE-ATX", ItemCode: "CASE-ATX", ItemName: "ATX Tower Case", ItemGroup: "Chassis", StockUOM: "Nos", SafetyStock: 3, ValuationRate: dec("75")},
		{Name: "CBL-SATA", ItemCode: "CBL-SATA", ItemName: "SATA Cable", ItemGroup: "Accessories", StockUOM: "Nos", SafetyStock: 50, ValuationRate: dec("1.2"), Archived: true},
	}
}

func demoBins() []Bin {
	return []Bin{
		{Name: "BIN-1", ItemCode: "CPU-I7", Warehouse: "Stores - WH", ActualQty: 24, StockValue: dec("9120")},
		{Name: "BIN-2", ItemCode: "RAM-16", Warehouse: "Stores - WH", ActualQty: 6, StockValue: dec("375")},
		{Name: "BIN-3", ItemCode: "RAM-16", Warehouse: "Transit - WH", ActualQty: 2, StockValue: dec("125")},
		{Name: "BIN-4", ItemCode: "SSD-1T", Warehouse: "Stores - WH", ActualQty: 40, StockValue: dec("3596")},
		{Name: "BIN-5", ItemCode: "PSU-750", Warehouse: "Stores - WH", ActualQty: 0, StockValue: decimal.Zero},
	}
}

func demoSalesOrders() []SalesOrder {
	return []SalesOrder{
		{Name: "SO-2026-00001", Customer: "Acme Corp", TransactionDate: "2026-09-01", DeliveryDate: "2026-09-10", Status: "Completed",
			Items: []Line{{ItemCode: "CPU-I7", ItemName: "Intel Core i7", Qty: 2, Rate: dec("450")}}, GrandTotal: dec("900"), Owner: DemoUsers[RoleCustomer]},
		{Name: "SO-2026-00002", Customer: "Globex", TransactionDate: "2026-09-14", DeliveryDate: "2026-09-30", Status: "To Deliver and Bill",
			Items: []Line{{ItemCode: "RAM-16", ItemName: "16GB DDR5", Qty: 8, Rate: dec("79")}, {ItemCode: "SSD-1T", ItemName: "1TB NVMe SSD", Qty: 4, Rate: dec("119")}},
			GrandTotal: dec("1108"), Owner: DemoUsers[RoleStaff]},
		{Name: "SO-2026-00003", Customer: "Initech", TransactionDate: "2026-10-02", DeliveryDate: "2026-10-20", Status: "Draft",
			Items: []Line{{ItemCode: "PSU-750", ItemName: "750W Power Supply", Qty: 3, Rate: dec("140")}}, GrandTotal: dec("420"), Owner: DemoUsers[RoleManager]},
		{Name: "SO-2026-00004", Customer: "Acme Corp", TransactionDate: "2026-10-05", DeliveryDate: "2026-10-25", Status: "To Deliver",
			Items: []Line{{ItemCode: "CASE-ATX", ItemName: "ATX Tower Case", Qty: 10, Rate: dec("95")}}, GrandTotal: dec("950"), Owner: DemoUsers[RoleCustomer]},
		{Name: "SO-2026-00005", Customer: "Globex", TransactionDate: "2026-08-20", DeliveryDate: "2026-08-28", Status: "Cancelled",
			Items: []Line{{ItemCode: "CPU-I7", ItemName: "Intel Core i7", Qty: 1, Rate: dec("450")}}, GrandTotal: dec("450"), Owner: DemoUsers[RoleStaff], Archived: true},
	}
}

func demoPurchaseOrders() []PurchaseOrder {
	return []PurchaseOrder{
		{Name: "PO-2026-00001", Supplier: "Northwind Components", TransactionDate: "2026-09-03", ScheduleDate: "2026-09-17", Status: "Completed",
			Items: []Line{{ItemCode: "CPU-I7", ItemName: "Intel Core i7", Qty: 20, Rate: dec("380")}}, GrandTotal: dec("7600"), Owner: DemoUsers[RoleManager]},
		{Name: "PO-2026-00002", Supplier: "Contoso Storage", TransactionDate: "2026-10-01", ScheduleDate: "2026-10-15", Status: "To Receive and Bill",
			Items: []Line{{ItemCode: "SSD-1T", ItemName: "1TB NVMe SSD", Qty: 30, Rate: dec("89.9")}}, GrandTotal: dec("2697"), Owner: DemoUsers[RoleStaff]},
		{Name: "PO-2026-00003", Supplier: "Northwind Components", TransactionDate: "2026-10-09", ScheduleDate: "2026-10-23", Status: "Draft",
			Items: []Line{{ItemCode: "PSU-750", ItemName: "750W Power Supply", Qty: 12, Rate: dec("110")}}, GrandTotal: dec("1320"), Owner: DemoUsers[RoleStaff]},
	}
}

func demoShipments() []Shipment {
	return []Shipment{
		{Name: "DN-2026-00001", Customer: "Acme Corp", SalesOrder: "SO-2026-00001", PostingDate: "2026-09-09", Carrier: "DHL", TrackingNo: "JD014600006281",
			Status: "Completed", Items: []Line{{ItemCode: "CPU-I7", ItemName: "Intel Core i7", Qty: 2, Rate: dec("450")}}, Owner: DemoUsers[RoleCustomer]},
		{Name: "DN-2026-00002", Customer: "Globex", SalesOrder: "SO-2026-00002", PostingDate: "2026-09-25", Carrier: "UPS", TrackingNo: "1Z999AA10123456784",
			Status: "To Bill", Items: []Line{{ItemCode: "RAM-16", ItemName: "16GB DDR5", Qty: 8, Rate: dec("79")}}, Owner: DemoUsers[RoleStaff]},
	}
}

func demoSuppliers() []Supplier {
	return []Supplier{
		{Name: "Northwind Components", SupplierName: "Northwind Components", SupplierGroup: "Hardware", Country: "Spain"},
		{Name: "Contoso Storage", SupplierName: "Contoso Storage", SupplierGroup: "Hardware", Country: "Germany"},
		{Name: "Fabrikam Cables", SupplierName: "Fabrikam Cables", SupplierGroup: "Accessories", Country: "Portugal", Disabled: true},
	}
}
