package erp

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikelcalvo/wms/internal/listcore"
	"github.com/mikelcalvo/wms/internal/prefs"
)

type toastLog struct {
	mu     sync.Mutex
	toasts []listcore.Toast
}

func (l *toastLog) Notify(t listcore.Toast) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.toasts = append(l.toasts, t)
}

func (l *toastLog) last() listcore.Toast {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.toasts) == 0 {
		return listcore.Toast{}
	}
	return l.toasts[len(l.toasts)-1]
}

// brokenStore fails every List call.
type brokenStore[T stampable[T]] struct {
	*MemStore[T]
	err error
}

func (b brokenStore[T]) List(context.Context) ([]T, error) { return nil, b.err }

type recordingSender struct {
	mu   sync.Mutex
	sent []Notification
	err  error
}

func (s *recordingSender) Send(_ context.Context, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
	return s.err
}

func demoWorkspace(t *testing.T, role Role, toasts listcore.Notifier) *Workspace {
	t.Helper()
	s := Session{User: DemoUsers[role], Role: role}
	ws := NewWorkspace(DemoServices(s), WorkspaceOptions{Session: s, Notifier: toasts, PageSize: 20})
	t.Cleanup(ws.Close)
	return ws
}

func TestWorkspaceLoad(t *testing.T) {
	t.Run("Should fill lookups from secondary sources", func(t *testing.T) {
		ws := demoWorkspace(t, RoleAdmin, nil)
		report := ws.LoadAll(context.Background())
		assert.False(t, report.PrimaryFailed())

		assert.True(t, ws.Customers.Loaded())
		assert.True(t, ws.Customers.Has("Acme Corp"))
		assert.False(t, ws.Customers.Has("Umbrella"), "disabled customers are not offered")
		assert.True(t, ws.SupplierNames.Has("Northwind Components"))
		assert.True(t, ws.OrderNames.Has("SO-2026-00002"))

		level, ok := ws.Stock.level("RAM-16")
		require.True(t, ok)
		assert.Equal(t, 8.0, level.Qty)
		assert.ElementsMatch(t, []string{"Stores - WH", "Transit - WH"}, level.Warehouses)
	})

	t.Run("Should load the list when a secondary source fails", func(t *testing.T) {
		s := Session{User: DemoUsers[RoleAdmin], Role: RoleAdmin}
		svc := DemoServices(s)
		svc.Customers = brokenStore[Customer]{MemStore: NewMemStore[Customer]("CUST"), err: errors.New("timeout")}
		ws := NewWorkspace(svc, WorkspaceOptions{Session: s})
		defer ws.Close()

		report, err := ws.Sales.List.Load(context.Background())
		require.NoError(t, err)
		assert.True(t, report.Failed("customers"))
		assert.False(t, ws.Customers.Loaded())
		assert.Empty(t, ws.Customers.Names())
		assert.NotEmpty(t, ws.Sales.List.Items())
	})

	t.Run("Should reset stock to unknown when bins fail", func(t *testing.T) {
		s := Session{User: DemoUsers[RoleStaff], Role: RoleStaff}
		svc := DemoServices(s)
		svc.Bins = brokenStore[Bin]{MemStore: NewMemStore[Bin]("BIN"), err: errors.New("forbidden")}
		ws := NewWorkspace(svc, WorkspaceOptions{Session: s})
		defer ws.Close()

		_, err := ws.Inventory.List.Load(context.Background())
		require.NoError(t, err)
		for _, it := range ws.Inventory.List.Items() {
			assert.Equal(t, StockUnknown, ws.Inventory.Entity.Matcher.Status(it))
		}
	})

	t.Run("Should skip views customers cannot see", func(t *testing.T) {
		ws := demoWorkspace(t, RoleCustomer, nil)
		ws.LoadAll(context.Background())
		assert.True(t, ws.Sales.List.Loaded())
		assert.True(t, ws.Shipments.List.Loaded())
		assert.False(t, ws.Inventory.List.Loaded())
		assert.False(t, ws.Suppliers.List.Loaded())
		assert.Equal(t, []string{"sales", "shipments"}, ws.CollectionKeys())
	})
}

func TestWorkspacePrefs(t *testing.T) {
	t.Run("Should restore saved view state", func(t *testing.T) {
		var saved prefs.Prefs
		saved.SetView("sales", prefs.View{SortColumn: "total", SortDirection: "desc", ShowArchived: true, PageSize: 2})
		s := Session{User: DemoUsers[RoleAdmin], Role: RoleAdmin}
		ws := NewWorkspace(DemoServices(s), WorkspaceOptions{Session: s, Prefs: saved})
		defer ws.Close()

		_, err := ws.Sales.List.Load(context.Background())
		require.NoError(t, err)
		page := ws.Sales.List.View()
		assert.Equal(t, 2, page.PageSize)
		assert.Equal(t, 1, page.Total, "only the archived partition is shown")
		require.NotEmpty(t, page.Rows)
		assert.Equal(t, "SO-2026-00005", page.Rows[0].Name)

		var out prefs.Prefs
		ws.SavePrefs(&out)
		assert.Equal(t, saved.View("sales"), out.View("sales"))

		ws.Sales.List.SetShowArchived(false)
		page = ws.Sales.List.View()
		assert.Equal(t, 4, page.Total)
		require.Len(t, page.Rows, 2)
		assert.Equal(t, "SO-2026-00002", page.Rows[0].Name)
		assert.Equal(t, "SO-2026-00004", page.Rows[1].Name)
	})
}

func TestCustomerOrders(t *testing.T) {
	t.Run("Should notify back office when a customer orders", func(t *testing.T) {
		s := Session{User: DemoUsers[RoleCustomer], Role: RoleCustomer}
		svc := DemoServices(s)
		sender := &recordingSender{}
		svc.Sender = sender
		toasts := &toastLog{}
		ws := NewWorkspace(svc, WorkspaceOptions{
			Session:     s,
			Notifier:    toasts,
			NotifyUsers: []string{"admin@example.com", "manager@example.com"},
		})
		defer ws.Close()
		var wg sync.WaitGroup
		wg.Add(2)
		ws.Notifications.done = wg.Done

		_, err := ws.Sales.List.Load(context.Background())
		require.NoError(t, err)
		lines, err := ParseLines("CPU-I7:1:450")
		require.NoError(t, err)
		created, err := ws.Sales.List.Create(context.Background(), SalesOrder{
			Customer: "Acme Corp", DeliveryDate: "2099-01-01", Items: lines,
		})
		require.NoError(t, err)
		assert.Equal(t, DemoUsers[RoleCustomer], created.Owner)
		assert.Equal(t, "Draft", created.Status)
		assert.True(t, created.GrandTotal.Equal(decimal.NewFromInt(450)))
		assert.Equal(t, listcore.ToastSuccess, toasts.last().Level)

		wg.Wait()
		sender.mu.Lock()
		defer sender.mu.Unlock()
		require.Len(t, sender.sent, 2)
		for _, n := range sender.sent {
			assert.Equal(t, created.Name, n.DocumentName)
			assert.Equal(t, "Sales Order", n.DocumentType)
			assert.Equal(t, DemoUsers[RoleCustomer], n.FromUser)
		}
		assert.ElementsMatch(t, []string{"admin@example.com", "manager@example.com"},
			[]string{sender.sent[0].ForUser, sender.sent[1].ForUser})
	})

	t.Run("Should not surface notification failures", func(t *testing.T) {
		sender := &recordingSender{err: errors.New("offline")}
		n := NewNotifications(sender, []string{"admin@example.com"}, nil)
		done := make(chan struct{})
		n.done = func() { close(done) }
		n.SalesOrderPlaced(SalesOrder{Name: "SO-1", Customer: "Acme Corp"})
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("delivery never attempted")
		}
	})

	t.Run("Should refuse edits by customers", func(t *testing.T) {
		toasts := &toastLog{}
		ws := demoWorkspace(t, RoleCustomer, toasts)
		_, err := ws.Sales.List.Load(context.Background())
		require.NoError(t, err)
		order, ok := ws.Sales.List.Find("SO-2026-00004")
		require.True(t, ok)
		order.Status = "Completed"
		_, err = ws.Sales.List.Update(context.Background(), order)
		assert.ErrorIs(t, err, listcore.ErrForbidden)
		assert.Equal(t, listcore.ToastError, toasts.last().Level)
	})
}

func TestSummarize(t *testing.T) {
	t.Run("Should summarize the demo data", func(t *testing.T) {
		ws := demoWorkspace(t, RoleAdmin, nil)
		data := ws.Report(context.Background())
		require.Empty(t, data.Errors)

		assert.Equal(t, 5, data.Sales.Total)
		assert.Equal(t, 1, data.Sales.Archived)
		assert.Equal(t, 3, data.Sales.Open)
		assert.Equal(t, "3378", data.Sales.Value.String())

		assert.Equal(t, 3, data.Purchases.Total)
		assert.Equal(t, "11617", data.Purchases.Value.String())
		require.Len(t, data.TopSuppliers, 2)
		assert.Equal(t, "Northwind Components", data.TopSuppliers[0].Name)
		assert.Equal(t, 2, data.TopSuppliers[0].POCount)

		assert.Equal(t, 5, data.TotalItems)
		assert.True(t, data.StockKnown)
		assert.Equal(t, 1, data.LowStockItems)
		assert.Equal(t, 2, data.ZeroStockItems)
		assert.Equal(t, "13216", data.TotalStockValue.String())
		assert.Equal(t, 3, data.TotalSuppliers)
	})

	t.Run("Should count only the customer's own orders", func(t *testing.T) {
		ws := demoWorkspace(t, RoleCustomer, nil)
		data := ws.Report(context.Background())
		assert.Equal(t, 2, data.Sales.Total)
		assert.Equal(t, "1850", data.Sales.Value.String())
		assert.Equal(t, 1, data.Shipments.Total)
		assert.Zero(t, data.Purchases.Total)
	})

	t.Run("Should list views that failed", func(t *testing.T) {
		s := Session{User: DemoUsers[RoleAdmin], Role: RoleAdmin}
		svc := DemoServices(s)
		svc.Purchases = brokenStore[PurchaseOrder]{MemStore: NewMemStore[PurchaseOrder]("PO"), err: errors.New("down")}
		ws := NewWorkspace(svc, WorkspaceOptions{Session: s})
		defer ws.Close()
		data := ws.Report(context.Background())
		require.Len(t, data.Errors, 1)
		assert.Contains(t, data.Errors[0], "purchases")
		assert.Equal(t, 5, data.Sales.Total)
	})
}
