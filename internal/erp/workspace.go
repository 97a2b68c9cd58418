package erp

import (
	"context"
	"time"

	"github.com/mikelcalvo/wms/internal/listcore"
	"github.com/mikelcalvo/wms/internal/logger"
	"github.com/mikelcalvo/wms/internal/prefs"
)

// Services are the backends of a workspace, remote or in memory.
type Services struct {
	Sales     listcore.Service[SalesOrder]
	Inventory listcore.Service[InventoryItem]
	Purchases listcore.Service[PurchaseOrder]
	Shipments listcore.Service[Shipment]
	Suppliers listcore.Service[Supplier]
	Customers listcore.Service[Customer]
	Bins      listcore.Service[Bin]
	Sender    Sender
}

func remote[T stampable[T]](c *Client, e Entity[T], opts ...ResourceOption[T]) *Resource[T] {
	r := NewResource(c, e.Doctype, e.Fields, opts...)
	if e.LineDoctype != "" {
		r.withLines(e.LineDoctype, e.AttachLines)
	}
	return r
}

// RemoteServices talks to the server behind c. Customer sessions only list
// their own sales orders and shipments.
func RemoteServices(c *Client, s Session) Services {
	owner := s.OwnerScope()
	return Services{
		Sales:     remote(c, salesOrderEntity(), WithOwnerFilter[SalesOrder](owner)),
		Inventory: remote(c, inventoryEntity(&stockIndex{})),
		Purchases: remote(c, purchaseOrderEntity()),
		Shipments: remote(c, shipmentEntity(), WithOwnerFilter[Shipment](owner)),
		Suppliers: remote(c, supplierEntity()),
		Customers: NewResource[Customer](c, "Customer", customerFields),
		Bins:      NewResource[Bin](c, "Bin", binFields),
		Sender:    NewRemoteSender(c),
	}
}

// View is one entity list with its descriptor.
type View[T stampable[T]] struct {
	Entity Entity[T]
	List   *listcore.List[T]
}

// Prefs returns the view state worth persisting.
func (v *View[T]) Prefs() prefs.View {
	p := v.List.View()
	pv := prefs.View{ShowArchived: p.Filter.ShowArchived, PageSize: p.PageSize}
	if p.Sort.Active() {
		pv.SortColumn = p.Sort.Column
		pv.SortDirection = p.Sort.Direction.String()
	}
	return pv
}

// WorkspaceOptions configures NewWorkspace.
type WorkspaceOptions struct {
	Session        Session
	Notifier       listcore.Notifier
	NotifyUsers    []string
	PageSize       int
	SearchDebounce time.Duration
	Prefs          prefs.Prefs
	Log            logger.Logger
	// OnChange is called when a debounced search lands.
	OnChange func()
}

// Workspace holds every list the session can use.
type Workspace struct {
	Session   Session
	Sales     *View[SalesOrder]
	Inventory *View[InventoryItem]
	Purchases *View[PurchaseOrder]
	Shipments *View[Shipment]
	Suppliers *View[Supplier]

	Customers     *nameIndex
	SupplierNames *nameIndex
	OrderNames    *nameIndex
	Stock         *stockIndex

	Notifications *Notifications
	log           logger.Logger
}

// NewWorkspace wires one list per entity over svc.
func NewWorkspace(svc Services, opts WorkspaceOptions) *Workspace {
	if opts.Log == nil {
		opts.Log = logger.Discard()
	}
	if svc.Sender == nil {
		svc.Sender = NewLogSender(opts.Log)
	}
	w := &Workspace{
		Session:       opts.Session,
		Customers:     &nameIndex{},
		SupplierNames: &nameIndex{},
		OrderNames:    &nameIndex{},
		Stock:         &stockIndex{},
		Notifications: NewNotifications(svc.Sender, opts.NotifyUsers, opts.Log),
		log:           opts.Log,
	}

	var salesHooks []listcore.DispatcherOption[SalesOrder]
	if opts.Session.Role == RoleCustomer {
		salesHooks = append(salesHooks, listcore.WithAfterCreate(func(_ context.Context, o SalesOrder) {
			w.Notifications.SalesOrderPlaced(o)
		}))
	}

	w.Sales = newView(svc.Sales, salesOrderEntity(), opts, w.log, []listcore.Source{
		secondary("customers", svc.Customers, w.log, func(cs []Customer) { w.Customers.set(customerNames(cs)) }, w.Customers.reset),
	}, salesHooks...)
	w.Inventory = newView(svc.Inventory, inventoryEntity(w.Stock), opts, w.log, []listcore.Source{
		secondary("bins", svc.Bins, w.log, w.Stock.set, w.Stock.reset),
	})
	w.Purchases = newView(svc.Purchases, purchaseOrderEntity(), opts, w.log, []listcore.Source{
		secondary("suppliers", svc.Suppliers, w.log, func(ss []Supplier) { w.SupplierNames.set(supplierNames(ss)) }, w.SupplierNames.reset),
	})
	w.Shipments = newView(svc.Shipments, shipmentEntity(), opts, w.log, []listcore.Source{
		secondary("sales orders", svc.Sales, w.log, func(orders []SalesOrder) { w.OrderNames.set(orderNames(orders)) }, w.OrderNames.reset),
	})
	w.Suppliers = newView(svc.Suppliers, supplierEntity(), opts, w.log, nil)
	return w
}

func newView[T stampable[T]](svc listcore.Service[T], e Entity[T], opts WorkspaceOptions, log logger.Logger,
	sources []listcore.Source, extra ...listcore.DispatcherOption[T]) *View[T] {
	dopts := append([]listcore.DispatcherOption[T]{
		listcore.WithNotifier[T](opts.Notifier),
		listcore.WithNoun[T](e.Singular, e.Plural),
	}, extra...)
	d := listcore.NewDispatcher(svc, opts.Session.Capabilities(e.Key), dopts...)

	saved := opts.Prefs.View(e.Key)
	pageSize := opts.PageSize
	if saved.PageSize > 0 {
		pageSize = saved.PageSize
	}
	l := listcore.NewList(listcore.Options[T]{
		Service:        svc,
		Dispatcher:     d,
		Matcher:        e.Matcher,
		Columns:        e.Columns,
		Secondary:      sources,
		Notifier:       opts.Notifier,
		PageSize:       pageSize,
		SearchDebounce: opts.SearchDebounce,
		Owner:          opts.Session.OwnerScope(),
		OnChange:       opts.OnChange,
	})
	if _, ok := e.Columns[saved.SortColumn]; ok {
		l.SetSort(listcore.SortState{Column: saved.SortColumn, Direction: listcore.ParseDirection(saved.SortDirection)})
	}
	if saved.ShowArchived {
		l.SetShowArchived(true)
	}
	log.Debug("view ready", "view", e.Key, "page_size", pageSize)
	return &View[T]{Entity: e, List: l}
}

// secondary loads a lookup source. On failure the lookup falls back to empty
// and the list still loads.
func secondary[T any](name string, svc listcore.Service[T], log logger.Logger, set func([]T), reset func()) listcore.Source {
	return listcore.Source{
		Name: name,
		Fetch: func(ctx context.Context) error {
			if svc == nil {
				reset()
				return nil
			}
			items, err := svc.List(ctx)
			if err != nil {
				reset()
				log.Warn("secondary source failed", "source", name, "err", err)
				return err
			}
			set(items)
			return nil
		},
	}
}

// LoadAll loads every view the session can see, concurrently. Each view
// settles on its own.
func (w *Workspace) LoadAll(ctx context.Context) listcore.LoadReport {
	var sources []listcore.Source
	add := func(key string, load func(context.Context) (listcore.LoadReport, error)) {
		if !w.Session.CanView(key) {
			return
		}
		sources = append(sources, listcore.Source{Name: key, Primary: true, Fetch: func(ctx context.Context) error {
			_, err := load(ctx)
			return err
		}})
	}
	add(w.Sales.Entity.Key, w.Sales.List.Load)
	add(w.Inventory.Entity.Key, w.Inventory.List.Load)
	add(w.Purchases.Entity.Key, w.Purchases.List.Load)
	add(w.Shipments.Entity.Key, w.Shipments.List.Load)
	add(w.Suppliers.Entity.Key, w.Suppliers.List.Load)
	return listcore.Load(ctx, sources...)
}

// SavePrefs stores the state of every view into p.
func (w *Workspace) SavePrefs(p *prefs.Prefs) {
	p.SetView(w.Sales.Entity.Key, w.Sales.Prefs())
	p.SetView(w.Inventory.Entity.Key, w.Inventory.Prefs())
	p.SetView(w.Purchases.Entity.Key, w.Purchases.Prefs())
	p.SetView(w.Shipments.Entity.Key, w.Shipments.Prefs())
	p.SetView(w.Suppliers.Entity.Key, w.Suppliers.Prefs())
}

// Close stops pending debounced searches.
func (w *Workspace) Close() {
	w.Sales.List.Close()
	w.Inventory.List.Close()
	w.Purchases.List.Close()
	w.Shipments.List.Close()
	w.Suppliers.List.Close()
}

func supplierNames(ss []Supplier) []string {
	names := make([]string, 0, len(ss))
	for _, s := range ss {
		if !s.Disabled && !s.Archived {
			names = append(names, s.Name)
		}
	}
	return names
}

func orderNames(orders []SalesOrder) []string {
	names := make([]string, 0, len(orders))
	for _, o := range orders {
		if !o.Archived && o.Status != "Cancelled" {
			names = append(names, o.Name)
		}
	}
	return names
}
