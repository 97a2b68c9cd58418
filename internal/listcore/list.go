package listcore

import (
	"context"
	"sync"
	"time"

	"github.com/romdo/go-debounce"
)

// DefaultSearchDebounce is how long typing must pause before the search term
// is applied.
const DefaultSearchDebounce = 300 * time.Millisecond

// Options configures a List.
type Options[T Record[T]] struct {
	Service    Service[T]
	Dispatcher *Dispatcher[T]
	Matcher    Matcher[T]
	Columns    Columns[T]
	// Secondary sources load alongside the primary collection. Their
	// failures are reported but never block the list.
	Secondary []Source
	Notifier  Notifier
	PageSize  int
	// SearchDebounce <= 0 uses DefaultSearchDebounce.
	SearchDebounce time.Duration
	// Owner, when set, hides records whose Matcher.Owner differs.
	Owner string
	// OnChange is called after state changes that happen off the caller's
	// goroutine, such as a debounced search being applied.
	OnChange func()
}

// Page is everything a screen needs to render one list.
type Page[T any] struct {
	Rows          []T
	Page          int // zero based
	TotalPages    int
	Total         int // filtered, before pagination
	PageSize      int
	Selected      int
	PageSelection SelectState
	AllPages      bool
	Banner        bool
	Loading       bool
	Filter        FilterState
	PendingSearch string
	Sort          SortState
}

// List is the list-management core for one collection. It is safe for
// concurrent use.
type List[T Record[T]] struct {
	mu        sync.Mutex
	opts      Options[T]
	items     []T
	filter    FilterState
	pending   string
	sort      SortState
	pager     Paginator
	selection Selection
	loading   bool
	loaded    bool

	debounced    func()
	cancelSearch func()
}

// NewList builds a list. Options.Dispatcher defaults to one with no
// capabilities.
func NewList[T Record[T]](opts Options[T]) *List[T] {
	if opts.Notifier == nil {
		opts.Notifier = discardNotifier{}
	}
	if opts.Dispatcher == nil {
		opts.Dispatcher = NewDispatcher(opts.Service, Capabilities{}, WithNotifier[T](opts.Notifier))
	}
	wait := opts.SearchDebounce
	if wait <= 0 {
		wait = DefaultSearchDebounce
	}
	l := &List[T]{
		opts:  opts,
		pager: NewPaginator(opts.PageSize),
	}
	l.debounced, l.cancelSearch = debounce.New(wait, l.applyPendingSearch)
	return l
}

// Close stops any pending debounced search.
func (l *List[T]) Close() {
	l.cancelSearch()
}

// Dispatcher exposes the list's dispatcher.
func (l *List[T]) Dispatcher() *Dispatcher[T] {
	return l.opts.Dispatcher
}

// Load fetches the primary collection and every secondary source
// concurrently. A primary failure leaves the cache as it was and is returned;
// secondary failures only show up in the report.
func (l *List[T]) Load(ctx context.Context) (LoadReport, error) {
	l.mu.Lock()
	l.loading = true
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		l.loading = false
		l.mu.Unlock()
	}()

	var fetched []T
	sources := append([]Source{{
		Name:    "primary",
		Primary: true,
		Fetch: func(ctx context.Context) error {
			items, err := l.opts.Service.List(ctx)
			if err != nil {
				return err
			}
			fetched = items
			return nil
		},
	}}, l.opts.Secondary...)

	report := Load(ctx, sources...)
	if err := report.PrimaryErr(); err != nil {
		l.opts.Notifier.Notify(Toast{Level: ToastError, Message: "Failed to load: " + err.Error()})
		return report, err
	}

	l.mu.Lock()
	l.items = fetched
	l.loaded = true
	l.selection.Clear()
	l.recomputeLocked()
	l.mu.Unlock()
	return report, nil
}

// Loading reports whether a load pass is in flight.
func (l *List[T]) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

// Loaded reports whether at least one load pass succeeded.
func (l *List[T]) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}

// Items returns a copy of the cache.
func (l *List[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// Scoped returns the cache narrowed to the owner scope, ignoring filters.
func (l *List[T]) Scoped() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.opts.Owner == "" {
		return append([]T(nil), l.items...)
	}
	return ScopeToOwner(l.items, l.opts.Owner, l.opts.Matcher.Owner)
}

// Replace swaps the cache, as after an external refetch.
func (l *List[T]) Replace(items []T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = items
	l.loaded = true
	l.selection.Retain(ids(items))
	l.recomputeLocked()
}

// Find returns the cached record with id.
func (l *List[T]) Find(id string) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := indexOf(l.items, id); i >= 0 {
		return l.items[i], true
	}
	var zero T
	return zero, false
}

// visibleLocked runs owner scope, filter and sort.
func (l *List[T]) visibleLocked() []T {
	items := l.items
	if l.opts.Owner != "" {
		items = ScopeToOwner(items, l.opts.Owner, l.opts.Matcher.Owner)
	}
	return Sort(Filter(items, l.filter, l.opts.Matcher), l.sort, l.opts.Columns)
}

func (l *List[T]) recomputeLocked() []T {
	visible := l.visibleLocked()
	l.pager.Clamp(len(visible))
	return visible
}

// Filtered returns every filtered and sorted row, ignoring pagination.
func (l *List[T]) Filtered() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.recomputeLocked()
}

// Statuses lists the statuses present in the cache.
func (l *List[T]) Statuses() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Statuses(l.items, l.opts.Matcher.Status)
}

// View derives the current page.
func (l *List[T]) View() Page[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	visible := l.recomputeLocked()
	rows := Slice(visible, l.pager)
	pageIDs := ids(rows)
	return Page[T]{
		Rows:          rows,
		Page:          l.pager.Page,
		TotalPages:    l.pager.TotalPages(len(visible)),
		Total:         len(visible),
		PageSize:      l.pager.size(),
		Selected:      l.selection.Count(),
		PageSelection: l.selection.State(pageIDs),
		AllPages:      l.selection.Scope() == ScopeAllPages && l.selection.State(ids(visible)) == SelectAll,
		Banner:        l.selection.ShowSelectAllBanner(pageIDs, len(visible)),
		Loading:       l.loading,
		Filter:        l.filter,
		PendingSearch: l.pending,
		Sort:          l.sort,
	}
}

// SetSearchInput records a keystroke; the term is applied once typing pauses.
func (l *List[T]) SetSearchInput(term string) {
	l.mu.Lock()
	l.pending = term
	l.mu.Unlock()
	l.debounced()
}

// FlushSearch applies the pending search term immediately.
func (l *List[T]) FlushSearch() {
	l.cancelSearch()
	l.mu.Lock()
	l.applySearchLocked()
	l.mu.Unlock()
}

// SetSearch sets the search term without debouncing.
func (l *List[T]) SetSearch(term string) {
	l.cancelSearch()
	l.mu.Lock()
	l.pending = term
	l.applySearchLocked()
	l.mu.Unlock()
}

func (l *List[T]) applyPendingSearch() {
	l.mu.Lock()
	changed := l.filter.SearchTerm != l.pending
	l.applySearchLocked()
	l.mu.Unlock()
	if changed && l.opts.OnChange != nil {
		l.opts.OnChange()
	}
}

func (l *List[T]) applySearchLocked() {
	if l.filter.SearchTerm == l.pending {
		return
	}
	l.filter.SearchTerm = l.pending
	l.pager.Page = 0
	l.recomputeLocked()
}

// SetStatus filters on an exact status, or StatusAll.
func (l *List[T]) SetStatus(status string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.filter.Status = status
	l.pager.Page = 0
	l.recomputeLocked()
}

// SetShowArchived switches between the active and archived partitions. The
// selection is cleared because its ids belong to the other partition.
func (l *List[T]) SetShowArchived(show bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.filter.ShowArchived == show {
		return
	}
	l.filter.ShowArchived = show
	l.selection.Clear()
	l.pager.Page = 0
	l.recomputeLocked()
}

// ClearFilters resets search and status. The archived partition is kept.
func (l *List[T]) ClearFilters() {
	l.cancelSearch()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.filter = FilterState{ShowArchived: l.filter.ShowArchived}
	l.pending = ""
	l.pager.Page = 0
	l.recomputeLocked()
}

// Filter returns the applied filter state.
func (l *List[T]) Filter() FilterState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filter
}

// ToggleSort cycles the sort on column.
func (l *List[T]) ToggleSort(column string) SortState {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sort = l.sort.Toggle(column)
	l.recomputeLocked()
	return l.sort
}

// SetSort replaces the sort state.
func (l *List[T]) SetSort(s SortState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sort = s
	l.recomputeLocked()
}

// NextPage advances one page.
func (l *List[T]) NextPage() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pager.Next(len(l.visibleLocked()))
}

// PrevPage goes back one page.
func (l *List[T]) PrevPage() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pager.Prev(len(l.visibleLocked()))
}

// GoToPage jumps to a zero-based page, clamped.
func (l *List[T]) GoToPage(page int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pager.GoTo(page, len(l.visibleLocked()))
}

// SetPageSize changes the page size and returns to the first page.
func (l *List[T]) SetPageSize(size int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pager = NewPaginator(size)
}

// ToggleRow flips selection of id.
func (l *List[T]) ToggleRow(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.selection.Toggle(id)
}

// TogglePageSelection selects or deselects every row on the current page.
func (l *List[T]) TogglePageSelection() {
	l.mu.Lock()
	defer l.mu.Unlock()
	visible := l.recomputeLocked()
	l.selection.TogglePage(ids(Slice(visible, l.pager)))
}

// SelectAllPages selects every filtered row.
func (l *List[T]) SelectAllPages() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.selection.SelectAll(ids(l.recomputeLocked()))
}

// ClearSelection empties the selection.
func (l *List[T]) ClearSelection() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.selection.Clear()
}

// IsSelected reports whether id is selected.
func (l *List[T]) IsSelected(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.selection.Has(id)
}

// SelectedIDs returns the selection in order.
func (l *List[T]) SelectedIDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.selection.IDs()
}

func (l *List[T]) apply(ev Event[T]) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = Apply(l.items, ev)
	if ev.Kind == Deleted {
		l.selection.Retain(ids(l.items))
	}
	l.recomputeLocked()
}

func (l *List[T]) lookup(id string) (T, error) {
	r, ok := l.Find(id)
	if !ok {
		var zero T
		err := ErrNotFound
		l.opts.Notifier.Notify(Toast{Level: ToastError, Message: id + ": " + err.Error()})
		return zero, err
	}
	return r, nil
}

// Create creates record remotely and appends it to the cache.
func (l *List[T]) Create(ctx context.Context, record T) (T, error) {
	ev, err := l.opts.Dispatcher.Create(ctx, record)
	if err != nil {
		var zero T
		return zero, err
	}
	l.apply(ev)
	return ev.Record, nil
}

// Update replaces record remotely and in the cache.
func (l *List[T]) Update(ctx context.Context, record T) (T, error) {
	ev, err := l.opts.Dispatcher.Update(ctx, record)
	if err != nil {
		var zero T
		return zero, err
	}
	l.apply(ev)
	return ev.Record, nil
}

// Archive soft-deletes the record with id.
func (l *List[T]) Archive(ctx context.Context, id string) error {
	return l.single(ctx, id, l.opts.Dispatcher.Archive)
}

// Restore un-archives the record with id.
func (l *List[T]) Restore(ctx context.Context, id string) error {
	return l.single(ctx, id, l.opts.Dispatcher.Restore)
}

// Delete permanently removes the record with id.
func (l *List[T]) Delete(ctx context.Context, id string) error {
	return l.single(ctx, id, l.opts.Dispatcher.Delete)
}

func (l *List[T]) single(ctx context.Context, id string, op func(context.Context, T) (Event[T], error)) error {
	r, err := l.lookup(id)
	if err != nil {
		return err
	}
	ev, err := op(ctx, r)
	if err != nil {
		return err
	}
	l.apply(ev)
	return nil
}

// Bulk applies op to the current selection and reduces the succeeded ids
// into the cache. The selection is cleared once anything succeeded.
func (l *List[T]) Bulk(ctx context.Context, op BulkOp) (BulkResult, error) {
	ev, res, err := l.opts.Dispatcher.BulkRecords(ctx, op, l.selectedRecords())
	if err != nil {
		return res, err
	}
	l.apply(ev)
	if res.SuccessCount > 0 {
		l.ClearSelection()
	}
	return res, nil
}

func (l *List[T]) selectedRecords() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []T
	for _, r := range l.items {
		if l.selection.Has(r.RecordID()) {
			out = append(out, r)
		}
	}
	return out
}

// BulkCreate creates every record and appends the successes.
func (l *List[T]) BulkCreate(ctx context.Context, records []T) (BulkResult, error) {
	events, res, err := l.opts.Dispatcher.BulkCreate(ctx, records)
	if err != nil {
		return res, err
	}
	for _, ev := range events {
		l.apply(ev)
	}
	return res, nil
}
