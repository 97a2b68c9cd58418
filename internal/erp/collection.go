package erp

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mikelcalvo/wms/internal/listcore"
)

// Query is a one-shot list request from the command line.
type Query struct {
	Search   string
	Status   string
	Archived bool
	Sort     string
	Desc     bool
	Page     int // 1 based; 0 means the first page
	PageSize int
}

// Collection is the entity-agnostic face of a View, used by the CLI.
type Collection interface {
	Key() string
	Plural() string
	Load(ctx context.Context) error
	Apply(q Query) error
	PrintPage(w io.Writer)
	PrintRecord(w io.Writer, id string) error
	CreateFrom(ctx context.Context, values map[string]string) (string, error)
	Mutate(ctx context.Context, op listcore.BulkOp, ids []string) (listcore.BulkResult, error)
	Export(w io.Writer) (int, error)
	Import(ctx context.Context, r io.Reader) (ImportReport, error)
	FormFields() []FormField
	SortKeys() []string
}

// Collection returns the view registered under key.
func (w *Workspace) Collection(key string) (Collection, bool) {
	if !w.Session.CanView(key) {
		return nil, false
	}
	switch key {
	case w.Sales.Entity.Key:
		return w.Sales, true
	case w.Inventory.Entity.Key:
		return w.Inventory, true
	case w.Purchases.Entity.Key:
		return w.Purchases, true
	case w.Shipments.Entity.Key:
		return w.Shipments, true
	case w.Suppliers.Entity.Key:
		return w.Suppliers, true
	}
	return nil, false
}

// CollectionKeys lists every view key the session can use.
func (w *Workspace) CollectionKeys() []string {
	var keys []string
	for _, k := range []string{w.Sales.Entity.Key, w.Inventory.Entity.Key, w.Purchases.Entity.Key,
		w.Shipments.Entity.Key, w.Suppliers.Entity.Key} {
		if w.Session.CanView(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

func (v *View[T]) Key() string    { return v.Entity.Key }
func (v *View[T]) Plural() string { return v.Entity.Plural }

func (v *View[T]) FormFields() []FormField { return v.Entity.Form }

func (v *View[T]) SortKeys() []string {
	keys := make([]string, 0, len(v.Entity.Columns))
	for k := range v.Entity.Columns {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (v *View[T]) Load(ctx context.Context) error {
	_, err := v.List.Load(ctx)
	return err
}

// Apply sets filters, sort and page in one go. The search term is applied
// immediately.
func (v *View[T]) Apply(q Query) error {
	l := v.List
	l.SetSearch(q.Search)
	if q.Status != "" {
		l.SetStatus(q.Status)
	}
	l.SetShowArchived(q.Archived)
	if q.Sort != "" {
		if _, ok := v.Entity.Columns[q.Sort]; !ok {
			return fmt.Errorf("cannot sort %s by %q (use one of %s)", v.Entity.Plural, q.Sort, strings.Join(v.SortKeys(), ", "))
		}
		dir := listcore.Asc
		if q.Desc {
			dir = listcore.Desc
		}
		l.SetSort(listcore.SortState{Column: q.Sort, Direction: dir})
	}
	if q.PageSize > 0 {
		l.SetPageSize(q.PageSize)
	}
	if q.Page > 0 {
		l.GoToPage(q.Page - 1)
	}
	return nil
}

// PrintPage writes the current page as an aligned table.
func (v *View[T]) PrintPage(w io.Writer) {
	page := v.List.View()
	if page.Total == 0 {
		fmt.Fprintf(w, "%sNo %s found%s\n", Yellow, v.Entity.Plural, Reset)
		return
	}

	var header strings.Builder
	for _, c := range v.Entity.Table {
		header.WriteString(fmt.Sprintf("%-*s ", c.Width, c.Title))
	}
	fmt.Fprintf(w, "%s%s%s\n", Cyan, strings.TrimRight(header.String(), " "), Reset)
	for _, r := range page.Rows {
		var line strings.Builder
		for _, c := range v.Entity.Table {
			line.WriteString(fmt.Sprintf("%-*s ", c.Width, truncate(c.Value(r), c.Width)))
		}
		out := strings.TrimRight(line.String(), " ")
		if r.IsArchived() {
			out += " (archived)"
		}
		fmt.Fprintln(w, out)
	}
	fmt.Fprintf(w, "\n%sPage %d/%d • %d %s%s\n", Blue, page.Page+1, max(page.TotalPages, 1), page.Total, v.Entity.Plural, Reset)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 3 || len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

// PrintRecord writes every column of one cached record.
func (v *View[T]) PrintRecord(w io.Writer, id string) error {
	r, ok := v.List.Find(id)
	if !ok {
		return fmt.Errorf("%s %q: %w", v.Entity.Singular, id, listcore.ErrNotFound)
	}
	fmt.Fprintf(w, "%s%s %s%s\n", Cyan, v.Entity.Title, id, Reset)
	for _, c := range v.Entity.Table {
		fmt.Fprintf(w, "  %-12s %s\n", c.Title+":", c.Value(r))
	}
	if items := v.Entity.ToForm(r)["items"]; items != "" {
		fmt.Fprintln(w, "  Items:")
		for _, part := range strings.Split(items, ", ") {
			fmt.Fprintf(w, "    • %s\n", part)
		}
	}
	if r.IsArchived() {
		fmt.Fprintf(w, "  %sArchived%s\n", Yellow, Reset)
	}
	return nil
}

// CreateFrom builds a record from form values and creates it.
func (v *View[T]) CreateFrom(ctx context.Context, values map[string]string) (string, error) {
	var zero T
	rec, err := v.Entity.FromForm(zero, values)
	if err != nil {
		return "", err
	}
	created, err := v.List.Create(ctx, rec)
	if err != nil {
		return "", err
	}
	return created.RecordID(), nil
}

// Mutate archives, restores or deletes ids. A single id goes through the
// per-record path so two-tier rules are checked against the cached record.
func (v *View[T]) Mutate(ctx context.Context, op listcore.BulkOp, ids []string) (listcore.BulkResult, error) {
	l := v.List
	if len(ids) == 1 {
		var err error
		switch op {
		case listcore.BulkArchive:
			err = l.Archive(ctx, ids[0])
		case listcore.BulkRestore:
			err = l.Restore(ctx, ids[0])
		default:
			err = l.Delete(ctx, ids[0])
		}
		if err != nil {
			return listcore.BulkResult{FailedCount: 1, Failed: map[string]error{ids[0]: err}}, err
		}
		return listcore.BulkResult{Success: true, SuccessCount: 1, Succeeded: ids}, nil
	}
	missing := make(map[string]error)
	for _, id := range ids {
		if _, ok := l.Find(id); !ok {
			missing[id] = listcore.ErrNotFound
		}
	}
	if len(missing) > 0 {
		return listcore.BulkResult{FailedCount: len(missing), Failed: missing},
			fmt.Errorf("%d unknown %s", len(missing), v.Entity.Plural)
	}
	l.ClearSelection()
	for _, id := range ids {
		if !l.IsSelected(id) {
			l.ToggleRow(id)
		}
	}
	return l.Bulk(ctx, op)
}

// Export writes the filtered and sorted rows, ignoring pagination.
func (v *View[T]) Export(w io.Writer) (int, error) {
	return ExportCSV(w, v.Entity, v.List.Filtered())
}

func (v *View[T]) Import(ctx context.Context, r io.Reader) (ImportReport, error) {
	return ImportCSV(ctx, r, v)
}
