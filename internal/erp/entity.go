package erp

import (
	"sort"
	"sync"

	"github.com/mikelcalvo/wms/internal/listcore"
)

// TableColumn is one rendered column of a list screen.
type TableColumn[T any] struct {
	Title string
	Key   string // sort key in Entity.Columns; empty when not sortable
	Width int
	Value func(T) string
}

// FormField is one input of a create or edit form.
type FormField struct {
	Key         string
	Label       string
	Placeholder string
}

// Entity describes how one doctype is listed, searched, sorted, rendered,
// edited and exchanged as CSV.
type Entity[T stampable[T]] struct {
	Key      string // view and prefs key
	Title    string
	Doctype  string
	Singular string
	Plural   string
	Prefix   string // name prefix for locally created records

	Fields      []string
	LineDoctype string
	AttachLines func(T, []Line) T

	Matcher  listcore.Matcher[T]
	Columns  listcore.Columns[T]
	Table    []TableColumn[T]
	Statuses []string

	Form     []FormField
	ToForm   func(T) map[string]string
	FromForm func(base T, values map[string]string) (T, error)

	CSVHeader []string
	CSVRow    func(T) []string
}

// SortKey returns the sort key of the n-th (1-based) table column.
func (e Entity[T]) SortKey(n int) (string, bool) {
	if n < 1 || n > len(e.Table) || e.Table[n-1].Key == "" {
		return "", false
	}
	return e.Table[n-1].Key, true
}

// nameIndex holds names from a secondary source, e.g. customers for the
// sales order form.
type nameIndex struct {
	mu     sync.RWMutex
	names  []string
	loaded bool
}

func (n *nameIndex) set(names []string) {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	n.mu.Lock()
	defer n.mu.Unlock()
	n.names = sorted
	n.loaded = true
}

// reset falls back to the empty default after a failed load.
func (n *nameIndex) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.names = nil
	n.loaded = false
}

func (n *nameIndex) Names() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]string(nil), n.names...)
}

func (n *nameIndex) Has(name string) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	i := sort.SearchStrings(n.names, name)
	return i < len(n.names) && n.names[i] == name
}

func (n *nameIndex) Loaded() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.loaded
}
