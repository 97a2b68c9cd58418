package listcore

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Direction of a sort.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// ParseDirection accepts "asc" or "desc"; anything else is Asc.
func ParseDirection(s string) Direction {
	if s == "desc" {
		return Desc
	}
	return Asc
}

// SortState is the active sort column. An empty Column means unsorted.
type SortState struct {
	Column    string
	Direction Direction
}

// Active reports whether a column is selected.
func (s SortState) Active() bool {
	return s.Column != ""
}

// Toggle cycles the state as a column header click would:
// asc -> desc -> none on the same column, and asc on any other column.
func (s SortState) Toggle(column string) SortState {
	if s.Column != column {
		return SortState{Column: column, Direction: Asc}
	}
	if s.Direction == Asc {
		return SortState{Column: column, Direction: Desc}
	}
	return SortState{}
}

// Columns maps a column key to the value a record sorts by. Returning nil
// marks a missing value, which always sorts last.
type Columns[T any] map[string]func(T) any

// Sort returns a stably sorted copy of records. When state is inactive or the
// column is unknown the copy keeps input order.
func Sort[T any](records []T, state SortState, columns Columns[T]) []T {
	out := slices.Clone(records)
	if !state.Active() {
		return out
	}
	valueOf, ok := columns[state.Column]
	if !ok {
		return out
	}

	coll := newCollator()
	slices.SortStableFunc(out, func(a, b T) int {
		va, vb := valueOf(a), valueOf(b)
		aNil, bNil := isNil(va), isNil(vb)
		switch {
		case aNil && bNil:
			return 0
		case aNil:
			return 1
		case bNil:
			return -1
		}
		c := compareValues(coll, va, vb)
		if state.Direction == Desc {
			return -c
		}
		return c
	})
	return out
}

// newCollator returns a root-locale collator that ignores case. Collators
// keep scratch buffers, so each Sort call gets its own.
func newCollator() *collate.Collator {
	return collate.New(language.Und, collate.IgnoreCase)
}

func isNil(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case *string:
		return x == nil
	case *float64:
		return x == nil
	case *time.Time:
		return x == nil
	}
	return false
}

func compareValues(coll *collate.Collator, a, b any) int {
	if fa, ok := asNumber(a); ok {
		if fb, ok := asNumber(b); ok {
			return fa.Cmp(fb)
		}
	}
	if ta, ok := asTime(a); ok {
		if tb, ok := asTime(b); ok {
			return ta.Compare(tb)
		}
	}
	return coll.CompareString(asString(a), asString(b))
}

func asNumber(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int64:
		return decimal.NewFromInt(x), true
	case int32:
		return decimal.NewFromInt32(x), true
	case float64:
		return decimal.NewFromFloat(x), true
	case float32:
		return decimal.NewFromFloat32(x), true
	case *float64:
		return decimal.NewFromFloat(*x), true
	case decimal.Decimal:
		return x, true
	}
	return decimal.Decimal{}, false
}

func asTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case *time.Time:
		return *x, true
	}
	return time.Time{}, false
}

func asString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case *string:
		return *x
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}
