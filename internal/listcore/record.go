package listcore

import "errors"

// Record is any remote entity the core can manage. T is the concrete record
// type so WithArchived can return a patched copy without reflection.
type Record[T any] interface {
	RecordID() string
	IsArchived() bool
	WithArchived(archived bool) T
}

// Sentinel errors returned by the core.
var (
	ErrForbidden         = errors.New("not permitted")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrNothingSelected   = errors.New("nothing selected")
)

// ids returns the identifiers of records, in order.
func ids[T Record[T]](records []T) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.RecordID()
	}
	return out
}

// indexOf returns the position of id in records or -1.
func indexOf[T Record[T]](records []T, id string) int {
	for i, r := range records {
		if r.RecordID() == id {
			return i
		}
	}
	return -1
}
