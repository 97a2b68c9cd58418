package listcore

import "slices"

// EventKind tags a cache transition.
type EventKind int

const (
	Created EventKind = iota
	Updated
	Archived
	Restored
	Deleted
)

func (k EventKind) String() string {
	switch k {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Archived:
		return "archived"
	case Restored:
		return "restored"
	case Deleted:
		return "deleted"
	}
	return "unknown"
}

// Event is a confirmed remote mutation. Created and Updated carry Record;
// the other kinds carry IDs.
type Event[T any] struct {
	Kind   EventKind
	Record T
	IDs    []string
}

// Apply returns the cache after ev. The input slice is never modified.
func Apply[T Record[T]](records []T, ev Event[T]) []T {
	switch ev.Kind {
	case Created:
		out := slices.Clone(records)
		if i := indexOf(out, ev.Record.RecordID()); i >= 0 {
			out[i] = ev.Record
			return out
		}
		return append(out, ev.Record)
	case Updated:
		out := slices.Clone(records)
		if i := indexOf(out, ev.Record.RecordID()); i >= 0 {
			out[i] = ev.Record
		}
		return out
	case Archived, Restored:
		archived := ev.Kind == Archived
		set := toSet(ev.IDs)
		out := slices.Clone(records)
		for i, r := range out {
			if _, ok := set[r.RecordID()]; ok {
				out[i] = r.WithArchived(archived)
			}
		}
		return out
	case Deleted:
		set := toSet(ev.IDs)
		out := make([]T, 0, len(records))
		for _, r := range records {
			if _, ok := set[r.RecordID()]; !ok {
				out = append(out, r)
			}
		}
		return out
	}
	return slices.Clone(records)
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
