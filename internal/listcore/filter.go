package listcore

import "strings"

// StatusAll disables the status predicate.
const StatusAll = "all"

// FilterState is what the user has typed and toggled above a list.
type FilterState struct {
	SearchTerm   string
	Status       string // StatusAll or "" means any status
	ShowArchived bool
}

// IsZero reports whether no predicate besides the archived partition is active.
func (f FilterState) IsZero() bool {
	return strings.TrimSpace(f.SearchTerm) == "" && f.statusAll()
}

func (f FilterState) statusAll() bool {
	return f.Status == "" || f.Status == StatusAll
}

// Matcher extracts the per-entity fields the filter looks at.
type Matcher[T any] struct {
	// Search returns extra searchable strings (names, nested item names).
	// The record id is always searched.
	Search func(T) []string
	// Status returns the value compared against FilterState.Status.
	Status func(T) string
	// Owner returns who created the record. Only used when an owner scope is set.
	Owner func(T) string
}

// Filter keeps records that satisfy every active predicate. Input order is
// preserved.
func Filter[T Record[T]](records []T, state FilterState, m Matcher[T]) []T {
	term := strings.ToLower(strings.TrimSpace(state.SearchTerm))
	out := make([]T, 0, len(records))
	for _, r := range records {
		if r.IsArchived() != state.ShowArchived {
			continue
		}
		if term != "" && !matchesSearch(r, term, m) {
			continue
		}
		if !state.statusAll() {
			if m.Status == nil || m.Status(r) != state.Status {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

func matchesSearch[T Record[T]](r T, term string, m Matcher[T]) bool {
	if strings.Contains(strings.ToLower(r.RecordID()), term) {
		return true
	}
	if m.Search == nil {
		return false
	}
	for _, field := range m.Search(r) {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// ScopeToOwner narrows records to those created by owner. An empty owner
// yields nothing. Comparison is exact.
func ScopeToOwner[T any](records []T, owner string, ownerOf func(T) string) []T {
	out := make([]T, 0, len(records))
	if owner == "" || ownerOf == nil {
		return out
	}
	for _, r := range records {
		if ownerOf(r) == owner {
			out = append(out, r)
		}
	}
	return out
}

// Statuses returns the distinct statuses present in records, in first-seen
// order. Used to cycle the status filter.
func Statuses[T any](records []T, statusOf func(T) string) []string {
	if statusOf == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, r := range records {
		s := statusOf(r)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
