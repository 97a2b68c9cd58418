package listcore

import "slices"

// SelectScope tells whether the selection was built from the current page or
// from every filtered page.
type SelectScope int

const (
	ScopePage SelectScope = iota
	ScopeAllPages
)

// SelectState is what the header checkbox shows for a scope.
type SelectState int

const (
	SelectNone SelectState = iota
	SelectSome             // indeterminate
	SelectAll
)

func (s SelectState) String() string {
	switch s {
	case SelectSome:
		return "some"
	case SelectAll:
		return "all"
	}
	return "none"
}

// Selection is a set of record ids. The zero value is empty and ready to use.
type Selection struct {
	ids   map[string]struct{}
	order []string
	scope SelectScope
}

func (s *Selection) add(id string) {
	if s.ids == nil {
		s.ids = make(map[string]struct{})
	}
	if _, ok := s.ids[id]; ok {
		return
	}
	s.ids[id] = struct{}{}
	s.order = append(s.order, id)
}

func (s *Selection) remove(id string) {
	if _, ok := s.ids[id]; !ok {
		return
	}
	delete(s.ids, id)
	if i := slices.Index(s.order, id); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
}

// Has reports membership.
func (s *Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Count is the number of selected ids.
func (s *Selection) Count() int {
	return len(s.ids)
}

// IDs returns selected ids in selection order.
func (s *Selection) IDs() []string {
	return slices.Clone(s.order)
}

// Scope returns the active scope.
func (s *Selection) Scope() SelectScope {
	return s.scope
}

// Toggle flips membership of id. Any manual change drops back to page scope.
func (s *Selection) Toggle(id string) {
	if s.Has(id) {
		s.remove(id)
	} else {
		s.add(id)
	}
	s.scope = ScopePage
}

// SelectPage adds exactly the given page ids.
func (s *Selection) SelectPage(pageIDs []string) {
	for _, id := range pageIDs {
		s.add(id)
	}
	s.scope = ScopePage
}

// DeselectPage removes the given page ids.
func (s *Selection) DeselectPage(pageIDs []string) {
	for _, id := range pageIDs {
		s.remove(id)
	}
	s.scope = ScopePage
}

// TogglePage selects the page unless it is already fully selected, in which
// case it deselects it.
func (s *Selection) TogglePage(pageIDs []string) {
	if s.State(pageIDs) == SelectAll {
		s.DeselectPage(pageIDs)
		return
	}
	s.SelectPage(pageIDs)
}

// SelectAll adds every id of the full filtered set and switches to all-pages
// scope.
func (s *Selection) SelectAll(allIDs []string) {
	for _, id := range allIDs {
		s.add(id)
	}
	s.scope = ScopeAllPages
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.ids = nil
	s.order = nil
	s.scope = ScopePage
}

// Retain drops ids that are not in valid.
func (s *Selection) Retain(valid []string) {
	keep := make(map[string]struct{}, len(valid))
	for _, id := range valid {
		keep[id] = struct{}{}
	}
	for _, id := range s.IDs() {
		if _, ok := keep[id]; !ok {
			s.remove(id)
		}
	}
}

// CountIn returns how many of scopeIDs are selected.
func (s *Selection) CountIn(scopeIDs []string) int {
	n := 0
	for _, id := range scopeIDs {
		if s.Has(id) {
			n++
		}
	}
	return n
}

// State classifies the selection against scopeIDs. An empty scope is always
// SelectNone.
func (s *Selection) State(scopeIDs []string) SelectState {
	n := s.CountIn(scopeIDs)
	switch {
	case n == 0:
		return SelectNone
	case n == len(scopeIDs):
		return SelectAll
	default:
		return SelectSome
	}
}

// ShowSelectAllBanner reports whether to offer "select all N across all
// pages": the whole page is selected, the scope is still the page, and there
// are more filtered rows than the page holds.
func (s *Selection) ShowSelectAllBanner(pageIDs []string, total int) bool {
	return s.scope == ScopePage &&
		len(pageIDs) > 0 &&
		total > len(pageIDs) &&
		s.State(pageIDs) == SelectAll
}
