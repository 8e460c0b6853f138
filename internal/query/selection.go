package query

import "sort"

// Selection is the set of row ids checked for a bulk operation. It may be
// owned by the console (the default) or handed in by a host that wants to own
// selection state; both run through the same methods.
//
// Selection is scoped to rendered rows only in the sense that SelectAll and
// ClearPage operate over the caller's current page ids; paging away does not
// prune ids that scrolled out of view.
type Selection struct {
	ids map[string]bool

	// OnChange, when set, is called after every mutation with the new id set.
	// This is how an external owner observes the selection.
	OnChange func(ids []string)
}

func NewSelection() *Selection {
	return &Selection{ids: map[string]bool{}}
}

func (s *Selection) Toggle(id string) {
	if s.ids[id] {
		delete(s.ids, id)
	} else {
		s.ids[id] = true
	}
	s.changed()
}

// SelectAll adds every id on the current page. Ids from other pages are left
// alone.
func (s *Selection) SelectAll(pageIDs []string) {
	for _, id := range pageIDs {
		s.ids[id] = true
	}
	s.changed()
}

// ClearPage removes only the current page's ids.
func (s *Selection) ClearPage(pageIDs []string) {
	for _, id := range pageIDs {
		delete(s.ids, id)
	}
	s.changed()
}

// Clear empties the whole selection (used by Store.Reset).
func (s *Selection) Clear() {
	if len(s.ids) == 0 {
		return
	}
	s.ids = map[string]bool{}
	s.changed()
}

func (s *Selection) Has(id string) bool { return s.ids[id] }

func (s *Selection) Count() int { return len(s.ids) }

// IDs returns the selected ids, sorted.
func (s *Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// AllOnPage reports whether every id on the page is selected. False for an
// empty page.
func (s *Selection) AllOnPage(pageIDs []string) bool {
	if len(pageIDs) == 0 {
		return false
	}
	for _, id := range pageIDs {
		if !s.ids[id] {
			return false
		}
	}
	return true
}

func (s *Selection) changed() {
	if s.OnChange != nil {
		s.OnChange(s.IDs())
	}
}
