// Package scope tracks the set of event ids every registration query is
// restricted to. The set is never empty: the console always has at least one
// event in scope, and mutations that would empty it are rejected.
package scope

import (
	"errors"
	"sort"

	"regdesk/internal/model"
)

// ErrLastEvent is returned when a toggle/remove would leave the scope empty.
var ErrLastEvent = errors.New("at least one event must stay in scope")

// ErrUnknownEvent is returned when a toggle targets an id outside the known
// event universe (once a universe has been provided).
var ErrUnknownEvent = errors.New("unknown event id")

// Selector owns the in-scope event id set plus the known event universe.
// The zero value is not usable; call New.
type Selector struct {
	defaultID string
	ids       map[string]bool
	universe  []model.Event

	// hintApplied records that the one-shot location hint ("all"/"open") has
	// been consumed, so a later universe reload never re-triggers it.
	hintApplied bool
}

// New returns a selector scoped to the single default event id.
func New(defaultID string) *Selector {
	return &Selector{
		defaultID: defaultID,
		ids:       map[string]bool{defaultID: true},
	}
}

// Restore replaces the scope with a previously persisted id set. An empty
// list is ignored; the invariant wins over bad saved state.
func (s *Selector) Restore(ids []string) {
	if len(ids) == 0 {
		return
	}
	m := map[string]bool{}
	for _, id := range ids {
		m[id] = true
	}
	s.ids = m
}

// SetUniverse replaces the known event directory. In-scope ids are kept even
// if the new universe no longer lists them; the server simply returns no rows
// for them.
func (s *Selector) SetUniverse(events []model.Event) {
	s.universe = append([]model.Event(nil), events...)
}

func (s *Selector) Universe() []model.Event {
	return append([]model.Event(nil), s.universe...)
}

// ApplyHint resolves a location hint against the universe, once. "all" scopes
// every known event; "open" scopes events with an open registration window.
// The hint is ignored when it resolves to an empty set, and is consumed either
// way only after a universe exists to resolve against.
func (s *Selector) ApplyHint(hint string) bool {
	if s.hintApplied || len(s.universe) == 0 {
		return false
	}
	ids := map[string]bool{}
	switch hint {
	case "all":
		for _, e := range s.universe {
			ids[e.ID] = true
		}
	case "open":
		for _, e := range s.universe {
			if e.Open {
				ids[e.ID] = true
			}
		}
	default:
		return false
	}
	s.hintApplied = true
	if len(ids) == 0 {
		return false
	}
	s.ids = ids
	return true
}

// Toggle flips membership of id. Removing the last in-scope event is
// rejected with ErrLastEvent.
func (s *Selector) Toggle(id string) error {
	if s.ids[id] {
		return s.Remove(id)
	}
	if len(s.universe) > 0 && !s.inUniverse(id) {
		return ErrUnknownEvent
	}
	s.ids[id] = true
	return nil
}

// Remove drops id from scope, guarding the non-empty invariant.
func (s *Selector) Remove(id string) error {
	if !s.ids[id] {
		return nil
	}
	if len(s.ids) == 1 {
		return ErrLastEvent
	}
	delete(s.ids, id)
	return nil
}

// SelectAll scopes every event in the known universe. A no-op when the
// universe is empty (it would otherwise empty the scope).
func (s *Selector) SelectAll() {
	if len(s.universe) == 0 {
		return
	}
	ids := map[string]bool{}
	for _, e := range s.universe {
		ids[e.ID] = true
	}
	s.ids = ids
}

// SelectNone collapses the scope back to the default event. "None" never
// means the empty set.
func (s *Selector) SelectNone() {
	s.ids = map[string]bool{s.defaultID: true}
}

func (s *Selector) Has(id string) bool { return s.ids[id] }

func (s *Selector) Size() int { return len(s.ids) }

// IDs returns the in-scope ids, sorted for stable cache keys and wire
// payloads.
func (s *Selector) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// PrimaryID is the event whose display name backfills rows that omit one: the
// default event while it is in scope, otherwise the first in-scope id.
func (s *Selector) PrimaryID() string {
	if s.ids[s.defaultID] {
		return s.defaultID
	}
	ids := s.IDs()
	if len(ids) == 0 {
		return s.defaultID
	}
	return ids[0]
}

// PrimaryEvent resolves PrimaryID against the universe.
func (s *Selector) PrimaryEvent() (model.Event, bool) {
	id := s.PrimaryID()
	for _, e := range s.universe {
		if e.ID == id {
			return e, true
		}
	}
	return model.Event{}, false
}

func (s *Selector) inUniverse(id string) bool {
	for _, e := range s.universe {
		if e.ID == id {
			return true
		}
	}
	return false
}
