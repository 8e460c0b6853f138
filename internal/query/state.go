// Package query holds the console's query state machine: the authoritative
// filter/sort/page state, its location (query-string) round-trip, the result
// projection, row selection, and the fetch-coalescing store.
package query

import (
	"net/url"
	"strconv"

	"regdesk/internal/model"
)

// SearchField selects which record field a free-text query matches.
type SearchField string

const (
	FieldAll          SearchField = "all"
	FieldName         SearchField = "name"
	FieldPhone        SearchField = "phone"
	FieldOrganization SearchField = "organization"
	FieldPayer        SearchField = "payer"
)

var searchFields = map[SearchField]string{
	FieldAll:          "All fields",
	FieldName:         "Name",
	FieldPhone:        "Phone",
	FieldOrganization: "Organization",
	FieldPayer:        "Payer",
}

// SearchFields lists the selectable fields in display order.
var SearchFields = []SearchField{FieldAll, FieldName, FieldPhone, FieldOrganization, FieldPayer}

func (f SearchField) Valid() bool { _, ok := searchFields[f]; return ok }

func (f SearchField) Label() string {
	if l, ok := searchFields[f]; ok {
		return l
	}
	return string(f)
}

// SortKey selects the server-side sort order.
type SortKey string

const (
	SortByID           SortKey = "id"
	SortByName         SortKey = "name"
	SortByRegisteredAt SortKey = "registeredAt"
	SortByPayment      SortKey = "paymentStatus"
)

var sortKeys = map[SortKey]string{
	SortByID:           "Registration id",
	SortByName:         "Name",
	SortByRegisteredAt: "Registered at",
	SortByPayment:      "Payment status",
}

// SortKeys lists the selectable sort orders in display order.
var SortKeys = []SortKey{SortByID, SortByName, SortByRegisteredAt, SortByPayment}

func (k SortKey) Valid() bool { _, ok := sortKeys[k]; return ok }

func (k SortKey) Label() string {
	if l, ok := sortKeys[k]; ok {
		return l
	}
	return string(k)
}

// Defaults for every State field. A field equal to its default is omitted
// from the encoded location so shared links stay short.
const (
	DefaultPage        = 1
	DefaultSearchField = FieldAll
	DefaultSortKey     = SortByID
)

// State is the single authoritative description of what the console fetches.
// Scope (the event id set) lives in scope.Selector; the location carries only
// the scope hint, not the resolved ids.
type State struct {
	Page        int
	Query       string
	SearchField SearchField
	PaidFilter  model.PaymentStatus // empty means "any"
	SortKey     SortKey

	// ScopeHint is the one-shot "selection=all|open" location hint, kept so
	// re-encoding a freshly parsed location is lossless.
	ScopeHint string
}

// DefaultState returns the documented defaults.
func DefaultState() State {
	return State{
		Page:        DefaultPage,
		SearchField: DefaultSearchField,
		SortKey:     DefaultSortKey,
	}
}

// Encode serializes the non-default fields as location query parameters.
// Encoding then parsing (or the reverse) is lossless.
func (s State) Encode() url.Values {
	v := url.Values{}
	if s.Page > DefaultPage {
		v.Set("page", strconv.Itoa(s.Page))
	}
	if s.Query != "" {
		v.Set("q", s.Query)
	}
	if s.SearchField != DefaultSearchField && s.SearchField.Valid() {
		v.Set("field", string(s.SearchField))
	}
	if s.PaidFilter != "" && s.PaidFilter.Valid() {
		v.Set("paid", string(s.PaidFilter))
	}
	if s.SortKey != DefaultSortKey && s.SortKey.Valid() {
		v.Set("sort", string(s.SortKey))
	}
	if s.ScopeHint == "all" || s.ScopeHint == "open" {
		v.Set("selection", s.ScopeHint)
	}
	return v
}

// EncodeString is Encode rendered as a canonical query string.
func (s State) EncodeString() string {
	return s.Encode().Encode()
}

// ParseState reconstructs a State from location query parameters. Unknown or
// invalid values fall back to the defaults rather than failing: a mangled
// shared link should still open the console.
func ParseState(v url.Values) State {
	s := DefaultState()
	if p, err := strconv.Atoi(v.Get("page")); err == nil && p >= 1 {
		s.Page = p
	}
	s.Query = v.Get("q")
	if f := SearchField(v.Get("field")); f.Valid() {
		s.SearchField = f
	}
	if p := model.PaymentStatus(v.Get("paid")); p.Valid() {
		s.PaidFilter = p
	}
	if k := SortKey(v.Get("sort")); k.Valid() {
		s.SortKey = k
	}
	if h := v.Get("selection"); h == "all" || h == "open" {
		s.ScopeHint = h
	}
	return s
}

// ParseStateString parses a raw query string; invalid input yields defaults.
func ParseStateString(raw string) State {
	v, err := url.ParseQuery(raw)
	if err != nil {
		return DefaultState()
	}
	return ParseState(v)
}
