package query

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"regdesk/internal/api"
	"regdesk/internal/cache"
	"regdesk/internal/model"
	"regdesk/internal/scope"
)

// Fetcher is the slice of the remote API the store needs. *api.Client
// satisfies it.
type Fetcher interface {
	SearchRegistrations(ctx context.Context, req api.SearchRequest) (*api.SearchResult, error)
}

// Location is where the store mirrors its encoded state so it survives a
// relaunch (the console's analog of the page URL). Replace must not create a
// new history entry.
type Location interface {
	Replace(rawQuery string)
}

// noopLocation is used when the host does not persist locations (tests,
// scriptable commands).
type noopLocation struct{}

func (noopLocation) Replace(string) {}

const DefaultPageSize = 20

// Options configures a Store. Zero-valued fields get defaults; Scope is
// required.
type Options struct {
	Scope    *scope.Selector
	Location Location
	Cache    cache.Cache

	// Selection may be supplied by a host that owns selection state;
	// otherwise the store owns one internally.
	Selection *Selection

	PageSize int
}

// Store drives every registration query: it owns the QueryState, coalesces
// any number of same-settle mutations into exactly one outbound fetch,
// mirrors state to the location, reads through the cache, and discards stale
// responses so the newest request always wins.
//
// Mutate, then call Settle once; run the returned Fetch (if any) and feed the
// result to Resolve. Bubbletea hosts do this per Update pass.
type Store struct {
	state    State
	scope    *scope.Selector
	sel      *Selection
	loc      Location
	cache    cache.Cache
	pageSize int

	// pending marks that at least one mutation happened since the last
	// Settle. skipLocationWrite suppresses the location write for state that
	// just came *from* the location (no feedback loop). forceNetwork bypasses
	// the cache for the next settle (post-save refetch).
	pending           bool
	skipLocationWrite bool
	forceNetwork      bool

	// seq is the latest issued fetch sequence; responses carrying an older
	// seq are discarded.
	seq      int
	inFlight bool

	rows       []model.DisplayRow
	total      int
	haveResult bool
	fetchErr   error
}

// Fetch is one outbound query the caller must execute.
type Fetch struct {
	Seq     int
	Request api.SearchRequest
}

func NewStore(opts Options) *Store {
	s := &Store{
		state:    DefaultState(),
		scope:    opts.Scope,
		sel:      opts.Selection,
		loc:      opts.Location,
		cache:    opts.Cache,
		pageSize: opts.PageSize,
		pending:  true, // first Settle issues the initial fetch
	}
	if s.sel == nil {
		s.sel = NewSelection()
	}
	if s.loc == nil {
		s.loc = noopLocation{}
	}
	if s.pageSize <= 0 {
		s.pageSize = DefaultPageSize
	}
	return s
}

func (s *Store) State() State             { return s.state }
func (s *Store) Scope() *scope.Selector   { return s.scope }
func (s *Store) Selection() *Selection    { return s.sel }
func (s *Store) Rows() []model.DisplayRow { return s.rows }
func (s *Store) Total() int               { return s.total }
func (s *Store) PageSize() int            { return s.pageSize }
func (s *Store) Loading() bool            { return s.inFlight }

// Err is the out-of-band read-failure flag. Rows/Total keep the previous
// successful result while it is set.
func (s *Store) Err() error { return s.fetchErr }

// HaveResult reports whether at least one fetch has succeeded.
func (s *Store) HaveResult() bool { return s.haveResult }

// MaxPage is the last page number for the current total (at least 1).
func (s *Store) MaxPage() int {
	if s.total <= 0 {
		return 1
	}
	return (s.total + s.pageSize - 1) / s.pageSize
}

// PageIDs returns the ids of the currently rendered rows.
func (s *Store) PageIDs() []string {
	ids := make([]string, 0, len(s.rows))
	for _, r := range s.rows {
		ids = append(ids, r.ID)
	}
	return ids
}

// SetPage is the one mutator that does not reset the page.
func (s *Store) SetPage(p int) {
	if p < 1 {
		p = 1
	}
	if p == s.state.Page {
		return
	}
	s.state.Page = p
	s.pending = true
}

func (s *Store) SetQuery(q string) {
	if q == s.state.Query {
		return
	}
	s.state.Query = q
	s.mutated()
}

func (s *Store) SetSearchField(f SearchField) {
	if !f.Valid() || f == s.state.SearchField {
		return
	}
	s.state.SearchField = f
	s.mutated()
}

// SetPaidFilter accepts "" (any) or a valid payment status.
func (s *Store) SetPaidFilter(p model.PaymentStatus) {
	if p != "" && !p.Valid() {
		return
	}
	if p == s.state.PaidFilter {
		return
	}
	s.state.PaidFilter = p
	s.mutated()
}

func (s *Store) SetSortKey(k SortKey) {
	if !k.Valid() || k == s.state.SortKey {
		return
	}
	s.state.SortKey = k
	s.mutated()
}

// Reset restores every field to its default and clears the selection. Scope
// is left alone; it is not a filter field.
func (s *Store) Reset() {
	hint := s.state.ScopeHint
	s.state = DefaultState()
	s.state.ScopeHint = hint
	s.sel.Clear()
	s.pending = true
}

// ToggleScope flips an event in/out of scope. A successful change invalidates
// pagination offsets, so the page resets and the change joins the next
// settle's single fetch.
func (s *Store) ToggleScope(id string) error {
	if err := s.scope.Toggle(id); err != nil {
		return err
	}
	s.mutated()
	return nil
}

// RemoveScope drops an event from scope (the scope picker's explicit remove,
// as opposed to Toggle). Removing an id that is not in scope is a no-op and
// must not refetch.
func (s *Store) RemoveScope(id string) error {
	if !s.scope.Has(id) {
		return nil
	}
	if err := s.scope.Remove(id); err != nil {
		return err
	}
	s.mutated()
	return nil
}

func (s *Store) ScopeAll() {
	s.scope.SelectAll()
	s.mutated()
}

func (s *Store) ScopeNone() {
	s.scope.SelectNone()
	s.mutated()
}

// ApplyScopeHint resolves the location's one-shot scope hint once the event
// universe is known. Harmless to call again; the selector consumes the hint.
func (s *Store) ApplyScopeHint() {
	if s.state.ScopeHint == "" {
		return
	}
	if s.scope.ApplyHint(s.state.ScopeHint) {
		s.mutated()
	}
}

// ApplyLocation re-applies externally navigated state (back button, deep
// link). The resulting fetch must not re-write the location.
func (s *Store) ApplyLocation(rawQuery string) {
	s.state = ParseStateString(rawQuery)
	s.pending = true
	s.skipLocationWrite = true
}

// InvalidateAndRefetch drops every cached page for the current scope and
// forces the next settle onto the network. Called after a successful batch
// save. Cached pages for other scopes self-heal via TTL; there is no retry
// loop.
func (s *Store) InvalidateAndRefetch() {
	if s.cache != nil {
		s.cache.Invalidate("search/" + s.scopeKey())
	}
	s.forceNetwork = true
	s.pending = true
}

// Settle flushes all mutations since the last call: it mirrors state to the
// location and produces at most one Fetch. A cache hit resolves immediately
// and returns nil.
func (s *Store) Settle() *Fetch {
	if !s.pending {
		return nil
	}
	s.pending = false

	if s.skipLocationWrite {
		s.skipLocationWrite = false
	} else {
		s.loc.Replace(s.state.EncodeString())
	}

	req := s.buildRequest()
	key := s.cacheKey()

	if s.cache != nil && !s.forceNetwork {
		if b, ok := s.cache.Get(key); ok {
			var res api.SearchResult
			if err := json.Unmarshal(b, &res); err == nil {
				// The bumped seq supersedes any in-flight fetch, so its
				// loading state must end here; the stale Resolve won't.
				s.seq++
				s.inFlight = false
				s.apply(&res)
				return nil
			}
		}
	}
	s.forceNetwork = false

	s.seq++
	s.inFlight = true
	return &Fetch{Seq: s.seq, Request: req}
}

// Resolve commits a fetch result. Results for superseded sequences are
// discarded (latest wins). A failed fetch keeps the previous rows/total and
// raises the out-of-band error flag.
func (s *Store) Resolve(seq int, res *api.SearchResult, err error) bool {
	if seq != s.seq {
		return false
	}
	s.inFlight = false
	if err != nil {
		s.fetchErr = err
		return true
	}
	if s.cache != nil {
		if b, mErr := json.Marshal(res); mErr == nil {
			s.cache.Set(s.cacheKey(), b)
		}
	}
	s.apply(res)
	return true
}

func (s *Store) apply(res *api.SearchResult) {
	primary, _ := s.scope.PrimaryEvent()
	s.rows = ProjectRows(res.Content, s.state.Page, s.pageSize, primary)
	s.total = res.TotalElements
	s.haveResult = true
	s.fetchErr = nil
}

// EmptyState classifies the current (empty) result set for messaging.
func (s *Store) EmptyState() EmptyKind {
	return Empty(s.rows, s.total, s.state)
}

func (s *Store) mutated() {
	s.state.Page = DefaultPage
	s.pending = true
}

func (s *Store) buildRequest() api.SearchRequest {
	req := api.SearchRequest{
		EventIDs: s.scope.IDs(),
		Page:     s.state.Page,
		Size:     s.pageSize,
		SortKey:  string(s.state.SortKey),
	}
	if s.state.PaidFilter != "" {
		req.PaidFilter = string(s.state.PaidFilter)
	}
	if s.state.Query != "" {
		req.Query = s.state.Query
		req.SearchField = string(s.state.SearchField)
	}
	return req
}

func (s *Store) scopeKey() string {
	return strings.Join(s.scope.IDs(), ",")
}

// cacheKey spells out every field (defaults included) so distinct states can
// never collide.
func (s *Store) cacheKey() string {
	var b strings.Builder
	b.WriteString("search/")
	b.WriteString(s.scopeKey())
	b.WriteString("?page=")
	b.WriteString(strconv.Itoa(s.state.Page))
	b.WriteString("&size=")
	b.WriteString(strconv.Itoa(s.pageSize))
	b.WriteString("&q=")
	b.WriteString(s.state.Query)
	b.WriteString("&field=")
	b.WriteString(string(s.state.SearchField))
	b.WriteString("&paid=")
	b.WriteString(string(s.state.PaidFilter))
	b.WriteString("&sort=")
	b.WriteString(string(s.state.SortKey))
	return b.String()
}
