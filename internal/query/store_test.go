package query

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"regdesk/internal/api"
	"regdesk/internal/cache"
	"regdesk/internal/model"
	"regdesk/internal/scope"
)

// recLocation records every location write.
type recLocation struct {
	writes []string
}

func (l *recLocation) Replace(raw string) { l.writes = append(l.writes, raw) }

func newTestScope() *scope.Selector {
	s := scope.New("E1")
	s.SetUniverse([]model.Event{
		{ID: "E1", Name: "Spring Open", Open: true},
		{ID: "E2", Name: "Summer Relay", Open: true},
	})
	return s
}

func record(id, name string) model.RegistrationRecord {
	return model.RegistrationRecord{
		ID:            id,
		EventID:       "E1",
		Name:          name,
		Gender:        model.GenderFemale,
		Birth:         "1990-01-02",
		PaymentStatus: model.PaymentUnpaid,
		RegisteredAt:  time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
	}
}

func result(total int, recs ...model.RegistrationRecord) *api.SearchResult {
	return &api.SearchResult{Content: recs, TotalElements: total}
}

// settleAndResolve runs one settle and feeds back a canned result, the way the
// console's update loop does.
func settleAndResolve(t *testing.T, s *Store, res *api.SearchResult) {
	t.Helper()
	f := s.Settle()
	if f == nil {
		return // cache hit already applied
	}
	if !s.Resolve(f.Seq, res, nil) {
		t.Fatalf("fresh fetch discarded as stale")
	}
}

func TestInitialSettleFetchesOnce(t *testing.T) {
	s := NewStore(Options{Scope: newTestScope()})

	f := s.Settle()
	if f == nil {
		t.Fatalf("first settle must fetch")
	}
	if got, want := f.Request.EventIDs, []string{"E1"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("event ids=%v, want %v", got, want)
	}
	if f.Request.Page != 1 || f.Request.Size != DefaultPageSize {
		t.Fatalf("request=%+v", f.Request)
	}
	if !s.Loading() {
		t.Fatalf("not loading while a fetch is in flight")
	}

	// Nothing changed: settling again must not issue another fetch.
	if s.Settle() != nil {
		t.Fatalf("idle settle issued a fetch")
	}
}

func TestMutationsCoalesceIntoOneFetch(t *testing.T) {
	s := NewStore(Options{Scope: newTestScope()})
	settleAndResolve(t, s, result(100, record("R1", "Kim")))

	// Burst of changes in one update pass.
	s.SetQuery("kim")
	s.SetSearchField(FieldName)
	s.SetPaidFilter(model.PaymentUnpaid)
	s.SetSortKey(SortByRegisteredAt)

	f := s.Settle()
	if f == nil {
		t.Fatalf("mutations must settle into a fetch")
	}
	if s.Settle() != nil {
		t.Fatalf("burst produced a second fetch")
	}

	req := f.Request
	if req.Query != "kim" || req.SearchField != "name" || req.PaidFilter != "UNPAID" || req.SortKey != "registeredAt" {
		t.Fatalf("request=%+v", req)
	}
	if req.Page != 1 {
		t.Fatalf("filter change must reset the page, got %d", req.Page)
	}
}

func TestSetPageKeepsPage(t *testing.T) {
	s := NewStore(Options{Scope: newTestScope()})
	settleAndResolve(t, s, result(100, record("R1", "Kim")))

	s.SetPage(4)
	f := s.Settle()
	if f == nil || f.Request.Page != 4 {
		t.Fatalf("fetch=%+v, want page 4", f)
	}
	s.Resolve(f.Seq, result(100, record("R61", "Park")), nil)

	// A no-op page set must not refetch.
	s.SetPage(4)
	if s.Settle() != nil {
		t.Fatalf("no-op page change refetched")
	}
}

func TestLatestFetchWins(t *testing.T) {
	s := NewStore(Options{Scope: newTestScope()})

	s.SetQuery("a")
	f1 := s.Settle()
	s.SetQuery("ab")
	f2 := s.Settle()
	if f1 == nil || f2 == nil || f1.Seq == f2.Seq {
		t.Fatalf("expected two distinct fetches, got %+v %+v", f1, f2)
	}

	// Newest first, then the stale one arrives late.
	if !s.Resolve(f2.Seq, result(1, record("R2", "About")), nil) {
		t.Fatalf("current fetch discarded")
	}
	if s.Resolve(f1.Seq, result(1, record("R1", "Stale")), nil) {
		t.Fatalf("stale fetch applied")
	}
	if s.Rows()[0].Name != "About" {
		t.Fatalf("rows=%v, stale result overwrote the newer one", s.Rows())
	}
}

func TestFailedFetchKeepsRows(t *testing.T) {
	s := NewStore(Options{Scope: newTestScope()})
	settleAndResolve(t, s, result(2, record("R1", "Kim"), record("R2", "Lee")))

	s.SetQuery("x")
	f := s.Settle()
	s.Resolve(f.Seq, nil, errors.New("boom"))

	if s.Err() == nil {
		t.Fatalf("error not surfaced")
	}
	if len(s.Rows()) != 2 || s.Total() != 2 {
		t.Fatalf("failed fetch dropped the previous result: rows=%d total=%d", len(s.Rows()), s.Total())
	}

	// The next success clears the flag.
	s.SetQuery("y")
	f = s.Settle()
	s.Resolve(f.Seq, result(1, record("R3", "Park")), nil)
	if s.Err() != nil {
		t.Fatalf("error flag survived a successful fetch: %v", s.Err())
	}
}

func TestLocationMirroring(t *testing.T) {
	loc := &recLocation{}
	s := NewStore(Options{Scope: newTestScope(), Location: loc})

	settleAndResolve(t, s, result(0))
	s.SetQuery("kim")
	settleAndResolve(t, s, result(0))

	want := []string{"", "q=kim"}
	if !reflect.DeepEqual(loc.writes, want) {
		t.Fatalf("location writes=%v, want %v", loc.writes, want)
	}

	// Externally navigated state must not echo back into the location.
	s.ApplyLocation("page=2&q=lee")
	settleAndResolve(t, s, result(0))
	if len(loc.writes) != 2 {
		t.Fatalf("ApplyLocation caused a location write: %v", loc.writes)
	}
	if st := s.State(); st.Page != 2 || st.Query != "lee" {
		t.Fatalf("state=%+v", st)
	}

	// Later operator-driven changes write again.
	s.SetQuery("park")
	settleAndResolve(t, s, result(0))
	if got := loc.writes[len(loc.writes)-1]; got != "q=park" {
		t.Fatalf("last write=%q", got)
	}
}

func TestCacheHitSkipsNetwork(t *testing.T) {
	c := cache.NewMemory(time.Minute)
	s := NewStore(Options{Scope: newTestScope(), Cache: c})

	settleAndResolve(t, s, result(1, record("R1", "Kim")))

	// Same state again (navigate away and back).
	s.SetQuery("x")
	settleAndResolve(t, s, result(0))
	s.SetQuery("")
	if f := s.Settle(); f != nil {
		t.Fatalf("expected a cache hit, got fetch %+v", f)
	}
	if len(s.Rows()) != 1 || s.Rows()[0].Name != "Kim" {
		t.Fatalf("cache hit applied wrong rows: %v", s.Rows())
	}
}

func TestCacheHitClearsLoadingFromSupersededFetch(t *testing.T) {
	c := cache.NewMemory(time.Minute)
	s := NewStore(Options{Scope: newTestScope(), Cache: c})
	settleAndResolve(t, s, result(1, record("R1", "Kim")))

	// A new query goes to the network, then the operator reverts to the
	// cached state before the response lands.
	s.SetQuery("x")
	f := s.Settle()
	if f == nil {
		t.Fatalf("new query must fetch")
	}
	s.SetQuery("")
	if s.Settle() != nil {
		t.Fatalf("reverted state must be a cache hit")
	}
	if s.Loading() {
		t.Fatalf("cache hit superseded the in-flight fetch but Loading() is still true")
	}

	// The stale response arrives late and is discarded without reviving it.
	if s.Resolve(f.Seq, result(0), nil) {
		t.Fatalf("superseded fetch applied")
	}
	if s.Loading() {
		t.Fatalf("stale resolve turned Loading() back on")
	}
	if len(s.Rows()) != 1 || s.Rows()[0].Name != "Kim" {
		t.Fatalf("rows=%v, want the cached page", s.Rows())
	}
}

func TestInvalidateAndRefetchForcesNetwork(t *testing.T) {
	c := cache.NewMemory(time.Minute)
	s := NewStore(Options{Scope: newTestScope(), Cache: c})
	settleAndResolve(t, s, result(1, record("R1", "Kim")))

	s.InvalidateAndRefetch()
	f := s.Settle()
	if f == nil {
		t.Fatalf("post-save settle must go to the network despite the cache")
	}
	s.Resolve(f.Seq, result(1, record("R1", "Kim (paid)")), nil)
	if s.Rows()[0].Name != "Kim (paid)" {
		t.Fatalf("rows=%v", s.Rows())
	}
}

func TestScopeChangeResetsPageAndFetches(t *testing.T) {
	s := NewStore(Options{Scope: newTestScope()})
	settleAndResolve(t, s, result(100, record("R1", "Kim")))
	s.SetPage(3)
	settleAndResolve(t, s, result(100, record("R41", "Lee")))

	if err := s.ToggleScope("E2"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	f := s.Settle()
	if f == nil {
		t.Fatalf("scope change must fetch")
	}
	if f.Request.Page != 1 {
		t.Fatalf("page=%d, want reset to 1", f.Request.Page)
	}
	if got, want := f.Request.EventIDs, []string{"E1", "E2"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("event ids=%v, want %v", got, want)
	}

	s.Resolve(f.Seq, result(0), nil)

	// A rejected scope change must not fetch.
	if err := s.ToggleScope("E9"); !errors.Is(err, scope.ErrUnknownEvent) {
		t.Fatalf("err=%v, want ErrUnknownEvent", err)
	}
	if s.Settle() != nil {
		t.Fatalf("rejected scope change still fetched")
	}
}

func TestRemoveScope(t *testing.T) {
	s := NewStore(Options{Scope: newTestScope()})
	settleAndResolve(t, s, result(100, record("R1", "Kim")))
	if err := s.ToggleScope("E2"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	settleAndResolve(t, s, result(100, record("R1", "Kim")))
	s.SetPage(3)
	settleAndResolve(t, s, result(100, record("R41", "Lee")))

	if err := s.RemoveScope("E2"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	f := s.Settle()
	if f == nil || f.Request.Page != 1 {
		t.Fatalf("fetch=%+v, want a page-1 refetch", f)
	}
	if got, want := f.Request.EventIDs, []string{"E1"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("event ids=%v, want %v", got, want)
	}
	s.Resolve(f.Seq, result(100, record("R1", "Kim")), nil)

	// Removing an id that is not in scope must not refetch.
	if err := s.RemoveScope("E9"); err != nil {
		t.Fatalf("remove of non-member: %v", err)
	}
	if s.Settle() != nil {
		t.Fatalf("no-op remove still fetched")
	}

	// The last event is protected.
	if err := s.RemoveScope("E1"); !errors.Is(err, scope.ErrLastEvent) {
		t.Fatalf("err=%v, want ErrLastEvent", err)
	}
	if s.Settle() != nil {
		t.Fatalf("rejected remove still fetched")
	}
}

func TestResetRestoresDefaultsAndClearsSelection(t *testing.T) {
	s := NewStore(Options{Scope: newTestScope()})
	settleAndResolve(t, s, result(1, record("R1", "Kim")))

	s.SetQuery("kim")
	s.SetPaidFilter(model.PaymentCompleted)
	settleAndResolve(t, s, result(1, record("R1", "Kim")))
	s.Selection().Toggle("R1")

	s.Reset()
	f := s.Settle()
	if f == nil {
		t.Fatalf("reset must refetch")
	}
	if s.State() != DefaultState() {
		t.Fatalf("state=%+v, want defaults", s.State())
	}
	if s.Selection().Count() != 0 {
		t.Fatalf("selection survived reset")
	}
}

func TestEmptyStateClassification(t *testing.T) {
	s := NewStore(Options{Scope: newTestScope()})
	settleAndResolve(t, s, result(0))
	if got := s.EmptyState(); got != EmptyNoData {
		t.Fatalf("no data, no filters: %v, want EmptyNoData", got)
	}

	s.SetQuery("nobody")
	settleAndResolve(t, s, result(0))
	if got := s.EmptyState(); got != EmptyNoMatch {
		t.Fatalf("filters active: %v, want EmptyNoMatch", got)
	}
}

// TestFilterBrowseSaveScenario walks the main operator flow end to end:
// filter, page, select, and verify each step's single fetch.
func TestFilterBrowseSaveScenario(t *testing.T) {
	loc := &recLocation{}
	c := cache.NewMemory(time.Minute)
	s := NewStore(Options{Scope: newTestScope(), Location: loc, Cache: c})

	// Initial load.
	pageOf := func(start, n, total int) *api.SearchResult {
		recs := make([]model.RegistrationRecord, 0, n)
		for i := 0; i < n; i++ {
			id := fmt.Sprintf("R%d", start+i)
			recs = append(recs, record(id, "Applicant "+id))
		}
		return result(total, recs...)
	}
	settleAndResolve(t, s, pageOf(1, 20, 55))
	if s.MaxPage() != 3 {
		t.Fatalf("max page=%d, want 3", s.MaxPage())
	}

	// Narrow to unpaid and jump to the second page of the narrowed set.
	s.SetPaidFilter(model.PaymentUnpaid)
	settleAndResolve(t, s, pageOf(1, 20, 30))
	s.SetPage(2)
	settleAndResolve(t, s, pageOf(21, 10, 30))
	if got := s.Rows()[0].No; got != 21 {
		t.Fatalf("first ordinal on page 2 = %d, want 21", got)
	}

	// Select two rows and simulate the post-save refetch.
	s.Selection().Toggle("R21")
	s.Selection().Toggle("R22")
	s.InvalidateAndRefetch()
	f := s.Settle()
	if f == nil {
		t.Fatalf("post-save settle must fetch")
	}
	if f.Request.Page != 2 {
		t.Fatalf("post-save refetch lost the page: %+v", f.Request)
	}
	s.Resolve(f.Seq, pageOf(21, 10, 30), nil)

	if got := loc.writes[len(loc.writes)-1]; got != "page=2&paid=UNPAID" {
		t.Fatalf("final location=%q", got)
	}
}
