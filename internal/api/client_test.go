package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"regdesk/internal/model"
)

func TestSearchRegistrations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/registrations/search" {
			t.Errorf("got %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("auth header=%q", got)
		}
		var req SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.EventIDs) != 1 || req.EventIDs[0] != "E1" || req.Page != 2 {
			t.Errorf("request=%+v", req)
		}
		json.NewEncoder(w).Encode(SearchResult{
			Content:       []model.RegistrationRecord{{ID: "R1", Name: "Kim"}},
			TotalElements: 41,
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	res, err := c.SearchRegistrations(context.Background(), SearchRequest{
		EventIDs: []string{"E1"}, Page: 2, Size: 20, SortKey: "id",
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.TotalElements != 41 || len(res.Content) != 1 || res.Content[0].Name != "Kim" {
		t.Fatalf("result=%+v", res)
	}
}

func TestUpdateRegistrationsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "validation failed", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	err := c.UpdateRegistrations(context.Background(), []model.RegistrationUpdate{{ID: "R1"}})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err=%v, want StatusError", err)
	}
	if se.Code != http.StatusUnprocessableEntity || se.Body != "validation failed" {
		t.Fatalf("status error=%+v", se)
	}
}

func TestStartImportSendsFileAndHeaders(t *testing.T) {
	var gotKey, gotName, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/events/E1/imports" {
			t.Errorf("path=%s", r.URL.Path)
		}
		gotKey = r.Header.Get("Idempotency-Key")
		gotName = r.Header.Get("X-Import-Filename")
		b := make([]byte, 64)
		n, _ := r.Body.Read(b)
		gotBody = string(b[:n])
		json.NewEncoder(w).Encode(ImportJob{ID: "job-9"})
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "registrations.xlsx")
	if err := os.WriteFile(path, []byte("sheet-bytes"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	c := New(srv.URL, "")
	job, err := c.StartImport(context.Background(), "E1", path)
	if err != nil {
		t.Fatalf("start import: %v", err)
	}
	if job.ID != "job-9" {
		t.Fatalf("job=%+v", job)
	}
	if gotKey == "" {
		t.Fatalf("missing idempotency key")
	}
	if gotName != "registrations.xlsx" {
		t.Fatalf("filename header=%q", gotName)
	}
	if gotBody != "sheet-bytes" {
		t.Fatalf("body=%q", gotBody)
	}
}

func TestImportStatusAndCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/imports/job-9":
			json.NewEncoder(w).Encode(ImportStatus{Done: true, Error: ""})
		case "/api/imports/job-9/cancel":
			if r.Method != http.MethodPost {
				t.Errorf("cancel method=%s", r.Method)
			}
			w.WriteHeader(http.StatusAccepted)
		default:
			t.Errorf("path=%s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	st, err := c.GetImportStatus(context.Background(), "job-9")
	if err != nil || !st.Done {
		t.Fatalf("status=%+v err=%v", st, err)
	}
	if err := c.CancelImport(context.Background(), "job-9"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
}

func TestListEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]model.Event{
			{ID: "E1", Name: "Spring Open", Open: true},
			{ID: "E2", Name: "Autumn Classic"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	events, err := c.ListEvents(context.Background())
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 2 || events[0].ID != "E1" || !events[0].Open {
		t.Fatalf("events=%+v", events)
	}
}
