package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"regdesk/internal/model"

	"github.com/google/uuid"
)

// Client talks to the registration system of record. All methods take a
// context; callers own timeouts and cancellation.
type Client struct {
	BaseURL string
	Token   string

	// HTTPClient may be overridden (tests); nil means a client with a
	// conservative default timeout.
	HTTPClient *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// StatusError reports a non-2xx response. Body is truncated server detail.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("api: unexpected status %d", e.Code)
	}
	return fmt.Sprintf("api: unexpected status %d: %s", e.Code, e.Body)
}

// SearchRequest is the paginated search endpoint's query. Zero-valued
// optional fields are omitted on the wire.
type SearchRequest struct {
	EventIDs    []string `json:"eventIds"`
	Page        int      `json:"page"`
	Size        int      `json:"size"`
	SortKey     string   `json:"sortKey"`
	PaidFilter  string   `json:"paidFilter,omitempty"`
	Query       string   `json:"query,omitempty"`
	SearchField string   `json:"searchField,omitempty"`
}

// SearchResult mirrors the server's paginated envelope. TotalElements is the
// server-side total across all pages, not the length of Content.
type SearchResult struct {
	Content       []model.RegistrationRecord `json:"content"`
	TotalElements int                        `json:"totalElements"`
}

func (c *Client) SearchRegistrations(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	var out SearchResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/registrations/search", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateRegistrations submits one batched whole-row update. The server treats
// the batch as a single unit of success or failure.
func (c *Client) UpdateRegistrations(ctx context.Context, updates []model.RegistrationUpdate) error {
	return c.doJSON(ctx, http.MethodPut, "/api/registrations", updates, nil)
}

// ListEvents returns the universe of known events.
func (c *Client) ListEvents(ctx context.Context) ([]model.Event, error) {
	var out []model.Event
	if err := c.doJSON(ctx, http.MethodGet, "/api/events", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ImportJob is the handle returned when a registration import is started.
type ImportJob struct {
	ID string `json:"id"`
}

// ImportStatus is the binary completion signal for an import job. The server
// reports no incremental progress.
type ImportStatus struct {
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}

// StartImport uploads a registration sheet and starts a server-side import
// job for the given event. A fresh idempotency key makes accidental retries
// (e.g. after a timeout whose request actually landed) safe.
func (c *Client) StartImport(ctx context.Context, eventID, path string) (*ImportJob, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	u := c.BaseURL + "/api/events/" + url.PathEscape(eventID) + "/imports"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, f)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Idempotency-Key", uuid.NewString())
	req.Header.Set("X-Import-Filename", filepath.Base(path))
	c.auth(req)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var job ImportJob
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, fmt.Errorf("api: decode import job: %w", err)
	}
	return &job, nil
}

func (c *Client) GetImportStatus(ctx context.Context, jobID string) (*ImportStatus, error) {
	var out ImportStatus
	if err := c.doJSON(ctx, http.MethodGet, "/api/imports/"+url.PathEscape(jobID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelImport requests cancellation. Cancellation is cooperative: the job is
// not gone until GetImportStatus reports Done.
func (c *Client) CancelImport(ctx context.Context, jobID string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/imports/"+url.PathEscape(jobID)+"/cancel", nil, nil)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 15 * time.Second}
}

func (c *Client) auth(req *http.Request) {
	if strings.TrimSpace(c.Token) != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	c.auth(req)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("api: decode %s %s: %w", method, path, err)
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	// Keep a short slice of the body for error messages; servers sometimes
	// return large HTML error pages.
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
}
