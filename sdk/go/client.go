package mpdimportsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client is a minimal MPD import HTTP API client.
type Client struct {
	BaseURL     string
	BasePath    string
	ActorID     string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:  baseURL,
		BasePath: "/v0",
		Timeout:  30 * time.Second,
	}
}

// Project is one project held by a source.
type Project struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Counts summarises the entities an import produced.
type Counts struct {
	Calendars   int `json:"calendars"`
	Resources   int `json:"resources"`
	Tasks       int `json:"tasks"`
	Relations   int `json:"relations"`
	Assignments int `json:"assignments"`
	SubProjects int `json:"subprojects"`
}

// ImportRun is a recorded import attempt.
type ImportRun struct {
	ID          string  `json:"id"`
	Source      string  `json:"source"`
	SourceKind  string  `json:"source_kind"`
	ProjectID   int     `json:"project_id"`
	ProjectName string  `json:"project_name"`
	Status      string  `json:"status"`
	Error       string  `json:"error"`
	Counts      Counts  `json:"counts"`
	ActorID     string  `json:"actor_id"`
	StartedAt   string  `json:"started_at"`
	FinishedAt  *string `json:"finished_at"`
}

// Event is one entry of an import run's log.
type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts"`
	Type       string         `json:"type"`
	ImportID   string         `json:"import_id"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id"`
	Payload    map[string]any `json:"payload"`
}

// ImportRequest selects what to import. Zero values fall back to the
// server's configuration.
type ImportRequest struct {
	Source                 string `json:"source,omitempty"`
	ProjectID              int    `json:"project_id,omitempty"`
	PreserveNoteFormatting *bool  `json:"preserve_note_formatting,omitempty"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    map[string]any
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// PaginatedImports wraps run listings with cursors.
type PaginatedImports struct {
	Items      []ImportRun `json:"items"`
	NextCursor string      `json:"next_cursor"`
}

// PaginatedEvents wraps event listings with cursors.
type PaginatedEvents struct {
	Items      []Event `json:"items"`
	NextCursor string  `json:"next_cursor"`
}

// Projects lists the projects held by source; empty uses the server's source.
func (c *Client) Projects(ctx context.Context, source string) ([]Project, error) {
	var resp struct {
		Items []Project `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, withQuery("projects", url.Values{"source": {source}}), nil, &resp)
	return resp.Items, err
}

// Import runs an import. A failed read is returned as an *APIError whose
// Details carry the recorded import_id.
func (c *Client) Import(ctx context.Context, req ImportRequest) (ImportRun, error) {
	var resp ImportRun
	err := c.do(ctx, http.MethodPost, "imports", req, &resp)
	return resp, err
}

// GetImport fetches one run.
func (c *Client) GetImport(ctx context.Context, id string) (ImportRun, error) {
	var resp ImportRun
	err := c.do(ctx, http.MethodGet, "imports/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// ImportsPage lists runs newest first.
func (c *Client) ImportsPage(ctx context.Context, status string, limit int, cursor string) (PaginatedImports, error) {
	q := url.Values{"status": {status}, "cursor": {cursor}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var resp PaginatedImports
	err := c.do(ctx, http.MethodGet, withQuery("imports", q), nil, &resp)
	return resp, err
}

// EventsPage returns a page of a run's events in order.
func (c *Client) EventsPage(ctx context.Context, importID string, limit int, cursor string) (PaginatedEvents, error) {
	q := url.Values{"cursor": {cursor}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var resp PaginatedEvents
	err := c.do(ctx, http.MethodGet, withQuery("imports/"+url.PathEscape(importID)+"/events", q), nil, &resp)
	return resp, err
}

// Events returns every event of a run.
func (c *Client) Events(ctx context.Context, importID string) ([]Event, error) {
	var all []Event
	cursor := ""
	for {
		page, err := c.EventsPage(ctx, importID, 200, cursor)
		if err != nil {
			return all, err
		}
		all = append(all, page.Items...)
		if page.NextCursor == "" {
			return all, nil
		}
		cursor = page.NextCursor
	}
}

func withQuery(endpoint string, q url.Values) string {
	for k, v := range q {
		if len(v) == 0 || v[0] == "" {
			q.Del(k)
		}
	}
	if len(q) == 0 {
		return endpoint
	}
	return endpoint + "?" + q.Encode()
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.ActorID != "":
		req.Header.Set("X-Actor-Id", c.ActorID)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(b)}
		var env struct {
			Error struct {
				Code    string         `json:"code"`
				Message string         `json:"message"`
				Details map[string]any `json:"details"`
			} `json:"error"`
		}
		if json.Unmarshal(b, &env) == nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.Details = env.Error.Details
		}
		return apiErr
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	basePath := strings.Trim(c.BasePath, "/")
	base := strings.TrimRight(c.BaseURL, "/")
	if basePath == "" {
		return base
	}
	return base + "/" + basePath
}
