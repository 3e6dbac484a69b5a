// Package hh is the client for the HH vacancy-search API.
//
// Only two endpoints are used: /vacancies (paginated search, driven by the
// collector one day window at a time) and /areas (the location tree, synced
// nightly). Every call waits on a shared rate limiter first, which gives the
// fixed inter-request delay the upstream expects.
package hh

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const httpTimeout = 15 * time.Second

// PageSize is the fixed page size for vacancy search requests. A response
// with fewer than PageSize items is the pagination termination signal.
const PageSize = 100

// TransportError is returned for any failure talking to the API: network
// errors, non-2xx statuses, or an unreadable/malformed response body.
// Status is 0 when no HTTP response was received.
type TransportError struct {
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("hh api: status %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("hh api: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Client talks to the HH API with bearer auth and the mandatory
// HH-User-Agent header.
type Client struct {
	baseURL   string
	token     string
	userAgent string
	limiter   *rate.Limiter
	client    *http.Client
}

// NewClient constructs a Client with a shared HTTP client and a request
// limiter of one request per 500ms.
func NewClient(baseURL, token, userAgent string) *Client {
	return &Client{
		baseURL:   baseURL,
		token:     token,
		userAgent: userAgent,
		limiter:   rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
		client:    &http.Client{Timeout: httpTimeout},
	}
}

// Vacancy mirrors one item of the /vacancies search response.
type Vacancy struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	PublishedAt string      `json:"published_at"`
	Area        *Area       `json:"area"`
	Salary      *Salary     `json:"salary"`
	Snippet     *Snippet    `json:"snippet"`
	Employer    *Employer   `json:"employer"`
	Experience  *Experience `json:"experience"`
}

// Area is the vacancy's location reference.
type Area struct {
	ID string `json:"id"`
}

// Salary is the vacancy's salary block; both bounds are optional.
type Salary struct {
	From     *float64    `json:"from"`
	To       *float64    `json:"to"`
	Currency string      `json:"currency"`
	Gross    bool        `json:"gross"`
	Mode     *SalaryMode `json:"mode"`
}

// SalaryMode carries "MONTH" or "HOUR".
type SalaryMode struct {
	ID string `json:"id"`
}

// Snippet holds the highlighted requirement and responsibility fragments.
type Snippet struct {
	Requirement    string `json:"requirement"`
	Responsibility string `json:"responsibility"`
}

// Employer names the hiring company.
type Employer struct {
	Name string `json:"name"`
}

// Experience is the vacancy's experience-band reference.
type Experience struct {
	ID string `json:"id"`
}

// searchResponse mirrors the top-level /vacancies envelope.
type searchResponse struct {
	Items []Vacancy `json:"items"`
	Found int       `json:"found"`
	Pages int       `json:"pages"`
	Page  int       `json:"page"`
}

// SearchPage fetches one page of vacancies published in [dateFrom, dateTo)
// matching query. Pages are zero-based. Fewer than perPage returned items
// means this was the last page.
func (c *Client) SearchPage(ctx context.Context, query string, dateFrom, dateTo time.Time, page, perPage int) ([]Vacancy, error) {
	params := url.Values{}
	params.Set("text", query)
	params.Set("date_from", dateFrom.Format(time.RFC3339))
	params.Set("date_to", dateTo.Format(time.RFC3339))
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))

	var resp searchResponse
	if err := c.get(ctx, "/vacancies", params, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// AreaNode is one node of the nested /areas tree.
type AreaNode struct {
	ID       string     `json:"id"`
	ParentID string     `json:"parent_id"`
	Name     string     `json:"name"`
	Areas    []AreaNode `json:"areas"`
}

// Areas fetches the full location tree.
func (c *Client) Areas(ctx context.Context) ([]AreaNode, error) {
	var roots []AreaNode
	if err := c.get(ctx, "/areas", nil, &roots); err != nil {
		return nil, err
	}
	return roots, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &TransportError{Err: err}
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &TransportError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("HH-User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &TransportError{Err: fmt.Errorf("http GET: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return &TransportError{Status: resp.StatusCode, Err: fmt.Errorf("%s", body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &TransportError{Status: resp.StatusCode, Err: fmt.Errorf("json unmarshal: %w", err)}
	}
	return nil
}
