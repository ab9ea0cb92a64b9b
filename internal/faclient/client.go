// Package faclient talks to a FAExport-style JSON API for the gallery site.
// It implements archive.Client, owning session authentication and the
// minimum inter-request delay every network call must respect.
package faclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"faarc/internal/archive"
)

// DefaultMinDelay keeps at least this much time between requests so the
// site does not ban us for crawling too fast.
const DefaultMinDelay = 5 * time.Second

const defaultUserAgent = "faarc/1.0"

// Credentials are the two opaque session cookies taken from a logged-in
// browser. The client forwards them verbatim and never inspects them.
type Credentials struct {
	A string
	B string
}

// Options configures a Client. Zero values fall back to defaults; BaseURL
// is required.
type Options struct {
	BaseURL     string
	UserAgent   string
	MinDelay    time.Duration
	Credentials Credentials
	HTTPClient  *http.Client
}

// Client is an archive.Client backed by HTTP. All methods serialize through
// the throttle, so callers may treat every call as already rate-limited.
type Client struct {
	http      *http.Client
	baseURL   string
	userAgent string
	creds     Credentials
	minDelay  time.Duration

	mu   sync.Mutex
	last time.Time
}

var _ archive.Client = (*Client)(nil)

func New(opts Options) *Client {
	c := &Client{
		http:      opts.HTTPClient,
		baseURL:   opts.BaseURL,
		userAgent: opts.UserAgent,
		creds:     opts.Credentials,
		minDelay:  opts.MinDelay,
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.userAgent == "" {
		c.userAgent = defaultUserAgent
	}
	if c.minDelay == 0 {
		c.minDelay = DefaultMinDelay
	}
	return c
}

// throttle enforces the minimum inter-request delay across all methods.
func (c *Client) throttle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.last.IsZero() {
		if wait := c.minDelay - time.Since(c.last); wait > 0 {
			time.Sleep(wait)
		}
	}
	c.last = time.Now()
}

func (c *Client) getURL(fullURL string) ([]byte, error) {
	c.throttle()

	req, err := http.NewRequest(http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", fullURL, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.creds.A != "" {
		req.AddCookie(&http.Cookie{Name: "a", Value: c.creds.A})
	}
	if c.creds.B != "" {
		req.AddCookie(&http.Cookie{Name: "b", Value: c.creds.B})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", fullURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("GET %s: %w", fullURL, archive.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("GET %s: unexpected status %s", fullURL, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", fullURL, err)
	}
	return body, nil
}

func (c *Client) getJSON(path string, v any) error {
	body, err := c.getURL(c.baseURL + path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding response from %s: %w", path, err)
	}
	return nil
}

func (c *Client) VerifyIdentity(artist string) (*archive.UserInfo, error) {
	var payload struct {
		Name   string `json:"name"`
		Status string `json:"status"`
	}
	if err := c.getJSON("/user/"+url.PathEscape(artist)+".json", &payload); err != nil {
		return nil, err
	}
	return &archive.UserInfo{Name: payload.Name, Status: payload.Status}, nil
}

// ListPage fetches one listing page. The API signals the end of a listing
// with an empty page; otherwise the next page is simply page+1.
func (c *Client) ListPage(category archive.Category, artist string, page int) ([]archive.ListedItem, int, error) {
	var endpoint string
	switch category {
	case archive.CategoryGallery:
		endpoint = "gallery"
	case archive.CategoryScraps:
		endpoint = "scraps"
	case archive.CategoryJournals:
		endpoint = "journals"
	default:
		return nil, 0, fmt.Errorf("unknown category %q", category)
	}

	var payload []struct {
		ID           int64  `json:"id"`
		ThumbnailURL string `json:"thumbnail_url"`
	}
	path := fmt.Sprintf("/user/%s/%s.json?page=%d", url.PathEscape(artist), endpoint, page)
	if err := c.getJSON(path, &payload); err != nil {
		return nil, 0, err
	}
	if len(payload) == 0 {
		return nil, 0, nil
	}

	items := make([]archive.ListedItem, len(payload))
	for i, p := range payload {
		items[i] = archive.ListedItem{ID: p.ID, ThumbnailURL: p.ThumbnailURL}
	}
	return items, page + 1, nil
}

// FetchSubmission fetches a submission's metadata, then its payload from
// the file URL the metadata names. Both requests go through the throttle.
func (c *Client) FetchSubmission(id int64) (*archive.Submission, []byte, error) {
	var info archive.Submission
	if err := c.getJSON(fmt.Sprintf("/submission/%d.json", id), &info); err != nil {
		return nil, nil, err
	}
	payload, err := c.getURL(info.FileURL)
	if err != nil {
		return nil, nil, err
	}
	return &info, payload, nil
}

func (c *Client) FetchJournal(id int64) (*archive.Journal, error) {
	var info archive.Journal
	if err := c.getJSON(fmt.Sprintf("/journal/%d.json", id), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) FetchRaw(rawURL string) ([]byte, error) {
	return c.getURL(rawURL)
}
