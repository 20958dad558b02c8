package livelog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// API defines the livelog server operations the client depends on.
// It is implemented by *Client and can be faked in tests.
type API interface {
	LoginEnabled(ctx context.Context) (bool, error)
	Login(ctx context.Context, token string) error
	FetchFileList(ctx context.Context) ([]string, error)
	FetchDefaultFilter(ctx context.Context) (string, error)
	ResetGroupings(ctx context.Context) error
	FetchGroupings(ctx context.Context) ([]Grouping, error)
	FetchTail(ctx context.Context, query TailQuery) ([]LogLine, error)
	FetchAnalytics(ctx context.Context, file string) ([]AnalyticsEntry, error)
	DownloadURL(file string) string
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// ErrMalformedResponse marks a response body that does not have the expected
// shape. Unlike transport and status errors it is not worth retrying.
var ErrMalformedResponse = errors.New("malformed response")

// StatusError is returned when the server answers with a 4xx or 5xx status.
type StatusError struct {
	Path string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api %s returned status %d", e.Path, e.Code)
}

// IsTransient reports whether err is a fetch failure that a later attempt may
// not see again: transport errors, timeouts and error statuses.
func IsTransient(err error) bool {
	return err != nil && !errors.Is(err, ErrMalformedResponse) && !errors.Is(err, context.Canceled)
}

// Client talks to the livelog HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultServerURL      = "127.0.0.1:8080/livelog/"
	defaultUserAgent      = "livelog-tui/0.1"
	defaultRequestTimeout = 5 * time.Second
)

// NewClient builds a Client for the server mounted at serverURL. The path of
// serverURL is kept: every API path is resolved relative to it.
func NewClient(serverURL string, timeout time.Duration) (*Client, error) {
	base, err := parseBaseURL(serverURL)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// BaseURL returns the normalized server URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// LoginEnabled asks whether the server requires a token.
func (c *Client) LoginEnabled(ctx context.Context) (bool, error) {
	body, err := c.doRaw(ctx, http.MethodGet, &url.URL{Path: "api/login/enabled"})
	if err != nil {
		return false, err
	}
	enabled, err := strconv.ParseBool(decodeText(body))
	if err != nil {
		return false, fmt.Errorf("%w: login enabled flag %q", ErrMalformedResponse, string(body))
	}
	return enabled, nil
}

// Login exchanges token for a session cookie kept by the client.
func (c *Client) Login(ctx context.Context, token string) error {
	values := url.Values{}
	values.Set("t", token)
	_, err := c.doRaw(ctx, http.MethodGet, &url.URL{Path: "api/login", RawQuery: values.Encode()})
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return nil
}

// FetchFileList retrieves the names of the log files the server exposes.
func (c *Client) FetchFileList(ctx context.Context) ([]string, error) {
	var files []string
	if err := c.do(ctx, http.MethodGet, "api/list-files", &files); err != nil {
		return nil, err
	}
	return files, nil
}

// FetchDefaultFilter retrieves the server's suggested file list filter.
func (c *Client) FetchDefaultFilter(ctx context.Context) (string, error) {
	body, err := c.doRaw(ctx, http.MethodGet, &url.URL{Path: "api/list-files/default-filter"})
	if err != nil {
		return "", err
	}
	return decodeText(body), nil
}

// ResetGroupings tells the server to restart grouping bookkeeping.
func (c *Client) ResetGroupings(ctx context.Context) error {
	_, err := c.doRaw(ctx, http.MethodPost, &url.URL{Path: "api/grouping/reset"})
	return err
}

// FetchGroupings retrieves the current ordered grouping rules.
func (c *Client) FetchGroupings(ctx context.Context) ([]Grouping, error) {
	var groupings []Grouping
	if err := c.do(ctx, http.MethodGet, "api/grouping", &groupings); err != nil {
		return nil, err
	}
	if groupings == nil {
		groupings = []Grouping{}
	}
	return groupings, nil
}

// FetchTail retrieves the lines of query.File starting at query.From.
func (c *Client) FetchTail(ctx context.Context, query TailQuery) ([]LogLine, error) {
	if strings.TrimSpace(query.File) == "" {
		return nil, fmt.Errorf("file required")
	}
	values := url.Values{}
	values.Set("f", query.File)
	if query.From != nil {
		values.Set("l", strconv.FormatInt(*query.From, 10))
	}
	rel := &url.URL{Path: "api/tail", RawQuery: values.Encode()}
	var lines []LogLine
	if err := c.doURL(ctx, http.MethodGet, rel, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// FetchAnalytics retrieves the grouping summary for file.
func (c *Client) FetchAnalytics(ctx context.Context, file string) ([]AnalyticsEntry, error) {
	if strings.TrimSpace(file) == "" {
		return nil, fmt.Errorf("file required")
	}
	values := url.Values{}
	values.Set("f", file)
	rel := &url.URL{Path: "api/analytics", RawQuery: values.Encode()}
	var entries []AnalyticsEntry
	if err := c.doURL(ctx, http.MethodGet, rel, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// DownloadURL returns the absolute URL that serves file in full.
func (c *Client) DownloadURL(file string) string {
	values := url.Values{}
	values.Set("f", file)
	rel := &url.URL{Path: "api/download", RawQuery: values.Encode()}
	return c.baseURL.ResolveReference(rel).String()
}

func (c *Client) do(ctx context.Context, method, path string, dest any) error {
	rel := &url.URL{Path: path}
	return c.doURL(ctx, method, rel, dest)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, dest any) error {
	body, err := c.doRaw(ctx, method, rel)
	if err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(bytes.NewReader(body))
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrMalformedResponse, err)
	}
	return nil
}

func (c *Client) doRaw(ctx context.Context, method string, rel *url.URL) ([]byte, error) {
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/plain")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, &StatusError{Path: rel.Path, Code: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

// decodeText accepts either a JSON string or a bare text body.
func decodeText(body []byte) string {
	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(body))
}

func parseBaseURL(serverURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(serverURL)
	if trimmed == "" {
		trimmed = defaultServerURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse server url %q: %w", serverURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse server url %q: missing host", serverURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
