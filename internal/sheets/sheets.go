// Package sheets downloads Google Sheets content, either through the public
// CSV export or through the values API with an OAuth access token.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ErrInvalidURL is returned for links that do not point at a spreadsheet.
var ErrInvalidURL = errors.New("invalid google sheets url")

// ErrMissingToken is returned when the values API is used without a token.
var ErrMissingToken = errors.New("missing google access token")

const (
	defaultExportBase = "https://docs.google.com/spreadsheets/d"
	defaultAPIBase    = "https://sheets.googleapis.com/v4/spreadsheets"

	// defaultRange is read when the values API is used; resolving a gid to a
	// tab title needs a metadata call, so the first tab's default name is used.
	defaultRange = "Sheet1"

	maxBodySize = 20 << 20
)

var (
	sheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)
	gidPattern     = regexp.MustCompile(`[?&#]gid=(\d+)`)
)

// Ref identifies a spreadsheet and, optionally, one of its tabs.
type Ref struct {
	ID  string
	GID string
}

// ParseURL extracts the spreadsheet ID and gid from a Google Sheets link.
func ParseURL(sheetURL string) (Ref, error) {
	if !strings.Contains(sheetURL, "docs.google.com") {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalidURL, sheetURL)
	}
	m := sheetIDPattern.FindStringSubmatch(sheetURL)
	if m == nil {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalidURL, sheetURL)
	}
	ref := Ref{ID: m[1]}
	if g := gidPattern.FindStringSubmatch(sheetURL); g != nil {
		ref.GID = g[1]
	}
	return ref, nil
}

// ExportURL converts a Google Sheets link to its CSV export URL. A gid in
// the link selects that tab; otherwise the first tab is exported.
func ExportURL(sheetURL string) (string, error) {
	ref, err := ParseURL(sheetURL)
	if err != nil {
		return "", err
	}
	return exportURL(defaultExportBase, ref), nil
}

func exportURL(base string, ref Ref) string {
	u := fmt.Sprintf("%s/%s/export?format=csv", base, ref.ID)
	if ref.GID != "" {
		u += "&gid=" + ref.GID
	}
	return u
}

// Client fetches spreadsheet content over HTTP.
type Client struct {
	httpClient *http.Client
	exportBase string
	apiBase    string
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithExportBase overrides the CSV export root (for testing).
func WithExportBase(base string) Option {
	return func(cl *Client) { cl.exportBase = strings.TrimRight(base, "/") }
}

// WithAPIBase overrides the values API root.
func WithAPIBase(base string) Option {
	return func(cl *Client) {
		if base != "" {
			cl.apiBase = strings.TrimRight(base, "/")
		}
	}
}

// NewClient creates a Client with the given request timeout.
func NewClient(timeout time.Duration, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		exportBase: defaultExportBase,
		apiBase:    defaultAPIBase,
		log:        logger.With("adapter", "sheets"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchCSV downloads the sheet through its public CSV export.
func (c *Client) FetchCSV(ctx context.Context, sheetURL string) (string, error) {
	ref, err := ParseURL(sheetURL)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, exportURL(c.exportBase, ref), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	body, err := c.do(req)
	if err != nil {
		return "", err
	}
	c.log.DebugContext(ctx, "sheet exported", "sheet_id", ref.ID, "bytes", len(body))
	return string(body), nil
}

// FetchValues reads the first tab through the values API with an OAuth
// bearer token. Cells are returned as formatted strings.
func (c *Client) FetchValues(ctx context.Context, sheetURL, token string) ([][]string, error) {
	ref, err := ParseURL(sheetURL)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}

	apiURL := fmt.Sprintf("%s/%s/values/%s", c.apiBase, ref.ID, url.PathEscape(defaultRange))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	gjson.GetBytes(body, "values").ForEach(func(_, row gjson.Result) bool {
		var cells []string
		row.ForEach(func(_, cell gjson.Result) bool {
			cells = append(cells, cell.String())
			return true
		})
		rows = append(rows, cells)
		return true
	})
	c.log.DebugContext(ctx, "sheet values read", "sheet_id", ref.ID, "rows", len(rows))
	return rows, nil
}

// do sends req and returns the body of a 2xx response. Other statuses become
// errors carrying the API's error.message when present, else "HTTP <code>".
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if gjson.ValidBytes(body) {
			if m := gjson.GetBytes(body, "error.message"); m.Exists() && m.String() != "" {
				msg = m.String()
			}
		}
		return nil, errors.New(msg)
	}
	return body, nil
}
