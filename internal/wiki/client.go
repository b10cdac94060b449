package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://en.wikipedia.org/w/api.php"
	DefaultUserAgent = "CalibrationTrivia/1.0 (https://github.com/calibration-game/backend)"
)

// Page is what the content source needs to know about one article.
type Page struct {
	Exists       bool
	Title        string
	URL          string
	Summary      string
	SectionCount int
}

type ClientConfig struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Client talks to a MediaWiki action API.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
}

// ── API responses ───────────────────────────────────────

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

type queryResponse struct {
	Error *apiError `json:"error"`
	Query struct {
		Random []struct {
			Title string `json:"title"`
		} `json:"random"`
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
		CategoryMembers []struct {
			Title string `json:"title"`
		} `json:"categorymembers"`
		Pages []struct {
			Title   string `json:"title"`
			Missing bool   `json:"missing"`
			Invalid bool   `json:"invalid"`
			Extract string `json:"extract"`
			FullURL string `json:"fullurl"`
		} `json:"pages"`
	} `json:"query"`
}

type parseResponse struct {
	Error *apiError `json:"error"`
	Parse struct {
		Sections []struct {
			TocLevel int `json:"toclevel"`
		} `json:"sections"`
	} `json:"parse"`
}

// ── Endpoints ───────────────────────────────────────────

// RandomTitle returns one random article title from the main namespace.
func (c *Client) RandomTitle(ctx context.Context) (string, error) {
	var resp queryResponse
	err := c.get(ctx, url.Values{
		"action":      {"query"},
		"list":        {"random"},
		"rnnamespace": {"0"},
		"rnlimit":     {"1"},
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("random title: %w", err)
	}
	if len(resp.Query.Random) == 0 {
		return "", fmt.Errorf("random title: empty result")
	}
	return resp.Query.Random[0].Title, nil
}

// Search runs a full-text search over article bodies and returns titles.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]string, error) {
	var resp queryResponse
	err := c.get(ctx, url.Values{
		"action":      {"query"},
		"list":        {"search"},
		"srsearch":    {query},
		"srnamespace": {"0"},
		"srlimit":     {strconv.Itoa(limit)},
		"srwhat":      {"text"},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	titles := make([]string, 0, len(resp.Query.Search))
	for _, r := range resp.Query.Search {
		titles = append(titles, r.Title)
	}
	return titles, nil
}

// CategoryMembers lists article titles in a category. The "Category:" prefix
// is added when missing.
func (c *Client) CategoryMembers(ctx context.Context, category string, limit int) ([]string, error) {
	if !strings.HasPrefix(category, "Category:") {
		category = "Category:" + category
	}
	var resp queryResponse
	err := c.get(ctx, url.Values{
		"action":  {"query"},
		"list":    {"categorymembers"},
		"cmtitle": {category},
		"cmlimit": {strconv.Itoa(limit)},
		"cmtype":  {"page"},
		"cmprop":  {"title"},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("category members %q: %w", category, err)
	}
	titles := make([]string, 0, len(resp.Query.CategoryMembers))
	for _, m := range resp.Query.CategoryMembers {
		titles = append(titles, m.Title)
	}
	return titles, nil
}

// Page fetches the intro summary, canonical URL and top-level section count.
// A missing article is returned with Exists=false and no error.
func (c *Client) Page(ctx context.Context, title string) (*Page, error) {
	var resp queryResponse
	err := c.get(ctx, url.Values{
		"action":      {"query"},
		"prop":        {"extracts|info"},
		"exintro":     {"1"},
		"explaintext": {"1"},
		"inprop":      {"url"},
		"redirects":   {"1"},
		"titles":      {title},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("fetch page %q: %w", title, err)
	}
	if len(resp.Query.Pages) == 0 {
		return &Page{Title: title}, nil
	}
	p := resp.Query.Pages[0]
	if p.Missing || p.Invalid {
		return &Page{Title: title}, nil
	}

	sections, err := c.sectionCount(ctx, p.Title)
	if err != nil {
		return nil, fmt.Errorf("fetch page %q: %w", title, err)
	}

	return &Page{
		Exists:       true,
		Title:        p.Title,
		URL:          p.FullURL,
		Summary:      strings.TrimSpace(p.Extract),
		SectionCount: sections,
	}, nil
}

func (c *Client) sectionCount(ctx context.Context, title string) (int, error) {
	var resp parseResponse
	err := c.get(ctx, url.Values{
		"action": {"parse"},
		"page":   {title},
		"prop":   {"sections"},
	}, &resp)
	if err != nil {
		return 0, fmt.Errorf("sections: %w", err)
	}
	n := 0
	for _, s := range resp.Parse.Sections {
		if s.TocLevel == 1 {
			n++
		}
	}
	return n, nil
}

type errorCarrier interface {
	apiErr() *apiError
}

func (r *queryResponse) apiErr() *apiError { return r.Error }
func (r *parseResponse) apiErr() *apiError { return r.Error }

// get performs one rate-limited GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, params url.Values, out errorCarrier) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	params.Set("format", "json")
	params.Set("formatversion", "2")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mediawiki error: status %d, body: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if e := out.apiErr(); e != nil {
		return fmt.Errorf("mediawiki error %s: %s", e.Code, e.Info)
	}
	return nil
}
