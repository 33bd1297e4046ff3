package fetch

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gocolly/colly/v2"

	"propwatch/internal/domain"
)

const defaultMinBodySize = 1000

// Options tune one Fetch call. The zero value is valid.
type Options struct {
	Timeout time.Duration
	// Scroll asks the headless strategy to scroll the page so lazy
	// content loads before the HTML is captured.
	Scroll  bool
	Referer string
}

// Client fetches listing HTML escalating through three strategies:
// a colly collector, a plain HTTP client, and finally a headless
// browser when one is configured. A page is accepted only when the
// status is 200, the body is larger than minBodySize and no anti-bot
// marker is present.
type Client struct {
	logger      *log.Logger
	httpClient  *http.Client
	headless    bool
	chromeBin   string
	minBodySize int
}

func NewClient(logger *log.Logger, chromeBin string, headless bool) *Client {
	return &Client{
		logger:      logger,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		headless:    headless,
		chromeBin:   chromeBin,
		minBodySize: defaultMinBodySize,
	}
}

func (c *Client) Fetch(ctx context.Context, pageURL string, opts Options) (string, error) {
	if c == nil {
		return "", fmt.Errorf("nil fetch client")
	}
	if strings.TrimSpace(pageURL) == "" {
		return "", fmt.Errorf("empty url")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	var errs []string

	html, err := c.fetchColly(ctx, pageURL, opts)
	if err == nil {
		return html, nil
	}
	errs = append(errs, fmt.Sprintf("colly: %v", err))
	if c.logger != nil {
		c.logger.Printf("[Fetch] colly failed url=%s err=%v", pageURL, err)
	}

	html, err = c.fetchHTTP(ctx, pageURL, opts)
	if err == nil {
		return html, nil
	}
	errs = append(errs, fmt.Sprintf("http: %v", err))
	if c.logger != nil {
		c.logger.Printf("[Fetch] http failed url=%s err=%v", pageURL, err)
	}

	if c.headless {
		html, err = c.fetchHeadless(ctx, pageURL, opts)
		if err == nil {
			return html, nil
		}
		errs = append(errs, fmt.Sprintf("headless: %v", err))
		if c.logger != nil {
			c.logger.Printf("[Fetch] headless failed url=%s err=%v", pageURL, err)
		}
	}

	return "", fmt.Errorf("%w: %s", domain.ErrFetchExhausted, strings.Join(errs, "; "))
}

func (c *Client) fetchColly(ctx context.Context, pageURL string, opts Options) (string, error) {
	col := colly.NewCollector(colly.AllowURLRevisit())
	col.SetRequestTimeout(opts.Timeout)

	var body []byte
	var status int
	var reqErr error

	col.OnRequest(func(r *colly.Request) {
		for k, v := range browserHeaders() {
			r.Headers.Set(k, v)
		}
		if opts.Referer != "" {
			r.Headers.Set("Referer", opts.Referer)
		}
	})
	col.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})
	col.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		reqErr = err
	})

	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if err := col.Visit(pageURL); err != nil {
		return "", err
	}
	col.Wait()
	if reqErr != nil {
		return "", reqErr
	}
	return c.accept(status, body)
}

func (c *Client) fetchHTTP(ctx context.Context, pageURL string, opts Options) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	for k, v := range browserHeaders() {
		req.Header.Set(k, v)
	}
	// net/http handles gzip itself when the header is left unset.
	req.Header.Del("Accept-Encoding")
	if opts.Referer != "" {
		req.Header.Set("Referer", opts.Referer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := readAllLimit(resp.Body, 10<<20)
	if err != nil {
		return "", err
	}
	return c.accept(resp.StatusCode, body)
}

// accept validates status, size and challenge markers and decodes the
// body, with a Latin-1 fallback for the portals that still serve it.
func (c *Client) accept(status int, body []byte) (string, error) {
	if status != http.StatusOK {
		return "", fmt.Errorf("status %d", status)
	}
	if len(body) < c.minBodySize {
		return "", fmt.Errorf("body too small (%d bytes)", len(body))
	}
	html := decodeBody(body)
	if marker := findChallengeMarker(html); marker != "" {
		return "", fmt.Errorf("bot challenge detected (%q)", marker)
	}
	return html, nil
}

func findChallengeMarker(html string) string {
	for _, m := range challengeMarkers {
		if strings.Contains(html, m) {
			return m
		}
	}
	return ""
}

func decodeBody(body []byte) string {
	if utf8.Valid(body) {
		return string(body)
	}
	runes := make([]rune, len(body))
	for i, b := range body {
		runes[i] = rune(b)
	}
	return string(runes)
}

func readAllLimit(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}
