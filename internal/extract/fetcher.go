package extract

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/mohammad-safakhou/readmode/config"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (compatible; ReadMode/1.0; +https://github.com/mohammad-safakhou/readmode)"
	// maxBodyBytes caps how much of a page the HTTP fetcher reads.
	maxBodyBytes = 8 << 20
)

// HTMLFetcher loads the raw HTML of a page.
type HTMLFetcher interface {
	FetchHTML(ctx context.Context, url string) (string, error)
}

type FetcherType string

const (
	HTTPFetcherType     FetcherType = "http"
	ChromedpFetcherType FetcherType = "chromedp"
)

// NewFetcher returns the fetcher named by t.
func NewFetcher(t FetcherType, timeout time.Duration, userAgent string) (HTMLFetcher, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = DefaultUserAgent
	}
	switch t {
	case HTTPFetcherType, "":
		return &HTTPFetcher{Client: &http.Client{Timeout: timeout}, UserAgent: userAgent}, nil
	case ChromedpFetcherType:
		return &ChromeFetcher{Timeout: timeout, UserAgent: userAgent}, nil
	default:
		return nil, fmt.Errorf("unsupported fetcher type: %s", t)
	}
}

// FetchError reports a non-success HTTP status.
type FetchError struct {
	URL    string
	Status int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
}

// HTTPFetcher does a plain GET; it sees only server-rendered markup.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
}

func (f *HTTPFetcher) FetchHTML(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", f.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{URL: url, Status: resp.StatusCode}
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return "", fmt.Errorf("fetch %s: not an html page (%s)", url, ct)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// ChromeFetcher renders the page in headless Chrome before reading the DOM.
type ChromeFetcher struct {
	Timeout   time.Duration
	UserAgent string
}

func (f *ChromeFetcher) FetchHTML(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.UserAgent(f.UserAgent),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
}

// NewFromConfig builds an Extractor with the configured fetcher.
func NewFromConfig(cfg config.ExtractConfig, logger *log.Logger) (*Extractor, error) {
	f, err := NewFetcher(FetcherType(cfg.Fetcher), cfg.Timeout, cfg.UserAgent)
	if err != nil {
		return nil, err
	}
	return New(f, logger), nil
}
