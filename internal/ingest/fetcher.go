package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/net/html"
)

// Fetcher downloads documents for ingestion. It respects robots.txt and
// caps response bodies.
type Fetcher struct {
	httpClient *http.Client
	robots     *robotsChecker
	userAgent  string
	maxBytes   int64
}

// NewFetcher creates a fetcher with the given HTTP settings
func NewFetcher(timeout time.Duration, userAgent string, maxBytes int64) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		robots:    newRobotsChecker(userAgent, timeout),
		userAgent: userAgent,
		maxBytes:  maxBytes,
	}
}

// FetchResult is one downloaded document reduced to plain text
type FetchResult struct {
	Text        string
	Title       string
	FinalURL    string
	ContentType string
}

// Fetch downloads rawURL and extracts its readable text. Disallowed URLs
// (robots.txt) return an error rather than an empty result.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	allowed, crawlDelay, err := f.robots.canFetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("robots check: %w", err)
	}
	if !allowed {
		return nil, fmt.Errorf("disallowed by robots.txt: %s", rawURL)
	}
	if crawlDelay > 0 {
		select {
		case <-time.After(crawlDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	result := &FetchResult{
		FinalURL:    resp.Request.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
	}

	if strings.Contains(result.ContentType, "html") {
		result.Text, result.Title = extractText(string(body))
	} else {
		result.Text = string(body)
	}
	if result.Title == "" {
		result.Title = subjectFromURL(result.FinalURL)
	}

	return result, nil
}

// skipElements are HTML elements whose text is never document content
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"nav":      true,
	"footer":   true,
	"header":   true,
	"aside":    true,
	"noscript": true,
}

// extractText strips an HTML document down to its readable text and title
func extractText(htmlText string) (text, title string) {
	doc, err := html.Parse(strings.NewReader(htmlText))
	if err != nil {
		return htmlText, ""
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if skipElements[n.Data] {
				return
			}
			if n.Data == "title" && title == "" {
				if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
				return
			}
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				b.WriteString(t)
				b.WriteString(" ")
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
		// Block elements end a paragraph
		if n.Type == html.ElementNode && blockElements[n.Data] && b.Len() > 0 {
			b.WriteString("\n\n")
		}
	}
	walk(doc)

	return collapseWhitespace(b.String()), title
}

var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "tr": true, "blockquote": true, "pre": true,
}

// collapseWhitespace normalizes runs of blank lines and trailing spaces
func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// subjectFromURL derives a readable document name from a URL
func subjectFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	path := strings.Trim(parsed.Path, "/")
	if path == "" {
		return parsed.Host
	}

	segments := strings.Split(path, "/")
	last := segments[len(segments)-1]
	last = strings.ReplaceAll(last, "_", " ")
	last = strings.ReplaceAll(last, "-", " ")
	if idx := strings.LastIndex(last, "."); idx > 0 {
		last = last[:idx]
	}
	return last
}

// robotsChecker caches per-host robots.txt verdicts
type robotsChecker struct {
	cache      map[string]*robotstxt.RobotsData
	mu         sync.RWMutex
	httpClient *http.Client
	userAgent  string
}

func newRobotsChecker(userAgent string, timeout time.Duration) *robotsChecker {
	return &robotsChecker{
		cache:      make(map[string]*robotstxt.RobotsData),
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
	}
}

// canFetch reports whether rawURL may be fetched and any crawl delay.
// An unreachable robots.txt allows the fetch.
func (r *robotsChecker) canFetch(ctx context.Context, rawURL string) (bool, time.Duration, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, 0, fmt.Errorf("parse URL: %w", err)
	}

	data, err := r.robotsData(ctx, parsed.Scheme, parsed.Host)
	if err != nil {
		return true, 0, nil
	}

	allowed := data.TestAgent(parsed.Path, r.userAgent)

	var crawlDelay time.Duration
	if group := data.FindGroup(r.userAgent); group != nil {
		crawlDelay = group.CrawlDelay
	}
	return allowed, crawlDelay, nil
}

func (r *robotsChecker) robotsData(ctx context.Context, scheme, host string) (*robotstxt.RobotsData, error) {
	r.mu.RLock()
	data, ok := r.cache[host]
	r.mu.RUnlock()
	if ok {
		return data, nil
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", scheme, host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err = robotstxt.FromResponse(resp)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[host] = data
	r.mu.Unlock()
	return data, nil
}
