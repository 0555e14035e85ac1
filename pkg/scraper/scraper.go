// Package scraper provides the HTTP fetching and HTML parsing layer shared
// by all news source adapters: a retrying client with a browser-like header
// profile, charset-aware decoding for Chinese portals, and small query
// helpers over golang.org/x/net/html node trees.
package scraper

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// browserHeaders mimics a desktop Chrome request. A few Chinese portals
// serve stripped or blocked pages to unknown user agents.
var browserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language":           "zh-CN,zh;q=0.9,en;q=0.8",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
	"Cache-Control":             "max-age=0",
}

// Backoff returns how long to wait before retry attempt n (1-based).
type Backoff func(attempt int) time.Duration

// UniformBackoff waits a uniformly random duration between min and max.
func UniformBackoff(min, max time.Duration) Backoff {
	return func(int) time.Duration {
		return min + time.Duration(rand.Int63n(int64(max-min)))
	}
}

// Options configures a Client.
type Options struct {
	Timeout time.Duration
	Retries int
	Headers map[string]string
	Backoff Backoff
}

// DefaultOptions matches the fetch policy shared by all sources:
// 10s per request, 3 attempts, 1-3s randomized wait between attempts.
func DefaultOptions() Options {
	return Options{
		Timeout: 10 * time.Second,
		Retries: 3,
		Backoff: UniformBackoff(1*time.Second, 3*time.Second),
	}
}

// Client fetches pages with retries and decodes them to UTF-8.
type Client struct {
	http    *http.Client
	retries int
	headers map[string]string
	backoff Backoff
}

// NewClient builds a Client from opts, filling in defaults for zero fields.
func NewClient(opts Options) *Client {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.Retries <= 0 {
		opts.Retries = def.Retries
	}
	if opts.Backoff == nil {
		opts.Backoff = def.Backoff
	}
	return &Client{
		http:    &http.Client{Timeout: opts.Timeout},
		retries: opts.Retries,
		headers: opts.Headers,
		backoff: opts.Backoff,
	}
}

// Get fetches url and returns the response body as UTF-8 text. It retries
// up to the configured attempt count, waiting between attempts, and honors
// context cancellation during both the request and the wait.
func (c *Client) Get(ctx context.Context, url string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		body, err := c.getOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if attempt == c.retries {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.backoff(attempt)):
		}
	}
	return "", fmt.Errorf("fetch %s after %d attempts: %w", url, c.retries, lastErr)
}

func (c *Client) getOnce(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	reader := decodeCharset(resp.Body, resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}

// decodeCharset converts GBK-family responses to UTF-8. Several mainland
// finance sites still serve gb2312/gbk pages.
func decodeCharset(r io.Reader, contentType string) io.Reader {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "gbk") || strings.Contains(ct, "gb2312") || strings.Contains(ct, "gb18030") {
		return transform.NewReader(r, simplifiedchinese.GB18030.NewDecoder())
	}
	return r
}

// --- HTML node helpers ---

// Parse parses an HTML document.
func Parse(content string) (*html.Node, error) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// FindAll walks the tree depth-first and returns every element matching fn.
func FindAll(n *html.Node, fn func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && fn(node) {
			out = append(out, node)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// First returns the first element matching fn, or nil.
func First(n *html.Node, fn func(*html.Node) bool) *html.Node {
	matches := FindAll(n, fn)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

// ByTag matches elements with the given tag name.
func ByTag(name string) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Data == name }
}

// ByClass matches elements whose class attribute contains name as a
// whitespace-separated token.
func ByClass(name string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		for _, c := range strings.Fields(Attr(n, "class")) {
			if c == name {
				return true
			}
		}
		return false
	}
}

// ByID matches the element with the given id attribute.
func ByID(id string) func(*html.Node) bool {
	return func(n *html.Node) bool { return Attr(n, "id") == id }
}

// Attr returns the value of the named attribute, or "".
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// skipTags are stripped when extracting article text.
var skipTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "iframe": true,
	"svg": true, "nav": true, "footer": true, "header": true,
}

// Text returns the visible text under n with scripts, styles, and page
// chrome removed, whitespace-collapsed.
func Text(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && skipTags[node.Data] {
			return
		}
		if node.Type == html.TextNode {
			if t := strings.TrimSpace(node.Data); t != "" {
				sb.WriteString(t)
				sb.WriteString(" ")
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

// Title returns the document's <title> text, or "".
func Title(doc *html.Node) string {
	t := First(doc, ByTag("title"))
	if t == nil || t.FirstChild == nil {
		return ""
	}
	return strings.TrimSpace(t.FirstChild.Data)
}
