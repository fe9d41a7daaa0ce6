// Package fetcher downloads comment feeds and audits their entries against
// the moderation rules.
package fetcher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/mmcdole/gofeed"

	"studentpress/internal/moderation"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Checker sanitizes a comment body and moderates it.
type Checker interface {
	Check(body string) (string, moderation.Verdict)
}

// AuditItem is one feed entry with the verdict its body received.
type AuditItem struct {
	GUID    string
	Title   string
	Link    string
	Author  string
	Body    string
	Verdict moderation.Verdict
}

// Report holds the outcome of auditing a whole feed.
type Report struct {
	Title    string
	Items    []AuditItem
	Rejected int
}

// Fetcher downloads and parses comment feeds.
type Fetcher struct {
	client  HTTPClient
	timeout time.Duration
}

// New creates a Fetcher with the given HTTP client.
func New(client HTTPClient) *Fetcher {
	return &Fetcher{
		client:  client,
		timeout: 30 * time.Second,
	}
}

// Fetch downloads and parses an RSS or Atom feed from the given URL.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*gofeed.Feed, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "studentpress-audit/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

// Audit fetches the feed at url and moderates every entry.
func (f *Fetcher) Audit(ctx context.Context, url string, checker Checker) (*Report, error) {
	feed, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	r := &Report{Title: feed.Title, Items: AuditItems(feed.Items, checker)}
	for _, item := range r.Items {
		if !item.Verdict.Clean {
			r.Rejected++
		}
	}
	return r, nil
}

// AuditItems moderates the text of each item, preserving feed order.
func AuditItems(items []*gofeed.Item, checker Checker) []AuditItem {
	out := make([]AuditItem, 0, len(items))
	for _, item := range items {
		body, verdict := checker.Check(ItemText(item))
		ai := AuditItem{
			GUID:    ItemGUID(item),
			Title:   item.Title,
			Link:    item.Link,
			Body:    body,
			Verdict: verdict,
		}
		if item.Author != nil {
			ai.Author = item.Author.Name
		}
		out = append(out, ai)
	}
	return out
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

// ItemText returns the plain text of an entry: content if present, else the
// description, with markup removed and entities decoded.
func ItemText(item *gofeed.Item) string {
	text := item.Content
	if text == "" {
		text = item.Description
	}
	return html.UnescapeString(tagRe.ReplaceAllString(text, " "))
}

// ItemGUID returns the GUID for a feed item.
// If the item has no GUID, a SHA-256 hash of title+link is used.
func ItemGUID(item *gofeed.Item) string {
	if item.GUID != "" {
		return item.GUID
	}
	h := sha256.Sum256([]byte(item.Title + "|" + item.Link))
	return fmt.Sprintf("sha256:%x", h[:16])
}
