package content

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"
)

const maxProbeBody = 8 << 20

// NormalizeURL trims raw and defaults the scheme to https. Only http and https
// urls with a host are accepted.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("url is required")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid url %q", raw)
	}
	return u.String(), nil
}

// Discovery is the outcome of probing a url for a feed.
type Discovery struct {
	FeedURL string
	Title   string
	// Direct is true when the probed url already was a feed.
	Direct bool
}

// Discoverer finds the feed behind a url before it is submitted to the server.
type Discoverer struct {
	client    *http.Client
	parser    *gofeed.Parser
	userAgent string
}

func NewDiscoverer(client *http.Client, timeout time.Duration, userAgent string) *Discoverer {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = "rssant-cli/0.1"
	}
	return &Discoverer{client: client, parser: gofeed.NewParser(), userAgent: userAgent}
}

// Discover returns rawURL itself when it serves a feed, otherwise the first
// feed advertised by the page's <link rel="alternate"> elements.
func (d *Discoverer) Discover(ctx context.Context, rawURL string) (Discovery, error) {
	target, err := NormalizeURL(rawURL)
	if err != nil {
		return Discovery{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Discovery{}, err
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "application/xml, application/atom+xml, application/rss+xml, application/feed+json, text/xml, text/html, */*;q=0.8")

	resp, err := d.client.Do(req)
	if err != nil {
		return Discovery{}, fmt.Errorf("probe %s: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProbeBody))
	if err != nil {
		return Discovery{}, fmt.Errorf("read %s: %w", target, err)
	}
	if len(body) == 0 {
		return Discovery{}, fmt.Errorf("empty response body from %s", target)
	}

	effective := target
	if resp.Request != nil && resp.Request.URL != nil {
		effective = resp.Request.URL.String()
	}

	if parsed, err := d.parser.Parse(bytes.NewReader(body)); err == nil {
		return Discovery{FeedURL: effective, Title: strings.TrimSpace(parsed.Title), Direct: true}, nil
	}

	base, err := url.Parse(effective)
	if err != nil {
		return Discovery{}, err
	}
	if links := feedLinks(body, base); len(links) > 0 {
		return Discovery{FeedURL: links[0].href, Title: links[0].title}, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Discovery{}, fmt.Errorf("probe %s: %s", effective, resp.Status)
	}
	return Discovery{}, fmt.Errorf("no feed discovered at %s", effective)
}

type feedLink struct {
	href  string
	title string
}

// feedLinks collects alternate feed links from an html page, resolved against
// the page url or its <base href>.
func feedLinks(body []byte, page *url.URL) []feedLink {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	base := page
	if href := firstBaseHref(root); href != "" {
		if u, err := url.Parse(href); err == nil {
			base = page.ResolveReference(u)
		}
	}

	var out []feedLink
	seen := map[string]struct{}{}
	walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode || !strings.EqualFold(n.Data, "link") {
			return true
		}
		attrs := attrMap(n)
		href := strings.TrimSpace(attrs["href"])
		kind := strings.ToLower(strings.TrimSpace(attrs["type"]))
		if href == "" || !hasRel(attrs["rel"], "alternate") || !looksLikeFeed(kind, href) {
			return true
		}
		if kind == "application/json" && strings.Contains(strings.ToLower(href), "/wp-json/") {
			return true
		}
		u, err := url.Parse(href)
		if err != nil {
			return true
		}
		abs := base.ResolveReference(u).String()
		if _, dup := seen[abs]; !dup {
			seen[abs] = struct{}{}
			out = append(out, feedLink{href: abs, title: strings.TrimSpace(attrs["title"])})
		}
		return true
	})
	return out
}

func firstBaseHref(root *html.Node) string {
	var found string
	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, "base") {
			if href := strings.TrimSpace(attrMap(n)["href"]); href != "" {
				found = href
				return false
			}
		}
		return true
	})
	return found
}

// walk visits n depth-first until visit returns false.
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if !visit(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, visit) {
			return false
		}
	}
	return true
}

func hasRel(rel, want string) bool {
	for _, token := range strings.Fields(strings.ToLower(rel)) {
		if token == want {
			return true
		}
	}
	return false
}

func looksLikeFeed(kind, href string) bool {
	switch kind {
	case "application/rss+xml", "application/atom+xml", "application/feed+json", "application/json", "application/xml", "text/xml":
		return true
	}
	if kind != "" {
		return strings.Contains(kind, "rss") || strings.Contains(kind, "atom") || strings.Contains(kind, "feed")
	}

	h := strings.ToLower(href)
	p := h
	if u, err := url.Parse(href); err == nil && u.Path != "" {
		p = strings.ToLower(u.Path)
	}
	switch path.Ext(p) {
	case ".rss", ".atom", ".xml", ".json":
		return true
	}
	return strings.Contains(h, "/feed") || strings.Contains(h, "rss") || strings.Contains(h, "atom")
}

func attrMap(n *html.Node) map[string]string {
	m := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		m[strings.ToLower(a.Key)] = a.Val
	}
	return m
}
