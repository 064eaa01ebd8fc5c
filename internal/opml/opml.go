package opml

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/odysseus0/rssant/internal/model"
)

type document struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr,omitempty"`
	Head    head     `xml:"head"`
	Body    body     `xml:"body"`
}

type head struct {
	Title string `xml:"title,omitempty"`
}

type body struct {
	Outlines []outline `xml:"outline"`
}

type outline struct {
	Text         string    `xml:"text,attr,omitempty"`
	Title        string    `xml:"title,attr,omitempty"`
	Type         string    `xml:"type,attr,omitempty"`
	XMLURL       string    `xml:"xmlUrl,attr,omitempty"`
	XMLURLLower  string    `xml:"xmlurl,attr,omitempty"`
	HTMLURL      string    `xml:"htmlUrl,attr,omitempty"`
	HTMLURLLower string    `xml:"htmlurl,attr,omitempty"`
	Outlines     []outline `xml:"outline,omitempty"`
}

func (o outline) feedURL() string {
	if v := strings.TrimSpace(o.XMLURL); v != "" {
		return v
	}
	return strings.TrimSpace(o.XMLURLLower)
}

// Open reads an OPML document from a local path or an http(s) url.
func Open(ctx context.Context, client *http.Client, src string) ([]string, error) {
	r, err := open(ctx, client, src)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	urls, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", src, err)
	}
	return urls, nil
}

func open(ctx context.Context, client *http.Client, src string) (io.ReadCloser, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return os.Open(src)
	}
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: %s", src, resp.Status)
	}
	return resp.Body, nil
}

// Parse returns the unique feed urls of every outline, nested ones included,
// in document order.
func Parse(r io.Reader) ([]string, error) {
	var doc document
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}

	var urls []string
	seen := map[string]struct{}{}
	var collect func([]outline)
	collect = func(outlines []outline) {
		for _, o := range outlines {
			if u := o.feedURL(); u != "" {
				if _, dup := seen[u]; !dup {
					seen[u] = struct{}{}
					urls = append(urls, u)
				}
			}
			collect(o.Outlines)
		}
	}
	collect(doc.Body.Outlines)
	return urls, nil
}

// Write renders feeds as an OPML 2.0 subscription list.
func Write(w io.Writer, feeds []model.Feed) error {
	outlines := make([]outline, 0, len(feeds))
	for _, f := range feeds {
		o := outline{
			Text:   f.DisplayTitle(),
			Title:  f.DisplayTitle(),
			Type:   "rss",
			XMLURL: f.URL,
		}
		if f.Data != nil {
			o.HTMLURL = f.Data.Link
		}
		outlines = append(outlines, o)
	}

	doc := document{
		Version: "2.0",
		Head:    head{Title: "rssant export"},
		Body: body{Outlines: []outline{{
			Text:     "Subscriptions",
			Title:    "Subscriptions",
			Outlines: outlines,
		}}},
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Flush()
}
