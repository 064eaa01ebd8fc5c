package content

import (
	"strings"

	"golang.org/x/net/html"
)

var droppedTags = map[string]struct{}{
	"base":     {},
	"embed":    {},
	"form":     {},
	"iframe":   {},
	"input":    {},
	"link":     {},
	"meta":     {},
	"noscript": {},
	"object":   {},
	"script":   {},
	"style":    {},
	"textarea": {},
}

// Sanitize strips active content from story html: scripts, frames, event
// handler and style attributes, and javascript/data urls other than inline
// images.
func Sanitize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	doc, err := html.Parse(strings.NewReader("<body>" + raw + "</body>"))
	if err != nil {
		return raw
	}
	var body *html.Node
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, "body") {
			body = n
			return false
		}
		return true
	})
	if body == nil {
		return raw
	}

	var b strings.Builder
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if clean := cleanNode(c); clean != nil {
			_ = html.Render(&b, clean)
		}
	}
	return strings.TrimSpace(b.String())
}

func cleanNode(n *html.Node) *html.Node {
	switch n.Type {
	case html.TextNode:
		return &html.Node{Type: html.TextNode, Data: n.Data}
	case html.CommentNode:
		return nil
	case html.ElementNode:
		tag := strings.ToLower(strings.TrimSpace(n.Data))
		if _, drop := droppedTags[tag]; drop {
			return nil
		}
		clone := &html.Node{Type: html.ElementNode, Data: n.Data, Namespace: n.Namespace}
		for _, a := range n.Attr {
			if keepAttr(tag, a) {
				clone.Attr = append(clone.Attr, a)
			}
		}
		return cleanChildren(n, clone)
	default:
		return cleanChildren(n, &html.Node{Type: n.Type, Data: n.Data, Namespace: n.Namespace})
	}
}

func cleanChildren(src, dst *html.Node) *html.Node {
	for c := src.FirstChild; c != nil; c = c.NextSibling {
		if child := cleanNode(c); child != nil {
			dst.AppendChild(child)
		}
	}
	return dst
}

func keepAttr(tag string, a html.Attribute) bool {
	k := strings.ToLower(strings.TrimSpace(a.Key))
	if k == "" || strings.HasPrefix(k, "on") || k == "style" || k == "srcdoc" {
		return false
	}
	switch k {
	case "href", "src", "poster", "cite", "action", "formaction", "data":
		return safeURL(a.Val, tag, k)
	}
	return true
}

func safeURL(v, tag, attr string) bool {
	u := strings.ToLower(strings.TrimSpace(v))
	switch {
	case u == "":
		return true
	case strings.HasPrefix(u, "javascript:"), strings.HasPrefix(u, "vbscript:"):
		return false
	case strings.HasPrefix(u, "data:"):
		return tag == "img" && attr == "src" && strings.HasPrefix(u, "data:image/")
	}
	return true
}
