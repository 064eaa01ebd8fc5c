package api

import (
	"net/http"
	"net/url"
	"strings"
)

const (
	csrfHeader = "X-CSRFToken"
	csrfCookie = "csrftoken"
)

// Credentials supplies the anti-forgery token attached to every request.
// An empty token means the header is omitted.
type Credentials interface {
	CSRFToken() string
}

type StaticToken string

func (t StaticToken) CSRFToken() string {
	return strings.TrimSpace(string(t))
}

// CookieToken reads the csrftoken cookie the server set for the API host.
type CookieToken struct {
	Jar  http.CookieJar
	Base *url.URL
}

func (c CookieToken) CSRFToken() string {
	if c.Jar == nil || c.Base == nil {
		return ""
	}
	for _, cookie := range c.Jar.Cookies(c.Base) {
		if cookie.Name == csrfCookie {
			return cookie.Value
		}
	}
	return ""
}

// FirstToken returns the first non-empty token among sources.
type FirstToken []Credentials

func (f FirstToken) CSRFToken() string {
	for _, src := range f {
		if src == nil {
			continue
		}
		if tok := src.CSRFToken(); tok != "" {
			return tok
		}
	}
	return ""
}
