package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	BasePath         = "/api/v1"
	defaultUserAgent = "rssant-cli/0.1"
	maxErrorBody     = 64 << 10
	maxResponseBody  = 16 << 20
)

type Options struct {
	BaseURL     string
	Timeout     time.Duration
	UserAgent   string
	Debug       bool
	RatePerSec  float64
	Credentials Credentials
	Notifier    Notifier
	Logger      *zap.Logger
	HTTPClient  *http.Client
}

// Client talks to the /api/v1 endpoints. Every call is a single attempt.
type Client struct {
	base        *url.URL
	http        *http.Client
	userAgent   string
	debug       bool
	limiter     *rate.Limiter
	credentials Credentials
	notifier    Notifier
	log         *zap.Logger
}

func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", opts.BaseURL)
	}
	base.Path = strings.TrimRight(base.Path, "/") + BasePath

	httpClient := opts.HTTPClient
	if httpClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		httpClient = &http.Client{
			Timeout: opts.Timeout,
			Jar:     jar,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				ForceAttemptHTTP2:   true,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
			},
		}
	}

	creds := opts.Credentials
	if creds == nil {
		creds = CookieToken{Jar: httpClient.Jar, Base: base}
	} else if httpClient.Jar != nil {
		creds = FirstToken{creds, CookieToken{Jar: httpClient.Jar, Base: base}}
	}

	c := &Client{
		base:        base,
		http:        httpClient,
		userAgent:   opts.UserAgent,
		debug:       opts.Debug,
		credentials: creds,
		notifier:    opts.Notifier,
		log:         opts.Logger,
	}
	if c.userAgent == "" {
		c.userAgent = defaultUserAgent
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if opts.RatePerSec > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), 1)
	}
	return c, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + path
	u.RawQuery = query.Encode()
	return u.String()
}

// do performs one request. in is JSON-encoded when non-nil; out is decoded
// from a 2xx body when non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	target := c.endpoint(path, query)
	fail := func(e *Error) error {
		c.report(e)
		return e
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fail(&Error{Method: method, URL: target, Err: fmt.Errorf("rate limiter: %w", err)})
		}
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fail(&Error{Method: method, URL: target, Err: fmt.Errorf("marshal request: %w", err)})
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fail(&Error{Method: method, URL: target, Err: err})
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.credentials.CSRFToken(); tok != "" {
		req.Header.Set(csrfHeader, tok)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fail(&Error{Method: method, URL: target, Err: err})
	}
	defer resp.Body.Close()

	c.log.Debug("api call",
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)),
	)
	if c.debug {
		if serverTime := resp.Header.Get("X-Time"); serverTime != "" {
			c.log.Debug("server timing", zap.String("url", target), zap.String("x_time", serverTime))
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e := &Error{Method: method, URL: target, StatusCode: resp.StatusCode, Status: statusLine(resp)}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		e.Code, e.Message = parseErrorBody(raw)
		return fail(e)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(out); err != nil {
		return fail(&Error{Method: method, URL: target, Err: fmt.Errorf("decode response: %w", err)})
	}
	return nil
}

// report hands a failure to the notifier in debug mode. It never changes the
// returned error.
func (c *Client) report(e *Error) {
	c.log.Debug("api call failed", zap.String("method", e.Method), zap.String("url", e.URL), zap.Error(e))
	if !c.debug || c.notifier == nil {
		return
	}
	c.notifier.Notify(e.Title(), e.Summary())
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func parseErrorBody(raw []byte) (code, message string) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", ""
	}
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", compactText(string(raw), 200)
	}
	message = body.Message
	if message == "" {
		message = body.Detail
	}
	if message == "" {
		// field-keyed validation errors: {"url": ["invalid url"]}
		var fields map[string]any
		if json.Unmarshal(raw, &fields) == nil {
			message = compactText(fmt.Sprint(fields), 200)
		}
	}
	return body.Code, message
}

func compactText(v string, max int) string {
	v = strings.Join(strings.Fields(v), " ")
	runes := []rune(v)
	if max <= 0 || len(runes) <= max {
		return v
	}
	return string(runes[:max-1]) + "..."
}
