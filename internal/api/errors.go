package api

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

var (
	// ErrTransport covers calls that got no response or a non-2xx status that
	// is not otherwise classified.
	ErrTransport  = errors.New("transport failure")
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failure")
)

// Error is a failed API call.
type Error struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Code       string
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s %s: %s: %s", e.Method, e.URL, e.Status, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	default:
		return fmt.Sprintf("%s %s failed", e.Method, e.URL)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrValidation:
		return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
	case ErrTransport:
		return e.StatusCode != http.StatusNotFound &&
			e.StatusCode != http.StatusBadRequest &&
			e.StatusCode != http.StatusUnprocessableEntity
	}
	return false
}

// Title is the headline used when the failure is shown to a person: the
// server error code, else the status line, else the request.
func (e *Error) Title() string {
	if e.Code != "" {
		return e.Code
	}
	if e.StatusCode != 0 {
		return e.Status
	}
	return fmt.Sprintf("Failed: %s %s", strings.ToLower(e.Method), e.URL)
}

// Summary is the message shortened for a notification.
func (e *Error) Summary() string {
	msg := e.Message
	if msg == "" && e.StatusCode != 0 {
		msg = fmt.Sprintf("request failed with status code %d", e.StatusCode)
	}
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return truncateAt(msg, notifyMessageLen)
}

const notifyMessageLen = 50

var truncateSeparator = regexp.MustCompile(`,? +`)

// truncateAt shortens s to at most max runes including a trailing "...".
// Unless the cut already falls right before a separator, the kept part is
// trimmed back to the last separator it contains.
func truncateAt(s string, max int) string {
	const omission = "..."
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	end := max - len(omission)
	if end < 1 {
		return omission
	}
	head := string(runes[:end])
	rest := string(runes[end:])
	if loc := truncateSeparator.FindStringIndex(rest); loc != nil && loc[0] == 0 {
		return head + omission
	}
	if locs := truncateSeparator.FindAllStringIndex(head, -1); len(locs) > 0 {
		head = head[:locs[len(locs)-1][0]]
	}
	return head + omission
}

// statusLine renders "404 Not Found" from a response.
func statusLine(resp *http.Response) string {
	if resp.Status != "" {
		return resp.Status
	}
	return fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}
