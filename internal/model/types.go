package model

import (
	"fmt"
	"strings"
)

type OutputFormat string

const (
	OutputTable OutputFormat = "table"
	OutputJSON  OutputFormat = "json"
	OutputWide  OutputFormat = "wide"
)

type FeedStatus string

const (
	FeedPending FeedStatus = "pending"
	FeedReady   FeedStatus = "ready"
	FeedError   FeedStatus = "error"
)

// Terminal reports whether the server has finished processing the feed.
func (s FeedStatus) Terminal() bool {
	return s == FeedReady || s == FeedError
}

func (s *FeedStatus) UnmarshalText(b []byte) error {
	v := FeedStatus(strings.ToLower(strings.TrimSpace(string(b))))
	switch v {
	case FeedPending, FeedReady, FeedError:
		*s = v
		return nil
	case "":
		*s = FeedPending
		return nil
	default:
		return fmt.Errorf("unknown feed status %q", string(b))
	}
}

// Feed is the server representation of a subscription. Data is only present
// when the feed was fetched with detail.
type Feed struct {
	ID        int64      `json:"id"`
	URL       string     `json:"url"`
	Title     string     `json:"title,omitempty"`
	Status    FeedStatus `json:"status"`
	DtUpdated Timestamp  `json:"dt_updated"`
	Data      *FeedData  `json:"data,omitempty"`
}

type FeedData struct {
	Link        string     `json:"link,omitempty"`
	Author      string     `json:"author,omitempty"`
	Description string     `json:"description,omitempty"`
	Version     string     `json:"version,omitempty"`
	TotalStory  int        `json:"total_storys,omitempty"`
	DtChecked   *Timestamp `json:"dt_checked,omitempty"`
	DtSynced    *Timestamp `json:"dt_synced,omitempty"`
}

func (f Feed) EntityID() int64      { return f.ID }
func (f Feed) Updated() Timestamp   { return f.DtUpdated }
func (f Feed) DetailLoaded() bool   { return f.Data != nil }
func (f Feed) DisplayTitle() string { return fallback(f.Title, f.URL) }

// KeepDetail returns f carrying prev's data when f itself is summary-only.
func (f Feed) KeepDetail(prev Feed) Feed {
	if f.Data == nil && prev.Data != nil {
		f.Data = prev.Data
	}
	return f
}

// FeedRef is the parent feed embedded in a story.
type FeedRef struct {
	ID    int64  `json:"id"`
	Title string `json:"title,omitempty"`
}

type Story struct {
	ID          int64      `json:"id"`
	Feed        FeedRef    `json:"feed"`
	Title       string     `json:"title,omitempty"`
	Link        string     `json:"link,omitempty"`
	DtPublished *Timestamp `json:"dt_published,omitempty"`
	DtUpdated   Timestamp  `json:"dt_updated"`
	Data        *StoryData `json:"data,omitempty"`
}

type StoryData struct {
	Author  string `json:"author,omitempty"`
	Summary string `json:"summary,omitempty"`
	Content string `json:"content,omitempty"`
}

func (s Story) EntityID() int64    { return s.ID }
func (s Story) Updated() Timestamp { return s.DtUpdated }
func (s Story) DetailLoaded() bool { return s.Data != nil }

func (s Story) KeepDetail(prev Story) Story {
	if s.Data == nil && prev.Data != nil {
		s.Data = prev.Data
	}
	return s
}

// Page is one cursor window of a list endpoint. An empty Next means there are
// no further pages.
type Page[T any] struct {
	Results []T    `json:"results"`
	Next    string `json:"next"`
	Size    int    `json:"size"`
}

type FeedListOptions struct {
	Detail bool   `json:"detail,omitempty"`
	Cursor string `json:"-"`
	Size   int    `json:"size,omitempty"`
}

type StoryListOptions struct {
	FeedID int64  `json:"feed_id,omitempty"`
	Detail bool   `json:"detail,omitempty"`
	Data   bool   `json:"data,omitempty"`
	Cursor string `json:"-"`
	Size   int    `json:"size,omitempty"`
}

type StoryOptions struct {
	Detail bool
	Data   bool
}

type ImportResult struct {
	InputURL string `json:"input_url"`
	FeedID   int64  `json:"feed_id,omitempty"`
	Status   string `json:"status,omitempty"`
	Error    string `json:"error,omitempty"`
}

type ImportReport struct {
	File    string         `json:"file"`
	Total   int            `json:"total"`
	Added   int            `json:"added"`
	Failed  int            `json:"failed"`
	Results []ImportResult `json:"results"`
}

func fallback(v, fb string) string {
	if strings.TrimSpace(v) == "" {
		return fb
	}
	return v
}
