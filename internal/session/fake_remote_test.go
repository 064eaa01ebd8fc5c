package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/odysseus0/rssant/internal/api"
	"github.com/odysseus0/rssant/internal/model"
	"github.com/odysseus0/rssant/internal/store"
)

var errUnexpected = errors.New("unexpected call")

// fakeRemote dispatches to per-endpoint funcs and counts calls.
type fakeRemote struct {
	mu    sync.Mutex
	calls map[string]int

	listFeeds   func(opts model.FeedListOptions) (model.Page[model.Feed], error)
	createFeed  func(feedURL string) (model.Feed, error)
	getFeed     func(id int64, detail bool) (model.Feed, error)
	getFeedCtx  func(ctx context.Context, id int64) (model.Feed, error)
	updateFeed  func(id int64, feedURL string) (model.Feed, error)
	deleteFeed  func(id int64) error
	listStories func(opts model.StoryListOptions) (model.Page[model.Story], error)
	getStory    func(id int64, opts model.StoryOptions) (model.Story, error)
}

func (f *fakeRemote) count(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
}

func (f *fakeRemote) called(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeRemote) ListFeeds(_ context.Context, opts model.FeedListOptions) (model.Page[model.Feed], error) {
	f.count("ListFeeds")
	if f.listFeeds == nil {
		return model.Page[model.Feed]{}, errUnexpected
	}
	return f.listFeeds(opts)
}

func (f *fakeRemote) CreateFeed(_ context.Context, feedURL string) (model.Feed, error) {
	f.count("CreateFeed")
	if f.createFeed == nil {
		return model.Feed{}, errUnexpected
	}
	return f.createFeed(feedURL)
}

func (f *fakeRemote) GetFeed(ctx context.Context, id int64, detail bool) (model.Feed, error) {
	f.count("GetFeed")
	if err := ctx.Err(); err != nil {
		return model.Feed{}, err
	}
	if f.getFeedCtx != nil {
		return f.getFeedCtx(ctx, id)
	}
	if f.getFeed == nil {
		return model.Feed{}, errUnexpected
	}
	return f.getFeed(id, detail)
}

func (f *fakeRemote) UpdateFeed(_ context.Context, id int64, feedURL string) (model.Feed, error) {
	f.count("UpdateFeed")
	if f.updateFeed == nil {
		return model.Feed{}, errUnexpected
	}
	return f.updateFeed(id, feedURL)
}

func (f *fakeRemote) DeleteFeed(_ context.Context, id int64) error {
	f.count("DeleteFeed")
	if f.deleteFeed == nil {
		return errUnexpected
	}
	return f.deleteFeed(id)
}

func (f *fakeRemote) ListStories(_ context.Context, opts model.StoryListOptions) (model.Page[model.Story], error) {
	f.count("ListStories")
	if f.listStories == nil {
		return model.Page[model.Story]{}, errUnexpected
	}
	return f.listStories(opts)
}

func (f *fakeRemote) GetStory(_ context.Context, id int64, opts model.StoryOptions) (model.Story, error) {
	f.count("GetStory")
	if f.getStory == nil {
		return model.Story{}, errUnexpected
	}
	return f.getStory(id, opts)
}

func newTestSession(t *testing.T, remote *fakeRemote, tries int) *Session {
	t.Helper()
	s := New(store.New(), remote, Options{
		PollInterval: time.Millisecond,
		PollTries:    tries,
	})
	t.Cleanup(s.Close)
	return s
}

func ts(t *testing.T, v string) model.Timestamp {
	t.Helper()
	parsed, err := model.ParseTimestamp(v)
	if err != nil {
		t.Fatalf("parse %q: %v", v, err)
	}
	return parsed
}

func feedIDs(feeds []model.Feed) []int64 {
	out := make([]int64, 0, len(feeds))
	for _, f := range feeds {
		out = append(out, f.ID)
	}
	return out
}

func serverError() error {
	return &api.Error{Method: "GET", URL: "/api/v1/feed/1", StatusCode: 502, Status: "502 Bad Gateway"}
}
