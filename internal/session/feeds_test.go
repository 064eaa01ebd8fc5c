package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/odysseus0/rssant/internal/api"
	"github.com/odysseus0/rssant/internal/model"
	"github.com/odysseus0/rssant/internal/store"
)

func TestListThenListMoreFollowsCursor(t *testing.T) {
	var seen []model.FeedListOptions
	remote := &fakeRemote{}
	remote.listFeeds = func(opts model.FeedListOptions) (model.Page[model.Feed], error) {
		seen = append(seen, opts)
		switch opts.Cursor {
		case "":
			return model.Page[model.Feed]{
				Results: []model.Feed{
					{ID: 1, DtUpdated: ts(t, "2024-01-02")},
					{ID: 2, DtUpdated: ts(t, "2024-01-03")},
				},
				Next: "c1",
				Size: 2,
			}, nil
		case "c1":
			return model.Page[model.Feed]{
				Results: []model.Feed{{ID: 3, DtUpdated: ts(t, "2024-01-01")}},
				Size:    1,
			}, nil
		}
		return model.Page[model.Feed]{}, errUnexpected
	}
	s := newTestSession(t, remote, 1)
	ctx := context.Background()

	page, err := s.ListFeeds(ctx, model.FeedListOptions{})
	if err != nil {
		t.Fatalf("list feeds: %v", err)
	}
	if page.Size != 2 {
		t.Fatalf("expected size 2, got %d", page.Size)
	}
	if diff := cmp.Diff([]int64{2, 1}, feedIDs(s.Store().Feeds())); diff != "" {
		t.Fatalf("feeds after list (-want +got):\n%s", diff)
	}
	if got := s.Store().Cursor(store.Feeds); got != "c1" {
		t.Fatalf("expected cursor c1, got %q", got)
	}
	if !s.Store().FeedsReady() {
		t.Fatalf("expected feed list to be ready")
	}

	n, err := s.ListMoreFeeds(ctx)
	if err != nil {
		t.Fatalf("list more: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 more feed, got %d", n)
	}
	if diff := cmp.Diff([]int64{2, 1, 3}, feedIDs(s.Store().Feeds())); diff != "" {
		t.Fatalf("feeds after list more (-want +got):\n%s", diff)
	}
	if got := s.Store().Cursor(store.Feeds); got != "" {
		t.Fatalf("expected empty cursor, got %q", got)
	}

	n, err = s.ListMoreFeeds(ctx)
	if err != nil || n != 0 {
		t.Fatalf("expected 0 and no error at the end, got %d, %v", n, err)
	}
	if got := remote.called("ListFeeds"); got != 2 {
		t.Fatalf("expected 2 remote list calls, got %d", got)
	}
	if seen[1].Cursor != "c1" {
		t.Fatalf("expected second call with cursor c1, got %+v", seen[1])
	}
}

func TestListMoreFeedsReusesListOptions(t *testing.T) {
	var seen []model.FeedListOptions
	remote := &fakeRemote{listFeeds: func(opts model.FeedListOptions) (model.Page[model.Feed], error) {
		seen = append(seen, opts)
		if opts.Cursor == "" {
			return model.Page[model.Feed]{Results: []model.Feed{{ID: 1}}, Next: "c1", Size: 1}, nil
		}
		return model.Page[model.Feed]{Results: []model.Feed{{ID: 2}}, Size: 1}, nil
	}}
	s := New(store.New(), remote, Options{PollInterval: time.Millisecond, PageSize: 50})
	t.Cleanup(s.Close)
	ctx := context.Background()

	if _, err := s.ListFeeds(ctx, model.FeedListOptions{Detail: true, Size: 5}); err != nil {
		t.Fatalf("list feeds: %v", err)
	}
	if _, err := s.ListMoreFeeds(ctx); err != nil {
		t.Fatalf("list more feeds: %v", err)
	}

	want := []model.FeedListOptions{
		{Detail: true, Size: 5},
		{Detail: true, Size: 5, Cursor: "c1"},
	}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Fatalf("remote calls (-want +got):\n%s", diff)
	}
}

func TestListReplacesWholeFeedCache(t *testing.T) {
	remote := &fakeRemote{listFeeds: func(model.FeedListOptions) (model.Page[model.Feed], error) {
		return model.Page[model.Feed]{Results: []model.Feed{{ID: 1}}, Size: 1}, nil
	}}
	s := newTestSession(t, remote, 1)
	s.Store().UpsertFeed(model.Feed{ID: 9})

	if _, err := s.ListFeeds(context.Background(), model.FeedListOptions{}); err != nil {
		t.Fatalf("list feeds: %v", err)
	}
	if _, ok := s.Store().Feed(9); ok {
		t.Fatalf("expected feed 9 to be dropped by first-page load")
	}
}

func TestListFailureLeavesCache(t *testing.T) {
	remote := &fakeRemote{listFeeds: func(model.FeedListOptions) (model.Page[model.Feed], error) {
		return model.Page[model.Feed]{}, serverError()
	}}
	s := newTestSession(t, remote, 1)
	s.Store().UpsertFeed(model.Feed{ID: 9})

	_, err := s.ListFeeds(context.Background(), model.FeedListOptions{})
	if !errors.Is(err, api.ErrTransport) {
		t.Fatalf("expected transport failure, got %v", err)
	}
	if _, ok := s.Store().Feed(9); !ok {
		t.Fatalf("expected cache untouched after failed list")
	}
	if s.Store().FeedsReady() {
		t.Fatalf("failed list must not mark feeds ready")
	}
}

func TestSupersededListIsNotApplied(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	remote := &fakeRemote{}
	first := true
	remote.listFeeds = func(model.FeedListOptions) (model.Page[model.Feed], error) {
		remote.mu.Lock()
		slow := first
		first = false
		remote.mu.Unlock()
		if slow {
			close(entered)
			<-release
			return model.Page[model.Feed]{Results: []model.Feed{{ID: 1}}, Size: 1}, nil
		}
		return model.Page[model.Feed]{Results: []model.Feed{{ID: 2}}, Size: 1}, nil
	}
	s := newTestSession(t, remote, 1)
	ctx := context.Background()

	slowDone := make(chan error, 1)
	go func() {
		_, err := s.ListFeeds(ctx, model.FeedListOptions{})
		slowDone <- err
	}()
	<-entered

	if _, err := s.ListFeeds(ctx, model.FeedListOptions{}); err != nil {
		t.Fatalf("fast list: %v", err)
	}
	close(release)
	if err := <-slowDone; err != nil {
		t.Fatalf("slow list: %v", err)
	}

	if diff := cmp.Diff([]int64{2}, feedIDs(s.Store().Feeds())); diff != "" {
		t.Fatalf("stale page was applied (-want +got):\n%s", diff)
	}
}

func TestDeleteRemovesOnlyAfterRemoteSuccess(t *testing.T) {
	fail := true
	remote := &fakeRemote{deleteFeed: func(int64) error {
		if fail {
			return serverError()
		}
		return nil
	}}
	s := newTestSession(t, remote, 1)
	s.Store().UpsertFeed(model.Feed{ID: 4, URL: "https://a.example/rss"})

	if err := s.DeleteFeed(context.Background(), 4); err == nil {
		t.Fatalf("expected delete failure")
	}
	if _, ok := s.Store().Feed(4); !ok {
		t.Fatalf("expected feed to remain after failed delete")
	}

	fail = false
	if err := s.DeleteFeed(context.Background(), 4); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := s.Store().Feed(4); ok {
		t.Fatalf("expected feed removed after successful delete")
	}
}

func TestUpdateCachesServerRepresentation(t *testing.T) {
	remote := &fakeRemote{updateFeed: func(id int64, _ string) (model.Feed, error) {
		return model.Feed{ID: id, URL: "https://b.example/feed.xml", Status: model.FeedReady}, nil
	}}
	s := newTestSession(t, remote, 1)
	s.Store().UpsertFeed(model.Feed{ID: 4, URL: "https://a.example/rss"})

	if _, err := s.UpdateFeed(context.Background(), 4, "https://b.example/feed"); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := s.Store().Feed(4)
	if got.URL != "https://b.example/feed.xml" {
		t.Fatalf("expected server url cached, got %q", got.URL)
	}
}

func TestUpdateFailureLeavesCache(t *testing.T) {
	remote := &fakeRemote{updateFeed: func(int64, string) (model.Feed, error) {
		return model.Feed{}, &api.Error{Method: "PUT", StatusCode: 400, Status: "400 Bad Request"}
	}}
	s := newTestSession(t, remote, 1)
	s.Store().UpsertFeed(model.Feed{ID: 4, URL: "https://a.example/rss"})

	_, err := s.UpdateFeed(context.Background(), 4, "https://b.example/feed")
	if !errors.Is(err, api.ErrValidation) {
		t.Fatalf("expected validation failure, got %v", err)
	}
	got, _ := s.Store().Feed(4)
	if got.URL != "https://a.example/rss" {
		t.Fatalf("expected prior url kept, got %q", got.URL)
	}
}

func TestCreateRejectsInvalidURLLocally(t *testing.T) {
	remote := &fakeRemote{}
	s := newTestSession(t, remote, 1)

	for _, raw := range []string{"", "   ", "ftp://a.example/rss", "not a url"} {
		_, r, err := s.CreateFeed(context.Background(), raw)
		if !errors.Is(err, api.ErrValidation) {
			t.Fatalf("%q: expected validation failure, got %v", raw, err)
		}
		if r != nil {
			t.Fatalf("%q: expected no reconciliation", raw)
		}
	}
	if got := remote.called("CreateFeed"); got != 0 {
		t.Fatalf("expected no remote create, got %d", got)
	}
}

func TestGetFeedAlwaysFetches(t *testing.T) {
	remote := &fakeRemote{getFeed: func(id int64, detail bool) (model.Feed, error) {
		f := model.Feed{ID: id, Title: "Remote"}
		if detail {
			f.Data = &model.FeedData{Link: "https://a.example"}
		}
		return f, nil
	}}
	s := newTestSession(t, remote, 1)
	s.Store().UpsertFeed(model.Feed{ID: 5, Title: "Cached"})

	if _, err := s.GetFeed(context.Background(), 5, true); err != nil {
		t.Fatalf("get feed: %v", err)
	}
	if _, err := s.GetFeed(context.Background(), 5, false); err != nil {
		t.Fatalf("get feed: %v", err)
	}
	if got := remote.called("GetFeed"); got != 2 {
		t.Fatalf("expected 2 remote calls, got %d", got)
	}
	got, _ := s.Store().Feed(5)
	if got.Title != "Remote" || !got.DetailLoaded() {
		t.Fatalf("expected remote feed with detail kept, got %+v", got)
	}
}
