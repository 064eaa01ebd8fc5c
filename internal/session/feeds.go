package session

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/odysseus0/rssant/internal/model"
	"github.com/odysseus0/rssant/internal/store"
)

// ListFeeds loads the first page of feeds. The feed cache becomes exactly the
// returned page unless a newer list started in the meantime.
func (s *Session) ListFeeds(ctx context.Context, opts model.FeedListOptions) (model.Page[model.Feed], error) {
	opts.Cursor = ""
	if opts.Size <= 0 {
		opts.Size = s.pageSize
	}
	ticket := s.store.BeginList(store.Feeds)
	page, err := s.remote.ListFeeds(ctx, opts)
	if err != nil {
		return model.Page[model.Feed]{}, err
	}
	if !s.store.ReplaceFeeds(ticket, opts, page) {
		s.log.Debug("superseded feed page dropped", zap.Int("size", page.Size))
	}
	return page, nil
}

// ListMoreFeeds loads the page after the stored cursor with the options of the
// last ListFeeds and merges it into the cache. It returns 0 without a remote
// call when there is no further page.
func (s *Session) ListMoreFeeds(ctx context.Context) (int, error) {
	ticket, ok := s.store.NextPage(store.Feeds)
	if !ok {
		return 0, nil
	}
	opts := s.store.FeedFilter()
	opts.Cursor = ticket.Cursor
	page, err := s.remote.ListFeeds(ctx, opts)
	if err != nil {
		return 0, err
	}
	if !s.store.ExtendFeeds(ticket, page) {
		s.log.Debug("superseded feed page dropped", zap.String("cursor", ticket.Cursor))
	}
	return page.Size, nil
}

// GetFeed always asks the server and caches the answer.
func (s *Session) GetFeed(ctx context.Context, id int64, detail bool) (model.Feed, error) {
	feed, err := s.remote.GetFeed(ctx, id, detail)
	if err != nil {
		return model.Feed{}, err
	}
	s.store.UpsertFeed(feed)
	return feed, nil
}

// CreateFeed submits a new feed, caches the server's answer and starts a
// reconciliation loop that polls the feed until it settles.
func (s *Session) CreateFeed(ctx context.Context, feedURL string) (model.Feed, *Reconciliation, error) {
	feedURL = strings.TrimSpace(feedURL)
	if err := validateFeedURL(feedURL); err != nil {
		return model.Feed{}, nil, err
	}
	feed, err := s.remote.CreateFeed(ctx, feedURL)
	if err != nil {
		return model.Feed{}, nil, err
	}
	s.store.UpsertFeed(feed)
	return feed, s.reconcile(feed), nil
}

// UpdateFeed changes a feed's url. The cache receives the server's
// representation, never the submitted one.
func (s *Session) UpdateFeed(ctx context.Context, id int64, feedURL string) (model.Feed, error) {
	feedURL = strings.TrimSpace(feedURL)
	if err := validateFeedURL(feedURL); err != nil {
		return model.Feed{}, err
	}
	feed, err := s.remote.UpdateFeed(ctx, id, feedURL)
	if err != nil {
		return model.Feed{}, err
	}
	s.store.UpsertFeed(feed)
	return feed, nil
}

// DeleteFeed removes a feed remotely, then locally. A failed remote delete
// leaves the cache untouched.
func (s *Session) DeleteFeed(ctx context.Context, id int64) error {
	if err := s.remote.DeleteFeed(ctx, id); err != nil {
		return err
	}
	s.store.RemoveFeed(id)
	return nil
}
