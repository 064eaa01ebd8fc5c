package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/odysseus0/rssant/internal/model"
)

func (c *Client) ListFeeds(ctx context.Context, opts model.FeedListOptions) (model.Page[model.Feed], error) {
	q := url.Values{}
	setBool(q, "detail", opts.Detail)
	setString(q, "cursor", opts.Cursor)
	setInt(q, "size", int64(opts.Size))

	var page model.Page[model.Feed]
	if err := c.do(ctx, http.MethodGet, "/feed/", q, nil, &page); err != nil {
		return model.Page[model.Feed]{}, err
	}
	return page, nil
}

func (c *Client) CreateFeed(ctx context.Context, feedURL string) (model.Feed, error) {
	var feed model.Feed
	err := c.do(ctx, http.MethodPost, "/feed/", nil, feedURLBody{URL: feedURL}, &feed)
	return feed, err
}

func (c *Client) GetFeed(ctx context.Context, id int64, detail bool) (model.Feed, error) {
	q := url.Values{}
	setBool(q, "detail", detail)

	var feed model.Feed
	err := c.do(ctx, http.MethodGet, feedPath(id), q, nil, &feed)
	return feed, err
}

func (c *Client) UpdateFeed(ctx context.Context, id int64, feedURL string) (model.Feed, error) {
	var feed model.Feed
	err := c.do(ctx, http.MethodPut, feedPath(id), nil, feedURLBody{URL: feedURL}, &feed)
	return feed, err
}

func (c *Client) DeleteFeed(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, feedPath(id), nil, nil, nil)
}

func (c *Client) ListStories(ctx context.Context, opts model.StoryListOptions) (model.Page[model.Story], error) {
	q := url.Values{}
	setInt(q, "feed_id", opts.FeedID)
	setBool(q, "detail", opts.Detail)
	setBool(q, "data", opts.Data)
	setString(q, "cursor", opts.Cursor)
	setInt(q, "size", int64(opts.Size))

	var page model.Page[model.Story]
	if err := c.do(ctx, http.MethodGet, "/story/", q, nil, &page); err != nil {
		return model.Page[model.Story]{}, err
	}
	return page, nil
}

func (c *Client) GetStory(ctx context.Context, id int64, opts model.StoryOptions) (model.Story, error) {
	q := url.Values{}
	setBool(q, "detail", opts.Detail)
	setBool(q, "data", opts.Data)

	var story model.Story
	err := c.do(ctx, http.MethodGet, "/story/"+strconv.FormatInt(id, 10), q, nil, &story)
	return story, err
}

type feedURLBody struct {
	URL string `json:"url"`
}

func feedPath(id int64) string {
	return "/feed/" + strconv.FormatInt(id, 10)
}

// Unset parameters are left out of the query entirely.

func setBool(q url.Values, key string, v bool) {
	if v {
		q.Set(key, "true")
	}
}

func setString(q url.Values, key, v string) {
	if v != "" {
		q.Set(key, v)
	}
}

func setInt(q url.Values, key string, v int64) {
	if v > 0 {
		q.Set(key, strconv.FormatInt(v, 10))
	}
}
