package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/odysseus0/rssant/internal/model"
)

// SelectFeed makes id the current feed. When the cached feed is missing or
// summary-only, its detail is fetched in the background; Wait observes it.
func (s *Session) SelectFeed(id int64) {
	s.store.SetCurrentFeed(id)
	if feed, ok := s.store.Feed(id); ok && feed.DetailLoaded() {
		return
	}
	s.goBackground(func(ctx context.Context) {
		if _, err := s.GetFeed(ctx, id, true); err != nil {
			s.log.Warn("feed detail fetch failed", zap.Int64("feed_id", id), zap.Error(err))
		}
	})
}

// SelectStory makes id the current story. A story without cached detail is
// fetched before returning, and its parent feed becomes the current feed.
func (s *Session) SelectStory(ctx context.Context, id int64) (model.Story, error) {
	s.store.SetCurrentStory(id)
	if story, ok := s.store.Story(id); ok && story.DetailLoaded() {
		return story, nil
	}
	story, err := s.GetStory(ctx, id, model.StoryOptions{Detail: true})
	if err != nil {
		return model.Story{}, err
	}
	if story.Feed.ID != 0 {
		s.SelectFeed(story.Feed.ID)
	}
	return story, nil
}
