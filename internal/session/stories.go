package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/odysseus0/rssant/internal/model"
	"github.com/odysseus0/rssant/internal/store"
)

func (s *Session) ListStories(ctx context.Context, filter model.StoryListOptions) (model.Page[model.Story], error) {
	filter.Cursor = ""
	if filter.Size <= 0 {
		filter.Size = s.pageSize
	}
	ticket := s.store.BeginList(store.Stories)
	page, err := s.remote.ListStories(ctx, filter)
	if err != nil {
		return model.Page[model.Story]{}, err
	}
	if !s.store.ReplaceStories(ticket, filter, page) {
		s.log.Debug("superseded story page dropped", zap.Int64("feed_id", filter.FeedID))
	}
	return page, nil
}

// ListMoreStories continues the most recent story list with the same filter.
func (s *Session) ListMoreStories(ctx context.Context) (int, error) {
	ticket, ok := s.store.NextPage(store.Stories)
	if !ok {
		return 0, nil
	}
	filter := s.store.StoryFilter()
	filter.Cursor = ticket.Cursor
	page, err := s.remote.ListStories(ctx, filter)
	if err != nil {
		return 0, err
	}
	if !s.store.ExtendStories(ticket, page) {
		s.log.Debug("superseded story page dropped", zap.String("cursor", ticket.Cursor))
	}
	return page.Size, nil
}

func (s *Session) GetStory(ctx context.Context, id int64, opts model.StoryOptions) (model.Story, error) {
	story, err := s.remote.GetStory(ctx, id, opts)
	if err != nil {
		return model.Story{}, err
	}
	s.store.UpsertStory(story)
	return story, nil
}
