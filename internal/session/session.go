package session

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/odysseus0/rssant/internal/api"
	"github.com/odysseus0/rssant/internal/model"
	"github.com/odysseus0/rssant/internal/store"
)

const (
	DefaultPollInterval = time.Second
	DefaultPollTries    = 30
)

// Remote is the subset of the API client a session needs.
type Remote interface {
	ListFeeds(ctx context.Context, opts model.FeedListOptions) (model.Page[model.Feed], error)
	CreateFeed(ctx context.Context, feedURL string) (model.Feed, error)
	GetFeed(ctx context.Context, id int64, detail bool) (model.Feed, error)
	UpdateFeed(ctx context.Context, id int64, feedURL string) (model.Feed, error)
	DeleteFeed(ctx context.Context, id int64) error
	ListStories(ctx context.Context, opts model.StoryListOptions) (model.Page[model.Story], error)
	GetStory(ctx context.Context, id int64, opts model.StoryOptions) (model.Story, error)
}

var _ Remote = (*api.Client)(nil)

type Options struct {
	PollInterval time.Duration
	PollTries    int
	PageSize     int
	Logger       *zap.Logger
}

// Session combines remote calls with the local store. Remote failures are
// always returned to the caller; the store is only touched after success.
type Session struct {
	store  *store.Store
	remote Remote
	log    *zap.Logger

	pollInterval time.Duration
	pollTries    int
	pageSize     int

	// base scopes background work: detail fetches and reconciliation loops.
	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	loops map[int64]*Reconciliation
}

func New(st *store.Store, remote Remote, opts Options) *Session {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.PollTries <= 0 {
		opts.PollTries = DefaultPollTries
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	base, cancel := context.WithCancel(context.Background())
	return &Session{
		store:        st,
		remote:       remote,
		log:          opts.Logger,
		pollInterval: opts.PollInterval,
		pollTries:    opts.PollTries,
		pageSize:     opts.PageSize,
		base:         base,
		cancel:       cancel,
		loops:        make(map[int64]*Reconciliation),
	}
}

func (s *Session) Store() *store.Store {
	return s.store
}

// Wait blocks until all background work has finished.
func (s *Session) Wait() {
	s.wg.Wait()
}

// Close cancels background work and waits for it to stop.
func (s *Session) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Session) goBackground(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.base)
	}()
}

func validateFeedURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%w: url is required", api.ErrValidation)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", api.ErrValidation, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: invalid url %q", api.ErrValidation, raw)
	}
	return nil
}
