package store

import (
	"sync"

	"github.com/odysseus0/rssant/internal/model"
)

type ChangeKind string

const (
	FeedsReplaced    ChangeKind = "feeds_replaced"
	FeedsUpserted    ChangeKind = "feeds_upserted"
	FeedRemoved      ChangeKind = "feed_removed"
	StoriesReplaced  ChangeKind = "stories_replaced"
	StoriesUpserted  ChangeKind = "stories_upserted"
	SelectionChanged ChangeKind = "selection_changed"
	StateRestored    ChangeKind = "state_restored"
)

// Change describes one applied mutation. IDs lists the affected entities.
type Change struct {
	Kind ChangeKind
	IDs  []int64
}

// Store is the client-side state of one session: the feed and story caches,
// their cursors, and the current selection. Every method is atomic; sequences
// of calls are not.
type Store struct {
	mu           sync.RWMutex
	feeds        *cache[model.Feed]
	stories      *cache[model.Story]
	cursors      *cursors
	feedFilter   model.FeedListOptions
	storyFilter  model.StoryListOptions
	feedsReady   bool
	currentFeed  int64
	currentStory int64
	pending      []Change

	subMu  sync.Mutex
	subs   map[int]func(Change)
	nextID int
}

func New() *Store {
	return &Store{
		feeds:   newCache[model.Feed](),
		stories: newCache[model.Story](),
		cursors: newCursors(),
		subs:    make(map[int]func(Change)),
	}
}

// Subscribe registers fn to be called after every mutation, in mutation order.
// The returned func unregisters it.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// commit queues c for delivery; callers hold mu.
func (s *Store) commit(c Change) {
	s.pending = append(s.pending, c)
}

// flush delivers queued changes in commit order. Subscribers must not mutate
// the store from inside the callback.
func (s *Store) flush() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, c := range pending {
		for _, fn := range s.subs {
			fn(c)
		}
	}
}

func (s *Store) Feed(id int64) (model.Feed, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.feeds.get(id)
}

func (s *Store) Feeds() []model.Feed {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.feeds.list()
}

func (s *Store) FeedsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.feedsReady
}

func (s *Store) UpsertFeed(f model.Feed) {
	s.mu.Lock()
	s.feeds.upsert(f)
	s.commit(Change{Kind: FeedsUpserted, IDs: []int64{f.ID}})
	s.mu.Unlock()
	s.flush()
}

func (s *Store) RemoveFeed(id int64) bool {
	s.mu.Lock()
	removed := s.feeds.remove(id)
	if removed {
		s.commit(Change{Kind: FeedRemoved, IDs: []int64{id}})
	}
	s.mu.Unlock()
	s.flush()
	return removed
}

func (s *Store) Story(id int64) (model.Story, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stories.get(id)
}

func (s *Store) Stories() []model.Story {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stories.list()
}

func (s *Store) UpsertStory(st model.Story) {
	s.mu.Lock()
	s.stories.upsert(st)
	s.commit(Change{Kind: StoriesUpserted, IDs: []int64{st.ID}})
	s.mu.Unlock()
	s.flush()
}

func (s *Store) Cursor(col Collection) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursors.get(col)
}

// BeginList issues a first-page ticket. Responses to older tickets for the
// same collection will no longer be applied.
func (s *Store) BeginList(col Collection) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursors.begin(col)
}

// NextPage returns a ticket carrying the stored cursor, or false when the
// collection has no further pages.
func (s *Store) NextPage(col Collection) (Ticket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursors.more(col)
}

// FeedFilter is the options of the most recent feed list.
func (s *Store) FeedFilter() model.FeedListOptions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.feedFilter
}

// StoryFilter is the filter of the most recent story list.
func (s *Store) StoryFilter() model.StoryListOptions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storyFilter
}

// ReplaceFeeds applies a first page: the cache becomes exactly page.Results
// and opts is kept for the following pages. It reports false, changing
// nothing, when t is no longer current.
func (s *Store) ReplaceFeeds(t Ticket, opts model.FeedListOptions, page model.Page[model.Feed]) bool {
	s.mu.Lock()
	if !s.cursors.current(t) {
		s.mu.Unlock()
		return false
	}
	s.feeds.replace(page.Results)
	s.cursors.set(Feeds, page.Next)
	opts.Cursor = ""
	s.feedFilter = opts
	s.feedsReady = true
	s.commit(Change{Kind: FeedsReplaced, IDs: feedIDs(page.Results)})
	s.mu.Unlock()
	s.flush()
	return true
}

// ExtendFeeds merges a following page into the cache.
func (s *Store) ExtendFeeds(t Ticket, page model.Page[model.Feed]) bool {
	s.mu.Lock()
	if !s.cursors.current(t) {
		s.mu.Unlock()
		return false
	}
	s.feeds.upsertMany(page.Results)
	s.cursors.set(Feeds, page.Next)
	s.commit(Change{Kind: FeedsUpserted, IDs: feedIDs(page.Results)})
	s.mu.Unlock()
	s.flush()
	return true
}

func (s *Store) ReplaceStories(t Ticket, filter model.StoryListOptions, page model.Page[model.Story]) bool {
	s.mu.Lock()
	if !s.cursors.current(t) {
		s.mu.Unlock()
		return false
	}
	s.stories.replace(page.Results)
	s.cursors.set(Stories, page.Next)
	filter.Cursor = ""
	s.storyFilter = filter
	s.commit(Change{Kind: StoriesReplaced, IDs: storyIDs(page.Results)})
	s.mu.Unlock()
	s.flush()
	return true
}

func (s *Store) ExtendStories(t Ticket, page model.Page[model.Story]) bool {
	s.mu.Lock()
	if !s.cursors.current(t) {
		s.mu.Unlock()
		return false
	}
	s.stories.upsertMany(page.Results)
	s.cursors.set(Stories, page.Next)
	s.commit(Change{Kind: StoriesUpserted, IDs: storyIDs(page.Results)})
	s.mu.Unlock()
	s.flush()
	return true
}

// SetCurrentFeed selects a feed; 0 clears the selection. The id need not be cached.
func (s *Store) SetCurrentFeed(id int64) {
	s.mu.Lock()
	s.currentFeed = id
	s.commit(Change{Kind: SelectionChanged, IDs: []int64{id}})
	s.mu.Unlock()
	s.flush()
}

func (s *Store) SetCurrentStory(id int64) {
	s.mu.Lock()
	s.currentStory = id
	s.commit(Change{Kind: SelectionChanged, IDs: []int64{id}})
	s.mu.Unlock()
	s.flush()
}

func (s *Store) CurrentFeedID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentFeed
}

func (s *Store) CurrentStoryID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentStory
}

// CurrentFeed returns the selected feed if it is cached.
func (s *Store) CurrentFeed() (model.Feed, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentFeed == 0 {
		return model.Feed{}, false
	}
	return s.feeds.get(s.currentFeed)
}

func (s *Store) CurrentStory() (model.Story, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentStory == 0 {
		return model.Story{}, false
	}
	return s.stories.get(s.currentStory)
}

func feedIDs(feeds []model.Feed) []int64 {
	ids := make([]int64, 0, len(feeds))
	for _, f := range feeds {
		ids = append(ids, f.ID)
	}
	return ids
}

func storyIDs(stories []model.Story) []int64 {
	ids := make([]int64, 0, len(stories))
	for _, st := range stories {
		ids = append(ids, st.ID)
	}
	return ids
}
