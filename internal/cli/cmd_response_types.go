package cli

type FeedListResponse struct {
	Feeds   []Feed `json:"feeds"`
	Fetched int    `json:"fetched"`
	Next    string `json:"next,omitempty"`
}

type StoryListResponse struct {
	Stories []Story `json:"stories"`
	Fetched int     `json:"fetched"`
	Next    string  `json:"next,omitempty"`
}

type ReconcileResult struct {
	State string `json:"state"`
	Ticks int    `json:"ticks"`
	Error string `json:"error,omitempty"`
}

type AddFeedResponse struct {
	Feed          Feed             `json:"feed"`
	DiscoveredURL string           `json:"discovered_url,omitempty"`
	Reconcile     *ReconcileResult `json:"reconcile,omitempty"`
}

type RemoveFeedResponse struct {
	RemovedFeedID int64 `json:"removed_feed_id"`
}

type CurrentResponse struct {
	FeedID  int64  `json:"feed_id,omitempty"`
	StoryID int64  `json:"story_id,omitempty"`
	Feed    *Feed  `json:"feed,omitempty"`
	Story   *Story `json:"story,omitempty"`
}
