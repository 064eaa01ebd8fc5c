package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/odysseus0/rssant/internal/model"
)

// Snapshot is the persistable part of a Store. List tickets are not part of
// it: a restored store starts a fresh generation.
type Snapshot struct {
	Feeds          []model.Feed
	Stories        []model.Story
	FeedCursor     string
	StoryCursor    string
	FeedFilter     model.FeedListOptions
	StoryFilter    model.StoryListOptions
	FeedsReady     bool
	CurrentFeedID  int64
	CurrentStoryID int64
}

const (
	keyFeedsReady   = "feeds_ready"
	keyCurrentFeed  = "current_feed_id"
	keyCurrentStory = "current_story_id"
)

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Feeds:          s.feeds.list(),
		Stories:        s.stories.list(),
		FeedCursor:     s.cursors.get(Feeds),
		StoryCursor:    s.cursors.get(Stories),
		FeedFilter:     s.feedFilter,
		StoryFilter:    s.storyFilter,
		FeedsReady:     s.feedsReady,
		CurrentFeedID:  s.currentFeed,
		CurrentStoryID: s.currentStory,
	}
}

// Restore replaces the whole state with snap.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	s.feeds = newCache[model.Feed]()
	s.feeds.upsertMany(snap.Feeds)
	s.stories = newCache[model.Story]()
	s.stories.upsertMany(snap.Stories)
	s.cursors.begin(Feeds)
	s.cursors.begin(Stories)
	s.cursors.set(Feeds, snap.FeedCursor)
	s.cursors.set(Stories, snap.StoryCursor)
	s.feedFilter = snap.FeedFilter
	s.storyFilter = snap.StoryFilter
	s.feedsReady = snap.FeedsReady
	s.currentFeed = snap.CurrentFeedID
	s.currentStory = snap.CurrentStoryID
	s.commit(Change{Kind: StateRestored})
	s.mu.Unlock()
	s.flush()
}

// SaveSnapshot overwrites the state tables with snap in one transaction.
func SaveSnapshot(ctx context.Context, db *sql.DB, snap Snapshot) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"feeds", "stories", "cursors", "session_state"} {
		if _, err = tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	feedStmt, err := tx.PrepareContext(ctx, `INSERT INTO feeds(id, body, dt_updated) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer feedStmt.Close()
	for _, f := range snap.Feeds {
		body, mErr := json.Marshal(f)
		if mErr != nil {
			return fmt.Errorf("encode feed %d: %w", f.ID, mErr)
		}
		if _, err = feedStmt.ExecContext(ctx, f.ID, string(body), timeToDBString(f.DtUpdated)); err != nil {
			return fmt.Errorf("save feed %d: %w", f.ID, err)
		}
	}

	storyStmt, err := tx.PrepareContext(ctx, `INSERT INTO stories(id, feed_id, body, dt_updated) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer storyStmt.Close()
	for _, st := range snap.Stories {
		body, mErr := json.Marshal(st)
		if mErr != nil {
			return fmt.Errorf("encode story %d: %w", st.ID, mErr)
		}
		if _, err = storyStmt.ExecContext(ctx, st.ID, st.Feed.ID, string(body), timeToDBString(st.DtUpdated)); err != nil {
			return fmt.Errorf("save story %d: %w", st.ID, err)
		}
	}

	feedFilter, err := json.Marshal(snap.FeedFilter)
	if err != nil {
		return fmt.Errorf("encode feed filter: %w", err)
	}
	storyFilter, err := json.Marshal(snap.StoryFilter)
	if err != nil {
		return fmt.Errorf("encode story filter: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO cursors(collection, next, filter) VALUES (?, ?, ?), (?, ?, ?)`,
		string(Feeds), snap.FeedCursor, string(feedFilter),
		string(Stories), snap.StoryCursor, string(storyFilter)); err != nil {
		return fmt.Errorf("save cursors: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO session_state(key, value) VALUES (?, ?), (?, ?), (?, ?)`,
		keyFeedsReady, strconv.FormatBool(snap.FeedsReady),
		keyCurrentFeed, strconv.FormatInt(snap.CurrentFeedID, 10),
		keyCurrentStory, strconv.FormatInt(snap.CurrentStoryID, 10),
	); err != nil {
		return fmt.Errorf("save session state: %w", err)
	}

	return tx.Commit()
}

// LoadSnapshot reads back what SaveSnapshot wrote. An empty database yields an
// empty snapshot.
func LoadSnapshot(ctx context.Context, db *sql.DB) (Snapshot, error) {
	var snap Snapshot

	rows, err := db.QueryContext(ctx, `SELECT body FROM feeds`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("query feeds: %w", err)
	}
	for rows.Next() {
		var f model.Feed
		if err := scanJSON(rows, &f); err != nil {
			rows.Close()
			return Snapshot{}, fmt.Errorf("scan feed: %w", err)
		}
		snap.Feeds = append(snap.Feeds, f)
	}
	if err := closeRows(rows); err != nil {
		return Snapshot{}, err
	}

	rows, err = db.QueryContext(ctx, `SELECT body FROM stories`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("query stories: %w", err)
	}
	for rows.Next() {
		var st model.Story
		if err := scanJSON(rows, &st); err != nil {
			rows.Close()
			return Snapshot{}, fmt.Errorf("scan story: %w", err)
		}
		snap.Stories = append(snap.Stories, st)
	}
	if err := closeRows(rows); err != nil {
		return Snapshot{}, err
	}

	rows, err = db.QueryContext(ctx, `SELECT collection, next, filter FROM cursors`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("query cursors: %w", err)
	}
	for rows.Next() {
		var col, next string
		var filter sql.NullString
		if err := rows.Scan(&col, &next, &filter); err != nil {
			rows.Close()
			return Snapshot{}, fmt.Errorf("scan cursor: %w", err)
		}
		var dest any
		switch Collection(col) {
		case Feeds:
			snap.FeedCursor = next
			dest = &snap.FeedFilter
		case Stories:
			snap.StoryCursor = next
			dest = &snap.StoryFilter
		}
		if dest != nil && filter.Valid && filter.String != "" {
			if err := json.Unmarshal([]byte(filter.String), dest); err != nil {
				rows.Close()
				return Snapshot{}, fmt.Errorf("decode %s filter: %w", col, err)
			}
		}
	}
	if err := closeRows(rows); err != nil {
		return Snapshot{}, err
	}

	rows, err = db.QueryContext(ctx, `SELECT key, value FROM session_state`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("query session state: %w", err)
	}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			rows.Close()
			return Snapshot{}, fmt.Errorf("scan session state: %w", err)
		}
		switch key {
		case keyFeedsReady:
			snap.FeedsReady, _ = strconv.ParseBool(value)
		case keyCurrentFeed:
			snap.CurrentFeedID, _ = strconv.ParseInt(value, 10, 64)
		case keyCurrentStory:
			snap.CurrentStoryID, _ = strconv.ParseInt(value, 10, 64)
		}
	}
	if err := closeRows(rows); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJSON(scanner rowScanner, dest any) error {
	var body string
	if err := scanner.Scan(&body); err != nil {
		return err
	}
	return json.Unmarshal([]byte(body), dest)
}

func closeRows(rows *sql.Rows) error {
	err := rows.Err()
	if cerr := rows.Close(); err == nil {
		err = cerr
	}
	return err
}

func timeToDBString(t model.Timestamp) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
