package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/odysseus0/rssant/internal/model"
	"github.com/odysseus0/rssant/internal/store"
)

func newGetCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get feeds and stories",
	}

	cmd.AddCommand(newGetFeedsCmd(getApp, getOutput))
	cmd.AddCommand(newGetFeedCmd(getApp, getOutput))
	cmd.AddCommand(newGetStoriesCmd(getApp, getOutput))
	cmd.AddCommand(newGetStoryCmd(getApp, getOutput))
	return cmd
}

func newGetFeedsCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	var more bool
	var detail bool
	var size int

	cmd := &cobra.Command{
		Use:   "feeds",
		Short: "List subscribed feeds",
		Long:  "List subscribed feeds. Without --more the first page replaces the local list; --more appends the next page.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var fetched int
			if more {
				fetched, err = app.session.ListMoreFeeds(ctx)
			} else {
				var page model.Page[model.Feed]
				page, err = app.session.ListFeeds(ctx, model.FeedListOptions{Detail: detail, Size: size})
				fetched = page.Size
			}
			if err != nil {
				return fmt.Errorf("list feeds: %w", err)
			}

			resp := FeedListResponse{
				Feeds:   app.store.Feeds(),
				Fetched: fetched,
				Next:    app.store.Cursor(store.Feeds),
			}
			out := cmd.OutOrStdout()
			switch getOutput() {
			case OutputJSON:
				return writeJSON(out, resp)
			case OutputWide:
				writeFeedsTable(out, resp.Feeds, true, time.Now())
			default:
				writeFeedsTable(out, resp.Feeds, false, time.Now())
			}
			if more && fetched == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "No more feeds.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&more, "more", false, "Fetch the next page after the stored cursor")
	cmd.Flags().BoolVar(&detail, "detail", false, "Request detailed feed representations")
	cmd.Flags().IntVar(&size, "size", 0, "Page size (server default when 0)")
	return cmd
}

func newGetFeedCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	var summary bool

	cmd := &cobra.Command{
		Use:   "feed <id>",
		Short: "Get one feed from the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			feed, err := app.session.GetFeed(cmd.Context(), id, !summary)
			if err != nil {
				return fmt.Errorf("get feed: %w", err)
			}
			feed, _ = app.store.Feed(id)

			if getOutput() == OutputJSON {
				return writeJSON(cmd.OutOrStdout(), feed)
			}
			writeFeedDetail(cmd.OutOrStdout(), feed, time.Now())
			return nil
		},
	}
	cmd.Flags().BoolVar(&summary, "summary", false, "Request the summary representation only")
	return cmd
}

func newGetStoriesCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	var more bool
	var feedID int64
	var detail bool
	var data bool
	var size int

	cmd := &cobra.Command{
		Use:   "stories",
		Short: "List stories",
		Long:  "List stories, optionally of one feed. --more continues the previous listing with the same filter.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var fetched int
			if more {
				fetched, err = app.session.ListMoreStories(ctx)
			} else {
				if !cmd.Flags().Changed("feed") {
					feedID = app.store.CurrentFeedID()
				}
				var page model.Page[model.Story]
				page, err = app.session.ListStories(ctx, model.StoryListOptions{
					FeedID: feedID,
					Detail: detail,
					Data:   data,
					Size:   size,
				})
				fetched = page.Size
			}
			if err != nil {
				return fmt.Errorf("list stories: %w", err)
			}

			resp := StoryListResponse{
				Stories: app.store.Stories(),
				Fetched: fetched,
				Next:    app.store.Cursor(store.Stories),
			}
			out := cmd.OutOrStdout()
			switch getOutput() {
			case OutputJSON:
				return writeJSON(out, resp)
			case OutputWide:
				writeStoriesTable(out, resp.Stories, true, time.Now())
			default:
				writeStoriesTable(out, resp.Stories, false, time.Now())
			}
			if more && fetched == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "No more stories.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&more, "more", false, "Fetch the next page of the previous listing")
	cmd.Flags().Int64Var(&feedID, "feed", 0, "Filter by feed ID (defaults to the selected feed)")
	cmd.Flags().BoolVar(&detail, "detail", false, "Request detailed story representations")
	cmd.Flags().BoolVar(&data, "data", false, "Include story content")
	cmd.Flags().IntVar(&size, "size", 0, "Page size (server default when 0)")
	return cmd
}

func newGetStoryCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "story <id>",
		Short: "Get full story content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := app.session.GetStory(cmd.Context(), id, model.StoryOptions{Detail: true, Data: true}); err != nil {
				return fmt.Errorf("get story: %w", err)
			}
			story, _ := app.store.Story(id)

			if getOutput() == OutputJSON {
				return writeJSON(cmd.OutOrStdout(), story)
			}
			writeStoryDetail(cmd.OutOrStdout(), story, app.renderer.Story(story), time.Now())
			return nil
		},
	}
	return cmd
}
