package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/odysseus0/rssant/internal/model"
)

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeFeedsTable(out io.Writer, feeds []Feed, wide bool, now time.Time) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if wide {
		fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tUPDATED\tSTORIES\tCHECKED\tURL\tLINK")
		for _, f := range feeds {
			stories, checked, link := 0, "-", ""
			if f.Data != nil {
				stories = f.Data.TotalStory
				checked = formatDate(timestampOrZero(f.Data.DtChecked), now)
				link = f.Data.Link
			}
			fmt.Fprintf(
				tw,
				"%d\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
				f.ID,
				compactText(f.DisplayTitle(), 30),
				f.Status,
				formatDate(f.DtUpdated, now),
				stories,
				checked,
				compactText(f.URL, 46),
				compactText(link, 46),
			)
		}
	} else {
		fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tUPDATED\tURL")
		for _, f := range feeds {
			fmt.Fprintf(
				tw,
				"%d\t%s\t%s\t%s\t%s\n",
				f.ID,
				compactText(f.DisplayTitle(), 30),
				f.Status,
				formatDate(f.DtUpdated, now),
				compactText(f.URL, 56),
			)
		}
	}
	_ = tw.Flush()
}

func writeStoriesTable(out io.Writer, stories []Story, wide bool, now time.Time) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if wide {
		fmt.Fprintln(tw, "ID\tFEED_ID\tFEED\tTITLE\tUPDATED\tPUBLISHED\tLINK")
		for _, s := range stories {
			fmt.Fprintf(
				tw,
				"%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
				s.ID,
				s.Feed.ID,
				compactText(s.Feed.Title, 24),
				compactText(displayStoryTitle(s), 56),
				formatDate(s.DtUpdated, now),
				formatDate(timestampOrZero(s.DtPublished), now),
				compactText(s.Link, 48),
			)
		}
	} else {
		fmt.Fprintln(tw, "ID\tFEED\tTITLE\tUPDATED")
		for _, s := range stories {
			fmt.Fprintf(
				tw,
				"%d\t%s\t%s\t%s\n",
				s.ID,
				compactText(fallback(s.Feed.Title, fmt.Sprint(s.Feed.ID)), 24),
				compactText(displayStoryTitle(s), 56),
				formatDate(s.DtUpdated, now),
			)
		}
	}
	_ = tw.Flush()
}

func writeFeedDetail(out io.Writer, f Feed, now time.Time) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "id\t%d\n", f.ID)
	fmt.Fprintf(tw, "title\t%s\n", f.DisplayTitle())
	fmt.Fprintf(tw, "url\t%s\n", f.URL)
	fmt.Fprintf(tw, "status\t%s\n", f.Status)
	fmt.Fprintf(tw, "updated\t%s\n", formatFullDate(f.DtUpdated, now))
	if d := f.Data; d != nil {
		fmt.Fprintf(tw, "link\t%s\n", fallback(d.Link, "-"))
		fmt.Fprintf(tw, "author\t%s\n", fallback(d.Author, "-"))
		fmt.Fprintf(tw, "version\t%s\n", fallback(d.Version, "-"))
		fmt.Fprintf(tw, "stories\t%d\n", d.TotalStory)
		fmt.Fprintf(tw, "checked\t%s\n", formatFullDate(timestampOrZero(d.DtChecked), now))
		fmt.Fprintf(tw, "synced\t%s\n", formatFullDate(timestampOrZero(d.DtSynced), now))
		if desc := compactText(d.Description, 200); desc != "" {
			fmt.Fprintf(tw, "description\t%s\n", desc)
		}
	}
	_ = tw.Flush()
}

func writeStoryDetail(out io.Writer, s Story, body string, now time.Time) {
	fmt.Fprintf(out, "# %s\n", displayStoryTitle(s))
	fmt.Fprintf(out, "feed: %s | date: %s | url: %s\n\n",
		fallback(s.Feed.Title, fmt.Sprint(s.Feed.ID)),
		formatFullDate(storyDate(s), now),
		fallback(s.Link, "-"),
	)
	body = strings.TrimSpace(body)
	if body == "" {
		body = fallback(s.Link, "(no content)")
	}
	fmt.Fprintln(out, body)
}

func storyDate(s Story) model.Timestamp {
	if s.DtPublished != nil && !s.DtPublished.IsZero() {
		return *s.DtPublished
	}
	return s.DtUpdated
}

func displayStoryTitle(s Story) string {
	if strings.TrimSpace(s.Title) != "" {
		return s.Title
	}
	if strings.TrimSpace(s.Link) != "" {
		return s.Link
	}
	return "(untitled)"
}
