package content

import (
	"strings"

	markdown "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/odysseus0/rssant/internal/model"
)

const maxFallbackText = 4000

// Renderer turns story html into Markdown for the terminal.
type Renderer struct {
	converter *markdown.Converter
}

func NewRenderer() *Renderer {
	return &Renderer{converter: markdown.NewConverter("", true, nil)}
}

// Markdown sanitizes raw and converts it. On conversion failure the collapsed
// text is returned instead.
func (r *Renderer) Markdown(raw string) string {
	clean := Sanitize(raw)
	if clean == "" {
		return ""
	}
	out, err := r.converter.ConvertString(clean)
	if err != nil {
		return collapse(clean, maxFallbackText)
	}
	return strings.TrimSpace(out)
}

// Story renders the best body a story has: its content, else its summary.
func (r *Renderer) Story(story model.Story) string {
	if story.Data == nil {
		return ""
	}
	if body := r.Markdown(story.Data.Content); body != "" {
		return body
	}
	return r.Markdown(story.Data.Summary)
}

func collapse(v string, max int) string {
	v = strings.Join(strings.Fields(v), " ")
	if max <= 0 || len(v) <= max {
		return v
	}
	return v[:max-1] + "..."
}
