package lessons

import (
	"fmt"
	"time"

	"github.com/langlyai/langly/internal/content"
	"github.com/langlyai/langly/internal/store"
)

// Lesson is a lesson slot with its decoded content, if any.
type Lesson struct {
	ID    int           `json:"id"`
	Level content.Level `json:"level"`
	Day   int           `json:"dayNumber"`
	Title string        `json:"title"`

	// Content is nil until a generated payload has passed validation.
	Content *content.LessonContent `json:"content"`

	// Generation describes how Content was produced. Nil when Content is.
	Generation *store.GenerationMeta `json:"generation,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SeedReport summarizes a SeedTitles run.
type SeedReport struct {
	Inserted      int
	UpdatedTitles int
	Skipped       int
}

// Fresh reports whether the lesson's content can be served as is: both
// sides of renderMarkdown and explanation.short are filled in, there is at
// least one example, and it was generated under version.
func Fresh(l *Lesson, version int) bool {
	if l == nil || l.Content == nil || l.Generation == nil {
		return false
	}
	c := l.Content
	return c.RenderMarkdown.Complete() &&
		c.Explanation.Short.Complete() &&
		len(c.Examples) > 0 &&
		l.Generation.PromptVersion == version
}

// PlaceholderTitle is the title given to slots missing from the catalog.
func PlaceholderTitle(level content.Level, day int) string {
	return fmt.Sprintf("Lesson %d for %s", day, level)
}

func lessonFromRecord(rec *store.LessonRecord) (*Lesson, error) {
	l := &Lesson{
		ID:        rec.ID,
		Level:     content.Level(rec.Level),
		Day:       rec.DayNumber,
		Title:     rec.Title,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	if len(rec.Content) == 0 {
		return l, nil
	}
	c, err := content.Decode(rec.Content)
	if err != nil {
		return l, fmt.Errorf("lesson %d: %w", rec.ID, err)
	}
	l.Content = c
	l.Generation = rec.Generation
	return l, nil
}
