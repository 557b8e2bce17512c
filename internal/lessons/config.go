package lessons

import "time"

// Config holds lesson generation settings. It is fixed at construction so
// tests can vary the prompt version per case.
type Config struct {
	// PromptVersion is stamped on generated content. Stored content with
	// any other version is regenerated on next request.
	PromptVersion int

	MaxTokens   int
	Temperature float64

	// AllowPlaceholderTitles lets EnsureContent create a record titled
	// "Lesson {day} for {level}" when the catalog has no entry for the slot.
	AllowPlaceholderTitles bool

	// Now overrides the clock used for generation stamps.
	Now func() time.Time
}

// DefaultConfig returns sensible defaults for lesson generation.
func DefaultConfig() Config {
	return Config{
		PromptVersion:          2,
		MaxTokens:              3500,
		Temperature:            0.25,
		AllowPlaceholderTitles: true,
	}
}

func (c Config) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
