package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrDuplicateLesson is returned when creating a lesson for a
	// (level, day) slot that already has a record.
	ErrDuplicateLesson = errors.New("lesson already exists for this level and day")

	// ErrLessonMissing is returned when saving a lesson whose ID no longer
	// exists.
	ErrLessonMissing = errors.New("lesson record does not exist")

	// ErrInvalidProgress is returned for out-of-range progress values.
	ErrInvalidProgress = errors.New("invalid progress update")
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // sequence > After
	Before  int64     // sequence < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // exact purpose match when non-empty
	Failed  bool      // only unsuccessful calls
}

// GenerationMeta stamps the content currently attached to a lesson.
type GenerationMeta struct {
	UpdatedAt     time.Time `json:"updatedAt"`
	Model         string    `json:"model"`
	PromptVersion int       `json:"promptVersion"`
}

// LessonRecord is the persisted form of a lesson. Content is nil until a
// validated payload has been attached, and always replaced as a whole.
type LessonRecord struct {
	ID         int
	Level      string
	DayNumber  int
	Title      string
	Content    json.RawMessage
	Generation *GenerationMeta
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// LessonRepo persists lesson records keyed by (level, day_number).
type LessonRepo interface {
	// Get returns the record for the slot, or nil if none exists.
	Get(ctx context.Context, level string, day int) (*LessonRecord, error)

	// Create inserts a title-only record and fills in ID and timestamps.
	// Returns ErrDuplicateLesson if the slot is taken.
	Create(ctx context.Context, rec *LessonRecord) error

	// Save writes title, content and generation metadata for an existing
	// record. A nil Generation clears the stored metadata. Concurrent saves
	// of the same record are last-write-wins.
	Save(ctx context.Context, rec *LessonRecord) error

	// SetTitle updates only the title, leaving content untouched.
	SetTitle(ctx context.Context, id int, title string) error

	// ListByLevel returns every record for level ordered by day.
	ListByLevel(ctx context.Context, level string) ([]*LessonRecord, error)

	// Levels returns the distinct levels with at least one record, sorted.
	Levels(ctx context.Context) ([]string, error)
}

// ProgressUpdate marks a lesson as completed by a learner.
type ProgressUpdate struct {
	UserID        string
	Level         string
	DayNumber     int
	LessonID      int // optional
	Score         int // 0-100
	Accuracy      int // 0-100
	TimeSpentSecs int
}

// ProgressEntry is a learner's completion record for one lesson slot.
type ProgressEntry struct {
	ID            int
	UserID        string
	Level         string
	DayNumber     int
	LessonID      int
	Completed     bool
	Score         int
	Accuracy      int
	TimeSpentSecs int
	CompletedAt   time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProgressRepo tracks lesson completion per learner.
type ProgressRepo interface {
	// Complete upserts the (user, level, day) entry as completed.
	Complete(ctx context.Context, upd ProgressUpdate) (*ProgressEntry, error)

	// List returns completed entries for the user, ordered by level then
	// day. An empty level returns all levels.
	List(ctx context.Context, userID, level string) ([]*ProgressEntry, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMPurposeUsage aggregates token usage for one purpose label.
type LLMPurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// LLMModelUsage aggregates token usage for one model.
type LLMModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]*LLMEvent, error)

	// GetLLMEvent returns a single event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)

	// LLMUsageByPurpose aggregates usage per purpose label.
	LLMUsageByPurpose(ctx context.Context) ([]LLMPurposeUsage, error)

	// LLMUsageByModel aggregates usage per model.
	LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error)
}
