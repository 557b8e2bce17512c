package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table and column names shared by the repositories.
const (
	lessonsTable   = "lessons"
	progressTable  = "lesson_progress"
	llmTable       = "llm_request_events"
	sequencesTable = "sequences"
)

var (
	// LessonsColumns holds the columns for the "lessons" table.
	LessonsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "level", Type: field.TypeString, Size: 2},
		{Name: "day_number", Type: field.TypeInt},
		{Name: "title", Type: field.TypeString},
		{Name: "content", Type: field.TypeJSON, Nullable: true},
		{Name: "content_updated_at", Type: field.TypeTime, Nullable: true},
		{Name: "model", Type: field.TypeString, Nullable: true},
		{Name: "prompt_version", Type: field.TypeInt, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// LessonsTable holds the schema information for the "lessons" table.
	LessonsTable = &schema.Table{
		Name:       lessonsTable,
		Columns:    LessonsColumns,
		PrimaryKey: []*schema.Column{LessonsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "lesson_level_day_number",
				Unique:  true,
				Columns: []*schema.Column{LessonsColumns[1], LessonsColumns[2]},
			},
		},
	}

	// LessonProgressColumns holds the columns for the "lesson_progress" table.
	LessonProgressColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "user_id", Type: field.TypeString},
		{Name: "level", Type: field.TypeString, Size: 2},
		{Name: "day_number", Type: field.TypeInt},
		{Name: "lesson_id", Type: field.TypeInt, Nullable: true},
		{Name: "completed", Type: field.TypeBool, Default: false},
		{Name: "score", Type: field.TypeInt, Default: 0},
		{Name: "accuracy", Type: field.TypeInt, Default: 0},
		{Name: "time_spent_secs", Type: field.TypeInt, Default: 0},
		{Name: "completed_at", Type: field.TypeTime, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// LessonProgressTable holds the schema information for the "lesson_progress" table.
	LessonProgressTable = &schema.Table{
		Name:       progressTable,
		Columns:    LessonProgressColumns,
		PrimaryKey: []*schema.Column{LessonProgressColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "lessonprogress_user_id_level_day_number",
				Unique:  true,
				Columns: []*schema.Column{LessonProgressColumns[1], LessonProgressColumns[2], LessonProgressColumns[3]},
			},
			{
				Name:    "lessonprogress_user_id",
				Columns: []*schema.Column{LessonProgressColumns[1]},
			},
		},
	}

	// LLMRequestEventsColumns holds the columns for the "llm_request_events" table.
	LLMRequestEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	// LLMRequestEventsTable holds the schema information for the "llm_request_events" table.
	LLMRequestEventsTable = &schema.Table{
		Name:       llmTable,
		Columns:    LLMRequestEventsColumns,
		PrimaryKey: []*schema.Column{LLMRequestEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequestevent_timestamp", Columns: []*schema.Column{LLMRequestEventsColumns[2]}},
			{Name: "llmrequestevent_purpose", Columns: []*schema.Column{LLMRequestEventsColumns[5]}},
			{Name: "llmrequestevent_success", Columns: []*schema.Column{LLMRequestEventsColumns[9]}},
		},
	}

	// SequencesColumns holds the columns for the "sequences" table.
	SequencesColumns = []*schema.Column{
		{Name: "name", Type: field.TypeString},
		{Name: "next_val", Type: field.TypeInt64, Default: 1},
	}
	// SequencesTable holds the named counters handed out by sequence.Next.
	SequencesTable = &schema.Table{
		Name:       sequencesTable,
		Columns:    SequencesColumns,
		PrimaryKey: []*schema.Column{SequencesColumns[0]},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		LessonsTable,
		LessonProgressTable,
		LLMRequestEventsTable,
		SequencesTable,
	}
)

// migrate creates missing tables, columns and indexes. It never drops
// anything, so older databases keep their data across upgrades.
func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv, schema.WithForeignKeys(false))
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}
