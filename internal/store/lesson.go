package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"
)

var lessonColumns = []string{
	"id", "level", "day_number", "title", "content",
	"content_updated_at", "model", "prompt_version",
	"created_at", "updated_at",
}

// lessonRepo implements LessonRepo with ent's SQL builders.
type lessonRepo struct {
	db  *sql.DB
	now func() time.Time
}

func (r *lessonRepo) Get(ctx context.Context, level string, day int) (*LessonRecord, error) {
	b := entsql.Dialect(dialect.SQLite)
	query, args := b.Select(lessonColumns...).
		From(b.Table(lessonsTable)).
		Where(entsql.And(
			entsql.EQ("level", level),
			entsql.EQ("day_number", day),
		)).
		Limit(1).
		Query()

	rec, err := scanLesson(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get lesson %s/%d: %w", level, day, err)
	}
	return rec, nil
}

func (r *lessonRepo) Create(ctx context.Context, rec *LessonRecord) error {
	now := r.now()
	query, args := entsql.Dialect(dialect.SQLite).
		Insert(lessonsTable).
		Columns("level", "day_number", "title", "created_at", "updated_at").
		Values(rec.Level, rec.DayNumber, rec.Title, now, now).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if sqlgraph.IsUniqueConstraintError(err) {
			return ErrDuplicateLesson
		}
		return fmt.Errorf("create lesson %s/%d: %w", rec.Level, rec.DayNumber, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("lesson id: %w", err)
	}
	rec.ID = int(id)
	rec.Content = nil
	rec.Generation = nil
	rec.CreatedAt = now
	rec.UpdatedAt = now
	return nil
}

func (r *lessonRepo) Save(ctx context.Context, rec *LessonRecord) error {
	now := r.now()
	upd := entsql.Dialect(dialect.SQLite).
		Update(lessonsTable).
		Set("title", rec.Title).
		Set("updated_at", now).
		Where(entsql.EQ("id", rec.ID))

	if rec.Content == nil {
		upd.SetNull("content").
			SetNull("content_updated_at").
			SetNull("model").
			SetNull("prompt_version")
	} else {
		upd.Set("content", string(rec.Content))
		// Metadata always describes the content being written. Content
		// saved without it is unstamped, and therefore stale.
		if g := rec.Generation; g != nil {
			upd.Set("content_updated_at", g.UpdatedAt.UTC()).
				Set("model", g.Model).
				Set("prompt_version", g.PromptVersion)
		} else {
			upd.SetNull("content_updated_at").
				SetNull("model").
				SetNull("prompt_version")
		}
	}

	query, args := upd.Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("save lesson %d: %w", rec.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrLessonMissing
	}
	rec.UpdatedAt = now
	return nil
}

func (r *lessonRepo) SetTitle(ctx context.Context, id int, title string) error {
	query, args := entsql.Dialect(dialect.SQLite).
		Update(lessonsTable).
		Set("title", title).
		Set("updated_at", r.now()).
		Where(entsql.EQ("id", id)).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set lesson %d title: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrLessonMissing
	}
	return nil
}

func (r *lessonRepo) ListByLevel(ctx context.Context, level string) ([]*LessonRecord, error) {
	b := entsql.Dialect(dialect.SQLite)
	query, args := b.Select(lessonColumns...).
		From(b.Table(lessonsTable)).
		Where(entsql.EQ("level", level)).
		OrderBy(entsql.Asc("day_number")).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list lessons %s: %w", level, err)
	}
	defer rows.Close()

	var out []*LessonRecord
	for rows.Next() {
		rec, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *lessonRepo) Levels(ctx context.Context) ([]string, error) {
	b := entsql.Dialect(dialect.SQLite)
	query, args := b.Select("level").
		Distinct().
		From(b.Table(lessonsTable)).
		OrderBy(entsql.Asc("level")).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list levels: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var level string
		if err := rows.Scan(&level); err != nil {
			return nil, fmt.Errorf("scan level: %w", err)
		}
		out = append(out, level)
	}
	return out, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanLesson(row rowScanner) (*LessonRecord, error) {
	var (
		rec       LessonRecord
		content   sql.NullString
		genAt     sql.NullTime
		model     sql.NullString
		promptVer sql.NullInt64
	)
	err := row.Scan(
		&rec.ID, &rec.Level, &rec.DayNumber, &rec.Title, &content,
		&genAt, &model, &promptVer,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if content.Valid && content.String != "" {
		rec.Content = []byte(content.String)
	}
	if genAt.Valid {
		rec.Generation = &GenerationMeta{
			UpdatedAt:     genAt.Time,
			Model:         model.String,
			PromptVersion: int(promptVer.Int64),
		}
	}
	return &rec, nil
}
