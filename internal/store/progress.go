package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

var progressColumns = []string{
	"id", "user_id", "level", "day_number", "lesson_id", "completed",
	"score", "accuracy", "time_spent_secs", "completed_at",
	"created_at", "updated_at",
}

// progressRepo implements ProgressRepo with ent's SQL builders.
type progressRepo struct {
	db  *sql.DB
	now func() time.Time
}

func (r *progressRepo) Complete(ctx context.Context, upd ProgressUpdate) (*ProgressEntry, error) {
	if err := validateProgress(upd); err != nil {
		return nil, err
	}

	var lessonID any
	if upd.LessonID > 0 {
		lessonID = upd.LessonID
	}

	now := r.now()
	query, args := entsql.Dialect(dialect.SQLite).
		Insert(progressTable).
		Columns(
			"user_id", "level", "day_number", "lesson_id", "completed",
			"score", "accuracy", "time_spent_secs", "completed_at",
			"created_at", "updated_at",
		).
		Values(
			upd.UserID, upd.Level, upd.DayNumber, lessonID, true,
			upd.Score, upd.Accuracy, upd.TimeSpentSecs, now,
			now, now,
		).
		OnConflict(
			entsql.ConflictColumns("user_id", "level", "day_number"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				for _, c := range []string{
					"lesson_id", "completed", "score", "accuracy",
					"time_spent_secs", "completed_at", "updated_at",
				} {
					u.SetExcluded(c)
				}
			}),
		).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("upsert progress: %w", err)
	}

	b := entsql.Dialect(dialect.SQLite)
	query, args = b.Select(progressColumns...).
		From(b.Table(progressTable)).
		Where(entsql.And(
			entsql.EQ("user_id", upd.UserID),
			entsql.EQ("level", upd.Level),
			entsql.EQ("day_number", upd.DayNumber),
		)).
		Query()

	entry, err := scanProgress(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("reload progress: %w", err)
	}
	return entry, nil
}

func (r *progressRepo) List(ctx context.Context, userID, level string) ([]*ProgressEntry, error) {
	preds := []*entsql.Predicate{
		entsql.EQ("user_id", userID),
		entsql.EQ("completed", true),
	}
	if level != "" {
		preds = append(preds, entsql.EQ("level", level))
	}

	b := entsql.Dialect(dialect.SQLite)
	query, args := b.Select(progressColumns...).
		From(b.Table(progressTable)).
		Where(entsql.And(preds...)).
		OrderBy(entsql.Asc("level"), entsql.Asc("day_number")).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	var out []*ProgressEntry
	for rows.Next() {
		e, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func validateProgress(upd ProgressUpdate) error {
	var errs []error
	if strings.TrimSpace(upd.UserID) == "" {
		errs = append(errs, errors.New("user id is required"))
	}
	if upd.Level == "" {
		errs = append(errs, errors.New("level is required"))
	}
	if upd.DayNumber < 1 {
		errs = append(errs, fmt.Errorf("day %d must be positive", upd.DayNumber))
	}
	if upd.Score < 0 || upd.Score > 100 {
		errs = append(errs, fmt.Errorf("score %d outside 0..100", upd.Score))
	}
	if upd.Accuracy < 0 || upd.Accuracy > 100 {
		errs = append(errs, fmt.Errorf("accuracy %d outside 0..100", upd.Accuracy))
	}
	if upd.TimeSpentSecs < 0 {
		errs = append(errs, fmt.Errorf("time spent %ds is negative", upd.TimeSpentSecs))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidProgress, errors.Join(errs...))
}

func scanProgress(row rowScanner) (*ProgressEntry, error) {
	var (
		e           ProgressEntry
		lessonID    sql.NullInt64
		completedAt sql.NullTime
	)
	err := row.Scan(
		&e.ID, &e.UserID, &e.Level, &e.DayNumber, &lessonID, &e.Completed,
		&e.Score, &e.Accuracy, &e.TimeSpentSecs, &completedAt,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.LessonID = int(lessonID.Int64)
	if completedAt.Valid {
		e.CompletedAt = completedAt.Time
	}
	return &e, nil
}
