package store

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// sequence is a named counter in the sequences table. Row IDs come back
// after deletes and a VACUUM; sequence values never do, so an "events
// after N" cursor stays valid for the life of the database.
type sequence struct {
	name string
	db   *sql.DB
}

// newSequence registers name in the sequences table, starting at 1.
// Registering an existing name keeps its current value.
func newSequence(ctx context.Context, db *sql.DB, name string) (*sequence, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Insert(sequencesTable).
		Columns("name", "next_val").
		Values(name, 1).
		OnConflict(entsql.ConflictColumns("name"), entsql.DoNothing()).
		Query()
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("register sequence %s: %w", name, err)
	}
	return &sequence{name: name, db: db}, nil
}

// Next returns the current value and advances the counter in a single
// statement. The builders have no RETURNING for updates, hence raw SQL.
func (s *sequence) Next(ctx context.Context) (int64, error) {
	var v int64
	err := s.db.QueryRowContext(ctx,
		`UPDATE `+sequencesTable+` SET next_val = next_val + 1 WHERE name = ? RETURNING next_val - 1`,
		s.name,
	).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("advance sequence %s: %w", s.name, err)
	}
	return v, nil
}
