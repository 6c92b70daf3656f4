package glucose

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	readingColumns = `id, user_id, value, "timestamp", moment_of_day, notes, created_at`

	insertReadingQuery = `
		INSERT INTO glucose_readings (id, user_id, value, "timestamp", moment_of_day, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	getReadingQuery    = `SELECT ` + readingColumns + ` FROM glucose_readings WHERE id = $1`
	deleteReadingQuery = `DELETE FROM glucose_readings WHERE id = $1`

	updateReadingQuery = `
		UPDATE glucose_readings
		SET value = $1, "timestamp" = $2, moment_of_day = $3, notes = $4
		WHERE id = $5
	`

	statsQuery = `
		SELECT COALESCE(AVG(value), 0), COALESCE(MIN(value), 0), COALESCE(MAX(value), 0), COUNT(*)
		FROM glucose_readings
		WHERE user_id = $1
	`
)

var _ Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// listQuery builds the filtered listing with positional arguments.
func listQuery(userID uuid.UUID, f Filter) (string, []any) {
	var b strings.Builder
	args := []any{userID}
	b.WriteString(`SELECT ` + readingColumns + ` FROM glucose_readings WHERE user_id = $1`)

	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if f.From != nil {
		b.WriteString(` AND "timestamp" >= ` + arg(*f.From))
	}
	if f.To != nil {
		b.WriteString(` AND "timestamp" <= ` + arg(*f.To))
	}
	if f.MomentOfDay != nil {
		b.WriteString(` AND moment_of_day = ` + arg(string(*f.MomentOfDay)))
	}
	b.WriteString(` ORDER BY "timestamp" DESC, created_at DESC`)
	if f.Limit > 0 {
		b.WriteString(` LIMIT ` + arg(f.Limit))
	}
	return b.String(), args
}

func (r *PostgresRepository) List(ctx context.Context, userID uuid.UUID, filter Filter) ([]Reading, error) {
	query, args := listQuery(userID, filter)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	defer rows.Close()

	out := make([]Reading, 0)
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		out = append(out, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (Reading, error) {
	reading, err := scanReading(r.db.QueryRowContext(ctx, getReadingQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Reading{}, ErrNotFound
		}
		return Reading{}, fmt.Errorf("select reading: %w", err)
	}
	return reading, nil
}

func (r *PostgresRepository) Create(ctx context.Context, reading Reading) error {
	_, err := r.db.ExecContext(ctx, insertReadingQuery,
		reading.ID,
		reading.UserID,
		reading.Value,
		reading.Timestamp,
		string(reading.MomentOfDay),
		nullableNotes(reading.Notes),
		reading.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, reading Reading) error {
	result, err := r.db.ExecContext(ctx, updateReadingQuery,
		reading.Value,
		reading.Timestamp,
		string(reading.MomentOfDay),
		nullableNotes(reading.Notes),
		reading.ID,
	)
	if err != nil {
		return fmt.Errorf("update reading: %w", err)
	}
	return expectOne(result)
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, deleteReadingQuery, id)
	if err != nil {
		return fmt.Errorf("delete reading: %w", err)
	}
	return expectOne(result)
}

func (r *PostgresRepository) Stats(ctx context.Context, userID uuid.UUID) (Stats, error) {
	var s Stats
	err := r.db.QueryRowContext(ctx, statsQuery, userID).Scan(&s.Average, &s.Minimum, &s.Maximum, &s.TotalReadings)
	if err != nil {
		return Stats{}, fmt.Errorf("reading stats: %w", err)
	}
	return s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReading(row rowScanner) (Reading, error) {
	var (
		r      Reading
		moment string
		notes  sql.NullString
	)
	if err := row.Scan(&r.ID, &r.UserID, &r.Value, &r.Timestamp, &moment, &notes, &r.CreatedAt); err != nil {
		return Reading{}, err
	}
	r.MomentOfDay = MomentOfDay(moment)
	if notes.Valid {
		r.Notes = &notes.String
	}
	return r, nil
}

func expectOne(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableNotes(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
