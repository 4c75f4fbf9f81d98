// Package postgres stores quiz records in PostgreSQL through a pgx pool.
// The schema is created by Migrate.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhisek/quizzly/internal/quiz"
	"github.com/abhisek/quizzly/internal/store"
)

// RecordRepo implements store.RecordRepo on a pgx pool.
type RecordRepo struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ store.RecordRepo = (*RecordRepo)(nil)

// Connect opens a pool and checks connectivity.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return pool, nil
}

// NewRecordRepo returns a repo backed by pool.
func NewRecordRepo(pool *pgxpool.Pool) *RecordRepo {
	return &RecordRepo{pool: pool, now: time.Now}
}

const recordColumns = `id, name, first_question_text, quiz, raw_model_text,
	owner_uid, owner_email, created_at, updated_at`

func (r *RecordRepo) Create(ctx context.Context, in store.NewRecord) (*store.Record, error) {
	in, err := in.Normalize()
	if err != nil {
		return nil, err
	}

	var quizJSON []byte
	if in.Quiz != nil {
		if quizJSON, err = json.Marshal(in.Quiz); err != nil {
			return nil, fmt.Errorf("encoding quiz: %w", err)
		}
	}

	// timestamptz keeps microseconds.
	now := r.now().UTC().Truncate(time.Microsecond)
	rec := &store.Record{
		ID:                uuid.NewString(),
		Name:              in.Name,
		FirstQuestionText: in.FirstQuestionText,
		Quiz:              in.Quiz,
		RawModelText:      in.RawModelText,
		OwnerUID:          in.OwnerUID,
		OwnerEmail:        in.OwnerEmail,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO quiz_records (`+recordColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.Name, rec.FirstQuestionText, quizJSON, rec.RawModelText,
		rec.OwnerUID, rec.OwnerEmail, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting quiz record: %w", err)
	}
	return rec, nil
}

func (r *RecordRepo) Get(ctx context.Context, id string) (*store.Record, error) {
	id, err := store.NormalizeID(id)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM quiz_records WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading quiz record: %w", err)
	}
	return rec, nil
}

func (r *RecordRepo) Touch(ctx context.Context, id string) error {
	id, err := store.NormalizeID(id)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE quiz_records SET updated_at = $1 WHERE id = $2`,
		r.now().UTC().Truncate(time.Microsecond), id)
	if err != nil {
		return fmt.Errorf("touching quiz record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *RecordRepo) List(ctx context.Context, limit int) ([]store.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM quiz_records ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing quiz records: %w", err)
	}
	defer rows.Close()

	var out []store.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning quiz record: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func scanRecord(row pgx.Row) (*store.Record, error) {
	var (
		rec      store.Record
		quizJSON []byte
	)
	if err := row.Scan(
		&rec.ID, &rec.Name, &rec.FirstQuestionText, &quizJSON, &rec.RawModelText,
		&rec.OwnerUID, &rec.OwnerEmail, &rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(quizJSON) > 0 {
		var q quiz.Quiz
		if err := json.Unmarshal(quizJSON, &q); err != nil {
			return nil, fmt.Errorf("decoding quiz: %w", err)
		}
		rec.Quiz = &q
	}
	return &rec, nil
}
