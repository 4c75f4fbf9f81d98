package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/quizzly/internal/quiz"
)

// recordRepo implements RecordRepo on the quiz_records table.
type recordRepo struct {
	db  *sql.DB
	now func() time.Time
}

const recordColumns = `id, name, first_question_text, quiz_json, raw_model_text,
	owner_uid, owner_email, created_at, updated_at`

func (r *recordRepo) Create(ctx context.Context, in NewRecord) (*Record, error) {
	in, err := in.Normalize()
	if err != nil {
		return nil, err
	}

	var quizJSON string
	if in.Quiz != nil {
		b, err := json.Marshal(in.Quiz)
		if err != nil {
			return nil, fmt.Errorf("encode quiz: %w", err)
		}
		quizJSON = string(b)
	}

	now := r.now().UTC()
	rec := &Record{
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

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO quiz_records (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.FirstQuestionText, quizJSON, rec.RawModelText,
		rec.OwnerUID, rec.OwnerEmail, formatTime(now), formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert quiz record: %w", err)
	}
	return rec, nil
}

func (r *recordRepo) Get(ctx context.Context, id string) (*Record, error) {
	id, err := NormalizeID(id)
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM quiz_records WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get quiz record: %w", err)
	}
	return rec, nil
}

func (r *recordRepo) Touch(ctx context.Context, id string) error {
	id, err := NormalizeID(id)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE quiz_records SET updated_at = ? WHERE id = ?`, formatTime(r.now()), id)
	if err != nil {
		return fmt.Errorf("touch quiz record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch quiz record: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *recordRepo) List(ctx context.Context, limit int) ([]Record, error) {
	q := `SELECT ` + recordColumns + ` FROM quiz_records ORDER BY created_at DESC, id`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list quiz records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quiz record: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec                  Record
		quizJSON             string
		ownerUID, ownerEmail sql.NullString
		created, updated     string
	)
	err := row.Scan(&rec.ID, &rec.Name, &rec.FirstQuestionText, &quizJSON, &rec.RawModelText,
		&ownerUID, &ownerEmail, &created, &updated)
	if err != nil {
		return nil, err
	}

	if quizJSON != "" {
		var q quiz.Quiz
		if err := json.Unmarshal([]byte(quizJSON), &q); err != nil {
			return nil, fmt.Errorf("decode quiz for %s: %w", rec.ID, err)
		}
		rec.Quiz = &q
	}
	if ownerUID.Valid {
		rec.OwnerUID = &ownerUID.String
	}
	if ownerEmail.Valid {
		rec.OwnerEmail = &ownerEmail.String
	}
	if rec.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if rec.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &rec, nil
}
