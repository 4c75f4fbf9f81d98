package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// eventRepo implements EventRepo on the llm_events table.
type eventRepo struct {
	db  *sql.DB
	now func() time.Time
}

const eventColumns = `id, timestamp, provider, model, purpose, input_tokens, output_tokens,
	latency_ms, success, error_message, request_body, response_body`

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO llm_events (timestamp, provider, model, purpose, input_tokens, output_tokens,
			latency_ms, success, error_message, request_body, response_body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		formatTime(r.now()), data.Provider, data.Model, data.Purpose,
		data.InputTokens, data.OutputTokens, data.LatencyMs, data.Success,
		data.ErrorMessage, data.RequestBody, data.ResponseBody,
	)
	if err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error) {
	var (
		where []string
		args  []any
	)
	if opts.After > 0 {
		where = append(where, "id > ?")
		args = append(args, opts.After)
	}
	if opts.Before > 0 {
		where = append(where, "id < ?")
		args = append(args, opts.Before)
	}
	if !opts.From.IsZero() {
		where = append(where, "timestamp >= ?")
		args = append(args, formatTime(opts.From))
	}
	if !opts.To.IsZero() {
		where = append(where, "timestamp <= ?")
		args = append(args, formatTime(opts.To))
	}
	if opts.Purpose != "" {
		where = append(where, "purpose = ?")
		args = append(args, opts.Purpose)
	}

	q := `SELECT ` + eventColumns + ` FROM llm_events`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id DESC"
	if opts.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	defer rows.Close()

	var out []LLMRequestEventRecord
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan LLM event: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM llm_events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get LLM event: %w", err)
	}
	return e, nil
}

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT purpose, COUNT(*), COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0),
			CAST(COALESCE(AVG(latency_ms), 0) AS INTEGER)
		FROM llm_events
		GROUP BY purpose
		ORDER BY purpose`)
	if err != nil {
		return nil, fmt.Errorf("query usage by purpose: %w", err)
	}
	defer rows.Close()

	var out []LLMUsageStats
	for rows.Next() {
		var st LLMUsageStats
		if err := rows.Scan(&st.Purpose, &st.Calls, &st.InputTokens, &st.OutputTokens, &st.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT model, COUNT(*), COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0)
		FROM llm_events
		GROUP BY model
		ORDER BY model`)
	if err != nil {
		return nil, fmt.Errorf("query usage by model: %w", err)
	}
	defer rows.Close()

	var out []LLMModelUsage
	for rows.Next() {
		var mu LLMModelUsage
		if err := rows.Scan(&mu.Model, &mu.Calls, &mu.InputTokens, &mu.OutputTokens); err != nil {
			return nil, fmt.Errorf("scan model usage: %w", err)
		}
		out = append(out, mu)
	}
	return out, rows.Err()
}

func scanEvent(row rowScanner) (*LLMRequestEventRecord, error) {
	var (
		e  LLMRequestEventRecord
		ts string
	)
	err := row.Scan(&e.ID, &ts, &e.Provider, &e.Model, &e.Purpose, &e.InputTokens, &e.OutputTokens,
		&e.LatencyMs, &e.Success, &e.ErrorMessage, &e.RequestBody, &e.ResponseBody)
	if err != nil {
		return nil, err
	}
	if e.Timestamp, err = parseTime(ts); err != nil {
		return nil, fmt.Errorf("parse timestamp: %w", err)
	}
	return &e, nil
}
