// Package spanstore persists spans posted by the JSON span exporter and
// serves them back per trace.
package spanstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/srclos-net/aws-micro-test/internal/model"
)

const (
	// Re-inserting a known trace id returns the existing row id.
	upsertTrace = "INSERT INTO traces (trace_id, timestamp) VALUES (?, ?) " +
		"ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)"
	insertSpan = "INSERT INTO spans (trace_id, span_id, parent_id, name, duration, timestamp, tags, local_endpoint) " +
		"VALUES (?, ?, ?, ?, ?, ?, ?, ?)"
	selectTrace = "SELECT id FROM traces WHERE trace_id = ?"
	selectSpans = "SELECT span_id, parent_id, name, duration, timestamp, tags, local_endpoint " +
		"FROM spans WHERE trace_id = ? ORDER BY timestamp"
)

var ErrTraceNotFound = errors.New("trace not found")

// Tx is the transaction used to store a batch of spans.
type Tx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Commit() error
	Rollback() error
}

type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SaveSpans stores spans in tx and commits, or rolls back on the first error.
func SaveSpans(ctx context.Context, tx Tx, spans []model.Span) error {
	if err := saveSpans(ctx, tx, spans); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("failed to rollback transaction: %w", rbErr))
		}

		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func saveSpans(ctx context.Context, tx Tx, spans []model.Span) error {
	traceIDs := make(map[string]int64)

	for _, span := range spans {
		id, ok := traceIDs[span.TraceID]
		if !ok {
			res, err := tx.ExecContext(ctx, upsertTrace, span.TraceID, span.Timestamp)
			if err != nil {
				return fmt.Errorf("failed to insert trace %s: %w", span.TraceID, err)
			}

			id, err = res.LastInsertId()
			if err != nil {
				return err
			}

			traceIDs[span.TraceID] = id
		}

		tags, err := json.Marshal(span.Tags)
		if err != nil {
			return err
		}

		endpoint, err := json.Marshal(span.LocalEndpoint)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, insertSpan,
			id, span.ID, span.ParentID, span.Name, span.Duration, span.Timestamp, tags, endpoint)
		if err != nil {
			return fmt.Errorf("failed to insert span %s: %w", span.ID, err)
		}
	}

	return nil
}

// TraceSpans returns the spans of traceID ordered by start time.
func TraceSpans(ctx context.Context, q Querier, traceID string) ([]model.Span, error) {
	var id int64

	err := q.QueryRowContext(ctx, selectTrace, traceID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTraceNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query traces table: %w", err)
	}

	rows, err := q.QueryContext(ctx, selectSpans, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query spans: %w", err)
	}
	defer rows.Close()

	spans := make([]model.Span, 0)

	for rows.Next() {
		var (
			s        = model.Span{TraceID: traceID}
			parentID sql.NullString
			tags     []byte
			endpoint []byte
		)

		if err := rows.Scan(&s.ID, &parentID, &s.Name, &s.Duration, &s.Timestamp, &tags, &endpoint); err != nil {
			return nil, fmt.Errorf("failed to scan span row: %w", err)
		}

		s.ParentID = parentID.String

		if err := unmarshalMap(tags, &s.Tags); err != nil {
			return nil, err
		}

		if err := unmarshalMap(endpoint, &s.LocalEndpoint); err != nil {
			return nil, err
		}

		spans = append(spans, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over span rows: %w", err)
	}

	return spans, nil
}

func unmarshalMap(data []byte, m *map[string]string) error {
	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, m); err != nil {
		return fmt.Errorf("failed to decode span column: %w", err)
	}

	return nil
}
