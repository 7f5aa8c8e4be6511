package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/schemaflow/schemaflow/internal/report"
)

// Record is one persisted check report.
type Record struct {
	ID             string
	Chain          string
	Fingerprint    string
	CreatedAt      time.Time
	ViolationCount int
	Report         report.JSON
}

// WriteReport persists a report and returns the record written. Report
// IDs are UUIDv7, so lexicographic order within a chain follows creation
// order.
func (s *Store) WriteReport(ctx context.Context, r report.JSON) (*Record, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}

	rec := &Record{
		ID:             uuid.Must(uuid.NewV7()).String(),
		Chain:          r.Chain,
		Fingerprint:    r.Fingerprint,
		CreatedAt:      time.Now().UTC(),
		ViolationCount: len(r.Violations),
		Report:         r,
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (id, chain, fingerprint, created_at, violation_count, report)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.Chain,
		rec.Fingerprint,
		rec.CreatedAt.Format(time.RFC3339Nano),
		rec.ViolationCount,
		string(body),
	)
	if err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	return rec, nil
}

// ListReports returns records for one chain, or for every chain when
// chain is empty, newest first. limit <= 0 means no limit.
func (s *Store) ListReports(ctx context.Context, chain string, limit int) ([]Record, error) {
	query := `
		SELECT id, chain, fingerprint, created_at, violation_count, report
		FROM reports
	`
	var args []any
	if chain != "" {
		query += ` WHERE chain = ?`
		args = append(args, chain)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("list reports: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// GetReport returns the record with the given ID, or sql.ErrNoRows.
func (s *Store) GetReport(ctx context.Context, id string) (*Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chain, fingerprint, created_at, violation_count, report
		FROM reports WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get report: %w", err)
		}
		return nil, sql.ErrNoRows
	}
	return scanRecord(rows)
}

func scanRecord(rows *sql.Rows) (*Record, error) {
	var rec Record
	var createdAt, body string
	if err := rows.Scan(&rec.ID, &rec.Chain, &rec.Fingerprint, &createdAt, &rec.ViolationCount, &body); err != nil {
		return nil, err
	}

	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	rec.CreatedAt = parsed

	if err := json.Unmarshal([]byte(body), &rec.Report); err != nil {
		return nil, fmt.Errorf("decode report body: %w", err)
	}
	return &rec, nil
}
