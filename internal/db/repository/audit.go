// Package repository implements the audit history persistence port over
// SQLite.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"adlens/internal/domain"
)

// AuditRepo persists audit runs and their findings.
type AuditRepo struct {
	db *sql.DB
}

// NewAuditRepo creates a repository over the given pool.
func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// CreateRun inserts a new run in RUNNING state.
func (r *AuditRepo) CreateRun(ctx context.Context, run *domain.AuditRun) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_runs (id, direction, root_identity, root_dn, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Direction, run.RootIdentity, run.RootDN, run.Status, run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit run: %w", err)
	}
	return nil
}

// FinishRun records the final state of a run.
func (r *AuditRepo) FinishRun(ctx context.Context, run *domain.AuditRun) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE audit_runs
		SET root_dn = ?, status = ?, object_count = ?, warning_count = ?,
		    truncated = ?, error_message = ?, finished_at = ?
		WHERE id = ?`,
		run.RootDN, run.Status, run.ObjectCount, run.WarningCount,
		run.Truncated, run.ErrorMessage, run.FinishedAt, run.ID,
	)
	if err != nil {
		return fmt.Errorf("finish audit run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound("audit run %q not found", run.ID)
	}
	return nil
}

// AddFindings bulk-inserts the findings of a run in one transaction.
func (r *AuditRepo) AddFindings(ctx context.Context, runID string, findings []domain.AuditFinding) error {
	if len(findings) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin findings tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO audit_findings (run_id, dn, kind, name, depth, source_group, inactive)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare findings insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, f := range findings {
		if _, err := stmt.ExecContext(ctx, runID, f.DN, string(f.Kind), f.Name, f.Depth, f.SourceGroup, f.Inactive); err != nil {
			return fmt.Errorf("insert finding %q: %w", f.DN, err)
		}
	}
	return tx.Commit()
}

// GetRun fetches a single run by id.
func (r *AuditRepo) GetRun(ctx context.Context, id string) (*domain.AuditRun, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, direction, root_identity, root_dn, status, object_count,
		       warning_count, truncated, error_message, started_at, finished_at
		FROM audit_runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("audit run %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get audit run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (r *AuditRepo) ListRuns(ctx context.Context, limit int) ([]domain.AuditRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, direction, root_identity, root_dn, status, object_count,
		       warning_count, truncated, error_message, started_at, finished_at
		FROM audit_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.AuditRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit run: %w", err)
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}

// ListFindings returns all findings of a run in insertion order.
func (r *AuditRepo) ListFindings(ctx context.Context, runID string) ([]domain.AuditFinding, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, run_id, dn, kind, name, depth, source_group, inactive
		FROM audit_findings WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list findings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.AuditFinding
	for rows.Next() {
		var f domain.AuditFinding
		var kind string
		if err := rows.Scan(&f.ID, &f.RunID, &f.DN, &kind, &f.Name, &f.Depth, &f.SourceGroup, &f.Inactive); err != nil {
			return nil, fmt.Errorf("scan finding: %w", err)
		}
		f.Kind = domain.ObjectKind(kind)
		out = append(out, f)
	}
	return out, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*domain.AuditRun, error) {
	var run domain.AuditRun
	err := s.Scan(
		&run.ID, &run.Direction, &run.RootIdentity, &run.RootDN, &run.Status,
		&run.ObjectCount, &run.WarningCount, &run.Truncated, &run.ErrorMessage,
		&run.StartedAt, &run.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}
