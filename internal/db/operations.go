package db

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/marcus/driftsync/internal/models"
)

// InsertOperation persists a new sync operation row
func (db *DB) InsertOperation(op *models.SyncOperation) error {
	components, err := json.Marshal(op.ComponentsAffected)
	if err != nil {
		return fmt.Errorf("marshal components: %w", err)
	}
	modes, err := json.Marshal(op.DirectionModes)
	if err != nil {
		return fmt.Errorf("marshal direction modes: %w", err)
	}
	summary, err := json.Marshal(op.DiffSummary)
	if err != nil {
		return fmt.Errorf("marshal diff summary: %w", err)
	}

	_, err = db.conn.Exec(`
		INSERT INTO sync_operations (id, components_affected, direction_modes, diff_summary, operation_hash, reversible_until, status, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, op.ID, string(components), string(modes), string(summary), op.OperationHash,
		fmtTime(op.ReversibleUntil), string(op.Status), op.DurationMs, fmtTime(op.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert operation: %w", err)
	}
	return nil
}

// FinalizeOperation sets the terminal status and measured duration. The row
// is otherwise immutable once completed.
func (db *DB) FinalizeOperation(id string, status models.OperationStatus, durationMs int64) error {
	res, err := db.conn.Exec(`UPDATE sync_operations SET status = ?, duration_ms = ? WHERE id = ?`,
		string(status), durationMs, id)
	if err != nil {
		return fmt.Errorf("finalize operation: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("operation %s not found", id)
	}
	return nil
}

// GetOperation returns the operation with the given ID, or nil if absent
func (db *DB) GetOperation(id string) (*models.SyncOperation, error) {
	row := db.conn.QueryRow(`
		SELECT id, components_affected, direction_modes, diff_summary, operation_hash, reversible_until, status, duration_ms, created_at
		FROM sync_operations WHERE id = ?
	`, id)
	op, err := scanOperation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return op, err
}

// GetOperationByHash looks an operation up by its idempotency key, or nil if
// absent. Upstream callers use this to recognize a retried identical batch.
func (db *DB) GetOperationByHash(operationHash string) (*models.SyncOperation, error) {
	row := db.conn.QueryRow(`
		SELECT id, components_affected, direction_modes, diff_summary, operation_hash, reversible_until, status, duration_ms, created_at
		FROM sync_operations WHERE operation_hash = ?
	`, operationHash)
	op, err := scanOperation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return op, err
}

// ListOperations returns the most recent operations, newest first
func (db *DB) ListOperations(limit int) ([]models.SyncOperation, error) {
	rows, err := db.conn.Query(`
		SELECT id, components_affected, direction_modes, diff_summary, operation_hash, reversible_until, status, duration_ms, created_at
		FROM sync_operations
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	var ops []models.SyncOperation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, *op)
	}
	return ops, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanOperation(s scanner) (*models.SyncOperation, error) {
	var op models.SyncOperation
	var components, modes, summary, status, reversibleUntil, createdAt string
	if err := s.Scan(&op.ID, &components, &modes, &summary, &op.OperationHash,
		&reversibleUntil, &status, &op.DurationMs, &createdAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(components), &op.ComponentsAffected); err != nil {
		return nil, fmt.Errorf("unmarshal components: %w", err)
	}
	if err := json.Unmarshal([]byte(modes), &op.DirectionModes); err != nil {
		return nil, fmt.Errorf("unmarshal direction modes: %w", err)
	}
	if err := json.Unmarshal([]byte(summary), &op.DiffSummary); err != nil {
		return nil, fmt.Errorf("unmarshal diff summary: %w", err)
	}
	op.Status = models.OperationStatus(status)

	var err error
	if op.ReversibleUntil, err = parseTimestamp(reversibleUntil); err != nil {
		return nil, fmt.Errorf("parse reversible_until: %w", err)
	}
	if op.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &op, nil
}
