// Package undo enforces the exactly-once, time-boxed reversal protocol for
// persisted sync operations. Restoring actual artifact state is the caller's
// job after a successful undo; this package owns only the protocol.
package undo

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/marcus/driftsync/internal/db"
	"github.com/marcus/driftsync/internal/metrics"
	"github.com/marcus/driftsync/internal/models"
)

// Request identifies the operation to reverse
type Request struct {
	OperationID string `json:"operation_id"`
}

// Result is the business outcome of an undo attempt. Not-found,
// already-undone and expired are statuses, never errors.
type Result struct {
	UndoneOperationID  string            `json:"undone_operation_id,omitempty"`
	RestoredComponents []string          `json:"restored_components,omitempty"`
	Status             models.UndoStatus `json:"status"`
	Reason             string            `json:"reason,omitempty"`
	DurationMs         int64             `json:"duration_ms"`
}

// Manager executes undo requests against the store
type Manager struct {
	db      *db.DB
	metrics metrics.Recorder
	now     func() time.Time
}

// New creates a manager. Metrics and clock may be nil.
func New(database *db.DB, rec metrics.Recorder, now func() time.Time) *Manager {
	if rec == nil {
		rec = metrics.Nop{}
	}
	if now == nil {
		now = time.Now
	}
	return &Manager{db: database, metrics: rec, now: now}
}

// Undo reverses an operation exactly once within its undo window. The
// undone_at transition is a single conditional update in the store, so two
// concurrent calls for the same operation resolve to one success and one
// failure. Expiration is computed at read time; an entry whose expiration
// has passed (or equals now) reports expired, distinct from failed.
func (m *Manager) Undo(req Request) (*Result, error) {
	if req.OperationID == "" {
		return nil, fmt.Errorf("empty operation id")
	}

	start := m.now()
	opID := db.NormalizeOperationID(req.OperationID)

	op, err := m.db.GetOperation(opID)
	if err != nil {
		return nil, fmt.Errorf("load operation: %w", err)
	}
	if op == nil {
		return m.finish(start, &Result{Status: models.UndoFailed, Reason: "operation not found"})
	}

	entry, err := m.db.GetUndoEntry(opID)
	if err != nil {
		return nil, fmt.Errorf("load undo entry: %w", err)
	}
	if entry == nil {
		return m.finish(start, &Result{Status: models.UndoFailed, Reason: "operation is not reversible"})
	}

	marked, err := m.db.MarkUndone(opID, start)
	if err != nil {
		return nil, fmt.Errorf("mark undone: %w", err)
	}
	if !marked {
		// Re-read to classify the loss: raced/undone vs expired
		entry, err = m.db.GetUndoEntry(opID)
		if err != nil {
			return nil, fmt.Errorf("reload undo entry: %w", err)
		}
		if entry != nil && entry.UndoneAt == nil && !start.Before(entry.Expiration) {
			return m.finish(start, &Result{Status: models.UndoExpired, Reason: "undo window has passed"})
		}
		return m.finish(start, &Result{Status: models.UndoFailed, Reason: "operation was already undone"})
	}

	slog.Info("operation undone",
		"action", "undo", "operation", opID,
		"components", len(op.ComponentsAffected), "pre_state", entry.PreStateHash)
	return m.finish(start, &Result{
		UndoneOperationID:  opID,
		RestoredComponents: op.ComponentsAffected,
		Status:             models.UndoSuccess,
	})
}

func (m *Manager) finish(start time.Time, res *Result) (*Result, error) {
	duration := m.now().Sub(start)
	res.DurationMs = duration.Milliseconds()
	m.metrics.ObserveDuration("undo", duration)
	m.metrics.AddCount("undo."+string(res.Status), 1)
	return res, nil
}
