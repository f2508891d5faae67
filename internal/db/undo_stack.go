package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/marcus/driftsync/internal/models"
)

// InsertUndoEntry persists the undo entry paired with a sync operation and
// transactionally enforces the live-entry cap: when the insert pushes the
// number of live entries past liveCap, the oldest live entries are expired
// (expiration set to now, which counts as expired). Returns how many entries
// were evicted.
func (db *DB) InsertUndoEntry(entry *models.UndoStackEntry, liveCap int, now time.Time) (int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO undo_stack (operation_id, pre_state_hash, post_state_hash, expiration, undone_at, created_at)
		VALUES (?, ?, ?, ?, NULL, ?)
	`, entry.OperationID, entry.PreStateHash, entry.PostStateHash,
		fmtTime(entry.Expiration), fmtTime(entry.CreatedAt))
	if err != nil {
		return 0, fmt.Errorf("insert undo entry: %w", err)
	}
	if entry.ID, err = res.LastInsertId(); err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	evicted := 0
	if liveCap > 0 {
		nowStr := fmtTime(now)

		var live int
		err = tx.QueryRow(`SELECT COUNT(*) FROM undo_stack WHERE undone_at IS NULL AND expiration > ?`, nowStr).Scan(&live)
		if err != nil {
			return 0, fmt.Errorf("count live entries: %w", err)
		}

		if overflow := live - liveCap; overflow > 0 {
			res, err := tx.Exec(`
				UPDATE undo_stack SET expiration = ? WHERE id IN (
					SELECT id FROM undo_stack
					WHERE undone_at IS NULL AND expiration > ?
					ORDER BY created_at ASC, id ASC
					LIMIT ?
				)
			`, nowStr, nowStr, overflow)
			if err != nil {
				return 0, fmt.Errorf("evict oldest entries: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return 0, fmt.Errorf("rows affected: %w", err)
			}
			evicted = int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return evicted, nil
}

// GetUndoEntry returns the undo entry for an operation, or nil if absent
func (db *DB) GetUndoEntry(operationID string) (*models.UndoStackEntry, error) {
	var e models.UndoStackEntry
	var expiration, createdAt string
	var undoneAt sql.NullString
	err := db.conn.QueryRow(`
		SELECT id, operation_id, pre_state_hash, post_state_hash, expiration, undone_at, created_at
		FROM undo_stack WHERE operation_id = ?
	`, operationID).Scan(&e.ID, &e.OperationID, &e.PreStateHash, &e.PostStateHash,
		&expiration, &undoneAt, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query undo entry: %w", err)
	}

	if e.Expiration, err = parseTimestamp(expiration); err != nil {
		return nil, fmt.Errorf("parse expiration: %w", err)
	}
	if e.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if undoneAt.Valid {
		t, err := parseTimestamp(undoneAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse undone_at: %w", err)
		}
		e.UndoneAt = &t
	}
	return &e, nil
}

// MarkUndone flips undone_at from NULL to now as a single conditional
// update. The guard closes the race between concurrent undo attempts for
// the same operation: exactly one caller observes true. Entries at or past
// expiration are never marked.
func (db *DB) MarkUndone(operationID string, now time.Time) (bool, error) {
	res, err := db.conn.Exec(`
		UPDATE undo_stack SET undone_at = ?
		WHERE operation_id = ? AND undone_at IS NULL AND expiration > ?
	`, fmtTime(now), operationID, fmtTime(now))
	if err != nil {
		return false, fmt.Errorf("mark undone: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return rows == 1, nil
}

// CountLiveUndoEntries returns the number of usable (not undone, not
// expired) entries at the given instant
func (db *DB) CountLiveUndoEntries(now time.Time) (int, error) {
	var count int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM undo_stack WHERE undone_at IS NULL AND expiration > ?`,
		fmtTime(now)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count live entries: %w", err)
	}
	return count, nil
}

// PruneUndoEntries deletes entries that expired before the cutoff. Expired
// entries are kept around for inspection until a retention job calls this.
func (db *DB) PruneUndoEntries(cutoff time.Time) (int, error) {
	res, err := db.conn.Exec(`DELETE FROM undo_stack WHERE expiration < ?`, fmtTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune undo entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}
