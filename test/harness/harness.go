// Package harness wires the real storage layer, file snapshot provider, sync
// engine and undo manager together for end-to-end scenario tests. Each
// harness gets its own temp directory and a controllable clock.
package harness

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marcus/driftsync/internal/db"
	"github.com/marcus/driftsync/internal/snapshot"
	driftsync "github.com/marcus/driftsync/internal/sync"
	"github.com/marcus/driftsync/internal/undo"
)

// Component is one entry in the harness snapshot document
type Component struct {
	Ref    string            `json:"ref,omitempty"`
	Code   map[string]string `json:"code"`
	Design map[string]string `json:"design"`
}

// Harness holds a fully wired stack over a temp directory
type Harness struct {
	t      *testing.T
	DB     *db.DB
	Engine *driftsync.Engine
	Undo   *undo.Manager

	clock time.Time
}

// NewHarness initializes the store, writes the snapshot document and wires
// the engine and undo manager to a shared fake clock.
func NewHarness(t *testing.T, components map[string]Component, opts driftsync.Options) *Harness {
	t.Helper()

	baseDir := t.TempDir()
	database, err := db.Initialize(baseDir)
	if err != nil {
		t.Fatalf("initialize store: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	snapshotPath := filepath.Join(baseDir, "snapshots.json")
	doc, err := json.Marshal(components)
	if err != nil {
		t.Fatalf("marshal snapshots: %v", err)
	}
	if err := os.WriteFile(snapshotPath, doc, 0644); err != nil {
		t.Fatalf("write snapshots: %v", err)
	}
	provider, err := snapshot.NewFileProvider(snapshotPath)
	if err != nil {
		t.Fatalf("open snapshot provider: %v", err)
	}

	h := &Harness{
		t:     t,
		DB:    database,
		clock: time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
	}
	opts.Now = h.Now
	h.Engine = driftsync.New(database, provider, opts)
	h.Undo = undo.New(database, nil, h.Now)
	return h
}

// Now is the harness clock
func (h *Harness) Now() time.Time {
	return h.clock
}

// Advance moves the harness clock forward
func (h *Harness) Advance(d time.Duration) {
	h.clock = h.clock.Add(d)
}

// MustSync runs a sync batch and fails the test on error
func (h *Harness) MustSync(input driftsync.ExecuteInput) *driftsync.Result {
	h.t.Helper()
	result, err := h.Engine.Execute(input)
	if err != nil {
		h.t.Fatalf("sync: %v", err)
	}
	return result
}

// MustUndo attempts an undo and fails the test on protocol error
func (h *Harness) MustUndo(operationID string) *undo.Result {
	h.t.Helper()
	result, err := h.Undo.Undo(undo.Request{OperationID: operationID})
	if err != nil {
		h.t.Fatalf("undo %s: %v", operationID, err)
	}
	return result
}
