package sync

import (
	"testing"
	"time"

	"github.com/marcus/driftsync/internal/db"
	"github.com/marcus/driftsync/internal/models"
	"github.com/marcus/driftsync/internal/snapshot"
)

var testStart = time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, opts Options) (*Engine, *db.DB) {
	t.Helper()
	database, err := db.Initialize(t.TempDir())
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	provider := &snapshot.MemProvider{Snapshots: map[string]*snapshot.Snapshot{
		"cmp-btn": {
			ComponentID:  "cmp-btn",
			ComponentRef: "Button",
			Code:         map[string]string{"color": "red", "size": "md"},
			Design:       map[string]string{"color": "blue", "size": "md", "shadow": "soft"},
		},
		"cmp-card": {
			ComponentID:  "cmp-card",
			ComponentRef: "Card",
			Code:         map[string]string{"padding": "8"},
			Design:       map[string]string{"padding": "8"},
		},
	}}

	if opts.Now == nil {
		opts.Now = func() time.Time { return testStart }
	}
	return New(database, provider, opts), database
}

func TestExecute_DryRunPersistsNothing(t *testing.T) {
	engine, database := newTestEngine(t, Options{})

	result, err := engine.Execute(ExecuteInput{
		Components: []ComponentSelector{{ComponentID: "cmp-btn", Direction: models.DirectionPush}},
		DryRun:     true,
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Status != models.OperationPending {
		t.Errorf("dry run status = %s, want pending", result.Status)
	}
	if result.OperationID != "" {
		t.Errorf("dry run assigned an operation id: %s", result.OperationID)
	}
	if result.DiffSummary.Total != 1 {
		t.Errorf("expected drift detected, total = %d", result.DiffSummary.Total)
	}
	if !result.ReversibleUntil.Equal(testStart.Add(DefaultUndoWindow)) {
		t.Errorf("reversibleUntil preview = %v", result.ReversibleUntil)
	}

	ops, err := database.ListOperations(10)
	if err != nil {
		t.Fatalf("ListOperations failed: %v", err)
	}
	if len(ops) != 0 {
		t.Errorf("dry run persisted %d operations", len(ops))
	}
	live, err := database.CountLiveUndoEntries(testStart)
	if err != nil {
		t.Fatalf("CountLiveUndoEntries failed: %v", err)
	}
	if live != 0 {
		t.Errorf("dry run created %d undo entries", live)
	}
}

func TestExecute_FullRunPersistsOperationAndUndoEntry(t *testing.T) {
	engine, database := newTestEngine(t, Options{UndoWindow: 12 * time.Hour})

	result, err := engine.Execute(ExecuteInput{
		Components: []ComponentSelector{{ComponentID: "cmp-btn", Direction: models.DirectionPush}},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Status != models.OperationCompleted {
		t.Errorf("status = %s, want completed", result.Status)
	}
	if !result.Reversible {
		t.Error("full run should be reversible")
	}
	if !result.ReversibleUntil.Equal(testStart.Add(12 * time.Hour)) {
		t.Errorf("reversibleUntil = %v", result.ReversibleUntil)
	}

	op, err := database.GetOperation(result.OperationID)
	if err != nil {
		t.Fatalf("GetOperation failed: %v", err)
	}
	if op == nil {
		t.Fatal("operation row missing")
	}
	if op.Status != models.OperationCompleted {
		t.Errorf("persisted status = %s", op.Status)
	}
	if op.OperationHash != result.OperationHash {
		t.Errorf("operation hash mismatch: %s != %s", op.OperationHash, result.OperationHash)
	}
	if op.DirectionModes["cmp-btn"] != models.DirectionPush {
		t.Errorf("directionModes = %v", op.DirectionModes)
	}

	entry, err := database.GetUndoEntry(result.OperationID)
	if err != nil {
		t.Fatalf("GetUndoEntry failed: %v", err)
	}
	if entry == nil {
		t.Fatal("undo entry missing")
	}
	if !entry.Expiration.Equal(testStart.Add(12 * time.Hour)) {
		t.Errorf("expiration = %v", entry.Expiration)
	}
	if entry.PreStateHash == "" || entry.PostStateHash == "" {
		t.Error("state hashes must be set")
	}
	if entry.PreStateHash == entry.PostStateHash {
		t.Error("push with drift should change the post state hash")
	}
}

func TestExecute_NoDriftStillRecordsOperation(t *testing.T) {
	engine, database := newTestEngine(t, Options{})

	result, err := engine.Execute(ExecuteInput{
		Components: []ComponentSelector{{ComponentID: "cmp-card", Direction: models.DirectionBoth}},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.DiffSummary.Total != 0 {
		t.Errorf("identical snapshots drifted: %+v", result.DiffSummary)
	}

	entry, err := database.GetUndoEntry(result.OperationID)
	if err != nil {
		t.Fatalf("GetUndoEntry failed: %v", err)
	}
	if entry == nil {
		t.Fatal("undo entry missing")
	}
	if entry.PreStateHash != entry.PostStateHash {
		t.Error("no drift means pre and post states are identical")
	}
}

func TestExecute_DuplicateBatchRecognized(t *testing.T) {
	engine, database := newTestEngine(t, Options{})

	input := ExecuteInput{
		Components: []ComponentSelector{{ComponentID: "cmp-btn", Direction: models.DirectionPush}},
	}
	first, err := engine.Execute(input)
	if err != nil {
		t.Fatalf("first Execute failed: %v", err)
	}
	second, err := engine.Execute(input)
	if err != nil {
		t.Fatalf("second Execute failed: %v", err)
	}

	if !second.Duplicate {
		t.Error("identical batch should be recognized as duplicate")
	}
	if second.OperationID != first.OperationID {
		t.Errorf("duplicate should reference %s, got %s", first.OperationID, second.OperationID)
	}

	ops, err := database.ListOperations(10)
	if err != nil {
		t.Fatalf("ListOperations failed: %v", err)
	}
	if len(ops) != 1 {
		t.Errorf("duplicate batch was re-applied: %d operations", len(ops))
	}
}

func TestExecute_ValidationErrors(t *testing.T) {
	engine, _ := newTestEngine(t, Options{})

	if _, err := engine.Execute(ExecuteInput{}); err == nil {
		t.Error("empty component list should be rejected")
	}
	if _, err := engine.Execute(ExecuteInput{
		Components: []ComponentSelector{{ComponentID: "", Direction: models.DirectionPush}},
	}); err == nil {
		t.Error("empty component id should be rejected")
	}
	if _, err := engine.Execute(ExecuteInput{
		Components: []ComponentSelector{{ComponentID: "cmp-btn", Direction: "sideways"}},
	}); err == nil {
		t.Error("invalid direction should be rejected")
	}
}

func TestExecute_MissingSnapshotSkipped(t *testing.T) {
	engine, _ := newTestEngine(t, Options{})

	result, err := engine.Execute(ExecuteInput{
		Components: []ComponentSelector{
			{ComponentID: "cmp-btn", Direction: models.DirectionPush},
			{ComponentID: "cmp-ghost", Direction: models.DirectionPull},
		},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Status != models.OperationPartial {
		t.Errorf("status = %s, want partial", result.Status)
	}
	if len(result.SkippedComponents) != 1 || result.SkippedComponents[0] != "cmp-ghost" {
		t.Errorf("skipped = %v", result.SkippedComponents)
	}
}

func TestExecute_AllSnapshotsMissing(t *testing.T) {
	engine, _ := newTestEngine(t, Options{})

	if _, err := engine.Execute(ExecuteInput{
		Components: []ComponentSelector{{ComponentID: "cmp-ghost", Direction: models.DirectionPull}},
	}); err == nil {
		t.Error("batch with no available snapshots should fail")
	}
}

func TestExecute_ExcludeVariants(t *testing.T) {
	database, err := db.Initialize(t.TempDir())
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer database.Close()

	provider := &snapshot.MemProvider{Snapshots: map[string]*snapshot.Snapshot{
		"cmp-btn": {
			ComponentID:  "cmp-btn",
			ComponentRef: "Button",
			Code:         map[string]string{"color": "red", "ghost.opacity": "0.5"},
			Design:       map[string]string{"color": "red", "ghost.opacity": "0.8"},
		},
	}}
	engine := New(database, provider, Options{Now: func() time.Time { return testStart }})

	result, err := engine.Execute(ExecuteInput{
		Components: []ComponentSelector{{
			ComponentID:     "cmp-btn",
			Direction:       models.DirectionBoth,
			ExcludeVariants: []string{"ghost"},
		}},
		DryRun: true,
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.DiffSummary.Total != 0 {
		t.Errorf("excluded variant fields still drifted: %+v", result.DiffSummary.Items)
	}
}

func TestExecute_OperationHashStableAcrossOrdering(t *testing.T) {
	engine, _ := newTestEngine(t, Options{})

	forward, err := engine.Execute(ExecuteInput{
		Components: []ComponentSelector{
			{ComponentID: "cmp-btn", Direction: models.DirectionPush},
			{ComponentID: "cmp-card", Direction: models.DirectionPull},
		},
		DryRun: true,
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	reversed, err := engine.Execute(ExecuteInput{
		Components: []ComponentSelector{
			{ComponentID: "cmp-card", Direction: models.DirectionPull},
			{ComponentID: "cmp-btn", Direction: models.DirectionPush},
		},
		DryRun: true,
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if forward.OperationHash != reversed.OperationHash {
		t.Errorf("operation hash depends on selector order: %s != %s",
			forward.OperationHash, reversed.OperationHash)
	}
}
