package db

import (
	"testing"
	"time"

	"github.com/marcus/driftsync/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := Initialize(t.TempDir())
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func testOperation(id, hash string, createdAt time.Time) *models.SyncOperation {
	return &models.SyncOperation{
		ID:                 id,
		ComponentsAffected: []string{"cmp-a", "cmp-b"},
		DirectionModes: map[string]models.Direction{
			"cmp-a": models.DirectionPush,
			"cmp-b": models.DirectionBoth,
		},
		DiffSummary: models.DriftSummary{
			Total: 1,
			Items: []models.DiffItem{{
				ComponentID: "cmp-a",
				ChangeTypes: []string{"modified:color"},
				Severity:    models.SeverityLow,
			}},
		},
		OperationHash:   hash,
		ReversibleUntil: createdAt.Add(24 * time.Hour),
		Status:          models.OperationRunning,
		CreatedAt:       createdAt,
	}
}

func TestInsertAndGetOperation(t *testing.T) {
	database := newTestDB(t)

	now := time.Now().UTC().Truncate(time.Second)
	op := testOperation("op-0001", "hash-1", now)
	if err := database.InsertOperation(op); err != nil {
		t.Fatalf("InsertOperation failed: %v", err)
	}

	got, err := database.GetOperation("op-0001")
	if err != nil {
		t.Fatalf("GetOperation failed: %v", err)
	}
	if got == nil {
		t.Fatal("operation not found after insert")
	}
	if got.OperationHash != "hash-1" {
		t.Errorf("operationHash = %s, want hash-1", got.OperationHash)
	}
	if len(got.ComponentsAffected) != 2 {
		t.Errorf("componentsAffected = %v", got.ComponentsAffected)
	}
	if got.DirectionModes["cmp-b"] != models.DirectionBoth {
		t.Errorf("directionModes = %v", got.DirectionModes)
	}
	if got.DiffSummary.Total != 1 || len(got.DiffSummary.Items) != 1 {
		t.Errorf("diffSummary = %+v", got.DiffSummary)
	}
	if got.Status != models.OperationRunning {
		t.Errorf("status = %s, want running", got.Status)
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("createdAt = %v, want %v", got.CreatedAt, now)
	}
	if !got.ReversibleUntil.Equal(now.Add(24 * time.Hour)) {
		t.Errorf("reversibleUntil = %v", got.ReversibleUntil)
	}
}

func TestGetOperation_NotFound(t *testing.T) {
	database := newTestDB(t)
	got, err := database.GetOperation("op-missing")
	if err != nil {
		t.Fatalf("GetOperation failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing operation, got %+v", got)
	}
}

func TestInsertOperation_DuplicateHashRejected(t *testing.T) {
	database := newTestDB(t)

	now := time.Now()
	if err := database.InsertOperation(testOperation("op-0001", "same-hash", now)); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if err := database.InsertOperation(testOperation("op-0002", "same-hash", now)); err == nil {
		t.Error("second insert with same operation hash should violate uniqueness")
	}
}

func TestGetOperationByHash(t *testing.T) {
	database := newTestDB(t)

	if err := database.InsertOperation(testOperation("op-0001", "hash-x", time.Now())); err != nil {
		t.Fatalf("InsertOperation failed: %v", err)
	}

	got, err := database.GetOperationByHash("hash-x")
	if err != nil {
		t.Fatalf("GetOperationByHash failed: %v", err)
	}
	if got == nil || got.ID != "op-0001" {
		t.Errorf("expected op-0001, got %+v", got)
	}

	missing, err := database.GetOperationByHash("hash-other")
	if err != nil {
		t.Fatalf("GetOperationByHash failed: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown hash, got %+v", missing)
	}
}

func TestFinalizeOperation(t *testing.T) {
	database := newTestDB(t)

	if err := database.InsertOperation(testOperation("op-0001", "hash-1", time.Now())); err != nil {
		t.Fatalf("InsertOperation failed: %v", err)
	}
	if err := database.FinalizeOperation("op-0001", models.OperationCompleted, 42); err != nil {
		t.Fatalf("FinalizeOperation failed: %v", err)
	}

	got, err := database.GetOperation("op-0001")
	if err != nil {
		t.Fatalf("GetOperation failed: %v", err)
	}
	if got.Status != models.OperationCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if got.DurationMs != 42 {
		t.Errorf("durationMs = %d, want 42", got.DurationMs)
	}
}

func TestFinalizeOperation_Unknown(t *testing.T) {
	database := newTestDB(t)
	if err := database.FinalizeOperation("op-missing", models.OperationFailed, 0); err == nil {
		t.Error("finalizing an unknown operation should fail")
	}
}

func TestListOperations_NewestFirst(t *testing.T) {
	database := newTestDB(t)

	now := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"op-old", "op-mid", "op-new"} {
		op := testOperation(id, "hash-"+id, now.Add(time.Duration(i)*time.Hour))
		if err := database.InsertOperation(op); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}

	ops, err := database.ListOperations(2)
	if err != nil {
		t.Fatalf("ListOperations failed: %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("expected 2 operations, got %d", len(ops))
	}
	if ops[0].ID != "op-new" || ops[1].ID != "op-mid" {
		t.Errorf("order = %s, %s; want op-new, op-mid", ops[0].ID, ops[1].ID)
	}
}

func TestNormalizeOperationID(t *testing.T) {
	if got := NormalizeOperationID("abc123"); got != "op-abc123" {
		t.Errorf("NormalizeOperationID(abc123) = %s", got)
	}
	if got := NormalizeOperationID("op-abc123"); got != "op-abc123" {
		t.Errorf("NormalizeOperationID(op-abc123) = %s", got)
	}
	if got := NormalizeOperationID(""); got != "" {
		t.Errorf("NormalizeOperationID(\"\") = %s", got)
	}
}
