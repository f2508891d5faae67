package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoad_AbsentFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := cfg.UndoWindow(); got != 24*time.Hour {
		t.Errorf("UndoWindow() = %v", got)
	}
	if got := cfg.Cap(); got != 50 {
		t.Errorf("Cap() = %d", got)
	}
	if got := cfg.Retention(); got != 30*24*time.Hour {
		t.Errorf("Retention() = %v", got)
	}
	if got := cfg.Threshold(); got != 5 {
		t.Errorf("Threshold() = %d", got)
	}
}

func TestSaveLoad_Roundtrip(t *testing.T) {
	dir := t.TempDir()
	want := &Config{
		UndoWindowHours: 6,
		LiveUndoCap:     10,
		RetentionDays:   7,
		DriftThreshold:  3,
		IgnoreKeys:      []string{"etag", "revision"},
		SnapshotFile:    "team-snapshots.json",
	}
	if err := Save(dir, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("roundtrip mismatch:\ngot  %+v\nwant %+v", got, want)
	}
	if got.UndoWindow() != 6*time.Hour {
		t.Errorf("UndoWindow() = %v", got.UndoWindow())
	}
}

func TestSave_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	if err := Save(dir, &Config{DriftThreshold: 2}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, ".driftsync"))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "config.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("unexpected files: %v", names)
	}
}

func TestLoad_RejectsMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".driftsync"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".driftsync", "config.json"), []byte("{nope"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("malformed config should fail to load")
	}
}
