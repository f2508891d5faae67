package drift

import (
	"reflect"
	"testing"

	"github.com/marcus/driftsync/internal/models"
)

func TestDetect_AddedRemovedModified(t *testing.T) {
	summary := Detect([]Source{{
		ComponentID: "cmp-btn",
		Code:        map[string]string{"color": "red", "shadow": "none"},
		Design:      map[string]string{"color": "blue", "size": "md"},
	}}, Options{})

	if summary.Total != 1 {
		t.Fatalf("expected 1 drifting component, got %d", summary.Total)
	}
	item := summary.Items[0]
	want := []string{"added:size", "modified:color", "removed:shadow"}
	if !reflect.DeepEqual(item.ChangeTypes, want) {
		t.Errorf("changeTypes = %v, want %v", item.ChangeTypes, want)
	}
	if item.Severity != models.SeverityLow {
		t.Errorf("3 changes under default threshold should be low, got %s", item.Severity)
	}
}

func TestDetect_IgnoreListSuppression(t *testing.T) {
	summary := Detect([]Source{{
		ComponentID: "cmp-btn",
		Code:        map[string]string{"color": "red", "updatedAt": "2026-08-01"},
		Design:      map[string]string{"color": "red", "updatedAt": "2026-08-20"},
	}}, Options{})

	if summary.Total != 0 {
		t.Fatalf("ignored-key-only difference should report zero drift, got %d", summary.Total)
	}
	if len(summary.Items) != 0 {
		t.Errorf("component must be fully absent from items, got %v", summary.Items)
	}
	if summary.FalsePositiveHeuristicsApplied != 1 {
		t.Errorf("expected 1 suppressed component, got %d", summary.FalsePositiveHeuristicsApplied)
	}
}

func TestDetect_CallerIgnoreKeysMerged(t *testing.T) {
	summary := Detect([]Source{{
		ComponentID: "cmp-btn",
		Code:        map[string]string{"etag": "abc"},
		Design:      map[string]string{"etag": "def"},
	}}, Options{IgnoreKeys: []string{"etag"}})

	if summary.Total != 0 || summary.FalsePositiveHeuristicsApplied != 1 {
		t.Errorf("caller ignore key not applied: total=%d fp=%d",
			summary.Total, summary.FalsePositiveHeuristicsApplied)
	}
}

func TestDetect_WhitespaceSuppression(t *testing.T) {
	summary := Detect([]Source{{
		ComponentID: "cmp-card",
		Code:        map[string]string{"description": "A card.\nWith things."},
		Design:      map[string]string{"description": "A card. With   things."},
	}}, Options{})

	if summary.Total != 0 {
		t.Fatalf("whitespace-only difference should report zero drift, got %d", summary.Total)
	}
	if summary.FalsePositiveHeuristicsApplied != 1 {
		t.Errorf("expected 1 suppressed component, got %d", summary.FalsePositiveHeuristicsApplied)
	}
}

func TestDetect_WhitespaceOnlyAppliesToConfiguredFields(t *testing.T) {
	summary := Detect([]Source{{
		ComponentID: "cmp-card",
		Code:        map[string]string{"padding": "4 px"},
		Design:      map[string]string{"padding": "4  px"},
	}}, Options{})

	if summary.Total != 1 {
		t.Fatalf("padding is not whitespace-insensitive, expected drift, got %d", summary.Total)
	}
}

func TestDetect_SuppressedFieldBesideRealChange(t *testing.T) {
	summary := Detect([]Source{{
		ComponentID: "cmp-card",
		Code:        map[string]string{"description": "hi there", "color": "red"},
		Design:      map[string]string{"description": "hi  there", "color": "blue"},
	}}, Options{})

	if summary.Total != 1 {
		t.Fatalf("real change must still be reported, got %d", summary.Total)
	}
	want := []string{"modified:color"}
	if !reflect.DeepEqual(summary.Items[0].ChangeTypes, want) {
		t.Errorf("changeTypes = %v, want %v", summary.Items[0].ChangeTypes, want)
	}
	if summary.FalsePositiveHeuristicsApplied != 0 {
		t.Errorf("component with real drift must not count as suppressed, got %d",
			summary.FalsePositiveHeuristicsApplied)
	}
}

func TestDetect_SeverityThreshold(t *testing.T) {
	// 2 modified + 1 added = 3 changes; threshold 2 → medium (< 2×threshold)
	summary := Detect([]Source{{
		ComponentID: "cmp-btn",
		Code:        map[string]string{"a": "1", "b": "2"},
		Design:      map[string]string{"a": "2", "b": "3", "c": "4"},
	}}, Options{SeverityThreshold: 2})

	if summary.Total != 1 {
		t.Fatalf("expected 1 drifting component, got %d", summary.Total)
	}
	if summary.Items[0].Severity != models.SeverityMedium {
		t.Errorf("3 changes at threshold 2 should be medium, got %s", summary.Items[0].Severity)
	}
}

func TestDetect_HighSeverity(t *testing.T) {
	summary := Detect([]Source{{
		ComponentID: "cmp-btn",
		Code:        map[string]string{"a": "1", "b": "2", "c": "3", "d": "4"},
		Design:      map[string]string{},
	}}, Options{SeverityThreshold: 2})

	if summary.Items[0].Severity != models.SeverityHigh {
		t.Errorf("4 changes at threshold 2 should be high, got %s", summary.Items[0].Severity)
	}
}

func TestDetect_IdenticalSnapshots(t *testing.T) {
	summary := Detect([]Source{{
		ComponentID: "cmp-btn",
		Code:        map[string]string{"color": "red"},
		Design:      map[string]string{"color": "red"},
	}}, Options{})

	if summary.Total != 0 {
		t.Errorf("identical snapshots drifted: %v", summary.Items)
	}
	if summary.FalsePositiveHeuristicsApplied != 0 {
		t.Errorf("nothing was suppressed, fp counter should stay 0, got %d",
			summary.FalsePositiveHeuristicsApplied)
	}
}
