package models

import (
	"time"
)

// Direction represents the sync direction for a single component
type Direction string

const (
	DirectionPush Direction = "push" // code → design
	DirectionPull Direction = "pull" // design → code
	DirectionBoth Direction = "both" // bidirectional
)

// Severity represents how much a component has drifted
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// OperationStatus represents the lifecycle state of a sync operation
type OperationStatus string

const (
	OperationPending   OperationStatus = "pending"
	OperationRunning   OperationStatus = "running"
	OperationCompleted OperationStatus = "completed"
	OperationPartial   OperationStatus = "partial"
	OperationFailed    OperationStatus = "failed"
)

// UndoStatus represents the business outcome of an undo attempt
type UndoStatus string

const (
	UndoSuccess UndoStatus = "success"
	UndoFailed  UndoStatus = "failed"
	UndoExpired UndoStatus = "expired"
)

// TestType represents a story test category
type TestType string

const (
	TestVisual      TestType = "visual"
	TestInteraction TestType = "interaction"
	TestA11y        TestType = "a11y"
)

// AllTestTypes returns the test types in their canonical reporting order
func AllTestTypes() []TestType {
	return []TestType{TestVisual, TestInteraction, TestA11y}
}

// RawDiff is a raw diff record resolved at the input boundary.
// Two shapes exist in the wild: the current shape carries a component ID
// plus change-type labels; the legacy shape carries only a display name and
// a plain change list. Legacy is resolved exactly once when the record is
// parsed, so downstream consumers never re-sniff the shape.
type RawDiff struct {
	ComponentID   string   `json:"component_id,omitempty"`
	ComponentName string   `json:"component_name,omitempty"`
	Variant       string   `json:"variant,omitempty"`
	ChangeTypes   []string `json:"change_types"`
	Severity      Severity `json:"severity,omitempty"`
	Legacy        bool     `json:"legacy,omitempty"`
}

// DiffItem is one component's classified drift
type DiffItem struct {
	ComponentID string   `json:"component_id"`
	ChangeTypes []string `json:"change_types"` // deduplicated, lexicographically sorted
	Severity    Severity `json:"severity"`
}

// CanonicalDiffItem is the normalized, hashed form of a raw diff record
type CanonicalDiffItem struct {
	ComponentID  string   `json:"component_id"`
	ComponentRef string   `json:"component_ref"` // display name
	Variant      string   `json:"variant,omitempty"`
	Changes      []string `json:"changes"`
	Severity     Severity `json:"severity,omitempty"`
	DiffHash     string   `json:"diff_hash"` // 64 lowercase hex chars
}

// DriftSummary is the result of drift detection across a set of components
type DriftSummary struct {
	Total                          int        `json:"total"` // number of drifting components
	Items                          []DiffItem `json:"items"`
	FalsePositiveHeuristicsApplied int        `json:"false_positive_heuristics_applied"`
}

// SyncOperation is a persisted sync batch. Immutable after completion
// except for status/duration finalization.
type SyncOperation struct {
	ID                 string               `json:"id"`
	ComponentsAffected []string             `json:"components_affected"`
	DirectionModes     map[string]Direction `json:"direction_modes"`
	DiffSummary        DriftSummary         `json:"diff_summary"`
	OperationHash      string               `json:"operation_hash"`
	ReversibleUntil    time.Time            `json:"reversible_until"`
	Status             OperationStatus      `json:"status"`
	DurationMs         int64                `json:"duration_ms"`
	CreatedAt          time.Time            `json:"created_at"`
}

// UndoStackEntry protects a sync operation with a time-boxed, single-use
// reversal. UndoneAt transitions from nil to a timestamp at most once.
type UndoStackEntry struct {
	ID            int64      `json:"id"`
	OperationID   string     `json:"operation_id"`
	PreStateHash  string     `json:"pre_state_hash"`
	PostStateHash string     `json:"post_state_hash"`
	Expiration    time.Time  `json:"expiration"`
	UndoneAt      *time.Time `json:"undone_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Live reports whether the entry is still usable at the given instant.
// An entry whose expiration equals now counts as expired.
func (e *UndoStackEntry) Live(now time.Time) bool {
	return e.UndoneAt == nil && e.Expiration.After(now)
}

// Story is an existing design-tool story for a variant
type Story struct {
	VariantName string     `json:"variant_name"`
	TestTypes   []TestType `json:"test_types,omitempty"`
}

// MissingTest lists the test types a story lacks
type MissingTest struct {
	VariantName      string     `json:"variant_name"`
	MissingTestTypes []TestType `json:"missing_test_types"`
}

// CoverageResult is the derived variant/test completeness report for one
// component. Derived, never persisted by the core.
type CoverageResult struct {
	ComponentID        string        `json:"component_id"`
	VariantCoveragePct int           `json:"variant_coverage_pct"`
	MissingVariants    []string      `json:"missing_variants"`
	MissingTests       []MissingTest `json:"missing_tests"`
	Warnings           []string      `json:"warnings"`
}

// IsValidDirection checks if a direction is valid
func IsValidDirection(d Direction) bool {
	switch d {
	case DirectionPush, DirectionPull, DirectionBoth:
		return true
	}
	return false
}

// NormalizeDirection converts alternate direction names to canonical form
// Accepts: "code-to-design" as alias for "push", "design-to-code" for "pull",
// "bidirectional" for "both"
func NormalizeDirection(d string) Direction {
	switch d {
	case "code-to-design", "code_to_design":
		return DirectionPush
	case "design-to-code", "design_to_code":
		return DirectionPull
	case "bidirectional", "bidi":
		return DirectionBoth
	default:
		return Direction(d)
	}
}

// IsValidSeverity checks if a severity is valid
func IsValidSeverity(s Severity) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// IsValidTestType checks if a test type is valid
func IsValidTestType(t TestType) bool {
	switch t {
	case TestVisual, TestInteraction, TestA11y:
		return true
	}
	return false
}
