package sync

import (
	"time"

	"github.com/marcus/driftsync/internal/models"
)

// ComponentSelector names one component to sync and how
type ComponentSelector struct {
	ComponentID     string           `json:"component_id"`
	Direction       models.Direction `json:"direction"`
	ExcludeVariants []string         `json:"exclude_variants,omitempty"`
}

// ExecuteInput is a sync batch request
type ExecuteInput struct {
	Components []ComponentSelector `json:"components"`
	DryRun     bool                `json:"dry_run,omitempty"`
}

// Result is the outcome of one Execute call. On dry runs the status is
// pending and nothing was persisted; ReversibleUntil is then a preview.
type Result struct {
	OperationID       string                 `json:"operation_id,omitempty"`
	Status            models.OperationStatus `json:"status"`
	DiffSummary       models.DriftSummary    `json:"diff_summary"`
	OperationHash     string                 `json:"operation_hash"`
	ReversibleUntil   time.Time              `json:"reversible_until,omitempty"`
	Reversible        bool                   `json:"reversible"`
	Duplicate         bool                   `json:"duplicate,omitempty"`
	SkippedComponents []string               `json:"skipped_components,omitempty"`
	DurationMs        int64                  `json:"duration_ms"`
}
