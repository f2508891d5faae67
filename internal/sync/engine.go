// Package sync orchestrates drift detection into persisted, reversible sync
// operations. The pure algorithmic work lives in canonical, drift and
// coverage; this package owns the I/O and the operation/undo record pair.
package sync

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/marcus/driftsync/internal/canonical"
	"github.com/marcus/driftsync/internal/db"
	"github.com/marcus/driftsync/internal/drift"
	"github.com/marcus/driftsync/internal/metrics"
	"github.com/marcus/driftsync/internal/models"
	"github.com/marcus/driftsync/internal/snapshot"
)

// DefaultUndoWindow bounds how long a completed operation stays reversible
const DefaultUndoWindow = 24 * time.Hour

// DefaultLiveUndoCap is the soft cap on live undo entries, enforced by
// evicting the oldest live entry when exceeded
const DefaultLiveUndoCap = 50

// Options tunes the engine. Zero values fall back to defaults.
type Options struct {
	UndoWindow  time.Duration
	LiveUndoCap int
	Drift       drift.Options
	Metrics     metrics.Recorder
	Now         func() time.Time
}

// Engine is the sync orchestrator
type Engine struct {
	db        *db.DB
	snapshots snapshot.Provider
	opts      Options
}

// New creates an engine over a store and a snapshot provider
func New(database *db.DB, provider snapshot.Provider, opts Options) *Engine {
	if opts.UndoWindow <= 0 {
		opts.UndoWindow = DefaultUndoWindow
	}
	if opts.LiveUndoCap <= 0 {
		opts.LiveUndoCap = DefaultLiveUndoCap
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{db: database, snapshots: provider, opts: opts}
}

// Execute runs one sync batch. Dry runs detect drift and compute the
// operation identity without touching the store. Full runs persist the
// operation row first and its paired undo entry second; if the undo entry
// cannot be persisted after the operation committed, the operation is
// reported as non-reversible rather than hiding the inconsistency.
func (e *Engine) Execute(input ExecuteInput) (*Result, error) {
	if err := validate(input); err != nil {
		return nil, err
	}

	start := e.opts.Now()
	reversibleUntil := start.Add(e.opts.UndoWindow)

	// Assemble snapshots. A component whose snapshot cannot be fetched is
	// skipped, not fatal, unless every component is missing.
	var sources []drift.Source
	var skipped []string
	modes := make(map[string]models.Direction, len(input.Components))
	refs := make(map[string]string, len(input.Components))
	pre := make(map[string]map[string]string, 2*len(input.Components))
	post := make(map[string]map[string]string, 2*len(input.Components))

	for _, sel := range input.Components {
		snap, err := e.snapshots.Snapshot(sel.ComponentID)
		if err != nil {
			slog.Warn("snapshot unavailable", "action", "sync_execute", "component", sel.ComponentID, "err", err)
			skipped = append(skipped, sel.ComponentID)
			continue
		}

		code := excludeVariantFields(snap.Code, sel.ExcludeVariants)
		design := excludeVariantFields(snap.Design, sel.ExcludeVariants)

		modes[sel.ComponentID] = sel.Direction
		refs[sel.ComponentID] = snap.ComponentRef
		sources = append(sources, drift.Source{
			ComponentID:  sel.ComponentID,
			ComponentRef: snap.ComponentRef,
			Code:         code,
			Design:       design,
		})

		pre[sel.ComponentID+":code"] = code
		pre[sel.ComponentID+":design"] = design
		postCode, postDesign := applyDirection(sel.Direction, code, design)
		post[sel.ComponentID+":code"] = postCode
		post[sel.ComponentID+":design"] = postDesign
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no snapshots available for any of the %d requested components", len(input.Components))
	}

	summary := drift.Detect(sources, e.opts.Drift)

	// Canonical identity of the batch
	raws := make([]models.RawDiff, 0, len(summary.Items))
	for _, item := range summary.Items {
		raws = append(raws, models.RawDiff{
			ComponentID:   item.ComponentID,
			ComponentName: refs[item.ComponentID],
			ChangeTypes:   item.ChangeTypes,
			Severity:      item.Severity,
		})
	}
	items := canonical.CanonicalizeBatch(raws)
	diffHashes := make([]string, 0, len(items))
	for _, item := range items {
		diffHashes = append(diffHashes, item.DiffHash)
	}
	componentIDs := make([]string, 0, len(modes))
	for id := range modes {
		componentIDs = append(componentIDs, id)
	}
	operationHash := canonical.ComputeOperationHash(componentIDs, modes, diffHashes)

	if input.DryRun {
		duration := e.opts.Now().Sub(start)
		e.opts.Metrics.ObserveDuration("sync.dry_run", duration)
		return &Result{
			Status:            models.OperationPending,
			DiffSummary:       summary,
			OperationHash:     operationHash,
			ReversibleUntil:   reversibleUntil,
			SkippedComponents: skipped,
			DurationMs:        duration.Milliseconds(),
		}, nil
	}

	// An identical batch (same components, directions and diff hashes) is
	// recognized by its operation hash and never re-applied.
	if existing, err := e.db.GetOperationByHash(operationHash); err != nil {
		return nil, fmt.Errorf("check operation hash: %w", err)
	} else if existing != nil {
		slog.Info("duplicate batch recognized", "action", "sync_execute",
			"operation", existing.ID, "hash", operationHash)
		return &Result{
			OperationID:     existing.ID,
			Status:          existing.Status,
			DiffSummary:     existing.DiffSummary,
			OperationHash:   operationHash,
			ReversibleUntil: existing.ReversibleUntil,
			Duplicate:       true,
			DurationMs:      e.opts.Now().Sub(start).Milliseconds(),
		}, nil
	}

	id, err := db.NewOperationID()
	if err != nil {
		return nil, fmt.Errorf("generate operation id: %w", err)
	}

	op := &models.SyncOperation{
		ID:                 id,
		ComponentsAffected: componentIDs,
		DirectionModes:     modes,
		DiffSummary:        summary,
		OperationHash:      operationHash,
		ReversibleUntil:    reversibleUntil,
		Status:             models.OperationRunning,
		CreatedAt:          start,
	}
	if err := e.db.InsertOperation(op); err != nil {
		return nil, fmt.Errorf("persist operation: %w", err)
	}

	status := models.OperationCompleted
	if len(skipped) > 0 {
		status = models.OperationPartial
	}

	// The undo entry exists only if the operation row committed first; the
	// reverse partial state must never be user-visible as reversible.
	reversible := true
	entry := &models.UndoStackEntry{
		OperationID:   id,
		PreStateHash:  canonical.HashSnapshotFields(pre),
		PostStateHash: canonical.HashSnapshotFields(post),
		Expiration:    reversibleUntil,
		CreatedAt:     start,
	}
	evicted, err := e.db.InsertUndoEntry(entry, e.opts.LiveUndoCap, start)
	if err != nil {
		reversible = false
		reversibleUntil = time.Time{}
		slog.Error("undo entry persistence failed; operation is not reversible",
			"action", "sync_execute", "operation", id, "err", err)
	} else if evicted > 0 {
		slog.Warn("live undo cap exceeded, oldest entries expired",
			"action", "sync_execute", "cap", e.opts.LiveUndoCap, "evicted", evicted)
	}

	duration := e.opts.Now().Sub(start)
	if err := e.db.FinalizeOperation(id, status, duration.Milliseconds()); err != nil {
		return nil, fmt.Errorf("finalize operation: %w", err)
	}

	e.opts.Metrics.ObserveDuration("sync.execute", duration)
	e.opts.Metrics.AddCount("sync.components", len(componentIDs))
	e.opts.Metrics.AddCount("sync.drifting", summary.Total)
	slog.Info("sync operation persisted",
		"action", "sync_execute", "operation", id, "status", status,
		"components", len(componentIDs), "drifting", summary.Total,
		"duration_ms", duration.Milliseconds())

	return &Result{
		OperationID:       id,
		Status:            status,
		DiffSummary:       summary,
		OperationHash:     operationHash,
		ReversibleUntil:   reversibleUntil,
		Reversible:        reversible,
		SkippedComponents: skipped,
		DurationMs:        duration.Milliseconds(),
	}, nil
}

func validate(input ExecuteInput) error {
	if len(input.Components) == 0 {
		return fmt.Errorf("no components given")
	}
	for i, sel := range input.Components {
		if sel.ComponentID == "" {
			return fmt.Errorf("component %d: empty component id", i)
		}
		if !models.IsValidDirection(sel.Direction) {
			return fmt.Errorf("component %s: invalid direction %q", sel.ComponentID, sel.Direction)
		}
	}
	return nil
}

// excludeVariantFields drops fields namespaced under an excluded variant
// (keys of the form "<variant>.<field>")
func excludeVariantFields(fields map[string]string, excluded []string) map[string]string {
	if len(excluded) == 0 {
		return fields
	}
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		drop := false
		for _, variant := range excluded {
			if strings.HasPrefix(k, variant+".") {
				drop = true
				break
			}
		}
		if !drop {
			out[k] = v
		}
	}
	return out
}

// applyDirection builds the hypothetical post-apply field maps. Push copies
// the code side over design, pull the reverse. Both converges on the union
// of the two, with design values winning conflicting keys.
func applyDirection(d models.Direction, code, design map[string]string) (map[string]string, map[string]string) {
	switch d {
	case models.DirectionPush:
		return clone(code), clone(code)
	case models.DirectionPull:
		return clone(design), clone(design)
	default:
		merged := clone(code)
		for k, v := range design {
			merged[k] = v
		}
		return merged, clone(merged)
	}
}

func clone(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
