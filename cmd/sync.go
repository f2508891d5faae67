package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/marcus/driftsync/internal/config"
	"github.com/marcus/driftsync/internal/db"
	"github.com/marcus/driftsync/internal/drift"
	"github.com/marcus/driftsync/internal/metrics"
	"github.com/marcus/driftsync/internal/models"
	"github.com/marcus/driftsync/internal/output"
	"github.com/marcus/driftsync/internal/snapshot"
	"github.com/marcus/driftsync/internal/sync"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Detect drift and record a reversible sync operation",
	Long: `Runs drift detection over the components named in the plan file and, unless
--dry-run is given, persists a sync operation plus its undo entry.

Plan file format:
  {"components": [{"id": "button", "direction": "push", "exclude_variants": []}]}

Directions: push (code → design), pull (design → code), both.`,
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		baseDir := getBaseDir()

		planPath, _ := cmd.Flags().GetString("input")
		snapPath, _ := cmd.Flags().GetString("snapshots")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		jsonOut, _ := cmd.Flags().GetBool("json")

		cfg, err := config.Load(baseDir)
		if err != nil {
			output.Error("failed to load config: %v", err)
			return err
		}
		if snapPath == "" {
			snapPath = filepath.Join(baseDir, ".driftsync", config.DefaultSnapshotFileName)
			if cfg.SnapshotFile != "" {
				snapPath = cfg.SnapshotFile
			}
		}

		input, err := parsePlan(planPath)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		input.DryRun = dryRun

		provider, err := snapshot.NewFileProvider(snapPath)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		database, err := db.Open(baseDir)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		engine := sync.New(database, provider, sync.Options{
			UndoWindow:  cfg.UndoWindow(),
			LiveUndoCap: cfg.Cap(),
			Drift: drift.Options{
				IgnoreKeys:            cfg.IgnoreKeys,
				WhitespaceInsensitive: cfg.WhitespaceFields,
				SeverityThreshold:     cfg.Threshold(),
			},
			Metrics: metrics.SlogRecorder{},
		})

		result, err := engine.Execute(*input)
		if err != nil {
			if jsonOut {
				output.JSONError(output.ErrCodeInvalidInput, err.Error())
			} else {
				output.Error("%v", err)
			}
			return err
		}

		if jsonOut {
			return output.JSON(result)
		}
		printSyncResult(result)
		return nil
	},
}

// parsePlan reads a sync plan document. The legacy plan shape ("name"
// instead of "id") is resolved here, at the boundary, never downstream.
func parsePlan(path string) (*sync.ExecuteInput, error) {
	if path == "" {
		return nil, fmt.Errorf("--input is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("plan file %s: invalid JSON", path)
	}

	components := gjson.GetBytes(data, "components")
	if !components.IsArray() {
		return nil, fmt.Errorf("plan file %s: missing components array", path)
	}

	var input sync.ExecuteInput
	components.ForEach(func(_, entry gjson.Result) bool {
		id := entry.Get("id").String()
		if id == "" {
			id = entry.Get("name").String()
		}
		sel := sync.ComponentSelector{
			ComponentID: id,
			Direction:   models.NormalizeDirection(entry.Get("direction").String()),
		}
		entry.Get("exclude_variants").ForEach(func(_, v gjson.Result) bool {
			sel.ExcludeVariants = append(sel.ExcludeVariants, v.String())
			return true
		})
		input.Components = append(input.Components, sel)
		return true
	})
	return &input, nil
}

func printSyncResult(result *sync.Result) {
	if result.Duplicate {
		output.Warning("identical batch already applied as %s %s", result.OperationID, output.FormatStatus(result.Status))
		return
	}

	output.Title("Sync %s", output.FormatStatus(result.Status))
	if result.OperationID != "" {
		fmt.Printf("Operation: %s\n", result.OperationID)
	}
	fmt.Printf("Drifting components: %d (heuristics suppressed %d)\n",
		result.DiffSummary.Total, result.DiffSummary.FalsePositiveHeuristicsApplied)
	for _, item := range result.DiffSummary.Items {
		fmt.Printf("  %s %s %s\n", output.FormatSeverity(item.Severity),
			item.ComponentID, output.FormatChangeTypes(item.ChangeTypes))
	}
	for _, id := range result.SkippedComponents {
		output.Warning("skipped %s: no snapshot available", id)
	}
	if result.Reversible {
		output.Subtle("Reversible until %s (undo with: driftsync undo %s)",
			output.FormatWhen(result.ReversibleUntil), result.OperationID)
	} else if result.Status != models.OperationPending {
		output.Warning("operation is NOT reversible")
	} else {
		output.Subtle("Dry run: nothing persisted; window would end %s",
			output.FormatWhen(result.ReversibleUntil))
	}
	output.Subtle("%dms", result.DurationMs)
}

func init() {
	syncCmd.Flags().String("input", "", "path to the sync plan JSON file")
	syncCmd.Flags().String("snapshots", "", "path to the snapshot JSON document")
	syncCmd.Flags().Bool("dry-run", false, "preview drift without persisting anything")
	syncCmd.Flags().Bool("json", false, "output JSON")
	rootCmd.AddCommand(syncCmd)
}
