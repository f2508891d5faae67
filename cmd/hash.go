package cmd

import (
	"fmt"
	"os"

	"github.com/marcus/driftsync/internal/canonical"
	"github.com/marcus/driftsync/internal/models"
	"github.com/marcus/driftsync/internal/output"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var hashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Canonicalize a raw diff batch and print its hashes",
	Long: `Normalizes a batch of raw diff records (current or legacy shape), prints the
deterministic per-diff hashes and the batch operation hash used as an
idempotency key. Field order in the input never changes the hashes.`,
	GroupID: "report",
	RunE: func(cmd *cobra.Command, args []string) error {
		inputPath, _ := cmd.Flags().GetString("input")
		direction, _ := cmd.Flags().GetString("direction")
		jsonOut, _ := cmd.Flags().GetBool("json")

		raws, err := loadRawDiffs(inputPath)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		items := canonical.CanonicalizeBatch(raws)

		components := make([]string, 0, len(items))
		modes := make(map[string]models.Direction, len(items))
		diffHashes := make([]string, 0, len(items))
		for _, item := range items {
			components = append(components, item.ComponentID)
			modes[item.ComponentID] = models.NormalizeDirection(direction)
			diffHashes = append(diffHashes, item.DiffHash)
		}
		operationHash := canonical.ComputeOperationHash(components, modes, diffHashes)

		if jsonOut {
			return output.JSON(map[string]any{
				"items":          items,
				"operation_hash": operationHash,
			})
		}

		for _, item := range items {
			variant := ""
			if item.Variant != "" {
				variant = " (" + item.Variant + ")"
			}
			fmt.Printf("  %s  %s%s %s\n", item.DiffHash[:12], item.ComponentRef, variant,
				output.FormatChangeTypes(item.Changes))
		}
		output.Subtle("%d canonical diffs (duplicates removed: %d)", len(items), len(raws)-len(items))
		fmt.Printf("Operation hash: %s\n", operationHash)
		return nil
	},
}

// loadRawDiffs parses a raw diff batch, resolving the legacy named-component
// shape exactly once here at the boundary.
func loadRawDiffs(path string) ([]models.RawDiff, error) {
	if path == "" {
		return nil, fmt.Errorf("--input is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read diffs: %w", err)
	}
	parsed := gjson.ParseBytes(data)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("diff file %s: expected a JSON array", path)
	}

	var raws []models.RawDiff
	badIdx := -1
	parsed.ForEach(func(idx, entry gjson.Result) bool {
		raw, ok := sniffRawDiff(entry)
		if !ok {
			badIdx = int(idx.Int())
			return false
		}
		raws = append(raws, raw)
		return true
	})
	if badIdx >= 0 {
		return nil, fmt.Errorf("diff file %s: record %d has neither componentId nor component", path, badIdx)
	}
	return raws, nil
}

// sniffRawDiff maps either raw shape onto the resolved RawDiff form:
// {componentId, changeTypes} is the current shape, {component, changes} the
// legacy one.
func sniffRawDiff(entry gjson.Result) (models.RawDiff, bool) {
	raw := models.RawDiff{
		Variant:  entry.Get("variant").String(),
		Severity: models.Severity(entry.Get("severity").String()),
	}

	if id := entry.Get("componentId"); id.Exists() {
		raw.ComponentID = id.String()
		raw.ComponentName = entry.Get("componentName").String()
		entry.Get("changeTypes").ForEach(func(_, v gjson.Result) bool {
			raw.ChangeTypes = append(raw.ChangeTypes, v.String())
			return true
		})
		return raw, true
	}

	name := entry.Get("component")
	if !name.Exists() {
		name = entry.Get("name")
	}
	if !name.Exists() {
		return raw, false
	}
	raw.Legacy = true
	raw.ComponentName = name.String()
	entry.Get("changes").ForEach(func(_, v gjson.Result) bool {
		raw.ChangeTypes = append(raw.ChangeTypes, v.String())
		return true
	})
	return raw, true
}

func init() {
	hashCmd.Flags().String("input", "", "path to the raw diff batch JSON file")
	hashCmd.Flags().String("direction", "both", "direction assumed for the operation hash preview")
	hashCmd.Flags().Bool("json", false, "output JSON")
	rootCmd.AddCommand(hashCmd)
}
