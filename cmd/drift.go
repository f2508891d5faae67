package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/marcus/driftsync/internal/config"
	"github.com/marcus/driftsync/internal/drift"
	"github.com/marcus/driftsync/internal/output"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var driftCmd = &cobra.Command{
	Use:   "drift",
	Short: "Detect drift without recording anything",
	Long: `Compares the code and design snapshots of every component in the snapshot
document (or the ones named with --components) and reports classified drift.
Purely a read: no operation is recorded.`,
	GroupID: "report",
	RunE: func(cmd *cobra.Command, args []string) error {
		baseDir := getBaseDir()

		snapPath, _ := cmd.Flags().GetString("snapshots")
		components, _ := cmd.Flags().GetStringSlice("components")
		threshold, _ := cmd.Flags().GetInt("threshold")
		ignoreKeys, _ := cmd.Flags().GetStringSlice("ignore")
		wsFields, _ := cmd.Flags().GetStringSlice("whitespace-insensitive")
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
		if threshold <= 0 {
			threshold = cfg.Threshold()
		}

		sources, err := loadDriftSources(snapPath, components)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		summary := drift.Detect(sources, drift.Options{
			IgnoreKeys:            append(cfg.IgnoreKeys, ignoreKeys...),
			WhitespaceInsensitive: append(cfg.WhitespaceFields, wsFields...),
			SeverityThreshold:     threshold,
		})

		if jsonOut {
			return output.JSON(summary)
		}

		if summary.Total == 0 {
			output.Success("No drift detected across %d components (%d suppressed as cosmetic)",
				len(sources), summary.FalsePositiveHeuristicsApplied)
			return nil
		}
		output.Title("%d drifting components (%d suppressed as cosmetic)",
			summary.Total, summary.FalsePositiveHeuristicsApplied)
		for _, item := range summary.Items {
			fmt.Printf("  %s %s %s\n", output.FormatSeverity(item.Severity),
				item.ComponentID, output.FormatChangeTypes(item.ChangeTypes))
		}
		return nil
	},
}

// loadDriftSources reads drift sources from a snapshot document. With an
// empty filter every component in the document is compared.
func loadDriftSources(path string, only []string) ([]drift.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshots: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("snapshot file %s: invalid JSON", path)
	}

	filter := make(map[string]bool, len(only))
	for _, id := range only {
		filter[id] = true
	}

	var sources []drift.Source
	gjson.ParseBytes(data).ForEach(func(key, entry gjson.Result) bool {
		id := key.String()
		if len(filter) > 0 && !filter[id] {
			return true
		}
		src := drift.Source{
			ComponentID:  id,
			ComponentRef: entry.Get("ref").String(),
			Code:         map[string]string{},
			Design:       map[string]string{},
		}
		if src.ComponentRef == "" {
			src.ComponentRef = id
		}
		entry.Get("code").ForEach(func(k, v gjson.Result) bool {
			src.Code[k.String()] = v.String()
			return true
		})
		entry.Get("design").ForEach(func(k, v gjson.Result) bool {
			src.Design[k.String()] = v.String()
			return true
		})
		sources = append(sources, src)
		return true
	})
	if len(sources) == 0 {
		return nil, fmt.Errorf("no matching components in %s", path)
	}
	return sources, nil
}

func init() {
	driftCmd.Flags().String("snapshots", "", "path to the snapshot JSON document")
	driftCmd.Flags().StringSlice("components", nil, "only compare these component IDs")
	driftCmd.Flags().Int("threshold", 0, "severity threshold (changes for medium; high at twice)")
	driftCmd.Flags().StringSlice("ignore", nil, "extra volatile keys to ignore")
	driftCmd.Flags().StringSlice("whitespace-insensitive", nil, "extra fields compared ignoring whitespace")
	driftCmd.Flags().Bool("json", false, "output JSON")
	rootCmd.AddCommand(driftCmd)
}
