package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/marcus/driftsync/internal/config"
	"github.com/marcus/driftsync/internal/output"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update local configuration",
	Long: `Without flags, prints the effective configuration. --set updates a single
key, e.g. --set undo_window_hours=48.

Keys: undo_window_hours, live_undo_cap, retention_days, drift_threshold,
snapshot_file, ignore_keys (comma-separated), whitespace_fields (comma-separated).`,
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		baseDir := getBaseDir()
		jsonOut, _ := cmd.Flags().GetBool("json")
		set, _ := cmd.Flags().GetString("set")

		cfg, err := config.Load(baseDir)
		if err != nil {
			output.Error("failed to load config: %v", err)
			return err
		}

		if set != "" {
			if err := applyConfigSet(cfg, set); err != nil {
				output.Error("%v", err)
				return err
			}
			if err := config.Save(baseDir, cfg); err != nil {
				output.Error("failed to save config: %v", err)
				return err
			}
			output.Success("Updated %s", strings.SplitN(set, "=", 2)[0])
			return nil
		}

		if jsonOut {
			return output.JSON(cfg)
		}
		fmt.Printf("undo_window_hours: %d\n", int(cfg.UndoWindow().Hours()))
		fmt.Printf("live_undo_cap: %d\n", cfg.Cap())
		fmt.Printf("retention_days: %d\n", int(cfg.Retention().Hours()/24))
		fmt.Printf("drift_threshold: %d\n", cfg.Threshold())
		fmt.Printf("snapshot_file: %s\n", cfg.SnapshotFile)
		fmt.Printf("ignore_keys: %s\n", strings.Join(cfg.IgnoreKeys, ","))
		fmt.Printf("whitespace_fields: %s\n", strings.Join(cfg.WhitespaceFields, ","))
		return nil
	},
}

func applyConfigSet(cfg *config.Config, set string) error {
	key, value, found := strings.Cut(set, "=")
	if !found {
		return fmt.Errorf("--set expects key=value")
	}

	switch key {
	case "undo_window_hours", "live_undo_cap", "retention_days", "drift_threshold":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s must be a positive integer", key)
		}
		switch key {
		case "undo_window_hours":
			cfg.UndoWindowHours = n
		case "live_undo_cap":
			cfg.LiveUndoCap = n
		case "retention_days":
			cfg.RetentionDays = n
		case "drift_threshold":
			cfg.DriftThreshold = n
		}
	case "snapshot_file":
		cfg.SnapshotFile = value
	case "ignore_keys":
		cfg.IgnoreKeys = splitList(value)
	case "whitespace_fields":
		cfg.WhitespaceFields = splitList(value)
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func init() {
	configCmd.Flags().String("set", "", "update one key (key=value)")
	configCmd.Flags().Bool("json", false, "output JSON")
	rootCmd.AddCommand(configCmd)
}
