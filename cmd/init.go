package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/marcus/driftsync/internal/config"
	"github.com/marcus/driftsync/internal/db"
	"github.com/marcus/driftsync/internal/output"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:     "init",
	Short:   "Initialize a new driftsync project",
	Long:    `Creates the local .driftsync directory, SQLite database and default config.`,
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		baseDir := getBaseDir()

		if _, err := os.Stat(filepath.Join(baseDir, ".driftsync")); err == nil {
			output.Warning(".driftsync/ already exists")
			return nil
		}

		database, err := db.Initialize(baseDir)
		if err != nil {
			output.Error("failed to initialize database: %v", err)
			return err
		}
		defer database.Close()

		cfg := &config.Config{
			UndoWindowHours: config.DefaultUndoWindowHours,
			LiveUndoCap:     config.DefaultLiveUndoCap,
			RetentionDays:   config.DefaultRetentionDays,
			DriftThreshold:  config.DefaultDriftThreshold,
		}
		if err := config.Save(baseDir, cfg); err != nil {
			output.Error("failed to write config: %v", err)
			return err
		}

		fmt.Println("INITIALIZED .driftsync/")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
