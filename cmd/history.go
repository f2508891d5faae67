package cmd

import (
	"fmt"
	"time"

	"github.com/marcus/driftsync/internal/config"
	"github.com/marcus/driftsync/internal/db"
	"github.com/marcus/driftsync/internal/models"
	"github.com/marcus/driftsync/internal/output"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent sync operations and their undo state",
	Long: `Shows recorded sync operations, newest first, with each one's undo state.
--prune deletes undo entries that expired before the retention window.`,
	GroupID: "report",
	RunE: func(cmd *cobra.Command, args []string) error {
		baseDir := getBaseDir()

		limit, _ := cmd.Flags().GetInt("limit")
		prune, _ := cmd.Flags().GetBool("prune")
		liveOnly, _ := cmd.Flags().GetBool("live")
		jsonOut, _ := cmd.Flags().GetBool("json")

		database, err := db.Open(baseDir)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		if prune {
			cfg, err := config.Load(baseDir)
			if err != nil {
				output.Error("failed to load config: %v", err)
				return err
			}
			pruned, err := database.PruneUndoEntries(time.Now().Add(-cfg.Retention()))
			if err != nil {
				output.Error("prune failed: %v", err)
				return err
			}
			fmt.Printf("Pruned %d expired undo entries\n", pruned)
		}

		ops, err := database.ListOperations(limit)
		if err != nil {
			output.Error("failed to list operations: %v", err)
			return err
		}

		now := time.Now()
		type row struct {
			op        models.SyncOperation
			undoState string
		}
		var rows []row
		for _, op := range ops {
			entry, err := database.GetUndoEntry(op.ID)
			if err != nil {
				output.Error("failed to load undo entry: %v", err)
				return err
			}
			undoState := "not reversible"
			switch {
			case entry == nil:
			case entry.UndoneAt != nil:
				undoState = "undone " + output.FormatWhen(*entry.UndoneAt)
			case entry.Live(now):
				undoState = "reversible until " + output.FormatWhen(entry.Expiration)
			default:
				undoState = "expired"
			}
			if liveOnly && (entry == nil || !entry.Live(now)) {
				continue
			}
			rows = append(rows, row{op: op, undoState: undoState})
		}

		if jsonOut {
			listed := make([]models.SyncOperation, 0, len(rows))
			for _, r := range rows {
				listed = append(listed, r.op)
			}
			return output.JSON(listed)
		}
		if len(rows) == 0 {
			fmt.Println("No sync operations recorded")
			return nil
		}
		for _, r := range rows {
			fmt.Printf("%s %s %d components, drift %d, %s, %s\n",
				r.op.ID, output.FormatStatus(r.op.Status),
				len(r.op.ComponentsAffected), r.op.DiffSummary.Total,
				output.FormatWhen(r.op.CreatedAt), r.undoState)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum operations to list")
	historyCmd.Flags().Bool("prune", false, "delete undo entries past the retention window")
	historyCmd.Flags().Bool("live", false, "only operations that are still reversible")
	historyCmd.Flags().Bool("json", false, "output JSON")
	rootCmd.AddCommand(historyCmd)
}
