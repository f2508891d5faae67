package cmd

import (
	"fmt"

	"github.com/marcus/driftsync/internal/db"
	"github.com/marcus/driftsync/internal/metrics"
	"github.com/marcus/driftsync/internal/models"
	"github.com/marcus/driftsync/internal/output"
	"github.com/marcus/driftsync/internal/undo"
	"github.com/spf13/cobra"
)

var undoCmd = &cobra.Command{
	Use:   "undo <operation-id>",
	Short: "Reverse a sync operation",
	Long: `Reverses a completed sync operation exactly once within its undo window.

An operation that was already undone reports failed; one whose window has
passed reports expired. Restoring the actual code/design artifacts is left
to the artifact store once the undo succeeds.`,
	GroupID: "core",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		baseDir := getBaseDir()
		jsonOut, _ := cmd.Flags().GetBool("json")

		database, err := db.Open(baseDir)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		manager := undo.New(database, metrics.SlogRecorder{}, nil)
		result, err := manager.Undo(undo.Request{OperationID: args[0]})
		if err != nil {
			if jsonOut {
				output.JSONError(output.ErrCodeDatabaseError, err.Error())
			} else {
				output.Error("%v", err)
			}
			return err
		}

		if jsonOut {
			if err := output.JSON(result); err != nil {
				return err
			}
		} else {
			switch result.Status {
			case models.UndoSuccess:
				output.Success("Undid %s (%d components restored)",
					result.UndoneOperationID, len(result.RestoredComponents))
				for _, id := range result.RestoredComponents {
					fmt.Printf("  %s\n", id)
				}
			case models.UndoExpired:
				output.Warning("undo window has passed for %s", args[0])
			default:
				output.Error("cannot undo %s: %s", args[0], result.Reason)
			}
			output.Subtle("%dms", result.DurationMs)
		}

		if result.Status != models.UndoSuccess {
			return fmt.Errorf("undo %s: %s", args[0], result.Status)
		}
		return nil
	},
}

func init() {
	undoCmd.Flags().Bool("json", false, "output JSON")
	rootCmd.AddCommand(undoCmd)
}
