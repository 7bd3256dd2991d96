package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nagsync/nagsync/internal/engine"
	"github.com/nagsync/nagsync/internal/state"
)

var applyDryRun bool

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Converge the host to the manifest",
	Long: `Run one reconciliation cycle: provision keys, sync fragments, rewrite list
settings in nagios.cfg and prune stale fragments, in that order.

Each resource is only changed when its guard reports a difference, and is
re-checked afterwards. If any resource fails the notify command is skipped
and the command exits non-zero.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, baseDir, err := loadManifest()
		if err != nil {
			return err
		}

		eng, err := newEngine()
		if err != nil {
			return err
		}

		ctx := commandContext(context.Background(), m)
		result, err := eng.Reconcile(ctx, &engine.ReconcileRequest{
			Manifest: m,
			BaseDir:  baseDir,
			DryRun:   applyDryRun,
		})
		if result == nil {
			return err
		}

		if jsonOutput {
			if jerr := outputJSON(result.Record); jerr != nil {
				return jerr
			}
			return err
		}

		if applyDryRun {
			printCheck(result.Check)
			if errors.Is(err, engine.ErrDiverged) {
				return nil
			}
			return err
		}

		printRecord("Apply", result.Record)
		if err != nil {
			return err
		}
		if result.Notified {
			PrintSuccess(fmt.Sprintf("Notified: %s", m.Notify.Command))
		}
		if result.Changed() {
			PrintSuccess("Host converged")
		} else {
			PrintSuccess("Already in sync")
		}
		return nil
	},
}

func init() {
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Evaluate guards only; change nothing")
}

// printRecord prints a per-resource table for a run record.
func printRecord(title string, record *state.RunRecord) {
	PrintSection(title)
	if len(record.Resources) == 0 {
		PrintEmptyState("No resources in manifest")
		return
	}

	rows := make([][]string, 0, len(record.Resources))
	for _, r := range record.Resources {
		rows = append(rows, []string{r.Name, strconv.Itoa(r.Steps), r.Status})
	}
	PrintTable([]string{"RESOURCE", "STEPS", "STATUS"}, rows, 2)

	for _, r := range record.Resources {
		if r.Error != "" {
			PrintError(fmt.Sprintf("%s: %s", r.Name, r.Error))
		}
	}
	fmt.Println()
}
