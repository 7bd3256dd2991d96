package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/nagsync/nagsync/internal/engine"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last recorded run",
	Long:  `Display the outcome of the most recent apply or check, per resource.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		ctx := commandContext(context.Background(), nil)
		record, err := eng.Status(ctx)
		if errors.Is(err, engine.ErrNoRuns) && !jsonOutput {
			PrintEmptyState("No runs recorded yet. Run 'nagsync apply' first.")
			return nil
		}
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(record)
		}

		PrintSection("Last Run")
		PrintLabelValue("Mode", record.Mode)
		PrintLabelValue("Finished", record.FinishedAt.Local().Format(time.RFC3339))
		PrintLabelValue("Duration", record.Duration().String())
		if record.Converged {
			PrintLabelValueWithColor("Converged", "yes", successColor)
		} else {
			PrintLabelValueWithColor("Converged", "no", errorColor)
		}
		if record.Notified {
			PrintLabelValue("Notified", "yes")
		}
		printRecord("Resources", record)
		return nil
	},
}
