package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nagsync/nagsync/internal/engine"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report which resources differ from the manifest",
	Long: `Evaluate every resource's guard without changing anything.

Exits non-zero when a resource has diverged or a guard could not be
evaluated, so it can run as a Nagios check of its own.`,
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
		result, err := eng.Check(ctx, &engine.CheckRequest{Manifest: m, BaseDir: baseDir})
		if result == nil {
			return err
		}

		if jsonOutput {
			if jerr := outputJSON(result); jerr != nil {
				return jerr
			}
			return err
		}

		printCheck(result)
		return err
	},
}

// printCheck prints guard outcomes.
func printCheck(result *engine.CheckResult) {
	PrintSection("Check")
	if len(result.Items) == 0 {
		PrintEmptyState("No resources in manifest")
		return
	}

	rows := make([][]string, 0, len(result.Items))
	for _, item := range result.Items {
		status := engine.CheckInSync
		switch {
		case item.Error != "":
			status = engine.CheckFailed
		case item.Diverged:
			status = engine.CheckDiverged
		}
		rows = append(rows, []string{item.Resource, status})
	}
	PrintTable([]string{"RESOURCE", "STATUS"}, rows, 1)
	fmt.Println()

	for _, item := range result.Errors() {
		PrintError(fmt.Sprintf("%s: %s", item.Resource, item.Error))
	}
	if n := len(result.Diverged()); n > 0 {
		PrintWarning(fmt.Sprintf("%s would change", PrintCount(n, "resource", "resources")))
	} else if len(result.Errors()) == 0 {
		PrintSuccess("All resources in sync")
	}
}
