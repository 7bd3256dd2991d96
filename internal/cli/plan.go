package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nagsync/nagsync/internal/config"
	"github.com/nagsync/nagsync/internal/engine"
	"github.com/nagsync/nagsync/internal/planner"
)

var (
	planKey  string
	planFile string
)

// planOutput is the JSON form of a planned edit.
type planOutput struct {
	File string `json:"file"`
	Key  string `json:"key"`
	planner.Record
}

var planCmd = &cobra.Command{
	Use:   "plan [values...]",
	Short: "Show the guarded edits for list settings",
	Long: `Print the guard and the edit operations that would bring each cfg_file /
cfg_dir list to the manifest's values. Nothing is read or written.

With --key, plan a single ad-hoc setting from the given values instead of
the manifest:

  nagsync plan --key cfg_dir /etc/nagios3/conf.d /etc/nagios/conf.d`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &engine.PlanRequest{Key: planKey, File: planFile, Values: args}
		if planKey == "" {
			if len(args) > 0 {
				return fmt.Errorf("values require --key")
			}
			m, baseDir, err := loadManifest()
			if err != nil {
				return err
			}
			req.Manifest, req.BaseDir = m, baseDir
		} else if m, baseDir, err := loadManifest(); err == nil {
			req.Manifest, req.BaseDir = m, baseDir
		}

		eng, err := newEngine()
		if err != nil {
			return err
		}

		planned, err := eng.Plan(commandContext(context.Background(), req.Manifest), req)
		if err != nil {
			return err
		}

		if jsonOutput {
			out := make([]planOutput, 0, len(planned))
			for _, p := range planned {
				out = append(out, planOutput{File: p.File, Key: p.Key, Record: p.Edit.Record()})
			}
			return outputJSON(out)
		}

		if len(planned) == 0 {
			PrintEmptyState("No list settings in manifest")
			return nil
		}
		for _, p := range planned {
			PrintSection(fmt.Sprintf("%s %s", p.File, p.Key))
			PrintLabelValue("onlyif", p.Edit.OnlyIf())
			PrintLabelValue("changes", PrintCount(len(p.Edit.Changes()), "operation", "operations"))
			PrintList(p.Edit.Changes(), 2)
		}
		return nil
	},
}

func init() {
	planCmd.Flags().StringVarP(&planKey, "key", "k", "", "Plan a single setting (cfg_file or cfg_dir)")
	planCmd.Flags().StringVarP(&planFile, "file", "f", "", fmt.Sprintf("Main config file for --key (default %s)", config.DefaultNagiosCfg))
}
