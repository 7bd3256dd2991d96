package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nagsync/nagsync/internal/platform"
)

var factsPlatform string

var factsCmd = &cobra.Command{
	Use:   "facts",
	Short: "Print the Nagios facts for this host",
	Long: `Print nagios_config, nagios_key_exists and nagios_key as key=value lines,
the format of an external facts executable.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := factsPlatform
		if name == "" {
			if m, _, err := loadManifest(); err == nil {
				name = m.Platform
			}
		}
		p, err := platform.ByName(name)
		if err != nil {
			return err
		}

		eng, err := newEngine()
		if err != nil {
			return err
		}

		f, err := eng.Facts(commandContext(context.Background(), nil), p)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(f)
		}

		fmt.Printf("nagios_config=%s\n", f.NagiosConfig)
		fmt.Printf("nagios_key_exists=%s\n", f.NagiosKeyExists)
		fmt.Printf("nagios_key=%s\n", f.NagiosKey)
		return nil
	},
}

func init() {
	factsCmd.Flags().StringVar(&factsPlatform, "platform", "", "posix or windows (default from manifest, else auto)")
}
