package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nagsync/nagsync/internal/engine"
)

var (
	// Global flags
	jsonOutput bool
	configPath string
	logLevel   string
	logFormat  string

	// Colors for help output sections
	groupTitleColor   = color.New(color.FgCyan, color.Bold)
	sectionTitleColor = color.New(color.FgBlue, color.Bold)
)

// rootCmd is the root command for nagsync.
var rootCmd = &cobra.Command{
	Use:     "nagsync",
	Version: "dev",
	Short:   "Converge Nagios configuration from a host manifest",
	Long: `nagsync keeps a Nagios server's configuration in the state a manifest describes.

It rewrites cfg_file and cfg_dir lists in nagios.cfg, syncs generated object
fragments into conf.d, prunes fragments nobody owns, provisions the sync SSH
key, and reloads Nagios when anything changed. Every change is guarded: a
resource is only touched when it differs from the manifest.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

// commandGroups are listed in help output in this order.
var commandGroups = []*cobra.Group{
	{ID: "reconcile", Title: "Reconciliation:"},
	{ID: "inspect", Title: "Inspection:"},
	{ID: "cli-tooling", Title: "CLI & Tooling:"},
}

// helpFunc renders help with colored section titles and commands listed
// under their group.
func helpFunc(cmd *cobra.Command, args []string) {
	var b strings.Builder

	if cmd.Long != "" {
		b.WriteString(cmd.Long + "\n\n")
	}
	writeSection(&b, "Usage:", "  "+cmd.UseLine()+"\n")

	for _, group := range cmd.Groups() {
		b.WriteString(groupTitleColor.Sprint(group.Title) + "\n")
		b.WriteString(commandLines(cmd, group.ID))
		b.WriteString("\n")
	}
	if lines := commandLines(cmd, ""); lines != "" {
		writeSection(&b, "Additional Commands:", lines)
	}
	if cmd.HasAvailableLocalFlags() || cmd.HasAvailablePersistentFlags() {
		writeSection(&b, "Flags:", cmd.LocalFlags().FlagUsages()+cmd.InheritedFlags().FlagUsages())
	}

	fmt.Fprintf(&b, "Use \"%s [command] --help\" for more information about a command.\n", cmd.CommandPath())
	fmt.Fprint(cmd.OutOrStdout(), b.String())
}

func writeSection(b *strings.Builder, title, body string) {
	b.WriteString(sectionTitleColor.Sprint(title) + "\n")
	b.WriteString(body)
	b.WriteString("\n")
}

// commandLines lists the visible subcommands of cmd in groupID.
func commandLines(cmd *cobra.Command, groupID string) string {
	var b strings.Builder
	for _, c := range cmd.Commands() {
		if c.GroupID == groupID && !c.Hidden {
			fmt.Fprintf(&b, "  %-11s %s\n", c.Name(), c.Short)
		}
	}
	return b.String()
}

// newCompletionCmd generates shell completion scripts for nagsync.
func newCompletionCmd() *cobra.Command {
	completionCmd := &cobra.Command{
		Use:     "completion",
		Short:   "Generate the autocompletion script for the specified shell",
		GroupID: "cli-tooling",
		Long: `Generate the autocompletion script for nagsync for the specified shell.
See each sub-command's help for details on how to use the generated script.`,
	}

	shells := []struct {
		name string
		gen  func(io.Writer) error
	}{
		{"bash", rootCmd.GenBashCompletion},
		{"zsh", rootCmd.GenZshCompletion},
		{"fish", func(w io.Writer) error { return rootCmd.GenFishCompletion(w, true) }},
		{"powershell", rootCmd.GenPowerShellCompletionWithDesc},
	}
	for _, sh := range shells {
		gen := sh.gen
		completionCmd.AddCommand(&cobra.Command{
			Use:                   sh.name,
			Short:                 "Generate the autocompletion script for " + sh.name,
			DisableFlagsInUseLine: true,
			Args:                  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return gen(os.Stdout)
			},
		})
	}
	return completionCmd
}

func init() {
	rootCmd.SetHelpFunc(helpFunc)

	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	flags.StringVarP(&configPath, "config", "c", "", "Manifest path (default $NAGSYNC_ROOT/config.yaml)")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides the manifest)")
	flags.StringVar(&logFormat, "log-format", "", "Log format: text or json (overrides the manifest)")

	rootCmd.AddGroup(commandGroups...)

	rootCmd.SetHelpCommand(&cobra.Command{
		Use:     "help [command]",
		Short:   "Help about any command",
		GroupID: "cli-tooling",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Root().Help()
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:     "version",
		Short:   "Print the nagsync CLI version",
		Args:    cobra.NoArgs,
		GroupID: "cli-tooling",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(os.Stdout, rootCmd.Version)
		},
	})
	rootCmd.AddCommand(newCompletionCmd())

	for _, c := range []*cobra.Command{applyCmd, checkCmd, watchCmd} {
		c.GroupID = "reconcile"
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{planCmd, statusCmd, factsCmd} {
		c.GroupID = "inspect"
		rootCmd.AddCommand(c)
	}
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps a command error to a process exit status using the Nagios
// plugin convention: 1 (warning) when resources diverged or failed to
// converge, 2 (critical) for anything else.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, engine.ErrDiverged), errors.Is(err, engine.ErrNotConverged):
		return 1
	default:
		return 2
	}
}
