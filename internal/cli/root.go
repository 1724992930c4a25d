package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/drawbridge/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// The logger is attached to the command context before any subcommand runs
// and is accessible via loggerFromContext. With --verbose (-v) it logs at
// debug level.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Drawbridge opens firewalls and wakes instances on demand",
		Long: `Drawbridge manages AWS resources tagged drawbridge=true.

It opens and closes security-group ingress rules for your current address,
and starts and stops EC2 instances, keeping their Route53 hostnames in sync.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if c.flags.verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.BoolVarP(&c.flags.verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringVar(&c.flags.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/drawbridge/config.toml)")
	flags.StringVar(&c.flags.region, "region", "", "AWS region (overrides config and environment)")
	flags.StringVar(&c.flags.profile, "profile", "", "AWS shared config profile")
	flags.BoolVar(&c.flags.noCache, "no-cache", false, "do not read or write the hosted zone cache")
	flags.BoolVar(&c.flags.noHistory, "no-history", false, "do not record this run in the history database")
	flags.StringVar(&c.flags.metricsFile, "metrics-file", "", "write Prometheus metrics for this run to `path`")

	root.AddCommand(c.openCommand())
	root.AddCommand(c.closeCommand())
	root.AddCommand(c.startCommand())
	root.AddCommand(c.stopCommand())
	root.AddCommand(c.historyCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}
