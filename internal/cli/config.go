package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/drawbridge/pkg/config"
)

// configCommand creates the config inspection command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := c.configPath()
			if err != nil {
				return err
			}
			printPlain(path)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				printDetail("file does not exist, built-in defaults apply")
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			return config.Encode(output, cfg)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "aliases",
		Short: "List protocol aliases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			aliases, err := cfg.ProtocolAliases()
			if err != nil {
				return err
			}
			printPlain(StyleTitle.Render("Protocol aliases"))
			for _, name := range aliases.Names() {
				printKeyValue(name, aliases[name].String())
			}
			return nil
		},
	})

	return cmd
}
