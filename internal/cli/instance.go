package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/drawbridge/pkg/cloud"
	"github.com/matzehuels/drawbridge/pkg/config"
	"github.com/matzehuels/drawbridge/pkg/dispatch"
)

// startCommand creates the start command.
func (c *CLI) startCommand() *cobra.Command {
	var instanceType string

	cmd := &cobra.Command{
		Use:   "start [names...]",
		Short: "Start tagged instances and bind their hostnames",
		Long: `Start waits for every tagged instance (or only the named ones) to be running.
Instances with an Fqdn tag get an A record for their public address, or a
CNAME to their public DNS name, in the most specific matching hosted zone.

With --instance-type, stopped instances are switched to that type first.
Running instances of a different type are an error.`,
		Example: `  drawbridge start
  drawbridge start -t t3.large devbox`,
		Args: validNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd.Context(), func(context.Context, config.Config) (dispatch.Command, error) {
				return buildStart(instanceType, args)
			})
		},
	}

	cmd.Flags().StringVarP(&instanceType, "instance-type", "t", "", "instance type to switch to before starting")

	return cmd
}

// stopCommand creates the stop command.
func (c *CLI) stopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop [names...]",
		Short: "Stop tagged instances and unbind their hostnames",
		Args:  validNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd.Context(), func(context.Context, config.Config) (dispatch.Command, error) {
				return dispatch.Stop{Names: args}, nil
			})
		},
	}
}

func buildStart(instanceType string, names []string) (dispatch.Command, error) {
	start := dispatch.Start{Names: names}
	if instanceType != "" {
		t, err := cloud.ParseInstanceType(instanceType)
		if err != nil {
			return nil, err
		}
		start.InstanceType = &t
	}
	return start, nil
}
