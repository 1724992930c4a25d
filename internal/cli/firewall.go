package cli

import (
	"context"
	"net/netip"

	"github.com/spf13/cobra"

	"github.com/matzehuels/drawbridge/pkg/checkip"
	"github.com/matzehuels/drawbridge/pkg/config"
	"github.com/matzehuels/drawbridge/pkg/dispatch"
	"github.com/matzehuels/drawbridge/pkg/errors"
	"github.com/matzehuels/drawbridge/pkg/iprules"
)

// openOptions holds flags for the open command.
type openOptions struct {
	protocols []string
	sources   []string
}

// openCommand creates the open command.
func (c *CLI) openCommand() *cobra.Command {
	var opts openOptions

	cmd := &cobra.Command{
		Use:   "open [names...]",
		Short: "Allow sources to reach tagged firewalls",
		Long: `Open replaces the ingress rules of every tagged security group (or only the
named ones) with one rule per source and protocol. Rules not in that set are
removed.

Protocols are PORT/tcp, FROM-TO/udp, or an alias such as ssh, https or mosh.
Sources are addresses, CIDR networks, or "self" for your public IPv4 address.
Without flags, [defaults] from the config file are used.`,
		Example: `  drawbridge open -p ssh -s self
  drawbridge open -p 443/tcp -p mosh -s self -s 198.51.100.0/24 bastion`,
		Args: validNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd.Context(), func(ctx context.Context, cfg config.Config) (dispatch.Command, error) {
				return buildOpen(ctx, cfg, opts, args)
			})
		},
	}

	cmd.Flags().StringArrayVarP(&opts.protocols, "protocol", "p", nil, "protocol or alias to allow (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.sources, "source", "s", nil, `source address, network, or "self" (repeatable)`)
	_ = cmd.RegisterFlagCompletionFunc("protocol", c.completeAliases)
	_ = cmd.RegisterFlagCompletionFunc("source", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{iprules.SelfSource}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// closeCommand creates the close command.
func (c *CLI) closeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "close [names...]",
		Short: "Remove all ingress rules from tagged firewalls",
		Args:  validNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd.Context(), func(context.Context, config.Config) (dispatch.Command, error) {
				return dispatch.Close{Names: args}, nil
			})
		},
	}
}

func (c *CLI) completeAliases(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	aliases := iprules.DefaultAliases()
	if cfg, err := c.config(); err == nil {
		if a, err := cfg.ProtocolAliases(); err == nil {
			aliases = a
		}
	}
	return aliases.Names(), cobra.ShellCompDirectiveNoFileComp
}

// buildOpen resolves protocols and sources, falling back to config defaults.
func buildOpen(ctx context.Context, cfg config.Config, opts openOptions, names []string) (dispatch.Command, error) {
	protocolArgs := opts.protocols
	if len(protocolArgs) == 0 {
		protocolArgs = cfg.Defaults.Protocols
	}
	sourceArgs := opts.sources
	if len(sourceArgs) == 0 {
		sourceArgs = cfg.Defaults.Sources
	}
	if len(protocolArgs) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "at least one --protocol is required")
	}
	if len(sourceArgs) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "at least one --source is required")
	}

	aliases, err := cfg.ProtocolAliases()
	if err != nil {
		return nil, err
	}
	protocols, err := expandProtocols(aliases, protocolArgs)
	if err != nil {
		return nil, err
	}
	sources, err := resolveSources(ctx, newCheckIP(cfg), sourceArgs)
	if err != nil {
		return nil, err
	}
	return dispatch.Open{Sources: sources, Protocols: protocols, Names: names}, nil
}

// expandProtocols parses each value, reporting alias substitutions.
func expandProtocols(aliases iprules.Aliases, values []string) ([]iprules.Protocol, error) {
	protocols := make([]iprules.Protocol, 0, len(values))
	for _, v := range values {
		p, substituted, err := aliases.Expand(v)
		if err != nil {
			return nil, err
		}
		if substituted {
			printInfo("Substituted: %s -> %s", v, p)
		}
		protocols = append(protocols, p)
	}
	return protocols, nil
}

// resolveSources parses each value. "self" is looked up at most once.
func resolveSources(ctx context.Context, ip *checkip.Client, values []string) ([]netip.Prefix, error) {
	var self netip.Prefix
	sources := make([]netip.Prefix, 0, len(values))
	for _, v := range values {
		if v != iprules.SelfSource {
			p, err := iprules.ParseSource(v)
			if err != nil {
				return nil, err
			}
			sources = append(sources, p)
			continue
		}
		if !self.IsValid() {
			lookup := newProgress(loggerFromContext(ctx))
			spinner := newSpinner(ctx, "Looking up public address...")
			spinner.Start()
			addr, err := ip.PublicIPv4(ctx)
			spinner.Stop()
			if err != nil {
				return nil, err
			}
			lookup.done("Resolved self to " + addr.String())
			self = iprules.HostPrefix(addr)
		}
		sources = append(sources, self)
	}
	return sources, nil
}
