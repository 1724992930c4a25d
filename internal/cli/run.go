package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/drawbridge/pkg/config"
	"github.com/matzehuels/drawbridge/pkg/dispatch"
	"github.com/matzehuels/drawbridge/pkg/errors"
	"github.com/matzehuels/drawbridge/pkg/history"
	"github.com/matzehuels/drawbridge/pkg/observability"
)

// buildFunc turns flags and arguments into a dispatch command.
type buildFunc func(ctx context.Context, cfg config.Config) (dispatch.Command, error)

// run builds a command, dispatches it against the configured backends,
// prints the report, and records the run.
func (c *CLI) run(ctx context.Context, build buildFunc) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}

	metrics := c.enableMetrics()
	defer c.writeMetrics(ctx, metrics)

	cmd, err := build(ctx, cfg)
	if err != nil {
		return err
	}

	zoneCache, err := newCache(c.flags.noCache)
	if err != nil {
		return err
	}
	defer zoneCache.Close()

	cl, zones, err := c.Backends(ctx, cfg, zoneCache)
	if err != nil {
		return err
	}

	d := dispatch.New(cl, zones, loggerFromContext(ctx))
	d.Concurrency = cfg.Wait.Concurrency

	report, runErr := d.Dispatch(ctx, cmd)
	if runErr == nil || len(report.Firewalls)+len(report.Instances) > 0 {
		printReport(report)
	}
	c.record(ctx, report, runErr)
	return runErr
}

// enableMetrics installs Prometheus hooks when --metrics-file is set.
func (c *CLI) enableMetrics() *observability.Prometheus {
	if c.flags.metricsFile == "" {
		return nil
	}
	m := observability.NewPrometheus()
	observability.SetDispatchHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
	return m
}

func (c *CLI) writeMetrics(ctx context.Context, m *observability.Prometheus) {
	if m == nil {
		return
	}
	logger := loggerFromContext(ctx)
	if err := m.WriteTextfile(c.flags.metricsFile); err != nil {
		logger.Warn("could not write metrics", "path", c.flags.metricsFile, "error", err)
		return
	}
	logger.Debug("wrote metrics", "path", c.flags.metricsFile)
}

// record stores the run in the history database. Failures are logged, not
// returned: the command itself already happened.
func (c *CLI) record(ctx context.Context, report *dispatch.Report, runErr error) {
	if c.flags.noHistory {
		return
	}
	logger := loggerFromContext(ctx)
	ctx = context.WithoutCancel(ctx)

	store, err := openHistory(ctx)
	if err != nil {
		logger.Warn("could not open history", "error", err)
		return
	}
	defer store.Close()

	run, err := store.Record(ctx, history.FromReport(report, runErr))
	if err != nil {
		logger.Warn("could not record run", "error", err)
		return
	}
	logger.Debug("recorded run", "id", run.ID, "path", store.Path())
}

func openHistory(ctx context.Context) (*history.Store, error) {
	path, err := history.DefaultPath()
	if err != nil {
		return nil, err
	}
	return history.Open(ctx, path)
}

// validNames rejects resource names no cloud resource could carry.
func validNames(_ *cobra.Command, args []string) error {
	for _, name := range args {
		if err := errors.ValidateName(name); err != nil {
			return err
		}
	}
	return nil
}
