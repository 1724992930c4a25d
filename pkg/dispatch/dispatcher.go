// Package dispatch reconciles cloud resources with a drawbridge command.
//
// Open and Close converge firewall ingress rules on a desired set: missing
// rules are added, extra rules are removed. Start and Stop move instances to
// running or stopped and keep their DNS names bound while they run. Every
// command is idempotent; running it twice leaves the same state.
//
// Resources are processed concurrently up to [Dispatcher.Concurrency]. The
// first failure cancels the remaining work and is returned.
package dispatch

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/drawbridge/pkg/cloud"
	"github.com/matzehuels/drawbridge/pkg/dns"
	"github.com/matzehuels/drawbridge/pkg/errors"
	"github.com/matzehuels/drawbridge/pkg/iprules"
	"github.com/matzehuels/drawbridge/pkg/observability"
)

// DefaultConcurrency bounds how many resources are processed at once.
const DefaultConcurrency = 4

// Dispatcher executes commands against a cloud and a DNS provider.
//
// The Dispatcher holds no per-command state, so one value can run several
// commands, sequentially or concurrently.
type Dispatcher struct {
	Cloud       cloud.Cloud
	DNS         dns.Provider
	Logger      *log.Logger
	Concurrency int
}

// New creates a dispatcher. A nil logger uses log.Default(). A nil DNS
// provider skips DNS updates.
func New(c cloud.Cloud, d dns.Provider, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{
		Cloud:       c,
		DNS:         d,
		Logger:      logger,
		Concurrency: DefaultConcurrency,
	}
}

// Dispatch runs cmd. The returned report is never nil and holds whatever was
// completed, also when an error is returned.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) (*Report, error) {
	report := &Report{Command: cmd.Name(), Targets: cmd.Targets(), Started: time.Now()}

	var err error
	switch c := cmd.(type) {
	case Open:
		err = d.open(ctx, c, report)
	case Close:
		err = d.reconcileFirewalls(ctx, c.Names, iprules.NewRuleSet(), report)
	case Start:
		err = d.start(ctx, c, report)
	case Stop:
		err = d.stop(ctx, c, report)
	default:
		err = errors.New(errors.ErrCodeUnsupported, "unknown command: %T", cmd)
	}

	report.finish()
	observability.Dispatch().OnCommand(ctx, cmd.Name(), report.Duration(), err)
	return report, err
}

func (d *Dispatcher) open(ctx context.Context, c Open, report *Report) error {
	if len(c.Sources) == 0 || len(c.Protocols) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "open needs at least one source and one protocol")
	}
	return d.reconcileFirewalls(ctx, c.Names, c.DesiredRules(), report)
}

func (d *Dispatcher) group(ctx context.Context) (*errgroup.Group, context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(d.Concurrency, 1))
	return g, ctx
}

func (d *Dispatcher) reconcileFirewalls(ctx context.Context, names []string, desired iprules.RuleSet, report *Report) error {
	fws, err := d.Cloud.ListFirewalls(ctx, names)
	if err != nil {
		return err
	}
	d.Logger.Info("found firewalls", "count", len(fws))

	g, ctx := d.group(ctx)
	for _, fw := range fws {
		g.Go(func() error {
			change, err := d.reconcileFirewall(ctx, fw, desired)
			observability.Dispatch().OnFirewallReconciled(ctx, fw.Name(), len(change.Added), len(change.Removed), err)
			if err != nil {
				return err
			}
			report.addFirewall(change)
			return nil
		})
	}
	return g.Wait()
}

func (d *Dispatcher) reconcileFirewall(ctx context.Context, fw cloud.Firewall, desired iprules.RuleSet) (FirewallChange, error) {
	logger := d.Logger.With("firewall", fw.Name())
	change := FirewallChange{ID: fw.ID(), Name: fw.Name()}

	existing, err := fw.ListIngressRules(ctx)
	if err != nil {
		return change, err
	}
	logger.Debug("existing rules", "rules", existing)

	missing := desired.Difference(existing)
	if err := fw.AddIngressRules(ctx, missing); err != nil {
		return change, err
	}
	change.Added = missing.Sorted()
	if missing.Len() > 0 {
		logger.Info("added rules", "rules", missing)
	}

	extra := existing.Difference(desired)
	if err := fw.RemoveIngressRules(ctx, extra); err != nil {
		return change, err
	}
	change.Removed = extra.Sorted()
	if extra.Len() > 0 {
		logger.Info("removed rules", "rules", extra)
	}
	return change, nil
}

func (d *Dispatcher) forInstances(ctx context.Context, names []string, fn func(context.Context, cloud.Instance, dns.Provider) (InstanceResult, error), report *Report) error {
	insts, err := d.Cloud.ListInstances(ctx, names)
	if err != nil {
		return err
	}
	d.Logger.Info("found instances", "count", len(insts))

	var zones dns.Provider
	if d.DNS != nil {
		zones = &onceProvider{inner: d.DNS}
	}

	g, ctx := d.group(ctx)
	for _, inst := range insts {
		g.Go(func() error {
			res, err := fn(ctx, inst, zones)
			if err != nil {
				return err
			}
			report.addInstance(res)
			return nil
		})
	}
	return g.Wait()
}

func (d *Dispatcher) start(ctx context.Context, c Start, report *Report) error {
	return d.forInstances(ctx, c.Names, func(ctx context.Context, inst cloud.Instance, zones dns.Provider) (InstanceResult, error) {
		logger := d.Logger.With("instance", inst.Name())
		res := InstanceResult{ID: inst.ID(), Name: inst.Name()}

		if c.InstanceType != nil {
			if err := inst.TryEnsureInstanceType(ctx, *c.InstanceType); err != nil {
				return res, err
			}
		}
		state, err := inst.EnsureRunning(ctx)
		if err != nil {
			return res, err
		}
		res.Running = true
		res.InstanceType = state.InstanceType
		res.Target = state.Target
		logger.Info("instance running", "type", state.InstanceType, "target", state.Target)

		if inst.FQDN() == "" || zones == nil {
			return res, nil
		}
		zone, err := d.updateDNS(ctx, zones, inst.FQDN(), "bind", func(z dns.Zone) error {
			return z.Bind(ctx, inst.FQDN(), state.Target)
		})
		if err != nil {
			return res, err
		}
		res.FQDN, res.Zone = inst.FQDN(), zone
		logger.Info("bound hostname", "fqdn", inst.FQDN(), "zone", zone)
		return res, nil
	}, report)
}

func (d *Dispatcher) stop(ctx context.Context, c Stop, report *Report) error {
	return d.forInstances(ctx, c.Names, func(ctx context.Context, inst cloud.Instance, zones dns.Provider) (InstanceResult, error) {
		logger := d.Logger.With("instance", inst.Name())
		res := InstanceResult{ID: inst.ID(), Name: inst.Name()}

		if err := inst.EnsureStopped(ctx); err != nil {
			return res, err
		}
		logger.Info("instance stopped")

		if inst.FQDN() == "" || zones == nil {
			return res, nil
		}
		zone, err := d.updateDNS(ctx, zones, inst.FQDN(), "unbind", func(z dns.Zone) error {
			return z.Unbind(ctx, inst.FQDN())
		})
		if err != nil {
			return res, err
		}
		res.FQDN, res.Zone = inst.FQDN(), zone
		logger.Info("unbound hostname", "fqdn", inst.FQDN(), "zone", zone)
		return res, nil
	}, report)
}

// updateDNS applies fn to the zone authoritative for fqdn and returns the
// zone's name.
func (d *Dispatcher) updateDNS(ctx context.Context, zones dns.Provider, fqdn, action string, fn func(dns.Zone) error) (string, error) {
	zone, err := dns.FindAuthoritativeZone(ctx, zones, fqdn)
	if err == nil {
		d.Logger.Debug("found authoritative zone", "fqdn", fqdn, "zone", zone.Name(), "id", zone.ID())
		err = fn(zone)
	}
	observability.Dispatch().OnDNSChange(ctx, action, fqdn, err)
	if err != nil {
		return "", err
	}
	return zone.Name(), nil
}
