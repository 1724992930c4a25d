// Package cloud defines the compute resources drawbridge manages: firewalls
// holding ingress rules, and instances that are started, stopped, and resized.
//
// Implementations live in subpackages: [github.com/matzehuels/drawbridge/pkg/cloud/aws]
// talks to EC2, [github.com/matzehuels/drawbridge/pkg/cloud/mem] keeps
// everything in memory for tests.
package cloud

import (
	"context"
	"slices"

	"github.com/matzehuels/drawbridge/pkg/dns"
	"github.com/matzehuels/drawbridge/pkg/errors"
	"github.com/matzehuels/drawbridge/pkg/iprules"
)

// Cloud lists the resources drawbridge is allowed to touch.
//
// An empty names slice selects every managed resource. Otherwise only
// resources whose name appears in names are returned.
type Cloud interface {
	ListFirewalls(ctx context.Context, names []string) ([]Firewall, error)
	ListInstances(ctx context.Context, names []string) ([]Instance, error)
}

// Firewall is a set of ingress rules attached to instances.
type Firewall interface {
	ID() string
	Name() string
	ListIngressRules(ctx context.Context) (iprules.RuleSet, error)
	// AddIngressRules and RemoveIngressRules make no remote call for an empty set.
	AddIngressRules(ctx context.Context, rules iprules.RuleSet) error
	RemoveIngressRules(ctx context.Context, rules iprules.RuleSet) error
}

// Instance is a virtual machine.
type Instance interface {
	ID() string
	Name() string
	// FQDN is the DNS name to keep pointed at the instance, or "" for none.
	FQDN() string
	// TryEnsureInstanceType changes the instance type. It only succeeds on a
	// stopped instance unless the type already matches.
	TryEnsureInstanceType(ctx context.Context, t InstanceType) error
	EnsureRunning(ctx context.Context) (RunningState, error)
	EnsureStopped(ctx context.Context) error
}

// InstanceType names a machine size, e.g. "t3.medium".
type InstanceType string

func (t InstanceType) String() string { return string(t) }

// ParseInstanceType validates s as an instance type.
func ParseInstanceType(s string) (InstanceType, error) {
	if err := errors.ValidateInstanceType(s); err != nil {
		return "", err
	}
	return InstanceType(s), nil
}

// RunningState describes a running instance.
type RunningState struct {
	InstanceType InstanceType

	// Target is where the instance's FQDN should point.
	Target dns.Target
}

// ErrMustBeStopped is returned by TryEnsureInstanceType on an instance that
// is not stopped.
func ErrMustBeStopped() error {
	return errors.New(errors.ErrCodeInstanceState, "instance must be stopped to change its type")
}

// Selected reports whether name passes a names filter.
func Selected(names []string, name string) bool {
	return len(names) == 0 || slices.Contains(names, name)
}
