package dispatch

import (
	"net/netip"

	"github.com/matzehuels/drawbridge/pkg/cloud"
	"github.com/matzehuels/drawbridge/pkg/iprules"
)

// Command is one of [Open], [Close], [Start] or [Stop].
type Command interface {
	// Name is the command's verb, used in logs, metrics, and history.
	Name() string
	// Targets are the resource names the command is limited to. Empty
	// means every managed resource.
	Targets() []string

	command()
}

// Open makes every selected firewall admit exactly Sources x Protocols.
type Open struct {
	Sources   []netip.Prefix
	Protocols []iprules.Protocol
	Names     []string
}

// Close removes every ingress rule from the selected firewalls.
type Close struct {
	Names []string
}

// Start runs the selected instances and points their FQDNs at them.
type Start struct {
	// InstanceType, if set, is applied before starting. Only stopped
	// instances can change type.
	InstanceType *cloud.InstanceType
	Names        []string
}

// Stop stops the selected instances and removes their DNS records.
type Stop struct {
	Names []string
}

func (Open) Name() string  { return "open" }
func (Close) Name() string { return "close" }
func (Start) Name() string { return "start" }
func (Stop) Name() string  { return "stop" }

func (c Open) Targets() []string  { return c.Names }
func (c Close) Targets() []string { return c.Names }
func (c Start) Targets() []string { return c.Names }
func (c Stop) Targets() []string  { return c.Names }

func (Open) command()  {}
func (Close) command() {}
func (Start) command() {}
func (Stop) command()  {}

// DesiredRules is the rule set an Open asks for.
func (c Open) DesiredRules() iprules.RuleSet {
	return iprules.Product(c.Sources, c.Protocols)
}
