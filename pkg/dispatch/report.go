package dispatch

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/matzehuels/drawbridge/pkg/cloud"
	"github.com/matzehuels/drawbridge/pkg/dns"
	"github.com/matzehuels/drawbridge/pkg/iprules"
)

// Report summarizes what a command changed.
type Report struct {
	Command   string
	Targets   []string
	Started   time.Time
	Finished  time.Time
	Firewalls []FirewallChange
	Instances []InstanceResult

	mu sync.Mutex
}

// FirewallChange lists the rules a command added to and removed from one firewall.
type FirewallChange struct {
	ID      string
	Name    string
	Added   []iprules.IngressRule
	Removed []iprules.IngressRule
}

// Changed reports whether any rule was added or removed.
func (c FirewallChange) Changed() bool {
	return len(c.Added) > 0 || len(c.Removed) > 0
}

// InstanceResult is the final state of one instance.
type InstanceResult struct {
	ID      string
	Name    string
	Running bool
	// InstanceType and Target are set for running instances.
	InstanceType cloud.InstanceType
	Target       dns.Target
	// FQDN and Zone are set when a DNS record was bound or unbound.
	FQDN string
	Zone string
}

// Duration is the wall time of the command.
func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// RulesChanged counts rules added and removed across all firewalls.
func (r *Report) RulesChanged() (added, removed int) {
	for _, fw := range r.Firewalls {
		added += len(fw.Added)
		removed += len(fw.Removed)
	}
	return added, removed
}

func (r *Report) addFirewall(c FirewallChange) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Firewalls = append(r.Firewalls, c)
}

func (r *Report) addInstance(res InstanceResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Instances = append(r.Instances, res)
}

// finish orders entries by name so output does not depend on scheduling.
func (r *Report) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Finished = time.Now()
	slices.SortFunc(r.Firewalls, func(a, b FirewallChange) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	slices.SortFunc(r.Instances, func(a, b InstanceResult) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
}
