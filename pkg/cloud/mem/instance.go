package mem

import (
	"context"
	"fmt"
	"net/netip"
	"sync"

	"github.com/matzehuels/drawbridge/pkg/cloud"
	"github.com/matzehuels/drawbridge/pkg/dns"
)

// Instance is an in-memory [cloud.Instance]. State changes are immediate.
type Instance struct {
	id   string
	name string
	fqdn string
	addr netip.Addr

	mu      sync.Mutex
	typ     cloud.InstanceType
	running bool
}

func newInstance(id, name, fqdn string, t cloud.InstanceType, addr netip.Addr) *Instance {
	return &Instance{id: id, name: name, fqdn: fqdn, typ: t, addr: addr}
}

func (i *Instance) ID() string   { return i.id }
func (i *Instance) Name() string { return i.name }
func (i *Instance) FQDN() string { return i.fqdn }

func (i *Instance) TryEnsureInstanceType(ctx context.Context, t cloud.InstanceType) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.typ == t {
		return nil
	}
	if i.running {
		return cloud.ErrMustBeStopped()
	}
	i.typ = t
	return nil
}

func (i *Instance) EnsureRunning(ctx context.Context) (cloud.RunningState, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.running = true
	return i.runningState(), nil
}

func (i *Instance) EnsureStopped(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.running = false
	return nil
}

// RunningState returns the current state and whether the instance is running.
func (i *Instance) RunningState() (cloud.RunningState, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.running {
		return cloud.RunningState{}, false
	}
	return i.runningState(), true
}

func (i *Instance) runningState() cloud.RunningState {
	return cloud.RunningState{InstanceType: i.typ, Target: dns.ATarget(i.addr)}
}

func (i *Instance) String() string {
	return fmt.Sprintf("%s (%s)", i.name, i.id)
}

var _ cloud.Instance = (*Instance)(nil)
