package mem

import (
	"context"
	"fmt"
	"sync"

	"github.com/matzehuels/drawbridge/pkg/cloud"
	"github.com/matzehuels/drawbridge/pkg/iprules"
)

// Firewall is an in-memory [cloud.Firewall].
type Firewall struct {
	id   string
	name string

	mu    sync.Mutex
	rules iprules.RuleSet
	calls int
}

func newFirewall(id, name string) *Firewall {
	return &Firewall{id: id, name: name, rules: iprules.NewRuleSet()}
}

func (f *Firewall) ID() string   { return f.id }
func (f *Firewall) Name() string { return f.name }

// ListIngressRules returns a copy of the current rules.
func (f *Firewall) ListIngressRules(ctx context.Context) (iprules.RuleSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rules.Clone(), nil
}

func (f *Firewall) AddIngressRules(ctx context.Context, rules iprules.RuleSet) error {
	if rules.Len() == 0 {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	for r := range rules {
		f.rules.Add(r)
	}
	return nil
}

func (f *Firewall) RemoveIngressRules(ctx context.Context, rules iprules.RuleSet) error {
	if rules.Len() == 0 {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	for r := range rules {
		f.rules.Remove(r)
	}
	return nil
}

// Mutations counts the add and remove calls that changed something.
func (f *Firewall) Mutations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *Firewall) String() string {
	return fmt.Sprintf("%s (%s)", f.name, f.id)
}

var _ cloud.Firewall = (*Firewall)(nil)
