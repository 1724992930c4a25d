package aws

import (
	"context"
	"net/netip"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/drawbridge/pkg/cloud"
	"github.com/matzehuels/drawbridge/pkg/dns"
	"github.com/matzehuels/drawbridge/pkg/errors"
	"github.com/matzehuels/drawbridge/pkg/observability"
)

// Instance is an EC2 instance.
type Instance struct {
	id     string
	name   string
	fqdn   string
	client EC2API
	wait   cloud.Waiter
	logger *log.Logger
}

func (i *Instance) ID() string     { return i.id }
func (i *Instance) Name() string   { return i.name }
func (i *Instance) FQDN() string   { return i.fqdn }
func (i *Instance) String() string { return describe(i.id, i.name) }

// instanceState is a snapshot of the fields drawbridge reads.
type instanceState struct {
	state   cloud.State
	typ     cloud.InstanceType
	ip      netip.Addr
	dnsName string
}

func (i *Instance) describeState(ctx context.Context) (instanceState, error) {
	out, err := i.client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{i.id},
	})
	if err != nil {
		return instanceState{}, apiError(err, "failed to describe instance: %s", i)
	}
	for _, r := range out.Reservations {
		for _, inst := range r.Instances {
			s := instanceState{
				typ:     cloud.InstanceType(inst.InstanceType),
				dnsName: aws.ToString(inst.PublicDnsName),
			}
			if inst.State != nil {
				s.state = cloud.State(inst.State.Name)
			}
			if raw := aws.ToString(inst.PublicIpAddress); raw != "" {
				ip, err := netip.ParseAddr(raw)
				if err != nil {
					return instanceState{}, errors.Wrap(errors.ErrCodeCloudAPI, err, "not an IP address: %s", raw)
				}
				s.ip = ip
			}
			return s, nil
		}
	}
	return instanceState{}, errors.New(errors.ErrCodeInstanceNotFound, "failed to find instance: %s", i)
}

// TryEnsureInstanceType changes the type of a stopped instance.
func (i *Instance) TryEnsureInstanceType(ctx context.Context, t cloud.InstanceType) error {
	s, err := i.describeState(ctx)
	if err != nil {
		return err
	}
	i.logger.Debug("instance state", "state", s.state, "type", s.typ)
	if s.typ == t {
		return nil
	}
	if s.state != cloud.StateStopped {
		return cloud.ErrMustBeStopped()
	}

	_, err = i.client.ModifyInstanceAttribute(ctx, &ec2.ModifyInstanceAttributeInput{
		InstanceId:   aws.String(i.id),
		InstanceType: &types.AttributeValue{Value: aws.String(string(t))},
	})
	if err != nil {
		return apiError(err, "failed to change instance type to %s: %s", t, i.id)
	}
	i.logger.Info("changed instance type", "from", s.typ, "to", t)
	return nil
}

// EnsureRunning starts the instance if needed and waits until it runs.
func (i *Instance) EnsureRunning(ctx context.Context) (cloud.RunningState, error) {
	var final instanceState
	err := i.settle(ctx, true, func(s instanceState) { final = s })
	if err != nil {
		return cloud.RunningState{}, err
	}

	target, err := runningTarget(final)
	if err != nil {
		return cloud.RunningState{}, err
	}
	return cloud.RunningState{InstanceType: final.typ, Target: target}, nil
}

// EnsureStopped stops the instance if needed and waits until it is stopped.
func (i *Instance) EnsureStopped(ctx context.Context) error {
	return i.settle(ctx, false, func(instanceState) {})
}

// settle drives the instance towards running or stopped, calling done with
// the last observed state once the goal is reached.
func (i *Instance) settle(ctx context.Context, running bool, done func(instanceState)) error {
	goal := cloud.StateStopped
	if running {
		goal = cloud.StateRunning
	}
	hooks := observability.Dispatch()
	start := time.Now()

	var last cloud.State
	err := i.wait.Wait(ctx, i.name+" to be "+string(goal), func(ctx context.Context) (bool, error) {
		s, err := i.describeState(ctx)
		if err != nil {
			return false, err
		}
		if s.state != last {
			i.logger.Debug("instance state", "state", s.state, "type", s.typ)
			if last != "" {
				hooks.OnInstanceTransition(ctx, i.name, string(last), string(s.state))
			}
			last = s.state
		}

		step, err := cloud.NextStep(s.state, running)
		if err != nil {
			return false, err
		}
		switch step {
		case cloud.StepStart:
			return false, i.requestStart(ctx)
		case cloud.StepStop:
			return false, i.requestStop(ctx)
		case cloud.StepDone:
			done(s)
			return true, nil
		}
		return false, nil
	})
	hooks.OnInstanceSettled(ctx, i.name, string(goal), time.Since(start), err)
	return err
}

func (i *Instance) requestStart(ctx context.Context) error {
	i.logger.Info("starting instance")
	if _, err := i.client.StartInstances(ctx, &ec2.StartInstancesInput{InstanceIds: []string{i.id}}); err != nil {
		return apiError(err, "failed to start instance: %s", i.id)
	}
	return nil
}

func (i *Instance) requestStop(ctx context.Context) error {
	i.logger.Info("stopping instance")
	if _, err := i.client.StopInstances(ctx, &ec2.StopInstancesInput{InstanceIds: []string{i.id}}); err != nil {
		return apiError(err, "failed to stop instance: %s", i.id)
	}
	return nil
}

// runningTarget prefers the public IPv4 address and falls back to the
// public DNS name.
func runningTarget(s instanceState) (dns.Target, error) {
	switch {
	case s.ip.IsValid():
		return dns.ATarget(s.ip), nil
	case s.dnsName != "":
		return dns.CNAMETarget(s.dnsName), nil
	}
	return dns.Target{}, errors.New(errors.ErrCodeInstanceState, "expected running instance to have a public IP address or DNS name")
}

var _ cloud.Instance = (*Instance)(nil)
