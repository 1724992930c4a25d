package aws

import (
	"context"
	"net/netip"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/drawbridge/pkg/cloud"
	"github.com/matzehuels/drawbridge/pkg/errors"
	"github.com/matzehuels/drawbridge/pkg/iprules"
)

// Firewall is an EC2 security group.
type Firewall struct {
	id     string
	name   string
	client EC2API
	logger *log.Logger
}

func (f *Firewall) ID() string     { return f.id }
func (f *Firewall) Name() string   { return f.name }
func (f *Firewall) String() string { return describe(f.id, f.name) }

// ListIngressRules reads the group's ingress permissions. Only tcp and udp
// permissions are understood; anything else fails.
func (f *Firewall) ListIngressRules(ctx context.Context) (iprules.RuleSet, error) {
	out, err := f.client.DescribeSecurityGroups(ctx, &ec2.DescribeSecurityGroupsInput{
		GroupIds: []string{f.id},
	})
	if err != nil {
		return nil, apiError(err, "failed to describe security group: %s", f)
	}
	if len(out.SecurityGroups) == 0 {
		return nil, errors.New(errors.ErrCodeFirewallNotFound, "failed to find security group: %s", f)
	}
	return rulesFromPermissions(out.SecurityGroups[0].IpPermissions)
}

// AddIngressRules authorizes rules, one permission per rule. Rules that are
// already present are skipped.
func (f *Firewall) AddIngressRules(ctx context.Context, rules iprules.RuleSet) error {
	if rules.Len() == 0 {
		return nil
	}
	err := f.apply(ctx, toPermissions(rules), codeDuplicatePermission, func(ctx context.Context, perms []types.IpPermission) error {
		_, err := f.client.AuthorizeSecurityGroupIngress(ctx, &ec2.AuthorizeSecurityGroupIngressInput{
			GroupId:       aws.String(f.id),
			IpPermissions: perms,
		})
		return err
	})
	if err != nil {
		return apiError(err, "failed to authorize ingress for security group: %s", f.name)
	}
	return nil
}

// RemoveIngressRules revokes rules, one permission per rule. Rules that are
// already absent are skipped.
func (f *Firewall) RemoveIngressRules(ctx context.Context, rules iprules.RuleSet) error {
	if rules.Len() == 0 {
		return nil
	}
	err := f.apply(ctx, toPermissions(rules), codeMissingPermission, func(ctx context.Context, perms []types.IpPermission) error {
		_, err := f.client.RevokeSecurityGroupIngress(ctx, &ec2.RevokeSecurityGroupIngressInput{
			GroupId:       aws.String(f.id),
			IpPermissions: perms,
		})
		return err
	})
	if err != nil {
		return apiError(err, "failed to revoke ingress for security group: %s", f.name)
	}
	return nil
}

// apply sends perms in a single call. EC2 rejects the whole batch when any
// permission fails with skipCode, so the batch is then replayed one
// permission at a time and only those individual failures are skipped.
func (f *Firewall) apply(ctx context.Context, perms []types.IpPermission, skipCode string, call func(context.Context, []types.IpPermission) error) error {
	err := call(ctx, perms)
	if err == nil || apiErrorCode(err) != skipCode {
		return err
	}
	if len(perms) == 1 {
		f.logger.Debug("skipping rule", "firewall", f.name, "reason", skipCode)
		return nil
	}

	f.logger.Debug("batch rejected, applying rules one by one", "firewall", f.name, "rules", len(perms), "reason", skipCode)
	for _, p := range perms {
		err := call(ctx, []types.IpPermission{p})
		if apiErrorCode(err) == skipCode {
			f.logger.Debug("skipping rule", "firewall", f.name, "reason", skipCode)
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

var _ cloud.Firewall = (*Firewall)(nil)

func rulesFromPermissions(perms []types.IpPermission) (iprules.RuleSet, error) {
	rules := iprules.NewRuleSet()
	for _, p := range perms {
		proto := aws.ToString(p.IpProtocol)
		transport, err := iprules.ParseTransport(proto)
		if err != nil {
			return nil, errors.New(errors.ErrCodeUnsupported, "unknown protocol: %s", proto)
		}
		ports, err := portRange(p.FromPort, p.ToPort)
		if err != nil {
			return nil, err
		}
		protocol := iprules.Protocol{Transport: transport, Ports: ports}

		for _, r := range p.IpRanges {
			cidr := aws.ToString(r.CidrIp)
			prefix, err := netip.ParsePrefix(cidr)
			if err != nil || !prefix.Addr().Is4() {
				return nil, errors.New(errors.ErrCodeInvalidSource, "not an IPv4 network: %s", cidr)
			}
			rules.Add(iprules.IngressRule{Source: prefix.Masked(), Protocol: protocol})
		}
		for _, r := range p.Ipv6Ranges {
			cidr := aws.ToString(r.CidrIpv6)
			prefix, err := netip.ParsePrefix(cidr)
			if err != nil || !prefix.Addr().Is6() {
				return nil, errors.New(errors.ErrCodeInvalidSource, "not an IPv6 network: %s", cidr)
			}
			rules.Add(iprules.IngressRule{Source: prefix.Masked(), Protocol: protocol})
		}
	}
	return rules, nil
}

func portRange(from, to *int32) (iprules.PortRange, error) {
	f, t := aws.ToInt32(from), aws.ToInt32(to)
	if f < 0 || t > 65535 || f > t {
		return iprules.PortRange{}, errors.New(errors.ErrCodeInvalidProtocol, "invalid port range: %d-%d", f, t)
	}
	return iprules.PortRange{From: uint16(f), To: uint16(t)}, nil
}

func toPermissions(rules iprules.RuleSet) []types.IpPermission {
	perms := make([]types.IpPermission, 0, rules.Len())
	for _, r := range rules.Sorted() {
		p := types.IpPermission{
			IpProtocol: aws.String(string(r.Protocol.Transport)),
			FromPort:   aws.Int32(int32(r.Protocol.Ports.From)),
			ToPort:     aws.Int32(int32(r.Protocol.Ports.To)),
		}
		cidr := r.Source.String()
		if r.Source.Addr().Is4() {
			p.IpRanges = []types.IpRange{{CidrIp: aws.String(cidr)}}
		} else {
			p.Ipv6Ranges = []types.Ipv6Range{{CidrIpv6: aws.String(cidr)}}
		}
		perms = append(perms, p)
	}
	return perms
}
