package aws

import (
	"context"
	"slices"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
)

// fakeEC2 is an in-memory EC2API. Pending and stopping instances settle on
// the next describe call.
type fakeEC2 struct {
	mu        sync.Mutex
	groups    []types.SecurityGroup
	instances []types.Instance
	tagged    map[string]bool

	authorizeCalls []*ec2.AuthorizeSecurityGroupIngressInput
	revokeCalls    []*ec2.RevokeSecurityGroupIngressInput
	startCalls     int
	stopCalls      int
	modifyCalls    int
	authorizeErr   error
}

func newFakeEC2() *fakeEC2 {
	return &fakeEC2{tagged: make(map[string]bool)}
}

func (f *fakeEC2) addGroup(id, name string, tagged bool, perms ...types.IpPermission) {
	f.groups = append(f.groups, types.SecurityGroup{
		GroupId:       aws.String(id),
		GroupName:     aws.String(name),
		IpPermissions: flatten(perms),
	})
	f.tagged[id] = tagged
}

// flatten splits permissions into one permission per range so rules can be
// matched one at a time.
func flatten(perms []types.IpPermission) []types.IpPermission {
	var out []types.IpPermission
	for _, p := range perms {
		for _, r := range p.IpRanges {
			q := p
			q.IpRanges, q.Ipv6Ranges = []types.IpRange{r}, nil
			out = append(out, q)
		}
		for _, r := range p.Ipv6Ranges {
			q := p
			q.IpRanges, q.Ipv6Ranges = nil, []types.Ipv6Range{r}
			out = append(out, q)
		}
		if len(p.IpRanges)+len(p.Ipv6Ranges) == 0 {
			out = append(out, p)
		}
	}
	return out
}

func (f *fakeEC2) addInstance(inst types.Instance, tagged bool) {
	f.instances = append(f.instances, inst)
	f.tagged[aws.ToString(inst.InstanceId)] = tagged
}

func (f *fakeEC2) DescribeSecurityGroups(ctx context.Context, in *ec2.DescribeSecurityGroupsInput, _ ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := &ec2.DescribeSecurityGroupsOutput{}
	for _, g := range f.groups {
		id := aws.ToString(g.GroupId)
		if len(in.GroupIds) > 0 && !slices.Contains(in.GroupIds, id) {
			continue
		}
		if len(in.Filters) > 0 && !f.tagged[id] {
			continue
		}
		out.SecurityGroups = append(out.SecurityGroups, g)
	}
	return out, nil
}

func (f *fakeEC2) group(id string) *types.SecurityGroup {
	for i := range f.groups {
		if aws.ToString(f.groups[i].GroupId) == id {
			return &f.groups[i]
		}
	}
	return nil
}

func (f *fakeEC2) AuthorizeSecurityGroupIngress(ctx context.Context, in *ec2.AuthorizeSecurityGroupIngressInput, _ ...func(*ec2.Options)) (*ec2.AuthorizeSecurityGroupIngressOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authorizeCalls = append(f.authorizeCalls, in)
	if f.authorizeErr != nil {
		return nil, f.authorizeErr
	}
	g := f.group(aws.ToString(in.GroupId))
	// EC2 applies a batch all-or-nothing
	for _, p := range in.IpPermissions {
		if hasPermission(g.IpPermissions, p) {
			return nil, &smithy.GenericAPIError{Code: codeDuplicatePermission, Message: "the specified rule already exists"}
		}
	}
	g.IpPermissions = append(g.IpPermissions, in.IpPermissions...)
	return &ec2.AuthorizeSecurityGroupIngressOutput{}, nil
}

func (f *fakeEC2) RevokeSecurityGroupIngress(ctx context.Context, in *ec2.RevokeSecurityGroupIngressInput, _ ...func(*ec2.Options)) (*ec2.RevokeSecurityGroupIngressOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revokeCalls = append(f.revokeCalls, in)
	g := f.group(aws.ToString(in.GroupId))
	for _, p := range in.IpPermissions {
		if !hasPermission(g.IpPermissions, p) {
			return nil, &smithy.GenericAPIError{Code: codeMissingPermission, Message: "the specified rule does not exist"}
		}
	}
	g.IpPermissions = slices.DeleteFunc(g.IpPermissions, func(p types.IpPermission) bool {
		return hasPermission(in.IpPermissions, p)
	})
	return &ec2.RevokeSecurityGroupIngressOutput{}, nil
}

func hasPermission(perms []types.IpPermission, p types.IpPermission) bool {
	return slices.ContainsFunc(perms, func(q types.IpPermission) bool {
		return samePermission(p, q)
	})
}

// samePermission compares single-range permissions as built by toPermissions.
func samePermission(a, b types.IpPermission) bool {
	cidr := func(p types.IpPermission) string {
		if len(p.IpRanges) > 0 {
			return aws.ToString(p.IpRanges[0].CidrIp)
		}
		if len(p.Ipv6Ranges) > 0 {
			return aws.ToString(p.Ipv6Ranges[0].CidrIpv6)
		}
		return ""
	}
	return aws.ToString(a.IpProtocol) == aws.ToString(b.IpProtocol) &&
		aws.ToInt32(a.FromPort) == aws.ToInt32(b.FromPort) &&
		aws.ToInt32(a.ToPort) == aws.ToInt32(b.ToPort) &&
		cidr(a) == cidr(b)
}

func (f *fakeEC2) DescribeInstances(ctx context.Context, in *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var r types.Reservation
	for i := range f.instances {
		inst := &f.instances[i]
		id := aws.ToString(inst.InstanceId)
		if len(in.InstanceIds) > 0 && !slices.Contains(in.InstanceIds, id) {
			continue
		}
		if len(in.Filters) > 0 && !f.tagged[id] {
			continue
		}
		snapshot := *inst
		state := *inst.State
		snapshot.State = &state
		r.Instances = append(r.Instances, snapshot)
		// transitional states settle after being observed once
		switch inst.State.Name {
		case types.InstanceStateNamePending:
			inst.State.Name = types.InstanceStateNameRunning
			inst.PublicIpAddress = aws.String("203.0.113.10")
		case types.InstanceStateNameStopping:
			inst.State.Name = types.InstanceStateNameStopped
			inst.PublicIpAddress = nil
		}
	}
	out := &ec2.DescribeInstancesOutput{}
	if len(r.Instances) > 0 {
		out.Reservations = []types.Reservation{r}
	}
	return out, nil
}

func (f *fakeEC2) instance(id string) *types.Instance {
	for i := range f.instances {
		if aws.ToString(f.instances[i].InstanceId) == id {
			return &f.instances[i]
		}
	}
	return nil
}

func (f *fakeEC2) ModifyInstanceAttribute(ctx context.Context, in *ec2.ModifyInstanceAttributeInput, _ ...func(*ec2.Options)) (*ec2.ModifyInstanceAttributeOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modifyCalls++
	inst := f.instance(aws.ToString(in.InstanceId))
	if inst.State.Name != types.InstanceStateNameStopped {
		return nil, &smithy.GenericAPIError{Code: "IncorrectInstanceState", Message: "not stopped"}
	}
	inst.InstanceType = types.InstanceType(aws.ToString(in.InstanceType.Value))
	return &ec2.ModifyInstanceAttributeOutput{}, nil
}

func (f *fakeEC2) StartInstances(ctx context.Context, in *ec2.StartInstancesInput, _ ...func(*ec2.Options)) (*ec2.StartInstancesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startCalls++
	for _, id := range in.InstanceIds {
		f.instance(id).State.Name = types.InstanceStateNamePending
	}
	return &ec2.StartInstancesOutput{}, nil
}

func (f *fakeEC2) StopInstances(ctx context.Context, in *ec2.StopInstancesInput, _ ...func(*ec2.Options)) (*ec2.StopInstancesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCalls++
	for _, id := range in.InstanceIds {
		f.instance(id).State.Name = types.InstanceStateNameStopping
	}
	return &ec2.StopInstancesOutput{}, nil
}

var _ EC2API = (*fakeEC2)(nil)

func ec2Instance(id, name, fqdn string, state types.InstanceStateName) types.Instance {
	tags := []types.Tag{{Key: aws.String("drawbridge"), Value: aws.String("true")}}
	if name != "" {
		tags = append(tags, types.Tag{Key: aws.String("Name"), Value: aws.String(name)})
	}
	if fqdn != "" {
		tags = append(tags, types.Tag{Key: aws.String("Fqdn"), Value: aws.String(fqdn)})
	}
	inst := types.Instance{
		InstanceId:   aws.String(id),
		InstanceType: types.InstanceType("t3.micro"),
		State:        &types.InstanceState{Name: state},
		Tags:         tags,
	}
	if state == types.InstanceStateNameRunning {
		inst.PublicIpAddress = aws.String("203.0.113.10")
	}
	return inst
}

func tcpPermission(port int32, cidrs ...string) types.IpPermission {
	p := types.IpPermission{IpProtocol: aws.String("tcp"), FromPort: aws.Int32(port), ToPort: aws.Int32(port)}
	for _, c := range cidrs {
		p.IpRanges = append(p.IpRanges, types.IpRange{CidrIp: aws.String(c)})
	}
	return p
}
