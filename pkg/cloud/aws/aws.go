// Package aws implements [cloud.Cloud] on EC2: security groups are firewalls
// and tagged instances are instances.
//
// Only resources carrying the configured tag (default drawbridge=true) are
// visible. Instances must also carry a Name tag; an Fqdn tag names the DNS
// record kept pointed at the instance while it runs.
package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/drawbridge/pkg/cloud"
	"github.com/matzehuels/drawbridge/pkg/errors"
)

// Default tag selecting managed resources.
const (
	DefaultTagKey   = "drawbridge"
	DefaultTagValue = "true"
)

// EC2API is the subset of the EC2 client drawbridge calls.
type EC2API interface {
	DescribeSecurityGroups(ctx context.Context, params *ec2.DescribeSecurityGroupsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error)
	AuthorizeSecurityGroupIngress(ctx context.Context, params *ec2.AuthorizeSecurityGroupIngressInput, optFns ...func(*ec2.Options)) (*ec2.AuthorizeSecurityGroupIngressOutput, error)
	RevokeSecurityGroupIngress(ctx context.Context, params *ec2.RevokeSecurityGroupIngressInput, optFns ...func(*ec2.Options)) (*ec2.RevokeSecurityGroupIngressOutput, error)
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	ModifyInstanceAttribute(ctx context.Context, params *ec2.ModifyInstanceAttributeInput, optFns ...func(*ec2.Options)) (*ec2.ModifyInstanceAttributeOutput, error)
	StartInstances(ctx context.Context, params *ec2.StartInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StartInstancesOutput, error)
	StopInstances(ctx context.Context, params *ec2.StopInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StopInstancesOutput, error)
}

var _ EC2API = (*ec2.Client)(nil)

// Options configures a Cloud.
type Options struct {
	TagKey   string
	TagValue string

	// Wait controls how EnsureRunning and EnsureStopped poll.
	Wait cloud.Waiter

	Logger *log.Logger
}

// Cloud is an EC2-backed [cloud.Cloud].
type Cloud struct {
	client EC2API
	filter types.Filter
	wait   cloud.Waiter
	logger *log.Logger
}

// LoadConfig resolves credentials and region through the SDK default chain.
// Empty region or profile leave the chain's own choice in place.
func LoadConfig(ctx context.Context, region, profile string) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "could not load AWS configuration")
	}
	if cfg.Region == "" {
		return aws.Config{}, errors.New(errors.ErrCodeInvalidConfig, "no AWS region configured (set AWS_REGION, --region or [aws] region)")
	}
	return cfg, nil
}

// New returns a Cloud using an EC2 client built from cfg.
func New(cfg aws.Config, opts Options) *Cloud {
	return NewWithClient(ec2.NewFromConfig(cfg), opts)
}

// NewWithClient returns a Cloud using client.
func NewWithClient(client EC2API, opts Options) *Cloud {
	if opts.TagKey == "" {
		opts.TagKey = DefaultTagKey
	}
	if opts.TagValue == "" {
		opts.TagValue = DefaultTagValue
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Cloud{
		client: client,
		filter: types.Filter{
			Name:   aws.String("tag:" + opts.TagKey),
			Values: []string{opts.TagValue},
		},
		wait:   opts.Wait,
		logger: opts.Logger,
	}
}

// ListFirewalls returns the tagged security groups selected by names.
func (c *Cloud) ListFirewalls(ctx context.Context, names []string) ([]cloud.Firewall, error) {
	input := &ec2.DescribeSecurityGroupsInput{Filters: []types.Filter{c.filter}}
	var out []cloud.Firewall

	p := ec2.NewDescribeSecurityGroupsPaginator(c.client, input)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, apiError(err, "failed to describe security groups")
		}
		for _, sg := range page.SecurityGroups {
			name := aws.ToString(sg.GroupName)
			if !cloud.Selected(names, name) {
				continue
			}
			out = append(out, &Firewall{
				id:     aws.ToString(sg.GroupId),
				name:   name,
				client: c.client,
				logger: c.logger,
			})
		}
	}
	return out, nil
}

// ListInstances returns the tagged instances selected by names.
// Instances in the terminated state are skipped.
func (c *Cloud) ListInstances(ctx context.Context, names []string) ([]cloud.Instance, error) {
	input := &ec2.DescribeInstancesInput{Filters: []types.Filter{c.filter}}
	var out []cloud.Instance

	p := ec2.NewDescribeInstancesPaginator(c.client, input)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, apiError(err, "failed to describe instances")
		}
		for _, r := range page.Reservations {
			for _, i := range r.Instances {
				if i.State != nil && i.State.Name == types.InstanceStateNameTerminated {
					continue
				}
				id := aws.ToString(i.InstanceId)
				name, ok := findTag(i.Tags, nameTag)
				if !ok {
					return nil, errors.New(errors.ErrCodeInvalidName, "expected instance to have Name tag: %s", id)
				}
				if !cloud.Selected(names, name) {
					continue
				}
				fqdn, _ := findTag(i.Tags, fqdnTag)
				if fqdn != "" {
					if err := errors.ValidateFQDN(fqdn); err != nil {
						c.logger.Warn("ignoring Fqdn tag", "instance", name, "err", errors.UserMessage(err))
						fqdn = ""
					}
				}
				out = append(out, &Instance{
					id:     id,
					name:   name,
					fqdn:   fqdn,
					client: c.client,
					wait:   c.wait,
					logger: c.logger.With("instance", name),
				})
			}
		}
	}
	return out, nil
}

var _ cloud.Cloud = (*Cloud)(nil)
