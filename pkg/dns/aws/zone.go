package aws

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/aws/smithy-go"

	"github.com/matzehuels/drawbridge/pkg/dns"
	"github.com/matzehuels/drawbridge/pkg/errors"
)

// Zone is a Route53 hosted zone.
type Zone struct {
	id   string
	name string
	dns  *DNS
}

func (z *Zone) ID() string     { return z.id }
func (z *Zone) Name() string   { return z.name }
func (z *Zone) String() string { return fmt.Sprintf("%s (%s)", z.name, z.id) }

// Bind upserts a single-value record for fqdn.
func (z *Zone) Bind(ctx context.Context, fqdn string, target dns.Target) error {
	if target.IsZero() {
		return errors.New(errors.ErrCodeInvalidInput, "empty DNS target for %s", fqdn)
	}
	rrs := &types.ResourceRecordSet{
		Name:            aws.String(fqdn),
		Type:            types.RRType(target.Type()),
		TTL:             aws.Int64(z.dns.ttl),
		ResourceRecords: []types.ResourceRecord{{Value: aws.String(target.Value())}},
	}
	return z.change(ctx, types.ChangeActionUpsert, rrs)
}

// Unbind deletes the A and CNAME records for fqdn, if present.
func (z *Zone) Unbind(ctx context.Context, fqdn string) error {
	for _, rt := range []types.RRType{types.RRTypeA, types.RRTypeCname} {
		existing, err := z.findRecordSet(ctx, fqdn, rt)
		if err != nil {
			return err
		}
		if existing == nil {
			continue
		}
		if err := z.change(ctx, types.ChangeActionDelete, existing); err != nil {
			return err
		}
	}
	return nil
}

// findRecordSet returns the record set named fqdn of type rt. Listing starts
// at (fqdn, rt) in Route53's sort order, so the first result is only a match
// if its name and type are equal.
func (z *Zone) findRecordSet(ctx context.Context, fqdn string, rt types.RRType) (*types.ResourceRecordSet, error) {
	out, err := z.dns.client.ListResourceRecordSets(ctx, &route53.ListResourceRecordSetsInput{
		HostedZoneId:    aws.String(z.id),
		StartRecordName: aws.String(fqdn),
		StartRecordType: rt,
		MaxItems:        aws.Int32(1),
	})
	if err != nil {
		return nil, apiError(err, "failed to find existing DNS entry: %s", fqdn)
	}
	for _, rrs := range out.ResourceRecordSets {
		if rrs.Type == rt && dns.SameName(aws.ToString(rrs.Name), fqdn) {
			return &rrs, nil
		}
	}
	return nil, nil
}

func (z *Zone) change(ctx context.Context, action types.ChangeAction, rrs *types.ResourceRecordSet) error {
	_, err := z.dns.client.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(z.id),
		ChangeBatch: &types.ChangeBatch{
			Changes: []types.Change{{Action: action, ResourceRecordSet: rrs}},
		},
	})
	if err != nil {
		return apiError(err, "failed to %s DNS entry: %s", action, aws.ToString(rrs.Name))
	}
	z.dns.logger.Debug("changed DNS entry", "action", action, "name", aws.ToString(rrs.Name), "type", rrs.Type)
	return nil
}

var _ dns.Zone = (*Zone)(nil)

func apiError(err error, format string, args ...any) error {
	var ae smithy.APIError
	if stderrors.As(err, &ae) && ae.ErrorCode() == "NoSuchHostedZone" {
		return errors.Wrap(errors.ErrCodeZoneNotFound, err, format, args...)
	}
	return errors.Wrap(errors.ErrCodeDNSAPI, err, format, args...)
}
