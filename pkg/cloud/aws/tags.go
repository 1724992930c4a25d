package aws

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

const (
	nameTag = "Name"
	fqdnTag = "Fqdn"
)

func findTag(tags []types.Tag, key string) (string, bool) {
	for _, t := range tags {
		if aws.ToString(t.Key) == key && t.Value != nil {
			return *t.Value, true
		}
	}
	return "", false
}
