package aws

import (
	stderrors "errors"
	"fmt"

	"github.com/aws/smithy-go"

	"github.com/matzehuels/drawbridge/pkg/errors"
)

// EC2 error codes with special handling.
const (
	codeInstanceNotFound    = "InvalidInstanceID.NotFound"
	codeGroupNotFound       = "InvalidGroup.NotFound"
	codeDuplicatePermission = "InvalidPermission.Duplicate"
	codeMissingPermission   = "InvalidPermission.NotFound"
)

// apiError wraps an EC2 call failure, mapping well-known API error codes to
// drawbridge error codes.
func apiError(err error, format string, args ...any) error {
	code := errors.ErrCodeCloudAPI
	switch apiErrorCode(err) {
	case codeInstanceNotFound:
		code = errors.ErrCodeInstanceNotFound
	case codeGroupNotFound:
		code = errors.ErrCodeFirewallNotFound
	}
	return errors.Wrap(code, err, format, args...)
}

func apiErrorCode(err error) string {
	var ae smithy.APIError
	if stderrors.As(err, &ae) {
		return ae.ErrorCode()
	}
	return ""
}

func describe(id, name string) string {
	return fmt.Sprintf("%s (%s)", name, id)
}
