package service

import (
	"context"
	"errors"

	"pidstore/internal/crossref"
	dErrors "pidstore/pkg/domain-errors"
)

// translateRemote maps provider failures onto domain codes. Coded errors from
// the lifecycle checks pass through unchanged.
func translateRemote(err error, op string) error {
	if err == nil {
		return nil
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		if de.Code == dErrors.CodeInvariantViolation {
			return dErrors.Wrap(err, dErrors.CodeConflict, de.Message)
		}
		return err
	}

	var ce *crossref.ClientError
	if errors.As(err, &ce) {
		switch ce.Category {
		case crossref.CategoryValidation, crossref.CategoryBadData:
			return dErrors.Wrap(err, dErrors.CodeValidation, "registration service rejected the request")
		case crossref.CategoryPrecondition:
			return dErrors.Wrap(err, dErrors.CodeConflict, "registration service refused the state change")
		default:
			return dErrors.Wrap(err, dErrors.CodeBadGateway, "registration service rejected credentials")
		}
	}

	var he *crossref.HTTPError
	if errors.As(err, &he) {
		if he.StatusCode == 0 && errors.Is(err, context.DeadlineExceeded) {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "registration service timed out")
		}
		return dErrors.Wrap(err, dErrors.CodeBadGateway, op+" failed at registration service")
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "registration service timed out")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, op+" failed")
}
