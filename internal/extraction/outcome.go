package extraction

import (
	"errors"

	"hotelops/internal/common"
)

// OutcomeFor maps a session error to the notification the user should see.
// A nil error is a plain success.
func OutcomeFor(err error, successMessage string) common.Outcome {
	if err == nil {
		return common.NewOutcome(common.OutcomeSuccess, successMessage)
	}

	var (
		verr  *ValidationError
		ferrs FieldErrors
		nr    *NoResultsError
		se    *ServiceError
		stErr *StageError
	)
	switch {
	case errors.As(err, &verr):
		return common.NewOutcome(common.OutcomeValidationError, verr.Message).WithDetail("field", verr.Field)
	case errors.As(err, &ferrs):
		fields := make(map[string]string, len(ferrs))
		for _, fe := range ferrs {
			fields[fe.Field] = fe.Message
		}
		return common.NewOutcome(common.OutcomeValidationError, "Fix the highlighted fields").WithDetail("fields", fields)
	case errors.As(err, &nr):
		return common.NewOutcome(common.OutcomeNoResults, "No menu items were found").
			WithHint(nr.Hint()).
			WithDetail("cause", string(nr.Cause))
	case errors.As(err, &se):
		return common.NewOutcome(common.OutcomeServiceError, se.Error()).WithDetail("category", string(se.Category))
	case errors.Is(err, ErrBusy):
		return common.NewOutcome(common.OutcomeBusy, err.Error())
	case errors.Is(err, ErrStale):
		return common.NewOutcome(common.OutcomeStale, err.Error())
	case errors.Is(err, ErrNothingSelected), errors.Is(err, ErrNothingToRetry):
		return common.NewOutcome(common.OutcomeRejected, err.Error())
	case errors.Is(err, ErrIndexOutOfRange), errors.Is(err, ErrNoEditInProgress), errors.As(err, &stErr):
		return common.NewOutcome(common.OutcomeRejected, err.Error())
	}
	return common.NewOutcome(common.OutcomeFailure, common.Message(err))
}
