package common

// OutcomeKind classifies the result of a wizard or board operation so the
// presentation layer can pick a distinct notification for each case.
type OutcomeKind string

const (
	OutcomeValidationError OutcomeKind = "validation_error"
	OutcomeNoResults       OutcomeKind = "no_results"
	OutcomeServiceError    OutcomeKind = "service_error"
	OutcomeBusy            OutcomeKind = "busy"
	OutcomeRejected        OutcomeKind = "rejected"
	OutcomeStale           OutcomeKind = "stale"
	OutcomeSuccess         OutcomeKind = "success"
	OutcomePartialSuccess  OutcomeKind = "partial_success"
	OutcomeFailure         OutcomeKind = "failure"
	OutcomeNothingToDo     OutcomeKind = "nothing_to_do"
)

// Outcome is the explicit result of a user-triggered operation.
type Outcome struct {
	Kind    OutcomeKind            `json:"kind"`
	Message string                 `json:"message"`
	Hint    string                 `json:"hint,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// IsError reports whether the outcome should be surfaced as a failure.
func (o Outcome) IsError() bool {
	switch o.Kind {
	case OutcomeSuccess, OutcomePartialSuccess, OutcomeNothingToDo:
		return false
	}
	return true
}

func NewOutcome(kind OutcomeKind, message string) Outcome {
	return Outcome{Kind: kind, Message: message}
}

// WithHint returns a copy of o carrying a remediation hint.
func (o Outcome) WithHint(hint string) Outcome {
	o.Hint = hint
	return o
}

// WithDetail returns a copy of o with key set in Details.
func (o Outcome) WithDetail(key string, value interface{}) Outcome {
	details := make(map[string]interface{}, len(o.Details)+1)
	for k, v := range o.Details {
		details[k] = v
	}
	details[key] = value
	o.Details = details
	return o
}
