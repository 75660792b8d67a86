package handlers

// Expected failures are values, not errors: services hand back a Result and
// reserve Go errors for infrastructure faults that roll the transaction back.

// FailureKind classifies an expected service failure.
type FailureKind string

const (
	FailNotFound        FailureKind = "not_found"
	FailValidation      FailureKind = "validation"
	FailIneligibleState FailureKind = "ineligible_state"
	FailConflict        FailureKind = "conflict"
	FailForbidden       FailureKind = "forbidden"
)

// Result is the `(ok, message, payload)` shape every service entry point returns.
type Result struct {
	OK      bool        `json:"ok"`
	Kind    FailureKind `json:"kind,omitempty"`
	Message string      `json:"message,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

func Success(payload interface{}) Result {
	return Result{OK: true, Payload: payload}
}

func Failure(kind FailureKind, message string) Result {
	return Result{Kind: kind, Message: message}
}

// FailureWith carries extra context (eligibility payloads and the like).
func FailureWith(kind FailureKind, message string, payload interface{}) Result {
	return Result{Kind: kind, Message: message, Payload: payload}
}

// HTTPStatus maps a failure kind onto the response code the thin web layer uses.
func (r Result) HTTPStatus() int {
	if r.OK {
		return 200
	}
	switch r.Kind {
	case FailNotFound:
		return 404
	case FailForbidden:
		return 403
	case FailConflict:
		return 409
	default:
		return 400
	}
}
