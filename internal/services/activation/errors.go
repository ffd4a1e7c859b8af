package activation

import "fmt"

// Kind - машиночитаемый вид неуспешной сверки.
type Kind string

const (
	KindUnauthenticated     Kind = "unauthenticated"
	KindUserNotFound        Kind = "user_not_found"
	KindGatewayUnavailable  Kind = "gateway_unavailable"
	KindInvalidLicense      Kind = "invalid_license"
	KindUnknownPlan         Kind = "unknown_plan"
	KindEntitlementRejected Kind = "entitlement_rejected"
	KindActivationFailed    Kind = "activation_failed"
	KindDuplicateActivation Kind = "duplicate_activation"
	KindPersistenceFailed   Kind = "persistence_failed"
	KindInternal            Kind = "internal"
)

// Error - типизированная ошибка сверки. Reason заполняется для отказов,
// причина которых показывается пользователю (текст провайдера, правило политики).
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Reason != "":
		return fmt.Sprintf("%s (%s): %v", e.Kind, e.Reason, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Reason != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}
