package reconcile

import (
	"errors"
	"fmt"
)

// Sentinel errors for the reconciliation outcomes. All are terminal for
// the current request; nothing here is retried. Callers branch with
// errors.Is and translate into user-facing messages themselves.
var (
	// ErrNoMatchingTransfer: no open transfer matches the payer and
	// amount in the searched scope.
	ErrNoMatchingTransfer = errors.New("no matching transfer")

	// ErrReceiverNotConfigured: the expected receiver never registered
	// a real name, so identity cannot be confirmed. Distinct from a
	// failed match.
	ErrReceiverNotConfigured = errors.New("receiver has no registered real name")

	// ErrReceiverMismatch: the slip's receiver name fields do not match
	// the registered real name.
	ErrReceiverMismatch = errors.New("receiver name mismatch")

	// ErrDuplicatePayment: the slip's transaction reference already
	// backs a verified settlement.
	ErrDuplicatePayment = errors.New("slip already used for a verified settlement")
)

// NoMatchError reports what was searched when no transfer matched.
type NoMatchError struct {
	Payer  string
	Amount float64
	Months []string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no transfer of %.2f from %s in months %v", e.Amount, e.Payer, e.Months)
}

func (e *NoMatchError) Unwrap() error { return ErrNoMatchingTransfer }

// MismatchError carries the normalized strings that failed to match, so
// a mismatch can be diagnosed without re-running the comparison.
type MismatchError struct {
	Receiver             string
	NormalizedRegistered string
	NormalizedSlip       string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("receiver %s: registered %q does not match slip %q",
		e.Receiver, e.NormalizedRegistered, e.NormalizedSlip)
}

func (e *MismatchError) Unwrap() error { return ErrReceiverMismatch }
