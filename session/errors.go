package session

import (
	"errors"
	"fmt"
)

// Reasons reported inside a ValidationError. They are stable identifiers that
// presenters can match on to attach an error to the field that failed.
const (
	ReasonInvalidAddress = "invalid_address"
	ReasonInvalidAmount  = "invalid_amount"
)

// ErrSessionActive is returned by Start when a session is already underway.
var ErrSessionActive = errors.New("session already active")

// ErrNotResettable is returned by Reset when the session is not in a terminal
// state.
var ErrNotResettable = errors.New("session is not in a terminal state")

// ValidationError is returned by Start when an input is rejected before any
// side effect takes place. Field is the input that failed, "destination" or
// "amount".
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validating %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NetworkError wraps a transient failure querying the ledger. The poll loop
// retries on the next tick, so a NetworkError is advisory and never changes
// the session state.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("checking balance: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// TransferError wraps a failure submitting or confirming the forward
// transaction. The session reverts to waiting and the next poll that still
// meets the threshold re-attempts the forward.
type TransferError struct {
	Err error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("forwarding funds: %v", e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}
