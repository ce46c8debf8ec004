package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors for misuse of a run.
var (
	// ErrRunConsumed is yielded by Progress when the run was already
	// iterated or ended.
	ErrRunConsumed = errors.New("run already consumed; create a new engine")

	// ErrRunEnded is returned by End when called twice.
	ErrRunEnded = errors.New("run already ended")
)

// RuntimeError represents a data-contract violation detected mid-run.
//
// Runtime errors include:
//   - No eligible event: the age has no entry that can be drawn
//   - Unknown event: an age entry or branch names a missing event
//   - Chain exceeded: a single tick followed too many branches; Err is the
//     quota's *ChainExceededError
//   - Condition failed: a condition could not be resolved against the Env
//   - Unknown talent or incompatible talents: a character names a missing
//     talent or a pair that may not be active together
//
// Validated tables never produce the first, second or fourth kind.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Age is the run age when the error occurred.
	Age int

	// EventID identifies the event involved, when there is one.
	EventID int

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeNoEligibleEvent indicates an empty candidate set for the age.
	ErrCodeNoEligibleEvent RuntimeErrorCode = "NO_ELIGIBLE_EVENT"

	// ErrCodeUnknownEvent indicates a reference to a missing event id.
	ErrCodeUnknownEvent RuntimeErrorCode = "UNKNOWN_EVENT"

	// ErrCodeChainExceeded indicates a branch chain over the quota.
	ErrCodeChainExceeded RuntimeErrorCode = "CHAIN_EXCEEDED"

	// ErrCodeConditionFailed indicates a condition evaluation error.
	ErrCodeConditionFailed RuntimeErrorCode = "CONDITION_FAILED"

	// ErrCodeUnknownTalent indicates a selection names a missing talent.
	ErrCodeUnknownTalent RuntimeErrorCode = "UNKNOWN_TALENT"

	// ErrCodeIncompatibleTalents indicates a selection holding two talents
	// that exclude each other.
	ErrCodeIncompatibleTalents RuntimeErrorCode = "INCOMPATIBLE_TALENTS"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s (age=%d", e.Code, e.Message, e.Age)
	if e.EventID != 0 {
		msg += fmt.Sprintf(", event=%d", e.EventID)
	}
	msg += ")"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error { return e.Err }

// IsNoEligibleEvent returns true if the error is an empty-candidate error.
// Uses errors.As to handle wrapped errors.
func IsNoEligibleEvent(err error) bool {
	return hasCode(err, ErrCodeNoEligibleEvent)
}

// IsChainError returns true if the error is a chain quota error, either the
// RuntimeError the engine yields or a bare ChainExceededError.
func IsChainError(err error) bool {
	if hasCode(err, ErrCodeChainExceeded) {
		return true
	}
	var ce *ChainExceededError
	return errors.As(err, &ce)
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

func conditionError(age, eventID int, what string, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeConditionFailed,
		Message: what,
		Age:     age,
		EventID: eventID,
		Err:     err,
	}
}
