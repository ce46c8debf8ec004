package engine

import (
	"errors"
	"fmt"
)

// DefaultMaxChain is the default maximum number of events in one tick's
// branch chain.
const DefaultMaxChain = 1000

// ChainQuota counts the events applied in one tick's branch chain.
//
// Event data is expected to be acyclic, so a valid chain ends long before
// the limit. The quota turns a looping chain into an error instead of a hang.
// Each tick gets a fresh quota.
type ChainQuota struct {
	max     int // Maximum events per chain
	current int // Events applied so far
}

// NewChainQuota creates a quota with the given limit.
func NewChainQuota(max int) *ChainQuota {
	return &ChainQuota{max: max}
}

// Check counts one more event and validates against the limit.
func (q *ChainQuota) Check(age, eventID int) error {
	q.current++
	if q.current > q.max {
		return &ChainExceededError{Age: age, EventID: eventID, Steps: q.current, Limit: q.max}
	}
	return nil
}

// Current returns the number of events counted.
func (q *ChainQuota) Current() int {
	return q.current
}

// ChainExceededError is returned when a tick's chain exceeds the quota.
// The run stops; its ticks so far remain valid.
type ChainExceededError struct {
	Age     int // Age of the tick
	EventID int // Event that would have exceeded the quota
	Steps   int // Number of events attempted
	Limit   int // Maximum allowed events
}

// Error implements the error interface.
func (e *ChainExceededError) Error() string {
	return fmt.Sprintf("branch chain at age %d exceeded quota at event %d: %d events > %d limit",
		e.Age, e.EventID, e.Steps, e.Limit)
}

// IsChainExceededError returns true if the error is a ChainExceededError.
func IsChainExceededError(err error) bool {
	var ce *ChainExceededError
	return errors.As(err, &ce)
}
