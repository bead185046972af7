package lending

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the target transaction id does not exist.
var ErrNotFound = errors.New("lending: transaction not found")

// ErrPublisherUnavailable is returned by the scanner when it was wired
// without a queue publisher, typically because the broker was down at
// process start.
var ErrPublisherUnavailable = errors.New("lending: notification publisher unavailable")

// ValidationError rejects invalid input at the store boundary; nothing
// invalid is ever persisted or silently corrected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("lending: invalid %s: %s", e.Field, e.Reason)
}
