package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownWorkType is returned when an item's type has no processor.
	ErrUnknownWorkType = errors.New("unknown work item type")

	// ErrInvalidPayload is returned when a payload lacks the fields its processor needs.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrMissingQueue is returned when no destination queue is configured.
	ErrMissingQueue = errors.New("queue identifier is not set")

	// ErrSecretUnavailable is returned when the credential store has no usable secret.
	ErrSecretUnavailable = errors.New("secret unavailable")
)

// ItemError ties a per-item failure to the work item it belongs to.
type ItemError struct {
	WorkID int
	Err    error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("work item %d failed: %v", e.WorkID, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// NewItemError wraps err with the id of the failing item.
func NewItemError(workID int, err error) error {
	return &ItemError{WorkID: workID, Err: err}
}

// ItemID extracts the work id from an ItemError anywhere in err's chain.
func ItemID(err error) (int, bool) {
	var itemErr *ItemError
	if errors.As(err, &itemErr) {
		return itemErr.WorkID, true
	}
	return 0, false
}
