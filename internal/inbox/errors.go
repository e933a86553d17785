package inbox

import (
	"errors"
	"fmt"
)

var (
	ErrEmptySelection = errors.New("select at least one user to create a group")
	ErrEmptyName      = errors.New("group name is required")
	ErrNameTooLong    = fmt.Errorf("maximum group name length is %d characters", maxGroupName)
	ErrCreationFailed = errors.New("conversation creation failed")
)

// CreationError is returned when the conversation-creation service rejects a group
type CreationError struct {
	Reason string
	Err    error
}

func (e *CreationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrCreationFailed, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrCreationFailed, e.Reason)
}

func (e *CreationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrCreationFailed, e.Err}
	}
	return []error{ErrCreationFailed}
}

// IsValidation reports whether err was produced before any network call
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptySelection) ||
		errors.Is(err, ErrEmptyName) ||
		errors.Is(err, ErrNameTooLong)
}
