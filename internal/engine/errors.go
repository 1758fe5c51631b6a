package engine

import (
	"errors"
	"fmt"

	"github.com/vthunder/dayplan/internal/store"
)

// ErrNotFound reports an unknown instance or template id
var ErrNotFound = store.ErrNotFound

// ValidationError marks input rejected at the boundary, before any state was
// touched. Handlers map it to a 400 response.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationf(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
