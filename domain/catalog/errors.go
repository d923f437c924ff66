package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrCategoryNotFound indicates the category does not exist.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrProductNotFound indicates the product does not exist.
	ErrProductNotFound = errors.New("product not found")
	// ErrDuplicateName indicates another category already uses the name.
	ErrDuplicateName = errors.New("category name already exists")
	// ErrDuplicateSKU indicates another product already uses the SKU.
	ErrDuplicateSKU = errors.New("product SKU already exists")
	// ErrCategoryInUse indicates the category is still referenced by products.
	ErrCategoryInUse = errors.New("category is referenced by existing products")
)

// ValidationError reports malformed input. It is surfaced synchronously to
// the caller and never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConflict reports whether err is a uniqueness or referential conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateName) ||
		errors.Is(err, ErrDuplicateSKU) ||
		errors.Is(err, ErrCategoryInUse)
}

// IsNotFound reports whether err is a missing-entity error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCategoryNotFound) || errors.Is(err, ErrProductNotFound)
}
