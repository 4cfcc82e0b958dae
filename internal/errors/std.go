package errors

import "errors"

// Is and As forward to the standard library so callers need a single import.
func Is(err, target error) bool { return errors.Is(err, target) }

// As forwards to errors.As.
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Join forwards to errors.Join.
func Join(errs ...error) error { return errors.Join(errs...) }
