package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrServiceUnavailable   = errors.New("service unavailable")
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrAlreadyAuthenticated = errors.New("session already authenticated")
	ErrPasswordChangeFailed = errors.New("password could not be changed")
	ErrLoanRequestFailed    = errors.New("loan request could not be submitted")
)

// ValidationError is a rejected input caught before any store call
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is a *ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
