package usecase

import (
	"tienda/internal/domain/service"

	"github.com/pkg/errors"
)

// NotificationUsecase turns domain events into customer mail.
type NotificationUsecase interface {
	service.EventHandler
}

// RetryableError marks a failure the transport should redeliver.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// Retryable wraps err so IsRetryable reports true for it.
func Retryable(err error) error {
	if err == nil {
		return nil
	}

	return &RetryableError{Err: err}
}

// IsRetryable reports whether any error in err's chain is a RetryableError.
func IsRetryable(err error) bool {
	var target *RetryableError

	return errors.As(err, &target)
}
