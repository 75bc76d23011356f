package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrNoAdapter is returned when no adapter serves a model's provider.
var ErrNoAdapter = errors.New("no adapter for provider")

// AdapterError wraps provider errors with status metadata.
type AdapterError struct {
	Provider  string
	Status    int
	Temporary bool
	Err       error
}

func (e *AdapterError) Error() string {
	if e == nil {
		return "adapter error"
	}
	if e.Err != nil {
		if e.Provider != "" {
			return fmt.Sprintf("%s: %v", e.Provider, e.Err)
		}
		return e.Err.Error()
	}
	return fmt.Sprintf("%s adapter error (status=%d)", e.Provider, e.Status)
}

func (e *AdapterError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func statusError(provider string, status int, body string) *AdapterError {
	return &AdapterError{
		Provider:  provider,
		Status:    status,
		Temporary: status == http.StatusTooManyRequests || status >= 500,
		Err:       fmt.Errorf("returned status %d: %s", status, body),
	}
}

// IsTransient reports whether an error is likely to clear on its own.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var adapterErr *AdapterError
	if errors.As(err, &adapterErr) {
		if adapterErr.Temporary {
			return true
		}
		if adapterErr.Status == 429 || (adapterErr.Status >= 500 && adapterErr.Status <= 599) {
			return true
		}
	}
	return false
}
