package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNetwork = errors.New("network error")
	ErrRemote  = errors.New("remote error")
	ErrAuth    = errors.New("auth error")
	ErrParam   = errors.New("invalid parameter")
	ErrIO      = errors.New("io error")

	ErrNotLoggedIn     = fmt.Errorf("%w: not logged in", ErrAuth)
	ErrUnsupported     = errors.New("operation not supported")
	ErrAccountNotFound = errors.New("account not found")
	ErrSecretNotFound  = errors.New("secret not found")
)

// RemoteError is a non-zero code carried in an otherwise successful response.
type RemoteError struct {
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error %d: %s", e.Code, e.Message)
}

func (e *RemoteError) Is(target error) bool {
	return target == ErrRemote
}

// NetworkError reports a transport failure that survived every attempt.
type NetworkError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: failed after %d attempt(s): %v", e.Op, e.Attempts, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

func ParamError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrParam, fmt.Sprintf(format, args...))
}
