package serror

import "fmt"

// StrideError is the error type for engine invariant violations.
type StrideError struct {
	Err string
}

func New(format string, args ...interface{}) *StrideError {
	return &StrideError{Err: fmt.Sprintf(format, args...)}
}

func (e *StrideError) Error() string {
	return e.Err
}
