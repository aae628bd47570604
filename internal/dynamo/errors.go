package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors shared by the replay store and the simulator.
var (
	// ErrAllocation indicates backing storage could not be obtained.
	ErrAllocation = errors.New("dynamo: storage allocation failed")

	// ErrShapeMismatch indicates a record whose width differs from the store's.
	ErrShapeMismatch = errors.New("dynamo: record shape mismatch")

	// ErrEmptyBuffer indicates a read from a store holding no records.
	ErrEmptyBuffer = errors.New("dynamo: buffer is empty")

	// ErrInvalidArgument indicates an argument outside its valid domain.
	ErrInvalidArgument = errors.New("dynamo: invalid argument")
)

// OpError wraps a domain error with the operation that produced it.
type OpError struct {
	Op     string
	Detail string
	Err    error
}

func (e *OpError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Err, e.Detail)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Errorf builds an OpError with a formatted detail message.
func Errorf(op string, err error, format string, args ...any) *OpError {
	return &OpError{Op: op, Err: err, Detail: fmt.Sprintf(format, args...)}
}
