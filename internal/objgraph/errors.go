package objgraph

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors for structural problems in the object graph.
var (
	ErrDangling = errors.New("objgraph: dangling reference")
	ErrType     = errors.New("objgraph: unexpected object type")
)

// OpError records the operation that failed together with the cause.
type OpError struct {
	Op  string // operation name, e.g. "delete page"
	Err error  // underlying error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: unknown error", e.Op)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Fail wraps err with the name of the operation that produced it.
func Fail(op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Err: err}
}
