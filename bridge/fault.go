package bridge

import (
	"context"
	"errors"
	"fmt"
)

// FaultKind classifies a normalized failure reported in a terminal event.
type FaultKind string

const (
	FaultValidation      FaultKind = "validation_error"
	FaultHostUnreachable FaultKind = "host_unreachable"
	FaultHostError       FaultKind = "host_error"
	FaultTimeout         FaultKind = "timeout"
	FaultCancelled       FaultKind = "cancelled"
)

// Fault is the only error shape that crosses the bridge boundary; raw
// internal errors never do.
type Fault struct {
	Kind   FaultKind `json:"fault"`
	Detail string    `json:"detail,omitempty"`
}

func (f *Fault) Error() string {
	if f.Detail == "" {
		return string(f.Kind)
	}
	return string(f.Kind) + ": " + f.Detail
}

// NewFault creates a fault with a formatted detail message.
func NewFault(kind FaultKind, format string, args ...interface{}) *Fault {
	return &Fault{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// AsFault extracts a Fault from err. Errors that carry no classification are
// normalized into a host_error fault with a generic detail so that internal
// failure text never leaks to the caller.
func AsFault(err error) *Fault {
	if err == nil {
		return nil
	}
	var fault *Fault
	if errors.As(err, &fault) {
		return fault
	}
	if errors.Is(err, context.Canceled) {
		return &Fault{Kind: FaultCancelled, Detail: "invocation cancelled"}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Fault{Kind: FaultTimeout, Detail: "invocation deadline exceeded"}
	}
	return &Fault{Kind: FaultHostError, Detail: "internal error"}
}
