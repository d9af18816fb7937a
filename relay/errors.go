package relay

import (
	"errors"
	"fmt"
)

var (
	ErrBrokenChain   = errors.New("forward chain broken")
	ErrCycleDetected = errors.New("forward chain cycle")
	ErrUnknownNode   = errors.New("unknown node")
	ErrUnknownModule = errors.New("unknown module")
	ErrOutOfRange    = errors.New("out of transmission range")
)

// OutOfRangeError rejects an explicit transmit attempt beyond the
// module's maximum transmit distance. It is a recoverable, per-action
// rejection intended to be surfaced to the user, not a fatal error.
type OutOfRangeError struct {
	ModuleID    string
	Distance    float64
	MaxDistance float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("module %q cannot transmit: distance %.0f m exceeds maximum %.0f m",
		e.ModuleID, e.Distance, e.MaxDistance)
}

// Is lets callers match the rejection with errors.Is(err, ErrOutOfRange).
func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

// DiagnosticKind labels a recorded resolution diagnostic.
type DiagnosticKind string

const (
	DiagBrokenChain DiagnosticKind = "broken_chain"
	DiagCycle       DiagnosticKind = "cycle"
	DiagUnknownNode DiagnosticKind = "unknown_node"
)

// Diagnostic records a locally-recovered resolution failure. The affected
// module degrades to StatusNone; resolution of unrelated modules proceeds.
type Diagnostic struct {
	ModuleID string
	Kind     DiagnosticKind
	Detail   string
}
