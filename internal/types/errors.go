package types

import "fmt"

// MalformedContainerError indicates the input bytes cannot be parsed as a
// valid instance of the declared format. Fatal: no partial output is produced.
type MalformedContainerError struct {
	Format  Format
	Message string
	Cause   error
}

func (e *MalformedContainerError) Error() string {
	prefix := "malformed container"
	if e.Format != "" {
		prefix = fmt.Sprintf("malformed %s container", e.Format)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *MalformedContainerError) Unwrap() error {
	return e.Cause
}

// AnchorConflictError indicates two replacements target overlapping structural
// regions. This is an internal consistency defect, not bad input.
type AnchorConflictError struct {
	BlockA string
	BlockB string
}

func (e *AnchorConflictError) Error() string {
	return fmt.Sprintf("anchor conflict: blocks %s and %s reference overlapping regions", e.BlockA, e.BlockB)
}

// UnsupportedStructureError indicates a block's anchor can no longer be
// located in the container, or the container uses a structure the injector
// cannot rewrite safely.
type UnsupportedStructureError struct {
	BlockID string
	Message string
}

func (e *UnsupportedStructureError) Error() string {
	if e.BlockID != "" {
		return fmt.Sprintf("unsupported structure: block %s: %s", e.BlockID, e.Message)
	}
	return fmt.Sprintf("unsupported structure: %s", e.Message)
}

// ServiceError represents a failure of the external rewrite service. The
// orchestrator recovers from these locally; they never fail a session.
type ServiceError struct {
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("rewrite service error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("rewrite service error: %s", e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}
