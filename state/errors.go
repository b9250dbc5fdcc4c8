package state

import "fmt"

// ErrKind classifies the rule families a row can violate. Every rule is a
// hard assertion: one violation rejects the entire trace.
type ErrKind uint8

const (
	// ErrRange: a field exceeds its declared bit width or value range.
	ErrRange ErrKind = iota + 1
	// ErrOrder: the global lexicographic order is violated between
	// consecutive rows, or a per-target sequencing rule fails.
	ErrOrder
	// ErrConsistency: a read diverges from the last write, or a committed
	// value drifts across same-key rows.
	ErrConsistency
	// ErrCounter: the trie-lookup counter fails to advance correctly.
	ErrCounter
	// ErrLookup: no matching oracle entry exists for a Storage or Account
	// row, or the entry's values mismatch.
	ErrLookup
	// ErrShape: a target-specific must-be-zero field is nonzero, or the row
	// has a shape the target forbids.
	ErrShape
)

func (k ErrKind) String() string {
	switch k {
	case ErrRange:
		return "range"
	case ErrOrder:
		return "order"
	case ErrConsistency:
		return "consistency"
	case ErrCounter:
		return "counter"
	case ErrLookup:
		return "lookup"
	case ErrShape:
		return "shape"
	default:
		return "unknown"
	}
}

// RejectionError reports the first violated rule. Index is the offending
// row's position in the validated sequence, or -1 when the row was checked in
// isolation.
type RejectionError struct {
	Index int
	Tag   Tag
	Kind  ErrKind
	Rule  string
}

func (e *RejectionError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s row rejected (%s): %s", e.Tag, e.Kind, e.Rule)
	}
	return fmt.Sprintf("row %d (%s) rejected (%s): %s", e.Index, e.Tag, e.Kind, e.Rule)
}

func reject(kind ErrKind, tag Tag, format string, args ...any) *RejectionError {
	return &RejectionError{Index: -1, Tag: tag, Kind: kind, Rule: fmt.Sprintf(format, args...)}
}
