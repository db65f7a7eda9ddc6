package engine

import (
	"errors"
	"fmt"
)

// Kind classifies why a configuration cannot be priced.
type Kind int

const (
	UnknownModel Kind = iota + 1
	BelowMinimum
	WidthOutOfRange
	ProjectionUnsupported
	MechanicalConflict
)

func (k Kind) String() string {
	switch k {
	case UnknownModel:
		return "unknown_model"
	case BelowMinimum:
		return "below_minimum"
	case WidthOutOfRange:
		return "width_out_of_range"
	case ProjectionUnsupported:
		return "projection_unsupported"
	case MechanicalConflict:
		return "mechanical_conflict"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Recoverable reports whether trying another model or other dimensions
// can succeed. An unknown model is a caller error.
func (k Kind) Recoverable() bool {
	return k != UnknownModel
}

// Failure is an expected pricing outcome, not a fault. Detail is meant
// for the end user and is passed through unchanged for MechanicalConflict.
type Failure struct {
	Kind    Kind
	ModelID string
	Detail  string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Detail)
}

func fail(kind Kind, modelID, format string, args ...any) *Failure {
	return &Failure{Kind: kind, ModelID: modelID, Detail: fmt.Sprintf(format, args...)}
}

// AsFailure extracts a *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// IsKind reports whether err is a Failure of the given kind.
func IsKind(err error, kind Kind) bool {
	f, ok := AsFailure(err)
	return ok && f.Kind == kind
}
