package gbq

import "fmt"

// Kind classifies a GatherBlockQuantized failure.
type Kind int

// Failure kinds.
const (
	KindArity Kind = iota + 1
	KindShapeMismatch
	KindDatatypeMismatch
	KindAttribute
	KindIndexOutOfRange
)

// Sentinels matched by errors.Is against any *Error of the same kind.
var (
	ErrArity            = &Error{Kind: KindArity}
	ErrShapeMismatch    = &Error{Kind: KindShapeMismatch}
	ErrDatatypeMismatch = &Error{Kind: KindDatatypeMismatch}
	ErrAttribute        = &Error{Kind: KindAttribute}
	ErrIndexOutOfRange  = &Error{Kind: KindIndexOutOfRange}
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindArity:
		return "ArityError"
	case KindShapeMismatch:
		return "ShapeMismatch"
	case KindDatatypeMismatch:
		return "DatatypeMismatch"
	case KindAttribute:
		return "AttributeError"
	case KindIndexOutOfRange:
		return "IndexOutOfRange"
	default:
		return "Unknown"
	}
}

// Error is a validation failure. No output is produced when one is returned.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return "GatherBlockQuantized: " + e.Kind.String()
	}
	return fmt.Sprintf("GatherBlockQuantized: %s: %s", e.Kind, e.Msg)
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
