package classfile

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Decode Error Types
// ---------------------------------------------------------------------------

var (
	ErrUnexpectedEOF       = errors.New("unexpected end of class data")
	ErrMalformedClass      = errors.New("malformed class file")
	ErrUnsupportedConstant = errors.New("unsupported constant kind")
	ErrInterfacesPresent   = errors.New("interfaces are not supported")
	ErrFieldsPresent       = errors.New("fields are not supported")
	ErrBadIndex            = errors.New("invalid constant pool index")
	ErrWrongKind           = errors.New("unexpected constant kind")
	ErrMethodNotFound      = errors.New("method not found")
	ErrCodeNotFound        = errors.New("code attribute not found")
	ErrTooLarge            = errors.New("value exceeds class file limits")
)

// Decode phases reported by DecodeError.
const (
	PhaseHeader     = "header"
	PhasePool       = "constant pool"
	PhaseClassInfo  = "class info"
	PhaseInterfaces = "interfaces"
	PhaseFields     = "fields"
	PhaseMethods    = "methods"
	PhaseAttributes = "attributes"
	PhaseCode       = "code"
)

// DecodeError reports a failure while decoding a class file or one of its
// attributes. Every DecodeError matches ErrMalformedClass; the underlying
// cause stays reachable through errors.Is and errors.As.
type DecodeError struct {
	Phase  string
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s at offset %d: %v", e.Phase, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is reports ErrMalformedClass for every decode failure.
func (e *DecodeError) Is(target error) bool {
	return target == ErrMalformedClass
}

func decodeErr(phase string, r *Reader, err error) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}
	return &DecodeError{Phase: phase, Offset: r.Pos(), Err: err}
}
