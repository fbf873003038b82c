package vm

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Execution Error Types
// ---------------------------------------------------------------------------

var (
	ErrUnsupportedOpcode    = errors.New("unsupported opcode")
	ErrUnsupportedMember    = errors.New("unsupported member reference")
	ErrInvalidConstantType  = errors.New("constant kind cannot be loaded")
	ErrTypeMismatch         = errors.New("operand type mismatch")
	ErrCorruptStack         = errors.New("corrupt operand stack")
	ErrMissingReturn        = errors.New("code ended without return")
	ErrTruncatedInstruction = errors.New("instruction operands run past end of code")
)

// ExecError reports the instruction at which execution stopped.
type ExecError struct {
	PC  int
	Op  Opcode
	Err error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%04X %s: %v", e.PC, e.Op, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}
