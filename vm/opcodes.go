package vm

import "fmt"

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// Opcode is a single bytecode instruction byte.
type Opcode byte

const (
	OpBipush        Opcode = 0x10 // push sign-extended i8
	OpSipush        Opcode = 0x11 // push sign-extended i16
	OpLdc           Opcode = 0x12 // push constant pool entry (u8 index)
	OpReturn        Opcode = 0xB1 // return void
	OpGetStatic     Opcode = 0xB2 // push static field (u16 index)
	OpInvokeVirtual Opcode = 0xB6 // invoke instance method (u16 index)
)

// OpcodeInfo holds metadata about an opcode.
type OpcodeInfo struct {
	Name       string // mnemonic as printed by javap
	OperandLen int    // number of operand bytes
}

var opcodeTable = map[Opcode]OpcodeInfo{
	OpBipush:        {"bipush", 1},
	OpSipush:        {"sipush", 2},
	OpLdc:           {"ldc", 1},
	OpReturn:        {"return", 0},
	OpGetStatic:     {"getstatic", 2},
	OpInvokeVirtual: {"invokevirtual", 2},
}

// Info returns metadata for an opcode. Unsupported opcodes get a
// placeholder name and no operands.
func (op Opcode) Info() OpcodeInfo {
	if info, ok := opcodeTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("opcode_%02x", byte(op))}
}

// IsSupported reports whether the interpreter can execute op.
func (op Opcode) IsSupported() bool {
	_, ok := opcodeTable[op]
	return ok
}

// OperandLen returns the number of operand bytes following op.
func (op Opcode) OperandLen() int {
	return op.Info().OperandLen
}

// InstructionLen returns the length of the instruction including the
// opcode byte.
func (op Opcode) InstructionLen() int {
	return 1 + op.OperandLen()
}

func (op Opcode) String() string {
	return op.Info().Name
}
