// Package vm executes method bodies decoded by package classfile.
//
// This package contains:
//   - Opcode metadata for the supported instruction set
//   - Tagged operand values and the operand stack
//   - The dispatch loop and System.out.println resolution
//   - A disassembler for listing method bodies
package vm
