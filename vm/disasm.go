package vm

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/classrun/pkg/classfile"
)

// ---------------------------------------------------------------------------
// Disassembler
// ---------------------------------------------------------------------------

// Disassemble lists code one instruction per line, resolving pool
// references against cf. The listing stops at the first unsupported or
// truncated instruction.
func Disassemble(cf *classfile.ClassFile, code []byte) string {
	var sb strings.Builder
	pool := &cf.Pool
	for pc := 0; pc < len(code); {
		op := Opcode(code[pc])
		if !op.IsSupported() {
			fmt.Fprintf(&sb, "%04X  %s  <unsupported>\n", pc, op)
			break
		}
		next := pc + op.InstructionLen()
		if next > len(code) {
			fmt.Fprintf(&sb, "%04X  %s  <truncated>\n", pc, op)
			break
		}
		sb.WriteString(formatInstruction(pool, pc, op, code[pc+1:next]))
		sb.WriteByte('\n')
		pc = next
	}
	return sb.String()
}

func formatInstruction(pool *classfile.ConstantPool, pc int, op Opcode, operands []byte) string {
	switch op {
	case OpBipush:
		return fmt.Sprintf("%04X  %s %d", pc, op, int8(operands[0]))
	case OpSipush:
		return fmt.Sprintf("%04X  %s %d", pc, op, int16(binary.BigEndian.Uint16(operands)))
	case OpLdc:
		index := uint16(operands[0])
		return fmt.Sprintf("%04X  %s #%d  // %s", pc, op, index, describeConstant(pool, index))
	case OpGetStatic, OpInvokeVirtual:
		index := binary.BigEndian.Uint16(operands)
		desc := "<unresolved>"
		if m, err := pool.MemberRef(index); err == nil {
			desc = m.String()
		}
		return fmt.Sprintf("%04X  %s #%d  // %s", pc, op, index, desc)
	default:
		return fmt.Sprintf("%04X  %s", pc, op)
	}
}

func describeConstant(pool *classfile.ConstantPool, index uint16) string {
	entry, err := pool.Entry(index)
	if err != nil {
		return "<unresolved>"
	}
	switch c := entry.(type) {
	case *classfile.String:
		text, err := pool.Utf8(c.StringIndex)
		if err != nil {
			return "String <unresolved>"
		}
		return "String " + strconv.Quote(text)
	case *classfile.Integer:
		return "int " + strconv.Itoa(int(c.Value))
	case *classfile.Float:
		return "float " + formatFloat(c.Value)
	default:
		return entry.Tag().String()
	}
}

// DisassembleClass lists every method of cf, separated by blank lines.
// Methods without a Code attribute get a header line only.
func DisassembleClass(cf *classfile.ClassFile) string {
	var sb strings.Builder
	for i := range cf.Methods {
		m := &cf.Methods[i]
		if i > 0 {
			sb.WriteByte('\n')
		}
		name, _ := m.Name(&cf.Pool)
		desc, _ := m.Descriptor(&cf.Pool)
		flags := strings.Join(classfile.MethodFlagNames(m.AccessFlags), " ")
		if flags != "" {
			flags += " "
		}

		attr, ok := cf.FindAttributeByName(m.Attributes, classfile.AttrCode)
		if !ok {
			fmt.Fprintf(&sb, "%s%s %s  <no code>\n", flags, name, desc)
			continue
		}
		code, err := classfile.DecodeCode(attr)
		if err != nil {
			fmt.Fprintf(&sb, "%s%s %s  <%v>\n", flags, name, desc, err)
			continue
		}
		fmt.Fprintf(&sb, "%s%s %s  stack=%d locals=%d\n", flags, name, desc, code.MaxStack, code.MaxLocals)
		sb.WriteString(Disassemble(cf, code.Bytecode))
	}
	return sb.String()
}
