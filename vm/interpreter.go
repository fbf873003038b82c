package vm

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/chazu/classrun/pkg/classfile"
	"github.com/tliron/commonlog"
)

const (
	printStreamClass = "java/io/PrintStream"
	printlnMethod    = "println"
	systemClass      = "java/lang/System"
	outField         = "out"
)

// ---------------------------------------------------------------------------
// Interpreter: Bytecode execution engine
// ---------------------------------------------------------------------------

// Interpreter executes method bodies of one decoded class. The class is
// only read, so several interpreters may share it; each Execute call gets
// a fresh operand stack.
type Interpreter struct {
	class *classfile.ClassFile
	out   io.Writer
	log   commonlog.Logger
	trace bool
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithOutput directs println output to w instead of os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(i *Interpreter) {
		i.out = w
	}
}

// WithLogger sets the logger used for instruction tracing.
func WithLogger(log commonlog.Logger) Option {
	return func(i *Interpreter) {
		i.log = log
	}
}

// WithTrace logs every instruction at debug level before it executes.
func WithTrace(trace bool) Option {
	return func(i *Interpreter) {
		i.trace = trace
	}
}

// New creates an interpreter for cf.
func New(cf *classfile.ClassFile, opts ...Option) *Interpreter {
	i := &Interpreter{class: cf, out: os.Stdout}
	for _, opt := range opts {
		opt(i)
	}
	if i.log == nil {
		i.log = commonlog.GetLogger("classrun.vm")
	}
	return i
}

// Run looks up method by name, decodes its Code attribute and executes it.
// Lookup failures are returned as-is and nothing runs.
func (i *Interpreter) Run(method string) error {
	code, err := i.class.MethodCode(method)
	if err != nil {
		return err
	}
	i.log.Debugf("running %s: max_stack=%d max_locals=%d, %d bytes of code",
		method, code.MaxStack, code.MaxLocals, len(code.Bytecode))
	return i.Execute(code.Bytecode)
}

// Execute runs code from offset 0 until a return instruction. Output from
// println instructions that completed before a failure stays written.
func (i *Interpreter) Execute(code []byte) error {
	stack := &Stack{}
	pool := &i.class.Pool
	var last Opcode

	for pc := 0; pc < len(code); {
		op := Opcode(code[pc])
		last = op
		if !op.IsSupported() {
			return &ExecError{PC: pc, Op: op, Err: ErrUnsupportedOpcode}
		}
		next := pc + op.InstructionLen()
		if next > len(code) {
			return &ExecError{PC: pc, Op: op, Err: fmt.Errorf("%s needs %d operand bytes, %d left: %w",
				op, op.OperandLen(), len(code)-pc-1, ErrTruncatedInstruction)}
		}
		operands := code[pc+1 : next]

		if i.trace {
			i.log.Debugf("%s  stack=%d", formatInstruction(pool, pc, op, operands), stack.Len())
		}

		var err error
		switch op {
		case OpGetStatic:
			err = i.getStatic(stack, binary.BigEndian.Uint16(operands))

		case OpLdc:
			err = i.ldc(stack, uint16(operands[0]))

		case OpInvokeVirtual:
			err = i.invokeVirtual(stack, binary.BigEndian.Uint16(operands))

		case OpBipush:
			stack.Push(ByteValue(int8(operands[0])))

		case OpSipush:
			stack.Push(ShortValue(int16(binary.BigEndian.Uint16(operands))))

		case OpReturn:
			if stack.Len() != 0 {
				return &ExecError{PC: pc, Op: op, Err: fmt.Errorf("%d values left on return: %w",
					stack.Len(), ErrCorruptStack)}
			}
			return nil
		}
		if err != nil {
			return &ExecError{PC: pc, Op: op, Err: err}
		}
		pc = next
	}

	return &ExecError{PC: len(code), Op: last, Err: ErrMissingReturn}
}

// getStatic accepts only System.out and pushes the stream handle.
func (i *Interpreter) getStatic(stack *Stack, index uint16) error {
	ref, err := i.class.Pool.FieldRef(index)
	if err != nil {
		return err
	}
	class, name, err := i.memberNames(index, ref.ClassIndex, ref.NameAndTypeIndex)
	if err != nil {
		return err
	}
	if class != systemClass || name != outField {
		return fmt.Errorf("getstatic %s.%s: %w", class, name, ErrUnsupportedMember)
	}
	stack.Push(Stream)
	return nil
}

func (i *Interpreter) ldc(stack *Stack, index uint16) error {
	pool := &i.class.Pool
	entry, err := pool.Entry(index)
	if err != nil {
		return err
	}

	switch c := entry.(type) {
	case *classfile.String:
		text, err := pool.Utf8(c.StringIndex)
		if err != nil {
			return err
		}
		stack.Push(StringValue(text))
	case *classfile.Integer:
		stack.Push(IntValue(c.Value))
	case *classfile.Float:
		stack.Push(FloatValue(c.Value))
	default:
		return fmt.Errorf("ldc #%d is %s: %w", index, entry.Tag(), ErrInvalidConstantType)
	}
	return nil
}

// invokeVirtual accepts only PrintStream.println. The argument is on top of
// the stack with the stream receiver beneath it.
func (i *Interpreter) invokeVirtual(stack *Stack, index uint16) error {
	ref, err := i.class.Pool.MethodRef(index)
	if err != nil {
		return err
	}
	class, name, err := i.memberNames(index, ref.ClassIndex, ref.NameAndTypeIndex)
	if err != nil {
		return err
	}
	if class != printStreamClass || name != printlnMethod {
		return fmt.Errorf("invokevirtual %s.%s: %w", class, name, ErrUnsupportedMember)
	}

	if stack.Len() < 2 {
		return fmt.Errorf("println needs a receiver and an argument, stack has %d: %w",
			stack.Len(), ErrCorruptStack)
	}
	arg, _ := stack.Pop()
	receiver, _ := stack.Pop()
	if receiver.Kind != KindStream {
		return fmt.Errorf("println receiver is %s: %w", receiver.Kind, ErrTypeMismatch)
	}
	if !arg.Printable() {
		return fmt.Errorf("println argument is %s: %w", arg.Kind, ErrTypeMismatch)
	}

	if _, err := io.WriteString(i.out, arg.String()+"\n"); err != nil {
		return fmt.Errorf("println: %w", err)
	}
	return nil
}

// memberNames resolves the class and member name of the reference at index.
// The descriptor is never consulted.
func (i *Interpreter) memberNames(index, classIndex, natIndex uint16) (class, name string, err error) {
	pool := &i.class.Pool
	if class, err = pool.ClassName(classIndex); err != nil {
		return "", "", fmt.Errorf("class of #%d: %w", index, err)
	}
	if name, err = pool.MemberName(natIndex); err != nil {
		return "", "", fmt.Errorf("name of #%d: %w", index, err)
	}
	return class, name, nil
}
