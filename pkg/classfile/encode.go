package classfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// ---------------------------------------------------------------------------
// Encoder: serializes a ClassFile back to the binary layout
// ---------------------------------------------------------------------------

type writer struct {
	buf bytes.Buffer
	err error
}

func (w *writer) u8(v uint8) { w.buf.WriteByte(v) }

func (w *writer) u16(v uint16) {
	w.buf.Write(binary.BigEndian.AppendUint16(nil, v))
}

func (w *writer) u32(v uint32) {
	w.buf.Write(binary.BigEndian.AppendUint32(nil, v))
}

func (w *writer) count16(n int, what string) {
	if n > math.MaxUint16 {
		w.fail(fmt.Errorf("%s count %d: %w", what, n, ErrTooLarge))
		return
	}
	w.u16(uint16(n))
}

func (w *writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *writer) constant(c Constant) {
	w.u8(uint8(c.Tag()))
	switch v := c.(type) {
	case *Utf8:
		if len(v.Value) > math.MaxUint16 {
			w.fail(fmt.Errorf("utf8 length %d: %w", len(v.Value), ErrTooLarge))
			return
		}
		w.u16(uint16(len(v.Value)))
		w.buf.WriteString(v.Value)
	case *Integer:
		w.u32(uint32(v.Value))
	case *Float:
		w.u32(math.Float32bits(v.Value))
	case *Class:
		w.u16(v.NameIndex)
	case *String:
		w.u16(v.StringIndex)
	case *FieldRef:
		w.u16(v.ClassIndex)
		w.u16(v.NameAndTypeIndex)
	case *MethodRef:
		w.u16(v.ClassIndex)
		w.u16(v.NameAndTypeIndex)
	case *InterfaceMethodRef:
		w.u16(v.ClassIndex)
		w.u16(v.NameAndTypeIndex)
	case *NameAndType:
		w.u16(v.NameIndex)
		w.u16(v.DescriptorIndex)
	}
}

func (w *writer) attributes(attrs []Attribute) {
	w.count16(len(attrs), "attributes")
	for _, a := range attrs {
		w.u16(a.NameIndex)
		w.u32(uint32(len(a.Info)))
		w.buf.Write(a.Info)
	}
}

// Encode serializes cf in the class file layout accepted by Decode.
func Encode(cf *ClassFile) ([]byte, error) {
	w := &writer{}
	w.u32(cf.Magic)
	w.u16(cf.Minor)
	w.u16(cf.Major)

	w.count16(len(cf.Pool.Entries)+1, "constant pool")
	for _, c := range cf.Pool.Entries {
		w.constant(c)
	}

	w.u16(uint16(cf.AccessFlags))
	w.u16(cf.ThisClass)
	w.u16(cf.SuperClass)
	w.u16(0) // interfaces
	w.u16(0) // fields

	w.count16(len(cf.Methods), "methods")
	for _, m := range cf.Methods {
		w.u16(uint16(m.AccessFlags))
		w.u16(m.NameIndex)
		w.u16(m.DescriptorIndex)
		w.attributes(m.Attributes)
	}

	w.attributes(cf.Attributes)

	if w.err != nil {
		return nil, w.err
	}
	return w.buf.Bytes(), nil
}

// EncodeCode serializes a method body as a Code attribute payload.
func EncodeCode(c *Code) ([]byte, error) {
	w := &writer{}
	w.u16(c.MaxStack)
	w.u16(c.MaxLocals)
	w.u32(uint32(len(c.Bytecode)))
	w.buf.Write(c.Bytecode)
	w.count16(len(c.ExceptionTable), "exception table bytes")
	w.buf.Write(c.ExceptionTable)
	w.attributes(c.Attributes)
	if w.err != nil {
		return nil, w.err
	}
	return w.buf.Bytes(), nil
}

// ---------------------------------------------------------------------------
// Builder: assembles a ClassFile with a deduplicated constant pool
// ---------------------------------------------------------------------------

// Default header values used by NewBuilder.
const (
	Magic        uint32 = 0xCAFEBABE
	DefaultMajor uint16 = 52
)

// Builder assembles a ClassFile. Pool helpers return the 1-based index of
// an existing equal entry when there is one.
type Builder struct {
	cf    ClassFile
	index map[string]uint16
	err   error
}

// NewBuilder starts a public class with the given internal names. An empty
// superName leaves super_class at 0.
func NewBuilder(className, superName string) *Builder {
	b := &Builder{index: make(map[string]uint16)}
	b.cf.Magic = Magic
	b.cf.Major = DefaultMajor
	b.cf.AccessFlags = AccPublic | AccSuper
	b.cf.ThisClass = b.Class(className)
	if superName != "" {
		b.cf.SuperClass = b.Class(superName)
	}
	return b
}

// Append adds c to the pool without deduplication and returns its index.
func (b *Builder) Append(c Constant) uint16 {
	if len(b.cf.Pool.Entries)+1 >= math.MaxUint16 {
		if b.err == nil {
			b.err = fmt.Errorf("constant pool: %w", ErrTooLarge)
		}
		return 0
	}
	b.cf.Pool.Entries = append(b.cf.Pool.Entries, c)
	return uint16(len(b.cf.Pool.Entries))
}

func (b *Builder) intern(key string, newConst func() Constant) uint16 {
	if idx, ok := b.index[key]; ok {
		return idx
	}
	idx := b.Append(newConst())
	if idx != 0 {
		b.index[key] = idx
	}
	return idx
}

// Utf8 interns a Utf8 entry.
func (b *Builder) Utf8(s string) uint16 {
	return b.intern("u:"+s, func() Constant { return &Utf8{Value: s} })
}

// Integer interns an Integer entry.
func (b *Builder) Integer(v int32) uint16 {
	return b.intern(fmt.Sprintf("i:%d", v), func() Constant { return &Integer{Value: v} })
}

// Float interns a Float entry, keyed by its bit pattern.
func (b *Builder) Float(v float32) uint16 {
	return b.intern(fmt.Sprintf("f:%08x", math.Float32bits(v)), func() Constant { return &Float{Value: v} })
}

// Class interns a Class entry and its name.
func (b *Builder) Class(name string) uint16 {
	nameIndex := b.Utf8(name)
	return b.intern(fmt.Sprintf("c:%d", nameIndex), func() Constant { return &Class{NameIndex: nameIndex} })
}

// String interns a String entry and its text.
func (b *Builder) String(s string) uint16 {
	textIndex := b.Utf8(s)
	return b.intern(fmt.Sprintf("s:%d", textIndex), func() Constant { return &String{StringIndex: textIndex} })
}

// NameAndType interns a NameAndType entry.
func (b *Builder) NameAndType(name, desc string) uint16 {
	n, d := b.Utf8(name), b.Utf8(desc)
	return b.intern(fmt.Sprintf("nt:%d:%d", n, d), func() Constant {
		return &NameAndType{NameIndex: n, DescriptorIndex: d}
	})
}

// FieldRef interns a Fieldref entry.
func (b *Builder) FieldRef(class, name, desc string) uint16 {
	c, nt := b.Class(class), b.NameAndType(name, desc)
	return b.intern(fmt.Sprintf("fr:%d:%d", c, nt), func() Constant {
		return &FieldRef{ClassIndex: c, NameAndTypeIndex: nt}
	})
}

// MethodRef interns a Methodref entry.
func (b *Builder) MethodRef(class, name, desc string) uint16 {
	c, nt := b.Class(class), b.NameAndType(name, desc)
	return b.intern(fmt.Sprintf("mr:%d:%d", c, nt), func() Constant {
		return &MethodRef{ClassIndex: c, NameAndTypeIndex: nt}
	})
}

// AddMethod appends a method. A nil code adds a method without a Code
// attribute.
func (b *Builder) AddMethod(flags AccessFlags, name, desc string, code *Code) {
	m := Method{
		AccessFlags:     flags,
		NameIndex:       b.Utf8(name),
		DescriptorIndex: b.Utf8(desc),
	}
	if code != nil {
		info, err := EncodeCode(code)
		if err != nil && b.err == nil {
			b.err = fmt.Errorf("method %s: %w", name, err)
		}
		m.Attributes = append(m.Attributes, Attribute{NameIndex: b.Utf8(AttrCode), Info: info})
	}
	b.cf.Methods = append(b.cf.Methods, m)
}

// AddAttribute appends a class-level attribute.
func (b *Builder) AddAttribute(name string, info []byte) {
	b.cf.Attributes = append(b.cf.Attributes, Attribute{NameIndex: b.Utf8(name), Info: info})
}

// Build returns the assembled ClassFile.
func (b *Builder) Build() (*ClassFile, error) {
	if b.err != nil {
		return nil, b.err
	}
	cf := b.cf
	return &cf, nil
}

// Bytes builds and encodes the class.
func (b *Builder) Bytes() ([]byte, error) {
	cf, err := b.Build()
	if err != nil {
		return nil, err
	}
	return Encode(cf)
}
