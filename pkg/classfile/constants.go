package classfile

import "fmt"

// Tag identifies the kind of a constant pool entry.
type Tag uint8

const (
	TagUtf8               Tag = 1
	TagInteger            Tag = 3
	TagFloat              Tag = 4
	TagLong               Tag = 5
	TagDouble             Tag = 6
	TagClass              Tag = 7
	TagString             Tag = 8
	TagFieldRef           Tag = 9
	TagMethodRef          Tag = 10
	TagInterfaceMethodRef Tag = 11
	TagNameAndType        Tag = 12
	TagMethodHandle       Tag = 15
	TagMethodType         Tag = 16
	TagInvokeDynamic      Tag = 18
)

var tagNames = map[Tag]string{
	TagUtf8:               "Utf8",
	TagInteger:            "Integer",
	TagFloat:              "Float",
	TagLong:               "Long",
	TagDouble:             "Double",
	TagClass:              "Class",
	TagString:             "String",
	TagFieldRef:           "Fieldref",
	TagMethodRef:          "Methodref",
	TagInterfaceMethodRef: "InterfaceMethodref",
	TagNameAndType:        "NameAndType",
	TagMethodHandle:       "MethodHandle",
	TagMethodType:         "MethodType",
	TagInvokeDynamic:      "InvokeDynamic",
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tag(%d)", uint8(t))
}

// ---------------------------------------------------------------------------
// Constant: closed set of decoded pool entries
// ---------------------------------------------------------------------------

// Constant is one decoded constant pool entry. The set of implementations
// is closed to this package.
type Constant interface {
	Tag() Tag
	constant()
}

// Utf8 is a CONSTANT_Utf8 entry.
type Utf8 struct {
	Value string
}

// Integer is a CONSTANT_Integer entry.
type Integer struct {
	Value int32
}

// Float is a CONSTANT_Float entry.
type Float struct {
	Value float32
}

// Class is a CONSTANT_Class entry.
type Class struct {
	NameIndex uint16
}

// String is a CONSTANT_String entry.
type String struct {
	StringIndex uint16
}

// FieldRef is a CONSTANT_Fieldref entry.
type FieldRef struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

// MethodRef is a CONSTANT_Methodref entry.
type MethodRef struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

// InterfaceMethodRef is a CONSTANT_InterfaceMethodref entry.
type InterfaceMethodRef struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

// NameAndType is a CONSTANT_NameAndType entry.
type NameAndType struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

func (*Utf8) Tag() Tag               { return TagUtf8 }
func (*Integer) Tag() Tag            { return TagInteger }
func (*Float) Tag() Tag              { return TagFloat }
func (*Class) Tag() Tag              { return TagClass }
func (*String) Tag() Tag             { return TagString }
func (*FieldRef) Tag() Tag           { return TagFieldRef }
func (*MethodRef) Tag() Tag          { return TagMethodRef }
func (*InterfaceMethodRef) Tag() Tag { return TagInterfaceMethodRef }
func (*NameAndType) Tag() Tag        { return TagNameAndType }

func (*Utf8) constant()               {}
func (*Integer) constant()            {}
func (*Float) constant()              {}
func (*Class) constant()              {}
func (*String) constant()             {}
func (*FieldRef) constant()           {}
func (*MethodRef) constant()          {}
func (*InterfaceMethodRef) constant() {}
func (*NameAndType) constant()        {}

// ---------------------------------------------------------------------------
// ConstantPool: 1-based indexed lookups
// ---------------------------------------------------------------------------

// ConstantPool holds the decoded entries. Index i refers to Entries[i-1];
// index 0 is never valid.
type ConstantPool struct {
	Entries []Constant
}

// Len returns the number of materialized entries.
func (p *ConstantPool) Len() int {
	return len(p.Entries)
}

// Entry returns the constant at the 1-based index.
func (p *ConstantPool) Entry(index uint16) (Constant, error) {
	if index == 0 || int(index) > len(p.Entries) {
		return nil, fmt.Errorf("#%d (pool size %d): %w", index, len(p.Entries), ErrBadIndex)
	}
	return p.Entries[index-1], nil
}

func wrongKind(index uint16, want Tag, got Constant) error {
	return fmt.Errorf("#%d: want %s, got %s: %w", index, want, got.Tag(), ErrWrongKind)
}

// Utf8 returns the text of the Utf8 entry at index.
func (p *ConstantPool) Utf8(index uint16) (string, error) {
	c, err := p.Entry(index)
	if err != nil {
		return "", err
	}
	u, ok := c.(*Utf8)
	if !ok {
		return "", wrongKind(index, TagUtf8, c)
	}
	return u.Value, nil
}

// Class returns the Class entry at index.
func (p *ConstantPool) Class(index uint16) (*Class, error) {
	c, err := p.Entry(index)
	if err != nil {
		return nil, err
	}
	cl, ok := c.(*Class)
	if !ok {
		return nil, wrongKind(index, TagClass, c)
	}
	return cl, nil
}

// FieldRef returns the Fieldref entry at index.
func (p *ConstantPool) FieldRef(index uint16) (*FieldRef, error) {
	c, err := p.Entry(index)
	if err != nil {
		return nil, err
	}
	f, ok := c.(*FieldRef)
	if !ok {
		return nil, wrongKind(index, TagFieldRef, c)
	}
	return f, nil
}

// MethodRef returns the Methodref entry at index.
func (p *ConstantPool) MethodRef(index uint16) (*MethodRef, error) {
	c, err := p.Entry(index)
	if err != nil {
		return nil, err
	}
	m, ok := c.(*MethodRef)
	if !ok {
		return nil, wrongKind(index, TagMethodRef, c)
	}
	return m, nil
}

// NameAndType returns the NameAndType entry at index.
func (p *ConstantPool) NameAndType(index uint16) (*NameAndType, error) {
	c, err := p.Entry(index)
	if err != nil {
		return nil, err
	}
	nt, ok := c.(*NameAndType)
	if !ok {
		return nil, wrongKind(index, TagNameAndType, c)
	}
	return nt, nil
}

// ClassName resolves a Class entry to its internal name
// (e.g. "java/lang/System").
func (p *ConstantPool) ClassName(classIndex uint16) (string, error) {
	cl, err := p.Class(classIndex)
	if err != nil {
		return "", err
	}
	return p.Utf8(cl.NameIndex)
}

// MemberName resolves a NameAndType entry to the member's simple name.
func (p *ConstantPool) MemberName(nameAndTypeIndex uint16) (string, error) {
	nt, err := p.NameAndType(nameAndTypeIndex)
	if err != nil {
		return "", err
	}
	return p.Utf8(nt.NameIndex)
}

// MemberDescriptor resolves a NameAndType entry to the member's descriptor.
func (p *ConstantPool) MemberDescriptor(nameAndTypeIndex uint16) (string, error) {
	nt, err := p.NameAndType(nameAndTypeIndex)
	if err != nil {
		return "", err
	}
	return p.Utf8(nt.DescriptorIndex)
}

// Member is a fully resolved field or method reference.
type Member struct {
	Class      string
	Name       string
	Descriptor string
}

func (m Member) String() string {
	return m.Class + "." + m.Name + ":" + m.Descriptor
}

// MemberRef resolves a Fieldref, Methodref or InterfaceMethodref entry.
func (p *ConstantPool) MemberRef(index uint16) (Member, error) {
	c, err := p.Entry(index)
	if err != nil {
		return Member{}, err
	}

	var classIndex, natIndex uint16
	switch ref := c.(type) {
	case *FieldRef:
		classIndex, natIndex = ref.ClassIndex, ref.NameAndTypeIndex
	case *MethodRef:
		classIndex, natIndex = ref.ClassIndex, ref.NameAndTypeIndex
	case *InterfaceMethodRef:
		classIndex, natIndex = ref.ClassIndex, ref.NameAndTypeIndex
	default:
		return Member{}, fmt.Errorf("#%d: want member reference, got %s: %w", index, c.Tag(), ErrWrongKind)
	}

	var m Member
	if m.Class, err = p.ClassName(classIndex); err != nil {
		return Member{}, fmt.Errorf("class of #%d: %w", index, err)
	}
	if m.Name, err = p.MemberName(natIndex); err != nil {
		return Member{}, fmt.Errorf("name of #%d: %w", index, err)
	}
	if m.Descriptor, err = p.MemberDescriptor(natIndex); err != nil {
		return Member{}, fmt.Errorf("descriptor of #%d: %w", index, err)
	}
	return m, nil
}
