package classfile

import (
	"fmt"
	"os"

	"github.com/tliron/commonlog"
)

// DecodeFile reads and decodes the class file at path.
func DecodeFile(path string) (*ClassFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return Decode(data)
}

// Decode parses a class file. Any structural failure is returned as a
// *DecodeError naming the phase that failed; no partial ClassFile escapes.
// The magic number is read but not validated.
func Decode(data []byte) (*ClassFile, error) {
	r := NewReader(data)
	cf := &ClassFile{}
	var err error

	if cf.Magic, err = r.U32(); err != nil {
		return nil, decodeErr(PhaseHeader, r, fmt.Errorf("magic: %w", err))
	}
	if cf.Minor, err = r.U16(); err != nil {
		return nil, decodeErr(PhaseHeader, r, fmt.Errorf("minor version: %w", err))
	}
	if cf.Major, err = r.U16(); err != nil {
		return nil, decodeErr(PhaseHeader, r, fmt.Errorf("major version: %w", err))
	}

	if cf.Pool, err = readConstantPool(r); err != nil {
		return nil, decodeErr(PhasePool, r, err)
	}

	flags, err := r.U16()
	if err != nil {
		return nil, decodeErr(PhaseClassInfo, r, fmt.Errorf("access flags: %w", err))
	}
	cf.AccessFlags = AccessFlags(flags)
	if cf.ThisClass, err = r.U16(); err != nil {
		return nil, decodeErr(PhaseClassInfo, r, fmt.Errorf("this class: %w", err))
	}
	if cf.SuperClass, err = r.U16(); err != nil {
		return nil, decodeErr(PhaseClassInfo, r, fmt.Errorf("super class: %w", err))
	}

	interfaces, err := r.U16()
	if err != nil {
		return nil, decodeErr(PhaseInterfaces, r, fmt.Errorf("interfaces count: %w", err))
	}
	if interfaces != 0 {
		return nil, decodeErr(PhaseInterfaces, r, fmt.Errorf("count %d: %w", interfaces, ErrInterfacesPresent))
	}

	fields, err := r.U16()
	if err != nil {
		return nil, decodeErr(PhaseFields, r, fmt.Errorf("fields count: %w", err))
	}
	if fields != 0 {
		return nil, decodeErr(PhaseFields, r, fmt.Errorf("count %d: %w", fields, ErrFieldsPresent))
	}

	if cf.Methods, err = readMethods(r); err != nil {
		return nil, decodeErr(PhaseMethods, r, err)
	}

	if cf.Attributes, err = readAttributeTable(r); err != nil {
		return nil, decodeErr(PhaseAttributes, r, err)
	}

	commonlog.GetLogger("classrun.classfile").Debugf(
		"decoded class: version %d.%d, %d constants, %d methods, %d attributes",
		cf.Major, cf.Minor, cf.Pool.Len(), len(cf.Methods), len(cf.Attributes))

	return cf, nil
}

// ---------------------------------------------------------------------------
// Constant Pool
// ---------------------------------------------------------------------------

// readConstantPool reads the u16 count n and then n-1 entries. Slot 0 is
// implied and never stored.
func readConstantPool(r *Reader) (ConstantPool, error) {
	count, err := r.U16()
	if err != nil {
		return ConstantPool{}, fmt.Errorf("pool count: %w", err)
	}
	if count == 0 {
		return ConstantPool{}, nil
	}

	entries := make([]Constant, 0, min(int(count)-1, r.Remaining()/3))
	for index := uint16(1); index < count; index++ {
		c, err := readConstant(r)
		if err != nil {
			return ConstantPool{}, fmt.Errorf("entry #%d: %w", index, err)
		}
		entries = append(entries, c)
	}
	return ConstantPool{Entries: entries}, nil
}

func readConstant(r *Reader) (Constant, error) {
	raw, err := r.U8()
	if err != nil {
		return nil, fmt.Errorf("tag: %w", err)
	}

	switch tag := Tag(raw); tag {
	case TagUtf8:
		length, err := r.U16()
		if err != nil {
			return nil, fmt.Errorf("utf8 length: %w", err)
		}
		s, err := r.String(int(length))
		if err != nil {
			return nil, fmt.Errorf("utf8 data: %w", err)
		}
		return &Utf8{Value: s}, nil

	case TagInteger:
		v, err := r.I32()
		if err != nil {
			return nil, fmt.Errorf("integer: %w", err)
		}
		return &Integer{Value: v}, nil

	case TagFloat:
		v, err := r.F32()
		if err != nil {
			return nil, fmt.Errorf("float: %w", err)
		}
		return &Float{Value: v}, nil

	case TagClass:
		idx, err := r.U16()
		if err != nil {
			return nil, fmt.Errorf("class name index: %w", err)
		}
		return &Class{NameIndex: idx}, nil

	case TagString:
		idx, err := r.U16()
		if err != nil {
			return nil, fmt.Errorf("string index: %w", err)
		}
		return &String{StringIndex: idx}, nil

	case TagFieldRef, TagMethodRef, TagInterfaceMethodRef:
		classIndex, err := r.U16()
		if err != nil {
			return nil, fmt.Errorf("%s class index: %w", tag, err)
		}
		natIndex, err := r.U16()
		if err != nil {
			return nil, fmt.Errorf("%s name-and-type index: %w", tag, err)
		}
		switch tag {
		case TagFieldRef:
			return &FieldRef{ClassIndex: classIndex, NameAndTypeIndex: natIndex}, nil
		case TagMethodRef:
			return &MethodRef{ClassIndex: classIndex, NameAndTypeIndex: natIndex}, nil
		default:
			return &InterfaceMethodRef{ClassIndex: classIndex, NameAndTypeIndex: natIndex}, nil
		}

	case TagNameAndType:
		nameIndex, err := r.U16()
		if err != nil {
			return nil, fmt.Errorf("name index: %w", err)
		}
		descIndex, err := r.U16()
		if err != nil {
			return nil, fmt.Errorf("descriptor index: %w", err)
		}
		return &NameAndType{NameIndex: nameIndex, DescriptorIndex: descIndex}, nil

	default:
		return nil, fmt.Errorf("%s at offset %d: %w", tag, r.Pos()-1, ErrUnsupportedConstant)
	}
}

// ---------------------------------------------------------------------------
// Methods
// ---------------------------------------------------------------------------

func readMethods(r *Reader) ([]Method, error) {
	count, err := r.U16()
	if err != nil {
		return nil, fmt.Errorf("methods count: %w", err)
	}

	methods := make([]Method, 0, min(int(count), r.Remaining()/8))
	for i := 0; i < int(count); i++ {
		var m Method
		flags, err := r.U16()
		if err != nil {
			return nil, fmt.Errorf("method %d access flags: %w", i, err)
		}
		m.AccessFlags = AccessFlags(flags)
		if m.NameIndex, err = r.U16(); err != nil {
			return nil, fmt.Errorf("method %d name index: %w", i, err)
		}
		if m.DescriptorIndex, err = r.U16(); err != nil {
			return nil, fmt.Errorf("method %d descriptor index: %w", i, err)
		}
		if m.Attributes, err = readAttributeTable(r); err != nil {
			return nil, fmt.Errorf("method %d: %w", i, err)
		}
		methods = append(methods, m)
	}
	return methods, nil
}
