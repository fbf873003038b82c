package classfile

import (
	"crypto/sha256"
	"strconv"
)

// Summary is a compact, content-addressed description of a class file,
// suitable for storage and transport.
type Summary struct {
	Hash        [32]byte        `cbor:"1,keyasint"`
	ClassName   string          `cbor:"2,keyasint"`
	SuperName   string          `cbor:"3,keyasint,omitempty"`
	Major       uint16          `cbor:"4,keyasint"`
	Minor       uint16          `cbor:"5,keyasint"`
	AccessFlags AccessFlags     `cbor:"6,keyasint"`
	Constants   int             `cbor:"7,keyasint"`
	Methods     []MethodSummary `cbor:"8,keyasint,omitempty"`
}

// MethodSummary describes one method of a Summary.
type MethodSummary struct {
	Name       string      `cbor:"1,keyasint"`
	Descriptor string      `cbor:"2,keyasint"`
	Flags      AccessFlags `cbor:"3,keyasint"`
	HasCode    bool        `cbor:"4,keyasint"`
	MaxStack   uint16      `cbor:"5,keyasint,omitempty"`
	MaxLocals  uint16      `cbor:"6,keyasint,omitempty"`
	CodeLength int         `cbor:"7,keyasint,omitempty"`
}

// Summarize describes cf, which must have been decoded from raw. Names that
// fail to resolve are reported as "#<index>" rather than failing.
func Summarize(cf *ClassFile, raw []byte) Summary {
	s := Summary{
		Hash:        sha256.Sum256(raw),
		Major:       cf.Major,
		Minor:       cf.Minor,
		AccessFlags: cf.AccessFlags,
		Constants:   cf.Pool.Len(),
	}
	if name, err := cf.ThisClassName(); err == nil {
		s.ClassName = name
	} else {
		s.ClassName = indexLabel(cf.ThisClass)
	}
	if name, err := cf.SuperClassName(); err == nil {
		s.SuperName = name
	} else {
		s.SuperName = indexLabel(cf.SuperClass)
	}

	for i := range cf.Methods {
		m := &cf.Methods[i]
		ms := MethodSummary{Flags: m.AccessFlags}
		if ms.Name, _ = m.Name(&cf.Pool); ms.Name == "" {
			ms.Name = indexLabel(m.NameIndex)
		}
		if ms.Descriptor, _ = m.Descriptor(&cf.Pool); ms.Descriptor == "" {
			ms.Descriptor = indexLabel(m.DescriptorIndex)
		}
		if attr, ok := cf.FindAttributeByName(m.Attributes, AttrCode); ok {
			if code, err := DecodeCode(attr); err == nil {
				ms.HasCode = true
				ms.MaxStack = code.MaxStack
				ms.MaxLocals = code.MaxLocals
				ms.CodeLength = len(code.Bytecode)
			}
		}
		s.Methods = append(s.Methods, ms)
	}
	return s
}

func indexLabel(index uint16) string {
	return "#" + strconv.Itoa(int(index))
}
