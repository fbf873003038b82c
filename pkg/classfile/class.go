// Package classfile decodes compiled class files into a constant pool,
// a method table and attribute tables, and encodes them back.
//
// Only the subset of the format needed to run a single static method is
// supported: classes that declare interfaces or fields are rejected, and the
// constant pool may only hold Utf8, Integer, Float, Class, String, member
// reference and NameAndType entries.
package classfile

import "fmt"

// ClassFile is a decoded class. It is immutable once Decode returns.
type ClassFile struct {
	Magic       uint32
	Minor       uint16
	Major       uint16
	Pool        ConstantPool
	AccessFlags AccessFlags
	ThisClass   uint16
	SuperClass  uint16
	Methods     []Method
	Attributes  []Attribute
}

// Method is one entry of the method table.
type Method struct {
	AccessFlags     AccessFlags
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []Attribute
}

// Name resolves the method name through the pool.
func (m *Method) Name(pool *ConstantPool) (string, error) {
	return pool.Utf8(m.NameIndex)
}

// Descriptor resolves the method descriptor through the pool.
func (m *Method) Descriptor(pool *ConstantPool) (string, error) {
	return pool.Utf8(m.DescriptorIndex)
}

// ThisClassName returns the internal name of the declared class.
func (cf *ClassFile) ThisClassName() (string, error) {
	return cf.Pool.ClassName(cf.ThisClass)
}

// SuperClassName returns the internal name of the superclass, or "" when
// the class has none (super_class == 0).
func (cf *ClassFile) SuperClassName() (string, error) {
	if cf.SuperClass == 0 {
		return "", nil
	}
	return cf.Pool.ClassName(cf.SuperClass)
}

// FindMethodByName returns the first method whose name is exactly name.
func (cf *ClassFile) FindMethodByName(name string) (*Method, bool) {
	for i := range cf.Methods {
		if n, err := cf.Methods[i].Name(&cf.Pool); err == nil && n == name {
			return &cf.Methods[i], true
		}
	}
	return nil, false
}

// FindAttributeByName returns the first attribute in attrs whose name is
// exactly name.
func (cf *ClassFile) FindAttributeByName(attrs []Attribute, name string) (*Attribute, bool) {
	return findAttribute(&cf.Pool, attrs, name)
}

// MethodCode looks up a method by name and decodes its Code attribute.
func (cf *ClassFile) MethodCode(name string) (*Code, error) {
	m, ok := cf.FindMethodByName(name)
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrMethodNotFound)
	}
	attr, ok := cf.FindAttributeByName(m.Attributes, AttrCode)
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrCodeNotFound)
	}
	return DecodeCode(attr)
}
