package classfile

import "fmt"

// AttrCode is the name of the attribute holding a method body.
const AttrCode = "Code"

// Attribute is a named, opaque attribute payload. Interpretation of Info
// is left to consumers that recognize the name.
type Attribute struct {
	NameIndex uint16
	Info      []byte
}

// Name resolves the attribute name through the pool.
func (a *Attribute) Name(pool *ConstantPool) (string, error) {
	return pool.Utf8(a.NameIndex)
}

// readAttributes reads count (name u16, length u32, payload) records.
func readAttributes(r *Reader, count int) ([]Attribute, error) {
	attrs := make([]Attribute, 0, min(count, r.Remaining()/6))
	for i := 0; i < count; i++ {
		nameIndex, err := r.U16()
		if err != nil {
			return nil, fmt.Errorf("attribute %d name: %w", i, err)
		}
		length, err := r.U32()
		if err != nil {
			return nil, fmt.Errorf("attribute %d length: %w", i, err)
		}
		if uint64(length) > uint64(r.Remaining()) {
			return nil, fmt.Errorf("attribute %d: length %d exceeds %d remaining: %w",
				i, length, r.Remaining(), ErrUnexpectedEOF)
		}
		info, err := r.Bytes(int(length))
		if err != nil {
			return nil, fmt.Errorf("attribute %d payload: %w", i, err)
		}
		attrs = append(attrs, Attribute{NameIndex: nameIndex, Info: info})
	}
	return attrs, nil
}

// readAttributeTable reads a u16 count followed by that many attributes.
func readAttributeTable(r *Reader) ([]Attribute, error) {
	count, err := r.U16()
	if err != nil {
		return nil, fmt.Errorf("attributes count: %w", err)
	}
	return readAttributes(r, int(count))
}

// findAttribute returns the first attribute whose name resolves to name.
// Attributes whose name does not resolve to Utf8 are skipped.
func findAttribute(pool *ConstantPool, attrs []Attribute, name string) (*Attribute, bool) {
	for i := range attrs {
		if n, err := attrs[i].Name(pool); err == nil && n == name {
			return &attrs[i], true
		}
	}
	return nil, false
}
