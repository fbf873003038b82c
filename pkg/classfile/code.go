package classfile

import "fmt"

// Code is a decoded Code attribute. MaxStack and MaxLocals are advisory;
// ExceptionTable is kept verbatim and never interpreted.
type Code struct {
	MaxStack       uint16
	MaxLocals      uint16
	Bytecode       []byte
	ExceptionTable []byte
	Attributes     []Attribute
}

// DecodeCode reinterprets an attribute payload as a method body.
func DecodeCode(attr *Attribute) (*Code, error) {
	r := NewReader(attr.Info)
	c := &Code{}
	var err error

	if c.MaxStack, err = r.U16(); err != nil {
		return nil, decodeErr(PhaseCode, r, fmt.Errorf("max stack: %w", err))
	}
	if c.MaxLocals, err = r.U16(); err != nil {
		return nil, decodeErr(PhaseCode, r, fmt.Errorf("max locals: %w", err))
	}

	length, err := r.U32()
	if err != nil {
		return nil, decodeErr(PhaseCode, r, fmt.Errorf("code length: %w", err))
	}
	if uint64(length) > uint64(r.Remaining()) {
		return nil, decodeErr(PhaseCode, r, fmt.Errorf("code length %d exceeds %d remaining: %w",
			length, r.Remaining(), ErrUnexpectedEOF))
	}
	if c.Bytecode, err = r.Bytes(int(length)); err != nil {
		return nil, decodeErr(PhaseCode, r, fmt.Errorf("bytecode: %w", err))
	}

	exLength, err := r.U16()
	if err != nil {
		return nil, decodeErr(PhaseCode, r, fmt.Errorf("exception table length: %w", err))
	}
	if c.ExceptionTable, err = r.Bytes(int(exLength)); err != nil {
		return nil, decodeErr(PhaseCode, r, fmt.Errorf("exception table: %w", err))
	}

	if c.Attributes, err = readAttributeTable(r); err != nil {
		return nil, decodeErr(PhaseCode, r, err)
	}
	return c, nil
}
