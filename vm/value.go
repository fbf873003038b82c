package vm

import (
	"math"
	"strconv"
)

// Kind tags the payload carried by a Value.
type Kind uint8

const (
	KindStream Kind = iota // the standard output stream handle
	KindString
	KindByte
	KindShort
	KindInt
	KindFloat
)

var kindNames = [...]string{
	KindStream: "stream",
	KindString: "string",
	KindByte:   "byte",
	KindShort:  "short",
	KindInt:    "int",
	KindFloat:  "float",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is an operand stack slot. Byte, Short and Int payloads live in I;
// Float in F; String in S.
type Value struct {
	Kind Kind
	S    string
	I    int32
	F    float32
}

// Stream is the handle pushed by getstatic System.out.
var Stream = Value{Kind: KindStream}

func StringValue(s string) Value { return Value{Kind: KindString, S: s} }
func ByteValue(v int8) Value     { return Value{Kind: KindByte, I: int32(v)} }
func ShortValue(v int16) Value   { return Value{Kind: KindShort, I: int32(v)} }
func IntValue(v int32) Value     { return Value{Kind: KindInt, I: v} }
func FloatValue(v float32) Value { return Value{Kind: KindFloat, F: v} }

// Printable reports whether println accepts v as its argument.
func (v Value) Printable() bool {
	return v.Kind != KindStream
}

// String returns the text println writes for v.
func (v Value) String() string {
	switch v.Kind {
	case KindStream:
		return "<stream>"
	case KindString:
		return v.S
	case KindByte, KindShort, KindInt:
		return strconv.FormatInt(int64(v.I), 10)
	case KindFloat:
		return formatFloat(v.F)
	}
	return "<" + v.Kind.String() + ">"
}

// formatFloat prints the shortest decimal that round-trips to f, without
// exponent notation.
func formatFloat(f float32) string {
	switch {
	case math.IsNaN(float64(f)):
		return "NaN"
	case math.IsInf(float64(f), 1):
		return "inf"
	case math.IsInf(float64(f), -1):
		return "-inf"
	}
	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}
