package classfile

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// testBytes assembles raw class file bytes field by field.
type testBytes struct {
	bytes.Buffer
}

func (b *testBytes) u8(v uint8) *testBytes {
	b.WriteByte(v)
	return b
}

func (b *testBytes) u16(v uint16) *testBytes {
	b.Write(binary.BigEndian.AppendUint16(nil, v))
	return b
}

func (b *testBytes) u32(v uint32) *testBytes {
	b.Write(binary.BigEndian.AppendUint32(nil, v))
	return b
}

func (b *testBytes) utf8(s string) *testBytes {
	b.u8(uint8(TagUtf8)).u16(uint16(len(s)))
	b.WriteString(s)
	return b
}

// header writes magic, version and a pool of the given Utf8 strings.
func (b *testBytes) header(pool ...string) *testBytes {
	b.u32(Magic).u16(0).u16(DefaultMajor)
	b.u16(uint16(len(pool) + 1))
	for _, s := range pool {
		b.utf8(s)
	}
	return b
}

// helloBuilder builds a class whose main is getstatic System.out, ldc "Hi",
// invokevirtual println, return.
func helloBuilder(t testing.TB) (*Builder, []byte) {
	t.Helper()
	b := NewBuilder("Hello", "java/lang/Object")
	out := b.FieldRef("java/lang/System", "out", "Ljava/io/PrintStream;")
	hi := b.String("Hi")
	printlnRef := b.MethodRef("java/io/PrintStream", "println", "(Ljava/lang/String;)V")
	code := []byte{
		0xB2, byte(out >> 8), byte(out),
		0x12, byte(hi),
		0xB6, byte(printlnRef >> 8), byte(printlnRef),
		0xB1,
	}
	b.AddMethod(AccPublic|AccStatic, "main", "([Ljava/lang/String;)V", &Code{
		MaxStack:  2,
		MaxLocals: 1,
		Bytecode:  code,
	})
	return b, code
}

func helloBytes(t testing.TB) []byte {
	t.Helper()
	b, _ := helloBuilder(t)
	data, err := b.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	return data
}
