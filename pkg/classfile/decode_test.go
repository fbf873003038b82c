package classfile

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

func TestDecodeHello(t *testing.T) {
	_, code := helloBuilder(t)
	cf, err := Decode(helloBytes(t))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if cf.Magic != 0xCAFEBABE || cf.Major != 52 || cf.Minor != 0 {
		t.Errorf("header = %#x %d.%d", cf.Magic, cf.Major, cf.Minor)
	}
	if name, _ := cf.ThisClassName(); name != "Hello" {
		t.Errorf("ThisClassName = %q, want Hello", name)
	}
	if name, _ := cf.SuperClassName(); name != "java/lang/Object" {
		t.Errorf("SuperClassName = %q, want java/lang/Object", name)
	}
	if !cf.AccessFlags.Has(AccPublic | AccSuper) {
		t.Errorf("AccessFlags = %s", cf.AccessFlags)
	}
	if len(cf.Methods) != 1 {
		t.Fatalf("len(Methods) = %d, want 1", len(cf.Methods))
	}

	body, err := cf.MethodCode("main")
	if err != nil {
		t.Fatalf("MethodCode: %v", err)
	}
	if !bytes.Equal(body.Bytecode, code) {
		t.Errorf("Bytecode = % x, want % x", body.Bytecode, code)
	}
	if body.MaxStack != 2 || body.MaxLocals != 1 {
		t.Errorf("MaxStack/MaxLocals = %d/%d, want 2/1", body.MaxStack, body.MaxLocals)
	}
}

func TestDecodeIsDeterministic(t *testing.T) {
	data := helloBytes(t)
	a, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	b, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("decoding the same bytes twice produced different class files")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	data := helloBytes(t)
	cf, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	again, err := Encode(cf)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(again, data) {
		t.Errorf("Encode(Decode(b)) differs from b\n got % x\nwant % x", again, data)
	}
}

func TestDecodeRejectsFields(t *testing.T) {
	var b testBytes
	b.header("Foo").u16(0x0021).u16(1).u16(0)
	b.u16(0) // interfaces
	b.u16(1) // fields

	_, err := Decode(b.Bytes())
	if !errors.Is(err, ErrMalformedClass) {
		t.Fatalf("err = %v, want ErrMalformedClass", err)
	}
	if !errors.Is(err, ErrFieldsPresent) {
		t.Errorf("err = %v, want ErrFieldsPresent", err)
	}
	if errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("decoder read past the fields count: %v", err)
	}

	var de *DecodeError
	if !errors.As(err, &de) || de.Phase != PhaseFields {
		t.Errorf("phase = %v, want %q", de, PhaseFields)
	}
}

func TestDecodeRejectsInterfaces(t *testing.T) {
	var b testBytes
	b.header("Foo").u16(0x0021).u16(1).u16(0)
	b.u16(2).u16(1).u16(1)

	_, err := Decode(b.Bytes())
	if !errors.Is(err, ErrInterfacesPresent) || !errors.Is(err, ErrMalformedClass) {
		t.Fatalf("err = %v, want ErrInterfacesPresent", err)
	}
}

func TestDecodeUnsupportedConstant(t *testing.T) {
	tests := []struct {
		name string
		tag  uint8
	}{
		{"long", uint8(TagLong)},
		{"double", uint8(TagDouble)},
		{"method handle", uint8(TagMethodHandle)},
		{"invoke dynamic", uint8(TagInvokeDynamic)},
		{"unknown", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b testBytes
			b.u32(Magic).u16(0).u16(52)
			b.u16(3).utf8("ok").u8(tt.tag).u32(0).u32(0)

			_, err := Decode(b.Bytes())
			if !errors.Is(err, ErrUnsupportedConstant) {
				t.Fatalf("err = %v, want ErrUnsupportedConstant", err)
			}
			var de *DecodeError
			if !errors.As(err, &de) || de.Phase != PhasePool {
				t.Errorf("phase = %v, want %q", de, PhasePool)
			}
		})
	}
}

func TestDecodeEmptyPool(t *testing.T) {
	for _, count := range []uint16{0, 1} {
		var b testBytes
		b.u32(Magic).u16(0).u16(52).u16(count)
		b.u16(0).u16(0).u16(0) // flags, this, super
		b.u16(0).u16(0)        // interfaces, fields
		b.u16(0)               // methods
		b.u16(0)               // attributes

		cf, err := Decode(b.Bytes())
		if err != nil {
			t.Fatalf("count %d: %v", count, err)
		}
		if cf.Pool.Len() != 0 {
			t.Errorf("count %d: pool has %d entries", count, cf.Pool.Len())
		}
		if _, err := cf.ThisClassName(); !errors.Is(err, ErrBadIndex) {
			t.Errorf("this_class 0 resolved: %v", err)
		}
	}
}

func TestDecodeEveryTruncation(t *testing.T) {
	data := helloBytes(t)
	for n := 0; n < len(data); n++ {
		_, err := Decode(data[:n])
		if !errors.Is(err, ErrMalformedClass) || !errors.Is(err, ErrUnexpectedEOF) {
			t.Fatalf("prefix %d/%d: err = %v, want malformed + unexpected EOF", n, len(data), err)
		}
	}
}

func TestDecodeNamesFailingPhase(t *testing.T) {
	data := helloBytes(t)
	tests := []struct {
		n    int
		want string
	}{
		{2, PhaseHeader},
		{12, PhasePool},
		// Inside main's Code attribute; the class attribute count follows.
		{len(data) - 3, PhaseMethods},
		{len(data) - 1, PhaseAttributes},
	}
	for _, tt := range tests {
		_, err := Decode(data[:tt.n])
		var de *DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("prefix %d: err = %v, want *DecodeError", tt.n, err)
		}
		if de.Phase != tt.want {
			t.Errorf("prefix %d: phase = %q, want %q", tt.n, de.Phase, tt.want)
		}
	}
}

func TestFindMethodByName(t *testing.T) {
	b := NewBuilder("Multi", "")
	b.AddMethod(AccStatic, "first", "()V", &Code{Bytecode: []byte{0xB1}})
	b.AddMethod(AccStatic, "dup", "()V", &Code{Bytecode: []byte{0x10, 1, 0xB1}})
	b.AddMethod(AccStatic, "dup", "(I)V", &Code{Bytecode: []byte{0x10, 2, 0xB1}})
	data, err := b.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	cf, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	m, ok := cf.FindMethodByName("dup")
	if !ok {
		t.Fatal("dup not found")
	}
	if desc, _ := m.Descriptor(&cf.Pool); desc != "()V" {
		t.Errorf("first match descriptor = %q, want ()V", desc)
	}

	again, _ := cf.FindMethodByName("dup")
	if again != m {
		t.Error("repeated lookup returned a different method")
	}
	if _, ok := cf.FindMethodByName("Dup"); ok {
		t.Error("lookup should be case-sensitive")
	}
	if _, ok := cf.FindMethodByName("missing"); ok {
		t.Error("missing method found")
	}

	after, err := Encode(cf)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(after, data) {
		t.Error("lookups mutated the class file")
	}
}

func TestFindAttributeByName(t *testing.T) {
	b := NewBuilder("Attrs", "")
	b.AddAttribute("SourceFile", []byte{0, 1})
	b.AddAttribute("Custom", []byte{1})
	b.AddAttribute("Custom", []byte{2})
	cf, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	attr, ok := cf.FindAttributeByName(cf.Attributes, "Custom")
	if !ok {
		t.Fatal("Custom not found")
	}
	if !bytes.Equal(attr.Info, []byte{1}) {
		t.Errorf("first Custom payload = %v, want [1]", attr.Info)
	}
	if _, ok := cf.FindAttributeByName(cf.Attributes, "Code"); ok {
		t.Error("Code found among class attributes")
	}
}

func TestMethodCodeErrors(t *testing.T) {
	b := NewBuilder("NoCode", "")
	b.AddMethod(AccAbstract, "abstractOne", "()V", nil)
	cf, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if _, err := cf.MethodCode("missing"); !errors.Is(err, ErrMethodNotFound) {
		t.Errorf("err = %v, want ErrMethodNotFound", err)
	}
	if _, err := cf.MethodCode("abstractOne"); !errors.Is(err, ErrCodeNotFound) {
		t.Errorf("err = %v, want ErrCodeNotFound", err)
	}
}

func TestDecodeCodeNested(t *testing.T) {
	b := NewBuilder("Nested", "")
	lineTable := b.Utf8("LineNumberTable")
	exTable := []byte{0, 0, 0, 3, 0, 3, 0, 0}
	b.AddMethod(AccStatic, "run", "()V", &Code{
		MaxStack:       4,
		MaxLocals:      3,
		Bytecode:       []byte{0x10, 1, 0x10, 2, 0xB1},
		ExceptionTable: exTable,
		Attributes:     []Attribute{{NameIndex: lineTable, Info: []byte{0, 1, 0, 0, 0, 7}}},
	})
	cf, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	code, err := cf.MethodCode("run")
	if err != nil {
		t.Fatalf("MethodCode: %v", err)
	}
	if !bytes.Equal(code.ExceptionTable, exTable) {
		t.Errorf("ExceptionTable = % x, want % x", code.ExceptionTable, exTable)
	}
	if len(code.Attributes) != 1 {
		t.Fatalf("nested attributes = %d, want 1", len(code.Attributes))
	}
	if _, ok := cf.FindAttributeByName(code.Attributes, "LineNumberTable"); !ok {
		t.Error("nested LineNumberTable not found")
	}
}

func TestDecodeCodeTruncated(t *testing.T) {
	full, err := EncodeCode(&Code{MaxStack: 1, MaxLocals: 1, Bytecode: []byte{0xB1}})
	if err != nil {
		t.Fatalf("EncodeCode: %v", err)
	}
	for n := 0; n < len(full); n++ {
		_, err := DecodeCode(&Attribute{Info: full[:n]})
		if !errors.Is(err, ErrMalformedClass) || !errors.Is(err, ErrUnexpectedEOF) {
			t.Fatalf("prefix %d: err = %v", n, err)
		}
		var de *DecodeError
		if errors.As(err, &de) && de.Phase != PhaseCode {
			t.Errorf("prefix %d: phase = %q, want %q", n, de.Phase, PhaseCode)
		}
	}

	huge := []byte{0, 1, 0, 1, 0xFF, 0xFF, 0xFF, 0xFF, 0xB1}
	if _, err := DecodeCode(&Attribute{Info: huge}); !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("oversized code length: err = %v", err)
	}
}

func TestSummarize(t *testing.T) {
	data := helloBytes(t)
	cf, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	s := Summarize(cf, data)
	if s.ClassName != "Hello" || s.SuperName != "java/lang/Object" {
		t.Errorf("names = %q / %q", s.ClassName, s.SuperName)
	}
	if len(s.Methods) != 1 || s.Methods[0].Name != "main" || !s.Methods[0].HasCode {
		t.Fatalf("methods = %+v", s.Methods)
	}
	if s.Methods[0].CodeLength != 9 {
		t.Errorf("CodeLength = %d, want 9", s.Methods[0].CodeLength)
	}
	if Summarize(cf, data).Hash != s.Hash {
		t.Error("summary hash is not deterministic")
	}
}

func TestFlagNames(t *testing.T) {
	got := MethodFlagNames(AccPublic | AccStatic | AccFinal)
	want := []string{"public", "static", "final"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MethodFlagNames = %v, want %v", got, want)
	}
	got = ClassFlagNames(AccPublic | AccSuper)
	if !reflect.DeepEqual(got, []string{"public"}) {
		t.Errorf("ClassFlagNames = %v, want [public]", got)
	}
}
