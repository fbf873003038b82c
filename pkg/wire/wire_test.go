package wire

import (
	"bytes"
	"crypto/sha256"
	"testing"

	"github.com/chazu/classrun/pkg/classfile"
)

func testSummary() *classfile.Summary {
	return &classfile.Summary{
		Hash:        sha256.Sum256([]byte("class-bytes")),
		ClassName:   "Hello",
		SuperName:   "java/lang/Object",
		Major:       52,
		AccessFlags: classfile.AccPublic | classfile.AccSuper,
		Constants:   18,
		Methods: []classfile.MethodSummary{{
			Name:       "main",
			Descriptor: "([Ljava/lang/String;)V",
			Flags:      classfile.AccPublic | classfile.AccStatic,
			HasCode:    true,
			MaxStack:   2,
			MaxLocals:  1,
			CodeLength: 9,
		}},
	}
}

func TestSummary_CBORRoundTrip(t *testing.T) {
	s := testSummary()

	data, err := MarshalSummary(s)
	if err != nil {
		t.Fatalf("MarshalSummary: %v", err)
	}
	got, err := UnmarshalSummary(data)
	if err != nil {
		t.Fatalf("UnmarshalSummary: %v", err)
	}

	if got.Hash != s.Hash {
		t.Error("Hash mismatch")
	}
	if got.ClassName != s.ClassName || got.SuperName != s.SuperName {
		t.Errorf("names: got %q/%q", got.ClassName, got.SuperName)
	}
	if got.AccessFlags != s.AccessFlags {
		t.Errorf("AccessFlags: got %s, want %s", got.AccessFlags, s.AccessFlags)
	}
	if len(got.Methods) != 1 || got.Methods[0] != s.Methods[0] {
		t.Errorf("Methods: got %+v", got.Methods)
	}
}

func TestMarshalIsDeterministic(t *testing.T) {
	a, err := MarshalSummary(testSummary())
	if err != nil {
		t.Fatal(err)
	}
	b, err := MarshalSummary(testSummary())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("canonical encoding differs between runs")
	}
}

func TestUnmarshalSummaryRejectsGarbage(t *testing.T) {
	if _, err := UnmarshalSummary([]byte{0xFF, 0x00}); err == nil {
		t.Error("expected error for invalid CBOR")
	}
}
