package vm

import (
	"fmt"
	"strings"
	"testing"

	"github.com/chazu/classrun/pkg/classfile"
)

func TestDisassemble(t *testing.T) {
	var hi, num uint16
	var out, printlnRef uint16
	cf := buildMain(t, func(b *classfile.Builder, r refs) []byte {
		hi, num = b.String("Hi"), b.Integer(42)
		out, printlnRef = r.out, r.println
		return seq(
			u16(OpGetStatic, r.out),
			[]byte{byte(OpLdc), byte(hi)},
			u16(OpInvokeVirtual, r.println),
			[]byte{byte(OpBipush), 0xFF, byte(OpSipush), 0x01, 0x00},
			[]byte{byte(OpLdc), byte(num), byte(OpReturn)},
		)
	})
	code, err := cf.MethodCode("main")
	if err != nil {
		t.Fatalf("MethodCode: %v", err)
	}

	want := strings.Join([]string{
		fmt.Sprintf("0000  getstatic #%d  // java/lang/System.out:Ljava/io/PrintStream;", out),
		fmt.Sprintf("0003  ldc #%d  // String \"Hi\"", hi),
		fmt.Sprintf("0005  invokevirtual #%d  // java/io/PrintStream.println:(Ljava/lang/Object;)V", printlnRef),
		"0008  bipush -1",
		"000A  sipush 256",
		fmt.Sprintf("000D  ldc #%d  // int 42", num),
		"000F  return",
		"",
	}, "\n")

	if got := Disassemble(cf, code.Bytecode); got != want {
		t.Errorf("Disassemble =\n%s\nwant\n%s", got, want)
	}
}

func TestDisassembleStopsAtUnsupported(t *testing.T) {
	cf := buildMain(t, func(*classfile.Builder, refs) []byte { return nil })

	got := Disassemble(cf, []byte{byte(OpBipush), 3, 0x60, byte(OpReturn)})
	want := "0000  bipush 3\n0002  opcode_60  <unsupported>\n"
	if got != want {
		t.Errorf("Disassemble = %q, want %q", got, want)
	}

	got = Disassemble(cf, []byte{byte(OpSipush), 1})
	if got != "0000  sipush  <truncated>\n" {
		t.Errorf("Disassemble = %q", got)
	}
}

func TestDisassembleClass(t *testing.T) {
	b := classfile.NewBuilder("Two", "")
	b.AddMethod(classfile.AccPublic|classfile.AccStatic, "main", "([Ljava/lang/String;)V",
		&classfile.Code{MaxStack: 1, MaxLocals: 1, Bytecode: []byte{byte(OpBipush), 1, 0x57, byte(OpReturn)}})
	b.AddMethod(classfile.AccAbstract, "todo", "()V", nil)
	cf, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := "public static main ([Ljava/lang/String;)V  stack=1 locals=1\n" +
		"0000  bipush 1\n" +
		"0002  opcode_57  <unsupported>\n" +
		"\n" +
		"abstract todo ()V  <no code>\n"
	if got := DisassembleClass(cf); got != want {
		t.Errorf("DisassembleClass =\n%s\nwant\n%s", got, want)
	}
}
