package classfile

import "fmt"

// AccessFlags is the access_flags bitmask of a class, field or method.
// Several bits are shared between contexts with different meanings.
type AccessFlags uint16

const (
	AccPublic       AccessFlags = 0x0001
	AccPrivate      AccessFlags = 0x0002
	AccProtected    AccessFlags = 0x0004
	AccStatic       AccessFlags = 0x0008
	AccFinal        AccessFlags = 0x0010
	AccSuper        AccessFlags = 0x0020 // class
	AccSynchronized AccessFlags = 0x0020 // method
	AccVolatile     AccessFlags = 0x0040 // field
	AccBridge       AccessFlags = 0x0040 // method
	AccTransient    AccessFlags = 0x0080 // field
	AccVarargs      AccessFlags = 0x0080 // method
	AccNative       AccessFlags = 0x0100
	AccInterface    AccessFlags = 0x0200
	AccAbstract     AccessFlags = 0x0400
	AccStrict       AccessFlags = 0x0800
	AccSynthetic    AccessFlags = 0x1000
	AccAnnotation   AccessFlags = 0x2000
	AccEnum         AccessFlags = 0x4000
)

// Has reports whether every bit of f is set.
func (a AccessFlags) Has(f AccessFlags) bool {
	return a&f == f
}

func (a AccessFlags) String() string {
	return fmt.Sprintf("0x%04X", uint16(a))
}

type flagName struct {
	flag AccessFlags
	name string
}

var classFlagOrder = []flagName{
	{AccPublic, "public"},
	{AccFinal, "final"},
	{AccAbstract, "abstract"},
	{AccSynthetic, "synthetic"},
	{AccAnnotation, "annotation"},
	{AccEnum, "enum"},
	{AccInterface, "interface"},
}

var methodFlagOrder = []flagName{
	{AccPublic, "public"},
	{AccPrivate, "private"},
	{AccProtected, "protected"},
	{AccStatic, "static"},
	{AccFinal, "final"},
	{AccSynchronized, "synchronized"},
	{AccBridge, "bridge"},
	{AccVarargs, "varargs"},
	{AccNative, "native"},
	{AccAbstract, "abstract"},
	{AccStrict, "strictfp"},
	{AccSynthetic, "synthetic"},
}

func flagNames(a AccessFlags, order []flagName) []string {
	names := make([]string, 0, len(order))
	for _, fn := range order {
		if a.Has(fn.flag) {
			names = append(names, fn.name)
		}
	}
	return names
}

// ClassFlagNames returns the source-level modifiers for a class bitmask.
// ACC_SUPER is omitted; it has no source form.
func ClassFlagNames(a AccessFlags) []string {
	return flagNames(a, classFlagOrder)
}

// MethodFlagNames returns the source-level modifiers for a method bitmask.
func MethodFlagNames(a AccessFlags) []string {
	return flagNames(a, methodFlagOrder)
}
