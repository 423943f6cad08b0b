package bridge

import "github.com/rubiojr/bindplan/decl"

// knownType describes a type the analyzer understands without help from
// the front end.
type knownType struct {
	// byValueSafe types have the same representation on both sides.
	byValueSafe bool
	// stringLike types can be built from a borrowed string view.
	stringLike bool
	// receiver types may appear as a method receiver.
	receiver bool
	// container templates are understood directly; instantiating them
	// does not require a synthesized concrete type.
	container bool
	// builtin types are not APIs and never appear in dependency sets.
	builtin bool
}

var knownTypes = map[string]knownType{}

func init() {
	for _, name := range []string{
		"bool", "char", "signed char", "unsigned char", "wchar_t",
		"short", "unsigned short", "int", "unsigned int", "unsigned",
		"long", "unsigned long", "long long", "unsigned long long",
		"float", "double",
		"int8_t", "int16_t", "int32_t", "int64_t",
		"uint8_t", "uint16_t", "uint32_t", "uint64_t",
		"size_t", "ssize_t", "intptr_t", "uintptr_t", "ptrdiff_t",
		"std::size_t", "std::int8_t", "std::int16_t", "std::int32_t", "std::int64_t",
		"std::uint8_t", "std::uint16_t", "std::uint32_t", "std::uint64_t",
	} {
		knownTypes[name] = knownType{byValueSafe: true, builtin: true}
	}
	knownTypes["std::string"] = knownType{stringLike: true, receiver: true}
	knownTypes["std::unique_ptr"] = knownType{byValueSafe: true, container: true}
	knownTypes["std::shared_ptr"] = knownType{byValueSafe: true, container: true}
	knownTypes["std::vector"] = knownType{container: true, receiver: true}
}

func lookupKnown(name decl.QualifiedName) (knownType, bool) {
	kt, ok := knownTypes[name.String()]
	return kt, ok
}

// isBuiltin reports whether name is a primitive native type.
func isBuiltin(name decl.QualifiedName) bool {
	kt, ok := lookupKnown(name)
	return ok && kt.builtin
}

// isKnownContainer reports whether name is a template the analyzer
// understands directly.
func isKnownContainer(name decl.QualifiedName) bool {
	kt, ok := lookupKnown(name)
	return ok && kt.container
}

// acceptableReceiver reports whether a known type may be a receiver.
// Types the analyzer does not know about are acceptable unless the front
// end listed them as non-receivers.
func acceptableReceiver(name decl.QualifiedName) bool {
	kt, ok := lookupKnown(name)
	return !ok || kt.receiver
}
