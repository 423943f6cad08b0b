package bridge

import "github.com/rubiojr/bindplan/decl"

// MethodKind classifies a method.
type MethodKind int

const (
	Normal MethodKind = iota
	Constructor
	Static
	Virtual
	PureVirtual
)

func (k MethodKind) String() string {
	switch k {
	case Normal:
		return "normal"
	case Constructor:
		return "constructor"
	case Static:
		return "static"
	case Virtual:
		return "virtual"
	case PureVirtual:
		return "pure_virtual"
	default:
		return "unknown"
	}
}

// FnKind is either Function or Method. The set is closed: consumers
// switch over both and panic on anything else.
type FnKind interface {
	isFnKind()
	String() string
}

// Function is a free function.
type Function struct{}

// Method is a member of Owner.
type Method struct {
	Owner decl.QualifiedName
	Kind  MethodKind
}

func (Function) isFnKind() {}
func (Method) isFnKind()   {}

func (Function) String() string { return "function" }
func (m Method) String() string { return "method(" + m.Owner.String() + ", " + m.Kind.String() + ")" }

// methodOf returns the Method if k is one.
func methodOf(k FnKind) (Method, bool) {
	m, ok := k.(Method)
	return m, ok
}

// RenameKind is how the managed-visible name is attached to the bridge
// entry.
type RenameKind int

const (
	// NoRenameNeeded: the bridge name is already the managed name.
	NoRenameNeeded RenameKind = iota
	// RenameViaAttribute: a rename annotation on the bridge entry.
	RenameViaAttribute
	// RenameViaAliasExport: the managed name is taken, so the bridge
	// entry is exported under its own name and aliased in an output
	// module.
	RenameViaAliasExport
)

func (k RenameKind) String() string {
	switch k {
	case NoRenameNeeded:
		return "none"
	case RenameViaAttribute:
		return "attribute"
	case RenameViaAliasExport:
		return "alias_export"
	default:
		return "unknown"
	}
}

// RenameStrategy drives only the emitted naming directive.
type RenameStrategy struct {
	Kind RenameKind
	// Alias is the desired managed name for RenameViaAliasExport.
	Alias string
}
