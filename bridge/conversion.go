package bridge

import "github.com/rubiojr/bindplan/decl"

// Direction says which way a value crosses the boundary.
type Direction int

const (
	Argument Direction = iota
	Return
)

func (d Direction) String() string {
	switch d {
	case Argument:
		return "argument"
	case Return:
		return "return"
	default:
		return "unknown"
	}
}

// ConversionKind is what happens to a value at the boundary.
type ConversionKind int

const (
	// Unconverted values have the same representation on both sides.
	Unconverted ConversionKind = iota
	// FromBorrowedString builds an owned string-like value from a
	// borrowed string view supplied by the managed side.
	FromBorrowedString
	// FromOwnedPointer unwraps an owning pointer handed in by the
	// managed side.
	FromOwnedPointer
	// ToOwnedPointer wraps a returned value in a new owning pointer.
	ToOwnedPointer
)

func (k ConversionKind) String() string {
	switch k {
	case Unconverted:
		return "unconverted"
	case FromBorrowedString:
		return "from_borrowed_string"
	case FromOwnedPointer:
		return "from_owned_pointer"
	case ToOwnedPointer:
		return "to_owned_pointer"
	default:
		return "unknown"
	}
}

// ConversionPolicy pairs a native type with its boundary conversion.
type ConversionPolicy struct {
	Kind ConversionKind
	// Type is the native-side type.
	Type *decl.Type
}

// NativeWorkNeeded reports whether a native-side shim must do work for
// this value.
func (p ConversionPolicy) NativeWorkNeeded() bool {
	switch p.Kind {
	case Unconverted:
		return false
	case FromBorrowedString, FromOwnedPointer, ToOwnedPointer:
		return true
	default:
		panic("bridge: unhandled conversion kind " + p.Kind.String())
	}
}

// BoundaryType is the type as the bridge layer sees it.
func (p ConversionPolicy) BoundaryType() *decl.Type {
	switch p.Kind {
	case Unconverted:
		return p.Type
	case FromBorrowedString:
		return decl.Str()
	case FromOwnedPointer, ToOwnedPointer:
		return decl.Owned(p.Type)
	default:
		panic("bridge: unhandled conversion kind " + p.Kind.String())
	}
}

// Classifier decides the boundary conversion for a type.
type Classifier struct {
	podSafe          map[decl.QualifiedName]bool
	excludeUtilities bool
}

// NewClassifier builds a classifier. podSafe lists types classified as
// trivially copyable by the struct analyses; builtin and by-value-safe
// known types are always included. When excludeUtilities is set, string
// conversion helpers are unavailable and string-like types travel as
// owned pointers.
func NewClassifier(podSafe []decl.QualifiedName, excludeUtilities bool) *Classifier {
	c := &Classifier{podSafe: make(map[decl.QualifiedName]bool), excludeUtilities: excludeUtilities}
	for name, kt := range knownTypes {
		if kt.byValueSafe {
			c.podSafe[decl.ParseQualifiedName(name)] = true
		}
	}
	for _, name := range podSafe {
		c.podSafe[name] = true
	}
	return c
}

// PodSafe reports whether name may cross the boundary by value.
func (c *Classifier) PodSafe(name decl.QualifiedName) bool {
	return c.podSafe[name]
}

// Classify returns the conversion for t travelling in direction dir.
// Only named types are converted; pointers and references cross as-is.
func (c *Classifier) Classify(t *decl.Type, dir Direction) ConversionPolicy {
	if !t.IsNamed() {
		return ConversionPolicy{Kind: Unconverted, Type: t}
	}
	if c.podSafe[t.Name] {
		return ConversionPolicy{Kind: Unconverted, Type: t}
	}
	switch dir {
	case Argument:
		if kt, ok := lookupKnown(t.Name); ok && kt.stringLike && !c.excludeUtilities {
			return ConversionPolicy{Kind: FromBorrowedString, Type: t}
		}
		return ConversionPolicy{Kind: FromOwnedPointer, Type: t}
	case Return:
		return ConversionPolicy{Kind: ToOwnedPointer, Type: t}
	default:
		panic("bridge: unhandled direction " + dir.String())
	}
}
