package bridge

import (
	"strconv"
	"strings"

	"github.com/rubiojr/bindplan/decl"
)

// ExtraKind is the kind of an auxiliary API discovered during analysis.
type ExtraKind int

const (
	// ExtraConcreteType is a template instantiation that needs a
	// synthesized, flat-named concrete type.
	ExtraConcreteType ExtraKind = iota
	// ExtraStringConstructor is the utility that builds a native string
	// from a borrowed string view.
	ExtraStringConstructor
)

func (k ExtraKind) String() string {
	switch k {
	case ExtraConcreteType:
		return "concrete_type"
	case ExtraStringConstructor:
		return "string_constructor"
	default:
		return "unknown"
	}
}

// ExtraAPI is an auxiliary declaration queued for a later pass instead of
// being analyzed recursively.
type ExtraAPI struct {
	Kind ExtraKind
	Name decl.QualifiedName
	// Instantiation is the original template instantiation for
	// ExtraConcreteType.
	Instantiation *decl.Type
}

// StringConstructorName is the utility queued by the first string
// conversion of a run.
const StringConstructorName = "make_string"

// concretePrefix starts every synthesized concrete type name.
const concretePrefix = "Concrete_"

// convertedType is a type after boundary conversion, with what the
// conversion learned about it.
type convertedType struct {
	ty             *decl.Type
	deps           map[decl.QualifiedName]bool
	requiresUnsafe bool
	extras         []ExtraAPI
}

// typeConverter rewrites native types into the shapes the bridge layer
// accepts. It remembers the concrete types it has synthesized so each
// instantiation is queued once per run.
type typeConverter struct {
	concrete map[string]decl.QualifiedName // instantiation spelling → synthesized name
	names    map[string]bool
}

func newTypeConverter() *typeConverter {
	return &typeConverter{concrete: make(map[string]decl.QualifiedName), names: make(map[string]bool)}
}

// convert clones t, turns a top-level pointer into a reference when
// ptrsToRefs is set, replaces unknown template instantiations with
// synthesized concrete types, and collects dependencies.
func (c *typeConverter) convert(t *decl.Type, ptrsToRefs bool) convertedType {
	out := convertedType{ty: t.Clone(), deps: make(map[decl.QualifiedName]bool)}
	if ptrsToRefs && out.ty.IsPointer() {
		out.ty.Kind = decl.KindReference
		out.ty.Const = false
	}
	out.ty = c.rewrite(out.ty, &out)
	return out
}

func (c *typeConverter) rewrite(t *decl.Type, out *convertedType) *decl.Type {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case decl.KindPointer:
		out.requiresUnsafe = true
		t.Elem = c.rewrite(t.Elem, out)
	case decl.KindReference, decl.KindRvalueReference, decl.KindOwned:
		t.Elem = c.rewrite(t.Elem, out)
	case decl.KindNamed:
		for i, a := range t.Args {
			t.Args[i] = c.rewrite(a, out)
		}
		if len(t.Args) > 0 && !isKnownContainer(t.Name) {
			name := c.concreteName(t, out)
			out.deps[name] = true
			return &decl.Type{Kind: decl.KindNamed, Name: name, Const: t.Const}
		}
		if !isBuiltin(t.Name) {
			out.deps[t.Name] = true
		}
	case decl.KindVoid, decl.KindLiteral, decl.KindStr:
	}
	return t
}

func (c *typeConverter) concreteName(t *decl.Type, out *convertedType) decl.QualifiedName {
	inst := t.Clone()
	inst.Const = false
	spelling := inst.String()
	if name, ok := c.concrete[spelling]; ok {
		return name
	}
	base := concretePrefix + sanitizeIdent(spelling)
	candidate := base
	for n := 1; c.names[candidate]; n++ {
		candidate = base + "_" + strconv.Itoa(n)
	}
	name := decl.NewQualifiedName("", candidate)
	c.names[candidate] = true
	c.concrete[spelling] = name
	out.extras = append(out.extras, ExtraAPI{Kind: ExtraConcreteType, Name: name, Instantiation: inst})
	return name
}

// sanitizeIdent maps a type spelling to identifier characters, collapsing
// runs of separators into a single underscore.
func sanitizeIdent(s string) string {
	var out []byte
	pendingSep := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			pendingSep = true
			continue
		}
		if c == '_' && len(out) > 0 && out[len(out)-1] == '_' {
			continue
		}
		if pendingSep && len(out) > 0 && c != '_' && out[len(out)-1] != '_' {
			out = append(out, '_')
		}
		pendingSep = false
		out = append(out, c)
	}
	return strings.Trim(string(out), "_")
}
