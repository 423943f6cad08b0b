package decl

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rubiojr/bindplan/scanner"
	"gopkg.in/yaml.v3"
)

// TypeKind is the shape of a Type node.
type TypeKind int

const (
	KindVoid            TypeKind = iota
	KindNamed                    // ns::Name or ns::Name<Args...>
	KindPointer                  // Elem*
	KindReference                // Elem&
	KindRvalueReference          // Elem&&
	KindLiteral                  // non-type template argument (e.g. 4 in std::array<int, 4>)
	KindOwned                    // boundary-side owning pointer handle to Elem
	KindStr                      // boundary-side borrowed string view
)

func (k TypeKind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindNamed:
		return "named"
	case KindPointer:
		return "pointer"
	case KindReference:
		return "reference"
	case KindRvalueReference:
		return "rvalue-reference"
	case KindLiteral:
		return "literal"
	case KindOwned:
		return "owned"
	case KindStr:
		return "str"
	default:
		return "unknown"
	}
}

// Type is a parsed native (or boundary-side) type.
type Type struct {
	Kind    TypeKind
	Name    QualifiedName // KindNamed
	Args    []*Type       // KindNamed template arguments
	Elem    *Type         // KindPointer, KindReference, KindRvalueReference, KindOwned
	Const   bool
	Literal string // KindLiteral
}

// Void returns the void type.
func Void() *Type { return &Type{Kind: KindVoid} }

// Named returns a named type with optional template arguments.
func Named(name QualifiedName, args ...*Type) *Type {
	return &Type{Kind: KindNamed, Name: name, Args: args}
}

// PointerTo returns elem*.
func PointerTo(elem *Type) *Type { return &Type{Kind: KindPointer, Elem: elem} }

// ReferenceTo returns elem&.
func ReferenceTo(elem *Type) *Type { return &Type{Kind: KindReference, Elem: elem} }

// Owned returns the boundary-side owning pointer to elem.
func Owned(elem *Type) *Type { return &Type{Kind: KindOwned, Elem: elem} }

// Str returns the boundary-side borrowed string view.
func Str() *Type { return &Type{Kind: KindStr} }

// IsVoid reports whether t is void (a nil type counts as void).
func (t *Type) IsVoid() bool { return t == nil || t.Kind == KindVoid }

// IsNamed reports whether t is a named type.
func (t *Type) IsNamed() bool { return t != nil && t.Kind == KindNamed }

// IsReference reports whether t is an lvalue reference.
func (t *Type) IsReference() bool { return t != nil && t.Kind == KindReference }

// IsPointer reports whether t is a raw pointer.
func (t *Type) IsPointer() bool { return t != nil && t.Kind == KindPointer }

// IsTemplate reports whether t is a named type with template arguments.
func (t *Type) IsTemplate() bool { return t.IsNamed() && len(t.Args) > 0 }

// Clone returns a deep copy of t.
func (t *Type) Clone() *Type {
	if t == nil {
		return nil
	}
	c := *t
	c.Elem = t.Elem.Clone()
	if t.Args != nil {
		c.Args = make([]*Type, len(t.Args))
		for i, a := range t.Args {
			c.Args[i] = a.Clone()
		}
	}
	return &c
}

// Equal reports whether two types have the same spelling.
func (t *Type) Equal(o *Type) bool {
	return t.String() == o.String()
}

// Walk calls fn for t and every nested type, parents first.
func (t *Type) Walk(fn func(*Type)) {
	if t == nil {
		return
	}
	fn(t)
	t.Elem.Walk(fn)
	for _, a := range t.Args {
		a.Walk(fn)
	}
}

// String returns the canonical spelling of t.
func (t *Type) String() string {
	if t == nil {
		return "void"
	}
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t *Type) write(sb *strings.Builder) {
	if t.Const && t.Kind != KindPointer {
		sb.WriteString("const ")
	}
	switch t.Kind {
	case KindVoid:
		sb.WriteString("void")
	case KindNamed:
		sb.WriteString(t.Name.String())
		if len(t.Args) > 0 {
			sb.WriteByte('<')
			for i, a := range t.Args {
				if i > 0 {
					sb.WriteString(", ")
				}
				a.write(sb)
			}
			sb.WriteByte('>')
		}
	case KindPointer:
		t.Elem.write(sb)
		sb.WriteByte('*')
		if t.Const {
			sb.WriteString(" const")
		}
	case KindReference:
		t.Elem.write(sb)
		sb.WriteByte('&')
	case KindRvalueReference:
		t.Elem.write(sb)
		sb.WriteString("&&")
	case KindLiteral:
		sb.WriteString(t.Literal)
	case KindOwned:
		sb.WriteString("owned<")
		t.Elem.write(sb)
		sb.WriteByte('>')
	case KindStr:
		sb.WriteString("str")
	}
}

// ParseType parses a native type spelling such as "const ns::Widget*",
// "std::vector<std::string>&" or "unsigned int".
func ParseType(spelling string) (*Type, error) {
	s := strings.TrimSpace(spelling)
	if s == "" {
		return nil, fmt.Errorf("empty type spelling")
	}
	if !scanner.Balanced(s) {
		return nil, fmt.Errorf("unbalanced brackets in type %q", spelling)
	}
	t, err := parseType(s)
	if err != nil {
		return nil, fmt.Errorf("parsing type %q: %w", spelling, err)
	}
	return t, nil
}

func parseType(s string) (*Type, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return nil, fmt.Errorf("missing type")
	case strings.HasSuffix(s, "&&"):
		return wrap(KindRvalueReference, s[:len(s)-2])
	case strings.HasSuffix(s, "&"):
		return wrap(KindReference, s[:len(s)-1])
	case strings.HasSuffix(s, "*"):
		return wrap(KindPointer, s[:len(s)-1])
	case strings.HasSuffix(s, " const") && strings.HasSuffix(strings.TrimSpace(s[:len(s)-len(" const")]), "*"):
		t, err := parseType(s[:len(s)-len(" const")])
		if err != nil {
			return nil, err
		}
		t.Const = true
		return t, nil
	case strings.HasSuffix(s, " const"):
		return constOf(s[:len(s)-len(" const")])
	case strings.HasPrefix(s, "const "):
		return constOf(s[len("const "):])
	case s == "void":
		return Void(), nil
	case isLiteral(s):
		return &Type{Kind: KindLiteral, Literal: s}, nil
	}
	return parseNamed(s)
}

func wrap(kind TypeKind, inner string) (*Type, error) {
	elem, err := parseType(inner)
	if err != nil {
		return nil, err
	}
	return &Type{Kind: kind, Elem: elem}, nil
}

func constOf(inner string) (*Type, error) {
	t, err := parseType(inner)
	if err != nil {
		return nil, err
	}
	t.Const = true
	return t, nil
}

func parseNamed(s string) (*Type, error) {
	lt := scanner.FindTopLevel(s, func(ch byte, _ int, _ string) bool { return ch == '<' })
	if lt < 0 {
		name, err := parseTypeName(s)
		if err != nil {
			return nil, err
		}
		return Named(name), nil
	}
	if !strings.HasSuffix(s, ">") {
		return nil, fmt.Errorf("unexpected text after template arguments in %q", s)
	}
	name, err := parseTypeName(s[:lt])
	if err != nil {
		return nil, err
	}
	t := Named(name)
	for _, part := range scanner.SplitTopLevel(s[lt+1:len(s)-1], ',') {
		arg, err := parseType(part)
		if err != nil {
			return nil, err
		}
		t.Args = append(t.Args, arg)
	}
	return t, nil
}

// parseTypeName accepts identifiers separated by "::"; multi-word builtin
// names ("unsigned long long") are normalized to single spaces.
func parseTypeName(s string) (QualifiedName, error) {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimPrefix(s, "::")
	for _, seg := range strings.Split(s, "::") {
		if seg == "" {
			return QualifiedName{}, fmt.Errorf("empty name segment in %q", s)
		}
		for _, word := range strings.Split(seg, " ") {
			if !isIdent(word) {
				return QualifiedName{}, fmt.Errorf("invalid name segment %q", seg)
			}
		}
	}
	return ParseQualifiedName(s), nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func isLiteral(s string) bool {
	c := s[0]
	return c == '\'' || c == '"' || c == '-' || (c >= '0' && c <= '9') || s == "true" || s == "false"
}

// MarshalJSON encodes the type as its spelling.
func (t *Type) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a type from its spelling.
func (t *Type) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseType(s)
	if err != nil {
		return err
	}
	*t = *parsed
	return nil
}

// MarshalYAML encodes the type as its spelling.
func (t *Type) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

// UnmarshalYAML decodes a type from its spelling.
func (t *Type) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseType(s)
	if err != nil {
		return err
	}
	*t = *parsed
	return nil
}
