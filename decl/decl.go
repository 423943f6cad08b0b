// Package decl holds the declarations handed to bindplan by the header
// ingestion front end: native function and method signatures, their owning
// types and namespaces, and the special-member annotations the front end
// attached to them.
package decl

import (
	"encoding/json"
	"strings"

	"github.com/rubiojr/bindplan/scanner"
	"gopkg.in/yaml.v3"
)

// Namespace is a native namespace path spelled with "::" separators.
// The empty namespace is the root.
type Namespace string

// Segments returns the namespace path components.
func (ns Namespace) Segments() []string {
	if ns == "" {
		return nil
	}
	return strings.Split(string(ns), "::")
}

// IsRoot reports whether ns is the root namespace.
func (ns Namespace) IsRoot() bool { return ns == "" }

// QualifiedName is a namespace plus a final item name.
type QualifiedName struct {
	NS   Namespace
	Name string
}

// NewQualifiedName builds a QualifiedName.
func NewQualifiedName(ns Namespace, name string) QualifiedName {
	return QualifiedName{NS: ns, Name: name}
}

// ParseQualifiedName splits "a::b::C" into namespace "a::b" and name "C".
// Separators inside template brackets are ignored.
func ParseQualifiedName(s string) QualifiedName {
	s = strings.TrimPrefix(strings.TrimSpace(s), "::")
	positions := scanner.FindAllTopLevel(s, func(ch byte, pos int, src string) bool {
		return ch == ':' && pos+1 < len(src) && src[pos+1] == ':'
	})
	if len(positions) == 0 {
		return QualifiedName{Name: s}
	}
	last := positions[len(positions)-1]
	return QualifiedName{NS: Namespace(s[:last]), Name: s[last+2:]}
}

// String returns the native spelling ("ns::Name").
func (q QualifiedName) String() string {
	if q.NS == "" {
		return q.Name
	}
	return string(q.NS) + "::" + q.Name
}

// IsZero reports whether q is unset.
func (q QualifiedName) IsZero() bool { return q.NS == "" && q.Name == "" }

// MarshalJSON encodes q as its native spelling.
func (q QualifiedName) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.String())
}

// UnmarshalJSON decodes q from its native spelling.
func (q *QualifiedName) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*q = ParseQualifiedName(s)
	return nil
}

// MarshalYAML encodes q as its native spelling.
func (q QualifiedName) MarshalYAML() (interface{}, error) {
	return q.String(), nil
}

// UnmarshalYAML decodes q from its native spelling.
func (q *QualifiedName) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	*q = ParseQualifiedName(s)
	return nil
}

// Visibility is the declared visibility of a binding, passed through
// unchanged to the emitters.
type Visibility string

const (
	Public  Visibility = "public"
	Private Visibility = "private"
)

// Special-member annotations emitted by the front end.
const (
	SpecialMoveConstructor = "move_ctor"
	SpecialCopyConstructor = "copy_ctor"
)

// ReceiverParam is the reserved parameter name the front end gives to the
// implicit receiver of a method.
const ReceiverParam = "this"

// DestructorSuffix marks front-end identifiers of destructors.
const DestructorSuffix = "_destructor"

// Param is one native parameter.
type Param struct {
	Name string `json:"name" yaml:"name"`
	Type *Type  `json:"type" yaml:"type"`
}

// Declaration is one candidate function or method from the front end.
type Declaration struct {
	// Namespace is the native namespace the declaration lives in.
	Namespace Namespace `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	// Ident is the front-end identifier, already disambiguated by the
	// front end (e.g. "Widget_resize", "move_", "foo1").
	Ident string `json:"ident" yaml:"ident"`
	// NativeName is the native-visible name when it differs from Ident.
	NativeName string `json:"native_name,omitempty" yaml:"native_name,omitempty"`
	// Owner is the owning type for methods, including static methods that
	// have no receiver parameter.
	Owner *QualifiedName `json:"owner,omitempty" yaml:"owner,omitempty"`
	// Params are the native parameters in order.
	Params []Param `json:"params,omitempty" yaml:"params,omitempty"`
	// Return is the native return type; nil means void.
	Return *Type `json:"return,omitempty" yaml:"return,omitempty"`
	// PureVirtual marks pure-virtual methods.
	PureVirtual bool `json:"pure_virtual,omitempty" yaml:"pure_virtual,omitempty"`
	// SpecialMember is the front end's special-member annotation
	// (e.g. "move_ctor"), if any.
	SpecialMember string `json:"special_member,omitempty" yaml:"special_member,omitempty"`
	// ReferenceParams names parameters the front end flagged as native
	// references that it spelled as pointers.
	ReferenceParams []string `json:"reference_params,omitempty" yaml:"reference_params,omitempty"`
	// ReferenceReturn flags a return type that is a native reference.
	ReferenceReturn bool `json:"reference_return,omitempty" yaml:"reference_return,omitempty"`
	// UnresolvedTemplate flags a parameter or return that uses a template
	// parameter the front end could not resolve.
	UnresolvedTemplate bool `json:"unresolved_template,omitempty" yaml:"unresolved_template,omitempty"`
	// VirtualReceiver is the true owning type to substitute for an opaque
	// void receiver of a virtual method.
	VirtualReceiver *QualifiedName `json:"virtual_receiver,omitempty" yaml:"virtual_receiver,omitempty"`
	// Visibility is passed through to the result.
	Visibility Visibility `json:"visibility,omitempty" yaml:"visibility,omitempty"`
}

// IsDestructor reports whether the declaration is a destructor, which is
// handled by a separate lifecycle mechanism.
func (d *Declaration) IsDestructor() bool {
	return strings.HasSuffix(d.Ident, DestructorSuffix)
}

// IsMoveConstructor reports whether the front end annotated the
// declaration as a move constructor.
func (d *Declaration) IsMoveConstructor() bool {
	return d.SpecialMember == SpecialMoveConstructor
}

// ReferenceParamSet returns ReferenceParams as a set.
func (d *Declaration) ReferenceParamSet() map[string]bool {
	set := make(map[string]bool, len(d.ReferenceParams))
	for _, p := range d.ReferenceParams {
		set[p] = true
	}
	return set
}

// DisplayName is the name used in diagnostics before analysis has
// settled on a final name.
func (d *Declaration) DisplayName() string {
	if d.NativeName != "" {
		return d.NativeName
	}
	return d.Ident
}

// Key identifies a declaration across re-generations: namespace, owner and
// front-end identifier.
func (d *Declaration) Key() string {
	var parts []string
	if d.Namespace != "" {
		parts = append(parts, string(d.Namespace))
	}
	if d.Owner != nil {
		parts = append(parts, d.Owner.Name)
	}
	parts = append(parts, d.Ident)
	return strings.Join(parts, "::")
}
