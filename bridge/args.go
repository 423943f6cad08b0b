package bridge

import (
	"github.com/rubiojr/bindplan/decl"
)

// SelfParam is the name a receiver parameter takes after analysis.
const SelfParam = "self"

// ArgumentAnalysis is what the analyzer learned about one parameter.
type ArgumentAnalysis struct {
	Conversion ConversionPolicy
	// Name is the parameter name after analysis ("self" for receivers).
	Name string
	// Type is the converted native type.
	Type *decl.Type
	// SelfType is set when the parameter is the receiver.
	SelfType *decl.QualifiedName
	// WasReference is set when the converted type is a reference.
	WasReference bool
	Deps         map[decl.QualifiedName]bool
	// IsVirtual marks a receiver that stood in for virtual dispatch.
	IsVirtual      bool
	RequiresUnsafe bool
}

// ReturnTypeAnalysis is what the analyzer learned about a return type.
type ReturnTypeAnalysis struct {
	// Type is nil for void returns.
	Type *decl.Type
	// Conversion is nil for void returns.
	Conversion   *ConversionPolicy
	WasReference bool
	Deps         map[decl.QualifiedName]bool
}

// convertParam analyzes one parameter of d.
func (a *Analyzer) convertParam(d *decl.Declaration, p decl.Param, refParams map[string]bool) (ArgumentAnalysis, error) {
	ty := p.Type
	name := p.Name
	var selfType *decl.QualifiedName
	isVirtual := false
	treatAsReference := false

	if p.Name == decl.ReceiverParam {
		if !ty.IsPointer() || ty.Elem == nil {
			return ArgumentAnalysis{}, convertErr(ErrUnexpectedReceiverShape, d.Namespace, d.DisplayName(), "")
		}
		switch ty.Elem.Kind {
		case decl.KindNamed:
			owner := ty.Elem.Name
			selfType = &owner
		case decl.KindVoid:
			if d.VirtualReceiver == nil {
				return ArgumentAnalysis{}, convertErr(ErrVirtualThisTypeMissing, d.Namespace, d.DisplayName(), "")
			}
			isVirtual = true
			owner := *d.VirtualReceiver
			selfType = &owner
			ty = decl.PointerTo(&decl.Type{Kind: decl.KindNamed, Name: owner, Const: ty.Elem.Const})
		default:
			return ArgumentAnalysis{}, convertErr(ErrUnexpectedReceiverShape, d.Namespace, d.DisplayName(), "")
		}
		name = SelfParam
		treatAsReference = true
	} else {
		if err := ValidBridgeIdent(p.Name); err != nil {
			return ArgumentAnalysis{}, convertErr(err, d.Namespace, d.DisplayName(), "parameter "+p.Name)
		}
		treatAsReference = refParams[p.Name]
	}

	converted := a.types.convert(ty, treatAsReference)
	a.queue(converted.extras...)
	conversion := a.classifier.Classify(converted.ty, Argument)
	if conversion.Kind == FromBorrowedString {
		a.queueStringConstructor()
	}
	return ArgumentAnalysis{
		Conversion:     conversion,
		Name:           name,
		Type:           converted.ty,
		SelfType:       selfType,
		WasReference:   converted.ty.IsReference(),
		Deps:           converted.deps,
		IsVirtual:      isVirtual,
		RequiresUnsafe: converted.requiresUnsafe,
	}, nil
}

// convertReturn analyzes the return type of d. A pointer return flagged
// as a reference by the front end becomes a reference.
func (a *Analyzer) convertReturn(d *decl.Declaration) ReturnTypeAnalysis {
	if d.Return.IsVoid() {
		return ReturnTypeAnalysis{Deps: map[decl.QualifiedName]bool{}}
	}
	converted := a.types.convert(d.Return, d.ReferenceReturn)
	a.queue(converted.extras...)
	conversion := a.classifier.Classify(converted.ty, Return)
	return ReturnTypeAnalysis{
		Type:         converted.ty,
		Conversion:   &conversion,
		WasReference: converted.ty.IsReference(),
		Deps:         converted.deps,
	}
}

// constructorReturn is the forced return of a constructor: a new owned
// value of the owning type.
func constructorReturn(owner decl.QualifiedName) ReturnTypeAnalysis {
	ty := decl.Named(owner)
	conversion := ConversionPolicy{Kind: ToOwnedPointer, Type: ty}
	return ReturnTypeAnalysis{
		Type:       ty,
		Conversion: &conversion,
		Deps:       map[decl.QualifiedName]bool{owner: true},
	}
}
