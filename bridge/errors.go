package bridge

import (
	"errors"
	"fmt"

	"github.com/rubiojr/bindplan/decl"
)

// Declaration-level failures. Every error returned by the analyzer wraps
// exactly one of these, so callers can match with errors.Is.
var (
	ErrInvalidIdentifier           = errors.New("invalid identifier")
	ErrVirtualThisTypeMissing      = errors.New("virtual receiver has no substitute type")
	ErrUnexpectedReceiverShape     = errors.New("receiver is not a pointer to a named type")
	ErrUnresolvedTemplateParameter = errors.New("uses a template parameter the front end could not resolve")
	ErrMoveConstructorUnsupported  = errors.New("move constructors are not supported")
	ErrUnsupportedReceiverType     = errors.New("type cannot be a boundary receiver")
	ErrAmbiguousReferenceReturn    = errors.New("returns a reference but does not take exactly one reference parameter")
)

// ConvertError is a failure with the native location it was found at.
type ConvertError struct {
	Err       error
	Namespace decl.Namespace
	// Item is the function or identifier the problem was found in.
	Item   string
	Detail string
}

func (e *ConvertError) Error() string {
	msg := e.Err.Error()
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Item != "" {
		msg = fmt.Sprintf("%s (in %s)", msg, decl.NewQualifiedName(e.Namespace, e.Item))
	}
	return msg
}

func (e *ConvertError) Unwrap() error { return e.Err }

func convertErr(err error, ns decl.Namespace, item, detail string) *ConvertError {
	return &ConvertError{Err: err, Namespace: ns, Item: item, Detail: detail}
}

// ErrorContext locates a failure within the generated bindings: either a
// free item or a method of an owning type.
type ErrorContext struct {
	Owner string // empty for free functions
	Item  string
}

func (c ErrorContext) String() string {
	if c.Owner == "" {
		return c.Item
	}
	return c.Owner + "::" + c.Item
}

// ContextError attaches the function or method identity to a
// declaration-level failure.
type ContextError struct {
	Err     error
	Context *ErrorContext
}

func (e *ContextError) Error() string {
	if e.Context == nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Context, e.Err)
}

func (e *ContextError) Unwrap() error { return e.Err }

// Code returns a short stable name for the failure class of err, used for
// diagnostics and metric labels.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidIdentifier):
		return "invalid_identifier"
	case errors.Is(err, ErrVirtualThisTypeMissing):
		return "virtual_this_type_missing"
	case errors.Is(err, ErrUnexpectedReceiverShape):
		return "unexpected_receiver_shape"
	case errors.Is(err, ErrUnresolvedTemplateParameter):
		return "unresolved_template_parameter"
	case errors.Is(err, ErrMoveConstructorUnsupported):
		return "move_constructor_unsupported"
	case errors.Is(err, ErrUnsupportedReceiverType):
		return "unsupported_receiver_type"
	case errors.Is(err, ErrAmbiguousReferenceReturn):
		return "ambiguous_reference_return"
	default:
		return "internal"
	}
}
