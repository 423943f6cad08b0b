package bridge

import "github.com/rubiojr/bindplan/decl"

// WrapperSuffix is appended to the bridge name of a declaration that
// needs a shim.
const WrapperSuffix = "bindplan_wrapper"

// ShimReceiverName replaces the receiver parameter name in shim
// signatures.
const ShimReceiverName = "bindplan_gen_this"

// ShimPayload is what the native half of a shim does. The set is closed:
// ConstructorCall, StaticCall and InstanceCall.
type ShimPayload interface {
	isShimPayload()
}

// ConstructorCall allocates a new owning-type value from the arguments.
type ConstructorCall struct{}

// StaticCall calls Owner::NativeName.
type StaticCall struct {
	Namespace  decl.Namespace
	Owner      string
	NativeName string
}

// InstanceCall calls NativeName directly; for methods the receiver is
// the first argument.
type InstanceCall struct {
	Namespace  decl.Namespace
	NativeName string
}

func (ConstructorCall) isShimPayload() {}
func (StaticCall) isShimPayload()      {}
func (InstanceCall) isShimPayload()    {}

// PayloadName is a short label for a payload kind.
func PayloadName(p ShimPayload) string {
	switch p.(type) {
	case ConstructorCall:
		return "constructor"
	case StaticCall:
		return "static_call"
	case InstanceCall:
		return "instance_call"
	default:
		panic("bridge: unhandled shim payload")
	}
}

// ShimDescription describes a synthesized two-sided wrapper. Emitters use
// it as the only source for shim conversions.
type ShimDescription struct {
	Payload ShimPayload
	// WrapperName is the bridge-entry name of the shim.
	WrapperName string
	// ArgConversions are in parameter order, receiver included.
	ArgConversions []ConversionPolicy
	// ReturnConversion is nil for void returns.
	ReturnConversion *ConversionPolicy
	// HasReceiver is set when the first argument is the receiver.
	HasReceiver bool
}
