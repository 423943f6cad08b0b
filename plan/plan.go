// Package plan is the emitter-facing rendition of an analysis run: every
// surviving declaration with its names, signature, conversions and shim
// description, plus the auxiliary APIs and the diagnostics of the run.
//
// A plan document is deterministic for a given input. The run id is kept
// in memory for logging and is not written, so re-running on the same
// input produces byte-identical files.
package plan

import (
	"sort"

	"github.com/rubiojr/bindplan/bridge"
)

// Plan is one run's output.
type Plan struct {
	RunID       string       `json:"-" yaml:"-"`
	Functions   []*Function  `json:"functions" yaml:"functions"`
	ExtraAPIs   []ExtraAPI   `json:"extra_apis,omitempty" yaml:"extra_apis,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Dropped     []Dropped    `json:"dropped,omitempty" yaml:"dropped,omitempty"`

	namespaces map[string]*Namespace
}

// Function is one bridged function or method.
type Function struct {
	Key       string `json:"key" yaml:"key"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	// Kind is "function" or one of the method kinds.
	Kind           string   `json:"kind" yaml:"kind"`
	Owner          string   `json:"owner,omitempty" yaml:"owner,omitempty"`
	BridgeName     string   `json:"bridge_name" yaml:"bridge_name"`
	ManagedName    string   `json:"managed_name" yaml:"managed_name"`
	Ident          string   `json:"ident" yaml:"ident"`
	NativeName     string   `json:"native_name" yaml:"native_name"`
	Rename         string   `json:"rename" yaml:"rename"`
	Alias          string   `json:"alias,omitempty" yaml:"alias,omitempty"`
	Params         []Param  `json:"params,omitempty" yaml:"params,omitempty"`
	Args           []Arg    `json:"args,omitempty" yaml:"args,omitempty"`
	Return         string   `json:"return,omitempty" yaml:"return,omitempty"`
	RequiresUnsafe bool     `json:"requires_unsafe,omitempty" yaml:"requires_unsafe,omitempty"`
	Visibility     string   `json:"visibility" yaml:"visibility"`
	AllowlistName  string   `json:"allowlist_name" yaml:"allowlist_name"`
	Shim           *Shim    `json:"shim,omitempty" yaml:"shim,omitempty"`
	Deps           []string `json:"deps,omitempty" yaml:"deps,omitempty"`
}

// Param is a bridge-visible parameter.
type Param struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// Arg is the analysis of one bridge-visible argument.
type Arg struct {
	Name       string     `json:"name" yaml:"name"`
	Type       string     `json:"type" yaml:"type"`
	Conversion Conversion `json:"conversion" yaml:"conversion"`
	// SelfType is the owning type when the argument is the receiver.
	SelfType       string   `json:"self_type,omitempty" yaml:"self_type,omitempty"`
	WasReference   bool     `json:"was_reference,omitempty" yaml:"was_reference,omitempty"`
	IsVirtual      bool     `json:"is_virtual,omitempty" yaml:"is_virtual,omitempty"`
	RequiresUnsafe bool     `json:"requires_unsafe,omitempty" yaml:"requires_unsafe,omitempty"`
	Deps           []string `json:"deps,omitempty" yaml:"deps,omitempty"`
}

// Shim describes a synthesized wrapper.
type Shim struct {
	Payload     string       `json:"payload" yaml:"payload"`
	Namespace   string       `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Owner       string       `json:"owner,omitempty" yaml:"owner,omitempty"`
	NativeName  string       `json:"native_name,omitempty" yaml:"native_name,omitempty"`
	WrapperName string       `json:"wrapper_name" yaml:"wrapper_name"`
	Args        []Conversion `json:"args,omitempty" yaml:"args,omitempty"`
	Return      *Conversion  `json:"return,omitempty" yaml:"return,omitempty"`
	HasReceiver bool         `json:"has_receiver,omitempty" yaml:"has_receiver,omitempty"`
}

// Conversion is a boundary conversion of one value.
type Conversion struct {
	Kind     string `json:"kind" yaml:"kind"`
	Native   string `json:"native" yaml:"native"`
	Boundary string `json:"boundary" yaml:"boundary"`
}

// ExtraAPI is an auxiliary declaration for the next pass.
type ExtraAPI struct {
	Kind          string `json:"kind" yaml:"kind"`
	Name          string `json:"name" yaml:"name"`
	Instantiation string `json:"instantiation,omitempty" yaml:"instantiation,omitempty"`
}

// Diagnostic is a declaration that failed analysis.
type Diagnostic struct {
	Key     string `json:"key" yaml:"key"`
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
}

// Dropped is a declaration filtered out without error.
type Dropped struct {
	Key    string `json:"key" yaml:"key"`
	Reason string `json:"reason" yaml:"reason"`
}

// Build converts an analyzer output into a plan.
func Build(out *bridge.Output, runID string) *Plan {
	p := &Plan{RunID: runID}
	for _, r := range out.Results {
		p.Functions = append(p.Functions, newFunction(r))
	}
	for _, e := range out.ExtraAPIs {
		extra := ExtraAPI{Kind: e.Kind.String(), Name: e.Name.String()}
		if e.Instantiation != nil {
			extra.Instantiation = e.Instantiation.String()
		}
		p.ExtraAPIs = append(p.ExtraAPIs, extra)
	}
	for _, d := range out.Diagnostics {
		p.Diagnostics = append(p.Diagnostics, Diagnostic{Key: d.Key, Code: d.Code, Message: d.Err.Error()})
	}
	for _, d := range out.Dropped {
		p.Dropped = append(p.Dropped, Dropped{Key: d.Key, Reason: d.Reason})
	}
	return p
}

func newFunction(r *bridge.Result) *Function {
	f := &Function{
		Key:            r.Decl.Key(),
		Namespace:      string(r.Namespace),
		BridgeName:     r.BridgeName,
		ManagedName:    r.ManagedName,
		Ident:          r.Ident,
		NativeName:     r.EffectiveNativeName(),
		Rename:         r.Rename.Kind.String(),
		Alias:          r.Rename.Alias,
		RequiresUnsafe: r.RequiresUnsafe,
		Visibility:     string(r.Visibility),
		AllowlistName:  r.AllowlistName(),
	}
	switch k := r.Kind.(type) {
	case bridge.Function:
		f.Kind = k.String()
	case bridge.Method:
		f.Kind = k.Kind.String()
		f.Owner = k.Owner.String()
	default:
		panic("plan: unhandled function kind")
	}
	for _, p := range r.Params {
		f.Params = append(f.Params, Param{Name: p.Name, Type: p.Type.String()})
	}
	for _, a := range r.Args {
		f.Args = append(f.Args, newArg(a))
	}
	if !r.Return.IsVoid() {
		f.Return = r.Return.String()
	}
	for _, d := range r.SortedDeps() {
		f.Deps = append(f.Deps, d.String())
	}
	if r.Shim != nil {
		f.Shim = newShim(r.Shim)
	}
	return f
}

func newShim(s *bridge.ShimDescription) *Shim {
	out := &Shim{
		Payload:     bridge.PayloadName(s.Payload),
		WrapperName: s.WrapperName,
		HasReceiver: s.HasReceiver,
	}
	switch p := s.Payload.(type) {
	case bridge.ConstructorCall:
	case bridge.StaticCall:
		out.Namespace = string(p.Namespace)
		out.Owner = p.Owner
		out.NativeName = p.NativeName
	case bridge.InstanceCall:
		out.Namespace = string(p.Namespace)
		out.NativeName = p.NativeName
	default:
		panic("plan: unhandled shim payload")
	}
	for _, c := range s.ArgConversions {
		out.Args = append(out.Args, newConversion(c))
	}
	if s.ReturnConversion != nil {
		c := newConversion(*s.ReturnConversion)
		out.Return = &c
	}
	return out
}

func newArg(a bridge.ArgumentAnalysis) Arg {
	arg := Arg{
		Name:           a.Name,
		Type:           a.Type.String(),
		Conversion:     newConversion(a.Conversion),
		WasReference:   a.WasReference,
		IsVirtual:      a.IsVirtual,
		RequiresUnsafe: a.RequiresUnsafe,
	}
	if a.SelfType != nil {
		arg.SelfType = a.SelfType.String()
	}
	for dep := range a.Deps {
		arg.Deps = append(arg.Deps, dep.String())
	}
	sort.Strings(arg.Deps)
	return arg
}

func newConversion(c bridge.ConversionPolicy) Conversion {
	return Conversion{Kind: c.Kind.String(), Native: c.Type.String(), Boundary: c.BoundaryType().String()}
}

// Namespace groups the functions of one native namespace.
type Namespace struct {
	Name      string
	Functions []*Function
}

func (p *Plan) index() {
	if p.namespaces != nil {
		return
	}
	p.namespaces = make(map[string]*Namespace)
	for _, f := range p.Functions {
		ns, ok := p.namespaces[f.Namespace]
		if !ok {
			ns = &Namespace{Name: f.Namespace}
			p.namespaces[f.Namespace] = ns
		}
		ns.Functions = append(ns.Functions, f)
	}
}

// Namespaces returns the namespaces that have functions, sorted by name.
// The root namespace is "".
func (p *Plan) Namespaces() []*Namespace {
	p.index()
	names := make([]string, 0, len(p.namespaces))
	for name := range p.namespaces {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*Namespace, 0, len(names))
	for _, name := range names {
		out = append(out, p.namespaces[name])
	}
	return out
}

// Lookup finds functions by managed name, bridge name or declaration key.
// An owner-qualified managed name ("ns::Widget::resize") selects a method.
func (p *Plan) Lookup(name string) []*Function {
	var out []*Function
	for _, f := range p.Functions {
		switch {
		case f.Key == name, f.BridgeName == name, f.ManagedName == name, f.Ident == name:
			out = append(out, f)
		case f.Owner != "" && f.Owner+"::"+f.ManagedName == name:
			out = append(out, f)
		}
	}
	return out
}

// Failed reports whether any declaration failed analysis.
func (p *Plan) Failed() bool { return len(p.Diagnostics) > 0 }
