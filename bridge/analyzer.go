// Package bridge decides how native functions and methods cross the
// managed/native boundary. For each declaration it resolves the kind of
// function, the three names involved (native, bridge-entry, managed), the
// boundary conversion of every argument and the return value, and whether
// a two-sided shim has to be synthesized.
//
// An Analyzer holds the naming registries for one generation run.
// Declarations are processed strictly in order, because every naming
// decision depends on the ones made before it.
package bridge

import (
	"errors"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/rubiojr/bindplan/decl"
)

// ConstructorName is the managed name given to constructors. Overloaded
// constructors of one owner are numbered in first-seen order
// (make_unique, make_unique1, ...) whatever their native spelling.
const ConstructorName = "make_unique"

// UnsafePolicy selects when generated functions are marked unsafe.
type UnsafePolicy int

const (
	// AllFunctionsSafe marks a function unsafe only when one of its
	// arguments requires it.
	AllFunctionsSafe UnsafePolicy = iota
	// AllFunctionsUnsafe marks every generated function unsafe.
	AllFunctionsUnsafe
)

func (p UnsafePolicy) String() string {
	switch p {
	case AllFunctionsSafe:
		return "all_functions_safe"
	case AllFunctionsUnsafe:
		return "all_functions_unsafe"
	default:
		return "unknown"
	}
}

// ParseUnsafePolicy parses the configuration spelling of a policy.
func ParseUnsafePolicy(s string) (UnsafePolicy, error) {
	switch s {
	case "", "all_functions_safe":
		return AllFunctionsSafe, nil
	case "all_functions_unsafe":
		return AllFunctionsUnsafe, nil
	default:
		return 0, errors.New("unknown unsafe policy " + s)
	}
}

// Allowlist decides which owning types get methods generated.
type Allowlist interface {
	Allowed(name decl.QualifiedName) bool
}

// AllowTypes is an Allowlist of exact type names.
type AllowTypes map[decl.QualifiedName]bool

// NewAllowTypes builds an AllowTypes from native spellings.
func NewAllowTypes(names ...string) AllowTypes {
	set := make(AllowTypes, len(names))
	for _, n := range names {
		set[decl.ParseQualifiedName(n)] = true
	}
	return set
}

func (s AllowTypes) Allowed(name decl.QualifiedName) bool { return s[name] }

// Options configure one run.
type Options struct {
	// Allowlist gates method generation. Nil allows no owning type, so
	// methods are only generated for explicitly listed owners.
	Allowlist    Allowlist
	UnsafePolicy UnsafePolicy
	// ExcludeUtilities disables the string conversion helpers.
	ExcludeUtilities bool
	// PodSafeTypes may cross the boundary by value.
	PodSafeTypes []decl.QualifiedName
	// NonReceiverTypes cannot be method receivers (abstract types).
	NonReceiverTypes []decl.QualifiedName
	// Reserved are extra managed-language keywords.
	Reserved []string
}

// Analyzer runs the per-declaration analysis. It is not safe for
// concurrent use.
type Analyzer struct {
	opts         Options
	log          *slog.Logger
	classifier   *Classifier
	grammar      *Grammar
	nonReceivers map[decl.QualifiedName]bool
	types        *typeConverter

	bridgeNames  *BridgeNames
	managedNames *ManagedNames
	overloads    *Overloads

	extras        []ExtraAPI
	stringCtorSet bool
}

// NewAnalyzer returns an analyzer with fresh registries. A nil logger
// discards log output.
func NewAnalyzer(opts Options, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	a := &Analyzer{
		opts:         opts,
		log:          logger,
		classifier:   NewClassifier(opts.PodSafeTypes, opts.ExcludeUtilities),
		grammar:      NewGrammar(opts.Reserved...),
		nonReceivers: make(map[decl.QualifiedName]bool, len(opts.NonReceiverTypes)),
		types:        newTypeConverter(),
		bridgeNames:  NewBridgeNames(),
		managedNames: NewManagedNames(),
		overloads:    NewOverloads(),
	}
	for _, n := range opts.NonReceiverTypes {
		a.nonReceivers[n] = true
	}
	return a
}

// Result is the analysis of one surviving declaration. Emitters treat
// Shim as the only description of synthesized code.
type Result struct {
	Decl      *decl.Declaration
	Namespace decl.Namespace
	// BridgeName is the run-unique bridge-entry name (with the wrapper
	// suffix when a shim is needed).
	BridgeName string
	// ManagedName is the name managed callers use.
	ManagedName string
	// Ident is the identifier the bridge entry is declared under: the
	// managed name, or the bridge name for RenameViaAliasExport.
	Ident string
	// NativeName is the effective native-visible name; empty when it is
	// the managed name.
	NativeName     string
	Rename         RenameStrategy
	Params         []decl.Param
	Kind           FnKind
	Return         *decl.Type
	Args           []ArgumentAnalysis
	RequiresUnsafe bool
	Visibility     decl.Visibility
	Shim           *ShimDescription
	Deps           map[decl.QualifiedName]bool
}

// EffectiveNativeName is the name the native side is called with.
func (r *Result) EffectiveNativeName() string {
	if r.NativeName != "" {
		return r.NativeName
	}
	return r.ManagedName
}

// NeedsNativeCodegen reports whether a native-side shim has to be
// emitted.
func (r *Result) NeedsNativeCodegen() bool { return r.Shim != nil }

// AllowlistName is the native name the front end must be told to keep:
// the owning type for methods, the function itself otherwise.
func (r *Result) AllowlistName() string {
	switch k := r.Kind.(type) {
	case Method:
		return k.Owner.String()
	case Function:
		return decl.NewQualifiedName(r.Namespace, r.EffectiveNativeName()).String()
	default:
		panic("bridge: unhandled function kind")
	}
}

// ManagedIdentity is unique across the successful results of one run.
func (r *Result) ManagedIdentity() string {
	switch k := r.Kind.(type) {
	case Method:
		return k.Owner.String() + "::" + r.ManagedName
	case Function:
		return r.Ident
	default:
		panic("bridge: unhandled function kind")
	}
}

// SortedDeps returns Deps in native spelling order.
func (r *Result) SortedDeps() []decl.QualifiedName {
	deps := make([]decl.QualifiedName, 0, len(r.Deps))
	for d := range r.Deps {
		deps = append(deps, d)
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].String() < deps[j].String() })
	return deps
}

// Diagnostic records a declaration that failed analysis.
type Diagnostic struct {
	Key  string
	Code string
	Err  error
}

// Dropped records a declaration that was filtered out without error.
type Dropped struct {
	Key    string
	Reason string
}

// Drop reasons.
const (
	DropDestructor     = "destructor"
	DropNotAllowlisted = "owner not allowlisted"
)

// Output is everything one run produced.
type Output struct {
	Results     []*Result
	ExtraAPIs   []ExtraAPI
	Diagnostics []Diagnostic
	Dropped     []Dropped
}

// Run analyzes decls in order and then drains the extra API work list.
// Failed declarations are collected as diagnostics and never stop the
// run.
func (a *Analyzer) Run(decls []*decl.Declaration) *Output {
	out := &Output{}
	for _, d := range decls {
		res, reason, err := a.analyze(d)
		switch {
		case err != nil:
			a.log.Warn("declaration skipped", "decl", d.Key(), "code", Code(err), "error", err)
			out.Diagnostics = append(out.Diagnostics, Diagnostic{Key: d.Key(), Code: Code(err), Err: err})
		case res == nil:
			a.log.Debug("declaration dropped", "decl", d.Key(), "reason", reason)
			out.Dropped = append(out.Dropped, Dropped{Key: d.Key(), Reason: reason})
		default:
			a.log.Debug("declaration analyzed", "decl", d.Key(), "bridge", res.BridgeName, "managed", res.ManagedName, "kind", res.Kind.String(), "shim", res.Shim != nil)
			out.Results = append(out.Results, res)
		}
	}
	out.ExtraAPIs = a.DrainExtraAPIs()
	a.log.Info("analysis finished",
		"results", len(out.Results),
		"failed", len(out.Diagnostics),
		"dropped", len(out.Dropped),
		"extra_apis", len(out.ExtraAPIs))
	return out
}

// AnalyzeFunction analyzes one declaration. It returns a nil result and a
// nil error when the declaration is dropped.
func (a *Analyzer) AnalyzeFunction(d *decl.Declaration) (*Result, error) {
	res, _, err := a.analyze(d)
	return res, err
}

// DrainExtraAPIs returns the auxiliary APIs discovered so far and empties
// the work list.
func (a *Analyzer) DrainExtraAPIs() []ExtraAPI {
	extras := a.extras
	a.extras = nil
	return extras
}

func (a *Analyzer) queue(extras ...ExtraAPI) {
	a.extras = append(a.extras, extras...)
}

func (a *Analyzer) queueStringConstructor() {
	if a.stringCtorSet {
		return
	}
	a.stringCtorSet = true
	a.queue(ExtraAPI{Kind: ExtraStringConstructor, Name: decl.NewQualifiedName("", StringConstructorName)})
}

// idealName picks the managed name to start from. The front end
// disambiguates keyword clashes with a trailing underscore (kept) and
// overloads with a numeric suffix (discarded, overloads are numbered
// again here).
func (a *Analyzer) idealName(d *decl.Declaration) string {
	if d.NativeName == "" {
		return d.Ident
	}
	if strings.HasSuffix(d.Ident, "_") {
		return d.Ident
	}
	if a.grammar.Valid(d.NativeName) != nil {
		return d.NativeName + "_"
	}
	return d.NativeName
}

var constructorAlias = regexp.MustCompile(`^new[0-9]*$`)

// isConstructorName reports whether name, already stripped of the owner
// prefix, names a constructor: it starts with the owner's name or is the
// front end's new[N] alias.
func isConstructorName(owner, name string) bool {
	return strings.HasPrefix(name, owner) || constructorAlias.MatchString(name)
}

func (a *Analyzer) analyze(d *decl.Declaration) (*Result, string, error) {
	if d.IsDestructor() {
		return nil, DropDestructor, nil
	}
	ns := d.Namespace
	nativeName := d.NativeName

	refParams := d.ReferenceParamSet()
	var args []ArgumentAnalysis
	var paramErr error
	for _, p := range d.Params {
		arg, err := a.convertParam(d, p, refParams)
		if err != nil {
			if paramErr == nil {
				paramErr = err
			}
			continue
		}
		args = append(args, arg)
	}

	deps := make(map[decl.QualifiedName]bool)
	requiresUnsafe := a.opts.UnsafePolicy == AllFunctionsUnsafe
	var selfType *decl.QualifiedName
	for _, arg := range args {
		for dep := range arg.Deps {
			deps[dep] = true
		}
		requiresUnsafe = requiresUnsafe || arg.RequiresUnsafe
		if selfType == nil && arg.SelfType != nil {
			selfType = arg.SelfType
		}
	}

	ideal := a.idealName(d)

	isStatic := false
	if selfType == nil && d.Owner != nil {
		selfType = d.Owner
		isStatic = true
	}

	var kind FnKind
	var errCtx ErrorContext
	var managedName string
	if selfType != nil {
		owner := *selfType
		if a.opts.Allowlist == nil || !a.opts.Allowlist.Allowed(owner) {
			return nil, DropNotAllowlisted, nil
		}
		managedName = a.overloads.MethodRealName(ns, owner.Name, ideal)
		var mk MethodKind
		if isConstructorName(owner.Name, managedName) {
			// Every constructor spelling of one owner shares a single
			// overload group.
			managedName = a.overloads.MethodRealName(ns, owner.Name, ConstructorName)
			if len(args) > 0 && args[0].SelfType != nil {
				args = args[1:]
			}
			mk = Constructor
		} else if isStatic {
			mk = Static
		} else if anyVirtual(args) {
			if d.PureVirtual {
				mk = PureVirtual
			} else {
				mk = Virtual
			}
		} else {
			mk = Normal
		}
		kind = Method{Owner: owner, Kind: mk}
		errCtx = ErrorContext{Owner: owner.Name, Item: managedName}
	} else {
		managedName = a.overloads.FunctionRealName(ns, ideal)
		kind = Function{}
		errCtx = ErrorContext{Item: managedName}
	}

	owner := ""
	if m, ok := methodOf(kind); ok {
		owner = m.Owner.Name
	}
	bridgeName := a.bridgeNames.Unique(owner, managedName, ns)
	if bridgeName != managedName && nativeName == "" {
		nativeName = managedName
	}

	contextualize := func(err error) error {
		ctx := errCtx
		return &ContextError{Err: err, Context: &ctx}
	}

	if paramErr != nil {
		return nil, "", contextualize(paramErr)
	}
	if d.UnresolvedTemplate {
		return nil, "", contextualize(convertErr(ErrUnresolvedTemplateParameter, ns, d.DisplayName(), ""))
	}
	if d.IsMoveConstructor() {
		return nil, "", contextualize(convertErr(ErrMoveConstructorUnsupported, ns, d.DisplayName(), ""))
	}
	if m, ok := methodOf(kind); ok && m.Kind != Static {
		if a.nonReceivers[m.Owner] || !acceptableReceiver(m.Owner) {
			return nil, "", contextualize(convertErr(ErrUnsupportedReceiverType, ns, d.DisplayName(), m.Owner.String()))
		}
	}

	var ret ReturnTypeAnalysis
	if m, ok := methodOf(kind); ok && m.Kind == Constructor {
		ret = constructorReturn(m.Owner)
	} else {
		ret = a.convertReturn(d)
	}
	for dep := range ret.Deps {
		deps[dep] = true
	}

	if ret.WasReference {
		refs := 0
		for _, arg := range args {
			if arg.WasReference {
				refs++
			}
		}
		if refs != 1 {
			return nil, "", contextualize(convertErr(ErrAmbiguousReferenceReturn, ns, managedName, ""))
		}
	}

	retType := ret.Type
	params := make([]decl.Param, 0, len(args))
	for _, arg := range args {
		params = append(params, decl.Param{Name: arg.Name, Type: arg.Type})
	}

	effectiveNative := nativeName
	if effectiveNative == "" {
		effectiveNative = managedName
	}

	var shim *ShimDescription
	if a.shimNeeded(kind, bridgeName, managedName, args, ret.Conversion, effectiveNative) {
		joiner := "_"
		if strings.HasSuffix(bridgeName, "_") {
			joiner = ""
		}
		bridgeName = a.bridgeNames.Claim(bridgeName + joiner + WrapperSuffix)

		payload, hasReceiver := shimPayload(kind, ns, effectiveNative)
		if ret.Conversion != nil {
			retType = ret.Conversion.BoundaryType()
		}
		params = params[:0]
		conversions := make([]ConversionPolicy, 0, len(args))
		for _, arg := range args {
			name := arg.Name
			if arg.SelfType != nil && !isConstructor(kind) {
				name = ShimReceiverName
			}
			params = append(params, decl.Param{Name: name, Type: arg.Conversion.BoundaryType()})
			conversions = append(conversions, arg.Conversion)
		}
		shim = &ShimDescription{
			Payload:          payload,
			WrapperName:      bridgeName,
			ArgConversions:   conversions,
			ReturnConversion: ret.Conversion,
			HasReceiver:      hasReceiver,
		}
	}

	if err := ValidBridgeIdent(bridgeName); err != nil {
		return nil, "", contextualize(convertErr(err, ns, bridgeName, ""))
	}

	ident := managedName
	rename := RenameStrategy{Kind: NoRenameNeeded}
	switch kind.(type) {
	case Method:
	case Function:
		managedOK := a.managedNames.OK(managedName)
		switch {
		case bridgeName == managedName:
		case managedOK:
			rename = RenameStrategy{Kind: RenameViaAttribute}
		default:
			ident = bridgeName
			a.managedNames.OK(bridgeName)
			rename = RenameStrategy{Kind: RenameViaAliasExport, Alias: managedName}
		}
	default:
		panic("bridge: unhandled function kind")
	}

	visibility := d.Visibility
	if visibility == "" {
		visibility = decl.Public
	}

	return &Result{
		Decl:           d,
		Namespace:      ns,
		BridgeName:     bridgeName,
		ManagedName:    managedName,
		Ident:          ident,
		NativeName:     nativeName,
		Rename:         rename,
		Params:         params,
		Kind:           kind,
		Return:         retType,
		Args:           args,
		RequiresUnsafe: requiresUnsafe,
		Visibility:     visibility,
		Shim:           shim,
		Deps:           deps,
	}, "", nil
}

// shimNeeded decides whether the bridge entry has to go through a
// synthesized wrapper.
func (a *Analyzer) shimNeeded(kind FnKind, bridgeName, managedName string, args []ArgumentAnalysis, ret *ConversionPolicy, effectiveNative string) bool {
	switch k := kind.(type) {
	case Method:
		switch k.Kind {
		case Static, Virtual, PureVirtual:
			return true
		case Normal, Constructor:
		default:
			panic("bridge: unhandled method kind " + k.Kind.String())
		}
		if bridgeName != managedName {
			return true
		}
	case Function:
	default:
		panic("bridge: unhandled function kind")
	}
	for _, arg := range args {
		if arg.Conversion.NativeWorkNeeded() {
			return true
		}
	}
	if ret != nil && ret.NativeWorkNeeded() {
		return true
	}
	return a.grammar.Valid(effectiveNative) != nil
}

func shimPayload(kind FnKind, ns decl.Namespace, nativeName string) (ShimPayload, bool) {
	switch k := kind.(type) {
	case Method:
		switch k.Kind {
		case Constructor:
			return ConstructorCall{}, false
		case Static:
			return StaticCall{Namespace: ns, Owner: k.Owner.Name, NativeName: nativeName}, false
		case Normal, Virtual, PureVirtual:
			return InstanceCall{Namespace: ns, NativeName: nativeName}, true
		default:
			panic("bridge: unhandled method kind " + k.Kind.String())
		}
	case Function:
		return InstanceCall{Namespace: ns, NativeName: nativeName}, false
	default:
		panic("bridge: unhandled function kind")
	}
}

func isConstructor(kind FnKind) bool {
	m, ok := methodOf(kind)
	return ok && m.Kind == Constructor
}

func anyVirtual(args []ArgumentAnalysis) bool {
	for _, arg := range args {
		if arg.IsVirtual {
			return true
		}
	}
	return false
}
