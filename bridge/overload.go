package bridge

import (
	"strconv"
	"strings"

	"github.com/rubiojr/bindplan/decl"
)

// offsets counts how many declarations have asked for each ideal name.
type offsets map[string]int

// overloadTracker assigns collision-free names within one namespace.
type overloadTracker struct {
	byName        offsets
	byTypeAndName map[string]offsets
}

func newOverloadTracker() *overloadTracker {
	return &overloadTracker{byName: offsets{}, byTypeAndName: map[string]offsets{}}
}

// name returns ideal for the first declaration asking for it and ideal
// followed by 1, 2, ... for later ones, matching the front end's own
// overload numbering.
func (t *overloadTracker) name(owner, ideal string) string {
	registry := t.byName
	if owner != "" {
		registry = t.byTypeAndName[owner]
		if registry == nil {
			registry = offsets{}
			t.byTypeAndName[owner] = registry
		}
	}
	offset := registry[ideal]
	registry[ideal] = offset + 1
	if offset == 0 {
		return ideal
	}
	return ideal + strconv.Itoa(offset)
}

// Overloads keeps one overload tracker per native namespace.
type Overloads struct {
	byNamespace map[decl.Namespace]*overloadTracker
}

// NewOverloads returns an empty registry.
func NewOverloads() *Overloads {
	return &Overloads{byNamespace: make(map[decl.Namespace]*overloadTracker)}
}

func (o *Overloads) tracker(ns decl.Namespace) *overloadTracker {
	t := o.byNamespace[ns]
	if t == nil {
		t = newOverloadTracker()
		o.byNamespace[ns] = t
	}
	return t
}

// MethodRealName strips a leading "Owner_" prefix from ideal (the front
// end names methods {class}_{method}) and returns a name unique among the
// owner's methods in ns.
func (o *Overloads) MethodRealName(ns decl.Namespace, owner, ideal string) string {
	if stripped := strings.TrimPrefix(ideal, owner+"_"); stripped != "" {
		ideal = stripped
	}
	return o.tracker(ns).name(owner, ideal)
}

// FunctionRealName returns a name unique among free functions in ns.
func (o *Overloads) FunctionRealName(ns decl.Namespace, ideal string) string {
	return o.tracker(ns).name("", ideal)
}
