package bridge

import (
	"strconv"
	"strings"

	"github.com/rubiojr/bindplan/decl"
)

// BridgeNames hands out identifiers for the bridge-declaration layer,
// which is a single flat namespace for the whole run. Every name it
// returns is distinct from every other name it has returned.
type BridgeNames struct {
	taken map[string]bool
	next  map[string]int // prefix → next numeric suffix
}

// NewBridgeNames returns an empty registry.
func NewBridgeNames() *BridgeNames {
	return &BridgeNames{taken: make(map[string]bool), next: make(map[string]int)}
}

// Unique returns a bridge name for proposed. The first claimant keeps the
// name as-is; later claimants are prefixed with the namespace segments and
// owning type ("ns_Widget_resize"), and if that is taken too a numeric
// suffix is appended ("ns_Widget_resize_1").
func (b *BridgeNames) Unique(owner, proposed string, ns decl.Namespace) string {
	if !b.taken[proposed] {
		b.taken[proposed] = true
		return proposed
	}
	parts := append([]string{}, ns.Segments()...)
	if owner != "" {
		parts = append(parts, owner)
	}
	parts = append(parts, proposed)
	return b.Claim(strings.Join(parts, "_"))
}

// Claim records name, appending a numeric suffix when it is already taken.
func (b *BridgeNames) Claim(name string) string {
	if !b.taken[name] {
		b.taken[name] = true
		return name
	}
	joiner := "_"
	if strings.HasSuffix(name, "_") {
		joiner = ""
	}
	for {
		b.next[name]++
		candidate := name + joiner + strconv.Itoa(b.next[name])
		if !b.taken[candidate] {
			b.taken[candidate] = true
			return candidate
		}
	}
}

// Taken reports whether name has been handed out.
func (b *BridgeNames) Taken(name string) bool { return b.taken[name] }

// ManagedNames tracks managed-visible names claimed across the run. The
// managed space is flat even though native names are namespaced.
type ManagedNames struct {
	names map[string]bool
}

// NewManagedNames returns an empty registry.
func NewManagedNames() *ManagedNames {
	return &ManagedNames{names: make(map[string]bool)}
}

// OK reports whether name is still free and, if so, claims it.
func (m *ManagedNames) OK(name string) bool {
	if m.names[name] {
		return false
	}
	m.names[name] = true
	return true
}
