package config

import (
	"fmt"

	"github.com/gobwas/glob"
	"github.com/rubiojr/bindplan/decl"
)

// Allowlist matches owning types against glob patterns. Namespace
// separators bound a single "*".
type Allowlist struct {
	patterns []string
	globs    []glob.Glob
}

// NewAllowlist compiles patterns such as "ns::Widget" or "ns::ui::*".
func NewAllowlist(patterns []string) (*Allowlist, error) {
	a := &Allowlist{patterns: patterns, globs: make([]glob.Glob, 0, len(patterns))}
	for _, p := range patterns {
		g, err := glob.Compile(p, ':')
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		a.globs = append(a.globs, g)
	}
	return a, nil
}

// Allowed reports whether any pattern matches the native spelling of name.
func (a *Allowlist) Allowed(name decl.QualifiedName) bool {
	s := name.String()
	for _, g := range a.globs {
		if g.Match(s) {
			return true
		}
	}
	return false
}

// Patterns returns the source patterns.
func (a *Allowlist) Patterns() []string { return a.patterns }
