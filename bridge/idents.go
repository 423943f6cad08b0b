package bridge

import (
	"fmt"
	"sort"
	"strings"
)

// managedKeywords cannot be used as managed-visible identifiers.
var managedKeywords = map[string]bool{
	"abstract": true, "as": true, "async": true, "await": true, "become": true,
	"box": true, "break": true, "const": true, "continue": true, "crate": true,
	"do": true, "dyn": true, "else": true, "enum": true, "extern": true,
	"false": true, "final": true, "fn": true, "for": true, "if": true,
	"impl": true, "in": true, "let": true, "loop": true, "macro": true,
	"match": true, "mod": true, "move": true, "mut": true, "override": true,
	"priv": true, "pub": true, "ref": true, "return": true, "self": true,
	"Self": true, "static": true, "struct": true, "super": true, "trait": true,
	"true": true, "try": true, "type": true, "typeof": true, "unsafe": true,
	"unsized": true, "use": true, "virtual": true, "where": true, "while": true,
	"yield": true,
}

// identifierShape reports whether s is a plain ASCII identifier.
func identifierShape(s string) bool {
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

// ValidBridgeIdent checks s against the bridge layer's identifier grammar:
// a plain identifier without double underscores, which the bridge layer
// reserves for its own generated symbols.
func ValidBridgeIdent(s string) error {
	if !identifierShape(s) {
		return fmt.Errorf("%w: %q is not an identifier", ErrInvalidIdentifier, s)
	}
	if strings.Contains(s, "__") {
		return fmt.Errorf("%w: %q contains a double underscore", ErrInvalidIdentifier, s)
	}
	return nil
}

// Grammar checks managed-language identifiers.
type Grammar struct {
	reserved map[string]bool
}

// NewGrammar returns the managed identifier grammar with extra reserved
// words on top of the built-in keyword set.
func NewGrammar(extraReserved ...string) *Grammar {
	g := &Grammar{reserved: make(map[string]bool, len(managedKeywords)+len(extraReserved))}
	for k := range managedKeywords {
		g.reserved[k] = true
	}
	for _, k := range extraReserved {
		g.reserved[k] = true
	}
	return g
}

// Valid checks s against the managed identifier grammar.
func (g *Grammar) Valid(s string) error {
	if !identifierShape(s) {
		return fmt.Errorf("%w: %q is not an identifier", ErrInvalidIdentifier, s)
	}
	if g.reserved[s] {
		return fmt.Errorf("%w: %q is a reserved word", ErrInvalidIdentifier, s)
	}
	return nil
}

// Reserved returns the sorted reserved-word list.
func (g *Grammar) Reserved() []string {
	words := make([]string, 0, len(g.reserved))
	for w := range g.reserved {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}
