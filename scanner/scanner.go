// Package scanner provides bracket-aware scanning for native type spellings.
// It tracks bracket depth across (), [], {} and template <> delimiters plus
// quoted literal template arguments, so callers can find top-level separators
// such as the commas of a template argument list or the trailing '*' of a
// pointer type without re-implementing nesting logic.
package scanner

import "strings"

// closingKind tracks which type of literal delimiter was just closed.
type closingKind byte

const (
	noClosing     closingKind = iota
	closingDouble             // just closed a "..." literal
	closingSingle             // just closed a '...' literal
)

// TypeScanner iterates byte-by-byte over a type spelling, tracking literal
// boundaries and bracket depth. InLiteral() returns true for the entire
// literal span including both delimiters.
type TypeScanner struct {
	src     string
	pos     int
	depth   int
	inDbl   bool
	inSgl   bool
	escaped bool
	closing closingKind
}

// New creates a TypeScanner for the given spelling.
// Call Next() to advance to the first byte.
func New(src string) *TypeScanner {
	return &TypeScanner{src: src, pos: -1}
}

// Next advances to the next byte, updating literal, escape and depth state.
// Returns the byte and true, or (0, false) at end of input.
//
// Depth is updated after an opening bracket is returned and before a closing
// bracket is returned, so both delimiters of a bracket pair report the
// depth of their surroundings.
func (s *TypeScanner) Next() (byte, bool) {
	s.closing = noClosing
	s.pos++
	if s.pos >= len(s.src) {
		return 0, false
	}
	ch := s.src[s.pos]

	if s.escaped {
		s.escaped = false
		return ch, true
	}
	if ch == '\\' && (s.inDbl || s.inSgl) {
		s.escaped = true
		return ch, true
	}
	switch {
	case ch == '"' && !s.inSgl:
		if s.inDbl {
			s.closing = closingDouble
		}
		s.inDbl = !s.inDbl
	case ch == '\'' && !s.inDbl:
		if s.inSgl {
			s.closing = closingSingle
		}
		s.inSgl = !s.inSgl
	case s.inDbl || s.inSgl:
	case IsCloseBracket(ch):
		if s.depth > 0 {
			s.depth--
		}
	}
	return ch, true
}

// enter records an opening bracket returned by the previous Next call.
func (s *TypeScanner) enter(ch byte) {
	if IsOpenBracket(ch) && s.InCode() {
		s.depth++
	}
}

// InLiteral reports whether the current position is inside a quoted
// literal, including both opening and closing delimiters.
func (s *TypeScanner) InLiteral() bool {
	return s.inDbl || s.inSgl || s.closing != noClosing
}

// InCode reports whether the current position is outside all literals.
func (s *TypeScanner) InCode() bool { return !s.InLiteral() }

// Depth returns the bracket depth of the current position.
func (s *TypeScanner) Depth() int { return s.depth }

// Pos returns the current byte offset (the position of the last byte
// returned by Next). Returns -1 before the first call to Next.
func (s *TypeScanner) Pos() int { return s.pos }

// Src returns the full spelling being scanned.
func (s *TypeScanner) Src() string { return s.src }

// LookingAt checks if src[pos:] starts with the given prefix.
func (s *TypeScanner) LookingAt(prefix string) bool {
	if s.pos < 0 {
		return false
	}
	return strings.HasPrefix(s.src[s.pos:], prefix)
}

// IsOpenBracket reports whether ch opens a nesting level.
func IsOpenBracket(ch byte) bool {
	return ch == '(' || ch == '[' || ch == '{' || ch == '<'
}

// IsCloseBracket reports whether ch closes a nesting level.
func IsCloseBracket(ch byte) bool {
	return ch == ')' || ch == ']' || ch == '}' || ch == '>'
}

// walk calls fn for every code byte at depth 0.
func walk(s string, fn func(ch byte, pos int) bool) {
	sc := New(s)
	for ch, ok := sc.Next(); ok; ch, ok = sc.Next() {
		if sc.InCode() && sc.Depth() == 0 {
			if !fn(ch, sc.Pos()) {
				return
			}
		}
		sc.enter(ch)
	}
}

// FindTopLevel scans s for a byte matching pred at bracket depth 0,
// outside all literals. Returns the byte offset or -1.
func FindTopLevel(s string, pred func(ch byte, pos int, src string) bool) int {
	found := -1
	walk(s, func(ch byte, pos int) bool {
		if pred(ch, pos, s) {
			found = pos
			return false
		}
		return true
	})
	return found
}

// FindAllTopLevel is like FindTopLevel but returns all matching positions.
func FindAllTopLevel(s string, pred func(ch byte, pos int, src string) bool) []int {
	var positions []int
	walk(s, func(ch byte, pos int) bool {
		if pred(ch, pos, s) {
			positions = append(positions, pos)
		}
		return true
	})
	return positions
}

// SplitTopLevel splits s on sep bytes found at depth 0, trimming spaces
// from each part. "a, b<c, d>" splits on ',' into ["a", "b<c, d>"].
// An empty or all-space input yields no parts.
func SplitTopLevel(s string, sep byte) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var parts []string
	start := 0
	for _, pos := range FindAllTopLevel(s, func(ch byte, _ int, _ string) bool { return ch == sep }) {
		parts = append(parts, strings.TrimSpace(s[start:pos]))
		start = pos + 1
	}
	return append(parts, strings.TrimSpace(s[start:]))
}

// Balanced reports whether every bracket in s is closed in order and no
// literal is left open.
func Balanced(s string) bool {
	var stack []byte
	sc := New(s)
	for ch, ok := sc.Next(); ok; ch, ok = sc.Next() {
		if !sc.InCode() {
			continue
		}
		switch {
		case IsOpenBracket(ch):
			stack = append(stack, ch)
		case IsCloseBracket(ch):
			if len(stack) == 0 || stack[len(stack)-1] != opener(ch) {
				return false
			}
			stack = stack[:len(stack)-1]
		}
	}
	return len(stack) == 0 && !sc.inDbl && !sc.inSgl
}

func opener(closer byte) byte {
	switch closer {
	case ')':
		return '('
	case ']':
		return '['
	case '}':
		return '{'
	default:
		return '<'
	}
}
