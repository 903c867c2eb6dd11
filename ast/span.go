// Package ast defines the DATEX abstract syntax tree, its per-variable
// metadata, and the precompiler that resolves scopes, realms, and cross-realm
// variable access ahead of compilation. Parsing source text into
// this tree happens upstream of this package.
package ast

import "fmt"

// Span marks a half-open byte range [Start, End) in the original source
// text, carried on AST nodes and precompiler errors for diagnostics.
type Span struct {
	Start int
	End   int
}

func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}
