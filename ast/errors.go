package ast

import "fmt"

// ErrorKind discriminates the precompiler's fatal error classes.
type ErrorKind uint8

const (
	UndeclaredVariable ErrorKind = iota
	DuplicateDeclaration
	AssignmentTypeMismatch
	MismatchedOperands
)

func (k ErrorKind) String() string {
	switch k {
	case UndeclaredVariable:
		return "undeclared variable"
	case DuplicateDeclaration:
		return "duplicate declaration"
	case AssignmentTypeMismatch:
		return "assignment type mismatch"
	case MismatchedOperands:
		return "mismatched operands"
	default:
		return "unknown precompiler error"
	}
}

// PrecompilerError is a single fatal finding, always carrying the span of
// the offending node.
type PrecompilerError struct {
	Kind    ErrorKind
	Span    Span
	Message string
}

func (e *PrecompilerError) Error() string {
	return fmt.Sprintf("%s at %s: %s", e.Kind, e.Span, e.Message)
}

func newError(kind ErrorKind, span Span, format string, args ...any) *PrecompilerError {
	return &PrecompilerError{Kind: kind, Span: span, Message: fmt.Sprintf(format, args...)}
}
