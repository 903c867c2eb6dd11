package compiler

import "fmt"

// ErrorKind discriminates a compiler failure from a malformed or
// unsupported AST node.
type ErrorKind uint8

const (
	UnresolvedIdentifier ErrorKind = iota
	InvalidAssignmentTarget
	InvalidRemoteTarget
	UnsupportedType
	UnsupportedApply
	UnsupportedDeclaration
)

func (k ErrorKind) String() string {
	switch k {
	case UnresolvedIdentifier:
		return "unresolved identifier"
	case InvalidAssignmentTarget:
		return "invalid assignment target"
	case InvalidRemoteTarget:
		return "invalid remote execution target"
	case UnsupportedType:
		return "unsupported type expression"
	case UnsupportedApply:
		return "unsupported apply arity"
	case UnsupportedDeclaration:
		return "unsupported declaration"
	default:
		return "unknown compiler error"
	}
}

// Error is a fatal compile-time failure caused by a malformed or unsupported
// AST node. It carries no source span.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("compiler: %s: %s", e.Kind, e.Message)
}

func newErr(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
