package runtime

import "fmt"

// ErrorKind discriminates a Runtime-level failure from the failures its
// component subsystems (compiler.Error, engine.Error, comhub.ResponseError,
// reference.ErrNotMutable) already report on their own.
type ErrorKind uint8

const (
	// PrecompileFailed wraps the ast package's collected PrecompilerError
	// list when Precompile rejects the supplied AST.
	PrecompileFailed ErrorKind = iota
	// UnresolvedInterrupt means Execute received an Interrupt whose Kind
	// none of the Runtime's built-in resolvers (local Memory, registered
	// RemoteExecutor, registered Applier) could answer.
	UnresolvedInterrupt
	// NoMemory means GetReference/Observe was called before the Runtime
	// was given a Memory.
	NoMemory
)

func (k ErrorKind) String() string {
	switch k {
	case PrecompileFailed:
		return "precompile failed"
	case UnresolvedInterrupt:
		return "unresolved interrupt"
	case NoMemory:
		return "no memory"
	default:
		return "unknown runtime error"
	}
}

// Error is a fatal Runtime-level failure.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("runtime: %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("runtime: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func newErr(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}
