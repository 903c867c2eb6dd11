package engine

import (
	"time"

	"github.com/unyt-org/datex-core-go/pointer"
	"github.com/unyt-org/datex-core-go/reference"
	"github.com/unyt-org/datex-core-go/value"
)

// Memory is the subset of the runtime's shared pointer memory the engine
// needs: resolving an already-allocated local reference, and allocating a
// fresh one for CreateRef/CreateRefMut/CreateRefFinal. Pointer memory is
// owned by the runtime and indexed by pointer.Address; the engine never
// keeps its own copy.
type Memory interface {
	Lookup(addr pointer.Address) (*reference.Reference, bool)
	Allocate(mutability reference.Mutability, initial value.ValueContainer) *reference.Reference
}

// Options controls one Execute/Run call.
type Options struct {
	Verbose         bool
	DefaultTimeout  time.Duration
	AllowRemoteExec bool
	// Deterministic is not read by the engine itself. Local-address
	// allocation (CreateRef et al.) always goes through Memory; the
	// ephemeral Memory assigns a sequential little-endian counter whether
	// or not this is set.
	Deterministic bool

	// Memory backs GetReference/CreateRef*. If nil, the engine allocates an
	// ephemeral in-process memory for the lifetime of one Execute/Run call
	// — references created this way do not survive past it. A long-lived
	// runtime supplies its own persistent Memory instead.
	Memory Memory

	// SlotMetadata flags which slot numbers were marked cross-realm by the
	// precompiler (keyed by slot == ast variable id, the compiler's 1:1
	// mapping). A flagged GetSlotValue issues a ResolveInternalPointer
	// external interrupt carrying the slot number instead of a plain scope
	// lookup.
	SlotMetadata map[uint32]bool

	// Logger receives a Debug line for every suspension when Verbose is
	// set. Nil is treated as NoopLogger().
	Logger Logger
}

func (o Options) logger() Logger {
	if o.Logger == nil {
		return NoopLogger()
	}
	return o.Logger
}
