package engine

import (
	"github.com/unyt-org/datex-core-go/dxb"
	"github.com/unyt-org/datex-core-go/endpoint"
	"github.com/unyt-org/datex-core-go/pointer"
	"github.com/unyt-org/datex-core-go/value"
)

// InterruptKind discriminates the engine's external-interrupt table. Every
// value of this type is a point where Run/Resume hands control back to the
// driver and expects a value.ValueContainer (or an error) to continue.
type InterruptKind uint8

const (
	// ResolvePointer asks the driver to resolve a full (kind-qualified)
	// pointer address, used for addresses the engine cannot resolve from
	// its own Memory (typically KindRemote).
	ResolvePointer InterruptKind = iota
	// ResolveLocalPointer asks for a KindLocal address not present in the
	// engine's own Memory.
	ResolveLocalPointer
	// ResolveInternalPointer asks for a KindInternal address, or — under
	// GetSlotValue's cross-realm rule — a captured outer-realm slot,
	// addressed by its slot number instead of a pointer.Address.
	ResolveInternalPointer
	// GetInternalSlotValue asks for the value of a reserved internal slot
	// (0xFF00-0xFFFF) the engine does not hold locally (THIS/RESULT/META
	// when the driving runtime, not the engine, owns that binding). The
	// engine's own GetSlotValue does not raise this kind: a cross-realm slot
	// goes through ResolveInternalPointer, and an unbound slot fails with
	// UndefinedSlot.
	GetInternalSlotValue
	// RemoteExecution ships a RemoteExecutionBegin/End body verbatim to the
	// target endpoint and awaits its result.
	RemoteExecution
	// Apply asks the driver to invoke a non-native callee with the given
	// arguments (ApplyFunction/ApplyGeneric against anything the engine
	// does not recognise as a local collection/property access).
	Apply
	// Result reports the run's final value, delivered exactly once through
	// the same suspend/resume handshake as every other kind. The driver
	// acknowledges it with Resume (the supplied value is ignored), after
	// which the run settles with that same value as its Outcome.
	Result
)

func (k InterruptKind) String() string {
	switch k {
	case ResolvePointer:
		return "resolve_pointer"
	case ResolveLocalPointer:
		return "resolve_local_pointer"
	case ResolveInternalPointer:
		return "resolve_internal_pointer"
	case GetInternalSlotValue:
		return "get_internal_slot_value"
	case RemoteExecution:
		return "remote_execution"
	case Apply:
		return "apply"
	case Result:
		return "result"
	default:
		return "unknown"
	}
}

// Interrupt is a suspension record the engine returns instead of a final
// value: the driver must inspect Kind, compute the corresponding result, and
// call Resume with it.
type Interrupt struct {
	Kind InterruptKind

	Address  pointer.Address   // ResolvePointer / ResolveLocalPointer / ResolveInternalPointer
	Slot     dxb.Slot          // GetInternalSlotValue / ResolveInternalPointer (cross-realm slot)
	Target   endpoint.Endpoint // RemoteExecution
	Body     []byte            // RemoteExecution: the embedded DXB body, verbatim
	Callee   value.ValueContainer // Apply
	Args     []value.ValueContainer // Apply
	Final    value.ValueContainer // Result
}
