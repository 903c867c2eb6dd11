package engine

import (
	"encoding/binary"
	"sync"

	"github.com/unyt-org/datex-core-go/pointer"
	"github.com/unyt-org/datex-core-go/reference"
	"github.com/unyt-org/datex-core-go/value"
)

// ephemeralMemory is the Memory used when Options.Memory is nil: a
// per-execution-only address space that is discarded once the Engine
// finishes. A long-lived runtime supplies its own Memory so references
// outlive a single Execute call.
type ephemeralMemory struct {
	mu      sync.Mutex
	next    uint32
	entries map[string]*reference.Reference
}

func newEphemeralMemory() *ephemeralMemory {
	return &ephemeralMemory{entries: make(map[string]*reference.Reference)}
}

func (m *ephemeralMemory) Lookup(addr pointer.Address) (*reference.Reference, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.entries[addr.String()]
	return r, ok
}

func (m *ephemeralMemory) Allocate(mutability reference.Mutability, initial value.ValueContainer) *reference.Reference {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	var b [pointer.LocalSize]byte
	binary.LittleEndian.PutUint32(b[:4], m.next)
	addr := pointer.NewLocal(b)
	r := reference.New(addr, mutability, initial)
	m.entries[addr.String()] = r
	return r
}
