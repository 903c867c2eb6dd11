package runtime

import (
	"encoding/binary"
	"sync"

	"github.com/unyt-org/datex-core-go/pointer"
	"github.com/unyt-org/datex-core-go/reference"
	"github.com/unyt-org/datex-core-go/value"
)

// Memory is the runtime's persistent pointer address space: every
// reference allocated through a Runtime survives across Execute calls,
// unlike the engine package's own ephemeral fallback. It satisfies
// engine.Memory so a Runtime's Engine can share it directly. Local
// addresses are always assigned from a sequential counter, so allocation
// order is already deterministic regardless of the runtime's Clock.
type Memory struct {
	mu      sync.RWMutex
	next    uint32
	entries map[string]*reference.Reference
}

// NewMemory constructs an empty address space.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*reference.Reference)}
}

// Lookup implements engine.Memory.
func (m *Memory) Lookup(addr pointer.Address) (*reference.Reference, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.entries[addr.String()]
	return r, ok
}

// Allocate implements engine.Memory, assigning the next local address.
func (m *Memory) Allocate(mutability reference.Mutability, initial value.ValueContainer) *reference.Reference {
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

// GetReference looks up an already-allocated reference by its address.
func (m *Memory) GetReference(addr pointer.Address) (*reference.Reference, bool) {
	return m.Lookup(addr)
}

// Put registers a reference the caller constructed directly (used when
// restoring a reference a remote endpoint handed back across the wire, at
// the address it already carries).
func (m *Memory) Put(r *reference.Reference) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[r.Address().String()] = r
}

// Count reports how many references are currently live, mostly useful for
// tests and diagnostics.
func (m *Memory) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
