package runtime

import (
	"encoding/binary"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Clock supplies block creation timestamps. WallClock wraps time.Now;
// DeterministicClock advances a monotonic millisecond counter by a fixed
// step on every call, so two runs with Deterministic=true produce
// byte-identical block headers.
type Clock interface {
	NowMillis() uint64
}

// WallClock is the default Clock, backed by time.Now.
type WallClock struct{}

// NowMillis implements Clock.
func (WallClock) NowMillis() uint64 { return uint64(time.Now().UnixMilli()) }

// DeterministicClock starts at 0 and advances by StepMillis (default 1)
// every call, so two runs with Deterministic=true produce identical
// timestamps.
type DeterministicClock struct {
	StepMillis uint64
	current    uint64
}

// NewDeterministicClock constructs a clock starting at 0ms, advancing by
// stepMillis per call (1 if stepMillis is 0).
func NewDeterministicClock(stepMillis uint64) *DeterministicClock {
	if stepMillis == 0 {
		stepMillis = 1
	}
	return &DeterministicClock{StepMillis: stepMillis}
}

// NowMillis implements Clock, advancing the internal counter first so the
// very first call already returns a nonzero timestamp.
func (c *DeterministicClock) NowMillis() uint64 {
	c.current += c.StepMillis
	return c.current
}

// UUIDSource supplies context/session identifiers. DeterministicUUIDSource
// replaces uuid.NewRandom with a sequential, reproducible generator for
// golden tests.
type UUIDSource interface {
	NewUUID() uuid.UUID
}

// RandomUUIDSource generates version-4 UUIDs via google/uuid.
type RandomUUIDSource struct{}

// NewUUID implements UUIDSource.
func (RandomUUIDSource) NewUUID() uuid.UUID { return uuid.New() }

// DeterministicUUIDSource produces UUIDs from a little-endian-encoded
// sequential counter instead of randomness.
type DeterministicUUIDSource struct {
	counter uint64
}

// NewUUID implements UUIDSource, encoding the next counter value into the
// low 8 bytes of an otherwise-zero UUID.
func (s *DeterministicUUIDSource) NewUUID() uuid.UUID {
	n := atomic.AddUint64(&s.counter, 1)
	var u uuid.UUID
	binary.LittleEndian.PutUint64(u[8:], n)
	return u
}
