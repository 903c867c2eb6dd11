// Package pointer implements PointerAddress, the address of a DATEX
// reference: a handle to a mutable or immutable value cell, either local to
// the current endpoint, owned by a remote endpoint, or one of the globally
// reserved internal addresses.
package pointer

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// Kind distinguishes the three address shapes.
type Kind uint8

const (
	// KindInternal addresses a globally reserved built-in type or value.
	KindInternal Kind = iota
	// KindLocal addresses a cell owned by the local endpoint.
	KindLocal
	// KindRemote addresses a cell owned by a specific remote endpoint,
	// whose identity is embedded in the address bytes.
	KindRemote
)

// Byte widths of each address shape.
const (
	InternalSize = 3
	LocalSize    = 5
	RemoteSize   = 26
)

func (k Kind) size() int {
	switch k {
	case KindInternal:
		return InternalSize
	case KindLocal:
		return LocalSize
	case KindRemote:
		return RemoteSize
	default:
		return 0
	}
}

func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "internal"
	case KindLocal:
		return "local"
	case KindRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// Address is an immutable pointer address value.
type Address struct {
	kind  Kind
	bytes []byte // len == kind.size()
}

// ErrBadLength is returned when the byte slice doesn't match the kind's
// fixed width.
var ErrBadLength = errors.New("pointer: address byte length mismatch")

// NewInternal builds an Internal([3]byte) address.
func NewInternal(b [InternalSize]byte) Address {
	return Address{kind: KindInternal, bytes: append([]byte(nil), b[:]...)}
}

// NewLocal builds a Local([5]byte) address.
func NewLocal(b [LocalSize]byte) Address {
	return Address{kind: KindLocal, bytes: append([]byte(nil), b[:]...)}
}

// NewRemote builds a Remote([26]byte) address: the first 21 bytes are the
// owning endpoint's binary identity, the remaining 5 are local to that
// endpoint.
func NewRemote(b [RemoteSize]byte) Address {
	return Address{kind: KindRemote, bytes: append([]byte(nil), b[:]...)}
}

// Kind returns the address shape.
func (a Address) Kind() Kind { return a.kind }

// Bytes returns the raw address bytes (length kind.size()).
func (a Address) Bytes() []byte { return append([]byte(nil), a.bytes...) }

// IsZero reports whether this Address was never assigned a kind/bytes.
func (a Address) IsZero() bool { return a.bytes == nil }

// Equal reports byte-for-byte and kind equality.
func (a Address) Equal(o Address) bool {
	if a.kind != o.kind || len(a.bytes) != len(o.bytes) {
		return false
	}
	for i := range a.bytes {
		if a.bytes[i] != o.bytes[i] {
			return false
		}
	}
	return true
}

// String renders the "$" + hex canonical text form.
func (a Address) String() string {
	return "$" + hex.EncodeToString(a.bytes)
}

// ErrInvalidText is returned by Parse for malformed pointer text.
var ErrInvalidText = errors.New("pointer: invalid text form")

// Parse parses the "$hex" text form, inferring the Kind from the decoded
// byte length (3 => Internal, 5 => Local, 26 => Remote).
func Parse(s string) (Address, error) {
	if len(s) == 0 || s[0] != '$' {
		return Address{}, ErrInvalidText
	}
	raw, err := hex.DecodeString(s[1:])
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrInvalidText, err)
	}
	switch len(raw) {
	case InternalSize:
		var b [InternalSize]byte
		copy(b[:], raw)
		return NewInternal(b), nil
	case LocalSize:
		var b [LocalSize]byte
		copy(b[:], raw)
		return NewLocal(b), nil
	case RemoteSize:
		var b [RemoteSize]byte
		copy(b[:], raw)
		return NewRemote(b), nil
	default:
		return Address{}, fmt.Errorf("%w: unsupported length %d", ErrInvalidText, len(raw))
	}
}
