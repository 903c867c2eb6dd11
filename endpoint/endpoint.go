// Package endpoint implements the 21-byte DATEX endpoint identifier: the
// addressable participant in a DATEX exchange (a person, an institution,
// an anonymous id, or the wildcard "any").
package endpoint

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Type is the 1-byte endpoint type tag.
type Type uint8

const (
	// Person is a named individual endpoint, text form "@name".
	Person Type = 0
	// Institution is a named organizational endpoint, text form "@+name".
	Institution Type = 1
	// Anonymous is a non-named, hash-identified endpoint, text form "@@hex".
	Anonymous Type = 2
	// Any is the broadcast/wildcard endpoint, text form "@any".
	Any Type = 255
)

func (t Type) String() string {
	switch t {
	case Person:
		return "person"
	case Institution:
		return "institution"
	case Anonymous:
		return "anonymous"
	case Any:
		return "any"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// IdentifierSize is the fixed width, in bytes, of the endpoint identifier
// portion (excluding the type tag and instance).
const IdentifierSize = 18

// InstanceSize is the fixed width, in bytes, of the instance suffix.
const InstanceSize = 2

// Size is the total binary width of an Endpoint: 1 (type) + 18 (identifier)
// + 2 (instance).
const Size = 1 + IdentifierSize + InstanceSize

// AnyInstance is the instance value that means "unspecified" / "any instance".
const AnyInstance uint16 = 0x0000

// Endpoint is a 21-byte addressable participant.
type Endpoint struct {
	kind       Type
	identifier [IdentifierSize]byte
	instance   uint16
}

// New constructs an Endpoint from its type tag, identifier bytes, and
// instance. The identifier is right-padded with zero bytes (or truncated)
// to IdentifierSize.
func New(kind Type, identifier []byte, instance uint16) Endpoint {
	var e Endpoint
	e.kind = kind
	copy(e.identifier[:], identifier)
	e.instance = instance
	return e
}

// AnyEndpoint is the canonical "@any" endpoint.
var AnyEndpoint = New(Any, nil, AnyInstance)

// Kind returns the endpoint's type tag.
func (e Endpoint) Kind() Type { return e.kind }

// Instance returns the endpoint's instance suffix.
func (e Endpoint) Instance() uint16 { return e.instance }

// Identifier returns a copy of the raw 18-byte identifier.
func (e Endpoint) Identifier() [IdentifierSize]byte { return e.identifier }

// Equal reports whether two endpoints are identical (same type, identifier
// and instance).
func (e Endpoint) Equal(o Endpoint) bool {
	return e.kind == o.kind && e.instance == o.instance && e.identifier == o.identifier
}

// MarshalBinary encodes the endpoint into its fixed-length 21-byte form:
// type(1) | identifier(18) | instance(2, little-endian).
func (e Endpoint) MarshalBinary() ([]byte, error) {
	buf := make([]byte, Size)
	buf[0] = byte(e.kind)
	copy(buf[1:1+IdentifierSize], e.identifier[:])
	buf[1+IdentifierSize] = byte(e.instance)
	buf[1+IdentifierSize+1] = byte(e.instance >> 8)
	return buf, nil
}

// ErrTruncated is returned when decoding a buffer shorter than Size.
var ErrTruncated = errors.New("endpoint: truncated binary form")

// UnmarshalBinary decodes a 21-byte buffer into the endpoint.
func (e *Endpoint) UnmarshalBinary(buf []byte) error {
	if len(buf) < Size {
		return ErrTruncated
	}
	e.kind = Type(buf[0])
	copy(e.identifier[:], buf[1:1+IdentifierSize])
	e.instance = uint16(buf[1+IdentifierSize]) | uint16(buf[1+IdentifierSize+1])<<8
	return nil
}

// identifierText renders the significant (non-zero-padded tail trimmed)
// identifier bytes as lowercase hex.
func (e Endpoint) identifierText() string {
	trimmed := e.identifier[:]
	for len(trimmed) > 0 && trimmed[len(trimmed)-1] == 0 {
		trimmed = trimmed[:len(trimmed)-1]
	}
	return hex.EncodeToString(trimmed)
}

// String renders the canonical text form: "@name", "@+name", "@@hex", or
// "@any", with an optional "/instance" suffix (4 hex digits) when the
// instance is not AnyInstance.
func (e Endpoint) String() string {
	var base string
	switch e.kind {
	case Person:
		base = "@" + e.nameText()
	case Institution:
		base = "@+" + e.nameText()
	case Anonymous:
		base = "@@" + e.identifierText()
	case Any:
		return "@any"
	default:
		base = "@?" + e.identifierText()
	}
	if e.instance != AnyInstance {
		base += fmt.Sprintf("/%04x", e.instance)
	}
	return base
}

// nameText renders the identifier bytes as a trimmed UTF-8 name for Person
// and Institution endpoints (the identifier holds the name, NUL-padded).
func (e Endpoint) nameText() string {
	trimmed := e.identifier[:]
	i := len(trimmed)
	for i > 0 && trimmed[i-1] == 0 {
		i--
	}
	return string(trimmed[:i])
}

// ErrInvalidText is returned by Parse for a malformed endpoint string.
var ErrInvalidText = errors.New("endpoint: invalid text form")

// Parse parses the canonical text form produced by String.
func Parse(s string) (Endpoint, error) {
	if s == "@any" {
		return AnyEndpoint, nil
	}
	if !strings.HasPrefix(s, "@") {
		return Endpoint{}, ErrInvalidText
	}
	body := s[1:]

	instance := AnyInstance
	if idx := strings.LastIndexByte(body, '/'); idx >= 0 {
		instBytes, err := strconv.ParseUint(body[idx+1:], 16, 16)
		if err != nil {
			return Endpoint{}, fmt.Errorf("%w: bad instance: %v", ErrInvalidText, err)
		}
		instance = uint16(instBytes)
		body = body[:idx]
	}

	switch {
	case strings.HasPrefix(body, "+"):
		name := body[1:]
		return newNamed(Institution, name, instance)
	case strings.HasPrefix(body, "@"):
		raw, err := hex.DecodeString(body[1:])
		if err != nil {
			return Endpoint{}, fmt.Errorf("%w: bad hex: %v", ErrInvalidText, err)
		}
		if len(raw) > IdentifierSize {
			return Endpoint{}, fmt.Errorf("%w: identifier too long", ErrInvalidText)
		}
		return New(Anonymous, raw, instance), nil
	default:
		return newNamed(Person, body, instance)
	}
}

func newNamed(kind Type, name string, instance uint16) (Endpoint, error) {
	if len(name) == 0 {
		return Endpoint{}, fmt.Errorf("%w: empty name", ErrInvalidText)
	}
	if len(name) > IdentifierSize {
		return Endpoint{}, fmt.Errorf("%w: name too long", ErrInvalidText)
	}
	return New(kind, []byte(name), instance), nil
}
