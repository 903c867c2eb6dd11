// Package value implements the DATEX value model: CoreValue (the tagged
// union of primitive and collection kinds), ValueContainer (a plain value or
// a reference handle), and the structural type system layered over them.
package value

import "github.com/unyt-org/datex-core-go/endpoint"

// Kind discriminates the CoreValue union.
type Kind uint8

const (
	KindNull Kind = iota
	KindBoolean
	KindText
	KindInteger
	KindTypedInteger
	KindDecimal
	KindTypedDecimal
	KindEndpoint
	KindList
	KindMap
	KindObject
	KindTuple
	KindType
	KindRange
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindText:
		return "text"
	case KindInteger:
		return "integer"
	case KindTypedInteger:
		return "typed_integer"
	case KindDecimal:
		return "decimal"
	case KindTypedDecimal:
		return "typed_decimal"
	case KindEndpoint:
		return "endpoint"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindObject:
		return "object"
	case KindTuple:
		return "tuple"
	case KindType:
		return "type"
	case KindRange:
		return "range"
	default:
		return "unknown"
	}
}

// CoreValue is the tagged union over Null, Boolean, Text, Integer,
// TypedInteger, Decimal, TypedDecimal, Endpoint, List, Map, Object, Tuple,
// Type, and Range. Every concrete type in this package implements it.
type CoreValue interface {
	// Kind identifies which union arm this value occupies.
	Kind() Kind
}

// Null is the DATEX null value. The zero value is ready to use.
type Null struct{}

// Kind implements CoreValue.
func (Null) Kind() Kind { return KindNull }

// Boolean wraps a plain bool.
type Boolean bool

// Kind implements CoreValue.
func (Boolean) Kind() Kind { return KindBoolean }

// Text wraps a UTF-8 string.
type Text string

// Kind implements CoreValue.
func (Text) Kind() Kind { return KindText }

// EndpointValue wraps an endpoint.Endpoint as a core value.
type EndpointValue struct {
	Endpoint endpoint.Endpoint
}

// Kind implements CoreValue.
func (EndpointValue) Kind() Kind { return KindEndpoint }
