package value

import (
	"errors"
	"fmt"
	"math/big"
)

// =============================================================================
// Arbitrary-precision Integer
// =============================================================================

// Integer is DATEX's arbitrary-precision signed integer. The zero value is
// not valid; use NewInteger.
type Integer struct {
	v *big.Int
}

// Kind implements CoreValue.
func (Integer) Kind() Kind { return KindInteger }

// NewInteger wraps a *big.Int (copied) as an Integer.
func NewInteger(v *big.Int) Integer {
	return Integer{v: new(big.Int).Set(v)}
}

// NewIntegerFromInt64 constructs an Integer from a native int64.
func NewIntegerFromInt64(v int64) Integer {
	return Integer{v: big.NewInt(v)}
}

// BigInt returns a copy of the underlying arbitrary-precision value.
func (i Integer) BigInt() *big.Int {
	if i.v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(i.v)
}

// String renders the decimal text form.
func (i Integer) String() string {
	if i.v == nil {
		return "0"
	}
	return i.v.String()
}

// =============================================================================
// Typed (fixed-width) Integer
// =============================================================================

// IntWidth enumerates the fixed-width integer variants.
type IntWidth uint8

const (
	I8 IntWidth = iota
	I16
	I32
	I64
	I128
	U8
	U16
	U32
	U64
	U128
)

func (w IntWidth) String() string {
	names := [...]string{"i8", "i16", "i32", "i64", "i128", "u8", "u16", "u32", "u64", "u128"}
	if int(w) < len(names) {
		return names[w]
	}
	return "unknown"
}

func (w IntWidth) signed() bool {
	return w <= I128
}

// bounds returns [min, max] (inclusive) for the width.
func (w IntWidth) bounds() (min, max *big.Int) {
	switch w {
	case I8:
		return bitBounds(8, true)
	case I16:
		return bitBounds(16, true)
	case I32:
		return bitBounds(32, true)
	case I64:
		return bitBounds(64, true)
	case I128:
		return bitBounds(128, true)
	case U8:
		return bitBounds(8, false)
	case U16:
		return bitBounds(16, false)
	case U32:
		return bitBounds(32, false)
	case U64:
		return bitBounds(64, false)
	case U128:
		return bitBounds(128, false)
	}
	return big.NewInt(0), big.NewInt(0)
}

func bitBounds(bits int, signed bool) (min, max *big.Int) {
	if !signed {
		maxV := new(big.Int).Lsh(big.NewInt(1), uint(bits))
		maxV.Sub(maxV, big.NewInt(1))
		return big.NewInt(0), maxV
	}
	maxV := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
	maxV.Sub(maxV, big.NewInt(1))
	minV := new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), uint(bits-1)))
	return minV, maxV
}

// ErrIntegerOverflow is returned by NewTypedInteger when the value cannot be
// represented in the requested width.
var ErrIntegerOverflow = errors.New("value: typed integer overflow")

// TypedInteger is a fixed-width integer that refuses overflow at
// construction.
type TypedInteger struct {
	Width IntWidth
	v     *big.Int
}

// Kind implements CoreValue.
func (TypedInteger) Kind() Kind { return KindTypedInteger }

// NewTypedInteger constructs a TypedInteger, returning ErrIntegerOverflow if
// v does not fit within Width's bounds.
func NewTypedInteger(width IntWidth, v *big.Int) (TypedInteger, error) {
	min, max := width.bounds()
	if v.Cmp(min) < 0 || v.Cmp(max) > 0 {
		return TypedInteger{}, fmt.Errorf("%w: %s does not fit in %s", ErrIntegerOverflow, v.String(), width)
	}
	return TypedInteger{Width: width, v: new(big.Int).Set(v)}, nil
}

// BigInt returns a copy of the underlying value.
func (t TypedInteger) BigInt() *big.Int {
	if t.v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(t.v)
}

// =============================================================================
// Decimal
// =============================================================================

// DecimalKind discriminates the Decimal variants: a finite value, ±Infinity,
// NaN, or an exact fraction.
type DecimalKind uint8

const (
	DecimalFinite DecimalKind = iota
	DecimalInfPos
	DecimalInfNeg
	DecimalNaN
	DecimalFraction
)

// Decimal is DATEX's default-width decimal number.
type Decimal struct {
	DKind       DecimalKind
	Finite      float64
	Numerator   *big.Int // set iff DKind == DecimalFraction
	Denominator *big.Int
}

// Kind implements CoreValue.
func (Decimal) Kind() Kind { return KindDecimal }

// NewFiniteDecimal constructs a finite Decimal.
func NewFiniteDecimal(v float64) Decimal {
	return Decimal{DKind: DecimalFinite, Finite: v}
}

// NewFractionDecimal constructs a Fraction-kind Decimal.
func NewFractionDecimal(num, den *big.Int) Decimal {
	return Decimal{
		DKind:       DecimalFraction,
		Numerator:   new(big.Int).Set(num),
		Denominator: new(big.Int).Set(den),
	}
}

// PositiveInfinity is the canonical +Infinity decimal.
var PositiveInfinity = Decimal{DKind: DecimalInfPos}

// NegativeInfinity is the canonical -Infinity decimal.
var NegativeInfinity = Decimal{DKind: DecimalInfNeg}

// NaN is the canonical NaN decimal.
var NaN = Decimal{DKind: DecimalNaN}

// IsNaN reports whether this Decimal is the NaN variant.
func (d Decimal) IsNaN() bool { return d.DKind == DecimalNaN }

// =============================================================================
// Typed (fixed-width) Decimal
// =============================================================================

// FloatWidth enumerates fixed-width float variants.
type FloatWidth uint8

const (
	F32 FloatWidth = iota
	F64
)

func (w FloatWidth) String() string {
	if w == F32 {
		return "f32"
	}
	return "f64"
}

// TypedDecimal is a fixed-width floating point value.
type TypedDecimal struct {
	Width FloatWidth
	Value float64
}

// Kind implements CoreValue.
func (TypedDecimal) Kind() Kind { return KindTypedDecimal }
