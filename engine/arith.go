package engine

import (
	"math"
	"math/big"

	"github.com/unyt-org/datex-core-go/dxb"
	"github.com/unyt-org/datex-core-go/value"
)

// resolveValue follows a reference container down to its plain Value,
// failing if it can't be resolved synchronously (a remote reference the
// engine never holds directly).
func resolveValue(c value.ValueContainer) (value.Value, error) {
	for {
		d, ok := c.(value.Dereferencer)
		if !ok {
			break
		}
		next, resolved := d.Deref()
		if !resolved {
			return value.Value{}, newErr(TypeMismatch, "reference does not resolve to a local value")
		}
		c = next
	}
	v, ok := c.(value.Value)
	if !ok {
		return value.Value{}, newErr(TypeMismatch, "expected a plain value, got a reference")
	}
	return v, nil
}

func asBigInt(v value.Value) (*big.Int, bool) {
	switch n := v.Inner.(type) {
	case value.Integer:
		return n.BigInt(), true
	case value.TypedInteger:
		return n.BigInt(), true
	}
	return nil, false
}

func asFloat(v value.Value) (float64, bool) {
	switch n := v.Inner.(type) {
	case value.Decimal:
		if n.DKind == value.DecimalFinite {
			return n.Finite, true
		}
		if n.DKind == value.DecimalFraction {
			num := new(big.Float).SetInt(n.Numerator)
			den := new(big.Float).SetInt(n.Denominator)
			f, _ := new(big.Float).Quo(num, den).Float64()
			return f, true
		}
		if n.DKind == value.DecimalInfPos {
			return math.Inf(1), true
		}
		if n.DKind == value.DecimalInfNeg {
			return math.Inf(-1), true
		}
		return math.NaN(), true
	case value.TypedDecimal:
		return n.Value, true
	}
	return 0, false
}

func isNumeric(v value.Value) bool {
	switch v.Inner.Kind() {
	case value.KindInteger, value.KindTypedInteger, value.KindDecimal, value.KindTypedDecimal:
		return true
	}
	return false
}

// binaryArith implements the arithmetic opcode block. Integer+Integer
// arithmetic never overflows (arbitrary precision); TypedInteger
// arithmetic is rejected with IntegerOverflow if the result doesn't fit the
// operand width — strict, no silent wraparound or saturation.
func binaryArith(op dxb.Opcode, a, b value.Value) (value.Value, error) {
	// Text concatenation is the one non-numeric Add overload.
	if op == dxb.OpAdd {
		if ta, ok := a.Inner.(value.Text); ok {
			if tb, ok := b.Inner.(value.Text); ok {
				return value.NewValue(value.Text(string(ta) + string(tb))), nil
			}
		}
	}

	if ai, aok := a.Inner.(value.TypedInteger); aok {
		if bi, bok := b.Inner.(value.TypedInteger); bok {
			if ai.Width != bi.Width {
				return value.Value{}, newErr(TypeMismatch, "typed integer width mismatch: %s vs %s", ai.Width, bi.Width)
			}
			res, err := intArith(op, ai.BigInt(), bi.BigInt())
			if err != nil {
				return value.Value{}, err
			}
			ti, err := value.NewTypedInteger(ai.Width, res)
			if err != nil {
				return value.Value{}, wrapErr(IntegerOverflow, err, "typed integer arithmetic overflow")
			}
			return value.NewValue(ti), nil
		}
	}

	if ab, aok := asBigInt(a); aok {
		if bb, bok := asBigInt(b); bok {
			res, err := intArith(op, ab, bb)
			if err != nil {
				return value.Value{}, err
			}
			return value.NewValue(value.NewInteger(res)), nil
		}
	}

	if isNumeric(a) && isNumeric(b) {
		af, _ := asFloat(a)
		bf, _ := asFloat(b)
		res, err := floatArith(op, af, bf)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewValue(value.NewFiniteDecimal(res)), nil
	}

	return value.Value{}, newErr(TypeMismatch, "operator %s not defined for %s and %s", op, a.Inner.Kind(), b.Inner.Kind())
}

func intArith(op dxb.Opcode, a, b *big.Int) (*big.Int, error) {
	r := new(big.Int)
	switch op {
	case dxb.OpAdd:
		return r.Add(a, b), nil
	case dxb.OpSub:
		return r.Sub(a, b), nil
	case dxb.OpMul:
		return r.Mul(a, b), nil
	case dxb.OpDiv:
		if b.Sign() == 0 {
			return nil, newErr(DivisionByZero, "integer division by zero")
		}
		return r.Quo(a, b), nil
	case dxb.OpMod:
		if b.Sign() == 0 {
			return nil, newErr(DivisionByZero, "integer modulo by zero")
		}
		return r.Mod(a, b), nil
	case dxb.OpPow:
		if b.Sign() < 0 {
			return nil, newErr(TypeMismatch, "integer power with negative exponent")
		}
		return r.Exp(a, b, nil), nil
	case dxb.OpBitAnd:
		return r.And(a, b), nil
	case dxb.OpBitOr:
		return r.Or(a, b), nil
	case dxb.OpBitXor:
		return r.Xor(a, b), nil
	case dxb.OpShiftL:
		return r.Lsh(a, uint(b.Int64())), nil
	case dxb.OpShiftR:
		return r.Rsh(a, uint(b.Int64())), nil
	default:
		return nil, newErr(TypeMismatch, "opcode %s is not an integer arithmetic operator", op)
	}
}

func floatArith(op dxb.Opcode, a, b float64) (float64, error) {
	switch op {
	case dxb.OpAdd:
		return a + b, nil
	case dxb.OpSub:
		return a - b, nil
	case dxb.OpMul:
		return a * b, nil
	case dxb.OpDiv:
		return a / b, nil
	case dxb.OpMod:
		return math.Mod(a, b), nil
	case dxb.OpPow:
		return math.Pow(a, b), nil
	default:
		return 0, newErr(TypeMismatch, "opcode %s is not a decimal arithmetic operator", op)
	}
}

func compare(op dxb.Opcode, a, b value.Value) (bool, error) {
	switch op {
	case dxb.OpEqual, dxb.OpStructuralEqual:
		return value.StructuralEqual(a, b), nil
	case dxb.OpNotEqual, dxb.OpNotStructuralEqual:
		return !value.StructuralEqual(a, b), nil
	case dxb.OpIs:
		return value.Identical(a, b), nil
	case dxb.OpMatches:
		t, ok := b.Inner.(value.Type)
		if !ok {
			return false, newErr(TypeMismatch, "matches operand must be a type value")
		}
		return t.Matches(a), nil
	}

	if ab, aok := asBigInt(a); aok {
		if bb, bok := asBigInt(b); bok {
			c := ab.Cmp(bb)
			return orderingResult(op, c)
		}
	}
	if isNumeric(a) && isNumeric(b) {
		af, _ := asFloat(a)
		bf, _ := asFloat(b)
		switch {
		case af < bf:
			return orderingResult(op, -1)
		case af > bf:
			return orderingResult(op, 1)
		default:
			return orderingResult(op, 0)
		}
	}
	return false, newErr(TypeMismatch, "operator %s not defined for %s and %s", op, a.Inner.Kind(), b.Inner.Kind())
}

func orderingResult(op dxb.Opcode, cmp int) (bool, error) {
	switch op {
	case dxb.OpLessThan:
		return cmp < 0, nil
	case dxb.OpLessOrEqual:
		return cmp <= 0, nil
	case dxb.OpGreaterThan:
		return cmp > 0, nil
	case dxb.OpGreaterOrEqual:
		return cmp >= 0, nil
	default:
		return false, newErr(TypeMismatch, "opcode %s is not a comparison operator", op)
	}
}

func unaryArith(op dxb.Opcode, v value.Value) (value.Value, error) {
	switch op {
	case dxb.OpUnaryPlus:
		return v, nil
	case dxb.OpUnaryMinus:
		if b, ok := asBigInt(v); ok {
			return value.NewValue(value.NewInteger(new(big.Int).Neg(b))), nil
		}
		if f, ok := asFloat(v); ok {
			return value.NewValue(value.NewFiniteDecimal(-f)), nil
		}
	case dxb.OpIncrement:
		if b, ok := asBigInt(v); ok {
			return value.NewValue(value.NewInteger(new(big.Int).Add(b, big.NewInt(1)))), nil
		}
		if f, ok := asFloat(v); ok {
			return value.NewValue(value.NewFiniteDecimal(f + 1)), nil
		}
	case dxb.OpDecrement:
		if b, ok := asBigInt(v); ok {
			return value.NewValue(value.NewInteger(new(big.Int).Sub(b, big.NewInt(1)))), nil
		}
		if f, ok := asFloat(v); ok {
			return value.NewValue(value.NewFiniteDecimal(f - 1)), nil
		}
	case dxb.OpLogNot:
		if bl, ok := v.Inner.(value.Boolean); ok {
			return value.NewValue(value.Boolean(!bool(bl))), nil
		}
	case dxb.OpBitNot:
		if b, ok := asBigInt(v); ok {
			return value.NewValue(value.NewInteger(new(big.Int).Not(b))), nil
		}
	}
	return value.Value{}, newErr(TypeMismatch, "unary operator %s not defined for %s", op, v.Inner.Kind())
}

func logicalBinary(op dxb.Opcode, a, b value.Value) (value.Value, error) {
	ab, aok := a.Inner.(value.Boolean)
	bb, bok := b.Inner.(value.Boolean)
	if !aok || !bok {
		return value.Value{}, newErr(TypeMismatch, "logical operator %s requires boolean operands", op)
	}
	switch op {
	case dxb.OpLogAnd:
		return value.NewValue(value.Boolean(bool(ab) && bool(bb))), nil
	case dxb.OpLogOr:
		return value.NewValue(value.Boolean(bool(ab) || bool(bb))), nil
	default:
		return value.Value{}, newErr(TypeMismatch, "opcode %s is not a logical operator", op)
	}
}
