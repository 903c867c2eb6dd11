package dxb

import (
	"fmt"
	"math/big"

	"github.com/unyt-org/datex-core-go/value"
)

// EncodeValue appends the DXB literal/constructor stream for a plain
// value.Value onto e. References are not encodable by this function — the
// engine emits GetReference/CreateRef* instructions for those instead.
func EncodeValue(e *Encoder, v value.Value) error {
	return encodeCore(e, v.Inner)
}

func encodeCore(e *Encoder, inner value.CoreValue) error {
	switch vv := inner.(type) {
	case value.Null:
		e.Null()
	case value.Boolean:
		e.Bool(bool(vv))
	case value.Text:
		e.AutoText(string(vv))
	case value.Integer:
		encodeNarrowestInt(e, vv.BigInt())
	case value.TypedInteger:
		encodeTypedInt(e, vv)
	case value.Decimal:
		switch vv.DKind {
		case value.DecimalFinite:
			e.Decimal(vv.Finite)
		case value.DecimalInfPos:
			e.InfinityPos()
		case value.DecimalInfNeg:
			e.InfinityNeg()
		case value.DecimalNaN:
			e.NaN()
		case value.DecimalFraction:
			e.Fraction(vv.Numerator, vv.Denominator)
		}
	case value.TypedDecimal:
		if vv.Width == value.F32 {
			e.Float32(float32(vv.Value))
		} else {
			e.Float64(vv.Value)
		}
	case value.EndpointValue:
		e.Endpoint(vv.Endpoint)
	case value.List:
		if len(vv.Items) == 0 {
			e.EmptyList()
			return nil
		}
		e.StartList()
		for _, it := range vv.Items {
			if err := encodeContainer(e, it); err != nil {
				return err
			}
		}
		e.EndList()
	case *value.Map:
		if vv.Len() == 0 {
			e.EmptyMap()
			return nil
		}
		e.StartMap()
		for _, entry := range vv.Entries() {
			if err := encodeContainer(e, entry.Key); err != nil {
				return err
			}
			if err := encodeContainer(e, entry.Value); err != nil {
				return err
			}
			e.KeyValuePair()
		}
		e.EndMap()
	case value.Tuple:
		e.StartTuple()
		for _, it := range vv.Items {
			if err := encodeContainer(e, it); err != nil {
				return err
			}
		}
		e.EndTuple()
	case value.Object:
		e.StartObject()
		for _, f := range vv.Fields {
			e.AutoText(f.Name)
			if err := encodeContainer(e, f.Value); err != nil {
				return err
			}
			e.KeyValuePair()
		}
		e.EndObject()
	case value.Range:
		e.Op(OpRange)
		encodeNarrowestInt(e, vv.Start)
		encodeNarrowestInt(e, vv.End)
	default:
		return fmt.Errorf("dxb: cannot encode core value of kind %s", inner.Kind())
	}
	return nil
}

func encodeContainer(e *Encoder, c value.ValueContainer) error {
	v, ok := c.(value.Value)
	if !ok {
		return fmt.Errorf("dxb: cannot encode non-plain container directly")
	}
	return encodeCore(e, v.Inner)
}

// encodeNarrowestInt picks the narrowest signed/unsigned fixed-width opcode
// that faithfully represents v, falling back to arbitrary-precision Integer
// ("integer range dictates Int8 … Integer").
func encodeNarrowestInt(e *Encoder, v *big.Int) {
	if v.IsInt64() {
		n := v.Int64()
		switch {
		case n >= -128 && n <= 127:
			e.Int8(int8(n))
		case n >= -32768 && n <= 32767:
			e.Int16(int16(n))
		case n >= -(1<<31) && n <= (1<<31)-1:
			e.Int32(int32(n))
		default:
			e.Int64(n)
		}
		return
	}
	e.Integer(v)
}

func encodeTypedInt(e *Encoder, ti value.TypedInteger) {
	v := ti.BigInt()
	switch ti.Width {
	case value.I8:
		e.Int8(int8(v.Int64()))
	case value.I16:
		e.Int16(int16(v.Int64()))
	case value.I32:
		e.Int32(int32(v.Int64()))
	case value.I64:
		e.Int64(v.Int64())
	case value.I128:
		e.Int128(v, false)
	case value.U8:
		e.UInt8(uint8(v.Uint64()))
	case value.U16:
		e.UInt16(uint16(v.Uint64()))
	case value.U32:
		e.UInt32(uint32(v.Uint64()))
	case value.U64:
		e.UInt64(v.Uint64())
	case value.U128:
		e.Int128(v, true)
	}
}

// DecodeValue decodes a single value from d, consuming the instructions that
// form it (a literal, or a balanced constructor group).
func DecodeValue(d *Decoder) (value.Value, error) {
	instr, err := d.Next()
	if err != nil {
		return value.Value{}, err
	}
	return decodeFromInstruction(d, instr)
}

func decodeFromInstruction(d *Decoder, instr Instruction) (value.Value, error) {
	switch instr.Op {
	case OpNull:
		return value.NewValue(value.Null{}), nil
	case OpTrue:
		return value.NewValue(value.Boolean(true)), nil
	case OpFalse:
		return value.NewValue(value.Boolean(false)), nil
	case OpInt8, OpInt16, OpInt32, OpInt64, OpUInt8, OpUInt16, OpUInt32, OpUInt64, OpInteger, OpInt128, OpUInt128:
		return value.NewValue(value.NewInteger(instr.Int)), nil
	case OpFloat32, OpFloat64:
		return value.NewValue(value.TypedDecimal{Width: instr.FloatWidth, Value: instr.Float}), nil
	case OpDecimal:
		return value.NewValue(value.NewFiniteDecimal(instr.Float)), nil
	case OpInfinityPos:
		return value.NewValue(value.PositiveInfinity), nil
	case OpInfinityNeg:
		return value.NewValue(value.NegativeInfinity), nil
	case OpNaN:
		return value.NewValue(value.NaN), nil
	case OpFraction:
		return value.NewValue(value.NewFractionDecimal(instr.Int, instr.Denominator)), nil
	case OpText, OpShortText:
		return value.NewValue(value.Text(instr.Text)), nil
	case OpEndpoint:
		return value.NewValue(value.EndpointValue{Endpoint: instr.Endpoint}), nil
	case OpEmptyList:
		return value.NewValue(value.NewList()), nil
	case OpEmptyMap:
		return value.NewValue(value.NewMap()), nil
	case OpStartList:
		items := []value.ValueContainer{}
		for {
			next, err := d.Next()
			if err != nil {
				return value.Value{}, err
			}
			if next.Op == OpEndList {
				break
			}
			item, err := decodeFromInstruction(d, next)
			if err != nil {
				return value.Value{}, err
			}
			items = append(items, item)
		}
		return value.NewValue(value.NewList(items...)), nil
	case OpStartMap:
		m := value.NewMap()
		for {
			next, err := d.Next()
			if err != nil {
				return value.Value{}, err
			}
			if next.Op == OpEndMap {
				break
			}
			key, err := decodeFromInstruction(d, next)
			if err != nil {
				return value.Value{}, err
			}
			val, err := DecodeValue(d)
			if err != nil {
				return value.Value{}, err
			}
			kv, err := d.Next()
			if err != nil {
				return value.Value{}, err
			}
			if kv.Op != OpKeyValuePair {
				return value.Value{}, fmt.Errorf("dxb: expected KEY_VALUE_PAIR, got %s", kv.Op)
			}
			m.Set(key, val)
		}
		return value.NewValue(m), nil
	case OpStartTuple:
		items := []value.ValueContainer{}
		for {
			next, err := d.Next()
			if err != nil {
				return value.Value{}, err
			}
			if next.Op == OpEndTuple {
				break
			}
			item, err := decodeFromInstruction(d, next)
			if err != nil {
				return value.Value{}, err
			}
			items = append(items, item)
		}
		return value.NewValue(value.Tuple{Items: items}), nil
	case OpStartObject:
		var fields []value.ObjectField
		for {
			next, err := d.Next()
			if err != nil {
				return value.Value{}, err
			}
			if next.Op == OpEndObject {
				break
			}
			if next.Op != OpText && next.Op != OpShortText {
				return value.Value{}, fmt.Errorf("dxb: expected field name text, got %s", next.Op)
			}
			name := next.Text
			val, err := DecodeValue(d)
			if err != nil {
				return value.Value{}, err
			}
			kv, err := d.Next()
			if err != nil {
				return value.Value{}, err
			}
			if kv.Op != OpKeyValuePair {
				return value.Value{}, fmt.Errorf("dxb: expected KEY_VALUE_PAIR, got %s", kv.Op)
			}
			fields = append(fields, value.ObjectField{Name: name, Value: val})
		}
		return value.NewValue(value.Object{Fields: fields}), nil
	case OpRange:
		start, err := DecodeValue(d)
		if err != nil {
			return value.Value{}, err
		}
		end, err := DecodeValue(d)
		if err != nil {
			return value.Value{}, err
		}
		si := start.Inner.(value.Integer).BigInt()
		ei := end.Inner.(value.Integer).BigInt()
		return value.NewValue(value.Range{Start: si, End: ei}), nil
	default:
		return value.Value{}, fmt.Errorf("dxb: opcode %s does not introduce a value", instr.Op)
	}
}
