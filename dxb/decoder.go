package dxb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/unyt-org/datex-core-go/endpoint"
	"github.com/unyt-org/datex-core-go/pointer"
	"github.com/unyt-org/datex-core-go/value"
)

// ErrTruncated is returned when the stream ends mid-instruction.
var ErrTruncated = errors.New("dxb: truncated instruction stream")

// ErrUnsupportedOpcode is returned for a structurally valid but unimplemented
// opcode byte.
var ErrUnsupportedOpcode = errors.New("dxb: unsupported opcode")

// Decoder reads Instructions off a little-endian DXB byte stream.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder wraps buf for sequential decoding.
func NewDecoder(buf []byte) *Decoder { return &Decoder{buf: buf} }

// Pos returns the current read offset.
func (d *Decoder) Pos() int { return d.pos }

// Done reports whether the stream is fully consumed.
func (d *Decoder) Done() bool { return d.pos >= len(d.buf) }

func (d *Decoder) need(n int) error {
	if d.pos+n > len(d.buf) {
		return ErrTruncated
	}
	return nil
}

func (d *Decoder) readByte() (byte, error) {
	if err := d.need(1); err != nil {
		return 0, err
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

func (d *Decoder) readN(n int) ([]byte, error) {
	if err := d.need(n); err != nil {
		return nil, err
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *Decoder) readU16() (uint16, error) {
	b, err := d.readN(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (d *Decoder) readU32() (uint32, error) {
	b, err := d.readN(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *Decoder) readU64() (uint64, error) {
	b, err := d.readN(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (d *Decoder) readI8() (int8, error) {
	b, err := d.readByte()
	return int8(b), err
}

func (d *Decoder) readI16() (int16, error) {
	v, err := d.readU16()
	return int16(v), err
}

func (d *Decoder) readI32() (int32, error) {
	v, err := d.readU32()
	return int32(v), err
}

func (d *Decoder) readI64() (int64, error) {
	v, err := d.readU64()
	return int64(v), err
}

func (d *Decoder) readF32() (float32, error) {
	v, err := d.readU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (d *Decoder) readF64() (float64, error) {
	v, err := d.readU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// Next decodes and returns the next instruction.
func (d *Decoder) Next() (Instruction, error) {
	opByte, err := d.readByte()
	if err != nil {
		return Instruction{}, err
	}
	op := Opcode(opByte)
	switch op {
	case OpNull, OpTrue, OpFalse, OpEmptyList, OpEmptyMap,
		OpStartList, OpEndList, OpStartMap, OpEndMap,
		OpStartObject, OpEndObject, OpStartTuple, OpEndTuple, OpKeyValuePair, OpRange,
		OpEndStatement, OpReturnValue, OpApplyProperty, OpRemoteExecutionEnd,
		OpInfinityPos, OpInfinityNeg, OpNaN:
		return Instruction{Op: op}, nil

	case OpConditional:
		thenLen, err := d.readU32()
		if err != nil {
			return Instruction{}, err
		}
		thenBody, err := d.readN(int(thenLen))
		if err != nil {
			return Instruction{}, err
		}
		elseLen, err := d.readU32()
		if err != nil {
			return Instruction{}, err
		}
		elseBody, err := d.readN(int(elseLen))
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Op: op, ThenBody: thenBody, ElseBody: elseBody}, nil

	case OpInt8:
		v, err := d.readI8()
		return Instruction{Op: op, Int: big.NewInt(int64(v))}, err
	case OpInt16:
		v, err := d.readI16()
		return Instruction{Op: op, Int: big.NewInt(int64(v))}, err
	case OpInt32:
		v, err := d.readI32()
		return Instruction{Op: op, Int: big.NewInt(int64(v))}, err
	case OpInt64:
		v, err := d.readI64()
		return Instruction{Op: op, Int: big.NewInt(v)}, err
	case OpUInt8:
		v, err := d.readByte()
		return Instruction{Op: op, Int: big.NewInt(int64(v))}, err
	case OpUInt16:
		v, err := d.readU16()
		return Instruction{Op: op, Int: big.NewInt(int64(v))}, err
	case OpUInt32:
		v, err := d.readU32()
		return Instruction{Op: op, Int: big.NewInt(int64(v))}, err
	case OpUInt64:
		v, err := d.readU64()
		return Instruction{Op: op, Int: new(big.Int).SetUint64(v)}, err
	case OpInt128, OpUInt128:
		raw, err := d.readN(16)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Op: op, Int: decodeFixedWidthLE(raw, op == OpInt128)}, nil
	case OpInteger:
		n, err := d.decodeSignedMagnitude()
		return Instruction{Op: op, Int: n}, err
	case OpFloat32:
		v, err := d.readF32()
		return Instruction{Op: op, Float: float64(v), FloatWidth: value.F32}, err
	case OpFloat64, OpDecimal:
		v, err := d.readF64()
		return Instruction{Op: op, Float: v, FloatWidth: value.F64}, err
	case OpText:
		n, err := d.readU32()
		if err != nil {
			return Instruction{}, err
		}
		b, err := d.readN(int(n))
		return Instruction{Op: op, Text: string(b)}, err
	case OpShortText:
		n, err := d.readByte()
		if err != nil {
			return Instruction{}, err
		}
		b, err := d.readN(int(n))
		return Instruction{Op: op, Text: string(b)}, err
	case OpEndpoint:
		raw, err := d.readN(endpoint.Size)
		if err != nil {
			return Instruction{}, err
		}
		var ep endpoint.Endpoint
		if err := ep.UnmarshalBinary(raw); err != nil {
			return Instruction{}, err
		}
		return Instruction{Op: op, Endpoint: ep}, nil
	case OpFraction:
		num, err := d.decodeSignedMagnitude()
		if err != nil {
			return Instruction{}, err
		}
		den, err := d.decodeSignedMagnitude()
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Op: op, Int: num, Denominator: den}, nil

	case OpPointerAddress:
		addr, err := d.decodePointerAddress()
		return Instruction{Op: op, Address: addr}, err

	case OpAllocateSlot, OpGetSlotValue, OpSetSlotValue, OpDropSlot:
		s, err := d.readU32()
		return Instruction{Op: op, Slot: Slot(s)}, err
	case OpApplyFunction:
		n, err := d.readU32()
		return Instruction{Op: op, Count: n}, err
	case OpRemoteExecutionBegin:
		raw, err := d.readN(endpoint.Size)
		if err != nil {
			return Instruction{}, err
		}
		var ep endpoint.Endpoint
		if err := ep.UnmarshalBinary(raw); err != nil {
			return Instruction{}, err
		}
		n, err := d.readU32()
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Op: op, Endpoint: ep, Count: n}, nil

	case OpCreateRef, OpCreateRefMut, OpCreateRefFinal, OpDeref,
		OpApplyGeneric,
		OpStdTypeText, OpStdTypeInt, OpStdTypeBoolean, OpStdTypeDecimal:
		return Instruction{Op: op}, nil

	case OpGetReference:
		addr, err := d.decodePointerAddress()
		return Instruction{Op: op, Address: addr}, err

	default:
		if op.IsOperator() || op.IsAssignment() {
			return Instruction{Op: op}, nil
		}
		return Instruction{}, fmt.Errorf("%w: 0x%02X", ErrUnsupportedOpcode, byte(op))
	}
}

// decodePointerAddress reads a 1-byte kind tag (0=Internal, 1=Local,
// 2=Remote) followed by the kind's fixed-width address bytes.
func (d *Decoder) decodePointerAddress() (pointer.Address, error) {
	kind, err := d.readByte()
	if err != nil {
		return pointer.Address{}, err
	}
	switch kind {
	case 0:
		raw, err := d.readN(pointer.InternalSize)
		if err != nil {
			return pointer.Address{}, err
		}
		var b [pointer.InternalSize]byte
		copy(b[:], raw)
		return pointer.NewInternal(b), nil
	case 1:
		raw, err := d.readN(pointer.LocalSize)
		if err != nil {
			return pointer.Address{}, err
		}
		var b [pointer.LocalSize]byte
		copy(b[:], raw)
		return pointer.NewLocal(b), nil
	case 2:
		raw, err := d.readN(pointer.RemoteSize)
		if err != nil {
			return pointer.Address{}, err
		}
		var b [pointer.RemoteSize]byte
		copy(b[:], raw)
		return pointer.NewRemote(b), nil
	default:
		return pointer.Address{}, fmt.Errorf("dxb: unknown pointer address kind %d", kind)
	}
}

// SetPos rewinds or fast-forwards the read cursor; used by the execution
// engine to push back a boundary instruction it peeked at.
func (d *Decoder) SetPos(p int) { d.pos = p }

// ReadRaw consumes and returns n raw bytes without interpreting them as an
// instruction — used by the execution engine to lift an embedded remote-
// execution body out of the surrounding stream verbatim.
func (d *Decoder) ReadRaw(n int) ([]byte, error) {
	return d.readN(n)
}

// Len returns the total length of the wrapped byte stream.
func (d *Decoder) Len() int { return len(d.buf) }

func (d *Decoder) decodeSignedMagnitude() (*big.Int, error) {
	sign, err := d.readByte()
	if err != nil {
		return nil, err
	}
	n, err := d.readU32()
	if err != nil {
		return nil, err
	}
	mag, err := d.readN(int(n))
	if err != nil {
		return nil, err
	}
	v := new(big.Int).SetBytes(mag)
	if sign == 1 {
		v.Neg(v)
	}
	return v, nil
}

func decodeFixedWidthLE(raw []byte, signed bool) *big.Int {
	be := make([]byte, len(raw))
	for i, b := range raw {
		be[len(raw)-1-i] = b
	}
	v := new(big.Int).SetBytes(be)
	if signed && len(raw) > 0 && raw[len(raw)-1]&0x80 != 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(len(raw)*8))
		v.Sub(v, mod)
	}
	return v
}
