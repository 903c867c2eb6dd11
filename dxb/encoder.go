package dxb

import (
	"bytes"
	"encoding/binary"
	"math/big"

	"github.com/unyt-org/datex-core-go/endpoint"
	"github.com/unyt-org/datex-core-go/pointer"
)

// Encoder builds a little-endian DXB instruction stream.
type Encoder struct {
	buf bytes.Buffer
}

// NewEncoder constructs an empty Encoder.
func NewEncoder() *Encoder { return &Encoder{} }

// Bytes returns the encoded stream so far.
func (e *Encoder) Bytes() []byte { return e.buf.Bytes() }

// Raw appends pre-encoded instruction bytes verbatim (a nested body built
// by a separate Encoder).
func (e *Encoder) Raw(b []byte) { e.buf.Write(b) }

// Len returns the current stream length, usable as a patch offset.
func (e *Encoder) Len() int { return e.buf.Len() }

func (e *Encoder) writeOp(op Opcode) { e.buf.WriteByte(byte(op)) }

func (e *Encoder) writeU8(v uint8)   { e.buf.WriteByte(v) }
func (e *Encoder) writeU16(v uint16) { _ = binary.Write(&e.buf, binary.LittleEndian, v) }
func (e *Encoder) writeU32(v uint32) { _ = binary.Write(&e.buf, binary.LittleEndian, v) }
func (e *Encoder) writeU64(v uint64) { _ = binary.Write(&e.buf, binary.LittleEndian, v) }
func (e *Encoder) writeI8(v int8)    { _ = binary.Write(&e.buf, binary.LittleEndian, v) }
func (e *Encoder) writeI16(v int16)  { _ = binary.Write(&e.buf, binary.LittleEndian, v) }
func (e *Encoder) writeI32(v int32)  { _ = binary.Write(&e.buf, binary.LittleEndian, v) }
func (e *Encoder) writeI64(v int64)  { _ = binary.Write(&e.buf, binary.LittleEndian, v) }
func (e *Encoder) writeF32(v float32) { _ = binary.Write(&e.buf, binary.LittleEndian, v) }
func (e *Encoder) writeF64(v float64) { _ = binary.Write(&e.buf, binary.LittleEndian, v) }

// =============================================================================
// Literals
// =============================================================================

func (e *Encoder) Null()  { e.writeOp(OpNull) }
func (e *Encoder) Bool(v bool) {
	if v {
		e.writeOp(OpTrue)
	} else {
		e.writeOp(OpFalse)
	}
}

func (e *Encoder) Int8(v int8)   { e.writeOp(OpInt8); e.writeI8(v) }
func (e *Encoder) Int16(v int16) { e.writeOp(OpInt16); e.writeI16(v) }
func (e *Encoder) Int32(v int32) { e.writeOp(OpInt32); e.writeI32(v) }
func (e *Encoder) Int64(v int64) { e.writeOp(OpInt64); e.writeI64(v) }
func (e *Encoder) UInt8(v uint8)   { e.writeOp(OpUInt8); e.writeU8(v) }
func (e *Encoder) UInt16(v uint16) { e.writeOp(OpUInt16); e.writeU16(v) }
func (e *Encoder) UInt32(v uint32) { e.writeOp(OpUInt32); e.writeU32(v) }
func (e *Encoder) UInt64(v uint64) { e.writeOp(OpUInt64); e.writeU64(v) }

// Int128 encodes a 128-bit (signed or unsigned) integer as 16 raw
// little-endian bytes, padded/truncated from v's two's-complement form.
func (e *Encoder) Int128(v *big.Int, unsigned bool) {
	if unsigned {
		e.writeOp(OpUInt128)
	} else {
		e.writeOp(OpInt128)
	}
	e.buf.Write(fixedWidthLE(v, 16))
}

// Integer encodes an arbitrary-precision integer: a sign byte (0 = non-
// negative, 1 = negative) followed by a u32 byte-length and the big-endian
// magnitude bytes.
func (e *Encoder) Integer(v *big.Int) {
	e.writeOp(OpInteger)
	sign := uint8(0)
	if v.Sign() < 0 {
		sign = 1
	}
	e.writeU8(sign)
	mag := new(big.Int).Abs(v).Bytes()
	e.writeU32(uint32(len(mag)))
	e.buf.Write(mag)
}

func (e *Encoder) Float32(v float32) { e.writeOp(OpFloat32); e.writeF32(v) }
func (e *Encoder) Float64(v float64) { e.writeOp(OpFloat64); e.writeF64(v) }
func (e *Encoder) Decimal(v float64) { e.writeOp(OpDecimal); e.writeF64(v) }
func (e *Encoder) InfinityPos()      { e.writeOp(OpInfinityPos) }
func (e *Encoder) InfinityNeg()      { e.writeOp(OpInfinityNeg) }
func (e *Encoder) NaN()              { e.writeOp(OpNaN) }

// Fraction encodes a numerator/denominator pair of arbitrary-precision
// integers.
func (e *Encoder) Fraction(num, den *big.Int) {
	e.writeOp(OpFraction)
	e.encodeBigIntMagnitude(num)
	e.encodeBigIntMagnitude(den)
}

func (e *Encoder) encodeBigIntMagnitude(v *big.Int) {
	sign := uint8(0)
	if v.Sign() < 0 {
		sign = 1
	}
	e.writeU8(sign)
	mag := new(big.Int).Abs(v).Bytes()
	e.writeU32(uint32(len(mag)))
	e.buf.Write(mag)
}

// Text encodes a UTF-8 string with a u32 length prefix.
func (e *Encoder) Text(s string) {
	e.writeOp(OpText)
	e.writeU32(uint32(len(s)))
	e.buf.WriteString(s)
}

// ShortText encodes a UTF-8 string with a u8 length prefix (s must be
// shorter than 256 bytes).
func (e *Encoder) ShortText(s string) {
	e.writeOp(OpShortText)
	e.writeU8(uint8(len(s)))
	e.buf.WriteString(s)
}

// AutoText picks ShortText when s fits in a u8 length, else Text, always
// choosing the narrowest encoding that can hold s.
func (e *Encoder) AutoText(s string) {
	if len(s) < 256 {
		e.ShortText(s)
	} else {
		e.Text(s)
	}
}

func (e *Encoder) Endpoint(ep endpoint.Endpoint) {
	e.writeOp(OpEndpoint)
	b, _ := ep.MarshalBinary()
	e.buf.Write(b)
}

func (e *Encoder) EmptyList() { e.writeOp(OpEmptyList) }
func (e *Encoder) EmptyMap()  { e.writeOp(OpEmptyMap) }

// PointerAddress encodes a pointer address literal: a 1-byte kind tag
// (0=Internal, 1=Local, 2=Remote) followed by the kind's fixed-width bytes.
func (e *Encoder) PointerAddress(addr pointer.Address) {
	e.writeOp(OpPointerAddress)
	e.writePointerAddressBody(addr)
}

func (e *Encoder) writePointerAddressBody(addr pointer.Address) {
	switch addr.Kind() {
	case pointer.KindInternal:
		e.writeU8(0)
	case pointer.KindLocal:
		e.writeU8(1)
	case pointer.KindRemote:
		e.writeU8(2)
	}
	e.buf.Write(addr.Bytes())
}

// GetReference encodes a reference lookup by pointer address.
func (e *Encoder) GetReference(addr pointer.Address) {
	e.writeOp(OpGetReference)
	e.writePointerAddressBody(addr)
}

func (e *Encoder) CreateRef()      { e.writeOp(OpCreateRef) }
func (e *Encoder) CreateRefMut()   { e.writeOp(OpCreateRefMut) }
func (e *Encoder) CreateRefFinal() { e.writeOp(OpCreateRefFinal) }
func (e *Encoder) Deref()          { e.writeOp(OpDeref) }

func (e *Encoder) ApplyGeneric() { e.writeOp(OpApplyGeneric) }

func (e *Encoder) StdTypeText()    { e.writeOp(OpStdTypeText) }
func (e *Encoder) StdTypeInt()     { e.writeOp(OpStdTypeInt) }
func (e *Encoder) StdTypeBoolean() { e.writeOp(OpStdTypeBoolean) }
func (e *Encoder) StdTypeDecimal() { e.writeOp(OpStdTypeDecimal) }

// =============================================================================
// Constructors
// =============================================================================

func (e *Encoder) StartList()  { e.writeOp(OpStartList) }
func (e *Encoder) EndList()    { e.writeOp(OpEndList) }
func (e *Encoder) StartMap()   { e.writeOp(OpStartMap) }
func (e *Encoder) EndMap()     { e.writeOp(OpEndMap) }
func (e *Encoder) StartObject() { e.writeOp(OpStartObject) }
func (e *Encoder) EndObject()   { e.writeOp(OpEndObject) }
func (e *Encoder) StartTuple()  { e.writeOp(OpStartTuple) }
func (e *Encoder) EndTuple()    { e.writeOp(OpEndTuple) }
func (e *Encoder) KeyValuePair() { e.writeOp(OpKeyValuePair) }

// =============================================================================
// Operators (stack order: operands already pushed, then the opcode)
// =============================================================================

func (e *Encoder) Op(op Opcode) { e.writeOp(op) }

// =============================================================================
// Control / scope / slots / apply / remote
// =============================================================================

func (e *Encoder) EndStatement() { e.writeOp(OpEndStatement) }
func (e *Encoder) ReturnValue()  { e.writeOp(OpReturnValue) }

// Conditional encodes a ternary branch: the condition must already be on the
// stack. thenBody/elseBody are complete, independently-decodable instruction
// streams (each the compiled form of one branch expression); only the taken
// branch is ever evaluated, so side effects in the other never run.
func (e *Encoder) Conditional(thenBody, elseBody []byte) {
	e.writeOp(OpConditional)
	e.writeU32(uint32(len(thenBody)))
	e.buf.Write(thenBody)
	e.writeU32(uint32(len(elseBody)))
	e.buf.Write(elseBody)
}

func (e *Encoder) AllocateSlot(s Slot) { e.writeOp(OpAllocateSlot); e.writeU32(uint32(s)) }
func (e *Encoder) GetSlotValue(s Slot) { e.writeOp(OpGetSlotValue); e.writeU32(uint32(s)) }
func (e *Encoder) SetSlotValue(s Slot) { e.writeOp(OpSetSlotValue); e.writeU32(uint32(s)) }
func (e *Encoder) DropSlot(s Slot)     { e.writeOp(OpDropSlot); e.writeU32(uint32(s)) }

func (e *Encoder) ApplyFunction(argCount uint32) { e.writeOp(OpApplyFunction); e.writeU32(argCount) }
func (e *Encoder) ApplyProperty()                { e.writeOp(OpApplyProperty) }

// RemoteExecutionBegin writes the opcode, target endpoint, and a zeroed u32
// length placeholder, returning the byte offset of that placeholder for a
// later PatchLength call.
func (e *Encoder) RemoteExecutionBegin(target endpoint.Endpoint) (lengthOffset int) {
	e.writeOp(OpRemoteExecutionBegin)
	b, _ := target.MarshalBinary()
	e.buf.Write(b)
	lengthOffset = e.buf.Len()
	e.writeU32(0)
	return lengthOffset
}

// PatchLength overwrites the u32 placeholder at offset with length.
func (e *Encoder) PatchLength(offset int, length uint32) {
	out := e.buf.Bytes()
	binary.LittleEndian.PutUint32(out[offset:offset+4], length)
}

func (e *Encoder) RemoteExecutionEnd() { e.writeOp(OpRemoteExecutionEnd) }

// fixedWidthLE renders v's two's-complement form as n little-endian bytes.
func fixedWidthLE(v *big.Int, n int) []byte {
	out := make([]byte, n)
	mag := new(big.Int).Abs(v).Bytes() // big-endian magnitude
	for i := 0; i < len(mag) && i < n; i++ {
		out[i] = mag[len(mag)-1-i]
	}
	if v.Sign() < 0 {
		carry := true
		for i := range out {
			out[i] = ^out[i]
			if carry {
				out[i]++
				carry = out[i] == 0
			}
		}
	}
	return out
}
