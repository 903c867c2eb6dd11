package dxb

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unyt-org/datex-core-go/value"
)

// A small integer literal narrows to the Int8 opcode followed by its
// one-byte value, and decodes back to an arbitrary-precision integer.
func TestIntegerLiteralNarrowsToInt8(t *testing.T) {
	e := NewEncoder()
	if err := encodeCore(e, value.NewIntegerFromInt64(42)); err != nil {
		t.Fatal(err)
	}
	e.EndStatement()

	got := e.Bytes()
	require.GreaterOrEqual(t, len(got), 2)
	assert.Equal(t, byte(OpInt8), got[0])
	assert.Equal(t, byte(0x2A), got[1])

	d := NewDecoder(got)
	v, err := DecodeValue(d)
	require.NoError(t, err)
	assert.True(t, value.StructuralEqual(v, value.NewValue(value.NewIntegerFromInt64(42))))
}

func TestListOfThreeIntegers(t *testing.T) {
	list := value.NewList(
		value.NewValue(value.NewIntegerFromInt64(1)),
		value.NewValue(value.NewIntegerFromInt64(2)),
		value.NewValue(value.NewIntegerFromInt64(3)),
	)
	e := NewEncoder()
	require.NoError(t, encodeCore(e, list))

	d := NewDecoder(e.Bytes())
	v, err := DecodeValue(d)
	require.NoError(t, err)
	decoded, ok := v.Inner.(value.List)
	require.True(t, ok)
	require.Len(t, decoded.Items, 3)
	assert.True(t, value.StructuralEqual(v, value.NewValue(list)))

	text, err := Decompile(e.Bytes(), DefaultDecompileOptions())
	require.NoError(t, err)
	assert.Equal(t, "[1,2,3];", text)
}

// Map entries survive an encode/decode round trip in insertion order.
func TestMapRoundTrip(t *testing.T) {
	m := value.NewMap()
	m.Set(value.NewValue(value.Text("key1")), value.NewValue(value.NewIntegerFromInt64(1)))
	m.Set(value.NewValue(value.Text("key2")), value.NewValue(value.Text("value")))
	m.Set(value.NewValue(value.Text("key3")), value.NewValue(value.Boolean(true)))

	e := NewEncoder()
	require.NoError(t, encodeCore(e, m))

	d := NewDecoder(e.Bytes())
	v, err := DecodeValue(d)
	require.NoError(t, err)
	decoded, ok := v.Inner.(*value.Map)
	require.True(t, ok)
	require.Equal(t, 3, decoded.Len())

	keys := decoded.Keys()
	require.Len(t, keys, 3)
	assert.True(t, value.StructuralEqual(keys[0], value.NewValue(value.Text("key1"))))
	assert.True(t, value.StructuralEqual(keys[1], value.NewValue(value.Text("key2"))))
	assert.True(t, value.StructuralEqual(keys[2], value.NewValue(value.Text("key3"))))

	assert.True(t, value.StructuralEqual(v, value.NewValue(m)))
}

func TestEmptyListAndMap(t *testing.T) {
	e := NewEncoder()
	require.NoError(t, encodeCore(e, value.NewList()))
	d := NewDecoder(e.Bytes())
	v, err := DecodeValue(d)
	require.NoError(t, err)
	assert.Equal(t, value.KindList, v.Inner.Kind())

	e2 := NewEncoder()
	require.NoError(t, encodeCore(e2, value.NewMap()))
	d2 := NewDecoder(e2.Bytes())
	v2, err := DecodeValue(d2)
	require.NoError(t, err)
	assert.Equal(t, value.KindMap, v2.Inner.Kind())
}

func TestTypedIntegerRoundTripsAsInteger(t *testing.T) {
	ti, err := value.NewTypedInteger(value.U8, big.NewInt(200))
	require.NoError(t, err)
	e := NewEncoder()
	require.NoError(t, encodeCore(e, ti))
	d := NewDecoder(e.Bytes())
	v, err := DecodeValue(d)
	require.NoError(t, err)
	assert.True(t, value.StructuralEqual(v, value.NewValue(value.NewInteger(ti.BigInt()))))
}

func TestTextNarrowing(t *testing.T) {
	e := NewEncoder()
	e.AutoText("short")
	assert.Equal(t, byte(OpShortText), e.Bytes()[0])

	e2 := NewEncoder()
	e2.AutoText(string(make([]byte, 300)))
	assert.Equal(t, byte(OpText), e2.Bytes()[0])
}

func TestTruncatedStreamError(t *testing.T) {
	d := NewDecoder([]byte{byte(OpInt8)})
	_, err := d.Next()
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestUnsupportedOpcodeError(t *testing.T) {
	d := NewDecoder([]byte{0x99})
	_, err := d.Next()
	assert.ErrorIs(t, err, ErrUnsupportedOpcode)
}
