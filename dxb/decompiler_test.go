package dxb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unyt-org/datex-core-go/value"
)

func TestDecompileMultipleStatements(t *testing.T) {
	e := NewEncoder()
	require.NoError(t, encodeCore(e, value.NewIntegerFromInt64(1)))
	e.EndStatement()
	require.NoError(t, encodeCore(e, value.Text("hi")))
	e.EndStatement()

	text, err := Decompile(e.Bytes(), DefaultDecompileOptions())
	require.NoError(t, err)
	assert.Equal(t, `1; "hi";`, text)
}

func TestDecompileObjectAndTuple(t *testing.T) {
	obj := value.Object{TypeName: "Point", Fields: []value.ObjectField{
		{Name: "x", Value: value.NewValue(value.NewIntegerFromInt64(1))},
		{Name: "y", Value: value.NewValue(value.NewIntegerFromInt64(2))},
	}}
	e := NewEncoder()
	require.NoError(t, encodeCore(e, obj))
	text, err := Decompile(e.Bytes(), DefaultDecompileOptions())
	require.NoError(t, err)
	assert.Equal(t, `Point{x:1,y:2};`, text)

	tup := value.Tuple{Items: []value.ValueContainer{value.NewValue(value.Boolean(true)), value.NewValue(value.Null{})}}
	e2 := NewEncoder()
	require.NoError(t, encodeCore(e2, tup))
	text2, err := Decompile(e2.Bytes(), DefaultDecompileOptions())
	require.NoError(t, err)
	assert.Equal(t, `(true,null);`, text2)
}

func TestDecompileColorizedWrapsLiterals(t *testing.T) {
	e := NewEncoder()
	require.NoError(t, encodeCore(e, value.NewIntegerFromInt64(7)))

	opts := DefaultDecompileOptions()
	opts.Colorized = true
	text, err := Decompile(e.Bytes(), opts)
	require.NoError(t, err)
	assert.Equal(t, colorNumber+"7"+colorReset+";", text)
}

func TestDecompileDecimalSpecials(t *testing.T) {
	for _, tc := range []struct {
		d    value.Decimal
		want string
	}{
		{value.PositiveInfinity, "infinity;"},
		{value.NegativeInfinity, "-infinity;"},
		{value.NaN, "nan;"},
	} {
		e := NewEncoder()
		require.NoError(t, encodeCore(e, tc.d))
		text, err := Decompile(e.Bytes(), DefaultDecompileOptions())
		require.NoError(t, err)
		assert.Equal(t, tc.want, text)
	}
}
