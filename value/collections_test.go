package value

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapSetGetDelete(t *testing.T) {
	m := NewMap()
	assert.Equal(t, 0, m.Len())

	m.Set(NewValue(Text("k1")), NewValue(NewIntegerFromInt64(1)))
	m.Set(NewValue(Text("k2")), NewValue(NewIntegerFromInt64(2)))
	assert.Equal(t, 2, m.Len())

	v, ok := m.Get(NewValue(Text("k1")))
	require.True(t, ok)
	assert.Equal(t, NewValue(NewIntegerFromInt64(1)), v)

	assert.True(t, m.Delete(NewValue(Text("k1"))))
	assert.Equal(t, 1, m.Len())
	_, ok = m.Get(NewValue(Text("k1")))
	assert.False(t, ok)
}

func TestMapSetUpdatesExistingKeyInPlace(t *testing.T) {
	m := NewMap()
	m.Set(NewValue(Text("k")), NewValue(NewIntegerFromInt64(1)))
	m.Set(NewValue(Text("k")), NewValue(NewIntegerFromInt64(2)))
	assert.Equal(t, 1, m.Len())
	v, ok := m.Get(NewValue(Text("k")))
	require.True(t, ok)
	assert.Equal(t, NewValue(NewIntegerFromInt64(2)), v)
}

func TestMapKeysPreserveInsertionOrder(t *testing.T) {
	m := NewMap()
	m.Set(NewValue(Text("b")), NewValue(Null{}))
	m.Set(NewValue(Text("a")), NewValue(Null{}))
	keys := m.Keys()
	require.Len(t, keys, 2)
	assert.Equal(t, NewValue(Text("b")), keys[0])
	assert.Equal(t, NewValue(Text("a")), keys[1])
}

func TestListAndTuple(t *testing.T) {
	l := NewList(NewValue(NewIntegerFromInt64(1)), NewValue(NewIntegerFromInt64(2)))
	assert.Equal(t, KindList, l.Kind())
	assert.Len(t, l.Items, 2)

	tup := Tuple{Items: []ValueContainer{NewValue(Text("a")), NewValue(Boolean(true))}}
	assert.Equal(t, KindTuple, tup.Kind())
}

func TestObjectFieldAccess(t *testing.T) {
	obj := Object{
		TypeName: "Point",
		Fields: []ObjectField{
			{Name: "x", Value: NewValue(NewIntegerFromInt64(1))},
			{Name: "y", Value: NewValue(NewIntegerFromInt64(2))},
		},
	}
	assert.Equal(t, []string{"x", "y"}, obj.FieldNames())
	v, ok := obj.Get("y")
	require.True(t, ok)
	assert.Equal(t, NewValue(NewIntegerFromInt64(2)), v)
	_, ok = obj.Get("z")
	assert.False(t, ok)
}

func TestRange(t *testing.T) {
	r := NewRange(1, 5)
	assert.Equal(t, int64(4), r.Len().Int64())
	assert.True(t, r.Contains(big.NewInt(3)))
	assert.False(t, r.Contains(big.NewInt(5)))
}
