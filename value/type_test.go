package value

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypePathContains(t *testing.T) {
	parent := corePath("integer")
	child := TypePath{Namespace: "core", Name: "integer", Variant: "u8"}
	assert.True(t, parent.Contains(child))
	assert.True(t, parent.Contains(parent))
	assert.False(t, child.Contains(parent))
}

func TestTypeOfMatchesActualType(t *testing.T) {
	v := NewValue(Text("hi"))
	assert.Equal(t, corePath("text"), v.ActualType.Path)
	assert.Equal(t, DescriptorCore, v.ActualType.Descriptor)
}

func TestTypeOfTypedIntegerHasVariantAndBase(t *testing.T) {
	ti, err := NewTypedInteger(U8, big.NewInt(200))
	require.NoError(t, err)
	got := TypeOf(ti)
	assert.Equal(t, "u8", got.Path.Variant)
	require.NotNil(t, got.Base)
	assert.Equal(t, corePath("integer"), *got.Base)
}

func TestTypeRegistryRegisterAndLookup(t *testing.T) {
	r := NewTypeRegistry()
	require.NoError(t, RegisterCoreTypes(r))

	got, err := r.Lookup(corePath("integer"))
	require.NoError(t, err)
	assert.Equal(t, corePath("integer"), got.Path)

	_, err = r.Lookup(TypePath{Namespace: "core", Name: "nonexistent"})
	assert.ErrorIs(t, err, ErrTypeNotFound)
}

func TestTypeRegistryDuplicateRejected(t *testing.T) {
	r := NewTypeRegistry()
	require.NoError(t, RegisterCoreTypes(r))
	_, err := r.Register(Type{Path: corePath("integer"), Descriptor: DescriptorCore})
	assert.ErrorIs(t, err, ErrDuplicateType)
}

func TestTypeRegistryMissingBaseRejected(t *testing.T) {
	r := NewTypeRegistry()
	base := TypePath{Namespace: "core", Name: "nonexistent"}
	_, err := r.Register(Type{Path: corePath("x"), Descriptor: DescriptorCore, Base: &base})
	assert.ErrorIs(t, err, ErrTypeNotFound)
}

func TestTypeContainerIdentity(t *testing.T) {
	r := NewTypeRegistry()
	require.NoError(t, RegisterCoreTypes(r))

	ref1, err := r.Ref(corePath("integer"))
	require.NoError(t, err)
	ref2, err := r.Ref(corePath("integer"))
	require.NoError(t, err)
	assert.True(t, ref1.IdentityEqual(ref2))

	inline := NewInlineType(Type{Path: corePath("integer"), Descriptor: DescriptorCore})
	assert.False(t, inline.IdentityEqual(ref1))
}
