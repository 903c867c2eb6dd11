package reference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unyt-org/datex-core-go/pointer"
	"github.com/unyt-org/datex-core-go/value"
)

func testAddr(b byte) pointer.Address {
	return pointer.NewLocal([5]byte{b, 0, 0, 0, 0})
}

func TestReferenceGetSet(t *testing.T) {
	r := New(testAddr(1), Mutable, value.NewValue(value.NewIntegerFromInt64(1)))
	assert.Equal(t, value.NewValue(value.NewIntegerFromInt64(1)), r.Get())

	require.NoError(t, r.Set(value.NewValue(value.NewIntegerFromInt64(2))))
	assert.Equal(t, value.NewValue(value.NewIntegerFromInt64(2)), r.Get())
}

func TestImmutableReferenceRejectsSet(t *testing.T) {
	r := New(testAddr(2), Immutable, value.NewValue(value.Text("fixed")))
	err := r.Set(value.NewValue(value.Text("changed")))
	assert.ErrorIs(t, err, ErrNotMutable)
}

func TestFinalReferenceAcceptsOneWrite(t *testing.T) {
	r := New(testAddr(3), Final, value.NewValue(value.Null{}))
	require.NoError(t, r.Set(value.NewValue(value.Text("first"))))
	err := r.Set(value.NewValue(value.Text("second")))
	assert.ErrorIs(t, err, ErrNotMutable)
}

func TestObserveRejectedOnImmutable(t *testing.T) {
	r := New(testAddr(4), Immutable, value.NewValue(value.Null{}))
	_, err := r.Observe(func(DIFUpdate) {})
	assert.ErrorIs(t, err, ErrImmutableReference)
}

func TestObserversNotifiedInRegistrationOrder(t *testing.T) {
	r := New(testAddr(5), Mutable, value.NewValue(value.NewIntegerFromInt64(0)))
	var order []int
	_, err := r.Observe(func(DIFUpdate) { order = append(order, 1) })
	require.NoError(t, err)
	_, err = r.Observe(func(DIFUpdate) { order = append(order, 2) })
	require.NoError(t, err)
	_, err = r.Observe(func(DIFUpdate) { order = append(order, 3) })
	require.NoError(t, err)

	require.NoError(t, r.Set(value.NewValue(value.NewIntegerFromInt64(1))))
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestUnobserveStopsNotifications(t *testing.T) {
	r := New(testAddr(6), Mutable, value.NewValue(value.Null{}))
	called := false
	id, err := r.Observe(func(DIFUpdate) { called = true })
	require.NoError(t, err)

	assert.True(t, r.Unobserve(id))
	require.NoError(t, r.Set(value.NewValue(value.Text("x"))))
	assert.False(t, called)
	assert.False(t, r.Unobserve(id), "double-unobserve reports not-found")
}

func TestObserverIDNeverReissuedAfterUnobserve(t *testing.T) {
	r := New(testAddr(7), Mutable, value.NewValue(value.Null{}))
	id0, _ := r.Observe(func(DIFUpdate) {})
	id1, _ := r.Observe(func(DIFUpdate) {})
	id2, _ := r.Observe(func(DIFUpdate) {})
	assert.Equal(t, []uint32{0, 1, 2}, []uint32{id0, id1, id2})

	r.Unobserve(id1)
	next, err := r.Observe(func(DIFUpdate) {})
	require.NoError(t, err)
	assert.Equal(t, uint32(3), next)
	assert.NotEqual(t, id1, next)
}

func TestReferenceIsValueContainer(t *testing.T) {
	r := New(testAddr(8), Mutable, value.NewValue(value.Null{}))
	var vc value.ValueContainer = r
	assert.Equal(t, value.ContainerReference, vc.ContainerKind())

	d, ok := vc.(value.Dereferencer)
	require.True(t, ok)
	resolved, ok := d.Deref()
	require.True(t, ok)
	assert.Equal(t, value.NewValue(value.Null{}), resolved)
}

func TestIdenticalComparesReferenceIdentity(t *testing.T) {
	a := New(testAddr(9), Mutable, value.NewValue(value.Null{}))
	b := New(testAddr(14), Mutable, value.NewValue(value.Null{}))
	c := a
	assert.True(t, value.Identical(a, c))
	assert.False(t, value.Identical(a, b), "distinct cells are never identical even with equal contents")
}

func TestListMutationHelpers(t *testing.T) {
	r := New(testAddr(10), Mutable, value.NewValue(value.NewList(value.NewValue(value.NewIntegerFromInt64(1)))))
	require.NoError(t, r.PushList(value.NewValue(value.NewIntegerFromInt64(2))))

	var lastUpdate DIFUpdate
	_, err := r.Observe(func(u DIFUpdate) { lastUpdate = u })
	require.NoError(t, err)

	popped, err := r.PopList()
	require.NoError(t, err)
	assert.Equal(t, value.NewValue(value.NewIntegerFromInt64(2)), popped)
	assert.Equal(t, DIFListPop, lastUpdate.Kind)
}

func TestMapMutationHelpers(t *testing.T) {
	r := New(testAddr(11), Mutable, value.NewValue(value.NewMap()))
	require.NoError(t, r.MapInsert(value.NewValue(value.Text("k")), value.NewValue(value.NewIntegerFromInt64(1))))

	v, ok := r.Get().(value.Value)
	require.True(t, ok)
	m, ok := v.Inner.(*value.Map)
	require.True(t, ok)
	assert.Equal(t, 1, m.Len())

	require.NoError(t, r.MapRemove(value.NewValue(value.Text("k"))))
	assert.Equal(t, 0, m.Len())
}

// Two observers on a mutable map reference each see exactly one MapInsert
// update, in registration order, carrying the inserted key and value.
func TestMapInsertNotifiesAllObserversInOrder(t *testing.T) {
	r := New(testAddr(13), Mutable, value.NewValue(value.NewMap()))

	var seen []struct {
		observer int
		update   DIFUpdate
	}
	_, err := r.Observe(func(u DIFUpdate) {
		seen = append(seen, struct {
			observer int
			update   DIFUpdate
		}{1, u})
	})
	require.NoError(t, err)
	_, err = r.Observe(func(u DIFUpdate) {
		seen = append(seen, struct {
			observer int
			update   DIFUpdate
		}{2, u})
	})
	require.NoError(t, err)

	key := value.NewValue(value.Text("k"))
	val := value.NewValue(value.NewIntegerFromInt64(1))
	require.NoError(t, r.MapInsert(key, val))

	require.Len(t, seen, 2)
	assert.Equal(t, 1, seen[0].observer)
	assert.Equal(t, 2, seen[1].observer)
	for _, s := range seen {
		assert.Equal(t, DIFMapInsert, s.update.Kind)
		assert.True(t, value.StructuralEqual(key, s.update.Key))
		assert.True(t, value.StructuralEqual(val, s.update.Value))
	}
	assert.Equal(t, seen[0].update.ID, seen[1].update.ID, "one mutation dispatches one update payload")
}

func TestSetFieldAppendsOrReplaces(t *testing.T) {
	r := New(testAddr(12), Mutable, value.NewValue(value.Object{TypeName: "T"}))
	require.NoError(t, r.SetField("x", value.NewValue(value.NewIntegerFromInt64(1))))
	require.NoError(t, r.SetField("x", value.NewValue(value.NewIntegerFromInt64(2))))

	v := r.Get().(value.Value)
	obj := v.Inner.(value.Object)
	require.Len(t, obj.Fields, 1)
	assert.Equal(t, value.NewValue(value.NewIntegerFromInt64(2)), obj.Fields[0].Value)
}
