package value

import "math/big"

// List is an ordered sequence of containers.
type List struct {
	Items []ValueContainer
}

// Kind implements CoreValue.
func (List) Kind() Kind { return KindList }

// NewList builds a List from the given items (copied).
func NewList(items ...ValueContainer) List {
	return List{Items: append([]ValueContainer(nil), items...)}
}

// mapEntry is one insertion-ordered key/value pair of a Map.
type mapEntry struct {
	key   ValueContainer
	value ValueContainer
}

// Map is an insertion-ordered key -> container mapping whose keys are
// themselves containers. Lookup uses structural equality via a
// structural hash bucket.
type Map struct {
	entries []mapEntry
	index   map[uint64][]int // structural hash -> indices into entries
}

// Kind implements CoreValue.
func (*Map) Kind() Kind { return KindMap }

// NewMap constructs an empty Map.
func NewMap() *Map {
	return &Map{index: make(map[uint64][]int)}
}

// Len returns the number of entries.
func (m *Map) Len() int { return len(m.entries) }

// Set inserts or updates key -> val, preserving original insertion order on
// update and appending on first insertion.
func (m *Map) Set(key, val ValueContainer) {
	h := structuralHash(key)
	for _, idx := range m.index[h] {
		if StructuralEqual(m.entries[idx].key, key) {
			m.entries[idx].value = val
			return
		}
	}
	m.index[h] = append(m.index[h], len(m.entries))
	m.entries = append(m.entries, mapEntry{key: key, value: val})
}

// Get looks up a value by structurally-equal key.
func (m *Map) Get(key ValueContainer) (ValueContainer, bool) {
	h := structuralHash(key)
	for _, idx := range m.index[h] {
		if StructuralEqual(m.entries[idx].key, key) {
			return m.entries[idx].value, true
		}
	}
	return nil, false
}

// Delete removes a key, returning whether it was present.
func (m *Map) Delete(key ValueContainer) bool {
	h := structuralHash(key)
	for i, idx := range m.index[h] {
		if StructuralEqual(m.entries[idx].key, key) {
			m.entries = append(m.entries[:idx], m.entries[idx+1:]...)
			m.index[h] = append(m.index[h][:i], m.index[h][i+1:]...)
			m.reindex()
			return true
		}
	}
	return false
}

// reindex rebuilds the hash index after a deletion shifts entries down.
func (m *Map) reindex() {
	m.index = make(map[uint64][]int, len(m.index))
	for i, e := range m.entries {
		h := structuralHash(e.key)
		m.index[h] = append(m.index[h], i)
	}
}

// Keys returns keys in insertion order.
func (m *Map) Keys() []ValueContainer {
	out := make([]ValueContainer, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.key
	}
	return out
}

// MapEntry is one exported (key, value) pair snapshot of a Map.
type MapEntry struct {
	Key   ValueContainer
	Value ValueContainer
}

// Entries returns (key, value) pairs in insertion order.
func (m *Map) Entries() []MapEntry {
	out := make([]MapEntry, len(m.entries))
	for i, e := range m.entries {
		out[i] = MapEntry{Key: e.key, Value: e.value}
	}
	return out
}

// ObjectField is one (name, value) pair of an Object record.
type ObjectField struct {
	Name  string
	Value ValueContainer
}

// Object is a typed record: an ordered list of (field-name, container)
// pairs.
type Object struct {
	TypeName string
	Fields   []ObjectField
}

// Kind implements CoreValue.
func (Object) Kind() Kind { return KindObject }

// FieldNames returns the field name set, in order.
func (o Object) FieldNames() []string {
	out := make([]string, len(o.Fields))
	for i, f := range o.Fields {
		out[i] = f.Name
	}
	return out
}

// Get returns the container for a named field.
func (o Object) Get(name string) (ValueContainer, bool) {
	for _, f := range o.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Tuple is an ordered, heterogeneous sequence, distinct from List in that
// its arity is fixed by construction.
type Tuple struct {
	Items []ValueContainer
}

// Kind implements CoreValue.
func (Tuple) Kind() Kind { return KindTuple }

// Range is an integer range, start inclusive, end exclusive.
type Range struct {
	Start *big.Int
	End   *big.Int
}

// Kind implements CoreValue.
func (Range) Kind() Kind { return KindRange }

// NewRange constructs a Range from native int64 bounds.
func NewRange(start, end int64) Range {
	return Range{Start: big.NewInt(start), End: big.NewInt(end)}
}

// Len returns the number of integers in the range (0 if End <= Start).
func (r Range) Len() *big.Int {
	n := new(big.Int).Sub(r.End, r.Start)
	if n.Sign() < 0 {
		return big.NewInt(0)
	}
	return n
}

// Contains reports whether v lies in [Start, End).
func (r Range) Contains(v *big.Int) bool {
	return v.Cmp(r.Start) >= 0 && v.Cmp(r.End) < 0
}
