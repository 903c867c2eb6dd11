package reference

import (
	"github.com/google/uuid"

	"github.com/unyt-org/datex-core-go/value"
)

// DIFKind discriminates the incremental-update ("DIF") variants a mutation
// can emit.
type DIFKind uint8

const (
	DIFSet DIFKind = iota
	DIFListPush
	DIFListPop
	DIFMapInsert
	DIFMapRemove
	DIFFieldSet
)

func (k DIFKind) String() string {
	switch k {
	case DIFSet:
		return "set"
	case DIFListPush:
		return "list_push"
	case DIFListPop:
		return "list_pop"
	case DIFMapInsert:
		return "map_insert"
	case DIFMapRemove:
		return "map_remove"
	case DIFFieldSet:
		return "field_set"
	default:
		return "unknown"
	}
}

// DIFUpdate describes one incremental change to a reference's target.
type DIFUpdate struct {
	ID        string // correlation id, unique per dispatched update
	Kind      DIFKind
	Value     value.ValueContainer // new value for Set/ListPush/MapInsert/FieldSet
	Key       value.ValueContainer // key for MapInsert/MapRemove
	FieldName string               // field name for FieldSet
}

func NewSetUpdate(v value.ValueContainer) DIFUpdate {
	return DIFUpdate{ID: uuid.NewString(), Kind: DIFSet, Value: v}
}

func NewListPushUpdate(v value.ValueContainer) DIFUpdate {
	return DIFUpdate{ID: uuid.NewString(), Kind: DIFListPush, Value: v}
}

func NewListPopUpdate() DIFUpdate {
	return DIFUpdate{ID: uuid.NewString(), Kind: DIFListPop}
}

func NewMapInsertUpdate(key, v value.ValueContainer) DIFUpdate {
	return DIFUpdate{ID: uuid.NewString(), Kind: DIFMapInsert, Key: key, Value: v}
}

func NewMapRemoveUpdate(key value.ValueContainer) DIFUpdate {
	return DIFUpdate{ID: uuid.NewString(), Kind: DIFMapRemove, Key: key}
}

func NewFieldSetUpdate(name string, v value.ValueContainer) DIFUpdate {
	return DIFUpdate{ID: uuid.NewString(), Kind: DIFFieldSet, FieldName: name, Value: v}
}
