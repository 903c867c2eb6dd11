// Package reference implements the DATEX reference subsystem: mutable,
// immutable, and final memory cells addressed by a pointer.Address, with
// observer notification on mutation.
//
// Reference implements value.ValueContainer purely through its exported
// ContainerKind/Deref/IdentityToken methods, so the value package's sum type
// can be satisfied from this package without an import cycle (reference
// depends on value, never the reverse).
package reference

import (
	"errors"
	"sync"

	"github.com/unyt-org/datex-core-go/pointer"
	"github.com/unyt-org/datex-core-go/value"
)

// Mutability discriminates the three reference kinds.
type Mutability uint8

const (
	// Mutable references accept repeated Set/mutation calls and support
	// observation.
	Mutable Mutability = iota
	// Immutable references never change after construction.
	Immutable
	// Final references accept exactly one write, after which they behave
	// like Immutable.
	Final
)

func (m Mutability) String() string {
	switch m {
	case Mutable:
		return "mutable"
	case Immutable:
		return "immutable"
	case Final:
		return "final"
	default:
		return "unknown"
	}
}

// ErrNotMutable is returned by Set and the collection-mutation helpers when
// called on an Immutable reference, or a Final reference that has already
// been written once.
var ErrNotMutable = errors.New("reference: not mutable")

// ErrImmutableReference is returned by Observe for any reference whose
// Mutability is not Mutable — an Immutable or Final reference never changes
// after it settles, so observing it is a programming error rather than a
// race to guard against.
var ErrImmutableReference = errors.New("reference: cannot observe an immutable or final reference")

// Reference is a memory cell addressed by a pointer.Address. It is the sole
// implementation of value.ValueContainer's "reference" arm.
type Reference struct {
	mu         sync.RWMutex
	addr       pointer.Address
	mutability Mutability
	target     value.ValueContainer
	finalized  bool

	observers      []observerEntry
	nextObserverID uint32
}

// New constructs a Reference at addr holding the given initial value.
func New(addr pointer.Address, mutability Mutability, initial value.ValueContainer) *Reference {
	return &Reference{addr: addr, mutability: mutability, target: initial}
}

// ContainerKind implements value.ValueContainer.
func (r *Reference) ContainerKind() value.ContainerKind { return value.ContainerReference }

// Deref implements value.Dereferencer, resolving synchronously since the
// reference is locally owned. Remote references resolved only through the
// engine's interrupt machinery are out of scope for this type.
func (r *Reference) Deref() (value.ValueContainer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.target, true
}

// IdentityToken implements value.Identifiable using the backing address,
// which is unique per reference for the life of the runtime.
func (r *Reference) IdentityToken() string { return r.addr.String() }

// Address returns the reference's backing pointer address.
func (r *Reference) Address() pointer.Address { return r.addr }

// Mutability reports the reference's mutability class.
func (r *Reference) Mutability() Mutability {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mutability
}

// Get returns the current target.
func (r *Reference) Get() value.ValueContainer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.target
}

// Set replaces the target wholesale and dispatches a DIFUpdate to all
// observers, in registration order.
func (r *Reference) Set(v value.ValueContainer) error {
	return r.mutate(func(value.ValueContainer) (value.ValueContainer, DIFUpdate, error) {
		return v, NewSetUpdate(v), nil
	})
}

// mutate is the single choke point for every write: it enforces the
// mutability rule, swaps the target, and fans the resulting DIFUpdate out to
// observers registered at the time of the call.
func (r *Reference) mutate(fn func(current value.ValueContainer) (value.ValueContainer, DIFUpdate, error)) error {
	r.mu.Lock()
	if err := r.checkWritable(); err != nil {
		r.mu.Unlock()
		return err
	}
	next, update, err := fn(r.target)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.target = next
	if r.mutability == Final {
		r.finalized = true
	}
	observers := append([]observerEntry(nil), r.observers...)
	r.mu.Unlock()

	dispatch(observers, update)
	return nil
}

// checkWritable must be called with r.mu held.
func (r *Reference) checkWritable() error {
	switch r.mutability {
	case Mutable:
		return nil
	case Final:
		if r.finalized {
			return ErrNotMutable
		}
		return nil
	default:
		return ErrNotMutable
	}
}

// =============================================================================
// Collection-shaped mutation helpers — applicable when the target wraps a
// value.List, *value.Map, or value.Object. Each emits the DIFUpdate kind
// named after the operation rather than a blanket Set, so observers can
// apply the delta incrementally.
// =============================================================================

// PushList appends item to a List target.
func (r *Reference) PushList(item value.ValueContainer) error {
	return r.mutate(func(current value.ValueContainer) (value.ValueContainer, DIFUpdate, error) {
		_, l, err := asList(current)
		if err != nil {
			return nil, DIFUpdate{}, err
		}
		l.Items = append(l.Items, item)
		return value.NewValue(l), NewListPushUpdate(item), nil
	})
}

// PopList removes and returns the last item of a List target.
func (r *Reference) PopList() (value.ValueContainer, error) {
	var popped value.ValueContainer
	err := r.mutate(func(current value.ValueContainer) (value.ValueContainer, DIFUpdate, error) {
		_, l, err := asList(current)
		if err != nil {
			return nil, DIFUpdate{}, err
		}
		if len(l.Items) == 0 {
			return nil, DIFUpdate{}, errors.New("reference: pop from empty list")
		}
		popped = l.Items[len(l.Items)-1]
		l.Items = l.Items[:len(l.Items)-1]
		return value.NewValue(l), NewListPopUpdate(), nil
	})
	return popped, err
}

// MapInsert sets key -> val on a Map target.
func (r *Reference) MapInsert(key, val value.ValueContainer) error {
	return r.mutate(func(current value.ValueContainer) (value.ValueContainer, DIFUpdate, error) {
		_, m, err := asMap(current)
		if err != nil {
			return nil, DIFUpdate{}, err
		}
		m.Set(key, val)
		return value.NewValue(m), NewMapInsertUpdate(key, val), nil
	})
}

// MapRemove deletes key from a Map target.
func (r *Reference) MapRemove(key value.ValueContainer) error {
	return r.mutate(func(current value.ValueContainer) (value.ValueContainer, DIFUpdate, error) {
		_, m, err := asMap(current)
		if err != nil {
			return nil, DIFUpdate{}, err
		}
		m.Delete(key)
		return value.NewValue(m), NewMapRemoveUpdate(key), nil
	})
}

// SetField overwrites (or appends) a named field on an Object target.
func (r *Reference) SetField(name string, val value.ValueContainer) error {
	return r.mutate(func(current value.ValueContainer) (value.ValueContainer, DIFUpdate, error) {
		_, obj, err := asObject(current)
		if err != nil {
			return nil, DIFUpdate{}, err
		}
		replaced := false
		for i, f := range obj.Fields {
			if f.Name == name {
				obj.Fields[i].Value = val
				replaced = true
				break
			}
		}
		if !replaced {
			obj.Fields = append(obj.Fields, value.ObjectField{Name: name, Value: val})
		}
		return value.NewValue(obj), NewFieldSetUpdate(name, val), nil
	})
}

func asList(c value.ValueContainer) (value.Value, value.List, error) {
	v, ok := c.(value.Value)
	if !ok {
		return value.Value{}, value.List{}, errors.New("reference: target is not a plain value")
	}
	l, ok := v.Inner.(value.List)
	if !ok {
		return value.Value{}, value.List{}, errors.New("reference: target is not a list")
	}
	return v, l, nil
}

func asMap(c value.ValueContainer) (value.Value, *value.Map, error) {
	v, ok := c.(value.Value)
	if !ok {
		return value.Value{}, nil, errors.New("reference: target is not a plain value")
	}
	m, ok := v.Inner.(*value.Map)
	if !ok {
		return value.Value{}, nil, errors.New("reference: target is not a map")
	}
	return v, m, nil
}

func asObject(c value.ValueContainer) (value.Value, value.Object, error) {
	v, ok := c.(value.Value)
	if !ok {
		return value.Value{}, value.Object{}, errors.New("reference: target is not a plain value")
	}
	o, ok := v.Inner.(value.Object)
	if !ok {
		return value.Value{}, value.Object{}, errors.New("reference: target is not an object")
	}
	return v, o, nil
}
