package value

import (
	"errors"
	"fmt"
	"sync"
)

// ErrDuplicateType is returned by TypeRegistry.Register when a path is
// already registered.
var ErrDuplicateType = errors.New("value: type already registered")

// ErrTypeNotFound is returned by TypeRegistry.Register (missing base type)
// and TypeRegistry.Lookup (unknown path).
var ErrTypeNotFound = errors.New("value: type not found")

// TypeRegistry is a process-wide table of shared types, keyed by TypePath.
// Registering a type returns a *Type whose address is stable for the life
// of the registry, making TypeContainers built from it identity-comparable.
type TypeRegistry struct {
	mu     sync.RWMutex
	byPath map[string]*Type
}

// NewTypeRegistry constructs an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{byPath: make(map[string]*Type)}
}

// Register inserts t, failing if its path is already registered or its
// declared Base path is not yet registered.
func (r *TypeRegistry) Register(t Type) (*Type, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := t.Path.String()
	if _, exists := r.byPath[key]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateType, key)
	}
	if t.Base != nil {
		if _, ok := r.byPath[t.Base.String()]; !ok {
			return nil, fmt.Errorf("%w: base type %s", ErrTypeNotFound, t.Base.String())
		}
	}
	stored := t
	r.byPath[key] = &stored
	return &stored, nil
}

// Lookup returns the shared *Type registered at path.
func (r *TypeRegistry) Lookup(path TypePath) (*Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byPath[path.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotFound, path.String())
	}
	return t, nil
}

// Ref looks up path and wraps it as a shared TypeContainer.
func (r *TypeRegistry) Ref(path TypePath) (TypeContainer, error) {
	t, err := r.Lookup(path)
	if err != nil {
		return TypeContainer{}, err
	}
	return NewSharedTypeRef(t), nil
}

// coreTypeNames lists the base core type names seeded into every fresh
// registry via RegisterCoreTypes.
var coreTypeNames = []string{
	"null", "boolean", "text", "integer", "decimal", "endpoint",
	"list", "map", "tuple", "type", "range", "any",
}

// RegisterCoreTypes seeds r with the base core:* types plus the fixed-width
// integer/decimal subtypes, in dependency order so Base lookups succeed.
func RegisterCoreTypes(r *TypeRegistry) error {
	for _, name := range coreTypeNames {
		descriptor := DescriptorCore
		if name == "any" {
			descriptor = DescriptorUnion
		}
		if _, err := r.Register(Type{Path: corePath(name), Descriptor: descriptor}); err != nil {
			return err
		}
	}
	intBase := corePath("integer")
	for w := I8; w <= U128; w++ {
		t := Type{
			Path:       TypePath{Namespace: "core", Name: "integer", Variant: w.String()},
			Descriptor: DescriptorCore,
			CoreKind:   KindTypedInteger,
			Base:       &intBase,
		}
		if _, err := r.Register(t); err != nil {
			return err
		}
	}
	decBase := corePath("decimal")
	for _, w := range []FloatWidth{F32, F64} {
		t := Type{
			Path:       TypePath{Namespace: "core", Name: "decimal", Variant: w.String()},
			Descriptor: DescriptorCore,
			CoreKind:   KindTypedDecimal,
			Base:       &decBase,
		}
		if _, err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}
