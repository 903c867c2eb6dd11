package value

// ContainerKind discriminates the ValueContainer union (a
// container is either a plain Value or a Reference handle).
type ContainerKind uint8

const (
	// ContainerPlain marks a Value container.
	ContainerPlain ContainerKind = iota
	// ContainerReference marks a container backed by a reference handle.
	// The concrete implementation lives in package reference, which depends
	// on this package (not the reverse) to avoid an import cycle.
	ContainerReference
)

// ValueContainer is either a Value or a reference handle. Implementations
// outside this package (package reference's *Reference type) satisfy this
// purely through the exported ContainerKind method — no unexported marker
// method is used so the sum type can cross the package boundary.
type ValueContainer interface {
	// ContainerKind identifies which arm of the union this is.
	ContainerKind() ContainerKind
}

// Value is a plain value container: an inner CoreValue tagged with its
// resolved ActualType.
type Value struct {
	Inner      CoreValue
	ActualType Type
}

// ContainerKind implements ValueContainer.
func (Value) ContainerKind() ContainerKind { return ContainerPlain }

// NewValue wraps a CoreValue with its inferred actual type.
func NewValue(inner CoreValue) Value {
	return Value{Inner: inner, ActualType: TypeOf(inner)}
}

// GetType returns the container's actual type ("the result's
// actual_type matches v.get_type()").
func (v Value) GetType() Type { return v.ActualType }
