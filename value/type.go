package value

import "strings"

// TypePath identifies a type by namespace, name, and optional variant
// (e.g. "core" / "integer" / "u8").
type TypePath struct {
	Namespace string
	Name      string
	Variant   string // "" if none
}

// String renders "namespace:name" or "namespace:name/variant".
func (p TypePath) String() string {
	base := p.Namespace + ":" + p.Name
	if p.Variant != "" {
		base += "/" + p.Variant
	}
	return base
}

// Contains reports whether p is the parent of (or equal to) child by path
// containment: "core:integer" is the parent of "core:integer/u8".
func (p TypePath) Contains(child TypePath) bool {
	if p.Namespace != child.Namespace || p.Name != child.Name {
		return false
	}
	if p.Variant == "" {
		return true
	}
	return p.Variant == child.Variant
}

// DescriptorKind discriminates the shape a Type describes.
type DescriptorKind uint8

const (
	DescriptorCore DescriptorKind = iota
	DescriptorLiteral
	DescriptorRecord
	DescriptorTuple
	DescriptorUnion
	DescriptorReference
)

func (d DescriptorKind) String() string {
	switch d {
	case DescriptorCore:
		return "core"
	case DescriptorLiteral:
		return "literal"
	case DescriptorRecord:
		return "record"
	case DescriptorTuple:
		return "tuple"
	case DescriptorUnion:
		return "union"
	case DescriptorReference:
		return "reference"
	default:
		return "unknown"
	}
}

// Type carries a TypePath, a TypeDescriptor, and the descriptor-specific
// payload.
type Type struct {
	Path       TypePath
	Descriptor DescriptorKind
	Base       *TypePath // optional parent type path (subtype relation)

	// Valid when Descriptor == DescriptorCore.
	CoreKind Kind

	// Valid when Descriptor == DescriptorLiteral: matches iff structurally
	// equal to this value.
	LiteralValue ValueContainer

	// Valid when Descriptor == DescriptorRecord: required field name ->
	// field type. A Map matches iff its key set is a superset of these
	// names and each field matches recursively.
	RecordFields map[string]Type

	// Valid when Descriptor == DescriptorTuple.
	TupleItems []Type

	// Valid when Descriptor == DescriptorUnion: matches iff at least one
	// arm matches.
	UnionArms []Type

	// Valid when Descriptor == DescriptorReference: matches iff the value
	// resolves to a reference whose target matches this type.
	ReferenceTarget *Type
}

// Kind implements CoreValue: a Type literal is itself a core value.
func (Type) Kind() Kind { return KindType }

// IsSubtypeOf reports whether t's path is contained by base's path.
func (t Type) IsSubtypeOf(base Type) bool {
	return base.Path.Contains(t.Path)
}

// TypeContainer is either an inline Type or a shared TypeReference whose
// identity is pointer-equal. A TypeContainer obtained from a
// TypeRegistry is "shared"; one built directly from a Type literal is
// "inline".
type TypeContainer struct {
	t      *Type
	shared bool
}

// NewInlineType wraps a Type literal as an inline TypeContainer.
func NewInlineType(t Type) TypeContainer {
	cp := t
	return TypeContainer{t: &cp}
}

// NewSharedTypeRef wraps a registry-owned *Type as a shared TypeContainer.
// Two TypeContainers built from the same *Type are identity-equal.
func NewSharedTypeRef(t *Type) TypeContainer {
	return TypeContainer{t: t, shared: true}
}

// Type dereferences to the underlying Type (nil if the container is the
// zero value).
func (tc TypeContainer) Type() *Type { return tc.t }

// IsShared reports whether this container holds a TypeReference.
func (tc TypeContainer) IsShared() bool { return tc.shared }

// IsZero reports whether the container holds no type at all.
func (tc TypeContainer) IsZero() bool { return tc.t == nil }

// IdentityEqual reports pointer-identity equality; only meaningful between
// two shared containers drawn from the same registry.
func (tc TypeContainer) IdentityEqual(o TypeContainer) bool {
	return tc.shared && o.shared && tc.t == o.t
}

// =============================================================================
// TypeOf — actual_type inference for freshly constructed CoreValues
// =============================================================================

func corePath(name string) TypePath { return TypePath{Namespace: "core", Name: name} }

// TypeOf computes the actual (inline) type for a freshly constructed
// CoreValue — the type a runtime would report for v via its own type-of
// operation.
func TypeOf(v CoreValue) Type {
	switch vv := v.(type) {
	case Null:
		return Type{Path: corePath("null"), Descriptor: DescriptorCore, CoreKind: KindNull}
	case Boolean:
		return Type{Path: corePath("boolean"), Descriptor: DescriptorCore, CoreKind: KindBoolean}
	case Text:
		return Type{Path: corePath("text"), Descriptor: DescriptorCore, CoreKind: KindText}
	case Integer:
		return Type{Path: corePath("integer"), Descriptor: DescriptorCore, CoreKind: KindInteger}
	case TypedInteger:
		base := corePath("integer")
		return Type{
			Path:       TypePath{Namespace: "core", Name: "integer", Variant: vv.Width.String()},
			Descriptor: DescriptorCore,
			CoreKind:   KindTypedInteger,
			Base:       &base,
		}
	case Decimal:
		return Type{Path: corePath("decimal"), Descriptor: DescriptorCore, CoreKind: KindDecimal}
	case TypedDecimal:
		base := corePath("decimal")
		return Type{
			Path:       TypePath{Namespace: "core", Name: "decimal", Variant: vv.Width.String()},
			Descriptor: DescriptorCore,
			CoreKind:   KindTypedDecimal,
			Base:       &base,
		}
	case EndpointValue:
		return Type{Path: corePath("endpoint"), Descriptor: DescriptorCore, CoreKind: KindEndpoint}
	case List:
		return Type{Path: corePath("list"), Descriptor: DescriptorCore, CoreKind: KindList}
	case *Map:
		return Type{Path: corePath("map"), Descriptor: DescriptorCore, CoreKind: KindMap}
	case Object:
		name := vv.TypeName
		if name == "" {
			name = "object"
		}
		fields := make(map[string]Type, len(vv.Fields))
		for _, f := range vv.Fields {
			fields[f.Name] = Type{Path: corePath("any"), Descriptor: DescriptorUnion}
		}
		return Type{
			Path:         TypePath{Namespace: "ext", Name: strings.ToLower(name)},
			Descriptor:   DescriptorRecord,
			RecordFields: fields,
		}
	case Tuple:
		return Type{Path: corePath("tuple"), Descriptor: DescriptorCore, CoreKind: KindTuple}
	case Type:
		return Type{Path: corePath("type"), Descriptor: DescriptorCore, CoreKind: KindType}
	case Range:
		return Type{Path: corePath("range"), Descriptor: DescriptorCore, CoreKind: KindRange}
	default:
		return Type{Path: corePath("any"), Descriptor: DescriptorUnion}
	}
}
