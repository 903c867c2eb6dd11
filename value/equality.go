package value

import "fmt"

// Dereferencer is implemented by containers that can resolve to an
// underlying container synchronously — package reference's *Reference, for
// locally-owned targets. StructuralEqual and structuralHash use this to see
// through reference handles without an import cycle (reference depends on
// value, not the other way around). Deref's second return is false when the
// target cannot be resolved without an interrupt (e.g. a remote reference).
type Dereferencer interface {
	Deref() (ValueContainer, bool)
}

// Identifiable is implemented by containers with a stable identity token —
// package reference's *Reference, keyed by its backing pointer.Address.
// Identical and the cycle guard in StructuralEqual use this.
type Identifiable interface {
	IdentityToken() string
}

// Identical reports reference identity (the "===" operator):
// true iff both containers are references to the exact same underlying
// cell. Two plain Values are never Identical, even if structurally equal.
func Identical(a, b ValueContainer) bool {
	ia, oka := a.(Identifiable)
	ib, okb := b.(Identifiable)
	return oka && okb && ia.IdentityToken() == ib.IdentityToken()
}

// StructuralEqual reports shape-and-value equality (the "==" operator),
// resolving through references and guarding against cycles introduced by
// self-referencing mutable references.
func StructuralEqual(a, b ValueContainer) bool {
	return structEqual(a, b, make(map[string]bool))
}

func structEqual(a, b ValueContainer, seen map[string]bool) bool {
	if ida, ok := a.(Identifiable); ok {
		if idb, ok2 := b.(Identifiable); ok2 {
			key := ida.IdentityToken() + "|" + idb.IdentityToken()
			if seen[key] {
				return true
			}
			seen[key] = true
		}
	}
	if da, ok := a.(Dereferencer); ok {
		next, resolved := da.Deref()
		if !resolved {
			return false
		}
		a = next
	}
	if db, ok := b.(Dereferencer); ok {
		next, resolved := db.Deref()
		if !resolved {
			return false
		}
		b = next
	}
	av, aok := a.(Value)
	bv, bok := b.(Value)
	if !aok || !bok {
		return false
	}
	return coreEqual(av.Inner, bv.Inner, seen)
}

func coreEqual(a, b CoreValue, seen map[string]bool) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Null:
		return true
	case Boolean:
		return av == b.(Boolean)
	case Text:
		return av == b.(Text)
	case Integer:
		return av.BigInt().Cmp(b.(Integer).BigInt()) == 0
	case TypedInteger:
		bv := b.(TypedInteger)
		return av.Width == bv.Width && av.BigInt().Cmp(bv.BigInt()) == 0
	case Decimal:
		bv := b.(Decimal)
		if av.DKind != bv.DKind {
			return false
		}
		switch av.DKind {
		case DecimalFinite:
			return av.Finite == bv.Finite
		case DecimalFraction:
			return av.Numerator.Cmp(bv.Numerator) == 0 && av.Denominator.Cmp(bv.Denominator) == 0
		case DecimalNaN:
			// NaN never equals NaN; callers check the tag (IsNaN) instead.
			return false
		default:
			return true
		}
	case TypedDecimal:
		bv := b.(TypedDecimal)
		return av.Width == bv.Width && av.Value == bv.Value
	case EndpointValue:
		bv := b.(EndpointValue)
		return av.Endpoint.Equal(bv.Endpoint)
	case List:
		bv := b.(List)
		if len(av.Items) != len(bv.Items) {
			return false
		}
		for i := range av.Items {
			if !structEqual(av.Items[i], bv.Items[i], seen) {
				return false
			}
		}
		return true
	case *Map:
		bv := b.(*Map)
		if av.Len() != bv.Len() {
			return false
		}
		for _, e := range av.Entries() {
			ov, ok := bv.Get(e.Key)
			if !ok || !structEqual(e.Value, ov, seen) {
				return false
			}
		}
		return true
	case Object:
		bv := b.(Object)
		if av.TypeName != bv.TypeName || len(av.Fields) != len(bv.Fields) {
			return false
		}
		for _, f := range av.Fields {
			ov, ok := bv.Get(f.Name)
			if !ok || !structEqual(f.Value, ov, seen) {
				return false
			}
		}
		return true
	case Tuple:
		bv := b.(Tuple)
		if len(av.Items) != len(bv.Items) {
			return false
		}
		for i := range av.Items {
			if !structEqual(av.Items[i], bv.Items[i], seen) {
				return false
			}
		}
		return true
	case Type:
		bv := b.(Type)
		return av.Path == bv.Path
	case Range:
		bv := b.(Range)
		return av.Start.Cmp(bv.Start) == 0 && av.End.Cmp(bv.End) == 0
	default:
		return false
	}
}

// =============================================================================
// structuralHash — bucket key for Map lookups. Equal values under StructuralEqual always
// hash equal; collisions are resolved by the StructuralEqual scan in Map.
// =============================================================================

const (
	fnvOffset64 = 14695981039346656037
	fnvPrime64  = 1099511628211
)

func fnvBytes(b []byte) uint64 {
	h := uint64(fnvOffset64)
	for _, c := range b {
		h ^= uint64(c)
		h *= fnvPrime64
	}
	return h
}

func fnvString(s string) uint64 { return fnvBytes([]byte(s)) }

func combineHash(h1, h2 uint64) uint64 { return (h1 ^ h2) * fnvPrime64 }

func structuralHash(c ValueContainer) uint64 {
	if d, ok := c.(Dereferencer); ok {
		if next, resolved := d.Deref(); resolved {
			c = next
		} else if id, ok2 := c.(Identifiable); ok2 {
			return fnvString(id.IdentityToken())
		}
	}
	v, ok := c.(Value)
	if !ok {
		return 0
	}
	return hashCore(v.Inner)
}

func hashCore(v CoreValue) uint64 {
	switch vv := v.(type) {
	case Null:
		return fnvString("null")
	case Boolean:
		if vv {
			return fnvString("true")
		}
		return fnvString("false")
	case Text:
		return fnvString(string(vv))
	case Integer:
		return fnvBytes(vv.BigInt().Bytes())
	case TypedInteger:
		return combineHash(fnvString(vv.Width.String()), fnvBytes(vv.BigInt().Bytes()))
	case Decimal:
		switch vv.DKind {
		case DecimalFraction:
			return combineHash(fnvBytes(vv.Numerator.Bytes()), fnvBytes(vv.Denominator.Bytes()))
		case DecimalFinite:
			return fnvString(fmt.Sprintf("%v", vv.Finite))
		default:
			return fnvString(fmt.Sprintf("decimal-kind-%d", vv.DKind))
		}
	case TypedDecimal:
		return combineHash(fnvString(vv.Width.String()), fnvString(fmt.Sprintf("%v", vv.Value)))
	case EndpointValue:
		b, _ := vv.Endpoint.MarshalBinary()
		return fnvBytes(b)
	case List:
		h := fnvString("list")
		for _, it := range vv.Items {
			h = combineHash(h, structuralHash(it))
		}
		return h
	case *Map:
		h := fnvString("map")
		var sum uint64
		for _, e := range vv.Entries() {
			sum += combineHash(structuralHash(e.Key), structuralHash(e.Value))
		}
		return h ^ sum
	case Object:
		h := fnvString("object:" + vv.TypeName)
		for _, f := range vv.Fields {
			h = combineHash(h, combineHash(fnvString(f.Name), structuralHash(f.Value)))
		}
		return h
	case Tuple:
		h := fnvString("tuple")
		for _, it := range vv.Items {
			h = combineHash(h, structuralHash(it))
		}
		return h
	case Type:
		return fnvString(vv.Path.String())
	case Range:
		return combineHash(fnvBytes(vv.Start.Bytes()), fnvBytes(vv.End.Bytes()))
	default:
		return 0
	}
}
