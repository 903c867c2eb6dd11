package value

// Matches implements structural type matching: does container
// c satisfy type t? Core types match by actual-type path containment,
// Literal types by structural equality, Record types by field superset,
// Tuple types by itemwise arity match, Union types by any-arm match, and
// Reference types by matching the resolved target.
func (t Type) Matches(c ValueContainer) bool {
	switch t.Descriptor {
	case DescriptorUnion:
		// A union with no arms is the open union (core:any): it admits
		// every container.
		if len(t.UnionArms) == 0 {
			return true
		}
		for _, arm := range t.UnionArms {
			if arm.Matches(c) {
				return true
			}
		}
		return false
	case DescriptorLiteral:
		return StructuralEqual(c, t.LiteralValue)
	case DescriptorReference:
		if c.ContainerKind() != ContainerReference {
			return false
		}
		d, ok := c.(Dereferencer)
		if !ok {
			return false
		}
		target, resolved := d.Deref()
		if !resolved {
			return false
		}
		if t.ReferenceTarget == nil {
			return true
		}
		return t.ReferenceTarget.Matches(target)
	}

	resolved := c
	if d, ok := c.(Dereferencer); ok {
		next, ok2 := d.Deref()
		if !ok2 {
			return false
		}
		resolved = next
	}
	v, ok := resolved.(Value)
	if !ok {
		return false
	}

	switch t.Descriptor {
	case DescriptorCore:
		return t.Path.Contains(v.ActualType.Path)
	case DescriptorRecord:
		if obj, ok := v.Inner.(Object); ok {
			for name, fieldType := range t.RecordFields {
				fv, present := obj.Get(name)
				if !present || !fieldType.Matches(fv) {
					return false
				}
			}
			return true
		}
		if m, ok := v.Inner.(*Map); ok {
			for name, fieldType := range t.RecordFields {
				fv, present := m.Get(NewValue(Text(name)))
				if !present || !fieldType.Matches(fv) {
					return false
				}
			}
			return true
		}
		return false
	case DescriptorTuple:
		tup, ok := v.Inner.(Tuple)
		if !ok || len(tup.Items) != len(t.TupleItems) {
			return false
		}
		for i, it := range t.TupleItems {
			if !it.Matches(tup.Items[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Matches dereferences to the underlying Type and delegates.
func (tc TypeContainer) Matches(c ValueContainer) bool {
	if tc.t == nil {
		return false
	}
	return tc.t.Matches(c)
}
