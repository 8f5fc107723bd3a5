package calico

// Clone returns a deep copy of v. Modifying the copy's containers does not
// affect v. Containers shared inside v are copied once per reference, so the
// copy is always a tree.
//
// v must be acyclic; call CheckCycles first when that is not known.
func (v Value) Clone() Value {
	switch v.kind {
	case KindNull, KindBool, KindNumber, KindString:
		return v
	case KindSequence:
		items := make([]Value, len(v.seq.items))
		for i, item := range v.seq.items {
			items[i] = item.Clone()
		}
		return (&Sequence{items: items}).Value()
	case KindMapping:
		m := &Mapping{
			keys:  make([]string, len(v.obj.keys)),
			vals:  make([]Value, len(v.obj.vals)),
			index: make(map[string]int, len(v.obj.keys)),
		}
		copy(m.keys, v.obj.keys)
		for i, val := range v.obj.vals {
			m.vals[i] = val.Clone()
			m.index[m.keys[i]] = i
		}
		return m.Value()
	default:
		panic(unknownKind(v.kind))
	}
}
