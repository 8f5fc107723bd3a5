package calico

// Valuer lets a Go type bypass reflection when converted with ValueOf.
// The returned Value is used as-is; it is checked for cycles like any other.
//
// Implement this on types whose exported fields do not describe their
// serialized shape, or on hot paths where reflection is too slow:
//
//	func (p Point) CalicoValue() (calico.Value, error) {
//	    return calico.Array(calico.Number(p.X), calico.Number(p.Y)), nil
//	}
type Valuer interface {
	CalicoValue() (Value, error)
}
