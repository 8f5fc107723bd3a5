package calico

import (
	"strconv"
	"strings"
)

// RootPath is the label of the top-level value in error paths.
const RootPath = "root"

// pathElem is one step below the root: a mapping key or a sequence index.
type pathElem struct {
	key   string
	index int
	isKey bool
}

// valuePath accumulates the route to the value being visited. Strings are
// only built when an error needs one. Extensions share backing storage, so a
// valuePath must not be retained after the walk moves on.
type valuePath []pathElem

// Key returns p extended by a mapping key.
func (p valuePath) Key(k string) valuePath { return append(p, pathElem{key: k, isKey: true}) }

// Index returns p extended by a sequence index.
func (p valuePath) Index(i int) valuePath { return append(p, pathElem{index: i}) }

// String renders p as root.key[2].other.
func (p valuePath) String() string {
	var b strings.Builder
	b.WriteString(RootPath)
	for _, e := range p {
		if e.isKey {
			b.WriteByte('.')
			b.WriteString(e.key)
			continue
		}
		b.WriteByte('[')
		b.WriteString(strconv.Itoa(e.index))
		b.WriteByte(']')
	}
	return b.String()
}

// CheckCycles reports whether v contains itself. Only the containers on the
// path currently being walked count, so a container shared by two siblings
// is accepted while a container nested inside itself is not.
func CheckCycles(v Value) error {
	g := cycleGuard{active: make(map[any]struct{})}
	return g.walk(v, nil)
}

type cycleGuard struct {
	active map[any]struct{}
}

func (g *cycleGuard) walk(v Value, path valuePath) error {
	switch v.kind {
	case KindNull, KindBool, KindNumber, KindString:
		return nil
	case KindSequence:
		if err := g.enter(v.seq, path); err != nil {
			return err
		}
		for i, item := range v.seq.items {
			if err := g.walk(item, path.Index(i)); err != nil {
				return err
			}
		}
		delete(g.active, v.seq)
		return nil
	case KindMapping:
		if err := g.enter(v.obj, path); err != nil {
			return err
		}
		for i, k := range v.obj.keys {
			if err := g.walk(v.obj.vals[i], path.Key(k)); err != nil {
				return err
			}
		}
		delete(g.active, v.obj)
		return nil
	default:
		panic(unknownKind(v.kind))
	}
}

func (g *cycleGuard) enter(container any, path valuePath) error {
	if _, seen := g.active[container]; seen {
		return &CircularReferenceError{Path: path.String()}
	}
	g.active[container] = struct{}{}
	return nil
}
