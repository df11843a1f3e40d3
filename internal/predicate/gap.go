package predicate

import (
	"smfdb/internal/catalog"
	"smfdb/internal/dbtype"
)

// Bounds derives inclusive [lo, hi] byte-image bounds for one Gap, the same
// way Build does for a full condition set, filling unconstrained columns
// with type-min/type-max. An equality constraint gives lo == hi.
func (g Gap) Bounds() (lo, hi []byte) {
	byCol := map[string]GapConstraint{}
	for _, c := range g.Cols {
		byCol[c.Col] = c
	}
	for _, col := range g.Index.Cols {
		c, ok := byCol[col.Name]
		if !ok {
			lo = append(lo, dbtype.TypeMinBytes(col.Kind, col.Len)...)
			hi = append(hi, dbtype.TypeMaxBytes(col.Kind, col.Len)...)
			continue
		}
		switch c.Op {
		case OpEq:
			lo = append(lo, c.Value.Raw...)
			hi = append(hi, c.Value.Raw...)
		case OpGt, OpGe:
			lo = append(lo, c.Value.Raw...)
			hi = append(hi, dbtype.TypeMaxBytes(col.Kind, col.Len)...)
		case OpLt, OpLe:
			lo = append(lo, dbtype.TypeMinBytes(col.Kind, col.Len)...)
			hi = append(hi, c.Value.Raw...)
		default:
			lo = append(lo, dbtype.TypeMinBytes(col.Kind, col.Len)...)
			hi = append(hi, dbtype.TypeMaxBytes(col.Kind, col.Len)...)
		}
	}
	return lo, hi
}

// Overlaps reports whether two gaps over the same index induce intersecting
// key ranges, the composition rule §9 describes: derive bounds for each and
// test intersection column-wise (here, over the concatenated key, which is
// equivalent since keys compare lexicographically). The bounds are treated
// as closed, so two equality gaps on the same key overlap.
func Overlaps(a, b Gap) bool {
	aLo, aHi := a.Bounds()
	bLo, bHi := b.Bounds()
	kind := a.Index.Cols
	totalLen := 0
	for _, c := range kind {
		totalLen += c.Len
	}
	// two closed ranges [aLo,aHi] and [bLo,bHi] overlap iff aLo <= bHi && bLo <= aHi.
	return !lessKey(bHi, aLo, kind) && !lessKey(aHi, bLo, kind)
}

func lessKey(a, b []byte, cols []catalog.ColMeta) bool {
	off := 0
	for _, c := range cols {
		cmp := dbtype.Compare(a[off:off+c.Len], b[off:off+c.Len], c.Len, c.Kind)
		if cmp != 0 {
			return cmp < 0
		}
		off += c.Len
	}
	return false
}
