// Package predicate implements the predicate manager (C2): it separates a
// set of WHERE conditions on an indexed table into the subset that bounds
// the index scan and the residual that must still be checked per tuple, and
// derives the half-open key range plus a Gap descriptor for lock
// acquisition.
package predicate

import (
	"smfdb/internal/catalog"
	"smfdb/internal/dbtype"
)

// Op is a comparison operator as it appears in a Condition.
type Op int

const (
	OpEq Op = iota
	OpNe
	OpLt
	OpGt
	OpLe
	OpGe
	OpIn
)

// Cond is an index-resident condition: a column in the index prefix,
// compared by op against a literal Value.
type Cond struct {
	Col   string
	Op    Op
	Value dbtype.Value
}

// GapConstraint is one column's contribution to a Gap: the operator and
// value that bound it, or "unbounded" if the column carries no predicate.
type GapConstraint struct {
	Col      string
	Bounded  bool
	Op       Op
	Value    dbtype.Value
}

// Gap is the lockable resource an index scan's derived range maps to: a
// list of per-column constraints on the indexed prefix.
type Gap struct {
	Index *catalog.IndexMeta
	Cols  []GapConstraint
}

// Manager holds the derived scan bounds for one IndexScan construction.
type Manager struct {
	Index *catalog.IndexMeta

	LeftKey     []byte
	RightKey    []byte
	LastLeftOp  Op // surviving lower-bound op, OpGe if none
	LastRightOp Op // surviving upper-bound op, OpLt if none
	IndexClean  bool
	LastIdx     int // offset of the first non-equality column, or len(Cols) if fully equality-bound

	Residual []Cond // index-side conditions kept for index_clean re-check
	Gap      Gap
}

// Build separates conds into index-resident and residual per §4.2 and
// computes left/right key bytes, index_clean, and the Gap descriptor.
// nonIndex receives conditions that never touched the index (wrong table,
// not index-resident, or op==OpIn/OpNe) unchanged, for the caller to keep as
// post-fetch residual filters.
func Build(idx *catalog.IndexMeta, conds []Cond) (*Manager, []Cond) {
	m := &Manager{Index: idx}

	// bucket conds by key-prefix position; only a contiguous equality
	// prefix plus at most one range column is retained.
	byPos := make(map[int][]Cond)
	for _, c := range conds {
		pos, _, ok := idx.ColOffsetIndex(c.Col)
		if !ok || c.Op == OpIn || c.Op == OpNe {
			continue
		}
		byPos[pos] = append(byPos[pos], c)
	}

	var nonIndex []Cond
	lastIdx := len(idx.Cols)
	rangeSeen := false

	// find the equality prefix length first
	eqPrefix := 0
	for pos := 0; pos < len(idx.Cols); pos++ {
		hasEq := false
		for _, c := range byPos[pos] {
			if c.Op == OpEq {
				hasEq = true
			}
		}
		if hasEq {
			eqPrefix = pos + 1
		} else {
			break
		}
	}

	if eqPrefix < len(idx.Cols) {
		for _, c := range byPos[eqPrefix] {
			if c.Op == OpLt || c.Op == OpGt || c.Op == OpLe || c.Op == OpGe {
				rangeSeen = true
				lastIdx = eqPrefix
				break
			}
		}
	}
	if !rangeSeen {
		lastIdx = eqPrefix
	}

	left := make([]byte, 0, idx.ColTotLen())
	right := make([]byte, 0, idx.ColTotLen())
	m.LastLeftOp = OpGe
	m.LastRightOp = OpLt
	clean := true

	gap := Gap{Index: idx}

	for pos, col := range idx.Cols {
		switch {
		case pos < eqPrefix:
			var v dbtype.Value
			for _, c := range byPos[pos] {
				if c.Op == OpEq {
					v = c.Value
				}
			}
			v.Kind = col.Kind
			v.Len = col.Len
			v.Init()
			left = append(left, v.Raw...)
			right = append(right, v.Raw...)
			m.Residual = append(m.Residual, Cond{Col: col.Name, Op: OpEq, Value: v})
			gap.Cols = append(gap.Cols, GapConstraint{Col: col.Name, Bounded: true, Op: OpEq, Value: v})
		case pos == eqPrefix && rangeSeen:
			var loOp, hiOp Op = OpGe, OpLt
			loSet, hiSet := false, false
			var loVal, hiVal dbtype.Value
			for _, c := range byPos[pos] {
				switch c.Op {
				case OpGt, OpGe:
					loOp, loVal, loSet = c.Op, c.Value, true
				case OpLt, OpLe:
					hiOp, hiVal, hiSet = c.Op, c.Value, true
				}
			}
			if loSet {
				loVal.Kind, loVal.Len = col.Kind, col.Len
				loVal.Init()
				left = append(left, loVal.Raw...)
				m.LastLeftOp = loOp
				gap.Cols = append(gap.Cols, GapConstraint{Col: col.Name, Bounded: true, Op: loOp, Value: loVal})
			} else {
				left = append(left, dbtype.TypeMinBytes(col.Kind, col.Len)...)
			}
			if hiSet {
				hiVal.Kind, hiVal.Len = col.Kind, col.Len
				hiVal.Init()
				right = append(right, hiVal.Raw...)
				m.LastRightOp = hiOp
				if !loSet {
					gap.Cols = append(gap.Cols, GapConstraint{Col: col.Name, Bounded: true, Op: hiOp, Value: hiVal})
				}
			} else {
				right = append(right, dbtype.TypeMaxBytes(col.Kind, col.Len)...)
			}
			clean = false
			if loSet {
				m.Residual = append(m.Residual, Cond{Col: col.Name, Op: loOp, Value: loVal})
			}
			if hiSet {
				m.Residual = append(m.Residual, Cond{Col: col.Name, Op: hiOp, Value: hiVal})
			}
		default:
			left = append(left, dbtype.TypeMinBytes(col.Kind, col.Len)...)
			right = append(right, dbtype.TypeMaxBytes(col.Kind, col.Len)...)
			if pos >= eqPrefix {
				clean = false
			}
		}
	}

	m.LeftKey = left
	m.RightKey = right
	m.LastIdx = lastIdx
	m.IndexClean = clean && !rangeSeen
	if eqPrefix == len(idx.Cols) {
		m.IndexClean = true
	}
	m.Gap = gap

	// anything not bucketed into the index prefix is residual for the caller.
	for _, c := range conds {
		if _, _, ok := idx.ColOffsetIndex(c.Col); !ok || c.Op == OpIn || c.Op == OpNe {
			nonIndex = append(nonIndex, c)
			continue
		}
		pos, _, _ := idx.ColOffsetIndex(c.Col)
		if pos >= eqPrefix+1 {
			nonIndex = append(nonIndex, c)
		}
	}

	return m, nonIndex
}
