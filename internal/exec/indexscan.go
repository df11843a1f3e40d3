package exec

import (
	"smfdb/internal/catalog"
	"smfdb/internal/dbtype"
	"smfdb/internal/lock"
	"smfdb/internal/plan"
	"smfdb/internal/predicate"
	"smfdb/internal/storage"
	"smfdb/internal/txn"
)

// IndexScan computes a half-open [lower, upper) key-position range from the
// predicate manager and walks the index's sorted entries in that range,
// per §4.6.2. Construction acquires a gap lock over the derived range.
//
// Positions advance one entry at a time on demand rather than materialising
// the whole range up front: for asc=false this lets a DESC scan feeding a
// tight LIMIT find its answer by touching only the entries at the top of
// the range, not the entire table.
type IndexScan struct {
	heap  *storage.HeapFile
	index *storage.Index
	tab   *catalog.TabMeta
	asc   bool
	locks *lock.Manager
	txnID uint64
	sub   SubRunner

	mgr      *predicate.Manager
	residual []plan.Condition // non-index conditions, re-checked post-fetch

	lo, hi int // half-open index-position bounds
	cursor int
	rid    Rid
	rec    []byte
	atEnd  bool
}

func toPredicateConds(conds []plan.Condition, indexCols map[string]bool) ([]predicate.Cond, []plan.Condition) {
	var idxConds []predicate.Cond
	var rest []plan.Condition
	for _, c := range conds {
		if c.RHSKind == plan.RHSValue && indexCols[c.LHS.Col] &&
			(c.Op == plan.OpEq || c.Op == plan.OpLt || c.Op == plan.OpGt || c.Op == plan.OpLe || c.Op == plan.OpGe) {
			idxConds = append(idxConds, predicate.Cond{Col: c.LHS.Col, Op: predicate.Op(c.Op), Value: c.Value})
		} else {
			rest = append(rest, c)
		}
	}
	return idxConds, rest
}

func NewIndexScan(heap *storage.HeapFile, index *storage.Index, tab *catalog.TabMeta, conds []plan.Condition, asc bool, mode plan.GapMode, locks *lock.Manager, t *txn.Txn, sub SubRunner) (*IndexScan, error) {
	indexCols := map[string]bool{}
	for _, c := range index.Meta.Cols {
		indexCols[c.Name] = true
	}
	idxConds, residual := toPredicateConds(conds, indexCols)
	mgr, nonIndex := predicate.Build(index.Meta, idxConds)
	residual = append(residual, toResidualConds(nonIndex)...)

	if mode == plan.GapExclusive {
		if err := locks.LockExclusiveOnGap(t.ID, index.Meta, mgr.Gap); err != nil {
			return nil, err
		}
	} else {
		if err := locks.LockSharedOnGap(t.ID, index.Meta, mgr.Gap); err != nil {
			return nil, err
		}
	}

	return &IndexScan{
		heap: heap, index: index, tab: tab, asc: asc,
		locks: locks, txnID: t.ID, sub: sub, mgr: mgr, residual: residual,
	}, nil
}

func toResidualConds(conds []predicate.Cond) []plan.Condition {
	var out []plan.Condition
	for _, c := range conds {
		out = append(out, plan.Condition{LHS: plan.TabCol{Col: c.Col}, Op: plan.CmpOp(c.Op), RHSKind: plan.RHSValue, Value: c.Value})
	}
	return out
}

func (s *IndexScan) BeginTuple() error {
	s.lo = s.index.LowerBound(s.mgr.LeftKey)
	s.hi = s.index.LowerBound(s.mgr.RightKey)
	if s.asc {
		s.cursor = s.lo
	} else {
		s.cursor = s.hi - 1
	}
	s.atEnd = false
	return s.advance()
}

// advance walks the cursor toward hi (asc) or lo (desc) one entry at a
// time, stopping at the first entry that survives the index-side and
// residual checks, or setting atEnd once the bound is exhausted.
func (s *IndexScan) advance() error {
	for {
		if s.asc {
			if s.cursor >= s.hi {
				break
			}
		} else if s.cursor < s.lo {
			break
		}

		key, rid := s.index.At(s.cursor)
		if s.asc {
			s.cursor++
		} else {
			s.cursor--
		}

		if !s.mgr.IndexClean && !s.indexSideMatch(key) {
			continue
		}
		rec, ok := s.heap.Fetch(rid)
		if !ok {
			continue
		}
		match, err := EvalAll(s.residual, rec, s.tab.Cols, s.sub)
		if err != nil {
			return err
		}
		if !match {
			continue
		}
		s.rid = rid
		s.rec = rec
		return nil
	}
	s.atEnd = true
	s.rec = nil
	return nil
}

// indexSideMatch re-checks the retained index-side predicates (residual in
// mgr.Residual) against the raw key bytes, avoiding a page fetch for
// non-matches when index_clean is false.
func (s *IndexScan) indexSideMatch(key []byte) bool {
	off := 0
	for _, col := range s.index.Meta.Cols {
		img := key[off : off+col.Len]
		for _, rc := range s.mgr.Residual {
			if rc.Col != col.Name {
				continue
			}
			cmp := dbtype.Compare(img, rc.Value.Raw, col.Len, col.Kind)
			if !compareOp(cmp, predicateOpToPlan(rc.Op)) {
				return false
			}
		}
		off += col.Len
	}
	return true
}

func predicateOpToPlan(op predicate.Op) plan.CmpOp {
	switch op {
	case predicate.OpEq:
		return plan.OpEq
	case predicate.OpNe:
		return plan.OpNe
	case predicate.OpLt:
		return plan.OpLt
	case predicate.OpGt:
		return plan.OpGt
	case predicate.OpLe:
		return plan.OpLe
	case predicate.OpGe:
		return plan.OpGe
	default:
		return plan.OpEq
	}
}

func (s *IndexScan) NextTuple() error {
	if s.atEnd {
		return nil
	}
	return s.advance()
}

func (s *IndexScan) IsEnd() bool { return s.atEnd }

func (s *IndexScan) Current() []byte { return s.rec }

func (s *IndexScan) RID() Rid { return s.rid }

func (s *IndexScan) Cols() []catalog.ColMeta { return s.tab.Cols }
func (s *IndexScan) TupleLen() int           { return s.tab.RecordLen() }
