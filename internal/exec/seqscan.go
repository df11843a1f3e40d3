package exec

import (
	"smfdb/internal/catalog"
	"smfdb/internal/lock"
	"smfdb/internal/plan"
	"smfdb/internal/storage"
	"smfdb/internal/txn"
)

// SeqScan iterates every rid of a table file, applying residual conditions
// per record, per §4.6.1. It acquires an S or X table lock at construction
// depending on gap mode.
type SeqScan struct {
	heap   *storage.HeapFile
	tab    *catalog.TabMeta
	conds  []plan.Condition
	locks  *lock.Manager
	txnID  uint64
	sub    SubRunner

	rids []Rid
	recs [][]byte
	pos  int
}

func NewSeqScan(heap *storage.HeapFile, tab *catalog.TabMeta, conds []plan.Condition, mode plan.GapMode, locks *lock.Manager, t *txn.Txn, sub SubRunner) (*SeqScan, error) {
	var err error
	if mode == plan.GapExclusive {
		err = locks.LockExclusiveOnTable(t.ID, tab.Name)
	} else {
		err = locks.LockSharedOnTable(t.ID, tab.Name)
	}
	if err != nil {
		return nil, err
	}
	return &SeqScan{heap: heap, tab: tab, conds: conds, locks: locks, txnID: t.ID, sub: sub}, nil
}

func (s *SeqScan) BeginTuple() error {
	s.rids = s.rids[:0]
	s.recs = s.recs[:0]
	s.pos = 0
	var evalErr error
	s.heap.Scan(func(rid Rid, rec []byte) bool {
		ok, err := EvalAll(s.conds, rec, s.tab.Cols, s.sub)
		if err != nil {
			evalErr = err
			return false
		}
		if ok {
			s.rids = append(s.rids, rid)
			s.recs = append(s.recs, rec)
		}
		return true
	})
	return evalErr
}

func (s *SeqScan) NextTuple() error {
	if s.pos < len(s.rids) {
		s.pos++
	}
	return nil
}

func (s *SeqScan) IsEnd() bool { return s.pos >= len(s.rids) }

func (s *SeqScan) Current() []byte {
	if s.IsEnd() {
		return nil
	}
	return s.recs[s.pos]
}

func (s *SeqScan) RID() Rid {
	if s.IsEnd() {
		return Rid{}
	}
	return s.rids[s.pos]
}

func (s *SeqScan) Cols() []catalog.ColMeta { return s.tab.Cols }
func (s *SeqScan) TupleLen() int           { return s.tab.RecordLen() }
