package exec

import (
	"smfdb/internal/catalog"
	"smfdb/internal/dbtype"
	"smfdb/internal/plan"
)

// SortMergeJoin assumes both children produce tuples in ascending order of
// the join columns (fed by a NodeSort or an IndexScan whose leading column
// is the join key) and merges them in one pass, per §4.6.4's alternative to
// nested-loop for equi-joins on large inputs.
type SortMergeJoin struct {
	outer, inner Operator
	cond         *plan.Condition
	schema       []catalog.ColMeta

	outerCol, innerCol catalog.ColMeta

	innerRun    [][]byte // buffered tuples of inner equal to the current key
	innerRunKey []byte
	innerRunPos int
	cur         []byte
	atEnd       bool
}

func NewSortMergeJoin(outer, inner Operator, cond *plan.Condition) (*SortMergeJoin, error) {
	schema := append(append([]catalog.ColMeta{}, outer.Cols()...), inner.Cols()...)
	oc, ok := findCol(outer.Cols(), cond.LHS)
	if !ok {
		return nil, &dbtype.ColumnNotFoundError{Table: cond.LHS.Table, Column: cond.LHS.Col}
	}
	ic, ok := findCol(inner.Cols(), cond.Col)
	if !ok {
		return nil, &dbtype.ColumnNotFoundError{Table: cond.Col.Table, Column: cond.Col.Col}
	}
	return &SortMergeJoin{outer: outer, inner: inner, cond: cond, schema: schema, outerCol: oc, innerCol: ic}, nil
}

func (j *SortMergeJoin) Cols() []catalog.ColMeta { return j.schema }
func (j *SortMergeJoin) TupleLen() int           { return j.outer.TupleLen() + j.inner.TupleLen() }
func (j *SortMergeJoin) RID() Rid                { return j.inner.RID() }
func (j *SortMergeJoin) IsEnd() bool             { return j.atEnd }
func (j *SortMergeJoin) Current() []byte         { return j.cur }

func (j *SortMergeJoin) outerKey() []byte {
	rec := j.outer.Current()
	return rec[j.outerCol.Offset : j.outerCol.Offset+j.outerCol.Len]
}

func (j *SortMergeJoin) innerKey(rec []byte) []byte {
	return rec[j.innerCol.Offset : j.innerCol.Offset+j.innerCol.Len]
}

func (j *SortMergeJoin) BeginTuple() error {
	if err := j.outer.BeginTuple(); err != nil {
		return err
	}
	if err := j.inner.BeginTuple(); err != nil {
		return err
	}
	j.innerRun = nil
	j.innerRunPos = 0
	j.atEnd = false
	return j.advance()
}

func (j *SortMergeJoin) NextTuple() error {
	if j.atEnd {
		return nil
	}
	j.innerRunPos++
	return j.advance()
}

// advance positions at the next matching (outer, inner) pair. Inner tuples
// sharing a join-key value are buffered in innerRun so that every matching
// outer tuple (including runs of duplicate outer keys) re-pairs against the
// same buffered run without rescanning inner.
func (j *SortMergeJoin) advance() error {
	for {
		if j.outer.IsEnd() {
			j.atEnd = true
			j.cur = nil
			return nil
		}

		if j.innerRunKey != nil && dbtype.Compare(j.outerKey(), j.innerRunKey, j.outerCol.Len, j.outerCol.Kind) == 0 {
			if j.innerRunPos < len(j.innerRun) {
				j.cur = concatRecords(j.outer.Current(), j.innerRun[j.innerRunPos])
				return nil
			}
			// exhausted this outer tuple's pairings; advance outer and retry
			// against the same buffered run.
			if err := j.outer.NextTuple(); err != nil {
				return err
			}
			j.innerRunPos = 0
			continue
		}

		// outer's key no longer matches the buffered run (or none buffered
		// yet); advance inner past keys less than outer's current key.
		for !j.inner.IsEnd() && dbtype.Compare(j.innerKey(j.inner.Current()), j.outerKey(), j.outerCol.Len, j.outerCol.Kind) < 0 {
			if err := j.inner.NextTuple(); err != nil {
				return err
			}
		}
		if j.inner.IsEnd() {
			j.atEnd = true
			j.cur = nil
			return nil
		}
		cmp := dbtype.Compare(j.innerKey(j.inner.Current()), j.outerKey(), j.outerCol.Len, j.outerCol.Kind)
		if cmp > 0 {
			// outer's key has no match; advance outer and drop any stale run.
			j.innerRun = nil
			j.innerRunKey = nil
			if err := j.outer.NextTuple(); err != nil {
				return err
			}
			continue
		}

		// buffer the run of inner tuples equal to this key
		key := append([]byte(nil), j.innerKey(j.inner.Current())...)
		j.innerRun = j.innerRun[:0]
		for !j.inner.IsEnd() && dbtype.Compare(j.innerKey(j.inner.Current()), key, j.outerCol.Len, j.outerCol.Kind) == 0 {
			j.innerRun = append(j.innerRun, append([]byte(nil), j.inner.Current()...))
			if err := j.inner.NextTuple(); err != nil {
				return err
			}
		}
		j.innerRunKey = key
		j.innerRunPos = 0
	}
}
