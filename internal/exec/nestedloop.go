package exec

import (
	"smfdb/internal/catalog"
	"smfdb/internal/plan"
)

// NestedLoopJoin re-opens inner for every outer tuple, per §4.6.4. Both
// children must already hold whatever locks their own construction needed.
type NestedLoopJoin struct {
	outer, inner Operator
	cond         *plan.Condition
	schema       []catalog.ColMeta
	sub          SubRunner

	cur   []byte
	atEnd bool
}

func NewNestedLoopJoin(outer, inner Operator, cond *plan.Condition, sub SubRunner) *NestedLoopJoin {
	schema := append(append([]catalog.ColMeta{}, outer.Cols()...), inner.Cols()...)
	return &NestedLoopJoin{outer: outer, inner: inner, cond: cond, schema: schema, sub: sub}
}

func (j *NestedLoopJoin) Cols() []catalog.ColMeta { return j.schema }
func (j *NestedLoopJoin) TupleLen() int           { return j.outer.TupleLen() + j.inner.TupleLen() }
func (j *NestedLoopJoin) RID() Rid                { return j.inner.RID() }

func (j *NestedLoopJoin) BeginTuple() error {
	if err := j.outer.BeginTuple(); err != nil {
		return err
	}
	j.atEnd = false
	return j.advanceToMatch(true)
}

func (j *NestedLoopJoin) NextTuple() error {
	if j.atEnd {
		return nil
	}
	if err := j.inner.NextTuple(); err != nil {
		return err
	}
	return j.advanceToMatch(false)
}

// advanceToMatch walks outer x inner until a matching pair is found or both
// are exhausted. openInner, when true, (re)starts inner for the current
// outer tuple before scanning it.
func (j *NestedLoopJoin) advanceToMatch(openInner bool) error {
	for {
		if j.outer.IsEnd() {
			j.atEnd = true
			j.cur = nil
			return nil
		}
		if openInner {
			if err := j.inner.BeginTuple(); err != nil {
				return err
			}
			openInner = false
		}
		for !j.inner.IsEnd() {
			rec := concatRecords(j.outer.Current(), j.inner.Current())
			ok, err := Eval(*j.cond, rec, j.schema, j.sub)
			if err != nil {
				return err
			}
			if ok {
				j.cur = rec
				return nil
			}
			if err := j.inner.NextTuple(); err != nil {
				return err
			}
		}
		if err := j.outer.NextTuple(); err != nil {
			return err
		}
		openInner = true
	}
}

func concatRecords(a, b []byte) []byte {
	out := make([]byte, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}

func (j *NestedLoopJoin) IsEnd() bool    { return j.atEnd }
func (j *NestedLoopJoin) Current() []byte { return j.cur }
