package exec

import (
	"sort"

	"smfdb/internal/catalog"
	"smfdb/internal/dbtype"
	"smfdb/internal/plan"
)

// Sort materializes its child into memory and orders it by one column, per
// §13's resolution that ORDER BY uses an unstable sort (sort.Slice, never
// SliceStable): ties between equal keys may appear in any relative order.
type Sort struct {
	child Operator
	col   catalog.ColMeta
	asc   bool

	recs [][]byte
	rids []Rid
	pos  int
}

func NewSort(child Operator, sortCol plan.TabCol, asc bool) (*Sort, error) {
	col, ok := findCol(child.Cols(), sortCol)
	if !ok {
		return nil, &dbtype.ColumnNotFoundError{Table: sortCol.Table, Column: sortCol.Col}
	}
	return &Sort{child: child, col: col, asc: asc}, nil
}

func (s *Sort) Cols() []catalog.ColMeta { return s.child.Cols() }
func (s *Sort) TupleLen() int           { return s.child.TupleLen() }

func (s *Sort) BeginTuple() error {
	s.recs = s.recs[:0]
	s.rids = s.rids[:0]
	s.pos = 0

	if err := s.child.BeginTuple(); err != nil {
		return err
	}
	for !s.child.IsEnd() {
		rec := append([]byte(nil), s.child.Current()...)
		s.recs = append(s.recs, rec)
		s.rids = append(s.rids, s.child.RID())
		if err := s.child.NextTuple(); err != nil {
			return err
		}
	}

	off, length, kind := s.col.Offset, s.col.Len, s.col.Kind
	idx := make([]int, len(s.recs))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool {
		cmp := dbtype.Compare(s.recs[idx[i]][off:off+length], s.recs[idx[j]][off:off+length], length, kind)
		if s.asc {
			return cmp < 0
		}
		return cmp > 0
	})
	sortedRecs := make([][]byte, len(idx))
	sortedRids := make([]Rid, len(idx))
	for i, j := range idx {
		sortedRecs[i] = s.recs[j]
		sortedRids[i] = s.rids[j]
	}
	s.recs, s.rids = sortedRecs, sortedRids
	return nil
}

func (s *Sort) NextTuple() error {
	if s.pos < len(s.recs) {
		s.pos++
	}
	return nil
}

func (s *Sort) IsEnd() bool { return s.pos >= len(s.recs) }

func (s *Sort) Current() []byte {
	if s.IsEnd() {
		return nil
	}
	return s.recs[s.pos]
}

func (s *Sort) RID() Rid {
	if s.IsEnd() {
		return Rid{}
	}
	return s.rids[s.pos]
}
