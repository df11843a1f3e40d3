package exec

import (
	"encoding/binary"

	"smfdb/internal/catalog"
	"smfdb/internal/dbtype"
	"smfdb/internal/plan"
)

// Aggregate consumes all of its child's tuples, partitions them by GroupBy
// (a single implicit group when GroupBy is empty), computes COUNT/MAX/MIN/
// SUM per group, and drops groups that fail the HAVING predicates, per
// §4.6.7. COUNT(*) counts every tuple regardless of NULLs (this engine has
// none); the counting happens in updateAcc.
type Aggregate struct {
	child   Operator
	groupBy []plan.TabCol
	proj    []plan.ProjItem
	having  []plan.Condition
	sub     SubRunner

	outSchema []catalog.ColMeta
	rows      [][]byte
	pos       int
}

type aggAcc struct {
	count int64
	max   dbtype.Value
	min   dbtype.Value
	sum   float64
	sumI  int64
	isInt bool
	set   bool
}

func NewAggregate(child Operator, groupBy []plan.TabCol, proj []plan.ProjItem, having []plan.Condition, sub SubRunner) *Aggregate {
	schema := make([]catalog.ColMeta, 0, len(proj))
	off := 0
	for _, p := range proj {
		kind, length := projKind(child.Cols(), p)
		name := p.Alias
		if name == "" {
			name = p.Col.Col
		}
		schema = append(schema, catalog.ColMeta{TabName: "", Name: name, Kind: kind, Len: length, Offset: off})
		off += length
	}
	return &Aggregate{child: child, groupBy: groupBy, proj: proj, having: having, sub: sub, outSchema: schema}
}

func projKind(childSchema []catalog.ColMeta, p plan.ProjItem) (dbtype.Kind, int) {
	if p.Agg == plan.AggCount {
		return dbtype.KindInt32, 4
	}
	if c, ok := findCol(childSchema, p.Col); ok {
		if p.Agg == plan.AggSum && c.Kind == dbtype.KindInt32 {
			return dbtype.KindInt32, 4
		}
		return c.Kind, c.Len
	}
	return dbtype.KindInt32, 4
}

func groupKey(rec []byte, groupBy []plan.TabCol, schema []catalog.ColMeta) string {
	buf := make([]byte, 0, 16)
	for _, g := range groupBy {
		c, ok := findCol(schema, g)
		if !ok {
			continue
		}
		buf = append(buf, rec[c.Offset:c.Offset+c.Len]...)
	}
	return string(buf)
}

func (a *Aggregate) Cols() []catalog.ColMeta { return a.outSchema }
func (a *Aggregate) TupleLen() int {
	n := 0
	for _, c := range a.outSchema {
		n += c.Len
	}
	return n
}
func (a *Aggregate) RID() Rid { return Rid{} }

func (a *Aggregate) BeginTuple() error {
	a.rows = a.rows[:0]
	a.pos = 0

	childSchema := a.child.Cols()
	order := []string{}
	groups := map[string]map[string]*aggAcc{} // groupKey -> projCol label -> acc
	keyRecs := map[string][]byte{}

	if err := a.child.BeginTuple(); err != nil {
		return err
	}
	for !a.child.IsEnd() {
		rec := a.child.Current()
		gk := groupKey(rec, a.groupBy, childSchema)
		accs, ok := groups[gk]
		if !ok {
			accs = map[string]*aggAcc{}
			groups[gk] = accs
			keyRecs[gk] = append([]byte(nil), rec...)
			order = append(order, gk)
		}
		for i, p := range a.proj {
			label := projLabel(i, p)
			acc := accs[label]
			if acc == nil {
				acc = &aggAcc{}
				accs[label] = acc
			}
			updateAcc(acc, p, rec, childSchema)
		}
		if err := a.child.NextTuple(); err != nil {
			return err
		}
	}

	for _, gk := range order {
		accs := groups[gk]
		rec := a.buildRow(accs, keyRecs[gk], childSchema)
		ok, err := EvalAll(a.having, rec, a.outSchema, a.sub)
		if err != nil {
			return err
		}
		if ok {
			a.rows = append(a.rows, rec)
		}
	}
	return nil
}

func projLabel(i int, p plan.ProjItem) string {
	if p.Alias != "" {
		return p.Alias
	}
	return p.Col.Table + "." + p.Col.Col + ".#" + string(rune('0'+i))
}

func updateAcc(acc *aggAcc, p plan.ProjItem, rec []byte, schema []catalog.ColMeta) {
	acc.count++
	if p.Agg == plan.AggCount {
		acc.set = true
		return
	}
	c, ok := findCol(schema, p.Col)
	if !ok {
		return
	}
	v := dbtype.Decode(c.Kind, c.Len, rec[c.Offset:c.Offset+c.Len])
	switch p.Agg {
	case plan.AggSum:
		if c.Kind == dbtype.KindInt32 {
			acc.sumI += int64(v.I)
			acc.isInt = true
		} else {
			acc.sum += float64(v.F)
		}
	case plan.AggMax:
		if !acc.set || dbtype.Compare(v.Raw, acc.max.Raw, c.Len, c.Kind) > 0 {
			acc.max = v
		}
	case plan.AggMin:
		if !acc.set || dbtype.Compare(v.Raw, acc.min.Raw, c.Len, c.Kind) < 0 {
			acc.min = v
		}
	}
	acc.set = true
}

func (a *Aggregate) buildRow(accs map[string]*aggAcc, keyRec []byte, childSchema []catalog.ColMeta) []byte {
	rec := make([]byte, a.TupleLen())
	off := 0
	for i, p := range a.proj {
		label := projLabel(i, p)
		acc := accs[label]
		col := a.outSchema[i]
		switch p.Agg {
		case plan.AggNone:
			if c, ok := findCol(childSchema, p.Col); ok {
				copy(rec[off:off+col.Len], keyRec[c.Offset:c.Offset+c.Len])
			}
		case plan.AggCount:
			var b [4]byte
			c := int32(0)
			if acc != nil {
				c = int32(acc.count)
			}
			binary.LittleEndian.PutUint32(b[:], uint32(c))
			copy(rec[off:off+4], b[:])
		case plan.AggMax:
			if acc != nil {
				copy(rec[off:off+col.Len], acc.max.Raw)
			}
		case plan.AggMin:
			if acc != nil {
				copy(rec[off:off+col.Len], acc.min.Raw)
			}
		case plan.AggSum:
			if acc != nil {
				if acc.isInt {
					v := dbtype.NewInt(int32(acc.sumI))
					v.Len = col.Len
					v.Init()
					copy(rec[off:off+col.Len], v.Raw)
				} else {
					v := dbtype.NewFloat(float32(acc.sum))
					v.Len = col.Len
					v.Init()
					copy(rec[off:off+col.Len], v.Raw)
				}
			}
		}
		off += col.Len
	}
	return rec
}

func (a *Aggregate) NextTuple() error {
	if a.pos < len(a.rows) {
		a.pos++
	}
	return nil
}

func (a *Aggregate) IsEnd() bool { return a.pos >= len(a.rows) }

func (a *Aggregate) Current() []byte {
	if a.IsEnd() {
		return nil
	}
	return a.rows[a.pos]
}
