package exec

import (
	"smfdb/internal/catalog"
	"smfdb/internal/plan"
)

// Projection re-orders its child's schema into the requested output columns
// and applies aliases, per §4.6.6. A non-nil Limit short-circuits iteration
// after the Nth tuple (N==1 accelerates MAX/MIN-style single-row queries).
type Projection struct {
	child  Operator
	items  []plan.ProjItem
	schema []catalog.ColMeta
	limit  *int

	emitted int
}

func NewProjection(child Operator, items []plan.ProjItem, limit *int) *Projection {
	schema := make([]catalog.ColMeta, 0, len(items))
	off := 0
	for _, it := range items {
		c, ok := findCol(child.Cols(), it.Col)
		if !ok {
			continue
		}
		name := it.Alias
		if name == "" {
			name = c.Name
		}
		schema = append(schema, catalog.ColMeta{TabName: c.TabName, Name: name, Kind: c.Kind, Len: c.Len, Offset: off})
		off += c.Len
	}
	return &Projection{child: child, items: items, schema: schema, limit: limit}
}

func (p *Projection) Cols() []catalog.ColMeta { return p.schema }
func (p *Projection) TupleLen() int {
	n := 0
	for _, c := range p.schema {
		n += c.Len
	}
	return n
}
func (p *Projection) RID() Rid { return p.child.RID() }

func (p *Projection) project() []byte {
	rec := p.child.Current()
	out := make([]byte, 0, p.TupleLen())
	for _, it := range p.items {
		c, ok := findCol(p.child.Cols(), it.Col)
		if !ok {
			continue
		}
		out = append(out, rec[c.Offset:c.Offset+c.Len]...)
	}
	return out
}

func (p *Projection) BeginTuple() error {
	p.emitted = 0
	if err := p.child.BeginTuple(); err != nil {
		return err
	}
	return p.skipIfAtLimit()
}

func (p *Projection) skipIfAtLimit() error {
	if p.limit != nil && !p.child.IsEnd() && p.emitted >= *p.limit {
		for !p.child.IsEnd() {
			if err := p.child.NextTuple(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Projection) NextTuple() error {
	if p.child.IsEnd() {
		return nil
	}
	p.emitted++
	if err := p.child.NextTuple(); err != nil {
		return err
	}
	return p.skipIfAtLimit()
}

func (p *Projection) IsEnd() bool { return p.child.IsEnd() }

func (p *Projection) Current() []byte {
	if p.IsEnd() {
		return nil
	}
	return p.project()
}
