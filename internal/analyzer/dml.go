package analyzer

import (
	"smfdb/internal/ast"
	"smfdb/internal/catalog"
	"smfdb/internal/dbtype"
	"smfdb/internal/plan"
)

func (a *Analyzer) lowerInsert(s *ast.Insert) (*plan.Node, error) {
	tab, err := a.DB.Table(s.Table)
	if err != nil {
		return nil, err
	}
	if len(s.Values) != len(tab.Cols) {
		return nil, &dbtype.InternalError{Msg: "insert value count does not match table column count"}
	}
	var values []dbtype.Value
	for i, e := range s.Values {
		v, err := valueFromLiteral(e, tab.Cols[i])
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return &plan.Node{
		Kind: plan.NodeInsert, Table: s.Table, TabMeta: tab,
		InsertValues: values, GapMode: plan.GapExclusive, SetIndexKey: true,
	}, nil
}

func (a *Analyzer) lowerUpdate(s *ast.Update) (*plan.Node, error) {
	r, err := a.newResolver([]string{s.Table})
	if err != nil {
		return nil, err
	}
	tab := r.tables[0]

	where, err := r.lowerConds(s.Where, false)
	if err != nil {
		return nil, err
	}
	scan := buildScan(tab, where, plan.GapExclusive)

	var assigns []plan.Assign
	setIndexKey := false
	for _, as := range s.Set {
		col, ok := tab.Column(as.Col.Col)
		if !ok {
			return nil, &dbtype.ColumnNotFoundError{Table: s.Table, Column: as.Col.Col}
		}
		pa := plan.Assign{Col: plan.TabCol{Table: s.Table, Col: as.Col.Col}}
		switch e := as.Val.(type) {
		case ast.AddExpr:
			delta, err := valueFromLiteral(e.Delta, col)
			if err != nil {
				return nil, err
			}
			pa.Delta = &delta
		default:
			v, err := valueFromLiteral(as.Val, col)
			if err != nil {
				return nil, err
			}
			pa.Value = &v
		}
		if isIndexedColumn(tab, as.Col.Col) {
			setIndexKey = true
		}
		assigns = append(assigns, pa)
	}

	return &plan.Node{
		Kind: plan.NodeUpdate, Children: []*plan.Node{scan}, Table: s.Table, TabMeta: tab,
		UpdateSet: assigns, SetIndexKey: setIndexKey, GapMode: plan.GapExclusive,
	}, nil
}

func (a *Analyzer) lowerDelete(s *ast.Delete) (*plan.Node, error) {
	r, err := a.newResolver([]string{s.Table})
	if err != nil {
		return nil, err
	}
	tab := r.tables[0]
	where, err := r.lowerConds(s.Where, false)
	if err != nil {
		return nil, err
	}
	scan := buildScan(tab, where, plan.GapExclusive)
	return &plan.Node{Kind: plan.NodeDelete, Children: []*plan.Node{scan}, Table: s.Table, TabMeta: tab, GapMode: plan.GapExclusive}, nil
}

// isIndexedColumn reports whether col participates in any index on tab, in
// which case an UPDATE touching it must maintain the index entry
// (plan.Node.SetIndexKey).
func isIndexedColumn(tab *catalog.TabMeta, col string) bool {
	for _, idx := range tab.Indexes {
		for _, c := range idx.Cols {
			if c.Name == col {
				return true
			}
		}
	}
	return false
}
