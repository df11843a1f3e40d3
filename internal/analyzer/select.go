package analyzer

import (
	"smfdb/internal/ast"
	"smfdb/internal/catalog"
	"smfdb/internal/dbtype"
	"smfdb/internal/plan"
)

func (a *Analyzer) lowerSelect(s *ast.Select) (*plan.Node, error) {
	r, err := a.newResolver(s.Tables)
	if err != nil {
		return nil, err
	}

	where, err := r.lowerConds(s.Where, false)
	if err != nil {
		return nil, err
	}

	// build the scan/join tree over r.tables
	var tree *plan.Node
	for i, tab := range r.tables {
		scan := buildScan(tab, condsForTable(where, tab.Name), plan.GapShared)
		if i == 0 {
			tree = scan
			continue
		}
		joinCond := pickJoinCond(where, tree, tab.Name)
		tree = &plan.Node{Kind: plan.NodeNestedLoopJoin, Children: []*plan.Node{tree, scan}, JoinCond: joinCond}
	}
	if tree == nil {
		return nil, &dbtype.InternalError{Msg: "select with no FROM tables"}
	}

	items, err := r.lowerSelectItems(s.Items)
	if err != nil {
		return nil, err
	}

	node := tree
	hasAgg := false
	for _, it := range items {
		if it.Agg != plan.AggNone {
			hasAgg = true
		}
	}
	if len(s.GroupBy) > 0 || hasAgg {
		groupBy, err := r.lowerTabCols(s.GroupBy)
		if err != nil {
			return nil, err
		}
		having, err := r.lowerConds(s.Having, true)
		if err != nil {
			return nil, err
		}
		node = &plan.Node{Kind: plan.NodeAggregate, Children: []*plan.Node{node}, GroupBy: groupBy, Having: having, Proj: items}
	} else {
		node = &plan.Node{Kind: plan.NodeProjection, Children: []*plan.Node{node}, Proj: items, Limit: s.Limit}
	}

	if s.OrderBy != nil {
		tc, _, err := r.resolve(*s.OrderBy)
		if err != nil {
			return nil, err
		}
		node = &plan.Node{
			Kind: plan.NodeSort, Children: []*plan.Node{node},
			SortCol: tc, SortAsc: s.OrderDir == ast.Asc,
		}
	}
	if s.Limit != nil && node.Kind != plan.NodeProjection {
		node = &plan.Node{Kind: plan.NodeProjection, Children: []*plan.Node{node}, Proj: items, Limit: s.Limit}
	}
	return node, nil
}

// lowerSelectItems resolves the projection list, expanding "SELECT *" to
// every column of every FROM table in declaration order at analysis time
// per §11.5/§13, so the resulting schema is stable across begin_tuple
// restarts.
func (r *resolver) lowerSelectItems(items []ast.SelectItem) ([]plan.ProjItem, error) {
	if len(items) == 1 && items[0].Agg == ast.AggNone && items[0].Col.Col == "" && items[0].Col.Table == "" {
		var out []plan.ProjItem
		for _, tab := range r.tables {
			for _, c := range tab.Cols {
				out = append(out, plan.ProjItem{Col: plan.TabCol{Table: tab.Name, Col: c.Name}})
			}
		}
		return out, nil
	}
	var out []plan.ProjItem
	for _, it := range items {
		if it.Agg == ast.AggCount && it.Col.Col == "" {
			out = append(out, plan.ProjItem{Agg: plan.AggCount, Alias: it.Alias})
			continue
		}
		tc, _, err := r.resolve(it.Col)
		if err != nil {
			return nil, err
		}
		out = append(out, plan.ProjItem{Col: tc, Agg: convertAgg(it.Agg), Alias: it.Alias})
	}
	return out, nil
}

func (r *resolver) lowerTabCols(refs []ast.ColRef) ([]plan.TabCol, error) {
	var out []plan.TabCol
	for _, ref := range refs {
		tc, _, err := r.resolve(ref)
		if err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, nil
}

func condsForTable(conds []plan.Condition, table string) []plan.Condition {
	var out []plan.Condition
	for _, c := range conds {
		if c.LHS.Table == table || (c.LHS == plan.TabCol{}) {
			out = append(out, c)
		}
	}
	return out
}

// pickJoinCond returns the first equality condition whose RHS is a column of
// newTable, as the join predicate for a nested-loop join. The LHS table is
// not checked against the join tree so far, and left is not consulted.
func pickJoinCond(conds []plan.Condition, left *plan.Node, newTable string) *plan.Condition {
	for i := range conds {
		c := &conds[i]
		if c.RHSKind == plan.RHSCol && c.Col.Table == newTable && c.Op == plan.OpEq {
			return c
		}
	}
	return nil
}

// buildScan chooses IndexScan when an existing index's leading column
// carries an equality or range predicate, SeqScan otherwise, per §4.6.1/2.
func buildScan(tab *catalog.TabMeta, conds []plan.Condition, gapMode plan.GapMode) *plan.Node {
	for i := range tab.Indexes {
		idx := &tab.Indexes[i]
		if len(idx.Cols) == 0 {
			continue
		}
		for _, c := range conds {
			if c.LHS.Col == idx.Cols[0].Name && c.RHSKind == plan.RHSValue &&
				(c.Op == plan.OpEq || c.Op == plan.OpLt || c.Op == plan.OpGt || c.Op == plan.OpLe || c.Op == plan.OpGe) {
				return &plan.Node{
					Kind: plan.NodeIndexScan, Table: tab.Name, TabMeta: tab, Index: idx,
					Conds: conds, GapMode: gapMode, Asc: true,
				}
			}
		}
	}
	return &plan.Node{Kind: plan.NodeSeqScan, Table: tab.Name, TabMeta: tab, Conds: conds, GapMode: gapMode}
}
