// Package analyzer implements the semantic analyzer (C8): it resolves
// names, infers unqualified columns, type-checks predicates and lowers the
// parser's AST into the canonical Query/Plan shapes C6/C7 consume.
package analyzer

import (
	"fmt"

	"smfdb/internal/ast"
	"smfdb/internal/catalog"
	"smfdb/internal/dbtype"
	"smfdb/internal/plan"
)

// Analyzer lowers ast.Stmt into a plan.Node, resolving every column
// reference against the live catalog.
type Analyzer struct {
	DB *catalog.Database
}

func New(db *catalog.Database) *Analyzer {
	return &Analyzer{DB: db}
}

// Analyze is the single entry point, chaining per-statement lowering the
// way the teacher's own validation pass chains one function per concern.
func (a *Analyzer) Analyze(stmt ast.Stmt) (*plan.Node, error) {
	switch s := stmt.(type) {
	case *ast.CreateTable:
		return a.lowerCreateTable(s)
	case *ast.DropTable:
		return &plan.Node{Kind: plan.NodeDDL, DDLKind: plan.DDLDropTable, Table: s.Table}, nil
	case *ast.CreateIndex:
		return a.lowerCreateIndex(s)
	case *ast.DropIndex:
		return &plan.Node{Kind: plan.NodeDDL, DDLKind: plan.DDLDropIndex, Table: s.Table, DDLIndexOn: s.Cols}, nil
	case *ast.Desc:
		return &plan.Node{Kind: plan.NodeDDL, DDLKind: plan.DDLDesc, Table: s.Table}, nil
	case *ast.ShowTables:
		return &plan.Node{Kind: plan.NodeDDL, DDLKind: plan.DDLShowTables}, nil
	case *ast.ShowIndex:
		return &plan.Node{Kind: plan.NodeDDL, DDLKind: plan.DDLShowIndex, Table: s.Table}, nil
	case *ast.StaticCheckpoint:
		return &plan.Node{Kind: plan.NodeDDL, DDLKind: plan.DDLStaticCheckpoint}, nil
	case *ast.Load:
		return &plan.Node{Kind: plan.NodeDDL, DDLKind: plan.DDLLoad, Table: s.Table, LoadFile: s.File}, nil
	case *ast.SetOption:
		return &plan.Node{Kind: plan.NodeDDL, DDLKind: plan.DDLSetOption, SetOption: s.Name, SetValue: s.Value}, nil
	case *ast.Select:
		return a.lowerSelect(s)
	case *ast.Insert:
		return a.lowerInsert(s)
	case *ast.Update:
		return a.lowerUpdate(s)
	case *ast.Delete:
		return a.lowerDelete(s)
	default:
		return nil, &dbtype.InternalError{Msg: fmt.Sprintf("analyzer: unhandled statement %T", stmt)}
	}
}

func (a *Analyzer) lowerCreateTable(s *ast.CreateTable) (*plan.Node, error) {
	var cols []catalog.ColMeta
	offset := 0
	for _, cd := range s.Cols {
		kind, length, err := colTypeOf(cd.Type)
		if err != nil {
			return nil, err
		}
		cols = append(cols, catalog.ColMeta{TabName: s.Table, Name: cd.Name, Kind: kind, Len: length, Offset: offset})
		offset += length
	}
	return &plan.Node{Kind: plan.NodeDDL, DDLKind: plan.DDLCreateTable, Table: s.Table, DDLCols: cols}, nil
}

func colTypeOf(t ast.ColType) (dbtype.Kind, int, error) {
	switch t.Name {
	case "INT":
		return dbtype.KindInt32, 4, nil
	case "FLOAT":
		return dbtype.KindFloat32, 4, nil
	case "CHAR":
		return dbtype.KindFixedStr, t.Len, nil
	default:
		return 0, 0, &dbtype.InternalError{Msg: "unknown column type " + t.Name}
	}
}

func (a *Analyzer) lowerCreateIndex(s *ast.CreateIndex) (*plan.Node, error) {
	tab, err := a.DB.Table(s.Table)
	if err != nil {
		return nil, err
	}
	for _, c := range s.Cols {
		if _, ok := tab.Column(c); !ok {
			return nil, &dbtype.ColumnNotFoundError{Table: s.Table, Column: c}
		}
	}
	if _, exists := tab.IndexExact(s.Cols); exists {
		return nil, &dbtype.IndexExistsError{Table: s.Table, Cols: s.Cols}
	}
	return &plan.Node{Kind: plan.NodeDDL, DDLKind: plan.DDLCreateIndex, Table: s.Table, DDLIndexOn: s.Cols}, nil
}

// resolver tracks the FROM tables in scope for one statement and resolves
// unqualified column references, raising AmbiguousColumnError when more
// than one FROM table has a matching column.
type resolver struct {
	db     *catalog.Database
	tables []*catalog.TabMeta
}

func (a *Analyzer) newResolver(tableNames []string) (*resolver, error) {
	r := &resolver{db: a.DB}
	for _, name := range tableNames {
		tab, err := a.DB.Table(name)
		if err != nil {
			return nil, err
		}
		r.tables = append(r.tables, tab)
	}
	return r, nil
}

func (r *resolver) resolve(ref ast.ColRef) (plan.TabCol, catalog.ColMeta, error) {
	if ref.Table != "" {
		for _, tab := range r.tables {
			if tab.Name == ref.Table {
				col, ok := tab.Column(ref.Col)
				if !ok {
					return plan.TabCol{}, catalog.ColMeta{}, &dbtype.ColumnNotFoundError{Table: ref.Table, Column: ref.Col}
				}
				return plan.TabCol{Table: ref.Table, Col: ref.Col}, col, nil
			}
		}
		return plan.TabCol{}, catalog.ColMeta{}, &dbtype.TableNotFoundError{Table: ref.Table}
	}
	var found *catalog.TabMeta
	var foundCol catalog.ColMeta
	for _, tab := range r.tables {
		if col, ok := tab.Column(ref.Col); ok {
			if found != nil {
				return plan.TabCol{}, catalog.ColMeta{}, &dbtype.AmbiguousColumnError{Column: ref.Col}
			}
			found = tab
			foundCol = col
		}
	}
	if found == nil {
		return plan.TabCol{}, catalog.ColMeta{}, &dbtype.ColumnNotFoundError{Column: ref.Col}
	}
	return plan.TabCol{Table: found.Name, Col: ref.Col}, foundCol, nil
}

func convertAgg(a ast.AggKind) plan.AggKind { return plan.AggKind(a) }
func convertOp(o ast.CmpOp) plan.CmpOp      { return plan.CmpOp(o) }

// valueFromLiteral converts a parsed literal into a dbtype.Value, applying
// Int->Float promotion when the target column is Float per §4.1.
func valueFromLiteral(e ast.Expr, target catalog.ColMeta) (dbtype.Value, error) {
	var v dbtype.Value
	switch lit := e.(type) {
	case ast.IntLit:
		v = dbtype.NewInt(lit.Val)
	case ast.FloatLit:
		v = dbtype.NewFloat(lit.Val)
	case ast.StrLit:
		v = dbtype.NewStr(lit.Val, target.Len)
	default:
		return dbtype.Value{}, &dbtype.InternalError{Msg: "expected a literal expression"}
	}
	if target.Kind == dbtype.KindFloat32 && v.Kind == dbtype.KindInt32 {
		v.PromoteToFloat()
		return v, nil
	}
	if v.Kind != target.Kind {
		return dbtype.Value{}, &dbtype.IncompatibleTypeError{Context: fmt.Sprintf("column %s is %s", target.Name, target.Kind)}
	}
	v.Len = target.Len
	v.Init()
	return v, nil
}

func (r *resolver) lowerConds(conds []ast.Cond, havingCtx bool) ([]plan.Condition, error) {
	var out []plan.Condition
	for _, c := range conds {
		pc := plan.Condition{Agg: convertAgg(c.Agg), Op: convertOp(c.Op)}
		if c.Agg == ast.AggCount && c.LHS.Col == "" {
			pc.LHS = plan.TabCol{} // COUNT(*): empty TabCol, bypasses resolution per §9
		} else {
			tc, _, err := r.resolve(c.LHS)
			if err != nil {
				return nil, err
			}
			pc.LHS = tc
		}

		switch {
		case c.Sub != nil:
			subNode, err := (&Analyzer{DB: r.db}).lowerSelect(c.Sub)
			if err != nil {
				return nil, err
			}
			pc.RHSKind = plan.RHSSubquery
			pc.Sub = subNode
		case c.Op == ast.OpIn:
			if len(c.RHSList) == 0 {
				// Empty IN-list -> predicate is always false; represented as
				// an always-false RHSList rather than a special node, per §8.
				pc.RHSKind = plan.RHSList
				pc.List = nil
				out = append(out, pc)
				continue
			}
			target, err := r.targetColMeta(c.LHS)
			if err != nil {
				return nil, err
			}
			for _, lit := range c.RHSList {
				v, err := valueFromLiteralPromoting(lit, target)
				if err != nil {
					return nil, err
				}
				pc.List = append(pc.List, v)
			}
			pc.RHSKind = plan.RHSList
		case c.RHSCol != nil:
			tc, _, err := r.resolve(*c.RHSCol)
			if err != nil {
				return nil, err
			}
			pc.Col = tc
			pc.RHSKind = plan.RHSCol
		default:
			target, err := r.targetColMeta(c.LHS)
			if err != nil {
				return nil, err
			}
			v, err := valueFromLiteralPromoting(c.RHS, target)
			if err != nil {
				return nil, err
			}
			pc.Value = v
			pc.RHSKind = plan.RHSValue
		}
		out = append(out, pc)
	}
	return out, nil
}

// valueFromLiteralPromoting delegates to valueFromLiteral, which applies the
// engine's sole allowed promotion, Int->Float; any other mismatch is
// IncompatibleType. COUNT(*) conditions reach here with the zero ColMeta
// that targetColMeta returns for an empty column reference.
func valueFromLiteralPromoting(e ast.Expr, target catalog.ColMeta) (dbtype.Value, error) {
	return valueFromLiteral(e, target)
}

func (r *resolver) targetColMeta(ref ast.ColRef) (catalog.ColMeta, error) {
	if ref.Col == "" {
		return catalog.ColMeta{}, nil
	}
	_, col, err := r.resolve(ref)
	return col, err
}
