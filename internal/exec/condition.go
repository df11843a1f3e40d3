package exec

import (
	"smfdb/internal/catalog"
	"smfdb/internal/dbtype"
	"smfdb/internal/plan"
)

// findCol locates c's column within schema, returning its ColMeta and byte
// offset within the concatenated record.
func findCol(schema []catalog.ColMeta, tc plan.TabCol) (catalog.ColMeta, bool) {
	off := 0
	for _, c := range schema {
		if c.TabName == tc.Table && c.Name == tc.Col {
			c.Offset = off
			return c, true
		}
		off += c.Len
	}
	return catalog.ColMeta{}, false
}

// SubRunner builds and runs a subquery plan node to completion, decoding
// each output row's sole column at (kind, length), for a Condition's
// RHSSubquery variant: "materialise RHS from ... scalar subquery (pull
// until end) ... IN-subquery (scan-and-match)", §4.6.3. internal/translate
// is the only implementation, since building an operator needs the live
// heap/index/lock/log context Eval itself never carries. Re-run on every
// call: the caller re-opens the subquery per outer tuple.
type SubRunner interface {
	Run(n *plan.Node, kind dbtype.Kind, length int) ([]dbtype.Value, error)
}

// Eval evaluates cond against rec (laid out per schema), applying Int->Float
// promotion when the LHS column is Float and the RHS literal is Int, per
// §4.1/§4.6.3. sub resolves RHSSubquery conditions; callers that never
// build subquery conditions may pass nil.
func Eval(cond plan.Condition, rec []byte, schema []catalog.ColMeta, sub SubRunner) (bool, error) {
	if cond.Agg == plan.AggCount && cond.LHS == (plan.TabCol{}) {
		return true, nil // COUNT(*) bypasses column resolution, always accepts
	}

	col, ok := findCol(schema, cond.LHS)
	if !ok {
		return false, &dbtype.ColumnNotFoundError{Table: cond.LHS.Table, Column: cond.LHS.Col}
	}
	lhsImg := rec[col.Offset : col.Offset+col.Len]

	switch cond.RHSKind {
	case plan.RHSValue:
		rhs := cond.Value
		if col.Kind == dbtype.KindFloat32 && rhs.Kind == dbtype.KindInt32 {
			rhs.PromoteToFloat()
		}
		if rhs.Kind != col.Kind {
			return false, &dbtype.IncompatibleTypeError{Context: "condition comparand kind mismatch"}
		}
		return compareOp(dbtype.Compare(lhsImg, rhs.Raw, col.Len, col.Kind), cond.Op), nil

	case plan.RHSCol:
		rcol, ok := findCol(schema, cond.Col)
		if !ok {
			return false, &dbtype.ColumnNotFoundError{Table: cond.Col.Table, Column: cond.Col.Col}
		}
		rhsImg := rec[rcol.Offset : rcol.Offset+rcol.Len]
		if col.Kind != rcol.Kind {
			return false, &dbtype.IncompatibleTypeError{Context: "join predicate column kind mismatch"}
		}
		return compareOp(dbtype.Compare(lhsImg, rhsImg, col.Len, col.Kind), cond.Op), nil

	case plan.RHSList:
		if cond.Op != plan.OpIn {
			return false, &dbtype.InternalError{Msg: "non-IN operator with a value list"}
		}
		if len(cond.List) == 0 {
			return false, nil // empty IN-list -> predicate is false, per §8
		}
		for _, v := range cond.List {
			vv := v
			if col.Kind == dbtype.KindFloat32 && vv.Kind == dbtype.KindInt32 {
				vv.PromoteToFloat()
			}
			if vv.Kind != col.Kind {
				return false, &dbtype.IncompatibleTypeError{Context: "IN-list element kind mismatch"}
			}
			if dbtype.Compare(lhsImg, vv.Raw, col.Len, col.Kind) == 0 {
				return true, nil
			}
		}
		return false, nil

	case plan.RHSSubquery:
		vals, err := sub.Run(cond.Sub, col.Kind, col.Len)
		if err != nil {
			return false, err
		}
		if cond.Op == plan.OpIn {
			for _, v := range vals {
				if dbtype.Compare(lhsImg, v.Raw, col.Len, col.Kind) == 0 {
					return true, nil
				}
			}
			return false, nil
		}
		if len(vals) == 0 {
			return false, nil
		}
		if len(vals) > 1 {
			return false, &dbtype.InternalError{Msg: "scalar subquery returned more than one row"}
		}
		return compareOp(dbtype.Compare(lhsImg, vals[0].Raw, col.Len, col.Kind), cond.Op), nil

	default:
		return false, &dbtype.InternalError{Msg: "condition with no right-hand side variant"}
	}
}

func compareOp(cmp int, op plan.CmpOp) bool {
	switch op {
	case plan.OpEq:
		return cmp == 0
	case plan.OpNe:
		return cmp != 0
	case plan.OpLt:
		return cmp < 0
	case plan.OpGt:
		return cmp > 0
	case plan.OpLe:
		return cmp <= 0
	case plan.OpGe:
		return cmp >= 0
	default:
		return false
	}
}

// EvalAll applies every condition as a conjunction.
func EvalAll(conds []plan.Condition, rec []byte, schema []catalog.ColMeta, sub SubRunner) (bool, error) {
	for _, c := range conds {
		ok, err := Eval(c, rec, schema, sub)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
