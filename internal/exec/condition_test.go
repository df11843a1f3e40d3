package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smfdb/internal/catalog"
	"smfdb/internal/dbtype"
	"smfdb/internal/plan"
)

func intRec(vals ...int32) ([]byte, []catalog.ColMeta) {
	schema := make([]catalog.ColMeta, len(vals))
	var rec []byte
	off := 0
	for i, v := range vals {
		schema[i] = catalog.ColMeta{TabName: "t", Name: "c" + string(rune('0'+i)), Kind: dbtype.KindInt32, Len: 4, Offset: off}
		val := dbtype.NewInt(v)
		val.Init()
		rec = append(rec, val.Raw...)
		off += 4
	}
	return rec, schema
}

func TestEvalValueComparison(t *testing.T) {
	rec, schema := intRec(5)
	rhs := dbtype.NewInt(5)
	rhs.Init()
	cond := plan.Condition{LHS: plan.TabCol{Table: "t", Col: "c0"}, Op: plan.OpEq, RHSKind: plan.RHSValue, Value: rhs}

	ok, err := Eval(cond, rec, schema, nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvalPromotesIntLiteralToFloat(t *testing.T) {
	schema := []catalog.ColMeta{{TabName: "t", Name: "f", Kind: dbtype.KindFloat32, Len: 4, Offset: 0}}
	fv := dbtype.NewFloat(3.0)
	fv.Init()
	rhs := dbtype.NewInt(3)
	cond := plan.Condition{LHS: plan.TabCol{Table: "t", Col: "f"}, Op: plan.OpEq, RHSKind: plan.RHSValue, Value: rhs}

	ok, err := Eval(cond, fv.Raw, schema, nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvalInList(t *testing.T) {
	rec, schema := intRec(7)
	list := make([]dbtype.Value, 0, 3)
	for _, n := range []int32{1, 7, 9} {
		v := dbtype.NewInt(n)
		v.Init()
		list = append(list, v)
	}
	cond := plan.Condition{LHS: plan.TabCol{Table: "t", Col: "c0"}, Op: plan.OpIn, RHSKind: plan.RHSList, List: list}

	ok, err := Eval(cond, rec, schema, nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvalInListEmptyIsFalse(t *testing.T) {
	rec, schema := intRec(7)
	cond := plan.Condition{LHS: plan.TabCol{Table: "t", Col: "c0"}, Op: plan.OpIn, RHSKind: plan.RHSList}

	ok, err := Eval(cond, rec, schema, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvalCountStarBypassesColumnLookup(t *testing.T) {
	cond := plan.Condition{Agg: plan.AggCount}
	ok, err := Eval(cond, nil, nil, nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvalAllConjunction(t *testing.T) {
	rec, schema := intRec(5, 9)
	v5 := dbtype.NewInt(5)
	v5.Init()
	v9 := dbtype.NewInt(9)
	v9.Init()
	conds := []plan.Condition{
		{LHS: plan.TabCol{Table: "t", Col: "c0"}, Op: plan.OpEq, RHSKind: plan.RHSValue, Value: v5},
		{LHS: plan.TabCol{Table: "t", Col: "c1"}, Op: plan.OpGt, RHSKind: plan.RHSValue, Value: v5},
	}
	ok, err := EvalAll(conds, rec, schema, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	conds[1].Value = v9
	conds[1].Op = plan.OpGt
	ok, err = EvalAll(conds, rec, schema, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvalColumnNotFound(t *testing.T) {
	rec, schema := intRec(1)
	cond := plan.Condition{LHS: plan.TabCol{Table: "t", Col: "missing"}, Op: plan.OpEq, RHSKind: plan.RHSValue}
	_, err := Eval(cond, rec, schema, nil)
	assert.Error(t, err)
}

// fakeSubRunner stands in for internal/translate's SubRunner, returning a
// fixed row set regardless of which plan node it's asked to run.
type fakeSubRunner struct {
	vals []dbtype.Value
	err  error
}

func (f fakeSubRunner) Run(n *plan.Node, kind dbtype.Kind, length int) ([]dbtype.Value, error) {
	return f.vals, f.err
}

func intVals(ns ...int32) []dbtype.Value {
	out := make([]dbtype.Value, len(ns))
	for i, n := range ns {
		v := dbtype.NewInt(n)
		v.Init()
		out[i] = v
	}
	return out
}

func TestEvalScalarSubqueryCompares(t *testing.T) {
	rec, schema := intRec(5)
	cond := plan.Condition{LHS: plan.TabCol{Table: "t", Col: "c0"}, Op: plan.OpEq, RHSKind: plan.RHSSubquery, Sub: &plan.Node{}}

	ok, err := Eval(cond, rec, schema, fakeSubRunner{vals: intVals(5)})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Eval(cond, rec, schema, fakeSubRunner{vals: intVals(6)})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvalScalarSubqueryEmptyIsFalse(t *testing.T) {
	rec, schema := intRec(5)
	cond := plan.Condition{LHS: plan.TabCol{Table: "t", Col: "c0"}, Op: plan.OpEq, RHSKind: plan.RHSSubquery, Sub: &plan.Node{}}

	ok, err := Eval(cond, rec, schema, fakeSubRunner{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvalScalarSubqueryMultiRowIsInternalError(t *testing.T) {
	rec, schema := intRec(5)
	cond := plan.Condition{LHS: plan.TabCol{Table: "t", Col: "c0"}, Op: plan.OpEq, RHSKind: plan.RHSSubquery, Sub: &plan.Node{}}

	_, err := Eval(cond, rec, schema, fakeSubRunner{vals: intVals(5, 6)})
	assert.Error(t, err)
}

func TestEvalInSubqueryScansAndMatches(t *testing.T) {
	rec, schema := intRec(7)
	cond := plan.Condition{LHS: plan.TabCol{Table: "t", Col: "c0"}, Op: plan.OpIn, RHSKind: plan.RHSSubquery, Sub: &plan.Node{}}

	ok, err := Eval(cond, rec, schema, fakeSubRunner{vals: intVals(1, 7, 9)})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Eval(cond, rec, schema, fakeSubRunner{vals: intVals(1, 2, 9)})
	require.NoError(t, err)
	assert.False(t, ok)
}
