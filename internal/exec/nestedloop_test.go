package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smfdb/internal/catalog"
	"smfdb/internal/dbtype"
	"smfdb/internal/plan"
)

func idCol(tab string) []catalog.ColMeta {
	return []catalog.ColMeta{{TabName: tab, Name: "id", Kind: dbtype.KindInt32, Len: 4, Offset: 0}}
}

func TestNestedLoopJoinMatchesOnEquiJoin(t *testing.T) {
	outer := &fakeOperator{cols: idCol("a"), recs: [][]byte{encInt(1), encInt(2)}}
	inner := &fakeOperator{cols: idCol("b"), recs: [][]byte{encInt(2), encInt(3)}}
	cond := plan.Condition{LHS: plan.TabCol{Table: "a", Col: "id"}, Op: plan.OpEq, RHSKind: plan.RHSCol, Col: plan.TabCol{Table: "b", Col: "id"}}

	j := NewNestedLoopJoin(outer, inner, &cond, nil)
	require.NoError(t, j.BeginTuple())

	require.False(t, j.IsEnd())
	rec := j.Current()
	assert.Equal(t, int32(2), dbtype.Decode(dbtype.KindInt32, 4, rec[0:4]).I)
	assert.Equal(t, int32(2), dbtype.Decode(dbtype.KindInt32, 4, rec[4:8]).I)

	require.NoError(t, j.NextTuple())
	assert.True(t, j.IsEnd())
}

func TestNestedLoopJoinNoMatches(t *testing.T) {
	outer := &fakeOperator{cols: idCol("a"), recs: [][]byte{encInt(1)}}
	inner := &fakeOperator{cols: idCol("b"), recs: [][]byte{encInt(9)}}
	cond := plan.Condition{LHS: plan.TabCol{Table: "a", Col: "id"}, Op: plan.OpEq, RHSKind: plan.RHSCol, Col: plan.TabCol{Table: "b", Col: "id"}}

	j := NewNestedLoopJoin(outer, inner, &cond, nil)
	require.NoError(t, j.BeginTuple())
	assert.True(t, j.IsEnd())
}
