package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smfdb/internal/dbtype"
	"smfdb/internal/plan"
)

func TestSortMergeJoinDuplicateOuterKeysReuseBufferedRun(t *testing.T) {
	// outer: 1, 1, 2   inner: 1, 1, 2 — every outer row pairs with both
	// buffered inner rows sharing its key.
	outer := &fakeOperator{cols: idCol("a"), recs: [][]byte{encInt(1), encInt(1), encInt(2)}}
	inner := &fakeOperator{cols: idCol("b"), recs: [][]byte{encInt(1), encInt(1), encInt(2)}}
	cond := plan.Condition{LHS: plan.TabCol{Table: "a", Col: "id"}, Col: plan.TabCol{Table: "b", Col: "id"}}

	j, err := NewSortMergeJoin(outer, inner, &cond)
	require.NoError(t, err)
	require.NoError(t, j.BeginTuple())

	n := 0
	for !j.IsEnd() {
		n++
		require.NoError(t, j.NextTuple())
	}
	assert.Equal(t, 5, n) // (1,1)x4 pairs + (2,2) = 5
}

func TestSortMergeJoinNoMatchBetweenGroups(t *testing.T) {
	outer := &fakeOperator{cols: idCol("a"), recs: [][]byte{encInt(1), encInt(3)}}
	inner := &fakeOperator{cols: idCol("b"), recs: [][]byte{encInt(2)}}
	cond := plan.Condition{LHS: plan.TabCol{Table: "a", Col: "id"}, Col: plan.TabCol{Table: "b", Col: "id"}}

	j, err := NewSortMergeJoin(outer, inner, &cond)
	require.NoError(t, err)
	require.NoError(t, j.BeginTuple())
	assert.True(t, j.IsEnd())
}

func TestSortMergeJoinProducesConcatenatedRecord(t *testing.T) {
	outer := &fakeOperator{cols: idCol("a"), recs: [][]byte{encInt(5)}}
	inner := &fakeOperator{cols: idCol("b"), recs: [][]byte{encInt(5)}}
	cond := plan.Condition{LHS: plan.TabCol{Table: "a", Col: "id"}, Col: plan.TabCol{Table: "b", Col: "id"}}

	j, err := NewSortMergeJoin(outer, inner, &cond)
	require.NoError(t, err)
	require.NoError(t, j.BeginTuple())
	require.False(t, j.IsEnd())
	rec := j.Current()
	assert.Equal(t, int32(5), dbtype.Decode(dbtype.KindInt32, 4, rec[0:4]).I)
	assert.Equal(t, int32(5), dbtype.Decode(dbtype.KindInt32, 4, rec[4:8]).I)
}
