package predicate

import (
	"testing"

	"github.com/stretchr/testify/require"
	"smfdb/internal/catalog"
	"smfdb/internal/dbtype"
)

func scoreIndex() *catalog.IndexMeta {
	return &catalog.IndexMeta{
		TabName: "g",
		Cols: []catalog.ColMeta{
			{TabName: "g", Name: "score", Kind: dbtype.KindFloat32, Len: 4},
		},
	}
}

func TestBuildEqualityIsClean(t *testing.T) {
	idx := scoreIndex()
	v := dbtype.NewFloat(85.0)
	m, residual := Build(idx, []Cond{{Col: "score", Op: OpEq, Value: v}})
	require.True(t, m.IndexClean)
	require.Empty(t, residual)
	require.Equal(t, m.LeftKey, m.RightKey)
}

func TestBuildRangeNotClean(t *testing.T) {
	idx := scoreIndex()
	v := dbtype.NewFloat(80.0)
	m, _ := Build(idx, []Cond{{Col: "score", Op: OpGt, Value: v}})
	require.False(t, m.IndexClean)
	require.Equal(t, OpGt, m.LastLeftOp)
}

func TestGapOverlap(t *testing.T) {
	idx := scoreIndex()
	v1 := dbtype.NewFloat(85.0)
	v1.Init()
	v2 := dbtype.NewFloat(85.0)
	v2.Init()
	g1 := Gap{Index: idx, Cols: []GapConstraint{{Col: "score", Bounded: true, Op: OpEq, Value: v1}}}
	g2 := Gap{Index: idx, Cols: []GapConstraint{{Col: "score", Bounded: true, Op: OpEq, Value: v2}}}
	require.True(t, Overlaps(g1, g2))

	v3 := dbtype.NewFloat(10.0)
	v3.Init()
	g3 := Gap{Index: idx, Cols: []GapConstraint{{Col: "score", Bounded: true, Op: OpEq, Value: v3}}}
	require.False(t, Overlaps(g1, g3))
}
