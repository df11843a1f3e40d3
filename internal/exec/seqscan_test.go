package exec

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"smfdb/internal/catalog"
	"smfdb/internal/dbtype"
	"smfdb/internal/lock"
	"smfdb/internal/plan"
	"smfdb/internal/storage"
	"smfdb/internal/txn"
)

func newTestTab(t *testing.T) *catalog.TabMeta {
	t.Helper()
	tab := catalog.NewTabMeta("t")
	tab.AddColumn("id", dbtype.KindInt32, 4)
	return tab
}

func insertInt(t *testing.T, h *storage.HeapFile, n int32) {
	t.Helper()
	v := dbtype.NewInt(n)
	v.Init()
	h.Insert(v.Raw)
}

func TestSeqScanFiltersResidualConditions(t *testing.T) {
	tab := newTestTab(t)
	h, err := storage.OpenHeap(filepath.Join(t.TempDir(), "t.tbl"), tab.RecordLen())
	require.NoError(t, err)
	for _, n := range []int32{1, 2, 3, 4} {
		insertInt(t, h, n)
	}

	rhs := dbtype.NewInt(2)
	rhs.Init()
	cond := plan.Condition{LHS: plan.TabCol{Table: "t", Col: "id"}, Op: plan.OpGt, RHSKind: plan.RHSValue, Value: rhs}

	locks := lock.NewManager()
	tr := &txn.Txn{ID: 1}
	s, err := NewSeqScan(h, tab, []plan.Condition{cond}, plan.GapShared, locks, tr, nil)
	require.NoError(t, err)
	require.NoError(t, s.BeginTuple())

	var got []int32
	for !s.IsEnd() {
		v := dbtype.Decode(dbtype.KindInt32, 4, s.Current())
		got = append(got, v.I)
		require.NoError(t, s.NextTuple())
	}
	require.Equal(t, []int32{3, 4}, got)
}

func TestSeqScanEmptyTable(t *testing.T) {
	tab := newTestTab(t)
	h, err := storage.OpenHeap(filepath.Join(t.TempDir(), "t.tbl"), tab.RecordLen())
	require.NoError(t, err)

	locks := lock.NewManager()
	tr := &txn.Txn{ID: 1}
	s, err := NewSeqScan(h, tab, nil, plan.GapShared, locks, tr, nil)
	require.NoError(t, err)
	require.NoError(t, s.BeginTuple())
	require.True(t, s.IsEnd())
}
