package exec

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smfdb/internal/catalog"
	"smfdb/internal/dbtype"
	"smfdb/internal/lock"
	"smfdb/internal/plan"
	"smfdb/internal/storage"
	"smfdb/internal/txn"
	"smfdb/internal/wal"
)

func newTestWAL(t *testing.T) *wal.Manager {
	t.Helper()
	m, err := wal.NewManager(filepath.Join(t.TempDir(), "test.log"), 50*time.Millisecond)
	require.NoError(t, err)
	return m
}

func newScoreTab(t *testing.T) *catalog.TabMeta {
	t.Helper()
	tab := catalog.NewTabMeta("scores")
	tab.AddColumn("id", dbtype.KindInt32, 4)
	tab.AddColumn("score", dbtype.KindInt32, 4)
	return tab
}

func TestInsertAppendsAndLogsWrite(t *testing.T) {
	tab := newScoreTab(t)
	h, err := storage.OpenHeap(filepath.Join(t.TempDir(), "scores.tbl"), tab.RecordLen())
	require.NoError(t, err)
	locks := lock.NewManager()
	logMgr := newTestWAL(t)
	tr := &txn.Txn{ID: 1}

	v1 := dbtype.NewInt(1)
	v2 := dbtype.NewInt(42)
	ins := NewInsert(h, IndexSet{}, tab, []dbtype.Value{v1, v2}, locks, logMgr, tr)
	require.NoError(t, ins.BeginTuple())

	rec, ok := h.Fetch(ins.RID())
	require.True(t, ok)
	assert.Equal(t, int32(42), dbtype.Decode(dbtype.KindInt32, 4, rec[4:8]).I)
	require.Len(t, tr.Writes, 1)
	assert.Equal(t, txn.WriteInsert, tr.Writes[0].Kind)
}

func TestUpdateAppliesDeltaAssignment(t *testing.T) {
	tab := newScoreTab(t)
	h, err := storage.OpenHeap(filepath.Join(t.TempDir(), "scores.tbl"), tab.RecordLen())
	require.NoError(t, err)
	locks := lock.NewManager()
	logMgr := newTestWAL(t)
	tr := &txn.Txn{ID: 1}

	v1 := dbtype.NewInt(1)
	v2 := dbtype.NewInt(10)
	rid := h.Insert(encodeValues(tab, []dbtype.Value{v1, v2}))

	child := &fakeOperator{cols: tab.Cols, recs: [][]byte{mustFetch(t, h, rid)}, rids: []Rid{rid}}
	delta := dbtype.NewInt(5)
	set := []plan.Assign{{Col: plan.TabCol{Table: "scores", Col: "score"}, Delta: &delta}}

	u := NewUpdate(child, h, IndexSet{}, tab, set, false, locks, logMgr, tr)
	require.NoError(t, u.BeginTuple())

	rec, ok := h.Fetch(rid)
	require.True(t, ok)
	assert.Equal(t, int32(15), dbtype.Decode(dbtype.KindInt32, 4, rec[4:8]).I)
	require.Len(t, tr.Writes, 1)
	assert.Equal(t, txn.WriteUpdate, tr.Writes[0].Kind)
}

func TestDeleteRemovesRowAndRecordsUndo(t *testing.T) {
	tab := newScoreTab(t)
	h, err := storage.OpenHeap(filepath.Join(t.TempDir(), "scores.tbl"), tab.RecordLen())
	require.NoError(t, err)
	locks := lock.NewManager()
	logMgr := newTestWAL(t)
	tr := &txn.Txn{ID: 1}

	v1 := dbtype.NewInt(1)
	v2 := dbtype.NewInt(10)
	rid := h.Insert(encodeValues(tab, []dbtype.Value{v1, v2}))

	child := &fakeOperator{cols: tab.Cols, recs: [][]byte{mustFetch(t, h, rid)}, rids: []Rid{rid}}
	d := NewDelete(child, h, IndexSet{}, tab, locks, logMgr, tr)
	require.NoError(t, d.BeginTuple())

	_, ok := h.Fetch(rid)
	assert.False(t, ok)
	require.Len(t, tr.Writes, 1)
	assert.Equal(t, txn.WriteDelete, tr.Writes[0].Kind)
}

func mustFetch(t *testing.T, h *storage.HeapFile, rid Rid) []byte {
	t.Helper()
	rec, ok := h.Fetch(rid)
	require.True(t, ok)
	return rec
}
