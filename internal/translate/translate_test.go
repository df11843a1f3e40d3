package translate

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

func newFixture(t *testing.T) (*Tables, *catalog.TabMeta, *lock.Manager, *wal.Manager, *txn.Txn) {
	t.Helper()
	tab := catalog.NewTabMeta("widgets")
	tab.AddColumn("id", dbtype.KindInt32, 4)

	heap, err := storage.OpenHeap(filepath.Join(t.TempDir(), "widgets.tbl"), tab.RecordLen())
	require.NoError(t, err)

	tables := NewTables()
	tables.Heaps["widgets"] = heap

	logMgr, err := wal.NewManager(filepath.Join(t.TempDir(), "test.log"), 50*time.Millisecond)
	require.NoError(t, err)

	return tables, tab, lock.NewManager(), logMgr, &txn.Txn{ID: 1}
}

func TestBuildInsertThenSeqScan(t *testing.T) {
	tables, tab, locks, logMgr, tr := newFixture(t)
	translator := New(tables, locks, logMgr, tr)

	v := dbtype.NewInt(7)
	insertNode := &plan.Node{Kind: plan.NodeInsert, Table: "widgets", TabMeta: tab, InsertValues: []dbtype.Value{v}}
	op, err := translator.Build(insertNode)
	require.NoError(t, err)
	require.NoError(t, op.BeginTuple())

	scanNode := &plan.Node{Kind: plan.NodeSeqScan, Table: "widgets", TabMeta: tab, GapMode: plan.GapShared}
	scanOp, err := translator.Build(scanNode)
	require.NoError(t, err)
	require.NoError(t, scanOp.BeginTuple())

	require.False(t, scanOp.IsEnd())
	assert.Equal(t, int32(7), dbtype.Decode(dbtype.KindInt32, 4, scanOp.Current()).I)
}

func TestBuildUnknownTableErrors(t *testing.T) {
	tables, tab, locks, logMgr, tr := newFixture(t)
	translator := New(tables, locks, logMgr, tr)

	node := &plan.Node{Kind: plan.NodeSeqScan, Table: "missing", TabMeta: tab}
	_, err := translator.Build(node)
	assert.Error(t, err)
}
