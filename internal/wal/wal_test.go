package wal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"smfdb/internal/lock"
)

func TestAppendAndRecover(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(filepath.Join(dir, "wal.log"), time.Hour)
	require.NoError(t, err)

	_, err = m.AddLogToBuffer(&Record{Type: TypeBegin, TxnID: 1, PrevLSN: 0})
	require.NoError(t, err)
	_, err = m.AddLogToBuffer(&Record{
		Type: TypeInsert, TxnID: 1, PrevLSN: 0,
		Value: []byte{1, 2, 3, 4}, Rid: lock.Rid{Page: 1, Slot: 2}, Table: "g",
	})
	require.NoError(t, err)
	require.NoError(t, m.ForceFlush())
	require.NoError(t, m.Close())

	m2, err := NewManager(filepath.Join(dir, "wal.log"), time.Hour)
	require.NoError(t, err)
	defer m2.Close()

	recs, err := m2.ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, TypeBegin, recs[0].Type)
	require.Equal(t, TypeInsert, recs[1].Type)
	require.Equal(t, "g", recs[1].Table)
	require.Equal(t, lock.Rid{Page: 1, Slot: 2}, recs[1].Rid)
}

func TestUpdateRecordRoundTrip(t *testing.T) {
	r := &Record{
		Type: TypeUpdate, TxnID: 7, PrevLSN: 3,
		OldValue: []byte{1, 1, 1, 1}, NewValue: []byte{2, 2, 2, 2},
		Rid: lock.Rid{Page: 4, Slot: 0}, Table: "g",
	}
	buf := r.Encode()
	got, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, r.OldValue, got.OldValue)
	require.Equal(t, r.NewValue, got.NewValue)
	require.Equal(t, r.Table, got.Table)
}
