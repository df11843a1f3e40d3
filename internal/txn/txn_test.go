package txn

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"smfdb/internal/lock"
	"smfdb/internal/wal"
)

type fakeUndoer struct{ undone []WriteRecord }

func (f *fakeUndoer) Undo(w WriteRecord) error {
	f.undone = append(f.undone, w)
	return nil
}

func newManager(t *testing.T) *Manager {
	t.Helper()
	l := lock.NewManager()
	w, err := wal.NewManager(filepath.Join(t.TempDir(), "wal.log"), time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return NewManager(l, w)
}

func TestBeginCommit(t *testing.T) {
	m := newManager(t)
	tx, err := m.Begin()
	require.NoError(t, err)
	require.Equal(t, StateGrowing, tx.State)

	require.NoError(t, m.Locks.LockExclusiveOnRow(tx.ID, "g", lock.Rid{Page: 1, Slot: 0}))
	tx.AppendWrite(WriteInsert, "g", lock.Rid{Page: 1, Slot: 0}, nil, 0)

	require.NoError(t, m.Commit(tx))
	require.Equal(t, StateCommitted, tx.State)
}

func TestAbortReplaysWritesInReverse(t *testing.T) {
	m := newManager(t)
	tx, err := m.Begin()
	require.NoError(t, err)

	tx.AppendWrite(WriteUpdate, "g", lock.Rid{Page: 1, Slot: 0}, []byte("a"), 0)
	tx.AppendWrite(WriteUpdate, "g", lock.Rid{Page: 1, Slot: 1}, []byte("b"), 0)

	fu := &fakeUndoer{}
	require.NoError(t, m.Abort(tx, fu))
	require.Equal(t, StateAborted, tx.State)
	require.Len(t, fu.undone, 2)
	require.Equal(t, lock.Rid{Page: 1, Slot: 1}, fu.undone[0].Rid) // reverse order
	require.Equal(t, lock.Rid{Page: 1, Slot: 0}, fu.undone[1].Rid)
}
