package engine

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smfdb/internal/catalog"
	"smfdb/internal/config"
	"smfdb/internal/wal"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	db := catalog.NewDatabase("test")
	dir := t.TempDir()
	logMgr, err := wal.NewManager(filepath.Join(dir, "test.log"), 50*time.Millisecond)
	require.NoError(t, err)
	cfg := config.Default()
	cfg.DataDir = dir
	return New(db, logMgr, cfg)
}

func TestExecuteCreateInsertSelect(t *testing.T) {
	e := newTestEngine(t)
	sess := e.NewSession()

	_, err := e.Execute(sess, "CREATE TABLE widgets(id INT, score FLOAT)")
	require.NoError(t, err)

	_, err = e.Execute(sess, "INSERT INTO widgets VALUES (1, 10.0)")
	require.NoError(t, err)
	_, err = e.Execute(sess, "INSERT INTO widgets VALUES (2, 20.0)")
	require.NoError(t, err)

	res, err := e.Execute(sess, "SELECT id FROM widgets")
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, res.Columns)
	assert.Len(t, res.Rows, 2)
}

func TestExecuteBeginCommitWrapsDML(t *testing.T) {
	e := newTestEngine(t)
	sess := e.NewSession()
	_, err := e.Execute(sess, "CREATE TABLE widgets(id INT)")
	require.NoError(t, err)

	_, err = e.Execute(sess, "BEGIN")
	require.NoError(t, err)
	require.NotNil(t, sess.Txn)

	_, err = e.Execute(sess, "INSERT INTO widgets VALUES (1)")
	require.NoError(t, err)

	_, err = e.Execute(sess, "COMMIT")
	require.NoError(t, err)
	assert.Nil(t, sess.Txn)
}

func TestExecuteCommitWithoutBeginErrors(t *testing.T) {
	e := newTestEngine(t)
	sess := e.NewSession()
	_, err := e.Execute(sess, "COMMIT")
	assert.Error(t, err)
}

func TestExecuteNestedBeginErrors(t *testing.T) {
	e := newTestEngine(t)
	sess := e.NewSession()
	_, err := e.Execute(sess, "BEGIN")
	require.NoError(t, err)
	_, err = e.Execute(sess, "BEGIN")
	assert.Error(t, err)
}

func TestPlanCacheReusesAnalyzedNode(t *testing.T) {
	e := newTestEngine(t)
	sess := e.NewSession()
	_, err := e.Execute(sess, "CREATE TABLE widgets(id INT)")
	require.NoError(t, err)

	_, err = e.Execute(sess, "INSERT INTO widgets VALUES (1)")
	require.NoError(t, err)
	_, ok := e.Cache.Get("INSERT INTO widgets VALUES (1)")
	assert.True(t, ok)
}
