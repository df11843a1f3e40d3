package mysqlbridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"

	"smfdb/internal/catalog"
	"smfdb/internal/dbtype"
	"smfdb/internal/storage"
)

func TestCreateTableSQL(t *testing.T) {
	tab := catalog.NewTabMeta("users")
	tab.AddColumn("id", dbtype.KindInt32, 4)
	tab.AddColumn("name", dbtype.KindFixedStr, 16)

	got := createTableSQL(tab)
	assert.Equal(t, "CREATE TABLE users (id INT, name VARCHAR(16))", got)
}

func TestInsertSQLEscapesQuotes(t *testing.T) {
	tab := catalog.NewTabMeta("users")
	tab.AddColumn("name", dbtype.KindFixedStr, 16)

	v := dbtype.NewStr("o'brien", 16)
	v.Init()
	rec := v.Raw

	got := insertSQL(tab, rec)
	assert.Contains(t, got, "o''brien")
}

func TestBridgeConnectIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	mysqlContainer, err := mysql.Run(ctx, "mysql:8.0",
		mysql.WithDatabase("testdb"),
		mysql.WithUsername("root"),
		mysql.WithPassword("testpass"),
	)
	require.NoError(t, err, "failed to start MySQL container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(mysqlContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := mysqlContainer.ConnectionString(ctx, "parseTime=true")
	require.NoError(t, err)

	t.Run("connect and export a table", func(t *testing.T) {
		tab := catalog.NewTabMeta("widgets")
		tab.AddColumn("id", dbtype.KindInt32, 4)
		heap, err := storage.OpenHeap(t.TempDir()+"/widgets.tbl", tab.RecordLen())
		require.NoError(t, err)
		v := dbtype.NewInt(1)
		v.Init()
		heap.Insert(v.Raw)

		b := New(Options{DSN: dsn})
		require.NoError(t, b.Connect(ctx))
		defer b.Close()

		stmts, err := b.BuildCreateAndInserts(tab, heap)
		require.NoError(t, err)
		require.Len(t, stmts, 2)
		require.NoError(t, b.Replay(ctx, stmts))
	})

	t.Run("invalid dsn fails", func(t *testing.T) {
		b := New(Options{DSN: "invalid:user@tcp(127.0.0.1:1)/nope", Timeout: 1})
		err := b.Connect(ctx)
		assert.Error(t, err)
	})
}
