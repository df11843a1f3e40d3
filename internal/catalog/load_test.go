package catalog

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"smfdb/internal/dbtype"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	db := NewDatabase("testdb")
	g := NewTabMeta("g")
	g.AddColumn("id", dbtype.KindInt32, 4)
	g.AddColumn("score", dbtype.KindFloat32, 4)
	g.AddColumn("name", dbtype.KindFixedStr, 8)
	g.Indexes = append(g.Indexes, IndexMeta{TabName: "g", Cols: []ColMeta{g.Cols[1]}})
	require.NoError(t, db.CreateTable(g))

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, db))

	got, err := Load(&buf)
	require.NoError(t, err)
	require.Equal(t, "testdb", got.Name)

	tab, err := got.Table("g")
	require.NoError(t, err)
	require.Len(t, tab.Cols, 3)
	require.Equal(t, 8, tab.Cols[2].Offset)
	require.Len(t, tab.Indexes, 1)
	require.Equal(t, "score", tab.Indexes[0].Cols[0].Name)
}

func TestDropTableUnknown(t *testing.T) {
	db := NewDatabase("d")
	err := db.DropTable("missing")
	require.Error(t, err)
	var notFound *dbtype.TableNotFoundError
	require.ErrorAs(t, err, &notFound)
}
