package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smfdb/internal/catalog"
	"smfdb/internal/dbtype"
	"smfdb/internal/plan"
)

func TestDDLCreateTableThenDesc(t *testing.T) {
	db := catalog.NewDatabase("test")
	createNode := &plan.Node{
		Kind:    plan.NodeDDL,
		DDLKind: plan.DDLCreateTable,
		Table:   "widgets",
		DDLCols: []catalog.ColMeta{
			{Name: "id", Kind: dbtype.KindInt32, Len: 4},
			{Name: "name", Kind: dbtype.KindFixedStr, Len: 16},
		},
	}
	require.NoError(t, NewDDL(db, createNode).BeginTuple())

	tab, err := db.Table("widgets")
	require.NoError(t, err)
	assert.Len(t, tab.Cols, 2)
	assert.Equal(t, 4, tab.Cols[1].Offset)

	descNode := &plan.Node{Kind: plan.NodeDDL, DDLKind: plan.DDLDesc, Table: "widgets"}
	d := NewDDL(db, descNode)
	require.NoError(t, d.BeginTuple())
	assert.Contains(t, d.Output(), "name")
}

func TestDDLCreateIndexRejectsDuplicate(t *testing.T) {
	db := catalog.NewDatabase("test")
	tab := catalog.NewTabMeta("widgets")
	tab.AddColumn("id", dbtype.KindInt32, 4)
	require.NoError(t, db.CreateTable(tab))

	node := &plan.Node{Kind: plan.NodeDDL, DDLKind: plan.DDLCreateIndex, Table: "widgets", DDLIndexOn: []string{"id"}}
	require.NoError(t, NewDDL(db, node).BeginTuple())
	assert.Len(t, tab.Indexes, 1)

	err := NewDDL(db, node).BeginTuple()
	assert.Error(t, err)
}

func TestDDLDropTable(t *testing.T) {
	db := catalog.NewDatabase("test")
	tab := catalog.NewTabMeta("widgets")
	require.NoError(t, db.CreateTable(tab))

	node := &plan.Node{Kind: plan.NodeDDL, DDLKind: plan.DDLDropTable, Table: "widgets"}
	require.NoError(t, NewDDL(db, node).BeginTuple())

	_, err := db.Table("widgets")
	assert.Error(t, err)
}
