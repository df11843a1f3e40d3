package sqlgrammar

import (
	"testing"

	"github.com/stretchr/testify/require"
	"smfdb/internal/ast"
)

func TestParseCreateTable(t *testing.T) {
	stmt, err := Parse("CREATE TABLE g(id INT, score FLOAT, name CHAR(8))")
	require.NoError(t, err)
	ct, ok := stmt.(*ast.CreateTable)
	require.True(t, ok)
	require.Equal(t, "g", ct.Table)
	require.Len(t, ct.Cols, 3)
	require.Equal(t, "CHAR", ct.Cols[2].Type.Name)
	require.Equal(t, 8, ct.Cols[2].Type.Len)
}

func TestParseCreateIndexNoOn(t *testing.T) {
	stmt, err := Parse("CREATE INDEX g(score)")
	require.NoError(t, err)
	ci, ok := stmt.(*ast.CreateIndex)
	require.True(t, ok)
	require.Equal(t, "g", ci.Table)
	require.Equal(t, []string{"score"}, ci.Cols)
}

func TestParseSelectWhereOrderBy(t *testing.T) {
	stmt, err := Parse("SELECT name FROM g WHERE score=85.0 ORDER BY name")
	require.NoError(t, err)
	sel, ok := stmt.(*ast.Select)
	require.True(t, ok)
	require.Equal(t, []string{"g"}, sel.Tables)
	require.Len(t, sel.Where, 1)
	require.Equal(t, ast.OpEq, sel.Where[0].Op)
	require.NotNil(t, sel.OrderBy)
	require.Equal(t, "name", sel.OrderBy.Col)
}

func TestParseUpdateWithAddExpr(t *testing.T) {
	stmt, err := Parse("UPDATE g SET score=score+5 WHERE id=2")
	require.NoError(t, err)
	upd, ok := stmt.(*ast.Update)
	require.True(t, ok)
	require.Len(t, upd.Set, 1)
	add, ok := upd.Set[0].Val.(ast.AddExpr)
	require.True(t, ok)
	require.Equal(t, "score", add.Col.Col)
}

func TestParseAggregateMaxAndStaticCheckpoint(t *testing.T) {
	stmt, err := Parse("SELECT MAX(score) FROM g")
	require.NoError(t, err)
	sel := stmt.(*ast.Select)
	require.Equal(t, ast.AggMax, sel.Items[0].Agg)

	stmt2, err := Parse("CREATE STATIC_CHECKPOINT")
	require.NoError(t, err)
	_, ok := stmt2.(*ast.StaticCheckpoint)
	require.True(t, ok)
}

func TestParseLoadInto(t *testing.T) {
	stmt, err := Parse(`LOAD "data.csv" INTO g`)
	require.NoError(t, err)
	ld, ok := stmt.(*ast.Load)
	require.True(t, ok)
	require.Equal(t, "data.csv", ld.File)
	require.Equal(t, "g", ld.Table)
}

func TestParseCountStar(t *testing.T) {
	stmt, err := Parse("SELECT COUNT(*) FROM g")
	require.NoError(t, err)
	sel := stmt.(*ast.Select)
	require.Equal(t, ast.AggCount, sel.Items[0].Agg)
}
