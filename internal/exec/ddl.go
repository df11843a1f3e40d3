package exec

import (
	"fmt"
	"strings"

	"smfdb/internal/catalog"
	"smfdb/internal/dbtype"
	"smfdb/internal/plan"
)

// DDL executes a utility/DDL node (CREATE/DROP TABLE, CREATE/DROP INDEX,
// DESC, SHOW TABLES/INDEX, LOAD, STATIC_CHECKPOINT, SET). DDL statements
// auto-commit per §13: the caller never enrolls a DDL node in the enclosing
// transaction's undo set.
type DDL struct {
	db   *catalog.Database
	node *plan.Node

	output string
	done   bool
}

func NewDDL(db *catalog.Database, node *plan.Node) *DDL {
	return &DDL{db: db, node: node}
}

// Output is the rendered result text of a DESC/SHOW statement; empty for
// pure schema-mutation statements.
func (d *DDL) Output() string { return d.output }

func (d *DDL) Cols() []catalog.ColMeta { return nil }
func (d *DDL) TupleLen() int           { return 0 }
func (d *DDL) RID() Rid                { return Rid{} }
func (d *DDL) Current() []byte         { return nil }
func (d *DDL) IsEnd() bool             { return d.done }
func (d *DDL) NextTuple() error        { d.done = true; return nil }

func (d *DDL) BeginTuple() error {
	d.done = false
	var err error
	switch d.node.DDLKind {
	case plan.DDLCreateTable:
		err = d.createTable()
	case plan.DDLDropTable:
		err = d.db.DropTable(d.node.Table)
	case plan.DDLCreateIndex:
		err = d.createIndex()
	case plan.DDLDropIndex:
		err = d.dropIndex()
	case plan.DDLDesc:
		err = d.desc()
	case plan.DDLShowTables:
		d.showTables()
	case plan.DDLShowIndex:
		err = d.showIndex()
	case plan.DDLLoad, plan.DDLStaticCheckpoint, plan.DDLSetOption:
		// no operation here. The engine's execDDL only flushes the open heap
		// and index files and saves the catalog afterwards: no file is
		// loaded, no checkpoint record is written and no session option
		// changes.
	default:
		err = &dbtype.InternalError{Msg: "unhandled DDL kind"}
	}
	d.done = true
	return err
}

func (d *DDL) createTable() error {
	tab := catalog.NewTabMeta(d.node.Table)
	for _, c := range d.node.DDLCols {
		tab.AddColumn(c.Name, c.Kind, c.Len)
	}
	return d.db.CreateTable(tab)
}

func (d *DDL) createIndex() error {
	tab, err := d.db.Table(d.node.Table)
	if err != nil {
		return err
	}
	if _, exists := tab.IndexExact(d.node.DDLIndexOn); exists {
		return &dbtype.IndexExistsError{Table: d.node.Table, Cols: d.node.DDLIndexOn}
	}
	cols := make([]catalog.ColMeta, 0, len(d.node.DDLIndexOn))
	for _, name := range d.node.DDLIndexOn {
		c, ok := tab.Column(name)
		if !ok {
			return &dbtype.ColumnNotFoundError{Table: d.node.Table, Column: name}
		}
		cols = append(cols, c)
	}
	tab.Indexes = append(tab.Indexes, catalog.IndexMeta{TabName: d.node.Table, Cols: cols})
	return nil
}

func (d *DDL) dropIndex() error {
	tab, err := d.db.Table(d.node.Table)
	if err != nil {
		return err
	}
	idx, ok := tab.IndexExact(d.node.DDLIndexOn)
	if !ok {
		return &dbtype.IndexNotFoundError{Table: d.node.Table, Cols: d.node.DDLIndexOn}
	}
	out := tab.Indexes[:0]
	for i := range tab.Indexes {
		if &tab.Indexes[i] != idx {
			out = append(out, tab.Indexes[i])
		}
	}
	tab.Indexes = out
	return nil
}

func (d *DDL) desc() error {
	tab, err := d.db.Table(d.node.Table)
	if err != nil {
		return err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-12s %-8s %-6s %-6s\n", "Field", "Type", "Len", "Offset")
	for _, c := range tab.Cols {
		fmt.Fprintf(&b, "%-12s %-8s %-6d %-6d\n", c.Name, c.Kind.String(), c.Len, c.Offset)
	}
	d.output = b.String()
	return nil
}

func (d *DDL) showTables() {
	var names []string
	for name := range d.db.Tables {
		names = append(names, name)
	}
	d.output = strings.Join(names, "\n")
}

func (d *DDL) showIndex() error {
	tab, err := d.db.Table(d.node.Table)
	if err != nil {
		return err
	}
	var b strings.Builder
	for _, idx := range tab.Indexes {
		var cols []string
		for _, c := range idx.Cols {
			cols = append(cols, c.Name)
		}
		fmt.Fprintf(&b, "%s(%s)\n", tab.Name, strings.Join(cols, ","))
	}
	d.output = b.String()
	return nil
}
