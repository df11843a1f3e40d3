// Package engine wires the front end, analyzer, translator and transaction
// manager into one statement-execution entry point, dispatching by
// statement shape the way original_source/src/portal.h dispatches by
// portalTag (PORTAL_ONE_SELECT / PORTAL_DML_WITHOUT_SELECT /
// PORTAL_CMD_UTILITY), and renders SELECT results as the fixed-width text
// grid described in §6.
package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"smfdb/internal/analyzer"
	"smfdb/internal/ast"
	"smfdb/internal/catalog"
	"smfdb/internal/config"
	"smfdb/internal/dbtype"
	"smfdb/internal/exec"
	"smfdb/internal/lock"
	"smfdb/internal/plan"
	"smfdb/internal/sqlgrammar"
	"smfdb/internal/storage"
	"smfdb/internal/translate"
	"smfdb/internal/txn"
	"smfdb/internal/wal"
)

// Engine is the top-level database handle: one catalog, one set of open
// table/index files, one lock manager, one WAL, shared across sessions.
type Engine struct {
	DB          *catalog.Database
	Tables      *translate.Tables
	Locks       *lock.Manager
	Log         *wal.Manager
	Txns        *txn.Manager
	Cache       *PlanCache
	Cfg         config.Config
	DataDir     string // base directory for table/index files; "" means the working directory
	CatalogPath string // where Save persists db on DDL; "" disables catalog persistence
}

func New(db *catalog.Database, log *wal.Manager, cfg config.Config) *Engine {
	locks := lock.NewManager()
	return &Engine{
		DB:      db,
		Tables:  translate.NewTables(),
		Locks:   locks,
		Log:     log,
		Txns:    txn.NewManager(locks, log),
		Cache:   NewPlanCache(256),
		Cfg:     cfg,
		DataDir: cfg.DataDir,
	}
}

// Open builds an Engine the way New does, then reopens every table already
// present in db's catalog — heap file and every index file — so a process
// that restarts after a commit finds that transaction's writes still there
// (§8 Testable Property 3). catalogPath, if non-empty, is where DDL
// persists the catalog back out so a later Open sees the new schema too.
func Open(db *catalog.Database, log *wal.Manager, cfg config.Config, catalogPath string) (*Engine, error) {
	e := New(db, log, cfg)
	e.CatalogPath = catalogPath
	for _, tab := range db.Tables {
		h, err := storage.OpenHeap(e.tablePath(tab.Name), tab.RecordLen())
		if err != nil {
			return nil, err
		}
		e.Tables.Heaps[tab.Name] = h
		for i := range tab.Indexes {
			idx := &tab.Indexes[i]
			ix, err := storage.OpenIndex(e.dataPath(idx.IndexFileName()), idx)
			if err != nil {
				return nil, err
			}
			e.Tables.Indexes[idx.IndexFileName()] = ix
		}
	}
	return e, nil
}

func (e *Engine) dataPath(name string) string {
	if e.DataDir == "" {
		return name
	}
	return filepath.Join(e.DataDir, name)
}

func (e *Engine) tablePath(table string) string {
	return e.dataPath(table + ".tbl")
}

// flushAll persists every open heap and index file to disk. Called after
// commit and after DDL so a crash immediately afterward cannot lose data
// the caller was told succeeded.
func (e *Engine) flushAll() error {
	for _, h := range e.Tables.Heaps {
		if err := h.Flush(); err != nil {
			return err
		}
	}
	for _, ix := range e.Tables.Indexes {
		if err := ix.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// saveCatalog persists the current schema to CatalogPath, if set.
func (e *Engine) saveCatalog() error {
	if e.CatalogPath == "" {
		return nil
	}
	f, err := os.Create(e.CatalogPath)
	if err != nil {
		return &dbtype.IOError{Op: "engine.saveCatalog", Err: err}
	}
	defer f.Close()
	return catalog.Save(f, e.DB)
}

// Session is one client connection's state: the current transaction (nil
// outside an explicit BEGIN) and per-session optimizer knobs.
type Session struct {
	Txn              *txn.Txn
	EnableNestloop   bool
	EnableSortmerge  bool
	EnableOutputFile bool
}

func (e *Engine) NewSession() *Session {
	return &Session{
		EnableNestloop:   e.Cfg.EnableNestloop,
		EnableSortmerge:  e.Cfg.EnableSortmerge,
		EnableOutputFile: e.Cfg.EnableOutputFile,
	}
}

// Result is one statement's outcome: either tabular rows (SELECT), a
// row-count (DML), or free text (DESC/SHOW/errors-as-messages).
type Result struct {
	Columns []string
	Rows    [][]string
	Message string
}

// heapUndoer adapts the storage layer to txn.Undoer, restoring a
// WriteRecord's before-image to the heap on abort.
type heapUndoer struct {
	heaps map[string]*storage.HeapFile
}

func (u heapUndoer) Undo(w txn.WriteRecord) error {
	h, ok := u.heaps[w.Table]
	if !ok {
		return &dbtype.TableNotFoundError{Table: w.Table}
	}
	switch w.Kind {
	case txn.WriteInsert:
		h.Delete(w.Rid)
	case txn.WriteUpdate, txn.WriteDelete:
		h.InsertAt(w.Rid, w.Before)
	}
	return nil
}

// Execute parses, analyzes, plans and runs sql, auto-beginning and
// auto-committing a transaction when sess has none open (statement-level
// atomicity), per §4.5. BEGIN/COMMIT/ABORT route directly to the
// transaction manager, bypassing the analyzer entirely, since they are not
// plannable statements.
func (e *Engine) Execute(sess *Session, sql string) (*Result, error) {
	stmt, err := sqlgrammar.Parse(sql)
	if err != nil {
		return nil, err
	}

	switch stmt.(type) {
	case *ast.Begin:
		return e.execBegin(sess)
	case *ast.Commit:
		return e.execCommit(sess)
	case *ast.Abort:
		return e.execAbort(sess)
	}

	node, cached := e.Cache.Get(sql)
	if !cached {
		az := analyzer.New(e.DB)
		node, err = az.Analyze(stmt)
		if err != nil {
			return nil, err
		}
		e.Cache.Put(sql, node)
	}

	if node.Kind == plan.NodeDDL {
		return e.execDDL(node)
	}

	autoTxn := sess.Txn == nil
	if autoTxn {
		t, err := e.Txns.Begin()
		if err != nil {
			return nil, err
		}
		sess.Txn = t
	}

	res, err := e.execPlan(sess, node)
	if err != nil {
		if autoTxn {
			_ = e.Txns.Abort(sess.Txn, heapUndoer{heaps: e.Tables.Heaps})
			sess.Txn = nil
		}
		return nil, err
	}
	if autoTxn {
		if cerr := e.Txns.Commit(sess.Txn); cerr != nil {
			sess.Txn = nil
			return nil, cerr
		}
		sess.Txn = nil
		if ferr := e.flushAll(); ferr != nil {
			return nil, ferr
		}
	}
	return res, nil
}

func (e *Engine) execBegin(sess *Session) (*Result, error) {
	if sess.Txn != nil {
		return nil, &dbtype.InternalError{Msg: "BEGIN issued inside an open transaction"}
	}
	t, err := e.Txns.Begin()
	if err != nil {
		return nil, err
	}
	sess.Txn = t
	return &Result{Message: "transaction started"}, nil
}

func (e *Engine) execCommit(sess *Session) (*Result, error) {
	if sess.Txn == nil {
		return nil, &dbtype.InternalError{Msg: "COMMIT issued with no open transaction"}
	}
	err := e.Txns.Commit(sess.Txn)
	sess.Txn = nil
	if err != nil {
		return nil, err
	}
	if err := e.flushAll(); err != nil {
		return nil, err
	}
	return &Result{Message: "commit"}, nil
}

func (e *Engine) execAbort(sess *Session) (*Result, error) {
	if sess.Txn == nil {
		return nil, &dbtype.InternalError{Msg: "ABORT issued with no open transaction"}
	}
	err := e.Txns.Abort(sess.Txn, heapUndoer{heaps: e.Tables.Heaps})
	sess.Txn = nil
	if err != nil {
		return nil, err
	}
	return &Result{Message: "abort"}, nil
}

// execDDL runs a DDL plan node outside any enclosing transaction's undo
// scope: DDL auto-commits immediately and unconditionally, per §13.
func (e *Engine) execDDL(node *plan.Node) (*Result, error) {
	d := exec.NewDDL(e.DB, node)
	if err := d.BeginTuple(); err != nil {
		return nil, err
	}
	if err := e.syncTablesAfterDDL(node); err != nil {
		return nil, err
	}
	if err := e.flushAll(); err != nil {
		return nil, err
	}
	if err := e.saveCatalog(); err != nil {
		return nil, err
	}
	return &Result{Message: d.Output()}, nil
}

// syncTablesAfterDDL keeps Tables' open heap/index files in step with
// catalog mutations from CreateTable/DropTable/CreateIndex/DropIndex.
func (e *Engine) syncTablesAfterDDL(node *plan.Node) error {
	switch node.DDLKind {
	case plan.DDLCreateTable:
		tab, err := e.DB.Table(node.Table)
		if err != nil {
			return err
		}
		h, err := storage.OpenHeap(e.tablePath(node.Table), tab.RecordLen())
		if err != nil {
			return err
		}
		e.Tables.Heaps[node.Table] = h
	case plan.DDLDropTable:
		delete(e.Tables.Heaps, node.Table)
	case plan.DDLCreateIndex:
		tab, err := e.DB.Table(node.Table)
		if err != nil {
			return err
		}
		idx, ok := tab.IndexExact(node.DDLIndexOn)
		if !ok {
			return &dbtype.IndexNotFoundError{Table: node.Table, Cols: node.DDLIndexOn}
		}
		ix, err := storage.OpenIndex(e.dataPath(idx.IndexFileName()), idx)
		if err != nil {
			return err
		}
		if h, ok := e.Tables.Heaps[node.Table]; ok {
			h.Scan(func(rid storage.Rid, rec []byte) bool {
				key := make([]byte, 0, idx.ColTotLen())
				for _, c := range idx.Cols {
					key = append(key, rec[c.Offset:c.Offset+c.Len]...)
				}
				ix.Insert(key, rid)
				return true
			})
		}
		e.Tables.Indexes[idx.IndexFileName()] = ix
	case plan.DDLDropIndex:
		im := catalog.IndexMeta{TabName: node.Table}
		for _, c := range node.DDLIndexOn {
			im.Cols = append(im.Cols, catalog.ColMeta{Name: c})
		}
		delete(e.Tables.Indexes, im.IndexFileName())
	}
	return nil
}

func (e *Engine) execPlan(sess *Session, node *plan.Node) (*Result, error) {
	tr := translate.New(e.Tables, e.Locks, e.Log, sess.Txn)
	op, err := tr.Build(node)
	if err != nil {
		return nil, err
	}

	switch node.Kind {
	case plan.NodeInsert, plan.NodeUpdate, plan.NodeDelete:
		return runDML(op)
	default:
		return runSelect(op)
	}
}

func runDML(op exec.Operator) (*Result, error) {
	if err := op.BeginTuple(); err != nil {
		return nil, err
	}
	n := 0
	for !op.IsEnd() {
		n++
		if err := op.NextTuple(); err != nil {
			return nil, err
		}
	}
	return &Result{Message: fmt.Sprintf("%d row(s) affected", n)}, nil
}

func runSelect(op exec.Operator) (*Result, error) {
	if err := op.BeginTuple(); err != nil {
		return nil, err
	}
	cols := op.Cols()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	res := &Result{Columns: names}
	for !op.IsEnd() {
		rec := op.Current()
		row := make([]string, len(cols))
		off := 0
		for i, c := range cols {
			v := dbtype.Decode(c.Kind, c.Len, rec[off:off+c.Len])
			row[i] = dbtype.FormatValue(v)
			off += c.Len
		}
		res.Rows = append(res.Rows, row)
		if err := op.NextTuple(); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Render formats a Result as the fixed-width text grid §6 specifies for
// SELECT output: a header row, a separator, then one row per tuple.
func (r *Result) Render() string {
	if r.Message != "" && r.Columns == nil {
		return r.Message
	}
	widths := make([]int, len(r.Columns))
	for i, c := range r.Columns {
		widths[i] = len(c)
	}
	for _, row := range r.Rows {
		for i, v := range row {
			if len(v) > widths[i] {
				widths[i] = len(v)
			}
		}
	}
	var b strings.Builder
	writeRow(&b, r.Columns, widths)
	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	writeRow(&b, sep, widths)
	for _, row := range r.Rows {
		writeRow(&b, row, widths)
	}
	return b.String()
}

func writeRow(b *strings.Builder, cells []string, widths []int) {
	for i, c := range cells {
		fmt.Fprintf(b, "%-*s", widths[i]+2, c)
	}
	b.WriteString("\n")
}
