// Package mysqlbridge replays a table's schema and rows against a live
// MySQL server, mirroring the teacher's internal/apply.Applier connect /
// preflight / execute shape but for one-way schema+data export rather than
// migration apply.
package mysqlbridge

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/format"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"

	"smfdb/internal/catalog"
	"smfdb/internal/dbtype"
	"smfdb/internal/storage"
)

// Options configures a Bridge's connection to the target MySQL server.
type Options struct {
	DSN     string
	Timeout time.Duration
}

// Bridge holds a live MySQL connection and validates generated statements
// with the TiDB parser before sending them, the way Applier.Connect and
// Applier.splitStatementsUsingTiDBParser do for migration SQL.
type Bridge struct {
	options Options
	db      *sql.DB
	parser  *parser.Parser
}

func New(options Options) *Bridge {
	if options.Timeout == 0 {
		options.Timeout = 30 * time.Second
	}
	return &Bridge{options: options, parser: parser.New()}
}

// Connect opens and pings the target database.
func (b *Bridge) Connect(ctx context.Context) error {
	db, err := sql.Open("mysql", b.options.DSN)
	if err != nil {
		return fmt.Errorf("mysqlbridge: open: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, b.options.Timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("mysqlbridge: ping: %w", err)
	}
	b.db = db
	return nil
}

func (b *Bridge) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

// BuildCreateAndInserts renders a CREATE TABLE and one INSERT per row of
// tab's heap file, validating each statement through the TiDB parser before
// returning it so a malformed statement is caught before it ever reaches
// the wire.
func (b *Bridge) BuildCreateAndInserts(tab *catalog.TabMeta, heap *storage.HeapFile) ([]string, error) {
	stmts := make([]string, 0, 1)
	create, err := b.validate(createTableSQL(tab))
	if err != nil {
		return nil, fmt.Errorf("mysqlbridge: CREATE TABLE %s: %w", tab.Name, err)
	}
	stmts = append(stmts, create)

	if heap == nil {
		return stmts, nil
	}
	var scanErr error
	heap.Scan(func(rid storage.Rid, rec []byte) bool {
		stmt, err := b.validate(insertSQL(tab, rec))
		if err != nil {
			scanErr = fmt.Errorf("mysqlbridge: INSERT into %s: %w", tab.Name, err)
			return false
		}
		stmts = append(stmts, stmt)
		return true
	})
	if scanErr != nil {
		return nil, scanErr
	}
	return stmts, nil
}

func (b *Bridge) validate(stmt string) (string, error) {
	nodes, _, err := b.parser.Parse(stmt, "", "")
	if err != nil || len(nodes) == 0 {
		return "", fmt.Errorf("parse: %w", err)
	}
	var sb strings.Builder
	ctx := format.NewRestoreCtx(format.DefaultRestoreFlags, &sb)
	if err := nodes[0].Restore(ctx); err != nil {
		return "", fmt.Errorf("restore: %w", err)
	}
	return sb.String(), nil
}

// Replay executes stmts in order inside a single transaction, stopping and
// rolling back on the first failure.
func (b *Bridge) Replay(ctx context.Context, stmts []string) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("mysqlbridge: begin: %w", err)
	}
	for i, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("mysqlbridge: statement %d failed: %w", i+1, err)
		}
	}
	return tx.Commit()
}

func createTableSQL(tab *catalog.TabMeta) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (", tab.Name)
	for i, c := range tab.Cols {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %s", c.Name, mysqlColType(c))
	}
	b.WriteString(")")
	return b.String()
}

func mysqlColType(c catalog.ColMeta) string {
	switch c.Kind {
	case dbtype.KindInt32:
		return "INT"
	case dbtype.KindFloat32:
		return "FLOAT"
	default:
		return fmt.Sprintf("VARCHAR(%d)", c.Len)
	}
}

func insertSQL(tab *catalog.TabMeta, rec []byte) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s VALUES (", tab.Name)
	off := 0
	for i, c := range tab.Cols {
		if i > 0 {
			b.WriteString(", ")
		}
		v := dbtype.Decode(c.Kind, c.Len, rec[off:off+c.Len])
		switch c.Kind {
		case dbtype.KindInt32, dbtype.KindFloat32:
			b.WriteString(dbtype.FormatValue(v))
		default:
			fmt.Fprintf(&b, "'%s'", strings.ReplaceAll(dbtype.FormatValue(v), "'", "''"))
		}
		off += c.Len
	}
	b.WriteString(")")
	return b.String()
}
