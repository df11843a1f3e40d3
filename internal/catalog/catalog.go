// Package catalog holds the engine's persistent schema metadata: databases,
// tables, columns and indexes, with the dense byte offsets executors use to
// slice records without re-deriving layout at scan time.
package catalog

import (
	"fmt"

	"smfdb/internal/dbtype"
)

// ColMeta describes one column of one table: its declared type, width and
// fixed offset within the table's packed record layout.
type ColMeta struct {
	TabName string
	Name    string
	Kind    dbtype.Kind
	Len     int
	Offset  int
}

// IndexMeta describes a composite B+-tree index: an ordered list of columns
// whose concatenated byte images form the index key.
type IndexMeta struct {
	TabName string
	Cols    []ColMeta // in declared (key) order
}

// ColTotLen is the total byte width of the composite key.
func (im *IndexMeta) ColTotLen() int {
	n := 0
	for _, c := range im.Cols {
		n += c.Len
	}
	return n
}

func (im *IndexMeta) ColNum() int { return len(im.Cols) }

// ColOffset returns the index-key offset of colName and its ColMeta, or
// false if colName is not part of this index's prefix.
func (im *IndexMeta) ColOffset(colName string) (int, ColMeta, bool) {
	off := 0
	for _, c := range im.Cols {
		if c.Name == colName {
			return off, c, true
		}
		off += c.Len
	}
	return 0, ColMeta{}, false
}

// ColOffsetIndex returns colName's position within the index's column list
// (not its byte offset) — the unit the predicate manager buckets conditions
// by.
func (im *IndexMeta) ColOffsetIndex(colName string) (int, ColMeta, bool) {
	for pos, c := range im.Cols {
		if c.Name == colName {
			return pos, c, true
		}
	}
	return 0, ColMeta{}, false
}

// IndexFileName is the on-disk name of the index's B+-tree file, derived
// from the table name and participating column names, matching the
// catalog's naming of multi-column indexes.
func (im *IndexMeta) IndexFileName() string {
	name := im.TabName
	for _, c := range im.Cols {
		name += "_" + c.Name
	}
	return name + ".idx"
}

// TabMeta describes one table: its columns (in record order), the record
// width, and the indexes defined over it.
type TabMeta struct {
	Name    string
	Cols    []ColMeta
	ColMap  map[string]int // column name -> index into Cols
	Indexes []IndexMeta
}

func NewTabMeta(name string) *TabMeta {
	return &TabMeta{Name: name, ColMap: map[string]int{}}
}

// RecordLen is the fixed width of one packed record: the sum of column
// lengths.
func (t *TabMeta) RecordLen() int {
	n := 0
	for _, c := range t.Cols {
		n += c.Len
	}
	return n
}

// AddColumn appends a column, computing its dense offset from the columns
// already present.
func (t *TabMeta) AddColumn(name string, kind dbtype.Kind, length int) ColMeta {
	col := ColMeta{TabName: t.Name, Name: name, Kind: kind, Len: length, Offset: t.RecordLen()}
	t.ColMap[name] = len(t.Cols)
	t.Cols = append(t.Cols, col)
	return col
}

// Column looks up a column by name.
func (t *TabMeta) Column(name string) (ColMeta, bool) {
	i, ok := t.ColMap[name]
	if !ok {
		return ColMeta{}, false
	}
	return t.Cols[i], true
}

// IndexOn returns the index whose key prefix starts with cols, in order, if
// one exists.
func (t *TabMeta) IndexOn(cols []string) (*IndexMeta, bool) {
	for i := range t.Indexes {
		idx := &t.Indexes[i]
		if len(idx.Cols) < len(cols) {
			continue
		}
		match := true
		for j, c := range cols {
			if idx.Cols[j].Name != c {
				match = false
				break
			}
		}
		if match {
			return idx, true
		}
	}
	return nil, false
}

// IndexExact returns the index whose key is exactly cols, in order.
func (t *TabMeta) IndexExact(cols []string) (*IndexMeta, bool) {
	for i := range t.Indexes {
		idx := &t.Indexes[i]
		if len(idx.Cols) != len(cols) {
			continue
		}
		match := true
		for j, c := range cols {
			if idx.Cols[j].Name != c {
				match = false
				break
			}
		}
		if match {
			return idx, true
		}
	}
	return nil, false
}

// Database is the top-level catalog: a named collection of tables.
type Database struct {
	Name   string
	Tables map[string]*TabMeta
}

func NewDatabase(name string) *Database {
	return &Database{Name: name, Tables: map[string]*TabMeta{}}
}

func (d *Database) Table(name string) (*TabMeta, error) {
	t, ok := d.Tables[name]
	if !ok {
		return nil, &dbtype.TableNotFoundError{Table: name}
	}
	return t, nil
}

func (d *Database) CreateTable(t *TabMeta) error {
	if _, exists := d.Tables[t.Name]; exists {
		return fmt.Errorf("create table %s: %w", t.Name, &dbtype.InternalError{Msg: "table already exists"})
	}
	d.Tables[t.Name] = t
	return nil
}

func (d *Database) DropTable(name string) error {
	if _, ok := d.Tables[name]; !ok {
		return &dbtype.TableNotFoundError{Table: name}
	}
	delete(d.Tables, name)
	return nil
}
