package exec

import (
	"smfdb/internal/catalog"
	"smfdb/internal/dbtype"
	"smfdb/internal/lock"
	"smfdb/internal/plan"
	"smfdb/internal/storage"
	"smfdb/internal/txn"
	"smfdb/internal/wal"
)

// IndexSet is every index maintained for a table, keyed by its file name, so
// an Insert/Update/Delete executor can keep all of them in sync.
type IndexSet map[string]*storage.Index

func recordKey(rec []byte, idx *storage.Index) []byte {
	key := make([]byte, 0, idx.Meta.ColTotLen())
	off := 0
	for _, c := range idx.Meta.Cols {
		key = append(key, rec[c.Offset:c.Offset+c.Len]...)
		off += c.Len
	}
	return key
}

func encodeValues(tab *catalog.TabMeta, values []dbtype.Value) []byte {
	rec := make([]byte, tab.RecordLen())
	for i, v := range values {
		c := tab.Cols[i]
		v.Len = c.Len
		v.Init()
		copy(rec[c.Offset:c.Offset+c.Len], v.Raw)
	}
	return rec
}

// Insert appends a row to the heap, maintains every index, logs an Insert
// record and records the write for undo, per §4.6.8. It acquires an X lock
// on the table (row locks don't exist yet for a rid that doesn't exist).
type Insert struct {
	heap    *storage.HeapFile
	indexes IndexSet
	tab     *catalog.TabMeta
	values  []dbtype.Value
	locks   *lock.Manager
	log     *wal.Manager
	t       *txn.Txn

	done bool
	rid  Rid
}

func NewInsert(heap *storage.HeapFile, indexes IndexSet, tab *catalog.TabMeta, values []dbtype.Value, locks *lock.Manager, log *wal.Manager, t *txn.Txn) *Insert {
	return &Insert{heap: heap, indexes: indexes, tab: tab, values: values, locks: locks, log: log, t: t}
}

func (ins *Insert) Cols() []catalog.ColMeta { return ins.tab.Cols }
func (ins *Insert) TupleLen() int           { return ins.tab.RecordLen() }
func (ins *Insert) RID() Rid                { return ins.rid }
func (ins *Insert) IsEnd() bool             { return ins.done }
func (ins *Insert) Current() []byte         { return nil }
func (ins *Insert) NextTuple() error         { ins.done = true; return nil }

func (ins *Insert) BeginTuple() error {
	if err := ins.locks.LockExclusiveOnTable(ins.t.ID, ins.tab.Name); err != nil {
		return err
	}
	rec := encodeValues(ins.tab, ins.values)
	rid := ins.heap.Insert(rec)
	ins.rid = rid

	for _, idx := range ins.indexes {
		idx.Insert(recordKey(rec, idx), rid)
	}

	lsn, err := ins.log.AddLogToBuffer(&wal.Record{
		Type: wal.TypeInsert, TxnID: uint32(ins.t.ID), PrevLSN: ins.t.PrevLSN,
		Value: rec, Rid: rid, Table: ins.tab.Name,
	})
	if err != nil {
		return err
	}
	ins.t.AppendWrite(txn.WriteInsert, ins.tab.Name, rid, nil, lsn)
	ins.done = false
	return nil
}

// Update scans rows matching Where (acquired by the translator's child scan
// under an X gap/row lock), applies Set, rewrites the heap record and
// maintains indexes unless SetIndexKey is false, per §4.6.9.
type Update struct {
	child   Operator
	heap    *storage.HeapFile
	indexes IndexSet
	tab     *catalog.TabMeta
	set     []plan.Assign
	keyed   bool
	locks   *lock.Manager
	log     *wal.Manager
	t       *txn.Txn

	rid   Rid
	atEnd bool
}

func NewUpdate(child Operator, heap *storage.HeapFile, indexes IndexSet, tab *catalog.TabMeta, set []plan.Assign, keyed bool, locks *lock.Manager, log *wal.Manager, t *txn.Txn) *Update {
	return &Update{child: child, heap: heap, indexes: indexes, tab: tab, set: set, keyed: keyed, locks: locks, log: log, t: t}
}

func (u *Update) Cols() []catalog.ColMeta { return u.tab.Cols }
func (u *Update) TupleLen() int           { return u.tab.RecordLen() }
func (u *Update) RID() Rid                { return u.rid }
func (u *Update) Current() []byte         { return nil }
func (u *Update) IsEnd() bool             { return u.atEnd }

func (u *Update) BeginTuple() error {
	if err := u.child.BeginTuple(); err != nil {
		return err
	}
	return u.applyCurrent()
}

func (u *Update) NextTuple() error {
	if u.atEnd {
		return nil
	}
	if err := u.child.NextTuple(); err != nil {
		return err
	}
	return u.applyCurrent()
}

func (u *Update) applyCurrent() error {
	if u.child.IsEnd() {
		u.atEnd = true
		return nil
	}
	rid := u.child.RID()
	if err := u.locks.LockExclusiveOnRow(u.t.ID, u.tab.Name, rid); err != nil {
		return err
	}
	before := append([]byte(nil), u.child.Current()...)
	after := append([]byte(nil), before...)

	for _, a := range u.set {
		c, ok := u.tab.Column(a.Col.Col)
		if !ok {
			continue
		}
		if a.Delta != nil {
			cur := dbtype.Decode(c.Kind, c.Len, after[c.Offset:c.Offset+c.Len])
			delta := *a.Delta
			if c.Kind == dbtype.KindFloat32 && delta.Kind == dbtype.KindInt32 {
				delta.PromoteToFloat()
			}
			var nv dbtype.Value
			if c.Kind == dbtype.KindInt32 {
				nv = dbtype.NewInt(cur.I + delta.I)
			} else {
				nv = dbtype.NewFloat(cur.F + delta.F)
			}
			nv.Len = c.Len
			nv.Init()
			copy(after[c.Offset:c.Offset+c.Len], nv.Raw)
		} else if a.Value != nil {
			v := *a.Value
			v.Len = c.Len
			v.Init()
			copy(after[c.Offset:c.Offset+c.Len], v.Raw)
		}
	}

	u.heap.Update(rid, after)
	if u.keyed {
		for _, idx := range u.indexes {
			idx.Erase(recordKey(before, idx), rid)
			idx.Insert(recordKey(after, idx), rid)
		}
	}

	lsn, err := u.log.AddLogToBuffer(&wal.Record{
		Type: wal.TypeUpdate, TxnID: uint32(u.t.ID), PrevLSN: u.t.PrevLSN,
		OldValue: before, NewValue: after, Rid: rid, Table: u.tab.Name,
	})
	if err != nil {
		return err
	}
	u.t.AppendWrite(txn.WriteUpdate, u.tab.Name, rid, before, lsn)
	u.rid = rid
	return nil
}

// Delete removes rows matching Where from the heap and every index.
type Delete struct {
	child   Operator
	heap    *storage.HeapFile
	indexes IndexSet
	tab     *catalog.TabMeta
	locks   *lock.Manager
	log     *wal.Manager
	t       *txn.Txn

	rid   Rid
	atEnd bool
}

func NewDelete(child Operator, heap *storage.HeapFile, indexes IndexSet, tab *catalog.TabMeta, locks *lock.Manager, log *wal.Manager, t *txn.Txn) *Delete {
	return &Delete{child: child, heap: heap, indexes: indexes, tab: tab, locks: locks, log: log, t: t}
}

func (d *Delete) Cols() []catalog.ColMeta { return d.tab.Cols }
func (d *Delete) TupleLen() int           { return d.tab.RecordLen() }
func (d *Delete) RID() Rid                { return d.rid }
func (d *Delete) Current() []byte         { return nil }
func (d *Delete) IsEnd() bool             { return d.atEnd }

func (d *Delete) BeginTuple() error {
	if err := d.child.BeginTuple(); err != nil {
		return err
	}
	return d.applyCurrent()
}

func (d *Delete) NextTuple() error {
	if d.atEnd {
		return nil
	}
	if err := d.child.NextTuple(); err != nil {
		return err
	}
	return d.applyCurrent()
}

func (d *Delete) applyCurrent() error {
	if d.child.IsEnd() {
		d.atEnd = true
		return nil
	}
	rid := d.child.RID()
	if err := d.locks.LockExclusiveOnRow(d.t.ID, d.tab.Name, rid); err != nil {
		return err
	}
	before := append([]byte(nil), d.child.Current()...)
	d.heap.Delete(rid)
	for _, idx := range d.indexes {
		idx.Erase(recordKey(before, idx), rid)
	}

	lsn, err := d.log.AddLogToBuffer(&wal.Record{
		Type: wal.TypeDelete, TxnID: uint32(d.t.ID), PrevLSN: d.t.PrevLSN,
		Value: before, Rid: rid, Table: d.tab.Name,
	})
	if err != nil {
		return err
	}
	d.t.AppendWrite(txn.WriteDelete, d.tab.Name, rid, before, lsn)
	d.rid = rid
	return nil
}
