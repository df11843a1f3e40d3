// Package translate assembles an executor operator tree from a resolved
// plan.Node DAG (C7), binding each scan/DML node to the live heap/index
// files, the active transaction and the shared lock/log managers, per
// original_source/src/portal.h's plan-to-executor assembly.
package translate

import (
	"smfdb/internal/catalog"
	"smfdb/internal/dbtype"
	"smfdb/internal/exec"
	"smfdb/internal/lock"
	"smfdb/internal/plan"
	"smfdb/internal/storage"
	"smfdb/internal/txn"
	"smfdb/internal/wal"
)

// Tables owns the open heap/index files for one database, keyed by table
// and index file name, so the translator never re-opens a file mid-query.
type Tables struct {
	Heaps   map[string]*storage.HeapFile
	Indexes map[string]*storage.Index // keyed by IndexMeta.IndexFileName()
}

func NewTables() *Tables {
	return &Tables{Heaps: map[string]*storage.HeapFile{}, Indexes: map[string]*storage.Index{}}
}

func (t *Tables) indexSetFor(tab *catalog.TabMeta) exec.IndexSet {
	set := exec.IndexSet{}
	for i := range tab.Indexes {
		idx := &tab.Indexes[i]
		if ix, ok := t.Indexes[idx.IndexFileName()]; ok {
			set[idx.IndexFileName()] = ix
		}
	}
	return set
}

// Translator turns plan nodes into operators against one open transaction.
type Translator struct {
	Tables *Tables
	Locks  *lock.Manager
	Log    *wal.Manager
	Txn    *txn.Txn
}

func New(tables *Tables, locks *lock.Manager, log *wal.Manager, t *txn.Txn) *Translator {
	return &Translator{Tables: tables, Locks: locks, Log: log, Txn: t}
}

// subRunner implements exec.SubRunner by building the subquery's plan node
// into an operator and pulling it to completion, per §4.6.3's "materialise
// RHS from ... scalar subquery (pull until end) ... IN-subquery
// (scan-and-match)". It holds the same open tables/locks/txn as its
// Translator, since a subquery shares its outer statement's transaction.
type subRunner struct {
	tr *Translator
}

func (r *subRunner) Run(n *plan.Node, kind dbtype.Kind, length int) ([]dbtype.Value, error) {
	op, err := r.tr.Build(n)
	if err != nil {
		return nil, err
	}
	if err := op.BeginTuple(); err != nil {
		return nil, err
	}
	var out []dbtype.Value
	for !op.IsEnd() {
		rec := op.Current()
		out = append(out, dbtype.Decode(kind, length, rec[:length]))
		if err := op.NextTuple(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Build recursively translates a plan node into its operator. DDL nodes have
// no operator here: Build returns an InternalError for them, and the caller
// runs them through exec.NewDDL instead.
func (tr *Translator) Build(n *plan.Node) (exec.Operator, error) {
	switch n.Kind {
	case plan.NodeSeqScan:
		heap, err := tr.heapFor(n.Table)
		if err != nil {
			return nil, err
		}
		return exec.NewSeqScan(heap, n.TabMeta, n.Conds, n.GapMode, tr.Locks, tr.Txn, &subRunner{tr: tr})

	case plan.NodeIndexScan:
		heap, err := tr.heapFor(n.Table)
		if err != nil {
			return nil, err
		}
		idx, ok := tr.Tables.Indexes[n.Index.IndexFileName()]
		if !ok {
			return nil, &dbtype.IndexNotFoundError{Table: n.Table, Cols: colNames(n.Index)}
		}
		return exec.NewIndexScan(heap, idx, n.TabMeta, n.Conds, n.Asc, n.GapMode, tr.Locks, tr.Txn, &subRunner{tr: tr})

	case plan.NodeNestedLoopJoin:
		outer, err := tr.Build(n.Children[0])
		if err != nil {
			return nil, err
		}
		inner, err := tr.Build(n.Children[1])
		if err != nil {
			return nil, err
		}
		return exec.NewNestedLoopJoin(outer, inner, n.JoinCond, &subRunner{tr: tr}), nil

	case plan.NodeSortMergeJoin:
		outer, err := tr.Build(n.Children[0])
		if err != nil {
			return nil, err
		}
		inner, err := tr.Build(n.Children[1])
		if err != nil {
			return nil, err
		}
		return exec.NewSortMergeJoin(outer, inner, n.JoinCond)

	case plan.NodeSort:
		child, err := tr.Build(n.Children[0])
		if err != nil {
			return nil, err
		}
		return exec.NewSort(child, n.SortCol, n.SortAsc)

	case plan.NodeAggregate:
		child, err := tr.Build(n.Children[0])
		if err != nil {
			return nil, err
		}
		return exec.NewAggregate(child, n.GroupBy, n.Proj, n.Having, &subRunner{tr: tr}), nil

	case plan.NodeProjection:
		child, err := tr.Build(n.Children[0])
		if err != nil {
			return nil, err
		}
		return exec.NewProjection(child, n.Proj, n.Limit), nil

	case plan.NodeInsert:
		indexes := tr.Tables.indexSetFor(n.TabMeta)
		heap, err := tr.heapFor(n.Table)
		if err != nil {
			return nil, err
		}
		return exec.NewInsert(heap, indexes, n.TabMeta, n.InsertValues, tr.Locks, tr.Log, tr.Txn), nil

	case plan.NodeUpdate:
		child, err := tr.Build(n.Children[0])
		if err != nil {
			return nil, err
		}
		heap, err := tr.heapFor(n.Table)
		if err != nil {
			return nil, err
		}
		indexes := tr.Tables.indexSetFor(n.TabMeta)
		return exec.NewUpdate(child, heap, indexes, n.TabMeta, n.UpdateSet, n.SetIndexKey, tr.Locks, tr.Log, tr.Txn), nil

	case plan.NodeDelete:
		child, err := tr.Build(n.Children[0])
		if err != nil {
			return nil, err
		}
		heap, err := tr.heapFor(n.Table)
		if err != nil {
			return nil, err
		}
		indexes := tr.Tables.indexSetFor(n.TabMeta)
		return exec.NewDelete(child, heap, indexes, n.TabMeta, tr.Locks, tr.Log, tr.Txn), nil

	default:
		return nil, &dbtype.InternalError{Msg: "translate: node kind has no operator (DDL nodes run via exec.NewDDL directly)"}
	}
}

func (tr *Translator) heapFor(table string) (*storage.HeapFile, error) {
	h, ok := tr.Tables.Heaps[table]
	if !ok {
		return nil, &dbtype.TableNotFoundError{Table: table}
	}
	return h, nil
}

func colNames(idx *catalog.IndexMeta) []string {
	names := make([]string, len(idx.Cols))
	for i, c := range idx.Cols {
		names[i] = c.Name
	}
	return names
}
