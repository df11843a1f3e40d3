package plan

import (
	"smfdb/internal/catalog"
	"smfdb/internal/dbtype"
)

// GapMode tells a scan/DML node which lock strength to request for the
// gaps/rows/table it touches: read-only queries take S locks, DML-driving
// scans take X.
type GapMode int

const (
	GapShared GapMode = iota
	GapExclusive
)

// NodeKind tags the Plan variant, per §3's "immutable variant DAG".
type NodeKind int

const (
	NodeSeqScan NodeKind = iota
	NodeIndexScan
	NodeNestedLoopJoin
	NodeSortMergeJoin
	NodeProjection
	NodeAggregate
	NodeSort
	NodeInsert
	NodeUpdate
	NodeDelete
	NodeDDL
	NodeUtility
)

// DDLKind tags a Utility/DDL node's operation.
type DDLKind int

const (
	DDLCreateTable DDLKind = iota
	DDLDropTable
	DDLCreateIndex
	DDLDropIndex
	DDLDesc
	DDLShowTables
	DDLShowIndex
	DDLLoad
	DDLStaticCheckpoint
	DDLSetOption
)

// Node is one plan tree node. Children are owned by the node (no
// back-pointers, per §9); only the fields relevant to Kind are populated.
type Node struct {
	Kind     NodeKind
	Children []*Node

	// Scan
	Table   string
	TabMeta *catalog.TabMeta
	Index   *catalog.IndexMeta
	Conds   []Condition
	GapMode GapMode
	Asc     bool

	// Join
	JoinCond *Condition

	// Projection
	Proj []ProjItem

	// Aggregate
	GroupBy []TabCol
	Having  []Condition

	// Sort
	SortCol TabCol
	SortAsc bool

	// DML
	InsertValues []dbtype.Value
	UpdateSet    []Assign
	SetIndexKey  bool

	// Utility/DDL
	DDLKind     DDLKind
	DDLCols     []catalog.ColMeta
	DDLIndexOn  []string
	LoadFile    string
	SetOption   string
	SetValue    bool

	Limit *int
}
