// Package plan defines the canonical Condition/ProjItem shapes the semantic
// analyzer (C8) resolves a statement into, and the immutable Node tree the
// translator (C7) turns into an operator tree.
package plan

import (
	"smfdb/internal/dbtype"
)

// TabCol is a fully qualified column reference; every TabCol appearing in a
// post-analysis structure carries a non-empty Table per §3's invariant,
// except the empty TabCol the analyzer uses for COUNT(*).
type TabCol struct {
	Table string
	Col   string
}

// AggKind mirrors ast.AggKind at the canonical layer.
type AggKind int

const (
	AggNone AggKind = iota
	AggCount
	AggMax
	AggMin
	AggSum
)

// CmpOp mirrors ast.CmpOp at the canonical layer.
type CmpOp int

const (
	OpEq CmpOp = iota
	OpNe
	OpLt
	OpGt
	OpLe
	OpGe
	OpIn
)

// RHSKind tags which variant a Condition's right-hand side holds.
type RHSKind int

const (
	RHSValue RHSKind = iota
	RHSCol
	RHSList
	RHSSubquery
)

// Condition is one conjunct of a WHERE or HAVING clause, per §3. Sub, when
// RHSKind is RHSSubquery, is the fully lowered plan for a scalar or
// IN-subquery right-hand side; the translator builds it into an operator
// the condition re-opens for every outer tuple, per §4.6.3.
type Condition struct {
	LHS     TabCol
	Agg     AggKind // NONE in WHERE, one of {COUNT,MAX,MIN,SUM} in HAVING
	Op      CmpOp
	RHSKind RHSKind
	Value   dbtype.Value
	Col     TabCol
	List    []dbtype.Value
	Sub     *Node
}

// ProjItem is one parallel-vector entry of the projection list.
type ProjItem struct {
	Col   TabCol
	Agg   AggKind
	Alias string
}

// Assign is one UPDATE SET clause; Delta, when non-nil, adds a literal to
// the column's current value ("score=score+5").
type Assign struct {
	Col   TabCol
	Value *dbtype.Value
	Delta *dbtype.Value
}
