// Package ast defines the closed AST sum type the hand-written parser
// produces and the analyzer consumes exclusively, keeping the parser
// boundary §1 calls out as a swappable seam.
package ast

// Stmt is the tagged variant of every top-level statement the grammar
// accepts.
type Stmt interface{ stmt() }

type ColType struct {
	Name string // INT | FLOAT | CHAR
	Len  int    // CHAR(n); 0 otherwise
}

type ColDef struct {
	Name string
	Type ColType
}

type CreateTable struct {
	Table string
	Cols  []ColDef
}

func (*CreateTable) stmt() {}

type DropTable struct{ Table string }

func (*DropTable) stmt() {}

type CreateIndex struct {
	Table string
	Cols  []string
}

func (*CreateIndex) stmt() {}

type DropIndex struct {
	Table string
	Cols  []string
}

func (*DropIndex) stmt() {}

type Desc struct{ Table string }

func (*Desc) stmt() {}

type ShowTables struct{}

func (*ShowTables) stmt() {}

type ShowIndex struct{ Table string }

func (*ShowIndex) stmt() {}

// Expr is the tagged variant of a scalar expression appearing as a literal,
// column reference, or value-list element.
type Expr interface{ expr() }

type IntLit struct{ Val int32 }

func (IntLit) expr() {}

type FloatLit struct{ Val float32 }

func (FloatLit) expr() {}

type StrLit struct{ Val string }

func (StrLit) expr() {}

type ColRef struct {
	Table string // "" if unqualified
	Col   string
}

func (ColRef) expr() {}

// AddExpr is "col + literal", the only arithmetic UPDATE SET needs per §8's
// seed scenario ("score=score+5").
type AddExpr struct {
	Col   ColRef
	Delta Expr
}

func (AddExpr) expr() {}

// AggKind tags the aggregate function of a projection item or HAVING
// condition; AggNone for bare columns/WHERE.
type AggKind int

const (
	AggNone AggKind = iota
	AggCount
	AggMax
	AggMin
	AggSum
)

// CmpOp is a comparison operator as it appears in source text.
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

// Cond is one WHERE/HAVING conjunct.
type Cond struct {
	LHS     ColRef
	Agg     AggKind
	Op      CmpOp
	RHS     Expr    // literal
	RHSCol  *ColRef // column-to-column comparison (join predicate)
	RHSList []Expr  // IN-list
	Sub     *Select // scalar or IN subquery
}

type OrderDir int

const (
	Asc OrderDir = iota
	Desc
)

type SelectItem struct {
	Col   ColRef // empty Col with Agg==AggCount means COUNT(*)
	Agg   AggKind
	Alias string
}

type Select struct {
	Items    []SelectItem
	Tables   []string
	Where    []Cond
	GroupBy  []ColRef
	Having   []Cond
	OrderBy  *ColRef
	OrderDir OrderDir
	Limit    *int
}

func (*Select) stmt() {}

type Assign struct {
	Col ColRef
	Val Expr
}

type Insert struct {
	Table  string
	Values []Expr
}

func (*Insert) stmt() {}

type Update struct {
	Table string
	Set   []Assign
	Where []Cond
}

func (*Update) stmt() {}

type Delete struct {
	Table string
	Where []Cond
}

func (*Delete) stmt() {}

type Begin struct{}

func (*Begin) stmt() {}

type Commit struct{}

func (*Commit) stmt() {}

type Abort struct{}

func (*Abort) stmt() {}

type StaticCheckpoint struct{}

func (*StaticCheckpoint) stmt() {}

type Load struct {
	File  string
	Table string
}

func (*Load) stmt() {}

type SetOption struct {
	Name  string // enable_nestloop | enable_sortmerge | enable_output_file
	Value bool
}

func (*SetOption) stmt() {}
