// Package sqlgrammar is a hand-written lexer and recursive-descent parser
// for the engine's own SQL surface (§6): standard DML/SELECT plus the
// non-standard extensions (CREATE INDEX without ON, STATIC_CHECKPOINT,
// LOAD ... INTO) that rule out reusing a general-purpose SQL grammar.
package sqlgrammar

type Kind int

const (
	EOF Kind = iota
	Ident
	IntNum
	FloatNum
	String

	// punctuation
	LParen
	RParen
	Comma
	Semicolon
	Star
	Dot
	Plus

	// operators
	Eq
	Ne
	Lt
	Gt
	Le
	Ge

	// keywords
	KwCreate
	KwDrop
	KwTable
	KwIndex
	KwDesc
	KwShow
	KwTables
	KwFrom
	KwInsert
	KwInto
	KwValues
	KwDelete
	KwUpdate
	KwSet
	KwWhere
	KwSelect
	KwJoin
	KwGroup
	KwBy
	KwHaving
	KwOrder
	KwAsc
	KwDescDir
	KwLimit
	KwBegin
	KwCommit
	KwAbort
	KwRollback
	KwStatic
	KwCheckpoint
	KwLoad
	KwAnd
	KwIn
	KwInt
	KwFloat
	KwChar
	KwCount
	KwMax
	KwMin
	KwSum
	KwTrue
	KwFalse
	KwEnableNestloop
	KwEnableSortmerge
	KwEnableOutputFile
)

var keywords = map[string]Kind{
	"CREATE": KwCreate, "DROP": KwDrop, "TABLE": KwTable, "INDEX": KwIndex,
	"DESC": KwDesc, "SHOW": KwShow, "TABLES": KwTables, "FROM": KwFrom,
	"INSERT": KwInsert, "INTO": KwInto, "VALUES": KwValues, "DELETE": KwDelete,
	"UPDATE": KwUpdate, "SET": KwSet, "WHERE": KwWhere, "SELECT": KwSelect,
	"JOIN": KwJoin, "GROUP": KwGroup, "BY": KwBy, "HAVING": KwHaving,
	"ORDER": KwOrder, "ASC": KwAsc, "LIMIT": KwLimit, "BEGIN": KwBegin,
	"COMMIT": KwCommit, "ABORT": KwAbort, "ROLLBACK": KwRollback,
	"STATIC_CHECKPOINT": KwStatic, "LOAD": KwLoad, "AND": KwAnd, "IN": KwIn,
	"INT": KwInt, "FLOAT": KwFloat, "CHAR": KwChar,
	"COUNT": KwCount, "MAX": KwMax, "MIN": KwMin, "SUM": KwSum,
	"TRUE": KwTrue, "FALSE": KwFalse,
}

// Token is one lexed unit with its source text (for strings, without the
// quotes; for keywords, upper-cased) and its position in the source.
type Token struct {
	Kind Kind
	Text string
	Pos  int
}
