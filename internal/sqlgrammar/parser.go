package sqlgrammar

import (
	"fmt"
	"strconv"

	"smfdb/internal/ast"
)

// Parser consumes a Token slice into the closed ast.Stmt sum type.
type Parser struct {
	toks []Token
	pos  int
}

func NewParser(toks []Token) *Parser {
	return &Parser{toks: toks}
}

// Parse lexes and parses a single statement (trailing ';' optional).
func Parse(src string) (ast.Stmt, error) {
	toks, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := NewParser(toks)
	return p.parseStmt()
}

func (p *Parser) cur() Token  { return p.toks[p.pos] }
func (p *Parser) at(k Kind) bool { return p.cur().Kind == k }

// peek looks n tokens ahead of cur without consuming anything.
func (p *Parser) peek(n int) Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *Parser) advance() Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k Kind) (Token, error) {
	if !p.at(k) {
		return Token{}, fmt.Errorf("sqlgrammar: expected token kind %d, got %q at %d", k, p.cur().Text, p.cur().Pos)
	}
	return p.advance(), nil
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch p.cur().Kind {
	case KwCreate:
		return p.parseCreate()
	case KwDrop:
		return p.parseDrop()
	case KwDesc:
		p.advance()
		tab, err := p.expect(Ident)
		if err != nil {
			return nil, err
		}
		return &ast.Desc{Table: tab.Text}, nil
	case KwShow:
		return p.parseShow()
	case KwInsert:
		return p.parseInsert()
	case KwDelete:
		return p.parseDelete()
	case KwUpdate:
		return p.parseUpdate()
	case KwSelect:
		return p.parseSelect()
	case KwBegin:
		p.advance()
		return &ast.Begin{}, nil
	case KwCommit:
		p.advance()
		return &ast.Commit{}, nil
	case KwAbort, KwRollback:
		p.advance()
		return &ast.Abort{}, nil
	case KwLoad:
		return p.parseLoad()
	case KwSet:
		return p.parseSetOption()
	default:
		return nil, fmt.Errorf("sqlgrammar: unexpected statement start %q at %d", p.cur().Text, p.cur().Pos)
	}
}

func (p *Parser) parseCreate() (ast.Stmt, error) {
	p.advance() // CREATE
	switch p.cur().Kind {
	case KwTable:
		p.advance()
		name, err := p.expect(Ident)
		if err != nil {
			return nil, err
		}
		cols, err := p.parseColDefs()
		if err != nil {
			return nil, err
		}
		return &ast.CreateTable{Table: name.Text, Cols: cols}, nil
	case KwIndex:
		p.advance()
		name, err := p.expect(Ident)
		if err != nil {
			return nil, err
		}
		cols, err := p.parseColList()
		if err != nil {
			return nil, err
		}
		return &ast.CreateIndex{Table: name.Text, Cols: cols}, nil
	case KwStatic:
		p.advance()
		if p.at(KwCheckpoint) {
			p.advance()
		}
		return &ast.StaticCheckpoint{}, nil
	default:
		return nil, fmt.Errorf("sqlgrammar: expected TABLE, INDEX or STATIC_CHECKPOINT after CREATE at %d", p.cur().Pos)
	}
}

func (p *Parser) parseDrop() (ast.Stmt, error) {
	p.advance() // DROP
	switch p.cur().Kind {
	case KwTable:
		p.advance()
		name, err := p.expect(Ident)
		if err != nil {
			return nil, err
		}
		return &ast.DropTable{Table: name.Text}, nil
	case KwIndex:
		p.advance()
		name, err := p.expect(Ident)
		if err != nil {
			return nil, err
		}
		cols, err := p.parseColList()
		if err != nil {
			return nil, err
		}
		return &ast.DropIndex{Table: name.Text, Cols: cols}, nil
	default:
		return nil, fmt.Errorf("sqlgrammar: expected TABLE or INDEX after DROP at %d", p.cur().Pos)
	}
}

func (p *Parser) parseShow() (ast.Stmt, error) {
	p.advance() // SHOW
	switch p.cur().Kind {
	case KwTables:
		p.advance()
		return &ast.ShowTables{}, nil
	case KwIndex:
		p.advance()
		if _, err := p.expect(KwFrom); err != nil {
			return nil, err
		}
		tab, err := p.expect(Ident)
		if err != nil {
			return nil, err
		}
		return &ast.ShowIndex{Table: tab.Text}, nil
	default:
		return nil, fmt.Errorf("sqlgrammar: expected TABLES or INDEX after SHOW at %d", p.cur().Pos)
	}
}

func (p *Parser) parseColDefs() ([]ast.ColDef, error) {
	if _, err := p.expect(LParen); err != nil {
		return nil, err
	}
	var cols []ast.ColDef
	for {
		name, err := p.expect(Ident)
		if err != nil {
			return nil, err
		}
		ct, err := p.parseColType()
		if err != nil {
			return nil, err
		}
		cols = append(cols, ast.ColDef{Name: name.Text, Type: ct})
		if p.at(Comma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(RParen); err != nil {
		return nil, err
	}
	return cols, nil
}

func (p *Parser) parseColType() (ast.ColType, error) {
	switch p.cur().Kind {
	case KwInt:
		p.advance()
		return ast.ColType{Name: "INT"}, nil
	case KwFloat:
		p.advance()
		return ast.ColType{Name: "FLOAT"}, nil
	case KwChar:
		p.advance()
		if _, err := p.expect(LParen); err != nil {
			return ast.ColType{}, err
		}
		n, err := p.expect(IntNum)
		if err != nil {
			return ast.ColType{}, err
		}
		if _, err := p.expect(RParen); err != nil {
			return ast.ColType{}, err
		}
		length, _ := strconv.Atoi(n.Text)
		return ast.ColType{Name: "CHAR", Len: length}, nil
	default:
		return ast.ColType{}, fmt.Errorf("sqlgrammar: expected a column type at %d", p.cur().Pos)
	}
}

func (p *Parser) parseColList() ([]string, error) {
	if _, err := p.expect(LParen); err != nil {
		return nil, err
	}
	var cols []string
	for {
		id, err := p.expect(Ident)
		if err != nil {
			return nil, err
		}
		cols = append(cols, id.Text)
		if p.at(Comma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(RParen); err != nil {
		return nil, err
	}
	return cols, nil
}

func (p *Parser) parseInsert() (ast.Stmt, error) {
	p.advance() // INSERT
	if _, err := p.expect(KwInto); err != nil {
		return nil, err
	}
	tab, err := p.expect(Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(KwValues); err != nil {
		return nil, err
	}
	if _, err := p.expect(LParen); err != nil {
		return nil, err
	}
	var vals []ast.Expr
	for {
		e, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		vals = append(vals, e)
		if p.at(Comma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(RParen); err != nil {
		return nil, err
	}
	return &ast.Insert{Table: tab.Text, Values: vals}, nil
}

func (p *Parser) parseLiteral() (ast.Expr, error) {
	switch p.cur().Kind {
	case IntNum:
		t := p.advance()
		n, _ := strconv.ParseInt(t.Text, 10, 32)
		return ast.IntLit{Val: int32(n)}, nil
	case FloatNum:
		t := p.advance()
		f, _ := strconv.ParseFloat(t.Text, 32)
		return ast.FloatLit{Val: float32(f)}, nil
	case String:
		t := p.advance()
		return ast.StrLit{Val: t.Text}, nil
	case KwTrue:
		p.advance()
		return ast.IntLit{Val: 1}, nil
	case KwFalse:
		p.advance()
		return ast.IntLit{Val: 0}, nil
	default:
		return nil, fmt.Errorf("sqlgrammar: expected a literal at %d", p.cur().Pos)
	}
}

func (p *Parser) parseDelete() (ast.Stmt, error) {
	p.advance() // DELETE
	if _, err := p.expect(KwFrom); err != nil {
		return nil, err
	}
	tab, err := p.expect(Ident)
	if err != nil {
		return nil, err
	}
	var where []ast.Cond
	if p.at(KwWhere) {
		p.advance()
		where, err = p.parseConds()
		if err != nil {
			return nil, err
		}
	}
	return &ast.Delete{Table: tab.Text, Where: where}, nil
}

func (p *Parser) parseUpdate() (ast.Stmt, error) {
	p.advance() // UPDATE
	tab, err := p.expect(Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(KwSet); err != nil {
		return nil, err
	}
	var assigns []ast.Assign
	for {
		col, err := p.expect(Ident)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(Eq); err != nil {
			return nil, err
		}
		val, err := p.parseAssignExpr(col.Text)
		if err != nil {
			return nil, err
		}
		assigns = append(assigns, ast.Assign{Col: ast.ColRef{Col: col.Text}, Val: val})
		if p.at(Comma) {
			p.advance()
			continue
		}
		break
	}
	var where []ast.Cond
	if p.at(KwWhere) {
		p.advance()
		where, err = p.parseConds()
		if err != nil {
			return nil, err
		}
	}
	return &ast.Update{Table: tab.Text, Set: assigns, Where: where}, nil
}

// parseAssignExpr supports the seed-test shape "score=score+5": a bare
// literal, a bare column reference, or "col + literal".
func (p *Parser) parseAssignExpr(selfCol string) (ast.Expr, error) {
	if p.at(Ident) {
		col, err := p.parseColRef()
		if err != nil {
			return nil, err
		}
		if p.at(Plus) {
			p.advance()
			delta, err := p.parseLiteral()
			if err != nil {
				return nil, err
			}
			return ast.AddExpr{Col: col, Delta: delta}, nil
		}
		return col, nil
	}
	return p.parseLiteral()
}

func (p *Parser) parseSelect() (ast.Stmt, error) {
	p.advance() // SELECT
	items, err := p.parseSelectItems()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(KwFrom); err != nil {
		return nil, err
	}
	tables, err := p.parseTableList()
	if err != nil {
		return nil, err
	}
	sel := &ast.Select{Items: items, Tables: tables}

	if p.at(KwWhere) {
		p.advance()
		sel.Where, err = p.parseConds()
		if err != nil {
			return nil, err
		}
	}
	if p.at(KwGroup) {
		p.advance()
		if _, err := p.expect(KwBy); err != nil {
			return nil, err
		}
		for {
			c, err := p.parseColRef()
			if err != nil {
				return nil, err
			}
			sel.GroupBy = append(sel.GroupBy, c)
			if p.at(Comma) {
				p.advance()
				continue
			}
			break
		}
	}
	if p.at(KwHaving) {
		p.advance()
		sel.Having, err = p.parseConds()
		if err != nil {
			return nil, err
		}
	}
	if p.at(KwOrder) {
		p.advance()
		if _, err := p.expect(KwBy); err != nil {
			return nil, err
		}
		c, err := p.parseColRef()
		if err != nil {
			return nil, err
		}
		sel.OrderBy = &c
		sel.OrderDir = ast.Asc
		if p.at(KwAsc) {
			p.advance()
		} else if p.at(KwDesc) {
			p.advance()
			sel.OrderDir = ast.Desc
		}
	}
	if p.at(KwLimit) {
		p.advance()
		n, err := p.expect(IntNum)
		if err != nil {
			return nil, err
		}
		v, _ := strconv.Atoi(n.Text)
		sel.Limit = &v
	}
	return sel, nil
}

func (p *Parser) parseSelectItems() ([]ast.SelectItem, error) {
	if p.at(Star) {
		p.advance()
		return []ast.SelectItem{{Agg: ast.AggNone, Col: ast.ColRef{}}}, nil
	}
	var items []ast.SelectItem
	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.at(Comma) {
			p.advance()
			continue
		}
		break
	}
	return items, nil
}

func (p *Parser) parseSelectItem() (ast.SelectItem, error) {
	agg := ast.AggNone
	switch p.cur().Kind {
	case KwCount:
		agg = ast.AggCount
	case KwMax:
		agg = ast.AggMax
	case KwMin:
		agg = ast.AggMin
	case KwSum:
		agg = ast.AggSum
	}
	if agg != ast.AggNone {
		p.advance()
		if _, err := p.expect(LParen); err != nil {
			return ast.SelectItem{}, err
		}
		if agg == ast.AggCount && p.at(Star) {
			p.advance()
			if _, err := p.expect(RParen); err != nil {
				return ast.SelectItem{}, err
			}
			return ast.SelectItem{Agg: ast.AggCount, Col: ast.ColRef{}}, nil
		}
		col, err := p.parseColRef()
		if err != nil {
			return ast.SelectItem{}, err
		}
		if _, err := p.expect(RParen); err != nil {
			return ast.SelectItem{}, err
		}
		return ast.SelectItem{Agg: agg, Col: col}, nil
	}
	col, err := p.parseColRef()
	if err != nil {
		return ast.SelectItem{}, err
	}
	return ast.SelectItem{Agg: ast.AggNone, Col: col}, nil
}

func (p *Parser) parseColRef() (ast.ColRef, error) {
	first, err := p.expect(Ident)
	if err != nil {
		return ast.ColRef{}, err
	}
	if p.at(Dot) {
		p.advance()
		second, err := p.expect(Ident)
		if err != nil {
			return ast.ColRef{}, err
		}
		return ast.ColRef{Table: first.Text, Col: second.Text}, nil
	}
	return ast.ColRef{Col: first.Text}, nil
}

func (p *Parser) parseTableList() ([]string, error) {
	var tables []string
	for {
		t, err := p.expect(Ident)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t.Text)
		if p.at(Comma) {
			p.advance()
			continue
		}
		if p.at(KwJoin) {
			p.advance()
			continue
		}
		break
	}
	return tables, nil
}

func (p *Parser) parseConds() ([]ast.Cond, error) {
	var conds []ast.Cond
	for {
		c, err := p.parseCond()
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
		if p.at(KwAnd) {
			p.advance()
			continue
		}
		break
	}
	return conds, nil
}

func (p *Parser) parseCond() (ast.Cond, error) {
	var lhsAgg ast.AggKind
	var lhs ast.ColRef
	switch p.cur().Kind {
	case KwCount:
		lhsAgg = ast.AggCount
		p.advance()
		if _, err := p.expect(LParen); err != nil {
			return ast.Cond{}, err
		}
		if p.at(Star) {
			p.advance()
		} else {
			var err error
			lhs, err = p.parseColRef()
			if err != nil {
				return ast.Cond{}, err
			}
		}
		if _, err := p.expect(RParen); err != nil {
			return ast.Cond{}, err
		}
	case KwMax, KwMin, KwSum:
		switch p.cur().Kind {
		case KwMax:
			lhsAgg = ast.AggMax
		case KwMin:
			lhsAgg = ast.AggMin
		case KwSum:
			lhsAgg = ast.AggSum
		}
		p.advance()
		if _, err := p.expect(LParen); err != nil {
			return ast.Cond{}, err
		}
		var err error
		lhs, err = p.parseColRef()
		if err != nil {
			return ast.Cond{}, err
		}
		if _, err := p.expect(RParen); err != nil {
			return ast.Cond{}, err
		}
	default:
		var err error
		lhs, err = p.parseColRef()
		if err != nil {
			return ast.Cond{}, err
		}
	}

	op, err := p.parseOp()
	if err != nil {
		return ast.Cond{}, err
	}

	c := ast.Cond{LHS: lhs, Agg: lhsAgg, Op: op}

	if p.at(LParen) && p.peek(1).Kind == KwSelect {
		sub, err := p.parseSubquery()
		if err != nil {
			return ast.Cond{}, err
		}
		c.Sub = sub
		return c, nil
	}

	if op == ast.OpIn {
		if _, err := p.expect(LParen); err != nil {
			return ast.Cond{}, err
		}
		for {
			e, err := p.parseLiteral()
			if err != nil {
				return ast.Cond{}, err
			}
			c.RHSList = append(c.RHSList, e)
			if p.at(Comma) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(RParen); err != nil {
			return ast.Cond{}, err
		}
		return c, nil
	}

	// RHS is either a literal or a column reference (join predicate).
	switch p.cur().Kind {
	case IntNum, FloatNum, String, KwTrue, KwFalse:
		e, err := p.parseLiteral()
		if err != nil {
			return ast.Cond{}, err
		}
		c.RHS = e
	case Ident:
		col, err := p.parseColRef()
		if err != nil {
			return ast.Cond{}, err
		}
		c.RHSCol = &col
	default:
		return ast.Cond{}, fmt.Errorf("sqlgrammar: expected a condition right-hand side at %d", p.cur().Pos)
	}
	return c, nil
}

// parseSubquery parses "(" SELECT ... ")" as a condition's right-hand side,
// per §4.6.3; cur must be the opening paren.
func (p *Parser) parseSubquery() (*ast.Select, error) {
	if _, err := p.expect(LParen); err != nil {
		return nil, err
	}
	stmt, err := p.parseSelect()
	if err != nil {
		return nil, err
	}
	sel, ok := stmt.(*ast.Select)
	if !ok {
		return nil, fmt.Errorf("sqlgrammar: expected a SELECT inside subquery parens")
	}
	if _, err := p.expect(RParen); err != nil {
		return nil, err
	}
	return sel, nil
}

func (p *Parser) parseOp() (ast.CmpOp, error) {
	switch p.cur().Kind {
	case Eq:
		p.advance()
		return ast.OpEq, nil
	case Ne:
		p.advance()
		return ast.OpNe, nil
	case Lt:
		p.advance()
		return ast.OpLt, nil
	case Gt:
		p.advance()
		return ast.OpGt, nil
	case Le:
		p.advance()
		return ast.OpLe, nil
	case Ge:
		p.advance()
		return ast.OpGe, nil
	case KwIn:
		p.advance()
		return ast.OpIn, nil
	default:
		return 0, fmt.Errorf("sqlgrammar: expected a comparison operator at %d", p.cur().Pos)
	}
}

func (p *Parser) parseLoad() (ast.Stmt, error) {
	p.advance() // LOAD
	file, err := p.expect(String)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(KwInto); err != nil {
		return nil, err
	}
	tab, err := p.expect(Ident)
	if err != nil {
		return nil, err
	}
	return &ast.Load{File: file.Text, Table: tab.Text}, nil
}

func (p *Parser) parseSetOption() (ast.Stmt, error) {
	p.advance() // SET
	name, err := p.expect(Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(Eq); err != nil {
		return nil, err
	}
	var val bool
	switch p.cur().Kind {
	case KwTrue:
		p.advance()
		val = true
	case KwFalse:
		p.advance()
		val = false
	default:
		return nil, fmt.Errorf("sqlgrammar: expected true/false at %d", p.cur().Pos)
	}
	return &ast.SetOption{Name: name.Text, Value: val}, nil
}
